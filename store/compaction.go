package store

import (
	"sort"

	"github.com/chunklake/chunklake/chunk"
)

// findAndElectCompactionCandidate scores every chunk adjacent to or
// overlapping c in the per-(timeline, component) time index, grounded on
// `find_and_elect_compaction_candidate` in
// original_source/crates/store/re_chunk_store/src/writes.rs. It returns nil
// if no neighbor qualifies.
func (s *Store) findAndElectCompactionCandidate(c *chunk.Chunk) *chunk.Chunk {
	byTimeline, ok := s.temporalChunkIDsByEntity[c.EntityPath()]
	if !ok {
		return nil
	}

	belowThreshold := map[chunk.ChunkId]bool{}
	isBelowThreshold := func(candidateID chunk.ChunkId) bool {
		if v, ok := belowThreshold[candidateID]; ok {
			return v
		}
		candidate, ok := s.chunksByID[candidateID]
		if !ok {
			belowThreshold[candidateID] = false
			return false
		}

		totalBytes := c.TotalSizeBytes() + candidate.TotalSizeBytes()
		belowBytes := totalBytes <= s.config.ChunkMaxBytes

		totalRows := uint64(c.NumRows() + candidate.NumRows())
		var belowRows bool
		if candidate.IsTimeSorted() {
			belowRows = totalRows <= s.config.ChunkMaxRows
		} else {
			belowRows = totalRows <= s.config.ChunkMaxRowsIfUnsorted
		}

		result := belowBytes && belowRows
		belowThreshold[candidateID] = result
		return result
	}

	scores := map[chunk.ChunkId]int{}
	scoreOrder := []chunk.ChunkId{}
	addScore := func(id chunk.ChunkId, points int) {
		if !isBelowThreshold(id) {
			return
		}
		if _, seen := scores[id]; !seen {
			scoreOrder = append(scoreOrder, id)
		}
		scores[id] += points
	}

	// Iterated in a fixed (timeline, component) order rather than Go's
	// randomized map order: when two candidates tie in score, the one
	// discovered first (via the scoreOrder insertion below) wins, and that
	// bias must not depend on map iteration order to stay deterministic
	// across runs.
	for _, key := range sortedTimeComponentKeys(c.TimeRangePerComponent()) {
		byComponent, ok := byTimeline[key.timeline]
		if !ok {
			continue
		}
		bucket, ok := byComponent[key.desc.Component]
		if !ok {
			continue
		}

		if _, chunkIDs, ok := bucket.PerStartTime.lastBefore(key.timeRange.Min); ok {
			for _, id := range sortedChunkIDs(chunkIDs) {
				addScore(id, 1)
			}
		}
		if _, chunkIDs, ok := bucket.PerStartTime.firstAtOrAfter(key.timeRange.Max.Inc()); ok {
			for _, id := range sortedChunkIDs(chunkIDs) {
				addScore(id, 1)
			}
		}
		if chunkIDs, ok := bucket.PerStartTime.get(key.timeRange.Min); ok {
			for _, id := range sortedChunkIDs(chunkIDs) {
				addScore(id, 2)
			}
		}
	}

	if len(scoreOrder) == 0 {
		return nil
	}

	// Stable sort by descending score; ties keep scan order, with the
	// left-neighbor-before-right-neighbor bias that scoreOrder's insertion
	// order naturally gives us (per-component neighbor lookups always
	// check "before" first). Ties are broken deterministically in favor of
	// the earlier-discovered (left) neighbor.
	sort.SliceStable(scoreOrder, func(i, j int) bool {
		return scores[scoreOrder[i]] > scores[scoreOrder[j]]
	})

	winnerID := scoreOrder[0]
	winner, ok := s.chunksByID[winnerID]
	if !ok {
		return nil
	}
	return winner
}

type timeComponentKey struct {
	timeline  chunk.Timeline
	desc      chunk.ComponentDescriptor
	timeRange chunk.TimeRange
}

// sortedTimeComponentKeys flattens TimeRangePerComponent's nested maps into
// a slice ordered by (timeline name, component name), so the scoring loop
// above doesn't inherit Go's randomized map iteration order.
func sortedTimeComponentKeys(perTimeline map[chunk.Timeline]map[chunk.ComponentDescriptor]chunk.TimeRange) []timeComponentKey {
	keys := make([]timeComponentKey, 0, len(perTimeline))
	for timeline, perComponent := range perTimeline {
		for desc, rng := range perComponent {
			keys = append(keys, timeComponentKey{timeline: timeline, desc: desc, timeRange: rng})
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].timeline.Name != keys[j].timeline.Name {
			return keys[i].timeline.Name < keys[j].timeline.Name
		}
		return keys[i].desc.Component < keys[j].desc.Component
	})
	return keys
}

// sortedChunkIDs orders a bucket's ChunkId set by byte value, per ChunkId's
// own documented role as compaction's tie-break key, so a bucket holding
// more than one chunk at the same time key doesn't score them in a
// map-iteration-dependent order either.
func sortedChunkIDs(ids map[chunk.ChunkId]struct{}) []chunk.ChunkId {
	out := make([]chunk.ChunkId, 0, len(ids))
	for id := range ids {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Compare(out[j]) < 0 })
	return out
}
