package store

import (
	"fmt"

	"github.com/chunklake/chunklake/chunk"
	"github.com/chunklake/chunklake/internal/warnonce"
)

// InsertChunk inserts c into the store. If the store was modified and
// s.config.EnableChangelog is set, the resulting Events are returned and
// delivered synchronously to every registered Subscriber before this call
// returns; otherwise the returned slice is nil.
//
// Grounded line-by-line on `ChunkStore::insert_chunk` in
// original_source/crates/store/re_chunk_store/src/writes.rs.
func (s *Store) InsertChunk(c *chunk.Chunk) ([]Event, error) {
	if _, exists := s.chunksByID[c.ID()]; exists {
		warnonce.Warn(fmt.Sprintf("chunk %s was inserted more than once (this has no effect)", c.ID()))
		return nil, nil
	}

	if !c.IsSorted() {
		return nil, ErrUnsortedChunk.New(c.ID())
	}

	rowIDRange, ok := c.RowIDRange()
	if !ok {
		// Empty chunk: no-op. The data model promises chunks always carry
		// at least one row, but an empty Builder output is tolerated here
		// defensively rather than by invariant violation.
		return nil, nil
	}

	s.insertID++

	var installed *chunk.Chunk
	var diffs []Diff

	if c.IsStatic() {
		installed, diffs = s.insertStatic(c)
	} else {
		var err error
		installed, diffs, err = s.insertTemporal(c)
		if err != nil {
			return nil, err
		}
	}

	s.chunksByID[installed.ID()] = installed
	// Index by the installed chunk's own minimum: after compaction that is
	// the merged chunk's range, not the incoming chunk's.
	installedRange, _ := installed.RowIDRange()
	s.chunkIDsByMinRowID[installedRange.Min] = append(s.chunkIDsByMinRowID[installedRange.Min], installed.ID())

	for desc, col := range installed.Components() {
		s.typeRegistry[desc.Component] = col.Kind()
	}

	if !s.config.EnableChangelog {
		return nil, nil
	}

	events := make([]Event, 0, len(diffs))
	for _, diff := range diffs {
		events = append(events, Event{
			StoreID:    s.id,
			Generation: s.Generation(),
			EventID:    s.nextEventID(),
			Diff:       diff,
		})
	}
	onEvents(events)
	return events, nil
}

// insertStatic handles a static chunk: for each component column with any
// non-null value, upsert into staticChunkIDsByEntity, the winner being
// whichever chunk has the larger per-component RowId maximum.
func (s *Store) insertStatic(c *chunk.Chunk) (*chunk.Chunk, []Diff) {
	rowIDRangePerComponent := c.RowIDRangePerComponent()

	byComponent, ok := s.staticChunkIDsByEntity[c.EntityPath()]
	if !ok {
		byComponent = map[chunk.ComponentName]chunk.ChunkId{}
		s.staticChunkIDsByEntity[c.EntityPath()] = byComponent
	}

	for desc := range c.Components() {
		rng, hasNonNull := rowIDRangePerComponent[desc]
		if !hasNonNull {
			continue
		}

		curID, exists := byComponent[desc.Component]
		if !exists {
			byComponent[desc.Component] = c.ID()
			continue
		}

		curMax := chunk.ZeroRowId
		if curChunk, ok := s.chunksByID[curID]; ok {
			if curRanges := curChunk.RowIDRangePerComponent(); curRanges != nil {
				if curRng, ok := curRanges[desc]; ok {
					curMax = curRng.Max
				}
			}
		}
		if curMax.Less(rng.Max) {
			byComponent[desc.Component] = c.ID()
		}
	}

	s.staticStats.Add(StatsFromChunk(c))

	return c, []Diff{additionDiff(c)}
}

// ResolveStaticComponent returns the chunk currently elected as the static
// winner for (entity, desc.Component) — the chunk insertStatic would leave
// indexed as the read path's answer for that column — and whether a static
// chunk for it exists at all.
func (s *Store) ResolveStaticComponent(entity chunk.EntityPath, desc chunk.ComponentDescriptor) (*chunk.Chunk, bool) {
	byComponent, ok := s.staticChunkIDsByEntity[entity]
	if !ok {
		return nil, false
	}
	id, ok := byComponent[desc.Component]
	if !ok {
		return nil, false
	}
	c, ok := s.chunksByID[id]
	return c, ok
}

// insertTemporal handles a temporal chunk: elect a compaction candidate,
// concatenate if one is found, then index the installed chunk across every
// (timeline, component) key it carries data for.
func (s *Store) insertTemporal(c *chunk.Chunk) (*chunk.Chunk, []Diff, error) {
	elected := s.findAndElectCompactionCandidate(c)

	installed := c
	var diffs []Diff

	if elected != nil {
		electedRange, _ := elected.RowIDRange()
		cRange, _ := c.RowIDRange()

		var compacted *chunk.Chunk
		var err error
		if electedRange.Min.Less(cRange.Min) {
			compacted, err = elected.Concatenated(c)
		} else {
			compacted, err = c.Concatenated(elected)
		}
		if err != nil {
			return nil, nil, ErrIncompatibleSchema.New(c.ID(), err.Error())
		}
		compacted.SortIfUnsorted()

		installed = compacted
		diffs = append(diffs, additionDiff(installed))
		diffs = append(diffs, s.removeTemporalChunk(elected)...)
	} else {
		diffs = append(diffs, additionDiff(installed))
	}

	byTimeline, ok := s.temporalChunkIDsByEntity[installed.EntityPath()]
	if !ok {
		byTimeline = map[chunk.Timeline]map[chunk.ComponentName]*ChunkIdSetPerTime{}
		s.temporalChunkIDsByEntity[installed.EntityPath()] = byTimeline
	}

	for timeline, perComponent := range installed.TimeRangePerComponent() {
		byComponent, ok := byTimeline[timeline]
		if !ok {
			byComponent = map[chunk.ComponentName]*ChunkIdSetPerTime{}
			byTimeline[timeline] = byComponent
		}
		for desc, rng := range perComponent {
			bucket, ok := byComponent[desc.Component]
			if !ok {
				bucket = newChunkIdSetPerTime()
				byComponent[desc.Component] = bucket
			}
			bucket.insert(rng, installed.ID())
		}
	}

	s.temporalStats.Add(StatsFromChunk(installed))

	return installed, diffs, nil
}

// removeTemporalChunk deletes a previously-installed temporal chunk from
// every index that references it and returns its deletion Diff. Used by
// compaction to retire the elected neighbor; DropEntityPath does its own
// bulk removal.
func (s *Store) removeTemporalChunk(c *chunk.Chunk) []Diff {
	delete(s.chunksByID, c.ID())

	if rng, ok := c.RowIDRange(); ok {
		ids := s.chunkIDsByMinRowID[rng.Min]
		for i, id := range ids {
			if id == c.ID() {
				s.chunkIDsByMinRowID[rng.Min] = append(ids[:i], ids[i+1:]...)
				break
			}
		}
		if len(s.chunkIDsByMinRowID[rng.Min]) == 0 {
			delete(s.chunkIDsByMinRowID, rng.Min)
		}
	}

	if byTimeline, ok := s.temporalChunkIDsByEntity[c.EntityPath()]; ok {
		for timeline, perComponent := range c.TimeRangePerComponent() {
			byComponent, ok := byTimeline[timeline]
			if !ok {
				continue
			}
			for desc, rng := range perComponent {
				if bucket, ok := byComponent[desc.Component]; ok {
					bucket.remove(rng, c.ID())
				}
			}
		}
	}

	s.temporalStats.Sub(StatsFromChunk(c))

	return []Diff{deletionDiff(c)}
}
