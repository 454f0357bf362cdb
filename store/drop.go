package store

import (
	"github.com/chunklake/chunklake/chunk"
)

// DropEntityPath unconditionally removes every static and temporal chunk
// bound to entityPath, returning one deletion Event per dropped chunk.
// This is not recursive: the caller must walk children itself if it wants
// to drop a subtree. Grounded on `drop_entity_path` in
// original_source/crates/store/re_chunk_store/src/writes.rs.
func (s *Store) DropEntityPath(entityPath chunk.EntityPath) []Event {
	s.gcID++

	generation := s.Generation()

	var diffs []Diff

	if _, ok := s.staticChunkIDsByEntity[entityPath]; ok {
		delete(s.staticChunkIDsByEntity, entityPath)
		// Every static chunk of the entity goes, including ones that no
		// longer win any component in staticChunkIDsByEntity.
		var ids []chunk.ChunkId
		for id, c := range s.chunksByID {
			if c.IsStatic() && c.EntityPath() == entityPath {
				ids = append(ids, id)
			}
		}
		for _, id := range ids {
			if c, ok := s.chunksByID[id]; ok {
				delete(s.chunksByID, id)
				s.removeFromRowIDIndex(c)
				s.staticStats.Sub(StatsFromChunk(c))
				diffs = append(diffs, deletionDiff(c))
			}
		}
	}

	if byTimeline, ok := s.temporalChunkIDsByEntity[entityPath]; ok {
		delete(s.temporalChunkIDsByEntity, entityPath)

		seen := map[chunk.ChunkId]struct{}{}
		var ids []chunk.ChunkId
		for _, byComponent := range byTimeline {
			for _, bucket := range byComponent {
				for _, id := range bucket.PerStartTime.allChunkIds() {
					if _, dup := seen[id]; !dup {
						seen[id] = struct{}{}
						ids = append(ids, id)
					}
				}
			}
		}

		for _, id := range ids {
			if c, ok := s.chunksByID[id]; ok {
				delete(s.chunksByID, id)
				s.removeFromRowIDIndex(c)
				s.temporalStats.Sub(StatsFromChunk(c))
				diffs = append(diffs, deletionDiff(c))
			}
		}
	}

	if len(diffs) == 0 || !s.config.EnableChangelog {
		return nil
	}

	events := make([]Event, 0, len(diffs))
	for _, diff := range diffs {
		events = append(events, Event{
			StoreID:    s.id,
			Generation: generation,
			EventID:    s.nextEventID(),
			Diff:       diff,
		})
	}
	onEvents(events)
	return events
}

func (s *Store) removeFromRowIDIndex(c *chunk.Chunk) {
	rng, ok := c.RowIDRange()
	if !ok {
		return
	}
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
