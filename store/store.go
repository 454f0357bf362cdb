// Package store implements the chunk store: insertion, indexing,
// compaction, schema introspection, and change events.
package store

import (
	"sync/atomic"

	"github.com/chunklake/chunklake/chunk"
)

// StoreId identifies a store instance, used in Events and log lines. It has
// no semantics beyond equality.
type StoreId string

// Store owns every index chunklake maintains over a set of chunks. It is
// not internally synchronized: callers are expected to wrap it in an
// exclusive access lock (e.g. a sync.Mutex held for the duration of
// InsertChunk or DropEntityPath).
type Store struct {
	id     StoreId
	config Config

	chunksByID map[chunk.ChunkId]*chunk.Chunk

	// chunkIDsByMinRowID indexes every chunk by its row-id-range minimum,
	// for row-id-ordered iteration. A min RowId can in principle collide
	// across chunks (two chunks inserted in the same nanosecond by
	// different producers), so each bucket holds a slice, not a single id.
	chunkIDsByMinRowID map[chunk.RowId][]chunk.ChunkId

	// temporalChunkIDsByEntity indexes temporal chunks:
	// EntityPath -> Timeline -> ComponentName -> ChunkIdSetPerTime.
	temporalChunkIDsByEntity map[chunk.EntityPath]map[chunk.Timeline]map[chunk.ComponentName]*ChunkIdSetPerTime

	// staticChunkIDsByEntity indexes static chunks:
	// EntityPath -> ComponentName -> ChunkId (exactly one winner per key).
	staticChunkIDsByEntity map[chunk.EntityPath]map[chunk.ComponentName]chunk.ChunkId

	// typeRegistry is a last-writer-wins record of the observed element
	// type of every component ever inserted, by short name.
	typeRegistry map[chunk.ComponentName]chunk.ValueKind

	staticStats   ChunkStats
	temporalStats ChunkStats

	insertID uint64
	gcID     uint64
	eventID  atomic.Uint64
}

// New constructs an empty Store.
func New(id StoreId, config Config) *Store {
	return &Store{
		id:                       id,
		config:                   config,
		chunksByID:               map[chunk.ChunkId]*chunk.Chunk{},
		chunkIDsByMinRowID:       map[chunk.RowId][]chunk.ChunkId{},
		temporalChunkIDsByEntity: map[chunk.EntityPath]map[chunk.Timeline]map[chunk.ComponentName]*ChunkIdSetPerTime{},
		staticChunkIDsByEntity:   map[chunk.EntityPath]map[chunk.ComponentName]chunk.ChunkId{},
		typeRegistry:             map[chunk.ComponentName]chunk.ValueKind{},
	}
}

// ID returns the store's identity.
func (s *Store) ID() StoreId { return s.id }

// Config returns the store's current configuration.
func (s *Store) Config() Config { return s.config }

// NumChunks returns the total number of chunks (static + temporal) held by
// the store.
func (s *Store) NumChunks() int { return len(s.chunksByID) }

// Chunk looks up a chunk by id.
func (s *Store) Chunk(id chunk.ChunkId) (*chunk.Chunk, bool) {
	c, ok := s.chunksByID[id]
	return c, ok
}

// Stats returns the store's current static/temporal byte and row counts.
func (s *Store) Stats() Stats {
	return Stats{Static: s.staticStats, Temporal: s.temporalStats}
}

// Generation returns the store's current (insert_id, gc_id) pair.
func (s *Store) Generation() Generation {
	return Generation{InsertID: s.insertID, GCID: s.gcID}
}

// nextEventID draws the next value from the store's monotonic event-id
// counter. Event ids only need to be strictly increasing within a store,
// not globally unique across stores; an atomic counter on the Store is
// sufficient and keeps two Store instances from starving each other's ids.
func (s *Store) nextEventID() uint64 {
	return s.eventID.Add(1)
}
