package store

import "github.com/chunklake/chunklake/chunk"

// ChunkStats is a running tally of rows/bytes/chunks, tracked separately
// for static and temporal data so Stats() can report both. Grounded on
// `ChunkStoreChunkStats` in
// original_source/crates/store/re_chunk_store/src/writes.rs.
type ChunkStats struct {
	NumChunks uint64
	NumRows   uint64
	NumBytes  uint64
}

// StatsFromChunk returns the contribution a single chunk makes to a
// ChunkStats accumulator.
func StatsFromChunk(c *chunk.Chunk) ChunkStats {
	return ChunkStats{
		NumChunks: 1,
		NumRows:   uint64(c.NumRows()),
		NumBytes:  c.TotalSizeBytes(),
	}
}

// Add accumulates other into s.
func (s *ChunkStats) Add(other ChunkStats) {
	s.NumChunks += other.NumChunks
	s.NumRows += other.NumRows
	s.NumBytes += other.NumBytes
}

// Sub removes other's contribution from s. Used when a chunk is compacted
// away or dropped.
func (s *ChunkStats) Sub(other ChunkStats) {
	s.NumChunks -= other.NumChunks
	s.NumRows -= other.NumRows
	s.NumBytes -= other.NumBytes
}

// Stats bundles the static/temporal breakdown returned by Store.Stats.
type Stats struct {
	Static   ChunkStats
	Temporal ChunkStats
}

// Generation identifies a specific revision of a store's contents: it
// changes on every InsertChunk that adds a chunk (InsertID) and every
// DropEntityPath (GCID).
type Generation struct {
	InsertID uint64
	GCID     uint64
}
