package store_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chunklake/chunklake/chunk"
	"github.com/chunklake/chunklake/store"
)

// TestCompactionCollapsesFourChunksToOne inserts four small, adjacent
// single-row chunks on the same (entity, timeline, component) key and
// expects them to have compacted down to a single chunk, since each stays
// well under the default byte/row thresholds.
func TestCompactionCollapsesFourChunksToOne(t *testing.T) {
	s := store.New("s1", store.DefaultConfig())
	desc := posDesc("Position3D")

	var lastID chunk.ChunkId
	for i := int64(1); i <= 4; i++ {
		c := temporalChunk("/points", desc, i)
		events, err := s.InsertChunk(c)
		require.NoError(t, err)
		require.NotEmpty(t, events)
		lastID = events[0].Diff.Chunk.ID()
	}

	assert.Equal(t, 1, s.NumChunks())

	final, ok := s.Chunk(lastID)
	require.True(t, ok)
	assert.Equal(t, 4, final.NumRows())
	assert.True(t, final.IsSorted())

	rng, ok := final.RowIDRange()
	require.True(t, ok)
	assert.True(t, rng.Min.Less(rng.Max) || rng.Min == rng.Max)
}

func TestCompactionRespectsChunkMaxRows(t *testing.T) {
	cfg := store.DefaultConfig()
	cfg.ChunkMaxRows = 1
	s := store.New("s1", cfg)
	desc := posDesc("Position3D")

	_, err := s.InsertChunk(temporalChunk("/points", desc, 1))
	require.NoError(t, err)
	_, err = s.InsertChunk(temporalChunk("/points", desc, 2))
	require.NoError(t, err)

	// Each chunk already carries 1 row; compacting either pair would exceed
	// ChunkMaxRows=1, so both chunks must remain separate.
	assert.Equal(t, 2, s.NumChunks())
}

func TestCompactionSkipsUnrelatedEntities(t *testing.T) {
	s := store.New("s1", store.DefaultConfig())
	desc := posDesc("Position3D")

	_, err := s.InsertChunk(temporalChunk("/a", desc, 1))
	require.NoError(t, err)
	_, err = s.InsertChunk(temporalChunk("/b", desc, 1))
	require.NoError(t, err)

	assert.Equal(t, 2, s.NumChunks())
}

func TestInsertChunkUpdatesStatsIncrementally(t *testing.T) {
	s := store.New("s1", store.DefaultConfig())
	desc := posDesc("Position3D")

	c := temporalChunk("/points", desc, 1, 2, 3)
	_, err := s.InsertChunk(c)
	require.NoError(t, err)

	stats := s.Stats()
	assert.Equal(t, uint64(3), stats.Temporal.NumRows)
	assert.Equal(t, uint64(1), stats.Temporal.NumChunks)
	assert.Equal(t, c.TotalSizeBytes(), stats.Temporal.NumBytes)
}
