package store_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chunklake/chunklake/chunk"
	"github.com/chunklake/chunklake/store"
)

func TestDropEntityPathRemovesBothStaticAndTemporalChunks(t *testing.T) {
	s := store.New("s1", store.DefaultConfig())

	static := staticChunk("/points", posDesc("Color"), 1)
	temporal := temporalChunk("/points", posDesc("Position3D"), 1, 2)
	_, err := s.InsertChunk(static)
	require.NoError(t, err)
	_, err = s.InsertChunk(temporal)
	require.NoError(t, err)
	require.Equal(t, 2, s.NumChunks())

	events := s.DropEntityPath("/points")
	require.Len(t, events, 2)

	ids := map[chunk.ChunkId]bool{}
	for _, e := range events {
		assert.Equal(t, store.DiffDeletion, e.Diff.Kind)
		ids[e.Diff.Chunk.ID()] = true
	}
	assert.True(t, ids[static.ID()])
	assert.True(t, ids[temporal.ID()])
	assert.Equal(t, 0, s.NumChunks())
}

func TestDropEntityPathDecrementsStats(t *testing.T) {
	s := store.New("s1", store.DefaultConfig())
	c := temporalChunk("/points", posDesc("Position3D"), 1, 2, 3)
	_, err := s.InsertChunk(c)
	require.NoError(t, err)

	before := s.Stats()
	assert.Equal(t, uint64(3), before.Temporal.NumRows)

	s.DropEntityPath("/points")

	after := s.Stats()
	assert.Equal(t, uint64(0), after.Temporal.NumRows)
	assert.Equal(t, uint64(0), after.Temporal.NumChunks)
}

func TestDropEntityPathTwiceIsSecondCallNoOp(t *testing.T) {
	s := store.New("s1", store.DefaultConfig())
	_, err := s.InsertChunk(temporalChunk("/points", posDesc("Position3D"), 1))
	require.NoError(t, err)

	first := s.DropEntityPath("/points")
	require.Len(t, first, 1)

	second := s.DropEntityPath("/points")
	assert.Nil(t, second)
}

func TestDropEntityPathGCIDAdvancesEvenWhenNothingIsDropped(t *testing.T) {
	s := store.New("s1", store.DefaultConfig())
	g0 := s.Generation()

	events := s.DropEntityPath("/never/inserted")
	assert.Nil(t, events)

	g1 := s.Generation()
	assert.Greater(t, g1.GCID, g0.GCID)
}
