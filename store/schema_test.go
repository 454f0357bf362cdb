package store_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chunklake/chunklake/chunk"
	"github.com/chunklake/chunklake/store"
)

func TestSchemaIncludesRowIdTimelineAndComponentColumns(t *testing.T) {
	s := store.New("s1", store.DefaultConfig())
	_, err := s.InsertChunk(temporalChunk("/points", posDesc("Position3D"), 1, 2))
	require.NoError(t, err)

	schema := s.Schema()
	require.NotEmpty(t, schema.Columns)
	assert.True(t, schema.Columns[0].IsRowID)

	var sawTimeline, sawComponent bool
	for _, col := range schema.Columns[1:] {
		if col.Timeline == frame {
			sawTimeline = true
		}
		if col.Component == posDesc("Position3D") {
			sawComponent = true
		}
	}
	assert.True(t, sawTimeline)
	assert.True(t, sawComponent)
}

func TestSchemaForQueryRestrictsToViewContents(t *testing.T) {
	s := store.New("s1", store.DefaultConfig())
	_, err := s.InsertChunk(temporalChunk("/points", posDesc("Position3D"), 1))
	require.NoError(t, err)
	_, err = s.InsertChunk(temporalChunk("/points", posDesc("Color"), 1))
	require.NoError(t, err)

	filtered := s.SchemaForQuery(store.QueryExpression{
		ViewContents: map[chunk.EntityPath][]chunk.ComponentDescriptor{
			"/points": {posDesc("Position3D")},
		},
	}, nil)

	var sawPosition, sawColor bool
	for _, col := range filtered.Columns {
		if col.Component == posDesc("Position3D") {
			sawPosition = true
		}
		if col.Component == posDesc("Color") {
			sawColor = true
		}
	}
	assert.True(t, sawPosition)
	assert.False(t, sawColor)
}

func TestSchemaForQueryExcludesIndicatorColsByDefault(t *testing.T) {
	s := store.New("s1", store.DefaultConfig())
	desc := posDesc("PointsIndicator")
	_, err := s.InsertChunk(temporalChunk("/points", desc, 1))
	require.NoError(t, err)

	metadata := map[chunk.ComponentDescriptor]store.ColumnMetadata{
		desc: {IsIndicator: true},
	}

	filtered := s.SchemaForQuery(store.QueryExpression{IncludeIndicatorCols: false}, metadata)
	for _, col := range filtered.Columns {
		assert.NotEqual(t, desc, col.Component)
	}

	included := s.SchemaForQuery(store.QueryExpression{IncludeIndicatorCols: true}, metadata)
	var found bool
	for _, col := range included.Columns {
		if col.Component == desc {
			found = true
		}
	}
	assert.True(t, found)
}

func TestResolveTimeSelectorFallsBackToSyntheticTimeTimelineWhenUnknown(t *testing.T) {
	s := store.New("s1", store.DefaultConfig())
	_, err := s.InsertChunk(temporalChunk("/points", posDesc("Position3D"), 1))
	require.NoError(t, err)

	known := s.ResolveTimeSelector("frame")
	assert.True(t, known.IsKnown)
	assert.Equal(t, frame, known.Timeline)

	unknown := s.ResolveTimeSelector("never_seen")
	assert.False(t, unknown.IsKnown)
	assert.Equal(t, "never_seen", unknown.Timeline.Name)
}

func TestResolveComponentSelectorIsCaseInsensitive(t *testing.T) {
	s := store.New("s1", store.DefaultConfig())
	_, err := s.InsertChunk(temporalChunk("/points", posDesc("Position3D"), 1))
	require.NoError(t, err)

	resolved := s.ResolveComponentSelector("position3d")
	assert.True(t, resolved.IsKnown)
	assert.Equal(t, chunk.ComponentName("Position3D"), resolved.Descriptor.Component)
	assert.Equal(t, chunk.KindFloat64, resolved.Kind)

	unresolved := s.ResolveComponentSelector("NoSuchComponent")
	assert.False(t, unresolved.IsKnown)
	assert.Equal(t, chunk.KindUnknown, unresolved.Kind)
}

func TestResolveSelectorsComposesTimeAndComponentResolution(t *testing.T) {
	s := store.New("s1", store.DefaultConfig())
	_, err := s.InsertChunk(temporalChunk("/points", posDesc("Position3D"), 1))
	require.NoError(t, err)

	resolved := s.ResolveSelectors([]store.Selector{
		store.TimeSelector("frame"),
		store.ComponentSelector("position3d"),
		store.TimeSelector("never_seen"),
	})
	require.Len(t, resolved, 3)

	assert.True(t, resolved[0].IsTime)
	assert.True(t, resolved[0].Time.IsKnown)
	assert.Equal(t, frame, resolved[0].Time.Timeline)

	assert.False(t, resolved[1].IsTime)
	assert.True(t, resolved[1].Component.IsKnown)
	assert.Equal(t, chunk.ComponentName("Position3D"), resolved[1].Component.Descriptor.Component)

	assert.True(t, resolved[2].IsTime)
	assert.False(t, resolved[2].Time.IsKnown)
	assert.Equal(t, "never_seen", resolved[2].Time.Timeline.Name)
}
