package chunk_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chunklake/chunklake/chunk"
)

func TestColumnBuilderRoundTripsFloats(t *testing.T) {
	b := chunk.NewColumnBuilder(chunk.KindFloat64)
	b.AppendFloats([]float64{1, 2, 3})
	b.AppendNull()
	b.AppendFloats([]float64{4})
	col := b.Build()

	require.Equal(t, 3, col.Len())
	assert.False(t, col.IsNull(0))
	assert.Equal(t, []float64{1, 2, 3}, col.Cell(0).Floats)
	assert.True(t, col.IsNull(1))
	assert.Equal(t, []float64{4}, col.Cell(2).Floats)
}

func TestColumnSizeBytesGrowsWithContent(t *testing.T) {
	empty := chunk.NewColumnBuilder(chunk.KindFloat64).Build()
	b := chunk.NewColumnBuilder(chunk.KindFloat64)
	for i := 0; i < 100; i++ {
		b.AppendFloats([]float64{float64(i), float64(i)})
	}
	full := b.Build()

	assert.Greater(t, full.SizeBytes(), empty.SizeBytes())
}

func TestReorderedPreservesCellsAtNewPositions(t *testing.T) {
	col := chunk.Reordered(chunk.KindUtf8, []chunk.Cell{
		{Strings: []string{"a"}},
		{IsNull: true},
		{Strings: []string{"c"}},
	})

	reordered := chunk.Reordered(chunk.KindUtf8, []chunk.Cell{
		col.Cell(2),
		col.Cell(0),
		col.Cell(1),
	})

	assert.Equal(t, []string{"c"}, reordered.Cell(0).Strings)
	assert.Equal(t, []string{"a"}, reordered.Cell(1).Strings)
	assert.True(t, reordered.Cell(2).IsNull)
}
