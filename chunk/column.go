package chunk

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// ValueKind enumerates the element types chunklake knows how to carry inside
// a component's list-array. This is intentionally a small, closed set: the
// store and codec only ever need to know enough about a component's shape
// to size it, validate it, and reorder it — not to interpret it.
type ValueKind uint8

const (
	// KindUnknown is the type of a component that has never been observed
	// with a non-null value.
	KindUnknown ValueKind = iota
	KindFloat64
	KindInt64
	KindUtf8
	KindBoolean
)

func (k ValueKind) String() string {
	switch k {
	case KindFloat64:
		return "float64"
	case KindInt64:
		return "int64"
	case KindUtf8:
		return "utf8"
	case KindBoolean:
		return "bool"
	default:
		return "unknown"
	}
}

func (k ValueKind) arrowType() arrow.DataType {
	switch k {
	case KindFloat64:
		return arrow.PrimitiveTypes.Float64
	case KindInt64:
		return arrow.PrimitiveTypes.Int64
	case KindUtf8:
		return arrow.BinaryTypes.String
	case KindBoolean:
		return arrow.FixedWidthTypes.Boolean
	default:
		return nil
	}
}

// mem is the allocator used for every arrow array chunklake builds. A single
// Go allocator is enough: chunklake does not need cgo/C-data-interface
// memory, just arrow's builder/array ergonomics.
var mem = memory.NewGoAllocator()

// Column is a component column: one list-of-values per row, with a row
// being "null" when the component has no value on that row.
//
// Internally this wraps an arrow *array.List, giving every component
// column the list-of-values-per-row shape a chunk's data model calls for.
type Column struct {
	kind ValueKind
	arr  *array.List
}

// Cell is one row's worth of a Column: a variant slice of values, or IsNull.
type Cell struct {
	IsNull  bool
	Floats  []float64
	Ints    []int64
	Strings []string
	Bools   []bool
}

// ColumnBuilder accumulates rows for a single component column.
type ColumnBuilder struct {
	kind ValueKind
	lb   *array.ListBuilder
}

// NewColumnBuilder starts a builder for a component column whose element
// type is kind. kind must not be KindUnknown.
func NewColumnBuilder(kind ValueKind) *ColumnBuilder {
	elemType := kind.arrowType()
	if elemType == nil {
		panic(fmt.Sprintf("chunk: cannot build a column of kind %v", kind))
	}
	return &ColumnBuilder{
		kind: kind,
		lb:   array.NewListBuilder(mem, elemType),
	}
}

// AppendNull appends a row for which this component has no value.
func (b *ColumnBuilder) AppendNull() {
	b.lb.AppendNull()
}

// AppendFloats appends a row's worth of float64 values. kind must be KindFloat64.
func (b *ColumnBuilder) AppendFloats(values []float64) {
	b.lb.Append(true)
	vb := b.lb.ValueBuilder().(*array.Float64Builder)
	for _, v := range values {
		vb.Append(v)
	}
}

// AppendInts appends a row's worth of int64 values. kind must be KindInt64.
func (b *ColumnBuilder) AppendInts(values []int64) {
	b.lb.Append(true)
	vb := b.lb.ValueBuilder().(*array.Int64Builder)
	for _, v := range values {
		vb.Append(v)
	}
}

// AppendStrings appends a row's worth of string values. kind must be KindUtf8.
func (b *ColumnBuilder) AppendStrings(values []string) {
	b.lb.Append(true)
	vb := b.lb.ValueBuilder().(*array.StringBuilder)
	for _, v := range values {
		vb.Append(v)
	}
}

// AppendBools appends a row's worth of bool values. kind must be KindBoolean.
func (b *ColumnBuilder) AppendBools(values []bool) {
	b.lb.Append(true)
	vb := b.lb.ValueBuilder().(*array.BooleanBuilder)
	for _, v := range values {
		vb.Append(v)
	}
}

// AppendCell appends c, dispatching on its shape. It panics if c's shape
// does not match the builder's kind and c is not null.
func (b *ColumnBuilder) AppendCell(c Cell) {
	if c.IsNull {
		b.AppendNull()
		return
	}
	if k := cellKind(c); k != KindUnknown && k != b.kind {
		panic(fmt.Sprintf("chunk: cannot append a %v cell to a %v column", k, b.kind))
	}
	switch b.kind {
	case KindFloat64:
		b.AppendFloats(c.Floats)
	case KindInt64:
		b.AppendInts(c.Ints)
	case KindUtf8:
		b.AppendStrings(c.Strings)
	case KindBoolean:
		b.AppendBools(c.Bools)
	default:
		panic("chunk: builder has unknown kind")
	}
}

// Build finalizes the column. The builder must not be used afterward.
func (b *ColumnBuilder) Build() *Column {
	arr := b.lb.NewListArray()
	return &Column{kind: b.kind, arr: arr}
}

// Kind reports the element type carried by this column.
func (c *Column) Kind() ValueKind { return c.kind }

// Len returns the number of rows in this column.
func (c *Column) Len() int { return c.arr.Len() }

// IsNull reports whether row i has no value for this component.
func (c *Column) IsNull(i int) bool { return c.arr.IsNull(i) }

// Cell returns row i's value, or IsNull if the component is absent there.
func (c *Column) Cell(i int) Cell {
	if c.arr.IsNull(i) {
		return Cell{IsNull: true}
	}
	start, end := c.arr.ValueOffsets(i)
	switch c.kind {
	case KindFloat64:
		vals := c.arr.ListValues().(*array.Float64)
		return Cell{Floats: append([]float64(nil), vals.Float64Values()[start:end]...)}
	case KindInt64:
		vals := c.arr.ListValues().(*array.Int64)
		return Cell{Ints: append([]int64(nil), vals.Int64Values()[start:end]...)}
	case KindUtf8:
		vals := c.arr.ListValues().(*array.String)
		out := make([]string, 0, end-start)
		for i := start; i < end; i++ {
			out = append(out, vals.Value(int(i)))
		}
		return Cell{Strings: out}
	case KindBoolean:
		vals := c.arr.ListValues().(*array.Boolean)
		out := make([]bool, 0, end-start)
		for i := start; i < end; i++ {
			out = append(out, vals.Value(int(i)))
		}
		return Cell{Bools: out}
	default:
		return Cell{IsNull: true}
	}
}

// SizeBytes approximates the column's heap footprint, used by the
// compaction policy's byte-size threshold.
func (c *Column) SizeBytes() uint64 {
	return dataSizeBytes(c.arr.Data())
}

func dataSizeBytes(data arrow.ArrayData) uint64 {
	var total uint64
	for _, buf := range data.Buffers() {
		if buf != nil {
			total += uint64(buf.Len())
		}
	}
	for _, child := range data.Children() {
		total += dataSizeBytes(child)
	}
	return total
}

// Reordered returns a new Column of the given kind whose row i is cells[i].
// Callers reorder or combine rows by choosing the order of cells. Used by
// Chunk.SortIfUnsorted and Chunk.Concatenated.
func Reordered(kind ValueKind, cells []Cell) *Column {
	b := NewColumnBuilder(kind)
	for _, cell := range cells {
		b.AppendCell(cell)
	}
	return b.Build()
}
