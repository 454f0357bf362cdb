package chunk

import (
	"fmt"
	"sort"
)

// Chunk is an immutable, uniquely-identified row-group bound to one entity
// path.
type Chunk struct {
	id         ChunkId
	entityPath EntityPath

	rowIDs []RowId

	// timelines maps each timeline present in this chunk to its per-row
	// time values. len(timelines[t]) == NumRows() for every t.
	timelines map[Timeline][]TimeInt

	// components maps each component present in this chunk to its
	// list-array column. Every column has exactly NumRows() rows.
	components map[ComponentDescriptor]*Column

	isSorted bool
	isStatic bool

	rowIDRange   RowIdRange
	hasRowIDRange bool
}

// ID returns the chunk's unique identifier.
func (c *Chunk) ID() ChunkId { return c.id }

// EntityPath returns the entity path this chunk's rows belong to.
func (c *Chunk) EntityPath() EntityPath { return c.entityPath }

// NumRows returns the number of rows in the chunk.
func (c *Chunk) NumRows() int { return len(c.rowIDs) }

// IsSorted reports whether RowIds are monotonically non-decreasing.
func (c *Chunk) IsSorted() bool { return c.isSorted }

// IsStatic reports whether this chunk carries no timeline columns, meaning
// its rows apply at all times on all timelines.
func (c *Chunk) IsStatic() bool { return c.isStatic }

// IsTimeSorted reports whether every timeline column in the chunk is itself
// sorted — used by the compaction policy's row-count threshold.
func (c *Chunk) IsTimeSorted() bool {
	for _, values := range c.timelines {
		for i := 1; i < len(values); i++ {
			if values[i] < values[i-1] {
				return false
			}
		}
	}
	return true
}

// RowIDRange returns the chunk's [min,max] RowId range. ok is false only for
// a chunk with zero rows. A store never actually persists such a chunk, but
// one can arise transiently while a Builder is being constructed.
func (c *Chunk) RowIDRange() (RowIdRange, bool) {
	return c.rowIDRange, c.hasRowIDRange
}

// Timelines returns the set of timelines this chunk carries data for.
func (c *Chunk) Timelines() []Timeline {
	out := make([]Timeline, 0, len(c.timelines))
	for t := range c.timelines {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// TimeColumn returns the raw per-row time values for timeline t, if present.
func (c *Chunk) TimeColumn(t Timeline) ([]TimeInt, bool) {
	v, ok := c.timelines[t]
	return v, ok
}

// Components returns the chunk's component columns, keyed by descriptor.
// The returned map must not be mutated.
func (c *Chunk) Components() map[ComponentDescriptor]*Column {
	return c.components
}

// TotalSizeBytes approximates the chunk's total heap footprint: every
// component column's arrow buffers plus the row-id and time-column scalars.
// Used by the compaction policy's byte-size threshold.
func (c *Chunk) TotalSizeBytes() uint64 {
	var total uint64
	total += uint64(len(c.rowIDs)) * 16
	for _, values := range c.timelines {
		total += uint64(len(values)) * 8
	}
	for _, col := range c.components {
		total += col.SizeBytes()
	}
	return total
}

// TimeRangePerComponent returns, for every (timeline, component) pair this
// chunk carries data for, the *tight* inclusive time range spanning only
// the rows where that component is non-null.
//
// This must use the per-component range rather than the chunk's overall
// time range, or a later chunk that carries the only non-null value for a
// component at some earlier time would be shadowed by a coarser range
// computed over all rows.
func (c *Chunk) TimeRangePerComponent() map[Timeline]map[ComponentDescriptor]TimeRange {
	out := make(map[Timeline]map[ComponentDescriptor]TimeRange, len(c.timelines))
	for timeline, times := range c.timelines {
		perComponent := make(map[ComponentDescriptor]TimeRange, len(c.components))
		for desc, col := range c.components {
			rng, ok := tightRange(times, col)
			if ok {
				perComponent[desc] = rng
			}
		}
		if len(perComponent) > 0 {
			out[timeline] = perComponent
		}
	}
	return out
}

func tightRange(times []TimeInt, col *Column) (TimeRange, bool) {
	first := true
	var rng TimeRange
	for i, t := range times {
		if col.IsNull(i) {
			continue
		}
		if first {
			rng = TimeRange{Min: t, Max: t}
			first = false
			continue
		}
		if t < rng.Min {
			rng.Min = t
		}
		if t > rng.Max {
			rng.Max = t
		}
	}
	return rng, !first
}

// RowIDRangePerComponent returns, for every component this chunk carries,
// the tight [min,max] RowId range spanning only the rows where that
// component is non-null. Used by the static overwrite rule.
func (c *Chunk) RowIDRangePerComponent() map[ComponentDescriptor]RowIdRange {
	out := make(map[ComponentDescriptor]RowIdRange, len(c.components))
	for desc, col := range c.components {
		first := true
		var rng RowIdRange
		for i, rowID := range c.rowIDs {
			if col.IsNull(i) {
				continue
			}
			if first {
				rng = RowIdRange{Min: rowID, Max: rowID}
				first = false
				continue
			}
			if rowID.Less(rng.Min) {
				rng.Min = rowID
			}
			if rng.Max.Less(rowID) {
				rng.Max = rowID
			}
		}
		if !first {
			out[desc] = rng
		}
	}
	return out
}

// ErrIncompatibleSchema is returned by Concatenated when the two chunks
// disagree on the element type of a shared component descriptor.
type ErrIncompatibleSchema struct {
	Descriptor ComponentDescriptor
	KindA      ValueKind
	KindB      ValueKind
}

func (e *ErrIncompatibleSchema) Error() string {
	return fmt.Sprintf("chunk: incompatible schema for %s: %s vs %s", e.Descriptor, e.KindA, e.KindB)
}

// Concatenated concatenates c's columns with other's, in that order. The
// caller is responsible for choosing the argument order (by RowId min);
// this method does not sort. The result's IsSorted flag reports whether the
// concatenated RowIds happen to be in order; SortIfUnsorted reorders them
// if not.
//
// Concatenation requires that c and other are bound to the same entity path
// and agree, for every component descriptor present in both, on element
// type. A descriptor present in only one side is carried through with a
// run of nulls on the side that lacks it.
func (c *Chunk) Concatenated(other *Chunk) (*Chunk, error) {
	if c.entityPath != other.entityPath {
		return nil, fmt.Errorf("chunk: cannot concatenate chunks from different entities (%s vs %s)", c.entityPath, other.entityPath)
	}

	descs := map[ComponentDescriptor]struct{}{}
	for d := range c.components {
		descs[d] = struct{}{}
	}
	for d := range other.components {
		descs[d] = struct{}{}
	}

	newComponents := make(map[ComponentDescriptor]*Column, len(descs))
	for desc := range descs {
		colA, hasA := c.components[desc]
		colB, hasB := other.components[desc]

		var kind ValueKind
		switch {
		case hasA && hasB:
			if colA.kind != colB.kind {
				return nil, &ErrIncompatibleSchema{Descriptor: desc, KindA: colA.kind, KindB: colB.kind}
			}
			kind = colA.kind
		case hasA:
			kind = colA.kind
		default:
			kind = colB.kind
		}

		cells := make([]Cell, 0, c.NumRows()+other.NumRows())
		if hasA {
			for i := 0; i < colA.Len(); i++ {
				cells = append(cells, colA.Cell(i))
			}
		} else {
			for i := 0; i < c.NumRows(); i++ {
				cells = append(cells, Cell{IsNull: true})
			}
		}
		if hasB {
			for i := 0; i < colB.Len(); i++ {
				cells = append(cells, colB.Cell(i))
			}
		} else {
			for i := 0; i < other.NumRows(); i++ {
				cells = append(cells, Cell{IsNull: true})
			}
		}

		newComponents[desc] = Reordered(kind, cells)
	}

	timelineNames := map[Timeline]struct{}{}
	for t := range c.timelines {
		timelineNames[t] = struct{}{}
	}
	for t := range other.timelines {
		timelineNames[t] = struct{}{}
	}
	newTimelines := make(map[Timeline][]TimeInt, len(timelineNames))
	for t := range timelineNames {
		merged := make([]TimeInt, 0, c.NumRows()+other.NumRows())
		if vals, ok := c.timelines[t]; ok {
			merged = append(merged, vals...)
		} else {
			merged = append(merged, make([]TimeInt, c.NumRows())...)
		}
		if vals, ok := other.timelines[t]; ok {
			merged = append(merged, vals...)
		} else {
			merged = append(merged, make([]TimeInt, other.NumRows())...)
		}
		newTimelines[t] = merged
	}

	rowIDs := make([]RowId, 0, c.NumRows()+other.NumRows())
	rowIDs = append(rowIDs, c.rowIDs...)
	rowIDs = append(rowIDs, other.rowIDs...)

	result := &Chunk{
		id:         NewChunkId(),
		entityPath: c.entityPath,
		rowIDs:     rowIDs,
		timelines:  newTimelines,
		components: newComponents,
		isStatic:   len(newTimelines) == 0,
	}
	result.recomputeCaches()
	return result, nil
}

// SortIfUnsorted reorders the chunk's rows by ascending RowId, in place,
// unless it is already sorted. Must only be called on a chunk not yet
// shared with any reader (i.e. before it is handed to a store).
func (c *Chunk) SortIfUnsorted() {
	if c.isSorted {
		return
	}

	order := make([]int, len(c.rowIDs))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return c.rowIDs[order[i]].Less(c.rowIDs[order[j]])
	})

	newRowIDs := make([]RowId, len(order))
	for dst, src := range order {
		newRowIDs[dst] = c.rowIDs[src]
	}
	c.rowIDs = newRowIDs

	for t, values := range c.timelines {
		newValues := make([]TimeInt, len(order))
		for dst, src := range order {
			newValues[dst] = values[src]
		}
		c.timelines[t] = newValues
	}

	for desc, col := range c.components {
		cells := make([]Cell, len(order))
		for dst, src := range order {
			cells[dst] = col.Cell(src)
		}
		c.components[desc] = Reordered(col.kind, cells)
	}

	c.isSorted = true
	c.recomputeCaches()
}

func (c *Chunk) recomputeCaches() {
	c.isSorted = isRowIDSorted(c.rowIDs)
	if len(c.rowIDs) == 0 {
		c.hasRowIDRange = false
		return
	}
	min, max := c.rowIDs[0], c.rowIDs[0]
	for _, id := range c.rowIDs[1:] {
		if id.Less(min) {
			min = id
		}
		if max.Less(id) {
			max = id
		}
	}
	c.rowIDRange = RowIdRange{Min: min, Max: max}
	c.hasRowIDRange = true
}

func isRowIDSorted(ids []RowId) bool {
	for i := 1; i < len(ids); i++ {
		if ids[i].Less(ids[i-1]) {
			return false
		}
	}
	return true
}

func (c *Chunk) String() string {
	return fmt.Sprintf("Chunk(%s, entity=%s, rows=%d, static=%v, sorted=%v)",
		c.id, c.entityPath, c.NumRows(), c.isStatic, c.isSorted)
}
