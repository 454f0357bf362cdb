package chunk

// Builder incrementally assembles a Chunk. It mirrors the original
// implementation's `Chunk::builder(entity_path).with_component_batches(...)`
// usage (see the compaction fixture in
// original_source/crates/store/re_chunk_store/src/writes.rs).
type Builder struct {
	id         ChunkId
	entityPath EntityPath

	rowIDs []RowId

	timelineNames []Timeline
	timelineCols  map[Timeline][]TimeInt

	componentOrder []ComponentDescriptor
	componentCells map[ComponentDescriptor][]Cell
	componentKinds map[ComponentDescriptor]ValueKind
}

// NewBuilder starts a Builder for a fresh, randomly-identified chunk bound
// to entityPath.
func NewBuilder(entityPath EntityPath) *Builder {
	return NewBuilderWithID(NewChunkId(), entityPath)
}

// NewBuilderWithID starts a Builder with a caller-chosen ChunkId, for
// callers that need a specific identity; NewBuilder calls it with a fresh
// random id.
func NewBuilderWithID(id ChunkId, entityPath EntityPath) *Builder {
	return &Builder{
		id:             id,
		entityPath:     entityPath,
		timelineCols:   map[Timeline][]TimeInt{},
		componentCells: map[ComponentDescriptor][]Cell{},
		componentKinds: map[ComponentDescriptor]ValueKind{},
	}
}

// row pairs one row's RowId with its per-timeline time values. WithRow
// does not use it; it pads sparse component batches with nulls directly.
type row struct {
	rowID RowId
	times map[Timeline]TimeInt
}

// WithRow appends one row with the given RowId and per-timeline time
// values. batches maps a component descriptor to that row's value for it;
// a descriptor not present here is recorded as null for this row.
func (b *Builder) WithRow(rowID RowId, times map[Timeline]TimeInt, batches map[ComponentDescriptor]Cell) *Builder {
	rowIdx := len(b.rowIDs)
	b.rowIDs = append(b.rowIDs, rowID)

	for t, v := range times {
		if _, ok := b.timelineCols[t]; !ok {
			b.timelineNames = append(b.timelineNames, t)
			b.timelineCols[t] = make([]TimeInt, rowIdx)
		}
		b.timelineCols[t] = append(b.timelineCols[t], v)
	}
	// Backfill any timeline not touched by this row with a zero value, so
	// every column stays exactly NumRows() long. A Builder that needs rows
	// lacking a timeline entirely should give every row the same timeline set.
	for t, col := range b.timelineCols {
		if len(col) <= rowIdx {
			b.timelineCols[t] = append(col, 0)
		}
	}

	for desc, cell := range batches {
		if _, ok := b.componentCells[desc]; !ok {
			b.componentOrder = append(b.componentOrder, desc)
			cells := make([]Cell, rowIdx)
			for i := range cells {
				cells[i] = Cell{IsNull: true}
			}
			b.componentCells[desc] = cells
			b.componentKinds[desc] = cellKind(cell)
		}
		b.componentCells[desc] = append(b.componentCells[desc], cell)
	}
	for desc, cells := range b.componentCells {
		if len(cells) <= rowIdx {
			b.componentCells[desc] = append(cells, Cell{IsNull: true})
		}
	}

	return b
}

// WithFloats is a convenience wrapper around WithRow for a single float64
// list-valued component, e.g. a Position3D.
func (b *Builder) WithFloats(rowID RowId, times map[Timeline]TimeInt, desc ComponentDescriptor, values []float64) *Builder {
	return b.WithRow(rowID, times, map[ComponentDescriptor]Cell{desc: {Floats: values}})
}

func cellKind(c Cell) ValueKind {
	switch {
	case c.Floats != nil:
		return KindFloat64
	case c.Ints != nil:
		return KindInt64
	case c.Strings != nil:
		return KindUtf8
	case c.Bools != nil:
		return KindBoolean
	default:
		return KindUnknown
	}
}

// Build finalizes the chunk. Flags (IsSorted, IsStatic) and cached ranges
// are computed eagerly here, not deferred to first access.
func (b *Builder) Build() *Chunk {
	timelines := make(map[Timeline][]TimeInt, len(b.timelineCols))
	for t, col := range b.timelineCols {
		timelines[t] = col
	}

	components := make(map[ComponentDescriptor]*Column, len(b.componentCells))
	for _, desc := range b.componentOrder {
		kind := b.componentKinds[desc]
		if kind == KindUnknown {
			for _, c := range b.componentCells[desc] {
				if k := cellKind(c); k != KindUnknown {
					kind = k
					break
				}
			}
		}
		if kind == KindUnknown {
			continue
		}
		components[desc] = Reordered(kind, b.componentCells[desc])
	}

	c := &Chunk{
		id:         b.id,
		entityPath: b.entityPath,
		rowIDs:     append([]RowId(nil), b.rowIDs...),
		timelines:  timelines,
		components: components,
		isStatic:   len(timelines) == 0,
	}
	c.recomputeCaches()
	return c
}
