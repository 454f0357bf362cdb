package store

import (
	"sort"
	"strings"

	"github.com/chunklake/chunklake/chunk"
)

// ColumnDescriptor is one entry of a SchemaDescriptors: either the
// synthetic RowId column, a Timeline, or a ComponentDescriptor together
// with the Entity it belongs to.
type ColumnDescriptor struct {
	IsRowID   bool
	Timeline  chunk.Timeline
	Entity    chunk.EntityPath
	Component chunk.ComponentDescriptor
}

// SchemaDescriptors is the ordered column list returned by Schema and
// SchemaForQuery: RowId first, then every known timeline in lexical order,
// then every known component in lexical (entity_path, component_name)
// order.
type SchemaDescriptors struct {
	Columns []ColumnDescriptor
}

// Schema returns the full schema: the union of RowId, every timeline
// carried by a chunk the store currently holds, and every (entity,
// component) pair it currently holds data for.
func (s *Store) Schema() SchemaDescriptors {
	timelineSet := map[chunk.Timeline]struct{}{}
	type entityComponent struct {
		entity chunk.EntityPath
		desc   chunk.ComponentDescriptor
	}
	componentSet := map[entityComponent]struct{}{}

	for _, c := range s.chunksByID {
		for _, t := range c.Timelines() {
			timelineSet[t] = struct{}{}
		}
		for desc := range c.Components() {
			componentSet[entityComponent{c.EntityPath(), desc}] = struct{}{}
		}
	}

	out := SchemaDescriptors{Columns: []ColumnDescriptor{{IsRowID: true}}}

	timelines := make([]chunk.Timeline, 0, len(timelineSet))
	for t := range timelineSet {
		timelines = append(timelines, t)
	}
	sort.Slice(timelines, func(i, j int) bool { return timelines[i].Name < timelines[j].Name })
	for _, t := range timelines {
		out.Columns = append(out.Columns, ColumnDescriptor{Timeline: t})
	}

	ecs := make([]entityComponent, 0, len(componentSet))
	for ec := range componentSet {
		ecs = append(ecs, ec)
	}
	sort.Slice(ecs, func(i, j int) bool {
		if ecs[i].entity != ecs[j].entity {
			return ecs[i].entity < ecs[j].entity
		}
		return ecs[i].desc.Component < ecs[j].desc.Component
	})
	for _, ec := range ecs {
		out.Columns = append(out.Columns, ColumnDescriptor{Entity: ec.entity, Component: ec.desc})
	}

	assertNoDuplicateColumns(out)
	return out
}

func assertNoDuplicateColumns(s SchemaDescriptors) {
	seen := map[ColumnDescriptor]struct{}{}
	for _, col := range s.Columns {
		if _, dup := seen[col]; dup {
			panic("store: schema contains duplicate column descriptor")
		}
		seen[col] = struct{}{}
	}
}

// QueryExpression restricts SchemaForQuery's output. ViewContents, when
// non-nil, restricts the components considered to exactly that set; the
// three Include* flags gate per-column metadata filtering.
type QueryExpression struct {
	ViewContents                  map[chunk.EntityPath][]chunk.ComponentDescriptor
	IncludeSemanticallyEmptyCols bool
	IncludeIndicatorCols          bool
	IncludeTombstoneCols          bool
}

// ColumnMetadata carries the per-column flags
// ("is_static, is_indicator, is_tombstone, is_semantically_empty") used for
// schema filtering. The store does not record them: the caller passes them
// to SchemaForQuery, keyed by component descriptor.
type ColumnMetadata struct {
	IsStatic             bool
	IsIndicator          bool
	IsTombstone          bool
	IsSemanticallyEmpty bool
}

// SchemaForQuery filters Schema's full column list down to what q asks for.
func (s *Store) SchemaForQuery(q QueryExpression, metadata map[chunk.ComponentDescriptor]ColumnMetadata) SchemaDescriptors {
	full := s.Schema()
	if q.ViewContents == nil && metadata == nil {
		return full
	}

	out := SchemaDescriptors{}
	for _, col := range full.Columns {
		if col.IsRowID || col.Timeline != (chunk.Timeline{}) {
			out.Columns = append(out.Columns, col)
			continue
		}

		if q.ViewContents != nil {
			allowed := false
			for _, descs := range q.ViewContents {
				for _, d := range descs {
					if d == col.Component {
						allowed = true
						break
					}
				}
			}
			if !allowed {
				continue
			}
		}

		if meta, ok := metadata[col.Component]; ok {
			if meta.IsIndicator && !q.IncludeIndicatorCols {
				continue
			}
			if meta.IsTombstone && !q.IncludeTombstoneCols {
				continue
			}
			if meta.IsSemanticallyEmpty && !q.IncludeSemanticallyEmptyCols {
				continue
			}
		}

		out.Columns = append(out.Columns, col)
	}
	return out
}

// TimeSelectorDescriptor is the resolved form of a user-supplied timeline
// name: either a declared Timeline, or a synthesized one if the store has
// never seen it. Resolution never fails.
type TimeSelectorDescriptor struct {
	Timeline   chunk.Timeline
	IsKnown    bool
}

// ResolveTimeSelector resolves name against every timeline the store
// currently indexes, falling back to a synthesized wall-clock (time)
// timeline if unknown.
// Resolution never fails.
func (s *Store) ResolveTimeSelector(name string) TimeSelectorDescriptor {
	for _, byTimeline := range s.temporalChunkIDsByEntity {
		for t := range byTimeline {
			if t.Name == name {
				return TimeSelectorDescriptor{Timeline: t, IsKnown: true}
			}
		}
	}
	return TimeSelectorDescriptor{Timeline: chunk.NewTimeTimeline(name), IsKnown: false}
}

// ComponentSelectorDescriptor is the resolved form of a user-supplied
// component short name.
type ComponentSelectorDescriptor struct {
	Descriptor chunk.ComponentDescriptor
	Kind       chunk.ValueKind
	IsKnown    bool
}

// ResolveComponentSelector matches name against every recorded component,
// case-insensitively, falling back to a descriptor with KindUnknown when no
// match is found. Resolution never fails.
func (s *Store) ResolveComponentSelector(name string) ComponentSelectorDescriptor {
	for componentName, kind := range s.typeRegistry {
		if strings.EqualFold(string(componentName), name) {
			return ComponentSelectorDescriptor{
				Descriptor: chunk.ComponentDescriptor{Component: componentName},
				Kind:       kind,
				IsKnown:    true,
			}
		}
	}
	return ComponentSelectorDescriptor{
		Descriptor: chunk.ComponentDescriptor{Component: chunk.ComponentName(name)},
		Kind:       chunk.KindUnknown,
		IsKnown:    false,
	}
}

// SelectorKind discriminates the two cases a Selector can resolve to.
type SelectorKind int

const (
	SelectorKindTime SelectorKind = iota
	SelectorKindComponent
)

// Selector is a user-supplied column reference awaiting resolution: either
// a timeline name or a component short name. Build one with TimeSelector or
// ComponentSelector rather than the struct literal.
type Selector struct {
	Kind SelectorKind
	Name string
}

// TimeSelector builds a Selector that ResolveSelectors resolves with
// ResolveTimeSelector.
func TimeSelector(name string) Selector { return Selector{Kind: SelectorKindTime, Name: name} }

// ComponentSelector builds a Selector that ResolveSelectors resolves with
// ResolveComponentSelector.
func ComponentSelector(name string) Selector {
	return Selector{Kind: SelectorKindComponent, Name: name}
}

// ResolvedSelector is one entry of ResolveSelectors' output: exactly one of
// Time or Component is populated, per IsTime.
type ResolvedSelector struct {
	IsTime    bool
	Time      TimeSelectorDescriptor
	Component ComponentSelectorDescriptor
}

// ResolveSelectors resolves a mixed batch of time and component selectors in
// order, composing ResolveTimeSelector and ResolveComponentSelector. Like
// both of those, it never fails: an unknown name resolves to a synthesized
// or null-typed descriptor rather than an error.
func (s *Store) ResolveSelectors(selectors []Selector) []ResolvedSelector {
	out := make([]ResolvedSelector, len(selectors))
	for i, sel := range selectors {
		switch sel.Kind {
		case SelectorKindTime:
			out[i] = ResolvedSelector{IsTime: true, Time: s.ResolveTimeSelector(sel.Name)}
		case SelectorKindComponent:
			out[i] = ResolvedSelector{Component: s.ResolveComponentSelector(sel.Name)}
		}
	}
	return out
}
