package chunk

import "strings"

// EntityPath is a hierarchical name identifying a logical object, e.g.
// "/world/points". Equality is exact string comparison; chunklake does not
// interpret path components beyond splitting on "/" for display purposes.
type EntityPath string

// Root is the entity path of the implicit root of the hierarchy.
const Root EntityPath = "/"

// Parts splits the path into its non-empty components.
func (p EntityPath) Parts() []string {
	trimmed := strings.Trim(string(p), "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

func (p EntityPath) String() string { return string(p) }

// TimelineKind distinguishes sequence-numbered timelines from wall-clock
// ones; it has no bearing on ordering, only on display formatting.
type TimelineKind uint8

const (
	TimelineKindSequence TimelineKind = iota
	TimelineKindTime
)

// Timeline is a named time axis along which rows are ordered. Timelines are
// orthogonal: a chunk may carry independent time columns for any number of
// them.
type Timeline struct {
	Name string
	Kind TimelineKind
}

// NewSequenceTimeline constructs a sequence-numbered Timeline (e.g. "frame").
func NewSequenceTimeline(name string) Timeline {
	return Timeline{Name: name, Kind: TimelineKindSequence}
}

// NewTimeTimeline constructs a wall-clock Timeline (e.g. "log_time").
func NewTimeTimeline(name string) Timeline {
	return Timeline{Name: name, Kind: TimelineKindTime}
}

func (t Timeline) String() string { return t.Name }

// ComponentName is the short, human-readable name of a component, e.g.
// "Position3D" or "Color".
type ComponentName string

// ComponentDescriptor identifies one component column as an
// (archetype?, archetype_field?, component_name) triple. Archetype and
// ArchetypeField are optional context for schema filtering and are empty
// strings when absent.
type ComponentDescriptor struct {
	Archetype      string
	ArchetypeField string
	Component      ComponentName
}

// ShortName returns the component name alone, used for
// case-insensitive selector resolution.
func (d ComponentDescriptor) ShortName() string { return string(d.Component) }

func (d ComponentDescriptor) String() string {
	if d.Archetype == "" {
		return string(d.Component)
	}
	if d.ArchetypeField == "" {
		return d.Archetype + ":" + string(d.Component)
	}
	return d.Archetype + ":" + d.ArchetypeField + ":" + string(d.Component)
}
