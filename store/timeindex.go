package store

import (
	"sort"

	"github.com/chunklake/chunklake/chunk"
)

// timeMultimap is an ordered multi-map from TimeInt to a set of ChunkIds,
// backed by a sorted slice of keys plus a map for O(1) lookup by key.
// Compaction and range queries binary-search this for neighbors; a bucket's
// working set is small enough that a sorted slice beats a tree structure
// for the scan patterns below (see SPEC_FULL.md's DOMAIN STACK for the
// fuller rationale).
type timeMultimap struct {
	keys   []chunk.TimeInt
	values map[chunk.TimeInt]map[chunk.ChunkId]struct{}
}

func newTimeMultimap() *timeMultimap {
	return &timeMultimap{values: map[chunk.TimeInt]map[chunk.ChunkId]struct{}{}}
}

func (m *timeMultimap) insert(t chunk.TimeInt, id chunk.ChunkId) {
	set, ok := m.values[t]
	if !ok {
		set = map[chunk.ChunkId]struct{}{}
		m.values[t] = set
		i := sort.Search(len(m.keys), func(i int) bool { return m.keys[i] >= t })
		m.keys = append(m.keys, 0)
		copy(m.keys[i+1:], m.keys[i:])
		m.keys[i] = t
	}
	set[id] = struct{}{}
}

// remove deletes id from t's bucket, pruning the bucket (and its key) if
// it becomes empty.
func (m *timeMultimap) remove(t chunk.TimeInt, id chunk.ChunkId) {
	set, ok := m.values[t]
	if !ok {
		return
	}
	delete(set, id)
	if len(set) == 0 {
		delete(m.values, t)
		i := sort.Search(len(m.keys), func(i int) bool { return m.keys[i] >= t })
		if i < len(m.keys) && m.keys[i] == t {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
		}
	}
}

func (m *timeMultimap) get(t chunk.TimeInt) (map[chunk.ChunkId]struct{}, bool) {
	set, ok := m.values[t]
	return set, ok
}

// lastBefore returns the bucket with the largest key strictly less than t,
// mirroring `.range(..time_range.min()).next_back()` in writes.rs.
func (m *timeMultimap) lastBefore(t chunk.TimeInt) (chunk.TimeInt, map[chunk.ChunkId]struct{}, bool) {
	i := sort.Search(len(m.keys), func(i int) bool { return m.keys[i] >= t })
	if i == 0 {
		return 0, nil, false
	}
	k := m.keys[i-1]
	return k, m.values[k], true
}

// firstAtOrAfter returns the bucket with the smallest key greater than or
// equal to t, mirroring `.range(time_range.max().inc()..).next()`.
func (m *timeMultimap) firstAtOrAfter(t chunk.TimeInt) (chunk.TimeInt, map[chunk.ChunkId]struct{}, bool) {
	i := sort.Search(len(m.keys), func(i int) bool { return m.keys[i] >= t })
	if i == len(m.keys) {
		return 0, nil, false
	}
	k := m.keys[i]
	return k, m.values[k], true
}

func (m *timeMultimap) isEmpty() bool { return len(m.keys) == 0 }

// allChunkIds returns every ChunkId present in any bucket, used by
// drop_entity_path to collect everything under a (timeline, component) key.
func (m *timeMultimap) allChunkIds() []chunk.ChunkId {
	seen := map[chunk.ChunkId]struct{}{}
	for _, k := range m.keys {
		for id := range m.values[k] {
			seen[id] = struct{}{}
		}
	}
	out := make([]chunk.ChunkId, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	return out
}

// ChunkIdSetPerTime indexes the temporal chunks for one (entity, timeline,
// component) key, keyed by that chunk's tight time range min (PerStartTime)
// and max (PerEndTime). MaxIntervalLength is a non-decreasing bound on the
// largest per-column time-range length ever observed in this bucket: range
// queries use it to cap how far back they need to scan. It is only ever
// widened on insertion, never recomputed tight, so callers must not assume
// it is a precise bound.
type ChunkIdSetPerTime struct {
	PerStartTime      *timeMultimap
	PerEndTime        *timeMultimap
	MaxIntervalLength uint64
}

func newChunkIdSetPerTime() *ChunkIdSetPerTime {
	return &ChunkIdSetPerTime{
		PerStartTime: newTimeMultimap(),
		PerEndTime:   newTimeMultimap(),
	}
}

func (s *ChunkIdSetPerTime) insert(rng chunk.TimeRange, id chunk.ChunkId) {
	if length := rng.Length(); length > s.MaxIntervalLength {
		s.MaxIntervalLength = length
	}
	s.PerStartTime.insert(rng.Min, id)
	s.PerEndTime.insert(rng.Max, id)
}

func (s *ChunkIdSetPerTime) remove(rng chunk.TimeRange, id chunk.ChunkId) {
	s.PerStartTime.remove(rng.Min, id)
	s.PerEndTime.remove(rng.Max, id)
}
