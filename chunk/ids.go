// Package chunk implements the immutable, column-oriented row-group that
// is the unit of storage and transport for chunklake.
package chunk

import (
	"encoding/binary"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// ChunkId uniquely identifies a Chunk for the lifetime of the store that
// holds it. It carries no ordering guarantees, unlike RowId.
type ChunkId uuid.UUID

// NewChunkId generates a fresh, random ChunkId.
func NewChunkId() ChunkId {
	return ChunkId(uuid.New())
}

func (id ChunkId) String() string {
	return uuid.UUID(id).String()
}

// Compare orders ChunkIds by their byte representation. It exists purely
// to give compaction's candidate scan a stable tie-break; it has no
// semantic meaning beyond determinism.
func (id ChunkId) Compare(other ChunkId) int {
	for i := range id {
		if id[i] != other[i] {
			if id[i] < other[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}

// rowIDSeq hands out the low 64 bits of a RowId so that two rows minted in
// the same nanosecond still sort distinctly and deterministically.
var rowIDSeq atomic.Uint64

// RowId is a 128-bit, time-sortable row identifier, unique across the
// lifetime of the process that mints it. The high 64 bits are a Unix nanosecond
// timestamp; the low 64 bits are a monotonic counter, so RowIds minted in
// strictly increasing time order also compare in strictly increasing order.
type RowId struct {
	// Time is the Unix-nanosecond timestamp at which this RowId was minted.
	Time uint64
	// Seq disambiguates RowIds minted within the same nanosecond.
	Seq uint64
}

// ZeroRowId is the smallest possible RowId, used as a sentinel in range
// scans and as the "nothing written yet" value for the static overwrite rule.
var ZeroRowId = RowId{}

// NewRowId mints a fresh RowId. The counter is process-wide, so every RowId
// is unique. Successive calls from the same goroutine return strictly
// increasing values as long as the wall clock does not step backward;
// RowIds minted concurrently on different goroutines are ordered by their
// timestamps, not by the order in which they drew the counter.
func NewRowId() RowId {
	return RowId{
		Time: uint64(time.Now().UnixNano()),
		Seq:  rowIDSeq.Add(1),
	}
}

// Compare returns -1, 0 or 1 as r is less than, equal to, or greater than o.
func (r RowId) Compare(o RowId) int {
	switch {
	case r.Time < o.Time:
		return -1
	case r.Time > o.Time:
		return 1
	case r.Seq < o.Seq:
		return -1
	case r.Seq > o.Seq:
		return 1
	default:
		return 0
	}
}

// Less reports whether r sorts strictly before o.
func (r RowId) Less(o RowId) bool { return r.Compare(o) < 0 }

func (r RowId) String() string {
	return fmt.Sprintf("%016x-%016x", r.Time, r.Seq)
}

// Bytes returns r's wire representation: 16 bytes, big-endian Time followed
// by big-endian Seq, so that byte-lexicographic order matches Compare.
func (r RowId) Bytes() []byte {
	var buf [16]byte
	binary.BigEndian.PutUint64(buf[0:8], r.Time)
	binary.BigEndian.PutUint64(buf[8:16], r.Seq)
	return buf[:]
}

// RowIdFromBytes parses the wire representation produced by Bytes.
func RowIdFromBytes(b []byte) (RowId, error) {
	if len(b) != 16 {
		return RowId{}, fmt.Errorf("chunk: row id must be 16 bytes, got %d", len(b))
	}
	return RowId{
		Time: binary.BigEndian.Uint64(b[0:8]),
		Seq:  binary.BigEndian.Uint64(b[8:16]),
	}, nil
}

// TimeInt is a signed, 64-bit point on some Timeline's time axis.
type TimeInt int64

// Inc returns the next representable TimeInt after t. Used for the
// "direct right neighbor" compaction scan, which looks up the first chunk
// starting at or after a candidate's max time plus one tick.
func (t TimeInt) Inc() TimeInt { return t + 1 }

// TimeRange is an inclusive [Min, Max] range over a Timeline.
type TimeRange struct {
	Min TimeInt
	Max TimeInt
}

// Length returns the number of distinct integer ticks spanned by the range,
// inclusive of both ends. An empty/degenerate range (Max < Min) has length 0.
func (tr TimeRange) Length() uint64 {
	if tr.Max < tr.Min {
		return 0
	}
	return uint64(tr.Max-tr.Min) + 1
}

// RowIdRange is an inclusive [Min, Max] range over RowId-sortable rows.
type RowIdRange struct {
	Min RowId
	Max RowId
}
