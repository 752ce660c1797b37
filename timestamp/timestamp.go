// Package timestamp provides the stamp and topic-time coordinate types
// used to order stamped entries across a bag, the Go-native rendering of
// google.protobuf.Timestamp since the schema library itself is out of
// scope for this module (producers/consumers only ever see the plain
// Sec/Nsec pair, never a protobuf message).
package timestamp

import (
	"fmt"
	"math"
)

// Minimum and maximum representable seconds, matching the bounds used by
// google.protobuf.Timestamp (0001-01-01T00:00:00Z .. 9999-12-31T23:59:59Z)
// so that the builder's running min/max sentinels behave the same way
// the original implementation's MinTimestamp/MaxTimestamp do.
const (
	MinSeconds int64 = -62135596800
	MaxSeconds int64 = 253402300799
)

// Timestamp is a seconds+nanoseconds pair with a total order.
type Timestamp struct {
	Sec  int64
	Nsec int32
}

// Min returns the sentinel used as the running lower bound before any
// stamped entry has been observed.
func Min() Timestamp { return Timestamp{Sec: MaxSeconds} }

// Max returns the sentinel used as the running upper bound before any
// stamped entry has been observed.
func Max() Timestamp { return Timestamp{Sec: MinSeconds} }

// Compare returns -1, 0, or 1 as t is before, equal to, or after o.
func (t Timestamp) Compare(o Timestamp) int {
	switch {
	case t.Sec < o.Sec:
		return -1
	case t.Sec > o.Sec:
		return 1
	case t.Nsec < o.Nsec:
		return -1
	case t.Nsec > o.Nsec:
		return 1
	default:
		return 0
	}
}

// Before reports whether t is strictly before o.
func (t Timestamp) Before(o Timestamp) bool { return t.Compare(o) < 0 }

// After reports whether t is strictly after o.
func (t Timestamp) After(o Timestamp) bool { return t.Compare(o) > 0 }

// Sub returns the magnitude of the time span between t and o, in
// nanoseconds, always non-negative. It saturates rather than overflows
// for the MinSeconds/MaxSeconds sentinel pair.
func (t Timestamp) Sub(o Timestamp) int64 {
	if t.Before(o) {
		t, o = o, t
	}
	dsec := t.Sec - o.Sec
	if dsec >= math.MaxInt64/1000000000 {
		return math.MaxInt64
	}
	return dsec*1e9 + int64(t.Nsec) - int64(o.Nsec)
}

func (t Timestamp) String() string {
	return fmt.Sprintf("%d.%09d", t.Sec, t.Nsec)
}

// Min2 returns whichever of a, b sorts first.
func Min2(a, b Timestamp) Timestamp {
	if a.Before(b) {
		return a
	}
	return b
}

// Max2 returns whichever of a, b sorts last.
func Max2(a, b Timestamp) Timestamp {
	if a.After(b) {
		return a
	}
	return b
}
