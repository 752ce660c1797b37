// Package timesync implements the max-slop time synchronizer: a pull-based
// bundler that reads stamped Entrys from an upstream source, one per topic,
// and emits them in bundles whose timestamps fall within a configured
// tolerance of one another (spec.md §4.6). Grounded on
// original_source/.../Utils/TimeSync.{hpp,cpp} and Utils/IterProducts.hpp.
package timesync

import (
	"context"
	"math"
	"sort"
	"time"

	"protobag.io/errors"
	"protobag.io/metrics"
	"protobag.io/protobag"
	"protobag.io/timestamp"
)

// Source is the upstream a TimeSync pulls Entrys from. *protobag.ReadSession
// satisfies this directly.
type Source interface {
	Next(ctx context.Context) (*protobag.Entry, error)
}

// Spec configures a TimeSync (spec.md §4.6).
type Spec struct {
	// Topics lists every topic a bundle must contain one entry from.
	Topics []string

	// MaxSlop is the maximum allowed spread between a bundle's earliest
	// and latest timestamp.
	MaxSlop time.Duration

	// MaxQueueSize bounds each topic's backlog; once full, Enqueue evicts
	// the oldest queued entry for that topic before pushing the new one.
	MaxQueueSize int
}

// Bundle is one entry per configured topic, in Spec.Topics' sorted order.
type Bundle []protobag.Entry

// TimeSync pulls from a Source and emits time-aligned Bundles. Not safe
// for concurrent use.
type TimeSync struct {
	source Source
	spec   Spec

	topicToQueue  map[string]*topicQueue
	topicsOrdered []string
}

// New constructs a TimeSync over source (the Go rendering of
// MaxSlopTimeSync::Create).
func New(source Source, spec Spec) (*TimeSync, error) {
	const op = "timesync.New"
	if source == nil {
		return nil, errors.E(op, errors.Str("no source to read from"))
	}

	ts := &TimeSync{
		source:       source,
		spec:         spec,
		topicToQueue: make(map[string]*topicQueue, len(spec.Topics)),
	}
	for _, topic := range spec.Topics {
		if _, ok := ts.topicToQueue[topic]; ok {
			continue
		}
		ts.topicToQueue[topic] = newTopicQueue()
		ts.topicsOrdered = append(ts.topicsOrdered, topic)
	}
	sort.Strings(ts.topicsOrdered)
	return ts, nil
}

// enqueue pushes entry into its topic's queue, evicting the oldest queued
// entry for that topic first if at capacity. Entries whose topic isn't
// configured, or that carry no topic-time at all, are dropped.
func (ts *TimeSync) enqueue(entry protobag.Entry) {
	tt, ok := entry.GetTopicTime()
	if !ok {
		return
	}
	q, ok := ts.topicToQueue[tt.Topic]
	if !ok {
		return
	}
	if ts.spec.MaxQueueSize > 0 && q.size() >= ts.spec.MaxQueueSize {
		q.popMostStale()
	}
	q.push(tt.Timestamp, entry)
}

// tryGetNext attempts to produce a bundle from what's already queued,
// without pulling from the source.
func (ts *TimeSync) tryGetNext() (Bundle, bool) {
	if len(ts.topicsOrdered) == 0 {
		return nil, false
	}
	for _, topic := range ts.topicsOrdered {
		if ts.topicToQueue[topic].isEmpty() {
			return nil, false
		}
	}
	return ts.tryCreateBundle()
}

// tryCreateBundle searches every topic's queue for the minimum-spread
// candidate within MaxSlop, via findMinCostBundle, and pops the matching
// entries out if one is found (the Go rendering of
// MaxSlopTimeSync::Impl::TryCreateBundle).
func (ts *TimeSync) tryCreateBundle() (Bundle, bool) {
	allStamps := make([][]timestamp.Timestamp, len(ts.topicsOrdered))
	for i, topic := range ts.topicsOrdered {
		allStamps[i] = ts.topicToQueue[topic].timestamps()
	}

	best := findMinCostBundle(allStamps, ts.spec.MaxSlop)
	if best == nil {
		return nil, false
	}

	bundle := make(Bundle, 0, len(best))
	for i, topic := range ts.topicsOrdered {
		e, ok := ts.topicToQueue[topic].pop(best[i])
		if !ok {
			return nil, false
		}
		bundle = append(bundle, e)
	}
	return bundle, true
}

// GetNext tries to emit a bundle from the current queue state; if none is
// ready, it pulls one entry at a time from the upstream source, enqueueing
// and retrying, until a bundle forms or the source signals EndOfSequence
// or a real error (spec.md §4.6's pull loop; the Go rendering of
// MaxSlopTimeSync::GetNext).
func (ts *TimeSync) GetNext(ctx context.Context) (Bundle, error) {
	m := metrics.New("timesync.TimeSync.GetNext")
	m.StartSpan("getNext").SetKind(metrics.SyncOp)
	defer m.Done()

	if bundle, ok := ts.tryGetNext(); ok {
		return bundle, nil
	}
	for {
		entry, err := ts.source.Next(ctx)
		if err != nil {
			return nil, err
		}
		ts.enqueue(*entry)
		if bundle, ok := ts.tryGetNext(); ok {
			return bundle, nil
		}
	}
}

// findMinCostBundle enumerates the Cartesian product of each topic's
// queued timestamps via the odometer in product.go and returns the
// combination with the smallest max-min spread that's still within
// maxSlop, or nil if none qualifies (the Go rendering of
// TimeSync.cpp's FindMinCostBundle).
func findMinCostBundle(qStamps [][]timestamp.Timestamp, maxSlop time.Duration) []timestamp.Timestamp {
	sizes := make([]int, len(qStamps))
	for i, q := range qStamps {
		sizes[i] = len(q)
	}

	prod := newProduct(sizes)
	var best []timestamp.Timestamp
	bestSpread := time.Duration(math.MaxInt64)

	for {
		indices, ok := prod.next()
		if !ok {
			break
		}

		var minT, maxT timestamp.Timestamp
		cand := make([]timestamp.Timestamp, len(qStamps))
		for qi, ti := range indices {
			t := qStamps[qi][ti]
			cand[qi] = t
			if qi == 0 || t.Before(minT) {
				minT = t
			}
			if qi == 0 || t.After(maxT) {
				maxT = t
			}
		}

		spread := time.Duration(maxT.Sub(minT))
		if spread <= maxSlop && spread < bestSpread {
			best = cand
			bestSpread = spread
		}
	}
	return best
}
