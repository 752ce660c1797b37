package timesync

import (
	"sort"

	"protobag.io/protobag"
	"protobag.io/timestamp"
)

// topicQueue is a single topic's bounded, timestamp-ordered backlog —
// the Go rendering of TimeSync.cpp's TopicQ, built on a plain map since
// timestamp.Timestamp is comparable and the queue never holds more than a
// handful of entries at once.
type topicQueue struct {
	entries map[timestamp.Timestamp]protobag.Entry
}

func newTopicQueue() *topicQueue {
	return &topicQueue{entries: map[timestamp.Timestamp]protobag.Entry{}}
}

func (q *topicQueue) size() int     { return len(q.entries) }
func (q *topicQueue) isEmpty() bool { return len(q.entries) == 0 }

func (q *topicQueue) push(t timestamp.Timestamp, e protobag.Entry) {
	q.entries[t] = e
}

func (q *topicQueue) pop(t timestamp.Timestamp) (protobag.Entry, bool) {
	e, ok := q.entries[t]
	if ok {
		delete(q.entries, t)
	}
	return e, ok
}

// popMostStale evicts the oldest queued entry, used when Enqueue would
// otherwise grow the queue past its configured bound.
func (q *topicQueue) popMostStale() {
	if len(q.entries) == 0 {
		return
	}
	oldest := q.timestamps()[0]
	delete(q.entries, oldest)
}

// timestamps returns the queue's timestamps in ascending order.
func (q *topicQueue) timestamps() []timestamp.Timestamp {
	out := make([]timestamp.Timestamp, 0, len(q.entries))
	for t := range q.entries {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}
