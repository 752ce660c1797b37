// Package metrics times protobag's session and sync operations and hands
// the results to a pluggable Saver backend. Grounded on upspin.io/metrics'
// Metric/Span/Saver shape; the GCP Trace backend that shape originally
// fed is replaced with a Prometheus one (promsaver.go) since protobag has
// no GCP dependency, and Kind's RPC-flavored values are replaced with the
// operations protobag actually performs.
package metrics

import (
	"fmt"
	"sync"
	"time"

	"protobag.io/plog"
)

// Metric is a named collection of spans. A span measures time from the
// beginning of an event (for example, a WriteSession.Close call) until its
// completion.
type Metric struct {
	name string
	mu   sync.Mutex // protects spans
	spans []*Span
}

// A Span measures time from the beginning of an operation until its
// completion.
type Span struct {
	name       string
	startTime  time.Time
	endTime    time.Time
	kind       Kind
	metric     *Metric
	parentSpan *Span
}

// Saver is the interface a metrics backend implements to receive
// completed Metrics. A Saver must continuously drain the channel it is
// given at Register.
type Saver interface {
	Register(queue chan *Metric)
}

// Kind classifies which protobag operation a span belongs to.
type Kind int

const (
	WriteOp Kind = iota
	ReadOp
	SyncOp
	OtherOp
)

const maxChannelSize = 16

var saveQueue = make(chan *Metric, maxChannelSize)

// New creates a new named metric, e.g. New("protobag.WriteSession").
func New(name string) *Metric {
	return &Metric{name: name}
}

// RegisterSaver registers a Saver for storing Metrics onto a backend. Any
// number of Savers may exist, but they compete for metrics as they arrive.
func RegisterSaver(saver Saver) {
	saver.Register(saveQueue)
}

// StartSpan starts a new span with the current time as its start and Kind
// OtherOp; callers that care about the op classify it with SetKind.
func (m *Metric) StartSpan(name string) *Span {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.spans == nil {
		m.spans = make([]*Span, 0, 4)
	}
	s := &Span{
		name:      fmt.Sprintf("%s.%s", m.name, name),
		startTime: time.Now(),
		metric:    m,
		kind:      OtherOp,
	}
	m.spans = append(m.spans, s)
	return s
}

// Done ends the metric: any span not yet ended is closed, then the metric
// is handed to saveQueue for any registered Saver to consume. If the queue
// is full the metric is dropped and logged, rather than blocking the
// caller (spans are diagnostic, never load-bearing).
func (m *Metric) Done() {
	m.mu.Lock()
	var zero time.Time
	for _, s := range m.spans {
		if s.endTime == zero {
			s.End()
		}
	}
	m.mu.Unlock()

	select {
	case saveQueue <- m:
	default:
		plog.Error.Printf("metrics: channel full, dropping metric %s", m.name)
	}
}

// End marks the span's end time as now and returns its parent metric.
func (s *Span) End() *Metric {
	s.endTime = time.Now()
	return s.metric
}

// StartSubSpan starts a new span as a child of s.
func (s *Span) StartSubSpan(name string) *Span {
	if s.metric == nil {
		plog.Error.Printf("metrics: parent metric of span %q is gone", s.name)
		return nil
	}
	sub := s.metric.StartSpan(name)
	sub.parentSpan = s
	return sub
}

// Metric returns the parent metric of the span.
func (s *Span) Metric() *Metric { return s.metric }

// SetKind classifies which protobag operation s belongs to.
func (s *Span) SetKind(kind Kind) { s.kind = kind }

// Duration returns the span's elapsed time. Zero until End has been
// called.
func (s *Span) Duration() time.Duration {
	if s.endTime.IsZero() {
		return 0
	}
	return s.endTime.Sub(s.startTime)
}
