package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// promSaver drains completed Metrics and records each span's duration
// into a Prometheus histogram labeled by op kind and span name, the Go
// rendering of the Saver role gcpSaver used to play against GCP Trace.
type promSaver struct {
	registerer prometheus.Registerer
	durations  *prometheus.HistogramVec
	total      *prometheus.CounterVec
}

var _ Saver = (*promSaver)(nil)

// NewPrometheusSaver returns a Saver that exports span durations and
// counts to reg. Passing prometheus.DefaultRegisterer wires protobag's
// timing data into the process's default /metrics endpoint.
func NewPrometheusSaver(reg prometheus.Registerer) Saver {
	p := &promSaver{
		registerer: reg,
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "protobag_span_duration_seconds",
			Help:    "Duration of protobag operation spans.",
			Buckets: prometheus.DefBuckets,
		}, []string{"kind", "span"}),
		total: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "protobag_spans_total",
			Help: "Total protobag operation spans completed.",
		}, []string{"kind", "span"}),
	}
	reg.MustRegister(p.durations, p.total)
	return p
}

// Register implements Saver: it launches the goroutine that drains queue
// for as long as the process runs.
func (p *promSaver) Register(queue chan *Metric) {
	go func() {
		for m := range queue {
			p.save(m)
		}
	}()
}

func (p *promSaver) save(m *Metric) {
	m.mu.Lock()
	spans := append([]*Span(nil), m.spans...)
	m.mu.Unlock()

	for _, s := range spans {
		kind := kindString(s.kind)
		p.durations.WithLabelValues(kind, s.name).Observe(s.Duration().Seconds())
		p.total.WithLabelValues(kind, s.name).Inc()
	}
}

func kindString(k Kind) string {
	switch k {
	case WriteOp:
		return "write"
	case ReadOp:
		return "read"
	case SyncOp:
		return "sync"
	default:
		return "other"
	}
}
