package metrics_test

import "protobag.io/metrics"

func ExampleMetrics() {
	// In ReadSession.Next:
	m := metrics.New("ReadSession")
	s := m.StartSpan("Next")
	s.SetKind(metrics.ReadOp)
	defer m.Done()
	// ... compile the read plan, passing s down so sub-steps nest under it:
	sub := s.StartSubSpan("compileReadPlan")
	defer sub.End()
	// do work ...

	// Logs metric ReadSession.Next with a sub-span for compileReadPlan
	// covering part of the Next span.
}
