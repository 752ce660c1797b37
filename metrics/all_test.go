package metrics

import "testing"

func TestAll(t *testing.T) {
	m := New("WriteSession")
	m.StartSpan("WriteEntry").End()
	m.StartSpan("Close").End().Done()

	if len(m.spans) != 2 {
		t.Fatalf("Expected 2 spans, got %d", len(m.spans))
	}
	expected := "WriteSession.WriteEntry"
	if m.spans[0].name != expected {
		t.Errorf("Expected span named %q, got %q", expected, m.spans[0].name)
	}
	expected = "WriteSession.Close"
	if m.spans[1].name != expected {
		t.Errorf("Expected span named %q, got %q", expected, m.spans[1].name)
	}
}

func TestSpanDurationZeroUntilEnded(t *testing.T) {
	m := New("ReadSession")
	s := m.StartSpan("Next")
	if d := s.Duration(); d != 0 {
		t.Fatalf("expected zero duration before End, got %v", d)
	}
	s.End()
	if s.Duration() < 0 {
		t.Fatalf("expected non-negative duration after End, got %v", s.Duration())
	}
}
