package timesync

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"protobag.io/envelope"
	"protobag.io/errors"
	"protobag.io/protobag"
	"protobag.io/timestamp"
)

// fakeSource replays a fixed slice of Entrys, then returns a terminal
// error (protobag.ErrEndOfSequence by default) forever after.
type fakeSource struct {
	entries []protobag.Entry
	pos     int
	err     error
}

func (f *fakeSource) Next(ctx context.Context) (*protobag.Entry, error) {
	if f.pos >= len(f.entries) {
		if f.err != nil {
			return nil, f.err
		}
		return nil, protobag.ErrEndOfSequence
	}
	e := f.entries[f.pos]
	f.pos++
	return &e, nil
}

func stampedAt(topic string, sec int64) protobag.Entry {
	payload := envelope.Envelope{TypeURL: "type.example/Foo", Value: []byte("x")}
	return protobag.NewStampedEntry("", topic, timestamp.Timestamp{Sec: sec}, payload, false)
}

func TestBundlesEntriesWithinSlop(t *testing.T) {
	ctx := context.Background()
	src := &fakeSource{entries: []protobag.Entry{
		stampedAt("/a", 0),
		stampedAt("/b", 2),
	}}

	ts, err := New(src, Spec{Topics: []string{"/b", "/a"}, MaxSlop: 5 * time.Second, MaxQueueSize: 4})
	require.NoError(t, err)

	bundle, err := ts.GetNext(ctx)
	require.NoError(t, err)
	require.Len(t, bundle, 2)

	assert.Equal(t, "/a", bundle[0].Context.Topic)
	assert.Equal(t, "/b", bundle[1].Context.Topic)
}

func TestMaxSlopRejectsTooSpreadOutCombination(t *testing.T) {
	ctx := context.Background()
	src := &fakeSource{entries: []protobag.Entry{
		stampedAt("/a", 0),
		stampedAt("/b", 100),
	}}

	ts, err := New(src, Spec{Topics: []string{"/a", "/b"}, MaxSlop: time.Second, MaxQueueSize: 4})
	require.NoError(t, err)

	_, err = ts.GetNext(ctx)
	require.Error(t, err)
	assert.Equal(t, errors.EndOfSequence, errors.KindOf(err))
}

func TestQueueEvictsOldestOnOverflow(t *testing.T) {
	ctx := context.Background()
	src := &fakeSource{entries: []protobag.Entry{
		stampedAt("/a", 0),
		stampedAt("/a", 1),
		stampedAt("/b", 1),
	}}

	ts, err := New(src, Spec{Topics: []string{"/a", "/b"}, MaxSlop: time.Second, MaxQueueSize: 1})
	require.NoError(t, err)

	bundle, err := ts.GetNext(ctx)
	require.NoError(t, err)
	require.Len(t, bundle, 2)
	assert.Equal(t, int64(1), bundle[0].Context.Timestamp.Sec, "stale /a@0 should have been evicted")
}

func TestGetNextPropagatesEndOfSequenceFromEmptySource(t *testing.T) {
	ctx := context.Background()
	src := &fakeSource{}

	ts, err := New(src, Spec{Topics: []string{"/a", "/b"}, MaxSlop: time.Second, MaxQueueSize: 4})
	require.NoError(t, err)

	_, err = ts.GetNext(ctx)
	require.Error(t, err)
	assert.Equal(t, errors.EndOfSequence, errors.KindOf(err))
}
