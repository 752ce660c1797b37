package protobag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"protobag.io/envelope"
	"protobag.io/timestamp"
)

func TestRawEntryIsRaw(t *testing.T) {
	e := NewRawEntry("/a/one.bin", []byte("hello"))
	assert.True(t, e.IsRaw())
	assert.False(t, e.IsStampedMessage())
}

func TestStampedEntryRoundTrip(t *testing.T) {
	ts := timestamp.Timestamp{Sec: 100, Nsec: 7}
	inner := envelope.Envelope{TypeURL: "type.example/Foo", Value: []byte("payload")}
	e := NewStampedEntry("", "/cam/front", ts, inner, false)

	assert.True(t, e.IsStampedMessage())
	assert.True(t, e.HasTopic())

	tt, ok := e.GetTopicTime()
	require.True(t, ok)
	assert.Equal(t, "/cam/front", tt.Topic)
	assert.Equal(t, ts, tt.Timestamp)

	unpacked, err := e.UnpackFromStamped()
	require.NoError(t, err)
	assert.Equal(t, inner, unpacked.Payload)
	require.NotNil(t, unpacked.Context)
	assert.Equal(t, "/cam/front", unpacked.Context.Topic)
	assert.Equal(t, ts, unpacked.Context.Timestamp)
	assert.Equal(t, inner.TypeURL, unpacked.Context.InnerTypeURL)
}

func TestGetTopicTimeFallsBackToEntryNameWhenContextAbsent(t *testing.T) {
	ts := timestamp.Timestamp{Sec: 5, Nsec: 0}
	inner := envelope.Envelope{TypeURL: "type.example/Foo", Value: []byte("x")}
	carrier := envelope.PackStamped(ts, inner, false)

	e := Entry{EntryName: "/cam/front/5.0.stampedmsg.protobin", Payload: carrier}
	assert.True(t, e.IsStampedMessage())

	tt, ok := e.GetTopicTime()
	require.True(t, ok)
	assert.Equal(t, "/cam/front", tt.Topic)
	assert.Equal(t, ts, tt.Timestamp)
}

func TestDeriveEntryNameBinaryAndText(t *testing.T) {
	ts := timestamp.Timestamp{Sec: 42, Nsec: 9}
	assert.Equal(t, "/cam/front/42.9.stampedmsg.protobin", deriveEntryName("/cam/front", ts, false))
	assert.Equal(t, "/cam/front/42.9.stampedmsg.prototxt", deriveEntryName("/cam/front", ts, true))
}
