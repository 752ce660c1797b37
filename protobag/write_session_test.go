package protobag

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"protobag.io/archive"
	"protobag.io/envelope"
	"protobag.io/timestamp"
)

func TestWriteSessionRoundTripWithIndex(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "bag")

	w, err := CreateWriteSession(ctx, WriteSpec{
		ArchiveSpec:         archive.Spec{Mode: archive.ModeWrite, Format: archive.FormatDirectory, Path: dir},
		SaveTimeseriesIndex: true,
		SaveDescriptorIndex: true,
		ProtobagVersion:     "test-1",
	})
	require.NoError(t, err)

	ts1 := timestamp.Timestamp{Sec: 10, Nsec: 0}
	ts2 := timestamp.Timestamp{Sec: 20, Nsec: 0}
	e1 := NewStampedEntry("", "/cam/front", ts1, envelope.Envelope{TypeURL: "type.example/Foo", Value: []byte("a")}, false)
	e2 := NewStampedEntry("", "/cam/front", ts2, envelope.Envelope{TypeURL: "type.example/Foo", Value: []byte("b")}, false)

	require.NoError(t, w.WriteEntry(ctx, e1, false))
	require.NoError(t, w.WriteEntry(ctx, e2, false))
	require.NoError(t, w.Close(ctx))
	require.NoError(t, w.Close(ctx), "Close must be idempotent")

	index, err := IndexOf(ctx, dir)
	require.NoError(t, err)
	assert.Equal(t, int64(2), index.TopicToStats["/cam/front"].NMessages)
	assert.Len(t, index.TimeOrderedEntries, 2)
	assert.Equal(t, ts1, index.Start)
	assert.Equal(t, ts2, index.End)

	topics, err := TopicsOf(ctx, dir)
	require.NoError(t, err)
	assert.Contains(t, topics, "/cam/front")
}

func TestWriteEntryRequiresNameOrTopic(t *testing.T) {
	ctx := context.Background()
	w, err := CreateWriteSession(ctx, WriteSpec{
		ArchiveSpec: archive.Spec{Mode: archive.ModeWrite, Format: archive.FormatMemory},
	})
	require.NoError(t, err)
	defer w.Close(ctx)

	err = w.WriteEntry(ctx, NewEntry("", envelope.Envelope{TypeURL: "type.example/Foo", Value: []byte("x")}), false)
	assert.Error(t, err)
}

func TestCloseWithoutIndexingSkipsIndexEntry(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "bag")

	w, err := CreateWriteSession(ctx, WriteSpec{
		ArchiveSpec: archive.Spec{Mode: archive.ModeWrite, Format: archive.FormatDirectory, Path: dir},
	})
	require.NoError(t, err)
	require.NoError(t, w.WriteEntry(ctx, NewRawEntry("/only.bin", []byte("x")), false))
	require.NoError(t, w.Close(ctx))

	_, err = IndexOf(ctx, dir)
	assert.Error(t, err)
}
