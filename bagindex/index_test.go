package bagindex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"protobag.io/descriptor"
	"protobag.io/timestamp"
)

func TestNewIndexSentinels(t *testing.T) {
	idx := NewIndex("v1.2.3")
	assert.Equal(t, timestamp.Min(), idx.Start)
	assert.Equal(t, timestamp.Max(), idx.End)
	assert.Equal(t, "v1.2.3", idx.ProtobagVersion)
}

func TestObserveStampedUpdatesStatsAndBounds(t *testing.T) {
	b := NewBuilder("v1")
	b.Observe(Observation{
		EntryName: "/camera/1.0.stampedmsg.protobin",
		Stamped:   true,
		TopicTime: timestamp.TopicTime{
			Topic:     "/camera",
			Timestamp: timestamp.Timestamp{Sec: 10},
		},
	})
	b.Observe(Observation{
		EntryName: "/camera/2.0.stampedmsg.protobin",
		Stamped:   true,
		TopicTime: timestamp.TopicTime{
			Topic:     "/camera",
			Timestamp: timestamp.Timestamp{Sec: 20},
		},
	})

	idx := b.Complete()
	require.Contains(t, idx.TopicToStats, "/camera")
	assert.EqualValues(t, 2, idx.TopicToStats["/camera"].NMessages)
	assert.Equal(t, timestamp.Timestamp{Sec: 10}, idx.Start)
	assert.Equal(t, timestamp.Timestamp{Sec: 20}, idx.End)
	require.Len(t, idx.TimeOrderedEntries, 2)
	assert.Equal(t, "/camera/1.0.stampedmsg.protobin", idx.TimeOrderedEntries[0].EntryName)
}

func TestCompleteSortsTimeOrderedEntries(t *testing.T) {
	b := NewBuilder("v1")
	b.Observe(Observation{
		EntryName: "/b/late",
		Stamped:   true,
		TopicTime: timestamp.TopicTime{Topic: "/b", Timestamp: timestamp.Timestamp{Sec: 5}},
	})
	b.Observe(Observation{
		EntryName: "/a/early",
		Stamped:   true,
		TopicTime: timestamp.TopicTime{Topic: "/a", Timestamp: timestamp.Timestamp{Sec: 1}},
	})

	idx := b.Complete()
	require.Len(t, idx.TimeOrderedEntries, 2)
	assert.Equal(t, "/a/early", idx.TimeOrderedEntries[0].EntryName)
	assert.Equal(t, "/b/late", idx.TimeOrderedEntries[1].EntryName)
}

func TestDescriptorIndexingComputesClosureOnce(t *testing.T) {
	files := map[string]descriptor.File{
		"a.proto": {Name: "a.proto", Deps: []string{"b.proto"}},
		"b.proto": {Name: "b.proto"},
	}
	lookup := func(name string) (descriptor.File, bool) {
		f, ok := files[name]
		return f, ok
	}

	b := NewBuilder("v1", WithDescriptorLookup(lookup))
	b.Observe(Observation{
		EntryName:      "/e1",
		TypeURL:        "type.protobag.io/demo.A",
		DescriptorRoot: files["a.proto"],
	})
	b.Observe(Observation{
		EntryName:      "/e2",
		TypeURL:        "type.protobag.io/demo.A",
		DescriptorRoot: files["a.proto"],
	})

	idx := b.Complete()
	assert.Equal(t, "type.protobag.io/demo.A", idx.DescriptorPoolData.EntrynameToTypeURL["/e1"])
	assert.Equal(t, "type.protobag.io/demo.A", idx.DescriptorPoolData.EntrynameToTypeURL["/e2"])
	fs := idx.DescriptorPoolData.TypeURLToDescriptor["type.protobag.io/demo.A"]
	assert.Len(t, fs.Files, 2)
}

func TestDescriptorIndexingSkipsWhenDisabled(t *testing.T) {
	b := NewBuilder("v1", WithDescriptorIndexing(false))
	b.Observe(Observation{
		EntryName:      "/e1",
		TypeURL:        "type.protobag.io/demo.A",
		DescriptorRoot: descriptor.File{Name: "a.proto"},
	})
	idx := b.Complete()
	assert.Empty(t, idx.DescriptorPoolData.EntrynameToTypeURL)
}

func TestStampedCarrierTypeIndexedUnderReservedName(t *testing.T) {
	b := NewBuilder("v1")
	b.Observe(Observation{
		EntryName:             "/camera/1.0.stampedmsg.protobin",
		Stamped:               true,
		TopicTime:             timestamp.TopicTime{Topic: "/camera", Timestamp: timestamp.Timestamp{Sec: 1}},
		TypeURL:               "type.protobag.io/demo.Frame",
		DescriptorRoot:        descriptor.File{Name: "frame.proto"},
		StampedCarrierTypeURL: "type.protobag.io/protobag.StampedMessage",
		StampedCarrierRoot:    descriptor.File{Name: "stamped.proto"},
	})

	idx := b.Complete()
	assert.Equal(t, "type.protobag.io/protobag.StampedMessage",
		idx.DescriptorPoolData.EntrynameToTypeURL[reservedStampedCarrierEntryName])
	assert.Contains(t, idx.DescriptorPoolData.TypeURLToDescriptor, "type.protobag.io/protobag.StampedMessage")
}

func TestCompleteTwicePanics(t *testing.T) {
	b := NewBuilder("v1")
	b.Complete()
	assert.Panics(t, func() { b.Complete() })
}

func TestObserveDoesNothingWhenTimeseriesIndexingDisabled(t *testing.T) {
	b := NewBuilder("v1", WithTimeseriesIndexing(false))
	b.Observe(Observation{
		EntryName: "/camera/1",
		Stamped:   true,
		TopicTime: timestamp.TopicTime{Topic: "/camera", Timestamp: timestamp.Timestamp{Sec: 1}},
	})
	idx := b.Complete()
	assert.Empty(t, idx.TopicToStats)
	assert.Empty(t, idx.TimeOrderedEntries)
}
