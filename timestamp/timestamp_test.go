package timestamp

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompareOrdering(t *testing.T) {
	a := Timestamp{Sec: 1, Nsec: 0}
	b := Timestamp{Sec: 1, Nsec: 100}
	c := Timestamp{Sec: 2, Nsec: 0}

	assert.True(t, a.Before(b))
	assert.True(t, b.Before(c))
	assert.True(t, c.After(a))
	assert.Equal(t, 0, a.Compare(a))
}

func TestMinMaxSentinelsBoundEverything(t *testing.T) {
	assert.True(t, Min().After(Timestamp{Sec: 0}))
	assert.True(t, Max().Before(Timestamp{Sec: 0}))
}

func TestTopicTimeTotalOrder(t *testing.T) {
	tts := []TopicTime{
		{Topic: "/b", Timestamp: Timestamp{Sec: 1, Nsec: 100}, EntryName: "/b/1"},
		{Topic: "/a", Timestamp: Timestamp{Sec: 1, Nsec: 0}, EntryName: "/a/1"},
		{Topic: "/a", Timestamp: Timestamp{Sec: 2, Nsec: 0}, EntryName: "/a/2"},
	}
	sort.Slice(tts, func(i, j int) bool { return tts[i].Less(tts[j]) })

	assert.Equal(t, "/a/1", tts[0].EntryName)
	assert.Equal(t, "/b/1", tts[1].EntryName)
	assert.Equal(t, "/a/2", tts[2].EntryName)
}

func TestTopicFromEntryName(t *testing.T) {
	assert.Equal(t, "/a", TopicFromEntryName("/a/1.0.stampedmsg.protobin"))
	assert.Equal(t, "", TopicFromEntryName("noTopic"))
}

func TestIsReservedTopic(t *testing.T) {
	assert.True(t, IsReservedTopic(IndexEntryTopic))
	assert.False(t, IsReservedTopic("/camera/rgb"))
}
