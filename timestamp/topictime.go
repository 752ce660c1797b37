package timestamp

import "strings"

// ReservedIndexPrefix is the entry-name prefix reserved for the bag's own
// index entries; user topics must never begin with it.
const ReservedIndexPrefix = "/_protobag_index"

// IndexEntryTopic is the topic stamped entries carrying a bag index are
// written under.
const IndexEntryTopic = ReservedIndexPrefix + "/bag_index"

// TopicTime is the (topic, timestamp, entryname) coordinate spec.md §3.2
// defines a total order over: lexicographic on (Timestamp, Topic,
// EntryName). EntryName may be cleared for equality-matching queries.
type TopicTime struct {
	Topic     string
	Timestamp Timestamp
	EntryName string
}

// WithoutEntryName returns a copy with EntryName cleared, for matching
// a (topic, timestamp) coordinate irrespective of which entry holds it.
func (tt TopicTime) WithoutEntryName() TopicTime {
	tt.EntryName = ""
	return tt
}

// Less implements the total order from spec.md §3.2: lex(timestamp,
// topic, entryname).
func (tt TopicTime) Less(o TopicTime) bool {
	if c := tt.Timestamp.Compare(o.Timestamp); c != 0 {
		return c < 0
	}
	if tt.Topic != o.Topic {
		return tt.Topic < o.Topic
	}
	return tt.EntryName < o.EntryName
}

// EntryIsInTopic reports whether entryname falls under topic, by simple
// prefix match (mirrors the original EntryIsInTopic helper).
func EntryIsInTopic(entryname, topic string) bool {
	return strings.HasPrefix(entryname, topic)
}

// IsReservedTopic reports whether topic falls under the bag-internal
// reserved namespace.
func IsReservedTopic(topic string) bool {
	return EntryIsInTopic(topic, ReservedIndexPrefix)
}

// TopicFromEntryName derives a topic from an entry-name as its parent
// path (everything before the final path separator).
func TopicFromEntryName(entryname string) string {
	i := strings.LastIndex(entryname, "/")
	if i <= 0 {
		return ""
	}
	return entryname[:i]
}
