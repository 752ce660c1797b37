// Package protobag implements the write and read sessions that sit on
// top of archive, bagindex and timestamp: the Entry record, the
// Selection query variant, and the sessions themselves (spec.md §3, §4.4,
// §4.5). Grounded on original_source/.../Entry.hpp, WriteSession.{hpp,cpp}
// and ReadSession.{hpp,cpp}, translated from the C++ PImpl/Result<T>
// shape into plain Go structs and (T, error) returns.
//
// None of the types here are safe for concurrent use by multiple
// goroutines, matching upspin's own "not safe for concurrent use" notes
// on its session-shaped types (e.g. client.Client implementations).
package protobag

import (
	"strconv"
	"strings"

	"protobag.io/descriptor"
	"protobag.io/envelope"
	"protobag.io/timestamp"
)

// DescriptorRef supplies the schema file-set closure for an Entry's
// payload type at write time. It is descriptor.Provider by another name:
// kept as its own type here so EntryContext's doc comment can describe
// it in terms an Entry-level reader cares about, without forcing every
// caller to import the descriptor package just to spell Provider.
type DescriptorRef = descriptor.Provider

// EntryContext is the optional timeseries/descriptor metadata carried by
// a stamped Entry (spec.md §3.1). A raw or unstamped Entry has a nil
// Context.
type EntryContext struct {
	Topic     string
	Timestamp timestamp.Timestamp

	// InnerTypeURL is the type URL of the payload once any stamped
	// carrier has been peeled away.
	InnerTypeURL string

	// Descriptor supplies the schema closure for InnerTypeURL. Write-time
	// only; nil on entries freshly read back.
	Descriptor DescriptorRef

	// CarrierDescriptor supplies the schema closure for the stamped
	// carrier envelope itself. Write-time only.
	CarrierDescriptor DescriptorRef
}

// Entry is the runtime record producers create and consumers receive
// (spec.md §3.1).
type Entry struct {
	// EntryName is empty only before write-time name derivation; after
	// derivation (or on anything read back) it is non-empty and
	// canonical.
	EntryName string

	Payload Envelope

	// Context is set for stamped entries (spec.md §3.1's "optional
	// context"); nil for raw or unstamped entries.
	Context *EntryContext
}

// Envelope is protobag's Entry payload type. Re-exported from the
// envelope package so callers building an Entry don't need a second
// import for the common case.
type Envelope = envelope.Envelope

// NewRawEntry builds an Entry with no type information: just bytes under
// a name, the Go rendering of Entry::CreateRaw.
func NewRawEntry(entryName string, data []byte) Entry {
	return Entry{EntryName: entryName, Payload: Envelope{Value: data}}
}

// NewEntry builds an untyped-context Entry from a typed payload, the Go
// rendering of Entry::Create. The Entry carries no topic, so
// WriteSession.WriteEntry cannot derive a name for it: entryName must be
// non-empty for the write to succeed.
func NewEntry(entryName string, payload Envelope) Entry {
	return Entry{EntryName: entryName, Payload: payload}
}

// NewStampedEntry builds a stamped Entry: the payload is boxed as a
// StampedCarrier envelope carrying ts, and Context records topic/time for
// indexing. entryName may be left empty; WriteSession derives one from
// topic and ts when so.
func NewStampedEntry(entryName, topic string, ts timestamp.Timestamp, payload Envelope, useText bool) Entry {
	return Entry{
		EntryName: entryName,
		Payload:   envelope.PackStamped(ts, payload, useText),
		Context: &EntryContext{
			Topic:        topic,
			Timestamp:    ts,
			InnerTypeURL: payload.TypeURL,
		},
	}
}

// IsRaw reports whether e carries no type information (spec.md §3.1).
func (e Entry) IsRaw() bool { return e.Payload.IsRaw() }

// IsStampedMessage reports whether e is (or claims to be) a timeseries
// entry: either its payload is a stamped carrier envelope, or it already
// carries topic/time context (ported from Entry::IsStampedMessage).
func (e Entry) IsStampedMessage() bool {
	return envelope.IsStamped(e.Payload) || e.HasTopic()
}

// HasTopic reports whether e carries timeseries context with a non-empty
// topic.
func (e Entry) HasTopic() bool {
	return e.Context != nil && e.Context.Topic != ""
}

// GetTopicTime returns e's topic-time coordinate. If Context already
// carries one it is used directly; otherwise, when e is a stamped
// carrier, the coordinate is reconstructed by unpacking the carrier and
// deriving the topic from EntryName's parent path (ported from
// Entry::GetTopicTime, which does the analogous UnpackFromStamped call
// when ctx is absent).
func (e Entry) GetTopicTime() (timestamp.TopicTime, bool) {
	if e.Context != nil && e.Context.Topic != "" {
		return timestamp.TopicTime{
			Topic:     e.Context.Topic,
			Timestamp: e.Context.Timestamp,
			EntryName: e.EntryName,
		}, true
	}
	if !envelope.IsStamped(e.Payload) {
		return timestamp.TopicTime{}, false
	}
	carrier, err := envelope.UnpackStamped(e.Payload)
	if err != nil {
		return timestamp.TopicTime{}, false
	}
	return timestamp.TopicTime{
		Topic:     timestamp.TopicFromEntryName(e.EntryName),
		Timestamp: carrier.Timestamp,
		EntryName: e.EntryName,
	}, true
}

// UnpackFromStamped reverses the stamped-carrier boxing: it returns a new
// Entry whose Payload is the carrier's inner envelope and whose Context
// carries topic (derived from EntryName's parent path when not already
// set) and timestamp (ported from Entry::UnpackFromStamped).
func (e Entry) UnpackFromStamped() (Entry, error) {
	carrier, err := envelope.UnpackStamped(e.Payload)
	if err != nil {
		return Entry{}, err
	}
	topic := ""
	if e.Context != nil {
		topic = e.Context.Topic
	}
	if topic == "" {
		topic = timestamp.TopicFromEntryName(e.EntryName)
	}
	return Entry{
		EntryName: e.EntryName,
		Payload:   carrier.Inner,
		Context: &EntryContext{
			Topic:        topic,
			Timestamp:    carrier.Timestamp,
			InnerTypeURL: carrier.Inner.TypeURL,
		},
	}, nil
}

// deriveEntryName implements spec.md §4.2's naming rule:
// {topic}/{secs}.{nanos}.stampedmsg.{protobin|prototxt}.
func deriveEntryName(topic string, ts timestamp.Timestamp, useText bool) string {
	ext := "protobin"
	if useText {
		ext = "prototxt"
	}
	var b strings.Builder
	b.WriteString(strings.TrimSuffix(topic, "/"))
	b.WriteByte('/')
	b.WriteString(strconv.FormatInt(ts.Sec, 10))
	b.WriteByte('.')
	b.WriteString(strconv.FormatInt(int64(ts.Nsec), 10))
	b.WriteString(".stampedmsg.")
	b.WriteString(ext)
	return b.String()
}
