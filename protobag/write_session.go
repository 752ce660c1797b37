package protobag

import (
	"context"
	"time"

	"protobag.io/archive"
	"protobag.io/bagindex"
	"protobag.io/envelope"
	"protobag.io/errors"
	"protobag.io/metrics"
	"protobag.io/timestamp"
)

// WriteSpec configures a WriteSession (spec.md §6.5).
type WriteSpec struct {
	ArchiveSpec archive.Spec

	SaveTimeseriesIndex bool
	SaveDescriptorIndex bool

	// ProtobagVersion is recorded into the final index.
	ProtobagVersion string
}

// ShouldIndex reports whether any indexing is enabled.
func (s WriteSpec) ShouldIndex() bool {
	return s.SaveTimeseriesIndex || s.SaveDescriptorIndex
}

// WriteToTempdir returns a WriteSpec that opens a fresh temp directory
// archive with both indexing flags on, the Go rendering of
// WriteSession::Spec::WriteToTempdir.
func WriteToTempdir() WriteSpec {
	return WriteSpec{
		ArchiveSpec:         archive.Spec{Mode: archive.ModeWrite, Path: archive.TempfilePath, Format: archive.FormatDirectory},
		SaveTimeseriesIndex: true,
		SaveDescriptorIndex: true,
	}
}

// WriteSession streams Entrys into a backing Archive, observing each into
// a bagindex.Builder and sealing a bag index on Close (spec.md §4.4). Not
// safe for concurrent use; one goroutine at a time, like upspin's own
// client/session types.
type WriteSession struct {
	spec    WriteSpec
	archive archive.Archive
	indexer *bagindex.Builder
	closed  bool
}

// CreateWriteSession opens spec's archive and, if indexing is requested,
// allocates a bagindex.Builder (ported from WriteSession::Create).
func CreateWriteSession(ctx context.Context, spec WriteSpec) (*WriteSession, error) {
	const op = "protobag.CreateWriteSession"
	a, err := archive.Open(ctx, spec.ArchiveSpec)
	if err != nil {
		return nil, errors.E(op, err)
	}

	w := &WriteSession{spec: spec, archive: a}
	if spec.ShouldIndex() {
		w.indexer = bagindex.NewBuilder(spec.ProtobagVersion,
			bagindex.WithTimeseriesIndexing(spec.SaveTimeseriesIndex),
			bagindex.WithDescriptorIndexing(spec.SaveDescriptorIndex))
	}
	return w, nil
}

// WriteEntry derives entry.EntryName when empty (which requires a
// non-empty topic in entry.Context), serializes its payload, writes it to
// the archive, and observes it into the builder (spec.md §4.4).
func (w *WriteSession) WriteEntry(ctx context.Context, entry Entry, useText bool) error {
	const op = "protobag.WriteSession.WriteEntry"
	m := metrics.New(op)
	span := m.StartSpan(entry.EntryName)
	span.SetKind(metrics.WriteOp)
	defer m.Done()

	if w.archive == nil {
		return errors.E(op, errors.Str("programming error: no archive open for writing"))
	}

	entryName := entry.EntryName
	if entryName == "" {
		tt, ok := entry.GetTopicTime()
		if !ok || tt.Topic == "" {
			return errors.E(op, errors.InvalidEntry,
				errors.Str("entry must have an entryname or a topic/timestamp"))
		}
		entryName = deriveEntryName(tt.Topic, tt.Timestamp, useText)
		entry.EntryName = entryName
	}

	data := envelope.Encode(entry.Payload, useText)
	if err := w.archive.Write(ctx, entryName, data); err != nil {
		return errors.E(op, err)
	}

	if w.indexer != nil {
		w.indexer.Observe(observationFor(entry, entryName))
	}
	return nil
}

func observationFor(entry Entry, entryName string) bagindex.Observation {
	obs := bagindex.Observation{EntryName: entryName}

	if entry.IsStampedMessage() {
		if tt, ok := entry.GetTopicTime(); ok {
			obs.Stamped = true
			obs.TopicTime = tt
		}
	}

	if entry.Context != nil {
		obs.TypeURL = entry.Context.InnerTypeURL
		if entry.Context.Descriptor != nil {
			if fs, err := entry.Context.Descriptor.Closure(); err == nil && len(fs.Files) > 0 {
				obs.DescriptorRoot = fs.Files[0]
			}
		}
		if obs.Stamped {
			obs.StampedCarrierTypeURL = envelope.StampedCarrierTypeURL
			if entry.Context.CarrierDescriptor != nil {
				if fs, err := entry.Context.CarrierDescriptor.Closure(); err == nil && len(fs.Files) > 0 {
					obs.StampedCarrierRoot = fs.Files[0]
				}
			}
		}
	} else if !entry.IsRaw() {
		obs.TypeURL = entry.Payload.TypeURL
	}

	return obs
}

// Close completes the builder (if any), writes the resulting index as a
// stamped entry on the reserved bag_index topic, and releases the
// builder. Close is idempotent and the session must not be written to
// afterward (spec.md §4.4, testable property 4).
func (w *WriteSession) Close(ctx context.Context) error {
	if w.closed {
		return nil
	}
	w.closed = true

	m := metrics.New("protobag.WriteSession.Close")
	m.StartSpan("seal").SetKind(metrics.WriteOp)
	defer m.Done()

	if w.indexer == nil {
		return w.archive.Close(ctx)
	}

	index := w.indexer.Complete()
	w.indexer = nil

	now := wallClockNow()
	indexEntry := NewStampedEntry("", timestamp.IndexEntryTopic, now, indexEnvelope(index), false)
	if err := w.WriteEntry(ctx, indexEntry, false); err != nil {
		return errors.E("protobag.WriteSession.Close", err)
	}
	return w.archive.Close(ctx)
}

// wallClockNow stamps the bag-index entry with the current time, the Go
// rendering of TimeUtil::GetCurrentTime used by WriteSession::Close.
var wallClockNow = func() timestamp.Timestamp {
	t := time.Now().UTC()
	return timestamp.Timestamp{Sec: t.Unix(), Nsec: int32(t.Nanosecond())}
}
