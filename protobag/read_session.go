package protobag

import (
	"context"

	"protobag.io/archive"
	"protobag.io/bagindex"
	"protobag.io/envelope"
	"protobag.io/errors"
	"protobag.io/metrics"
	"protobag.io/timestamp"
)

// ReadSpec configures a ReadSession (spec.md §6.5).
type ReadSpec struct {
	ArchiveSpec archive.Spec
	Selection   Selection

	// UnpackStampedMessages, when true, reverses stamped-carrier boxing
	// on read so yielded Entrys carry topic/time context directly.
	// Defaults to true via ReadAllFromPath; the zero value is false, so
	// callers building a ReadSpec by hand must set it explicitly.
	UnpackStampedMessages bool
}

// ReadAllFromPath returns a ReadSpec that opens path read-only and
// selects every entry, unpacking stamped messages — the Go rendering of
// ReadSession::Spec::ReadAllFromPath.
func ReadAllFromPath(path string) ReadSpec {
	return ReadSpec{
		ArchiveSpec:           archive.Spec{Mode: archive.ModeRead, Path: path},
		Selection:             SelectAllEntries(false),
		UnpackStampedMessages: true,
	}
}

// readPlan is the ephemeral FIFO a ReadSession compiles its Selection
// into on first Next (spec.md §3.5).
type readPlan struct {
	entries    []string
	requireAll bool
	rawMode    bool
}

// ReadSession opens an Archive, locates its latest bag index, compiles
// the Selection into a read plan, and emits Entrys in plan order (spec.md
// §4.5). Not safe for concurrent use.
type ReadSession struct {
	spec    ReadSpec
	archive archive.Archive

	started bool
	plan    readPlan
	pos     int
}

// CreateReadSession opens spec's archive (ported from ReadSession::Create).
func CreateReadSession(ctx context.Context, spec ReadSpec) (*ReadSession, error) {
	a, err := archive.Open(ctx, spec.ArchiveSpec)
	if err != nil {
		return nil, errors.E("protobag.CreateReadSession", err)
	}
	return &ReadSession{spec: spec, archive: a}, nil
}

// Next returns the next Entry in plan order. Its error is nil, wraps
// archive.ErrNotFound (only when the plan's require_all demanded a
// missing name), or wraps ErrEndOfSequence once the plan is drained
// (spec.md §4.5). Callers stop calling Next once they see
// errors.Is(err, ErrEndOfSequence); this is a distinguished value, not a
// real failure.
func (r *ReadSession) Next(ctx context.Context) (*Entry, error) {
	const op = "protobag.ReadSession.Next"
	m := metrics.New(op)
	m.StartSpan("next").SetKind(metrics.ReadOp)
	defer m.Done()

	if !r.started {
		plan, err := compileReadPlan(ctx, r.archive, r.spec.Selection)
		if err != nil {
			return nil, errors.E(op, err)
		}
		r.plan = plan
		r.started = true
	}

	if r.pos >= len(r.plan.entries) {
		return nil, errors.E(op, ErrEndOfSequence)
	}

	entryName := r.plan.entries[r.pos]
	r.pos++

	entry, err := readEntryFrom(ctx, r.archive, entryName, r.plan.rawMode, r.spec.UnpackStampedMessages)
	if errors.KindOf(err) == errors.NotFound {
		if r.plan.requireAll {
			return nil, errors.E(op, errors.NotFound, errors.WithEntryName(entryName, err))
		}
		return r.Next(ctx)
	}
	if err != nil {
		return nil, errors.E(op, err)
	}
	return entry, nil
}

// ErrEndOfSequence is the sentinel a caller matches with errors.Is to
// detect plan exhaustion (spec.md §7's EndOfSequence kind).
var ErrEndOfSequence = errors.E(errors.EndOfSequence, errors.Str("end of sequence"))

func readEntryFrom(ctx context.Context, a archive.Archive, entryName string, rawMode, unpackStamped bool) (*Entry, error) {
	const op = "protobag.readEntryFrom"
	data, err := a.ReadAsString(ctx, entryName)
	if err != nil {
		return nil, errors.E(op, err)
	}

	if rawMode {
		return &Entry{EntryName: entryName, Payload: Envelope{Value: data}}, nil
	}

	env, err := envelope.Decode(data)
	if err != nil {
		return nil, errors.E(op, errors.DecodeError, errors.WithEntryName(entryName, err))
	}
	entry := Entry{EntryName: entryName, Payload: env}

	if unpackStamped && entry.IsStampedMessage() {
		unpacked, err := entry.UnpackFromStamped()
		if err != nil {
			return nil, errors.E(op, err)
		}
		return &unpacked, nil
	}
	return &entry, nil
}

// ReadLatestIndex scans a's namelist for bag_index entries and returns
// the one with the latest carrier timestamp, ties broken by encounter
// order (spec.md §4.5 step 1, §6.4; SPEC_FULL.md §6 point 2 — a
// deliberate keep of the original's "arbitrary" tie-break policy, not its
// literal comparison, since spec.md explicitly calls for latest here).
func ReadLatestIndex(ctx context.Context, a archive.Archive) (bagindex.Index, error) {
	const op = "protobag.ReadLatestIndex"
	if a == nil {
		return bagindex.Index{}, errors.E(op, errors.Str("no archive to read"))
	}

	names, err := a.Namelist(ctx)
	if err != nil {
		return bagindex.Index{}, errors.E(op, err)
	}

	var latest *Entry
	for _, name := range names {
		if !timestamp.EntryIsInTopic(name, timestamp.IndexEntryTopic) {
			continue
		}
		entry, err := readEntryFrom(ctx, a, name, false, true)
		if err != nil || entry.Context == nil {
			continue
		}
		if latest == nil || entry.Context.Timestamp.After(latest.Context.Timestamp) {
			latest = entry
		}
	}

	if latest == nil {
		return bagindex.Index{}, errors.E(op, errors.IndexAbsent, errors.Str("could not find an index"))
	}
	return decodeIndexEnvelope(latest.Payload)
}

// compileReadPlan is the Go rendering of ReadSession::GetEntriesToRead.
func compileReadPlan(ctx context.Context, a archive.Archive, sel Selection) (readPlan, error) {
	const op = "protobag.compileReadPlan"
	if a == nil {
		return readPlan{}, errors.E(op, errors.Str("no archive to read"))
	}

	index, err := ReadLatestIndex(ctx, a)
	if err != nil {
		return readPlan{}, errors.E(op, errors.IndexAbsent, err)
	}

	switch {
	case sel.All != nil:
		names, err := a.Namelist(ctx)
		if err != nil {
			return readPlan{}, errors.E(op, err)
		}
		// Stamped entries come first, in the index's time order; every
		// other name (the bag_index entries among them) follows in
		// namelist order.
		entries := make([]string, 0, len(names))
		indexed := make(map[string]bool, len(index.TimeOrderedEntries))
		for _, tt := range index.TimeOrderedEntries {
			name := archive.DisplayName(tt.EntryName)
			entries = append(entries, name)
			indexed[name] = true
		}
		for _, name := range names {
			if !indexed[name] {
				entries = append(entries, name)
			}
		}
		return readPlan{entries: entries, requireAll: false, rawMode: sel.All.AllEntriesAreRaw}, nil

	case sel.Entrynames != nil:
		s := sel.Entrynames
		return readPlan{
			entries:    append([]string(nil), s.Names...),
			requireAll: !s.IgnoreMissingEntries,
			rawMode:    s.EntriesAreRaw,
		}, nil

	case sel.Events != nil:
		return compileEventsPlan(sel.Events, index)

	case sel.Window != nil:
		return compileWindowPlan(sel.Window, index), nil

	default:
		return readPlan{}, errors.E(op, errors.UnsupportedSelection,
			errors.Str("selection has no recognized variant set"))
	}
}

func compileEventsPlan(sel *Events, index bagindex.Index) (readPlan, error) {
	const op = "protobag.compileEventsPlan"
	wanted := make(map[timestamp.TopicTime]bool, len(sel.Coordinates))
	for _, c := range sel.Coordinates {
		wanted[c.WithoutEntryName()] = true
	}

	var entries []string
	found := make(map[timestamp.TopicTime]bool, len(wanted))
	for _, tt := range index.TimeOrderedEntries {
		key := tt.WithoutEntryName()
		if wanted[key] {
			entries = append(entries, tt.EntryName)
			found[key] = true
		}
	}

	var missing []timestamp.TopicTime
	if sel.RequireAll {
		for _, c := range sel.Coordinates {
			if !found[c.WithoutEntryName()] {
				missing = append(missing, c)
			}
		}
	}

	if sel.RequireAll && len(missing) > 0 {
		return readPlan{}, errors.E(op, errors.MissingRequired,
			errors.Errorf("could not find all requested events: %d missing", len(missing)))
	}

	return readPlan{entries: entries, requireAll: sel.RequireAll, rawMode: false}, nil
}

func compileWindowPlan(w *Window, index bagindex.Index) readPlan {
	var entries []string
	for _, tt := range index.TimeOrderedEntries {
		if len(w.ExcludeTopics) > 0 && w.ExcludeTopics[tt.Topic] {
			continue
		}
		if len(w.Topics) > 0 && !w.Topics[tt.Topic] {
			continue
		}
		if w.Start != nil && tt.Timestamp.Before(*w.Start) {
			continue
		}
		if w.End != nil && tt.Timestamp.After(*w.End) {
			continue
		}
		entries = append(entries, tt.EntryName)
	}
	return readPlan{entries: entries, requireAll: false, rawMode: false}
}

// IndexOf opens path read-only and returns just its latest bag index,
// without constructing a full read plan (SPEC_FULL.md §6 point 1, ported
// from ReadSession::GetIndex).
func IndexOf(ctx context.Context, path string) (bagindex.Index, error) {
	a, err := archive.Open(ctx, archive.Spec{Mode: archive.ModeRead, Path: path})
	if err != nil {
		return bagindex.Index{}, errors.E("protobag.IndexOf", err)
	}
	defer a.Close(ctx)
	return ReadLatestIndex(ctx, a)
}

// TopicsOf opens path read-only and returns the topic names present in
// its latest bag index (SPEC_FULL.md §6 point 1, ported from
// ReadSession::GetAllTopics). It ignores entries not covered by the
// index.
func TopicsOf(ctx context.Context, path string) ([]string, error) {
	index, err := IndexOf(ctx, path)
	if err != nil {
		return nil, errors.E("protobag.TopicsOf", err)
	}
	topics := make([]string, 0, len(index.TopicToStats))
	for t := range index.TopicToStats {
		topics = append(topics, t)
	}
	return topics, nil
}
