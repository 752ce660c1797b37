// Package bagindex implements the bag index data model and the
// write-time builder that assembles one from observed entries (spec.md
// §3.3, §4.3). Grounded on
// original_source/.../BagIndexBuilder.{hpp,cpp}'s TopicTimeOrderer and
// DescriptorIndexer, translated from the observer-pattern/PImpl C++
// shape into a plain Go struct with an Observe/Complete lifecycle.
package bagindex

import (
	"sort"

	"protobag.io/descriptor"
	"protobag.io/timestamp"
)

// TopicStats is the per-topic summary recorded in an Index.
type TopicStats struct {
	NMessages int64
}

// DescriptorPoolData holds the schema closures needed to decode entries
// whose readers lack compiled type bindings (spec.md §3.3).
type DescriptorPoolData struct {
	// TypeURLToDescriptor maps a type URL to its serialized file-set
	// closure (the defining file and everything it depends on).
	TypeURLToDescriptor map[string]descriptor.FileSet
	// EntrynameToTypeURL maps an entry-name to the type URL of its
	// payload, or of the innermost stamped type when stamped.
	EntrynameToTypeURL map[string]string
}

// Index is the persisted bag index (spec.md §3.3).
type Index struct {
	// Start, End are the inclusive bounds over every stamped entry seen.
	// When no stamped entry was observed Start holds the timestamp.Min()
	// sentinel (+∞) and End holds the timestamp.Max() sentinel (−∞).
	Start, End timestamp.Timestamp

	TopicToStats map[string]TopicStats

	// TimeOrderedEntries is every observed topic-time coordinate, sorted
	// ascending by the spec.md §3.2 total order.
	TimeOrderedEntries []timestamp.TopicTime

	DescriptorPoolData DescriptorPoolData

	// ProtobagVersion is the producer's version string.
	ProtobagVersion string
}

// NewIndex returns an empty Index with the start/end sentinels set,
// mirroring BagIndexBuilder's constructor (start=MaxTimestamp,
// end=MinTimestamp).
func NewIndex(protobagVersion string) Index {
	return Index{
		Start:           timestamp.Min(),
		End:             timestamp.Max(),
		TopicToStats:    map[string]TopicStats{},
		ProtobagVersion: protobagVersion,
		DescriptorPoolData: DescriptorPoolData{
			TypeURLToDescriptor: map[string]descriptor.FileSet{},
			EntrynameToTypeURL:  map[string]string{},
		},
	}
}

// Builder observes written Entrys and assembles an Index, per spec.md
// §4.3. The zero value is not usable; construct with NewBuilder.
type Builder struct {
	index Index

	doTimeseriesIndexing bool
	doDescriptorIndexing bool

	pending []timestamp.TopicTime

	descriptorLookup descriptor.Lookup
	consumed         bool
}

// BuilderOption configures a Builder at construction time.
type BuilderOption func(*Builder)

// WithTimeseriesIndexing toggles topic-time indexing (default true).
func WithTimeseriesIndexing(on bool) BuilderOption {
	return func(b *Builder) { b.doTimeseriesIndexing = on }
}

// WithDescriptorIndexing toggles descriptor-pool indexing (default true).
func WithDescriptorIndexing(on bool) BuilderOption {
	return func(b *Builder) { b.doDescriptorIndexing = on }
}

// WithDescriptorLookup supplies the Lookup used to resolve a file's
// dependencies during descriptor indexing closure computation.
func WithDescriptorLookup(lookup descriptor.Lookup) BuilderOption {
	return func(b *Builder) { b.descriptorLookup = lookup }
}

// NewBuilder returns a Builder with both indexing flags on by default.
func NewBuilder(protobagVersion string, opts ...BuilderOption) *Builder {
	b := &Builder{
		index:                NewIndex(protobagVersion),
		doTimeseriesIndexing: true,
		doDescriptorIndexing: true,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// IsTimeseriesIndexing reports whether timeseries indexing is enabled.
func (b *Builder) IsTimeseriesIndexing() bool { return b.doTimeseriesIndexing }

// IsDescriptorIndexing reports whether descriptor indexing is enabled.
func (b *Builder) IsDescriptorIndexing() bool { return b.doDescriptorIndexing }

// Observation is the per-entry data a caller supplies to Observe. It
// stands in for C++'s Entry+ctx: a stamped entry's topic-time coordinate
// when timeseries indexing applies, and the type/descriptor data needed
// for descriptor indexing.
type Observation struct {
	EntryName string

	// Stamped entries set these two; leave Stamped false for a raw or
	// unstamped entry (it is then skipped by timeseries indexing).
	Stamped   bool
	TopicTime timestamp.TopicTime

	// TypeURL and DescriptorRoot are used for descriptor indexing; both
	// may be zero/empty if the entry carries no descriptor data.
	TypeURL        string
	DescriptorRoot descriptor.File

	// StampedCarrierTypeURL, when non-empty, is indexed once so readers
	// can always decode the outer stamped-carrier envelope (mirrors the
	// C++ "hack to ensure StampedMessage type gets indexed" step).
	StampedCarrierTypeURL string
	StampedCarrierRoot    descriptor.File
}

// Observe records one written entry into the builder, per spec.md
// §4.3's per-observation algorithm.
func (b *Builder) Observe(obs Observation) {
	entryName := obs.EntryName

	if b.doTimeseriesIndexing && obs.Stamped {
		tt := obs.TopicTime
		tt.EntryName = entryName

		stats := b.index.TopicToStats[tt.Topic]
		stats.NMessages++
		b.index.TopicToStats[tt.Topic] = stats

		b.pending = append(b.pending, tt)

		b.index.Start = timestamp.Min2(b.index.Start, tt.Timestamp)
		b.index.End = timestamp.Max2(b.index.End, tt.Timestamp)
	}

	if b.doDescriptorIndexing {
		b.observeDescriptor(entryName, obs.TypeURL, obs.DescriptorRoot)
		if obs.Stamped && obs.StampedCarrierTypeURL != "" {
			// Ensure the stamped-carrier type itself gets indexed at
			// least once, under a reserved pseudo-entryname, so readers
			// can always decode the outer envelope even when no real
			// entry's type_url names it directly.
			b.observeDescriptor(reservedStampedCarrierEntryName, obs.StampedCarrierTypeURL, obs.StampedCarrierRoot)
		}
	}
}

// reservedStampedCarrierEntryName is the pseudo-entryname the stamped
// carrier type is filed under in EntrynameToTypeURL.
const reservedStampedCarrierEntryName = "_protobag.StampedMessage"

func (b *Builder) observeDescriptor(entryName, typeURL string, root descriptor.File) {
	if typeURL == "" {
		return
	}
	if entryName != "" {
		b.index.DescriptorPoolData.EntrynameToTypeURL[entryName] = typeURL
	}
	if _, ok := b.index.DescriptorPoolData.TypeURLToDescriptor[typeURL]; ok {
		// Already indexed; don't recompute.
		return
	}
	if root.Name == "" {
		return
	}
	lookup := b.descriptorLookup
	if lookup == nil {
		lookup = func(string) (descriptor.File, bool) { return descriptor.File{}, false }
	}
	b.index.DescriptorPoolData.TypeURLToDescriptor[typeURL] = descriptor.Closure(root, lookup)
}

// Complete drains the builder into a final Index, sorting
// TimeOrderedEntries by the spec.md §3.2 total order. b must not be used
// afterward; a second call panics, mirroring upspin session types that
// document "must be called only once".
func (b *Builder) Complete() Index {
	if b.consumed {
		panic("bagindex: Complete called twice on the same Builder")
	}
	b.consumed = true

	idx := b.index
	if b.doTimeseriesIndexing {
		entries := b.pending
		sort.Slice(entries, func(i, j int) bool { return entries[i].Less(entries[j]) })
		idx.TimeOrderedEntries = entries
	}
	return idx
}
