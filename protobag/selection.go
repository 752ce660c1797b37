package protobag

import "protobag.io/timestamp"

// Selection is the tagged variant a ReadSession compiles into a read
// plan (spec.md §3.4). Exactly one field should be non-nil; the Select*
// constructors below enforce that. The zero value selects nothing and
// compileReadPlan rejects it as UnsupportedSelection.
type Selection struct {
	All        *SelectAll
	Entrynames *Entrynames
	Events     *Events
	Window     *Window
}

// SelectAll matches every entry in the archive's namelist.
type SelectAll struct {
	AllEntriesAreRaw bool
}

// SelectAllEntries builds a SelectAll Selection.
func SelectAllEntries(allRaw bool) Selection {
	return Selection{All: &SelectAll{AllEntriesAreRaw: allRaw}}
}

// Entrynames matches an explicit, ordered list of entry-names.
type Entrynames struct {
	Names               []string
	IgnoreMissingEntries bool
	EntriesAreRaw        bool
}

// SelectEntrynames builds an Entrynames Selection.
func SelectEntrynames(names []string, ignoreMissing, raw bool) Selection {
	return Selection{Entrynames: &Entrynames{
		Names:                names,
		IgnoreMissingEntries: ignoreMissing,
		EntriesAreRaw:        raw,
	}}
}

// Events matches by exact (topic, timestamp) coordinates, ignoring
// entry-name.
type Events struct {
	Coordinates []timestamp.TopicTime
	RequireAll  bool
}

// SelectEvents builds an Events Selection.
func SelectEvents(coords []timestamp.TopicTime, requireAll bool) Selection {
	return Selection{Events: &Events{Coordinates: coords, RequireAll: requireAll}}
}

// Window matches stamped entries by topic filter and inclusive time
// bounds. A nil Start/End means unbounded on that side.
type Window struct {
	Topics        map[string]bool
	ExcludeTopics map[string]bool
	Start, End    *timestamp.Timestamp
}

// SelectWindow builds a Window Selection.
func SelectWindow(topics, excludeTopics []string, start, end *timestamp.Timestamp) Selection {
	w := &Window{Start: start, End: end}
	if len(topics) > 0 {
		w.Topics = make(map[string]bool, len(topics))
		for _, t := range topics {
			w.Topics[t] = true
		}
	}
	if len(excludeTopics) > 0 {
		w.ExcludeTopics = make(map[string]bool, len(excludeTopics))
		for _, t := range excludeTopics {
			w.ExcludeTopics[t] = true
		}
	}
	return Selection{Window: w}
}
