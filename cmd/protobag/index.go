package main

import (
	"context"
	"flag"
	"fmt"
	"sort"

	"protobag.io/bagindex"
	"protobag.io/protobag"
)

func (s *State) index(args ...string) {
	const help = `
Index prints the latest bag index of a protobag archive: its time
bounds, per-topic message counts, and protobag version.

E.g. protobag index bag.tar
`
	fs := flag.NewFlagSet("index", flag.ExitOnError)
	s.ParseFlags(fs, args, help, "index bagpath")
	if fs.NArg() != 1 {
		fs.Usage()
	}

	idx, err := indexOf(fs.Arg(0))
	if err != nil {
		s.Exit(err)
	}

	fmt.Fprintf(s.Stdout, "protobag_version: %s\n", idx.ProtobagVersion)
	fmt.Fprintf(s.Stdout, "start: %s\n", idx.Start)
	fmt.Fprintf(s.Stdout, "end:   %s\n", idx.End)
	fmt.Fprintf(s.Stdout, "entries: %d\n", len(idx.TimeOrderedEntries))

	topics := make([]string, 0, len(idx.TopicToStats))
	for t := range idx.TopicToStats {
		topics = append(topics, t)
	}
	sort.Strings(topics)
	fmt.Fprintf(s.Stdout, "topics:\n")
	for _, t := range topics {
		fmt.Fprintf(s.Stdout, "  %s\t%d messages\n", t, idx.TopicToStats[t].NMessages)
	}
}

// indexOf opens bagPath read-only and returns its latest bag index, for
// the index subcommand.
func indexOf(bagPath string) (bagindex.Index, error) {
	return protobag.IndexOf(context.Background(), bagPath)
}
