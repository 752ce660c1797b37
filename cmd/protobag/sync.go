package main

import (
	"context"
	"flag"
	"fmt"
	"strings"
	"time"

	"protobag.io/errors"
	"protobag.io/protobag"
	"protobag.io/timesync"
)

func (s *State) sync(args ...string) {
	const help = `
Sync reads stamped entries from a protobag archive and prints them as
time-aligned bundles, one line per bundle: every configured topic's
entry from within -maxslop of one another.

E.g. protobag sync -topics /cam/front,/cam/rear -maxslop 50ms bag.tar
`
	fs := flag.NewFlagSet("sync", flag.ExitOnError)
	topicsFlag := fs.String("topics", "", "comma-separated list of topics every bundle must contain (required)")
	maxSlop := fs.Duration("maxslop", 100*time.Millisecond, "maximum allowed spread between a bundle's earliest and latest timestamp")
	maxQueue := fs.Int("maxqueue", 100, "maximum number of queued entries per topic before the oldest is evicted")
	s.ParseFlags(fs, args, help, "sync -topics=a,b [-maxslop=dur] [-maxqueue=n] bagpath")

	if fs.NArg() != 1 {
		fs.Usage()
	}
	if *topicsFlag == "" {
		s.Exitf("-topics is required")
	}
	topics := strings.Split(*topicsFlag, ",")

	ctx := context.Background()
	r, err := protobag.CreateReadSession(ctx, protobag.ReadAllFromPath(fs.Arg(0)))
	if err != nil {
		s.Exit(err)
	}

	ts, err := timesync.New(r, timesync.Spec{
		Topics:       topics,
		MaxSlop:      *maxSlop,
		MaxQueueSize: *maxQueue,
	})
	if err != nil {
		s.Exit(err)
	}

	for {
		bundle, err := ts.GetNext(ctx)
		if errors.KindOf(err) == errors.EndOfSequence {
			break
		}
		if err != nil {
			s.Exit(err)
		}
		printBundle(s, bundle)
	}
}

func printBundle(s *State, b timesync.Bundle) {
	parts := make([]string, len(b))
	for i, e := range b {
		ts := ""
		if e.Context != nil {
			ts = e.Context.Timestamp.String()
		}
		parts[i] = fmt.Sprintf("%s@%s", e.EntryName, ts)
	}
	fmt.Fprintln(s.Stdout, strings.Join(parts, "\t"))
}
