package main

import (
	"context"
	"flag"
	"fmt"
	"path/filepath"
	"strings"

	"protobag.io/archive"
	"protobag.io/errors"
	"protobag.io/protobag"
)

func (s *State) read(args ...string) {
	const help = `
Read extracts entries from a protobag archive to local files in -out (or
prints a one-line summary per entry to stdout if -out is unset).

E.g. protobag read -topics /cam/front,/cam/rear -out ./frames bag.tar
`
	fs := flag.NewFlagSet("read", flag.ExitOnError)
	out := fs.String("out", "", "directory to write extracted entries into (default: print a summary instead)")
	topics := fs.String("topics", "", "comma-separated list of topics to include (default: all)")
	raw := fs.Bool("raw", false, "treat every selected entry as raw bytes, skipping envelope decoding")
	s.ParseFlags(fs, args, help, "read [-topics=a,b] [-out=dir] bagpath [entryname...]")

	if fs.NArg() < 1 {
		fs.Usage()
	}
	bagPath := fs.Arg(0)
	names := fs.Args()[1:]

	sel := protobag.SelectAllEntries(*raw)
	switch {
	case len(names) > 0:
		sel = protobag.SelectEntrynames(names, false, *raw)
	case *topics != "":
		sel = protobag.SelectWindow(strings.Split(*topics, ","), nil, nil, nil)
	}

	ctx := context.Background()
	r, err := protobag.CreateReadSession(ctx, protobag.ReadSpec{
		ArchiveSpec:           archive.Spec{Mode: archive.ModeRead, Path: bagPath},
		Selection:             sel,
		UnpackStampedMessages: true,
	})
	if err != nil {
		s.Exit(err)
	}

	for {
		entry, err := r.Next(ctx)
		if errors.KindOf(err) == errors.EndOfSequence {
			break
		}
		if err != nil {
			s.Exit(err)
		}

		if *out == "" {
			printEntrySummary(s, *entry)
			continue
		}
		s.MkdirAllLocal(*out)
		f := s.CreateLocal(filepath.Join(*out, sanitizeEntryName(entry.EntryName)))
		if _, err := f.Write(entry.Payload.Value); err != nil {
			s.Exit(err)
		}
		f.Close()
	}
}

func printEntrySummary(s *State, e protobag.Entry) {
	if e.Context != nil {
		fmt.Fprintf(s.Stdout, "%s\ttopic=%s\ttime=%s\ttype=%s\t%d bytes\n",
			e.EntryName, e.Context.Topic, e.Context.Timestamp, e.Context.InnerTypeURL, len(e.Payload.Value))
		return
	}
	fmt.Fprintf(s.Stdout, "%s\t%d bytes\n", e.EntryName, len(e.Payload.Value))
}

// sanitizeEntryName turns an archive entry-name (which may itself contain
// path separators, e.g. a timeseries topic prefix) into a flat local file
// name by replacing separators with underscores.
func sanitizeEntryName(name string) string {
	return strings.ReplaceAll(strings.TrimPrefix(name, "/"), "/", "_")
}
