package main

import (
	"context"
	"flag"
	"fmt"
	"sort"

	"protobag.io/protobag"
)

func (s *State) topics(args ...string) {
	const help = `
Topics prints the topic names present in a protobag archive's latest bag
index, one per line.

E.g. protobag topics bag.tar
`
	fs := flag.NewFlagSet("topics", flag.ExitOnError)
	s.ParseFlags(fs, args, help, "topics bagpath")
	if fs.NArg() != 1 {
		fs.Usage()
	}

	topics, err := protobag.TopicsOf(context.Background(), fs.Arg(0))
	if err != nil {
		s.Exit(err)
	}
	sort.Strings(topics)
	for _, t := range topics {
		fmt.Fprintln(s.Stdout, t)
	}
}
