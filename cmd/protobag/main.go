// Command protobag is a utility for writing, reading, and inspecting
// protobag archives from the command line.
package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"protobag.io/metrics"
	"protobag.io/plog"
	"protobag.io/shutdown"
	"protobag.io/subcmd"
)

// State adds no fields of its own; it exists so protobag's subcommands
// can hang off a local type, the same embedding cmd/upspin-audit uses
// around subcmd.State.
type State struct {
	*subcmd.State
}

var commands = map[string]func(*State, ...string){
	"write":  (*State).write,
	"read":   (*State).read,
	"index":  (*State).index,
	"topics": (*State).topics,
	"sync":   (*State).sync,
}

var metricsAddr = flag.String("metrics_addr", "", "if set, serve Prometheus metrics on this address (e.g. :9090)")

func main() {
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
	}
	maybeServeMetrics(*metricsAddr)

	name := strings.ToLower(flag.Arg(0))
	fn := commands[name]
	if fn == nil {
		fmt.Fprintf(os.Stderr, "protobag: no such command %q\n", flag.Arg(0))
		usage()
	}

	s := &State{State: subcmd.NewState(name)}
	fn(s, flag.Args()[1:]...)
	os.Exit(s.ExitCode)
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage of protobag:\n")
	fmt.Fprintf(os.Stderr, "\tprotobag [globalflags] <command> [flags] args...\n")
	fmt.Fprintf(os.Stderr, "Commands:\n")
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(os.Stderr, "\t%s\n", name)
	}
	fmt.Fprintf(os.Stderr, "Global flags:\n")
	flag.PrintDefaults()
	os.Exit(2)
}

// maybeServeMetrics registers a Prometheus Saver and starts an HTTP
// handler for it, the Go rendering of cmd/upspin's GCP-backed
// enableMetrics, swapped to the Prometheus backend this module wires
// everywhere else (protobag.io/metrics).
func maybeServeMetrics(addr string) {
	if addr == "" {
		return
	}
	reg := prometheus.NewRegistry()
	metrics.RegisterSaver(metrics.NewPrometheusSaver(reg))

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			plog.Error.Printf("metrics server: %v", err)
		}
	}()
	shutdown.Handle(func() { plog.Debug.Printf("metrics server: shutting down") })
}
