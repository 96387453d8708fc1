// Command autotransfer-log views and analyzes auto-transfer event logs.
//
// Event logs are written by autotransferd when started with --event-log
// or with paths.event_log set in its config file.
//
// Usage:
//
//	autotransfer-log <command> [flags] <events.cbor>
//
// Commands:
//
//	view     View events in human-readable format
//	export   Export events to JSONL or CSV
//	filter   Filter events and write them to a new file
//	stats    Show per-kind and per-room statistics
//
// Examples:
//
//	# View everything that happened to one room
//	autotransfer-log view --room R1 events.cbor
//
//	# View failed transfers only
//	autotransfer-log view --kind failed events.cbor
//
//	# Export to JSONL
//	autotransfer-log export --format jsonl events.cbor
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"

	"github.com/chatroute/autotransfer/cmd/autotransfer-log/commands"
	"github.com/chatroute/autotransfer/pkg/version"
)

const usage = `autotransfer-log - Auto-Transfer Event Log Analyzer

Usage:
  autotransfer-log <command> [flags] <events.cbor>

Commands:
  view     View events in human-readable format
  export   Export events to JSONL or CSV
  filter   Filter events and write them to a new file
  stats    Show per-kind and per-room statistics
  version  Print version

Use "autotransfer-log <command> --help" for more information about a command.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "view":
		err = runView(args)
	case "export":
		err = runExport(args)
	case "filter":
		err = runFilter(args)
	case "stats":
		err = runStats(args)
	case "version", "--version":
		version.Print(os.Stdout, "autotransfer-log")
		return
	case "-h", "-help", "--help", "help":
		fmt.Print(usage)
		return
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	if errors.Is(err, pflag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newFlagSet returns a flag set whose usage prints a command header.
func newFlagSet(name, synopsis string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "autotransfer-log %s - %s\n\nUsage:\n  autotransfer-log %s [flags] <events.cbor>\n\nFlags:\n", name, synopsis, name)
		fs.PrintDefaults()
	}
	return fs
}

// addFilterFlags registers the filter flags on fs.
func addFilterFlags(fs *pflag.FlagSet, opts *commands.FilterOptions) {
	fs.StringVar(&opts.RoomID, "room", "", "Filter by room ID")
	fs.StringVar(&opts.Kind, "kind", "", "Filter by kind (scheduled, replaced, cancelled, fired, skipped, transferred, failed, enabled, disabled, restored)")
	fs.StringVar(&opts.Source, "source", "", "Filter by source (monitor, bridge)")
	fs.StringVar(&opts.TimeStart, "time-start", "", "Filter by start time (RFC3339)")
	fs.StringVar(&opts.TimeEnd, "time-end", "", "Filter by end time (RFC3339)")
}

// parse parses args and returns the single log file argument.
func parse(fs *pflag.FlagSet, args []string) (string, error) {
	if err := fs.Parse(args); err != nil {
		return "", err
	}
	if fs.NArg() < 1 {
		fs.Usage()
		return "", errors.New("log file path required")
	}
	return fs.Arg(0), nil
}

func runView(args []string) error {
	fs := newFlagSet("view", "View events in human-readable format")
	var opts commands.FilterOptions
	addFilterFlags(fs, &opts)

	path, err := parse(fs, args)
	if err != nil {
		return err
	}
	filter, err := commands.BuildFilter(opts)
	if err != nil {
		return err
	}
	return commands.RunView(path, filter, os.Stdout)
}

func runExport(args []string) error {
	fs := newFlagSet("export", "Export events to JSONL or CSV")
	var opts commands.FilterOptions
	addFilterFlags(fs, &opts)
	format := fs.String("format", "jsonl", "Output format (jsonl, csv)")
	output := fs.StringP("output", "o", "", "Output file (default: stdout)")

	path, err := parse(fs, args)
	if err != nil {
		return err
	}
	filter, err := commands.BuildFilter(opts)
	if err != nil {
		return err
	}

	var w io.Writer = os.Stdout
	if *output != "" {
		f, err := os.Create(*output)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		w = f
	}
	return commands.RunExport(path, *format, filter, w)
}

func runFilter(args []string) error {
	fs := newFlagSet("filter", "Filter events and write them to a new file")
	var opts commands.FilterOptions
	addFilterFlags(fs, &opts)
	output := fs.StringP("output", "o", "", "Output file (required)")

	path, err := parse(fs, args)
	if err != nil {
		return err
	}
	if *output == "" {
		fs.Usage()
		return errors.New("output file (-o) required")
	}
	filter, err := commands.BuildFilter(opts)
	if err != nil {
		return err
	}

	n, err := commands.RunFilter(path, *output, filter)
	if err != nil {
		return err
	}
	fmt.Printf("Filtered %d events to %s\n", n, *output)
	return nil
}

func runStats(args []string) error {
	fs := newFlagSet("stats", "Show per-kind and per-room statistics")
	path, err := parse(fs, args)
	if err != nil {
		return err
	}
	return commands.RunStats(path, os.Stdout)
}
