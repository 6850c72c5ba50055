// Command meter-trace is a tool for viewing and analyzing meter resolution
// trace files.
//
// Trace files are written by meter-discover when run with -trace-file.
//
// Usage:
//
//	meter-trace <command> [flags] <file.mtrace>
//
// Commands:
//
//	view     View trace file in human-readable format
//	export   Export trace file to JSONL or CSV format
//	filter   Filter trace file and write to new file
//	stats    Show statistics about the trace file
//
// Examples:
//
//	# View all events
//	meter-trace view resolve.mtrace
//
//	# View only discovery captures
//	meter-trace view -stage discovery -category capture resolve.mtrace
//
//	# Export one session to JSONL
//	meter-trace export -session 3f2a9c1e resolve.mtrace
//
//	# Keep only errors
//	meter-trace filter -category error -o errors.mtrace resolve.mtrace
//
//	# Show statistics
//	meter-trace stats resolve.mtrace
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/betkh/itron2mqtt2grafana/cmd/meter-trace/commands"
)

const usage = `meter-trace - Meter Resolution Trace Analyzer

Usage:
  meter-trace <command> [flags] <file.mtrace>

Commands:
  view     View trace file in human-readable format
  export   Export trace file to JSONL or CSV format
  filter   Filter trace file and write to new file
  stats    Show statistics about the trace file

Use "meter-trace <command> -help" for more information about a command.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "view":
		runView(args)
	case "export":
		runExport(args)
	case "filter":
		runFilter(args)
	case "stats":
		runStats(args)
	case "-h", "-help", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}
}

// viewFlags registers the event filter flags shared by view and export.
func viewFlags(fs *flag.FlagSet) func() commands.ViewFilter {
	session := fs.String("session", "", "Filter by session ID (prefix)")
	stage := fs.String("stage", "", "Filter by stage (credentials, discovery, target)")
	category := fs.String("category", "", "Filter by category (state, capture, result, error)")

	return func() commands.ViewFilter {
		filter := commands.ViewFilter{SessionID: *session}
		if *stage != "" {
			s, err := commands.ParseStageFlag(*stage)
			if err != nil {
				fatal(err)
			}
			filter.Stage = &s
		}
		if *category != "" {
			c, err := commands.ParseCategoryFlag(*category)
			if err != nil {
				fatal(err)
			}
			filter.Category = &c
		}
		return filter
	}
}

func runView(args []string) {
	fs := flag.NewFlagSet("view", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `meter-trace view - View trace file in human-readable format

Usage:
  meter-trace view [flags] <file.mtrace>

Flags:
`)
		fs.PrintDefaults()
	}
	filter := viewFlags(fs)

	path := parsePath(fs, args)

	if err := commands.RunView(path, filter(), os.Stdout); err != nil {
		fatal(err)
	}
}

func runExport(args []string) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `meter-trace export - Export trace file to JSONL or CSV format

Usage:
  meter-trace export [flags] <file.mtrace>

Flags:
`)
		fs.PrintDefaults()
	}
	filter := viewFlags(fs)
	format := fs.String("format", "jsonl", "Output format (jsonl, csv)")
	output := fs.String("o", "", "Output file (default: stdout)")

	path := parsePath(fs, args)

	if err := commands.RunExport(path, *format, *output, filter()); err != nil {
		fatal(err)
	}
}

func runFilter(args []string) {
	fs := flag.NewFlagSet("filter", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `meter-trace filter - Filter trace file and write to new file

Usage:
  meter-trace filter [flags] <file.mtrace>

Flags:
`)
		fs.PrintDefaults()
	}

	output := fs.String("o", "", "Output file (required)")
	session := fs.String("session", "", "Filter by session ID (prefix)")
	timeStart := fs.String("time-start", "", "Filter by start time (RFC3339)")
	timeEnd := fs.String("time-end", "", "Filter by end time (RFC3339)")
	stage := fs.String("stage", "", "Filter by stage (credentials, discovery, target)")
	category := fs.String("category", "", "Filter by category (state, capture, result, error)")

	path := parsePath(fs, args)

	if *output == "" {
		fmt.Fprintln(os.Stderr, "Error: output file (-o) required")
		fs.Usage()
		os.Exit(1)
	}

	n, err := commands.RunFilter(path, commands.FilterOptions{
		Output:    *output,
		SessionID: *session,
		TimeStart: *timeStart,
		TimeEnd:   *timeEnd,
		Stage:     *stage,
		Category:  *category,
	})
	if err != nil {
		fatal(err)
	}
	fmt.Printf("Filtered %d events to %s\n", n, *output)
}

func runStats(args []string) {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `meter-trace stats - Show statistics about the trace file

Usage:
  meter-trace stats <file.mtrace>

`)
	}

	path := parsePath(fs, args)

	if err := commands.RunStats(path, os.Stdout); err != nil {
		fatal(err)
	}
}

// parsePath parses flags and returns the single positional trace path.
func parsePath(fs *flag.FlagSet, args []string) string {
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: trace file path required")
		fs.Usage()
		os.Exit(1)
	}
	return fs.Arg(0)
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
