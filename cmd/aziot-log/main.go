// Command aziot-log is a tool for viewing and analyzing protocol log files.
//
// Log files are created by the protocol logging infrastructure when running
// aziot-device with the -protocol-log flag.
//
// Usage:
//
//	aziot-log <command> [flags] <file.alog>
//
// Commands:
//
//	view     View log file in human-readable format
//	export   Export log file to JSON or CSV format
//	filter   Filter log file and write to new file
//	stats    Show statistics about the log file
//
// Examples:
//
//	# View all events
//	aziot-log view device.alog
//
//	# View only the provisioning milestones
//	aziot-log view --category provisioning device.alog
//
//	# View only the hub session traffic
//	aziot-log view --endpoint hub device.alog
//
//	# Export to JSONL
//	aziot-log export --format jsonl device.alog
//
//	# Filter by connection and save to new file
//	aziot-log filter --conn-id abc12345 -o filtered.alog device.alog
//
//	# Show statistics
//	aziot-log stats device.alog
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/aziot-protocol/aziot-go/cmd/aziot-log/commands"
)

const usage = `aziot-log - Protocol Log Analyzer

Usage:
  aziot-log <command> [flags] <file.alog>

Commands:
  view     View log file in human-readable format
  export   Export log file to JSON or CSV format
  filter   Filter log file and write to new file
  stats    Show statistics about the log file

Use "aziot-log <command> -help" for more information about a command.
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

func runView(args []string) {
	fs := flag.NewFlagSet("view", flag.ExitOnError)
	direction := fs.String("direction", "", "Filter by direction (in, out)")
	endpoint := fs.String("endpoint", "", "Filter by endpoint (dps, hub)")
	category := fs.String("category", "", "Filter by category (packet, state, provisioning, error)")

	path := parsePath(fs, args)

	var filter commands.ViewFilter
	if *direction != "" {
		d, err := commands.ParseDirectionFlag(*direction)
		exitOn(err)
		filter.Direction = &d
	}
	if *endpoint != "" {
		e, err := commands.ParseEndpointFlag(*endpoint)
		exitOn(err)
		filter.Endpoint = &e
	}
	if *category != "" {
		c, err := commands.ParseCategoryFlag(*category)
		exitOn(err)
		filter.Category = &c
	}

	exitOn(commands.RunView(path, filter, os.Stdout))
}

func runExport(args []string) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	format := fs.String("format", "jsonl", "Output format (jsonl, csv)")
	output := fs.String("o", "", "Output file (default stdout)")

	path := parsePath(fs, args)
	exitOn(commands.RunExport(path, *format, *output))
}

func runFilter(args []string) {
	fs := flag.NewFlagSet("filter", flag.ExitOnError)
	opts := commands.FilterOptions{}
	fs.StringVar(&opts.Output, "o", "", "Output file (required)")
	fs.StringVar(&opts.ConnID, "conn-id", "", "Filter by connection ID")
	fs.StringVar(&opts.DeviceID, "device-id", "", "Filter by device ID")
	fs.StringVar(&opts.TimeStart, "time-start", "", "Events at or after this RFC3339 time")
	fs.StringVar(&opts.TimeEnd, "time-end", "", "Events before this RFC3339 time")
	fs.StringVar(&opts.Direction, "direction", "", "Filter by direction (in, out)")
	fs.StringVar(&opts.Endpoint, "endpoint", "", "Filter by endpoint (dps, hub)")
	fs.StringVar(&opts.Category, "category", "", "Filter by category (packet, state, provisioning, error)")

	path := parsePath(fs, args)

	if opts.Output == "" {
		fmt.Fprintln(os.Stderr, "Error: output file required (-o)")
		os.Exit(1)
	}

	exitOn(commands.RunFilter(path, opts))
}

func runStats(args []string) {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	path := parsePath(fs, args)
	exitOn(commands.RunStats(path, os.Stdout))
}

// parsePath parses the flag set and returns the required log file argument.
func parsePath(fs *flag.FlagSet, args []string) string {
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: log file path required")
		os.Exit(1)
	}
	return fs.Arg(0)
}

func exitOn(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
