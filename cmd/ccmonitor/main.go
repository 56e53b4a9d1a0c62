// Package main provides the ccmonitor CLI.
//
// ccmonitor aggregates Claude Code usage logs into hourly cost/token
// buckets and tracks the trailing 5-hour spend against a configurable
// limit, either as a one-shot report or a live watch loop.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"
)

// version is set during build time.
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run executes the main application logic.
func run() error {
	configPath := flag.String("config", "", "path to configuration file")
	showVersion := flag.Bool("version", false, "show version information")

	flag.Parse()

	if *showVersion {
		fmt.Printf("ccmonitor %s\n", version)
		return nil
	}

	args := flag.Args()
	if len(args) == 0 {
		return showUsage()
	}

	switch command := args[0]; command {
	case "report":
		return runReportCommand(*configPath, args[1:])
	case "monitor":
		return runMonitorCommand(*configPath, args[1:])
	case "reset":
		return runResetCommand(*configPath)
	case "help":
		return showUsage()
	default:
		return fmt.Errorf("unknown command: %s", command)
	}
}

// queryFlags are the flags shared by report and monitor.
type queryFlags struct {
	since  string
	until  string
	tail   int
	full   bool
	format string
}

// register adds the shared query flags to a flag set.
func (q *queryFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&q.since, "since", "", "inclusive lower hour bound (e.g. \"2024-01-15 10:00\")")
	fs.StringVar(&q.until, "until", "", "inclusive upper hour bound")
	fs.IntVar(&q.tail, "tail", 0, "show only the most recent N rows")
	fs.BoolVar(&q.full, "full", false, "zero-fill missing hours across the trailing span")
	fs.StringVar(&q.format, "format", "", "output format (table, simple, json)")
}

// runReportCommand runs the hourly report command.
func runReportCommand(configPath string, args []string) error {
	fs := flag.NewFlagSet("report", flag.ExitOnError)
	var query queryFlags
	query.register(fs)

	if err := fs.Parse(args); err != nil {
		return err
	}

	cmd := &reportCommand{
		configPath: configPath,
		query:      query,
	}
	return cmd.Execute()
}

// runMonitorCommand runs the rolling-window monitor command.
func runMonitorCommand(configPath string, args []string) error {
	fs := flag.NewFlagSet("monitor", flag.ExitOnError)
	var query queryFlags
	query.register(fs)
	costLimit := fs.Float64("cost-limit", 0, "rolling 5h spend limit in USD (default from config)")
	watch := fs.Bool("watch", false, "keep running, refreshing on an interval")
	interval := fs.Duration("interval", 0, "watch refresh interval (minimum 5s)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	cmd := &monitorCommand{
		configPath: configPath,
		query:      query,
		costLimit:  *costLimit,
		watch:      *watch,
		interval:   *interval,
	}
	return cmd.Execute()
}

// runResetCommand clears the persisted aggregation cache.
func runResetCommand(configPath string) error {
	cmd := &resetCommand{configPath: configPath}
	return cmd.Execute()
}

// showUsage prints command help.
func showUsage() error {
	fmt.Printf(`ccmonitor %s - Claude Code usage and cost monitor

Usage:
  ccmonitor [flags] <command> [command flags]

Commands:
  report    Hourly token/cost report
  monitor   Trailing 5-hour spend vs. cost limit
  reset     Delete the persisted aggregation cache
  help      Show this help

Global flags:
  -config string   Path to configuration file
  -version         Show version information

Report/monitor flags:
  -since string    Inclusive lower hour bound (e.g. "2024-01-15 10:00")
  -until string    Inclusive upper hour bound
  -tail int        Show only the most recent N rows
  -full            Zero-fill missing hours across the trailing span
  -format string   Output format: table, simple, json

Monitor flags:
  -cost-limit float  Rolling 5h spend limit in USD
  -watch             Keep running, refreshing on an interval
  -interval duration Watch refresh interval (minimum 5s)

Examples:
  ccmonitor report -since "2024-01-15" -tail 12
  ccmonitor monitor -cost-limit 10 -watch -interval 10s
`, version)
	return nil
}

// parseInterval applies the configured default and enforces nothing;
// interval validation belongs to the scheduler.
func parseInterval(flagValue, configured time.Duration) time.Duration {
	if flagValue > 0 {
		return flagValue
	}
	return configured
}
