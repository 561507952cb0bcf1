// Package cli wires flag parsing, configuration loading and the runtime
// entrypoint for the facet binary.
package cli

import (
	"flag"
	"fmt"
	"io"
)

const defaultConfigPath = "./data/config/facet.toml"

type cliOptions struct {
	configPath     string
	once           bool
	ui             bool
	class          string
	reportMarkdown bool
	formats        string
	history        bool
	since          string
	historyWindow  string
	historyTSV     string
	historyJSON    string
	verbose        bool
	version        bool
	args           []string
}

func parseOptions(args []string, stderr io.Writer) (cliOptions, error) {
	var opts cliOptions

	fs := flag.NewFlagSet("facet", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(&opts.configPath, "config", "", fmt.Sprintf("path to config file (default %s)", defaultConfigPath))
	fs.BoolVar(&opts.once, "once", false, "run a single scan and exit instead of watching")
	fs.BoolVar(&opts.ui, "ui", false, "run the interactive terminal UI")
	fs.StringVar(&opts.class, "class", "", "print the projection details for one qualified class name and exit")
	fs.BoolVar(&opts.reportMarkdown, "report", false, "write the markdown report and exit")
	fs.StringVar(&opts.formats, "formats", "", "comma-separated output formats to generate (tsv, markdown, stubs)")
	fs.BoolVar(&opts.history, "history", false, "record a projection snapshot and print the trend")
	fs.StringVar(&opts.since, "since", "", "trend window start (RFC3339 or YYYY-MM-DD)")
	fs.StringVar(&opts.historyWindow, "history-window", "24h", "trend aggregation window (Go duration)")
	fs.StringVar(&opts.historyTSV, "history-tsv", "", "write the trend report as TSV to this path")
	fs.StringVar(&opts.historyJSON, "history-json", "", "write the trend report as JSON to this path")
	fs.BoolVar(&opts.verbose, "verbose", false, "enable debug logging")
	fs.BoolVar(&opts.version, "version", false, "print the version and exit")

	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	opts.args = fs.Args()
	return opts, nil
}
