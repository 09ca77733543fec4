package cli

import (
	"flag"
	"fmt"
	"io"
	"strconv"
	"time"
)

const versionString = "0.1.0"

type cliOptions struct {
	outputFormat  string
	short         bool
	projectRoot   string
	configPath    string
	noParallel    bool
	workers       int
	includeTests  bool
	historyPath   string
	watch         bool
	debounce      time.Duration
	metricsFile   string
	otlpEndpoint  string
	verbosity     verbosity
	version       bool
	args          []string
	explicitFlags map[string]bool
}

// verbosity counts repeated -v flags.
type verbosity int

func (v *verbosity) String() string { return strconv.Itoa(int(*v)) }

func (v *verbosity) Set(s string) error {
	b, err := strconv.ParseBool(s)
	if err != nil {
		return err
	}
	if b {
		*v++
	}
	return nil
}

func (v *verbosity) IsBoolFlag() bool { return true }

func newFlagSet(opts *cliOptions, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet("pubscan", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: pubscan [flags] <target>\n\nReports the symbols of a Python module or package that other files in the project import.\n\nFlags:\n")
		fs.PrintDefaults()
	}

	fs.StringVar(&opts.outputFormat, "output-format", "text", "Output format: text or json")
	fs.StringVar(&opts.outputFormat, "o", "text", "Shorthand for --output-format")
	fs.BoolVar(&opts.short, "short", false, "One line per symbol, most used first")
	fs.StringVar(&opts.projectRoot, "project-root", "", "Project root to scan for importers (default: detected from the target)")
	fs.StringVar(&opts.configPath, "config", "", "Config file (default: pubscan.toml or pubscan.yaml in the project root)")
	fs.BoolVar(&opts.noParallel, "no-parallel", false, "Scan files sequentially")
	fs.IntVar(&opts.workers, "workers", 0, "Number of scan workers (0 = number of CPUs)")
	fs.BoolVar(&opts.includeTests, "no-ignore-test-files", false, "Count usages from test files too")
	fs.StringVar(&opts.historyPath, "history", "", "Record the run in this sqlite file and report changes since the previous run")
	fs.BoolVar(&opts.watch, "watch", false, "Re-run the analysis when project files change")
	fs.DurationVar(&opts.debounce, "debounce", 0, "Quiet period before a watch re-run (default from config)")
	fs.StringVar(&opts.metricsFile, "metrics-file", "", "Write Prometheus metrics to this file after each run")
	fs.StringVar(&opts.otlpEndpoint, "otlp-endpoint", "", "Export traces to this OTLP/gRPC endpoint")
	fs.Var(&opts.verbosity, "v", "Verbose logging; repeat for trace detail")
	fs.Var(&opts.verbosity, "verbose", "Same as -v")
	fs.BoolVar(&opts.version, "version", false, "Print version and exit")
	return fs
}

// parseOptions accepts flags before and after the positional target.
func parseOptions(args []string, stderr io.Writer) (cliOptions, error) {
	var opts cliOptions
	fs := newFlagSet(&opts, stderr)

	rest := args
	for {
		if err := fs.Parse(rest); err != nil {
			return cliOptions{}, err
		}
		rest = fs.Args()
		if len(rest) == 0 {
			break
		}
		opts.args = append(opts.args, rest[0])
		rest = rest[1:]
	}

	opts.explicitFlags = make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { opts.explicitFlags[f.Name] = true })
	return opts, nil
}

func (o cliOptions) isSet(names ...string) bool {
	for _, name := range names {
		if o.explicitFlags[name] {
			return true
		}
	}
	return false
}
