package cli

import (
	"context"
	stderrors "errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	coreapp "pubscan/internal/core/app"
	"pubscan/internal/core/config"
	"pubscan/internal/core/errors"
	"pubscan/internal/engine/resolver"
	"pubscan/internal/shared/observability"
	"pubscan/internal/ui/report"
)

const (
	exitOK    = 0
	exitFatal = 1
	exitUsage = 2
)

// usageError marks failures caused by how the command was invoked.
type usageError struct{ msg string }

func (e usageError) Error() string { return e.msg }

func Run(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return run(ctx, args, os.Stdout, os.Stderr)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, err := parseOptions(args, stderr)
	if err != nil {
		if stderrors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}

	if opts.version {
		fmt.Fprintf(stdout, "pubscan v%s\n", versionString)
		return exitOK
	}

	slog.SetDefault(observability.NewLogger(stderr, observability.LevelForVerbosity(int(opts.verbosity))))

	if err := execute(ctx, opts, stdout); err != nil {
		var uerr usageError
		if stderrors.As(err, &uerr) {
			fmt.Fprintf(stderr, "pubscan: %v\n", err)
			return exitUsage
		}
		slog.Error("analysis failed", "error", err)
		return exitFatal
	}
	return exitOK
}

func execute(ctx context.Context, opts cliOptions, stdout io.Writer) error {
	if len(opts.args) != 1 {
		return usageError{msg: "expected exactly one target path"}
	}
	target := opts.args[0]
	format := strings.ToLower(strings.TrimSpace(opts.outputFormat))
	if format != report.FormatText && format != report.FormatJSON {
		return usageError{msg: fmt.Sprintf("unsupported output format %q (want text or json)", opts.outputFormat)}
	}

	if _, err := os.Stat(target); err != nil {
		return errors.AddContext(errors.Wrap(err, errors.CodeNotFound, "target path does not exist"), errors.CtxPath, target)
	}

	cfg, cfgPath, err := loadConfig(opts, target)
	if err != nil {
		return err
	}
	slog.Debug("configuration", "path", cfgPath, "settings", cfg.String())

	shutdown, err := observability.InitTracing(ctx, cfg.Telemetry.OTLPEndpoint)
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(flushCtx); err != nil {
			slog.Warn("failed to flush traces", "error", err)
		}
	}()

	a, err := coreapp.New(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	renderOpts := report.Options{Format: cfg.Analysis.OutputFormat, Short: cfg.Analysis.Short}
	emit := func(out *coreapp.Outcome) error {
		return report.Render(stdout, report.Report{
			Target:  target,
			Symbols: out.Result.Symbols,
			Changes: out.Changes,
		}, renderOpts)
	}

	if opts.watch {
		return a.Watch(ctx, target, opts.projectRoot, cfgPath, emit)
	}

	out, err := a.Analyze(ctx, target, opts.projectRoot)
	if err != nil {
		return err
	}
	return emit(out)
}

// loadConfig reads the explicit config file, or the one found in the
// project root, and layers command-line flags over it.
func loadConfig(opts cliOptions, target string) (*config.Config, string, error) {
	root := opts.projectRoot
	if root == "" {
		root = resolver.DetectProjectRoot(target)
	}

	path := opts.configPath
	if path == "" {
		path = config.Find(root)
	}

	cfg := config.Default()
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, "", err
		}
		cfg = loaded
		if !filepath.IsAbs(cfg.History.Path) {
			cfg.History.Path = filepath.Join(filepath.Dir(path), cfg.History.Path)
		}
	}

	applyFlagOverrides(cfg, opts)
	if err := config.Validate(cfg); err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func applyFlagOverrides(cfg *config.Config, opts cliOptions) {
	if opts.isSet("output-format", "o") {
		cfg.Analysis.OutputFormat = strings.ToLower(strings.TrimSpace(opts.outputFormat))
	}
	if opts.short {
		cfg.Analysis.Short = true
	}
	if opts.noParallel {
		parallel := false
		cfg.Analysis.Parallel = &parallel
	}
	if opts.isSet("workers") {
		cfg.Analysis.Workers = opts.workers
	}
	if opts.includeTests {
		cfg.Discovery.IncludeTests = true
	}
	if opts.historyPath != "" {
		cfg.History.Enabled = true
		cfg.History.Path = opts.historyPath
	}
	if opts.isSet("debounce") {
		cfg.Watch.Debounce = opts.debounce
	}
	if opts.metricsFile != "" {
		cfg.Telemetry.MetricsFile = opts.metricsFile
	}
	if opts.otlpEndpoint != "" {
		cfg.Telemetry.OTLPEndpoint = opts.otlpEndpoint
	}
}
