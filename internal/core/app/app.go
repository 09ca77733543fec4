package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"pubscan/internal/core/config"
	"pubscan/internal/core/errors"
	"pubscan/internal/core/ports"
	"pubscan/internal/data/history"
	"pubscan/internal/engine/api"
	"pubscan/internal/engine/discovery"
	"pubscan/internal/engine/parser"
	"pubscan/internal/engine/resolver"
	"pubscan/internal/shared/observability"
	"pubscan/internal/shared/util"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Dependencies lets callers replace the collaborators New would build.
// Nil fields fall back to the defaults derived from the config.
type Dependencies struct {
	Parser     ports.SourceParser
	Discoverer ports.FileDiscoverer
	History    ports.HistoryStore
}

// App wires discovery, the analysis engine and history for one process.
type App struct {
	mu      sync.RWMutex
	config  *config.Config
	parser  ports.SourceParser
	files   ports.FileDiscoverer
	history ports.HistoryStore

	ownsHistory bool
}

// Outcome is one completed analysis as seen by the CLI.
type Outcome struct {
	Target      string
	ProjectRoot string
	Result      *api.Result
	RunID       string
	Changes     *history.Diff
	Duration    time.Duration
}

func New(cfg *config.Config) (*App, error) {
	return NewWithDependencies(cfg, Dependencies{})
}

func NewWithDependencies(cfg *config.Config, deps Dependencies) (*App, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	a := &App{config: cfg, parser: deps.Parser, files: deps.Discoverer, history: deps.History}

	if a.parser == nil {
		a.parser = parser.New()
	}
	if a.files == nil {
		walker, err := newWalker(cfg)
		if err != nil {
			return nil, err
		}
		a.files = walker
	}
	if a.history == nil && cfg.History.Enabled {
		store, err := history.Open(cfg.History.Path)
		if err != nil {
			return nil, errors.AddContext(errors.Wrap(err, errors.CodeIO, "open history store"), errors.CtxPath, cfg.History.Path)
		}
		a.history = store
		a.ownsHistory = true
	}
	return a, nil
}

func newWalker(cfg *config.Config) (*discovery.Walker, error) {
	walker, err := discovery.New(discovery.Options{
		Extensions:   cfg.Discovery.Extensions,
		ExcludeDirs:  cfg.Discovery.Exclude.Dirs,
		ExcludeFiles: cfg.Discovery.Exclude.Files,
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeValidationError, "build discovery filters")
	}
	return walker, nil
}

// Config returns the configuration currently in effect.
func (a *App) Config() *config.Config {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.config
}

// Reconfigure swaps in a reloaded config. Discovery filters are rebuilt;
// the history store stays as opened.
func (a *App) Reconfigure(cfg *config.Config) error {
	walker, err := newWalker(cfg)
	if err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.config = cfg
	if _, ok := a.files.(*discovery.Walker); ok {
		a.files = walker
	}
	return nil
}

func (a *App) discoverer() ports.FileDiscoverer {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.files
}

func (a *App) Close() error {
	if a.ownsHistory && a.history != nil {
		return a.history.Close()
	}
	return nil
}

// Analyze runs one full analysis of target. An empty root is detected
// from the target's location.
func (a *App) Analyze(ctx context.Context, target, root string) (*Outcome, error) {
	ctx, span := observability.Tracer.Start(ctx, "app.Analyze", trace.WithAttributes(attribute.String("target", target)))
	defer span.End()

	out, err := a.analyze(ctx, target, root)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(
		attribute.String("project_root", out.ProjectRoot),
		attribute.Int("api_symbols", len(out.Result.Symbols)),
	)
	return out, nil
}

func (a *App) analyze(ctx context.Context, target, root string) (*Outcome, error) {
	start := time.Now()
	cfg := a.Config()
	files := a.discoverer()

	if _, err := os.Stat(target); err != nil {
		return nil, errors.AddContext(errors.Wrap(err, errors.CodeNotFound, "target path does not exist"), errors.CtxPath, target)
	}

	root, err := resolveRoot(target, root)
	if err != nil {
		return nil, err
	}
	canonicalTarget := util.CanonicalOrRaw(target)
	if !util.HasPathPrefix(canonicalTarget, root) {
		slog.Info("target is outside the project root, analyzing its files directly", "target", canonicalTarget, "root", root)
	}
	slog.Debug("analyzing", "target", canonicalTarget, "root", root)

	project, err := files.Discover(ctx, root)
	if err != nil {
		return nil, errors.AddContext(errors.Wrap(err, errors.CodeIO, "discover project files"), errors.CtxPath, root)
	}

	analyzer := api.NewAnalyzer(a.parser, nil, api.Options{
		Parallel:     cfg.Analysis.IsParallel(),
		Workers:      cfg.Analysis.WorkerCount(),
		IsSource:     files.IsSource,
		IncludeTests: cfg.Discovery.IncludeTests,
	})
	res, err := analyzer.Analyze(ctx, api.Request{Target: target, Files: project})
	if err != nil {
		return nil, err
	}

	out := &Outcome{Target: target, ProjectRoot: root, Result: res}
	if a.history != nil {
		a.record(ctx, canonicalTarget, out)
	}
	out.Duration = time.Since(start)
	observability.AnalysisDuration.WithLabelValues("total").Observe(out.Duration.Seconds())
	if path := cfg.Telemetry.MetricsFile; path != "" {
		if err := observability.WriteMetricsFile(path); err != nil {
			slog.Warn("failed to write metrics file", "path", path, "error", err)
		}
	}

	slog.Debug("analysis complete",
		"symbols", len(res.Symbols),
		"candidates", res.Candidates,
		"target_files", res.TargetFiles,
		"external_files", res.ExternalFiles,
		"skipped", res.Skipped,
		"duration", out.Duration,
		"heap_mb", util.HeapAllocMB(),
	)
	return out, nil
}

// resolveRoot returns the canonical project root, detecting it when root
// is empty.
func resolveRoot(target, root string) (string, error) {
	if root == "" {
		root = resolver.DetectProjectRoot(target)
	} else if info, err := os.Stat(root); err != nil || !info.IsDir() {
		if err == nil {
			err = fmt.Errorf("not a directory")
		}
		return "", errors.AddContext(errors.Wrap(err, errors.CodeNotFound, "project root is not a directory"), errors.CtxPath, root)
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", errors.AddContext(errors.Wrap(err, errors.CodeIO, "resolve project root"), errors.CtxPath, root)
	}
	return util.CanonicalOrRaw(abs), nil
}
