// # internal/engine/api/analyzer.go
package api

import (
	"context"
	"log/slog"
	"runtime"
	"sync/atomic"
	"time"

	"pubscan/internal/core/errors"
	"pubscan/internal/engine/discovery"
	"pubscan/internal/engine/parser"
	"pubscan/internal/engine/pyast"
	"pubscan/internal/engine/resolver"
	"pubscan/internal/shared/observability"
	"pubscan/internal/shared/util"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// Parser parses one source file. Failures carrying a recoverable code
// make the file be skipped.
type Parser interface {
	ParseFile(path string) (*pyast.Module, error)
}

// ModuleNamer derives the dotted module name of a source file.
type ModuleNamer interface {
	ModuleName(path string) string
}

type Options struct {
	// Parallel scans external files on a bounded goroutine pool. Results
	// are identical either way.
	Parallel bool
	// Workers bounds the pool; zero or less means runtime.NumCPU().
	Workers int
	// IsSource selects files when walking the target. Defaults to
	// parser.IsSourcePath.
	IsSource func(path string) bool
	// IncludeTests keeps test files among the external files.
	IncludeTests bool
	// ProgressInterval throttles progress logging.
	ProgressInterval time.Duration
}

// Request is one analysis: the target as given by the user and the
// project files discovery reported.
type Request struct {
	Target string
	Files  []discovery.File
}

// Result is the outcome of Analyze.
type Result struct {
	Target        string
	Symbols       []APISymbol
	Candidates    int
	TargetFiles   int
	ExternalFiles int
	Skipped       int
	Unhandled     int
}

type Analyzer struct {
	parser  Parser
	modules ModuleNamer
	opts    Options
}

func NewAnalyzer(p Parser, modules ModuleNamer, opts Options) *Analyzer {
	if modules == nil {
		modules = resolver.NewPythonResolver()
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	if opts.ProgressInterval <= 0 {
		opts.ProgressInterval = 2 * time.Second
	}
	return &Analyzer{parser: p, modules: modules, opts: opts}
}

// Analyze computes the effective public API of req.Target. A missing
// target fails with CodeNotFound; unreadable or unparsable files are
// logged and skipped.
func (a *Analyzer) Analyze(ctx context.Context, req Request) (*Result, error) {
	ctx, span := observability.Tracer.Start(ctx, "api.Analyze", trace.WithAttributes(
		attribute.String("target", req.Target),
		attribute.Int("project_files", len(req.Files)),
		attribute.Bool("parallel", a.opts.Parallel),
	))
	defer span.End()

	res, err := a.analyze(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(
		attribute.Int("candidates", res.Candidates),
		attribute.Int("api_symbols", len(res.Symbols)),
		attribute.Int("skipped", res.Skipped),
	)
	return res, nil
}

func (a *Analyzer) analyze(ctx context.Context, req Request) (*Result, error) {
	isSource := a.opts.IsSource
	if isSource == nil {
		isSource = parser.IsSourcePath
	}
	boundary, err := ResolveBoundary(req.Target, isSource)
	if err != nil {
		return nil, err
	}

	targetFiles, external := Classify(req.Files, boundary)
	targetFiles, added := withBoundaryFiles(targetFiles, boundary)
	if added > 0 {
		slog.Debug("added target files not reported by discovery", "count", added)
	}
	if !a.opts.IncludeTests {
		external = dropTests(ctx, external)
	}

	res := &Result{Target: req.Target, Symbols: []APISymbol{}, TargetFiles: len(targetFiles), ExternalFiles: len(external)}
	slog.Debug("classified project files", "target", len(targetFiles), "external", len(external))
	if len(targetFiles) == 0 {
		slog.Info("no source files found in the target path", "target", req.Target)
		return res, nil
	}

	start := time.Now()
	candidates, targets, skipped := a.extract(ctx, targetFiles)
	observability.AnalysisDuration.WithLabelValues("extract").Observe(time.Since(start).Seconds())
	observability.CandidateSymbols.Set(float64(len(candidates)))
	res.Candidates = len(candidates)
	res.Skipped += skipped
	slog.Debug("found candidate symbols", "count", len(candidates))

	start = time.Now()
	agg := NewAggregator(candidates)
	skipped, unhandled, err := a.scanExternal(ctx, external, candidates, targets, agg)
	observability.AnalysisDuration.WithLabelValues("scan").Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}
	res.Skipped += skipped
	res.Unhandled = unhandled

	symbols, err := Assemble(candidates, agg.Snapshot())
	if err != nil {
		return nil, err
	}
	observability.PublicAPISymbols.Set(float64(len(symbols)))
	res.Symbols = symbols
	return res, nil
}

// extract parses every target file and merges their symbols in path
// order, so a name defined twice resolves to the last file.
func (a *Analyzer) extract(ctx context.Context, files []discovery.File) (Candidates, TargetNames, int) {
	_, span := observability.Tracer.Start(ctx, "api.ExtractCandidates", trace.WithAttributes(attribute.Int("files", len(files))))
	defer span.End()

	candidates := make(Candidates)
	moduleNames := make([]string, 0, len(files))
	skipped := 0
	for _, f := range files {
		mod, ok := a.parse(f.Path, "target")
		if !ok {
			skipped++
			continue
		}
		moduleName := a.modules.ModuleName(resolvedPath(f))
		moduleNames = append(moduleNames, moduleName)
		for name, sym := range ExtractSymbols(mod, f.Path, moduleName) {
			candidates[name] = sym
		}
	}
	return candidates, NewTargetNames(moduleNames...), skipped
}

func (a *Analyzer) scanExternal(ctx context.Context, files []discovery.File, candidates Candidates, targets TargetNames, agg *Aggregator) (int, int, error) {
	ctx, span := observability.Tracer.Start(ctx, "api.ScanExternal", trace.WithAttributes(
		attribute.Int("files", len(files)),
		attribute.Int("workers", a.opts.Workers),
	))
	defer span.End()

	var skipped, unhandled atomic.Int64
	progress := util.NewProgress("scanning external files", len(files), a.opts.ProgressInterval)

	scanOne := func(f discovery.File) {
		defer progress.Step()
		mod, ok := a.parse(f.Path, "external")
		if !ok {
			skipped.Add(1)
			return
		}
		s := newFileScanner(ctx, f.Path, candidates, targets, agg.Record)
		s.scan(mod)
		unhandled.Add(int64(s.unhandled))
	}

	if !a.opts.Parallel {
		for _, f := range files {
			if err := ctx.Err(); err != nil {
				return 0, 0, err
			}
			scanOne(f)
		}
		return int(skipped.Load()), int(unhandled.Load()), nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.opts.Workers)
	for _, f := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			scanOne(f)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, 0, err
	}
	return int(skipped.Load()), int(unhandled.Load()), nil
}

// parse reads and parses path, logging and counting recoverable failures.
func (a *Analyzer) parse(path, role string) (*pyast.Module, bool) {
	start := time.Now()
	mod, err := a.parser.ParseFile(path)
	observability.ParsingDuration.WithLabelValues(role).Observe(time.Since(start).Seconds())
	if err != nil {
		reason := "parse"
		if errors.IsCode(err, errors.CodeIO) {
			reason = "io"
		}
		observability.FilesSkippedTotal.WithLabelValues(reason).Inc()
		slog.Debug("skipping file", "path", path, "role", role, "error", err)
		return nil, false
	}
	observability.FilesScannedTotal.WithLabelValues(role).Inc()
	return mod, true
}

func dropTests(ctx context.Context, files []discovery.File) []discovery.File {
	out := make([]discovery.File, 0, len(files))
	for _, f := range files {
		if f.Test {
			observability.Trace(ctx, "ignoring test file", "path", f.Path)
			continue
		}
		out = append(out, f)
	}
	return out
}
