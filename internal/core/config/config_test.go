// # internal/core/config/config_test.go
package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"pubscan/internal/core/errors"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, "pubscan.toml", `
version = 1

[analysis]
parallel = false
workers = 4
output_format = "JSON"
short = true

[discovery]
extensions = [".py"]
include_tests = true

[discovery.exclude]
dirs = [".git", "vendor*"]
files = ["*_pb2.py"]

[history]
enabled = true
path = "runs.db"

[watch]
debounce = "1s"

[telemetry]
metrics_file = "metrics.prom"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Analysis.IsParallel() {
		t.Error("expected parallel=false")
	}
	if cfg.Analysis.WorkerCount() != 4 {
		t.Errorf("expected 4 workers, got %d", cfg.Analysis.WorkerCount())
	}
	if cfg.Analysis.OutputFormat != "json" {
		t.Errorf("expected output format to be normalized to json, got %q", cfg.Analysis.OutputFormat)
	}
	if !cfg.Analysis.Short || !cfg.Discovery.IncludeTests || !cfg.History.Enabled {
		t.Error("expected boolean flags to decode as true")
	}
	if len(cfg.Discovery.Exclude.Dirs) != 2 || cfg.Discovery.Exclude.Dirs[1] != "vendor*" {
		t.Errorf("unexpected exclude dirs: %v", cfg.Discovery.Exclude.Dirs)
	}
	if cfg.History.Path != "runs.db" {
		t.Errorf("expected history path runs.db, got %s", cfg.History.Path)
	}
	if cfg.Watch.Debounce != time.Second {
		t.Errorf("expected 1s debounce, got %v", cfg.Watch.Debounce)
	}
	if cfg.Telemetry.MetricsFile != "metrics.prom" {
		t.Errorf("expected metrics file, got %q", cfg.Telemetry.MetricsFile)
	}
}

func TestLoadYAML(t *testing.T) {
	path := writeConfig(t, "pubscan.yaml", `
analysis:
  workers: 2
discovery:
  exclude:
    files: ["conftest.py"]
watch:
  debounce: 250ms
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Analysis.Workers != 2 {
		t.Errorf("expected 2 workers, got %d", cfg.Analysis.Workers)
	}
	if len(cfg.Discovery.Exclude.Files) != 1 {
		t.Errorf("expected one file exclude, got %v", cfg.Discovery.Exclude.Files)
	}
	if cfg.Watch.Debounce != 250*time.Millisecond {
		t.Errorf("expected 250ms debounce, got %v", cfg.Watch.Debounce)
	}
	if !cfg.Analysis.IsParallel() {
		t.Error("expected parallel by default")
	}
}

func TestDefaults(t *testing.T) {
	cfg := Default()
	if cfg.Version != 1 {
		t.Errorf("expected version 1, got %d", cfg.Version)
	}
	if cfg.Analysis.OutputFormat != "text" {
		t.Errorf("expected text output, got %q", cfg.Analysis.OutputFormat)
	}
	if cfg.Watch.Debounce != 500*time.Millisecond {
		t.Errorf("expected default debounce 500ms, got %v", cfg.Watch.Debounce)
	}
	if len(cfg.Discovery.Extensions) != 2 {
		t.Errorf("expected .py and .pyi, got %v", cfg.Discovery.Extensions)
	}
	found := false
	for _, d := range cfg.Discovery.Exclude.Dirs {
		if d == "__pycache__" {
			found = true
		}
	}
	if !found {
		t.Error("expected __pycache__ in default excluded dirs")
	}
	if cfg.Analysis.WorkerCount() < 1 {
		t.Error("expected at least one worker")
	}
}

func TestLoadValidation(t *testing.T) {
	cases := []struct {
		name    string
		content string
		want    string
	}{
		{name: "Version", content: "version = 3\n", want: "unsupported config version"},
		{name: "Format", content: "[analysis]\noutput_format = \"xml\"\n", want: "analysis.output_format"},
		{name: "Workers", content: "[analysis]\nworkers = -1\n", want: "analysis.workers"},
		{name: "Extension", content: "[discovery]\nextensions = [\"py\"]\n", want: "discovery.extensions[0]"},
		{name: "Glob", content: "[discovery.exclude]\ndirs = [\"[\"]\n", want: "discovery.exclude.dirs[0]"},
		{name: "Debounce", content: "[watch]\ndebounce = \"-1s\"\n", want: "watch.debounce"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, "pubscan.toml", tc.content))
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !errors.IsCode(err, errors.CodeValidationError) {
				t.Errorf("expected validation code, got %v", err)
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("expected error to mention %q, got %v", tc.want, err)
			}
		})
	}
}

func TestLoadError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !errors.IsCode(err, errors.CodeIO) {
		t.Errorf("expected io error, got %v", err)
	}

	_, err = Load(writeConfig(t, "pubscan.toml", "this is = = not toml"))
	if !errors.IsCode(err, errors.CodeValidationError) {
		t.Errorf("expected decode failure to be a validation error, got %v", err)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("PUBSCAN_ANALYSIS_WORKERS", "7")
	t.Setenv("PUBSCAN_ANALYSIS_PARALLEL", "false")
	t.Setenv("PUBSCAN_WATCH_DEBOUNCE", "2s")
	t.Setenv("PUBSCAN_HISTORY_ENABLED", "not-a-bool")

	cfg, err := Load(writeConfig(t, "pubscan.toml", "[analysis]\nworkers = 3\n"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Analysis.Workers != 7 {
		t.Errorf("expected env to override workers, got %d", cfg.Analysis.Workers)
	}
	if cfg.Analysis.IsParallel() {
		t.Error("expected env to disable parallel")
	}
	if cfg.Watch.Debounce != 2*time.Second {
		t.Errorf("expected 2s debounce, got %v", cfg.Watch.Debounce)
	}
	if cfg.History.Enabled {
		t.Error("invalid bool override must be ignored")
	}
}

func TestFind(t *testing.T) {
	dir := t.TempDir()
	if got := Find(dir); got != "" {
		t.Fatalf("expected no config, got %s", got)
	}
	yml := filepath.Join(dir, "pubscan.yml")
	if err := os.WriteFile(yml, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if got := Find(dir); got != yml {
		t.Fatalf("expected %s, got %s", yml, got)
	}
	toml := filepath.Join(dir, "pubscan.toml")
	if err := os.WriteFile(toml, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if got := Find(dir); got != toml {
		t.Fatalf("expected toml to take precedence, got %s", got)
	}
}

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	path := writeConfig(t, "pubscan.toml", "[analysis]\nworkers = 1\n")

	reloaded := make(chan *Config, 4)
	w := NewWatcher(path, func(cfg *Config) { reloaded <- cfg })
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if err := os.WriteFile(path, []byte("[analysis]\nworkers = 9\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case cfg := <-reloaded:
		if cfg.Analysis.Workers != 9 {
			t.Errorf("expected reloaded workers=9, got %d", cfg.Analysis.Workers)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for config reload")
	}
}
