package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"pubscan/internal/core/errors"
)

// FileNames are the config files looked up in the project root, in order.
var FileNames = []string{"pubscan.toml", "pubscan.yaml", "pubscan.yml"}

type Config struct {
	Version   int       `toml:"version" yaml:"version"`
	Analysis  Analysis  `toml:"analysis" yaml:"analysis"`
	Discovery Discovery `toml:"discovery" yaml:"discovery"`
	History   History   `toml:"history" yaml:"history"`
	Watch     Watch     `toml:"watch" yaml:"watch"`
	Telemetry Telemetry `toml:"telemetry" yaml:"telemetry"`
}

type Analysis struct {
	Parallel     *bool  `toml:"parallel" yaml:"parallel"`
	Workers      int    `toml:"workers" yaml:"workers"`
	OutputFormat string `toml:"output_format" yaml:"output_format"`
	Short        bool   `toml:"short" yaml:"short"`
}

type Discovery struct {
	Extensions   []string `toml:"extensions" yaml:"extensions"`
	IncludeTests bool     `toml:"include_tests" yaml:"include_tests"`
	Exclude      Exclude  `toml:"exclude" yaml:"exclude"`
}

type Exclude struct {
	Dirs  []string `toml:"dirs" yaml:"dirs"`
	Files []string `toml:"files" yaml:"files"`
}

type History struct {
	Enabled bool   `toml:"enabled" yaml:"enabled"`
	Path    string `toml:"path" yaml:"path"`
}

type Watch struct {
	Debounce time.Duration `toml:"debounce" yaml:"debounce"`
}

type Telemetry struct {
	OTLPEndpoint string `toml:"otlp_endpoint" yaml:"otlp_endpoint"`
	MetricsFile  string `toml:"metrics_file" yaml:"metrics_file"`
}

// IsParallel reports whether files are scanned concurrently. Unset means yes.
func (a Analysis) IsParallel() bool {
	if a.Parallel == nil {
		return true
	}
	return *a.Parallel
}

// WorkerCount resolves a zero worker count to the number of CPUs.
func (a Analysis) WorkerCount() int {
	if a.Workers <= 0 {
		return runtime.NumCPU()
	}
	return a.Workers
}

// Default returns the configuration used when no file is present. Env
// overrides still apply.
func Default() *Config {
	cfg := &Config{}
	ApplyEnvOverrides(cfg)
	applyDefaults(cfg)
	return cfg
}

// Load reads a TOML or YAML config file, chosen by extension, then applies
// defaults and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.AddContext(errors.Wrap(err, errors.CodeIO, "read config"), errors.CtxPath, path)
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, errors.AddContext(errors.Wrap(err, errors.CodeValidationError, "decode yaml config"), errors.CtxPath, path)
		}
	default:
		if _, err := toml.Decode(string(data), &cfg); err != nil {
			return nil, errors.AddContext(errors.Wrap(err, errors.CodeValidationError, "decode toml config"), errors.CtxPath, path)
		}
	}

	ApplyEnvOverrides(&cfg)
	applyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, errors.AddContext(err, errors.CtxPath, path)
	}
	return &cfg, nil
}

// Find returns the first config file present in dir, or "".
func Find(dir string) string {
	for _, name := range FileNames {
		candidate := filepath.Join(dir, name)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
	}
	return ""
}

var defaultExcludeDirs = []string{
	".git", ".hg", "__pycache__", ".venv", "venv", ".tox", ".nox",
	".mypy_cache", ".pytest_cache", ".ruff_cache", "node_modules",
	"build", "dist", "*.egg-info",
}

func applyDefaults(cfg *Config) {
	if cfg.Version == 0 {
		cfg.Version = 1
	}

	if strings.TrimSpace(cfg.Analysis.OutputFormat) == "" {
		cfg.Analysis.OutputFormat = "text"
	}
	cfg.Analysis.OutputFormat = strings.ToLower(strings.TrimSpace(cfg.Analysis.OutputFormat))

	if len(cfg.Discovery.Extensions) == 0 {
		cfg.Discovery.Extensions = []string{".py", ".pyi"}
	}
	if cfg.Discovery.Exclude.Dirs == nil {
		cfg.Discovery.Exclude.Dirs = append([]string(nil), defaultExcludeDirs...)
	}

	if strings.TrimSpace(cfg.History.Path) == "" {
		cfg.History.Path = ".pubscan/history.db"
	}

	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = 500 * time.Millisecond
	}
}

func (c *Config) String() string {
	return fmt.Sprintf("version=%d format=%s parallel=%t workers=%d include_tests=%t history=%t",
		c.Version, c.Analysis.OutputFormat, c.Analysis.IsParallel(), c.Analysis.WorkerCount(),
		c.Discovery.IncludeTests, c.History.Enabled)
}
