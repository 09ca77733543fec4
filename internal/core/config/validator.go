package config

import (
	"fmt"
	"strings"

	"github.com/gobwas/glob"

	"pubscan/internal/core/errors"
)

// Validate runs every section check and returns the first failure.
func Validate(cfg *Config) error {
	checks := []func(*Config) error{
		validateVersion,
		validateAnalysis,
		validateDiscovery,
		validateHistory,
		validateWatch,
	}
	for _, check := range checks {
		if err := check(cfg); err != nil {
			return errors.Wrap(err, errors.CodeValidationError, "invalid config")
		}
	}
	return nil
}

func validateVersion(cfg *Config) error {
	if cfg.Version != 1 {
		return fmt.Errorf("unsupported config version %d; supported version is 1", cfg.Version)
	}
	return nil
}

func validateAnalysis(cfg *Config) error {
	switch cfg.Analysis.OutputFormat {
	case "text", "json":
	default:
		return fmt.Errorf("analysis.output_format must be one of: text, json")
	}
	if cfg.Analysis.Workers < 0 {
		return fmt.Errorf("analysis.workers must be >= 0, got %d", cfg.Analysis.Workers)
	}
	return nil
}

func validateDiscovery(cfg *Config) error {
	for i, ext := range cfg.Discovery.Extensions {
		if !strings.HasPrefix(ext, ".") || len(ext) < 2 {
			return fmt.Errorf("discovery.extensions[%d] must start with a dot, got %q", i, ext)
		}
	}
	for i, p := range cfg.Discovery.Exclude.Dirs {
		if _, err := glob.Compile(p); err != nil {
			return fmt.Errorf("discovery.exclude.dirs[%d] invalid pattern %q: %w", i, p, err)
		}
	}
	for i, p := range cfg.Discovery.Exclude.Files {
		if _, err := glob.Compile(p); err != nil {
			return fmt.Errorf("discovery.exclude.files[%d] invalid pattern %q: %w", i, p, err)
		}
	}
	return nil
}

func validateHistory(cfg *Config) error {
	if cfg.History.Enabled && strings.TrimSpace(cfg.History.Path) == "" {
		return fmt.Errorf("history.path must not be empty when history.enabled=true")
	}
	return nil
}

func validateWatch(cfg *Config) error {
	if cfg.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must not be negative")
	}
	return nil
}
