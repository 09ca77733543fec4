package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnvOverrides applies environment variable overrides to the configuration.
// Pattern: PUBSCAN_[SECTION]_[KEY] (e.g., PUBSCAN_ANALYSIS_WORKERS).
func ApplyEnvOverrides(cfg *Config) {
	setEnvBoolPtr(&cfg.Analysis.Parallel, "PUBSCAN_ANALYSIS_PARALLEL")
	setEnvInt(&cfg.Analysis.Workers, "PUBSCAN_ANALYSIS_WORKERS")
	setEnvString(&cfg.Analysis.OutputFormat, "PUBSCAN_ANALYSIS_OUTPUT_FORMAT")

	setEnvBool(&cfg.Discovery.IncludeTests, "PUBSCAN_DISCOVERY_INCLUDE_TESTS")

	setEnvBool(&cfg.History.Enabled, "PUBSCAN_HISTORY_ENABLED")
	setEnvString(&cfg.History.Path, "PUBSCAN_HISTORY_PATH")

	setEnvDuration(&cfg.Watch.Debounce, "PUBSCAN_WATCH_DEBOUNCE")

	setEnvString(&cfg.Telemetry.OTLPEndpoint, "PUBSCAN_TELEMETRY_OTLP_ENDPOINT")
	setEnvString(&cfg.Telemetry.MetricsFile, "PUBSCAN_TELEMETRY_METRICS_FILE")
}

func setEnvString(target *string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		slog.Debug("applying env override", "key", key, "value", val)
		*target = strings.TrimSpace(val)
	}
}

func setEnvBool(target *bool, key string) {
	if val, ok := os.LookupEnv(key); ok {
		b, err := strconv.ParseBool(val)
		if err != nil {
			slog.Warn("ignoring invalid env override", "key", key, "value", val, "error", err)
			return
		}
		*target = b
	}
}

func setEnvBoolPtr(target **bool, key string) {
	if val, ok := os.LookupEnv(key); ok {
		b, err := strconv.ParseBool(val)
		if err != nil {
			slog.Warn("ignoring invalid env override", "key", key, "value", val, "error", err)
			return
		}
		*target = &b
	}
}

func setEnvInt(target *int, key string) {
	if val, ok := os.LookupEnv(key); ok {
		n, err := strconv.Atoi(val)
		if err != nil {
			slog.Warn("ignoring invalid env override", "key", key, "value", val, "error", err)
			return
		}
		*target = n
	}
}

func setEnvDuration(target *time.Duration, key string) {
	if val, ok := os.LookupEnv(key); ok {
		d, err := time.ParseDuration(val)
		if err != nil {
			slog.Warn("ignoring invalid env override", "key", key, "value", val, "error", err)
			return
		}
		*target = d
	}
}
