package observability

import (
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	ParsingDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pubscan_parsing_seconds",
		Help:    "Time spent parsing a source file.",
		Buckets: prometheus.DefBuckets,
	}, []string{"role"})

	FilesScannedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pubscan_files_scanned_total",
		Help: "Total number of source files fully analyzed, by role (target or external).",
	}, []string{"role"})

	FilesSkippedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pubscan_files_skipped_total",
		Help: "Total number of source files skipped after a recoverable failure.",
	}, []string{"reason"})

	UsagesRecordedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pubscan_usages_recorded_total",
		Help: "Total number of (symbol, external file) usages recorded by the aggregator.",
	})

	UnhandledNodesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pubscan_unhandled_nodes_total",
		Help: "Syntax nodes the usage scanner had no rule for.",
	})

	CandidateSymbols = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pubscan_candidate_symbols",
		Help: "Number of top-level candidate symbols found in the target during the last run.",
	})

	PublicAPISymbols = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pubscan_public_api_symbols",
		Help: "Number of symbols with external usage found during the last run.",
	})

	AnalysisDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pubscan_analysis_seconds",
		Help:    "Time spent on high-level analysis phases.",
		Buckets: prometheus.DefBuckets,
	}, []string{"phase"})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pubscan_watcher_events_total",
		Help: "Total number of file system events received by the watcher.",
	})
)

// WriteMetricsFile dumps the default registry in the Prometheus text format,
// suitable for the node_exporter textfile collector.
func WriteMetricsFile(path string) error {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
