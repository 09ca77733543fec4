package ports

import (
	"context"

	"pubscan/internal/data/history"
	"pubscan/internal/engine/discovery"
	"pubscan/internal/engine/pyast"
)

// SourceParser abstracts Python parsing for the analysis engine.
type SourceParser interface {
	ParseFile(path string) (*pyast.Module, error)
}

// FileDiscoverer abstracts the project walk and the file filters shared with
// watch mode.
type FileDiscoverer interface {
	Discover(ctx context.Context, root string) ([]discovery.File, error)
	IsSource(path string) bool
	Accepts(root, path string) bool
	ExcludedDir(name string) bool
}

// HistoryStore abstracts run persistence for change reports.
type HistoryStore interface {
	SaveRun(ctx context.Context, run history.Run) (string, error)
	LatestRun(ctx context.Context, target string) (*history.Run, error)
	Close() error
}
