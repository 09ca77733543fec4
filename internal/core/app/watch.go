package app

import (
	"context"
	"log/slog"

	"pubscan/internal/core/config"
	"pubscan/internal/core/watcher"
)

// Accepts and ExcludedDir let the file watcher follow the discovery
// filters currently in effect, including after a config reload.
func (a *App) Accepts(root, path string) bool {
	return a.discoverer().Accepts(root, path)
}

func (a *App) ExcludedDir(name string) bool {
	return a.discoverer().ExcludedDir(name)
}

// Watch analyzes target once, then again after every batch of source
// changes under the project root, handing each outcome to emit. A non-empty
// configPath is reloaded on change. Watch returns when ctx is done.
func (a *App) Watch(ctx context.Context, target, root, configPath string, emit func(*Outcome) error) error {
	out, err := a.Analyze(ctx, target, root)
	if err != nil {
		return err
	}
	if err := emit(out); err != nil {
		return err
	}

	rerun := func(paths []string) {
		if ctx.Err() != nil {
			return
		}
		slog.Info("detected changes", "count", len(paths))
		out, err := a.Analyze(ctx, target, root)
		if err != nil {
			slog.Error("re-analysis failed", "error", err)
			return
		}
		if err := emit(out); err != nil {
			slog.Error("failed to render report", "error", err)
		}
	}

	w, err := watcher.NewWatcher(out.ProjectRoot, a, a.Config().Watch.Debounce, rerun)
	if err != nil {
		return err
	}
	defer w.Close()
	if err := w.Watch(); err != nil {
		return err
	}

	if configPath != "" {
		cw := config.NewWatcher(configPath, func(cfg *config.Config) {
			if err := a.Reconfigure(cfg); err != nil {
				slog.Warn("ignoring reloaded config", "path", configPath, "error", err)
				return
			}
			w.SetDebounce(cfg.Watch.Debounce)
			slog.Info("config reloaded", "path", configPath)
		})
		if err := cw.Start(ctx); err != nil {
			slog.Warn("failed to watch config file", "path", configPath, "error", err)
		} else {
			defer cw.Stop()
		}
	}

	slog.Info("watching for changes", "root", out.ProjectRoot)
	<-ctx.Done()
	return nil
}
