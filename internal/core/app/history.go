package app

import (
	"context"
	"log/slog"

	"pubscan/internal/data/history"
	"pubscan/internal/engine/api"
)

// record diffs the outcome against the previous run of the same target and
// saves it. History failures are logged; they never fail the analysis.
func (a *App) record(ctx context.Context, key string, out *Outcome) {
	run := runFromResult(key, out.ProjectRoot, out.Result)

	prev, err := a.history.LatestRun(ctx, key)
	if err != nil {
		slog.Warn("failed to load previous run", "target", key, "error", err)
	} else if prev != nil {
		diff := history.Compare(prev, run)
		out.Changes = &diff
	}

	id, err := a.history.SaveRun(ctx, run)
	if err != nil {
		slog.Warn("failed to save run", "target", key, "error", err)
		return
	}
	out.RunID = id
	slog.Debug("saved run", "id", id, "symbols", len(run.Symbols))
}

func runFromResult(key, root string, res *api.Result) history.Run {
	run := history.Run{
		Target:        key,
		ProjectRoot:   root,
		Candidates:    res.Candidates,
		TargetFiles:   res.TargetFiles,
		ExternalFiles: res.ExternalFiles,
		Skipped:       res.Skipped,
		Symbols:       make([]history.SymbolRecord, 0, len(res.Symbols)),
	}
	for _, sym := range res.Symbols {
		run.Symbols = append(run.Symbols, history.SymbolRecord{
			Name:               sym.Name,
			FullyQualifiedName: sym.Definition.FullyQualifiedName,
			Kind:               sym.Definition.Kind.String(),
			Location:           sym.Definition.Location,
			IsPublic:           sym.Definition.IsPublic,
			UsageCount:         sym.UsageCount,
		})
	}
	return run
}
