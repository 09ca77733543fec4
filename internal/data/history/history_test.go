package history

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func sampleRun(target string, ts time.Time, symbols ...SymbolRecord) Run {
	return Run{
		Target:        target,
		ProjectRoot:   filepath.Dir(target),
		Timestamp:     ts,
		Candidates:    len(symbols) + 1,
		TargetFiles:   1,
		ExternalFiles: 3,
		Symbols:       symbols,
	}
}

func TestStore_SaveAndLoadRuns(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "nested", "history.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()
	ctx := context.Background()

	base := time.Date(2026, 2, 13, 10, 0, 0, 0, time.UTC)
	first := sampleRun("/proj/pkg", base,
		SymbolRecord{Name: "add", FullyQualifiedName: "pkg.add", Kind: "function", Location: "/proj/pkg/__init__.py", IsPublic: true, UsageCount: 2},
	)
	second := sampleRun("/proj/pkg", base.Add(time.Hour),
		SymbolRecord{Name: "add", FullyQualifiedName: "pkg.add", Kind: "function", Location: "/proj/pkg/__init__.py", IsPublic: true, UsageCount: 3},
		SymbolRecord{Name: "_hidden", FullyQualifiedName: "pkg._hidden", Kind: "variable", Location: "/proj/pkg/__init__.py", UsageCount: 1},
	)
	other := sampleRun("/proj/other", base.Add(2*time.Hour))

	firstID, err := store.SaveRun(ctx, first)
	if err != nil {
		t.Fatalf("save first run: %v", err)
	}
	if firstID == "" {
		t.Fatal("expected generated run id")
	}
	if _, err := store.SaveRun(ctx, second); err != nil {
		t.Fatalf("save second run: %v", err)
	}
	if _, err := store.SaveRun(ctx, other); err != nil {
		t.Fatalf("save other run: %v", err)
	}

	runs, err := store.Runs(ctx, "/proj/pkg", 0)
	if err != nil {
		t.Fatalf("load runs: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs for target, got %d", len(runs))
	}
	if runs[1].ID != firstID {
		t.Fatalf("expected oldest run last, got %s", runs[1].ID)
	}
	if !runs[0].Timestamp.Equal(base.Add(time.Hour)) {
		t.Fatalf("unexpected timestamp %v", runs[0].Timestamp)
	}
	if len(runs[0].Symbols) != 2 || runs[0].Symbols[0].Name != "_hidden" {
		t.Fatalf("expected symbols sorted by name, got %+v", runs[0].Symbols)
	}
	if runs[0].Symbols[0].IsPublic || !runs[0].Symbols[1].IsPublic {
		t.Fatalf("is_public did not round trip: %+v", runs[0].Symbols)
	}
	if runs[0].ExternalFiles != 3 || runs[0].ProjectRoot != "/proj" {
		t.Fatalf("run metadata did not round trip: %+v", runs[0])
	}

	latest, err := store.LatestRun(ctx, "/proj/pkg")
	if err != nil {
		t.Fatalf("latest run: %v", err)
	}
	if latest == nil || latest.ID != runs[0].ID {
		t.Fatalf("expected latest run %s, got %+v", runs[0].ID, latest)
	}

	none, err := store.LatestRun(ctx, "/proj/missing")
	if err != nil {
		t.Fatalf("latest run for unknown target: %v", err)
	}
	if none != nil {
		t.Fatalf("expected no run, got %+v", none)
	}
}

func TestStore_DuplicateIDFails(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()

	run := sampleRun("/proj/pkg", time.Now())
	run.ID = "fixed"
	if _, err := store.SaveRun(context.Background(), run); err != nil {
		t.Fatalf("save run: %v", err)
	}
	if _, err := store.SaveRun(context.Background(), run); err == nil {
		t.Fatal("expected duplicate id to fail")
	}
}

func TestStore_ReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if _, err := store.SaveRun(context.Background(), sampleRun("/proj/pkg", time.Now())); err != nil {
		t.Fatalf("save run: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	store, err = Open(path)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	defer store.Close()
	runs, err := store.Runs(context.Background(), "/proj/pkg", 10)
	if err != nil {
		t.Fatalf("load runs: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 run after reopen, got %d", len(runs))
	}
}

func TestOpen_InvalidPaths(t *testing.T) {
	if _, err := Open("  "); err == nil {
		t.Fatal("expected empty path error")
	}
	dir := t.TempDir()
	if _, err := Open(dir); err == nil {
		t.Fatal("expected directory path error")
	}

	bogus := filepath.Join(dir, "bogus.db")
	if err := os.WriteFile(bogus, []byte(strings.Repeat("not a sqlite database\n", 64)), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := Open(bogus)
	if err == nil {
		t.Fatal("expected corrupt database error")
	}
	if !IsCorruptError(err) {
		t.Fatalf("expected corrupt error, got %v", err)
	}
}

func TestCompare(t *testing.T) {
	prev := &Run{ID: "prev", Symbols: []SymbolRecord{
		{Name: "add", UsageCount: 2},
		{Name: "gone", UsageCount: 1},
		{Name: "same", UsageCount: 4},
	}}
	cur := Run{Symbols: []SymbolRecord{
		{Name: "add", UsageCount: 5},
		{Name: "new", UsageCount: 1},
		{Name: "same", UsageCount: 4},
	}}

	d := Compare(prev, cur)
	if d.PreviousID != "prev" {
		t.Fatalf("expected previous id, got %q", d.PreviousID)
	}
	if len(d.Added) != 1 || d.Added[0].Name != "new" {
		t.Fatalf("unexpected added: %+v", d.Added)
	}
	if len(d.Removed) != 1 || d.Removed[0].Name != "gone" {
		t.Fatalf("unexpected removed: %+v", d.Removed)
	}
	if len(d.Changed) != 1 || d.Changed[0] != (UsageChange{Name: "add", Before: 2, After: 5}) {
		t.Fatalf("unexpected changed: %+v", d.Changed)
	}
	if d.Empty() {
		t.Fatal("diff should not be empty")
	}

	if !Compare(nil, cur).Empty() {
		t.Fatal("diff against no previous run must be empty")
	}
	if !Compare(&Run{Symbols: cur.Symbols}, cur).Empty() {
		t.Fatal("identical runs must produce an empty diff")
	}
}
