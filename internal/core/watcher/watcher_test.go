// # internal/core/watcher/watcher_test.go
package watcher

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"pubscan/internal/engine/discovery"
)

func newFilter(t *testing.T) *discovery.Walker {
	t.Helper()
	w, err := discovery.New(discovery.Options{
		Extensions:   []string{".py"},
		ExcludeDirs:  []string{"__pycache__", ".venv"},
		ExcludeFiles: []string{"*_pb2.py"},
	})
	if err != nil {
		t.Fatal(err)
	}
	return w
}

func startWatcher(t *testing.T, root string, debounce time.Duration) <-chan []string {
	t.Helper()
	changed := make(chan []string, 16)
	w, err := NewWatcher(root, newFilter(t), debounce, func(paths []string) {
		changed <- paths
	})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = w.Close() })
	if err := w.Watch(); err != nil {
		t.Fatal(err)
	}
	return changed
}

func waitFor(t *testing.T, changed <-chan []string, want string) {
	t.Helper()
	timeout := time.After(3 * time.Second)
	for {
		select {
		case paths := <-changed:
			for _, p := range paths {
				if p == want {
					return
				}
			}
		case <-timeout:
			t.Fatalf("timed out waiting for change to %s", want)
		}
	}
}

func TestNewWatcher_RejectsNilArguments(t *testing.T) {
	w, err := NewWatcher(t.TempDir(), nil, time.Millisecond, func([]string) {})
	if !errors.Is(err, os.ErrInvalid) || w != nil {
		t.Fatalf("expected os.ErrInvalid for nil filter, got %v", err)
	}
	w, err = NewWatcher(t.TempDir(), newFilter(t), time.Millisecond, nil)
	if !errors.Is(err, os.ErrInvalid) || w != nil {
		t.Fatalf("expected os.ErrInvalid for nil callback, got %v", err)
	}
}

func TestWatcher_ReportsSourceChanges(t *testing.T) {
	root := t.TempDir()
	changed := startWatcher(t, root, 100*time.Millisecond)

	src := filepath.Join(root, "mod.py")
	if err := os.WriteFile(src, []byte("x = 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	waitFor(t, changed, src)
}

func TestWatcher_IgnoresFilteredFiles(t *testing.T) {
	root := t.TempDir()
	changed := startWatcher(t, root, 50*time.Millisecond)

	for _, name := range []string{"notes.txt", "api_pb2.py"} {
		if err := os.WriteFile(filepath.Join(root, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	select {
	case paths := <-changed:
		t.Fatalf("filtered files triggered a change: %v", paths)
	case <-time.After(500 * time.Millisecond):
	}
}

func TestWatcher_WatchesNewDirectories(t *testing.T) {
	root := t.TempDir()
	changed := startWatcher(t, root, 100*time.Millisecond)

	sub := filepath.Join(root, "pkg", "sub")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	nested := filepath.Join(sub, "nested.py")
	if err := os.WriteFile(nested, []byte("y = 2\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	waitFor(t, changed, nested)
}

func TestWatcher_RenameTriggersChange(t *testing.T) {
	root := t.TempDir()
	oldPath := filepath.Join(root, "old.py")
	if err := os.WriteFile(oldPath, []byte("z = 3\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	changed := startWatcher(t, root, 100*time.Millisecond)

	newPath := filepath.Join(root, "new.py")
	if err := os.Rename(oldPath, newPath); err != nil {
		t.Fatal(err)
	}

	timeout := time.After(3 * time.Second)
	for {
		select {
		case paths := <-changed:
			for _, p := range paths {
				if p == oldPath || p == newPath {
					return
				}
			}
		case <-timeout:
			t.Fatalf("timed out waiting for rename event, old=%s new=%s", oldPath, newPath)
		}
	}
}

func TestWatcher_ExcludedDirectoryIsNotWatched(t *testing.T) {
	root := t.TempDir()
	cache := filepath.Join(root, "__pycache__")
	if err := os.MkdirAll(cache, 0o755); err != nil {
		t.Fatal(err)
	}
	changed := startWatcher(t, root, 50*time.Millisecond)

	if err := os.WriteFile(filepath.Join(cache, "mod.py"), []byte("x = 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	select {
	case paths := <-changed:
		t.Fatalf("excluded directory triggered a change: %v", paths)
	case <-time.After(500 * time.Millisecond):
	}
}
