// # internal/engine/discovery/discovery.go
package discovery

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	"pubscan/internal/shared/util"

	"github.com/gobwas/glob"
)

// Options controls which files a Walker reports.
type Options struct {
	Extensions   []string
	ExcludeDirs  []string
	ExcludeFiles []string
}

// File is one discovered source file. Resolved is the canonical path, or the
// cleaned raw path when canonicalization failed.
type File struct {
	Path     string
	Resolved string
	Test     bool
}

type Walker struct {
	extensions map[string]struct{}
	dirGlobs   []glob.Glob
	fileGlobs  []glob.Glob
}

func New(opts Options) (*Walker, error) {
	w := &Walker{extensions: make(map[string]struct{}, len(opts.Extensions))}
	for _, ext := range opts.Extensions {
		w.extensions[strings.ToLower(ext)] = struct{}{}
	}

	for _, p := range opts.ExcludeDirs {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid exclude dir pattern %q: %w", p, err)
		}
		w.dirGlobs = append(w.dirGlobs, g)
	}
	for _, p := range opts.ExcludeFiles {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid exclude file pattern %q: %w", p, err)
		}
		w.fileGlobs = append(w.fileGlobs, g)
	}
	return w, nil
}

// IsSource reports whether path has one of the configured extensions.
func (w *Walker) IsSource(path string) bool {
	_, ok := w.extensions[strings.ToLower(filepath.Ext(path))]
	return ok
}

// ExcludedDir reports whether a directory base name matches an exclude glob.
func (w *Walker) ExcludedDir(name string) bool {
	for _, g := range w.dirGlobs {
		if g.Match(name) {
			return true
		}
	}
	return false
}

func (w *Walker) excludedFile(name string) bool {
	for _, g := range w.fileGlobs {
		if g.Match(name) {
			return true
		}
	}
	return false
}

// Accepts reports whether a file event at path would be part of a walk
// rooted at root.
func (w *Walker) Accepts(root, path string) bool {
	if !w.IsSource(path) || w.excludedFile(filepath.Base(path)) {
		return false
	}
	rel, err := filepath.Rel(root, filepath.Dir(path))
	if err != nil || strings.HasPrefix(rel, "..") {
		return false
	}
	if rel == "." {
		return true
	}
	for _, part := range strings.Split(rel, string(filepath.Separator)) {
		if w.ExcludedDir(part) {
			return false
		}
	}
	return true
}

// Discover walks root and returns every source file under it, sorted by
// path. Unreadable subdirectories are logged and skipped; a failure on root
// itself is returned.
func (w *Walker) Discover(ctx context.Context, root string) ([]File, error) {
	var files []File

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			slog.Debug("skipping unreadable path", "path", path, "error", err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if err := ctx.Err(); err != nil {
				return err
			}
			if path != root && w.ExcludedDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}

		if !d.Type().IsRegular() && d.Type()&fs.ModeSymlink == 0 {
			return nil
		}
		if !w.IsSource(path) || w.excludedFile(d.Name()) {
			return nil
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			rel = path
		}
		files = append(files, File{
			Path:     path,
			Resolved: util.CanonicalOrRaw(path),
			Test:     IsTestFile(rel),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

// IsTestFile matches pytest-style layout: anything under a test or tests
// directory, test_*.py and *_test.py. Pass a root-relative path so that
// directories above the project do not count.
func IsTestFile(path string) bool {
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if strings.HasPrefix(stem, "test_") || strings.HasSuffix(stem, "_test") {
		return true
	}
	for _, part := range strings.Split(filepath.ToSlash(filepath.Dir(path)), "/") {
		if part == "test" || part == "tests" {
			return true
		}
	}
	return false
}
