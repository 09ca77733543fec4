// # internal/engine/api/boundary.go
package api

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"pubscan/internal/core/errors"
	"pubscan/internal/shared/util"
)

// ResolveBoundary returns the canonical paths of the source files that make
// up target. A directory is walked recursively; a file is its own boundary
// when isSource accepts it. A path that cannot be canonicalized is kept in
// its cleaned raw form.
func ResolveBoundary(target string, isSource func(string) bool) (Boundary, error) {
	info, err := os.Stat(target)
	if err != nil {
		return nil, errors.AddContext(errors.Wrap(err, errors.CodeNotFound, "target path does not exist"), errors.CtxPath, target)
	}

	boundary := make(Boundary)
	if !info.IsDir() {
		if isSource(target) {
			boundary[util.CanonicalOrRaw(target)] = struct{}{}
		} else {
			slog.Debug("target is not a source file", "path", target)
		}
		return boundary, nil
	}

	err = filepath.WalkDir(target, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == target {
				return err
			}
			slog.Debug("skipping unreadable path in target", "path", path, "error", err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !isSource(path) {
			return nil
		}
		if !d.Type().IsRegular() {
			if st, statErr := os.Stat(path); statErr != nil || !st.Mode().IsRegular() {
				return nil
			}
		}
		boundary[util.CanonicalOrRaw(path)] = struct{}{}
		return nil
	})
	if err != nil {
		return nil, errors.AddContext(errors.Wrap(err, errors.CodeIO, "walk target"), errors.CtxPath, target)
	}

	slog.Debug("resolved target boundary", "target", target, "files", len(boundary))
	return boundary, nil
}
