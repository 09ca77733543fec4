package resolver

import (
	"os"
	"path/filepath"
)

var projectMarkers = []string{"pyproject.toml", "setup.py", "setup.cfg"}

// DetectProjectRoot walks upward from target looking for a project marker.
// Without one, the root is the target itself for a directory and its parent
// for a file.
func DetectProjectRoot(target string) string {
	start := target
	isDir := isDirectory(target)
	if !isDir {
		start = filepath.Dir(target)
	}

	for dir := start; ; {
		if hasProjectMarker(dir) {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	if isDir {
		return target
	}
	return start
}

func hasProjectMarker(dir string) bool {
	for _, name := range projectMarkers {
		if fileExists(filepath.Join(dir, name)) {
			return true
		}
	}
	return fileExists(filepath.Join(dir, "src", PackageMarker))
}

func isDirectory(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
