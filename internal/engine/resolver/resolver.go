// # internal/engine/resolver/resolver.go
package resolver

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// PackageMarker is the file that turns a directory into a Python package.
const PackageMarker = "__init__.py"

// PythonResolver derives dotted module names from file paths by walking up
// through package directories. Package lookups are cached, so one resolver
// should be shared across a run.
type PythonResolver struct {
	packages sync.Map // dir -> bool
}

func NewPythonResolver() *PythonResolver {
	return &PythonResolver{}
}

// IsPackage reports whether dir contains a package marker.
func (r *PythonResolver) IsPackage(dir string) bool {
	if v, ok := r.packages.Load(dir); ok {
		return v.(bool)
	}
	info, err := os.Stat(filepath.Join(dir, PackageMarker))
	isPkg := err == nil && !info.IsDir()
	r.packages.Store(dir, isPkg)
	return isPkg
}

// PackageComponents returns the names of the package directories enclosing
// dir, outermost first, stopping at the first directory without a marker.
func (r *PythonResolver) PackageComponents(dir string) []string {
	var parts []string
	for {
		if !r.IsPackage(dir) {
			break
		}
		parts = append(parts, filepath.Base(dir))
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return parts
}

// ModuleName returns the dotted module name of a source file. A package
// init file is named after its package chain; any other file appends its
// stem to the chain. Outside any package the stem is used alone.
func (r *PythonResolver) ModuleName(path string) string {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	parts := r.PackageComponents(filepath.Dir(path))
	if stem == "__init__" {
		if len(parts) > 0 {
			return strings.Join(parts, ".")
		}
		return stem
	}
	if len(parts) == 0 {
		return stem
	}
	return strings.Join(append(parts, stem), ".")
}
