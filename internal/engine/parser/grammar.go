package parser

import (
	"path/filepath"
	"strings"
	"sync"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
)

// SourceExtensions are the file extensions treated as Python source.
var SourceExtensions = []string{".py", ".pyi"}

var (
	pythonOnce sync.Once
	pythonLang *sitter.Language
)

func PythonLanguage() *sitter.Language {
	pythonOnce.Do(func() {
		pythonLang = sitter.NewLanguage(tree_sitter_python.Language())
	})
	return pythonLang
}

// IsSourcePath reports whether path has a Python source extension,
// ignoring case.
func IsSourcePath(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, want := range SourceExtensions {
		if ext == want {
			return true
		}
	}
	return false
}
