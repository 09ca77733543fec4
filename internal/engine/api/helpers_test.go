package api

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"pubscan/internal/engine/discovery"
	"pubscan/internal/engine/parser"
	"pubscan/internal/engine/resolver"

	"github.com/stretchr/testify/require"
)

// writeProject lays out files under a fresh temp dir. Source text is
// dedented so fixtures can be indented like the surrounding Go code.
func writeProject(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(dedent(content)), 0o644))
	}
	return root
}

func dedent(s string) string {
	lines := strings.Split(strings.TrimPrefix(s, "\n"), "\n")
	indent := -1
	for _, l := range lines {
		if strings.TrimSpace(l) == "" {
			continue
		}
		n := len(l) - len(strings.TrimLeft(l, " \t"))
		if indent < 0 || n < indent {
			indent = n
		}
	}
	if indent <= 0 {
		return strings.Join(lines, "\n")
	}
	for i, l := range lines {
		if len(l) >= indent {
			lines[i] = l[indent:]
		} else {
			lines[i] = strings.TrimLeft(l, " \t")
		}
	}
	return strings.Join(lines, "\n")
}

func discover(t *testing.T, root string) []discovery.File {
	t.Helper()
	w, err := discovery.New(discovery.Options{
		Extensions:  parser.SourceExtensions,
		ExcludeDirs: []string{"__pycache__"},
	})
	require.NoError(t, err)
	files, err := w.Discover(context.Background(), root)
	require.NoError(t, err)
	return files
}

func analyze(t *testing.T, root, target string, opts Options) *Result {
	t.Helper()
	an := NewAnalyzer(parser.New(), resolver.NewPythonResolver(), opts)
	res, err := an.Analyze(context.Background(), Request{
		Target: filepath.Join(root, filepath.FromSlash(target)),
		Files:  discover(t, root),
	})
	require.NoError(t, err)
	return res
}

func symbolByName(res *Result, name string) (APISymbol, bool) {
	for _, s := range res.Symbols {
		if s.Name == name {
			return s, true
		}
	}
	return APISymbol{}, false
}

func symbolNames(res *Result) []string {
	names := make([]string, 0, len(res.Symbols))
	for _, s := range res.Symbols {
		names = append(names, s.Name)
	}
	return names
}

func inRoot(root string, rel ...string) []string {
	out := make([]string, 0, len(rel))
	for _, r := range rel {
		out = append(out, filepath.Join(root, filepath.FromSlash(r)))
	}
	return out
}
