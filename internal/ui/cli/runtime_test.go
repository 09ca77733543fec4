package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeProject(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"pyproject.toml":    "[project]\nname = \"demo\"\n",
		"mypkg/__init__.py": "def connect():\n    return 1\n\ndef _internal():\n    pass\n",
		"app/a.py":          "from mypkg import connect\nconnect()\n",
		"app/b.py":          "import mypkg\nmypkg.connect()\nmypkg._internal()\n",
		"tests/test_a.py":   "from mypkg import _internal\n",
	}
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
	return root
}

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestParseOptions(t *testing.T) {
	opts, err := parseOptions([]string{"-v", "pkg", "-v", "-o", "json", "--no-parallel"}, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, []string{"pkg"}, opts.args)
	assert.Equal(t, verbosity(2), opts.verbosity)
	assert.Equal(t, "json", opts.outputFormat)
	assert.True(t, opts.noParallel)
	assert.True(t, opts.isSet("o"))
	assert.False(t, opts.isSet("workers"))
}

func TestRun_Version(t *testing.T) {
	code, out, _ := runCLI(t, "--version")
	assert.Equal(t, exitOK, code)
	assert.Equal(t, "pubscan v"+versionString+"\n", out)
}

func TestRun_UsageErrors(t *testing.T) {
	code, _, _ := runCLI(t)
	assert.Equal(t, exitUsage, code)

	code, _, _ = runCLI(t, "--no-such-flag", "x")
	assert.Equal(t, exitUsage, code)

	code, _, stderr := runCLI(t, "-o", "xml", t.TempDir())
	assert.Equal(t, exitUsage, code)
	assert.Contains(t, stderr, "unsupported output format")
}

func TestRun_MissingTarget(t *testing.T) {
	code, out, stderr := runCLI(t, filepath.Join(t.TempDir(), "missing"))
	assert.Equal(t, exitFatal, code)
	assert.Empty(t, out)
	assert.Contains(t, stderr, "target path does not exist")
}

func TestRun_Text(t *testing.T) {
	root := writeProject(t)
	target := filepath.Join(root, "mypkg")

	code, out, _ := runCLI(t, target)
	require.Equal(t, exitOK, code)
	assert.Contains(t, out, "Public API for "+target+":")
	assert.Contains(t, out, "  connect (2 external usages, public)")
	assert.Contains(t, out, "  _internal (1 external usages, private)")
	assert.Contains(t, out, "Found 2 public API symbols with external usage.")
}

func TestRun_ShortIncludingTests(t *testing.T) {
	root := writeProject(t)
	code, out, _ := runCLI(t, "--short", "--no-ignore-test-files", filepath.Join(root, "mypkg"))
	require.Equal(t, exitOK, code)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "  _internal (2 external usages)", lines[1])
	assert.Equal(t, "  connect (2 external usages)", lines[2])
}

func TestRun_JSONWithConfigAndHistory(t *testing.T) {
	root := writeProject(t)
	require.NoError(t, os.WriteFile(filepath.Join(root, "pubscan.toml"),
		[]byte("[analysis]\noutput_format = \"json\"\nworkers = 2\n\n[history]\nenabled = true\npath = \".pubscan/runs.db\"\n"), 0o644))
	target := filepath.Join(root, "mypkg")

	code, out, _ := runCLI(t, target)
	require.Equal(t, exitOK, code)

	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, target, doc["target_path"])
	assert.Len(t, doc["public_api"], 2)
	assert.NotContains(t, doc, "changes")
	assert.FileExists(t, filepath.Join(root, ".pubscan", "runs.db"))

	code, out, _ = runCLI(t, target)
	require.Equal(t, exitOK, code)
	doc = nil
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Contains(t, doc, "changes")
}

func TestRun_InvalidConfig(t *testing.T) {
	root := writeProject(t)
	cfgPath := filepath.Join(root, "custom.toml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("version = 9\n"), 0o644))

	code, _, stderr := runCLI(t, "--config", cfgPath, filepath.Join(root, "mypkg"))
	assert.Equal(t, exitFatal, code)
	assert.Contains(t, stderr, "unsupported config version")
}

func TestRun_EmptyTarget(t *testing.T) {
	root := writeProject(t)
	empty := filepath.Join(root, "empty")
	require.NoError(t, os.MkdirAll(empty, 0o755))

	code, out, _ := runCLI(t, empty)
	assert.Equal(t, exitOK, code)
	assert.Equal(t, "No public API symbols found with external usage.\n", out)
}
