package api

import (
	"context"
	"go/ast"
	"go/parser"
	"go/token"
	"path/filepath"
	"reflect"
	"sort"
	"strings"
	"testing"

	"pubscan/internal/engine/pyast"
	pyparser "pubscan/internal/engine/parser"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// variantsOf lists the pyast types that carry the given marker method.
func variantsOf(t *testing.T, marker string) []string {
	t.Helper()
	paths, err := filepath.Glob(filepath.Join("..", "pyast", "*.go"))
	require.NoError(t, err)

	fset := token.NewFileSet()
	var names []string
	for _, p := range paths {
		if strings.HasSuffix(p, "_test.go") {
			continue
		}
		f, err := parser.ParseFile(fset, p, nil, 0)
		require.NoError(t, err)
		for _, decl := range f.Decls {
			fn, ok := decl.(*ast.FuncDecl)
			if !ok || fn.Recv == nil || fn.Name.Name != marker {
				continue
			}
			star, ok := fn.Recv.List[0].Type.(*ast.StarExpr)
			require.True(t, ok, "marker on non-pointer receiver")
			names = append(names, star.X.(*ast.Ident).Name)
		}
	}
	sort.Strings(names)
	return names
}

func typeName(v any) string {
	return reflect.TypeOf(v).Elem().Name()
}

var allStmts = []pyast.Stmt{
	&pyast.ExprStmt{}, &pyast.Assign{}, &pyast.AnnAssign{}, &pyast.AugAssign{},
	&pyast.Return{}, &pyast.Delete{}, &pyast.Raise{}, &pyast.Assert{},
	&pyast.If{}, &pyast.For{}, &pyast.While{}, &pyast.With{}, &pyast.Try{},
	&pyast.Match{}, &pyast.FunctionDef{}, &pyast.ClassDef{}, &pyast.Import{},
	&pyast.ImportFrom{}, &pyast.Global{}, &pyast.Nonlocal{}, &pyast.Pass{},
	&pyast.Break{}, &pyast.Continue{}, &pyast.TypeAlias{}, &pyast.Other{},
}

var allExprs = []pyast.Expr{
	&pyast.Name{}, &pyast.Attribute{}, &pyast.Call{}, &pyast.Starred{},
	&pyast.BinOp{}, &pyast.BoolOp{}, &pyast.UnaryOp{}, &pyast.Compare{},
	&pyast.Subscript{}, &pyast.Slice{}, &pyast.List{}, &pyast.Tuple{},
	&pyast.Set{}, &pyast.Dict{}, &pyast.Lambda{}, &pyast.IfExp{},
	&pyast.ListComp{}, &pyast.SetComp{}, &pyast.GeneratorExp{}, &pyast.DictComp{},
	&pyast.Await{}, &pyast.Yield{}, &pyast.YieldFrom{}, &pyast.NamedExpr{},
	&pyast.Constant{}, &pyast.FString{}, &pyast.Opaque{},
}

func newTestScanner(candidates Candidates, targets TargetNames) (*fileScanner, *Aggregator) {
	agg := NewAggregator(candidates)
	return newFileScanner(context.Background(), "client.py", candidates, targets, agg.Record), agg
}

func TestScanner_HandlesEveryVariant(t *testing.T) {
	var stmtNames, exprNames []string
	for _, s := range allStmts {
		stmtNames = append(stmtNames, typeName(s))
	}
	for _, e := range allExprs {
		exprNames = append(exprNames, typeName(e))
	}
	sort.Strings(stmtNames)
	sort.Strings(exprNames)

	// A new variant must be added to these lists and to the scanner.
	require.Equal(t, variantsOf(t, "stmtNode"), stmtNames)
	require.Equal(t, variantsOf(t, "exprNode"), exprNames)

	s, _ := newTestScanner(Candidates{}, NewTargetNames("pkg"))
	for _, st := range allStmts {
		s.stmt(st)
	}
	for _, e := range allExprs {
		s.expr(e)
	}
	assert.Zero(t, s.unhandled)
}

// scanSource parses src and scans it as an external file.
func scanSource(t *testing.T, src string, candidates Candidates, targets TargetNames) (*fileScanner, map[string]Usage) {
	t.Helper()
	mod, err := pyparser.New().Parse("client.py", []byte(dedent(src)))
	require.NoError(t, err)
	s, agg := newTestScanner(candidates, targets)
	s.scan(mod)
	return s, agg.Snapshot()
}

func keys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func coreCandidates(names ...string) Candidates {
	c := make(Candidates, len(names))
	for _, n := range names {
		c[n] = DefinedSymbol{Kind: KindFunction, IsPublic: true, FullyQualifiedName: "pkg.core." + n}
	}
	return c
}

func TestScanner_ExpressionCoverage(t *testing.T) {
	cases := map[string]string{
		"call argument":        "print(target)",
		"keyword argument":     "print(x=target)",
		"star argument":        "print(*target)",
		"double star argument": "print(**target)",
		"binary operator":      "x = 1 + target",
		"unary operator":       "x = -target",
		"not":                  "x = not target",
		"boolean operator":     "x = a and target",
		"comparison":           "x = a < target",
		"subscript value":      "x = target[0]",
		"subscript index":      "x = a[target]",
		"slice":                "x = a[1:target]",
		"list":                 "x = [target]",
		"tuple":                "x = (1, target)",
		"set":                  "x = {target}",
		"dict key":             "x = {target: 1}",
		"dict value":           "x = {1: target}",
		"dict unpack":          "x = {**target}",
		"conditional":          "x = 1 if target else 2",
		"lambda body":          "f = lambda: target",
		"lambda default":       "f = lambda a=target: a",
		"list comprehension":   "x = [target for _ in a]",
		"comprehension iter":   "x = [i for i in target]",
		"comprehension if":     "x = [i for i in a if target(i)]",
		"set comprehension":    "x = {target for _ in a}",
		"dict comprehension":   "x = {k: target for k in a}",
		"generator":            "x = sum(target for _ in a)",
		"await":                "async def f():\n    await target",
		"yield":                "def f():\n    yield target",
		"yield from":           "def f():\n    yield from target",
		"walrus":               "if (n := target):\n    pass",
		"f-string":             "x = f\"{target}\"",
		"f-string format spec": "x = f\"{1:{target}}\"",
		"attribute object":     "x = target.attr",
		"parenthesized":        "x = (target)",
		"augmented value":      "x += target",
		"annotated value":      "x: int = target",
		"annotation":           "x: target",
		"return":               "def f():\n    return target",
		"raise":                "raise target",
		"raise from":           "raise ValueError() from target",
		"assert":               "assert target",
		"assert message":       "assert x, target",
		"del":                  "del target[0]",
		"attribute target":     "target.x = 1",
		"subscript target":     "x[target] = 1",
		"if test":              "if target:\n    pass",
		"elif body":            "if a:\n    pass\nelif b:\n    target()",
		"else body":            "if a:\n    pass\nelse:\n    target()",
		"for iter":             "for i in target:\n    pass",
		"for else":             "for i in a:\n    pass\nelse:\n    target()",
		"while else":           "while a:\n    pass\nelse:\n    target()",
		"with":                 "with target() as f:\n    pass",
		"try body":             "try:\n    target()\nexcept Exception:\n    pass",
		"except type":          "try:\n    pass\nexcept target:\n    pass",
		"finally":              "try:\n    pass\nfinally:\n    target()",
		"match subject":        "match target:\n    case 1:\n        pass",
		"match body":           "match a:\n    case 1:\n        target()",
		"decorator":            "@target\ndef f():\n    pass",
		"parameter default":    "def f(a=target):\n    pass",
		"parameter annotation": "def f(a: target):\n    pass",
		"return annotation":    "def f() -> target:\n    pass",
		"function body":        "def f():\n    target()",
		"class base":           "class C(target):\n    pass",
		"class keyword":        "class C(metaclass=target):\n    pass",
		"class body":           "class C:\n    x = target",
		"class decorator":      "@target\nclass C:\n    pass",
	}

	// The import path does not match the candidate's FQN, so only the
	// reference in body can record the usage.
	candidates := Candidates{"target": {Kind: KindFunction, FullyQualifiedName: "pkg.tools.target"}}
	targets := NewTargetNames("pkg.tools")

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			src := "from pkg import target\n" + body + "\n"
			s, usage := scanSource(t, src, candidates, targets)
			assert.Equal(t, 1, usage["target"].Count)
			assert.Equal(t, []string{"client.py"}, keys(usage["target"].Importers))
			assert.Zero(t, s.unhandled)
		})
	}

	_, usage := scanSource(t, "from pkg import target\nx = 1\n", candidates, targets)
	assert.Equal(t, 0, usage["target"].Count)
}

func TestScanner_BareNameNeedsImport(t *testing.T) {
	// Importing through a module path that does not match the candidate's
	// FQN records nothing at import time; a later bare reference counts
	// because the name came from the target.
	src := `
		from pkg import helper
		helper()
	`
	candidates := Candidates{"helper": {FullyQualifiedName: "pkg.tools.helper"}}
	_, usage := scanSource(t, src, candidates, NewTargetNames("pkg.tools"))
	assert.Equal(t, 1, usage["helper"].Count)

	_, usage = scanSource(t, "helper()\n", candidates, NewTargetNames("pkg.tools"))
	assert.Equal(t, 0, usage["helper"].Count)
}

func TestScanner_StoreIsNotUsage(t *testing.T) {
	src := `
		from pkg import helper
		helper = 1
		for helper in range(3):
		    pass
	`
	candidates := Candidates{"helper": {FullyQualifiedName: "pkg.tools.helper"}}
	_, usage := scanSource(t, src, candidates, NewTargetNames("pkg.tools"))
	assert.Equal(t, 0, usage["helper"].Count)
}

func TestScanner_WildcardAndRelativeImports(t *testing.T) {
	candidates := coreCandidates("add")
	targets := NewTargetNames("pkg.core")

	_, usage := scanSource(t, "from pkg.core import *\nadd(1, 2)\n", candidates, targets)
	assert.Equal(t, 0, usage["add"].Count)

	_, usage = scanSource(t, "from . import add\n", candidates, targets)
	assert.Equal(t, 0, usage["add"].Count)

	_, usage = scanSource(t, "from .core import add\n", candidates, targets)
	assert.Equal(t, 1, usage["add"].Count)
}

func TestScanner_QualifiedAccessOutsideTarget(t *testing.T) {
	src := `
		import other.core
		other.core.add(1, 2)
	`
	_, usage := scanSource(t, src, coreCandidates("add"), NewTargetNames("pkg.core"))
	assert.Equal(t, 0, usage["add"].Count)
}
