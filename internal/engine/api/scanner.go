// # internal/engine/api/scanner.go
package api

import (
	"context"
	"fmt"

	"pubscan/internal/engine/pyast"
	"pubscan/internal/shared/observability"
)

// fileScanner finds usages of candidates in one external file. The import
// pass fills the alias table from top-level imports; the visit pass walks
// every statement and expression.
type fileScanner struct {
	ctx        context.Context
	path       string
	candidates Candidates
	targets    TargetNames
	state      *FileState
	record     func(name, path string) bool

	// unhandled counts nodes that matched no case of the visitor.
	unhandled int
}

func newFileScanner(ctx context.Context, path string, candidates Candidates, targets TargetNames, record func(name, path string) bool) *fileScanner {
	return &fileScanner{
		ctx:        ctx,
		path:       path,
		candidates: candidates,
		targets:    targets,
		state:      NewFileState(),
		record:     record,
	}
}

func (s *fileScanner) scan(mod *pyast.Module) {
	s.processImports(mod.Body)
	s.stmts(mod.Body)
}

// use records a usage once per file.
func (s *fileScanner) use(name string) {
	if s.state.IsProcessed(name) {
		return
	}
	s.state.MarkProcessed(name)
	s.record(name, s.path)
	observability.Trace(s.ctx, "usage", "symbol", name, "path", s.path)
}

func (s *fileScanner) processImports(body []pyast.Stmt) {
	for _, stmt := range body {
		switch st := stmt.(type) {
		case *pyast.Import:
			for _, a := range st.Names {
				s.directImport(a)
			}
		case *pyast.ImportFrom:
			if st.Wildcard || st.Module == "" {
				continue
			}
			for _, a := range st.Names {
				s.fromImport(st.Module, a)
			}
		}
	}
}

// directImport handles "import A.B as C".
func (s *fileScanner) directImport(a pyast.Alias) {
	module := a.Name
	s.state.RegisterAlias(a.Bound(), module)

	head := firstSegment(module)
	if s.targets.Owns(module) {
		s.state.RegisterImported(module)
	}
	if s.candidates.Has(head) && !s.state.IsProcessed(head) {
		s.use(head)
		s.state.RegisterImported(module)
	}
}

// fromImport handles one name of "from M import N as P".
func (s *fileScanner) fromImport(module string, a pyast.Alias) {
	name := a.Name
	s.state.RegisterAlias(a.Bound(), name)

	if s.targets.Owns(module) {
		s.state.RegisterImported(name)
	}
	if !s.candidates.Has(name) || s.state.IsProcessed(name) {
		return
	}
	if fqnMatches(module+"."+name, s.candidates[name].FullyQualifiedName) {
		s.use(name)
	}
}

// attribute handles "X.attr" where X is a name or dotted chain bound by an
// import.
func (s *fileScanner) attribute(a *pyast.Attribute) {
	if !s.candidates.Has(a.Attr) || s.state.IsProcessed(a.Attr) {
		return
	}
	dotted, ok := pyast.DottedName(a.Value)
	if !ok {
		return
	}
	module, ok := s.state.ResolveModule(dotted)
	if !ok || !s.targets.Owns(module) {
		return
	}
	if fqnMatches(module+"."+a.Attr, s.candidates[a.Attr].FullyQualifiedName) {
		s.use(a.Attr)
	}
}

func (s *fileScanner) name(n *pyast.Name) {
	if n.Ctx != pyast.Load {
		return
	}
	if s.candidates.Has(n.ID) && s.state.IsImported(n.ID) {
		s.use(n.ID)
	}
}

func (s *fileScanner) unknown(node pyast.Node) {
	s.unhandled++
	observability.UnhandledNodesTotal.Inc()
	observability.Trace(s.ctx, "unhandled node", "type", fmt.Sprintf("%T", node), "path", s.path, "line", node.Position())
}

func (s *fileScanner) stmts(body []pyast.Stmt) {
	for _, st := range body {
		s.stmt(st)
	}
}

func (s *fileScanner) stmt(stmt pyast.Stmt) {
	switch st := stmt.(type) {
	case *pyast.ExprStmt:
		s.expr(st.Value)
	case *pyast.Assign:
		s.expr(st.Value)
		s.exprs(st.Targets)
	case *pyast.AnnAssign:
		s.expr(st.Value)
		s.expr(st.Target)
		s.expr(st.Annotation)
	case *pyast.AugAssign:
		s.expr(st.Value)
		s.expr(st.Target)
	case *pyast.Return:
		s.expr(st.Value)
	case *pyast.Delete:
		s.exprs(st.Targets)
	case *pyast.Raise:
		s.expr(st.Exc)
		s.expr(st.Cause)
	case *pyast.Assert:
		s.expr(st.Test)
		s.expr(st.Msg)
	case *pyast.If:
		s.expr(st.Test)
		s.stmts(st.Body)
		s.stmts(st.Orelse)
	case *pyast.For:
		s.expr(st.Target)
		s.expr(st.Iter)
		s.stmts(st.Body)
		s.stmts(st.Orelse)
	case *pyast.While:
		s.expr(st.Test)
		s.stmts(st.Body)
		s.stmts(st.Orelse)
	case *pyast.With:
		for _, item := range st.Items {
			s.expr(item.Context)
			s.expr(item.Vars)
		}
		s.stmts(st.Body)
	case *pyast.Try:
		s.stmts(st.Body)
		for _, h := range st.Handlers {
			s.expr(h.Type)
			s.stmts(h.Body)
		}
		s.stmts(st.Orelse)
		s.stmts(st.Finally)
	case *pyast.Match:
		s.expr(st.Subject)
		for _, c := range st.Cases {
			s.exprs(c.Patterns)
			s.expr(c.Guard)
			s.stmts(c.Body)
		}
	case *pyast.FunctionDef:
		s.exprs(st.Decorators)
		s.params(st.Params)
		s.expr(st.Returns)
		s.stmts(st.Body)
	case *pyast.ClassDef:
		s.exprs(st.Decorators)
		s.exprs(st.Bases)
		s.keywords(st.Keywords)
		s.stmts(st.Body)
	case *pyast.TypeAlias:
		s.expr(st.Name)
		s.expr(st.Value)
	case *pyast.Other:
		s.exprs(st.Exprs)
		s.stmts(st.Body)
	case *pyast.Import, *pyast.ImportFrom:
		// handled by processImports for top-level; nested imports are ignored
	case *pyast.Global, *pyast.Nonlocal, *pyast.Pass, *pyast.Break, *pyast.Continue:
	case nil:
	default:
		s.unknown(stmt)
	}
}

func (s *fileScanner) params(params []pyast.Param) {
	for _, p := range params {
		s.expr(p.Annotation)
		s.expr(p.Default)
	}
}

func (s *fileScanner) keywords(kws []pyast.Keyword) {
	for _, kw := range kws {
		s.expr(kw.Value)
	}
}

func (s *fileScanner) comprehensions(gens []pyast.Comprehension) {
	for _, g := range gens {
		s.expr(g.Target)
		s.expr(g.Iter)
		s.exprs(g.Ifs)
	}
}

func (s *fileScanner) exprs(list []pyast.Expr) {
	for _, e := range list {
		s.expr(e)
	}
}

func (s *fileScanner) expr(expr pyast.Expr) {
	switch e := expr.(type) {
	case *pyast.Name:
		s.name(e)
	case *pyast.Attribute:
		s.attribute(e)
		s.expr(e.Value)
	case *pyast.Call:
		s.expr(e.Func)
		s.exprs(e.Args)
		s.keywords(e.Keywords)
	case *pyast.Starred:
		s.expr(e.Value)
	case *pyast.BinOp:
		s.expr(e.Left)
		s.expr(e.Right)
	case *pyast.BoolOp:
		s.exprs(e.Values)
	case *pyast.UnaryOp:
		s.expr(e.Operand)
	case *pyast.Compare:
		s.expr(e.Left)
		s.exprs(e.Comparators)
	case *pyast.Subscript:
		s.expr(e.Value)
		s.expr(e.Index)
	case *pyast.Slice:
		s.expr(e.Lower)
		s.expr(e.Upper)
		s.expr(e.Step)
	case *pyast.List:
		s.exprs(e.Elts)
	case *pyast.Tuple:
		s.exprs(e.Elts)
	case *pyast.Set:
		s.exprs(e.Elts)
	case *pyast.Dict:
		s.exprs(e.Keys)
		s.exprs(e.Values)
	case *pyast.Lambda:
		s.params(e.Params)
		s.expr(e.Body)
	case *pyast.IfExp:
		s.expr(e.Test)
		s.expr(e.Body)
		s.expr(e.Orelse)
	case *pyast.ListComp:
		s.expr(e.Elt)
		s.comprehensions(e.Generators)
	case *pyast.SetComp:
		s.expr(e.Elt)
		s.comprehensions(e.Generators)
	case *pyast.GeneratorExp:
		s.expr(e.Elt)
		s.comprehensions(e.Generators)
	case *pyast.DictComp:
		s.expr(e.Key)
		s.expr(e.Value)
		s.comprehensions(e.Generators)
	case *pyast.Await:
		s.expr(e.Value)
	case *pyast.Yield:
		s.expr(e.Value)
	case *pyast.YieldFrom:
		s.expr(e.Value)
	case *pyast.NamedExpr:
		s.expr(e.Target)
		s.expr(e.Value)
	case *pyast.FString:
		s.exprs(e.Values)
	case *pyast.Opaque:
		s.exprs(e.Children)
	case *pyast.Constant:
		// literals reference no names
	case nil:
	default:
		s.unknown(expr)
	}
}
