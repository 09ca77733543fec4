package parser

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"pubscan/internal/engine/pyast"
)

// lowerer converts a tree-sitter concrete tree into pyast nodes.
type lowerer struct {
	src []byte
}

func (l *lowerer) text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return string(l.src[n.StartByte():n.EndByte()])
}

func pos(n *sitter.Node) pyast.Pos {
	return pyast.Pos{Line: int(n.StartPosition().Row) + 1}
}

func isTrivia(n *sitter.Node) bool {
	k := n.Kind()
	return k == "comment" || k == "line_continuation"
}

// children returns all non-trivia children, anonymous tokens included.
func children(n *sitter.Node) []*sitter.Node {
	if n == nil {
		return nil
	}
	out := make([]*sitter.Node, 0, n.ChildCount())
	for i := uint(0); i < n.ChildCount(); i++ {
		c := n.Child(i)
		if c == nil || isTrivia(c) {
			continue
		}
		out = append(out, c)
	}
	return out
}

func named(n *sitter.Node) []*sitter.Node {
	all := children(n)
	out := all[:0]
	for _, c := range all {
		if c.IsNamed() {
			out = append(out, c)
		}
	}
	return out
}

func firstNamed(n *sitter.Node) *sitter.Node {
	if kids := named(n); len(kids) > 0 {
		return kids[0]
	}
	return nil
}

func sameNode(a, b *sitter.Node) bool {
	return a != nil && b != nil && a.StartByte() == b.StartByte() && a.EndByte() == b.EndByte() && a.Kind() == b.Kind()
}

func hasToken(n *sitter.Node, tok string) bool {
	for _, c := range children(n) {
		if !c.IsNamed() && c.Kind() == tok {
			return true
		}
	}
	return false
}

func firstErrorLine(n *sitter.Node) int {
	if n.IsError() || n.IsMissing() {
		return int(n.StartPosition().Row) + 1
	}
	for i := uint(0); i < n.ChildCount(); i++ {
		c := n.Child(i)
		if c == nil || !c.HasError() && !c.IsMissing() {
			continue
		}
		return firstErrorLine(c)
	}
	return int(n.StartPosition().Row) + 1
}

func (l *lowerer) block(n *sitter.Node) []pyast.Stmt {
	if n == nil {
		return nil
	}
	var out []pyast.Stmt
	for _, c := range named(n) {
		if s := l.stmt(c); s != nil {
			out = append(out, s)
		}
	}
	return out
}

func (l *lowerer) stmt(n *sitter.Node) pyast.Stmt {
	p := pos(n)
	switch n.Kind() {
	case "expression_statement":
		return l.expressionStatement(n)
	case "return_statement":
		return &pyast.Return{Pos: p, Value: l.exprOf(named(n))}
	case "delete_statement":
		var targets []pyast.Expr
		for _, c := range named(n) {
			targets = append(targets, l.targetList(c, pyast.Del)...)
		}
		return &pyast.Delete{Pos: p, Targets: targets}
	case "raise_statement":
		return l.raise(n)
	case "assert_statement":
		kids := named(n)
		a := &pyast.Assert{Pos: p}
		if len(kids) > 0 {
			a.Test = l.expr(kids[0])
		}
		if len(kids) > 1 {
			a.Msg = l.expr(kids[1])
		}
		return a
	case "pass_statement":
		return &pyast.Pass{Pos: p}
	case "break_statement":
		return &pyast.Break{Pos: p}
	case "continue_statement":
		return &pyast.Continue{Pos: p}
	case "global_statement":
		return &pyast.Global{Pos: p, Names: l.identifiers(n)}
	case "nonlocal_statement":
		return &pyast.Nonlocal{Pos: p, Names: l.identifiers(n)}
	case "import_statement":
		return &pyast.Import{Pos: p, Names: l.aliases(named(n))}
	case "import_from_statement":
		return l.importFrom(n)
	case "future_import_statement":
		imp := &pyast.ImportFrom{Pos: p, Module: "__future__"}
		imp.Names = l.aliases(l.afterImportKeyword(n))
		return imp
	case "if_statement":
		return l.ifStatement(n)
	case "for_statement":
		return &pyast.For{
			Pos:    p,
			Target: l.target(n.ChildByFieldName("left"), pyast.Store),
			Iter:   l.expr(n.ChildByFieldName("right")),
			Body:   l.block(n.ChildByFieldName("body")),
			Orelse: l.elseBody(n.ChildByFieldName("alternative")),
			Async:  hasToken(n, "async"),
		}
	case "while_statement":
		return &pyast.While{
			Pos:    p,
			Test:   l.expr(n.ChildByFieldName("condition")),
			Body:   l.block(n.ChildByFieldName("body")),
			Orelse: l.elseBody(n.ChildByFieldName("alternative")),
		}
	case "try_statement":
		return l.try(n)
	case "with_statement":
		return l.with(n)
	case "match_statement":
		return l.match(n)
	case "function_definition":
		return l.functionDef(n)
	case "class_definition":
		return l.classDef(n)
	case "decorated_definition":
		return l.decorated(n)
	case "type_alias_statement":
		kids := named(n)
		ta := &pyast.TypeAlias{Pos: p}
		if len(kids) > 0 {
			ta.Name = l.target(kids[0], pyast.Store)
		}
		if len(kids) > 1 {
			ta.Value = l.expr(kids[1])
		}
		return ta
	default:
		o := &pyast.Other{Pos: p, Kind: n.Kind()}
		for _, c := range named(n) {
			if c.Kind() == "block" {
				o.Body = append(o.Body, l.block(c)...)
				continue
			}
			if e := l.expr(c); e != nil {
				o.Exprs = append(o.Exprs, e)
			}
		}
		return o
	}
}

func (l *lowerer) expressionStatement(n *sitter.Node) pyast.Stmt {
	kids := named(n)
	if len(kids) == 1 {
		c := kids[0]
		switch c.Kind() {
		case "assignment":
			return l.assignment(c)
		case "augmented_assignment":
			return &pyast.AugAssign{
				Pos:    pos(c),
				Target: l.target(c.ChildByFieldName("left"), pyast.Store),
				Op:     l.text(c.ChildByFieldName("operator")),
				Value:  l.expr(c.ChildByFieldName("right")),
			}
		}
	}
	return &pyast.ExprStmt{Pos: pos(n), Value: l.exprOf(kids)}
}

func (l *lowerer) assignment(n *sitter.Node) pyast.Stmt {
	left := n.ChildByFieldName("left")
	right := n.ChildByFieldName("right")
	if typ := n.ChildByFieldName("type"); typ != nil {
		return &pyast.AnnAssign{
			Pos:        pos(n),
			Target:     l.target(left, pyast.Store),
			Annotation: l.expr(typ),
			Value:      l.expr(right),
		}
	}

	a := &pyast.Assign{Pos: pos(n), Targets: []pyast.Expr{l.target(left, pyast.Store)}}
	for right != nil && right.Kind() == "assignment" {
		a.Targets = append(a.Targets, l.target(right.ChildByFieldName("left"), pyast.Store))
		right = right.ChildByFieldName("right")
	}
	a.Value = l.expr(right)
	return a
}

func (l *lowerer) raise(n *sitter.Node) pyast.Stmt {
	r := &pyast.Raise{Pos: pos(n)}
	cause := n.ChildByFieldName("cause")
	for _, c := range named(n) {
		if sameNode(c, cause) {
			continue
		}
		if r.Exc == nil {
			r.Exc = l.expr(c)
		}
	}
	r.Cause = l.expr(cause)
	return r
}

func (l *lowerer) identifiers(n *sitter.Node) []string {
	var names []string
	for _, c := range named(n) {
		names = append(names, l.text(c))
	}
	return names
}

func (l *lowerer) aliases(nodes []*sitter.Node) []pyast.Alias {
	var out []pyast.Alias
	for _, c := range nodes {
		switch c.Kind() {
		case "dotted_name", "identifier":
			out = append(out, pyast.Alias{Name: l.text(c)})
		case "aliased_import":
			out = append(out, pyast.Alias{
				Name:   l.text(c.ChildByFieldName("name")),
				AsName: l.text(c.ChildByFieldName("alias")),
			})
		case "import_list":
			out = append(out, l.aliases(named(c))...)
		}
	}
	return out
}

// afterImportKeyword returns the named children following the "import"
// token of a from-import statement.
func (l *lowerer) afterImportKeyword(n *sitter.Node) []*sitter.Node {
	var out []*sitter.Node
	seen := false
	for _, c := range children(n) {
		if !c.IsNamed() {
			if c.Kind() == "import" {
				seen = true
			}
			continue
		}
		if seen {
			out = append(out, c)
		}
	}
	return out
}

func (l *lowerer) importFrom(n *sitter.Node) pyast.Stmt {
	imp := &pyast.ImportFrom{Pos: pos(n)}
	if mod := n.ChildByFieldName("module_name"); mod != nil {
		raw := l.text(mod)
		trimmed := strings.TrimLeft(raw, ".")
		imp.Level = len(raw) - len(trimmed)
		imp.Module = strings.TrimSpace(trimmed)
	}
	names := l.afterImportKeyword(n)
	for _, c := range names {
		if c.Kind() == "wildcard_import" {
			imp.Wildcard = true
		}
	}
	imp.Names = l.aliases(names)
	return imp
}

func (l *lowerer) ifStatement(n *sitter.Node) pyast.Stmt {
	s := &pyast.If{
		Pos:  pos(n),
		Test: l.expr(n.ChildByFieldName("condition")),
		Body: l.block(n.ChildByFieldName("consequence")),
	}
	var clauses []*sitter.Node
	for _, c := range named(n) {
		if c.Kind() == "elif_clause" || c.Kind() == "else_clause" {
			clauses = append(clauses, c)
		}
	}
	var orelse []pyast.Stmt
	for i := len(clauses) - 1; i >= 0; i-- {
		c := clauses[i]
		if c.Kind() == "else_clause" {
			orelse = l.elseBody(c)
			continue
		}
		orelse = []pyast.Stmt{&pyast.If{
			Pos:    pos(c),
			Test:   l.expr(c.ChildByFieldName("condition")),
			Body:   l.block(c.ChildByFieldName("consequence")),
			Orelse: orelse,
		}}
	}
	s.Orelse = orelse
	return s
}

func (l *lowerer) elseBody(n *sitter.Node) []pyast.Stmt {
	if n == nil {
		return nil
	}
	if body := n.ChildByFieldName("body"); body != nil {
		return l.block(body)
	}
	for _, c := range named(n) {
		if c.Kind() == "block" {
			return l.block(c)
		}
	}
	return nil
}

func (l *lowerer) try(n *sitter.Node) pyast.Stmt {
	t := &pyast.Try{Pos: pos(n), Body: l.block(n.ChildByFieldName("body"))}
	for _, c := range named(n) {
		switch c.Kind() {
		case "except_clause", "except_group_clause":
			t.Handlers = append(t.Handlers, l.exceptHandler(c))
		case "else_clause":
			t.Orelse = l.elseBody(c)
		case "finally_clause":
			t.Finally = l.elseBody(c)
		}
	}
	return t
}

func (l *lowerer) exceptHandler(n *sitter.Node) pyast.ExceptHandler {
	var h pyast.ExceptHandler
	afterAs := false
	for _, c := range children(n) {
		if !c.IsNamed() {
			if c.Kind() == "as" || c.Kind() == "," && h.Type != nil {
				afterAs = true
			}
			continue
		}
		switch {
		case c.Kind() == "block":
			h.Body = l.block(c)
		case c.Kind() == "as_pattern":
			if inner := firstNamed(c); inner != nil {
				h.Type = l.expr(inner)
			}
			if t := asPatternTarget(c); t != nil {
				h.Name = l.text(t)
			}
		case afterAs:
			h.Name = l.text(c)
		case h.Type == nil:
			h.Type = l.expr(c)
		}
	}
	return h
}

func asPatternTarget(n *sitter.Node) *sitter.Node {
	if a := n.ChildByFieldName("alias"); a != nil {
		return unwrapTarget(a)
	}
	for _, c := range named(n) {
		if c.Kind() == "as_pattern_target" {
			return unwrapTarget(c)
		}
	}
	return nil
}

func unwrapTarget(n *sitter.Node) *sitter.Node {
	if n.Kind() == "as_pattern_target" {
		if inner := firstNamed(n); inner != nil {
			return inner
		}
	}
	return n
}

func (l *lowerer) with(n *sitter.Node) pyast.Stmt {
	w := &pyast.With{Pos: pos(n), Body: l.block(n.ChildByFieldName("body")), Async: hasToken(n, "async")}
	var collect func(*sitter.Node)
	collect = func(c *sitter.Node) {
		switch c.Kind() {
		case "with_clause":
			for _, item := range named(c) {
				collect(item)
			}
		case "with_item":
			value := c.ChildByFieldName("value")
			if value == nil {
				value = firstNamed(c)
			}
			if value == nil {
				return
			}
			if value.Kind() == "as_pattern" {
				item := pyast.WithItem{Context: l.expr(firstNamed(value))}
				if t := asPatternTarget(value); t != nil {
					item.Vars = l.target(t, pyast.Store)
				}
				w.Items = append(w.Items, item)
				return
			}
			w.Items = append(w.Items, pyast.WithItem{Context: l.expr(value)})
		}
	}
	for _, c := range named(n) {
		collect(c)
	}
	return w
}

func (l *lowerer) match(n *sitter.Node) pyast.Stmt {
	m := &pyast.Match{Pos: pos(n)}
	var subjects []*sitter.Node
	for _, c := range named(n) {
		if c.Kind() == "block" {
			for _, cc := range named(c) {
				if cc.Kind() == "case_clause" {
					m.Cases = append(m.Cases, l.matchCase(cc))
				}
			}
			continue
		}
		subjects = append(subjects, c)
	}
	m.Subject = l.exprOf(subjects)
	return m
}

func (l *lowerer) matchCase(n *sitter.Node) pyast.MatchCase {
	var mc pyast.MatchCase
	for _, c := range named(n) {
		switch c.Kind() {
		case "block":
			mc.Body = l.block(c)
		case "if_clause":
			mc.Guard = l.expr(firstNamed(c))
		default:
			if e := l.expr(c); e != nil {
				mc.Patterns = append(mc.Patterns, e)
			}
		}
	}
	return mc
}

func (l *lowerer) functionDef(n *sitter.Node) *pyast.FunctionDef {
	return &pyast.FunctionDef{
		Pos:     pos(n),
		Name:    l.text(n.ChildByFieldName("name")),
		Params:  l.params(n.ChildByFieldName("parameters")),
		Returns: l.expr(n.ChildByFieldName("return_type")),
		Body:    l.block(n.ChildByFieldName("body")),
		Async:   hasToken(n, "async"),
	}
}

func (l *lowerer) classDef(n *sitter.Node) *pyast.ClassDef {
	c := &pyast.ClassDef{
		Pos:  pos(n),
		Name: l.text(n.ChildByFieldName("name")),
		Body: l.block(n.ChildByFieldName("body")),
	}
	c.Bases, c.Keywords = l.arguments(n.ChildByFieldName("superclasses"))
	return c
}

func (l *lowerer) decorated(n *sitter.Node) pyast.Stmt {
	var decorators []pyast.Expr
	for _, c := range named(n) {
		if c.Kind() == "decorator" {
			if e := l.expr(firstNamed(c)); e != nil {
				decorators = append(decorators, e)
			}
		}
	}
	def := n.ChildByFieldName("definition")
	if def == nil {
		return &pyast.Other{Pos: pos(n), Kind: n.Kind(), Exprs: decorators}
	}
	switch def.Kind() {
	case "function_definition":
		fn := l.functionDef(def)
		fn.Decorators = decorators
		return fn
	case "class_definition":
		cls := l.classDef(def)
		cls.Decorators = decorators
		return cls
	}
	return &pyast.Other{Pos: pos(n), Kind: n.Kind(), Exprs: decorators, Body: []pyast.Stmt{l.stmt(def)}}
}

func (l *lowerer) params(n *sitter.Node) []pyast.Param {
	var out []pyast.Param
	for _, c := range named(n) {
		switch c.Kind() {
		case "identifier":
			out = append(out, pyast.Param{Name: l.text(c)})
		case "list_splat_pattern":
			out = append(out, pyast.Param{Name: l.text(firstNamed(c)), Kind: pyast.ParamVarArgs})
		case "dictionary_splat_pattern":
			out = append(out, pyast.Param{Name: l.text(firstNamed(c)), Kind: pyast.ParamKwArgs})
		case "typed_parameter":
			p := pyast.Param{Annotation: l.expr(c.ChildByFieldName("type"))}
			if inner := firstNamed(c); inner != nil {
				p.Name = l.text(inner)
				switch inner.Kind() {
				case "list_splat_pattern":
					p.Name, p.Kind = l.text(firstNamed(inner)), pyast.ParamVarArgs
				case "dictionary_splat_pattern":
					p.Name, p.Kind = l.text(firstNamed(inner)), pyast.ParamKwArgs
				}
			}
			out = append(out, p)
		case "default_parameter", "typed_default_parameter":
			out = append(out, pyast.Param{
				Name:       l.text(c.ChildByFieldName("name")),
				Annotation: l.expr(c.ChildByFieldName("type")),
				Default:    l.expr(c.ChildByFieldName("value")),
			})
		case "keyword_separator", "positional_separator":
		default:
			out = append(out, pyast.Param{Name: l.text(c)})
		}
	}
	return out
}

// arguments splits an argument_list into positional and keyword arguments.
func (l *lowerer) arguments(n *sitter.Node) ([]pyast.Expr, []pyast.Keyword) {
	if n == nil {
		return nil, nil
	}
	var args []pyast.Expr
	var kws []pyast.Keyword
	for _, c := range named(n) {
		switch c.Kind() {
		case "keyword_argument":
			kws = append(kws, pyast.Keyword{
				Arg:   l.text(c.ChildByFieldName("name")),
				Value: l.expr(c.ChildByFieldName("value")),
			})
		case "dictionary_splat":
			kws = append(kws, pyast.Keyword{Value: l.expr(firstNamed(c))})
		default:
			if e := l.expr(c); e != nil {
				args = append(args, e)
			}
		}
	}
	return args, kws
}

// exprOf lowers a sequence of sibling expressions, packing more than one
// into a tuple.
func (l *lowerer) exprOf(nodes []*sitter.Node) pyast.Expr {
	switch len(nodes) {
	case 0:
		return nil
	case 1:
		return l.expr(nodes[0])
	}
	t := &pyast.Tuple{Pos: pos(nodes[0])}
	for _, c := range nodes {
		if e := l.expr(c); e != nil {
			t.Elts = append(t.Elts, e)
		}
	}
	return t
}

func (l *lowerer) exprs(nodes []*sitter.Node) []pyast.Expr {
	var out []pyast.Expr
	for _, c := range nodes {
		if e := l.expr(c); e != nil {
			out = append(out, e)
		}
	}
	return out
}

// target lowers an assignment target with ctx applied to names and
// containers. Attribute and subscript targets keep their object in load
// position.
func (l *lowerer) target(n *sitter.Node, ctx pyast.Ctx) pyast.Expr {
	if n == nil {
		return nil
	}
	p := pos(n)
	switch n.Kind() {
	case "identifier":
		return &pyast.Name{Pos: p, ID: l.text(n), Ctx: ctx}
	case "attribute":
		return &pyast.Attribute{
			Pos:   p,
			Value: l.expr(n.ChildByFieldName("object")),
			Attr:  l.text(n.ChildByFieldName("attribute")),
			Ctx:   ctx,
		}
	case "subscript":
		s := l.subscript(n)
		s.Ctx = ctx
		return s
	case "tuple", "pattern_list", "tuple_pattern", "expression_list":
		return &pyast.Tuple{Pos: p, Elts: l.targetList(n, ctx), Ctx: ctx}
	case "list", "list_pattern":
		return &pyast.List{Pos: p, Elts: l.targetList(n, ctx), Ctx: ctx}
	case "list_splat_pattern", "list_splat":
		return &pyast.Starred{Pos: p, Value: l.target(firstNamed(n), ctx), Ctx: ctx}
	case "parenthesized_expression":
		return l.target(firstNamed(n), ctx)
	}
	return l.expr(n)
}

func (l *lowerer) targetList(n *sitter.Node, ctx pyast.Ctx) []pyast.Expr {
	switch n.Kind() {
	case "tuple", "pattern_list", "tuple_pattern", "expression_list", "list", "list_pattern":
		var out []pyast.Expr
		for _, c := range named(n) {
			if e := l.target(c, ctx); e != nil {
				out = append(out, e)
			}
		}
		return out
	}
	if e := l.target(n, ctx); e != nil {
		return []pyast.Expr{e}
	}
	return nil
}

func (l *lowerer) expr(n *sitter.Node) pyast.Expr {
	if n == nil || isTrivia(n) {
		return nil
	}
	p := pos(n)
	switch n.Kind() {
	case "identifier":
		return &pyast.Name{Pos: p, ID: l.text(n)}
	case "dotted_name":
		var e pyast.Expr
		for _, part := range named(n) {
			if e == nil {
				e = &pyast.Name{Pos: p, ID: l.text(part)}
				continue
			}
			e = &pyast.Attribute{Pos: p, Value: e, Attr: l.text(part)}
		}
		return e
	case "attribute":
		return &pyast.Attribute{
			Pos:   p,
			Value: l.expr(n.ChildByFieldName("object")),
			Attr:  l.text(n.ChildByFieldName("attribute")),
		}
	case "call":
		c := &pyast.Call{Pos: p, Func: l.expr(n.ChildByFieldName("function"))}
		args := n.ChildByFieldName("arguments")
		if args != nil && args.Kind() == "generator_expression" {
			c.Args = []pyast.Expr{l.expr(args)}
		} else {
			c.Args, c.Keywords = l.arguments(args)
		}
		return c
	case "list_splat", "list_splat_pattern":
		return &pyast.Starred{Pos: p, Value: l.expr(firstNamed(n))}
	case "dictionary_splat", "dictionary_splat_pattern":
		return &pyast.Starred{Pos: p, Value: l.expr(firstNamed(n)), Double: true}
	case "parenthesized_list_splat", "parenthesized_expression", "type", "decorator":
		return l.expr(firstNamed(n))
	case "binary_operator":
		return &pyast.BinOp{
			Pos:   p,
			Left:  l.expr(n.ChildByFieldName("left")),
			Op:    l.text(n.ChildByFieldName("operator")),
			Right: l.expr(n.ChildByFieldName("right")),
		}
	case "boolean_operator":
		return &pyast.BoolOp{
			Pos:    p,
			Op:     l.text(n.ChildByFieldName("operator")),
			Values: l.exprs([]*sitter.Node{n.ChildByFieldName("left"), n.ChildByFieldName("right")}),
		}
	case "not_operator":
		return &pyast.UnaryOp{Pos: p, Op: "not", Operand: l.expr(n.ChildByFieldName("argument"))}
	case "unary_operator":
		return &pyast.UnaryOp{
			Pos:     p,
			Op:      l.text(n.ChildByFieldName("operator")),
			Operand: l.expr(n.ChildByFieldName("argument")),
		}
	case "comparison_operator":
		return l.compare(n)
	case "subscript":
		return l.subscript(n)
	case "slice":
		return l.slice(n)
	case "list":
		return &pyast.List{Pos: p, Elts: l.exprs(named(n))}
	case "tuple", "expression_list", "pattern_list", "tuple_pattern":
		return &pyast.Tuple{Pos: p, Elts: l.exprs(named(n))}
	case "set":
		return &pyast.Set{Pos: p, Elts: l.exprs(named(n))}
	case "dictionary":
		return l.dict(n)
	case "lambda":
		return &pyast.Lambda{
			Pos:    p,
			Params: l.params(n.ChildByFieldName("parameters")),
			Body:   l.expr(n.ChildByFieldName("body")),
		}
	case "conditional_expression":
		kids := named(n)
		ie := &pyast.IfExp{Pos: p}
		if len(kids) == 3 {
			ie.Body, ie.Test, ie.Orelse = l.expr(kids[0]), l.expr(kids[1]), l.expr(kids[2])
		}
		return ie
	case "named_expression":
		return &pyast.NamedExpr{
			Pos:    p,
			Target: l.target(n.ChildByFieldName("name"), pyast.Store),
			Value:  l.expr(n.ChildByFieldName("value")),
		}
	case "await":
		return &pyast.Await{Pos: p, Value: l.expr(firstNamed(n))}
	case "yield":
		value := l.exprOf(named(n))
		if hasToken(n, "from") {
			return &pyast.YieldFrom{Pos: p, Value: value}
		}
		return &pyast.Yield{Pos: p, Value: value}
	case "list_comprehension":
		elt, gens := l.comprehension(n)
		return &pyast.ListComp{Pos: p, Elt: elt, Generators: gens}
	case "set_comprehension":
		elt, gens := l.comprehension(n)
		return &pyast.SetComp{Pos: p, Elt: elt, Generators: gens}
	case "generator_expression":
		elt, gens := l.comprehension(n)
		return &pyast.GeneratorExp{Pos: p, Elt: elt, Generators: gens}
	case "dictionary_comprehension":
		dc := &pyast.DictComp{Pos: p}
		if body := n.ChildByFieldName("body"); body != nil && body.Kind() == "pair" {
			dc.Key = l.expr(body.ChildByFieldName("key"))
			dc.Value = l.expr(body.ChildByFieldName("value"))
		}
		_, dc.Generators = l.comprehension(n)
		return dc
	case "string":
		return l.str(n)
	case "concatenated_string":
		return l.concatenated(n)
	case "integer", "float":
		return &pyast.Constant{Pos: p, Kind: pyast.ConstNumber, Value: l.text(n)}
	case "true", "false":
		return &pyast.Constant{Pos: p, Kind: pyast.ConstBool, Value: l.text(n)}
	case "none":
		return &pyast.Constant{Pos: p, Kind: pyast.ConstNone, Value: "None"}
	case "ellipsis":
		return &pyast.Constant{Pos: p, Kind: pyast.ConstEllipsis, Value: "..."}
	}
	return &pyast.Opaque{Pos: p, Kind: n.Kind(), Children: l.exprs(named(n))}
}

func (l *lowerer) compare(n *sitter.Node) pyast.Expr {
	c := &pyast.Compare{Pos: pos(n)}
	var operands []pyast.Expr
	var op []string
	for _, child := range children(n) {
		if !child.IsNamed() {
			op = append(op, l.text(child))
			continue
		}
		if len(op) > 0 {
			c.Ops = append(c.Ops, strings.Join(op, " "))
			op = nil
		}
		if e := l.expr(child); e != nil {
			operands = append(operands, e)
		}
	}
	if len(operands) > 0 {
		c.Left = operands[0]
		c.Comparators = operands[1:]
	}
	return c
}

func (l *lowerer) subscript(n *sitter.Node) *pyast.Subscript {
	value := n.ChildByFieldName("value")
	s := &pyast.Subscript{Pos: pos(n), Value: l.expr(value)}
	var index []*sitter.Node
	for _, c := range named(n) {
		if sameNode(c, value) {
			continue
		}
		index = append(index, c)
	}
	s.Index = l.exprOf(index)
	return s
}

func (l *lowerer) slice(n *sitter.Node) pyast.Expr {
	s := &pyast.Slice{Pos: pos(n)}
	part := 0
	for _, c := range children(n) {
		if !c.IsNamed() {
			if c.Kind() == ":" {
				part++
			}
			continue
		}
		e := l.expr(c)
		switch part {
		case 0:
			s.Lower = e
		case 1:
			s.Upper = e
		default:
			s.Step = e
		}
	}
	return s
}

func (l *lowerer) dict(n *sitter.Node) pyast.Expr {
	d := &pyast.Dict{Pos: pos(n)}
	for _, c := range named(n) {
		switch c.Kind() {
		case "pair":
			d.Keys = append(d.Keys, l.expr(c.ChildByFieldName("key")))
			d.Values = append(d.Values, l.expr(c.ChildByFieldName("value")))
		case "dictionary_splat":
			d.Keys = append(d.Keys, nil)
			d.Values = append(d.Values, l.expr(firstNamed(c)))
		}
	}
	return d
}

// comprehension returns the element expression and the for/if clauses of a
// list, set, dict or generator comprehension.
func (l *lowerer) comprehension(n *sitter.Node) (pyast.Expr, []pyast.Comprehension) {
	body := n.ChildByFieldName("body")
	var gens []pyast.Comprehension
	for _, c := range named(n) {
		switch c.Kind() {
		case "for_in_clause":
			gen := pyast.Comprehension{
				Target: l.target(c.ChildByFieldName("left"), pyast.Store),
				Async:  hasToken(c, "async"),
			}
			var iters []*sitter.Node
			afterIn := false
			for _, cc := range children(c) {
				if !cc.IsNamed() {
					if cc.Kind() == "in" {
						afterIn = true
					}
					continue
				}
				if afterIn {
					iters = append(iters, cc)
				}
			}
			gen.Iter = l.exprOf(iters)
			gens = append(gens, gen)
		case "if_clause":
			if len(gens) == 0 {
				continue
			}
			last := &gens[len(gens)-1]
			if e := l.expr(firstNamed(c)); e != nil {
				last.Ifs = append(last.Ifs, e)
			}
		}
	}
	if body != nil && body.Kind() == "pair" {
		return nil, gens
	}
	return l.expr(body), gens
}

func (l *lowerer) str(n *sitter.Node) pyast.Expr {
	prefix, body := splitLiteral(l.text(n))
	if strings.ContainsAny(prefix, "fFtT") {
		return &pyast.FString{Pos: pos(n), Values: l.interpolations(n)}
	}
	kind := pyast.ConstString
	if strings.ContainsAny(prefix, "bB") {
		kind = pyast.ConstBytes
	}
	value := body
	if !strings.ContainsAny(prefix, "rR") {
		value = decodeEscapes(body)
	}
	return &pyast.Constant{Pos: pos(n), Kind: kind, Value: value}
}

func (l *lowerer) interpolations(n *sitter.Node) []pyast.Expr {
	var out []pyast.Expr
	for _, c := range named(n) {
		switch c.Kind() {
		// format_expression is a nested {...} inside a format spec.
		case "interpolation", "format_expression":
			inner := c.ChildByFieldName("expression")
			if inner == nil {
				inner = firstNamed(c)
			}
			if e := l.expr(inner); e != nil {
				out = append(out, e)
			}
			for _, cc := range named(c) {
				if cc.Kind() == "format_specifier" {
					out = append(out, l.interpolations(cc)...)
				}
			}
		case "string_content", "format_specifier":
			out = append(out, l.interpolations(c)...)
		}
	}
	return out
}

func (l *lowerer) concatenated(n *sitter.Node) pyast.Expr {
	var parts []pyast.Expr
	formatted := false
	for _, c := range named(n) {
		e := l.expr(c)
		if _, ok := e.(*pyast.FString); ok {
			formatted = true
		}
		parts = append(parts, e)
	}
	if formatted {
		fs := &pyast.FString{Pos: pos(n)}
		for _, part := range parts {
			if f, ok := part.(*pyast.FString); ok {
				fs.Values = append(fs.Values, f.Values...)
			}
		}
		return fs
	}
	c := &pyast.Constant{Pos: pos(n), Kind: pyast.ConstString}
	var sb strings.Builder
	for _, part := range parts {
		if k, ok := part.(*pyast.Constant); ok {
			sb.WriteString(k.Value)
			if k.Kind == pyast.ConstBytes {
				c.Kind = pyast.ConstBytes
			}
		}
	}
	c.Value = sb.String()
	return c
}
