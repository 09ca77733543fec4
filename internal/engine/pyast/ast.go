// Package pyast is a closed syntax-tree model for Python source.
//
// Every statement kind implements Stmt and every expression kind implements
// Expr. The marker methods are unexported so the variant set cannot grow
// outside this package; consumers switch over the concrete types.
package pyast

// Pos is the 1-based source line a node starts on.
type Pos struct {
	Line int
}

func (p Pos) Position() int { return p.Line }

type Node interface {
	Position() int
}

type Stmt interface {
	Node
	stmtNode()
}

type Expr interface {
	Node
	exprNode()
}

// Ctx tells whether a name or container is read, bound or deleted.
type Ctx int

const (
	Load Ctx = iota
	Store
	Del
)

func (c Ctx) String() string {
	switch c {
	case Store:
		return "store"
	case Del:
		return "del"
	default:
		return "load"
	}
}

// Module is a parsed source file.
type Module struct {
	Path string
	Body []Stmt
}

// Alias is one name in an import statement. AsName is empty when no
// "as" clause was given.
type Alias struct {
	Name   string
	AsName string
}

// Bound returns the local name the alias binds.
func (a Alias) Bound() string {
	if a.AsName != "" {
		return a.AsName
	}
	return a.Name
}

type ParamKind int

const (
	ParamPlain ParamKind = iota
	ParamVarArgs
	ParamKwArgs
)

type Param struct {
	Name       string
	Kind       ParamKind
	Annotation Expr
	Default    Expr
}

type Keyword struct {
	// Arg is empty for a **mapping argument.
	Arg   string
	Value Expr
}

type WithItem struct {
	Context Expr
	Vars    Expr
}

type ExceptHandler struct {
	Type Expr
	Name string
	Body []Stmt
}

type MatchCase struct {
	Patterns []Expr
	Guard    Expr
	Body     []Stmt
}

type Comprehension struct {
	Target Expr
	Iter   Expr
	Ifs    []Expr
	Async  bool
}
