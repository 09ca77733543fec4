package pyast

type ExprStmt struct {
	Pos
	Value Expr
}

// Assign holds every target of a chained assignment, left to right.
type Assign struct {
	Pos
	Targets []Expr
	Value   Expr
}

// AnnAssign has a nil Value for a bare annotation.
type AnnAssign struct {
	Pos
	Target     Expr
	Annotation Expr
	Value      Expr
}

type AugAssign struct {
	Pos
	Target Expr
	Op     string
	Value  Expr
}

type Return struct {
	Pos
	Value Expr
}

type Delete struct {
	Pos
	Targets []Expr
}

type Raise struct {
	Pos
	Exc   Expr
	Cause Expr
}

type Assert struct {
	Pos
	Test Expr
	Msg  Expr
}

// If models elif chains as a nested If in Orelse.
type If struct {
	Pos
	Test   Expr
	Body   []Stmt
	Orelse []Stmt
}

type For struct {
	Pos
	Target Expr
	Iter   Expr
	Body   []Stmt
	Orelse []Stmt
	Async  bool
}

type While struct {
	Pos
	Test   Expr
	Body   []Stmt
	Orelse []Stmt
}

type With struct {
	Pos
	Items []WithItem
	Body  []Stmt
	Async bool
}

type Try struct {
	Pos
	Body     []Stmt
	Handlers []ExceptHandler
	Orelse   []Stmt
	Finally  []Stmt
}

type Match struct {
	Pos
	Subject Expr
	Cases   []MatchCase
}

type FunctionDef struct {
	Pos
	Name       string
	Params     []Param
	Returns    Expr
	Body       []Stmt
	Decorators []Expr
	Async      bool
}

type ClassDef struct {
	Pos
	Name       string
	Bases      []Expr
	Keywords   []Keyword
	Body       []Stmt
	Decorators []Expr
}

type Import struct {
	Pos
	Names []Alias
}

// ImportFrom keeps the module path without its leading dots; Level counts
// them.
type ImportFrom struct {
	Pos
	Module   string
	Level    int
	Names    []Alias
	Wildcard bool
}

type Global struct {
	Pos
	Names []string
}

type Nonlocal struct {
	Pos
	Names []string
}

type Pass struct{ Pos }

type Break struct{ Pos }

type Continue struct{ Pos }

type TypeAlias struct {
	Pos
	Name  Expr
	Value Expr
}

// Other carries statements without a dedicated variant, such as the
// Python 2 print and exec statements.
type Other struct {
	Pos
	Kind  string
	Exprs []Expr
	Body  []Stmt
}

func (*ExprStmt) stmtNode()    {}
func (*Assign) stmtNode()      {}
func (*AnnAssign) stmtNode()   {}
func (*AugAssign) stmtNode()   {}
func (*Return) stmtNode()      {}
func (*Delete) stmtNode()      {}
func (*Raise) stmtNode()       {}
func (*Assert) stmtNode()      {}
func (*If) stmtNode()          {}
func (*For) stmtNode()         {}
func (*While) stmtNode()       {}
func (*With) stmtNode()        {}
func (*Try) stmtNode()         {}
func (*Match) stmtNode()       {}
func (*FunctionDef) stmtNode() {}
func (*ClassDef) stmtNode()    {}
func (*Import) stmtNode()      {}
func (*ImportFrom) stmtNode()  {}
func (*Global) stmtNode()      {}
func (*Nonlocal) stmtNode()    {}
func (*Pass) stmtNode()        {}
func (*Break) stmtNode()       {}
func (*Continue) stmtNode()    {}
func (*TypeAlias) stmtNode()   {}
func (*Other) stmtNode()       {}
