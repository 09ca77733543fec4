package pyast

import "strings"

type Name struct {
	Pos
	ID  string
	Ctx Ctx
}

type Attribute struct {
	Pos
	Value Expr
	Attr  string
	Ctx   Ctx
}

type Call struct {
	Pos
	Func     Expr
	Args     []Expr
	Keywords []Keyword
}

// Starred is *x, or **x when Double is set.
type Starred struct {
	Pos
	Value  Expr
	Double bool
	Ctx    Ctx
}

type BinOp struct {
	Pos
	Left  Expr
	Op    string
	Right Expr
}

type BoolOp struct {
	Pos
	Op     string
	Values []Expr
}

type UnaryOp struct {
	Pos
	Op      string
	Operand Expr
}

type Compare struct {
	Pos
	Left        Expr
	Ops         []string
	Comparators []Expr
}

type Subscript struct {
	Pos
	Value Expr
	Index Expr
	Ctx   Ctx
}

type Slice struct {
	Pos
	Lower Expr
	Upper Expr
	Step  Expr
}

type List struct {
	Pos
	Elts []Expr
	Ctx  Ctx
}

type Tuple struct {
	Pos
	Elts []Expr
	Ctx  Ctx
}

type Set struct {
	Pos
	Elts []Expr
}

// Dict has a nil key for each **mapping entry.
type Dict struct {
	Pos
	Keys   []Expr
	Values []Expr
}

type Lambda struct {
	Pos
	Params []Param
	Body   Expr
}

type IfExp struct {
	Pos
	Test   Expr
	Body   Expr
	Orelse Expr
}

type ListComp struct {
	Pos
	Elt        Expr
	Generators []Comprehension
}

type SetComp struct {
	Pos
	Elt        Expr
	Generators []Comprehension
}

type GeneratorExp struct {
	Pos
	Elt        Expr
	Generators []Comprehension
}

type DictComp struct {
	Pos
	Key        Expr
	Value      Expr
	Generators []Comprehension
}

type Await struct {
	Pos
	Value Expr
}

type Yield struct {
	Pos
	Value Expr
}

type YieldFrom struct {
	Pos
	Value Expr
}

type NamedExpr struct {
	Pos
	Target Expr
	Value  Expr
}

type ConstKind int

const (
	ConstString ConstKind = iota
	ConstBytes
	ConstNumber
	ConstBool
	ConstNone
	ConstEllipsis
)

// Constant holds literal values. For strings and bytes Value is the
// decoded content without quotes or prefix.
type Constant struct {
	Pos
	Kind  ConstKind
	Value string
}

// FString keeps only the interpolated expressions.
type FString struct {
	Pos
	Values []Expr
}

// Opaque is a construct with no dedicated variant. Its named children are
// kept so nothing that might reference a name is lost.
type Opaque struct {
	Pos
	Kind     string
	Children []Expr
}

func (*Name) exprNode()         {}
func (*Attribute) exprNode()    {}
func (*Call) exprNode()         {}
func (*Starred) exprNode()      {}
func (*BinOp) exprNode()        {}
func (*BoolOp) exprNode()       {}
func (*UnaryOp) exprNode()      {}
func (*Compare) exprNode()      {}
func (*Subscript) exprNode()    {}
func (*Slice) exprNode()        {}
func (*List) exprNode()         {}
func (*Tuple) exprNode()        {}
func (*Set) exprNode()          {}
func (*Dict) exprNode()         {}
func (*Lambda) exprNode()       {}
func (*IfExp) exprNode()        {}
func (*ListComp) exprNode()     {}
func (*SetComp) exprNode()      {}
func (*GeneratorExp) exprNode() {}
func (*DictComp) exprNode()     {}
func (*Await) exprNode()        {}
func (*Yield) exprNode()        {}
func (*YieldFrom) exprNode()    {}
func (*NamedExpr) exprNode()    {}
func (*Constant) exprNode()     {}
func (*FString) exprNode()      {}
func (*Opaque) exprNode()       {}

// DottedName flattens a chain of attribute accesses on a plain name into
// dotted text. It reports false for anything else, such as a call in the
// chain.
func DottedName(e Expr) (string, bool) {
	var parts []string
	for {
		switch v := e.(type) {
		case *Name:
			parts = append(parts, v.ID)
			for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
				parts[i], parts[j] = parts[j], parts[i]
			}
			return strings.Join(parts, "."), true
		case *Attribute:
			parts = append(parts, v.Attr)
			e = v.Value
		default:
			return "", false
		}
	}
}

// StringValue returns the content of a string literal.
func StringValue(e Expr) (string, bool) {
	c, ok := e.(*Constant)
	if !ok || c.Kind != ConstString {
		return "", false
	}
	return c.Value, true
}
