// # internal/engine/api/extract.go
package api

import (
	"strings"

	"pubscan/internal/engine/pyast"
)

// ExportListName is the module-level identifier whose string entries mark
// symbols public.
const ExportListName = "__all__"

// IsPrivateName reports whether name is private by convention: a leading
// underscore that is not part of a dunder.
func IsPrivateName(name string) bool {
	if !strings.HasPrefix(name, "_") {
		return false
	}
	return !(len(name) > 4 && strings.HasPrefix(name, "__") && strings.HasSuffix(name, "__"))
}

// ExtractSymbols collects the top-level definitions of one parsed file.
// Entries of the export list upgrade symbols of the same file to public
// once every statement has been seen, so the list may come before the
// definitions it names.
func ExtractSymbols(mod *pyast.Module, location, moduleName string) Candidates {
	found := make(Candidates)
	var exports []string

	define := func(name string, kind SymbolKind, doc *string) {
		found[name] = DefinedSymbol{
			Kind:               kind,
			Location:           location,
			Docstring:          doc,
			IsPublic:           !IsPrivateName(name),
			FullyQualifiedName: moduleName + "." + name,
		}
	}

	variable := func(target, value pyast.Expr) {
		name, ok := target.(*pyast.Name)
		if !ok {
			return
		}
		if name.ID == ExportListName {
			exports = append(exports, exportNames(value)...)
			return
		}
		define(name.ID, KindVariable, nil)
	}

	for _, stmt := range mod.Body {
		switch s := stmt.(type) {
		case *pyast.ClassDef:
			define(s.Name, KindClass, docstring(s.Body))
		case *pyast.FunctionDef:
			define(s.Name, KindFunction, docstring(s.Body))
		case *pyast.Assign:
			for _, t := range s.Targets {
				variable(t, s.Value)
			}
		case *pyast.AnnAssign:
			if s.Value != nil {
				variable(s.Target, s.Value)
			}
		case *pyast.AugAssign:
			if name, ok := s.Target.(*pyast.Name); ok && name.ID == ExportListName && s.Op == "+=" {
				exports = append(exports, exportNames(s.Value)...)
			}
		}
	}

	for _, name := range exports {
		if sym, ok := found[name]; ok {
			sym.IsPublic = true
			found[name] = sym
		}
	}
	return found
}

// exportNames reads a list or tuple of string literals. Non-literal entries
// are ignored.
func exportNames(value pyast.Expr) []string {
	var elts []pyast.Expr
	switch v := value.(type) {
	case *pyast.List:
		elts = v.Elts
	case *pyast.Tuple:
		elts = v.Elts
	default:
		return nil
	}
	names := make([]string, 0, len(elts))
	for _, e := range elts {
		if s, ok := pyast.StringValue(e); ok {
			names = append(names, s)
		}
	}
	return names
}

func docstring(body []pyast.Stmt) *string {
	if len(body) == 0 {
		return nil
	}
	expr, ok := body[0].(*pyast.ExprStmt)
	if !ok {
		return nil
	}
	if s, ok := pyast.StringValue(expr.Value); ok {
		return &s
	}
	return nil
}
