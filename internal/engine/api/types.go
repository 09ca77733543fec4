// # internal/engine/api/types.go
package api

import (
	"fmt"
	"sort"
)

// SymbolKind classifies a top-level definition. The declaration order is
// the order in which text output groups symbols.
type SymbolKind int

const (
	KindClass SymbolKind = iota
	KindFunction
	KindVariable
	KindModule
	KindOther
)

// KindOrder lists every kind in report order.
var KindOrder = []SymbolKind{KindClass, KindFunction, KindVariable, KindModule, KindOther}

func (k SymbolKind) String() string {
	switch k {
	case KindClass:
		return "class"
	case KindFunction:
		return "function"
	case KindVariable:
		return "variable"
	case KindModule:
		return "module"
	default:
		return "other"
	}
}

func (k SymbolKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *SymbolKind) UnmarshalText(b []byte) error {
	for _, kind := range KindOrder {
		if kind.String() == string(b) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown symbol kind %q", string(b))
}

// DefinedSymbol is a top-level definition found in a target file.
type DefinedSymbol struct {
	Kind               SymbolKind
	Location           string
	Docstring          *string
	IsPublic           bool
	FullyQualifiedName string
}

// Candidates maps bare names to their definitions. Keys are unique across
// all target files; a later definition replaces an earlier one.
type Candidates map[string]DefinedSymbol

func (c Candidates) Has(name string) bool {
	_, ok := c[name]
	return ok
}

// APISymbol is a candidate with at least one external usage.
type APISymbol struct {
	Name       string
	Definition DefinedSymbol
	UsageCount int
	// Importers is sorted.
	Importers []string
}

// Boundary is the set of canonical paths inside the target.
type Boundary map[string]struct{}

func (b Boundary) Contains(path string) bool {
	_, ok := b[path]
	return ok
}

// Paths returns the boundary members sorted.
func (b Boundary) Paths() []string {
	out := make([]string, 0, len(b))
	for p := range b {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
