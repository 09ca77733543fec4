// # internal/engine/parser/parser.go
package parser

import (
	"fmt"
	"os"

	"pubscan/internal/core/errors"
	"pubscan/internal/engine/pyast"
)

// Parser turns Python source into a pyast.Module. A Parser is safe for
// concurrent use; each call leases its own tree-sitter parser from the pool.
type Parser struct {
	pool *ParserPool
}

func New() *Parser {
	return &Parser{pool: NewParserPool(PythonLanguage())}
}

// ParseFile reads and parses path. Read failures carry CodeIO.
func (p *Parser) ParseFile(path string) (*pyast.Module, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.AddContext(errors.Wrap(err, errors.CodeIO, "read source file"), errors.CtxPath, path)
	}
	return p.Parse(path, content)
}

// Parse parses content. A tree containing syntax errors is rejected with
// CodeParse rather than lowered partially.
func (p *Parser) Parse(path string, content []byte) (*pyast.Module, error) {
	sp := p.pool.Get()
	defer p.pool.Put(sp)

	tree := sp.Parse(content, nil)
	if tree == nil {
		return nil, errors.AddContext(errors.New(errors.CodeParse, "parser returned no tree"), errors.CtxPath, path)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		line := firstErrorLine(root)
		return nil, errors.AddContext(errors.New(errors.CodeParse, fmt.Sprintf("syntax error near line %d", line)), errors.CtxPath, path)
	}

	l := &lowerer{src: content}
	return &pyast.Module{Path: path, Body: l.block(root)}, nil
}

// Leased returns the number of tree-sitter parsers currently in use.
func (p *Parser) Leased() int {
	return p.pool.Stats()
}
