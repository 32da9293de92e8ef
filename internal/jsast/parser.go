package jsast

import (
	"errors"
	"fmt"
	"sync"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
)

// ErrNoTree is returned when tree-sitter produces no tree for the input
var ErrNoTree = errors.New("tree-sitter returned no syntax tree")

// Parser parses JavaScript (including JSX) into a File
type Parser struct {
	parser      *sitter.Parser
	importQuery *sitter.Query
}

var jsLang = sitter.NewLanguage(tree_sitter_javascript.Language())

// parserPool is a pool of reusable JS parsers
var parserPool = sync.Pool{
	New: func() any {
		parser := sitter.NewParser()
		if err := parser.SetLanguage(jsLang); err != nil {
			panic(fmt.Sprintf("failed to set JS language: %v", err))
		}

		// Import declarations only appear at the top level of a module.
		importQuery, qerr := sitter.NewQuery(jsLang, `
			(program
				(import_statement
					source: (string) @source) @import)
		`)
		if qerr != nil {
			panic(fmt.Sprintf("failed to compile import query: %v", qerr))
		}

		return &Parser{
			parser:      parser,
			importQuery: importQuery,
		}
	},
}

// AcquireParser gets a parser from the pool
func AcquireParser() *Parser {
	p := parserPool.Get().(*Parser)
	p.parser.Reset()
	return p
}

// ReleaseParser returns a parser to the pool
func ReleaseParser(p *Parser) {
	if p != nil {
		parserPool.Put(p)
	}
}

// Parse parses source into a File. The caller must Close the File.
// Syntax errors do not fail the parse; see File.HasError.
func (p *Parser) Parse(source []byte) (*File, error) {
	tree := p.parser.Parse(source, nil)
	if tree == nil {
		return nil, ErrNoTree
	}

	f := &File{Source: source, tree: tree}
	f.imports = p.findImports(f)
	return f, nil
}

// findImports collects the file's import declarations with their source strings
func (p *Parser) findImports(f *File) []Import {
	cursor := sitter.NewQueryCursor()
	defer cursor.Close()

	var imports []Import
	matches := cursor.Matches(p.importQuery, f.Root(), f.Source)
	for match := matches.Next(); match != nil; match = matches.Next() {
		var imp Import
		for _, capture := range match.Captures {
			node := capture.Node
			switch p.importQuery.CaptureNames()[capture.Index] {
			case "import":
				imp.Node = &node
			case "source":
				imp.Source = f.StringValue(&node)
			}
		}
		if imp.Node != nil {
			imports = append(imports, imp)
		}
	}
	return imports
}

// IsExpression reports whether src parses, on its own, as a single
// JavaScript expression with no syntax errors.
func (p *Parser) IsExpression(src string) bool {
	tree := p.parser.Parse([]byte("(\n"+src+"\n)"), nil)
	if tree == nil {
		return false
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() || root.NamedChildCount() != 1 {
		return false
	}
	return root.NamedChild(0).Kind() == KindExpressionStatement
}
