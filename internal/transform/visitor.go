package transform

import (
	sitter "github.com/tree-sitter/go-tree-sitter"

	"bennypowers.dev/hbsip/internal/jsast"
)

// visitNode is one of the node shapes the transform handles:
// importDeclaration, callExpression or taggedTemplate.
type visitNode interface {
	visitNode()
}

type importDeclaration struct {
	node   *sitter.Node
	source string
}

// callExpression is callee(args...)
type callExpression struct {
	node   *sitter.Node
	callee *sitter.Node
	args   *sitter.Node
}

// taggedTemplate is tag`quasi`
type taggedTemplate struct {
	node  *sitter.Node
	tag   *sitter.Node
	quasi *sitter.Node
}

func (importDeclaration) visitNode() {}
func (callExpression) visitNode()    {}
func (taggedTemplate) visitNode()    {}

// classify maps a syntax node to a visitNode. Imports are not classified
// here; they are visited up front from the file's import list.
func classify(n *sitter.Node) (visitNode, bool) {
	if n.Kind() != jsast.KindCallExpression {
		return nil, false
	}
	if n.ChildByFieldName("optional_chain") != nil {
		return nil, false
	}
	callee := n.ChildByFieldName("function")
	args := n.ChildByFieldName("arguments")
	if callee == nil || args == nil {
		return nil, false
	}
	switch args.Kind() {
	case jsast.KindTemplateString:
		return taggedTemplate{node: n, tag: callee, quasi: args}, true
	case jsast.KindArguments:
		return callExpression{node: n, callee: callee, args: args}, true
	}
	return nil, false
}

// traverse visits the file's imports, then every other node in pre-order.
// Rewritten nodes are not descended into.
func (c *fileContext) traverse() error {
	for _, imp := range c.file.Imports() {
		if _, err := c.visit(importDeclaration{node: imp.Node, source: imp.Source}); err != nil {
			return err
		}
	}

	var err error
	c.file.Walk(func(n *sitter.Node) bool {
		if err != nil {
			return false
		}
		if n.Kind() == jsast.KindImportStatement {
			return false
		}
		v, ok := classify(n)
		if !ok {
			return true
		}
		rewritten, verr := c.visit(v)
		if verr != nil {
			err = verr
			return false
		}
		return !rewritten
	})
	return err
}

// visit dispatches v to its handler and reports whether v was replaced
func (c *fileContext) visit(v visitNode) (bool, error) {
	switch v := v.(type) {
	case importDeclaration:
		return false, c.bindImport(v)
	case callExpression:
		if !c.state.references(c.file, v.callee) {
			return false, nil
		}
		template, err := c.resolveCall(v)
		if err != nil {
			return false, err
		}
		return true, c.rewrite(v.node, template)
	case taggedTemplate:
		if !c.state.references(c.file, v.tag) {
			return false, nil
		}
		template, err := c.resolveTagged(v)
		if err != nil {
			return false, err
		}
		return true, c.rewrite(v.node, template)
	}
	return false, nil
}
