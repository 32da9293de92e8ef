package jsast

import (
	sitter "github.com/tree-sitter/go-tree-sitter"
)

// File is a parsed JavaScript source file
type File struct {
	// Source is the text the tree was parsed from
	Source []byte

	tree    *sitter.Tree
	imports []Import
}

// Close releases the syntax tree
func (f *File) Close() {
	if f.tree != nil {
		f.tree.Close()
		f.tree = nil
	}
}

// Root returns the program node
func (f *File) Root() *sitter.Node {
	return f.tree.RootNode()
}

// HasError reports whether tree-sitter had to recover from syntax errors
func (f *File) HasError() bool {
	return f.Root().HasError()
}

// FirstError returns the first ERROR or MISSING node in source order, or
// nil when the tree parsed cleanly.
func (f *File) FirstError() *sitter.Node {
	if !f.HasError() {
		return nil
	}
	var found *sitter.Node
	f.Walk(func(n *sitter.Node) bool {
		if found != nil {
			return false
		}
		if n.IsError() || n.IsMissing() {
			found = n
			return false
		}
		return n.HasError()
	})
	if found == nil {
		return f.Root()
	}
	return found
}

// Imports returns the top-level import declarations in source order
func (f *File) Imports() []Import {
	return f.imports
}

// Text returns the source text spanned by n
func (f *File) Text(n *sitter.Node) string {
	return string(f.Source[n.StartByte():n.EndByte()])
}

// Walk visits every node in source pre-order. Children of a node are
// skipped when visit returns false.
func (f *File) Walk(visit func(n *sitter.Node) bool) {
	cursor := f.tree.Walk()
	defer cursor.Close()

	for {
		if visit(cursor.Node()) && cursor.GotoFirstChild() {
			continue
		}
		for !cursor.GotoNextSibling() {
			if !cursor.GotoParent() {
				return
			}
		}
	}
}

// NamedChildren returns n's named children, leaving out comments
func NamedChildren(n *sitter.Node) []*sitter.Node {
	count := n.NamedChildCount()
	children := make([]*sitter.Node, 0, count)
	for i := range count {
		child := n.NamedChild(i)
		if child == nil || child.Kind() == KindComment {
			continue
		}
		children = append(children, child)
	}
	return children
}

// Unparen strips any parentheses wrapped around an expression
func Unparen(n *sitter.Node) *sitter.Node {
	for n.Kind() == KindParenthesizedExpression {
		children := NamedChildren(n)
		if len(children) != 1 {
			return n
		}
		n = children[0]
	}
	return n
}

// StringValue returns the cooked value of a string literal node
func (f *File) StringValue(n *sitter.Node) string {
	text := f.Text(n)
	if len(text) < 2 {
		return ""
	}
	return Cook(text[1:len(text)-1], false)
}

// TemplateValue returns the cooked text of a template_string node and the
// number of ${...} substitutions it contains. The text is the concatenation
// of the literal chunks.
func (f *File) TemplateValue(n *sitter.Node) (string, int) {
	substitutions := 0
	var chunks []*sitter.Node
	for i := range n.ChildCount() {
		child := n.Child(i)
		if child == nil {
			continue
		}
		if child.Kind() == KindTemplateSubstitution {
			substitutions++
			chunks = append(chunks, child)
		}
	}

	text := f.Text(n)
	if len(text) < 2 {
		return "", substitutions
	}
	if substitutions == 0 {
		return Cook(text[1:len(text)-1], true), 0
	}

	// Cook each literal chunk between substitutions separately
	var cooked string
	pos := n.StartByte() + 1
	for _, sub := range chunks {
		cooked += Cook(string(f.Source[pos:sub.StartByte()]), true)
		pos = sub.EndByte()
	}
	cooked += Cook(string(f.Source[pos:n.EndByte()-1]), true)
	return cooked, substitutions
}
