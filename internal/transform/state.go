package transform

import (
	sitter "github.com/tree-sitter/go-tree-sitter"

	"bennypowers.dev/hbsip/internal/host"
	"bennypowers.dev/hbsip/internal/jsast"
)

// fileState is the binding recorded from the designated import. Both names
// are set together, at most once per file.
type fileState struct {
	boundLocalName         string
	replacementBindingName string
	importNode             *sitter.Node
}

func (s *fileState) bound() bool {
	return s.boundLocalName != ""
}

func (s *fileState) bind(local, replacement string, importNode *sitter.Node) {
	s.boundLocalName = local
	s.replacementBindingName = replacement
	s.importNode = importNode
}

// references reports whether callee, ignoring parentheses, is a bare
// identifier naming the bound import
func (s *fileState) references(f *jsast.File, callee *sitter.Node) bool {
	callee = jsast.Unparen(callee)
	if !s.bound() || callee.Kind() != jsast.KindIdentifier {
		return false
	}
	return f.Text(callee) == s.boundLocalName
}

// fileContext carries everything one TransformFile call needs
type fileContext struct {
	plugin       *Plugin
	filename     string
	file         *jsast.File
	session      *host.Session
	state        fileState
	replacements int
}

func (c *fileContext) diagnostic(n *sitter.Node) Diagnostic {
	return newDiagnostic(c.filename, c.file.Source, n)
}
