package transform

import (
	sitter "github.com/tree-sitter/go-tree-sitter"

	"bennypowers.dev/hbsip/internal/jsast"
	"bennypowers.dev/hbsip/internal/log"
	"bennypowers.dev/hbsip/internal/position"
)

// bindImport validates an import of the designated module, swaps it for a
// default import of the runtime module and records both names.
func (c *fileContext) bindImport(d importDeclaration) error {
	if d.source != ImportName {
		return nil
	}

	specifier, ok := defaultSpecifier(d.node)
	if !ok {
		return &ShapeError{Diagnostic: c.diagnostic(d.node)}
	}

	if c.state.bound() {
		start := int(c.state.importNode.StartByte()) //nolint:gosec // G115: byte offsets are within file size
		return &DuplicateImportError{
			Diagnostic: c.diagnostic(d.node),
			Binding:    c.state.boundLocalName,
			First:      position.Locate(c.file.Source, start),
		}
	}

	binding, err := c.session.AddDefaultImport(RuntimeModule, runtimeUIDHint)
	if err != nil {
		return err
	}
	if err := c.session.Remove(d.node); err != nil {
		return err
	}

	local := c.file.Text(specifier)
	c.state.bind(local, binding, d.node)
	log.Debug("%s: bound %s, runtime imported as %s", displayName(c.filename), local, binding)
	return nil
}

// defaultSpecifier returns the identifier of `import X from '...'`, and
// false for any other import form.
func defaultSpecifier(importNode *sitter.Node) (*sitter.Node, bool) {
	var clause *sitter.Node
	for _, child := range jsast.NamedChildren(importNode) {
		if child.Kind() == jsast.KindImportClause {
			clause = child
			break
		}
	}
	if clause == nil {
		return nil, false
	}
	specifiers := jsast.NamedChildren(clause)
	if len(specifiers) != 1 || specifiers[0].Kind() != jsast.KindIdentifier {
		return nil, false
	}
	return specifiers[0], true
}
