package transform

import (
	sitter "github.com/tree-sitter/go-tree-sitter"
	"github.com/valyala/fasttemplate"

	"bennypowers.dev/hbsip/internal/log"
	"bennypowers.dev/hbsip/internal/position"
)

var replacementTemplate = fasttemplate.New("[binding].template([precompiled])", "[", "]")

// rewrite precompiles template and replaces node with a runtime call
func (c *fileContext) rewrite(node *sitter.Node, template string) error {
	precompiled, err := c.plugin.precompiler.Precompile(template)
	if err != nil {
		return err
	}

	replacement := replacementTemplate.ExecuteString(map[string]any{
		"binding":     c.state.replacementBindingName,
		"precompiled": precompiled,
	})
	if err := c.session.ReplaceWithSource(node, replacement); err != nil {
		return err
	}
	c.replacements++

	loc := position.Locate(c.file.Source, int(node.StartByte())) //nolint:gosec // G115: byte offsets are within file size
	log.Debug("%s:%d:%d: precompiled template", displayName(c.filename), loc.Line, loc.Column)
	return nil
}
