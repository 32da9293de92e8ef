package transform

import (
	"path/filepath"
	"strings"

	"bennypowers.dev/hbsip/internal/jsast"
)

// resolveCall returns the template source for hbs('...'). A literal ending
// in .hbs names a file relative to the module being transformed.
func (c *fileContext) resolveCall(call callExpression) (string, error) {
	args := jsast.NamedChildren(call.args)
	if len(args) != 1 || jsast.Unparen(args[0]).Kind() != jsast.KindString {
		return "", &ArgumentShapeError{
			Diagnostic: c.diagnostic(call.node),
			Callee:     c.file.Text(jsast.Unparen(call.callee)),
		}
	}

	template := c.file.StringValue(jsast.Unparen(args[0]))
	if !strings.HasSuffix(template, templateExt) {
		return template, nil
	}

	path := template
	if !filepath.IsAbs(path) {
		path = filepath.Join(filepath.Dir(c.filename), path)
	}
	data, err := c.plugin.fs.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// resolveTagged returns the cooked text of hbs`...`
func (c *fileContext) resolveTagged(t taggedTemplate) (string, error) {
	text, substitutions := c.file.TemplateValue(t.quasi)
	if substitutions > 0 {
		return "", &InterpolationNotSupportedError{Diagnostic: c.diagnostic(t.node)}
	}
	return text, nil
}
