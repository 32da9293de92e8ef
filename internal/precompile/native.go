package precompile

import (
	"github.com/aymerick/raymond/parser"
)

// compilerInfo is the revision pair handlebars/runtime >= 4.3 checks
const compilerInfo = `[8,">= 4.3.0"]`

// Native compiles templates in-process. Block parameters (`as |x|`),
// decorators and partial blocks are not supported and fail with an Error;
// use Node for templates that need them.
type Native struct{}

// NewNative returns the in-process precompiler
func NewNative() *Native {
	return &Native{}
}

// Precompile parses source and generates its template spec
func (n *Native) Precompile(source string) (string, error) {
	program, err := parser.Parse(source)
	if err != nil {
		return "", &Error{Backend: BackendNative, Message: err.Error()}
	}

	g := &generator{}
	spec, err := g.templateSpec(program)
	if err != nil {
		return "", &Error{Backend: BackendNative, Message: err.Error()}
	}
	return spec, nil
}
