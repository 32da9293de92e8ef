// Package precompile turns Handlebars template source into the JavaScript
// template spec accepted by handlebars/runtime's template() function.
//
// Two backends are available. Native compiles in-process and covers the
// commonly used Handlebars syntax; Node delegates to the handlebars package
// installed in the project, for full fidelity with the JavaScript compiler.
package precompile

import "fmt"

// Precompiler compiles template source into a JavaScript expression.
// Implementations must be safe for concurrent use.
type Precompiler interface {
	Precompile(source string) (string, error)
}

// Error is a template compilation failure reported by a backend
type Error struct {
	// Backend names the compiler that failed ("native" or "node")
	Backend string
	// Message is the compiler's own description of the failure
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s precompile failed: %s", e.Backend, e.Message)
}

// Backend names accepted by New
const (
	BackendNative = "native"
	BackendNode   = "node"
)

// New selects a precompiler backend. The empty backend selects Native.
// For BackendNode, nodeBinary and dir configure NewNode.
func New(backend, nodeBinary, dir string) (Precompiler, error) {
	switch backend {
	case "", BackendNative:
		return NewNative(), nil
	case BackendNode:
		return NewNode(nodeBinary, dir)
	}
	return nil, fmt.Errorf("unknown precompiler backend %q (want %q or %q)", backend, BackendNative, BackendNode)
}

// Func adapts an ordinary function to the Precompiler interface
type Func func(source string) (string, error)

// Precompile calls f(source)
func (f Func) Precompile(source string) (string, error) {
	return f(source)
}
