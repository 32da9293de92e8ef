package precompile

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

//go:embed node_precompile.js
var nodePrecompileSource string

// Node compiles templates with the handlebars package of a JavaScript
// project, by running a node process per template. The package is resolved
// from Dir, falling back to node's global resolution.
type Node struct {
	// Binary is the resolved path of the node executable
	Binary string
	// Dir is the working directory handlebars is resolved from
	Dir string
}

// NewNode resolves binary (default "node") on PATH. A missing binary fails
// here, not on the first template.
func NewNode(binary, dir string) (*Node, error) {
	if binary == "" {
		binary = "node"
	}
	path, err := exec.LookPath(binary)
	if err != nil {
		return nil, fmt.Errorf("node precompiler unavailable: %w", err)
	}
	return &Node{Binary: path, Dir: dir}, nil
}

// Precompile feeds source to Handlebars.precompile on stdin and returns
// its output. Failures reported by handlebars become an *Error carrying
// its message; failures to run node are returned wrapped.
func (n *Node) Precompile(source string) (string, error) {
	cmd := exec.Command(n.Binary, "-e", nodePrecompileSource) //nolint:gosec // G204: binary is configured by the project owner
	cmd.Dir = n.Dir
	cmd.Stdin = strings.NewReader(source)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && stderr.Len() > 0 {
			return "", &Error{Backend: BackendNode, Message: strings.TrimSpace(stderr.String())}
		}
		return "", fmt.Errorf("failed to run %s: %w", n.Binary, err)
	}

	return strings.TrimSpace(stdout.String()), nil
}
