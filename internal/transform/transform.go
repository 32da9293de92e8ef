package transform

import (
	"fmt"
	"os"

	"bennypowers.dev/hbsip/internal/host"
	"bennypowers.dev/hbsip/internal/jsast"
	"bennypowers.dev/hbsip/internal/precompile"
)

const (
	// ImportName is the module specifier the transform intercepts
	ImportName = "handlebars-inline-precompile"
	// RuntimeModule provides template() for the rewritten code
	RuntimeModule = "handlebars/runtime"

	runtimeUIDHint = "Handlebars"
	templateExt    = ".hbs"
)

// FileSystem reads template files referenced by hbs('file.hbs')
type FileSystem interface {
	ReadFile(name string) ([]byte, error)
}

type osFS struct{}

func (osFS) ReadFile(name string) ([]byte, error) {
	return os.ReadFile(name) //nolint:gosec // G304: template paths come from the project's own sources
}

// Options configures a Plugin
type Options struct {
	// Precompiler compiles template source; defaults to precompile.NewNative()
	Precompiler precompile.Precompiler
	// FS reads .hbs files; defaults to the OS file system
	FS FileSystem
}

// Plugin is the transform. It holds no per-file state and is safe for
// concurrent use on different files.
type Plugin struct {
	precompiler precompile.Precompiler
	fs          FileSystem
}

// New creates a Plugin
func New(opts Options) *Plugin {
	p := &Plugin{
		precompiler: opts.Precompiler,
		fs:          opts.FS,
	}
	if p.precompiler == nil {
		p.precompiler = precompile.NewNative()
	}
	if p.fs == nil {
		p.fs = osFS{}
	}
	return p
}

// Result is the outcome of transforming one file
type Result struct {
	// Code is the transformed source, or the original when nothing changed
	Code string
	// Changed reports whether Code differs from the input
	Changed bool
	// Binding is the generated name of the runtime import, if one was added
	Binding string
	// Replacements counts the templates rewritten
	Replacements int
}

// TransformFile rewrites source, the contents of filename. filename locates
// .hbs files referenced by the module and labels diagnostics. On error no
// output is produced.
func (p *Plugin) TransformFile(filename string, source []byte) (*Result, error) {
	parser := jsast.AcquireParser()
	file, err := parser.Parse(source)
	jsast.ReleaseParser(parser)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", displayName(filename), err)
	}
	defer file.Close()

	if !importsDesignatedModule(file) {
		return &Result{Code: string(source)}, nil
	}

	if n := file.FirstError(); n != nil {
		err := &SyntaxError{Diagnostic: newDiagnostic(filename, source, n)}
		if n.IsMissing() {
			err.Missing = n.Kind()
		}
		return nil, err
	}

	c := &fileContext{
		plugin:   p,
		filename: filename,
		file:     file,
		session:  host.NewSession(file),
	}
	if err := c.traverse(); err != nil {
		return nil, err
	}

	return &Result{
		Code:         c.session.Output(),
		Changed:      c.session.Changed(),
		Binding:      c.state.replacementBindingName,
		Replacements: c.replacements,
	}, nil
}

// importsDesignatedModule is a cheap pre-check: without the import no node
// can match, so the file is returned untouched.
func importsDesignatedModule(f *jsast.File) bool {
	for _, imp := range f.Imports() {
		if imp.Source == ImportName {
			return true
		}
	}
	return false
}

func displayName(filename string) string {
	if filename == "" {
		return "<input>"
	}
	return filename
}
