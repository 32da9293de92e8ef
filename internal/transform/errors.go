package transform

import (
	"errors"
	"fmt"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"bennypowers.dev/hbsip/internal/codeframe"
	"bennypowers.dev/hbsip/internal/position"
)

// Sentinel errors for error type checking
var (
	// ErrUnsupportedImport indicates the designated module was imported in a
	// form other than a single default import
	ErrUnsupportedImport = errors.New("unsupported import form")

	// ErrInvalidArguments indicates a call that does not pass exactly one
	// string literal
	ErrInvalidArguments = errors.New("invalid template arguments")

	// ErrInterpolation indicates a tagged template with ${} placeholders
	ErrInterpolation = errors.New("template interpolation not supported")

	// ErrDuplicateImport indicates the designated module was imported twice
	// in one file
	ErrDuplicateImport = errors.New("duplicate import")

	// ErrSyntax indicates the file is not valid JavaScript
	ErrSyntax = errors.New("syntax error")
)

// Diagnostic locates a rejected construct in the transformed file
type Diagnostic struct {
	Filename string
	// Loc is the start of the offending node
	Loc position.Location
	// Source is the offending node's text
	Source string
	// Frame is a code frame pointing at the node
	Frame string
}

func (d Diagnostic) format(message string) string {
	return fmt.Sprintf("%s:%d:%d: %s\n%s", displayName(d.Filename), d.Loc.Line, d.Loc.Column, message, d.Frame)
}

func newDiagnostic(filename string, src []byte, n *sitter.Node) Diagnostic {
	start, end := int(n.StartByte()), int(n.EndByte()) //nolint:gosec // G115: byte offsets are within file size
	return Diagnostic{
		Filename: filename,
		Loc:      position.Locate(src, start),
		Source:   string(src[start:end]),
		Frame:    codeframe.Render(src, start, end),
	}
}

// ShapeError reports an import of the designated module that is not a
// single default import
type ShapeError struct {
	Diagnostic
}

// Message is the error text without location or frame
func (e *ShapeError) Message() string {
	return fmt.Sprintf("Only `import hbs from '%s'` is supported. You used: `%s`", ImportName, e.Source)
}

func (e *ShapeError) Error() string {
	return e.format(e.Message())
}

func (e *ShapeError) Unwrap() error {
	return ErrUnsupportedImport
}

// ArgumentShapeError reports a call of the bound name without exactly one
// string literal argument
type ArgumentShapeError struct {
	Diagnostic
	// Callee is the local name the call was made through
	Callee string
}

// Message is the error text without location or frame
func (e *ArgumentShapeError) Message() string {
	return fmt.Sprintf("%s should be invoked with a single argument: the template string", e.Callee)
}

func (e *ArgumentShapeError) Error() string {
	return e.format(e.Message())
}

func (e *ArgumentShapeError) Unwrap() error {
	return ErrInvalidArguments
}

// InterpolationNotSupportedError reports a tagged template containing
// placeholders
type InterpolationNotSupportedError struct {
	Diagnostic
}

// Message is the error text without location or frame
func (e *InterpolationNotSupportedError) Message() string {
	return "placeholders inside a tagged template string are not supported"
}

func (e *InterpolationNotSupportedError) Error() string {
	return e.format(e.Message())
}

func (e *InterpolationNotSupportedError) Unwrap() error {
	return ErrInterpolation
}

// SyntaxError reports the first place the parser could not make sense of
type SyntaxError struct {
	Diagnostic
	// Missing is the token the parser expected, empty for unexpected input
	Missing string
}

// Message is the error text without location or frame
func (e *SyntaxError) Message() string {
	if e.Missing != "" {
		return fmt.Sprintf("Syntax error: missing %s", e.Missing)
	}
	return "Syntax error: unexpected token"
}

func (e *SyntaxError) Error() string {
	return e.format(e.Message())
}

func (e *SyntaxError) Unwrap() error {
	return ErrSyntax
}

// DuplicateImportError reports a second import of the designated module
type DuplicateImportError struct {
	Diagnostic
	// Binding is the local name of the first import
	Binding string
	// First is where the first import starts
	First position.Location
}

// Message is the error text without location or frame
func (e *DuplicateImportError) Message() string {
	return fmt.Sprintf("'%s' may only be imported once per file; it is already imported as `%s` at %d:%d",
		ImportName, e.Binding, e.First.Line, e.First.Column)
}

func (e *DuplicateImportError) Error() string {
	return e.format(e.Message())
}

func (e *DuplicateImportError) Unwrap() error {
	return ErrDuplicateImport
}
