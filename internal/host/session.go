// Package host provides the tree services a source transform needs on top of
// a parsed file: removing nodes, replacing nodes with new source text,
// generating identifiers that are unique within the file, and adding
// imports. Edits are recorded against byte spans of the original source and
// applied together by Output.
package host

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"bennypowers.dev/hbsip/internal/jsast"
	sitter "github.com/tree-sitter/go-tree-sitter"
	"github.com/valyala/fasttemplate"
)

// Sentinel errors for edit failures
var (
	// ErrOverlappingEdit indicates an edit touches a span already edited
	ErrOverlappingEdit = errors.New("overlapping edit")

	// ErrInvalidReplacement indicates replacement text is not a single expression
	ErrInvalidReplacement = errors.New("replacement is not a valid expression")
)

var importTemplate = fasttemplate.New("import [binding] from '[source]';\n", "[", "]")

type edit struct {
	start, end int
	text       string
}

// Session records edits to one parsed file. It is not safe for concurrent use.
type Session struct {
	file  *jsast.File
	names map[string]struct{}
	edits []edit
}

// NewSession starts an edit session over f. Every identifier-like name
// already written in f is reserved, so GenerateUID never shadows or
// collides with program bindings.
func NewSession(f *jsast.File) *Session {
	s := &Session{
		file:  f,
		names: map[string]struct{}{},
	}
	f.Walk(func(n *sitter.Node) bool {
		switch n.Kind() {
		case jsast.KindIdentifier,
			jsast.KindPropertyIdentifier,
			jsast.KindShorthandProperty,
			jsast.KindShorthandPattern,
			jsast.KindStatementIdentifier:
			s.names[f.Text(n)] = struct{}{}
		}
		return true
	})
	return s
}

// GenerateUID returns hint followed by the smallest non-negative counter
// that yields a name not used anywhere in the file nor returned before.
func (s *Session) GenerateUID(hint string) string {
	for i := 0; ; i++ {
		name := hint + strconv.Itoa(i)
		if _, taken := s.names[name]; !taken {
			s.names[name] = struct{}{}
			return name
		}
	}
}

// AddDefaultImport inserts `import <uid> from '<source>';` ahead of the
// program's first statement and returns the generated binding name.
func (s *Session) AddDefaultImport(source, hint string) (string, error) {
	name := s.GenerateUID(hint)
	text := importTemplate.ExecuteString(map[string]any{
		"binding": name,
		"source":  escapeSingleQuoted(source),
	})

	at, needsNewline := s.importInsertionPoint()
	if needsNewline {
		text = "\n" + text
	}
	if err := s.add(edit{start: at, end: at, text: text}); err != nil {
		return "", err
	}
	return name, nil
}

// Remove deletes n. When n is the only thing on its line the whole line
// goes, so no blank line is left behind.
func (s *Session) Remove(n *sitter.Node) error {
	start, end := int(n.StartByte()), int(n.EndByte()) //nolint:gosec // G115: byte offsets are bounded by file size
	src := s.file.Source

	lineStart := s.lineStartOf(start)
	lineEnd := end
	for lineEnd < len(src) && (src[lineEnd] == ' ' || src[lineEnd] == '\t') {
		lineEnd++
	}
	atLineStart := lineStart == 0 || src[lineStart-1] == '\n'
	atLineEnd := lineEnd == len(src) || src[lineEnd] == '\n' || src[lineEnd] == '\r'
	if atLineStart && atLineEnd {
		start = lineStart
		end = lineEnd
		if end < len(src) && src[end] == '\r' {
			end++
		}
		if end < len(src) && src[end] == '\n' {
			end++
		}
	}

	return s.add(edit{start: start, end: end})
}

// ReplaceWithSource substitutes n with src, which must parse as a single
// JavaScript expression.
func (s *Session) ReplaceWithSource(n *sitter.Node, src string) error {
	parser := jsast.AcquireParser()
	valid := parser.IsExpression(src)
	jsast.ReleaseParser(parser)
	if !valid {
		return fmt.Errorf("%w: %s", ErrInvalidReplacement, truncate(src, 80))
	}

	return s.add(edit{
		start: int(n.StartByte()), //nolint:gosec // G115: byte offsets are bounded by file size
		end:   int(n.EndByte()),   //nolint:gosec // G115: byte offsets are bounded by file size
		text:  src,
	})
}

// Changed reports whether any edit has been recorded
func (s *Session) Changed() bool {
	return len(s.edits) > 0
}

// Output applies all recorded edits to the original source
func (s *Session) Output() string {
	edits := slices.Clone(s.edits)
	slices.SortStableFunc(edits, func(a, b edit) int {
		if a.start != b.start {
			return a.start - b.start
		}
		// Insertions go before a removal or replacement starting at the same offset
		return (a.end - a.start) - (b.end - b.start)
	})

	src := s.file.Source
	var b strings.Builder
	b.Grow(len(src))
	pos := 0
	for _, e := range edits {
		b.Write(src[pos:e.start])
		b.WriteString(e.text)
		pos = e.end
	}
	b.Write(src[pos:])
	return b.String()
}

func (s *Session) add(e edit) error {
	for _, prev := range s.edits {
		if e.start < prev.end && prev.start < e.end {
			return fmt.Errorf("%w: [%d,%d) overlaps [%d,%d)", ErrOverlappingEdit, e.start, e.end, prev.start, prev.end)
		}
	}
	s.edits = append(s.edits, e)
	return nil
}

// importInsertionPoint returns the offset of the first statement after any
// hashbang line, leading comments and directive prologue ("use strict").
// When the program has no such statement it returns the end of the file,
// reporting whether a newline must be written first.
func (s *Session) importInsertionPoint() (int, bool) {
	root := s.file.Root()
	for i := range root.NamedChildCount() {
		child := root.NamedChild(i)
		switch child.Kind() {
		case jsast.KindHashBangLine, jsast.KindComment:
			continue
		case jsast.KindExpressionStatement:
			if isDirective(child) {
				continue
			}
		}
		return s.lineStartOf(int(child.StartByte())), false //nolint:gosec // G115: byte offsets are bounded by file size
	}

	src := s.file.Source
	return len(src), len(src) > 0 && src[len(src)-1] != '\n'
}

// lineStartOf moves offset back over indentation to the start of its line,
// if only whitespace precedes it there.
func (s *Session) lineStartOf(offset int) int {
	src := s.file.Source
	i := offset
	for i > 0 && (src[i-1] == ' ' || src[i-1] == '\t') {
		i--
	}
	if i == 0 || src[i-1] == '\n' {
		return i
	}
	return offset
}

func isDirective(stmt *sitter.Node) bool {
	children := jsast.NamedChildren(stmt)
	return len(children) == 1 && children[0].Kind() == jsast.KindString
}

func escapeSingleQuoted(s string) string {
	return strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(s)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
