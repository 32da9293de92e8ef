// Package codeframe renders the source excerpt shown under a diagnostic:
// a few numbered lines around the offending span, with the span itself
// underlined by carets.
package codeframe

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"bennypowers.dev/hbsip/internal/position"
)

const (
	linesAbove = 2
	linesBelow = 3
)

// Render returns a code frame for the byte span [start, end) of src.
//
//	  1 | import hbs from 'handlebars-inline-precompile';
//	> 2 | const t = hbs();
//	    |           ^^^^^
//	  3 |
func Render(src []byte, start, end int) string {
	if end < start {
		end = start
	}
	startLoc := position.Locate(src, start)
	endLoc := position.Locate(src, end)
	lines := position.Lines(src)

	first := max(startLoc.Line-linesAbove, 1)
	last := min(endLoc.Line+linesBelow, len(lines))
	width := len(fmt.Sprint(last))

	startCol := byteColumn(src, start)
	endCol := byteColumn(src, end)

	var b strings.Builder
	for n := first; n <= last; n++ {
		line := lines[n-1]
		gutter := fmt.Sprintf(" %*d |", width, n)
		if n > first {
			b.WriteByte('\n')
		}

		if n < startLoc.Line || n > endLoc.Line {
			b.WriteString(" " + gutter)
			if line != "" {
				b.WriteString(" " + line)
			}
			continue
		}

		b.WriteString(">" + gutter)
		if line != "" {
			b.WriteString(" " + line)
		}

		from, to := 0, len(line)
		if n == startLoc.Line {
			from = min(startCol, len(line))
		}
		if n == endLoc.Line {
			to = min(endCol, len(line))
		}
		carets := max(utf8.RuneCountInString(line[from:max(from, to)]), 1)
		b.WriteString("\n " + strings.Repeat(" ", width+2) + "| ")
		b.WriteString(spacing(line[:from]))
		b.WriteString(strings.Repeat("^", carets))
	}
	return b.String()
}

// byteColumn returns the byte offset of offset within its line.
func byteColumn(src []byte, offset int) int {
	offset = min(max(offset, 0), len(src))
	for i := offset - 1; i >= 0; i-- {
		if src[i] == '\n' {
			return offset - i - 1
		}
	}
	return offset
}

// spacing blanks every character of prefix except tabs, so carets line up
// under the marked text whatever the tab width.
func spacing(prefix string) string {
	var b strings.Builder
	for _, r := range prefix {
		if r == '\t' {
			b.WriteByte('\t')
		} else {
			b.WriteByte(' ')
		}
	}
	return b.String()
}
