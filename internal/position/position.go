// Package position converts byte offsets in JavaScript source into the
// line/column pairs used in diagnostics. Columns are counted in UTF-16 code
// units, the way JavaScript tooling reports them.
package position

import (
	"bytes"
	"unicode/utf16"
	"unicode/utf8"
)

// Location is a point in a source file.
type Location struct {
	// Line is 1-based
	Line int
	// Column is 0-based, in UTF-16 code units
	Column int
}

// Locate returns the Location of byteOffset in src. Offsets past the end of
// src are clamped to the end.
func Locate(src []byte, byteOffset int) Location {
	if byteOffset < 0 {
		byteOffset = 0
	}
	if byteOffset > len(src) {
		byteOffset = len(src)
	}

	before := src[:byteOffset]
	line := bytes.Count(before, []byte{'\n'}) + 1
	lineStart := bytes.LastIndexByte(before, '\n') + 1

	return Location{
		Line:   line,
		Column: ByteOffsetToUTF16(string(src[lineStart:]), byteOffset-lineStart),
	}
}

// Lines splits src into lines without their terminators. A trailing "\r"
// from CRLF endings is dropped.
func Lines(src []byte) []string {
	raw := bytes.Split(src, []byte{'\n'})
	lines := make([]string, len(raw))
	for i, l := range raw {
		lines[i] = string(bytes.TrimSuffix(l, []byte{'\r'}))
	}
	return lines
}

// ByteOffsetToUTF16 converts a byte offset to a UTF-16 code unit offset in a string.
// Characters above U+FFFF count as two units.
func ByteOffsetToUTF16(s string, byteOffset int) int {
	if byteOffset <= 0 {
		return 0
	}
	if byteOffset > len(s) {
		byteOffset = len(s)
	}

	utf16Count := 0
	currentOffset := 0

	for currentOffset < byteOffset {
		r, size := utf8.DecodeRuneInString(s[currentOffset:])
		if r == utf8.RuneError && size == 0 {
			break
		}

		// Stop if decoding this rune would cross the target byteOffset
		if currentOffset+size > byteOffset {
			break
		}

		if r == utf8.RuneError {
			// Invalid UTF-8 byte; counts as a single unit
			utf16Count++
		} else {
			utf16Count += utf16.RuneLen(r)
		}

		currentOffset += size
	}
	return utf16Count
}
