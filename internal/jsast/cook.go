package jsast

import (
	"strconv"
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

// Cook processes the escape sequences of a string literal or template chunk
// body (the text between the delimiters), returning the value the literal
// denotes. Template chunks additionally normalize CR and CRLF line endings
// to LF. Malformed escapes keep the escaped character, dropping the
// backslash.
func Cook(raw string, template bool) string {
	if template {
		raw = strings.ReplaceAll(raw, "\r\n", "\n")
		raw = strings.ReplaceAll(raw, "\r", "\n")
	}
	if !strings.Contains(raw, `\`) {
		return raw
	}

	var b strings.Builder
	b.Grow(len(raw))

	for i := 0; i < len(raw); {
		if raw[i] != '\\' || i+1 >= len(raw) {
			b.WriteByte(raw[i])
			i++
			continue
		}
		i++

		r, size := utf8.DecodeRuneInString(raw[i:])
		switch r {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case 'b':
			b.WriteByte('\b')
		case 'f':
			b.WriteByte('\f')
		case 'v':
			b.WriteByte('\v')
		case '\r':
			// line continuation, CRLF
			if i+1 < len(raw) && raw[i+1] == '\n' {
				size++
			}
		case '\n', '\u2028', '\u2029':
			// line continuation
		case 'x':
			if v, ok := parseHex(raw[i+1:], 2); ok {
				b.WriteRune(rune(v))
				size += 2
			} else {
				b.WriteByte('x')
			}
		case 'u':
			cp, n := cookUnicode(raw[i+1:])
			if n == 0 {
				b.WriteByte('u')
				break
			}
			size += n
			// Combine a surrogate pair written as two \u escapes
			if utf16.IsSurrogate(rune(cp)) && strings.HasPrefix(raw[i+size:], `\u`) {
				if lo, m := cookUnicode(raw[i+size+2:]); m > 0 {
					if combined := utf16.DecodeRune(rune(cp), rune(lo)); combined != utf8.RuneError {
						b.WriteRune(combined)
						size += 2 + m
						break
					}
				}
			}
			// A lone surrogate has no UTF-8 encoding; WriteRune emits U+FFFD
			b.WriteRune(rune(cp))
		case '0', '1', '2', '3', '4', '5', '6', '7':
			v, n := cookOctal(raw[i:])
			b.WriteRune(rune(v))
			size = n
		default:
			b.WriteString(raw[i : i+size])
		}
		i += size
	}
	return b.String()
}

// cookUnicode parses the part of a \u escape after the "u": either four hex
// digits or a braced code point. It returns the code point and the number
// of bytes consumed, or 0 bytes when the escape is malformed.
func cookUnicode(s string) (uint64, int) {
	if strings.HasPrefix(s, "{") {
		end := strings.IndexByte(s, '}')
		if end < 2 {
			return 0, 0
		}
		v, err := strconv.ParseUint(s[1:end], 16, 32)
		if err != nil || v > utf8.MaxRune {
			return 0, 0
		}
		return v, end + 1
	}
	v, ok := parseHex(s, 4)
	if !ok {
		return 0, 0
	}
	return v, 4
}

// cookOctal parses a legacy octal escape: up to three digits for a leading
// 0-3, up to two otherwise.
func cookOctal(s string) (uint64, int) {
	limit := 2
	if s[0] <= '3' {
		limit = 3
	}
	n := 1
	for n < limit && n < len(s) && s[n] >= '0' && s[n] <= '7' {
		n++
	}
	v, _ := strconv.ParseUint(s[:n], 8, 16)
	return v, n
}

func parseHex(s string, digits int) (uint64, bool) {
	if len(s) < digits {
		return 0, false
	}
	v, err := strconv.ParseUint(s[:digits], 16, 32)
	if err != nil {
		return 0, false
	}
	return v, true
}
