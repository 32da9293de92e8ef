package position

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLocate(t *testing.T) {
	src := []byte("import hbs from 'x';\nconst a = hbs('y');\n")

	tests := []struct {
		name   string
		offset int
		want   Location
	}{
		{name: "start of file", offset: 0, want: Location{Line: 1, Column: 0}},
		{name: "inside first line", offset: 7, want: Location{Line: 1, Column: 7}},
		{name: "start of second line", offset: 21, want: Location{Line: 2, Column: 0}},
		{name: "callee on second line", offset: 31, want: Location{Line: 2, Column: 10}},
		{name: "negative clamps to start", offset: -4, want: Location{Line: 1, Column: 0}},
		{name: "past end clamps to end", offset: 1000, want: Location{Line: 3, Column: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Locate(src, tt.offset))
		})
	}
}

func TestLocateCountsUTF16Units(t *testing.T) {
	// "👍" is 4 bytes in UTF-8 and 2 UTF-16 units; "é" is 2 bytes and 1 unit
	src := []byte("const s = '👍é'; hbs()")
	offset := len("const s = '👍é'; ")
	assert.Equal(t, Location{Line: 1, Column: 17}, Locate(src, offset))
}

func TestLines(t *testing.T) {
	assert.Equal(t, []string{"a", "b", ""}, Lines([]byte("a\r\nb\n")))
	assert.Equal(t, []string{""}, Lines(nil))
}

func TestByteOffsetToUTF16(t *testing.T) {
	tests := []struct {
		name       string
		s          string
		byteOffset int
		want       int
	}{
		{name: "empty string", s: "", byteOffset: 0, want: 0},
		{name: "ASCII only", s: "hello world", byteOffset: 5, want: 5},
		{name: "beyond end", s: "hello", byteOffset: 100, want: 5},
		{name: "emoji counts twice", s: "👍 hello", byteOffset: 4, want: 2},
		{name: "CJK counts once", s: "颜色", byteOffset: 6, want: 2},
		{name: "inside a rune stops before it", s: "颜色", byteOffset: 4, want: 1},
		{name: "invalid byte counts once", s: "a\xffb", byteOffset: 3, want: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ByteOffsetToUTF16(tt.s, tt.byteOffset))
		})
	}
}
