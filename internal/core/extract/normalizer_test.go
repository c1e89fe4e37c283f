package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		text  string
		lines []string
	}{
		{"literal escapes", `line one\nline two`, "line one\nline two", []string{"line one", "line two"}},
		{"double escaped", `a\\nb`, "a\nb", []string{"a", "b"}},
		{"crlf", "a\r\nb", "a\nb", []string{"a", "b"}},
		{"zero width entity", "Hello&amp;#x200B; world", "Hello world", []string{"Hello world"}},
		{"html ampersand", "salt &amp; pepper", "salt & pepper", []string{"salt & pepper"}},
		{"blank lines dropped", "a\n\n\n  b  \n", "a\n\n\n  b", []string{"a", "b"}},
		{"empty", "", "", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.raw)
			assert.Equal(t, tt.text, got.Text)
			assert.Equal(t, tt.lines, got.Lines)
		})
	}
}

func TestNormalizeDoubleSpaceAsNewline(t *testing.T) {
	got := Normalize("Ingredients:  2 cups flour  1 egg")
	assert.Equal(t, []string{"Ingredients:", "2 cups flour", "1 egg"}, got.Lines)

	// 已有換行時不動雙空白
	got = Normalize("a  b\nc")
	assert.Equal(t, []string{"a  b", "c"}, got.Lines)
}
