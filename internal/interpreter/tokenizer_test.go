package interpreter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		line string
		want []string
	}{
		{name: "empty", line: "", want: nil},
		{name: "only spaces", line: "    ", want: nil},
		{name: "single word", line: "dir", want: []string{"dir"}},
		{name: "plain words", line: "a b c", want: []string{"a", "b", "c"}},
		{name: "runs of whitespace", line: "  a \t b  ", want: []string{"a", "b"}},
		{name: "double quotes", line: `echo "a b" c`, want: []string{"echo", "a b", "c"}},
		{name: "single quotes", line: `echo 'x  y'`, want: []string{"echo", "x  y"}},
		{name: "other quote is literal inside", line: `say "it's"`, want: []string{"say", "it's"}},
		{name: "escaped newline", line: `"x\ny"`, want: []string{"x\ny"}},
		{name: "escaped quote", line: `"a\"b"`, want: []string{`a"b`}},
		{name: "escaped backslash", line: `"a\\b"`, want: []string{`a\b`}},
		{name: "unterminated quote", line: `"abc`, want: []string{"abc"}},
		{name: "unterminated with spaces", line: `cd "My Documents`, want: []string{"cd", "My Documents"}},
		{name: "lone quote", line: `"`, want: []string{""}},
		{name: "empty quoted arg", line: `a "" b`, want: []string{"a", "", "b"}},
		{name: "backslash outside quotes is literal", line: `cd C:\Users\me`, want: []string{"cd", `C:\Users\me`}},
		{name: "quote inside word is literal", line: `ab"c d"`, want: []string{`ab"c`, `d"`}},
		{name: "text after closing quote is a new arg", line: `"a"b`, want: []string{"a", "b"}},
		{name: "adjacent quoted args", line: `"a"'b'`, want: []string{"a", "b"}},
		{name: "trailing backslash in quote dropped", line: `"abc\`, want: []string{"abc"}},
		{name: "unicode", line: "écho 日本", want: []string{"écho", "日本"}},
		{name: "cd dot dot", line: "cd..", want: []string{"cd.."}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Tokenize(tt.line).Args)
		})
	}
}

func TestTokenizeRoundTrip(t *testing.T) {
	words := []string{"copy", "a.txt", "b.txt", "/y"}
	line := ""
	for i, w := range words {
		if i > 0 {
			line += " "
		}
		line += w
	}

	assert.Equal(t, words, Tokenize(line).Args)
}

func TestCommandName(t *testing.T) {
	assert.Equal(t, "", Command{}.Name())
	assert.Equal(t, "cd", Tokenize("cd ..").Name())
}
