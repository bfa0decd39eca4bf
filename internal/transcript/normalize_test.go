package transcript

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"already clean", "Hello world.", "Hello world."},
		{"collapses whitespace", "hello   world\n\tagain", "Hello world again"},
		{"space after punctuation", "hello,world.next", "Hello, world. Next"},
		{"no space before punctuation", "hello , world .", "Hello, world."},
		{"capitalizes sentence starts", "first. second! third? fourth", "First. Second! Third? Fourth"},
		{"trims edges", "  hello  ", "Hello"},
		{"empty", "", ""},
		{"whitespace only", "   \n\t ", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, Normalize(tc.input))
		})
	}
}

func TestWordCount(t *testing.T) {
	require.Equal(t, 2, WordCount("hello world"))
	require.Equal(t, 2, WordCount("  hello   world  "))
	require.Equal(t, 0, WordCount("   "))
	require.Equal(t, 0, WordCount(""))
}
