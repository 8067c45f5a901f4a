package notify

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplitChunksShortText(t *testing.T) {
	chunks := splitChunks("hello", 100)
	require.Equal(t, []string{"hello"}, chunks)
}

func TestSplitChunksEmpty(t *testing.T) {
	require.Empty(t, splitChunks("", 100))
}

func TestSplitChunksPrefersLineBoundaries(t *testing.T) {
	text := "first line\nsecond line\nthird line\n"
	chunks := splitChunks(text, 15)

	require.Equal(t, []string{"first line\n", "second line\n", "third line\n"}, chunks)
	require.Equal(t, text, strings.Join(chunks, ""))
}

func TestSplitChunksHardCutWithoutNewlines(t *testing.T) {
	text := strings.Repeat("x", 25)
	chunks := splitChunks(text, 10)

	require.Equal(t, []string{
		strings.Repeat("x", 10),
		strings.Repeat("x", 10),
		strings.Repeat("x", 5),
	}, chunks)

	for _, chunk := range chunks {
		require.LessOrEqual(t, len(chunk), 10)
	}
	require.Equal(t, text, strings.Join(chunks, ""))
}
