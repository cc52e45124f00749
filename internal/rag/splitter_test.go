package rag

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitTextShortInput(t *testing.T) {
	assert.Nil(t, SplitText("", 500, 50))
	assert.Nil(t, SplitText("   \n ", 500, 50))
	assert.Equal(t, []string{"short text"}, SplitText("short text", 500, 50))
}

func TestSplitTextChunkSizeAndOverlap(t *testing.T) {
	text := strings.Repeat("abcdefghij", 120) // 1200 chars

	chunks := SplitText(text, 500, 50)
	require.Len(t, chunks, 3)

	assert.Len(t, chunks[0], 500)
	assert.Len(t, chunks[1], 500)

	// Consecutive chunks share the overlap region.
	assert.Equal(t, chunks[0][450:], chunks[1][:50])
	assert.Equal(t, chunks[1][450:], chunks[2][:50])
}

func TestSplitTextCoversWholeInput(t *testing.T) {
	text := strings.Repeat("x", 1337)
	chunks := SplitText(text, 500, 50)

	// step is 450, so the last chunk holds the remainder.
	require.Len(t, chunks, 3)
	assert.Equal(t, 1337, 450*(len(chunks)-1)+len(chunks[len(chunks)-1]))
}

func TestSplitTextInvalidParamsFallBack(t *testing.T) {
	text := strings.Repeat("y", 600)
	chunks := SplitText(text, 0, -1)
	require.NotEmpty(t, chunks)
	assert.Len(t, chunks[0], DefaultChunkSize)
}
