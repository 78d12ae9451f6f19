package domain_test

import (
	"strings"
	"testing"

	"site-rag/internal/domain"

	"github.com/stretchr/testify/assert"
)

func TestChunker_Chunk(t *testing.T) {
	chunker := domain.NewChunker()

	t.Run("Empty text yields no chunks", func(t *testing.T) {
		assert.Empty(t, chunker.Chunk("   \n\t "))
	})

	t.Run("Short text is a single window", func(t *testing.T) {
		chunks := chunker.Chunk("  Single line.  ")
		assert.Equal(t, []string{"Single line."}, chunks)
	})

	t.Run("Windows overlap by 100 characters", func(t *testing.T) {
		text := strings.Repeat("a", 400) + strings.Repeat("b", 400) + strings.Repeat("c", 100)
		chunks := chunker.Chunk(text)

		// starts at 0, 400, 800
		assert.Len(t, chunks, 3)
		assert.Len(t, []rune(chunks[0]), 500)
		assert.Len(t, []rune(chunks[1]), 500)
		assert.Len(t, []rune(chunks[2]), 100)
		assert.Equal(t, chunks[0][400:], chunks[1][:100])
		assert.Equal(t, strings.Repeat("c", 100), chunks[2])
	})

	t.Run("Counts runes not bytes", func(t *testing.T) {
		text := strings.Repeat("ジ", 600)
		chunks := chunker.Chunk(text)
		assert.Len(t, chunks, 2)
		assert.Len(t, []rune(chunks[0]), 500)
		assert.Len(t, []rune(chunks[1]), 200)
	})

	t.Run("Reports version", func(t *testing.T) {
		assert.Equal(t, domain.ChunkerVersionWindowV1, chunker.Version())
	})
}

func TestNewWindowChunker_InvalidOverlap(t *testing.T) {
	chunker := domain.NewWindowChunker(10, 10)
	chunks := chunker.Chunk(strings.Repeat("x", 25))
	assert.Equal(t, []string{strings.Repeat("x", 10), strings.Repeat("x", 10), strings.Repeat("x", 5)}, chunks)
}
