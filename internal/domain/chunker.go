package domain

import (
	"strings"
)

// ChunkerVersion defines the version of the chunking algorithm.
// Stored alongside the index so a rebuild can tell which windows it holds.
type ChunkerVersion string

const (
	// ChunkerVersionWindowV1 is the fixed-size sliding window over runes.
	ChunkerVersionWindowV1 ChunkerVersion = "window-v1"
)

const (
	// DefaultWindowSize is the window length in characters.
	DefaultWindowSize = 500
	// DefaultWindowOverlap is the number of characters shared by consecutive windows.
	DefaultWindowOverlap = 100
)

// Chunker defines the interface for splitting page text into retrieval windows.
type Chunker interface {
	Chunk(text string) []string
	Version() ChunkerVersion
}

type windowChunker struct {
	size    int
	overlap int
}

// NewChunker creates the default 500/100 window chunker.
func NewChunker() Chunker {
	return NewWindowChunker(DefaultWindowSize, DefaultWindowOverlap)
}

// NewWindowChunker creates a chunker with the given window size and overlap.
// Invalid values fall back to the defaults; overlap must be smaller than size.
func NewWindowChunker(size, overlap int) Chunker {
	if size <= 0 {
		size = DefaultWindowSize
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}
	return &windowChunker{size: size, overlap: overlap}
}

func (c *windowChunker) Version() ChunkerVersion {
	return ChunkerVersionWindowV1
}

// Chunk trims text and slides a window of c.size runes forward by size-overlap
// until the start passes the end. The final window may be shorter.
func (c *windowChunker) Chunk(text string) []string {
	runes := []rune(strings.TrimSpace(text))
	if len(runes) == 0 {
		return nil
	}

	step := c.size - c.overlap
	var chunks []string
	for start := 0; start < len(runes); start += step {
		end := start + c.size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks
}
