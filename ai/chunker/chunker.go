// Package chunker provides a fixed-size overlapping text splitter.
package chunker

import "strings"

// DefaultChunkSize is the default window size in runes.
const DefaultChunkSize = 500

// DefaultChunkOverlap is the default number of overlapping runes between
// consecutive windows, preserving cross-boundary continuity.
const DefaultChunkOverlap = 100

// Chunker splits raw reference text into overlapping windows. Rune-based so
// multi-byte text (Korean exhibit descriptions are the common case) never
// splits inside a character.
type Chunker struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker.
type Option func(*Chunker)

// WithChunkSize sets the window size in runes.
func WithChunkSize(size int) Option {
	return func(c *Chunker) {
		if size > 0 {
			c.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between windows in runes.
func WithOverlap(overlap int) Option {
	return func(c *Chunker) {
		if overlap >= 0 {
			c.overlap = overlap
		}
	}
}

// New creates a new chunker with the given options.
func New(opts ...Option) *Chunker {
	c := &Chunker{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}
	for _, opt := range opts {
		opt(c)
	}

	// Ensure overlap doesn't exceed chunk size
	if c.overlap >= c.chunkSize {
		c.overlap = c.chunkSize / 4
	}
	return c
}

// Split returns the overlapping windows of content. Empty or
// whitespace-only content produces no chunks.
func (c *Chunker) Split(content string) []string {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil
	}

	runes := []rune(content)
	if len(runes) <= c.chunkSize {
		return []string{content}
	}

	step := c.chunkSize - c.overlap
	estimated := len(runes)/step + 1
	chunks := make([]string, 0, estimated)

	for start := 0; start < len(runes); start += step {
		end := start + c.chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		chunk := strings.TrimSpace(string(runes[start:end]))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
		if end == len(runes) {
			break
		}
	}
	return chunks
}
