package chunker

import (
	"dodam/internal/domain"
)

// Defaults used by knowledge-base ingestion.
const (
	DefaultSize    = 600
	DefaultOverlap = 120
)

// WindowChunker splits text into fixed-size rune windows with overlap.
// The last window may be shorter than the configured size.
type WindowChunker struct {
	size    int
	overlap int
}

// NewWindowChunker validates the window parameters. Overlap must be
// smaller than size, otherwise the offset would never advance.
func NewWindowChunker(size, overlap int) (*WindowChunker, error) {
	if size <= 0 || overlap < 0 || overlap >= size {
		return nil, domain.ErrInvalidChunkParams
	}
	return &WindowChunker{size: size, overlap: overlap}, nil
}

// Chunk emits text[offset : offset+size] windows, advancing the offset
// by size-overlap until the text is exhausted. Offsets are counted in
// runes so multibyte scripts chunk by character, not by byte.
func (c *WindowChunker) Chunk(text string) []string {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}
	step := c.size - c.overlap
	if step < 1 {
		step = 1
	}
	var out []string
	for i := 0; i < len(runes); i += step {
		end := i + c.size
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, string(runes[i:end]))
	}
	return out
}

// Size returns the configured window size in runes.
func (c *WindowChunker) Size() int { return c.size }

// Overlap returns the configured window overlap in runes.
func (c *WindowChunker) Overlap() int { return c.overlap }
