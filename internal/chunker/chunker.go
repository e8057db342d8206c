package chunker

import (
	"fmt"

	"github.com/dgallion1/listingest/internal/document"
)

// Config controls chunking behavior.
type Config struct {
	ChunkSize int // Lines per chunk.
	Overlap   int // Trailing lines shared with the next chunk.
}

// DefaultConfig returns the standard window of 100 lines with 10 lines of overlap.
func DefaultConfig() Config {
	return Config{
		ChunkSize: 100,
		Overlap:   10,
	}
}

// Validate rejects sizes the windowing cannot work with.
func (c Config) Validate() error {
	if c.ChunkSize <= 0 {
		return &ChunkingError{Param: "chunk_size", Value: c.ChunkSize}
	}
	if c.Overlap < 0 {
		return &ChunkingError{Param: "overlap", Value: c.Overlap}
	}
	return nil
}

// ChunkingError reports invalid chunking parameters.
type ChunkingError struct {
	Param string
	Value int
}

func (e *ChunkingError) Error() string {
	return fmt.Sprintf("invalid chunking parameter %s=%d", e.Param, e.Value)
}

// Chunk is a window of consecutive document lines.
type Chunk struct {
	Index   int      // Sequence number within the document.
	Start   int      // Index of the first line.
	Size    int      // Configured chunk size.
	Overlap int      // Configured overlap.
	Lines   []string // Lines [Start, Start+len(Lines)).
}

// End returns the exclusive end line index.
func (c Chunk) End() int {
	return c.Start + len(c.Lines)
}

// Text rejoins the chunk's lines.
func (c Chunk) Text() string {
	return document.JoinLines(c.Lines)
}

// Split cuts content into overlapping line windows. Chunk i covers lines
// [i*ChunkSize, i*ChunkSize+ChunkSize+Overlap), clamped to the line count;
// there are ceil(lines/ChunkSize) chunks.
func Split(content string, cfg Config) ([]Chunk, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return SplitLines(document.SplitLines(content), cfg), nil
}

// SplitLines is Split over pre-split lines. cfg must already be valid.
func SplitLines(lines []string, cfg Config) []Chunk {
	n := (len(lines) + cfg.ChunkSize - 1) / cfg.ChunkSize
	chunks := make([]Chunk, 0, n)
	for i := range n {
		start := i * cfg.ChunkSize
		end := min(start+cfg.ChunkSize+cfg.Overlap, len(lines))
		chunks = append(chunks, Chunk{
			Index:   i,
			Start:   start,
			Size:    cfg.ChunkSize,
			Overlap: cfg.Overlap,
			Lines:   lines[start:end:end],
		})
	}
	return chunks
}

// Texts returns each chunk's rejoined text in order.
func Texts(chunks []Chunk) []string {
	out := make([]string, len(chunks))
	for i, c := range chunks {
		out[i] = c.Text()
	}
	return out
}
