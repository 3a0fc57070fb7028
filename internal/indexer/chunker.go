package indexer

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"subject-tutor/internal/corpus"
)

const (
	// ChunkSize is the window length in runes.
	ChunkSize = 800
	// ChunkOverlap is how many runes consecutive chunks share.
	ChunkOverlap = 150
)

// ErrInvalidWindow is returned when the window cannot make forward progress.
var ErrInvalidWindow = errors.New("invalid chunk window")

// Chunker cuts text into fixed-size overlapping windows.
type Chunker struct {
	size    int
	overlap int
	newID   func() string
}

// NewChunker creates a chunker with the given window size and overlap.
// overlap must be strictly less than size, otherwise the offset would never advance.
func NewChunker(size, overlap int) (*Chunker, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: size must be > 0, got %d", ErrInvalidWindow, size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("%w: overlap must be in [0, %d), got %d", ErrInvalidWindow, size, overlap)
	}
	return &Chunker{
		size:    size,
		overlap: overlap,
		newID:   uuid.NewString,
	}, nil
}

// NewDefaultChunker creates the 800/150 chunker used for all ingestion.
func NewDefaultChunker() *Chunker {
	c, err := NewChunker(ChunkSize, ChunkOverlap)
	if err != nil {
		panic(err)
	}
	return c
}

// Step returns how far the offset advances between chunks.
func (c *Chunker) Step() int {
	return c.size - c.overlap
}

// Overlap returns the number of runes shared by consecutive chunks.
func (c *Chunker) Overlap() int {
	return c.overlap
}

// Chunk splits text into chunks stamped with prov. Empty text yields no chunks.
// Offsets are counted in runes so multi-byte characters are never split.
// The last chunk is the first one whose window reaches the end of the text.
func (c *Chunker) Chunk(text string, prov corpus.Provenance) ([]corpus.Chunk, error) {
	if err := prov.Validate(); err != nil {
		return nil, err
	}
	if text == "" {
		return nil, nil
	}

	runes := []rune(text)
	step := c.Step()
	chunks := make([]corpus.Chunk, 0, len(runes)/step+1)

	for start := 0; start < len(runes); start += step {
		end := min(start+c.size, len(runes))
		chunks = append(chunks, corpus.Chunk{
			ID:         c.newID(),
			DocumentID: prov.DocumentID,
			Text:       string(runes[start:end]),
			Subject:    prov.Subject,
			SourceName: prov.SourceName,
			SourceType: prov.SourceType,
			PageNumber: prov.PageNumber,
			URL:        prov.URL,
		})
		if end == len(runes) {
			break
		}
	}

	return chunks, nil
}
