package indexer

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"subject-tutor/internal/corpus"
)

func pdfProvenance(page int) corpus.Provenance {
	return corpus.Provenance{
		DocumentID: "doc-1",
		Subject:    corpus.SubjectDataStructures,
		SourceName: "trees.pdf",
		SourceType: corpus.SourceTypePDF,
		PageNumber: page,
	}
}

// sequentialText returns n runes where each position is recoverable from the text.
func sequentialText(n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		b.WriteByte(byte('a' + i%26))
	}
	return b.String()
}

// reassemble drops the overlap from every chunk after the first.
func reassemble(chunks []corpus.Chunk, overlap int) string {
	var b strings.Builder
	for i, c := range chunks {
		runes := []rune(c.Text)
		if i > 0 {
			runes = runes[overlap:]
		}
		b.WriteString(string(runes))
	}
	return b.String()
}

func TestNewChunker(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		overlap int
		wantErr bool
	}{
		{name: "default window", size: ChunkSize, overlap: ChunkOverlap},
		{name: "no overlap", size: 10, overlap: 0},
		{name: "overlap equal to size", size: 10, overlap: 10, wantErr: true},
		{name: "overlap larger than size", size: 10, overlap: 11, wantErr: true},
		{name: "negative overlap", size: 10, overlap: -1, wantErr: true},
		{name: "zero size", size: 0, overlap: 0, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewChunker(tt.size, tt.overlap)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidWindow)
				assert.Nil(t, c)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.size-tt.overlap, c.Step())
		})
	}
}

func TestChunker_ChunkCounts(t *testing.T) {
	c := NewDefaultChunker()

	tests := []struct {
		length int
		want   int
	}{
		{length: 0, want: 0},
		{length: 1, want: 1},
		{length: 650, want: 1},
		{length: 651, want: 1},
		{length: 800, want: 1},
		{length: 801, want: 2},
		{length: 1000, want: 2},
		{length: 1450, want: 2},
		{length: 1451, want: 3},
		{length: 1600, want: 3},
		{length: 5000, want: 8},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("length %d", tt.length), func(t *testing.T) {
			chunks, err := c.Chunk(sequentialText(tt.length), pdfProvenance(1))
			require.NoError(t, err)
			assert.Len(t, chunks, tt.want)
		})
	}
}

func TestChunker_EmptyTextYieldsNoChunks(t *testing.T) {
	chunks, err := NewDefaultChunker().Chunk("", pdfProvenance(1))
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestChunker_OffsetsAndOverlap(t *testing.T) {
	text := sequentialText(1000)
	chunks, err := NewDefaultChunker().Chunk(text, pdfProvenance(1))
	require.NoError(t, err)
	require.Len(t, chunks, 2)

	assert.Equal(t, text[0:800], chunks[0].Text)
	assert.Equal(t, text[650:1000], chunks[1].Text)
	assert.Equal(t, chunks[0].Text[650:], chunks[1].Text[:150], "consecutive chunks share the overlap")
}

func TestChunker_PDFPageScenario(t *testing.T) {
	text := sequentialText(1600)
	chunks, err := NewDefaultChunker().Chunk(text, pdfProvenance(3))
	require.NoError(t, err)

	// The third window covers [1300, 1600); without it the tail would be lost.
	require.Len(t, chunks, 3)
	assert.Len(t, chunks[0].Text, 800)
	assert.Len(t, chunks[1].Text, 800)
	assert.Len(t, chunks[2].Text, 300)
	assert.Equal(t, text[650:1450], chunks[1].Text)

	for _, ch := range chunks {
		assert.Equal(t, 3, ch.PageNumber)
		assert.Equal(t, corpus.SourceTypePDF, ch.SourceType)
		assert.Equal(t, corpus.SubjectDataStructures, ch.Subject)
		assert.Equal(t, "doc-1", ch.DocumentID)
		assert.Equal(t, "trees.pdf", ch.SourceName)
		assert.Empty(t, ch.URL)
		assert.Zero(t, ch.Score)
	}
}

func TestChunker_RoundTrip(t *testing.T) {
	c := NewDefaultChunker()
	for _, n := range []int{1, 149, 150, 799, 800, 801, 1299, 1300, 1301, 4321} {
		text := sequentialText(n)
		chunks, err := c.Chunk(text, pdfProvenance(1))
		require.NoError(t, err)
		assert.Equal(t, text, reassemble(chunks, c.Overlap()), "length %d", n)

		for _, ch := range chunks {
			assert.NotEmpty(t, ch.Text)
			assert.LessOrEqual(t, utf8.RuneCountInString(ch.Text), ChunkSize)
		}
	}
}

func TestChunker_CountsRunesNotBytes(t *testing.T) {
	text := strings.Repeat("é", 900)
	chunks, err := NewDefaultChunker().Chunk(text, pdfProvenance(1))
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, 800, utf8.RuneCountInString(chunks[0].Text))
	assert.Equal(t, 250, utf8.RuneCountInString(chunks[1].Text))
	assert.True(t, utf8.ValidString(chunks[1].Text))
}

func TestChunker_UniqueIDs(t *testing.T) {
	chunks, err := NewDefaultChunker().Chunk(sequentialText(5000), pdfProvenance(1))
	require.NoError(t, err)

	seen := make(map[string]struct{}, len(chunks))
	for _, ch := range chunks {
		require.NotEmpty(t, ch.ID)
		_, dup := seen[ch.ID]
		require.False(t, dup, "duplicate chunk id %s", ch.ID)
		seen[ch.ID] = struct{}{}
	}
}

func TestChunker_URLProvenance(t *testing.T) {
	prov := corpus.Provenance{
		DocumentID: "doc-2",
		Subject:    corpus.SubjectNLP,
		SourceName: "example.com",
		SourceType: corpus.SourceTypeURL,
		URL:        "https://example.com/tokenizers",
	}
	chunks, err := NewDefaultChunker().Chunk("Tokenizers split text.", prov)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "https://example.com/tokenizers", chunks[0].URL)
	assert.Zero(t, chunks[0].PageNumber)
}

func TestChunker_RejectsInvalidProvenance(t *testing.T) {
	c := NewDefaultChunker()

	_, err := c.Chunk("text", corpus.Provenance{Subject: "Biology", SourceType: corpus.SourceTypePDF, PageNumber: 1})
	assert.ErrorIs(t, err, corpus.ErrUnknownSubject)

	_, err = c.Chunk("text", corpus.Provenance{Subject: corpus.SubjectDBMS, SourceType: "EPUB"})
	assert.ErrorIs(t, err, corpus.ErrUnknownSourceType)

	// Validation happens before the empty-text shortcut.
	_, err = c.Chunk("", corpus.Provenance{Subject: corpus.SubjectDBMS, SourceType: corpus.SourceTypeURL})
	assert.ErrorIs(t, err, corpus.ErrInvalidProvenance)
}
