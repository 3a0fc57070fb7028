package indexer

import (
	"context"
	"fmt"
	"math"
	"sort"
	"unicode/utf8"

	"subject-tutor/internal/corpus"
)

// SubjectStats summarizes the collection for one subject.
type SubjectStats struct {
	Subject   corpus.Subject `json:"subject"`
	Documents int            `json:"documents"`
	PDFs      int            `json:"pdfs"`
	URLs      int            `json:"urls"`
	Pages     int            `json:"pages"`
	Chunks    int            `json:"chunks"`
	// ChunkLength describes chunk sizes in runes.
	ChunkLength ChunkLengthStats `json:"chunk_length"`
}

// ChunkLengthStats contains statistics about chunk lengths.
type ChunkLengthStats struct {
	// Min is the minimum rune count across all chunks.
	Min int `json:"min"`
	// Max is the maximum rune count across all chunks.
	Max int `json:"max"`
	// Mean is the mean rune count across all chunks.
	Mean float64 `json:"mean"`
	// P95 is the 95th percentile rune count.
	P95 int `json:"p95"`
}

// SubjectStats computes document and chunk statistics for one subject.
func (p *Pipeline) SubjectStats(ctx context.Context, subject corpus.Subject) (SubjectStats, error) {
	if !subject.Valid() {
		return SubjectStats{}, fmt.Errorf("%w: %q", corpus.ErrUnknownSubject, subject)
	}

	docs, err := p.documents.ListBySubject(ctx, subject)
	if err != nil {
		return SubjectStats{}, fmt.Errorf("failed to list documents: %w", err)
	}
	chunks, err := p.chunks.ListBySubject(ctx, subject)
	if err != nil {
		return SubjectStats{}, fmt.Errorf("failed to list chunks: %w", err)
	}

	stats := SubjectStats{
		Subject:   subject,
		Documents: len(docs),
		Chunks:    len(chunks),
	}
	for _, doc := range docs {
		switch doc.Type {
		case corpus.SourceTypePDF:
			stats.PDFs++
		case corpus.SourceTypeURL:
			stats.URLs++
		}
		stats.Pages += doc.PageCount
	}

	lengths := make([]int, 0, len(chunks))
	for _, c := range chunks {
		lengths = append(lengths, utf8.RuneCountInString(c.Text))
	}
	stats.ChunkLength = computeLengthStats(lengths)

	return stats, nil
}

// AllSubjectStats computes SubjectStats for every subject in display order.
func (p *Pipeline) AllSubjectStats(ctx context.Context) ([]SubjectStats, error) {
	subjects := corpus.Subjects()
	all := make([]SubjectStats, 0, len(subjects))
	for _, s := range subjects {
		stats, err := p.SubjectStats(ctx, s)
		if err != nil {
			return nil, err
		}
		all = append(all, stats)
	}
	return all, nil
}

// computeLengthStats computes min, max, mean, and p95 from chunk lengths.
func computeLengthStats(lengths []int) ChunkLengthStats {
	if len(lengths) == 0 {
		return ChunkLengthStats{}
	}

	// Sort for percentile calculation
	sorted := make([]int, len(lengths))
	copy(sorted, lengths)
	sort.Ints(sorted)

	sum := 0
	for _, l := range lengths {
		sum += l
	}
	mean := float64(sum) / float64(len(lengths))

	p95Index := int(math.Ceil(float64(len(sorted)) * 0.95))
	if p95Index >= len(sorted) {
		p95Index = len(sorted) - 1
	}

	return ChunkLengthStats{
		Min:  sorted[0],
		Max:  sorted[len(sorted)-1],
		Mean: math.Round(mean*100) / 100, // Round to 2 decimal places
		P95:  sorted[p95Index],
	}
}
