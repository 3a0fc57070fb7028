package rag

import (
	"cmp"
	"slices"
	"strings"
	"unicode/utf8"

	"subject-tutor/internal/corpus"
)

const (
	// DefaultTopK is the number of chunks returned when the caller asks for zero or fewer.
	DefaultTopK = 4
	// minTermLength is the shortest term kept; shorter terms are treated as noise.
	minTermLength = 4
)

// QueryTerms lowercases the query, splits it on whitespace and drops terms
// of three characters or fewer. Duplicates are kept.
func QueryTerms(query string) []string {
	fields := strings.Fields(strings.ToLower(query))
	terms := fields[:0]
	for _, f := range fields {
		if utf8.RuneCountInString(f) >= minTermLength {
			terms = append(terms, f)
		}
	}
	return terms
}

// Score returns the fraction of terms contained as substrings of text.
// text must already be lowercased.
func Score(terms []string, text string) float64 {
	var matches int
	for _, term := range terms {
		if strings.Contains(text, term) {
			matches++
		}
	}
	return float64(matches) / float64(max(len(terms), 1))
}

// Retrieve ranks the chunks of one subject by lexical overlap with query and
// returns at most topK copies with Score set. Chunks with a zero score are never
// returned. Equal scores keep collection order. The input slice is not modified.
func Retrieve(query string, chunks []corpus.Chunk, subject corpus.Subject, topK int) []corpus.Chunk {
	if topK <= 0 {
		topK = DefaultTopK
	}
	terms := QueryTerms(query)

	type candidate struct {
		index int
		chunk corpus.Chunk
	}

	var candidates []candidate
	for i, chunk := range chunks {
		if chunk.Subject != subject {
			continue
		}
		score := Score(terms, strings.ToLower(chunk.Text))
		if score <= 0 {
			continue
		}
		chunk.Score = score
		candidates = append(candidates, candidate{index: i, chunk: chunk})
	}

	slices.SortFunc(candidates, func(a, b candidate) int {
		if c := cmp.Compare(b.chunk.Score, a.chunk.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.index, b.index)
	})

	results := make([]corpus.Chunk, 0, min(len(candidates), topK))
	for _, c := range candidates[:min(len(candidates), topK)] {
		results = append(results, c.chunk)
	}
	return results
}
