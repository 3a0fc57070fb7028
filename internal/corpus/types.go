// Package corpus defines the chunk and document records shared by ingestion and retrieval.
package corpus

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrUnknownSubject is returned when a subject is outside the closed set.
	ErrUnknownSubject = errors.New("unknown subject")
	// ErrUnknownSourceType is returned when a source type is neither PDF nor URL.
	ErrUnknownSourceType = errors.New("unknown source type")
	// ErrInvalidProvenance is returned when page number and URL do not match the source type.
	ErrInvalidProvenance = errors.New("invalid provenance")
)

// Subject is the topical category that partitions the chunk collection.
type Subject string

const (
	SubjectDBMS            Subject = "DBMS"
	SubjectMachineLearning Subject = "Machine Learning"
	SubjectDeepLearning    Subject = "Deep Learning"
	SubjectNLP             Subject = "Natural Language Processing"
	SubjectDataStructures  Subject = "Data Structures"
)

var subjectSlugs = map[Subject]string{
	SubjectDBMS:            "dbms",
	SubjectMachineLearning: "ml",
	SubjectDeepLearning:    "dl",
	SubjectNLP:             "nlp",
	SubjectDataStructures:  "ds",
}

// Subjects returns every subject in display order.
func Subjects() []Subject {
	return []Subject{
		SubjectDBMS,
		SubjectMachineLearning,
		SubjectDeepLearning,
		SubjectNLP,
		SubjectDataStructures,
	}
}

// ParseSubject resolves a display name (case-insensitive) or short slug to a Subject.
func ParseSubject(s string) (Subject, error) {
	needle := strings.TrimSpace(s)
	for _, subject := range Subjects() {
		if strings.EqualFold(needle, string(subject)) || strings.EqualFold(needle, subjectSlugs[subject]) {
			return subject, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSubject, s)
}

// Valid reports whether s belongs to the closed subject set.
func (s Subject) Valid() bool {
	_, ok := subjectSlugs[s]
	return ok
}

// Slug returns the short identifier used in URLs and manifests.
func (s Subject) Slug() string {
	return subjectSlugs[s]
}

// SourceType identifies where a chunk's text came from.
type SourceType string

const (
	SourceTypePDF SourceType = "PDF"
	SourceTypeURL SourceType = "URL"
)

// ParseSourceType resolves "PDF" or "URL" (case-insensitive).
func ParseSourceType(s string) (SourceType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case string(SourceTypePDF):
		return SourceTypePDF, nil
	case string(SourceTypeURL):
		return SourceTypeURL, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownSourceType, s)
	}
}

// Chunk is a bounded slice of a source document, the unit of retrieval.
// Everything except Score is fixed at creation.
type Chunk struct {
	ID         string     `json:"id"`
	DocumentID string     `json:"document_id"`
	Text       string     `json:"text"`
	Subject    Subject    `json:"subject"`
	SourceName string     `json:"source_name"`
	SourceType SourceType `json:"source_type"`
	PageNumber int        `json:"page_number,omitempty"` // PDF only, 1-indexed
	URL        string     `json:"url,omitempty"`         // URL only
	Score      float64    `json:"score"`
}

// Location renders the provenance detail shown next to a citation.
func (c Chunk) Location() string {
	switch c.SourceType {
	case SourceTypePDF:
		return fmt.Sprintf("Page %d", c.PageNumber)
	case SourceTypeURL:
		return c.URL
	default:
		return ""
	}
}

// DocumentMetadata describes one ingested source. It is display-only.
type DocumentMetadata struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Type       SourceType `json:"type"`
	Subject    Subject    `json:"subject"`
	PageCount  int        `json:"page_count"`
	ChunkCount int        `json:"chunk_count"`
	UploadedAt time.Time  `json:"uploaded_at"`
}

// Page is the plain text of one PDF page.
type Page struct {
	Text   string
	Number int
}

// Provenance is the metadata stamped onto every chunk cut from one piece of text.
type Provenance struct {
	DocumentID string
	Subject    Subject
	SourceName string
	SourceType SourceType
	PageNumber int
	URL        string
}

// Validate checks the subject and source type and that only the matching
// locator (page number for PDF, URL for URL) is set.
func (p Provenance) Validate() error {
	if !p.Subject.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownSubject, p.Subject)
	}
	switch p.SourceType {
	case SourceTypePDF:
		if p.PageNumber < 1 {
			return fmt.Errorf("%w: PDF page number must be >= 1, got %d", ErrInvalidProvenance, p.PageNumber)
		}
		if p.URL != "" {
			return fmt.Errorf("%w: PDF source cannot carry a URL", ErrInvalidProvenance)
		}
	case SourceTypeURL:
		if p.URL == "" {
			return fmt.Errorf("%w: URL source requires a URL", ErrInvalidProvenance)
		}
		if p.PageNumber != 0 {
			return fmt.Errorf("%w: URL source cannot carry a page number", ErrInvalidProvenance)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownSourceType, p.SourceType)
	}
	return nil
}
