package indexer

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"subject-tutor/internal/contextutil"
	"subject-tutor/internal/corpus"
	"subject-tutor/internal/storage"
)

// ErrEmptyName is returned when a document has no usable name.
var ErrEmptyName = errors.New("document name is required")

// Pipeline turns extracted documents into chunks and appends them to the collection.
type Pipeline struct {
	documents storage.DocumentStore
	chunks    storage.ChunkStore
	chunker   *Chunker
	now       func() time.Time
	newID     func() string
}

// NewPipeline creates a new ingestion pipeline using the default chunk window.
func NewPipeline(documents storage.DocumentStore, chunks storage.ChunkStore) *Pipeline {
	return &Pipeline{
		documents: documents,
		chunks:    chunks,
		chunker:   NewDefaultChunker(),
		now:       func() time.Time { return time.Now().UTC() },
		newID:     uuid.NewString,
	}
}

// IngestPDF chunks every page of a PDF under its 1-indexed page number and
// stores the document with all of its chunks. Pages with no text contribute
// to the page count but produce no chunks.
func (p *Pipeline) IngestPDF(ctx context.Context, name string, subject corpus.Subject, pages []corpus.Page) (corpus.DocumentMetadata, error) {
	logger := contextutil.LoggerFromContext(ctx)

	name = strings.TrimSpace(name)
	if name == "" {
		return corpus.DocumentMetadata{}, ErrEmptyName
	}
	if !subject.Valid() {
		return corpus.DocumentMetadata{}, fmt.Errorf("%w: %q", corpus.ErrUnknownSubject, subject)
	}

	docID := p.newID()
	var chunks []corpus.Chunk
	for i, page := range pages {
		number := page.Number
		if number <= 0 {
			number = i + 1
		}
		pageChunks, err := p.chunker.Chunk(page.Text, corpus.Provenance{
			DocumentID: docID,
			Subject:    subject,
			SourceName: name,
			SourceType: corpus.SourceTypePDF,
			PageNumber: number,
		})
		if err != nil {
			return corpus.DocumentMetadata{}, fmt.Errorf("failed to chunk page %d: %w", number, err)
		}
		chunks = append(chunks, pageChunks...)
	}

	doc := corpus.DocumentMetadata{
		ID:         docID,
		Name:       name,
		Type:       corpus.SourceTypePDF,
		Subject:    subject,
		PageCount:  len(pages),
		ChunkCount: len(chunks),
		UploadedAt: p.now(),
	}
	if err := p.documents.Append(ctx, doc, chunks); err != nil {
		logger.ErrorContext(ctx, "failed to store document", "name", name, "error", err)
		return corpus.DocumentMetadata{}, fmt.Errorf("failed to store document: %w", err)
	}

	if len(chunks) == 0 {
		logger.WarnContext(ctx, "no chunks generated", "name", name, "pages", len(pages))
	}
	logger.InfoContext(ctx, "ingested pdf",
		"document_id", docID,
		"name", name,
		"subject", subject,
		"pages", doc.PageCount,
		"chunks", doc.ChunkCount,
	)
	return doc, nil
}

// IngestURL chunks the text of a web page and stores it as a one-page document
// named after the URL host.
func (p *Pipeline) IngestURL(ctx context.Context, rawURL string, subject corpus.Subject, text string) (corpus.DocumentMetadata, error) {
	logger := contextutil.LoggerFromContext(ctx)

	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Hostname() == "" {
		return corpus.DocumentMetadata{}, fmt.Errorf("%w: url %q has no host", ErrEmptyName, rawURL)
	}
	if !subject.Valid() {
		return corpus.DocumentMetadata{}, fmt.Errorf("%w: %q", corpus.ErrUnknownSubject, subject)
	}

	docID := p.newID()
	host := u.Hostname()
	chunks, err := p.chunker.Chunk(text, corpus.Provenance{
		DocumentID: docID,
		Subject:    subject,
		SourceName: host,
		SourceType: corpus.SourceTypeURL,
		URL:        u.String(),
	})
	if err != nil {
		return corpus.DocumentMetadata{}, fmt.Errorf("failed to chunk page: %w", err)
	}

	doc := corpus.DocumentMetadata{
		ID:         docID,
		Name:       host,
		Type:       corpus.SourceTypeURL,
		Subject:    subject,
		PageCount:  1,
		ChunkCount: len(chunks),
		UploadedAt: p.now(),
	}
	if err := p.documents.Append(ctx, doc, chunks); err != nil {
		logger.ErrorContext(ctx, "failed to store document", "url", u.String(), "error", err)
		return corpus.DocumentMetadata{}, fmt.Errorf("failed to store document: %w", err)
	}

	logger.InfoContext(ctx, "ingested url",
		"document_id", docID,
		"url", u.String(),
		"subject", subject,
		"chunks", doc.ChunkCount,
	)
	return doc, nil
}

// Documents lists stored documents, optionally restricted to one subject.
// A zero subject lists every document.
func (p *Pipeline) Documents(ctx context.Context, subject corpus.Subject) ([]corpus.DocumentMetadata, error) {
	if subject == "" {
		return p.documents.ListAll(ctx)
	}
	if !subject.Valid() {
		return nil, fmt.Errorf("%w: %q", corpus.ErrUnknownSubject, subject)
	}
	return p.documents.ListBySubject(ctx, subject)
}

// ClearAll removes every document and chunk.
func (p *Pipeline) ClearAll(ctx context.Context) error {
	if err := p.documents.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear collection: %w", err)
	}
	contextutil.LoggerFromContext(ctx).InfoContext(ctx, "cleared all documents")
	return nil
}
