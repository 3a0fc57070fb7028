package library

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"subject-tutor/internal/contextutil"
	"subject-tutor/internal/corpus"
	"subject-tutor/internal/extract"
)

// Ingester stores extracted documents. *indexer.Pipeline satisfies it.
type Ingester interface {
	IngestPDF(ctx context.Context, name string, subject corpus.Subject, pages []corpus.Page) (corpus.DocumentMetadata, error)
	IngestURL(ctx context.Context, rawURL string, subject corpus.Subject, text string) (corpus.DocumentMetadata, error)
}

// PageFetcher downloads a web page. *extract.Fetcher satisfies it.
type PageFetcher interface {
	Fetch(ctx context.Context, rawURL string) (extract.WebPage, error)
}

// Result is the outcome of ingesting one source.
type Result struct {
	Source   Source
	Document corpus.DocumentMetadata
	Err      error
}

// Report summarizes an IngestAll run.
type Report struct {
	Results   []Result
	Succeeded int
	Failed    int
}

// Loader ingests manifest sources through an Ingester.
type Loader struct {
	ingester Ingester
	fetcher  PageFetcher
	readPDF  func(path string) ([]corpus.Page, error)
}

// NewLoader creates a new Loader.
func NewLoader(ingester Ingester, fetcher PageFetcher) *Loader {
	return &Loader{
		ingester: ingester,
		fetcher:  fetcher,
		readPDF:  extract.ExtractPDFFile,
	}
}

// IngestAll ingests every source in order. A failing source does not stop the
// run; all failures are joined into the returned error.
func (l *Loader) IngestAll(ctx context.Context, sources []Source) (Report, error) {
	logger := contextutil.LoggerFromContext(ctx)

	var (
		report Report
		errs   []error
	)
	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		doc, err := l.Ingest(ctx, src)
		report.Results = append(report.Results, Result{Source: src, Document: doc, Err: err})
		if err != nil {
			report.Failed++
			errs = append(errs, fmt.Errorf("%s: %w", src.Label(), err))
			logger.WarnContext(ctx, "failed to ingest source", "source", src.Label(), "error", err)
			continue
		}
		report.Succeeded++
	}

	logger.InfoContext(ctx, "library ingestion complete",
		"sources", len(sources),
		"succeeded", report.Succeeded,
		"failed", report.Failed,
	)
	return report, errors.Join(errs...)
}

// Ingest extracts and stores a single source.
func (l *Loader) Ingest(ctx context.Context, src Source) (corpus.DocumentMetadata, error) {
	if src.URL != "" {
		if l.fetcher == nil {
			return corpus.DocumentMetadata{}, errors.New("no fetcher configured for url sources")
		}
		page, err := l.fetcher.Fetch(ctx, src.URL)
		if err != nil {
			return corpus.DocumentMetadata{}, err
		}
		return l.ingester.IngestURL(ctx, page.URL, src.Subject, page.Text)
	}

	pages, err := l.readPDF(src.Path)
	if err != nil {
		return corpus.DocumentMetadata{}, err
	}
	name := strings.TrimSpace(src.Name)
	if name == "" {
		name = filepath.Base(src.Path)
	}
	return l.ingester.IngestPDF(ctx, name, src.Subject, pages)
}
