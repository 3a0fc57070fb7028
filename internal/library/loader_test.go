package library

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"subject-tutor/internal/corpus"
	"subject-tutor/internal/extract"
)

type fakeIngester struct {
	pdfs []string
	urls []string
}

func (f *fakeIngester) IngestPDF(_ context.Context, name string, subject corpus.Subject, pages []corpus.Page) (corpus.DocumentMetadata, error) {
	f.pdfs = append(f.pdfs, name)
	return corpus.DocumentMetadata{Name: name, Type: corpus.SourceTypePDF, Subject: subject, PageCount: len(pages)}, nil
}

func (f *fakeIngester) IngestURL(_ context.Context, rawURL string, subject corpus.Subject, text string) (corpus.DocumentMetadata, error) {
	f.urls = append(f.urls, rawURL+"|"+text)
	return corpus.DocumentMetadata{Name: rawURL, Type: corpus.SourceTypeURL, Subject: subject, PageCount: 1}, nil
}

type fakeFetcher struct {
	pages map[string]extract.WebPage
}

func (f *fakeFetcher) Fetch(_ context.Context, rawURL string) (extract.WebPage, error) {
	page, ok := f.pages[rawURL]
	if !ok {
		return extract.WebPage{}, errors.New("bad status 404")
	}
	return page, nil
}

func newTestLoader(ingester *fakeIngester) *Loader {
	loader := NewLoader(ingester, &fakeFetcher{pages: map[string]extract.WebPage{
		"https://example.com/sql": {URL: "https://example.com/sql", Host: "example.com", Text: "joins and indexes"},
	}})
	loader.readPDF = func(path string) ([]corpus.Page, error) {
		if path == "/broken.pdf" {
			return nil, extract.ErrNoPages
		}
		return []corpus.Page{{Text: "page one", Number: 1}, {Text: "page two", Number: 2}}, nil
	}
	return loader
}

func TestLoader_IngestAll(t *testing.T) {
	ingester := &fakeIngester{}
	loader := newTestLoader(ingester)

	sources := []Source{
		{Subject: corpus.SubjectDBMS, Path: "/lib/normal-forms.pdf"},
		{Subject: corpus.SubjectDBMS, Path: "/lib/x.pdf", Name: "Indexing Notes"},
		{Subject: corpus.SubjectDBMS, URL: "https://example.com/sql"},
	}

	report, err := loader.IngestAll(context.Background(), sources)
	require.NoError(t, err)

	assert.Equal(t, 3, report.Succeeded)
	assert.Equal(t, 0, report.Failed)
	require.Len(t, report.Results, 3)
	assert.Equal(t, 2, report.Results[0].Document.PageCount)
	assert.Equal(t, []string{"normal-forms.pdf", "Indexing Notes"}, ingester.pdfs)
	assert.Equal(t, []string{"https://example.com/sql|joins and indexes"}, ingester.urls)
}

func TestLoader_IngestAll_ContinuesPastFailures(t *testing.T) {
	ingester := &fakeIngester{}
	loader := newTestLoader(ingester)

	sources := []Source{
		{Subject: corpus.SubjectNLP, Path: "/broken.pdf"},
		{Subject: corpus.SubjectNLP, URL: "https://example.com/missing"},
		{Subject: corpus.SubjectNLP, Path: "/lib/tokenizers.pdf"},
	}

	report, err := loader.IngestAll(context.Background(), sources)
	require.Error(t, err)
	assert.ErrorIs(t, err, extract.ErrNoPages)
	assert.Contains(t, err.Error(), "https://example.com/missing")

	assert.Equal(t, 1, report.Succeeded)
	assert.Equal(t, 2, report.Failed)
	assert.Error(t, report.Results[0].Err)
	assert.Error(t, report.Results[1].Err)
	assert.NoError(t, report.Results[2].Err)
	assert.Equal(t, []string{"tokenizers.pdf"}, ingester.pdfs)
}

func TestLoader_IngestAll_Canceled(t *testing.T) {
	ingester := &fakeIngester{}
	loader := newTestLoader(ingester)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := loader.IngestAll(ctx, []Source{{Subject: corpus.SubjectDBMS, Path: "/lib/a.pdf"}})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, report.Results)
	assert.Empty(t, ingester.pdfs)
}

func TestLoader_Ingest_NoFetcher(t *testing.T) {
	loader := NewLoader(&fakeIngester{}, nil)

	_, err := loader.Ingest(context.Background(), Source{Subject: corpus.SubjectDBMS, URL: "https://example.com"})
	assert.Error(t, err)
}
