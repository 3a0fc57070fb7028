package storage

import (
	"context"
	"errors"
	"testing"

	"subject-tutor/internal/corpus"
)

func TestNewChunkRepo(t *testing.T) {
	repo := NewChunkRepo(newTestDB(t))
	if repo == nil {
		t.Fatal("NewChunkRepo() returned nil")
	}
}

func TestChunkRepo_ListAll_PreservesIngestionOrder(t *testing.T) {
	db := newTestDB(t)
	docs := NewDocumentRepo(db)
	repo := NewChunkRepo(db)
	ctx := context.Background()

	if err := docs.Append(ctx, testDocument("d1", corpus.SubjectDBMS, corpus.SourceTypePDF),
		testPDFChunks("d1", corpus.SubjectDBMS, "one", "two")); err != nil {
		t.Fatalf("Append(d1) error = %v", err)
	}
	if err := docs.Append(ctx, testDocument("d2", corpus.SubjectNLP, corpus.SourceTypePDF),
		testPDFChunks("d2", corpus.SubjectNLP, "three")); err != nil {
		t.Fatalf("Append(d2) error = %v", err)
	}

	chunks, err := repo.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll() error = %v", err)
	}

	want := []string{"one", "two", "three"}
	if len(chunks) != len(want) {
		t.Fatalf("ListAll() returned %d chunks, want %d", len(chunks), len(want))
	}
	for i, text := range want {
		if chunks[i].Text != text {
			t.Errorf("chunks[%d].Text = %q, want %q", i, chunks[i].Text, text)
		}
		if chunks[i].Score != 0 {
			t.Errorf("chunks[%d].Score = %v, want 0", i, chunks[i].Score)
		}
	}
}

func TestChunkRepo_ListAll_Empty(t *testing.T) {
	chunks, err := NewChunkRepo(newTestDB(t)).ListAll(context.Background())
	if err != nil {
		t.Fatalf("ListAll() error = %v", err)
	}
	if chunks == nil || len(chunks) != 0 {
		t.Errorf("ListAll() = %v, want empty slice", chunks)
	}
}

func TestChunkRepo_RoundTripsProvenance(t *testing.T) {
	db := newTestDB(t)
	docs := NewDocumentRepo(db)
	repo := NewChunkRepo(db)
	ctx := context.Background()

	urlChunk := corpus.Chunk{
		ID:         "u1",
		DocumentID: "web",
		Text:       "attention is all you need",
		Subject:    corpus.SubjectDeepLearning,
		SourceName: "arxiv.org",
		SourceType: corpus.SourceTypeURL,
		URL:        "https://arxiv.org/abs/1706.03762",
	}
	if err := docs.Append(ctx, testDocument("web", corpus.SubjectDeepLearning, corpus.SourceTypeURL), []corpus.Chunk{urlChunk}); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if err := docs.Append(ctx, testDocument("pdf", corpus.SubjectDBMS, corpus.SourceTypePDF),
		testPDFChunks("pdf", corpus.SubjectDBMS, "normal forms")); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	got, err := repo.GetByID(ctx, "u1")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got != urlChunk {
		t.Errorf("GetByID() = %+v, want %+v", got, urlChunk)
	}

	got, err = repo.GetByID(ctx, "pdf-chunk-a")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.PageNumber != 1 || got.URL != "" || got.SourceType != corpus.SourceTypePDF {
		t.Errorf("GetByID() = %+v, want PDF page 1 without URL", got)
	}
}

func TestChunkRepo_GetByID_NotFound(t *testing.T) {
	_, err := NewChunkRepo(newTestDB(t)).GetByID(context.Background(), "nope")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID() error = %v, want ErrNotFound", err)
	}
}

func TestChunkRepo_ListBySubjectAndCount(t *testing.T) {
	db := newTestDB(t)
	docs := NewDocumentRepo(db)
	repo := NewChunkRepo(db)
	ctx := context.Background()

	if err := docs.Append(ctx, testDocument("d1", corpus.SubjectDBMS, corpus.SourceTypePDF),
		testPDFChunks("d1", corpus.SubjectDBMS, "b-tree", "hash index")); err != nil {
		t.Fatalf("Append(d1) error = %v", err)
	}
	if err := docs.Append(ctx, testDocument("d2", corpus.SubjectMachineLearning, corpus.SourceTypePDF),
		testPDFChunks("d2", corpus.SubjectMachineLearning, "gradient descent")); err != nil {
		t.Fatalf("Append(d2) error = %v", err)
	}

	chunks, err := repo.ListBySubject(ctx, corpus.SubjectDBMS)
	if err != nil {
		t.Fatalf("ListBySubject() error = %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("ListBySubject() returned %d chunks, want 2", len(chunks))
	}
	for _, c := range chunks {
		if c.Subject != corpus.SubjectDBMS {
			t.Errorf("ListBySubject() returned chunk of subject %q", c.Subject)
		}
	}

	counts, err := repo.CountBySubject(ctx)
	if err != nil {
		t.Fatalf("CountBySubject() error = %v", err)
	}
	if counts[corpus.SubjectDBMS] != 2 || counts[corpus.SubjectMachineLearning] != 1 {
		t.Errorf("CountBySubject() = %v", counts)
	}
	if _, ok := counts[corpus.SubjectNLP]; ok {
		t.Errorf("CountBySubject() should omit subjects without chunks")
	}
}
