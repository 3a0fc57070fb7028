package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_chunk_store.go -package=mocks subject-tutor/internal/storage ChunkStore

import (
	"context"
	"database/sql"
	"fmt"

	"subject-tutor/internal/corpus"
)

const chunkColumns = "id, document_id, subject, source_name, source_type, page_number, url, text"

// ChunkStore defines the read side of the chunk collection.
// Chunks are written only through DocumentStore.Append.
type ChunkStore interface {
	// ListAll returns every chunk in ingestion order.
	ListAll(ctx context.Context) ([]corpus.Chunk, error)
	// ListBySubject returns the chunks of one subject in ingestion order.
	ListBySubject(ctx context.Context, subject corpus.Subject) ([]corpus.Chunk, error)
	// GetByID gets a chunk by its ID. Returns ErrNotFound if not found.
	GetByID(ctx context.Context, id string) (corpus.Chunk, error)
	// CountBySubject returns the number of chunks per subject.
	CountBySubject(ctx context.Context) (map[corpus.Subject]int, error)
}

// ChunkRepo provides methods for chunk operations.
// It implements the ChunkStore interface.
type ChunkRepo struct {
	db *sql.DB
}

// NewChunkRepo creates a new ChunkRepo.
func NewChunkRepo(db *sql.DB) *ChunkRepo {
	return &ChunkRepo{db: db}
}

// ListAll returns every chunk ordered by insertion sequence.
func (r *ChunkRepo) ListAll(ctx context.Context) ([]corpus.Chunk, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+chunkColumns+" FROM chunks ORDER BY seq")
	if err != nil {
		return nil, fmt.Errorf("failed to query chunks: %w", err)
	}
	return collectChunks(rows)
}

// ListBySubject returns the chunks of one subject ordered by insertion sequence.
func (r *ChunkRepo) ListBySubject(ctx context.Context, subject corpus.Subject) ([]corpus.Chunk, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+chunkColumns+" FROM chunks WHERE subject = ? ORDER BY seq",
		string(subject),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunks by subject: %w", err)
	}
	return collectChunks(rows)
}

// GetByID gets a chunk by its ID. Returns ErrNotFound if not found.
func (r *ChunkRepo) GetByID(ctx context.Context, id string) (corpus.Chunk, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+chunkColumns+" FROM chunks WHERE id = ?", id)
	chunk, err := scanChunk(row)
	if err == sql.ErrNoRows {
		return corpus.Chunk{}, ErrNotFound
	}
	if err != nil {
		return corpus.Chunk{}, fmt.Errorf("failed to query chunk: %w", err)
	}
	return chunk, nil
}

// CountBySubject returns chunk counts keyed by subject. Subjects without chunks are absent.
func (r *ChunkRepo) CountBySubject(ctx context.Context) (map[corpus.Subject]int, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT subject, COUNT(*) FROM chunks GROUP BY subject")
	if err != nil {
		return nil, fmt.Errorf("failed to count chunks: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	counts := make(map[corpus.Subject]int)
	for rows.Next() {
		var subject string
		var count int
		if err := rows.Scan(&subject, &count); err != nil {
			return nil, fmt.Errorf("failed to scan chunk count: %w", err)
		}
		counts[corpus.Subject(subject)] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return counts, nil
}

func collectChunks(rows *sql.Rows) ([]corpus.Chunk, error) {
	defer func() {
		_ = rows.Close()
	}()

	chunks := []corpus.Chunk{}
	for rows.Next() {
		chunk, err := scanChunk(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan chunk: %w", err)
		}
		chunks = append(chunks, chunk)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return chunks, nil
}
