package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_document_store.go -package=mocks subject-tutor/internal/storage DocumentStore

import (
	"context"
	"database/sql"
	"fmt"

	"subject-tutor/internal/corpus"
)

const documentColumns = "id, name, source_type, subject, page_count, chunk_count, uploaded_at"

// DocumentStore defines the append-only write side of the collection.
type DocumentStore interface {
	// Append stores a document and its chunks atomically.
	// Readers never observe a document without all of its chunks.
	Append(ctx context.Context, doc corpus.DocumentMetadata, chunks []corpus.Chunk) error
	// ListAll returns all documents in ingestion order.
	ListAll(ctx context.Context) ([]corpus.DocumentMetadata, error)
	// ListBySubject returns the documents of one subject in ingestion order.
	ListBySubject(ctx context.Context, subject corpus.Subject) ([]corpus.DocumentMetadata, error)
	// GetByID gets a document by its ID. Returns ErrNotFound if not found.
	GetByID(ctx context.Context, id string) (corpus.DocumentMetadata, error)
	// Clear removes every document and chunk.
	Clear(ctx context.Context) error
}

// DocumentRepo provides methods for document operations.
// It implements the DocumentStore interface.
type DocumentRepo struct {
	db *sql.DB
}

// NewDocumentRepo creates a new DocumentRepo.
func NewDocumentRepo(db *sql.DB) *DocumentRepo {
	return &DocumentRepo{db: db}
}

// Append inserts the document row and all chunk rows in one transaction.
// Chunk rows receive increasing seq values in slice order.
func (r *DocumentRepo) Append(ctx context.Context, doc corpus.DocumentMetadata, chunks []corpus.Chunk) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO documents ("+documentColumns+") VALUES (?, ?, ?, ?, ?, ?, ?)",
		doc.ID, doc.Name, string(doc.Type), string(doc.Subject), doc.PageCount, doc.ChunkCount, doc.UploadedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert document: %w", err)
	}

	if len(chunks) > 0 {
		stmt, prepErr := tx.PrepareContext(ctx, "INSERT INTO chunks ("+chunkColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?)")
		if prepErr != nil {
			err = prepErr
			return fmt.Errorf("failed to prepare chunk insert: %w", err)
		}
		defer func() {
			_ = stmt.Close()
		}()

		for _, chunk := range chunks {
			_, err = stmt.ExecContext(ctx,
				chunk.ID, doc.ID, string(chunk.Subject), chunk.SourceName, string(chunk.SourceType),
				nullablePage(chunk.PageNumber), nullableURL(chunk.URL), chunk.Text,
			)
			if err != nil {
				return fmt.Errorf("failed to insert chunk: %w", err)
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit document: %w", err)
	}
	return nil
}

// ListAll returns all documents ordered by insertion.
func (r *DocumentRepo) ListAll(ctx context.Context) ([]corpus.DocumentMetadata, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+documentColumns+" FROM documents ORDER BY rowid")
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	return collectDocuments(rows)
}

// ListBySubject returns the documents of one subject ordered by insertion.
func (r *DocumentRepo) ListBySubject(ctx context.Context, subject corpus.Subject) ([]corpus.DocumentMetadata, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+documentColumns+" FROM documents WHERE subject = ? ORDER BY rowid",
		string(subject),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents by subject: %w", err)
	}
	return collectDocuments(rows)
}

// GetByID gets a document by its ID. Returns ErrNotFound if not found.
func (r *DocumentRepo) GetByID(ctx context.Context, id string) (corpus.DocumentMetadata, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+documentColumns+" FROM documents WHERE id = ?", id)
	doc, err := scanDocument(row)
	if err == sql.ErrNoRows {
		return corpus.DocumentMetadata{}, ErrNotFound
	}
	if err != nil {
		return corpus.DocumentMetadata{}, fmt.Errorf("failed to query document: %w", err)
	}
	return doc, nil
}

// Clear deletes all chunks and documents. Used when the host resets its state.
func (r *DocumentRepo) Clear(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM chunks"); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to delete chunks: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM documents"); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to delete documents: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit clear: %w", err)
	}
	return nil
}

func collectDocuments(rows *sql.Rows) ([]corpus.DocumentMetadata, error) {
	defer func() {
		_ = rows.Close()
	}()

	docs := []corpus.DocumentMetadata{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return docs, nil
}
