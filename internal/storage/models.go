package storage

import (
	"database/sql"
	"errors"

	"subject-tutor/internal/corpus"
)

var (
	// ErrNotFound is returned when a record is not found.
	ErrNotFound = errors.New("record not found")
)

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanChunk(row rowScanner) (corpus.Chunk, error) {
	var (
		chunk      corpus.Chunk
		subject    string
		sourceType string
		pageNumber sql.NullInt64
		url        sql.NullString
	)
	if err := row.Scan(&chunk.ID, &chunk.DocumentID, &subject, &chunk.SourceName, &sourceType, &pageNumber, &url, &chunk.Text); err != nil {
		return corpus.Chunk{}, err
	}
	chunk.Subject = corpus.Subject(subject)
	chunk.SourceType = corpus.SourceType(sourceType)
	chunk.PageNumber = int(pageNumber.Int64)
	chunk.URL = url.String
	return chunk, nil
}

func scanDocument(row rowScanner) (corpus.DocumentMetadata, error) {
	var (
		doc        corpus.DocumentMetadata
		sourceType string
		subject    string
	)
	if err := row.Scan(&doc.ID, &doc.Name, &sourceType, &subject, &doc.PageCount, &doc.ChunkCount, &doc.UploadedAt); err != nil {
		return corpus.DocumentMetadata{}, err
	}
	doc.Type = corpus.SourceType(sourceType)
	doc.Subject = corpus.Subject(subject)
	return doc, nil
}

func nullablePage(page int) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(page), Valid: page > 0}
}

func nullableURL(url string) sql.NullString {
	return sql.NullString{String: url, Valid: url != ""}
}
