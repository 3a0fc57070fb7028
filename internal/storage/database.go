package storage

import (
	"database/sql"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// MemoryPath opens a private in-memory database that lives as long as the process.
const MemoryPath = ":memory:"

// New opens a SQLite database connection at the given path.
// It enables foreign keys and sets connection pool settings.
// In-memory databases are pinned to a single connection that never expires,
// since every new connection would otherwise see an empty database.
func New(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if IsMemoryPath(path) {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	// Enable foreign keys (disabled by default in SQLite)
	if _, err := db.Exec("PRAGMA foreign_keys = ON;"); err != nil {
		_ = db.Close()
		return nil, err
	}

	// Verify connection
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// IsMemoryPath reports whether path names an in-memory database.
func IsMemoryPath(path string) bool {
	return path == MemoryPath || strings.Contains(path, ":memory:") || strings.Contains(path, "mode=memory")
}

// Migrate runs database migrations to create the required tables.
// It is idempotent and can be run multiple times safely.
func Migrate(db *sql.DB) error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			source_type TEXT NOT NULL CHECK (source_type IN ('PDF', 'URL')),
			subject TEXT NOT NULL,
			page_count INTEGER NOT NULL,
			chunk_count INTEGER NOT NULL,
			uploaded_at DATETIME NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS chunks (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			document_id TEXT NOT NULL,
			subject TEXT NOT NULL,
			source_name TEXT NOT NULL,
			source_type TEXT NOT NULL CHECK (source_type IN ('PDF', 'URL')),
			page_number INTEGER,
			url TEXT,
			text TEXT NOT NULL CHECK (length(text) > 0),
			FOREIGN KEY (document_id) REFERENCES documents(id) ON DELETE CASCADE
		);`,
		`CREATE INDEX IF NOT EXISTS idx_chunks_subject ON chunks(subject, seq);`,
		`CREATE INDEX IF NOT EXISTS idx_documents_subject ON documents(subject);`,
	}

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}

	return nil
}
