package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/docqa/internal/models"
)

// maxIDsPerQuery keeps IN (...) lists under SQLite's bound-variable limit.
const maxIDsPerQuery = 500

// SQLiteStorage implements ChunkStore using SQLite.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS chunks (
		id TEXT PRIMARY KEY,
		document_id TEXT NOT NULL,
		source_path TEXT NOT NULL,
		chunk_index INTEGER NOT NULL,
		content TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_chunks_document_id ON chunks(document_id);
	`
	_, err := db.Exec(schema)
	return err
}

const chunkColumns = `id, document_id, source_path, chunk_index, content, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanChunk(r rowScanner) (models.Chunk, error) {
	var ch models.Chunk
	err := r.Scan(&ch.ID, &ch.Metadata.DocumentID, &ch.Metadata.SourcePath,
		&ch.Metadata.ChunkIndex, &ch.Text, &ch.Metadata.Timestamp)
	return ch, err
}

// BatchCreateChunks inserts all chunks in one transaction.
func (s *SQLiteStorage) BatchCreateChunks(ctx context.Context, chunks []models.Chunk) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO chunks (`+chunkColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, ch := range chunks {
		m := ch.Metadata
		if _, err := stmt.ExecContext(ctx, ch.ID, m.DocumentID, m.SourcePath, m.ChunkIndex, ch.Text, m.Timestamp.UTC()); err != nil {
			return fmt.Errorf("insert chunk %s: %w", ch.ID, err)
		}
	}
	return tx.Commit()
}

// GetChunksByIDs returns the chunks for ids in the order given. Unknown IDs are skipped.
func (s *SQLiteStorage) GetChunksByIDs(ctx context.Context, ids []string) ([]models.Chunk, error) {
	byID := make(map[string]models.Chunk, len(ids))
	for start := 0; start < len(ids); start += maxIDsPerQuery {
		end := start + maxIDsPerQuery
		if end > len(ids) {
			end = len(ids)
		}
		batch := ids[start:end]
		args := make([]any, len(batch))
		for i, id := range batch {
			args[i] = id
		}
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(batch)), ",")
		rows, err := s.db.QueryContext(ctx,
			`SELECT `+chunkColumns+` FROM chunks WHERE id IN (`+placeholders+`)`, args...)
		if err != nil {
			return nil, err
		}
		for rows.Next() {
			ch, err := scanChunk(rows)
			if err != nil {
				rows.Close()
				return nil, err
			}
			byID[ch.ID] = ch
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return nil, err
		}
	}
	out := make([]models.Chunk, 0, len(ids))
	for _, id := range ids {
		if ch, ok := byID[id]; ok {
			out = append(out, ch)
		}
	}
	return out, nil
}

// ChunksByDocument returns up to limit chunks of documentID in insertion order.
// A limit of zero or less returns all of them.
func (s *SQLiteStorage) ChunksByDocument(ctx context.Context, documentID string, limit int) ([]models.Chunk, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+chunkColumns+` FROM chunks WHERE document_id = ? ORDER BY rowid LIMIT ?`,
		documentID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chunks []models.Chunk
	for rows.Next() {
		ch, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, ch)
	}
	return chunks, rows.Err()
}

// ListChunkMetadata returns the metadata of every chunk in insertion order.
func (s *SQLiteStorage) ListChunkMetadata(ctx context.Context) ([]models.ChunkMetadata, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT document_id, source_path, chunk_index, created_at FROM chunks ORDER BY rowid`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var metas []models.ChunkMetadata
	for rows.Next() {
		var m models.ChunkMetadata
		if err := rows.Scan(&m.DocumentID, &m.SourcePath, &m.ChunkIndex, &m.Timestamp); err != nil {
			return nil, err
		}
		metas = append(metas, m)
	}
	return metas, rows.Err()
}

// CountChunks returns the total number of chunks.
func (s *SQLiteStorage) CountChunks(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks`).Scan(&count)
	return count, err
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
