// Package checkpoint persists the feed resume position in SQLite so a
// restarted daemon continues from where it stopped instead of replaying or
// skipping the stream.
package checkpoint

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

// Store is a small keyed position store. One row per stream name.
type Store struct {
	db   *sql.DB
	name string
}

// Open opens (creating if needed) the checkpoint database at path and
// scopes the store to the given stream name.
func Open(path, name string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open checkpoint db: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS checkpoints (
			stream     TEXT PRIMARY KEY,
			position   TEXT NOT NULL,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create checkpoints table: %w", err)
	}

	return &Store{db: db, name: name}, nil
}

// Save upserts the resume position for the store's stream.
func (s *Store) Save(ctx context.Context, position string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO checkpoints (stream, position, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(stream) DO UPDATE SET
			position = excluded.position,
			updated_at = excluded.updated_at
	`, s.name, position)
	if err != nil {
		return fmt.Errorf("save checkpoint: %w", err)
	}
	return nil
}

// Load returns the saved resume position, or "" when none has been saved.
func (s *Store) Load(ctx context.Context) (string, error) {
	var position string
	err := s.db.QueryRowContext(ctx,
		`SELECT position FROM checkpoints WHERE stream = ?`, s.name,
	).Scan(&position)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("load checkpoint: %w", err)
	}
	return position, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
