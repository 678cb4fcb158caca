package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// DraftStore implements domain.DraftCache on the local SQLite database.
type DraftStore struct {
	db *DB
}

func NewDraftStore(db *DB) *DraftStore {
	return &DraftStore{db: db}
}

// Save overwrites the blob stored under key.
func (s *DraftStore) Save(ctx context.Context, key string, blob []byte) error {
	_, err := s.db.conn.ExecContext(ctx,
		`INSERT INTO drafts (key, blob, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET blob = excluded.blob, updated_at = excluded.updated_at`,
		key, blob, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("save draft %s: %w", key, err)
	}
	return nil
}

// Load returns the blob under key. ok is false when nothing is stored.
func (s *DraftStore) Load(ctx context.Context, key string) ([]byte, bool, error) {
	var blob []byte
	err := s.db.conn.QueryRowContext(ctx, `SELECT blob FROM drafts WHERE key = ?`, key).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load draft %s: %w", key, err)
	}
	return blob, true, nil
}

// Clear removes key. Clearing an absent key is not an error.
func (s *DraftStore) Clear(ctx context.Context, key string) error {
	if _, err := s.db.conn.ExecContext(ctx, `DELETE FROM drafts WHERE key = ?`, key); err != nil {
		return fmt.Errorf("clear draft %s: %w", key, err)
	}
	return nil
}

// UpdatedAt returns when key was last saved, or the zero time.
func (s *DraftStore) UpdatedAt(ctx context.Context, key string) (time.Time, error) {
	var t time.Time
	err := s.db.conn.QueryRowContext(ctx, `SELECT updated_at FROM drafts WHERE key = ?`, key).Scan(&t)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("draft timestamp %s: %w", key, err)
	}
	return t, nil
}
