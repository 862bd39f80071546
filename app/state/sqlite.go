package state

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps delivered titles in a local database, one row per
// (feed_url, title), ordered by insertion. Writes replace the stored rows
// wholesale inside one transaction, matching the atomic-replace contract.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite prefers a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set journal mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA synchronous = NORMAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set synchronous mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	version, dirty, err := RunMigrations(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	if dirty {
		db.Close()
		return nil, fmt.Errorf("database is in a dirty migration state (version %d)", version)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Read(ctx context.Context) (string, *Snapshot, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT feed_url, title FROM delivered ORDER BY rowid")
	if err != nil {
		return "", nil, &ReadError{Err: err}
	}
	defer rows.Close()

	snap := NewSnapshot()
	for rows.Next() {
		var feedURL, title string
		if err := rows.Scan(&feedURL, &title); err != nil {
			return "", nil, &ReadError{Err: err}
		}
		snap.add(feedURL, title)
	}
	if err := rows.Err(); err != nil {
		return "", nil, &ReadError{Err: err}
	}

	return "delivered", snap, nil
}

func (s *SQLiteStore) Write(ctx context.Context, token string, snap *Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &WriteError{Err: err}
	}
	defer tx.Rollback()

	// Replace wholesale: retention trimming can shrink the snapshot, and
	// INSERT OR IGNORE alone could not remove the trimmed rows.
	if _, err := tx.ExecContext(ctx, "DELETE FROM delivered"); err != nil {
		return &WriteError{Err: err}
	}

	stmt, err := tx.PrepareContext(ctx,
		"INSERT OR IGNORE INTO delivered (feed_url, title) VALUES (?, ?)")
	if err != nil {
		return &WriteError{Err: err}
	}
	defer stmt.Close()

	for feedURL, titles := range snap.Map() {
		for _, title := range titles {
			if _, err := stmt.ExecContext(ctx, feedURL, title); err != nil {
				return &WriteError{Err: err}
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return &WriteError{Err: err}
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
