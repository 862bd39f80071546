package state

import (
	"context"
	"fmt"

	"newsmon/app/cfg"
)

// Store reads and writes the snapshot. Read returns an opaque location
// token that must be passed back to Write; Write replaces the stored
// content atomically. Callers skip Write entirely when the snapshot is
// unchanged, so a no-op never reaches the store.
type Store interface {
	Read(ctx context.Context) (token string, snap *Snapshot, err error)
	Write(ctx context.Context, token string, snap *Snapshot) error
	Close() error
}

// ReadError wraps a snapshot read failure. The run aborts before selection
// when the prior state cannot be loaded.
type ReadError struct {
	Err error
}

func (e *ReadError) Error() string {
	return "state read failed: " + e.Err.Error()
}

func (e *ReadError) Unwrap() error {
	return e.Err
}

// WriteError wraps a snapshot write failure. It is surfaced distinctly
// from delivery failures: by the time a write runs, items have already
// been delivered and will be redelivered next run unless the write
// eventually succeeds.
type WriteError struct {
	Err error
}

func (e *WriteError) Error() string {
	return "state write failed: " + e.Err.Error()
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// Open constructs the snapshot store selected by the state driver setting.
func Open(c *cfg.Cfg) (Store, error) {
	switch c.StateDriver {
	case "file":
		return NewFileStore(c.StateFile), nil
	case "gist":
		if c.GistID == "" || c.GitHubToken == "" {
			return nil, fmt.Errorf("gist driver requires --gist-id and --github-token")
		}
		return NewGistStore(c.GistID, c.GitHubToken), nil
	case "sqlite":
		return NewSQLiteStore(c.DBPath)
	case "redis":
		return NewRedisStore(c.RedisAddr)
	default:
		return nil, fmt.Errorf("unknown state driver '%s'", c.StateDriver)
	}
}
