package state

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// FileStore keeps the snapshot in a single local JSON document. A missing
// file reads as an empty snapshot. Writes go through a temp file and
// rename so a crash mid-write never leaves a truncated snapshot behind.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Read(ctx context.Context) (string, *Snapshot, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return s.path, NewSnapshot(), nil
		}
		return "", nil, &ReadError{Err: err}
	}

	var feeds map[string][]string
	if err := json.Unmarshal(data, &feeds); err != nil {
		return "", nil, &ReadError{Err: fmt.Errorf("failed to parse %s: %w", s.path, err)}
	}

	return s.path, SnapshotFromMap(feeds), nil
}

func (s *FileStore) Write(ctx context.Context, token string, snap *Snapshot) error {
	data, err := json.MarshalIndent(snap.Map(), "", "  ")
	if err != nil {
		return &WriteError{Err: err}
	}

	dir := filepath.Dir(token)
	tmp, err := os.CreateTemp(dir, ".newsmon_state-*")
	if err != nil {
		return &WriteError{Err: err}
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return &WriteError{Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return &WriteError{Err: err}
	}

	if err := os.Rename(tmp.Name(), token); err != nil {
		os.Remove(tmp.Name())
		return &WriteError{Err: err}
	}

	return nil
}

func (s *FileStore) Close() error {
	return nil
}
