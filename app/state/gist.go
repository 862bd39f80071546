package state

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"
)

const (
	gistAPIBase     = "https://api.github.com"
	defaultGistFile = "newsmon_state.json"
)

// GistStore keeps the snapshot as one JSON file inside a GitHub Gist. The
// location token is the gist filename discovered on read; the write
// replaces that file's content in a single PATCH, which GitHub applies
// atomically.
type GistStore struct {
	gistID  string
	token   string
	baseURL string
	client  *http.Client
}

type gistFile struct {
	Content string `json:"content"`
}

type gistPayload struct {
	Files map[string]gistFile `json:"files"`
}

func NewGistStore(gistID, token string) *GistStore {
	return &GistStore{
		gistID:  gistID,
		token:   token,
		baseURL: gistAPIBase,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (s *GistStore) Read(ctx context.Context) (string, *Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.gistURL(), nil)
	if err != nil {
		return "", nil, &ReadError{Err: err}
	}
	s.setHeaders(req)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", nil, &ReadError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", nil, &ReadError{Err: fmt.Errorf("gist fetch returned status %d", resp.StatusCode)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", nil, &ReadError{Err: err}
	}

	var payload gistPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", nil, &ReadError{Err: fmt.Errorf("failed to parse gist response: %w", err)}
	}

	filename := pickStateFile(payload.Files)
	if filename == "" {
		return defaultGistFile, NewSnapshot(), nil
	}

	content := payload.Files[filename].Content
	if content == "" {
		return filename, NewSnapshot(), nil
	}

	var feeds map[string][]string
	if err := json.Unmarshal([]byte(content), &feeds); err != nil {
		return "", nil, &ReadError{Err: fmt.Errorf("failed to parse state file '%s': %w", filename, err)}
	}

	return filename, SnapshotFromMap(feeds), nil
}

func (s *GistStore) Write(ctx context.Context, token string, snap *Snapshot) error {
	content, err := json.MarshalIndent(snap.Map(), "", "  ")
	if err != nil {
		return &WriteError{Err: err}
	}

	payload := gistPayload{
		Files: map[string]gistFile{
			token: {Content: string(content)},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return &WriteError{Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, s.gistURL(), bytes.NewReader(body))
	if err != nil {
		return &WriteError{Err: err}
	}
	s.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return &WriteError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &WriteError{Err: fmt.Errorf("gist update returned status %d", resp.StatusCode)}
	}

	return nil
}

func (s *GistStore) Close() error {
	return nil
}

func (s *GistStore) gistURL() string {
	return s.baseURL + "/gists/" + s.gistID
}

func (s *GistStore) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("Accept", "application/vnd.github+json")
}

// pickStateFile chooses which gist file holds the snapshot: the default
// name when present, otherwise the alphabetically first file.
func pickStateFile(files map[string]gistFile) string {
	if _, ok := files[defaultGistFile]; ok {
		return defaultGistFile
	}

	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	if len(names) == 0 {
		return ""
	}
	sort.Strings(names)
	return names[0]
}
