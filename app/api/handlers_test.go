package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"newsmon/app/cfg"
	"newsmon/app/config"
	"newsmon/app/runner"
	"newsmon/app/tasks"
)

type fakeRunner struct {
	last   runner.Result
	hasRun bool
}

func (f *fakeRunner) Run(ctx context.Context) (runner.Result, error) {
	return f.last, nil
}

func (f *fakeRunner) Last() (runner.Result, bool) {
	return f.last, f.hasRun
}

type fakeScheduler struct {
	enqueued []tasks.TaskInterface
	err      error
}

func (f *fakeScheduler) Start() {}
func (f *fakeScheduler) Stop()  {}

func (f *fakeScheduler) EnqueueTask(task tasks.TaskInterface) error {
	if f.err != nil {
		return f.err
	}
	f.enqueued = append(f.enqueued, task)
	return nil
}

func loadedConfigs(t *testing.T) *config.Cache {
	t.Helper()

	path := filepath.Join(t.TempDir(), "topics.yml")
	content := `
topics:
  world:
    channel: "@world"
    feeds:
      - https://example.com/rss
      - https://example.org/feed
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cache := config.NewCache(path)
	if _, err := cache.Load(); err != nil {
		t.Fatal(err)
	}
	return cache
}

func serveRequest(server http.Handler, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	for name, value := range headers {
		req.Header.Set(name, value)
	}
	server.ServeHTTP(w, req)
	return w
}

func TestHealthEndpoint(t *testing.T) {
	handler := NewHandler(&cfg.Cfg{Version: "1.2.3"}, &fakeRunner{}, config.NewCache("absent.yml"), &fakeScheduler{})
	server := NewServer(handler, "")

	w := serveRequest(server, "GET", "/health", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var body struct {
		Status  string `json:"status"`
		Version string `json:"version"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Status != "ok" {
		t.Errorf("Expected status 'ok', got '%s'", body.Status)
	}
	if body.Version != "1.2.3" {
		t.Errorf("Expected version '1.2.3', got '%s'", body.Version)
	}
}

func TestStatusEndpoint(t *testing.T) {
	r := &fakeRunner{
		last:   runner.Result{RunID: "r-1", Delivered: 2, Committed: true},
		hasRun: true,
	}
	handler := NewHandler(&cfg.Cfg{Schedule: "@hourly", StateDriver: "file"}, r, loadedConfigs(t), &fakeScheduler{})
	server := NewServer(handler, "")

	w := serveRequest(server, "GET", "/status", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var body struct {
		Schedule    string         `json:"schedule"`
		StateDriver string         `json:"state_driver"`
		Topics      int            `json:"topics"`
		Feeds       int            `json:"feeds"`
		LastRun     *runner.Result `json:"last_run"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Schedule != "@hourly" {
		t.Errorf("Expected schedule '@hourly', got '%s'", body.Schedule)
	}
	if body.StateDriver != "file" {
		t.Errorf("Expected state driver 'file', got '%s'", body.StateDriver)
	}
	if body.Topics != 1 || body.Feeds != 2 {
		t.Errorf("Expected 1 topic and 2 feeds, got %d and %d", body.Topics, body.Feeds)
	}
	if body.LastRun == nil {
		t.Fatal("Expected last_run to be present")
	}
	if body.LastRun.RunID != "r-1" || body.LastRun.Delivered != 2 || !body.LastRun.Committed {
		t.Errorf("Unexpected last run: %+v", body.LastRun)
	}
}

func TestStatusEndpointBeforeFirstRun(t *testing.T) {
	handler := NewHandler(&cfg.Cfg{Schedule: "@hourly"}, &fakeRunner{}, config.NewCache("absent.yml"), &fakeScheduler{})
	server := NewServer(handler, "")

	w := serveRequest(server, "GET", "/status", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var body struct {
		LastRun *runner.Result `json:"last_run"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.LastRun != nil {
		t.Errorf("Expected no last_run before first run, got %+v", body.LastRun)
	}
}

func TestTriggerRun(t *testing.T) {
	scheduler := &fakeScheduler{}
	handler := NewHandler(&cfg.Cfg{}, &fakeRunner{}, config.NewCache("absent.yml"), scheduler)
	server := NewServer(handler, "")

	w := serveRequest(server, "POST", "/run", nil)

	if w.Code != http.StatusAccepted {
		t.Fatalf("Expected status 202, got %d", w.Code)
	}
	if len(scheduler.enqueued) != 1 {
		t.Fatalf("Expected 1 enqueued task, got %d", len(scheduler.enqueued))
	}

	task := scheduler.enqueued[0]
	if task.GetType() != tasks.TaskTypeRun {
		t.Errorf("Expected task type %s, got %s", tasks.TaskTypeRun, task.GetType())
	}
	if task.GetSource() != tasks.SourceAPI {
		t.Errorf("Expected source %s, got %s", tasks.SourceAPI, task.GetSource())
	}

	var body struct {
		Status string `json:"status"`
		Task   struct {
			ID   string `json:"id"`
			Type string `json:"type"`
		} `json:"task"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Status != "queued" {
		t.Errorf("Expected status 'queued', got '%s'", body.Status)
	}
	if body.Task.ID == "" {
		t.Error("Expected task ID in response")
	}
}

func TestTriggerRunQueueFull(t *testing.T) {
	scheduler := &fakeScheduler{err: tasks.ErrQueueFull}
	handler := NewHandler(&cfg.Cfg{}, &fakeRunner{}, config.NewCache("absent.yml"), scheduler)
	server := NewServer(handler, "")

	w := serveRequest(server, "POST", "/run", nil)

	if w.Code != http.StatusConflict {
		t.Errorf("Expected status 409, got %d", w.Code)
	}
}

func TestTriggerRunRequiresAPIKey(t *testing.T) {
	scheduler := &fakeScheduler{}
	handler := NewHandler(&cfg.Cfg{}, &fakeRunner{}, config.NewCache("absent.yml"), scheduler)
	server := NewServer(handler, "sekret")

	w := serveRequest(server, "POST", "/run", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401 without key, got %d", w.Code)
	}

	w = serveRequest(server, "POST", "/run", map[string]string{"X-API-Key": "wrong"})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401 with wrong key, got %d", w.Code)
	}

	w = serveRequest(server, "POST", "/run", map[string]string{"X-API-Key": "sekret"})
	if w.Code != http.StatusAccepted {
		t.Errorf("Expected status 202 with key, got %d", w.Code)
	}

	w = serveRequest(server, "POST", "/run", map[string]string{"Authorization": "Bearer sekret"})
	if w.Code != http.StatusAccepted {
		t.Errorf("Expected status 202 with bearer token, got %d", w.Code)
	}

	if len(scheduler.enqueued) != 2 {
		t.Errorf("Expected 2 enqueued tasks, got %d", len(scheduler.enqueued))
	}

	// Health stays open regardless of the key
	w = serveRequest(server, "GET", "/health", nil)
	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200 for health without key, got %d", w.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	handler := NewHandler(&cfg.Cfg{}, &fakeRunner{}, config.NewCache("absent.yml"), &fakeScheduler{})
	server := NewServer(handler, "")

	w := serveRequest(server, "GET", "/metrics", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "# HELP") {
		t.Error("Expected Prometheus exposition format in response")
	}
}
