package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func testClient(serverURL string) *Client {
	client := NewClient("123456:test-token")
	client.baseURL = serverURL
	return client
}

func TestClientSendMessageSuccess(t *testing.T) {
	var gotPath string
	var gotBody sendMessageRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("Expected decodable body, got error: %v", err)
		}
		w.Write([]byte(`{"ok": true}`))
	}))
	defer server.Close()

	err := testClient(server.URL).SendMessage(context.Background(), "@channel", "hello")
	if err != nil {
		t.Fatal(err)
	}

	if gotPath != "/bot123456:test-token/sendMessage" {
		t.Errorf("Expected sendMessage path with token, got '%s'", gotPath)
	}
	if gotBody.ChatID != "@channel" {
		t.Errorf("Expected chat_id '@channel', got '%s'", gotBody.ChatID)
	}
	if gotBody.Text != "hello" {
		t.Errorf("Expected text 'hello', got '%s'", gotBody.Text)
	}
}

func TestClientSendMessageRateLimitedWithHint(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"ok": false, "error_code": 429, "description": "Too Many Requests: retry after 30", "parameters": {"retry_after": 30}}`))
	}))
	defer server.Close()

	err := testClient(server.URL).SendMessage(context.Background(), "@channel", "hello")
	if err == nil {
		t.Fatal("Expected error for 429 response")
	}

	var notifyErr *Error
	if !errors.As(err, &notifyErr) {
		t.Fatalf("Expected *Error, got %T", err)
	}
	if notifyErr.Kind != KindRateLimited {
		t.Errorf("Expected KindRateLimited, got %s", notifyErr.Kind)
	}
	if notifyErr.RetryAfter != 30*time.Second {
		t.Errorf("Expected retry hint 30s, got %v", notifyErr.RetryAfter)
	}
}

func TestClientSendMessageRateLimitedWithoutHint(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"ok": false, "error_code": 429, "description": "Too Many Requests"}`))
	}))
	defer server.Close()

	err := testClient(server.URL).SendMessage(context.Background(), "@channel", "hello")

	var notifyErr *Error
	if !errors.As(err, &notifyErr) {
		t.Fatalf("Expected *Error, got %T", err)
	}
	if notifyErr.Kind != KindRateLimited {
		t.Errorf("Expected KindRateLimited, got %s", notifyErr.Kind)
	}
	if notifyErr.RetryAfter != 0 {
		t.Errorf("Expected no retry hint, got %v", notifyErr.RetryAfter)
	}
}

func TestClientSendMessageFatal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"ok": false, "error_code": 400, "description": "Bad Request: chat not found"}`))
	}))
	defer server.Close()

	err := testClient(server.URL).SendMessage(context.Background(), "@channel", "hello")

	var notifyErr *Error
	if !errors.As(err, &notifyErr) {
		t.Fatalf("Expected *Error, got %T", err)
	}
	if notifyErr.Kind != KindFatal {
		t.Errorf("Expected KindFatal, got %s", notifyErr.Kind)
	}
	if !strings.Contains(notifyErr.Message, "chat not found") {
		t.Errorf("Expected description in message, got '%s'", notifyErr.Message)
	}
}

func TestClientSendMessageNetworkErrorHidesToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	err := testClient(server.URL).SendMessage(context.Background(), "@channel", "hello")
	if err == nil {
		t.Fatal("Expected error for unreachable server")
	}

	var notifyErr *Error
	if !errors.As(err, &notifyErr) {
		t.Fatalf("Expected *Error, got %T", err)
	}
	if notifyErr.Kind != KindFatal {
		t.Errorf("Expected KindFatal, got %s", notifyErr.Kind)
	}
	if strings.Contains(err.Error(), "test-token") {
		t.Errorf("Expected token kept out of error text, got '%s'", err.Error())
	}
}

func TestClientSendMessageUnparsableBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("<html>gateway error</html>"))
	}))
	defer server.Close()

	err := testClient(server.URL).SendMessage(context.Background(), "@channel", "hello")

	var notifyErr *Error
	if !errors.As(err, &notifyErr) {
		t.Fatalf("Expected *Error, got %T", err)
	}
	if notifyErr.Kind != KindFatal {
		t.Errorf("Expected KindFatal, got %s", notifyErr.Kind)
	}
}

func TestClientSendMessageRateLimitedUnparsableBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte("<html>too many requests</html>"))
	}))
	defer server.Close()

	err := testClient(server.URL).SendMessage(context.Background(), "@channel", "hello")

	var notifyErr *Error
	if !errors.As(err, &notifyErr) {
		t.Fatalf("Expected *Error, got %T", err)
	}
	if notifyErr.Kind != KindRateLimited {
		t.Errorf("Expected KindRateLimited from 429 status alone, got %s", notifyErr.Kind)
	}
	if notifyErr.RetryAfter != 0 {
		t.Errorf("Expected no retry hint from unparsable body, got %v", notifyErr.RetryAfter)
	}
}
