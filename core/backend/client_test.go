package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

func TestChatSendsMessageAndReturnsReply(t *testing.T) {
	var mu sync.Mutex
	received := []string{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != ChatPath || r.Method != http.MethodPost {
			t.Errorf("expected POST %s, got %s %s", ChatPath, r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Content-Type"); got != "application/json" {
			t.Errorf("expected JSON content type, got %q", got)
		}
		var body struct {
			Message string `json:"message"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("expected JSON body, got %v", err)
		}
		mu.Lock()
		received = append(received, body.Message)
		mu.Unlock()
		_, _ = io.WriteString(w, `{"response":"hi there"}`)
	}))
	defer server.Close()

	client := newTestClient(t, server)
	reply, err := client.Chat(context.Background(), "hello")
	if err != nil {
		t.Fatalf("expected chat to succeed, got %v", err)
	}
	if reply != "hi there" {
		t.Fatalf("expected reply %q, got %q", "hi there", reply)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(received) != 1 || received[0] != "hello" {
		t.Fatalf("expected one message [\"hello\"], got %v", received)
	}
}

func TestChatErrorDetailFallbacks(t *testing.T) {
	testCases := []struct {
		name     string
		status   int
		body     string
		expected string
	}{
		{name: "parsed error field", status: http.StatusInternalServerError, body: `{"error":"overloaded"}`, expected: "overloaded"},
		{name: "raw body when error field missing", status: http.StatusBadGateway, body: `{"detail":"nope"}`, expected: `{"detail":"nope"}`},
		{name: "raw body when not JSON", status: http.StatusServiceUnavailable, body: "upstream down", expected: "upstream down"},
		{name: "status when body empty", status: http.StatusInternalServerError, body: "", expected: "HTTP 500"},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(testCase.status)
				_, _ = io.WriteString(w, testCase.body)
			}))
			defer server.Close()

			_, err := newTestClient(t, server).Chat(context.Background(), "hello")

			var statusErr *StatusError
			if !errors.As(err, &statusErr) {
				t.Fatalf("expected *StatusError, got %v", err)
			}
			if statusErr.Detail != testCase.expected {
				t.Fatalf("expected detail %q, got %q", testCase.expected, statusErr.Detail)
			}
			if statusErr.StatusCode != testCase.status {
				t.Fatalf("expected status %d, got %d", testCase.status, statusErr.StatusCode)
			}
		})
	}
}

func TestChatNonJSONSuccessYieldsEmptyReply(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "<html>ok</html>")
	}))
	defer server.Close()

	reply, err := newTestClient(t, server).Chat(context.Background(), "hello")
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if reply != "" {
		t.Fatalf("expected empty reply, got %q", reply)
	}
}

func TestChatNetworkErrorIsNotStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	client := newTestClient(t, server)
	server.Close()

	_, err := client.Chat(context.Background(), "hello")
	if err == nil {
		t.Fatalf("expected network error")
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		t.Fatalf("expected transport failure not to be a status error, got %v", statusErr)
	}
}

func TestSynthesizeReturnsAudioBytes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Text string `json:"text"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if r.URL.Path != TTSPath || body.Text != "speak this" {
			t.Errorf("expected %s with text %q, got %s with %q", TTSPath, "speak this", r.URL.Path, body.Text)
		}
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write([]byte{0xFF, 0xFB, 0x90})
	}))
	defer server.Close()

	audio, err := newTestClient(t, server).Synthesize(context.Background(), "speak this")
	if err != nil {
		t.Fatalf("expected synthesis to succeed, got %v", err)
	}
	if len(audio) != 3 || audio[0] != 0xFF {
		t.Fatalf("expected raw audio bytes, got %v", audio)
	}
}

func TestSynthesizeFailureHasNoStructuredDetail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = io.WriteString(w, `{"error":"voice quota exceeded"}`)
	}))
	defer server.Close()

	_, err := newTestClient(t, server).Synthesize(context.Background(), "speak this")

	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected *StatusError, got %v", err)
	}
	if statusErr.Detail != "HTTP 502" {
		t.Fatalf("expected detail %q, got %q", "HTTP 502", statusErr.Detail)
	}
}

func TestHistoryAndClear(t *testing.T) {
	var mu sync.Mutex
	cleared := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case HistoryPath:
			_, _ = io.WriteString(w, `[{"role":"user","content":"hi","timestamp":"2025-01-01T10:00:00"},{"role":"assistant","content":"hey","timestamp":"2025-01-01T10:00:01"}]`)
		case ClearPath:
			mu.Lock()
			cleared++
			mu.Unlock()
			_, _ = io.WriteString(w, `{"status":"success"}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := newTestClient(t, server)
	turns, err := client.History(context.Background())
	if err != nil {
		t.Fatalf("expected history to load, got %v", err)
	}
	if len(turns) != 2 {
		t.Fatalf("expected two turns, got %d", len(turns))
	}
	if turns[1].Role != "assistant" || turns[1].Content != "hey" || turns[1].Timestamp != "2025-01-01T10:00:01" {
		t.Fatalf("expected assistant turn to be copied, got %+v", turns[1])
	}

	if err := client.Clear(context.Background()); err != nil {
		t.Fatalf("expected clear to succeed, got %v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if cleared != 1 {
		t.Fatalf("expected one clear request, got %d", cleared)
	}
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	if _, err := NewClient("  "); err == nil {
		t.Fatalf("expected empty base url to be rejected")
	}

	client, err := NewClient("http://localhost:5000/")
	if err != nil {
		t.Fatalf("expected client, got %v", err)
	}
	if got := client.BaseURL(); got != "http://localhost:5000" {
		t.Fatalf("expected trailing slash trimmed, got %q", got)
	}
}

func TestRequestTimeoutAbortsSlowSynthesis(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	client, err := NewClient(server.URL, WithHTTPClient(server.Client()), WithRequestTimeout(50*time.Millisecond))
	if err != nil {
		t.Fatalf("expected client, got %v", err)
	}

	_, err = client.Synthesize(context.Background(), "slow")
	if err == nil {
		t.Fatalf("expected timeout error")
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		t.Fatalf("expected a transport error, got status error %v", statusErr)
	}
}

func newTestClient(t *testing.T, server *httptest.Server) *Client {
	t.Helper()

	client, err := NewClient(server.URL, WithHTTPClient(server.Client()))
	if err != nil {
		t.Fatalf("expected client, got %v", err)
	}
	return client
}
