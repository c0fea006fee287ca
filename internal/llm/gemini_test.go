package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestGeminiProviderStreamsChunks(t *testing.T) {
	var captured geminiRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "text/event-stream")
		flusher, _ := w.(http.Flusher)
		lines := []string{
			`data: {"candidates":[{"content":{"parts":[{"text":"The"}]}}]}`,
			`data: {"candidates":[{"content":{"parts":[{"text":" robot"}]}}]}`,
		}
		for _, line := range lines {
			_, _ = w.Write([]byte(line + "\n\n"))
			flusher.Flush()
		}
	}))
	defer server.Close()

	provider, err := NewGeminiProvider(GeminiConfig{APIKey: "test-key", BaseURL: server.URL, HTTPClient: server.Client()})
	if err != nil {
		t.Fatalf("NewGeminiProvider: %v", err)
	}

	messages := []ChatMessage{
		{Role: RoleUser, Content: "Tell me about robots."},
		{Role: RoleAssistant, Content: "Robots are machines."},
		{Role: RoleUser, Content: "Go on."},
	}
	ch, err := provider.StreamChat(context.Background(), messages, "stay on topic")
	if err != nil {
		t.Fatalf("StreamChat: %v", err)
	}

	var builder strings.Builder
	sawDone := false
	for chunk := range ch {
		if chunk.Err != nil {
			t.Fatalf("chunk error: %v", chunk.Err)
		}
		if chunk.Done {
			sawDone = true
			continue
		}
		builder.WriteString(chunk.Delta)
	}
	if !sawDone {
		t.Fatalf("stream ended without terminal chunk")
	}
	if builder.String() != "The robot" {
		t.Fatalf("unexpected stream contents: %q", builder.String())
	}

	if captured.SystemInstruction == nil || captured.SystemInstruction.Parts[0].Text != "stay on topic" {
		t.Fatalf("system instruction not forwarded: %+v", captured.SystemInstruction)
	}
	if len(captured.Contents) != 3 {
		t.Fatalf("expected 3 contents, got %d", len(captured.Contents))
	}
	if captured.Contents[1].Role != "model" {
		t.Fatalf("assistant turn should map to model role, got %q", captured.Contents[1].Role)
	}
	if captured.Contents[2].Role != "user" {
		t.Fatalf("last turn should map to user role, got %q", captured.Contents[2].Role)
	}
}

func TestGeminiProviderChat(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, ":generateContent") && !strings.HasSuffix(r.URL.Path, "generateContent") {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"42."}]}}]}`))
	}))
	defer server.Close()

	provider, err := NewGeminiProvider(GeminiConfig{APIKey: "test-key", BaseURL: server.URL, HTTPClient: server.Client()})
	if err != nil {
		t.Fatalf("NewGeminiProvider: %v", err)
	}

	answer, err := provider.Chat(context.Background(), []ChatMessage{{Role: RoleUser, Content: "meaning of life?"}}, "")
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if answer != "42." {
		t.Fatalf("unexpected answer: %q", answer)
	}
}

func TestGeminiProviderClassifiesUpstreamErrors(t *testing.T) {
	cases := []struct {
		name   string
		status int
		want   error
	}{
		{name: "rate limit", status: http.StatusTooManyRequests, want: ErrRateLimited},
		{name: "model not found", status: http.StatusNotFound, want: ErrModelUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "upstream says no", tc.status)
			}))
			defer server.Close()

			provider, err := NewGeminiProvider(GeminiConfig{APIKey: "test-key", BaseURL: server.URL, HTTPClient: server.Client()})
			if err != nil {
				t.Fatalf("NewGeminiProvider: %v", err)
			}

			_, err = provider.StreamChat(context.Background(), []ChatMessage{{Role: RoleUser, Content: "hi"}}, "")
			if err == nil {
				t.Fatalf("expected error from StreamChat")
			}
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestGeminiProviderRequiresAPIKey(t *testing.T) {
	_, err := NewGeminiProvider(GeminiConfig{})
	if err == nil {
		t.Fatalf("expected configuration error")
	}
	if !IsConfigError(err) {
		t.Fatalf("expected ConfigError, got %T", err)
	}
}
