package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	defaultGeminiModel   = "gemini-1.5-flash"
)

// GeminiConfig configures the GeminiProvider.
type GeminiConfig struct {
	APIKey     string
	BaseURL    string
	Model      string
	HTTPClient *http.Client
}

// GeminiProvider implements Provider against the generativelanguage REST API.
type GeminiProvider struct {
	client *http.Client
	apiKey string
	base   string
	model  string
}

// NewGeminiProvider constructs a Gemini-backed provider.
func NewGeminiProvider(cfg GeminiConfig) (*GeminiProvider, error) {
	if cfg.APIKey == "" {
		return nil, &ConfigError{Reason: "GEMINI_API_KEY is not set"}
	}
	base := cfg.BaseURL
	if base == "" {
		base = defaultGeminiBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = defaultGeminiModel
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 90 * time.Second}
	}
	return &GeminiProvider{client: client, apiKey: cfg.APIKey, base: strings.TrimRight(base, "/"), model: model}, nil
}

// Name returns the provider label used in response metadata.
func (p *GeminiProvider) Name() string {
	return fmt.Sprintf("Gemini (%s)", p.model)
}

// Chat performs a complete, non-streaming generation.
func (p *GeminiProvider) Chat(ctx context.Context, messages []ChatMessage, systemPrompt string) (string, error) {
	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", p.base, p.model, p.apiKey)
	resp, err := p.post(ctx, url, buildGeminiRequest(messages, systemPrompt))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var result geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("gemini: decode response: %w", err)
	}
	text := result.text()
	if text == "" {
		return "", errors.New("gemini: no content in response")
	}
	return text, nil
}

// StreamChat streams a generation using the SSE variant of the API.
func (p *GeminiProvider) StreamChat(ctx context.Context, messages []ChatMessage, systemPrompt string) (<-chan StreamChunk, error) {
	if len(messages) == 0 {
		return nil, errors.New("gemini: at least one message must be provided")
	}
	url := fmt.Sprintf("%s/models/%s:streamGenerateContent?key=%s&alt=sse", p.base, p.model, p.apiKey)
	resp, err := p.post(ctx, url, buildGeminiRequest(messages, systemPrompt))
	if err != nil {
		return nil, err
	}

	ch := make(chan StreamChunk)
	go func() {
		defer close(ch)
		defer resp.Body.Close()

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if !strings.HasPrefix(line, "data:") {
				continue
			}
			data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			if data == "" {
				continue
			}
			var event geminiResponse
			if err := json.Unmarshal([]byte(data), &event); err != nil {
				send(ctx, ch, StreamChunk{Err: fmt.Errorf("gemini: decode chunk: %w", err)})
				return
			}
			if text := event.text(); text != "" {
				if !send(ctx, ch, StreamChunk{Delta: text}) {
					return
				}
			}
		}
		if err := scanner.Err(); err != nil {
			send(ctx, ch, StreamChunk{Err: fmt.Errorf("gemini: stream read: %w", err)})
			return
		}
		send(ctx, ch, StreamChunk{Done: true})
	}()
	return ch, nil
}

func (p *GeminiProvider) post(ctx context.Context, url string, body geminiRequest) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("gemini: marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("gemini: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gemini: perform request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		err := fmt.Errorf("gemini: returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
		return nil, classifyStatus(resp.StatusCode, err)
	}
	return resp, nil
}

// buildGeminiRequest maps the three-way role model onto Gemini's user/model
// vocabulary; system turns become the system_instruction field.
func buildGeminiRequest(messages []ChatMessage, systemPrompt string) geminiRequest {
	req := geminiRequest{Contents: make([]geminiContent, 0, len(messages))}
	if systemPrompt != "" {
		req.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: systemPrompt}}}
	}
	for _, msg := range messages {
		switch msg.Role {
		case RoleSystem:
			req.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: msg.Content}}}
		case RoleAssistant:
			req.Contents = append(req.Contents, geminiContent{Role: "model", Parts: []geminiPart{{Text: msg.Content}}})
		default:
			req.Contents = append(req.Contents, geminiContent{Role: "user", Parts: []geminiPart{{Text: msg.Content}}})
		}
	}
	return req
}

type geminiRequest struct {
	Contents          []geminiContent `json:"contents"`
	SystemInstruction *geminiContent  `json:"system_instruction,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

func (r geminiResponse) text() string {
	if len(r.Candidates) == 0 {
		return ""
	}
	var builder strings.Builder
	for _, part := range r.Candidates[0].Content.Parts {
		builder.WriteString(part.Text)
	}
	return builder.String()
}

var _ Provider = (*GeminiProvider)(nil)
