package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

const defaultOpenAIModel = "gpt-4o-mini"

// OpenAIConfig configures the OpenAIProvider.
type OpenAIConfig struct {
	APIKey     string
	BaseURL    string
	Model      string
	HTTPClient *http.Client
}

// OpenAIProvider implements Provider on top of the OpenAI chat completions API.
type OpenAIProvider struct {
	client *openai.Client
	model  string
}

// NewOpenAIProvider constructs an OpenAI-backed provider.
func NewOpenAIProvider(cfg OpenAIConfig) (*OpenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, &ConfigError{Reason: "OPENAI_API_KEY is not set"}
	}
	model := cfg.Model
	if model == "" {
		model = defaultOpenAIModel
	}
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	if cfg.HTTPClient != nil {
		clientCfg.HTTPClient = cfg.HTTPClient
	} else {
		clientCfg.HTTPClient = &http.Client{Timeout: 90 * time.Second}
	}
	return &OpenAIProvider{client: openai.NewClientWithConfig(clientCfg), model: model}, nil
}

// Name returns the provider label used in response metadata.
func (p *OpenAIProvider) Name() string {
	return fmt.Sprintf("OpenAI (%s)", p.model)
}

// Chat performs a complete, non-streaming completion.
func (p *OpenAIProvider) Chat(ctx context.Context, messages []ChatMessage, systemPrompt string) (string, error) {
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    p.model,
		Messages: p.buildMessages(messages, systemPrompt),
	})
	if err != nil {
		return "", classifyOpenAIError(err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai: no choices in response")
	}
	return resp.Choices[0].Message.Content, nil
}

// StreamChat streams a completion as incremental chunks.
func (p *OpenAIProvider) StreamChat(ctx context.Context, messages []ChatMessage, systemPrompt string) (<-chan StreamChunk, error) {
	if len(messages) == 0 {
		return nil, errors.New("openai: at least one message must be provided")
	}
	stream, err := p.client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model:    p.model,
		Messages: p.buildMessages(messages, systemPrompt),
		Stream:   true,
	})
	if err != nil {
		return nil, classifyOpenAIError(err)
	}

	ch := make(chan StreamChunk)
	go func() {
		defer close(ch)
		defer stream.Close()
		for {
			resp, err := stream.Recv()
			if err != nil {
				if errors.Is(err, io.EOF) {
					send(ctx, ch, StreamChunk{Done: true})
				} else {
					send(ctx, ch, StreamChunk{Err: classifyOpenAIError(err)})
				}
				return
			}
			for _, choice := range resp.Choices {
				if choice.Delta.Content == "" {
					continue
				}
				if !send(ctx, ch, StreamChunk{Delta: choice.Delta.Content}) {
					return
				}
			}
		}
	}()
	return ch, nil
}

func (p *OpenAIProvider) buildMessages(messages []ChatMessage, systemPrompt string) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages)+1)
	if systemPrompt != "" {
		out = append(out, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: systemPrompt})
	}
	for _, msg := range messages {
		out = append(out, openai.ChatCompletionMessage{Role: msg.Role, Content: msg.Content})
	}
	return out
}

func classifyOpenAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return classifyStatus(apiErr.HTTPStatusCode, fmt.Errorf("openai: %w", err))
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return classifyStatus(reqErr.HTTPStatusCode, fmt.Errorf("openai: %w", err))
	}
	return fmt.Errorf("openai: %w", err)
}

// send delivers chunk unless ctx is cancelled first. It reports whether the
// chunk was delivered.
func send(ctx context.Context, ch chan<- StreamChunk, chunk StreamChunk) bool {
	select {
	case ch <- chunk:
		return true
	case <-ctx.Done():
		return false
	}
}

var _ Provider = (*OpenAIProvider)(nil)
