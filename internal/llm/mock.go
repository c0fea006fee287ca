package llm

import (
	"context"
	"strings"
)

// MockProvider replays a canned answer split into word-sized fragments. It
// backs the "mock" provider selection for credential-less development.
type MockProvider struct {
	answer string
}

// NewMockProvider creates a provider that always answers with the given text.
func NewMockProvider(answer string) *MockProvider {
	return &MockProvider{answer: answer}
}

func (p *MockProvider) Name() string {
	return "Mock (scripted)"
}

func (p *MockProvider) Chat(_ context.Context, _ []ChatMessage, _ string) (string, error) {
	return p.answer, nil
}

func (p *MockProvider) StreamChat(ctx context.Context, _ []ChatMessage, _ string) (<-chan StreamChunk, error) {
	ch := make(chan StreamChunk)
	go func() {
		defer close(ch)
		rest := p.answer
		for rest != "" {
			idx := strings.IndexByte(rest, ' ')
			var fragment string
			if idx < 0 {
				fragment, rest = rest, ""
			} else {
				fragment, rest = rest[:idx+1], rest[idx+1:]
			}
			if !send(ctx, ch, StreamChunk{Delta: fragment}) {
				return
			}
		}
		send(ctx, ch, StreamChunk{Done: true})
	}()
	return ch, nil
}

var _ Provider = (*MockProvider)(nil)
