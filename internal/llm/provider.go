package llm

import "context"

// Message roles understood by the chat pipeline.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage models one conversation turn in the form consumed by providers.
type ChatMessage struct {
	Role    string
	Content string
}

// StreamChunk is one incremental piece of a streaming completion. Exactly one
// chunk with Done set or Err non-nil terminates a stream; terminal chunks
// carry no content.
type StreamChunk struct {
	Delta string
	Done  bool
	Err   error
}

// Provider abstracts one upstream LLM backend behind a uniform contract.
//
// StreamChat returns a channel of chunks emitted in generation order; the
// channel is closed after the terminal chunk. Concatenating every Delta up to
// the terminal chunk yields the full answer. Implementations stop producing
// when ctx is cancelled. The last element of messages must have RoleUser.
//
// Chat is the complete-response form of the same call.
//
// Name returns a human-readable "provider (model)" label used for metadata
// only, never for control flow.
type Provider interface {
	Chat(ctx context.Context, messages []ChatMessage, systemPrompt string) (string, error)
	StreamChat(ctx context.Context, messages []ChatMessage, systemPrompt string) (<-chan StreamChunk, error)
	Name() string
}
