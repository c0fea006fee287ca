package conversation

import "context"

// ChatRequest is a normalized chat interaction for an already-resolved
// session.
type ChatRequest struct {
	SessionID      string
	Message        string
	IncludeHistory bool
}

// CompletionMetadata describes a completed response.
type CompletionMetadata struct {
	Model          string `json:"model"`
	ResponseLength int    `json:"responseLength"`
}

// StreamEvent is one record on the outbound event stream. Zero or more token
// events are followed by exactly one terminal event (Done set); nothing
// follows a terminal event.
type StreamEvent struct {
	Content   string
	Done      bool
	SessionID string
	Metadata  *CompletionMetadata
	Error     string
}

// Token wraps one model fragment.
func Token(content string) StreamEvent {
	return StreamEvent{Content: content}
}

// Complete is the terminal event of a successful stream.
func Complete(sessionID string, meta CompletionMetadata) StreamEvent {
	return StreamEvent{Done: true, SessionID: sessionID, Metadata: &meta}
}

// Failure is the terminal event of a failed stream.
func Failure(message string) StreamEvent {
	return StreamEvent{Done: true, Error: message}
}

// Stream abstracts the client-facing event writer.
type Stream interface {
	Send(ctx context.Context, event StreamEvent) error
}

// SystemPromptSource supplies the policy text injected ahead of every
// conversation.
type SystemPromptSource interface {
	SystemPrompt() string
}
