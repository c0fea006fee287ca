package conversation

import (
	"context"
	"fmt"

	"book-chat/internal/llm"
	"book-chat/internal/store"
)

// DefaultHistoryLimit caps how many prior turns are loaded per request.
const DefaultHistoryLimit = 50

// ContextBuilder assembles the bounded message sequence sent to the provider.
// It is a pure read: persisting the new user turn is the orchestrator's
// responsibility.
type ContextBuilder struct {
	store store.Store
	limit int
}

// NewContextBuilder constructs a ContextBuilder reading from st. limit <= 0
// falls back to DefaultHistoryLimit.
func NewContextBuilder(st store.Store, limit int) *ContextBuilder {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &ContextBuilder{store: st, limit: limit}
}

// Assemble returns the session's prior turns oldest first, followed by the
// new user turn. When includeHistory is false the result is exactly the
// single user turn.
func (b *ContextBuilder) Assemble(ctx context.Context, sessionID, userText string, includeHistory bool) ([]llm.ChatMessage, error) {
	var messages []llm.ChatMessage
	if includeHistory {
		stored, err := b.store.ListMessages(ctx, sessionID, b.limit)
		if err != nil {
			return nil, fmt.Errorf("load history: %w", err)
		}
		messages = make([]llm.ChatMessage, 0, len(stored)+1)
		for _, msg := range stored {
			messages = append(messages, llm.ChatMessage{Role: msg.Role, Content: msg.Content})
		}
	}
	return append(messages, llm.ChatMessage{Role: llm.RoleUser, Content: userText}), nil
}
