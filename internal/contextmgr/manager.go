// Package contextmgr bounds the token size of a prompt before it is sent
// upstream.
package contextmgr

import (
	"book-chat/internal/llm"
)

// Counter estimates the token cost of a piece of text.
type Counter interface {
	Count(text string) int
}

// Manager truncates a message sequence to fit a token budget.
type Manager interface {
	Truncate(messages []llm.ChatMessage) []llm.ChatMessage
}

// perMessageOverhead approximates the role and separator tokens each chat
// message costs on top of its content.
const perMessageOverhead = 4

// BudgetManager drops the oldest non-terminal turns until the sequence fits
// the budget. The final message (the current user turn) is always kept.
type BudgetManager struct {
	counter   Counter
	maxTokens int
}

// NewBudgetManager constructs a BudgetManager. maxTokens <= 0 disables
// truncation.
func NewBudgetManager(counter Counter, maxTokens int) *BudgetManager {
	return &BudgetManager{counter: counter, maxTokens: maxTokens}
}

// Truncate returns messages with the oldest turns removed until the total
// estimated token count fits the budget.
func (m *BudgetManager) Truncate(messages []llm.ChatMessage) []llm.ChatMessage {
	if m.maxTokens <= 0 || len(messages) <= 1 {
		return messages
	}

	costs := make([]int, len(messages))
	total := 0
	for i, msg := range messages {
		costs[i] = perMessageOverhead + m.counter.Count(msg.Role) + m.counter.Count(msg.Content)
		total += costs[i]
	}

	drop := 0
	for total > m.maxTokens && drop < len(messages)-1 {
		total -= costs[drop]
		drop++
	}
	if drop == 0 {
		return messages
	}
	return messages[drop:]
}

// NoopManager returns the messages unchanged.
type NoopManager struct{}

// NewNoopManager constructs a NoopManager instance.
func NewNoopManager() *NoopManager {
	return &NoopManager{}
}

// Truncate is a passthrough implementation.
func (m *NoopManager) Truncate(messages []llm.ChatMessage) []llm.ChatMessage {
	return messages
}

var (
	_ Manager = (*BudgetManager)(nil)
	_ Manager = (*NoopManager)(nil)
)
