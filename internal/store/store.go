package store

import (
	"context"
	"errors"
	"time"
)

// ErrSessionNotFound is returned by GetSession for unknown ids.
var ErrSessionNotFound = errors.New("session not found")

// Session is a durable conversational thread.
type Session struct {
	ID         string         `json:"id"`
	CreatedAt  time.Time      `json:"createdAt"`
	LastActive time.Time      `json:"lastActive"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// Message is the durable form of one conversation turn.
type Message struct {
	ID        int64          `json:"id"`
	SessionID string         `json:"sessionId"`
	Role      string         `json:"role"`
	Content   string         `json:"content"`
	Timestamp time.Time      `json:"timestamp"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// AnalyticsEvent is one recorded diagnostic event for a session.
type AnalyticsEvent struct {
	ID        int64          `json:"id"`
	SessionID string         `json:"sessionId"`
	EventType string         `json:"eventType"`
	Data      map[string]any `json:"data,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Stats summarizes message volume for a session.
type Stats struct {
	TotalMessages  int            `json:"totalMessages"`
	MessagesByRole map[string]int `json:"messagesByRole"`
}

// Store is the durable record of sessions, messages and analytics events.
// Every operation is atomic per call; callers never assume a multi-call
// transaction.
type Store interface {
	CreateSession(ctx context.Context, metadata map[string]any) (Session, error)
	GetSession(ctx context.Context, id string) (Session, error)
	AppendMessage(ctx context.Context, sessionID, role, content string, metadata map[string]any) (Message, error)
	// ListMessages returns the most recent limit messages in ascending
	// timestamp order (oldest first). limit <= 0 means no bound.
	ListMessages(ctx context.Context, sessionID string, limit int) ([]Message, error)
	AppendAnalyticsEvent(ctx context.Context, sessionID, eventType string, data map[string]any) error
	ListAnalyticsEvents(ctx context.Context, sessionID string) ([]AnalyticsEvent, error)
	SessionStats(ctx context.Context, sessionID string) (Stats, error)
	Close() error
}
