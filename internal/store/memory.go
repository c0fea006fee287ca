package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-process Store used by tests and credential-less
// development runs. Methods copy on read so callers never share slices.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]Session
	messages map[string][]Message
	events   map[string][]AnalyticsEvent
	nextID   int64
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: map[string]Session{},
		messages: map[string][]Message{},
		events:   map[string][]AnalyticsEvent{},
	}
}

func (s *MemoryStore) Close() error { return nil }

func (s *MemoryStore) CreateSession(_ context.Context, metadata map[string]any) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session := Session{
		ID:         uuid.NewString(),
		CreatedAt:  time.Now().UTC(),
		LastActive: time.Now().UTC(),
		Metadata:   metadata,
	}
	s.sessions[session.ID] = session
	return session, nil
}

func (s *MemoryStore) GetSession(_ context.Context, id string) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	return session, nil
}

func (s *MemoryStore) AppendMessage(_ context.Context, sessionID, role, content string, metadata map[string]any) (Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	msg := Message{
		ID:        s.nextID,
		SessionID: sessionID,
		Role:      role,
		Content:   content,
		Timestamp: time.Now().UTC(),
		Metadata:  metadata,
	}
	s.messages[sessionID] = append(s.messages[sessionID], msg)

	if session, ok := s.sessions[sessionID]; ok {
		session.LastActive = msg.Timestamp
		s.sessions[sessionID] = session
	}
	return msg, nil
}

func (s *MemoryStore) ListMessages(_ context.Context, sessionID string, limit int) ([]Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	messages := s.messages[sessionID]
	if limit > 0 && len(messages) > limit {
		messages = messages[len(messages)-limit:]
	}
	return append([]Message{}, messages...), nil
}

func (s *MemoryStore) AppendAnalyticsEvent(_ context.Context, sessionID, eventType string, data map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	s.events[sessionID] = append(s.events[sessionID], AnalyticsEvent{
		ID:        s.nextID,
		SessionID: sessionID,
		EventType: eventType,
		Data:      data,
		Timestamp: time.Now().UTC(),
	})
	return nil
}

func (s *MemoryStore) ListAnalyticsEvents(_ context.Context, sessionID string) ([]AnalyticsEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]AnalyticsEvent{}, s.events[sessionID]...), nil
}

func (s *MemoryStore) SessionStats(_ context.Context, sessionID string) (Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := Stats{MessagesByRole: map[string]int{}}
	for _, msg := range s.messages[sessionID] {
		stats.MessagesByRole[msg.Role]++
		stats.TotalMessages++
	}
	return stats, nil
}

var _ Store = (*MemoryStore)(nil)
