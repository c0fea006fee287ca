// Package session maps client-supplied session identifiers onto durable
// sessions.
package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"book-chat/internal/logging"
	"book-chat/internal/store"
)

// IsValidID reports whether id is in the canonical session id format: a
// version-4 UUID in grouped hexadecimal form. The boundary layer rejects
// anything else before it can reach the resolver.
func IsValidID(id string) bool {
	if len(id) != 36 {
		return false
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return false
	}
	return parsed.Version() == 4
}

// Resolver turns an optional candidate session id into a durable session.
type Resolver struct {
	store  store.Store
	logger logging.Logger
}

// NewResolver constructs a Resolver backed by the given store.
func NewResolver(st store.Store, logger logging.Logger) *Resolver {
	return &Resolver{store: st, logger: logger}
}

// Resolve returns the session matching candidateID when one exists. A missing
// or unknown id degrades to creating a fresh session, so a stale client-held
// id never blocks a new conversation. candidateID, when non-empty, must
// already be format-validated by the caller.
func (r *Resolver) Resolve(ctx context.Context, candidateID string) (store.Session, error) {
	if candidateID != "" {
		session, err := r.store.GetSession(ctx, candidateID)
		if err == nil {
			return session, nil
		}
		if !errors.Is(err, store.ErrSessionNotFound) {
			return store.Session{}, fmt.Errorf("resolve session: %w", err)
		}
		r.logger.With(logging.Field{Key: "session_id", Value: candidateID}).Warn("session not found, creating new session")
	}

	session, err := r.store.CreateSession(ctx, map[string]any{
		"created_via": "api",
		"user_agent":  "web",
	})
	if err != nil {
		return store.Session{}, fmt.Errorf("create session: %w", err)
	}
	return session, nil
}
