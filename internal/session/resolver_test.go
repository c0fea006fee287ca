package session

import (
	"context"
	"io"
	"testing"

	"book-chat/internal/logging"
	"book-chat/internal/store"
)

func TestIsValidID(t *testing.T) {
	cases := []struct {
		id   string
		want bool
	}{
		{"2c5ea4c0-4067-44ae-9813-1c3f2fe8c1a2", true},
		{"2C5EA4C0-4067-44AE-9813-1C3F2FE8C1A2", true},
		{"", false},
		{"not-a-session", false},
		{"2c5ea4c040674 4ae98131c3f2fe8c1a2", false},
		// Canonical grouping is required even for a parseable value.
		{"2c5ea4c0406744ae98131c3f2fe8c1a2", false},
		// Wrong version digit.
		{"2c5ea4c0-4067-14ae-9813-1c3f2fe8c1a2", false},
	}
	for _, tc := range cases {
		if got := IsValidID(tc.id); got != tc.want {
			t.Errorf("IsValidID(%q) = %v, want %v", tc.id, got, tc.want)
		}
	}
}

func TestResolveReturnsExistingSession(t *testing.T) {
	st := store.NewMemoryStore()
	logger := logging.NewStdLoggerWithWriter(io.Discard)
	resolver := NewResolver(st, logger)

	existing, err := st.CreateSession(context.Background(), nil)
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	resolved, err := resolver.Resolve(context.Background(), existing.ID)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if resolved.ID != existing.ID {
		t.Fatalf("expected existing session %q, got %q", existing.ID, resolved.ID)
	}
}

func TestResolveUnknownIDCreatesNewSession(t *testing.T) {
	st := store.NewMemoryStore()
	logger := logging.NewStdLoggerWithWriter(io.Discard)
	resolver := NewResolver(st, logger)

	// Well-formed but not present in the store: not-found degrades to
	// creation rather than an error.
	candidate := "2c5ea4c0-4067-44ae-9813-1c3f2fe8c1a2"
	resolved, err := resolver.Resolve(context.Background(), candidate)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if resolved.ID == candidate {
		t.Fatalf("expected a fresh session id, got the candidate back")
	}
	if resolved.Metadata["created_via"] != "api" {
		t.Fatalf("provenance metadata missing: %+v", resolved.Metadata)
	}
}

func TestResolveWithoutCandidateCreatesSession(t *testing.T) {
	st := store.NewMemoryStore()
	logger := logging.NewStdLoggerWithWriter(io.Discard)
	resolver := NewResolver(st, logger)

	resolved, err := resolver.Resolve(context.Background(), "")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if resolved.ID == "" {
		t.Fatalf("expected a session id")
	}
	if !IsValidID(resolved.ID) {
		t.Fatalf("new session id %q is not in canonical format", resolved.ID)
	}
}
