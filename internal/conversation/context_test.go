package conversation

import (
	"context"
	"testing"

	"book-chat/internal/llm"
	"book-chat/internal/store"
)

func TestAssembleOrdersHistoryWithNewTurnLast(t *testing.T) {
	st := store.NewMemoryStore()
	ctx := context.Background()

	sess, err := st.CreateSession(ctx, nil)
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	turns := []struct{ role, content string }{
		{llm.RoleUser, "u1"}, {llm.RoleAssistant, "a1"}, {llm.RoleUser, "u2"}, {llm.RoleAssistant, "a2"},
	}
	for _, turn := range turns {
		if _, err := st.AppendMessage(ctx, sess.ID, turn.role, turn.content, nil); err != nil {
			t.Fatalf("AppendMessage(%q): %v", turn.content, err)
		}
	}

	builder := NewContextBuilder(st, 0)
	messages, err := builder.Assemble(ctx, sess.ID, "u3", true)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}

	want := []string{"u1", "a1", "u2", "a2", "u3"}
	if len(messages) != len(want) {
		t.Fatalf("expected %d messages, got %d", len(want), len(messages))
	}
	for i, content := range want {
		if messages[i].Content != content {
			t.Fatalf("message %d: expected %q, got %q", i, content, messages[i].Content)
		}
	}
	last := messages[len(messages)-1]
	if last.Role != llm.RoleUser || last.Content != "u3" {
		t.Fatalf("last message must be the new user turn, got %+v", last)
	}
}

func TestAssembleWithoutHistory(t *testing.T) {
	st := store.NewMemoryStore()
	ctx := context.Background()

	sess, err := st.CreateSession(ctx, nil)
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if _, err := st.AppendMessage(ctx, sess.ID, llm.RoleUser, "earlier", nil); err != nil {
		t.Fatalf("AppendMessage: %v", err)
	}

	builder := NewContextBuilder(st, 0)
	messages, err := builder.Assemble(ctx, sess.ID, "just this", false)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if len(messages) != 1 {
		t.Fatalf("expected exactly the new user turn, got %d messages", len(messages))
	}
	if messages[0].Role != llm.RoleUser || messages[0].Content != "just this" {
		t.Fatalf("unexpected message: %+v", messages[0])
	}
}

func TestAssembleHonorsHistoryLimit(t *testing.T) {
	st := store.NewMemoryStore()
	ctx := context.Background()

	sess, err := st.CreateSession(ctx, nil)
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	for i := 0; i < 10; i++ {
		if _, err := st.AppendMessage(ctx, sess.ID, llm.RoleUser, "turn", nil); err != nil {
			t.Fatalf("AppendMessage: %v", err)
		}
	}

	builder := NewContextBuilder(st, 4)
	messages, err := builder.Assemble(ctx, sess.ID, "new", true)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if len(messages) != 5 {
		t.Fatalf("expected 4 history turns + new turn, got %d", len(messages))
	}
}
