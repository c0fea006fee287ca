package prompt

import (
	"strings"
	"testing"
)

func TestSystemPromptMentionsBook(t *testing.T) {
	guard := NewGuard(GuardConfig{BookName: "Robotics 101", BookTopics: "kinematics, control"})
	text := guard.SystemPrompt()
	if !strings.Contains(text, "Robotics 101") {
		t.Fatalf("prompt does not mention the book name")
	}
	if !strings.Contains(text, "kinematics, control") {
		t.Fatalf("prompt does not mention the topics")
	}
}

func TestSystemPromptIsDeterministic(t *testing.T) {
	guard := NewGuard(GuardConfig{})
	if guard.SystemPrompt() != guard.SystemPrompt() {
		t.Fatalf("system prompt must be deterministic")
	}
}

func TestOnTopic(t *testing.T) {
	guard := NewGuard(GuardConfig{})
	cases := []struct {
		message string
		want    bool
	}{
		{"How does SLAM work?", true},
		{"Explain reinforcement learning", true},
		{"What is inverse kinematics?", true},
		{"Give me a recipe for lasagna", false},
		{"What's the weather today", false},
	}
	for _, tc := range cases {
		if got := guard.OnTopic(tc.message); got != tc.want {
			t.Errorf("OnTopic(%q) = %v, want %v", tc.message, got, tc.want)
		}
	}
}
