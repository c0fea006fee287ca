// Package prompt produces the topic-guard system prompt that keeps the
// assistant focused on the configured book.
package prompt

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	defaultBookName   = "AI & Robotics Book"
	defaultBookTopics = "artificial intelligence, robotics, machine learning, computer vision, autonomous systems"
)

// GuardConfig describes the book the assistant tutors.
type GuardConfig struct {
	BookName   string
	BookTopics string
}

// Guard renders the deterministic system prompt injected ahead of every
// conversation. The core never inspects message content itself; topic
// enforcement is delegated entirely to this text and the model's behavior.
type Guard struct {
	cfg GuardConfig
}

// NewGuard creates a Guard, filling unset fields with defaults.
func NewGuard(cfg GuardConfig) *Guard {
	if cfg.BookName == "" {
		cfg.BookName = defaultBookName
	}
	if cfg.BookTopics == "" {
		cfg.BookTopics = defaultBookTopics
	}
	return &Guard{cfg: cfg}
}

// SystemPrompt returns the policy text for the configured book.
func (g *Guard) SystemPrompt() string {
	return fmt.Sprintf(`You are an AI teaching assistant for the %q. Your ONLY purpose is to help students learn about topics covered in this book.

**Core Topics You Can Discuss:**
%s

**Critical Rules:**
1. ONLY answer questions related to the book topics listed above
2. If a user asks about unrelated topics (politics, entertainment, general knowledge, coding help for non-robotics projects, etc.), politely redirect them
3. Keep responses educational, clear, and concise
4. Use analogies and examples to explain complex concepts
5. Encourage critical thinking by asking follow-up questions when appropriate

**Response Format for Off-Topic Questions:**
When users ask about topics NOT related to the book, list a few topics you can help with and ask what they would like to learn about.

**Your Teaching Style:**
- Be encouraging and patient
- Break down complex concepts into digestible pieces
- Use real-world robotics examples
- Ask clarifying questions if the student's question is vague

Remember: You're a focused learning companion for THIS specific book. Stay on topic, be helpful, and guide students toward deeper understanding.`, g.cfg.BookName, g.cfg.BookTopics)
}

var topicKeywords = []string{
	"artificial intelligence", "machine learning", "neural network", "deep learning",
	"supervised", "unsupervised", "reinforcement learning", "training", "model",
	"algorithm", "classification", "regression", "clustering",
	"robot", "robotics", "autonomous", "sensor", "actuator", "servo",
	"kinematics", "dynamics", "path planning", "navigation", "localization",
	"slam", "odometry", "control", "pid", "feedback",
	"computer vision", "image processing", "opencv", "detection", "recognition",
	"camera", "lidar", "perception",
	"how does", "what is", "explain", "difference between", "compare",
}

var offTopicPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)write.*code`),
	regexp.MustCompile(`(?i)build.*website`),
	regexp.MustCompile(`(?i)recipe`),
	regexp.MustCompile(`(?i)weather`),
	regexp.MustCompile(`(?i)stock.*market`),
}

// OnTopic is a keyword heuristic estimating whether a message relates to the
// book. Diagnostic only; the streaming pipeline never gates on it.
func (g *Guard) OnTopic(message string) bool {
	lower := strings.ToLower(message)
	for _, pattern := range offTopicPatterns {
		if pattern.MatchString(lower) {
			return false
		}
	}
	for _, keyword := range topicKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}
