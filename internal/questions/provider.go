package questions

import (
	"context"
	"strings"

	"github.com/Mmohamed-56/StudyMon/internal/game"
)

// Question is one {question, answer, difficulty} tuple. Placeholder marks
// padding entries produced when a bulk generation came back short.
type Question struct {
	Question    string          `json:"question"`
	Answer      string          `json:"answer"`
	Difficulty  game.Difficulty `json:"difficulty"`
	Placeholder bool            `json:"placeholder,omitempty"`
}

// Provider yields questions for a topic and difficulty tier. Implementations
// may be AI-backed or static; callers treat them as opaque and asynchronous.
type Provider interface {
	FetchQuestion(ctx context.Context, topic string, difficulty game.Difficulty) (Question, error)
}

// Fallback is the deterministic trivial question substituted whenever a
// provider fails, times out or yields malformed output.
func Fallback(difficulty game.Difficulty) Question {
	return Question{Question: "What is 2 + 2?", Answer: "4", Difficulty: difficulty}
}

// Evaluate compares a user answer against the expected one: whitespace
// trimmed, case-insensitive, exact match. Fuzzy grading is an external
// concern, not the engine's.
func Evaluate(userAnswer, correctAnswer string) bool {
	return strings.EqualFold(strings.TrimSpace(userAnswer), strings.TrimSpace(correctAnswer))
}
