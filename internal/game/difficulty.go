package game

import (
	"fmt"
	"strings"
)

// Difficulty tiers map one-to-one onto SP rewards.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// ParseDifficulty normalizes and validates a difficulty name.
func ParseDifficulty(s string) (Difficulty, error) {
	d := Difficulty(strings.ToLower(strings.TrimSpace(s)))
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return d, nil
	}
	return "", fmt.Errorf("unknown difficulty %q", s)
}

// SPReward returns the SP granted for a correct answer at this difficulty.
func (d Difficulty) SPReward() int {
	switch d {
	case DifficultyEasy:
		return 5
	case DifficultyMedium:
		return 10
	case DifficultyHard:
		return 15
	}
	return 0
}
