package questions

import (
	"context"
	"math/rand"
	"strings"
	"sync"

	"github.com/Mmohamed-56/StudyMon/internal/game"
)

// bank holds the built-in question pool keyed by lowercase topic. It mirrors
// the study subjects the app ships with; unknown topics get generic prompts.
var bank = map[string]map[game.Difficulty][]Question{
	"biology": {
		game.DifficultyEasy: {
			{Question: "What is the powerhouse of the cell?", Answer: "mitochondria", Difficulty: game.DifficultyEasy},
			{Question: "What carries oxygen in blood?", Answer: "hemoglobin", Difficulty: game.DifficultyEasy},
			{Question: "What is the basic unit of life?", Answer: "cell", Difficulty: game.DifficultyEasy},
		},
		game.DifficultyMedium: {
			{Question: "What process converts glucose to ATP?", Answer: "cellular respiration", Difficulty: game.DifficultyMedium},
			{Question: "What molecule carries genetic information?", Answer: "DNA", Difficulty: game.DifficultyMedium},
		},
		game.DifficultyHard: {
			{Question: "What is the name of programmed cell death?", Answer: "apoptosis", Difficulty: game.DifficultyHard},
		},
	},
	"math": {
		game.DifficultyEasy: {
			{Question: "What is 7 × 8?", Answer: "56", Difficulty: game.DifficultyEasy},
			{Question: "What is 15 + 27?", Answer: "42", Difficulty: game.DifficultyEasy},
			{Question: "What is 100 ÷ 4?", Answer: "25", Difficulty: game.DifficultyEasy},
		},
		game.DifficultyMedium: {
			{Question: "Solve: 3x + 5 = 20. What is x?", Answer: "5", Difficulty: game.DifficultyMedium},
			{Question: "What is the square root of 144?", Answer: "12", Difficulty: game.DifficultyMedium},
		},
		game.DifficultyHard: {
			{Question: "What is the derivative of x²?", Answer: "2x", Difficulty: game.DifficultyHard},
		},
	},
	"history": {
		game.DifficultyEasy: {
			{Question: "Who was the first US president?", Answer: "washington", Difficulty: game.DifficultyEasy},
			{Question: "In what year did WWII end?", Answer: "1945", Difficulty: game.DifficultyEasy},
		},
		game.DifficultyMedium: {
			{Question: "What year was the Declaration of Independence signed?", Answer: "1776", Difficulty: game.DifficultyMedium},
		},
		game.DifficultyHard: {
			{Question: "What treaty ended WWI?", Answer: "versailles", Difficulty: game.DifficultyHard},
		},
	},
	"chemistry": {
		game.DifficultyEasy: {
			{Question: "What is the chemical symbol for water?", Answer: "H2O", Difficulty: game.DifficultyEasy},
			{Question: "What is the atomic number of carbon?", Answer: "6", Difficulty: game.DifficultyEasy},
		},
		game.DifficultyMedium: {
			{Question: "What is the pH of a neutral solution?", Answer: "7", Difficulty: game.DifficultyMedium},
		},
		game.DifficultyHard: {
			{Question: "What is Avogadro's number? (scientific notation)", Answer: "6.02e23", Difficulty: game.DifficultyHard},
		},
	},
	"physics": {
		game.DifficultyEasy: {
			{Question: "What is the unit of force?", Answer: "newton", Difficulty: game.DifficultyEasy},
			{Question: "What is the speed of light? (in m/s)", Answer: "3e8", Difficulty: game.DifficultyEasy},
		},
		game.DifficultyMedium: {
			{Question: "What is the formula for kinetic energy?", Answer: "1/2mv^2", Difficulty: game.DifficultyMedium},
			{Question: "What is the acceleration due to gravity on Earth? (m/s²)", Answer: "9.8", Difficulty: game.DifficultyMedium},
		},
		game.DifficultyHard: {
			{Question: "What is the centripetal force formula?", Answer: "mv^2/r", Difficulty: game.DifficultyHard},
		},
	},
}

// BankProvider serves questions from the built-in pool. It never fails and
// never blocks, which makes it the terminal fallback in the provider chain.
type BankProvider struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewBankProvider creates a bank provider drawing with the given source.
func NewBankProvider(rng *rand.Rand) *BankProvider {
	return &BankProvider{rng: rng}
}

// FetchQuestion picks a random question for the topic and difficulty. A topic
// absent from the pool gets a generic prompt; an empty topic falls back to the
// trivial deterministic question.
func (b *BankProvider) FetchQuestion(_ context.Context, topic string, difficulty game.Difficulty) (Question, error) {
	t := strings.ToLower(strings.TrimSpace(topic))
	pool, ok := bank[t]
	if !ok {
		if t == "" {
			return Fallback(difficulty), nil
		}
		return genericQuestion(topic, difficulty), nil
	}
	qs := pool[difficulty]
	if len(qs) == 0 {
		qs = pool[game.DifficultyMedium]
	}
	if len(qs) == 0 {
		return Fallback(difficulty), nil
	}
	b.mu.Lock()
	q := qs[b.rng.Intn(len(qs))]
	b.mu.Unlock()
	return q, nil
}

func genericQuestion(topic string, difficulty game.Difficulty) Question {
	switch difficulty {
	case game.DifficultyEasy:
		return Question{Question: "Name one important concept in " + topic, Answer: "knowledge", Difficulty: difficulty}
	case game.DifficultyHard:
		return Question{Question: "What is an advanced topic in " + topic + "?", Answer: "mastery", Difficulty: difficulty}
	default:
		return Question{Question: "What is a key principle of " + topic + "?", Answer: "understanding", Difficulty: difficulty}
	}
}
