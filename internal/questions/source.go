package questions

import (
	"context"
	"math/rand"
	"sync"

	"github.com/Mmohamed-56/StudyMon/internal/constants"
	"github.com/Mmohamed-56/StudyMon/internal/game"
	"github.com/Mmohamed-56/StudyMon/internal/logging"
)

// FallbackStore serves the seeded topic-less question rows.
type FallbackStore interface {
	ListFallbackQuestions(difficulty string) ([]game.FallbackQuestion, error)
}

// Source is the question source consumed by the battle engine. It chains the
// AI provider, the seeded DB pool and the built-in bank, and always produces
// a valid question: a provider failure degrades, it never propagates.
type Source struct {
	ai    Provider
	bank  *BankProvider
	store FallbackStore

	mu  sync.Mutex
	rng *rand.Rand
}

// NewSource wires the provider chain. ai may be nil (offline mode); store may
// be nil when no seeded pool exists.
func NewSource(ai Provider, store FallbackStore, rng *rand.Rand) *Source {
	return &Source{ai: ai, bank: NewBankProvider(rng), store: store, rng: rng}
}

// FetchQuestion returns a question for the topic and difficulty. An empty
// topic draws from the seeded generic pool. Whatever fails along the chain,
// the caller always receives a usable question.
func (s *Source) FetchQuestion(ctx context.Context, topic string, difficulty game.Difficulty) Question {
	if topic == "" {
		return s.fromStore(difficulty)
	}

	if s.ai != nil {
		q, err := s.ai.FetchQuestion(ctx, topic, difficulty)
		if err == nil && q.Question != "" && q.Answer != "" {
			return q
		}
		logging.Warn("ai question provider failed; using bank", logging.Fields{
			constants.LogFieldTopic:      topic,
			constants.LogFieldDifficulty: string(difficulty),
		})
	}

	q, err := s.bank.FetchQuestion(ctx, topic, difficulty)
	if err != nil {
		return Fallback(difficulty)
	}
	return q
}

func (s *Source) fromStore(difficulty game.Difficulty) Question {
	if s.store != nil {
		rows, err := s.store.ListFallbackQuestions(string(difficulty))
		if err == nil && len(rows) > 0 {
			s.mu.Lock()
			row := rows[s.rng.Intn(len(rows))]
			s.mu.Unlock()
			return Question{Question: row.Question, Answer: row.Answer, Difficulty: difficulty}
		}
	}
	q, err := s.bank.FetchQuestion(context.Background(), "", difficulty)
	if err != nil {
		return Fallback(difficulty)
	}
	return q
}
