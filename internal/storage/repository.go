package storage

import (
	"errors"

	"github.com/Mmohamed-56/StudyMon/internal/game"
)

var (
	// ErrNotOwned is returned when a write targets a creature instance the
	// requesting user does not own. Writes fail closed: no mutation occurs.
	ErrNotOwned = errors.New("creature instance not owned by user")
	// ErrNotFound is returned for reads of missing records.
	ErrNotFound = errors.New("record not found")
)

// CreatureUpdate is a partial update of a creature instance. Nil fields are
// left untouched.
type CreatureUpdate struct {
	CurrentHP *int
	CurrentSP *int
	CurrentXP *int
	Level     *int
}

type Repository interface {
	// Reference data (read-only during battle)
	GetSpecies() ([]game.Species, error)
	GetSpeciesByID(id uint) (*game.Species, error)
	SkillsByType(creatureType string) ([]game.Skill, error)
	SkillByTypeAndTier(creatureType string, tier int) (*game.Skill, error)

	// Owned creature instances. All writes are scoped to the owning user
	// and fail closed with ErrNotOwned on a mismatch.
	GetCreature(instanceID uint, userEmail string) (*game.UserCreature, error)
	ListCollection(userEmail string) ([]game.UserCreature, error)
	ListParty(userEmail string) ([]game.UserCreature, error)
	UpdateCreature(instanceID uint, userEmail string, updates CreatureUpdate) error
	InsertCreature(userEmail string, speciesID uint, level, currentHP int, caughtMethod string) (uint, error)
	SetPartyPosition(instanceID uint, userEmail string, position *int) error
	HealParty(userEmail string) error

	// Learned skills
	ListLearnedSkills(instanceID uint) ([]game.LearnedSkill, error)
	InsertLearnedSkill(instanceID uint, skillID uint, learnedAtLevel int) error

	// Trainer profiles
	UpsertUser(email, name string) error
	GetStatsByEmail(email string) (*game.User, error)
	IncrementWinCounter(userEmail string) error

	// Seeded generic question pool
	ListFallbackQuestions(difficulty string) ([]game.FallbackQuestion, error)
}
