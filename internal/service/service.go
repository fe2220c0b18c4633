package service

import (
	"errors"

	"github.com/Mmohamed-56/StudyMon/internal/game"
	"github.com/Mmohamed-56/StudyMon/internal/questions"
	"github.com/Mmohamed-56/StudyMon/internal/storage"
)

var (
	ErrNoBattle         = errors.New("no battle in progress")
	ErrBattleInProgress = errors.New("a battle is already in progress")
	ErrEmptyParty       = errors.New("party has no usable creature")
	ErrNoPendingQuest   = errors.New("no question is pending")
	ErrNoPendingLevelUp = errors.New("no level-up is pending")
	ErrNotInParty       = errors.New("creature is not in the party")
	ErrFainted          = errors.New("creature has fainted")
	ErrStarterOwned     = errors.New("starter already granted")
	ErrSpeciesNotFound  = errors.New("species not found")
	ErrSkillNotEligible = errors.New("skill is not an eligible candidate")
)

// Repository is the persistence surface the services depend on. It is
// satisfied by storage.Repository; tests substitute an in-memory mock.
type Repository interface {
	GetSpecies() ([]game.Species, error)
	GetSpeciesByID(id uint) (*game.Species, error)
	SkillsByType(creatureType string) ([]game.Skill, error)
	SkillByTypeAndTier(creatureType string, tier int) (*game.Skill, error)

	GetCreature(instanceID uint, userEmail string) (*game.UserCreature, error)
	ListCollection(userEmail string) ([]game.UserCreature, error)
	ListParty(userEmail string) ([]game.UserCreature, error)
	UpdateCreature(instanceID uint, userEmail string, updates storage.CreatureUpdate) error
	InsertCreature(userEmail string, speciesID uint, level, currentHP int, caughtMethod string) (uint, error)
	SetPartyPosition(instanceID uint, userEmail string, position *int) error
	HealParty(userEmail string) error

	ListLearnedSkills(instanceID uint) ([]game.LearnedSkill, error)
	InsertLearnedSkill(instanceID uint, skillID uint, learnedAtLevel int) error

	UpsertUser(email, name string) error
	GetStatsByEmail(email string) (*game.User, error)
	IncrementWinCounter(userEmail string) error

	// Seeded generic question pool
	ListFallbackQuestions(difficulty string) ([]game.FallbackQuestion, error)
}

// The repository doubles as the question source's store for topic-less draws.
var _ questions.FallbackStore = Repository(nil)
