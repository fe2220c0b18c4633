package game

import (
	"time"

	"gorm.io/gorm"
)

// Species is immutable reference data authored in the config file. Stats are
// seeded into the database on startup; the config stays the source of truth
// and overrides DB rows on every read.
type Species struct {
	gorm.Model
	Name string `json:"name" gorm:"uniqueIndex"`
	Type string `json:"type"`
	// The following fields come from studymon_config.json and are kept in
	// the DB row for convenience but refreshed from config on each read.
	BaseHP     int    `json:"base_hp"`
	BaseAttack int    `json:"base_attack"`
	Sprite     string `json:"sprite"`
}

// TableName keeps the persisted table name aligned with the original schema.
func (Species) TableName() string { return "creatures" }

// Skill is read-only during battle. SkillLevel is the progression tier (1-4),
// not the combatant's level; a skill is learnable only by species of the same
// type.
type Skill struct {
	gorm.Model
	Name        string `json:"name" gorm:"uniqueIndex"`
	Description string `json:"description"`
	Type        string `json:"type"`
	SkillLevel  int    `json:"skill_level"`
	BasePower   int    `json:"base_power"`
	SPCost      int    `json:"sp_cost"`
}

// UserCreature is one owned creature instance. PartyPosition is nil for
// benched creatures; positions 1..4 are contiguous and position 1 is the
// active battler.
type UserCreature struct {
	gorm.Model
	UserEmail     string  `json:"-" gorm:"index"`
	SpeciesID     uint    `json:"species_id"`
	Species       Species `json:"species" gorm:"foreignKey:SpeciesID"`
	Level         int     `json:"level"`
	CurrentHP     *int    `json:"current_hp"`
	CurrentSP     int     `json:"current_sp"`
	MaxSP         int     `json:"max_sp"`
	CurrentXP     int     `json:"current_xp"`
	PartyPosition *int    `json:"party_position"`
	CaughtMethod  string  `json:"caught_method"`
	CaughtAt      time.Time `json:"caught_at"`
}

func (UserCreature) TableName() string { return "user_creatures" }

// LearnedSkill links a creature instance to a skill it knows.
type LearnedSkill struct {
	gorm.Model
	UserCreatureID uint  `json:"user_creature_id" gorm:"index:idx_learned_skill,unique"`
	SkillID        uint  `json:"skill_id" gorm:"index:idx_learned_skill,unique"`
	Skill          Skill `json:"skill" gorm:"foreignKey:SkillID"`
	LearnedAtLevel int   `json:"learned_at_level"`
}

func (LearnedSkill) TableName() string { return "user_creature_skills" }

// User stores unique player identity and aggregate stats.
type User struct {
	gorm.Model
	Email       string `gorm:"uniqueIndex"`
	DisplayName string
	BattlesWon  int
}

func (User) TableName() string { return "trainer_profiles" }

// FallbackQuestion is a seeded row served when no topic is selected or the
// AI provider is unavailable.
type FallbackQuestion struct {
	gorm.Model
	Question   string `json:"question"`
	Answer     string `json:"answer"`
	Difficulty string `json:"difficulty"`
}

func (FallbackQuestion) TableName() string { return "battle_questions" }

// MaxHP derives the hit point ceiling for a species at the given level.
func MaxHP(baseHP, level int) int { return baseHP + level*2 }

// AttackStat derives the effective attack for a species at the given level.
func AttackStat(baseAttack, level int) int { return baseAttack + level*3/2 }

// XPToLevel is the XP required to advance past the given level. XP beyond the
// threshold rolls over into the next level.
func XPToLevel(level int) int { return level * 50 }

// DefaultMaxSP is used when an instance does not carry its own SP ceiling.
const DefaultMaxSP = 50
