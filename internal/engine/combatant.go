package engine

import (
	"github.com/Mmohamed-56/StudyMon/internal/game"
)

// Combatant is the runtime battle projection of one creature. For player
// creatures InstanceID references the persisted user_creatures row; wild
// combatants have InstanceID 0 until they are caught.
type Combatant struct {
	InstanceID uint
	SpeciesID  uint
	Name       string
	Sprite     string
	Type       game.CreatureType
	Level      int

	BaseHP     int
	BaseAttack int

	MaxHP     int
	CurrentHP int
	MaxSP     int
	CurrentSP int
	CurrentXP int
	Attack    int

	Skills []game.Skill
}

// NewCombatant derives battle stats from species base values. currentHP < 0
// means "full HP" (a fresh instance that has never battled).
func NewCombatant(sp game.Species, level, currentHP, currentSP, maxSP, currentXP int) (*Combatant, error) {
	t, err := game.ParseType(sp.Type)
	if err != nil {
		return nil, err
	}
	if maxSP <= 0 {
		maxSP = game.DefaultMaxSP
	}
	maxHP := game.MaxHP(sp.BaseHP, level)
	if currentHP < 0 || currentHP > maxHP {
		currentHP = maxHP
	}
	if currentSP < 0 {
		currentSP = 0
	}
	if currentSP > maxSP {
		currentSP = maxSP
	}
	return &Combatant{
		SpeciesID:  sp.ID,
		Name:       sp.Name,
		Sprite:     sp.Sprite,
		Type:       t,
		Level:      level,
		BaseHP:     sp.BaseHP,
		BaseAttack: sp.BaseAttack,
		MaxHP:      maxHP,
		CurrentHP:  currentHP,
		MaxSP:      maxSP,
		CurrentSP:  currentSP,
		CurrentXP:  currentXP,
		Attack:     game.AttackStat(sp.BaseAttack, level),
	}, nil
}

// Fainted reports whether the combatant can no longer act.
func (c *Combatant) Fainted() bool { return c.CurrentHP <= 0 }

// ApplyDamage reduces HP, clamped at zero.
func (c *Combatant) ApplyDamage(dmg int) {
	c.CurrentHP -= dmg
	if c.CurrentHP < 0 {
		c.CurrentHP = 0
	}
}

// GainSP adds SP, clamped at the ceiling, and returns the new total.
func (c *Combatant) GainSP(amount int) int {
	c.CurrentSP += amount
	if c.CurrentSP > c.MaxSP {
		c.CurrentSP = c.MaxSP
	}
	return c.CurrentSP
}

// SpendSP deducts a skill's cost. The caller must have checked affordability;
// SP never goes below zero.
func (c *Combatant) SpendSP(cost int) {
	c.CurrentSP -= cost
	if c.CurrentSP < 0 {
		c.CurrentSP = 0
	}
}

// KnowsSkill reports whether the combatant has the given skill equipped.
func (c *Combatant) KnowsSkill(skillID uint) (game.Skill, bool) {
	for _, s := range c.Skills {
		if s.ID == skillID {
			return s, true
		}
	}
	return game.Skill{}, false
}
