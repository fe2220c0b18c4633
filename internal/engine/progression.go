package engine

import (
	"github.com/Mmohamed-56/StudyMon/internal/game"
)

// VictoryXP is the XP awarded for defeating a wild combatant.
func VictoryXP(wildLevel int) int { return wildLevel * 10 }

// LevelUp describes the outcome of a level-up check.
type LevelUp struct {
	NewLevel      int
	RemainingXP   int
	EligibleTiers []int
}

// EligibleTiers returns the skill tiers that unlock at the given level.
// Tier 1 unlocks at every even level, tier 2 at multiples of 5, tier 3 at
// multiples of 10, tier 4 at multiples of 15. The conditions overlap: level
// 10 satisfies both the tier-1 and tier-3 cadence.
func EligibleTiers(level int) []int {
	tiers := make([]int, 0, 4)
	if level%2 == 0 {
		tiers = append(tiers, 1)
	}
	if level%5 == 0 {
		tiers = append(tiers, 2)
	}
	if level%10 == 0 {
		tiers = append(tiers, 3)
	}
	if level%15 == 0 {
		tiers = append(tiers, 4)
	}
	return tiers
}

// CheckLevelUp applies pending XP to the combatant. If current XP meets the
// threshold (level × 50) the combatant advances one level; excess XP rolls
// over, it is never discarded. Returns nil when no level-up occurred.
func CheckLevelUp(c *Combatant) *LevelUp {
	need := game.XPToLevel(c.Level)
	if c.CurrentXP < need {
		return nil
	}
	c.CurrentXP -= need
	c.Level++
	c.MaxHP = game.MaxHP(c.BaseHP, c.Level)
	c.Attack = game.AttackStat(c.BaseAttack, c.Level)
	return &LevelUp{
		NewLevel:      c.Level,
		RemainingXP:   c.CurrentXP,
		EligibleTiers: EligibleTiers(c.Level),
	}
}

// CandidateSkills returns the not-yet-learned skills in any of the eligible
// tiers. The player may learn at most one of them per level-up event.
func CandidateSkills(all []game.Skill, learned map[uint]bool, tiers []int) []game.Skill {
	tierSet := make(map[int]bool, len(tiers))
	for _, t := range tiers {
		tierSet[t] = true
	}
	out := make([]game.Skill, 0, len(all))
	for _, sk := range all {
		if !tierSet[sk.SkillLevel] {
			continue
		}
		if learned[sk.ID] {
			continue
		}
		out = append(out, sk)
	}
	return out
}
