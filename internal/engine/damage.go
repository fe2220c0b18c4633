package engine

import (
	"math"
	"math/rand"

	"github.com/Mmohamed-56/StudyMon/internal/game"
)

// SkillDamage computes the damage one skill use inflicts. The variance term
// is drawn uniformly from {-2,-1,0,1,2}. The result is floored at 1 so even a
// fully-resisted matchup makes forward progress.
func SkillDamage(attacker, defender *Combatant, skill game.Skill, rng *rand.Rand) int {
	base := attacker.Attack * skill.BasePower / 100
	variance := rng.Intn(5) - 2
	eff := game.Effectiveness(attacker.Type, defender.Type)
	dmg := int(math.Floor(float64(base+variance) * eff))
	if dmg < 1 {
		dmg = 1
	}
	return dmg
}
