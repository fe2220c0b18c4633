package engine

import (
	"math"
	"math/rand"
	"testing"

	"github.com/Mmohamed-56/StudyMon/internal/game"
)

func testCombatant(t *testing.T, typ string, baseHP, baseAttack, level int) *Combatant {
	t.Helper()
	c, err := NewCombatant(game.Species{Name: "test", Type: typ, BaseHP: baseHP, BaseAttack: baseAttack}, level, -1, 0, game.DefaultMaxSP, 0)
	if err != nil {
		t.Fatalf("NewCombatant: %v", err)
	}
	return c
}

func TestSkillDamage_MatchesFormula(t *testing.T) {
	attacker := testCombatant(t, "fire", 50, 34, 2) // attack = 34 + 3 = 37
	defender := testCombatant(t, "grass", 50, 10, 2)
	if attacker.Attack != 37 {
		t.Fatalf("expected attack 37, got %d", attacker.Attack)
	}
	skill := game.Skill{BasePower: 50, SPCost: 5}

	seed := int64(11)
	variance := rand.New(rand.NewSource(seed)).Intn(5) - 2
	want := int(math.Floor(float64(37*50/100+variance) * 2.0))
	if want < 1 {
		want = 1
	}

	got := SkillDamage(attacker, defender, skill, rand.New(rand.NewSource(seed)))
	if got != want {
		t.Fatalf("expected %d damage, got %d", want, got)
	}
}

func TestSkillDamage_FlooredAtOne(t *testing.T) {
	attacker := testCombatant(t, "psychic", 50, 1, 1)
	// psychic vs dark is a 0x matchup; the floor still deals 1.
	defender := testCombatant(t, "dark", 50, 1, 1)
	skill := game.Skill{BasePower: 10}

	for seed := int64(0); seed < 10; seed++ {
		got := SkillDamage(attacker, defender, skill, rand.New(rand.NewSource(seed)))
		if got != 1 {
			t.Fatalf("seed %d: expected floor damage 1, got %d", seed, got)
		}
	}
}

func TestSkillDamage_VarianceBounded(t *testing.T) {
	attacker := testCombatant(t, "water", 50, 40, 5)
	defender := testCombatant(t, "electric", 50, 10, 5)
	skill := game.Skill{BasePower: 100}

	base := attacker.Attack * skill.BasePower / 100
	for seed := int64(0); seed < 50; seed++ {
		got := SkillDamage(attacker, defender, skill, rand.New(rand.NewSource(seed)))
		if got < base-2 || got > base+2 {
			t.Fatalf("seed %d: damage %d outside variance band around %d", seed, got, base)
		}
	}
}
