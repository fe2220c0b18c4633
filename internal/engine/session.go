package engine

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/Mmohamed-56/StudyMon/internal/game"
)

// State names every position of the battle turn machine. Transitions are
// driven exclusively by Session methods so illegal moves (acting out of turn,
// attacking after the battle ended) are rejected before any mutation.
type State string

const (
	StateAwaitingPlayerAction   State = "awaiting_player_action"
	StateResolvingPlayerSkill   State = "resolving_player_skill"
	StateAwaitingOpponentAction State = "awaiting_opponent_action"
	StateResolvingOpponentSkill State = "resolving_opponent_skill"
	StateAwaitingSwitch         State = "awaiting_switch"
	StatePlayerVictory          State = "player_victory"
	StatePlayerDefeat           State = "player_defeat"
	StateFled                   State = "fled"
	StateCaught                 State = "caught"
)

// Terminal reports whether the battle is over in this state.
func (s State) Terminal() bool {
	switch s {
	case StatePlayerVictory, StatePlayerDefeat, StateFled, StateCaught:
		return true
	}
	return false
}

var (
	ErrNotPlayerTurn    = errors.New("not the player's turn")
	ErrNotOpponentTurn  = errors.New("not the opponent's turn")
	ErrBattleOver       = errors.New("battle is already over")
	ErrInsufficientSP   = errors.New("not enough SP for this skill")
	ErrSkillNotKnown    = errors.New("combatant does not know this skill")
	ErrCatchNotEligible = errors.New("wild creature HP is not below the catch threshold")
	ErrNoSwitchPending  = errors.New("no switch is possible in the current state")
)

// Limited-use counters for wild combatants. Tiers 1 and 2 are unlimited;
// player combatants are gated by SP cost only.
const (
	tier3Uses = 2
	tier4Uses = 1
)

// Session owns the in-memory battle state for one player for its whole
// lifetime. It is single-threaded by design: the service layer serializes
// access, and only one actor may move at a time.
type Session struct {
	Player *Combatant
	Wild   *Combatant

	state    State
	log      []string
	rng      *rand.Rand
	wildUses map[uint]int
}

// NewSession starts a battle between the active party creature and a wild
// combatant. The wild side's tier 3/4 skills receive per-battle use counters.
func NewSession(player, wild *Combatant, rng *rand.Rand) *Session {
	s := &Session{
		Player:   player,
		Wild:     wild,
		state:    StateAwaitingPlayerAction,
		rng:      rng,
		wildUses: make(map[uint]int),
	}
	for _, sk := range wild.Skills {
		switch sk.SkillLevel {
		case 3:
			s.wildUses[sk.ID] = tier3Uses
		case 4:
			s.wildUses[sk.ID] = tier4Uses
		}
	}
	s.logf("A wild %s appeared!", wild.Name)
	return s
}

// State returns the current machine state.
func (s *Session) State() State { return s.state }

// Log returns the chronological battle narration.
func (s *Session) Log() []string { return s.log }

func (s *Session) logf(format string, args ...interface{}) {
	s.log = append(s.log, fmt.Sprintf(format, args...))
}

// IsPlayerTurn reports whether the player may currently act.
func (s *Session) IsPlayerTurn() bool {
	return s.state == StateAwaitingPlayerAction || s.state == StateAwaitingSwitch
}

// GainSP credits a question reward to the active combatant. Gaining SP is a
// free action: it never consumes the turn and may be repeated while the
// player's turn holds.
func (s *Session) GainSP(reward int, difficulty game.Difficulty) (int, error) {
	if s.state.Terminal() {
		return 0, ErrBattleOver
	}
	if s.state != StateAwaitingPlayerAction {
		return 0, ErrNotPlayerTurn
	}
	total := s.Player.GainSP(reward)
	s.logf("Answered %s question! +%d SP (Total: %d)", difficulty, reward, total)
	return total, nil
}

// UseSkill executes a player skill: spends SP, applies damage and either ends
// the battle in victory or hands the turn to the opponent.
func (s *Session) UseSkill(skillID uint) (int, error) {
	if s.state.Terminal() {
		return 0, ErrBattleOver
	}
	if s.state != StateAwaitingPlayerAction {
		return 0, ErrNotPlayerTurn
	}
	skill, ok := s.Player.KnowsSkill(skillID)
	if !ok {
		return 0, ErrSkillNotKnown
	}
	if s.Player.CurrentSP < skill.SPCost {
		return 0, ErrInsufficientSP
	}

	s.state = StateResolvingPlayerSkill
	s.Player.SpendSP(skill.SPCost)
	dmg := SkillDamage(s.Player, s.Wild, skill, s.rng)
	s.Wild.ApplyDamage(dmg)
	s.logf("%s used %s! Dealt %d damage!", s.Player.Name, skill.Name, dmg)

	if s.Wild.Fainted() {
		s.logf("%s fainted! You win!", s.Wild.Name)
		s.state = StatePlayerVictory
		return dmg, nil
	}
	s.state = StateAwaitingOpponentAction
	return dmg, nil
}

// usableWildSkills filters the wild skill set by remaining uses.
func (s *Session) usableWildSkills() []game.Skill {
	out := make([]game.Skill, 0, len(s.Wild.Skills))
	for _, sk := range s.Wild.Skills {
		if uses, limited := s.wildUses[sk.ID]; limited && uses <= 0 {
			continue
		}
		out = append(out, sk)
	}
	return out
}

// OpponentTurn resolves the wild combatant's move. It selects uniformly at
// random among skills with remaining uses; a wild side with no usable skill
// skips its turn, which is not a battle-ending condition. hasReserve tells
// the machine whether a fainting player combatant can be replaced.
func (s *Session) OpponentTurn(hasReserve bool) (int, error) {
	if s.state.Terminal() {
		return 0, ErrBattleOver
	}
	if s.state != StateAwaitingOpponentAction {
		return 0, ErrNotOpponentTurn
	}

	usable := s.usableWildSkills()
	if len(usable) == 0 {
		s.logf("%s has no moves left!", s.Wild.Name)
		s.state = StateAwaitingPlayerAction
		return 0, nil
	}

	s.state = StateResolvingOpponentSkill
	skill := usable[s.rng.Intn(len(usable))]
	if _, limited := s.wildUses[skill.ID]; limited {
		s.wildUses[skill.ID]--
	}

	dmg := SkillDamage(s.Wild, s.Player, skill, s.rng)
	s.Player.ApplyDamage(dmg)
	s.logf("%s used %s! Dealt %d damage!", s.Wild.Name, skill.Name, dmg)

	if s.Player.Fainted() {
		s.logf("%s fainted!", s.Player.Name)
		if hasReserve {
			s.logf("Choose another creature to continue!")
			s.state = StateAwaitingSwitch
		} else {
			s.logf("All your creatures fainted! You lost!")
			s.state = StatePlayerDefeat
		}
		return dmg, nil
	}
	s.state = StateAwaitingPlayerAction
	return dmg, nil
}

// WildSkillUses exposes the remaining-use counters (limited skills only).
func (s *Session) WildSkillUses() map[uint]int {
	out := make(map[uint]int, len(s.wildUses))
	for id, n := range s.wildUses {
		out[id] = n
	}
	return out
}

// Switch replaces the active combatant. A voluntary switch is allowed on the
// player's turn; a forced switch only while one is pending. Switching costs
// tempo: the opponent is granted an immediate turn afterwards. The caller is
// responsible for checkpointing the outgoing combatant before calling.
func (s *Session) Switch(incoming *Combatant) error {
	if s.state.Terminal() {
		return ErrBattleOver
	}
	if s.state != StateAwaitingPlayerAction && s.state != StateAwaitingSwitch {
		return ErrNoSwitchPending
	}
	s.Player = incoming
	s.logf("Go, %s!", incoming.Name)
	s.state = StateAwaitingOpponentAction
	return nil
}

// CatchEligible reports whether a catch attempt may be offered: strictly
// below 30% of the wild combatant's max HP.
func (s *Session) CatchEligible() bool {
	if s.state.Terminal() || s.Wild.Fainted() {
		return false
	}
	return s.Wild.CurrentHP*10 < s.Wild.MaxHP*3
}

// BeginCatch validates a catch attempt. The actual question round-trip is
// external; the machine stays in the player's turn so a cancelled or failed
// attempt leaves the state exactly as it was.
func (s *Session) BeginCatch() error {
	if s.state.Terminal() {
		return ErrBattleOver
	}
	if s.state != StateAwaitingPlayerAction {
		return ErrNotPlayerTurn
	}
	if !s.CatchEligible() {
		return ErrCatchNotEligible
	}
	return nil
}

// ResolveCatch ends the session after a successful catch. The caller persists
// the new owned-creature record.
func (s *Session) ResolveCatch() error {
	if err := s.BeginCatch(); err != nil {
		return err
	}
	s.logf("You caught %s!", s.Wild.Name)
	s.state = StateCaught
	return nil
}

// CanFlee reports whether fleeing is allowed in the current state. It lets the
// caller persist the retreat checkpoint before the terminal transition.
func (s *Session) CanFlee() error {
	if s.state.Terminal() {
		return ErrBattleOver
	}
	if s.state != StateAwaitingPlayerAction {
		return ErrNotPlayerTurn
	}
	return nil
}

// Flee ends the session immediately with no XP awarded.
func (s *Session) Flee() error {
	if err := s.CanFlee(); err != nil {
		return err
	}
	s.logf("You fled the battle.")
	s.state = StateFled
	return nil
}
