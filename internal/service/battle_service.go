package service

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/Mmohamed-56/StudyMon/internal/constants"
	"github.com/Mmohamed-56/StudyMon/internal/engine"
	"github.com/Mmohamed-56/StudyMon/internal/game"
	"github.com/Mmohamed-56/StudyMon/internal/logging"
	"github.com/Mmohamed-56/StudyMon/internal/questions"
	"github.com/Mmohamed-56/StudyMon/internal/storage"
)

const (
	questionPurposeSP    = "sp"
	questionPurposeCatch = "catch"
)

// pendingQuestion holds an outstanding question with its server-side answer.
type pendingQuestion struct {
	question questions.Question
	purpose  string
}

// pendingLevelUp survives the end of a victorious battle so the learn-skill
// choice can be resolved after the session reached a terminal state.
type pendingLevelUp struct {
	instanceID uint
	newLevel   int
	candidates []game.Skill
}

// battleState is the per-user battle bookkeeping around the engine session.
// All access goes through its mutex.
type battleState struct {
	mu         sync.Mutex
	session    *engine.Session
	question   *pendingQuestion
	levelUp    *pendingLevelUp
	lastActive time.Time

	// Victory settlement bookkeeping: the XP award mutates the in-memory
	// combatant exactly once, while the checkpoint write may be retried
	// until it lands.
	victoryApplied bool
	victoryLevel   *engine.LevelUp
	settled        bool
}

func (bs *battleState) touch() { bs.lastActive = time.Now() }

// BattleService orchestrates battles: it loads party creatures, generates
// wild opponents, runs the question economy and persists checkpoints. One
// battle per user at a time.
type BattleService struct {
	repo   Repository
	source *questions.Source

	// opponentDelay is a cosmetic pause before the wild side's move resolves.
	opponentDelay time.Duration
	wildLevelMin  int
	wildLevelMax  int

	mu      sync.Mutex
	battles map[string]*battleState

	rngMu sync.Mutex
	rng   *rand.Rand
}

func NewBattleService(repo Repository, source *questions.Source, opponentDelay time.Duration, wildLevelMin, wildLevelMax int, rng *rand.Rand) *BattleService {
	if wildLevelMin < 1 {
		wildLevelMin = 1
	}
	if wildLevelMax < wildLevelMin {
		wildLevelMax = wildLevelMin
	}
	return &BattleService{
		repo:          repo,
		source:        source,
		opponentDelay: opponentDelay,
		wildLevelMin:  wildLevelMin,
		wildLevelMax:  wildLevelMax,
		battles:       make(map[string]*battleState),
		rng:           rng,
	}
}

func (s *BattleService) randInt(n int) int {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return s.rng.Intn(n)
}

func (s *BattleService) state(userEmail string) (*battleState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	bs, ok := s.battles[userEmail]
	return bs, ok
}

// StartBattle begins a wild encounter for the user's active party creature.
// A terminal leftover session is replaced; an active one is an error.
func (s *BattleService) StartBattle(userEmail string) (*BattleView, error) {
	s.mu.Lock()
	if existing, ok := s.battles[userEmail]; ok {
		existing.mu.Lock()
		state := existing.session.State()
		unsettled := state == engine.StatePlayerVictory && !existing.settled
		if !state.Terminal() {
			existing.mu.Unlock()
			s.mu.Unlock()
			return nil, ErrBattleInProgress
		}
		// A victory whose checkpoint write failed earlier must land before
		// the session is discarded, or the XP and win would be lost.
		if unsettled {
			if err := s.settleVictory(userEmail, existing); err != nil {
				existing.mu.Unlock()
				s.mu.Unlock()
				return nil, err
			}
		}
		existing.mu.Unlock()
		delete(s.battles, userEmail)
	}
	s.mu.Unlock()

	party, err := s.repo.ListParty(userEmail)
	if err != nil {
		return nil, err
	}
	active := pickActive(party)
	if active == nil {
		return nil, ErrEmptyParty
	}

	player, err := s.loadCombatant(userEmail, active)
	if err != nil {
		return nil, err
	}
	wild, err := s.generateWild(party)
	if err != nil {
		return nil, err
	}

	session := engine.NewSession(player, wild, rand.New(rand.NewSource(time.Now().UnixNano())))
	bs := &battleState{session: session, lastActive: time.Now()}

	s.mu.Lock()
	s.battles[userEmail] = bs
	s.mu.Unlock()

	logging.Info("battle started", logging.Fields{
		constants.LogFieldUser:    userEmail,
		constants.LogFieldSpecies: wild.Name,
		"wild_level":              wild.Level,
	})
	return s.snapshot(bs), nil
}

// pickActive selects the first non-fainted party member by position.
func pickActive(party []game.UserCreature) *game.UserCreature {
	for i := range party {
		if party[i].CurrentHP == nil || *party[i].CurrentHP > 0 {
			return &party[i]
		}
	}
	return nil
}

// loadCombatant builds the battle projection of an owned creature and its
// learned skill set. A creature with no learned skills is granted its type's
// tier-1 skill, persisted so the grant happens exactly once.
func (s *BattleService) loadCombatant(userEmail string, uc *game.UserCreature) (*engine.Combatant, error) {
	currentHP := -1
	if uc.CurrentHP != nil {
		currentHP = *uc.CurrentHP
	}
	c, err := engine.NewCombatant(uc.Species, uc.Level, currentHP, uc.CurrentSP, uc.MaxSP, uc.CurrentXP)
	if err != nil {
		return nil, err
	}
	c.InstanceID = uc.ID

	learned, err := s.repo.ListLearnedSkills(uc.ID)
	if err != nil {
		return nil, err
	}
	if len(learned) == 0 {
		starter, err := s.repo.SkillByTypeAndTier(uc.Species.Type, 1)
		if err != nil {
			return nil, err
		}
		if err := s.repo.InsertLearnedSkill(uc.ID, starter.ID, uc.Level); err != nil {
			return nil, err
		}
		c.Skills = []game.Skill{*starter}
		return c, nil
	}
	for _, ls := range learned {
		c.Skills = append(c.Skills, ls.Skill)
	}
	return c, nil
}

// generateWild rolls a wild combatant: a random species the player does not
// already field, a level in the configured band and one skill per tier the
// species' type offers.
func (s *BattleService) generateWild(party []game.UserCreature) (*engine.Combatant, error) {
	species, err := s.repo.GetSpecies()
	if err != nil {
		return nil, err
	}
	owned := make(map[uint]bool, len(party))
	for _, uc := range party {
		owned[uc.SpeciesID] = true
	}
	pool := make([]game.Species, 0, len(species))
	for _, sp := range species {
		if !owned[sp.ID] {
			pool = append(pool, sp)
		}
	}
	if len(pool) == 0 {
		pool = species
	}
	if len(pool) == 0 {
		return nil, ErrSpeciesNotFound
	}

	sp := pool[s.randInt(len(pool))]
	level := s.wildLevelMin
	if s.wildLevelMax > s.wildLevelMin {
		level += s.randInt(s.wildLevelMax - s.wildLevelMin + 1)
	}

	wild, err := engine.NewCombatant(sp, level, -1, 0, game.DefaultMaxSP, 0)
	if err != nil {
		return nil, err
	}
	for tier := 1; tier <= 4; tier++ {
		sk, err := s.repo.SkillByTypeAndTier(sp.Type, tier)
		if err != nil {
			if err == storage.ErrNotFound {
				continue
			}
			return nil, err
		}
		wild.Skills = append(wild.Skills, *sk)
	}
	return wild, nil
}

// Snapshot returns the current battle view.
func (s *BattleService) Snapshot(userEmail string) (*BattleView, error) {
	bs, ok := s.state(userEmail)
	if !ok {
		return nil, ErrNoBattle
	}
	return s.snapshot(bs), nil
}

func (s *BattleService) snapshot(bs *battleState) *BattleView {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	return s.snapshotLocked(bs)
}

func (s *BattleService) snapshotLocked(bs *battleState) *BattleView {
	sess := bs.session
	view := &BattleView{
		State:         string(sess.State()),
		Log:           append([]string(nil), sess.Log()...),
		Player:        combatantView(sess.Player, nil),
		Wild:          combatantView(sess.Wild, sess.WildSkillUses()),
		CatchEligible: sess.CatchEligible(),
	}
	if bs.question != nil {
		view.PendingQuestion = &QuestionView{
			Question:    bs.question.question.Question,
			Difficulty:  string(bs.question.question.Difficulty),
			Purpose:     bs.question.purpose,
			Placeholder: bs.question.question.Placeholder,
		}
	}
	if bs.levelUp != nil {
		candidates := make([]SkillView, 0, len(bs.levelUp.candidates))
		for _, sk := range bs.levelUp.candidates {
			candidates = append(candidates, skillView(sk, nil))
		}
		view.PendingLevelUp = &LevelUpView{NewLevel: bs.levelUp.newLevel, Candidates: candidates}
	}
	return view
}

// RequestQuestion fetches a study question for SP. Asking is a free action;
// a new request replaces any unanswered pending question.
func (s *BattleService) RequestQuestion(ctx context.Context, userEmail, topic string, difficulty game.Difficulty) (*QuestionView, error) {
	bs, ok := s.state(userEmail)
	if !ok {
		return nil, ErrNoBattle
	}
	bs.mu.Lock()
	if bs.session.State().Terminal() {
		bs.mu.Unlock()
		return nil, engine.ErrBattleOver
	}
	if bs.session.State() != engine.StateAwaitingPlayerAction {
		bs.mu.Unlock()
		return nil, engine.ErrNotPlayerTurn
	}
	bs.mu.Unlock()

	// The provider call happens outside the lock: it may block on the network.
	q := s.source.FetchQuestion(ctx, topic, difficulty)

	bs.mu.Lock()
	defer bs.mu.Unlock()
	if bs.session.State() != engine.StateAwaitingPlayerAction {
		return nil, engine.ErrNotPlayerTurn
	}
	bs.touch()
	bs.question = &pendingQuestion{question: q, purpose: questionPurposeSP}
	return &QuestionView{
		Question:    q.Question,
		Difficulty:  string(q.Difficulty),
		Purpose:     questionPurposeSP,
		Placeholder: q.Placeholder,
	}, nil
}

// BeginCatch validates eligibility and issues the catch question. The engine
// state is untouched until the answer arrives, so an abandoned attempt costs
// nothing.
func (s *BattleService) BeginCatch(ctx context.Context, userEmail, topic string, difficulty game.Difficulty) (*QuestionView, error) {
	bs, ok := s.state(userEmail)
	if !ok {
		return nil, ErrNoBattle
	}
	bs.mu.Lock()
	if err := bs.session.BeginCatch(); err != nil {
		bs.mu.Unlock()
		return nil, err
	}
	bs.mu.Unlock()

	q := s.source.FetchQuestion(ctx, topic, difficulty)

	bs.mu.Lock()
	defer bs.mu.Unlock()
	if err := bs.session.BeginCatch(); err != nil {
		return nil, err
	}
	bs.touch()
	bs.question = &pendingQuestion{question: q, purpose: questionPurposeCatch}
	return &QuestionView{
		Question:    q.Question,
		Difficulty:  string(q.Difficulty),
		Purpose:     questionPurposeCatch,
		Placeholder: q.Placeholder,
	}, nil
}

// SubmitAnswer resolves the pending question. A correct SP answer credits
// the difficulty reward; a correct catch answer captures the wild creature
// and ends the battle. Wrong answers cost nothing either way.
func (s *BattleService) SubmitAnswer(userEmail, answer string) (*AnswerResult, error) {
	bs, ok := s.state(userEmail)
	if !ok {
		return nil, ErrNoBattle
	}
	bs.mu.Lock()
	defer bs.mu.Unlock()

	if bs.question == nil {
		return nil, ErrNoPendingQuest
	}
	bs.touch()
	pq := bs.question

	correct := questions.Evaluate(answer, pq.question.Answer)
	result := &AnswerResult{
		Correct:       correct,
		CorrectAnswer: pq.question.Answer,
		CurrentSP:     bs.session.Player.CurrentSP,
		State:         string(bs.session.State()),
	}
	if !correct {
		bs.question = nil
		return result, nil
	}

	switch pq.purpose {
	case questionPurposeCatch:
		if err := bs.session.BeginCatch(); err != nil {
			bs.question = nil
			return nil, err
		}
		// Persist before the machine goes terminal: a failed write leaves
		// the question pending and the catch retryable.
		if err := s.checkpointHPSP(userEmail, bs.session.Player); err != nil {
			return nil, err
		}
		wild := bs.session.Wild
		if _, err := s.repo.InsertCreature(userEmail, wild.SpeciesID, wild.Level, wild.CurrentHP, "caught"); err != nil {
			return nil, err
		}
		if err := bs.session.ResolveCatch(); err != nil {
			return nil, err
		}
		bs.question = nil
		result.Caught = true
		logging.Info("wild creature caught", logging.Fields{
			constants.LogFieldUser:    userEmail,
			constants.LogFieldSpecies: wild.Name,
		})
	default:
		reward := pq.question.Difficulty.SPReward()
		total, err := bs.session.GainSP(reward, pq.question.Difficulty)
		bs.question = nil
		if err != nil {
			return nil, err
		}
		result.SPGained = reward
		result.CurrentSP = total
	}
	result.State = string(bs.session.State())
	return result, nil
}

// UseSkill executes the player's chosen attack. On victory the checkpoint is
// written immediately; otherwise the wild side's reply is scheduled after the
// cosmetic delay.
func (s *BattleService) UseSkill(userEmail string, skillID uint) (*BattleView, error) {
	bs, ok := s.state(userEmail)
	if !ok {
		return nil, ErrNoBattle
	}
	bs.mu.Lock()
	defer bs.mu.Unlock()

	// A victory whose checkpoint write failed stays settleable: retrying the
	// move completes the persistence instead of reporting the battle over.
	if bs.session.State() == engine.StatePlayerVictory && !bs.settled {
		if err := s.settleVictory(userEmail, bs); err != nil {
			return nil, err
		}
		return s.snapshotLocked(bs), nil
	}

	// The reserve check reads the store; it runs before any engine mutation
	// so a transient read failure rejects the move cleanly instead of
	// stranding the turn machine mid-resolution.
	hasReserve, err := s.hasReserve(userEmail, bs.session.Player.InstanceID)
	if err != nil {
		return nil, err
	}

	if _, err := bs.session.UseSkill(skillID); err != nil {
		return nil, err
	}
	bs.touch()
	bs.question = nil

	switch bs.session.State() {
	case engine.StatePlayerVictory:
		if err := s.settleVictory(userEmail, bs); err != nil {
			return nil, err
		}
	case engine.StateAwaitingOpponentAction:
		s.scheduleOpponentTurn(userEmail, bs, hasReserve)
	}
	return s.snapshotLocked(bs), nil
}

// scheduleOpponentTurn arms the delayed wild move. Caller holds bs.mu.
func (s *BattleService) scheduleOpponentTurn(userEmail string, bs *battleState, hasReserve bool) {
	if s.opponentDelay <= 0 {
		s.resolveOpponentTurnLocked(userEmail, bs, hasReserve)
		return
	}
	time.AfterFunc(s.opponentDelay, func() {
		bs.mu.Lock()
		defer bs.mu.Unlock()
		s.resolveOpponentTurnLocked(userEmail, bs, hasReserve)
	})
}

// resolveOpponentTurnLocked runs the wild side's move. Caller holds bs.mu.
func (s *BattleService) resolveOpponentTurnLocked(userEmail string, bs *battleState, hasReserve bool) {
	if bs.session.State() != engine.StateAwaitingOpponentAction {
		return
	}
	if _, err := bs.session.OpponentTurn(hasReserve); err != nil {
		logging.Error("opponent turn failed", err, logging.Fields{constants.LogFieldUser: userEmail})
		return
	}

	switch bs.session.State() {
	case engine.StateAwaitingSwitch, engine.StatePlayerDefeat:
		// The active combatant fainted; persist its 0 HP right away.
		if err := s.checkpointHPSP(userEmail, bs.session.Player); err != nil {
			logging.Error("failed to checkpoint fainted creature", err, logging.Fields{constants.LogFieldUser: userEmail})
		}
	}
}

// hasReserve reports whether any other party member can still fight.
func (s *BattleService) hasReserve(userEmail string, activeID uint) (bool, error) {
	party, err := s.repo.ListParty(userEmail)
	if err != nil {
		return false, err
	}
	for _, uc := range party {
		if uc.ID == activeID {
			continue
		}
		if uc.CurrentHP == nil || *uc.CurrentHP > 0 {
			return true, nil
		}
	}
	return false, nil
}

// Switch brings in another party creature. Switching is a switch checkpoint:
// the outgoing combatant's HP and SP are persisted before the swap, and the
// wild side gets an immediate move.
func (s *BattleService) Switch(userEmail string, instanceID uint) (*BattleView, error) {
	bs, ok := s.state(userEmail)
	if !ok {
		return nil, ErrNoBattle
	}
	bs.mu.Lock()
	defer bs.mu.Unlock()

	if bs.session.State().Terminal() {
		return nil, engine.ErrBattleOver
	}
	if bs.session.State() != engine.StateAwaitingPlayerAction && bs.session.State() != engine.StateAwaitingSwitch {
		return nil, engine.ErrNoSwitchPending
	}

	uc, err := s.repo.GetCreature(instanceID, userEmail)
	if err != nil {
		return nil, err
	}
	if uc.PartyPosition == nil {
		return nil, ErrNotInParty
	}
	if uc.CurrentHP != nil && *uc.CurrentHP <= 0 {
		return nil, ErrFainted
	}

	incoming, err := s.loadCombatant(userEmail, uc)
	if err != nil {
		return nil, err
	}
	if err := s.checkpointHPSP(userEmail, bs.session.Player); err != nil {
		return nil, err
	}
	hasReserve, err := s.hasReserve(userEmail, uc.ID)
	if err != nil {
		return nil, err
	}
	if err := bs.session.Switch(incoming); err != nil {
		return nil, err
	}
	bs.touch()
	bs.question = nil
	s.scheduleOpponentTurn(userEmail, bs, hasReserve)
	return s.snapshotLocked(bs), nil
}

// Flee abandons the battle. HP and SP are persisted; no XP, no win counted.
func (s *BattleService) Flee(userEmail string) (*BattleView, error) {
	bs, ok := s.state(userEmail)
	if !ok {
		return nil, ErrNoBattle
	}
	bs.mu.Lock()
	defer bs.mu.Unlock()

	if err := bs.session.CanFlee(); err != nil {
		return nil, err
	}
	bs.touch()
	// Checkpoint before the terminal transition so a failed write leaves the
	// battle fleeable again.
	if err := s.checkpointHPSP(userEmail, bs.session.Player); err != nil {
		return nil, err
	}
	if err := bs.session.Flee(); err != nil {
		return nil, err
	}
	bs.question = nil
	return s.snapshotLocked(bs), nil
}

// settleVictory writes the victory checkpoint: final HP/SP, the XP award,
// any level advance and the win counter. Safe to call again after a failed
// write; the in-memory XP award is applied only on the first call. Caller
// holds bs.mu.
func (s *BattleService) settleVictory(userEmail string, bs *battleState) error {
	player := bs.session.Player
	if !bs.victoryApplied {
		player.CurrentXP += engine.VictoryXP(bs.session.Wild.Level)
		bs.victoryLevel = engine.CheckLevelUp(player)
		bs.victoryApplied = true
	}

	if lvl := bs.victoryLevel; lvl != nil && len(lvl.EligibleTiers) > 0 && bs.levelUp == nil {
		pool, err := s.repo.SkillsByType(string(player.Type))
		if err != nil {
			return err
		}
		learnedRows, err := s.repo.ListLearnedSkills(player.InstanceID)
		if err != nil {
			return err
		}
		learned := make(map[uint]bool, len(learnedRows))
		for _, ls := range learnedRows {
			learned[ls.SkillID] = true
		}
		candidates := engine.CandidateSkills(pool, learned, lvl.EligibleTiers)
		if len(candidates) > 0 {
			bs.levelUp = &pendingLevelUp{
				instanceID: player.InstanceID,
				newLevel:   lvl.NewLevel,
				candidates: candidates,
			}
		}
	}

	hp, sp, xp, level := player.CurrentHP, player.CurrentSP, player.CurrentXP, player.Level
	err := s.repo.UpdateCreature(player.InstanceID, userEmail, storage.CreatureUpdate{
		CurrentHP: &hp,
		CurrentSP: &sp,
		CurrentXP: &xp,
		Level:     &level,
	})
	if err != nil {
		return err
	}
	if err := s.repo.IncrementWinCounter(userEmail); err != nil {
		return err
	}
	bs.settled = true
	logging.Info("battle won", logging.Fields{
		constants.LogFieldUser:       userEmail,
		constants.LogFieldCreatureID: player.InstanceID,
		"level":                      level,
	})
	return nil
}

// LearnSkill resolves a pending level-up choice. skillID 0 skips; otherwise
// the skill must be among the offered candidates.
func (s *BattleService) LearnSkill(userEmail string, skillID uint) (*LevelUpView, error) {
	bs, ok := s.state(userEmail)
	if !ok {
		return nil, ErrNoBattle
	}
	bs.mu.Lock()
	defer bs.mu.Unlock()

	if bs.levelUp == nil {
		return nil, ErrNoPendingLevelUp
	}
	bs.touch()
	pending := bs.levelUp

	if skillID == 0 {
		bs.levelUp = nil
		return &LevelUpView{NewLevel: pending.newLevel}, nil
	}

	var chosen *game.Skill
	for i := range pending.candidates {
		if pending.candidates[i].ID == skillID {
			chosen = &pending.candidates[i]
			break
		}
	}
	if chosen == nil {
		return nil, ErrSkillNotEligible
	}
	if _, err := s.repo.GetCreature(pending.instanceID, userEmail); err != nil {
		return nil, err
	}
	if err := s.repo.InsertLearnedSkill(pending.instanceID, chosen.ID, pending.newLevel); err != nil {
		return nil, err
	}
	bs.levelUp = nil
	logging.Info("skill learned", logging.Fields{
		constants.LogFieldUser:       userEmail,
		constants.LogFieldCreatureID: pending.instanceID,
		constants.LogFieldSkill:      chosen.Name,
	})
	return &LevelUpView{NewLevel: pending.newLevel, Candidates: []SkillView{skillView(*chosen, nil)}}, nil
}

// ReapStale removes battle sessions idle for longer than maxIdle. A battle
// abandoned mid-fight is checkpointed like a flee (HP/SP persisted, no XP);
// an unclaimed level-up choice is forfeited. Returns the number reaped.
func (s *BattleService) ReapStale(maxIdle time.Duration) int {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	reaped := 0
	for email, bs := range s.battles {
		bs.mu.Lock()
		idle := now.Sub(bs.lastActive)
		if idle <= maxIdle {
			bs.mu.Unlock()
			continue
		}
		if bs.session.State() == engine.StatePlayerVictory && !bs.settled {
			// An unsettled victory still owes the player XP and a win; hold
			// the session until the write lands.
			if err := s.settleVictory(email, bs); err != nil {
				logging.Error("failed to settle abandoned victory", err, logging.Fields{constants.LogFieldUser: email})
				bs.mu.Unlock()
				continue
			}
		} else if !bs.session.State().Terminal() {
			if err := s.checkpointHPSP(email, bs.session.Player); err != nil {
				logging.Error("failed to checkpoint abandoned battle", err, logging.Fields{constants.LogFieldUser: email})
			}
		}
		bs.mu.Unlock()
		delete(s.battles, email)
		reaped++
		logging.Info("reaped stale battle session", logging.Fields{constants.LogFieldUser: email})
	}
	return reaped
}

// checkpointHPSP persists the combatant's current HP and SP only.
func (s *BattleService) checkpointHPSP(userEmail string, c *engine.Combatant) error {
	hp, sp := c.CurrentHP, c.CurrentSP
	return s.repo.UpdateCreature(c.InstanceID, userEmail, storage.CreatureUpdate{
		CurrentHP: &hp,
		CurrentSP: &sp,
	})
}
