package service

import (
	"context"
	"errors"
	"math/rand"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/Mmohamed-56/StudyMon/internal/engine"
	"github.com/Mmohamed-56/StudyMon/internal/game"
	"github.com/Mmohamed-56/StudyMon/internal/questions"
	"github.com/Mmohamed-56/StudyMon/internal/storage"
)

type updateRecord struct {
	instanceID uint
	userEmail  string
	updates    storage.CreatureUpdate
}

// mockRepo is an in-memory Repository for service tests.
type mockRepo struct {
	species   []game.Species
	skills    []game.Skill
	creatures map[uint]*game.UserCreature
	learned   map[uint][]game.LearnedSkill
	users     map[string]*game.User
	fallback  []game.FallbackQuestion

	updates      []updateRecord
	inserted     []game.UserCreature
	wins         map[string]int
	updateErr    error
	listPartyErr error
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		creatures: make(map[uint]*game.UserCreature),
		learned:   make(map[uint][]game.LearnedSkill),
		users:     make(map[string]*game.User),
		wins:      make(map[string]int),
	}
}

func (m *mockRepo) GetSpecies() ([]game.Species, error) { return m.species, nil }

func (m *mockRepo) GetSpeciesByID(id uint) (*game.Species, error) {
	for i := range m.species {
		if m.species[i].ID == id {
			return &m.species[i], nil
		}
	}
	return nil, storage.ErrNotFound
}

func (m *mockRepo) SkillsByType(creatureType string) ([]game.Skill, error) {
	out := []game.Skill{}
	for _, sk := range m.skills {
		if strings.EqualFold(sk.Type, creatureType) {
			out = append(out, sk)
		}
	}
	return out, nil
}

func (m *mockRepo) SkillByTypeAndTier(creatureType string, tier int) (*game.Skill, error) {
	for i := range m.skills {
		if strings.EqualFold(m.skills[i].Type, creatureType) && m.skills[i].SkillLevel == tier {
			return &m.skills[i], nil
		}
	}
	return nil, storage.ErrNotFound
}

func (m *mockRepo) GetCreature(instanceID uint, userEmail string) (*game.UserCreature, error) {
	uc, ok := m.creatures[instanceID]
	if !ok || uc.UserEmail != userEmail {
		return nil, storage.ErrNotFound
	}
	return uc, nil
}

func (m *mockRepo) ListCollection(userEmail string) ([]game.UserCreature, error) {
	out := []game.UserCreature{}
	for _, uc := range m.creatures {
		if uc.UserEmail == userEmail {
			out = append(out, *uc)
		}
	}
	return out, nil
}

func (m *mockRepo) ListParty(userEmail string) ([]game.UserCreature, error) {
	if m.listPartyErr != nil {
		return nil, m.listPartyErr
	}
	out := []game.UserCreature{}
	for _, uc := range m.creatures {
		if uc.UserEmail == userEmail && uc.PartyPosition != nil {
			out = append(out, *uc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return *out[i].PartyPosition < *out[j].PartyPosition })
	return out, nil
}

func (m *mockRepo) UpdateCreature(instanceID uint, userEmail string, updates storage.CreatureUpdate) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	uc, ok := m.creatures[instanceID]
	if !ok || uc.UserEmail != userEmail {
		return storage.ErrNotOwned
	}
	m.updates = append(m.updates, updateRecord{instanceID: instanceID, userEmail: userEmail, updates: updates})
	if updates.CurrentHP != nil {
		hp := *updates.CurrentHP
		uc.CurrentHP = &hp
	}
	if updates.CurrentSP != nil {
		uc.CurrentSP = *updates.CurrentSP
	}
	if updates.CurrentXP != nil {
		uc.CurrentXP = *updates.CurrentXP
	}
	if updates.Level != nil {
		uc.Level = *updates.Level
	}
	return nil
}

func (m *mockRepo) InsertCreature(userEmail string, speciesID uint, level, currentHP int, caughtMethod string) (uint, error) {
	hp := currentHP
	uc := game.UserCreature{UserEmail: userEmail, SpeciesID: speciesID, Level: level, CurrentHP: &hp, MaxSP: game.DefaultMaxSP, CaughtMethod: caughtMethod}
	for _, sp := range m.species {
		if sp.ID == speciesID {
			uc.Species = sp
		}
	}
	uc.ID = uint(100 + len(m.inserted))
	m.inserted = append(m.inserted, uc)
	m.creatures[uc.ID] = &uc
	return uc.ID, nil
}

func (m *mockRepo) SetPartyPosition(instanceID uint, userEmail string, position *int) error {
	uc, ok := m.creatures[instanceID]
	if !ok || uc.UserEmail != userEmail {
		return storage.ErrNotOwned
	}
	uc.PartyPosition = position
	return nil
}

func (m *mockRepo) HealParty(userEmail string) error { return nil }

func (m *mockRepo) ListLearnedSkills(instanceID uint) ([]game.LearnedSkill, error) {
	return m.learned[instanceID], nil
}

func (m *mockRepo) InsertLearnedSkill(instanceID uint, skillID uint, learnedAtLevel int) error {
	var skill game.Skill
	for _, sk := range m.skills {
		if sk.ID == skillID {
			skill = sk
		}
	}
	m.learned[instanceID] = append(m.learned[instanceID], game.LearnedSkill{UserCreatureID: instanceID, SkillID: skillID, Skill: skill, LearnedAtLevel: learnedAtLevel})
	return nil
}

func (m *mockRepo) UpsertUser(email, name string) error {
	m.users[email] = &game.User{Email: email, DisplayName: name}
	return nil
}

func (m *mockRepo) GetStatsByEmail(email string) (*game.User, error) {
	if u, ok := m.users[email]; ok {
		return u, nil
	}
	return &game.User{Email: email}, nil
}

func (m *mockRepo) IncrementWinCounter(userEmail string) error {
	m.wins[userEmail]++
	return nil
}

func (m *mockRepo) ListFallbackQuestions(difficulty string) ([]game.FallbackQuestion, error) {
	out := []game.FallbackQuestion{}
	for _, q := range m.fallback {
		if strings.EqualFold(q.Difficulty, difficulty) {
			out = append(out, q)
		}
	}
	return out, nil
}

// fixedProvider always serves the same question.
type fixedProvider struct{ q questions.Question }

func (p fixedProvider) FetchQuestion(context.Context, string, game.Difficulty) (questions.Question, error) {
	return p.q, nil
}

const testUser = "trainer@example.com"

func mkSpecies(id uint, name, typ string, hp, attack int) game.Species {
	sp := game.Species{Name: name, Type: typ, BaseHP: hp, BaseAttack: attack}
	sp.ID = id
	return sp
}

func mkSkill(id uint, name, typ string, tier, power, cost int) game.Skill {
	sk := game.Skill{Name: name, Type: typ, SkillLevel: tier, BasePower: power, SPCost: cost}
	sk.ID = id
	return sk
}

// fixture builds a repo with a fire attacker in party slot 1 and a weak grass
// species for the wild side. Returns the repo and the party creature's ID.
func fixture(playerAttack, wildHP int) (*mockRepo, uint) {
	repo := newMockRepo()
	repo.species = []game.Species{
		mkSpecies(1, "Emberling", "fire", 60, playerAttack),
		mkSpecies(2, "Sproutle", "grass", wildHP, 1),
	}
	repo.skills = []game.Skill{
		mkSkill(1, "Ember", "fire", 1, 100, 5),
		mkSkill(2, "Vine Whip", "grass", 1, 10, 5),
		mkSkill(3, "Flame Burst", "fire", 1, 120, 12),
	}
	slot := 1
	hp := 62 // full at level 1: 60 + 2
	uc := &game.UserCreature{
		UserEmail: testUser, SpeciesID: 1, Species: repo.species[0],
		Level: 1, CurrentHP: &hp, CurrentSP: 50, MaxSP: 50, CurrentXP: 25,
		PartyPosition: &slot,
	}
	uc.ID = 10
	repo.creatures[10] = uc
	repo.learned[10] = []game.LearnedSkill{{UserCreatureID: 10, SkillID: 1, Skill: repo.skills[0]}}
	return repo, 10
}

func newTestService(repo *mockRepo) *BattleService {
	rng := rand.New(rand.NewSource(1))
	source := questions.NewSource(fixedProvider{q: questions.Question{Question: "What is 2 + 2?", Answer: "4", Difficulty: game.DifficultyEasy}}, nil, rng)
	return NewBattleService(repo, source, 0, 3, 3, rng)
}

func TestStartBattle_EmptyParty(t *testing.T) {
	svc := newTestService(newMockRepo())
	if _, err := svc.StartBattle(testUser); !errors.Is(err, ErrEmptyParty) {
		t.Fatalf("expected ErrEmptyParty, got %v", err)
	}
}

func TestStartBattle_GeneratesWildOutsideParty(t *testing.T) {
	repo, _ := fixture(20, 40)
	svc := newTestService(repo)
	view, err := svc.StartBattle(testUser)
	if err != nil {
		t.Fatalf("start battle: %v", err)
	}
	if view.Wild.SpeciesID != 2 {
		t.Fatalf("wild must not duplicate a party species, got species %d", view.Wild.SpeciesID)
	}
	if view.Wild.Level != 3 {
		t.Fatalf("expected wild level 3, got %d", view.Wild.Level)
	}
	if view.State != string(engine.StateAwaitingPlayerAction) {
		t.Fatalf("expected player turn, got %s", view.State)
	}
	if _, err := svc.StartBattle(testUser); !errors.Is(err, ErrBattleInProgress) {
		t.Fatalf("expected ErrBattleInProgress, got %v", err)
	}
}

func TestQuestionFlow_CorrectAnswerGrantsSP(t *testing.T) {
	repo, _ := fixture(20, 40)
	svc := newTestService(repo)
	if _, err := svc.StartBattle(testUser); err != nil {
		t.Fatalf("start battle: %v", err)
	}
	// Drain SP so the reward is observable below the cap.
	bs, _ := svc.state(testUser)
	bs.session.Player.CurrentSP = 0

	q, err := svc.RequestQuestion(context.Background(), testUser, "math", game.DifficultyEasy)
	if err != nil {
		t.Fatalf("request question: %v", err)
	}
	if q.Question == "" {
		t.Fatal("expected a question")
	}

	result, err := svc.SubmitAnswer(testUser, "4")
	if err != nil {
		t.Fatalf("submit answer: %v", err)
	}
	if !result.Correct || result.SPGained != 5 || result.CurrentSP != 5 {
		t.Fatalf("expected correct answer with +5 SP, got %+v", result)
	}
	// The free action keeps the turn.
	if result.State != string(engine.StateAwaitingPlayerAction) {
		t.Fatalf("expected player turn after SP gain, got %s", result.State)
	}
}

func TestQuestionFlow_WrongAnswerCostsNothing(t *testing.T) {
	repo, _ := fixture(20, 40)
	svc := newTestService(repo)
	if _, err := svc.StartBattle(testUser); err != nil {
		t.Fatalf("start battle: %v", err)
	}
	bs, _ := svc.state(testUser)
	bs.session.Player.CurrentSP = 0

	if _, err := svc.RequestQuestion(context.Background(), testUser, "math", game.DifficultyEasy); err != nil {
		t.Fatalf("request question: %v", err)
	}
	result, err := svc.SubmitAnswer(testUser, "5")
	if err != nil {
		t.Fatalf("submit answer: %v", err)
	}
	if result.Correct || result.SPGained != 0 || result.CurrentSP != 0 {
		t.Fatalf("expected wrong answer with no SP, got %+v", result)
	}
	// The pending question is consumed either way.
	if _, err := svc.SubmitAnswer(testUser, "4"); !errors.Is(err, ErrNoPendingQuest) {
		t.Fatalf("expected ErrNoPendingQuest, got %v", err)
	}
}

func TestFlee_PersistsHPAndSPOnly(t *testing.T) {
	repo, creatureID := fixture(20, 40)
	svc := newTestService(repo)
	if _, err := svc.StartBattle(testUser); err != nil {
		t.Fatalf("start battle: %v", err)
	}
	view, err := svc.Flee(testUser)
	if err != nil {
		t.Fatalf("flee: %v", err)
	}
	if view.State != string(engine.StateFled) {
		t.Fatalf("expected fled, got %s", view.State)
	}
	if len(repo.updates) != 1 {
		t.Fatalf("expected exactly one checkpoint, got %d", len(repo.updates))
	}
	rec := repo.updates[0]
	if rec.instanceID != creatureID {
		t.Fatalf("checkpoint targeted creature %d", rec.instanceID)
	}
	if rec.updates.CurrentHP == nil || rec.updates.CurrentSP == nil {
		t.Fatal("flee checkpoint must persist HP and SP")
	}
	if rec.updates.CurrentXP != nil || rec.updates.Level != nil {
		t.Fatal("flee checkpoint must not touch XP or level")
	}
	if repo.wins[testUser] != 0 {
		t.Fatal("flee must not count a win")
	}
}

func TestVictory_AwardsXPLevelAndWin(t *testing.T) {
	repo, creatureID := fixture(20000, 10)
	svc := newTestService(repo)
	if _, err := svc.StartBattle(testUser); err != nil {
		t.Fatalf("start battle: %v", err)
	}

	view, err := svc.UseSkill(testUser, 1)
	if err != nil {
		t.Fatalf("use skill: %v", err)
	}
	if view.State != string(engine.StatePlayerVictory) {
		t.Fatalf("expected victory, got %s", view.State)
	}

	// 25 existing XP + 30 for a level-3 wild crosses the level-1 threshold of
	// 50, leaving 5.
	uc := repo.creatures[creatureID]
	if uc.Level != 2 || uc.CurrentXP != 5 {
		t.Fatalf("expected level 2 with 5 XP, got level %d with %d", uc.Level, uc.CurrentXP)
	}
	if repo.wins[testUser] != 1 {
		t.Fatalf("expected 1 win, got %d", repo.wins[testUser])
	}
	if view.PendingLevelUp == nil {
		t.Fatal("expected a pending level-up with tier-1 candidates")
	}
	// Level 2 unlocks tier 1; Flame Burst is the unlearned candidate.
	if len(view.PendingLevelUp.Candidates) != 1 || view.PendingLevelUp.Candidates[0].ID != 3 {
		t.Fatalf("unexpected candidates: %+v", view.PendingLevelUp.Candidates)
	}

	if _, err := svc.LearnSkill(testUser, 3); err != nil {
		t.Fatalf("learn skill: %v", err)
	}
	found := false
	for _, ls := range repo.learned[creatureID] {
		if ls.SkillID == 3 {
			found = true
		}
	}
	if !found {
		t.Fatal("expected learned skill to be persisted")
	}
	if _, err := svc.LearnSkill(testUser, 3); !errors.Is(err, ErrNoPendingLevelUp) {
		t.Fatalf("expected ErrNoPendingLevelUp, got %v", err)
	}
}

func TestSwitch_CheckpointsOutgoingAndCedesTempo(t *testing.T) {
	repo, _ := fixture(20, 200)
	// Second party member.
	slot := 2
	hp := 52
	second := &game.UserCreature{
		UserEmail: testUser, SpeciesID: 1, Species: repo.species[0],
		Level: 1, CurrentHP: &hp, CurrentSP: 10, MaxSP: 50,
		PartyPosition: &slot,
	}
	second.ID = 11
	repo.creatures[11] = second
	repo.learned[11] = []game.LearnedSkill{{UserCreatureID: 11, SkillID: 1, Skill: repo.skills[0]}}

	svc := newTestService(repo)
	if _, err := svc.StartBattle(testUser); err != nil {
		t.Fatalf("start battle: %v", err)
	}

	view, err := svc.Switch(testUser, 11)
	if err != nil {
		t.Fatalf("switch: %v", err)
	}
	if view.Player.InstanceID != 11 {
		t.Fatalf("expected creature 11 active, got %d", view.Player.InstanceID)
	}
	// The outgoing creature's HP/SP checkpoint lands before the swap.
	if len(repo.updates) == 0 {
		t.Fatal("expected a switch checkpoint")
	}
	rec := repo.updates[0]
	if rec.instanceID != 10 || rec.updates.CurrentHP == nil || rec.updates.CurrentSP == nil {
		t.Fatalf("unexpected checkpoint: %+v", rec)
	}
	if rec.updates.CurrentXP != nil || rec.updates.Level != nil {
		t.Fatal("switch checkpoint must not touch XP or level")
	}
	// Zero delay resolves the wild reply inline: the turn came back.
	if view.State != string(engine.StateAwaitingPlayerAction) {
		t.Fatalf("expected player turn after wild reply, got %s", view.State)
	}
}

func TestSwitch_RejectsFaintedAndBenched(t *testing.T) {
	repo, _ := fixture(20, 200)
	hp0 := 0
	slot := 2
	fainted := &game.UserCreature{UserEmail: testUser, SpeciesID: 1, Species: repo.species[0], Level: 1, CurrentHP: &hp0, MaxSP: 50, PartyPosition: &slot}
	fainted.ID = 12
	repo.creatures[12] = fainted
	hpB := 52
	benched := &game.UserCreature{UserEmail: testUser, SpeciesID: 1, Species: repo.species[0], Level: 1, CurrentHP: &hpB, MaxSP: 50}
	benched.ID = 13
	repo.creatures[13] = benched

	svc := newTestService(repo)
	if _, err := svc.StartBattle(testUser); err != nil {
		t.Fatalf("start battle: %v", err)
	}
	if _, err := svc.Switch(testUser, 12); !errors.Is(err, ErrFainted) {
		t.Fatalf("expected ErrFainted, got %v", err)
	}
	if _, err := svc.Switch(testUser, 13); !errors.Is(err, ErrNotInParty) {
		t.Fatalf("expected ErrNotInParty, got %v", err)
	}
}

func TestFlee_OwnershipFailureSurfaces(t *testing.T) {
	repo, _ := fixture(20, 40)
	svc := newTestService(repo)
	if _, err := svc.StartBattle(testUser); err != nil {
		t.Fatalf("start battle: %v", err)
	}
	repo.updateErr = storage.ErrNotOwned
	if _, err := svc.Flee(testUser); !errors.Is(err, storage.ErrNotOwned) {
		t.Fatalf("expected ErrNotOwned, got %v", err)
	}
}

func TestCatch_InsertsAtDamagedHP(t *testing.T) {
	repo, _ := fixture(20, 40)
	svc := newTestService(repo)
	if _, err := svc.StartBattle(testUser); err != nil {
		t.Fatalf("start battle: %v", err)
	}
	bs, _ := svc.state(testUser)
	// Wild max HP 46; drop below the 30% threshold.
	bs.session.Wild.CurrentHP = 10

	if _, err := svc.BeginCatch(context.Background(), testUser, "math", game.DifficultyMedium); err != nil {
		t.Fatalf("begin catch: %v", err)
	}
	result, err := svc.SubmitAnswer(testUser, "4")
	if err != nil {
		t.Fatalf("submit answer: %v", err)
	}
	if !result.Caught {
		t.Fatalf("expected catch, got %+v", result)
	}
	if len(repo.inserted) != 1 {
		t.Fatalf("expected 1 inserted creature, got %d", len(repo.inserted))
	}
	caught := repo.inserted[0]
	if caught.SpeciesID != 2 || caught.Level != 3 || *caught.CurrentHP != 10 {
		t.Fatalf("caught creature persisted wrong: %+v", caught)
	}
	if caught.CaughtMethod != "caught" {
		t.Fatalf("expected caught method, got %q", caught.CaughtMethod)
	}
}

func TestCatch_FailedAnswerPreservesState(t *testing.T) {
	repo, _ := fixture(20, 40)
	svc := newTestService(repo)
	if _, err := svc.StartBattle(testUser); err != nil {
		t.Fatalf("start battle: %v", err)
	}
	bs, _ := svc.state(testUser)
	bs.session.Wild.CurrentHP = 10

	if _, err := svc.BeginCatch(context.Background(), testUser, "math", game.DifficultyMedium); err != nil {
		t.Fatalf("begin catch: %v", err)
	}
	result, err := svc.SubmitAnswer(testUser, "wrong")
	if err != nil {
		t.Fatalf("submit answer: %v", err)
	}
	if result.Caught || result.Correct {
		t.Fatalf("expected failed catch, got %+v", result)
	}
	if result.State != string(engine.StateAwaitingPlayerAction) {
		t.Fatalf("failed catch must leave the player's turn intact, got %s", result.State)
	}
	if len(repo.inserted) != 0 {
		t.Fatal("failed catch must not insert a creature")
	}
}

func TestReapStale_CheckpointsAbandonedBattle(t *testing.T) {
	repo, creatureID := fixture(20, 40)
	svc := newTestService(repo)
	if _, err := svc.StartBattle(testUser); err != nil {
		t.Fatalf("start battle: %v", err)
	}
	bs, _ := svc.state(testUser)
	bs.lastActive = bs.lastActive.Add(-time.Hour)

	if n := svc.ReapStale(30 * time.Minute); n != 1 {
		t.Fatalf("expected 1 reaped session, got %d", n)
	}
	if _, err := svc.Snapshot(testUser); !errors.Is(err, ErrNoBattle) {
		t.Fatalf("expected session gone, got %v", err)
	}
	if len(repo.updates) != 1 || repo.updates[0].instanceID != creatureID {
		t.Fatalf("expected an abandonment checkpoint, got %+v", repo.updates)
	}
	if repo.updates[0].updates.CurrentXP != nil || repo.updates[0].updates.Level != nil {
		t.Fatal("abandonment must not award XP or levels")
	}
}

func TestReapStale_KeepsActiveBattle(t *testing.T) {
	repo, _ := fixture(20, 40)
	svc := newTestService(repo)
	if _, err := svc.StartBattle(testUser); err != nil {
		t.Fatalf("start battle: %v", err)
	}
	if n := svc.ReapStale(30 * time.Minute); n != 0 {
		t.Fatalf("expected no reaped sessions, got %d", n)
	}
	if _, err := svc.Snapshot(testUser); err != nil {
		t.Fatalf("expected session kept, got %v", err)
	}
}

func TestRequestQuestion_TopiclessDrawsFromSeededPool(t *testing.T) {
	repo, _ := fixture(20, 40)
	repo.fallback = []game.FallbackQuestion{{Question: "What is the capital of France?", Answer: "Paris", Difficulty: "easy"}}
	rng := rand.New(rand.NewSource(1))
	source := questions.NewSource(nil, repo, rng)
	svc := NewBattleService(repo, source, 0, 3, 3, rng)

	if _, err := svc.StartBattle(testUser); err != nil {
		t.Fatalf("start battle: %v", err)
	}
	q, err := svc.RequestQuestion(context.Background(), testUser, "", game.DifficultyEasy)
	if err != nil {
		t.Fatalf("request question: %v", err)
	}
	if q.Question != "What is the capital of France?" {
		t.Fatalf("expected the seeded question, got %q", q.Question)
	}
	result, err := svc.SubmitAnswer(testUser, "paris")
	if err != nil {
		t.Fatalf("submit answer: %v", err)
	}
	if !result.Correct {
		t.Fatalf("expected correct answer, got %+v", result)
	}
}

func TestFlee_FailedCheckpointLeavesBattleRetryable(t *testing.T) {
	repo, _ := fixture(20, 40)
	svc := newTestService(repo)
	if _, err := svc.StartBattle(testUser); err != nil {
		t.Fatalf("start battle: %v", err)
	}
	transient := errors.New("disk full")
	repo.updateErr = transient
	if _, err := svc.Flee(testUser); !errors.Is(err, transient) {
		t.Fatalf("expected checkpoint error, got %v", err)
	}
	view, err := svc.Snapshot(testUser)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if view.State != string(engine.StateAwaitingPlayerAction) {
		t.Fatalf("failed flee must not end the battle, got %s", view.State)
	}

	repo.updateErr = nil
	view, err = svc.Flee(testUser)
	if err != nil {
		t.Fatalf("retried flee: %v", err)
	}
	if view.State != string(engine.StateFled) {
		t.Fatalf("expected fled after retry, got %s", view.State)
	}
	if len(repo.updates) != 1 {
		t.Fatalf("expected exactly one checkpoint, got %d", len(repo.updates))
	}
}

func TestCatch_FailedCheckpointKeepsCatchRetryable(t *testing.T) {
	repo, _ := fixture(20, 40)
	svc := newTestService(repo)
	if _, err := svc.StartBattle(testUser); err != nil {
		t.Fatalf("start battle: %v", err)
	}
	bs, _ := svc.state(testUser)
	bs.session.Wild.CurrentHP = 10

	if _, err := svc.BeginCatch(context.Background(), testUser, "math", game.DifficultyMedium); err != nil {
		t.Fatalf("begin catch: %v", err)
	}
	transient := errors.New("disk full")
	repo.updateErr = transient
	if _, err := svc.SubmitAnswer(testUser, "4"); !errors.Is(err, transient) {
		t.Fatalf("expected checkpoint error, got %v", err)
	}
	if len(repo.inserted) != 0 {
		t.Fatal("failed catch persistence must not insert a creature")
	}
	view, err := svc.Snapshot(testUser)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if view.State != string(engine.StateAwaitingPlayerAction) {
		t.Fatalf("failed write must not end the battle, got %s", view.State)
	}
	if view.PendingQuestion == nil {
		t.Fatal("the catch question must stay pending for a retry")
	}

	repo.updateErr = nil
	result, err := svc.SubmitAnswer(testUser, "4")
	if err != nil {
		t.Fatalf("retried answer: %v", err)
	}
	if !result.Caught {
		t.Fatalf("expected catch on retry, got %+v", result)
	}
	if len(repo.inserted) != 1 {
		t.Fatalf("expected 1 inserted creature, got %d", len(repo.inserted))
	}
}

func TestVictory_FailedCheckpointRetriesSettlement(t *testing.T) {
	repo, creatureID := fixture(20000, 10)
	svc := newTestService(repo)
	if _, err := svc.StartBattle(testUser); err != nil {
		t.Fatalf("start battle: %v", err)
	}
	transient := errors.New("db locked")
	repo.updateErr = transient
	if _, err := svc.UseSkill(testUser, 1); !errors.Is(err, transient) {
		t.Fatalf("expected checkpoint error, got %v", err)
	}
	if repo.wins[testUser] != 0 {
		t.Fatal("a failed settlement must not count a win")
	}

	repo.updateErr = nil
	view, err := svc.UseSkill(testUser, 1)
	if err != nil {
		t.Fatalf("retried settlement: %v", err)
	}
	if view.State != string(engine.StatePlayerVictory) {
		t.Fatalf("expected victory, got %s", view.State)
	}
	// The XP award lands exactly once across the failed attempt and the retry.
	uc := repo.creatures[creatureID]
	if uc.Level != 2 || uc.CurrentXP != 5 {
		t.Fatalf("expected level 2 with 5 XP, got level %d with %d", uc.Level, uc.CurrentXP)
	}
	if repo.wins[testUser] != 1 {
		t.Fatalf("expected 1 win, got %d", repo.wins[testUser])
	}
	if view.PendingLevelUp == nil {
		t.Fatal("expected the pending level-up to survive the retry")
	}
}

func TestUseSkill_ReserveCheckFailureLeavesMoveRetryable(t *testing.T) {
	repo, _ := fixture(20, 400)
	svc := newTestService(repo)
	if _, err := svc.StartBattle(testUser); err != nil {
		t.Fatalf("start battle: %v", err)
	}
	transient := errors.New("store offline")
	repo.listPartyErr = transient
	if _, err := svc.UseSkill(testUser, 1); !errors.Is(err, transient) {
		t.Fatalf("expected reserve check error, got %v", err)
	}
	view, err := svc.Snapshot(testUser)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if view.State != string(engine.StateAwaitingPlayerAction) {
		t.Fatalf("a rejected move must leave the player's turn, got %s", view.State)
	}
	if view.Player.CurrentSP != 50 {
		t.Fatalf("a rejected move must not spend SP, got %d", view.Player.CurrentSP)
	}
	if view.Wild.CurrentHP != view.Wild.MaxHP {
		t.Fatal("a rejected move must not damage the wild creature")
	}

	repo.listPartyErr = nil
	view, err = svc.UseSkill(testUser, 1)
	if err != nil {
		t.Fatalf("retried skill: %v", err)
	}
	if view.Wild.CurrentHP >= view.Wild.MaxHP {
		t.Fatal("expected the retried skill to land")
	}
	// Zero delay resolves the wild reply inline: the turn came back.
	if view.State != string(engine.StateAwaitingPlayerAction) {
		t.Fatalf("expected player turn after wild reply, got %s", view.State)
	}
}

func TestCatch_RejectedAboveThreshold(t *testing.T) {
	repo, _ := fixture(20, 40)
	svc := newTestService(repo)
	if _, err := svc.StartBattle(testUser); err != nil {
		t.Fatalf("start battle: %v", err)
	}
	if _, err := svc.BeginCatch(context.Background(), testUser, "math", game.DifficultyMedium); !errors.Is(err, engine.ErrCatchNotEligible) {
		t.Fatalf("expected ErrCatchNotEligible, got %v", err)
	}
}
