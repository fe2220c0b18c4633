package service

import (
	"github.com/Mmohamed-56/StudyMon/internal/engine"
	"github.com/Mmohamed-56/StudyMon/internal/game"
)

// SkillView is one equipped skill as presented to the client. RemainingUses
// is nil for unlimited skills.
type SkillView struct {
	ID            uint   `json:"id"`
	Name          string `json:"name"`
	Description   string `json:"description,omitempty"`
	Type          string `json:"type"`
	SkillLevel    int    `json:"skill_level"`
	BasePower     int    `json:"base_power"`
	SPCost        int    `json:"sp_cost"`
	RemainingUses *int   `json:"remaining_uses,omitempty"`
}

// CombatantView is the client projection of one side of the battle.
type CombatantView struct {
	InstanceID uint        `json:"instance_id,omitempty"`
	SpeciesID  uint        `json:"species_id"`
	Name       string      `json:"name"`
	Sprite     string      `json:"sprite,omitempty"`
	Type       string      `json:"type"`
	Level      int         `json:"level"`
	MaxHP      int         `json:"max_hp"`
	CurrentHP  int         `json:"current_hp"`
	MaxSP      int         `json:"max_sp"`
	CurrentSP  int         `json:"current_sp"`
	CurrentXP  int         `json:"current_xp"`
	Skills     []SkillView `json:"skills"`
}

// QuestionView is a pending question with its answer withheld.
type QuestionView struct {
	Question    string `json:"question"`
	Difficulty  string `json:"difficulty"`
	Purpose     string `json:"purpose"`
	Placeholder bool   `json:"placeholder,omitempty"`
}

// LevelUpView reports a pending level-up and the skills the player may learn.
// At most one candidate can be learned per level-up.
type LevelUpView struct {
	NewLevel   int         `json:"new_level"`
	Candidates []SkillView `json:"candidates"`
}

// BattleView is the full battle snapshot returned by the battle endpoints.
type BattleView struct {
	State           string        `json:"state"`
	Log             []string      `json:"log"`
	Player          CombatantView `json:"player"`
	Wild            CombatantView `json:"wild"`
	CatchEligible   bool          `json:"catch_eligible"`
	PendingQuestion *QuestionView `json:"pending_question,omitempty"`
	PendingLevelUp  *LevelUpView  `json:"pending_level_up,omitempty"`
}

// AnswerResult reports the outcome of a submitted answer.
type AnswerResult struct {
	Correct       bool   `json:"correct"`
	CorrectAnswer string `json:"correct_answer"`
	SPGained      int    `json:"sp_gained,omitempty"`
	CurrentSP     int    `json:"current_sp"`
	Caught        bool   `json:"caught,omitempty"`
	State         string `json:"state"`
}

func skillView(sk game.Skill, remaining *int) SkillView {
	return SkillView{
		ID:            sk.ID,
		Name:          sk.Name,
		Description:   sk.Description,
		Type:          sk.Type,
		SkillLevel:    sk.SkillLevel,
		BasePower:     sk.BasePower,
		SPCost:        sk.SPCost,
		RemainingUses: remaining,
	}
}

func combatantView(c *engine.Combatant, uses map[uint]int) CombatantView {
	skills := make([]SkillView, 0, len(c.Skills))
	for _, sk := range c.Skills {
		var remaining *int
		if uses != nil {
			if n, limited := uses[sk.ID]; limited {
				r := n
				remaining = &r
			}
		}
		skills = append(skills, skillView(sk, remaining))
	}
	return CombatantView{
		InstanceID: c.InstanceID,
		SpeciesID:  c.SpeciesID,
		Name:       c.Name,
		Sprite:     c.Sprite,
		Type:       string(c.Type),
		Level:      c.Level,
		MaxHP:      c.MaxHP,
		CurrentHP:  c.CurrentHP,
		MaxSP:      c.MaxSP,
		CurrentSP:  c.CurrentSP,
		CurrentXP:  c.CurrentXP,
		Skills:     skills,
	}
}
