package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/Mmohamed-56/StudyMon/internal/game"
)

type speciesEntry struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	BaseHP     int    `json:"base_hp"`
	BaseAttack int    `json:"base_attack"`
	Sprite     string `json:"sprite"`
}

type skillEntry struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Type        string `json:"type"`
	SkillLevel  int    `json:"skill_level"`
	BasePower   int    `json:"base_power"`
	SPCost      int    `json:"sp_cost"`
}

type fallbackQuestionEntry struct {
	Question   string `json:"question"`
	Answer     string `json:"answer"`
	Difficulty string `json:"difficulty"`
}

type rawConfig struct {
	SpeciesList       []speciesEntry          `json:"species_list"`
	SkillList         []skillEntry            `json:"skill_list"`
	FallbackQuestions []fallbackQuestionEntry `json:"fallback_questions"`
	Server            *struct {
		Address string `json:"address"`
	} `json:"server"`
	Battle *struct {
		OpponentDelayMS int `json:"opponent_delay_ms"`
		WildLevelMin    int `json:"wild_level_min"`
		WildLevelMax    int `json:"wild_level_max"`
	} `json:"battle"`
	// Optional prompt template used to generate study questions. Tokens
	// {{count}}, {{difficulty}} and {{topic}} are substituted.
	QuestionPrompt string `json:"question_prompt"`
	// Question provider request timeout in seconds.
	ProviderTimeoutSeconds int `json:"provider_timeout_seconds"`
}

// LoadedConfig contains reference data to seed and runtime settings.
type LoadedConfig struct {
	Species           []game.Species
	Skills            []game.Skill
	FallbackQuestions []game.FallbackQuestion
	ServerAddress     string
	// OpponentDelay is the cosmetic pause before the wild side moves.
	OpponentDelay   time.Duration
	WildLevelMin    int
	WildLevelMax    int
	QuestionPrompt  string
	ProviderTimeout time.Duration
}

// LoadConfig reads the configuration file at path. It requires non-empty
// `species_list` and `skill_list` arrays and validates cross-references
// (types must be valid, every species type must have a tier-1 skill so a
// fresh creature can always act).
func LoadConfig(path string) (*LoadedConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	var rc rawConfig
	if err := json.Unmarshal(b, &rc); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if len(rc.SpeciesList) == 0 {
		return nil, fmt.Errorf("config file %s: species_list is empty", path)
	}
	if len(rc.SkillList) == 0 {
		return nil, fmt.Errorf("config file %s: skill_list is empty", path)
	}

	species := make([]game.Species, 0, len(rc.SpeciesList))
	nameSet := make(map[string]struct{}, len(rc.SpeciesList))
	for _, e := range rc.SpeciesList {
		if e.Name == "" {
			return nil, fmt.Errorf("config file %s: species entry missing 'name'", path)
		}
		t, err := game.ParseType(e.Type)
		if err != nil {
			return nil, fmt.Errorf("config file %s: species '%s': %w", path, e.Name, err)
		}
		ln := strings.ToLower(strings.TrimSpace(e.Name))
		if _, exists := nameSet[ln]; exists {
			return nil, fmt.Errorf("config file %s: duplicate species name '%s'", path, e.Name)
		}
		nameSet[ln] = struct{}{}
		if e.BaseHP <= 0 || e.BaseAttack <= 0 {
			return nil, fmt.Errorf("config file %s: species '%s' needs positive base_hp and base_attack", path, e.Name)
		}
		species = append(species, game.Species{
			Name:       e.Name,
			Type:       string(t),
			BaseHP:     e.BaseHP,
			BaseAttack: e.BaseAttack,
			Sprite:     e.Sprite,
		})
	}

	skills := make([]game.Skill, 0, len(rc.SkillList))
	skillNames := make(map[string]struct{}, len(rc.SkillList))
	tier1ByType := make(map[string]bool)
	for _, e := range rc.SkillList {
		if e.Name == "" {
			return nil, fmt.Errorf("config file %s: skill entry missing 'name'", path)
		}
		t, err := game.ParseType(e.Type)
		if err != nil {
			return nil, fmt.Errorf("config file %s: skill '%s': %w", path, e.Name, err)
		}
		if e.SkillLevel < 1 || e.SkillLevel > 4 {
			return nil, fmt.Errorf("config file %s: skill '%s' skill_level must be 1..4", path, e.Name)
		}
		if e.BasePower <= 0 {
			return nil, fmt.Errorf("config file %s: skill '%s' needs positive base_power", path, e.Name)
		}
		if e.SPCost < 0 {
			return nil, fmt.Errorf("config file %s: skill '%s' sp_cost cannot be negative", path, e.Name)
		}
		ln := strings.ToLower(strings.TrimSpace(e.Name))
		if _, exists := skillNames[ln]; exists {
			return nil, fmt.Errorf("config file %s: duplicate skill name '%s'", path, e.Name)
		}
		skillNames[ln] = struct{}{}
		if e.SkillLevel == 1 {
			tier1ByType[string(t)] = true
		}
		skills = append(skills, game.Skill{
			Name:        e.Name,
			Description: e.Description,
			Type:        string(t),
			SkillLevel:  e.SkillLevel,
			BasePower:   e.BasePower,
			SPCost:      e.SPCost,
		})
	}

	// Every species type needs a tier-1 skill: a creature with no learned
	// skills is granted one at battle load.
	for _, sp := range species {
		if !tier1ByType[sp.Type] {
			return nil, fmt.Errorf("config file %s: type '%s' has no tier-1 skill (species '%s' could never act)", path, sp.Type, sp.Name)
		}
	}

	fallbacks := make([]game.FallbackQuestion, 0, len(rc.FallbackQuestions))
	for _, e := range rc.FallbackQuestions {
		if e.Question == "" || e.Answer == "" {
			return nil, fmt.Errorf("config file %s: fallback question entries need 'question' and 'answer'", path)
		}
		d, err := game.ParseDifficulty(e.Difficulty)
		if err != nil {
			return nil, fmt.Errorf("config file %s: fallback question %q: %w", path, e.Question, err)
		}
		fallbacks = append(fallbacks, game.FallbackQuestion{Question: e.Question, Answer: e.Answer, Difficulty: string(d)})
	}

	addr := ":8080"
	if rc.Server != nil && rc.Server.Address != "" {
		addr = rc.Server.Address
	}

	opponentDelay := 1500 * time.Millisecond
	wildMin, wildMax := 3, 5
	if rc.Battle != nil {
		if rc.Battle.OpponentDelayMS >= 0 {
			opponentDelay = time.Duration(rc.Battle.OpponentDelayMS) * time.Millisecond
		}
		if rc.Battle.WildLevelMin > 0 {
			wildMin = rc.Battle.WildLevelMin
		}
		if rc.Battle.WildLevelMax > 0 {
			wildMax = rc.Battle.WildLevelMax
		}
	}
	if wildMax < wildMin {
		return nil, fmt.Errorf("config file %s: battle.wild_level_max below wild_level_min", path)
	}

	providerTimeout := 30 * time.Second
	if rc.ProviderTimeoutSeconds > 0 {
		providerTimeout = time.Duration(rc.ProviderTimeoutSeconds) * time.Second
	}

	return &LoadedConfig{
		Species:           species,
		Skills:            skills,
		FallbackQuestions: fallbacks,
		ServerAddress:     addr,
		OpponentDelay:     opponentDelay,
		WildLevelMin:      wildMin,
		WildLevelMax:      wildMax,
		QuestionPrompt:    strings.TrimSpace(rc.QuestionPrompt),
		ProviderTimeout:   providerTimeout,
	}, nil
}
