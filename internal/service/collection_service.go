package service

import (
	"strings"

	"github.com/Mmohamed-56/StudyMon/internal/constants"
	"github.com/Mmohamed-56/StudyMon/internal/game"
	"github.com/Mmohamed-56/StudyMon/internal/logging"
)

// MaxPartySize caps how many creatures fight in rotation.
const MaxPartySize = 4

// CollectionService covers everything outside an active battle: the owned
// collection, party composition, healing and the starter grant.
type CollectionService struct {
	repo Repository
}

func NewCollectionService(repo Repository) *CollectionService {
	return &CollectionService{repo: repo}
}

// CreatureSummary is one collection entry with derived stats resolved.
type CreatureSummary struct {
	ID            uint   `json:"id"`
	SpeciesID     uint   `json:"species_id"`
	Name          string `json:"name"`
	Sprite        string `json:"sprite,omitempty"`
	Type          string `json:"type"`
	Level         int    `json:"level"`
	MaxHP         int    `json:"max_hp"`
	CurrentHP     int    `json:"current_hp"`
	MaxSP         int    `json:"max_sp"`
	CurrentSP     int    `json:"current_sp"`
	CurrentXP     int    `json:"current_xp"`
	XPToNextLevel int    `json:"xp_to_next_level"`
	PartyPosition *int   `json:"party_position"`
	CaughtMethod  string `json:"caught_method,omitempty"`
}

func summarize(uc game.UserCreature) CreatureSummary {
	maxHP := game.MaxHP(uc.Species.BaseHP, uc.Level)
	hp := maxHP
	if uc.CurrentHP != nil {
		hp = *uc.CurrentHP
	}
	maxSP := uc.MaxSP
	if maxSP <= 0 {
		maxSP = game.DefaultMaxSP
	}
	return CreatureSummary{
		ID:            uc.ID,
		SpeciesID:     uc.SpeciesID,
		Name:          uc.Species.Name,
		Sprite:        uc.Species.Sprite,
		Type:          uc.Species.Type,
		Level:         uc.Level,
		MaxHP:         maxHP,
		CurrentHP:     hp,
		MaxSP:         maxSP,
		CurrentSP:     uc.CurrentSP,
		CurrentXP:     uc.CurrentXP,
		XPToNextLevel: game.XPToLevel(uc.Level),
		PartyPosition: uc.PartyPosition,
		CaughtMethod:  uc.CaughtMethod,
	}
}

// ListCollection returns every creature the user owns.
func (s *CollectionService) ListCollection(userEmail string) ([]CreatureSummary, error) {
	owned, err := s.repo.ListCollection(userEmail)
	if err != nil {
		return nil, err
	}
	out := make([]CreatureSummary, 0, len(owned))
	for _, uc := range owned {
		out = append(out, summarize(uc))
	}
	return out, nil
}

// SetPartyPosition moves a creature into the party slot (1..MaxPartySize) or
// benches it when position is nil. Ownership is enforced by the repository.
func (s *CollectionService) SetPartyPosition(userEmail string, instanceID uint, position *int) error {
	if position != nil && (*position < 1 || *position > MaxPartySize) {
		return ErrNotInParty
	}
	return s.repo.SetPartyPosition(instanceID, userEmail, position)
}

// HealAll restores the whole collection to full HP and SP.
func (s *CollectionService) HealAll(userEmail string) error {
	if err := s.repo.HealParty(userEmail); err != nil {
		return err
	}
	logging.Info("party healed", logging.Fields{constants.LogFieldUser: userEmail})
	return nil
}

// starterLevel gives new players a head start against level 3-5 wilds.
const starterLevel = 5

// GrantStarter gives a new player their first creature, placed in party
// slot 1. A player who already owns a creature cannot claim another.
func (s *CollectionService) GrantStarter(userEmail, speciesName string) (*CreatureSummary, error) {
	owned, err := s.repo.ListCollection(userEmail)
	if err != nil {
		return nil, err
	}
	if len(owned) > 0 {
		return nil, ErrStarterOwned
	}

	species, err := s.repo.GetSpecies()
	if err != nil {
		return nil, err
	}
	var chosen *game.Species
	for i := range species {
		if strings.EqualFold(species[i].Name, speciesName) {
			chosen = &species[i]
			break
		}
	}
	if chosen == nil {
		return nil, ErrSpeciesNotFound
	}

	id, err := s.repo.InsertCreature(userEmail, chosen.ID, starterLevel, game.MaxHP(chosen.BaseHP, starterLevel), "starter")
	if err != nil {
		return nil, err
	}
	slot := 1
	if err := s.repo.SetPartyPosition(id, userEmail, &slot); err != nil {
		return nil, err
	}

	uc, err := s.repo.GetCreature(id, userEmail)
	if err != nil {
		return nil, err
	}
	logging.Info("starter granted", logging.Fields{
		constants.LogFieldUser:    userEmail,
		constants.LogFieldSpecies: chosen.Name,
	})
	summary := summarize(*uc)
	return &summary, nil
}

// PlayerStats aggregates trainer profile numbers.
type PlayerStats struct {
	Email          string `json:"email"`
	DisplayName    string `json:"display_name"`
	BattlesWon     int    `json:"battles_won"`
	CreaturesOwned int    `json:"creatures_owned"`
	HighestLevel   int    `json:"highest_level"`
}

// Stats returns the trainer profile with collection aggregates.
func (s *CollectionService) Stats(userEmail string) (*PlayerStats, error) {
	u, err := s.repo.GetStatsByEmail(userEmail)
	if err != nil {
		return nil, err
	}
	owned, err := s.repo.ListCollection(userEmail)
	if err != nil {
		return nil, err
	}
	stats := &PlayerStats{
		Email:          u.Email,
		DisplayName:    u.DisplayName,
		BattlesWon:     u.BattlesWon,
		CreaturesOwned: len(owned),
	}
	for _, uc := range owned {
		if uc.Level > stats.HighestLevel {
			stats.HighestLevel = uc.Level
		}
	}
	return stats, nil
}

// SpeciesCatalog returns the full species reference list.
func (s *CollectionService) SpeciesCatalog() ([]game.Species, error) {
	return s.repo.GetSpecies()
}
