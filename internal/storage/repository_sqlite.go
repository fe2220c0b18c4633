package storage

import (
	"errors"
	"strings"
	"time"

	"github.com/Mmohamed-56/StudyMon/internal/game"
	"gorm.io/gorm"
)

type sqliteRepository struct {
	db *gorm.DB
	// configByName maps lowercase species name -> config definition (stats).
	configByName map[string]game.Species
}

func NewSQLiteRepository(db *gorm.DB, configSpecies []game.Species) Repository {
	m := make(map[string]game.Species, len(configSpecies))
	for _, sp := range configSpecies {
		m[strings.ToLower(sp.Name)] = sp
	}
	return &sqliteRepository{db: db, configByName: m}
}

// applyConfig overrides stats from config when available (config is the
// source of truth; the DB row only anchors the ID).
func (r *sqliteRepository) applyConfig(sp *game.Species) {
	if conf, ok := r.configByName[strings.ToLower(sp.Name)]; ok {
		sp.Type = conf.Type
		sp.BaseHP = conf.BaseHP
		sp.BaseAttack = conf.BaseAttack
		sp.Sprite = conf.Sprite
	}
}

func (r *sqliteRepository) GetSpecies() ([]game.Species, error) {
	var species []game.Species
	if err := r.db.Find(&species).Error; err != nil {
		return nil, err
	}
	for i := range species {
		r.applyConfig(&species[i])
	}
	return species, nil
}

func (r *sqliteRepository) GetSpeciesByID(id uint) (*game.Species, error) {
	var sp game.Species
	if err := r.db.First(&sp, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	r.applyConfig(&sp)
	return &sp, nil
}

func (r *sqliteRepository) SkillsByType(creatureType string) ([]game.Skill, error) {
	var skills []game.Skill
	if err := r.db.Where("type = ?", strings.ToLower(creatureType)).Order("skill_level, id").Find(&skills).Error; err != nil {
		return nil, err
	}
	return skills, nil
}

func (r *sqliteRepository) SkillByTypeAndTier(creatureType string, tier int) (*game.Skill, error) {
	var sk game.Skill
	err := r.db.Where("type = ? AND skill_level = ?", strings.ToLower(creatureType), tier).Order("id").First(&sk).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &sk, nil
}

func (r *sqliteRepository) GetCreature(instanceID uint, userEmail string) (*game.UserCreature, error) {
	var uc game.UserCreature
	err := r.db.Preload("Species").Where("id = ? AND user_email = ?", instanceID, userEmail).First(&uc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	r.applyConfig(&uc.Species)
	return &uc, nil
}

func (r *sqliteRepository) ListCollection(userEmail string) ([]game.UserCreature, error) {
	var out []game.UserCreature
	if err := r.db.Preload("Species").Where("user_email = ?", userEmail).Order("created_at").Find(&out).Error; err != nil {
		return nil, err
	}
	for i := range out {
		r.applyConfig(&out[i].Species)
	}
	return out, nil
}

func (r *sqliteRepository) ListParty(userEmail string) ([]game.UserCreature, error) {
	var out []game.UserCreature
	err := r.db.Preload("Species").
		Where("user_email = ? AND party_position IS NOT NULL", userEmail).
		Order("party_position").Find(&out).Error
	if err != nil {
		return nil, err
	}
	for i := range out {
		r.applyConfig(&out[i].Species)
	}
	return out, nil
}

// UpdateCreature applies a partial update scoped to the owning user. The
// ownership check runs inside the same transaction as the write so a
// non-owner can never mutate the row.
func (r *sqliteRepository) UpdateCreature(instanceID uint, userEmail string, updates CreatureUpdate) error {
	fields := map[string]interface{}{}
	if updates.CurrentHP != nil {
		fields["current_hp"] = *updates.CurrentHP
	}
	if updates.CurrentSP != nil {
		fields["current_sp"] = *updates.CurrentSP
	}
	if updates.CurrentXP != nil {
		fields["current_xp"] = *updates.CurrentXP
	}
	if updates.Level != nil {
		fields["level"] = *updates.Level
	}
	if len(fields) == 0 {
		return nil
	}
	return r.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&game.UserCreature{}).
			Where("id = ? AND user_email = ?", instanceID, userEmail).
			Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrNotOwned
		}
		return tx.Model(&game.UserCreature{}).
			Where("id = ? AND user_email = ?", instanceID, userEmail).
			Updates(fields).Error
	})
}

func (r *sqliteRepository) InsertCreature(userEmail string, speciesID uint, level, currentHP int, caughtMethod string) (uint, error) {
	uc := game.UserCreature{
		UserEmail:    userEmail,
		SpeciesID:    speciesID,
		Level:        level,
		CurrentHP:    &currentHP,
		CurrentSP:    0,
		MaxSP:        game.DefaultMaxSP,
		CaughtMethod: caughtMethod,
		CaughtAt:     time.Now(),
	}
	if err := r.db.Create(&uc).Error; err != nil {
		return 0, err
	}
	return uc.ID, nil
}

func (r *sqliteRepository) SetPartyPosition(instanceID uint, userEmail string, position *int) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&game.UserCreature{}).
			Where("id = ? AND user_email = ?", instanceID, userEmail).
			Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrNotOwned
		}
		if position != nil {
			// A slot may hold only one creature; bench any previous holder.
			if err := tx.Model(&game.UserCreature{}).
				Where("user_email = ? AND party_position = ? AND id != ?", userEmail, *position, instanceID).
				Update("party_position", nil).Error; err != nil {
				return err
			}
		}
		return tx.Model(&game.UserCreature{}).
			Where("id = ? AND user_email = ?", instanceID, userEmail).
			Update("party_position", position).Error
	})
}

// HealParty restores every creature the user owns to full HP and SP.
func (r *sqliteRepository) HealParty(userEmail string) error {
	var owned []game.UserCreature
	if err := r.db.Preload("Species").Where("user_email = ?", userEmail).Find(&owned).Error; err != nil {
		return err
	}
	return r.db.Transaction(func(tx *gorm.DB) error {
		for i := range owned {
			r.applyConfig(&owned[i].Species)
			maxHP := game.MaxHP(owned[i].Species.BaseHP, owned[i].Level)
			maxSP := owned[i].MaxSP
			if maxSP <= 0 {
				maxSP = game.DefaultMaxSP
			}
			if err := tx.Model(&game.UserCreature{}).
				Where("id = ?", owned[i].ID).
				Updates(map[string]interface{}{"current_hp": maxHP, "current_sp": maxSP}).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *sqliteRepository) ListLearnedSkills(instanceID uint) ([]game.LearnedSkill, error) {
	var out []game.LearnedSkill
	if err := r.db.Preload("Skill").Where("user_creature_id = ?", instanceID).Order("created_at").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *sqliteRepository) InsertLearnedSkill(instanceID uint, skillID uint, learnedAtLevel int) error {
	ls := game.LearnedSkill{UserCreatureID: instanceID, SkillID: skillID, LearnedAtLevel: learnedAtLevel}
	return r.db.Create(&ls).Error
}

func (r *sqliteRepository) UpsertUser(email, name string) error {
	var u game.User
	if err := r.db.Where("email = ?", email).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			u = game.User{Email: email, DisplayName: name}
		} else {
			return err
		}
	}
	u.DisplayName = name
	return r.db.Save(&u).Error
}

func (r *sqliteRepository) GetStatsByEmail(email string) (*game.User, error) {
	var u game.User
	if err := r.db.Where("email = ?", email).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &game.User{Email: email}, nil
		}
		return nil, err
	}
	return &u, nil
}

func (r *sqliteRepository) IncrementWinCounter(userEmail string) error {
	return r.db.Model(&game.User{}).
		Where("email = ?", userEmail).
		Update("battles_won", gorm.Expr("battles_won + 1")).Error
}

func (r *sqliteRepository) ListFallbackQuestions(difficulty string) ([]game.FallbackQuestion, error) {
	var out []game.FallbackQuestion
	if err := r.db.Where("difficulty = ?", strings.ToLower(difficulty)).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
