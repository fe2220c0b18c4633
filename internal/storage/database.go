package storage

import (
	"fmt"

	"github.com/Mmohamed-56/StudyMon/internal/game"
	"github.com/Mmohamed-56/StudyMon/internal/logging"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// OpenAndMigrate opens (or creates) the sqlite database at path, runs the
// schema migration and seeds reference data from config when the tables are
// empty.
func OpenAndMigrate(path string, species []game.Species, skills []game.Skill, fallbacks []game.FallbackQuestion) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}

	if err := db.AutoMigrate(
		&game.Species{},
		&game.Skill{},
		&game.UserCreature{},
		&game.LearnedSkill{},
		&game.User{},
		&game.FallbackQuestion{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	if err := seedReferenceData(db, species, skills, fallbacks); err != nil {
		return nil, err
	}
	return db, nil
}

// seedReferenceData inserts species, skills and generic questions that are not
// yet present. Rows are matched by name so config edits take effect without
// duplicating entries; stat changes are picked up at read time via the config
// override.
func seedReferenceData(db *gorm.DB, species []game.Species, skills []game.Skill, fallbacks []game.FallbackQuestion) error {
	seeded := 0
	for _, sp := range species {
		var count int64
		if err := db.Model(&game.Species{}).Where("name = ?", sp.Name).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			continue
		}
		row := sp
		if err := db.Create(&row).Error; err != nil {
			return fmt.Errorf("failed to seed species '%s': %w", sp.Name, err)
		}
		seeded++
	}
	for _, sk := range skills {
		var count int64
		if err := db.Model(&game.Skill{}).Where("name = ?", sk.Name).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			continue
		}
		row := sk
		if err := db.Create(&row).Error; err != nil {
			return fmt.Errorf("failed to seed skill '%s': %w", sk.Name, err)
		}
		seeded++
	}
	for _, fq := range fallbacks {
		var count int64
		if err := db.Model(&game.FallbackQuestion{}).Where("question = ?", fq.Question).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			continue
		}
		row := fq
		if err := db.Create(&row).Error; err != nil {
			return fmt.Errorf("failed to seed fallback question: %w", err)
		}
		seeded++
	}
	if seeded > 0 {
		logging.Info("seeded reference data", logging.Fields{"rows": seeded})
	}
	return nil
}
