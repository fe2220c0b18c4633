package main

import (
	"github.com/Mmohamed-56/StudyMon/internal/config"
	"github.com/Mmohamed-56/StudyMon/internal/logging"
	"github.com/Mmohamed-56/StudyMon/internal/questions"
	"github.com/Mmohamed-56/StudyMon/internal/service"
	"github.com/Mmohamed-56/StudyMon/internal/storage"
)

func loadConfigOrExit(path string) *config.LoadedConfig {
	cfg, err := config.LoadConfig(path)
	if err != nil {
		logging.Fatal("Missing or invalid StudyMon configuration", err, logging.Fields{"config_path": path})
	}
	return cfg
}

func createRepositoryOrExit(dbPath string, cfg *config.LoadedConfig) service.Repository {
	db, err := storage.OpenAndMigrate(dbPath, cfg.Species, cfg.Skills, cfg.FallbackQuestions)
	if err != nil {
		logging.Fatal("Failed to initialize database", err, nil)
	}
	return storage.NewSQLiteRepository(db, cfg.Species)
}

func applyPromptTemplates(cfg *config.LoadedConfig) {
	if cfg == nil {
		return
	}
	if cfg.QuestionPrompt != "" {
		questions.SetQuestionPromptTemplate(cfg.QuestionPrompt)
	}
}
