package main

import (
	"math/rand"
	"os"
	"time"

	"github.com/Mmohamed-56/StudyMon/internal/api"
	"github.com/Mmohamed-56/StudyMon/internal/constants"
	"github.com/Mmohamed-56/StudyMon/internal/logging"
	"github.com/Mmohamed-56/StudyMon/internal/questions"
	"github.com/Mmohamed-56/StudyMon/internal/service"
	"github.com/Mmohamed-56/StudyMon/internal/version"

	"github.com/gin-gonic/gin"
)

func main() {
	// Configuration path may be provided via STUDYMON_CONFIG or defaults to
	// ./studymon_config.json in the current working directory.
	configPath := os.Getenv(constants.EnvConfigPath)
	if configPath == "" {
		configPath = "./studymon_config.json"
	}
	cfg := loadConfigOrExit(configPath)
	applyPromptTemplates(cfg)

	// Allow the DB path to be configured via STUDYMON_DB. Default to a
	// `data/` directory inside the module for local development.
	dbPath := os.Getenv(constants.EnvDBPath)
	if dbPath == "" {
		dbPath = "./data/studymon.db"
	}
	repo := createRepositoryOrExit(dbPath, cfg)

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	// Question provider chain: the AI provider is optional, the seeded pool
	// and built-in bank keep battles playable offline.
	var ai questions.Provider
	if os.Getenv(constants.EnvAnthropicAPIKey) != "" {
		ai = questions.NewAIProvider(cfg.ProviderTimeout)
	} else {
		logging.Warn("ANTHROPIC_API_KEY not set; questions come from the built-in bank", nil)
	}
	source := questions.NewSource(ai, repo, rng)

	battles := service.NewBattleService(repo, source, cfg.OpponentDelay, cfg.WildLevelMin, cfg.WildLevelMax, rng)
	collection := service.NewCollectionService(repo)

	// Background reaper: abandoned battles are checkpointed and dropped so a
	// closed browser never pins a session forever.
	go func() {
		ticker := time.NewTicker(1 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			if n := battles.ReapStale(30 * time.Minute); n > 0 {
				logging.Info("reaped stale battles", logging.Fields{"count": n})
			}
		}
	}()

	battleHandler := api.NewBattleHandler(battles)
	collectionHandler := api.NewCollectionHandler(collection)
	authHandler := api.NewAuthHandler(repo)

	router := gin.Default()

	apiRoutes := router.Group(constants.RouteAPIPrefix)
	{
		// Public endpoints
		apiRoutes.GET(constants.RouteVersion, api.Version)
		apiRoutes.GET(constants.RouteSpecies, collectionHandler.ListSpecies)

		// Authenticated endpoints
		protected := apiRoutes.Group("")
		protected.Use(api.AuthRequired())

		protected.GET(constants.RoutePlayerStats, collectionHandler.GetPlayerStats)
		protected.GET(constants.RouteCollection, collectionHandler.ListCollection)
		protected.PUT(constants.RoutePartyPosition, collectionHandler.SetPartyPosition)
		protected.POST(constants.RouteHealAll, collectionHandler.HealAll)
		protected.POST(constants.RouteStarter, collectionHandler.GrantStarter)

		protected.POST(constants.RouteBattle, battleHandler.StartBattle)
		protected.GET(constants.RouteBattle, battleHandler.GetBattle)
		protected.POST(constants.RouteBattleQuestion, battleHandler.RequestQuestion)
		protected.POST(constants.RouteBattleAnswer, battleHandler.SubmitAnswer)
		protected.POST(constants.RouteBattleSkill, battleHandler.UseSkill)
		protected.POST(constants.RouteBattleSwitch, battleHandler.Switch)
		protected.POST(constants.RouteBattleCatch, battleHandler.Catch)
		protected.POST(constants.RouteBattleFlee, battleHandler.Flee)
		protected.POST(constants.RouteBattleLearnSkill, battleHandler.LearnSkill)
	}

	router.POST(constants.RouteAuthGoogleCallBack, authHandler.GoogleOAuthCallback)

	addr := cfg.ServerAddress
	logging.Info("Server started", logging.Fields{constants.LogFieldAddr: addr, "build": version.String()})
	if err := router.Run(addr); err != nil {
		logging.Fatal("Failed to start server", err, nil)
	}
}
