package main

import (
	"flag"
	"log"

	"github.com/atenciaj/Vib-Test/internal/config"
	"github.com/atenciaj/Vib-Test/internal/database"
	"github.com/atenciaj/Vib-Test/internal/handlers"
	"github.com/atenciaj/Vib-Test/internal/questionbank"
	"github.com/atenciaj/Vib-Test/internal/services"
	"github.com/atenciaj/Vib-Test/internal/store"
	"github.com/atenciaj/Vib-Test/internal/ws"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func main() {
	configPath := flag.String("config", "", "Path to a config file (defaults to configs/config.yaml)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	var db *gorm.DB
	if cfg.UsesPostgres() {
		db, err = database.Connect(cfg)
		if err != nil {
			log.Fatalf("%v", err)
		}
		if err := database.AutoMigrate(db); err != nil {
			log.Fatalf("%v", err)
		}
	}

	var resultStore services.ResultStore
	switch cfg.ResultsBackend {
	case "postgres":
		resultStore = store.NewGormStore(db, cfg.ResultsKey)
	case "memory":
		resultStore = store.NewMemoryStore()
	default:
		resultStore = store.NewFileStore(cfg.ResultsFile)
	}

	var bank services.QuestionBank
	var importer handlers.QuestionImporter
	switch cfg.BankSource {
	case "postgres":
		gormBank := questionbank.NewGormBank(db)
		bank, importer = gormBank, gormBank
	case "http":
		bank = questionbank.NewHTTPBank(cfg.BankBaseURL, cfg.BankFetchTimeout)
	default:
		bank = questionbank.NewFileBank(cfg.BankDir)
	}
	log.Printf("question bank: %s, results: %s", cfg.BankSource, cfg.ResultsBackend)

	hub := ws.NewHub()

	authService := services.NewAuthService(cfg.AdminUsername, cfg.AdminPasswordHash, cfg.JWTSecret)
	historyService := services.NewHistoryService(resultStore)
	examManager := services.NewExamManager(bank, resultStore, services.SessionOptions{
		FetchTimeout:  cfg.BankFetchTimeout,
		StrictAnswers: cfg.StrictAnswers,
		Scoring:       services.NewScoringService(),
	})

	h := handlers.Handlers{
		Auth:      handlers.NewAuthHandler(authService),
		Exam:      handlers.NewExamHandler(examManager, hub, cfg.TimerTick),
		Results:   handlers.NewResultsHandler(historyService),
		Questions: handlers.NewQuestionHandler(importer),
		WS:        handlers.NewWSHandler(hub, examManager),
	}

	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: !containsWildcard(cfg.AllowedOrigins),
	}))

	handlers.RegisterRoutes(r, h, authService)

	log.Printf("server starting on :%s", cfg.ServerPort)
	if err := r.Run(":" + cfg.ServerPort); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}

func containsWildcard(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}
