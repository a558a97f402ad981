package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/atenciaj/Vib-Test/internal/config"
	"github.com/atenciaj/Vib-Test/internal/database"
	"github.com/atenciaj/Vib-Test/internal/models"
	"github.com/atenciaj/Vib-Test/internal/questionbank"
)

// importer loads the per-category question files into the database bank.
func main() {
	configPath := flag.String("config", "", "Path to a config file (defaults to configs/config.yaml)")
	dir := flag.String("dir", "", "Directory holding cat_i.json ... cat_iv.json (defaults to bank_dir)")
	only := flag.String("category", "", "Import a single category, e.g. \"Category II\"")
	dryRun := flag.Bool("dry-run", false, "Validate the files without writing to the database")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	sourceDir := *dir
	if sourceDir == "" {
		sourceDir = cfg.BankDir
	}

	categories := models.AllCategories
	if *only != "" {
		cat, err := models.ParseCategory(*only)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		categories = []models.Category{cat}
	}

	ctx := context.Background()
	files := questionbank.NewFileBank(sourceDir)

	loaded, err := loadBanks(ctx, files, categories, *only != "")
	if err != nil {
		log.Fatalf("%v", err)
	}

	if *dryRun {
		log.Println("import: dry run, nothing written")
		return
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("%v", err)
	}

	bank := questionbank.NewGormBank(db)
	total := 0
	for _, cat := range categories {
		questions, ok := loaded[cat]
		if !ok {
			continue
		}
		n, err := bank.Import(ctx, cat, questions)
		if err != nil {
			log.Fatalf("%v", err)
		}
		total += n
	}
	log.Printf("import: %d questions written", total)
}

type bankReader interface {
	FetchQuestionsForCategory(ctx context.Context, category models.Category) ([]models.Question, error)
}

// loadBanks reads every category from src. A category without a bank file is
// skipped unless it was requested explicitly.
func loadBanks(ctx context.Context, src bankReader, categories []models.Category, explicit bool) (map[models.Category][]models.Question, error) {
	loaded := make(map[models.Category][]models.Question)
	for _, cat := range categories {
		questions, err := src.FetchQuestionsForCategory(ctx, cat)
		if errors.Is(err, os.ErrNotExist) && !explicit {
			log.Printf("import: %s: no bank file, skipped", cat)
			continue
		}
		if err != nil {
			return nil, err
		}
		loaded[cat] = questions
		log.Printf("import: %s: %d questions", cat, len(questions))
	}
	if len(loaded) == 0 {
		return nil, errors.New("no bank files found")
	}
	return loaded, nil
}
