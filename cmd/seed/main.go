package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"promptvault/internal/config"
	"promptvault/internal/metrics"
	"promptvault/internal/repository"
	"promptvault/internal/seed"
	"promptvault/internal/service/versioning"
)

func main() {
	dropTables := flag.Bool("drop-tables", false, "Drop all tables before seeding (fresh start, postgres only)")
	schemaOnly := flag.Bool("schema-only", false, "Only set up schema, don't seed documents")
	clearData := flag.Bool("clear-data", false, "Delete all documents and versions (keep schema) and exit")
	fixturePath := flag.String("fixture", "", "YAML fixture to load (defaults to the bundled fixture)")
	concurrency := flag.Int("concurrency", 4, "Documents seeded in parallel")
	flag.Parse()

	_ = godotenv.Load()

	cfg := config.Load()
	cfg.AutoMigrate = true
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// SAFETY: Prevent destructive operations in production
	if cfg.Environment == "prod" && (*dropTables || *clearData) {
		log.Fatalf("BLOCKED: Cannot run destructive operations (--drop-tables or --clear-data) in production environment")
	}

	logger, closeLog, err := config.NewLogger(cfg, "seed")
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	defer closeLog()

	logger.Info("seeding",
		"environment", cfg.Environment,
		"storage_driver", cfg.StorageDriver,
		"table_prefix", cfg.TablePrefix,
	)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	storage, err := repository.Open(ctx, cfg, repository.Options{DropSchema: *dropTables}, logger)
	if err != nil {
		log.Fatalf("Failed to open storage: %v", err)
	}
	defer storage.Close()

	if *schemaOnly {
		logger.Info("schema setup complete (schema-only mode)")
		return
	}

	if *clearData {
		if err := storage.Reset(ctx); err != nil {
			log.Fatalf("Failed to clear data: %v", err)
		}
		logger.Info("data cleared")
		return
	}

	fixture, err := loadFixture(*fixturePath)
	if err != nil {
		log.Fatalf("Failed to load fixture: %v", err)
	}

	m := metrics.New(prometheus.NewRegistry())
	versionManager := versioning.NewVersionManager(
		storage.Documents,
		storage.Versions,
		storage.TxManager,
		versioning.NewLineDiffer(cfg.DiffMaxLines),
		m,
		logger,
	)
	docService := versioning.NewDocumentService(storage.Documents, storage.TxManager, versionManager, logger)

	res, err := seed.NewSeeder(docService, *concurrency, logger).Run(ctx, fixture)
	if err != nil {
		log.Fatalf("Seeding failed after %d documents: %v", res.Documents, err)
	}

	logger.Info("seeding complete", "documents", res.Documents, "versions", res.Versions)
}

func loadFixture(path string) (*seed.Fixture, error) {
	if path == "" {
		return seed.Default()
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return seed.Load(f)
}
