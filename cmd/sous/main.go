package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/scrypster/sous/internal/backup"
	"github.com/scrypster/sous/internal/config"
	"github.com/scrypster/sous/internal/dispatch"
	"github.com/scrypster/sous/internal/intent"
	"github.com/scrypster/sous/internal/inventory"
	"github.com/scrypster/sous/internal/llm"
	"github.com/scrypster/sous/internal/metrics"
	"github.com/scrypster/sous/internal/normalize"
	"github.com/scrypster/sous/internal/server"
	"github.com/scrypster/sous/internal/storage"
	"github.com/scrypster/sous/internal/storage/postgres"
	"github.com/scrypster/sous/internal/storage/sqlite"
	"github.com/scrypster/sous/internal/turns"
	"github.com/scrypster/sous/internal/whatsapp"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	// Initialize storage
	store, err := openStore(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	defer store.Close()

	// Initialize LLM clients
	textGen, err := llm.NewTextGenerator(cfg.LLM)
	if err != nil {
		log.Fatalf("Failed to initialize LLM text generator: %v", err)
	}
	chatGen, err := llm.NewChatGenerator(cfg.LLM)
	if err != nil {
		log.Fatalf("Failed to initialize LLM chat generator: %v", err)
	}
	vision, err := llm.NewVisionDescriber(cfg.LLM)
	if err != nil {
		log.Fatalf("Failed to initialize LLM vision client: %v", err)
	}

	// Wire the turn pipeline
	normalizer := normalize.New(textGen)
	reconciler := inventory.NewReconciler(normalizer)
	classifier := intent.NewClassifier(textGen)
	collector := metrics.NewCollector()
	registry := turns.NewRegistry()
	sender := whatsapp.NewSender(
		cfg.Twilio.AccountSID, cfg.Twilio.AuthToken,
		cfg.Twilio.WhatsAppNumber, cfg.Twilio.BaseURL)
	dispatcher := dispatch.NewDispatcher(
		classifier, normalizer, reconciler,
		chatGen, textGen, vision,
		store, collector, cfg.Reply)

	// Setup context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Periodic database snapshots (SQLite only)
	if cfg.Backup.Enabled && cfg.Storage.StorageEngine != "postgres" {
		backupDir := cfg.Backup.Dir
		if backupDir == "" {
			backupDir = cfg.Storage.DataPath + "/backups"
		}
		backupSvc, err := backup.NewService(backup.Config{
			DBPath:   cfg.Storage.DataPath + "/sous.db",
			Dir:      backupDir,
			Interval: time.Duration(cfg.Backup.IntervalHours) * time.Hour,
			Keep:     cfg.Backup.Keep,
		})
		if err != nil {
			log.Fatalf("Failed to initialize backup service: %v", err)
		}
		go backupSvc.Run(ctx)
	}

	addr, _ := server.Start(ctx, cfg, server.Deps{
		Dispatcher: dispatcher,
		Sender:     sender,
		Store:      store,
		Registry:   registry,
		Metrics:    collector,
	})
	log.Printf("Sous webhook listening at http://%s", addr)

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Println("Shutting down gracefully...")
	cancel()
	time.Sleep(1 * time.Second) // Give time for connections to close
}

// openStore selects the storage backend from config. SQLite is the default
// and stores its database under the configured data directory.
func openStore(cfg *config.Config) (storage.UserStore, error) {
	if cfg.Storage.StorageEngine == "postgres" {
		return postgres.NewUserStore(cfg.Storage.PostgresDSN)
	}
	if err := os.MkdirAll(cfg.Storage.DataPath, 0o755); err != nil {
		return nil, err
	}
	return sqlite.NewUserStore(cfg.Storage.DataPath + "/sous.db")
}
