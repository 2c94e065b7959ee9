package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"collab-service/internal/adapters/kafka"
	"collab-service/internal/config"
	"collab-service/internal/database"
	"collab-service/internal/filesync"
	"collab-service/internal/repositories/postgres"
	"collab-service/pkg/logger"
)

// persister consumes the file change topic written by the server in
// COLLAB_PERSIST_MODE=kafka and upserts each change into the database.
func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	logg := logger.New(cfg.Log.Level, cfg.Log.Format).Component("persister")
	if cfg.Database.Driver == "memory" {
		logg.Error("The persister needs a SQL database; DB_DRIVER=memory is not supported")
		os.Exit(1)
	}

	db, err := database.NewConnection(cfg.Database, logg)
	if err != nil {
		logg.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	repo := postgres.NewFileRepository(db)

	consumer := kafka.NewConsumer(cfg.Kafka, logg)
	defer consumer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logg.Info("Consuming file changes", "brokers", cfg.Kafka.Brokers, "topic", cfg.Kafka.Topic, "group", cfg.Kafka.GroupID)
	err = consumer.Run(ctx, func(ctx context.Context, change filesync.FileChange) error {
		writeCtx, cancel := context.WithTimeout(ctx, cfg.Collab.PersistTimeout)
		defer cancel()
		_, err := repo.Upsert(writeCtx, change.ProjectID, change.Path, change.Content)
		return err
	})
	if err != nil {
		logg.Error("Consumer stopped", "error", err)
		os.Exit(1)
	}
	logg.Info("Persister stopped")
}
