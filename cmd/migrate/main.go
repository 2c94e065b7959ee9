package main

import (
	"log"

	"collab-service/internal/config"
	"collab-service/internal/database"
	"collab-service/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}
	logg := logger.New(cfg.Log.Level, cfg.Log.Format)

	if cfg.Database.Driver == "memory" {
		logg.Info("DB_DRIVER=memory has no schema to migrate")
		return
	}

	logg.Info("Starting database migration...", "driver", cfg.Database.Driver)

	// NewConnection runs the gorm auto-migration for the files table
	db, err := database.NewConnection(cfg.Database, logg)
	if err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatal("Failed to get database instance:", err)
	}
	defer sqlDB.Close()

	if err := sqlDB.Ping(); err != nil {
		log.Fatal("Failed to ping database:", err)
	}

	logg.Info("Database migration completed successfully!")
}
