package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"collab-service/internal/auth"
	"collab-service/internal/config"
	"collab-service/internal/database"
	"collab-service/internal/filestore"
	"collab-service/internal/repositories/postgres"
	"collab-service/pkg/logger"
)

var demoFiles = []struct {
	name    string
	content string
}{
	{"README.md", "# Demo project\n\nOpen this project in two tabs and start typing.\n"},
	{"src/main.go", "package main\n\nimport \"fmt\"\n\nfunc main() {\n\tfmt.Println(\"hello\")\n}\n"},
	{"src/util.ts", "export const add = (a: number, b: number) => a + b;\n"},
	{"docs/.gitkeep", ""},
}

var demoUsers = []string{"alice", "bob", "charlie"}

// seed writes a demo project and prints development tokens for a few users.
func main() {
	projectID := flag.String("project", "demo", "project id to seed")
	tokenTTL := flag.Duration("token-ttl", 24*time.Hour, "lifetime of the printed tokens")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}
	logg := logger.New(cfg.Log.Level, cfg.Log.Format)

	if cfg.Database.Driver == "memory" {
		log.Fatal("Seeding needs a SQL database; set DB_DRIVER to postgres or mysql")
	}

	logg.Info("Starting database seeding...", "project", *projectID)

	db, err := database.NewConnection(cfg.Database, logg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	store := postgres.NewFileRepository(db)

	if err := seedProject(context.Background(), store, *projectID); err != nil {
		log.Fatal("Failed to seed project:", err)
	}
	logg.Info("Seeded project files", "project", *projectID, "count", len(demoFiles))

	if cfg.JWT.Secret == "" {
		logg.Warn("JWT_SECRET is empty, skipping token generation")
		return
	}
	provider := auth.NewJWTProvider(cfg.JWT.Secret)
	for _, user := range demoUsers {
		token, err := provider.Issue(user, *tokenTTL)
		if err != nil {
			log.Fatal("Failed to issue token:", err)
		}
		fmt.Printf("%s\t%s\n", user, token)
	}

	logg.Info("Database seeding completed successfully!")
}

// seedProject upserts the demo files, so running it twice resets them.
func seedProject(ctx context.Context, store filestore.Store, projectID string) error {
	for _, f := range demoFiles {
		if _, err := store.Upsert(ctx, projectID, f.name, f.content); err != nil {
			return fmt.Errorf("seed %s: %w", f.name, err)
		}
	}
	return nil
}
