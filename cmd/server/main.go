package main

// @title           Collab Service API
// @version         1.0
// @description     Realtime collaboration sessions: presence, project file sync and direct messages
// @host            localhost:8080
// @BasePath        /api/v1
// @schemes         http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"collab-service/internal/adapters/kafka"
	"collab-service/internal/adapters/storage"
	"collab-service/internal/api/handlers"
	"collab-service/internal/api/routes"
	"collab-service/internal/auth"
	"collab-service/internal/config"
	"collab-service/internal/database"
	"collab-service/internal/directmsg"
	"collab-service/internal/filestore"
	"collab-service/internal/filesync"
	"collab-service/internal/presence"
	"collab-service/internal/repositories/postgres"
	"collab-service/internal/rooms"
	"collab-service/internal/services"
	"collab-service/internal/websocket"
	"collab-service/pkg/logger"
)

const shutdownTimeout = 30 * time.Second

// persister is a filesync.Persister that can be drained on shutdown.
type persister interface {
	filesync.Persister
	Close(ctx context.Context) error
}

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	logg := logger.New(cfg.Log.Level, cfg.Log.Format)
	logg.Info("Starting collab server", "db", cfg.Database.Driver, "persist", cfg.Collab.PersistMode)

	// File store
	store, err := openStore(cfg, logg)
	if err != nil {
		logg.Error("Failed to open file store", "error", err)
		os.Exit(1)
	}

	// Presence, rooms and the hub
	registry := presence.NewRegistry(logg)
	tracker := rooms.NewTracker(registry, logg)
	hub := websocket.NewHub(registry, tracker, logg)
	registry.AddNotifier(hub)

	// Redis is optional: it mirrors presence and backs the connect rate limit
	var (
		redisService *services.RedisService
		mirror       *presence.MirrorNotifier
	)
	if cfg.Redis.Enabled() {
		redisClient, err := database.NewRedisConnection(cfg.Redis, logg)
		if err != nil {
			logg.Error("Failed to connect to Redis", "error", err)
			os.Exit(1)
		}
		defer redisClient.Close()

		redisService = services.NewRedisService(redisClient, logg)
		if err := redisService.ClearOnlineUsers(context.Background()); err != nil {
			logg.Warn("Failed to clear stale presence", "error", err)
		}
		mirror = presence.NewMirrorNotifier(redisService, cfg.Redis.WriteTimeout, logg)
		registry.AddNotifier(mirror)
	}

	// Write-behind persistence
	var p persister
	switch cfg.Collab.PersistMode {
	case config.PersistModeKafka:
		producer, err := kafka.NewSyncProducer(cfg.Kafka)
		if err != nil {
			logg.Error("Failed to create Kafka producer", "error", err)
			os.Exit(1)
		}
		p = kafka.NewPublisher(producer, cfg.Kafka.Topic, logg)
	default:
		p = filesync.NewStorePersister(store, cfg.Collab.PersistTimeout, logg)
	}

	files := filesync.NewRouter(store, p, hub, filesync.Options{
		StrictCreate: cfg.Collab.StrictCreate,
		StoreTimeout: cfg.Collab.PersistTimeout,
	}, logg)
	chat := directmsg.NewService(directmsg.NewMemoryHistory(cfg.Collab.HistoryLimit), hub, logg)
	hub.Use(files, chat)
	go hub.Run()

	// Attachments are optional
	var uploader handlers.Uploader
	if cfg.MinIO.Enabled() {
		minioClient, err := storage.NewMinIOClient(context.Background(), cfg.MinIO, logg)
		if err != nil {
			logg.Error("Failed to initialize MinIO", "error", err)
			os.Exit(1)
		}
		uploader = minioClient
	}

	if cfg.JWT.Secret == "" {
		logg.Warn("JWT_SECRET is empty; tokens cannot be verified and clients must send userAuthenticated")
	}

	deps := routes.Deps{
		Hub:              hub,
		Registry:         registry,
		Identity:         auth.NewJWTProvider(cfg.JWT.Secret),
		Uploader:         uploader,
		WSSettings:       websocket.SettingsFrom(cfg.WebSocket),
		AllowedOrigins:   cfg.WebSocket.AllowedOrigins,
		ConnectPerMinute: cfg.WebSocket.ConnectPerMinute,
		Logger:           logg,
	}
	if redisService != nil {
		deps.RateLimiter = redisService
	}
	router := routes.NewRouter(deps)
	router.SetupRoutes()

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router.GetEngine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in a goroutine
	go func() {
		logg.Info("Server starting", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logg.Info("Server shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logg.Error("Server forced to shutdown", "error", err)
	}

	// Sessions first, so no new writes are queued while draining
	hub.Stop()
	if err := p.Close(ctx); err != nil {
		logg.Error("Pending file writes were not persisted", "error", err)
	}
	if mirror != nil {
		mirror.Close()
	}

	logg.Info("Server stopped")
}

func openStore(cfg *config.Config, log *logger.Logger) (filestore.Store, error) {
	if cfg.Database.Driver == "memory" {
		log.Warn("Using in-memory file store; files are lost on restart")
		return filestore.NewMemoryStore(), nil
	}
	db, err := database.NewConnection(cfg.Database, log)
	if err != nil {
		return nil, err
	}
	return postgres.NewFileRepository(db), nil
}
