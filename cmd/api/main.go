package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jwebster45206/narrative-engine/internal/config"
	"github.com/jwebster45206/narrative-engine/internal/handlers"
	"github.com/jwebster45206/narrative-engine/internal/logger"
	"github.com/jwebster45206/narrative-engine/internal/middleware"
	"github.com/jwebster45206/narrative-engine/internal/processor"
	"github.com/jwebster45206/narrative-engine/internal/services"
	"github.com/jwebster45206/narrative-engine/internal/services/events"
	"github.com/jwebster45206/narrative-engine/internal/storage"
	"github.com/jwebster45206/narrative-engine/internal/telemetry"
	pkgstorage "github.com/jwebster45206/narrative-engine/pkg/storage"
)

// backend is a game state store the server can wait on at startup.
type backend interface {
	pkgstorage.Storage
	WaitForConnection(ctx context.Context) error
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	log := logger.Setup(cfg)

	log.Info("Starting Narrative Engine API",
		"port", cfg.Port,
		"environment", cfg.Environment,
		"data_dir", cfg.DataDir,
		"storage_backend", cfg.StorageBackend,
		"llm_provider", cfg.LLMProvider,
		"model_name", cfg.ModelName())

	shutdownTracing, err := telemetry.Setup(context.Background(), cfg)
	if err != nil {
		log.Error("Failed to set up tracing", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			log.Error("Error flushing traces", "error", err)
		}
	}()

	var store backend
	var broadcaster *events.Broadcaster
	switch cfg.StorageBackend {
	case config.StorageSQLite:
		sqliteStore, err := storage.NewSQLiteStorage(cfg.SQLitePath, cfg.DataDir, cfg.GameStateTTL, log)
		if err != nil {
			log.Error("Failed to create storage", "error", err)
			os.Exit(1)
		}
		if n, err := sqliteStore.PurgeExpired(context.Background()); err != nil {
			log.Warn("Failed to purge expired game states", "error", err)
		} else if n > 0 {
			log.Info("Purged expired game states", "count", n)
		}
		store = sqliteStore
	default:
		redisStore, err := storage.NewRedisStorage(cfg.RedisURL, cfg.DataDir, cfg.GameStateTTL, log)
		if err != nil {
			log.Error("Failed to create storage", "error", err)
			os.Exit(1)
		}
		broadcaster = events.NewBroadcaster(redisStore.Client(), log)
		store = redisStore
	}

	storageCtx, storageCancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer storageCancel()
	if err := store.WaitForConnection(storageCtx); err != nil {
		log.Error("Failed to connect to storage", "error", err)
		os.Exit(1)
	}
	log.Info("Storage connection established successfully")

	var llmService services.LLMService
	switch cfg.LLMProvider {
	case config.ProviderGemini:
		gemini, err := services.NewGeminiService(context.Background(), cfg.GeminiAPIKey, cfg.GeminiModel, log)
		if err != nil {
			log.Error("Failed to create Gemini client", "error", err)
			os.Exit(1)
		}
		defer gemini.Close()
		llmService = gemini
	default:
		llmService = services.NewOllamaService(cfg.OllamaHost, cfg.OllamaModel, log)
	}

	// Initialize the model on startup. The engine still works without it,
	// turns just fall back to fixed narrative and choices.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	if err := llmService.InitModel(ctx, cfg.ModelName()); err != nil {
		log.Warn("Failed to initialize LLM model", "error", err, "model", cfg.ModelName())
	}

	turnProcessor := processor.NewTurnProcessor(store, llmService, cfg.GenerationTimeout, log)
	if broadcaster != nil {
		turnProcessor.WithPublisher(broadcaster)
	}

	mux := http.NewServeMux()

	healthHandler := handlers.NewHealthHandler(store, log)
	mux.Handle("/health", healthHandler)

	turnHandler := handlers.NewTurnHandler(turnProcessor, log)
	mux.Handle("/v1/turn", turnHandler)

	gameStateHandler := handlers.NewGameStateHandler(turnProcessor, log)
	mux.Handle("/v1/gamestate", gameStateHandler)
	mux.Handle("/v1/gamestate/", gameStateHandler)

	// Live game events ride on Redis pub/sub
	if broadcaster != nil {
		eventsHandler := handlers.NewEventsHandler(broadcaster, log)
		mux.Handle("/v1/events/gamestate/", eventsHandler)
	}

	storyHandler := handlers.NewStoryHandler(log, store)
	mux.Handle("/v1/stories", storyHandler)
	mux.Handle("/v1/stories/", storyHandler)

	// A turn waits on two generations: the continuation and the choices
	writeTimeout := 2*cfg.GenerationTimeout + 15*time.Second

	handler := middleware.Logger(mux)
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: writeTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Server is shutting down...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}

	// Close storage connection after in-flight turns finish
	if err := store.Close(); err != nil {
		log.Error("Error closing storage connection", "error", err)
	}

	log.Info("Server exited")
}
