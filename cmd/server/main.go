// PitchLab - Voice Sales Training Server
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dkotov/pitchlab/internal/analysis"
	"github.com/dkotov/pitchlab/internal/api"
	"github.com/dkotov/pitchlab/internal/config"
	"github.com/dkotov/pitchlab/internal/identity"
	"github.com/dkotov/pitchlab/internal/learning"
	"github.com/dkotov/pitchlab/internal/middleware"
	"github.com/dkotov/pitchlab/internal/store"
	"github.com/dkotov/pitchlab/internal/voice"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting server", "port", cfg.Port, "dev", cfg.IsDevelopment())

	// Initialize dependencies.
	repo, err := store.NewSQLite(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			slog.Error("Failed to close repository", "error", closeErr)
		}
	}()

	if err := repo.Ping(context.Background()); err != nil {
		slog.Error("Database health check failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database connected")

	if err := store.SeedScenarios(context.Background(), repo); err != nil {
		slog.Error("Failed to seed scenario catalog", "error", err)
		os.Exit(1)
	}
	slog.Info("Scenario catalog ready")

	// Conversation analyzer (optional). Without an API key the learning
	// service still runs, substituting degraded neutral analyses.
	var analyzer analysis.Analyzer
	if cfg.AnalysisEnabled() {
		a, err := analysis.NewAnthropicAnalyzer(analysis.Config{
			APIKey:         cfg.Analyzer.APIKey,
			Model:          cfg.Analyzer.Model,
			MaxTokens:      int64(cfg.Analyzer.MaxTokens),
			MaxAttempts:    cfg.Analyzer.MaxAttempts,
			RequestTimeout: cfg.Analyzer.RequestTimeout,
		}, logger)
		if err != nil {
			slog.Error("Failed to initialize conversation analyzer", "error", err)
			os.Exit(1)
		}
		analyzer = a
		slog.Info("Conversation analyzer enabled")
	} else {
		slog.Info("Conversation analysis disabled (ANTHROPIC_API_KEY not set)")
	}

	// Initialize services.
	learningService := learning.NewService(analyzer, repo, logger)

	// Initialize handlers.
	healthHandler := api.NewHealthHandler(repo, cfg.AnalysisEnabled())
	learningHandler := api.NewLearningHandler(learningService, repo)
	scenarioHandler := api.NewScenarioHandler(repo)

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))
	r.Use(middleware.CORS([]string{"*"}))
	r.Use(identity.Middleware(repo, cfg.IsDevelopment()))

	healthHandler.RegisterRoutes(r)
	learningHandler.RegisterRoutes(r)
	scenarioHandler.RegisterRoutes(r)

	// Voice relay endpoint (only if the voice agent is configured).
	if cfg.VoiceEnabled() {
		relay := voice.NewRelayHandler(cfg.Voice.APIKey, cfg.Voice.AgentID, cfg.Voice.UpstreamURL, cfg.FrontendURL, cfg.IsDevelopment())
		r.Get("/ws/voice", relay.ServeHTTP)
		slog.Info("Voice relay enabled", "upstream", cfg.Voice.UpstreamURL)
	} else {
		slog.Info("Voice relay disabled (VOICE_API_KEY or VOICE_AGENT_ID not set)")
	}

	// Create server.
	// Note: WebSocket relay connections are long-lived, so no WriteTimeout.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start server.
	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal.
	<-ctx.Done()
	stop()

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server stopped successfully")
}
