// Yeoul - AI Debate Platform Server
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

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/yeoul-ai/debate-server/internal/api"
	"github.com/yeoul-ai/debate-server/internal/config"
	"github.com/yeoul-ai/debate-server/internal/debate"
	"github.com/yeoul-ai/debate-server/internal/identity"
	"github.com/yeoul-ai/debate-server/internal/live"
	"github.com/yeoul-ai/debate-server/internal/llm"
	"github.com/yeoul-ai/debate-server/internal/middleware"
	"github.com/yeoul-ai/debate-server/internal/store"
	"github.com/yeoul-ai/debate-server/internal/suggest"
	"github.com/yeoul-ai/debate-server/internal/voice"
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

	// Model clients are nil when no API key is configured; the engine and
	// suggestion service then run on their offline paths.
	var debateClient, suggestClient llm.Client
	if c := llm.NewChatClient(cfg.NVIDIA.APIKey, llm.Options{
		BaseURL:     cfg.NVIDIA.BaseURL,
		Model:       cfg.NVIDIA.DebateModel,
		Temperature: 0.7,
		MaxTokens:   256,
	}); c != nil {
		debateClient = c
	}
	if c := llm.NewChatClient(cfg.NVIDIA.APIKey, llm.Options{
		BaseURL:     cfg.NVIDIA.BaseURL,
		Model:       cfg.NVIDIA.SuggestionModel,
		Temperature: 0.8,
		MaxTokens:   512,
	}); c != nil {
		suggestClient = c
	}
	if debateClient == nil {
		slog.Info("AI features disabled (NVIDIA_API_KEY not set); serving stub replies")
	}

	// Construct services once and pass them down; no hidden globals.
	sessions := debate.NewSessionStore()
	memories := debate.NewMemoryStore()
	prompts := debate.LoadPrompts(cfg.PromptsDir)
	engine := debate.NewEngine(debateClient, prompts, sessions, memories)
	suggestSvc := suggest.NewService(suggestClient, cfg.PromptsDir)
	voiceSvc := voice.NewService(cfg.ElevenLabs)

	// Initialize handlers.
	debateHandler := api.NewDebateHandler(engine, repo)
	suggestionHandler := api.NewSuggestionHandler(suggestSvc)
	voiceHandler := api.NewVoiceHandler(voiceSvc)
	healthHandler := api.NewHealthHandler(repo, cfg)
	liveHandler := live.NewHandler(engine, cfg.FrontendURL, cfg.IsDevelopment())

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))
	r.Use(middleware.CORS([]string{
		"http://localhost:3000",
		"http://127.0.0.1:3000",
		"https://*.vercel.app",
	}))
	r.Use(identity.Middleware(cfg.IsDevelopment()))

	healthHandler.RegisterRoutes(r)
	debateHandler.RegisterRoutes(r)
	suggestionHandler.RegisterRoutes(r)
	voiceHandler.RegisterRoutes(r)

	// WebSocket endpoint.
	r.Get("/ws/debate", liveHandler.ServeHTTP)

	// Create server. Streaming TTS responses need no write timeout.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	debate.StartTTLWorker(ctx, sessions, memories, cfg.SessionTTL)

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
