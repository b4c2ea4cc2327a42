// Package main is the entry point for the API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/sahana-ai/assistant-platform/internal/assistant"
	"github.com/sahana-ai/assistant-platform/internal/auth"
	"github.com/sahana-ai/assistant-platform/internal/config"
	"github.com/sahana-ai/assistant-platform/internal/conversation"
	"github.com/sahana-ai/assistant-platform/internal/events"
	"github.com/sahana-ai/assistant-platform/internal/handler"
	"github.com/sahana-ai/assistant-platform/internal/llm"
	"github.com/sahana-ai/assistant-platform/internal/middleware"
	"github.com/sahana-ai/assistant-platform/internal/service"
	"github.com/sahana-ai/assistant-platform/internal/speech"
	"github.com/sahana-ai/assistant-platform/internal/store"
	"github.com/sahana-ai/assistant-platform/pkg/logger"
	"github.com/sahana-ai/assistant-platform/pkg/tracing"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger.SetGlobal(log)

	log.Info("starting API server")

	// Initialize tracing if enabled
	ctx := context.Background()
	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "assistant-platform", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer tracing.Shutdown(ctx, tp)
		}
	}

	// Open the persistent store
	st, err := store.Open(cfg.StorePath)
	if err != nil {
		log.Error("failed to open store", zap.Error(err))
		os.Exit(1)
	}
	defer st.Close()

	// Connect the diagnostics event bus when configured
	var pub *events.Publisher
	if cfg.NATSURL != "" {
		pub, err = events.Connect(events.Config{
			URL:      cfg.NATSURL,
			CAFile:   cfg.NATSCAFile,
			CertFile: cfg.NATSCertFile,
			KeyFile:  cfg.NATSKeyFile,
			Token:    cfg.NATSToken,
		}, log)
		if err != nil {
			log.Warn("failed to connect to NATS, diagnostics events disabled", zap.Error(err))
		} else {
			defer pub.Close()
		}
	}

	// Initialize the LLM client
	apiKey := map[llm.Provider]string{
		llm.ProviderGemini:    cfg.GeminiAPIKey,
		llm.ProviderOpenAI:    cfg.OpenAIAPIKey,
		llm.ProviderAnthropic: cfg.AnthropicAPIKey,
	}[llm.Provider(cfg.Provider)]

	llmClient, err := llm.NewClient(llm.Provider(cfg.Provider), apiKey)
	if err != nil {
		log.Error("failed to create LLM client", zap.Error(err))
		os.Exit(1)
	}

	// Initialize services
	authService := auth.NewService(st, cfg.JWTSecret, cfg.JWTExpiration, log)
	convStore := conversation.NewStore()
	assistantClient := assistant.New(llmClient, pub, log, assistant.WithModel(cfg.ChatModel))
	turnService := service.NewTurnService(convStore, assistantClient, speech.NullSynthesizer{}, pub, cfg.SpeechLocale, log)

	// Initialize handlers
	healthHandler := handler.NewHealthHandler(st, pub)
	authHandler := handler.NewAuthHandler(authService, turnService, log)
	chatHandler := handler.NewChatHandler(turnService, convStore, log)
	voiceHandler := handler.NewVoiceHandler(turnService, nil, cfg.SpeechLocale, log)

	// Create router
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(log))
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposedHeaders:   []string{"X-Correlation-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health endpoints (no auth required)
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	// Metrics endpoint
	r.Handle("/metrics", promhttp.Handler())

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))

		// Authentication (no bearer token yet)
		r.Post("/auth/signup", authHandler.SignUp)
		r.Post("/auth/login", authHandler.LogIn)
		r.Get("/session", authHandler.Session)

		// Authenticated surface
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(authService))

			r.Delete("/session", authHandler.LogOut)
			r.Get("/messages", chatHandler.List)
			r.Post("/messages", chatHandler.Send)
			r.Get("/voice/stream", voiceHandler.Stream)
		})
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      r,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info("server listening", zap.String("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	log.Info("server stopped")
}
