package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/isdelr/edgefit-be/internal/api"
	"github.com/isdelr/edgefit-be/internal/api/handlers"
	"github.com/isdelr/edgefit-be/internal/auth"
	"github.com/isdelr/edgefit-be/internal/config"
	"github.com/isdelr/edgefit-be/internal/database"
	"github.com/isdelr/edgefit-be/internal/llm"
	"github.com/isdelr/edgefit-be/internal/logger"
	"github.com/isdelr/edgefit-be/internal/metrics"
	"github.com/isdelr/edgefit-be/internal/monitoring"
	"github.com/isdelr/edgefit-be/internal/repository"
	"github.com/isdelr/edgefit-be/internal/services"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logger.Init(cfg.LogLevel, cfg.IsProduction())

	// Set up database
	db, err := database.New(cfg.DatabasePath, cfg.StoreTimeout)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	migrateCtx, cancelMigrate := context.WithTimeout(context.Background(), 30*time.Second)
	err = database.Migrate(migrateCtx, db)
	cancelMigrate()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to apply database migrations")
	}

	// Set up metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	recorder := metrics.NewCollector(registry)

	// Set up auth primitives
	tokens, err := auth.NewTokenManager(cfg.JWTSecret)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize token manager")
	}
	hasher := auth.NewBcryptHasher(cfg.BcryptCost)

	// Set up services
	userRepo := repository.NewSQLiteUserRepository(db, cfg.StoreTimeout)
	chatRepo := repository.NewSQLiteChatRepository(db, cfg.StoreTimeout)

	userService, err := services.NewUserService(userRepo, hasher, tokens, recorder)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize user service")
	}

	completer := llm.NewClient(llm.Config{
		APIKey:    cfg.LLMAPIKey,
		BaseURL:   cfg.LLMBaseURL,
		Model:     cfg.LLMModel,
		MaxTokens: cfg.LLMMaxTokens,
		Timeout:   cfg.LLMTimeout,
	})
	if cfg.LLMAPIKey == "" {
		log.Warn().Msg("GROQ_API_KEY is not set, chat endpoints will return 503")
	}
	chatService := services.NewChatService(chatRepo, completer, recorder)

	// Set up and run the background retention job
	retention, err := monitoring.NewRetention(chatService, cfg.ChatRetentionDays, cfg.ChatRetentionSchedule)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize chat history retention")
	}
	retention.Run()

	// Set up router
	router := api.NewRouter(
		api.Options{
			AllowedOrigins: []string{cfg.HostURL},
			SecureCookies:  cfg.IsProduction(),
		},
		userService,
		chatService,
		handlers.NewHealthHandler(db, cfg.StoreTimeout),
		recorder,
		registry,
	)

	// Set up server
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Info().Str("addr", srv.Addr).Str("env", cfg.AppEnv).Msg("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("ListenAndServe failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	retention.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exiting")
}
