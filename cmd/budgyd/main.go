package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/budgyapp/budgy-backend/internal/auth"
	"github.com/budgyapp/budgy-backend/internal/common"
	"github.com/budgyapp/budgy-backend/internal/export"
	"github.com/budgyapp/budgy-backend/internal/llm"
	"github.com/budgyapp/budgy-backend/internal/llm/gemini"
	"github.com/budgyapp/budgy-backend/internal/llm/openai"
	"github.com/budgyapp/budgy-backend/internal/quota"
	"github.com/budgyapp/budgy-backend/internal/receipts"
	"github.com/budgyapp/budgy-backend/internal/server"
	"github.com/budgyapp/budgy-backend/internal/store"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		logger.Warn("no .env file found")
	}

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.NewBoltStore(cfg.Store.Path, cfg.Store.OpenTimeout)
	if err != nil {
		logger.Error("opening store", "path", cfg.Store.Path, "error", err)
		os.Exit(1)
	}
	defer st.Close()
	logger.Info("store.open", "path", cfg.Store.Path)

	var extractor llm.FieldExtractor
	switch cfg.LLM.Provider {
	case "gemini":
		g, err := gemini.NewClient(cfg.LLM.APIKey, cfg.LLM.Model, cfg.LLM.Temperature, cfg.LLM.MaxTokens, logger)
		if err != nil {
			logger.Error("initializing gemini client", "error", err)
			os.Exit(1)
		}
		defer g.Close()
		extractor = g
	case "openai":
		extractor = openai.NewClient(openai.Config{
			APIKey:      cfg.LLM.APIKey,
			BaseURL:     cfg.LLM.BaseURL,
			Model:       cfg.LLM.Model,
			Temperature: cfg.LLM.Temperature,
			MaxTokens:   cfg.LLM.MaxTokens,
			Timeout:     cfg.LLM.Timeout,
		}, logger)
	default:
		logger.Error("invalid LLM provider", "provider", cfg.LLM.Provider, "valid", "openai or gemini")
		os.Exit(1)
	}
	logger.Info("llm.provider", "provider", cfg.LLM.Provider, "model", cfg.LLM.Model)

	checker := quota.NewChecker(st, cfg.Quota.FreeMonthlyLimit, logger)
	service := receipts.NewService(st, extractor, checker, logger)
	exporter := export.NewService(logger)
	verifier := auth.NewVerifier(cfg.Auth.JWTSecret)

	srv := server.New(service, exporter, verifier, cfg, logger)
	httpServer := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: srv.Handler(),
	}

	go func() {
		logger.Info("http.serving", "addr", cfg.Server.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http serve", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
	logger.Info("stopped")
}
