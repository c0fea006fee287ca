package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"book-chat/internal/app"
	"book-chat/internal/config"
	"book-chat/internal/contextmgr"
	"book-chat/internal/conversation"
	"book-chat/internal/llm"
	"book-chat/internal/logging"
	"book-chat/internal/prompt"
	"book-chat/internal/server"
	"book-chat/internal/session"
	"book-chat/internal/store"
)

func main() {
	logger := logging.NewStdLogger()
	cfg := config.Load()

	// Provider construction fails fast on missing credentials, before any
	// request can reach the pipeline.
	provider, err := llm.NewProvider(cfg.Provider)
	if err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
	st, err := store.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
	defer st.Close()

	var truncator contextmgr.Manager = contextmgr.NewNoopManager()
	if cfg.MaxContextTokens > 0 {
		counter, err := contextmgr.NewTiktokenCounter()
		if err != nil {
			logger.Warn("token counter unavailable, context truncation disabled: " + err.Error())
		} else {
			truncator = contextmgr.NewBudgetManager(counter, cfg.MaxContextTokens)
		}
	}

	guard := prompt.NewGuard(prompt.GuardConfig{BookName: cfg.BookName, BookTopics: cfg.BookTopics})
	resolver := session.NewResolver(st, logger)
	builder := conversation.NewContextBuilder(st, cfg.HistoryLimit)
	orchestrator := conversation.NewOrchestrator(st, builder, truncator, provider, guard, logger)

	handler := server.New(orchestrator, resolver, st, provider, logger, cfg.AllowOrigin)

	application, err := app.New(app.Config{HTTPPort: cfg.HTTPPort}, logger, handler.Routes())
	if err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}

	logger.With(logging.Field{Key: "provider", Value: provider.Name()}).Info("provider configured")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := application.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
}
