package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ignite/email-sorter/internal/api"
	"github.com/ignite/email-sorter/internal/auth"
	"github.com/ignite/email-sorter/internal/classify"
	"github.com/ignite/email-sorter/internal/config"
	"github.com/ignite/email-sorter/internal/pkg/logger"
	"github.com/ignite/email-sorter/internal/processor"
	"github.com/ignite/email-sorter/internal/session"
	"github.com/ignite/email-sorter/internal/store"
	"github.com/ignite/email-sorter/internal/unsubscribe"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.LoadFromEnv(*configPath)
	if err != nil {
		logger.Error("failed to load config", "path", *configPath, "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	db, err := store.Open(ctx, cfg.Database.URL)
	if err != nil {
		logger.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	st := store.New(db)
	if err := st.Migrate(ctx); err != nil {
		logger.Error("migration failed", "error", err)
		os.Exit(1)
	}
	logger.Info("database ready")

	// Sessions: Redis when configured, in-process memory otherwise.
	var sessions session.Store
	if cfg.Redis.Addr != "" {
		client, err := session.Connect(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			logger.Error("redis connection failed", "addr", cfg.Redis.Addr, "error", err)
			os.Exit(1)
		}
		defer client.Close()
		sessions = session.NewRedisStore(client)
		logger.Info("session store: redis", "addr", cfg.Redis.Addr)
	} else {
		sessions = session.NewMemoryStore()
		logger.Info("session store: memory")
	}

	// Classification: Bedrock when enabled, keyword fallbacks otherwise.
	var model classify.Model
	if cfg.AI.Enabled {
		m, err := classify.NewBedrockModel(ctx, cfg.AI.Region, cfg.AI.ModelID)
		if err != nil {
			logger.Error("bedrock initialization failed", "error", err)
			os.Exit(1)
		}
		model = m
	} else {
		logger.Info("AI disabled, using keyword classification")
	}
	classifier := classify.NewService(model)

	baseURL := fmt.Sprintf("http://%s:%d", cfg.Server.GetHost(), cfg.Server.Port)
	if v := os.Getenv("BASE_URL"); v != "" {
		baseURL = v
	}
	authManager := auth.NewManager(cfg.Auth, cfg.Google, baseURL, sessions, st)

	openMailbox := processor.GmailFactory(authManager.OAuthConfig())
	proc := processor.New(st, classifier, classifier, openMailbox,
		cfg.Processing.MaxPerBatch, cfg.Processing.Interval())
	go proc.Run(ctx)

	engine := unsubscribe.NewEngine(
		unsubscribe.WithTimeout(cfg.Unsubscribe.Timeout()),
		unsubscribe.WithMaxRetries(cfg.Unsubscribe.MaxRetries),
		unsubscribe.WithMaxLinkClicks(cfg.Unsubscribe.MaxLinkClicks),
	)

	handlers := api.NewHandlers(st, engine, proc, openMailbox)
	router := api.NewRouter(handlers, authManager)

	addr := fmt.Sprintf("%s:%d", cfg.Server.GetHost(), cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-done
	logger.Info("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}
	logger.Info("server stopped")
}
