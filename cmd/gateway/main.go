package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/taskboard/internal/gateway"
	"github.com/taskboard/internal/logger"
)

func main() {
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	_ = godotenv.Load(envFile)

	environment := os.Getenv("APP_ENV")
	if environment == "" {
		environment = "production"
	}
	appLogger := logger.InitLogger(environment, logger.JSONPreferred(environment, os.Getenv("LOG_JSON")))

	cfg, err := gateway.LoadConfig()
	if err != nil {
		appLogger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	appLogger.Info("gateway configuration loaded",
		"frontend_url", cfg.FrontendURL,
		"listen_address", cfg.ListenAddress,
		"access_token_cookie", cfg.AccessTokenCookie,
		"public_paths", cfg.PublicPaths,
	)

	srv, err := gateway.NewServer(cfg, appLogger)
	if err != nil {
		appLogger.Error("failed to build gateway", "error", err)
		os.Exit(1)
	}

	server := &http.Server{
		Addr:              cfg.ListenAddress,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		appLogger.Info("gateway listening", "address", cfg.ListenAddress, "frontend", cfg.FrontendURL)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error("gateway server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("shutting down gateway...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		appLogger.Error("gateway shutdown error", "error", err)
	}
	appLogger.Info("gateway stopped")
}
