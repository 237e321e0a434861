package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dukerupert/homehq/internal/database"
	"github.com/dukerupert/homehq/internal/logging"
	"github.com/dukerupert/homehq/internal/server"
)

func main() {
	logger := logging.Setup(os.Getenv("HOMEHQ_LOG_LEVEL"), os.Getenv("HOMEHQ_LOG_FORMAT"))

	port := os.Getenv("HOMEHQ_PORT")
	if port == "" {
		port = "8080"
	}

	dbPath := os.Getenv("HOMEHQ_DB_PATH")
	if dbPath == "" {
		dbPath = "homehq.db"
	}

	db, err := database.Open(dbPath)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	cfg := server.Config{
		SuggestURL: os.Getenv("HOMEHQ_SUGGEST_URL"),
	}
	if raw := os.Getenv("HOMEHQ_SUGGEST_TIMEOUT"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil {
			cfg.SuggestTimeout = d
		} else {
			logger.Warn("invalid HOMEHQ_SUGGEST_TIMEOUT, using default", "value", raw)
		}
	}

	srv := server.New(db, cfg, logger)

	httpServer := &http.Server{
		Addr:         ":" + port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		fmt.Printf("HomeHQ running at http://localhost:%s\n", port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}
