package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"appealdesk/api/internal/app"
	"appealdesk/api/internal/config"
	"appealdesk/api/internal/draft"
	"appealdesk/api/internal/intakesvc"
	"appealdesk/api/internal/kv"
	"appealdesk/api/internal/schedule"
)

func main() {
	// .env is a development convenience; absence is fine.
	_ = godotenv.Load()

	cfg := config.Load()

	var backend kv.Store
	if strings.TrimSpace(cfg.RedisURL) != "" {
		log.Printf("Using Redis for draft storage")
		redisStore, err := kv.NewRedisStore(cfg.RedisURL)
		if err != nil {
			log.Fatalf("redis connection failed: %v", err)
		}
		backend = redisStore
	} else {
		log.Printf("Using local files for draft storage (%s)", cfg.DataDir)
		fileStore, err := kv.NewFileStore(cfg.DataDir)
		if err != nil {
			log.Fatalf("data dir unusable: %v", err)
		}
		backend = fileStore
	}
	defer backend.Close()

	drafts := draft.NewStore(backend)
	availability := schedule.NewPlaceholder()
	intake := intakesvc.NewClient(cfg.IntakeBaseURL, cfg.SubmitTimeout)

	service := app.NewService(drafts, availability, intake)
	httpServer := app.NewHTTPServer(service, cfg.CORSOrigin)
	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("AppealDesk API listening on %s (intake upstream %s)", cfg.Addr, cfg.IntakeBaseURL)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
