package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"docedit/internal/config"
	"docedit/internal/docstore"
)

// ============================================================
// Document Store Service
// ============================================================

func main() {
	cfg := config.Load()

	if cfg.StoreDriver == docstore.DriverSQLite3 || cfg.StoreDriver == docstore.DriverSQLite {
		if err := os.MkdirAll(filepath.Dir(cfg.StoreDSN), 0o755); err != nil {
			log.Fatalf("mkdir db dir: %v", err)
		}
	}

	repo, err := docstore.Open(context.Background(), cfg.StoreDriver, cfg.StoreDSN)
	if err != nil {
		log.Fatalf("open %s store: %v", cfg.StoreDriver, err)
	}
	defer repo.Close()

	app := docstore.NewApp(repo, docstore.Options{
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
	})

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		log.Printf("Shutting down Document Store")
		if err := app.ShutdownWithTimeout(5 * time.Second); err != nil {
			log.Printf("shutdown: %v", err)
		}
	}()

	// ============================================================
	// Server Start
	// ============================================================

	addr := fmt.Sprintf(":%s", cfg.Port)
	log.Printf("Starting Document Store on %s (env: %s, driver: %s)", addr, cfg.Environment, cfg.StoreDriver)

	if err := app.Listen(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
