package main

import (
	"log"
	"net/http"
	"time"

	"github.com/joho/godotenv"

	"github.com/JamilPr1/Haraj/api"
	"github.com/JamilPr1/Haraj/config"
	"github.com/JamilPr1/Haraj/services"
	"github.com/JamilPr1/Haraj/settings"
	"github.com/JamilPr1/Haraj/storage"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("✗ Failed to load config: %v", err)
	}

	log.Printf("╔═══════════════════════════════════════════════════╗")
	log.Printf("║           Haraj Listings Scraper Service          ║")
	log.Printf("╚═══════════════════════════════════════════════════╝")
	log.Printf("Listen   : %s", cfg.ListenAddr)
	log.Printf("Backend  : %s", cfg.StoreBackend)
	log.Printf("Data dir : %s", cfg.DataDir)

	store, err := storage.Open(cfg)
	if err != nil {
		log.Fatalf("✗ Failed to open store: %v", err)
	}
	defer store.Close()

	settingsStore := settings.NewStore(cfg.SettingsPath())
	runner := services.New(cfg, store, settingsStore)

	// Surface the probe result at startup; jobs re-probe on their own.
	cap := runner.Capability()
	if cap.Available {
		log.Printf("Browser  : %s (%s)", cap.BinaryPath, cap.Version)
	} else {
		log.Printf("Browser  : unavailable — %s", cap.Reason)
		log.Printf("           scrape triggers will fail until a browser is installed")
	}

	handler := api.NewHandler(runner, store, settingsStore)
	srv := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      handler.Router(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	log.Printf("═══════════════════════════════════════════════════")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("✗ Server error: %v", err)
	}
}
