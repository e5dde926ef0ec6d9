package main

import (
	"context"
	"flag"
	"log"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/JamilPr1/Haraj/config"
	"github.com/JamilPr1/Haraj/models"
	"github.com/JamilPr1/Haraj/services"
	"github.com/JamilPr1/Haraj/settings"
	"github.com/JamilPr1/Haraj/storage"
	"github.com/JamilPr1/Haraj/utils"
)

// One-shot CLI: runs a single scrape job to completion, then writes a CSV
// export next to the snapshot.
func main() {
	categoryURL := flag.String("category", "",
		"Category URL to scrape (default: persisted or built-in settings)")
	maxPages := flag.Int("pages", 0,
		"Search-result pages to scrape (0 = use settings)")
	maxListings := flag.Int("listings", 0,
		"Listing cap for the run (0 = use settings)")
	details := flag.Bool("details", true,
		"Fetch each listing's detail page for extended metadata")
	headless := flag.Bool("headless", true,
		"Run Chrome headless (false = visible window)")
	outCSV := flag.String("csv", "listings.csv",
		"CSV export filename (written into the data dir, empty = skip)")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("✗ Failed to load config: %v", err)
	}

	settingsStore := settings.NewStore(cfg.SettingsPath())
	st := settingsStore.Load()
	if *categoryURL != "" {
		st.CategoryURL = *categoryURL
	}
	if *maxPages > 0 {
		st.MaxPages = *maxPages
	}
	if *maxListings > 0 {
		st.MaxListings = *maxListings
	}
	st.FetchDetails = *details
	st.Headless = *headless

	if err := settings.Validate(st); err != nil {
		log.Fatalf("✗ Invalid settings: %v", err)
	}
	if err := settingsStore.Save(st); err != nil {
		log.Fatalf("✗ Failed to save settings: %v", err)
	}

	log.Printf("╔═══════════════════════════════════════════════════╗")
	log.Printf("║              Haraj Listings Scraper               ║")
	log.Printf("╚═══════════════════════════════════════════════════╝")
	log.Printf("Category : %s", st.CategoryURL)
	log.Printf("Pages    : %d (cap %d listings)", st.MaxPages, st.MaxListings)
	log.Printf("Details  : %v", st.FetchDetails)
	log.Printf("Backend  : %s", cfg.StoreBackend)

	store, err := storage.Open(cfg)
	if err != nil {
		log.Fatalf("✗ Failed to open store: %v", err)
	}
	defer store.Close()

	runner := services.New(cfg, store, settingsStore)

	job, err := runner.RunOnce(context.Background())
	if err != nil {
		log.Fatalf("✗ %v", err)
	}

	log.Printf("═══════════════════════════════════════════════════")
	log.Printf("  DONE — status=%s pages=%d new=%d updated=%d parse_errors=%d",
		job.Status, job.PagesVisited, job.ListingsNew, job.ListingsUpdated, job.ParseErrors)
	if job.ErrorCode != "" {
		log.Printf("  ERROR — %s: %s", job.ErrorCode, job.ErrorMessage)
	}

	if *outCSV != "" {
		if err := exportCSV(store, filepath.Join(cfg.DataDir, *outCSV)); err != nil {
			log.Fatalf("✗ Failed to write CSV: %v", err)
		}
	}
	log.Printf("═══════════════════════════════════════════════════")

	if job.Status != models.JobSucceeded {
		os.Exit(1)
	}
}

func exportCSV(store storage.Store, path string) error {
	snap, err := store.Load(context.Background())
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	total, err := utils.WriteCSV(f, snap.Listings)
	if err != nil {
		return err
	}
	log.Printf("  CSV  — %d listings → %s", total, path)
	return nil
}
