// Package settings owns the persisted scrape configuration. It is stored in
// its own flat JSON file, separate from the listing snapshot, so a corrupt or
// partial scrape can never lose configuration.
package settings

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/JamilPr1/Haraj/models"
)

// Store loads, validates, and saves scrape settings.
type Store struct {
	mu   sync.Mutex
	path string
}

// NewStore creates a settings store backed by the given file path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Load returns the persisted settings, or defaults when none are saved yet.
// A corrupt settings file falls back to defaults rather than blocking runs.
func (s *Store) Load() models.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.path)
	if err != nil {
		return models.DefaultSettings()
	}

	cfg := models.DefaultSettings()
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return models.DefaultSettings()
	}
	if err := Validate(cfg); err != nil {
		return models.DefaultSettings()
	}
	return cfg
}

// Save validates and persists the settings atomically.
func (s *Store) Save(cfg models.Settings) error {
	if err := Validate(cfg); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}

	raw, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".settings-*.json")
	if err != nil {
		return fmt.Errorf("create temp settings file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close settings: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace settings: %w", err)
	}
	return nil
}

// Validate rejects out-of-range limits and malformed target parameters
// before any browser work begins.
func Validate(cfg models.Settings) error {
	var problems []string

	u, err := url.Parse(cfg.CategoryURL)
	switch {
	case cfg.CategoryURL == "":
		problems = append(problems, "category_url is required")
	case err != nil || u.Scheme == "" || u.Host == "":
		problems = append(problems, "category_url must be an absolute http(s) URL")
	case u.Scheme != "http" && u.Scheme != "https":
		problems = append(problems, "category_url scheme must be http or https")
	}

	if cfg.MaxPages < 1 || cfg.MaxPages > 100 {
		problems = append(problems, "max_pages must be between 1 and 100")
	}
	if cfg.MaxListings < 1 || cfg.MaxListings > 2000 {
		problems = append(problems, "max_listings must be between 1 and 2000")
	}
	if cfg.PerPageTimeoutSeconds < 1 || cfg.PerPageTimeoutSeconds > 300 {
		problems = append(problems, "per_page_timeout_seconds must be between 1 and 300")
	}
	if cfg.RunTimeoutSeconds < cfg.PerPageTimeoutSeconds {
		problems = append(problems, "run_timeout_seconds must be at least per_page_timeout_seconds")
	}
	if cfg.RunTimeoutSeconds > 24*3600 {
		problems = append(problems, "run_timeout_seconds must be at most 86400")
	}
	if cfg.PageRetryBudget < 0 || cfg.PageRetryBudget > 10 {
		problems = append(problems, "page_retry_budget must be between 0 and 10")
	}
	if cfg.LaunchRetryBudget < 0 || cfg.LaunchRetryBudget > 1 {
		problems = append(problems, "launch_retry_budget must be 0 or 1")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", models.ErrSettingsValidation, strings.Join(problems, "; "))
	}
	return nil
}
