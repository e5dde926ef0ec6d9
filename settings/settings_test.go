package settings

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/JamilPr1/Haraj/models"
)

func TestLoadDefaultsWhenAbsent(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "scraper_config.json"))

	got := store.Load()
	want := models.DefaultSettings()
	if got != want {
		t.Fatalf("Load on absent file = %+v, want defaults %+v", got, want)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "scraper_config.json"))

	cfg := models.DefaultSettings()
	cfg.MaxPages = 5
	cfg.PerPageTimeoutSeconds = 20
	if err := store.Save(cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}

	if got := store.Load(); got != cfg {
		t.Fatalf("round trip = %+v, want %+v", got, cfg)
	}
}

func TestSaveRejectsInvalid(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "scraper_config.json"))

	cfg := models.DefaultSettings()
	cfg.MaxPages = 0
	err := store.Save(cfg)
	if !errors.Is(err, models.ErrSettingsValidation) {
		t.Fatalf("Save(invalid) = %v, want ErrSettingsValidation", err)
	}

	// A rejected save must not create or clobber the settings file.
	if _, statErr := os.Stat(store.path); !os.IsNotExist(statErr) {
		t.Fatal("invalid settings were persisted")
	}
}

func TestLoadCorruptFallsBackToDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scraper_config.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	got := NewStore(path).Load()
	if got != models.DefaultSettings() {
		t.Fatalf("corrupt file did not fall back to defaults: %+v", got)
	}
}

func TestValidate(t *testing.T) {
	valid := models.DefaultSettings()

	tests := []struct {
		name   string
		mutate func(*models.Settings)
		ok     bool
	}{
		{"defaults", func(*models.Settings) {}, true},
		{"empty url", func(s *models.Settings) { s.CategoryURL = "" }, false},
		{"relative url", func(s *models.Settings) { s.CategoryURL = "/tags/cars" }, false},
		{"ftp url", func(s *models.Settings) { s.CategoryURL = "ftp://haraj.com.sa/x" }, false},
		{"zero pages", func(s *models.Settings) { s.MaxPages = 0 }, false},
		{"too many pages", func(s *models.Settings) { s.MaxPages = 101 }, false},
		{"zero page timeout", func(s *models.Settings) { s.PerPageTimeoutSeconds = 0 }, false},
		{"run shorter than page", func(s *models.Settings) { s.RunTimeoutSeconds = s.PerPageTimeoutSeconds - 1 }, false},
		{"negative retries", func(s *models.Settings) { s.PageRetryBudget = -1 }, false},
		{"launch budget too big", func(s *models.Settings) { s.LaunchRetryBudget = 2 }, false},
		{"zero listings", func(s *models.Settings) { s.MaxListings = 0 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := Validate(cfg)
			if tt.ok && err != nil {
				t.Fatalf("Validate = %v, want nil", err)
			}
			if !tt.ok {
				if err == nil {
					t.Fatal("Validate accepted invalid settings")
				}
				if !errors.Is(err, models.ErrSettingsValidation) {
					t.Fatalf("error not classified: %v", err)
				}
			}
		})
	}
}
