package config

import (
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v2"
)

// Config holds all runtime configuration for the service. Scrape parameters
// (page limits, timeouts, retry budgets) live in models.Settings and are
// managed by the settings store, not here.
type Config struct {
	ListenAddr string `yaml:"listen_addr"`
	DataDir    string `yaml:"data_dir"`

	// StoreBackend selects the durable store: "file" or "postgres".
	StoreBackend string `yaml:"store_backend"`

	// Timing
	PageDelayMin  time.Duration `yaml:"page_delay_min"`
	PageDelayMax  time.Duration `yaml:"page_delay_max"`
	LaunchTimeout time.Duration `yaml:"launch_timeout"`

	// PostgreSQL (used when StoreBackend == "postgres")
	DBHost     string `yaml:"db_host"`
	DBPort     int    `yaml:"db_port"`
	DBUser     string `yaml:"db_user"`
	DBPassword string `yaml:"db_password"`
	DBName     string `yaml:"db_name"`
	DBSSLMode  string `yaml:"db_sslmode"`
}

// Default returns a Config populated from defaults and environment overrides.
func Default() Config {
	return Config{
		ListenAddr:   getEnv("LISTEN_ADDR", ":8080"),
		DataDir:      getEnv("DATA_DIR", "scraped_data"),
		StoreBackend: getEnv("STORE_BACKEND", "file"),

		PageDelayMin:  1200 * time.Millisecond,
		PageDelayMax:  2500 * time.Millisecond,
		LaunchTimeout: 30 * time.Second,

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnvInt("DB_PORT", 5432),
		DBUser:     getEnv("DB_USER", "haraj"),
		DBPassword: getEnv("DB_PASSWORD", "haraj"),
		DBName:     getEnv("DB_NAME", "haraj_scraper"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),
	}
}

// Load returns the default Config overlaid with configs/app.yaml when the
// file exists. Env overrides still win for values they cover because Default
// reads them first and the yaml file only replaces non-zero fields it sets.
func Load() (Config, error) {
	cfg := Default()

	path := filepath.Join("configs", "app.yaml")
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// SnapshotPath is the canonical listing snapshot location for the file store.
func (c Config) SnapshotPath() string {
	return filepath.Join(c.DataDir, "listings.json")
}

// SettingsPath is the persisted scrape-settings location.
func (c Config) SettingsPath() string {
	return filepath.Join(c.DataDir, "scraper_config.json")
}

// RandomDelay returns a polite randomized pause used between page loads.
func (c Config) RandomDelay() time.Duration {
	if c.PageDelayMax <= c.PageDelayMin {
		return c.PageDelayMin
	}
	spread := c.PageDelayMax - c.PageDelayMin
	return c.PageDelayMin + time.Duration(rand.Int63n(int64(spread)))
}

// UserAgents is the rotation pool; one entry is picked per job.
var UserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:121.0) Gecko/20100101 Firefox/121.0",
}

// RandomUserAgent picks one entry from the rotation pool.
func RandomUserAgent() string {
	return UserAgents[rand.Intn(len(UserAgents))]
}

func getEnv(key string, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return parsed
}
