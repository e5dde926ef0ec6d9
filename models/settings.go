package models

import "time"

// Settings is the validated scrape configuration. It is persisted
// independently of the listing snapshot so a failed scrape can never lose
// configuration.
type Settings struct {
	// CategoryURL is the haraj.com.sa category (or search) page to scrape.
	CategoryURL string `json:"category_url"`

	MaxPages    int `json:"max_pages"`
	MaxListings int `json:"max_listings"`

	PerPageTimeoutSeconds int `json:"per_page_timeout_seconds"`
	RunTimeoutSeconds     int `json:"run_timeout_seconds"`

	PageRetryBudget   int `json:"page_retry_budget"`
	LaunchRetryBudget int `json:"launch_retry_budget"`

	Headless bool `json:"headless"`

	// FetchDetails controls whether each listing's detail page is visited
	// for extended metadata after the result page is parsed.
	FetchDetails bool `json:"fetch_details"`
}

// PerPageTimeout returns the per-page navigation bound.
func (s Settings) PerPageTimeout() time.Duration {
	return time.Duration(s.PerPageTimeoutSeconds) * time.Second
}

// RunTimeout returns the whole-run bound.
func (s Settings) RunTimeout() time.Duration {
	return time.Duration(s.RunTimeoutSeconds) * time.Second
}

// DefaultSettings returns the configuration used when none is persisted.
func DefaultSettings() Settings {
	return Settings{
		CategoryURL:           "https://haraj.com.sa/tags/%D8%AD%D8%B1%D8%A7%D8%AC%20%D8%A7%D9%84%D8%B3%D9%8A%D8%A7%D8%B1%D8%A7%D8%AA",
		MaxPages:              10,
		MaxListings:           50,
		PerPageTimeoutSeconds: 30,
		RunTimeoutSeconds:     900,
		PageRetryBudget:       2,
		LaunchRetryBudget:     1,
		Headless:              true,
		FetchDetails:          true,
	}
}
