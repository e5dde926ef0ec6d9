package models

import "time"

// Snapshot is a complete, atomically-written copy of the durable listing set
// plus the metadata of the job that produced it. Readers always observe
// either the prior complete snapshot or the new one, never a mix.
type Snapshot struct {
	Listings []Listing  `json:"listings"`
	LastJob  *ScrapeJob `json:"last_job,omitempty"`
	SavedAt  time.Time  `json:"saved_at"`
}
