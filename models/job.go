package models

import "time"

// JobStatus is the lifecycle state of a scrape job.
type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobRunning   JobStatus = "running"
	JobSucceeded JobStatus = "succeeded"
	JobFailed    JobStatus = "failed"
	JobTimedOut  JobStatus = "timed_out"
)

// ScrapeJob records one end-to-end execution of the scrape pipeline.
// It is mutated only by the runner that owns it and is immutable once
// Terminal reports true.
type ScrapeJob struct {
	ID         string    `json:"id"`
	Status     JobStatus `json:"status"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at,omitempty"`

	// ErrorCode is a taxonomy code (DriverUnavailable, PageRetryExhausted,
	// ...); ErrorMessage is the human-readable reason shown on the dashboard.
	ErrorCode    string `json:"error_code,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`

	PagesVisited    int `json:"pages_visited"`
	ListingsNew     int `json:"listings_new"`
	ListingsUpdated int `json:"listings_updated"`
	ParseErrors     int `json:"parse_errors"`
}

// Terminal reports whether the job has reached a final status.
func (j ScrapeJob) Terminal() bool {
	switch j.Status {
	case JobSucceeded, JobFailed, JobTimedOut:
		return true
	}
	return false
}
