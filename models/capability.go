package models

import "time"

// Capability is a point-in-time fact about whether a usable browser binary
// exists on the current host. It is re-probed at the start of each job and
// never cached across job boundaries.
type Capability struct {
	Available  bool      `json:"available"`
	BinaryPath string    `json:"binary_path,omitempty"`
	Version    string    `json:"version,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	CheckedAt  time.Time `json:"checked_at"`
}
