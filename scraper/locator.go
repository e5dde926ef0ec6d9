package scraper

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/JamilPr1/Haraj/models"
)

// Browser binaries probed in order. PATH lookups first, then the fixed
// locations used by common Linux installs and container images.
var browserNames = []string{
	"chromium",
	"chromium-browser",
	"google-chrome",
	"google-chrome-stable",
	"headless-shell",
}

var browserPaths = []string{
	"/usr/bin/chromium",
	"/usr/bin/chromium-browser",
	"/usr/bin/google-chrome",
	"/usr/bin/google-chrome-stable",
	"/opt/google/chrome/chrome",
	"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
}

// Locate probes the host for a usable browser binary and reports the result
// as a Capability. It never returns an error: absence or incompatibility is
// expressed through Available=false plus a human-readable Reason.
//
// The probe is read-only (filesystem checks and a --version execution) and
// deterministic for a given host state. Callers re-probe at the start of
// every job; the result is never cached across jobs.
func Locate() models.Capability {
	cap := models.Capability{CheckedAt: time.Now().UTC()}

	var candidates []string
	for _, name := range browserNames {
		if p, err := exec.LookPath(name); err == nil {
			candidates = append(candidates, p)
		}
	}
	for _, p := range browserPaths {
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			candidates = append(candidates, p)
		}
	}

	if len(candidates) == 0 {
		cap.Reason = "no Chrome or Chromium binary found in PATH or standard locations"
		return cap
	}

	var failures []string
	for _, path := range candidates {
		version, err := probeVersion(path)
		if err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", path, err))
			continue
		}
		cap.Available = true
		cap.BinaryPath = path
		cap.Version = version
		cap.Reason = ""
		return cap
	}

	cap.Reason = "browser binaries found but none runnable: " + strings.Join(failures, "; ")
	return cap
}

// probeVersion runs `binary --version` with a short deadline. A binary that
// cannot report its version (missing shared libraries, wrong architecture)
// is treated as unusable.
func probeVersion(path string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	out, err := exec.CommandContext(ctx, path, "--version").Output()
	if err != nil {
		return "", fmt.Errorf("version check failed: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}
