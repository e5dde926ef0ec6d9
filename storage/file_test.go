package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/JamilPr1/Haraj/models"
)

func testSnapshot(n int) models.Snapshot {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	snap := models.Snapshot{SavedAt: now}
	for i := 0; i < n; i++ {
		snap.Listings = append(snap.Listings, models.Listing{
			Fingerprint: string(rune('a' + i)),
			Fields: map[string]string{
				models.FieldTitle: "listing",
				models.FieldURL:   "https://haraj.com.sa/11173528712/x/",
			},
			FirstSeen: now,
			LastSeen:  now,
		})
	}
	return snap
}

func TestLoadAbsentReturnsEmptySet(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "listings.json"))

	snap, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load on absent store: %v", err)
	}
	if snap.Listings == nil || len(snap.Listings) != 0 {
		t.Fatalf("want empty listing slice, got %#v", snap.Listings)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "listings.json"))
	ctx := context.Background()

	want := testSnapshot(3)
	want.LastJob = &models.ScrapeJob{ID: "job-1", Status: models.JobSucceeded}
	if err := store.Snapshot(ctx, want); err != nil {
		t.Fatalf("Snapshot: %v", err)
	}

	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got.Listings) != 3 {
		t.Fatalf("got %d listings, want 3", len(got.Listings))
	}
	if got.LastJob == nil || got.LastJob.ID != "job-1" {
		t.Fatalf("job metadata lost: %#v", got.LastJob)
	}
}

func TestSnapshotReplacesAtomically(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "listings.json")
	store := NewFileStore(path)
	ctx := context.Background()

	if err := store.Snapshot(ctx, testSnapshot(2)); err != nil {
		t.Fatalf("first snapshot: %v", err)
	}

	// An interrupted later write leaves a stray temp file behind; it must
	// never affect what Load returns.
	stray := filepath.Join(dir, ".listings-12345.json")
	if err := os.WriteFile(stray, []byte(`{"listings": [truncated`), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load after interrupted write: %v", err)
	}
	if len(got.Listings) != 2 {
		t.Fatalf("prior snapshot not preserved: %d listings", len(got.Listings))
	}

	if err := store.Snapshot(ctx, testSnapshot(5)); err != nil {
		t.Fatalf("second snapshot: %v", err)
	}
	got, err = store.Load(ctx)
	if err != nil {
		t.Fatalf("Load after replace: %v", err)
	}
	if len(got.Listings) != 5 {
		t.Fatalf("replacement not visible: %d listings", len(got.Listings))
	}
}

func TestLoadToleratesUnknownFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "listings.json")

	// A snapshot written by a future version with extra fields.
	raw := `{
		"listings": [{
			"fingerprint": "abc",
			"fields": {"title": "x", "brand_new_field": "y"},
			"first_seen": "2026-08-01T12:00:00Z",
			"last_seen": "2026-08-01T12:00:00Z",
			"some_new_top_level": 42
		}],
		"schema_rev": 9
	}`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := NewFileStore(path).Load(context.Background())
	if err != nil {
		t.Fatalf("Load with unknown fields: %v", err)
	}
	if len(got.Listings) != 1 || got.Listings[0].Fingerprint != "abc" {
		t.Fatalf("unexpected listings: %#v", got.Listings)
	}
	if got.Listings[0].Fields["brand_new_field"] != "y" {
		t.Fatal("open field map dropped an unknown field")
	}
}

func TestOpenSelectsBackend(t *testing.T) {
	cfg := configForDir(t.TempDir())
	store, err := Open(cfg)
	if err != nil {
		t.Fatalf("Open(file): %v", err)
	}
	defer store.Close()
	if _, ok := store.(*FileStore); !ok {
		t.Fatalf("want *FileStore, got %T", store)
	}

	cfg.StoreBackend = "bogus"
	if _, err := Open(cfg); err == nil {
		t.Fatal("Open accepted an unknown backend")
	}
}
