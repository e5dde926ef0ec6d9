package utils

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/JamilPr1/Haraj/models"
)

func listing(fields map[string]string, images int) models.Listing {
	l := models.Listing{Fields: fields}
	for i := 0; i < images; i++ {
		l.Images = append(l.Images, "https://haraj.com.sa/images/x.jpg")
	}
	return l
}

func TestBuildListingStats(t *testing.T) {
	listings := []models.Listing{
		listing(map[string]string{
			models.FieldPrice:    "85,000 ريال",
			models.FieldCity:     "الرياض",
			models.FieldCategory: "حراج السيارات",
		}, 3),
		listing(map[string]string{
			models.FieldCity:       "الرياض",
			models.FieldCategory:   "حراج السيارات",
			models.FieldSellerName: "عبدالله",
		}, 0),
		listing(map[string]string{}, 1),
	}

	stats := BuildListingStats(listings)

	if stats.Total != 3 {
		t.Errorf("total = %d", stats.Total)
	}
	if stats.WithPrice != 1 || stats.WithSeller != 1 {
		t.Errorf("with_price=%d with_seller=%d, want 1/1", stats.WithPrice, stats.WithSeller)
	}
	if stats.WithImages != 2 || stats.ImageCount != 4 {
		t.Errorf("with_images=%d image_count=%d, want 2/4", stats.WithImages, stats.ImageCount)
	}

	// Most common city first; the missing city buckets as Unknown.
	if len(stats.ByCity) != 2 || stats.ByCity[0].Name != "الرياض" || stats.ByCity[0].Count != 2 {
		t.Errorf("by_city = %#v", stats.ByCity)
	}
	if stats.ByCity[1].Name != "Unknown" {
		t.Errorf("missing city not bucketed: %#v", stats.ByCity)
	}
}

func TestBuildListingStatsEmpty(t *testing.T) {
	stats := BuildListingStats(nil)
	if stats.Total != 0 || stats.ByCity != nil {
		t.Errorf("empty stats = %#v", stats)
	}
}

func TestWriteCSV(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	listings := []models.Listing{{
		Fingerprint: "fp-1",
		Fields: map[string]string{
			models.FieldListingID: "11173528712",
			models.FieldTitle:     "تويوتا كامري",
			models.FieldPrice:     "85,000 ريال",
			models.FieldURL:       "https://haraj.com.sa/11173528712/x/",
		},
		Tags:      []string{"حراج السيارات", "تويوتا"},
		Images:    []string{"a.jpg", "b.jpg"},
		FirstSeen: now,
		LastSeen:  now,
	}}

	var buf bytes.Buffer
	total, err := WriteCSV(&buf, listings)
	if err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	if total != 1 {
		t.Fatalf("rows written = %d, want 1", total)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("re-read csv: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want header + 1", len(rows))
	}
	if len(rows[0]) != len(CSVHeader) {
		t.Fatalf("header has %d columns, want %d", len(rows[0]), len(CSVHeader))
	}

	row := rows[1]
	if row[0] != "11173528712" {
		t.Errorf("listing_id = %q", row[0])
	}
	if row[11] != "2" {
		t.Errorf("image_count = %q, want 2", row[11])
	}
	if !strings.Contains(row[12], "تويوتا") {
		t.Errorf("tags = %q", row[12])
	}
	if row[13] != "2026-08-01T12:00:00Z" {
		t.Errorf("first_seen = %q", row[13])
	}
}

func TestWriteCSVEmptySet(t *testing.T) {
	var buf bytes.Buffer
	total, err := WriteCSV(&buf, nil)
	if err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	if total != 0 {
		t.Errorf("rows = %d, want 0", total)
	}
	// Header only.
	if got := strings.Count(buf.String(), "\n"); got != 1 {
		t.Errorf("lines = %d, want 1", got)
	}
}
