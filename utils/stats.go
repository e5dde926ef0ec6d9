package utils

import (
	"sort"

	"github.com/JamilPr1/Haraj/models"
)

type NameCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// ListingStats summarizes the accumulated listing set for the dashboard.
type ListingStats struct {
	Total      int         `json:"total"`
	WithPrice  int         `json:"with_price"`
	WithImages int         `json:"with_images"`
	WithSeller int         `json:"with_seller"`
	ImageCount int         `json:"image_count"`
	ByCity     []NameCount `json:"by_city"`
	ByCategory []NameCount `json:"by_category"`
}

// BuildListingStats computes totals and per-city/per-category breakdowns.
func BuildListingStats(listings []models.Listing) ListingStats {
	stats := ListingStats{Total: len(listings)}
	if len(listings) == 0 {
		return stats
	}

	cities := make(map[string]int)
	categories := make(map[string]int)

	for _, l := range listings {
		if l.Fields[models.FieldPrice] != "" {
			stats.WithPrice++
		}
		if l.Fields[models.FieldSellerName] != "" {
			stats.WithSeller++
		}
		if len(l.Images) > 0 {
			stats.WithImages++
			stats.ImageCount += len(l.Images)
		}

		city := l.Fields[models.FieldCity]
		if city == "" {
			city = "Unknown"
		}
		cities[city]++

		category := l.Fields[models.FieldCategory]
		if category == "" {
			category = "Unknown"
		}
		categories[category]++
	}

	stats.ByCity = sortedCounts(cities)
	stats.ByCategory = sortedCounts(categories)
	return stats
}

func sortedCounts(m map[string]int) []NameCount {
	out := make([]NameCount, 0, len(m))
	for name, count := range m {
		out = append(out, NameCount{Name: name, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count == out[j].Count {
			return out[i].Name < out[j].Name
		}
		return out[i].Count > out[j].Count
	})
	return out
}
