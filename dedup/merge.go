package dedup

import (
	"time"

	"github.com/JamilPr1/Haraj/models"
)

// MergeResult reports the outcome of merging one run's candidates.
type MergeResult struct {
	Set     map[string]models.Listing
	New     int
	Updated int
}

// Merge folds candidates into the existing listing set keyed by fingerprint.
// Unknown fingerprints become new listings with first_seen = now; known ones
// get their mutable fields refreshed and last_seen = now, first_seen
// untouched. The input set is not mutated.
//
// Merge is idempotent: re-running the same candidates against the resulting
// set yields the identical set with New == 0.
func Merge(candidates []models.Candidate, existing map[string]models.Listing, now time.Time) MergeResult {
	out := make(map[string]models.Listing, len(existing)+len(candidates))
	for fp, l := range existing {
		out[fp] = l
	}

	res := MergeResult{Set: out}
	seen := make(map[string]bool, len(candidates))

	for _, c := range candidates {
		fp := Fingerprint(c)

		prev, known := out[fp]
		if !known {
			out[fp] = newListing(fp, c, now)
			res.New++
			seen[fp] = true
			continue
		}

		merged := updateListing(prev, c, now)
		out[fp] = merged
		// A fingerprint repeated within one candidate batch counts once.
		if !seen[fp] {
			res.Updated++
			seen[fp] = true
		}
	}

	return res
}

func newListing(fp string, c models.Candidate, now time.Time) models.Listing {
	fields := make(map[string]string, len(c.Fields)+1)
	for k, v := range c.Fields {
		fields[k] = v
	}
	fields[models.FieldURL] = c.URL

	return models.Listing{
		Fingerprint: fp,
		Fields:      fields,
		Tags:        append([]string(nil), c.Tags...),
		Images:      append([]string(nil), c.Images...),
		FirstSeen:   now,
		LastSeen:    now,
	}
}

func updateListing(prev models.Listing, c models.Candidate, now time.Time) models.Listing {
	fields := make(map[string]string, len(prev.Fields)+len(c.Fields))
	for k, v := range prev.Fields {
		fields[k] = v
	}
	// Candidate values win, but never blank out a previously seen value.
	for k, v := range c.Fields {
		if v != "" {
			fields[k] = v
		}
	}
	if c.URL != "" {
		fields[models.FieldURL] = c.URL
	}

	prev.Fields = fields
	if len(c.Tags) > 0 {
		prev.Tags = append([]string(nil), c.Tags...)
	}
	if len(c.Images) > 0 {
		prev.Images = append([]string(nil), c.Images...)
	}
	prev.LastSeen = now
	return prev
}
