package models

import "time"

// Well-known listing field names. The Fields map is source-defined and open:
// the load path tolerates names that are not listed here.
const (
	FieldListingID   = "listing_id"
	FieldTitle       = "title"
	FieldDescription = "description"
	FieldPrice       = "price"
	FieldCity        = "city"
	FieldLocation    = "location"
	FieldPostedTime  = "posted_time"
	FieldSellerName  = "seller_name"
	FieldSellerURL   = "seller_url"
	FieldCategory    = "category"
	FieldURL         = "url"
)

// Listing is one classified ad accumulated across scrape runs.
type Listing struct {
	// Fingerprint is the dedup key: derived deterministically from the
	// listing's natural-key fields and unique within the persisted set.
	Fingerprint string `json:"fingerprint"`

	// Fields maps field name → value. The schema is defined by the source
	// and may grow over time without migration.
	Fields map[string]string `json:"fields"`

	Tags   []string `json:"tags,omitempty"`
	Images []string `json:"images,omitempty"`

	FirstSeen time.Time `json:"first_seen"`
	LastSeen  time.Time `json:"last_seen"`
}

// URL returns the listing's source URL, if extracted.
func (l Listing) URL() string { return l.Fields[FieldURL] }

// Title returns the listing's title, if extracted.
func (l Listing) Title() string { return l.Fields[FieldTitle] }

// Candidate is one raw record extracted from a result page, before
// deduplication assigns it a fingerprint and timestamps.
type Candidate struct {
	URL    string
	Fields map[string]string
	Tags   []string
	Images []string
}
