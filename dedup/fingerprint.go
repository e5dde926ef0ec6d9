// Package dedup derives stable listing identities and merges freshly
// extracted candidates into the durable listing set.
package dedup

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"regexp"
	"strings"

	"github.com/JamilPr1/Haraj/models"
)

// Haraj listing URLs embed a numeric post id of at least ten digits:
// /11173528712/some-title/. The threshold matches the extractor's listing
// link pattern so both sides agree on what counts as an id.
var listingIDRe = regexp.MustCompile(`/(\d{10,})(?:/|$)`)

// Fingerprint computes the dedup key for a candidate.
//
// Natural key: the numeric listing id from the URL path when present,
// otherwise the cleaned URL path, concatenated with the normalized title.
// Normalization lowercases and collapses whitespace so casing or spacing
// drift in the source text never changes identity.
func Fingerprint(c models.Candidate) string {
	key := NaturalKey(c.URL)
	title := normalize(c.Fields[models.FieldTitle])

	sum := sha256.Sum256([]byte(key + "|" + title))
	return hex.EncodeToString(sum[:])
}

// NaturalKey extracts the URL-derived half of the identity.
func NaturalKey(rawURL string) string {
	if m := listingIDRe.FindStringSubmatch(rawURL); m != nil {
		return m[1]
	}
	if u, err := url.Parse(rawURL); err == nil && u.Path != "" {
		return strings.Trim(strings.ToLower(u.Path), "/")
	}
	return normalize(rawURL)
}

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
