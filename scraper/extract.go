package scraper

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/JamilPr1/Haraj/models"
)

// ResultPage is the outcome of parsing one search/category results page.
type ResultPage struct {
	// Candidates are listing stubs in page order, keyed by URL with the
	// link text as a provisional title.
	Candidates []models.Candidate
	// ParseErrors counts items that were present but unusable.
	ParseErrors int
	// EndOfResults is set when the page carries an explicit no-more-results
	// marker. A page with zero candidates also ends pagination; this flag
	// just distinguishes the explicit case in logs.
	EndOfResults bool
}

// ExtractResultPage parses a rendered results page into candidate stubs.
// Per-item failures are dropped and counted, never escalated: one mangled
// card must not abort the rest of the page.
func ExtractResultPage(html, baseURL string) (ResultPage, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ResultPage{}, fmt.Errorf("parse results page: %w", err)
	}

	var page ResultPage
	seen := make(map[string]bool)

	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		if !ListingLinkRe.MatchString(href) {
			return
		}

		abs, err := absoluteURL(baseURL, href)
		if err != nil {
			page.ParseErrors++
			return
		}
		if !strings.HasSuffix(abs, "/") {
			abs += "/"
		}
		if seen[abs] {
			return
		}
		seen[abs] = true

		title := firstLine(sel.Text())
		page.Candidates = append(page.Candidates, models.Candidate{
			URL: abs,
			Fields: map[string]string{
				models.FieldTitle: title,
			},
		})
	})

	body := doc.Find("body").Text()
	for _, marker := range NoResultsMarkers {
		if strings.Contains(body, marker) {
			page.EndOfResults = true
			break
		}
	}

	return page, nil
}

// ExtractDetailPage parses a rendered listing detail page into a candidate.
// A page without a title is unusable and returns an error, which the caller
// records as a non-fatal parse failure against the job.
func ExtractDetailPage(html, pageURL string) (models.Candidate, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return models.Candidate{}, fmt.Errorf("parse detail page: %w", err)
	}

	c := models.Candidate{
		URL:    pageURL,
		Fields: map[string]string{},
	}

	title := strings.TrimSpace(doc.Find(TitleSelector).First().Text())
	if title == "" {
		return models.Candidate{}, fmt.Errorf("detail page %s: missing title", pageURL)
	}
	c.Fields[models.FieldTitle] = title

	if id := NaturalID(pageURL); id != "" {
		c.Fields[models.FieldListingID] = id
	}

	if desc := strings.TrimSpace(doc.Find(DescriptionSelector).First().Text()); desc != "" {
		c.Fields[models.FieldDescription] = desc
	}

	if price := PriceRe.FindString(doc.Find("body").Text()); price != "" {
		c.Fields[models.FieldPrice] = strings.Join(strings.Fields(price), " ")
	}

	if city := strings.TrimSpace(doc.Find(CitySelector).First().Text()); city != "" {
		c.Fields[models.FieldCity] = city
		c.Fields[models.FieldLocation] = city
	}

	if seller := doc.Find(SellerSelector).First(); seller.Length() > 0 {
		if name := strings.TrimSpace(seller.Text()); name != "" {
			c.Fields[models.FieldSellerName] = name
		}
		if href, ok := seller.Attr("href"); ok {
			if abs, err := absoluteURL(pageURL, href); err == nil {
				c.Fields[models.FieldSellerURL] = abs
			}
		}
	}

	doc.Find(TagSelector).Each(func(_ int, sel *goquery.Selection) {
		if tag := strings.TrimSpace(sel.Text()); tag != "" {
			c.Tags = append(c.Tags, tag)
		}
	})
	if len(c.Tags) > 0 {
		c.Fields[models.FieldCategory] = c.Tags[0]
	}

	if posted := findPostedTime(doc); posted != "" {
		c.Fields[models.FieldPostedTime] = posted
	}

	c.Images = extractImages(doc, pageURL)

	return c, nil
}

// NaturalID pulls the numeric listing id out of a listing URL path.
func NaturalID(rawURL string) string {
	if m := ListingLinkRe.FindString(rawURL); m != "" {
		parts := strings.Split(strings.Trim(m, "/"), "/")
		if len(parts) > 0 {
			return parts[0]
		}
	}
	return ""
}

func findPostedTime(doc *goquery.Document) string {
	var posted string
	doc.Find("span, time, div").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		text := strings.TrimSpace(sel.Text())
		if text == "" || len(text) > 60 {
			return true
		}
		for _, marker := range PostedTimeMarkers {
			if strings.Contains(text, marker) {
				posted = text
				return false
			}
		}
		return true
	})
	return posted
}

func extractImages(doc *goquery.Document, pageURL string) []string {
	var images []string
	seen := make(map[string]bool)

	doc.Find(ImageSelector).Each(func(_ int, sel *goquery.Selection) {
		src, ok := sel.Attr("src")
		if !ok || src == "" {
			src, _ = sel.Attr("data-src")
		}
		if src == "" {
			src, _ = sel.Attr("data-lazy-src")
		}
		if src == "" {
			return
		}
		lower := strings.ToLower(src)
		for _, marker := range ImageExcludeMarkers {
			if strings.Contains(lower, marker) {
				return
			}
		}
		abs, err := absoluteURL(pageURL, src)
		if err != nil || seen[abs] {
			return
		}
		seen[abs] = true
		images = append(images, abs)
	})
	return images
}

func absoluteURL(base, href string) (string, error) {
	b, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	h, err := url.Parse(href)
	if err != nil {
		return "", err
	}
	return b.ResolveReference(h).String(), nil
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
