package scraper

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/JamilPr1/Haraj/models"
)

// RunResult accumulates everything a pagination pass produced. It is always
// returned, error or not: partial results are preserved, never discarded.
type RunResult struct {
	Candidates   []models.Candidate
	PagesVisited int
	ParseErrors  int
	// NextPage is where a resumed pass should continue after a browser
	// crash mid-run.
	NextPage int
}

// Paginator drives one session across result pages until an end condition:
// an empty page (or explicit no-results marker), max_pages, max_listings, or
// the whole-run deadline on ctx.
type Paginator struct {
	Session  PageSession
	Settings models.Settings
	// Delay paces page loads; nil means no delay (tests).
	Delay func() time.Duration
	// Prefix tags log lines, teacher-style: "[job-id]".
	Prefix string
}

// Run paginates starting at startPage (1-based). Per-page navigation
// timeouts consume retries; when the budget runs out the pass ends with
// models.ErrPageRetryExhausted. Expiry of ctx ends the pass with
// models.ErrRunTimeout. Both preserve the candidates gathered so far.
func (p *Paginator) Run(ctx context.Context, startPage int, retriesUsed int) (RunResult, error) {
	res := RunResult{NextPage: startPage}
	if startPage < 1 {
		startPage = 1
		res.NextPage = 1
	}
	retries := retriesUsed

	for page := startPage; page <= p.Settings.MaxPages; page++ {
		// Cancellation is cooperative: checked between pages only.
		if err := ctx.Err(); err != nil {
			return res, fmt.Errorf("%w: before page %d", models.ErrRunTimeout, page)
		}
		res.NextPage = page

		pageURL := pageURL(p.Settings.CategoryURL, page)
		log.Printf("%s search page %d/%d", p.Prefix, page, p.Settings.MaxPages)

		var result ResultPage
		for {
			err := p.loadAndParse(ctx, pageURL, &result)
			if err == nil {
				break
			}
			// The run deadline interrupting an in-flight page load surfaces
			// as a plain cancellation from the session, not a per-page
			// timeout: classify by the context, not the error text.
			if ctx.Err() != nil {
				return res, fmt.Errorf("%w: page %d", models.ErrRunTimeout, page)
			}
			if !errors.Is(err, models.ErrNavigationTimeout) {
				return res, err
			}
			retries++
			if retries > p.Settings.PageRetryBudget {
				return res, fmt.Errorf("%w: page %d after %d retries",
					models.ErrPageRetryExhausted, page, p.Settings.PageRetryBudget)
			}
			log.Printf("%s ⚠ page %d timed out, retry %d/%d",
				p.Prefix, page, retries, p.Settings.PageRetryBudget)
		}

		res.PagesVisited++
		res.ParseErrors += result.ParseErrors

		if len(result.Candidates) == 0 || result.EndOfResults {
			// A page yielding zero candidates is a legitimate last page.
			log.Printf("%s page %d empty — end of results", p.Prefix, page)
			res.NextPage = page + 1
			return res, nil
		}

		collected, err := p.collect(ctx, result.Candidates, &res)
		if err != nil {
			return res, err
		}
		log.Printf("%s page %d → %d listings (running total: %d)",
			p.Prefix, page, collected, len(res.Candidates))

		if len(res.Candidates) >= p.Settings.MaxListings {
			log.Printf("%s listing cap %d reached", p.Prefix, p.Settings.MaxListings)
			res.NextPage = page + 1
			return res, nil
		}

		if page < p.Settings.MaxPages {
			p.pause()
		}
	}

	res.NextPage = p.Settings.MaxPages + 1
	return res, nil
}

// loadAndParse navigates to a results page and extracts its candidates.
func (p *Paginator) loadAndParse(ctx context.Context, pageURL string, out *ResultPage) error {
	if err := p.Session.Navigate(ctx, pageURL); err != nil {
		return err
	}
	html, err := p.Session.HTML(ctx)
	if err != nil {
		return err
	}
	parsed, err := ExtractResultPage(html, pageURL)
	if err != nil {
		return err
	}
	*out = parsed
	return nil
}

// collect appends candidates up to the listing cap, optionally enriching
// each from its detail page. Detail failures are isolated per listing and
// counted, never escalated.
func (p *Paginator) collect(ctx context.Context, stubs []models.Candidate, res *RunResult) (int, error) {
	collected := 0
	for _, stub := range stubs {
		if len(res.Candidates) >= p.Settings.MaxListings {
			break
		}
		if err := ctx.Err(); err != nil {
			return collected, fmt.Errorf("%w: during collection", models.ErrRunTimeout)
		}

		if !p.Settings.FetchDetails {
			res.Candidates = append(res.Candidates, stub)
			collected++
			continue
		}

		detailed, err := p.fetchDetail(ctx, stub)
		if err != nil {
			if p.Session.Crashed() {
				return collected, fmt.Errorf("detail %s: %w", stub.URL, err)
			}
			res.ParseErrors++
			log.Printf("%s ⚠ detail error: %v", p.Prefix, err)
			continue
		}
		res.Candidates = append(res.Candidates, detailed)
		collected++
		p.pause()
	}
	return collected, nil
}

func (p *Paginator) fetchDetail(ctx context.Context, stub models.Candidate) (models.Candidate, error) {
	if err := p.Session.Navigate(ctx, stub.URL); err != nil {
		return models.Candidate{}, err
	}
	html, err := p.Session.HTML(ctx)
	if err != nil {
		return models.Candidate{}, err
	}
	detailed, err := ExtractDetailPage(html, stub.URL)
	if err != nil {
		return models.Candidate{}, err
	}
	// Keep the search-card title when the detail page had a longer one
	// missing (rare, but the stub is never worse than nothing).
	if detailed.Fields[models.FieldTitle] == "" {
		detailed.Fields[models.FieldTitle] = stub.Fields[models.FieldTitle]
	}
	return detailed, nil
}

func (p *Paginator) pause() {
	if p.Delay == nil {
		return
	}
	time.Sleep(p.Delay())
}

// pageURL appends the original source's ?page=N pagination parameter.
func pageURL(categoryURL string, page int) string {
	if page <= 1 {
		return categoryURL
	}
	sep := "?"
	for _, r := range categoryURL {
		if r == '?' {
			sep = "&"
			break
		}
	}
	return fmt.Sprintf("%s%spage=%d", categoryURL, sep, page)
}
