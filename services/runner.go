// Package services ties the scrape pipeline together: settings validation,
// capability probing, browser session lifecycle, pagination, dedup merge,
// and snapshot persistence, all recorded on a ScrapeJob.
package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JamilPr1/Haraj/config"
	"github.com/JamilPr1/Haraj/dedup"
	"github.com/JamilPr1/Haraj/models"
	"github.com/JamilPr1/Haraj/scraper"
	"github.com/JamilPr1/Haraj/settings"
	"github.com/JamilPr1/Haraj/storage"
)

// historyLimit bounds the in-memory job history.
const historyLimit = 50

// SessionFactory opens a browser session for one job. Swapped out in tests.
type SessionFactory func(ctx context.Context, cap models.Capability, st models.Settings) (scraper.PageSession, error)

// Runner owns the ScrapeJob lifecycle. Exactly one job may be active at a
// time process-wide; a second trigger is rejected, not queued.
type Runner struct {
	cfg        config.Config
	store      storage.Store
	settings   *settings.Store
	locate     func() models.Capability
	newSession SessionFactory

	mu      sync.Mutex
	active  bool
	jobs    map[string]*models.ScrapeJob
	order   []string
	lastCap models.Capability
}

// New builds a Runner using the real chromedp session factory.
func New(cfg config.Config, store storage.Store, st *settings.Store) *Runner {
	return &Runner{
		cfg:      cfg,
		store:    store,
		settings: st,
		locate:   scraper.Locate,
		newSession: func(ctx context.Context, cap models.Capability, s models.Settings) (scraper.PageSession, error) {
			sess := scraper.NewSession(cfg, s)
			if err := sess.Open(ctx, cap); err != nil {
				return nil, err
			}
			return sess, nil
		},
	}
}

// NewWithHooks builds a Runner with injectable probe and session factory.
func NewWithHooks(cfg config.Config, store storage.Store, st *settings.Store,
	locate func() models.Capability, factory SessionFactory) *Runner {
	r := New(cfg, store, st)
	if locate != nil {
		r.locate = locate
	}
	if factory != nil {
		r.newSession = factory
	}
	return r
}

// Capability re-probes the host and returns the fresh result. The probe is
// never cached across job boundaries: the hosting environment may change
// between deployments.
func (r *Runner) Capability() models.Capability {
	cap := r.locate()
	r.mu.Lock()
	r.lastCap = cap
	r.mu.Unlock()
	return cap
}

// Trigger starts a job asynchronously and returns its initial record.
// While a job is running, further triggers fail with ErrJobAlreadyRunning
// and no second record is created.
func (r *Runner) Trigger(ctx context.Context) (models.ScrapeJob, error) {
	job, err := r.begin()
	if err != nil {
		return models.ScrapeJob{}, err
	}

	go func() {
		// The job owns its own lifetime; the trigger request's context
		// ends with the HTTP exchange.
		r.run(context.Background(), job.ID)
	}()

	return job, nil
}

// RunOnce executes a job synchronously and returns its terminal record.
func (r *Runner) RunOnce(ctx context.Context) (models.ScrapeJob, error) {
	job, err := r.begin()
	if err != nil {
		return models.ScrapeJob{}, err
	}
	r.run(ctx, job.ID)
	final, _ := r.Status(job.ID)
	return final, nil
}

// Status returns the record for a job ID.
func (r *Runner) Status(id string) (models.ScrapeJob, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[id]
	if !ok {
		return models.ScrapeJob{}, false
	}
	return *j, true
}

// Latest returns the most recently started job.
func (r *Runner) Latest() (models.ScrapeJob, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.order) == 0 {
		return models.ScrapeJob{}, false
	}
	return *r.jobs[r.order[len(r.order)-1]], true
}

func (r *Runner) begin() (models.ScrapeJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active {
		return models.ScrapeJob{}, models.ErrJobAlreadyRunning
	}
	r.active = true

	job := &models.ScrapeJob{
		ID:        uuid.New().String(),
		Status:    models.JobPending,
		StartedAt: time.Now().UTC(),
	}
	if r.jobs == nil {
		r.jobs = make(map[string]*models.ScrapeJob)
	}
	r.jobs[job.ID] = job
	r.order = append(r.order, job.ID)
	if len(r.order) > historyLimit {
		delete(r.jobs, r.order[0])
		r.order = r.order[1:]
	}
	return *job, nil
}

// run executes the pipeline for an already-registered job.
func (r *Runner) run(ctx context.Context, jobID string) {
	defer func() {
		r.mu.Lock()
		r.active = false
		r.mu.Unlock()
	}()

	prefix := "[job " + shortID(jobID) + "]"
	log.Printf("%s ▶ starting", prefix)

	st := r.settings.Load()
	if err := settings.Validate(st); err != nil {
		r.fail(ctx, jobID, err, prefix)
		return
	}

	r.update(jobID, func(j *models.ScrapeJob) { j.Status = models.JobRunning })

	cap := r.Capability()
	if !cap.Available {
		log.Printf("%s ✗ browser unavailable: %s", prefix, cap.Reason)
		r.fail(ctx, jobID, fmt.Errorf("%w: %s", models.ErrDriverUnavailable, cap.Reason), prefix)
		return
	}
	log.Printf("%s browser: %s (%s)", prefix, cap.BinaryPath, cap.Version)

	runCtx, cancel := context.WithTimeout(ctx, st.RunTimeout())
	defer cancel()

	res, runErr := r.paginate(runCtx, cap, st, prefix)

	// Partial results and the terminal job record are persisted no matter
	// how the run ended.
	persistErr := r.persist(ctx, jobID, res, runErr)

	err := runErr
	if err == nil {
		err = persistErr
	}
	r.finish(jobID, &res, err, prefix)
}

// fail records a job that never reached pagination, in memory and in the
// durable snapshot's job metadata.
func (r *Runner) fail(ctx context.Context, jobID string, err error, prefix string) {
	if pErr := r.persist(ctx, jobID, scraper.RunResult{}, err); pErr != nil {
		log.Printf("%s ⚠ record job metadata: %v", prefix, pErr)
	}
	r.finish(jobID, nil, err, prefix)
}

// paginate owns the browser session for the run: scoped acquisition with a
// guaranteed close on every exit path, and at most one full re-launch after
// a crash (bounded by the launch retry budget).
func (r *Runner) paginate(ctx context.Context, cap models.Capability, st models.Settings, prefix string) (scraper.RunResult, error) {
	sess, err := r.newSession(ctx, cap, st)
	if err != nil {
		return scraper.RunResult{}, err
	}
	defer sess.Close()

	pg := &scraper.Paginator{
		Session:  sess,
		Settings: st,
		Delay:    r.cfg.RandomDelay,
		Prefix:   prefix,
	}

	res, err := pg.Run(ctx, 1, 0)
	if err == nil || !sess.Crashed() || st.LaunchRetryBudget < 1 {
		return res, err
	}

	// Crash recovery: one full re-launch per job, resuming at the page the
	// crashed pass was on. A second crash fails the job.
	log.Printf("%s ⚠ browser crashed on page %d, relaunching", prefix, res.NextPage)
	sess.Close()

	fresh := r.Capability()
	if !fresh.Available {
		return res, fmt.Errorf("%w after crash: %s", models.ErrDriverUnavailable, fresh.Reason)
	}
	sess2, err := r.newSession(ctx, fresh, st)
	if err != nil {
		return res, err
	}
	defer sess2.Close()

	pg.Session = sess2
	// Remaining listing budget shrinks by what the first pass collected.
	resumed := st
	resumed.MaxListings = st.MaxListings - len(res.Candidates)
	if resumed.MaxListings < 1 {
		return res, nil
	}
	pg.Settings = resumed

	res2, err := pg.Run(ctx, res.NextPage, 0)
	res.Candidates = append(res.Candidates, res2.Candidates...)
	res.PagesVisited += res2.PagesVisited
	res.ParseErrors += res2.ParseErrors
	res.NextPage = res2.NextPage
	return res, err
}

// persist merges the run's candidates into the loaded set and snapshots.
// The snapshot's job metadata carries the run's terminal outcome, computed
// from runErr, so a dashboard reading the store after a restart sees the
// real last-run status. Runs with no candidates still record metadata.
func (r *Runner) persist(ctx context.Context, jobID string, res scraper.RunResult, runErr error) error {
	snap, err := r.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("%w: load before merge: %v", models.ErrPersistenceWrite, err)
	}

	listings := snap.Listings
	if len(res.Candidates) > 0 {
		existing := make(map[string]models.Listing, len(snap.Listings))
		for _, l := range snap.Listings {
			existing[l.Fingerprint] = l
		}

		merged := dedup.Merge(res.Candidates, existing, time.Now().UTC())
		r.update(jobID, func(j *models.ScrapeJob) {
			j.ListingsNew = merged.New
			j.ListingsUpdated = merged.Updated
		})

		listings = make([]models.Listing, 0, len(merged.Set))
		for _, l := range merged.Set {
			listings = append(listings, l)
		}
		sortListings(listings)
	}

	job, _ := r.Status(jobID)
	job.PagesVisited = res.PagesVisited
	job.ParseErrors = res.ParseErrors
	job.FinishedAt = time.Now().UTC()
	job.Status, job.ErrorCode, job.ErrorMessage = terminalState(runErr)

	return r.store.Snapshot(ctx, models.Snapshot{
		Listings: listings,
		LastJob:  &job,
		SavedAt:  time.Now().UTC(),
	})
}

// finish assigns the terminal status and logs the outcome.
func (r *Runner) finish(jobID string, res *scraper.RunResult, err error, prefix string) {
	r.update(jobID, func(j *models.ScrapeJob) {
		if res != nil {
			j.PagesVisited = res.PagesVisited
			j.ParseErrors = res.ParseErrors
		}
		j.FinishedAt = time.Now().UTC()
		j.Status, j.ErrorCode, j.ErrorMessage = terminalState(err)
	})

	job, _ := r.Status(jobID)
	if err == nil {
		log.Printf("%s ✓ %s — pages=%d new=%d updated=%d parse_errors=%d",
			prefix, job.Status, job.PagesVisited, job.ListingsNew, job.ListingsUpdated, job.ParseErrors)
	} else {
		log.Printf("%s ✗ %s (%s): %v", prefix, job.Status, job.ErrorCode, err)
	}
}

func (r *Runner) update(jobID string, fn func(*models.ScrapeJob)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if j, ok := r.jobs[jobID]; ok && !j.Terminal() {
		fn(j)
	}
}

// terminalState maps a run's final error to the job's terminal status.
func terminalState(err error) (models.JobStatus, string, string) {
	switch {
	case err == nil:
		return models.JobSucceeded, "", ""
	case errors.Is(err, models.ErrRunTimeout):
		return models.JobTimedOut, models.ErrorCode(err), err.Error()
	default:
		return models.JobFailed, models.ErrorCode(err), err.Error()
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// sortListings gives the snapshot a stable order: oldest first, fingerprint
// as tiebreak.
func sortListings(listings []models.Listing) {
	sort.Slice(listings, func(i, j int) bool {
		if !listings[i].FirstSeen.Equal(listings[j].FirstSeen) {
			return listings[i].FirstSeen.Before(listings[j].FirstSeen)
		}
		return listings[i].Fingerprint < listings[j].Fingerprint
	})
}
