package scraper

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/JamilPr1/Haraj/config"
	"github.com/JamilPr1/Haraj/models"
)

// PageSession is the navigation surface the paginator drives. The chromedp
// Session implements it; tests substitute fakes.
type PageSession interface {
	// Navigate loads url and waits for the document body, bounded by the
	// session's per-page timeout.
	Navigate(ctx context.Context, url string) error
	// HTML returns the rendered outer HTML of the current page.
	HTML(ctx context.Context) (string, error)
	// Crashed reports whether the underlying browser process disappeared.
	Crashed() bool
	// Close releases the browser process. Safe to call on every exit path.
	Close() error
}

// State of a browser session.
type State int

const (
	StateClosed State = iota
	StateLaunching
	StateReady
	StateNavigating
	StateCrashed
)

// Session owns one headless Chrome process via a chromedp exec allocator.
// Exactly one caller may issue navigation commands; the runner serializes
// jobs so no locking is needed on the navigation path.
type Session struct {
	mu    sync.Mutex
	state State

	allocCancel context.CancelFunc
	tabCancel   context.CancelFunc
	tabCtx      context.Context

	launchTimeout  time.Duration
	perPageTimeout time.Duration
	userAgent      string
	headless       bool
}

// NewSession prepares an unopened session. Open must be called before use.
func NewSession(cfg config.Config, st models.Settings) *Session {
	return &Session{
		launchTimeout:  cfg.LaunchTimeout,
		perPageTimeout: st.PerPageTimeout(),
		userAgent:      config.RandomUserAgent(),
		headless:       st.Headless,
	}
}

// Open launches the browser described by cap. It fails with
// models.ErrDriverUnavailable when the capability probe found no browser, and
// with models.ErrLaunchFailure when the process does not come up within the
// launch timeout.
func (s *Session) Open(ctx context.Context, cap models.Capability) error {
	if !cap.Available {
		return fmt.Errorf("%w: %s", models.ErrDriverUnavailable, cap.Reason)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateClosed && s.state != StateCrashed {
		return fmt.Errorf("session already open")
	}
	s.state = StateLaunching

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.ExecPath(cap.BinaryPath),
		chromedp.Flag("headless", s.headless),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("lang", "ar,en"),
		chromedp.UserAgent(s.userAgent),
		chromedp.WindowSize(1920, 1080),
	)

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx)

	// Run an empty task list so the process starts now, under our own
	// timeout, instead of lazily on the first navigation.
	launchCtx, cancel := context.WithTimeout(tabCtx, s.launchTimeout)
	defer cancel()
	if err := chromedp.Run(launchCtx); err != nil {
		tabCancel()
		allocCancel()
		s.state = StateClosed
		return fmt.Errorf("%w: %v", models.ErrLaunchFailure, err)
	}

	s.allocCancel = allocCancel
	s.tabCancel = tabCancel
	s.tabCtx = tabCtx
	s.state = StateReady
	return nil
}

// Navigate loads url within the per-page timeout. A deadline overrun maps to
// models.ErrNavigationTimeout unless the caller's context expired, which the
// caller distinguishes via ctx.Err.
func (s *Session) Navigate(ctx context.Context, url string) error {
	s.mu.Lock()
	if s.state != StateReady {
		state := s.state
		s.mu.Unlock()
		return fmt.Errorf("navigate in state %d", state)
	}
	s.state = StateNavigating
	tabCtx := s.tabCtx
	s.mu.Unlock()

	navCtx, cancel := context.WithTimeout(tabCtx, s.perPageTimeout)
	defer cancel()
	stop := propagateCancel(ctx, cancel)
	defer stop()

	err := chromedp.Run(navCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		// Nudge lazy-loaded cards into the DOM.
		chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight)`, nil),
		chromedp.Sleep(400*time.Millisecond),
		chromedp.Evaluate(`window.scrollTo(0, 0)`, nil),
	)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		if s.tabCtx.Err() != nil {
			// The tab context died underneath us: browser gone.
			s.state = StateCrashed
			return fmt.Errorf("browser process lost during navigation: %v", err)
		}
		s.state = StateReady
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w: %s", models.ErrNavigationTimeout, url)
		}
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	s.state = StateReady
	return nil
}

// HTML returns the rendered outer HTML of the current document.
func (s *Session) HTML(ctx context.Context) (string, error) {
	s.mu.Lock()
	if s.state != StateReady {
		state := s.state
		s.mu.Unlock()
		return "", fmt.Errorf("read page in state %d", state)
	}
	tabCtx := s.tabCtx
	s.mu.Unlock()

	htmlCtx, cancel := context.WithTimeout(tabCtx, s.perPageTimeout)
	defer cancel()
	stop := propagateCancel(ctx, cancel)
	defer stop()

	var html string
	if err := chromedp.Run(htmlCtx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		s.mu.Lock()
		crashed := s.tabCtx != nil && s.tabCtx.Err() != nil
		if crashed {
			s.state = StateCrashed
		}
		s.mu.Unlock()
		if crashed {
			return "", fmt.Errorf("browser process lost reading page: %v", err)
		}
		// A deadline overrun here is the same per-page timeout as during
		// navigation and consumes the same retry budget.
		if errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: reading page html", models.ErrNavigationTimeout)
		}
		return "", fmt.Errorf("read page html: %w", err)
	}
	return html, nil
}

// Crashed reports whether the browser process disappeared mid-session.
func (s *Session) Crashed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateCrashed {
		return true
	}
	if s.tabCtx != nil && s.tabCtx.Err() != nil && s.state != StateClosed {
		s.state = StateCrashed
		return true
	}
	return false
}

// Close releases the browser process handle. It is idempotent and best-effort:
// cancelling the allocator context force-kills Chrome if it is still alive.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tabCancel != nil {
		s.tabCancel()
		s.tabCancel = nil
	}
	if s.allocCancel != nil {
		s.allocCancel()
		s.allocCancel = nil
	}
	s.tabCtx = nil
	s.state = StateClosed
	return nil
}

// propagateCancel cancels cancelFn when ctx is done, so an aborted job
// interrupts an in-flight chromedp task. The returned stop func releases the
// watcher goroutine.
func propagateCancel(ctx context.Context, cancelFn context.CancelFunc) func() {
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			cancelFn()
		case <-done:
		}
	}()
	return func() { close(done) }
}
