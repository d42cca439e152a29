// Package scraper is the public facade over the session state machine and
// the extraction engine: initialize once, then search, fetch product
// details and list orders against the maintained session.
package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"golang.org/x/time/rate"

	"github.com/use-agent/vitrina/cache"
	"github.com/use-agent/vitrina/config"
	"github.com/use-agent/vitrina/models"
	"github.com/use-agent/vitrina/session"
)

// Scraper coordinates fetch operations against the single authenticated
// session. It is safe for concurrent use; operations are serialized on the
// shared rendering context.
type Scraper struct {
	store         config.StoreConfig
	session       *session.Manager
	cache         *cache.Cache
	limiter       *rate.Limiter
	screenshotDir string
	startTime     time.Time
}

// New wires the scraper facade. cache may be nil to disable result caching.
func New(mgr *session.Manager, c *cache.Cache, store config.StoreConfig, screenshotDir string) *Scraper {
	return &Scraper{
		store:         store,
		session:       mgr,
		cache:         c,
		limiter:       rate.NewLimiter(rate.Limit(store.NavRate), store.NavBurst),
		screenshotDir: screenshotDir,
		startTime:     time.Now(),
	}
}

// Initialize establishes the authenticated session. It must be called
// before any fetch operation; those reject instead of logging in lazily so
// a misconfigured caller fails at startup, not mid-request.
func (s *Scraper) Initialize(ctx context.Context) error {
	_, err := s.session.EnsureSession(ctx)
	return err
}

// CheckSessionStatus recomputes the liveness signal on demand. The result
// is never cached beyond this call.
func (s *Scraper) CheckSessionStatus(ctx context.Context) bool {
	return s.session.Probe(ctx)
}

// Status reports the session state without touching the storefront.
func (s *Scraper) Status() models.SessionResponse {
	st := s.session.State()
	return models.SessionResponse{
		LoggedIn:   st == session.StateAuthenticated,
		State:      st.String(),
		Generation: s.session.Generation(),
	}
}

// Uptime reports time since the scraper was constructed.
func (s *Scraper) Uptime() time.Duration {
	return time.Since(s.startTime)
}

// Screenshot captures the current page of the live session as a diagnostic
// artifact and returns the written path.
func (s *Scraper) Screenshot(name string) (string, error) {
	h := s.session.Current()
	if h == nil {
		return "", models.NewScrapeError(models.ErrCodeNotInitialized,
			"no active session to capture", nil)
	}
	if name == "" {
		name = fmt.Sprintf("vitrina-%d.png", time.Now().Unix())
	}
	path := filepath.Join(s.screenshotDir, name)
	if err := h.Page.Screenshot(path); err != nil {
		return "", models.NewScrapeError(models.ErrCodeInternal, "screenshot failed", err)
	}
	slog.Info("screenshot written", "path", path)
	return path, nil
}

// Close shuts the session down. Idempotent.
func (s *Scraper) Close(ctx context.Context) error {
	return s.session.Close(ctx)
}

// ready rejects operations invoked before Initialize or after teardown.
func (s *Scraper) ready() error {
	switch s.session.State() {
	case session.StateUninitialized, session.StateAuthenticating:
		return models.NewScrapeError(models.ErrCodeNotInitialized,
			"scraper not initialized; call initialize first", nil)
	case session.StateClosed:
		return models.NewScrapeError(models.ErrCodeSessionClosed, "session is closed", nil)
	case session.StateFailed:
		return models.NewScrapeError(models.ErrCodeLoginFailed,
			"session permanently failed; restart required", nil)
	}
	return nil
}
