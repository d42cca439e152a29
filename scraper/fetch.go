package scraper

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/use-agent/vitrina/extract"
	"github.com/use-agent/vitrina/models"
	"github.com/use-agent/vitrina/session"
)

// capture is one page snapshot taken under the operation lock. Extraction
// runs offline against it, so nothing downstream can race the rendering
// context.
type capture struct {
	html       string
	url        string
	hasContent bool
	navMs      int64
}

// fetch navigates to target, waits for one of the page's content
// containers and snapshots the DOM. A result produced against a handle
// that turned over mid-flight is discarded and the fetch is retried once
// against the new generation.
func (s *Scraper) fetch(ctx context.Context, target string, containers extract.Candidates) (*capture, error) {
	snap, err := s.fetchOnce(ctx, target, containers)
	if err == nil || !retriableSession(err) {
		return snap, err
	}

	slog.Warn("fetch hit a session turnover, retrying once", "target", target, "error", err)
	return s.fetchOnce(ctx, target, containers)
}

func (s *Scraper) fetchOnce(ctx context.Context, target string, containers extract.Candidates) (*capture, error) {
	h, err := s.session.EnsureSession(ctx)
	if err != nil {
		return nil, err
	}

	// Polite pacing toward the storefront, applied before the lock so a
	// queued operation does not hold the context while throttled.
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	s.session.LockOps()
	defer s.session.UnlockOps()

	navStart := time.Now()
	var navErr error
	for attempt := 1; attempt <= s.store.MaxRetries; attempt++ {
		navCtx, cancel := context.WithTimeout(ctx, s.store.NavTimeout)
		navErr = h.Page.Navigate(navCtx, target)
		cancel()
		if navErr == nil {
			break
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if !s.session.StillCurrent(h) {
			return nil, staleErr()
		}
		slog.Warn("navigation failed", "target", target, "attempt", attempt, "error", navErr)
	}
	if navErr != nil {
		return nil, models.NewScrapeError(models.ErrCodeNavigation,
			"navigation failed after retries", navErr)
	}

	// An anti-bot interstitial can front any page, not just the login
	// surface; left unchecked it would read as a page with zero matches.
	if err := s.session.PassChallenge(ctx, h.Page); err != nil {
		return nil, err
	}

	hasContent := false
	if _, found, err := extract.Resolve(ctx, h.Page, containers, s.store.ContentTimeout); err != nil {
		return nil, err
	} else {
		hasContent = found
	}

	raw, err := h.Page.HTML(ctx)
	if err != nil {
		if !s.session.StillCurrent(h) {
			return nil, staleErr()
		}
		return nil, models.NewScrapeError(models.ErrCodeNavigation, "page snapshot failed", err)
	}
	currentURL, _ := h.Page.URL(ctx)

	// A snapshot taken against a replaced handle must never be merged
	// into fresher results.
	if !s.session.StillCurrent(h) {
		return nil, staleErr()
	}

	// Being bounced to the login surface means the session died between
	// the liveness probe and this navigation.
	if session.IsLoginURL(currentURL) {
		s.session.MarkExpired("redirected to login during fetch")
		return nil, models.NewScrapeError(models.ErrCodeSessionExpired,
			"session expired during fetch", nil)
	}

	return &capture{
		html:       raw,
		url:        currentURL,
		hasContent: hasContent,
		navMs:      time.Since(navStart).Milliseconds(),
	}, nil
}

func staleErr() error {
	return models.NewScrapeError(models.ErrCodeSessionStale,
		"session generation changed mid-operation", nil)
}

// retriableSession reports whether the error means the session turned over
// and a single retry against the new generation is warranted.
func retriableSession(err error) bool {
	var se *models.ScrapeError
	if !errors.As(err, &se) {
		return false
	}
	return se.Code == models.ErrCodeSessionStale || se.Code == models.ErrCodeSessionExpired
}
