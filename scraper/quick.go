package scraper

import (
	"context"
	"log/slog"

	"github.com/use-agent/vitrina/browser"
	"github.com/use-agent/vitrina/config"
	"github.com/use-agent/vitrina/models"
	"github.com/use-agent/vitrina/session"
)

// Quick performs a one-shot search on a dedicated browser: launch, login,
// search, teardown. No keeper, no cache. Intended for CLI runs where no
// long-lived service exists.
func Quick(ctx context.Context, cfg *config.Config, term string, limit int) ([]models.Product, error) {
	b, err := browser.New(cfg.Browser, browser.Pacing{
		KeyMin: cfg.Session.TypeDelayMin,
		KeyMax: cfg.Session.TypeDelayMax,
	})
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := b.Close(); err != nil {
			slog.Warn("browser close failed", "error", err)
		}
	}()

	mgr := session.NewManager(b, cfg.Store, cfg.Session, nil)
	s := New(mgr, nil, cfg.Store, cfg.Browser.ScreenshotDir)
	defer func() { _ = s.Close(ctx) }()

	if err := s.Initialize(ctx); err != nil {
		return nil, err
	}
	products, _, _, err := s.SearchProducts(ctx, term, limit, 0)
	return products, err
}
