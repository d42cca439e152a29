package scraper

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/use-agent/vitrina/cache"
	"github.com/use-agent/vitrina/extract"
	"github.com/use-agent/vitrina/models"
)

// SearchProducts runs a storefront search and extracts the result tiles.
// A page with no recognizable content containers yields an empty slice,
// never an error: a term may legitimately have zero matches.
func (s *Scraper) SearchProducts(ctx context.Context, term string, limit, maxAgeMs int) ([]models.Product, models.TimingInfo, string, error) {
	var timing models.TimingInfo
	start := time.Now()

	if err := s.ready(); err != nil {
		return nil, timing, "", err
	}
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, timing, "", models.NewScrapeError(models.ErrCodeInvalidInput,
			"search term must not be empty", nil)
	}
	if limit <= 0 {
		limit = s.store.SearchLimit
	}

	key := cache.Key("search", strings.ToLower(term), limit)
	if s.cache != nil {
		if v, ok := s.cache.Get(key, maxAgeMs); ok {
			timing.TotalMs = time.Since(start).Milliseconds()
			return v.([]models.Product), timing, "hit", nil
		}
	}

	target := s.store.BaseURL + "/search/" + url.PathEscape(term)
	snap, err := s.fetch(ctx, target, extract.SearchItem.Containers)
	if err != nil {
		return nil, timing, "", err
	}
	timing.NavigationMs = snap.navMs

	products := []models.Product{}
	extractStart := time.Now()
	if snap.hasContent {
		doc, err := extract.ParseDocument(snap.html)
		if err != nil {
			return nil, timing, "", models.NewScrapeError(models.ErrCodeInternal,
				"snapshot parse failed", err)
		}
		for _, sel := range extract.SearchItem.Items(doc) {
			rec := extract.SearchItem.Extract(sel, snap.url)
			// Tiles with no resolvable title are layout noise, not products.
			if rec.Get("title") == extract.NoTitle {
				continue
			}
			products = append(products, models.Product{
				Title:     rec.Get("title"),
				Price:     rec.Get("price"),
				Link:      s.absoluteURL(rec.Get("link")),
				Image:     s.absoluteURL(rec.Get("image")),
				ScrapedAt: rec.CapturedAt,
			})
			if len(products) >= limit {
				break
			}
		}
	}
	timing.ExtractionMs = time.Since(extractStart).Milliseconds()
	timing.TotalMs = time.Since(start).Milliseconds()

	if s.cache != nil {
		s.cache.Set(key, products)
	}
	slog.Info("search complete", "term", term, "count", len(products), "total_ms", timing.TotalMs)
	return products, timing, "miss", nil
}

// absoluteURL resolves a scraped href/src against the storefront base.
func (s *Scraper) absoluteURL(ref string) string {
	if ref == "" || strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref
	}
	base, err := url.Parse(s.store.BaseURL)
	if err != nil {
		return ref
	}
	parsed, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return base.ResolveReference(parsed).String()
}
