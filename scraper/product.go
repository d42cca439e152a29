package scraper

import (
	"context"
	"log/slog"
	"net/url"
	"time"

	"github.com/use-agent/vitrina/cache"
	"github.com/use-agent/vitrina/extract"
	"github.com/use-agent/vitrina/models"
)

// GetProductDetails extracts the full record from one product page.
// Unlike list pages, a detail page without a resolvable title raises:
// there is no meaningful "empty" product.
func (s *Scraper) GetProductDetails(ctx context.Context, productURL string, maxAgeMs int) (*models.ProductDetail, models.TimingInfo, string, error) {
	var timing models.TimingInfo
	start := time.Now()

	if err := s.ready(); err != nil {
		return nil, timing, "", err
	}
	if err := s.validateProductURL(productURL); err != nil {
		return nil, timing, "", err
	}

	key := cache.Key("product", productURL, 0)
	if s.cache != nil {
		if v, ok := s.cache.Get(key, maxAgeMs); ok {
			timing.TotalMs = time.Since(start).Milliseconds()
			return v.(*models.ProductDetail), timing, "hit", nil
		}
	}

	snap, err := s.fetch(ctx, productURL, extract.ProductDetail.Containers)
	if err != nil {
		return nil, timing, "", err
	}
	timing.NavigationMs = snap.navMs

	extractStart := time.Now()
	doc, err := extract.ParseDocument(snap.html)
	if err != nil {
		return nil, timing, "", models.NewScrapeError(models.ErrCodeInternal,
			"snapshot parse failed", err)
	}

	items := extract.ProductDetail.Items(doc)
	if len(items) == 0 {
		return nil, timing, "", models.NewScrapeError(models.ErrCodeMissingContent,
			"product page has no recognizable content", nil)
	}
	rec := extract.ProductDetail.Extract(items[0], snap.url)
	if rec.Get("title") == extract.NoTitle {
		return nil, timing, "", models.NewScrapeError(models.ErrCodeMissingContent,
			"product page has no resolvable title", nil)
	}

	detail := s.buildDetail(rec, snap)
	timing.ExtractionMs = time.Since(extractStart).Milliseconds()
	timing.TotalMs = time.Since(start).Milliseconds()

	if s.cache != nil {
		s.cache.Set(key, detail)
	}
	slog.Info("product detail complete", "url", productURL, "total_ms", timing.TotalMs)
	return detail, timing, "miss", nil
}

// buildDetail maps the raw record to the API model, runs the description
// pipeline and resolves relative image URLs.
func (s *Scraper) buildDetail(rec extract.Record, snap *capture) *models.ProductDetail {
	sku := rec.Get("sku")
	if sku == "" {
		sku = rec.Get("sku_attr")
	}

	description := ""
	if fragment := rec.Get("description"); fragment != "" {
		description = extract.DescriptionMarkdown(fragment, s.storeDomain())
	}
	if description == "" {
		description = extract.FallbackDescription(snap.html, snap.url)
	}

	// Copy before resolving; the record's lists stay as extracted.
	images := append([]string(nil), rec.List("images")...)
	for i, img := range images {
		images[i] = s.absoluteURL(img)
	}

	return &models.ProductDetail{
		Title:         rec.Get("title"),
		Price:         rec.Get("price"),
		OriginalPrice: rec.Get("original_price"),
		Discount:      rec.Get("discount"),
		Description:   description,
		Brand:         rec.Get("brand"),
		SKU:           sku,
		Availability:  rec.Get("availability"),
		Rating:        rec.Get("rating"),
		Images:        images,
		Specs:         rec.List("specifications"),
		URL:           rec.SourceURL,
		ScrapedAt:     rec.CapturedAt,
	}
}

// validateProductURL accepts only pages on the configured storefront.
func (s *Scraper) validateProductURL(productURL string) error {
	parsed, err := url.Parse(productURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return models.NewScrapeError(models.ErrCodeInvalidInput,
			"product url must be absolute", err)
	}
	base, err := url.Parse(s.store.BaseURL)
	if err != nil {
		return models.NewScrapeError(models.ErrCodeInternal, "invalid base url", err)
	}
	if parsed.Hostname() != base.Hostname() {
		return models.NewScrapeError(models.ErrCodeInvalidInput,
			"product url does not belong to the configured storefront", nil)
	}
	return nil
}

func (s *Scraper) storeDomain() string {
	parsed, err := url.Parse(s.store.BaseURL)
	if err != nil {
		return ""
	}
	return parsed.Scheme + "://" + parsed.Host
}
