package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/use-agent/vitrina/extract"
	"github.com/use-agent/vitrina/models"
)

// GetOrders extracts the purchase history. An account with no orders, or a
// history page served in an unknown layout, yields an empty slice.
func (s *Scraper) GetOrders(ctx context.Context, limit int) ([]models.Order, models.TimingInfo, error) {
	var timing models.TimingInfo
	start := time.Now()

	if err := s.ready(); err != nil {
		return nil, timing, err
	}
	if limit <= 0 {
		limit = s.store.OrdersLimit
	}

	snap, err := s.fetch(ctx, s.store.OrdersURL, extract.OrderItem.Containers)
	if err != nil {
		return nil, timing, err
	}
	timing.NavigationMs = snap.navMs

	orders := []models.Order{}
	extractStart := time.Now()
	if snap.hasContent {
		doc, err := extract.ParseDocument(snap.html)
		if err != nil {
			return nil, timing, models.NewScrapeError(models.ErrCodeInternal,
				"snapshot parse failed", err)
		}
		for i, sel := range extract.OrderItem.Items(doc) {
			rec := extract.OrderItem.Extract(sel, snap.url)
			number := rec.Get("order_number")
			if number == "" {
				number = fmt.Sprintf("ORDER-%d", i+1)
			}
			orders = append(orders, models.Order{
				OrderNumber: number,
				Date:        rec.Get("date"),
				Status:      rec.Get("status"),
				Total:       rec.Get("total"),
				ScrapedAt:   rec.CapturedAt,
			})
			if len(orders) >= limit {
				break
			}
		}
	}
	timing.ExtractionMs = time.Since(extractStart).Milliseconds()
	timing.TotalMs = time.Since(start).Milliseconds()

	slog.Info("orders complete", "count", len(orders), "total_ms", timing.TotalMs)
	return orders, timing, nil
}
