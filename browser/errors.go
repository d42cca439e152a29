package browser

import (
	"context"
	"errors"

	"github.com/use-agent/vitrina/models"
)

// categorizeError wraps raw rod errors into typed ScrapeErrors so the
// layers above can map them without knowing the driver.
func categorizeError(err error, msg string) *models.ScrapeError {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewScrapeError(models.ErrCodeTimeout, msg, err)
	case errors.Is(err, context.Canceled):
		return models.NewScrapeError(models.ErrCodeTimeout, "operation canceled", err)
	default:
		return models.NewScrapeError(models.ErrCodeNavigation, msg, err)
	}
}
