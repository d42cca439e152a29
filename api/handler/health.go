package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/vitrina/models"
	"github.com/use-agent/vitrina/scraper"
	"github.com/use-agent/vitrina/session"
)

// Health returns a handler for GET /api/v1/health.
//
// Reports "healthy" only while the session is authenticated; any other
// live state degrades, terminal states are unhealthy.
func Health(sc *scraper.Scraper) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := sc.Status()

		health := "degraded"
		switch status.State {
		case session.StateAuthenticated.String():
			health = "healthy"
		case session.StateFailed.String(), session.StateClosed.String():
			health = "unhealthy"
		}

		c.JSON(http.StatusOK, models.HealthResponse{
			Status:     health,
			Uptime:     sc.Uptime().Round(time.Second).String(),
			State:      status.State,
			Generation: status.Generation,
			Version:    "0.1.0",
		})
	}
}
