package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/vitrina/models"
	"github.com/use-agent/vitrina/scraper"
)

// Session returns a handler for GET /api/v1/session. The liveness signal
// is recomputed on demand; "check=live" runs a real probe against the
// storefront instead of reporting the cached state.
func Session(sc *scraper.Scraper) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := sc.Status()
		if c.Query("check") == "live" {
			status.LoggedIn = sc.CheckSessionStatus(c.Request.Context())
		}
		c.JSON(http.StatusOK, status)
	}
}

// Screenshot returns a handler for POST /api/v1/screenshot, a diagnostic
// side channel capturing the live session's current page.
func Screenshot(sc *scraper.Scraper) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Name string `json:"name"`
		}
		_ = c.ShouldBindJSON(&req)

		path, err := sc.Screenshot(req.Name)
		if err != nil {
			respondError(c, err, models.TimingInfo{})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "path": path})
	}
}
