package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/vitrina/models"
	"github.com/use-agent/vitrina/scraper"
)

// Search returns a handler for POST /api/v1/search.
func Search(sc *scraper.Scraper) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		var req models.SearchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Success: false,
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: err.Error(),
				},
			})
			return
		}

		products, timing, cacheStatus, err := sc.SearchProducts(c.Request.Context(), req.Term, req.Limit, req.MaxAge)
		if err != nil {
			respondError(c, err, models.TimingInfo{TotalMs: time.Since(start).Milliseconds()})
			return
		}

		c.JSON(http.StatusOK, models.SearchResponse{
			Success:  true,
			Products: products,
			Total:    len(products),
			Timing:   timing,
			Cache:    cacheStatus,
		})
	}
}
