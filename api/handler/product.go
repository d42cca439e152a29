package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/vitrina/models"
	"github.com/use-agent/vitrina/scraper"
)

// Product returns a handler for POST /api/v1/product.
func Product(sc *scraper.Scraper) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		var req models.ProductRequest
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

		detail, timing, cacheStatus, err := sc.GetProductDetails(c.Request.Context(), req.URL, req.MaxAge)
		if err != nil {
			respondError(c, err, models.TimingInfo{TotalMs: time.Since(start).Milliseconds()})
			return
		}

		c.JSON(http.StatusOK, models.ProductResponse{
			Success: true,
			Product: detail,
			Timing:  timing,
			Cache:   cacheStatus,
		})
	}
}
