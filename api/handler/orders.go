package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/vitrina/models"
	"github.com/use-agent/vitrina/scraper"
)

// Orders returns a handler for POST /api/v1/orders.
func Orders(sc *scraper.Scraper) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		var req models.OrdersRequest
		if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Success: false,
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: err.Error(),
				},
			})
			return
		}

		orders, timing, err := sc.GetOrders(c.Request.Context(), req.Limit)
		if err != nil {
			respondError(c, err, models.TimingInfo{TotalMs: time.Since(start).Milliseconds()})
			return
		}

		c.JSON(http.StatusOK, models.OrdersResponse{
			Success: true,
			Orders:  orders,
			Total:   len(orders),
			Timing:  timing,
		})
	}
}
