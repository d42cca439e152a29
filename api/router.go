package api

import (
	"github.com/gin-gonic/gin"

	"github.com/use-agent/vitrina/api/handler"
	"github.com/use-agent/vitrina/api/middleware"
	"github.com/use-agent/vitrina/config"
	"github.com/use-agent/vitrina/scraper"
)

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → Logger
//	API:     Auth (if enabled) → RateLimit
//
// Health endpoint is intentionally outside auth so monitoring probes always work.
func NewRouter(sc *scraper.Scraper, cfg *config.Config) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())

	v1 := r.Group("/api/v1")

	// Health endpoint stays outside auth.
	v1.GET("/health", handler.Health(sc))

	// Protected group: auth, then rate limit. Auth no-ops when disabled.
	protected := v1.Group("")
	protected.Use(middleware.Auth(cfg.Auth))
	protected.Use(middleware.RateLimit(cfg.RateLimit))

	protected.POST("/search", handler.Search(sc))
	protected.POST("/product", handler.Product(sc))
	protected.POST("/orders", handler.Orders(sc))
	protected.GET("/session", handler.Session(sc))
	protected.POST("/screenshot", handler.Screenshot(sc))

	return r
}
