package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/vitrina/config"
	"github.com/use-agent/vitrina/models"
)

// identityKey is where auth stores the caller's API key for downstream
// middleware; the rate limiter keys its buckets on it.
const identityKey = "api_key"

// Auth returns API-key authentication middleware. Keys arrive either as
//
//	X-API-Key: <key>
//	Authorization: Bearer <key>
//
// With auth disabled or no keys configured the middleware passes everything
// through, which keeps local development usable without a key file.
func Auth(cfg config.AuthConfig) gin.HandlerFunc {
	keys := make(map[string]struct{}, len(cfg.APIKeys))
	for _, k := range cfg.APIKeys {
		if k != "" {
			keys[k] = struct{}{}
		}
	}
	if !cfg.Enabled || len(keys) == 0 {
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		key := requestKey(c)
		if key == "" {
			abortUnauthorized(c, "missing API key: provide X-API-Key header or Authorization: Bearer <key>")
			return
		}
		if _, ok := keys[key]; !ok {
			abortUnauthorized(c, "invalid API key")
			return
		}
		c.Set(identityKey, key)
		c.Next()
	}
}

// requestKey reads the caller's API key, X-API-Key first.
func requestKey(c *gin.Context) string {
	if key := c.GetHeader("X-API-Key"); key != "" {
		return key
	}
	if auth := c.GetHeader("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}

// clientIdentity is the per-caller rate-limit identity: the authenticated
// API key when auth ran, the client IP otherwise.
func clientIdentity(c *gin.Context) string {
	if key, ok := c.Get(identityKey); ok {
		return key.(string)
	}
	return c.ClientIP()
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{
		Success: false,
		Error: &models.ErrorDetail{
			Code:    models.ErrCodeUnauthorized,
			Message: msg,
		},
	})
}
