package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Browser   BrowserConfig
	Store     StoreConfig
	Session   SessionConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Cache     CacheConfig
	Webhook   WebhookConfig
	Log       LogConfig
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 8080
	Mode string // "debug", "release", "test"; default: "release"
}

// BrowserConfig controls the Rod browser instance.
type BrowserConfig struct {
	// Headless controls whether the browser runs headless.
	Headless bool // default: true

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: false

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string

	// UserAgent is applied to every page.
	UserAgent string

	// AcceptLanguage is sent as the Accept-Language header on every page.
	AcceptLanguage string // default: "es-CL,es;q=0.9,en;q=0.8"

	// ViewportWidth/ViewportHeight set the page viewport.
	ViewportWidth  int // default: 1366
	ViewportHeight int // default: 768

	// ScreenshotDir is where diagnostic screenshots are written.
	ScreenshotDir string // default: "."
}

// StoreConfig describes the target storefront.
type StoreConfig struct {
	// BaseURL is the storefront root.
	BaseURL string

	// LoginURL is the login surface.
	LoginURL string

	// OrdersURL is the purchase-history page.
	OrdersURL string

	// Email and Password are the account credentials. Required; never logged.
	Email    string
	Password string

	// NavTimeout bounds a single navigation including its settle wait.
	NavTimeout time.Duration // default: 30s

	// ContentTimeout bounds the wait for a page's content container.
	ContentTimeout time.Duration // default: 8s

	// MaxRetries bounds retries of failed navigations.
	MaxRetries int // default: 3

	// SearchLimit and OrdersLimit cap result list sizes.
	SearchLimit int // default: 20
	OrdersLimit int // default: 50

	// NavRate throttles storefront navigations (requests per second).
	NavRate  float64 // default: 0.5
	NavBurst int     // default: 2
}

// SessionConfig controls login behavior and session keep-alive.
type SessionConfig struct {
	// SettleTimeout is how long to wait for post-submit navigation.
	SettleTimeout time.Duration // default: 15s

	// IndicatorTimeout is the budget for resolving logged-in indicators
	// during verification.
	IndicatorTimeout time.Duration // default: 3s

	// KeepAliveInterval is the liveness-probe period.
	KeepAliveInterval time.Duration // default: 5m

	// ChallengeGrace is how long to wait when an anti-bot interstitial
	// is detected before re-checking.
	ChallengeGrace time.Duration // default: 5s

	// TypeDelayMin/TypeDelayMax bound the randomized inter-keystroke delay.
	TypeDelayMin time.Duration // default: 60ms
	TypeDelayMax time.Duration // default: 140ms

	// FieldDelayMin/FieldDelayMax bound the randomized pause between fields.
	FieldDelayMin time.Duration // default: 500ms
	FieldDelayMax time.Duration // default: 1200ms

	// DebugDir receives a screenshot of the page when login verification
	// fails; empty disables the capture.
	DebugDir string
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	// Enabled toggles API key authentication.
	Enabled bool // default: true

	// APIKeys is the list of valid API keys.
	APIKeys []string
}

// RateLimitConfig controls per-key rate limiting on the API surface.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per API key.
	RequestsPerSecond float64 // default: 2

	// Burst is the maximum burst size per API key.
	Burst int // default: 5
}

// CacheConfig controls the extracted-record cache.
type CacheConfig struct {
	// MaxEntries is the maximum number of cached results.
	MaxEntries int // default: 500
}

// WebhookConfig controls session lifecycle event delivery.
type WebhookConfig struct {
	// URL receives session events; empty disables delivery.
	URL string

	// Secret signs event payloads with HMAC-SHA256.
	Secret string
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Load reads configuration from environment variables with sane defaults.
// Credentials have no default; they are validated at session start, not here.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host: envOr("VITRINA_HOST", "0.0.0.0"),
			Port: envIntOr("VITRINA_PORT", 8080),
			Mode: envOr("VITRINA_MODE", "release"),
		},
		Browser: BrowserConfig{
			Headless:       envBoolOr("VITRINA_HEADLESS", true),
			NoSandbox:      envBoolOr("VITRINA_NO_SANDBOX", false),
			BrowserBin:     os.Getenv("VITRINA_BROWSER_BIN"),
			UserAgent:      envOr("VITRINA_USER_AGENT", defaultUserAgent),
			AcceptLanguage: envOr("VITRINA_ACCEPT_LANGUAGE", "es-CL,es;q=0.9,en;q=0.8"),
			ViewportWidth:  envIntOr("VITRINA_VIEWPORT_WIDTH", 1366),
			ViewportHeight: envIntOr("VITRINA_VIEWPORT_HEIGHT", 768),
			ScreenshotDir:  envOr("VITRINA_SCREENSHOT_DIR", "."),
		},
		Store: StoreConfig{
			BaseURL:        envOr("VITRINA_BASE_URL", "https://simple.ripley.cl"),
			LoginURL:       envOr("VITRINA_LOGIN_URL", "https://simple.ripley.cl/cuenta/iniciar-sesion"),
			OrdersURL:      envOr("VITRINA_ORDERS_URL", "https://simple.ripley.cl/mi-cuenta/mis-compras"),
			Email:          os.Getenv("VITRINA_EMAIL"),
			Password:       os.Getenv("VITRINA_PASSWORD"),
			NavTimeout:     envDurationOr("VITRINA_NAV_TIMEOUT", 30*time.Second),
			ContentTimeout: envDurationOr("VITRINA_CONTENT_TIMEOUT", 8*time.Second),
			MaxRetries:     envIntOr("VITRINA_MAX_RETRIES", 3),
			SearchLimit:    envIntOr("VITRINA_SEARCH_LIMIT", 20),
			OrdersLimit:    envIntOr("VITRINA_ORDERS_LIMIT", 50),
			NavRate:        envFloatOr("VITRINA_NAV_RATE", 0.5),
			NavBurst:       envIntOr("VITRINA_NAV_BURST", 2),
		},
		Session: SessionConfig{
			SettleTimeout:     envDurationOr("VITRINA_SETTLE_TIMEOUT", 15*time.Second),
			IndicatorTimeout:  envDurationOr("VITRINA_INDICATOR_TIMEOUT", 3*time.Second),
			KeepAliveInterval: envDurationOr("VITRINA_KEEPALIVE_INTERVAL", 5*time.Minute),
			ChallengeGrace:    envDurationOr("VITRINA_CHALLENGE_GRACE", 5*time.Second),
			TypeDelayMin:      envDurationOr("VITRINA_TYPE_DELAY_MIN", 60*time.Millisecond),
			TypeDelayMax:      envDurationOr("VITRINA_TYPE_DELAY_MAX", 140*time.Millisecond),
			FieldDelayMin:     envDurationOr("VITRINA_FIELD_DELAY_MIN", 500*time.Millisecond),
			FieldDelayMax:     envDurationOr("VITRINA_FIELD_DELAY_MAX", 1200*time.Millisecond),
			DebugDir:          envOr("VITRINA_SCREENSHOT_DIR", "."),
		},
		Auth: AuthConfig{
			Enabled: envBoolOr("VITRINA_AUTH_ENABLED", true),
			APIKeys: envSliceOr("VITRINA_API_KEYS", nil),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("VITRINA_RATE_RPS", 2.0),
			Burst:             envIntOr("VITRINA_RATE_BURST", 5),
		},
		Cache: CacheConfig{
			MaxEntries: envIntOr("VITRINA_CACHE_MAX_ENTRIES", 500),
		},
		Webhook: WebhookConfig{
			URL:    os.Getenv("VITRINA_WEBHOOK_URL"),
			Secret: os.Getenv("VITRINA_WEBHOOK_SECRET"),
		},
		Log: LogConfig{
			Level:  envOr("VITRINA_LOG_LEVEL", "info"),
			Format: envOr("VITRINA_LOG_FORMAT", "json"),
		},
	}
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}
