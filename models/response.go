package models

// SearchResponse is the response for POST /api/v1/search.
type SearchResponse struct {
	Success  bool         `json:"success"`
	Products []Product    `json:"products"`
	Total    int          `json:"total"`
	Timing   TimingInfo   `json:"timing"`
	Cache    string       `json:"cache_status,omitempty"` // "hit", "miss", or empty
	Error    *ErrorDetail `json:"error,omitempty"`
}

// ProductResponse is the response for POST /api/v1/product.
type ProductResponse struct {
	Success bool           `json:"success"`
	Product *ProductDetail `json:"product,omitempty"`
	Timing  TimingInfo     `json:"timing"`
	Cache   string         `json:"cache_status,omitempty"`
	Error   *ErrorDetail   `json:"error,omitempty"`
}

// OrdersResponse is the response for POST /api/v1/orders.
type OrdersResponse struct {
	Success bool         `json:"success"`
	Orders  []Order      `json:"orders"`
	Total   int          `json:"total"`
	Timing  TimingInfo   `json:"timing"`
	Error   *ErrorDetail `json:"error,omitempty"`
}

// SessionResponse is the response for GET /api/v1/session.
type SessionResponse struct {
	LoggedIn   bool   `json:"logged_in"`
	State      string `json:"state"`
	Generation uint64 `json:"generation"`
}

// HealthResponse is the response for GET /api/v1/health.
type HealthResponse struct {
	Status     string `json:"status"` // "healthy" or "degraded"
	Uptime     string `json:"uptime"`
	State      string `json:"session_state"`
	Generation uint64 `json:"session_generation"`
	Version    string `json:"version"`
}

// ErrorResponse is the generic failure envelope used by middleware
// rejections, where no operation-specific response shape applies.
type ErrorResponse struct {
	Success bool         `json:"success"`
	Error   *ErrorDetail `json:"error,omitempty"`
	Timing  TimingInfo   `json:"timing"`
}

// TimingInfo breaks down the time spent in each phase.
type TimingInfo struct {
	// TotalMs is the end-to-end duration in milliseconds.
	TotalMs int64 `json:"total_ms"`

	// NavigationMs is the time spent navigating and rendering the page.
	NavigationMs int64 `json:"navigation_ms"`

	// ExtractionMs is the time spent resolving and projecting fields.
	ExtractionMs int64 `json:"extraction_ms"`
}
