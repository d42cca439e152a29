package models

// SearchRequest is the payload for POST /api/v1/search.
type SearchRequest struct {
	// Term is the search query. Required.
	Term string `json:"term" binding:"required"`

	// Limit caps the number of returned products. Default: 20.
	Limit int `json:"limit,omitempty" binding:"omitempty,min=1,max=100"`

	// MaxAge enables a cache lookup: results younger than MaxAge
	// milliseconds are served without touching the storefront.
	MaxAge int `json:"max_age,omitempty"`
}

// ProductRequest is the payload for POST /api/v1/product.
type ProductRequest struct {
	// URL is the product-detail page. Required.
	URL string `json:"url" binding:"required,url"`

	// MaxAge enables a cache lookup, in milliseconds.
	MaxAge int `json:"max_age,omitempty"`
}

// OrdersRequest is the payload for POST /api/v1/orders.
type OrdersRequest struct {
	// Limit caps the number of returned orders. Default: 50.
	Limit int `json:"limit,omitempty" binding:"omitempty,min=1,max=200"`
}
