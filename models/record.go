package models

import "time"

// Product is one search-result item.
type Product struct {
	Title     string    `json:"title"`
	Price     string    `json:"price"`
	Link      string    `json:"link,omitempty"`
	Image     string    `json:"image,omitempty"`
	ScrapedAt time.Time `json:"scraped_at"`
}

// ProductDetail is the full record for a single product page.
type ProductDetail struct {
	Title         string    `json:"title"`
	Price         string    `json:"price"`
	OriginalPrice string    `json:"original_price,omitempty"`
	Discount      string    `json:"discount,omitempty"`
	Description   string    `json:"description,omitempty"`
	Brand         string    `json:"brand,omitempty"`
	SKU           string    `json:"sku,omitempty"`
	Availability  string    `json:"availability,omitempty"`
	Rating        string    `json:"rating,omitempty"`
	Images        []string  `json:"images,omitempty"`
	Specs         []string  `json:"specifications,omitempty"`
	URL           string    `json:"url"`
	ScrapedAt     time.Time `json:"scraped_at"`
}

// Order is one purchase-history item.
type Order struct {
	OrderNumber string    `json:"order_number"`
	Date        string    `json:"date"`
	Status      string    `json:"status"`
	Total       string    `json:"total"`
	ScrapedAt   time.Time `json:"scraped_at"`
}
