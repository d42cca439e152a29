package extract

// Sentinel defaults preserve record shape when a field cannot be resolved.
const (
	NoTitle  = "no title"
	NoPrice  = "no price"
	NoDate   = "no date"
	NoStatus = "no status"
	NoTotal  = "no total"
)

// SearchItem extracts one product tile from a search-result page.
// Candidate lists cover the layout variants the storefront is known to
// serve; new variants are added to the tables, not to code.
var SearchItem = &Schema{
	Name: "search_item",
	Containers: Candidates{
		".product-item",
		".catalog-product-item",
		`[data-testid="product"]`,
	},
	Rules: []Rule{
		{
			Field:      "title",
			Candidates: Candidates{"h3", ".product-title", `[data-testid="product-title"]`},
			Kind:       KindText,
			Default:    NoTitle,
		},
		{
			Field:      "price",
			Candidates: Candidates{".price", ".product-price", `[data-testid="price"]`},
			Kind:       KindText,
			Default:    NoPrice,
		},
		{
			Field:      "link",
			Candidates: Candidates{"a"},
			Kind:       KindAttr,
			Attr:       "href",
		},
		{
			Field:      "image",
			Candidates: Candidates{"img"},
			Kind:       KindAttr,
			Attr:       "src",
		},
	},
}

// ProductDetail extracts the full record from a product page. The page is
// its own container; the title locators double as the content-ready signal.
var ProductDetail = &Schema{
	Name: "product_detail",
	Containers: Candidates{
		".product-detail",
		`[data-testid="product-detail"]`,
		"h1",
	},
	Rules: []Rule{
		{
			Field:      "title",
			Candidates: Candidates{"h1", ".product-title", `[data-testid="product-title"]`},
			Kind:       KindText,
			Default:    NoTitle,
		},
		{
			Field:      "price",
			Candidates: Candidates{".price", ".product-price", `[data-testid="price"]`},
			Kind:       KindText,
			Default:    NoPrice,
		},
		{
			Field:      "original_price",
			Candidates: Candidates{".original-price", ".old-price"},
			Kind:       KindText,
		},
		{
			Field:      "discount",
			Candidates: Candidates{".discount", ".offer-percentage"},
			Kind:       KindText,
		},
		{
			// Inner HTML: the description keeps its markup and is converted
			// to markdown downstream.
			Field:      "description",
			Candidates: Candidates{".product-description", ".description"},
			Kind:       KindHTML,
		},
		{
			Field:      "brand",
			Candidates: Candidates{".brand", ".product-brand"},
			Kind:       KindText,
		},
		{
			Field:      "sku",
			Candidates: Candidates{".sku", ".product-sku"},
			Kind:       KindText,
		},
		{
			// Attribute fallback for the SKU when no text variant exists.
			Field:      "sku_attr",
			Candidates: Candidates{"[data-sku]"},
			Kind:       KindAttr,
			Attr:       "data-sku",
		},
		{
			Field:      "availability",
			Candidates: Candidates{".availability", ".stock-status"},
			Kind:       KindText,
		},
		{
			Field:      "rating",
			Candidates: Candidates{".rating", ".product-rating"},
			Kind:       KindText,
		},
		{
			Field:      "images",
			Candidates: Candidates{".product-image img", ".gallery img"},
			Kind:       KindAttrList,
			Attr:       "src",
		},
		{
			Field:      "specifications",
			Candidates: Candidates{".specifications li", ".product-specs li"},
			Kind:       KindTextList,
		},
	},
}

// OrderItem extracts one purchase from the order-history page.
var OrderItem = &Schema{
	Name: "order_item",
	Containers: Candidates{
		".order-item",
		".purchase-item",
		`[data-testid="order"]`,
	},
	Rules: []Rule{
		{
			Field:      "order_number",
			Candidates: Candidates{".order-number", ".purchase-number"},
			Kind:       KindText,
		},
		{
			Field:      "date",
			Candidates: Candidates{".order-date", ".purchase-date"},
			Kind:       KindText,
			Default:    NoDate,
		},
		{
			Field:      "status",
			Candidates: Candidates{".order-status", ".purchase-status"},
			Kind:       KindText,
			Default:    NoStatus,
		},
		{
			Field:      "total",
			Candidates: Candidates{".order-total", ".purchase-total"},
			Kind:       KindText,
			Default:    NoTotal,
		},
	},
}

// All lists every schema for startup validation.
var All = []*Schema{SearchItem, ProductDetail, OrderItem}

// ValidateSchemas parses every locator in every schema table. Called once
// at startup so a malformed selector fails loudly instead of acting like a
// permanently absent field.
func ValidateSchemas() error {
	for _, s := range All {
		if err := s.Containers.Validate(); err != nil {
			return err
		}
		for _, rule := range s.Rules {
			if err := rule.Candidates.Validate(); err != nil {
				return err
			}
		}
	}
	return nil
}
