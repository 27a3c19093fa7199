package domain

// ProductCategory separates drinks from retail beans.
type ProductCategory string

const (
	CategoryCoffee ProductCategory = "coffee"
	CategoryBean   ProductCategory = "bean"
)

func (c ProductCategory) Valid() bool {
	return c == CategoryCoffee || c == CategoryBean
}

// Price is the price of one size of a product.
type Price struct {
	Size     string  `json:"size"`
	Price    float64 `json:"price"`
	Currency string  `json:"currency,omitempty"`
}

// Product is a sellable catalog item.
type Product struct {
	Meta
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Prices      []Price         `json:"prices"`
	Category    ProductCategory `json:"category"`
	ImageURLs   []string        `json:"imageUrls,omitempty"`
	Available   bool            `json:"available"`
}

// PriceFor returns the price of size, false when the product has no such size.
func (p *Product) PriceFor(size string) (float64, bool) {
	for _, pr := range p.Prices {
		if pr.Size == size {
			return pr.Price, true
		}
	}
	return 0, false
}

// LegacyCatalogItem is the shape stored in the old coffees and beans collections.
type LegacyCatalogItem struct {
	Meta
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Prices      []Price  `json:"prices"`
	ImageURLs   []string `json:"imageUrls,omitempty"`
	Available   *bool    `json:"available,omitempty"`
}

// ImportResult is returned by POST /v1/products/import-legacy.
type ImportResult struct {
	Imported int      `json:"imported"`
	IDs      []string `json:"ids"`
}
