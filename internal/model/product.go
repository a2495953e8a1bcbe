package model

// ProductNameMaxLength is the longest accepted product name.
const ProductNameMaxLength = 100

// Product is a catalog entry. Stock is never stored on the product; it is
// derived from the product's movements.
type Product struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	ProductType string `json:"product_type"`
	ImageMime   string `json:"-"`
}

// HasImage reports whether an image has been uploaded for the product.
func (p *Product) HasImage() bool {
	return p.ImageMime != ""
}

// StockLevel is a product together with its current stock.
type StockLevel struct {
	Product
	CurrentStock int64 `json:"current_stock"`
}

// Stock status labels.
const (
	StatusOutOfStock = "Out of stock"
	StatusLowStock   = "Low stock"
	StatusInStock    = "In stock"
)

// DefaultLowStockThreshold is the stock below which a product is "Low stock".
const DefaultLowStockThreshold = 10

// StatusFor returns the status label for a stock level.
func StatusFor(stock, lowThreshold int64) string {
	switch {
	case stock <= 0:
		return StatusOutOfStock
	case stock < lowThreshold:
		return StatusLowStock
	default:
		return StatusInStock
	}
}
