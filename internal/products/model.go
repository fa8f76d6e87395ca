package products

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DefaultMinThreshold is applied when a product is created without an
// explicit low-stock threshold.
const DefaultMinThreshold = 10

// Product represents a product record. Quantity is never written directly:
// all changes go through the stock ledger so the audit trail stays complete.
type Product struct {
	ID           int64     `json:"id"`
	SKU          string    `json:"sku"`
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty"`
	Category     string    `json:"category,omitempty"`
	CostPrice    float64   `json:"cost_price"`
	SellingPrice float64   `json:"selling_price"`
	Quantity     int64     `json:"quantity"`
	MinThreshold int64     `json:"min_threshold"`
	Unit         string    `json:"unit,omitempty"`
	Supplier     string    `json:"supplier,omitempty"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

var skuCaser = cases.Upper(language.Und)

// NormalizeSKU canonicalises a SKU for storage and lookup.
func NormalizeSKU(sku string) string {
	return skuCaser.String(strings.TrimSpace(sku))
}

// IsLow reports whether a quantity is below a threshold. Equality is not low.
func IsLow(quantity, threshold int64) bool {
	return quantity < threshold
}

// IsLowStock derives the low-stock condition from the stored fields. It is
// computed on read, never persisted, so it cannot go stale.
func (p Product) IsLowStock() bool {
	return IsLow(p.Quantity, p.MinThreshold)
}

// ProfitMargin derives the margin percentage from the stored prices.
func (p Product) ProfitMargin() float64 {
	if p.CostPrice <= 0 {
		return 0
	}
	return (p.SellingPrice - p.CostPrice) / p.CostPrice * 100
}

// FilterLowStock returns the subsequence of products below threshold. A
// positive override replaces each product's own threshold.
func FilterLowStock(items []Product, override int64) []Product {
	var low []Product
	for _, p := range items {
		threshold := p.MinThreshold
		if override > 0 {
			threshold = override
		}
		if IsLow(p.Quantity, threshold) {
			low = append(low, p)
		}
	}
	return low
}
