package products

// ProductForm is the JSON body for create and update requests.
type ProductForm struct {
	SKU          string  `json:"sku" validate:"required,max=64"`
	Name         string  `json:"name" validate:"required,max=255"`
	Description  string  `json:"description" validate:"omitempty,max=2000"`
	Category     string  `json:"category" validate:"omitempty,max=128"`
	CostPrice    float64 `json:"cost_price" validate:"gte=0"`
	SellingPrice float64 `json:"selling_price" validate:"gte=0"`
	Quantity     int64   `json:"quantity" validate:"gte=0"`
	MinThreshold *int64  `json:"min_threshold" validate:"omitempty,gte=0"`
	Unit         string  `json:"unit" validate:"omitempty,max=32"`
	Supplier     string  `json:"supplier" validate:"omitempty,max=255"`
}

// ProductView is a Product plus its derived read-only projections.
type ProductView struct {
	Product
	IsLowStock   bool    `json:"is_low_stock"`
	ProfitMargin float64 `json:"profit_margin"`
}

// NewProductView computes the derived fields for a response payload.
func NewProductView(p Product) ProductView {
	return ProductView{
		Product:      p,
		IsLowStock:   p.IsLowStock(),
		ProfitMargin: p.ProfitMargin(),
	}
}
