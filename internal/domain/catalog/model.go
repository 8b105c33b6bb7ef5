package catalog

import "time"

// Product is a row of the remote catalog. Inventory is kept in kilograms
// and may be fractional; writers clamp it at zero, never below.
type Product struct {
	ID          int64
	Name        string
	PricePerKg  float64
	InventoryKg float64
	ImageURL    string
}

// Bill is an immutable billing record, one per resolved cart line at
// checkout. Never updated or deleted after insert.
type Bill struct {
	ID           int64
	ProductID    int64
	CustomerName string
	Quantity     int
	PricePerKg   float64
	WeightGrams  int
	TotalPrice   float64
	CreatedAt    time.Time
}

// Patch is a partial product update. Nil fields are left untouched.
type Patch struct {
	Name        *string
	PricePerKg  *float64
	InventoryKg *float64
	ImageURL    *string
}
