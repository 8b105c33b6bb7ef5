package cart

import "golang.org/x/text/cases"

// WeightOptions are the selectable pack weights in grams.
var WeightOptions = []int{10, 25, 50, 100, 250, 500, 1000}

const DefaultWeightGrams = 1000

// Line is one product's pending purchase in the cart. PricePerKg is a
// snapshot taken at add time; later catalog price changes do not touch it.
// JSON tags match the persisted layout, one object per line.
type Line struct {
	Product     string  `json:"product"`
	PricePerKg  float64 `json:"price"`
	WeightGrams int     `json:"weight"`
	Quantity    int     `json:"quantity"`
}

// ReservedKg is the stock this line currently holds against the catalog.
func (l Line) ReservedKg() float64 {
	return float64(l.Quantity) * float64(l.WeightGrams) / 1000
}

// Total is the line price: price × weight × quantity / 1000.
func (l Line) Total() float64 {
	return l.PricePerKg * float64(l.WeightGrams) * float64(l.Quantity) / 1000
}

func validWeight(grams int) bool {
	for _, w := range WeightOptions {
		if grams == w {
			return true
		}
	}
	return false
}

// foldName is the cart's case-insensitive product-name key. Lines are keyed
// by display name, not id: a remote rename orphans in-cart references, kept
// as documented behavior.
func foldName(name string) string {
	return cases.Fold().String(name)
}
