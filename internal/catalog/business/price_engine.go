package business

import "math"

const (
	maxDiscountPct = 90.0
	// Sale prices end on whole currency units; storefront rounding rule.
	priceRounding = 1.0
)

// PriceEngine recomputes a product's effective sale price from its base
// price and the stored discount rule. The result is deterministic and never
// taken from an intermediate feed field.
type PriceEngine struct{}

func NewPriceEngine() *PriceEngine {
	return &PriceEngine{}
}

func (e *PriceEngine) ClampDiscount(pct float64) float64 {
	if pct < 0 {
		return 0
	}
	if pct > maxDiscountPct {
		return maxDiscountPct
	}
	return pct
}

func (e *PriceEngine) SalePrice(basePrice, discountPct float64) float64 {
	if basePrice <= 0 {
		return 0
	}
	discounted := basePrice * (1 - e.ClampDiscount(discountPct)/100)
	return math.Round(discounted/priceRounding) * priceRounding
}
