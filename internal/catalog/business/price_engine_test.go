package business

import "testing"

func TestClampDiscount(t *testing.T) {
	e := NewPriceEngine()

	if got := e.ClampDiscount(-5); got != 0 {
		t.Fatalf("negative discount = %v, want 0", got)
	}
	if got := e.ClampDiscount(150); got != 90 {
		t.Fatalf("excessive discount = %v, want ceiling 90", got)
	}
	if got := e.ClampDiscount(25); got != 25 {
		t.Fatalf("valid discount = %v, want 25", got)
	}
}

func TestSalePrice(t *testing.T) {
	e := NewPriceEngine()

	cases := []struct {
		base, pct, want float64
	}{
		{200, 25, 150},
		{100, 0, 100},
		{99.99, 10, 90},
		{100, 120, 10}, // clamped to 90%
		{0, 50, 0},
		{-10, 50, 0},
	}
	for _, c := range cases {
		if got := e.SalePrice(c.base, c.pct); got != c.want {
			t.Fatalf("SalePrice(%v, %v) = %v, want %v", c.base, c.pct, got, c.want)
		}
	}
}

func TestSalePriceDeterministic(t *testing.T) {
	e := NewPriceEngine()
	first := e.SalePrice(123.45, 17)
	for i := 0; i < 10; i++ {
		if got := e.SalePrice(123.45, 17); got != first {
			t.Fatalf("recompute diverged: %v vs %v", got, first)
		}
	}
}
