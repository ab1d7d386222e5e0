package market

import (
	"testing"
	"time"
)

func TestImpactPriceBuy(t *testing.T) {
	// 50 shares at liquidity 800, volatility 1.0: impact 0.0625,
	// 100 * e^0.0625 rounds to 106.45.
	got := impactPrice(100, 50, 1.0, 800, SideBuy)
	if got != 106.45 {
		t.Fatalf("got %v want 106.45", got)
	}
}

func TestImpactPriceSellSymmetry(t *testing.T) {
	up := impactPrice(100, 50, 1.0, 800, SideBuy)
	down := impactPrice(100, 50, 1.0, 800, SideSell)
	if up <= 100 {
		t.Fatalf("buy should raise price, got %v", up)
	}
	if down >= 100 {
		t.Fatalf("sell should lower price, got %v", down)
	}
}

func TestImpactPriceFloor(t *testing.T) {
	price := 0.05
	for i := 0; i < 50; i++ {
		price = impactPrice(price, 1000, 5, 1, SideSell)
		if price < MinPrice {
			t.Fatalf("price %v fell below floor", price)
		}
	}
	if price != MinPrice {
		t.Fatalf("expected hammered price to pin at %v, got %v", MinPrice, price)
	}
}

func TestImpactPriceLiquidityFloor(t *testing.T) {
	// liquidity below 1 must behave as 1, not amplify impact.
	a := impactPrice(100, 2, 1.0, 0, SideBuy)
	b := impactPrice(100, 2, 1.0, 1, SideBuy)
	if a != b {
		t.Fatalf("liquidity 0 gave %v, liquidity 1 gave %v", a, b)
	}
}

func TestClampVolatility(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{0.0, 0.2},
		{0.1, 0.2},
		{0.2, 0.2},
		{1.0, 1.0},
		{5.0, 5.0},
		{9.5, 5.0},
		{-3, 0.2},
	}
	for _, tc := range tests {
		if got := clampVolatility(tc.in); got != tc.want {
			t.Fatalf("clampVolatility(%v)=%v want %v", tc.in, got, tc.want)
		}
	}
}

func TestDriftInterval(t *testing.T) {
	base := 3 * time.Second
	if got := driftInterval(base, 1.0); got != 3*time.Second {
		t.Fatalf("vol 1.0: got %v", got)
	}
	if got := driftInterval(base, 5.0); got != 600*time.Millisecond {
		t.Fatalf("vol 5.0: got %v", got)
	}
	// Sub-minimum volatility is treated as the minimum.
	if got := driftInterval(base, 0.05); got != 15*time.Second {
		t.Fatalf("vol 0.05: got %v", got)
	}
	// Cadence never drops below the hard floor.
	if got := driftInterval(time.Second, 5.0); got != MinDriftInterval {
		t.Fatalf("floored interval: got %v", got)
	}
}

func TestDriftPrice(t *testing.T) {
	// Pull of 1% of the gap toward base with zero-centered noise (u=0.5).
	got := driftPrice(100, 200, 1.0, 0.5)
	if got != 101 {
		t.Fatalf("got %v want 101", got)
	}
	// Floor holds even at maximum negative noise.
	if got := driftPrice(MinPrice, MinPrice, 5.0, 0); got < MinPrice {
		t.Fatalf("price %v fell below floor", got)
	}
}

func TestRound2(t *testing.T) {
	if got := round2(106.449); got != 106.45 {
		t.Fatalf("got %v", got)
	}
	if got := round2(5000.004); got != 5000.0 {
		t.Fatalf("got %v", got)
	}
}
