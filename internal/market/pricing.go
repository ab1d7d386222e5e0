package market

import (
	"math"
	"time"
)

// Drift tuning. These are feel parameters inherited from the original event
// setup, not derived quantities.
const (
	driftNoiseSpan    = 0.004
	meanReversionPull = 0.01
)

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func clampPrice(p float64) float64 {
	if math.IsNaN(p) || p < MinPrice {
		return MinPrice
	}
	return p
}

func clampVolatility(v float64) float64 {
	if math.IsNaN(v) {
		return DefaultVolatility
	}
	if v < MinVolatility {
		return MinVolatility
	}
	if v > MaxVolatility {
		return MaxVolatility
	}
	return v
}

// impactPrice moves price by a multiplicative exponential factor: buys push
// up, sells push down, and the result can never reach zero. qty is measured
// against process-wide liquidity, scaled by per-stock volatility.
func impactPrice(price float64, qty int, volatility, liquidity float64, side Side) float64 {
	if liquidity < 1 {
		liquidity = 1
	}
	impact := float64(qty) / liquidity * volatility
	if side == SideSell {
		impact = -impact
	}
	return round2(clampPrice(price * math.Exp(impact)))
}

// driftPrice applies one clock tick: uniform multiplicative noise scaled by
// volatility plus a pull of 1% of the gap back toward the base price. u must
// be uniform in [0,1).
func driftPrice(price, basePrice, volatility, u float64) float64 {
	noise := (u - 0.5) * driftNoiseSpan * volatility
	pull := (basePrice - price) * meanReversionPull
	return round2(clampPrice(price*(1+noise) + pull))
}

// driftInterval derives the clock cadence: higher volatility ticks faster,
// floored at MinDriftInterval.
func driftInterval(baseTick time.Duration, volatility float64) time.Duration {
	v := volatility
	if v < MinVolatility {
		v = MinVolatility
	}
	interval := time.Duration(math.Round(float64(baseTick) / v))
	if interval < MinDriftInterval {
		interval = MinDriftInterval
	}
	return interval
}
