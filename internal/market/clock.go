package market

import (
	"context"
	"time"
)

// driftClock is the handle for one stock's autonomous price timer. Exactly
// one may be live per ticker; restarting cancels the predecessor first.
type driftClock struct {
	cancel   context.CancelFunc
	interval time.Duration
}

// startClockLocked (re)starts the drift clock for ticker at the cadence its
// current volatility implies. Caller holds m.mu. Before Start the market has
// no clock context and this is a no-op; Start replays it for every stock.
func (m *Market) startClockLocked(ticker string) {
	if m.ctx == nil {
		return
	}
	if old, ok := m.clocks[ticker]; ok {
		old.cancel()
		delete(m.clocks, ticker)
	}
	stock, ok := m.stocks[ticker]
	if !ok {
		return
	}
	interval := driftInterval(m.cfg.BaseTick, stock.Volatility)
	ctx, cancel := context.WithCancel(m.ctx)
	m.clocks[ticker] = &driftClock{cancel: cancel, interval: interval}
	go m.runClock(ctx, ticker, interval)
}

func (m *Market) runClock(ctx context.Context, ticker string, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			m.driftTick(ticker)
		}
	}
}

// driftTick applies one autonomous perturbation. Paused stocks keep their
// clock running but the tick is a no-op.
func (m *Market) driftTick(ticker string) {
	m.mu.Lock()
	stock, ok := m.stocks[ticker]
	if !ok || stock.Paused {
		m.mu.Unlock()
		return
	}
	stock.Price = driftPrice(stock.Price, stock.BasePrice, stock.Volatility, m.rand.Float64())
	price := stock.Price
	m.mu.Unlock()

	m.emitPrice(ticker, price)
	m.requestSave()
}

// ClockInterval reports the live drift cadence for a ticker, if any clock is
// running.
func (m *Market) ClockInterval(ticker string) (time.Duration, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.clocks[NormalizeTicker(ticker)]
	if !ok {
		return 0, false
	}
	return c.interval, true
}
