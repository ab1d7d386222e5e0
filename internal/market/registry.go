package market

import (
	"math"
	"strings"
)

// GetStock returns the public view of one stock.
func (m *Market) GetStock(ticker string) (StockView, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stock, ok := m.stocks[NormalizeTicker(ticker)]
	if !ok {
		return StockView{}, false
	}
	return stock.view(), true
}

// CreateStock lists a new instrument. The ticker is normalized; an empty
// result or an existing listing returns false with no mutation. Price
// defaults to 100 when absent or invalid, volatility to 1.0, both bounded.
// The base price anchors to the initial price and a drift clock starts.
func (m *Market) CreateStock(ticker, name string, price, volatility float64) bool {
	t := NormalizeTicker(ticker)
	if t == "" {
		return false
	}

	m.mu.Lock()
	if _, exists := m.stocks[t]; exists {
		m.mu.Unlock()
		return false
	}
	if math.IsNaN(price) || math.IsInf(price, 0) || price <= 0 {
		price = DefaultPrice
	}
	price = round2(clampPrice(price))
	if volatility == 0 || math.IsInf(volatility, 0) {
		volatility = DefaultVolatility
	}
	stock := &Stock{
		Ticker:     t,
		Name:       normalizeName(name, t),
		Price:      price,
		BasePrice:  price,
		Volatility: clampVolatility(volatility),
	}
	m.stocks[t] = stock
	m.startClockLocked(t)
	table := m.stockTableLocked()
	m.mu.Unlock()

	m.log.Info("stock created", "ticker", t, "price", price, "volatility", stock.Volatility)
	m.emitStockTable(table)
	m.emitAdminStockTable(table)
	m.requestSave()
	return true
}

// SetPrice forces a stock's price. Unknown tickers are ignored.
func (m *Market) SetPrice(ticker string, price float64) {
	m.mu.Lock()
	stock, ok := m.stocks[NormalizeTicker(ticker)]
	if !ok {
		m.mu.Unlock()
		return
	}
	stock.Price = round2(clampPrice(price))
	newPrice := stock.Price
	table := m.stockTableLocked()
	m.mu.Unlock()

	m.emitPrice(stock.Ticker, newPrice)
	m.emitAdminStockTable(table)
	m.requestSave()
}

// SetVolatility re-tunes a stock and restarts its drift clock, since the
// cadence depends on volatility. Unknown tickers are ignored.
func (m *Market) SetVolatility(ticker string, volatility float64) {
	m.mu.Lock()
	stock, ok := m.stocks[NormalizeTicker(ticker)]
	if !ok {
		m.mu.Unlock()
		return
	}
	stock.Volatility = clampVolatility(volatility)
	m.startClockLocked(stock.Ticker)
	table := m.stockTableLocked()
	m.mu.Unlock()

	m.emitAdminStockTable(table)
	m.requestSave()
}

// TogglePause flips trading and drift gating for a stock. The clock stays
// scheduled; only its effect is gated. Returns the new pause state.
func (m *Market) TogglePause(ticker string) (paused, ok bool) {
	m.mu.Lock()
	stock, found := m.stocks[NormalizeTicker(ticker)]
	if !found {
		m.mu.Unlock()
		return false, false
	}
	stock.Paused = !stock.Paused
	paused = stock.Paused
	table := m.stockTableLocked()
	m.mu.Unlock()

	m.emitStockTable(table)
	m.emitAdminStockTable(table)
	m.requestSave()
	return paused, true
}

// ResetAll rewinds every stock to its base price, clears pauses, restarts
// clocks, and discards every account. Destructive and unconfirmed here; the
// admin surface owns any confirmation policy.
func (m *Market) ResetAll() {
	m.mu.Lock()
	for ticker, stock := range m.stocks {
		stock.Price = stock.BasePrice
		stock.Paused = false
		m.startClockLocked(ticker)
	}
	m.accounts = make(map[string]*Account)
	table := m.stockTableLocked()
	m.mu.Unlock()

	m.log.Info("market reset", "stocks", len(table))
	m.emitStockTable(table)
	m.emitAdminStockTable(table)
	m.requestSave()
}

func normalizeName(name, fallback string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return fallback
	}
	return name
}
