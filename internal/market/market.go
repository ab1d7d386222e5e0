package market

import (
	"context"
	"log/slog"
	mathrand "math/rand"
	"sort"
	"sync"
	"time"
)

// Config is process-wide market tuning. It travels inside the snapshot, so a
// restarted server keeps the operator's settings.
type Config struct {
	StartingBalance float64
	BaseTick        time.Duration
	Liquidity       float64
}

// Broadcaster fans state changes out to connected viewers. Implementations
// must not block; the market calls these outside its mutex.
type Broadcaster interface {
	StockTable(stocks []StockView)
	AdminStockTable(stocks []StockView)
	PriceUpdate(ticker string, price float64)
	AccountUpdate(account AccountView)
}

// SaveRequester accepts coalesced persistence requests. Fire-and-forget.
type SaveRequester interface {
	Request()
}

// Market owns the whole mutable state tree: stocks, accounts, and the drift
// clocks. One instance is constructed at process start and threaded through;
// a single mutex serializes trades, admin commands, and clock ticks.
type Market struct {
	mu       sync.Mutex
	cfg      Config
	stocks   map[string]*Stock
	accounts map[string]*Account
	clocks   map[string]*driftClock
	rand     *mathrand.Rand
	log      *slog.Logger

	broadcast Broadcaster
	saves     SaveRequester

	// ctx parents every drift clock; nil until Start.
	ctx context.Context
}

// New restores a market from snap, falling back to DefaultSnapshot when snap
// is nil. Drift clocks do not run until Start.
func New(snap *Snapshot, logger *slog.Logger) *Market {
	if logger == nil {
		logger = slog.Default()
	}
	if snap == nil {
		snap = DefaultSnapshot()
	}
	m := &Market{
		stocks:   make(map[string]*Stock),
		accounts: make(map[string]*Account),
		clocks:   make(map[string]*driftClock),
		rand:     mathrand.New(mathrand.NewSource(time.Now().UnixNano())),
		log:      logger,
	}
	m.restore(snap)
	return m
}

func (m *Market) SetBroadcaster(b Broadcaster) { m.broadcast = b }
func (m *Market) SetSaver(s SaveRequester)     { m.saves = s }

// Start launches one drift clock per stock. ctx cancellation stops every
// clock; Start must be called once, after collaborators are wired.
func (m *Market) Start(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ctx = ctx
	for ticker := range m.stocks {
		m.startClockLocked(ticker)
	}
}

// Config returns a copy of the current tuning.
func (m *Market) Config() Config {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cfg
}

// StockTable returns every stock sorted by ticker.
func (m *Market) StockTable() []StockView {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stockTableLocked()
}

func (m *Market) stockTableLocked() []StockView {
	out := make([]StockView, 0, len(m.stocks))
	for _, s := range m.stocks {
		out = append(out, s.view())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Ticker < out[j].Ticker })
	return out
}

func (m *Market) emitStockTable(stocks []StockView) {
	if m.broadcast != nil {
		m.broadcast.StockTable(stocks)
	}
}

func (m *Market) emitAdminStockTable(stocks []StockView) {
	if m.broadcast != nil {
		m.broadcast.AdminStockTable(stocks)
	}
}

func (m *Market) emitPrice(ticker string, price float64) {
	if m.broadcast != nil {
		m.broadcast.PriceUpdate(ticker, price)
	}
}

func (m *Market) emitAccount(account AccountView) {
	if m.broadcast != nil {
		m.broadcast.AccountUpdate(account)
	}
}

func (m *Market) requestSave() {
	if m.saves != nil {
		m.saves.Request()
	}
}
