package market

import "time"

const (
	defaultBaseTickMs = 3000
	defaultLiquidity  = 800.0
)

// Snapshot is the full durable state: config, stocks, users. Live clocks are
// excluded; they are rebuilt from volatility on restore.
type Snapshot struct {
	Config ConfigSnapshot    `json:"config"`
	Stocks []StockSnapshot   `json:"stocks"`
	Users  []AccountSnapshot `json:"users"`
}

type ConfigSnapshot struct {
	StartingBalance float64 `json:"starting_balance"`
	BaseTickMs      int64   `json:"base_tick_ms"`
	Liquidity       float64 `json:"liquidity"`
}

type StockSnapshot struct {
	Ticker     string  `json:"ticker"`
	Name       string  `json:"name"`
	Price      float64 `json:"price"`
	BasePrice  float64 `json:"base_price"`
	Volatility float64 `json:"volatility"`
	Paused     bool    `json:"paused"`
}

type AccountSnapshot struct {
	Nickname string         `json:"nickname"`
	Balance  float64        `json:"balance"`
	Holdings map[string]int `json:"holdings,omitempty"`
	History  []TradeRecord  `json:"history,omitempty"`
}

// DefaultSnapshot is the bootstrap market: one stock, empty ledger.
func DefaultSnapshot() *Snapshot {
	return &Snapshot{
		Config: ConfigSnapshot{
			StartingBalance: 0,
			BaseTickMs:      defaultBaseTickMs,
			Liquidity:       defaultLiquidity,
		},
		Stocks: []StockSnapshot{
			{
				Ticker:     "FEST",
				Name:       "Festival Index",
				Price:      100,
				BasePrice:  100,
				Volatility: 1.0,
			},
		},
	}
}

func (m *Market) restore(snap *Snapshot) {
	baseTick := time.Duration(snap.Config.BaseTickMs) * time.Millisecond
	if baseTick <= 0 {
		baseTick = defaultBaseTickMs * time.Millisecond
	}
	liquidity := snap.Config.Liquidity
	if liquidity < 1 {
		liquidity = defaultLiquidity
	}
	m.cfg = Config{
		StartingBalance: round2(max(0, snap.Config.StartingBalance)),
		BaseTick:        baseTick,
		Liquidity:       liquidity,
	}

	for _, s := range snap.Stocks {
		ticker := NormalizeTicker(s.Ticker)
		if ticker == "" {
			m.log.Warn("dropping stock with unusable ticker", "ticker", s.Ticker)
			continue
		}
		name := s.Name
		if name == "" {
			name = ticker
		}
		m.stocks[ticker] = &Stock{
			Ticker:     ticker,
			Name:       name,
			Price:      round2(clampPrice(s.Price)),
			BasePrice:  round2(clampPrice(s.BasePrice)),
			Volatility: clampVolatility(s.Volatility),
			Paused:     s.Paused,
		}
	}

	for _, u := range snap.Users {
		nick := NormalizeNickname(u.Nickname)
		if nick == "" {
			continue
		}
		acct := newAccount(nick, max(0, u.Balance))
		for ticker, qty := range u.Holdings {
			if t := NormalizeTicker(ticker); t != "" && qty > 0 {
				acct.Holdings[t] = qty
			}
		}
		if len(u.History) > HistoryCap {
			u.History = u.History[len(u.History)-HistoryCap:]
		}
		acct.History = append(acct.History, u.History...)
		m.accounts[nick] = acct
	}
}

// SnapshotState captures the full state for persistence. Safe to call from
// any goroutine.
func (m *Market) SnapshotState() *Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := &Snapshot{
		Config: ConfigSnapshot{
			StartingBalance: m.cfg.StartingBalance,
			BaseTickMs:      m.cfg.BaseTick.Milliseconds(),
			Liquidity:       m.cfg.Liquidity,
		},
		Stocks: make([]StockSnapshot, 0, len(m.stocks)),
		Users:  make([]AccountSnapshot, 0, len(m.accounts)),
	}
	for _, s := range m.stocks {
		snap.Stocks = append(snap.Stocks, StockSnapshot{
			Ticker:     s.Ticker,
			Name:       s.Name,
			Price:      s.Price,
			BasePrice:  s.BasePrice,
			Volatility: s.Volatility,
			Paused:     s.Paused,
		})
	}
	for _, a := range m.accounts {
		holdings := make(map[string]int, len(a.Holdings))
		for t, q := range a.Holdings {
			holdings[t] = q
		}
		history := make([]TradeRecord, len(a.History))
		copy(history, a.History)
		snap.Users = append(snap.Users, AccountSnapshot{
			Nickname: a.Nickname,
			Balance:  a.Balance,
			Holdings: holdings,
			History:  history,
		})
	}
	return snap
}
