package market

import (
	"errors"
	"strings"
	"time"
	"unicode"
)

const (
	TickerMaxLen   = 6
	NicknameMaxLen = 24

	HistoryCap     = 200
	HistoryVisible = 20

	MinPrice          = 0.01
	DefaultPrice      = 100.0
	MinVolatility     = 0.2
	MaxVolatility     = 5.0
	DefaultVolatility = 1.0

	// MinDriftInterval bounds the clock cadence so a high-volatility stock
	// cannot spin the scheduler.
	MinDriftInterval = 250 * time.Millisecond
)

var (
	ErrNicknameRequired     = errors.New("nickname required")
	ErrUnknownTicker        = errors.New("unknown ticker")
	ErrMarketPaused         = errors.New("trading paused for this ticker")
	ErrBadQuantity          = errors.New("quantity must be >= 1")
	ErrBadSide              = errors.New("side must be buy or sell")
	ErrBadAmount            = errors.New("amount must be > 0")
	ErrInsufficientBalance  = errors.New("insufficient balance")
	ErrInsufficientHoldings = errors.New("insufficient holdings")
)

type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

func ParseSide(s string) (Side, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "buy":
		return SideBuy, nil
	case "sell":
		return SideSell, nil
	}
	return "", ErrBadSide
}

// Stock is a single tradable instrument. BasePrice anchors mean reversion and
// only changes on ResetAll.
type Stock struct {
	Ticker     string
	Name       string
	Price      float64
	BasePrice  float64
	Volatility float64
	Paused     bool
}

// Account is keyed by bare nickname. No secret backs it; a reconnecting
// player resumes by typing the same name.
type Account struct {
	Nickname string
	Balance  float64
	Holdings map[string]int
	History  []TradeRecord
}

// TradeRecord is an immutable fill: Price is the pre-impact execution price.
type TradeRecord struct {
	ID       string    `json:"id"`
	At       time.Time `json:"at"`
	Side     Side      `json:"side"`
	Ticker   string    `json:"ticker"`
	Quantity int       `json:"quantity"`
	Price    float64   `json:"price"`
}

type StockView struct {
	Ticker     string  `json:"ticker"`
	Name       string  `json:"name"`
	Price      float64 `json:"price"`
	BasePrice  float64 `json:"base_price"`
	Volatility float64 `json:"volatility"`
	Paused     bool    `json:"paused"`
}

type AccountView struct {
	Nickname string         `json:"nickname"`
	Balance  float64        `json:"balance"`
	Holdings map[string]int `json:"holdings"`
	History  []TradeRecord  `json:"history"`
}

// TradeResult is what a successful trade returns: the post-trade account and
// the post-impact market price.
type TradeResult struct {
	Account AccountView `json:"account"`
	Price   float64     `json:"price"`
	Record  TradeRecord `json:"record"`
}

// NormalizeTicker strips everything outside [A-Za-z0-9], uppercases, and
// truncates to TickerMaxLen. An empty result means the input was unusable.
func NormalizeTicker(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r > unicode.MaxASCII {
			continue
		}
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToUpper(r))
		}
		if b.Len() == TickerMaxLen {
			break
		}
	}
	return b.String()
}

// NormalizeNickname trims whitespace and caps length. Nicknames stay
// case-sensitive.
func NormalizeNickname(raw string) string {
	nick := strings.TrimSpace(raw)
	if len(nick) > NicknameMaxLen {
		nick = strings.TrimSpace(nick[:NicknameMaxLen])
	}
	return nick
}

func (s *Stock) view() StockView {
	return StockView{
		Ticker:     s.Ticker,
		Name:       s.Name,
		Price:      s.Price,
		BasePrice:  s.BasePrice,
		Volatility: s.Volatility,
		Paused:     s.Paused,
	}
}

func newAccount(nickname string, balance float64) *Account {
	return &Account{
		Nickname: nickname,
		Balance:  round2(balance),
		Holdings: make(map[string]int),
	}
}

// view copies the account for callers outside the market mutex. History is
// clipped to the most recent HistoryVisible records, newest last.
func (a *Account) view() AccountView {
	holdings := make(map[string]int, len(a.Holdings))
	for t, q := range a.Holdings {
		holdings[t] = q
	}
	start := 0
	if len(a.History) > HistoryVisible {
		start = len(a.History) - HistoryVisible
	}
	history := make([]TradeRecord, len(a.History)-start)
	copy(history, a.History[start:])
	return AccountView{
		Nickname: a.Nickname,
		Balance:  a.Balance,
		Holdings: holdings,
		History:  history,
	}
}
