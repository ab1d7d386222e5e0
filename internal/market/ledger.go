package market

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// Register creates the account for nickname at the starting balance, or
// returns the existing one. Nickname collisions resume the existing account;
// identity is the bare name.
func (m *Market) Register(nickname string) (AccountView, error) {
	nick := NormalizeNickname(nickname)
	if nick == "" {
		return AccountView{}, ErrNicknameRequired
	}

	m.mu.Lock()
	acct, existed := m.accounts[nick]
	if !existed {
		acct = newAccount(nick, m.cfg.StartingBalance)
		m.accounts[nick] = acct
	}
	view := acct.view()
	m.mu.Unlock()

	if !existed {
		m.log.Info("account registered", "nickname", nick)
		m.emitAccount(view)
		m.requestSave()
	}
	return view, nil
}

// Account returns the public view for nickname.
func (m *Market) Account(nickname string) (AccountView, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	acct, ok := m.accounts[NormalizeNickname(nickname)]
	if !ok {
		return AccountView{}, false
	}
	return acct.view(), true
}

// GiveCash grants amount to nickname, creating the account if needed.
func (m *Market) GiveCash(nickname string, amount float64) (AccountView, error) {
	nick := NormalizeNickname(nickname)
	if nick == "" {
		return AccountView{}, ErrNicknameRequired
	}
	if math.IsNaN(amount) || math.IsInf(amount, 0) || round2(amount) <= 0 {
		return AccountView{}, ErrBadAmount
	}

	m.mu.Lock()
	acct, ok := m.accounts[nick]
	if !ok {
		acct = newAccount(nick, m.cfg.StartingBalance)
		m.accounts[nick] = acct
	}
	acct.Balance = round2(acct.Balance + round2(amount))
	view := acct.view()
	m.mu.Unlock()

	m.log.Info("cash granted", "nickname", nick, "amount", round2(amount))
	m.emitAccount(view)
	m.requestSave()
	return view, nil
}

// Trade executes one buy or sell against the current market price.
// Validation is ordered and all-or-nothing: any failure leaves every piece
// of state untouched. The trader fills at the pre-impact price; the stored
// price then moves by the trade's impact for subsequent viewers.
func (m *Market) Trade(side Side, nickname, ticker string, qty int) (TradeResult, error) {
	if side != SideBuy && side != SideSell {
		return TradeResult{}, ErrBadSide
	}
	nick := NormalizeNickname(nickname)
	if nick == "" {
		return TradeResult{}, ErrNicknameRequired
	}

	m.mu.Lock()
	stock, ok := m.stocks[NormalizeTicker(ticker)]
	if !ok {
		m.mu.Unlock()
		return TradeResult{}, ErrUnknownTicker
	}
	if stock.Paused {
		m.mu.Unlock()
		return TradeResult{}, ErrMarketPaused
	}
	if qty < 1 {
		m.mu.Unlock()
		return TradeResult{}, ErrBadQuantity
	}

	acct, ok := m.accounts[nick]
	if !ok {
		acct = newAccount(nick, m.cfg.StartingBalance)
		m.accounts[nick] = acct
	}

	execPrice := stock.Price
	cost := round2(execPrice * float64(qty))
	switch side {
	case SideBuy:
		if acct.Balance < cost {
			m.mu.Unlock()
			return TradeResult{}, ErrInsufficientBalance
		}
		acct.Balance = round2(acct.Balance - cost)
		acct.Holdings[stock.Ticker] += qty
	case SideSell:
		if acct.Holdings[stock.Ticker] < qty {
			m.mu.Unlock()
			return TradeResult{}, ErrInsufficientHoldings
		}
		acct.Balance = round2(acct.Balance + cost)
		acct.Holdings[stock.Ticker] -= qty
		if acct.Holdings[stock.Ticker] == 0 {
			delete(acct.Holdings, stock.Ticker)
		}
	}

	record := TradeRecord{
		ID:       uuid.NewString(),
		At:       time.Now().UTC(),
		Side:     side,
		Ticker:   stock.Ticker,
		Quantity: qty,
		Price:    execPrice,
	}
	acct.History = append(acct.History, record)
	if len(acct.History) > HistoryCap {
		acct.History = acct.History[len(acct.History)-HistoryCap:]
	}

	stock.Price = impactPrice(stock.Price, qty, stock.Volatility, m.cfg.Liquidity, side)
	newPrice := stock.Price
	view := acct.view()
	m.mu.Unlock()

	m.log.Info("trade filled",
		"nickname", nick, "side", side, "ticker", record.Ticker,
		"quantity", qty, "price", execPrice, "new_price", newPrice)
	m.emitPrice(record.Ticker, newPrice)
	m.emitAccount(view)
	m.requestSave()
	return TradeResult{Account: view, Price: newPrice, Record: record}, nil
}
