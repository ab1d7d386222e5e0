package hub

import "festmarket/internal/market"

// Event shapes on the wire. Type tags what follows: "stocks" carries the
// full table, "price" a single ticker move, "account" the account that just
// changed.
type StocksEvent struct {
	Type   string             `json:"type"`
	Stocks []market.StockView `json:"stocks"`
}

type PriceEvent struct {
	Type   string  `json:"type"`
	Ticker string  `json:"ticker"`
	Price  float64 `json:"price"`
}

type AccountEvent struct {
	Type    string             `json:"type"`
	Account market.AccountView `json:"account"`
}

func NewStocksEvent(stocks []market.StockView) StocksEvent {
	return StocksEvent{Type: "stocks", Stocks: stocks}
}

// The hub is the market's broadcast gateway.
var _ market.Broadcaster = (*Hub)(nil)

func (h *Hub) StockTable(stocks []market.StockView) {
	h.Broadcast(NewStocksEvent(stocks))
}

func (h *Hub) AdminStockTable(stocks []market.StockView) {
	h.BroadcastAdmin(NewStocksEvent(stocks))
}

func (h *Hub) PriceUpdate(ticker string, price float64) {
	h.Broadcast(PriceEvent{Type: "price", Ticker: ticker, Price: price})
}

func (h *Hub) AccountUpdate(account market.AccountView) {
	h.Broadcast(AccountEvent{Type: "account", Account: account})
}
