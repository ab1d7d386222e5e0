package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"festmarket/internal/market"
)

type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type accountPayload struct {
	Account market.AccountView `json:"account"`
}

type stocksPayload struct {
	Stocks []market.StockView `json:"stocks"`
}

func (c *Client) Register(ctx context.Context, nickname string) (market.AccountView, error) {
	var out accountPayload
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/register", "", map[string]any{
		"nickname": nickname,
	}, &out)
	return out.Account, err
}

func (c *Client) ListStocks(ctx context.Context) ([]market.StockView, error) {
	var out stocksPayload
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/stocks", "", nil, &out)
	return out.Stocks, err
}

func (c *Client) StockDetail(ctx context.Context, ticker string) (market.StockView, error) {
	var out market.StockView
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/stocks/"+url.PathEscape(ticker), "", nil, &out)
	return out, err
}

func (c *Client) Account(ctx context.Context, nickname string) (market.AccountView, error) {
	var out accountPayload
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/accounts/"+url.PathEscape(nickname), "", nil, &out)
	return out.Account, err
}

func (c *Client) PlaceOrder(ctx context.Context, nickname, ticker, side string, qty int) (market.TradeResult, error) {
	var out market.TradeResult
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/orders", "", map[string]any{
		"nickname": nickname,
		"ticker":   ticker,
		"side":     side,
		"quantity": qty,
	}, &out)
	return out, err
}

func (c *Client) CreateStock(ctx context.Context, adminKey, ticker, name string, price, volatility float64) (market.StockView, error) {
	var out market.StockView
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/admin/stocks", adminKey, map[string]any{
		"ticker":     ticker,
		"name":       name,
		"price":      price,
		"volatility": volatility,
	}, &out)
	return out, err
}

func (c *Client) SetPrice(ctx context.Context, adminKey, ticker string, price float64) error {
	return c.jsonRequest(ctx, http.MethodPost, "/v1/admin/stocks/"+url.PathEscape(ticker)+"/price", adminKey, map[string]any{
		"price": price,
	}, nil)
}

func (c *Client) SetVolatility(ctx context.Context, adminKey, ticker string, volatility float64) error {
	return c.jsonRequest(ctx, http.MethodPost, "/v1/admin/stocks/"+url.PathEscape(ticker)+"/volatility", adminKey, map[string]any{
		"volatility": volatility,
	}, nil)
}

func (c *Client) TogglePause(ctx context.Context, adminKey, ticker string) (bool, error) {
	var out struct {
		Paused bool `json:"paused"`
	}
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/admin/stocks/"+url.PathEscape(ticker)+"/pause", adminKey, nil, &out)
	return out.Paused, err
}

func (c *Client) ResetAll(ctx context.Context, adminKey string) error {
	return c.jsonRequest(ctx, http.MethodPost, "/v1/admin/reset", adminKey, nil, nil)
}

func (c *Client) GiveCash(ctx context.Context, adminKey, nickname string, amount float64) (market.AccountView, error) {
	var out accountPayload
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/admin/cash", adminKey, map[string]any{
		"nickname": nickname,
		"amount":   amount,
	}, &out)
	return out.Account, err
}

func (c *Client) jsonRequest(ctx context.Context, method, path, adminKey string, in any, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if adminKey != "" {
		req.Header.Set("X-Admin-Key", adminKey)
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("api status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
