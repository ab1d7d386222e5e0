package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"festmarket/internal/auth"
	"festmarket/internal/config"
	"festmarket/internal/hub"
	"festmarket/internal/market"
)

const testAdminKey = "floor-boss"

func newTestServer(t *testing.T) (*Server, *market.Market) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := market.New(&market.Snapshot{
		Config: market.ConfigSnapshot{StartingBalance: 10000, BaseTickMs: 3000, Liquidity: 800},
		Stocks: []market.StockSnapshot{
			{Ticker: "FEST", Name: "Festival Index", Price: 100, BasePrice: 100, Volatility: 1.0},
		},
	}, logger)
	s := New(config.ServerConfig{}, logger, auth.NewGate(testAdminKey), m, hub.New(logger))
	return s, m
}

func doJSON(t *testing.T, s *Server, method, path, adminKey, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if adminKey != "" {
		req.Header.Set("X-Admin-Key", adminKey)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestRegisterAndAccount(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/v1/register", "", `{"nickname":"alice"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("register status %d: %s", rec.Code, rec.Body.String())
	}
	out := decodeBody(t, rec)
	account := out["account"].(map[string]any)
	if account["nickname"] != "alice" || account["balance"] != 10000.0 {
		t.Fatalf("account %v", account)
	}

	rec = doJSON(t, s, http.MethodGet, "/v1/accounts/alice", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("account status %d", rec.Code)
	}
	rec = doJSON(t, s, http.MethodGet, "/v1/accounts/nobody", "", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing account status %d", rec.Code)
	}
}

func TestOrderFlow(t *testing.T) {
	s, _ := newTestServer(t)
	doJSON(t, s, http.MethodPost, "/v1/register", "", `{"nickname":"alice"}`)

	rec := doJSON(t, s, http.MethodPost, "/v1/orders", "", `{"nickname":"alice","ticker":"FEST","side":"buy","quantity":50}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("order status %d: %s", rec.Code, rec.Body.String())
	}
	out := decodeBody(t, rec)
	if out["price"] != 106.45 {
		t.Fatalf("post-impact price %v", out["price"])
	}
	record := out["record"].(map[string]any)
	if record["price"] != 100.0 || record["quantity"] != 50.0 {
		t.Fatalf("record %v", record)
	}
}

func TestOrderErrorMapping(t *testing.T) {
	s, m := newTestServer(t)
	doJSON(t, s, http.MethodPost, "/v1/register", "", `{"nickname":"alice"}`)

	cases := []struct {
		name string
		body string
		want int
	}{
		{"unknown ticker", `{"nickname":"alice","ticker":"NOPE","side":"buy","quantity":1}`, http.StatusNotFound},
		{"bad side", `{"nickname":"alice","ticker":"FEST","side":"hold","quantity":1}`, http.StatusBadRequest},
		{"zero quantity", `{"nickname":"alice","ticker":"FEST","side":"buy","quantity":0}`, http.StatusBadRequest},
		{"broke", `{"nickname":"alice","ticker":"FEST","side":"buy","quantity":9999}`, http.StatusBadRequest},
		{"no shares", `{"nickname":"alice","ticker":"FEST","side":"sell","quantity":1}`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		if rec := doJSON(t, s, http.MethodPost, "/v1/orders", "", tc.body); rec.Code != tc.want {
			t.Errorf("%s: status %d want %d", tc.name, rec.Code, tc.want)
		}
	}

	m.TogglePause("FEST")
	rec := doJSON(t, s, http.MethodPost, "/v1/orders", "", `{"nickname":"alice","ticker":"FEST","side":"buy","quantity":1}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("paused trade status %d", rec.Code)
	}
}

func TestAdminGate(t *testing.T) {
	s, _ := newTestServer(t)

	body := `{"ticker":"DJ","name":"DJ Booth","price":50,"volatility":2}`
	if rec := doJSON(t, s, http.MethodPost, "/v1/admin/stocks", "", body); rec.Code != http.StatusUnauthorized {
		t.Fatalf("no key status %d", rec.Code)
	}
	if rec := doJSON(t, s, http.MethodPost, "/v1/admin/stocks", "wrong", body); rec.Code != http.StatusUnauthorized {
		t.Fatalf("wrong key status %d", rec.Code)
	}

	rec := doJSON(t, s, http.MethodPost, "/v1/admin/stocks", testAdminKey, body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status %d: %s", rec.Code, rec.Body.String())
	}
	// Duplicate ticker is a conflict.
	if rec := doJSON(t, s, http.MethodPost, "/v1/admin/stocks", testAdminKey, body); rec.Code != http.StatusConflict {
		t.Fatalf("duplicate status %d", rec.Code)
	}
}

func TestAdminOperations(t *testing.T) {
	s, m := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/v1/admin/stocks/FEST/price", testAdminKey, `{"price":150}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("set price status %d", rec.Code)
	}
	if stock, _ := m.GetStock("FEST"); stock.Price != 150 {
		t.Fatalf("price %v after admin set", stock.Price)
	}

	rec = doJSON(t, s, http.MethodPost, "/v1/admin/stocks/FEST/pause", testAdminKey, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("pause status %d", rec.Code)
	}
	if out := decodeBody(t, rec); out["paused"] != true {
		t.Fatalf("pause payload %v", out)
	}
	if rec := doJSON(t, s, http.MethodPost, "/v1/admin/stocks/NOPE/pause", testAdminKey, ""); rec.Code != http.StatusNotFound {
		t.Fatalf("pause unknown status %d", rec.Code)
	}

	rec = doJSON(t, s, http.MethodPost, "/v1/admin/cash", testAdminKey, `{"nickname":"bob","amount":500}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("givecash status %d: %s", rec.Code, rec.Body.String())
	}
	if rec := doJSON(t, s, http.MethodPost, "/v1/admin/cash", testAdminKey, `{"nickname":"bob","amount":-5}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("negative grant status %d", rec.Code)
	}

	rec = doJSON(t, s, http.MethodPost, "/v1/admin/reset", testAdminKey, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("reset status %d", rec.Code)
	}
	if stock, _ := m.GetStock("FEST"); stock.Price != 100 || stock.Paused {
		t.Fatalf("stock after reset %+v", stock)
	}
	if _, ok := m.Account("bob"); ok {
		t.Fatal("accounts survived reset")
	}
}

func TestStocksEndpoints(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doJSON(t, s, http.MethodGet, "/v1/stocks", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list status %d", rec.Code)
	}
	out := decodeBody(t, rec)
	if stocks := out["stocks"].([]any); len(stocks) != 1 {
		t.Fatalf("stocks %v", stocks)
	}

	if rec := doJSON(t, s, http.MethodGet, "/v1/stocks/FEST", "", ""); rec.Code != http.StatusOK {
		t.Fatalf("detail status %d", rec.Code)
	}
	if rec := doJSON(t, s, http.MethodGet, "/v1/stocks/NOPE", "", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("missing detail status %d", rec.Code)
	}
}
