package hub

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"festmarket/internal/market"
)

func dialTestHub(t *testing.T, h *Hub, admin bool) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		welcome := NewStocksEvent([]market.StockView{{Ticker: "FEST", Price: 100}})
		if err := h.ServeWS(w, r, admin, welcome); err != nil {
			t.Errorf("serve ws: %v", err)
		}
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("decode %q: %v", raw, err)
	}
	return out
}

func TestWelcomeAndBroadcast(t *testing.T) {
	h := New(nil)
	conn := dialTestHub(t, h, false)

	welcome := readEvent(t, conn)
	if welcome["type"] != "stocks" {
		t.Fatalf("welcome type %v", welcome["type"])
	}

	waitForViewers(t, h, 1)
	h.PriceUpdate("FEST", 106.45)

	ev := readEvent(t, conn)
	if ev["type"] != "price" || ev["ticker"] != "FEST" || ev["price"] != 106.45 {
		t.Fatalf("price event %v", ev)
	}
}

func TestAdminOnlyEvents(t *testing.T) {
	h := New(nil)
	viewer := dialTestHub(t, h, false)
	admin := dialTestHub(t, h, true)

	readEvent(t, viewer) // welcome
	readEvent(t, admin)  // welcome
	waitForViewers(t, h, 2)

	h.AdminStockTable([]market.StockView{{Ticker: "FEST", Price: 100}})
	h.PriceUpdate("FEST", 99)

	// Admin sees both, in order.
	if ev := readEvent(t, admin); ev["type"] != "stocks" {
		t.Fatalf("admin first event %v", ev)
	}
	if ev := readEvent(t, admin); ev["type"] != "price" {
		t.Fatalf("admin second event %v", ev)
	}
	// The plain viewer must skip straight to the price update.
	if ev := readEvent(t, viewer); ev["type"] != "price" {
		t.Fatalf("viewer got %v, admin table leaked", ev)
	}
}

func waitForViewers(t *testing.T, h *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if h.Viewers() == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("viewers=%d want %d", h.Viewers(), want)
}
