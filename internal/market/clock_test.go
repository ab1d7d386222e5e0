package market

import (
	"context"
	"testing"
	"time"
)

func TestDriftTickMovesPriceTowardBase(t *testing.T) {
	m := newTestMarket(&Snapshot{
		Config: ConfigSnapshot{BaseTickMs: 3000, Liquidity: 800},
		Stocks: []StockSnapshot{{Ticker: "FEST", Price: 50, BasePrice: 100, Volatility: 1}},
	})

	for i := 0; i < 100; i++ {
		m.driftTick("FEST")
	}
	st, _ := m.GetStock("FEST")
	if st.Price <= 50 {
		t.Fatalf("mean reversion should pull price up from 50, got %v", st.Price)
	}
	if st.Price < MinPrice {
		t.Fatalf("price below floor: %v", st.Price)
	}
}

func TestDriftTickPausedIsNoop(t *testing.T) {
	m := newTestMarket(testSnapshot())
	m.TogglePause("FEST")

	for i := 0; i < 50; i++ {
		m.driftTick("FEST")
	}
	st, _ := m.GetStock("FEST")
	if st.Price != 100 {
		t.Fatalf("paused stock drifted to %v", st.Price)
	}
}

func TestDriftTickUnknownTicker(t *testing.T) {
	m := newTestMarket(testSnapshot())
	m.driftTick("GONE") // must not panic
}

func TestClockRunsAndStops(t *testing.T) {
	m := newTestMarket(&Snapshot{
		// Base tick below the floor: clock runs at MinDriftInterval.
		Config: ConfigSnapshot{BaseTickMs: 1, Liquidity: 800},
		Stocks: []StockSnapshot{{Ticker: "FEST", Price: 50, BasePrice: 100, Volatility: 5}},
	})
	ctx, cancel := context.WithCancel(context.Background())
	m.Start(ctx)

	iv, ok := m.ClockInterval("FEST")
	if !ok || iv != MinDriftInterval {
		t.Fatalf("interval %v ok=%v want %v", iv, ok, MinDriftInterval)
	}

	deadline := time.Now().Add(3 * time.Second)
	moved := false
	for time.Now().Before(deadline) {
		st, _ := m.GetStock("FEST")
		if st.Price != 50 {
			moved = true
			break
		}
		time.Sleep(50 * time.Millisecond)
	}
	if !moved {
		t.Fatalf("clock never ticked")
	}

	cancel()
	time.Sleep(2 * MinDriftInterval)
	st, _ := m.GetStock("FEST")
	settled := st.Price
	time.Sleep(2 * MinDriftInterval)
	st, _ = m.GetStock("FEST")
	if st.Price != settled {
		t.Fatalf("clock still ticking after cancel: %v -> %v", settled, st.Price)
	}
}

func TestCreateStockBeforeStartDefersClock(t *testing.T) {
	m := newTestMarket(testSnapshot())
	if _, ok := m.ClockInterval("FEST"); ok {
		t.Fatalf("no clock may run before Start")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m.Start(ctx)
	if _, ok := m.ClockInterval("FEST"); !ok {
		t.Fatalf("Start must launch clocks for existing stocks")
	}

	if !m.CreateStock("NEW", "Newcomer", 10, 1) {
		t.Fatalf("create failed")
	}
	if _, ok := m.ClockInterval("NEW"); !ok {
		t.Fatalf("created stock must get a clock once started")
	}
}
