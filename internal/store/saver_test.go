package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"festmarket/internal/market"
)

type countingStore struct {
	mu    sync.Mutex
	saves int
	last  *market.Snapshot
}

func (c *countingStore) Save(_ context.Context, snap *market.Snapshot) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.saves++
	c.last = snap
	return nil
}

func (c *countingStore) Load(context.Context) (*market.Snapshot, error) { return nil, nil }

func (c *countingStore) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.saves
}

func TestSaverCoalescesBursts(t *testing.T) {
	cs := &countingStore{}
	captured := 0
	saver := NewSaver(cs, func() *market.Snapshot {
		captured++
		return market.DefaultSnapshot()
	}, 50*time.Millisecond, nil)

	for i := 0; i < 25; i++ {
		saver.Request()
	}
	time.Sleep(200 * time.Millisecond)

	if got := cs.count(); got != 1 {
		t.Fatalf("burst produced %d writes, want 1", got)
	}
	if captured != 1 {
		t.Fatalf("state captured %d times, want 1 (at flush)", captured)
	}

	// A request after the window fires its own write.
	saver.Request()
	time.Sleep(200 * time.Millisecond)
	if got := cs.count(); got != 2 {
		t.Fatalf("follow-up produced %d writes, want 2", got)
	}
}

func TestSaverCloseFlushesOnce(t *testing.T) {
	cs := &countingStore{}
	saver := NewSaver(cs, market.DefaultSnapshot, time.Hour, nil)

	saver.Request()
	saver.Close()
	if got := cs.count(); got != 1 {
		t.Fatalf("close flushed %d times, want 1", got)
	}

	saver.Request()
	saver.Close()
	time.Sleep(50 * time.Millisecond)
	if got := cs.count(); got != 1 {
		t.Fatalf("closed saver wrote again: %d", got)
	}
}
