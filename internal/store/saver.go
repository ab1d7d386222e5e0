package store

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"festmarket/internal/market"
)

const DefaultDebounce = 300 * time.Millisecond

// Saver coalesces save requests: the first Request in a quiet window arms a
// timer, later ones are folded into it, and the write that eventually fires
// captures the state current at that moment. Failures are logged and
// swallowed; the market never blocks on storage health.
type Saver struct {
	store    Store
	capture  func() *market.Snapshot
	debounce time.Duration
	log      *slog.Logger

	mu     sync.Mutex
	timer  *time.Timer
	closed bool
}

func NewSaver(store Store, capture func() *market.Snapshot, debounce time.Duration, logger *slog.Logger) *Saver {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Saver{
		store:    store,
		capture:  capture,
		debounce: debounce,
		log:      logger,
	}
}

// Request schedules a write. Non-blocking; bursts collapse into one write of
// the latest full snapshot.
func (s *Saver) Request() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.timer != nil {
		return
	}
	s.timer = time.AfterFunc(s.debounce, s.flush)
}

func (s *Saver) flush() {
	s.mu.Lock()
	s.timer = nil
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return
	}
	s.write()
}

// Close stops the pending timer and writes one final snapshot synchronously.
func (s *Saver) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.mu.Unlock()
	s.write()
}

func (s *Saver) write() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.store.Save(ctx, s.capture()); err != nil {
		s.log.Error("snapshot save failed", "err", err)
	}
}
