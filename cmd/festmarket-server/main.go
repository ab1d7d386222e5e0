package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"festmarket/internal/api"
	"festmarket/internal/auth"
	"festmarket/internal/config"
	"festmarket/internal/hub"
	"festmarket/internal/market"
	"festmarket/internal/store"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadServerFromEnv()
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	var st store.Store
	if cfg.DatabaseURL != "" {
		pg, err := store.NewPostgresStore(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("postgres connect failed", "err", err)
			os.Exit(1)
		}
		defer pg.Close()
		st = pg
		logger.Info("snapshots stored in postgres")
	} else {
		st = store.NewFileStore(cfg.DataFile)
		logger.Info("snapshots stored on disk", "path", cfg.DataFile)
	}

	snap, err := st.Load(ctx)
	if err != nil {
		logger.Warn("snapshot load failed, starting fresh", "err", err)
		snap = nil
	}
	if snap == nil {
		snap = market.DefaultSnapshot()
		snap.Config.StartingBalance = cfg.StartingBalance
		snap.Config.BaseTickMs = cfg.BaseTick.Milliseconds()
		snap.Config.Liquidity = cfg.Liquidity
	}

	m := market.New(snap, logger)

	h := hub.New(logger)
	defer h.Close()
	m.SetBroadcaster(h)

	saver := store.NewSaver(st, m.SnapshotState, cfg.SaveDebounce, logger)
	m.SetSaver(saver)

	m.Start(ctx)

	gate := auth.NewGate(cfg.AdminKey)
	server := api.New(cfg, logger, gate, m, h)
	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	logger.Info("festmarket listening", "addr", cfg.Addr)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server failed", "err", err)
		os.Exit(1)
	}

	// Drift clocks die with ctx; flush whatever is pending before exit.
	saver.Close()
	logger.Info("shutdown complete")
}
