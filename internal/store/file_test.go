package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"festmarket/internal/market"
)

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "market.json")
	fs := NewFileStore(path)
	ctx := context.Background()

	snap := market.DefaultSnapshot()
	snap.Users = []market.AccountSnapshot{
		{Nickname: "Alice", Balance: 5000, Holdings: map[string]int{"FEST": 50}},
	}
	if err := fs.Save(ctx, snap); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := fs.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got == nil {
		t.Fatalf("expected snapshot")
	}
	if len(got.Stocks) != 1 || got.Stocks[0].Ticker != "FEST" {
		t.Fatalf("stocks: %+v", got.Stocks)
	}
	if len(got.Users) != 1 || got.Users[0].Holdings["FEST"] != 50 {
		t.Fatalf("users: %+v", got.Users)
	}
	if got.Config.Liquidity != snap.Config.Liquidity {
		t.Fatalf("config: %+v", got.Config)
	}
}

func TestFileStoreAbsent(t *testing.T) {
	fs := NewFileStore(filepath.Join(t.TempDir(), "missing.json"))
	got, err := fs.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil snapshot for missing file")
	}
}

func TestFileStoreCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "market.json")
	if err := os.WriteFile(path, []byte("{nope"), 0o600); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := NewFileStore(path).Load(context.Background()); err == nil {
		t.Fatalf("expected parse error for corrupt file")
	}
}
