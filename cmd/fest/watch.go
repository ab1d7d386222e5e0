package main

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"festmarket/internal/market"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
)

// watch streams market events to the terminal until interrupted.
func newWatchCmd(apiBase *string) *cobra.Command {
	var adminKey string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Stream live prices from the market floor",
		RunE: func(cmd *cobra.Command, args []string) error {
			wsURL, err := watchURL(*apiBase, adminKey)
			if err != nil {
				return err
			}
			conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
			if err != nil {
				return fmt.Errorf("connect %s: %w", wsURL, err)
			}
			defer conn.Close()

			stop := make(chan os.Signal, 1)
			signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
			go func() {
				<-stop
				conn.Close()
			}()

			printInfo("Watching the market. Ctrl-C to stop.")
			for {
				_, raw, err := conn.ReadMessage()
				if err != nil {
					return nil
				}
				renderWatchEvent(raw)
			}
		},
	}
	cmd.Flags().StringVar(&adminKey, "key", "", "admin key to also receive operator events")
	return cmd
}

func watchURL(apiBase, adminKey string) (string, error) {
	u, err := url.Parse(strings.TrimRight(strings.TrimSpace(apiBase), "/"))
	if err != nil {
		return "", fmt.Errorf("bad api base %q: %w", apiBase, err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = "/v1/ws"
	if key := strings.TrimSpace(adminKey); key != "" {
		q := u.Query()
		q.Set("admin_key", key)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

func renderWatchEvent(raw []byte) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return
	}
	switch head.Type {
	case "stocks":
		var ev struct {
			Stocks []market.StockView `json:"stocks"`
		}
		if err := json.Unmarshal(raw, &ev); err != nil {
			return
		}
		renderStockTable(ev.Stocks)
	case "price":
		var ev struct {
			Ticker string  `json:"ticker"`
			Price  float64 `json:"price"`
		}
		if err := json.Unmarshal(raw, &ev); err != nil {
			return
		}
		fmt.Printf("%s  %s\n", accent.Sprintf("%-8s", ev.Ticker), formatMoney(ev.Price))
	case "account":
		var ev struct {
			Account market.AccountView `json:"account"`
		}
		if err := json.Unmarshal(raw, &ev); err != nil {
			return
		}
		printInfo(fmt.Sprintf("account %s balance %s", ev.Account.Nickname, formatMoney(ev.Account.Balance)))
	}
}
