package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	cl "festmarket/internal/cli"
	"festmarket/internal/config"
	"festmarket/internal/market"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	_ = godotenv.Load()
	cfg := config.LoadCLIFromEnv()
	apiBase := cfg.APIBaseURL

	root := &cobra.Command{
		Use:          "fest",
		Short:        "Festival market floor client",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&apiBase, "api", apiBase, "market server base URL")

	root.AddCommand(
		newRegisterCmd(&apiBase),
		newStocksCmd(&apiBase),
		newQuoteCmd(&apiBase),
		newBuyCmd(&apiBase),
		newSellCmd(&apiBase),
		newAccountCmd(&apiBase),
		newWatchCmd(&apiBase),
		newAdminCmd(&apiBase),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newClient(apiBase *string) *cl.Client {
	return cl.NewClient(strings.TrimRight(strings.TrimSpace(*apiBase), "/"))
}

func newRegisterCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "register [nickname]",
		Short: "Claim a nickname on the market floor",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var nickname string
			var err error
			if len(args) > 0 {
				nickname = strings.TrimSpace(args[0])
			} else {
				nickname, err = promptRequired("Nickname")
				if err != nil {
					return err
				}
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			account, err := newClient(apiBase).Register(ctx, nickname)
			if err != nil {
				return err
			}
			if err := cl.SaveProfile(cl.Profile{Nickname: account.Nickname, APIBaseURL: *apiBase}); err != nil {
				return err
			}
			printSuccess(fmt.Sprintf("Welcome, %s. Balance: %s", account.Nickname, formatMoney(account.Balance)))
			return nil
		},
	}
}

func newStocksCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "stocks",
		Short: "Show the full stock board",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			stocks, err := newClient(apiBase).ListStocks(ctx)
			if err != nil {
				return err
			}
			renderStockTable(stocks)
			return nil
		},
	}
}

func newQuoteCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "quote [ticker]",
		Short: "Inspect one stock",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ticker, err := tickerFromArgsOrPrompt(args)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			stock, err := newClient(apiBase).StockDetail(ctx, ticker)
			if err != nil {
				return err
			}
			renderStockDetail(stock)
			return nil
		},
	}
}

func newBuyCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "buy [ticker] [qty]",
		Short: "Buy whole shares",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return placeOrderCommand(cmd, apiBase, "buy", args)
		},
	}
}

func newSellCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "sell [ticker] [qty]",
		Short: "Sell whole shares",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return placeOrderCommand(cmd, apiBase, "sell", args)
		},
	}
}

func placeOrderCommand(cmd *cobra.Command, apiBase *string, side string, args []string) error {
	profile, err := cl.LoadProfile()
	if err != nil {
		return fmt.Errorf("register first: %w", err)
	}
	ticker, err := tickerFromArgsOrPrompt(args)
	if err != nil {
		return err
	}
	qty, err := qtyFromArgsOrPrompt(args, 1)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()
	result, err := newClient(apiBase).PlaceOrder(ctx, profile.Nickname, ticker, side, qty)
	if err != nil {
		return err
	}
	renderTradeResult(side, result)
	return nil
}

func newAccountCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "account [nickname]",
		Short: "Show balance, holdings and recent trades",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			nickname := ""
			if len(args) > 0 {
				nickname = strings.TrimSpace(args[0])
			} else {
				profile, err := cl.LoadProfile()
				if err != nil {
					return fmt.Errorf("register first or pass a nickname: %w", err)
				}
				nickname = profile.Nickname
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			account, err := newClient(apiBase).Account(ctx, nickname)
			if err != nil {
				return err
			}
			renderAccount(account)
			return nil
		},
	}
}

func tickerFromArgsOrPrompt(args []string) (string, error) {
	if len(args) > 0 {
		ticker := market.NormalizeTicker(args[0])
		if ticker == "" {
			return "", fmt.Errorf("invalid ticker %q", args[0])
		}
		return ticker, nil
	}
	return promptTicker("Ticker")
}

func qtyFromArgsOrPrompt(args []string, idx int) (int, error) {
	if len(args) > idx {
		return parseQty(args[idx])
	}
	return promptQty("Shares")
}
