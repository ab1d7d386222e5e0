package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	cl "festmarket/internal/cli"

	"github.com/spf13/cobra"
)

func newAdminCmd(apiBase *string) *cobra.Command {
	var adminKey string

	admin := &cobra.Command{
		Use:   "admin",
		Short: "Operator commands (require the admin key)",
	}
	admin.PersistentFlags().StringVar(&adminKey, "key", "", "admin key (falls back to FEST_ADMIN_KEY, then the saved profile)")

	admin.AddCommand(
		newAdminCreateCmd(apiBase, &adminKey),
		newAdminPriceCmd(apiBase, &adminKey),
		newAdminVolCmd(apiBase, &adminKey),
		newAdminPauseCmd(apiBase, &adminKey),
		newAdminResetCmd(apiBase, &adminKey),
		newAdminGiveCashCmd(apiBase, &adminKey),
	)
	return admin
}

func resolveAdminKey(flagKey *string) (string, error) {
	if key := strings.TrimSpace(*flagKey); key != "" {
		return key, nil
	}
	if key := strings.TrimSpace(os.Getenv("FEST_ADMIN_KEY")); key != "" {
		return key, nil
	}
	if profile, err := cl.LoadProfile(); err == nil && strings.TrimSpace(profile.AdminKey) != "" {
		return strings.TrimSpace(profile.AdminKey), nil
	}
	return "", fmt.Errorf("admin key required: pass --key or set FEST_ADMIN_KEY")
}

func newAdminCreateCmd(apiBase *string, adminKey *string) *cobra.Command {
	var name string
	var price float64
	var volatility float64

	cmd := &cobra.Command{
		Use:   "create [ticker]",
		Short: "List a new stock",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := resolveAdminKey(adminKey)
			if err != nil {
				return err
			}
			ticker, err := tickerFromArgsOrPrompt(args)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			stock, err := newClient(apiBase).CreateStock(ctx, key, ticker, name, price, volatility)
			if err != nil {
				return err
			}
			printSuccess(fmt.Sprintf("Listed %s (%s) at %s, volatility %.2f.",
				stock.Ticker, stock.Name, formatMoney(stock.Price), stock.Volatility))
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name (defaults to the ticker)")
	cmd.Flags().Float64Var(&price, "price", 0, "starting price (defaults to 100)")
	cmd.Flags().Float64Var(&volatility, "vol", 0, "volatility (defaults to 1.0)")
	return cmd
}

func newAdminPriceCmd(apiBase *string, adminKey *string) *cobra.Command {
	return &cobra.Command{
		Use:   "price [ticker] [price]",
		Short: "Force a stock to a price",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := resolveAdminKey(adminKey)
			if err != nil {
				return err
			}
			ticker, err := tickerFromArgsOrPrompt(args)
			if err != nil {
				return err
			}
			price, err := moneyFromArgsOrPrompt(args, 1, "New price")
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			if err := newClient(apiBase).SetPrice(ctx, key, ticker, price); err != nil {
				return err
			}
			printSuccess(fmt.Sprintf("%s set to %s.", ticker, formatMoney(price)))
			return nil
		},
	}
}

func newAdminVolCmd(apiBase *string, adminKey *string) *cobra.Command {
	return &cobra.Command{
		Use:   "vol [ticker] [volatility]",
		Short: "Set a stock's volatility",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := resolveAdminKey(adminKey)
			if err != nil {
				return err
			}
			ticker, err := tickerFromArgsOrPrompt(args)
			if err != nil {
				return err
			}
			vol, err := moneyFromArgsOrPrompt(args, 1, "Volatility")
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			if err := newClient(apiBase).SetVolatility(ctx, key, ticker, vol); err != nil {
				return err
			}
			printSuccess(fmt.Sprintf("%s volatility set to %.2f (clamped server side).", ticker, vol))
			return nil
		},
	}
}

func newAdminPauseCmd(apiBase *string, adminKey *string) *cobra.Command {
	return &cobra.Command{
		Use:   "pause [ticker]",
		Short: "Toggle trading and drift for a stock",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := resolveAdminKey(adminKey)
			if err != nil {
				return err
			}
			ticker, err := tickerFromArgsOrPrompt(args)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			paused, err := newClient(apiBase).TogglePause(ctx, key, ticker)
			if err != nil {
				return err
			}
			if paused {
				printWarn(ticker + " is now paused.")
			} else {
				printSuccess(ticker + " is trading again.")
			}
			return nil
		},
	}
}

func newAdminResetCmd(apiBase *string, adminKey *string) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Reset prices to base and wipe all accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := resolveAdminKey(adminKey)
			if err != nil {
				return err
			}
			confirm, err := promptRequired("Type RESET to confirm")
			if err != nil {
				return err
			}
			if strings.TrimSpace(confirm) != "RESET" {
				printInfo("Aborted.")
				return nil
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			if err := newClient(apiBase).ResetAll(ctx, key); err != nil {
				return err
			}
			printSuccess("Market reset: prices back to base, all accounts wiped.")
			return nil
		},
	}
}

func newAdminGiveCashCmd(apiBase *string, adminKey *string) *cobra.Command {
	return &cobra.Command{
		Use:   "givecash [nickname] [amount]",
		Short: "Grant cash to a player",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := resolveAdminKey(adminKey)
			if err != nil {
				return err
			}
			var nickname string
			if len(args) > 0 {
				nickname = strings.TrimSpace(args[0])
			} else {
				nickname, err = promptRequired("Nickname")
				if err != nil {
					return err
				}
			}
			amount, err := moneyFromArgsOrPrompt(args, 1, "Amount")
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			account, err := newClient(apiBase).GiveCash(ctx, key, nickname, amount)
			if err != nil {
				return err
			}
			printSuccess(fmt.Sprintf("%s now holds %s.", account.Nickname, formatMoney(account.Balance)))
			return nil
		},
	}
}

func moneyFromArgsOrPrompt(args []string, idx int, label string) (float64, error) {
	if len(args) > idx {
		v, err := strconv.ParseFloat(strings.TrimSpace(args[idx]), 64)
		if err != nil || v <= 0 {
			return 0, fmt.Errorf("invalid %s", strings.ToLower(label))
		}
		return v, nil
	}
	return promptMoney(label)
}
