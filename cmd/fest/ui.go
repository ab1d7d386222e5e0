package main

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"festmarket/internal/market"

	"github.com/fatih/color"
)

var (
	stdinReader = bufio.NewReader(os.Stdin)
	accent      = color.New(color.FgCyan, color.Bold)
	success     = color.New(color.FgGreen, color.Bold)
	warn        = color.New(color.FgYellow, color.Bold)
	danger      = color.New(color.FgRed, color.Bold)
	neutral     = color.New(color.FgHiWhite)
)

func printSuccess(msg string) {
	success.Println(msg)
}

func printWarn(msg string) {
	warn.Println(msg)
}

func printInfo(msg string) {
	neutral.Println(msg)
}

func promptRequired(label string) (string, error) {
	for {
		fmt.Printf("%s: ", label)
		text, err := stdinReader.ReadString('\n')
		if err != nil {
			return "", err
		}
		text = strings.TrimSpace(text)
		if text != "" {
			return text, nil
		}
		printWarn(label + " is required.")
	}
}

func promptTicker(label string) (string, error) {
	for {
		text, err := promptRequired(label)
		if err != nil {
			return "", err
		}
		ticker := market.NormalizeTicker(text)
		if ticker == "" {
			printWarn("Tickers are 1-6 letters or digits.")
			continue
		}
		return ticker, nil
	}
}

func promptQty(label string) (int, error) {
	for {
		text, err := promptRequired(label)
		if err != nil {
			return 0, err
		}
		qty, err := parseQty(text)
		if err != nil {
			printWarn(err.Error())
			continue
		}
		return qty, nil
	}
}

func parseQty(text string) (int, error) {
	qty, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil || qty < 1 {
		return 0, fmt.Errorf("quantity must be a whole number >= 1")
	}
	return qty, nil
}

func promptMoney(label string) (float64, error) {
	for {
		text, err := promptRequired(label)
		if err != nil {
			return 0, err
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
		if err != nil || v <= 0 {
			printWarn("Enter an amount greater than zero.")
			continue
		}
		return v, nil
	}
}

func renderStockTable(stocks []market.StockView) {
	accent.Println("\n== MARKET BOARD ==")
	if len(stocks) == 0 {
		printInfo("No stocks listed yet.")
		return
	}
	fmt.Printf("%-8s %-24s %12s %8s %-8s\n", "TICKER", "NAME", "PRICE", "VOL", "STATUS")
	for _, s := range stocks {
		status := "open"
		if s.Paused {
			status = danger.Sprint("paused")
		}
		fmt.Printf("%-8s %-24s %12s %8.2f %-8s\n",
			s.Ticker,
			truncate(s.Name, 24),
			formatMoney(s.Price),
			s.Volatility,
			status,
		)
	}
	fmt.Println()
}

func renderStockDetail(s market.StockView) {
	accent.Printf("\n== %s (%s) ==\n", s.Ticker, s.Name)
	fmt.Printf("Price:      %s\n", formatMoney(s.Price))
	fmt.Printf("Base Price: %s\n", formatMoney(s.BasePrice))
	fmt.Printf("From Base:  %s\n", colorizeMoney(s.Price-s.BasePrice))
	fmt.Printf("Volatility: %.2f\n", s.Volatility)
	fmt.Printf("Paused:     %t\n", s.Paused)
	fmt.Println()
}

func renderTradeResult(side string, r market.TradeResult) {
	accent.Printf("\n== ORDER %s ==\n", strings.ToUpper(side))
	fmt.Printf("Ticker:    %s\n", r.Record.Ticker)
	fmt.Printf("Shares:    %d\n", r.Record.Quantity)
	fmt.Printf("Price:     %s\n", formatMoney(r.Record.Price))
	fmt.Printf("Total:     %s\n", formatMoney(r.Record.Price*float64(r.Record.Quantity)))
	fmt.Printf("New Quote: %s\n", formatMoney(r.Price))
	fmt.Printf("Balance:   %s\n", formatMoney(r.Account.Balance))
	fmt.Println()
}

func renderAccount(a market.AccountView) {
	accent.Printf("\n== %s ==\n", a.Nickname)
	fmt.Printf("Balance: %s\n", formatMoney(a.Balance))

	fmt.Println()
	accent.Println("Holdings")
	if len(a.Holdings) == 0 {
		printInfo("No holdings yet.")
	} else {
		fmt.Printf("%-8s %10s\n", "TICKER", "SHARES")
		for _, ticker := range sortedKeys(a.Holdings) {
			fmt.Printf("%-8s %10d\n", ticker, a.Holdings[ticker])
		}
	}

	fmt.Println()
	accent.Println("Recent Trades")
	if len(a.History) == 0 {
		printInfo("No trades yet.")
	} else {
		fmt.Printf("%-6s %-8s %8s %12s %12s %-16s\n", "SIDE", "TICKER", "QTY", "PRICE", "TOTAL", "TIME")
		for _, t := range a.History {
			side := success.Sprint("buy ")
			if t.Side == market.SideSell {
				side = danger.Sprint("sell")
			}
			fmt.Printf("%-6s %-8s %8d %12s %12s %-16s\n",
				side,
				t.Ticker,
				t.Quantity,
				formatMoney(t.Price),
				formatMoney(t.Price*float64(t.Quantity)),
				t.At.Local().Format("2006-01-02 15:04"),
			)
		}
	}
	fmt.Println()
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func colorizeMoney(v float64) string {
	text := fmt.Sprintf("%+.2f", v)
	switch {
	case v > 0:
		return success.Sprint(text)
	case v < 0:
		return danger.Sprint(text)
	default:
		return neutral.Sprint(text)
	}
}

func formatMoney(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}
