package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/milka-trade/OldFashionedPeople-sub001/internal/domain"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Score the configured tickers once and print the results",
	Long: `Run a single screening pass over the configured ticker universe and print
each ticker's composite score without placing any orders.

Example:
  tradebot scan`,
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	d, err := bootstrap(ctx)
	if err != nil {
		return err
	}

	p := d.cfg.Profile
	required := d.strategy.RequiredDataPoints()

	fmt.Printf("profile=%s threshold=%d interval=%s/%s\n\n", p.Name, p.BuyThreshold, p.PrimaryInterval, p.MediumInterval)

	for _, symbol := range d.cfg.Tickers {
		shortCandles, err := d.exchange.GetKlines(ctx, symbol, p.PrimaryInterval, required)
		if err != nil {
			fmt.Printf("%-12s error: %v\n", symbol, err)
			continue
		}
		mediumCandles, err := d.exchange.GetKlines(ctx, symbol, p.MediumInterval, required)
		if err != nil {
			mediumCandles = domain.Resample(shortCandles, p.ResampleFactor)
		}

		short := d.strategy.Snapshot(symbol, p.PrimaryInterval, shortCandles)
		medium := d.strategy.Snapshot(symbol, p.MediumInterval, mediumCandles)

		intradayPct := 0.0
		if daily, derr := d.exchange.GetKlines(ctx, symbol, "1d", 1); derr == nil && len(daily) > 0 && daily[len(daily)-1].Open > 0 {
			open := daily[len(daily)-1].Open
			intradayPct = (short.Price - open) / open * 100
		}

		score, ok, reason := d.strategy.EvaluateEntry(ctx, short, medium, intradayPct)
		verdict := "pass"
		if !ok {
			verdict = "skip"
		}
		fmt.Printf("%-12s score=%3d %s  price=%.4f rsi=%.1f bbPos=%.2f intraday=%+.2f%%  %s\n",
			symbol, score.Total, verdict, short.Price, short.RSI, short.BBPosition, intradayPct, reason)
	}
	return nil
}
