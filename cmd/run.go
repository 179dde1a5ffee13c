package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/milka-trade/OldFashionedPeople-sub001/internal/adapters/telegram"
	"github.com/milka-trade/OldFashionedPeople-sub001/internal/app"
	"github.com/milka-trade/OldFashionedPeople-sub001/internal/metrics"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the trading loops until interrupted",
	Long: `Start the buying, selling, and reporting loops and run them until the
process receives SIGINT or SIGTERM.

Example:
  tradebot run`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	d, err := bootstrap(ctx)
	if err != nil {
		return err
	}

	notifier := telegram.New(telegram.Config{
		BotToken: d.cfg.TelegramBotToken,
		ChatID:   d.cfg.TelegramChatID,
		Logger:   d.logger,
	})

	service, err := app.New(d.cfg, d.logger, d.exchange, d.strategy, d.sizer, notifier, metrics.New())
	if err != nil {
		return fmt.Errorf("initialize trading service: %w", err)
	}

	return service.Start(ctx)
}
