package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/milka-trade/OldFashionedPeople-sub001/config"
	"github.com/milka-trade/OldFashionedPeople-sub001/internal/adapters/binanceclient"
	"github.com/milka-trade/OldFashionedPeople-sub001/internal/adapters/logger"
	"github.com/milka-trade/OldFashionedPeople-sub001/internal/ports"
	"github.com/milka-trade/OldFashionedPeople-sub001/internal/risk"
	"github.com/milka-trade/OldFashionedPeople-sub001/internal/strategy"
)

var rootCmd = &cobra.Command{
	Use:   "tradebot",
	Short: "Spot trading bot with a composite oversold-signal strategy",
	Long: `Tradebot screens a configured ticker universe for oversold conditions,
scores candidates with a weighted indicator composite, and manages positions
through bounded watch windows.

Configuration comes from environment variables (optionally via a .env file)
and a strategy profiles YAML file.`,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// bootstrap loads configuration and builds the shared dependency set used by
// the run and scan commands.
type deps struct {
	cfg      *config.Config
	logger   ports.Logger
	exchange ports.ExchangeClient
	strategy ports.Strategy
	sizer    *risk.Sizer
}

func bootstrap(ctx context.Context) (*deps, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	appLogger := logger.NewZapLogger(cfg.LogLevel)
	appLogger.Info(ctx, "Logger initialized", map[string]interface{}{"level": cfg.LogLevel.String()})

	exchange, err := binanceclient.New(binanceclient.Config{
		APIKey:     cfg.APIKey,
		SecretKey:  cfg.SecretKey,
		UseTestnet: cfg.IsTestnet,
		QuoteAsset: cfg.QuoteAsset,
		Logger:     appLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("initialize exchange client: %w", err)
	}

	scorer, err := strategy.New(cfg.Profile, strategy.ExitConfig{
		MinProfitRate:   cfg.MinProfit,
		MaxProfitRate:   cfg.MaxProfit,
		CutRate:         cfg.CutRate,
		SeverityCutRate: cfg.SeverityCutRate,
	}, appLogger)
	if err != nil {
		return nil, fmt.Errorf("initialize strategy: %w", err)
	}

	sizer, err := risk.NewSizer(risk.SizerConfig{
		BaseFraction:     cfg.BaseFraction,
		MaxExposureRatio: cfg.MaxExposureRatio,
		MinOrderNotional: cfg.MinOrderNotional,
		SmallCashRatio:   cfg.SmallCashRatio,
	})
	if err != nil {
		return nil, fmt.Errorf("initialize position sizer: %w", err)
	}

	return &deps{
		cfg:      cfg,
		logger:   appLogger,
		exchange: exchange,
		strategy: scorer,
		sizer:    sizer,
	}, nil
}
