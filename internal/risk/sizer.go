// Package risk converts an accepted signal score and the account composition
// into an order notional, applying tiered capital-fraction rules and hard caps.
package risk

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/milka-trade/OldFashionedPeople-sub001/internal/domain"
)

// ErrBelowMinNotional is returned when the computed size falls under the
// exchange minimum. Undersized orders are rejected, never rounded up.
var ErrBelowMinNotional = errors.New("order notional below the configured minimum")

// freeCashBuffer keeps a sliver of free cash unspent so a market order never
// fails on fee rounding.
const freeCashBuffer = 0.995

// SizerConfig holds the capital-allocation rules.
type SizerConfig struct {
	BaseFraction     float64 // fraction of total account value per position, e.g. 0.10
	MaxExposureRatio float64 // ceiling on deployed capital over total value, e.g. 0.80
	MinOrderNotional float64 // exchange minimum order size in quote currency
	SmallCashRatio   float64 // below free/total ratio, spend nearly all free cash
}

func (c SizerConfig) validate() error {
	if c.BaseFraction <= 0 || c.BaseFraction > 1 {
		return fmt.Errorf("base fraction must be in (0,1]")
	}
	if c.MaxExposureRatio <= 0 || c.MaxExposureRatio > 1 {
		return fmt.Errorf("max exposure ratio must be in (0,1]")
	}
	if c.MinOrderNotional < 0 {
		return fmt.Errorf("minimum order notional cannot be negative")
	}
	if c.SmallCashRatio < 0 || c.SmallCashRatio >= 1 {
		return fmt.Errorf("small cash ratio must be in [0,1)")
	}
	return nil
}

// Sizer computes order sizes. Stateless; safe for concurrent use.
type Sizer struct {
	cfg SizerConfig
}

// NewSizer creates a Sizer from the given rules.
func NewSizer(cfg SizerConfig) (*Sizer, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Sizer{cfg: cfg}, nil
}

// confidenceMultiplier steps up with the composite score bands.
func confidenceMultiplier(total int) float64 {
	switch {
	case total >= 80:
		return 1.8
	case total >= 70:
		return 1.5
	case total >= 60:
		return 1.2
	default:
		return 1.0
	}
}

// OrderNotional converts the account composition and an accepted score into a
// quote-currency order amount. totalValue is cash plus marked-to-market
// holdings; freeCash is the undeployed portion.
func (s *Sizer) OrderNotional(totalValue, freeCash float64, score domain.SignalScore) (float64, error) {
	if totalValue <= 0 || freeCash <= 0 {
		return 0, fmt.Errorf("%w: no capital available", ErrBelowMinNotional)
	}

	spendableCash := freeCash * freeCashBuffer

	// When capital is already mostly deployed, marginal sizing matters less
	// than getting any position on: spend nearly all remaining cash.
	if freeCash < s.cfg.SmallCashRatio*totalValue {
		return s.finalize(spendableCash)
	}

	target := totalValue * s.cfg.BaseFraction * confidenceMultiplier(score.Total)

	if target > spendableCash {
		target = spendableCash
	}
	// Headroom under the maximum total-exposure ratio.
	deployed := totalValue - freeCash
	headroom := totalValue*s.cfg.MaxExposureRatio - deployed
	if headroom <= 0 {
		return 0, fmt.Errorf("%w: exposure limit reached", ErrBelowMinNotional)
	}
	if target > headroom {
		target = headroom
	}
	return s.finalize(target)
}

// finalize truncates to cents and enforces the exchange minimum.
func (s *Sizer) finalize(notional float64) (float64, error) {
	truncated, _ := decimal.NewFromFloat(notional).Truncate(2).Float64()
	if truncated < s.cfg.MinOrderNotional {
		return 0, fmt.Errorf("%w: %.2f < %.2f", ErrBelowMinNotional, truncated, s.cfg.MinOrderNotional)
	}
	return truncated, nil
}
