package ports

import (
	"context"

	"github.com/milka-trade/OldFashionedPeople-sub001/internal/domain"
)

// Strategy defines the interface for the signal-scoring trade logic.
type Strategy interface {
	// RequiredDataPoints returns the minimum number of candles needed for the
	// strategy calculations on the primary timeframe.
	RequiredDataPoints() int

	// Snapshot computes a fresh indicator snapshot from a candle series.
	Snapshot(symbol, interval string, candles []*domain.Candle) *domain.IndicatorSnapshot

	// EvaluateEntry scores a buy candidate from short/medium timeframe
	// snapshots and the intraday change from the reference open. ok reports
	// whether the candidate passes the threshold, the essential-conditions
	// gate and the multi-timeframe alignment check.
	EvaluateEntry(ctx context.Context, short, medium *domain.IndicatorSnapshot, intradayChangePct float64) (score domain.SignalScore, ok bool, reason string)

	// ShouldClosePosition decides whether an open position should be exited,
	// applying the exit rules in priority order. watchExpired reports that the
	// bounded watch window for the position has elapsed.
	ShouldClosePosition(ctx context.Context, pos *domain.Position, snap *domain.IndicatorSnapshot, currentPrice float64, watchExpired bool) (bool, domain.CloseReason)
}
