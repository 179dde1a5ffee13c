package domain

import "time"

// Position is a local projection of a holding on the exchange. The exchange
// balance is the sole source of truth: the projection is rebuilt from it
// every cycle, and a zero held quantity means the position is closed
// regardless of any local record.
type Position struct {
	Symbol           string
	EntryPrice       float64 // Average buy price reported by the exchange
	Quantity         float64 // Held quantity; > 0 while open
	OpenedAt         time.Time
	StopLossPrice    float64
	TargetProfitRate float64
}

// IsOpen reports whether the projection still represents a holding.
func (p *Position) IsOpen() bool {
	return p.Quantity > 0
}

// UnrealizedReturn is the fractional return at the given price
// (e.g. -0.03 for a 3% loss). Returns 0 when the entry price is unknown.
func (p *Position) UnrealizedReturn(price float64) float64 {
	if p.EntryPrice <= 0 {
		return 0
	}
	return (price - p.EntryPrice) / p.EntryPrice
}
