package domain

import "time"

// Trade records a completed round trip. Trades live only in process memory
// for the hourly report; nothing is persisted across restarts.
type Trade struct {
	Symbol      string
	EntryPrice  float64
	ExitPrice   float64
	Quantity    float64
	PNL         float64
	EntryTime   time.Time
	ExitTime    time.Time
	CloseReason CloseReason
}
