package domain

import "time"

// Candle represents a single OHLCV sample for a fixed time interval.
// Candles are immutable once observed.
type Candle struct {
	OpenTime  time.Time // Start time of the interval
	CloseTime time.Time // End time of the interval
	Symbol    string    // Trading symbol
	Interval  string    // Candle interval (e.g., "5m", "1h")
	Open      float64   // Opening price
	High      float64   // Highest price
	Low       float64   // Lowest price
	Close     float64   // Closing price
	Volume    float64   // Base asset volume traded in the interval
}

// QuoteVolume approximates the quote-currency turnover of the candle.
func (c *Candle) QuoteVolume() float64 {
	return c.Close * c.Volume
}

// Closes extracts the closing prices of a candle series, oldest first.
func Closes(candles []*Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Close
	}
	return out
}

// Volumes extracts the base volumes of a candle series, oldest first.
func Volumes(candles []*Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Volume
	}
	return out
}

// Resample aggregates a fine-grained candle series into coarser buckets of
// `factor` candles each. A trailing partial bucket is kept so the most recent
// price action is never dropped.
func Resample(candles []*Candle, factor int) []*Candle {
	if factor <= 1 || len(candles) == 0 {
		return candles
	}
	out := make([]*Candle, 0, (len(candles)+factor-1)/factor)
	// Align buckets to the end of the series so the newest candle closes the
	// newest bucket.
	start := len(candles) % factor
	if start > 0 {
		out = append(out, aggregate(candles[:start]))
	}
	for i := start; i < len(candles); i += factor {
		out = append(out, aggregate(candles[i:i+factor]))
	}
	return out
}

func aggregate(chunk []*Candle) *Candle {
	agg := &Candle{
		OpenTime:  chunk[0].OpenTime,
		CloseTime: chunk[len(chunk)-1].CloseTime,
		Symbol:    chunk[0].Symbol,
		Interval:  chunk[0].Interval,
		Open:      chunk[0].Open,
		High:      chunk[0].High,
		Low:       chunk[0].Low,
		Close:     chunk[len(chunk)-1].Close,
	}
	for _, c := range chunk {
		if c.High > agg.High {
			agg.High = c.High
		}
		if c.Low < agg.Low {
			agg.Low = c.Low
		}
		agg.Volume += c.Volume
	}
	return agg
}
