package indicators

import "math"

// Band holds the Bollinger Band envelope around a moving average, the clamped
// normalized position of the last price inside it, and the band width as a
// percentage of the mean. Lower <= Mid <= Upper always holds.
type Band struct {
	Lower    float64
	Mid      float64
	Upper    float64
	Position float64 // [0,1], 0 = on the lower rail
	WidthPct float64 // (Upper-Lower)/Mid * 100
}

// Bollinger computes mean and population stddev of the last `window` closes
// with a k-stddev envelope. When fewer than `window` samples are supplied the
// band collapses onto the last price with a neutral 0.5 position.
func Bollinger(closes []float64, window int, k float64) Band {
	if len(closes) == 0 {
		return Band{Position: 0.5}
	}
	last := closes[len(closes)-1]
	if window <= 0 || len(closes) < window {
		return Band{Lower: last, Mid: last, Upper: last, Position: 0.5}
	}

	tail := closes[len(closes)-window:]
	mean := 0.0
	for _, v := range tail {
		mean += v
	}
	mean /= float64(window)

	variance := 0.0
	for _, v := range tail {
		variance += (v - mean) * (v - mean)
	}
	stddev := math.Sqrt(variance / float64(window))

	b := Band{
		Lower: mean - k*stddev,
		Mid:   mean,
		Upper: mean + k*stddev,
	}
	if b.Upper > b.Lower {
		b.Position = (last - b.Lower) / (b.Upper - b.Lower)
		if b.Position < 0 {
			b.Position = 0
		} else if b.Position > 1 {
			b.Position = 1
		}
	} else {
		b.Position = 0.5
	}
	if b.Mid != 0 {
		b.WidthPct = (b.Upper - b.Lower) / b.Mid * 100
	}
	return b
}
