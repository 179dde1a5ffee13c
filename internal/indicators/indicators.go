// Package indicators provides stateless numeric functions over price/volume
// series. Every function is fed an ordered series (oldest first) and a
// lookback, and returns a defined neutral default when the series is too
// short instead of an error or NaN. Callers must treat neutral defaults as
// contributing no signal.
package indicators

// SMA returns the simple moving average of the last `period` values.
// When fewer values are available it averages what it has; 0 on empty input.
func SMA(values []float64, period int) float64 {
	if len(values) == 0 {
		return 0
	}
	if period <= 0 || period > len(values) {
		period = len(values)
	}
	total := 0.0
	for i := len(values) - period; i < len(values); i++ {
		total += values[i]
	}
	return total / float64(period)
}

// EMA returns the last value of a recursive exponential moving average seeded
// with the first sample. Defined for any non-empty series; 0 on empty input.
func EMA(values []float64, period int) float64 {
	if len(values) == 0 {
		return 0
	}
	if period <= 0 {
		period = 1
	}
	multiplier := 2.0 / float64(period+1)
	ema := values[0]
	for i := 1; i < len(values); i++ {
		ema = (values[i]-ema)*multiplier + ema
	}
	return ema
}

// emaSeries returns the full EMA series, same length as the input.
func emaSeries(values []float64, period int) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}
	multiplier := 2.0 / float64(period+1)
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = (values[i]-out[i-1])*multiplier + out[i-1]
	}
	return out
}
