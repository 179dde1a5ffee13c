package indicators

// NeutralRSI is returned when a series is too short to compute RSI.
const NeutralRSI = 50.0

// RSI computes the Relative Strength Index using Wilder's smoothing method.
// Returns NeutralRSI when fewer than period+1 samples are supplied.
func RSI(closes []float64, period int) float64 {
	if period <= 0 || len(closes) < period+1 {
		return NeutralRSI
	}

	changes := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		changes = append(changes, closes[i]-closes[i-1])
	}

	var avgGain, avgLoss float64
	for i := 0; i < period; i++ {
		if changes[i] > 0 {
			avgGain += changes[i]
		} else {
			avgLoss -= changes[i]
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	// Wilder smoothing over the remainder of the series.
	for i := period; i < len(changes); i++ {
		if changes[i] > 0 {
			avgGain = (avgGain*float64(period-1) + changes[i]) / float64(period)
			avgLoss = (avgLoss * float64(period-1)) / float64(period)
		} else {
			avgGain = (avgGain * float64(period-1)) / float64(period)
			avgLoss = (avgLoss*float64(period-1) - changes[i]) / float64(period)
		}
	}

	if avgLoss == 0 {
		if avgGain == 0 {
			return NeutralRSI
		}
		return 100
	}

	rs := avgGain / avgLoss
	rsi := 100 - (100 / (1 + rs))
	if rsi > 100 {
		rsi = 100
	} else if rsi < 0 {
		rsi = 0
	}
	return rsi
}

// RSISeries returns an RSI series aligned with the input: one value per
// sample, with the first `period` entries padded with NeutralRSI. Used to
// compare oscillator extremes against price extremes index by index.
func RSISeries(closes []float64, period int) []float64 {
	out := make([]float64, len(closes))
	for i := range out {
		if i < period {
			out[i] = NeutralRSI
			continue
		}
		out[i] = RSI(closes[:i+1], period)
	}
	return out
}

// rsiSeries returns one RSI value per endpoint starting at index period,
// each computed over the series up to and including that endpoint.
func rsiSeries(closes []float64, period int) []float64 {
	if period <= 0 || len(closes) < period+1 {
		return nil
	}
	out := make([]float64, 0, len(closes)-period)
	for end := period + 1; end <= len(closes); end++ {
		out = append(out, RSI(closes[:end], period))
	}
	return out
}
