package indicators

// NeutralStoch is returned for %K and %D when the series is too short.
const NeutralStoch = 50.0

// StochasticRSI computes the Stochastic RSI oscillator: RSI re-normalized by
// its own rolling min/max over `rsiPeriod` values, then smoothed twice into
// %K (kPeriod) and %D (dPeriod), both in [0,100]. Returns the neutral pair
// (50, 50) when the close series cannot produce enough RSI samples.
func StochasticRSI(closes []float64, rsiPeriod, kPeriod, dPeriod int) (k, d float64) {
	if rsiPeriod <= 0 || kPeriod <= 0 || dPeriod <= 0 {
		return NeutralStoch, NeutralStoch
	}
	rsis := rsiSeries(closes, rsiPeriod)
	// Need a full stochastic window for the first raw value, then enough raw
	// values to smooth %K, then enough %K values to smooth %D.
	need := rsiPeriod + kPeriod + dPeriod - 2
	if len(rsis) < need {
		return NeutralStoch, NeutralStoch
	}

	raw := make([]float64, 0, len(rsis)-rsiPeriod+1)
	for i := rsiPeriod - 1; i < len(rsis); i++ {
		lo, hi := rsis[i], rsis[i]
		for _, v := range rsis[i-rsiPeriod+1 : i+1] {
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
		if hi == lo {
			raw = append(raw, NeutralStoch)
			continue
		}
		raw = append(raw, (rsis[i]-lo)/(hi-lo)*100)
	}

	ks := make([]float64, 0, len(raw)-kPeriod+1)
	for i := kPeriod - 1; i < len(raw); i++ {
		ks = append(ks, SMA(raw[:i+1], kPeriod))
	}
	k = ks[len(ks)-1]
	d = SMA(ks, dPeriod)
	return k, d
}
