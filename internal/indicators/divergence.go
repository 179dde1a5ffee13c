package indicators

// DivergenceConfig tunes the divergence detectors. Zero values fall back to
// the defaults below.
type DivergenceConfig struct {
	PriceTolerance float64 // fractional tolerance around the prior extreme (default 0.005)
	OscMargin      float64 // minimum oscillator improvement at the retest (default 2.0)
	Oversold       float64 // oscillator band considered oversold (default 30)
	Overbought     float64 // oscillator band considered overbought (default 70)
}

func (c DivergenceConfig) withDefaults() DivergenceConfig {
	if c.PriceTolerance == 0 {
		c.PriceTolerance = 0.005
	}
	if c.OscMargin == 0 {
		c.OscMargin = 2.0
	}
	if c.Oversold == 0 {
		c.Oversold = 30
	}
	if c.Overbought == 0 {
		c.Overbought = 70
	}
	return c
}

// BullishDivergence reports whether the current price is at or below a prior
// local low (within tolerance) while the oscillator now reads higher than it
// did at that low by at least the configured margin and is exiting the
// oversold band. closes and osc must be aligned, oldest first; the detector
// searches prior lows within the trailing `lookback` samples excluding the
// current one.
func BullishDivergence(closes, osc []float64, lookback int, cfg DivergenceConfig) bool {
	cfg = cfg.withDefaults()
	n := len(closes)
	if n < 3 || len(osc) != n || lookback < 2 {
		return false
	}
	start := n - 1 - lookback
	if start < 0 {
		start = 0
	}

	// Prior local low of the lookback window, current sample excluded.
	lowIdx := start
	for i := start; i < n-1; i++ {
		if closes[i] < closes[lowIdx] {
			lowIdx = i
		}
	}

	price := closes[n-1]
	if price > closes[lowIdx]*(1+cfg.PriceTolerance) {
		return false
	}
	if osc[n-1] < osc[lowIdx]+cfg.OscMargin {
		return false
	}
	// Oscillator must be exiting the oversold band, not sitting neutral.
	return osc[lowIdx] < cfg.Oversold && osc[n-1] > osc[lowIdx]
}

// BearishDivergence is the symmetric variant used for exits: price retests a
// prior local high while the oscillator reads lower and is exiting the
// overbought band.
func BearishDivergence(closes, osc []float64, lookback int, cfg DivergenceConfig) bool {
	cfg = cfg.withDefaults()
	n := len(closes)
	if n < 3 || len(osc) != n || lookback < 2 {
		return false
	}
	start := n - 1 - lookback
	if start < 0 {
		start = 0
	}

	highIdx := start
	for i := start; i < n-1; i++ {
		if closes[i] > closes[highIdx] {
			highIdx = i
		}
	}

	price := closes[n-1]
	if price < closes[highIdx]*(1-cfg.PriceTolerance) {
		return false
	}
	if osc[n-1] > osc[highIdx]-cfg.OscMargin {
		return false
	}
	return osc[highIdx] > cfg.Overbought && osc[n-1] < osc[highIdx]
}
