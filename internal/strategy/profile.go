package strategy

import "fmt"

// BucketWeights caps each additive scoring bucket. Buckets are evaluated
// independently and summed; the total is clamped to 100.
type BucketWeights struct {
	Intraday int `yaml:"intraday"` // discount from the reference open
	Oversold int `yaml:"oversold"` // oscillator oversold across timeframes
	Band     int `yaml:"band"`     // proximity to the lower volatility rail
	Volume   int `yaml:"volume"`   // confirmed relative volume surge
	Momentum int `yaml:"momentum"` // crossover / decelerating decline
}

// Profile is a declarative rule table for one strategy variant. The many
// near-duplicate variants of the trading rules are collapsed into one
// parameterized scorer selected by a named profile.
type Profile struct {
	Name string `yaml:"name"`

	PrimaryInterval string `yaml:"primary_interval"` // e.g. "5m"
	MediumInterval  string `yaml:"medium_interval"`  // e.g. "30m"
	ResampleFactor  int    `yaml:"resample_factor"`  // medium candles per N primary candles

	BuyThreshold int           `yaml:"buy_threshold"`
	Weights      BucketWeights `yaml:"weights"`

	RSIPeriod    int     `yaml:"rsi_period"`
	StochKPeriod int     `yaml:"stoch_k_period"`
	StochDPeriod int     `yaml:"stoch_d_period"`
	BBWindow     int     `yaml:"bb_window"`
	BBK          float64 `yaml:"bb_k"`
	VolumeWindow int     `yaml:"volume_window"`

	OversoldRSI     float64 `yaml:"oversold_rsi"`
	OverboughtRSI   float64 `yaml:"overbought_rsi"`
	OversoldStoch   float64 `yaml:"oversold_stoch"`
	OverboughtStoch float64 `yaml:"overbought_stoch"`

	// Per-timeframe ceilings for the band position. The medium ceiling
	// failing vetoes a candidate regardless of the composite score.
	ShortBBCeiling  float64 `yaml:"short_bb_ceiling"`
	MediumBBCeiling float64 `yaml:"medium_bb_ceiling"`

	// A relative volume surge counts only above an absolute turnover floor;
	// a surge on negligible absolute volume scores nothing.
	VolumeSurgeRatio float64 `yaml:"volume_surge_ratio"`
	MinQuoteTurnover float64 `yaml:"min_quote_turnover"`
	RequireVolume    bool    `yaml:"require_volume"`

	DivergenceLookback int     `yaml:"divergence_lookback"`
	DecelThreshold     float64 `yaml:"decel_threshold"`
	AccelStopThreshold float64 `yaml:"accel_stop_threshold"`
}

// Validate checks a profile for values the scorer cannot work with.
func (p Profile) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("profile name must be set")
	}
	if p.BuyThreshold <= 0 || p.BuyThreshold > 100 {
		return fmt.Errorf("profile %s: buy_threshold must be in (0,100]", p.Name)
	}
	if p.RSIPeriod <= 0 || p.StochKPeriod <= 0 || p.StochDPeriod <= 0 || p.BBWindow <= 0 || p.VolumeWindow <= 0 {
		return fmt.Errorf("profile %s: indicator periods must be positive", p.Name)
	}
	if p.BBK <= 0 {
		return fmt.Errorf("profile %s: bb_k must be positive", p.Name)
	}
	if p.OverboughtRSI <= p.OversoldRSI || p.OversoldRSI < 0 || p.OverboughtRSI > 100 {
		return fmt.Errorf("profile %s: invalid RSI bands", p.Name)
	}
	if p.ShortBBCeiling <= 0 || p.ShortBBCeiling > 1 || p.MediumBBCeiling <= 0 || p.MediumBBCeiling > 1 {
		return fmt.Errorf("profile %s: band ceilings must be in (0,1]", p.Name)
	}
	if p.VolumeSurgeRatio <= 1 {
		return fmt.Errorf("profile %s: volume_surge_ratio must exceed 1", p.Name)
	}
	if p.ResampleFactor <= 1 {
		return fmt.Errorf("profile %s: resample_factor must exceed 1", p.Name)
	}
	if p.DivergenceLookback < 2 {
		return fmt.Errorf("profile %s: divergence_lookback must be at least 2", p.Name)
	}
	return nil
}

// DefaultProfiles returns the built-in strategy variants. A profiles file can
// override or extend these; each variant keeps its original intent (primary
// timeframe, whether volume confirmation is mandatory) rather than being
// merged into one guessed strategy.
func DefaultProfiles() map[string]Profile {
	standard := Profile{
		Name:            "standard",
		PrimaryInterval: "5m",
		MediumInterval:  "30m",
		ResampleFactor:  6,
		BuyThreshold:    70,
		Weights: BucketWeights{
			Intraday: 25,
			Oversold: 20,
			Band:     40,
			Volume:   20,
			Momentum: 15,
		},
		RSIPeriod:          14,
		StochKPeriod:       3,
		StochDPeriod:       3,
		BBWindow:           20,
		BBK:                2.0,
		VolumeWindow:       20,
		OversoldRSI:        30,
		OverboughtRSI:      70,
		OversoldStoch:      20,
		OverboughtStoch:    80,
		ShortBBCeiling:     0.35,
		MediumBBCeiling:    0.45,
		VolumeSurgeRatio:   1.5,
		MinQuoteTurnover:   50_000,
		RequireVolume:      false,
		DivergenceLookback: 20,
		DecelThreshold:     0.05,
		AccelStopThreshold: -0.1,
	}

	aggressive := standard
	aggressive.Name = "aggressive"
	aggressive.BuyThreshold = 60
	aggressive.ShortBBCeiling = 0.45
	aggressive.MediumBBCeiling = 0.60
	aggressive.OversoldRSI = 35

	conservative := standard
	conservative.Name = "conservative"
	conservative.BuyThreshold = 80
	conservative.RequireVolume = true
	conservative.ShortBBCeiling = 0.25
	conservative.MediumBBCeiling = 0.35
	conservative.MinQuoteTurnover = 100_000

	return map[string]Profile{
		standard.Name:     standard,
		aggressive.Name:   aggressive,
		conservative.Name: conservative,
	}
}
