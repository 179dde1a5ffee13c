// Package strategy implements the composite signal scorer: additive capped
// point buckets over indicator snapshots, an essential-conditions gate, a
// multi-timeframe alignment veto, and the exit rules applied to open
// positions. All decisions are pure functions of the inputs; the scorer holds
// no mutable state.
package strategy

import (
	"context"
	"fmt"

	"github.com/milka-trade/OldFashionedPeople-sub001/internal/domain"
	"github.com/milka-trade/OldFashionedPeople-sub001/internal/indicators"
	"github.com/milka-trade/OldFashionedPeople-sub001/internal/ports"
)

// ExitConfig holds the profit/loss thresholds applied when watching an open
// position. Rates are fractional (-0.03 for a 3% loss).
type ExitConfig struct {
	MinProfitRate   float64 // no profit-taking exit fires below this
	MaxProfitRate   float64 // target profit
	CutRate         float64 // hard stop, negative
	SeverityCutRate float64 // tightened stop on an accelerating decline, negative, above CutRate
}

func (c ExitConfig) validate() error {
	if c.MinProfitRate <= 0 || c.MaxProfitRate <= c.MinProfitRate {
		return fmt.Errorf("profit rates must satisfy 0 < min < max")
	}
	if c.CutRate >= 0 {
		return fmt.Errorf("cut rate must be negative")
	}
	if c.SeverityCutRate != 0 && (c.SeverityCutRate >= 0 || c.SeverityCutRate <= c.CutRate) {
		return fmt.Errorf("severity cut rate must be negative and above the cut rate")
	}
	return nil
}

// Scorer is the parameterized signal engine. One instance serves every
// strategy variant via its Profile.
type Scorer struct {
	profile Profile
	exit    ExitConfig
	logger  ports.Logger
}

// New creates a Scorer for the given profile and exit thresholds.
func New(profile Profile, exit ExitConfig, logger ports.Logger) (*Scorer, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required for strategy")
	}
	if err := profile.Validate(); err != nil {
		return nil, err
	}
	if err := exit.validate(); err != nil {
		return nil, err
	}
	return &Scorer{profile: profile, exit: exit, logger: logger}, nil
}

// Profile returns the active strategy profile.
func (s *Scorer) Profile() Profile { return s.profile }

// RequiredDataPoints returns the minimum number of candles needed on the
// primary timeframe. MACD is the deepest consumer at 35 samples; the
// stochastic needs a full RSI window plus both smoothing passes.
func (s *Scorer) RequiredDataPoints() int {
	p := s.profile
	need := 35 // MACD slow + signal
	if v := p.BBWindow; v > need {
		need = v
	}
	if v := 2*p.RSIPeriod + p.StochKPeriod + p.StochDPeriod - 1; v > need {
		need = v
	}
	if v := p.VolumeWindow + 1; v > need {
		need = v
	}
	if v := p.DivergenceLookback + 1; v > need {
		need = v
	}
	return need + 5
}

// Snapshot computes a fresh indicator snapshot from a candle series. A series
// shorter than any indicator's requirement yields that indicator's neutral
// default, which contributes zero score downstream.
func (s *Scorer) Snapshot(symbol, interval string, candles []*domain.Candle) *domain.IndicatorSnapshot {
	p := s.profile
	closes := domain.Closes(candles)
	volumes := domain.Volumes(candles)

	snap := &domain.IndicatorSnapshot{Symbol: symbol, Interval: interval}
	if len(closes) == 0 {
		snap.RSI = indicators.NeutralRSI
		snap.StochK, snap.StochD = indicators.NeutralStoch, indicators.NeutralStoch
		snap.BBPosition = 0.5
		return snap
	}
	snap.Price = closes[len(closes)-1]

	snap.RSI = indicators.RSI(closes, p.RSIPeriod)
	snap.StochK, snap.StochD = indicators.StochasticRSI(closes, p.RSIPeriod, p.StochKPeriod, p.StochDPeriod)

	band := indicators.Bollinger(closes, p.BBWindow, p.BBK)
	snap.BBLower, snap.BBMid, snap.BBUpper = band.Lower, band.Mid, band.Upper
	snap.BBPosition, snap.BBWidthPct = band.Position, band.WidthPct

	macd := indicators.MACD(closes)
	snap.MACDLine, snap.MACDSignal, snap.MACDHistogram = macd.Line, macd.Signal, macd.Histogram
	snap.MACDGolden = macd.Golden

	accel := indicators.Acceleration(closes)
	snap.Decelerating = accel.DeceleratingDecline(p.DecelThreshold)
	snap.Accelerating = accel.AcceleratingDecline(p.AccelStopThreshold)

	osc := indicators.RSISeries(closes, p.RSIPeriod)
	dcfg := indicators.DivergenceConfig{Oversold: p.OversoldRSI, Overbought: p.OverboughtRSI}
	snap.BullishDivergence = indicators.BullishDivergence(closes, osc, p.DivergenceLookback, dcfg)
	snap.BearishDivergence = indicators.BearishDivergence(closes, osc, p.DivergenceLookback, dcfg)

	last := candles[len(candles)-1]
	snap.QuoteTurnover = last.QuoteVolume()
	if len(volumes) > 1 {
		avg := indicators.SMA(volumes[:len(volumes)-1], p.VolumeWindow)
		if avg > 0 {
			snap.VolumeRatio = volumes[len(volumes)-1] / avg
		}
	}
	return snap
}

// weightPoints scales a bucket weight by a tier fraction, rounding down.
func weightPoints(weight int, frac float64) int {
	return int(float64(weight) * frac)
}

// Score combines the snapshots into a bounded composite confidence score with
// itemized contributions. Buckets are additive and independently capped, so
// enabling any single condition never lowers the total.
func (s *Scorer) Score(short, medium *domain.IndicatorSnapshot, intradayChangePct float64) domain.SignalScore {
	p := s.profile
	var score domain.SignalScore

	// Reference/intraday position: the deeper the discount from the
	// reference open, the more points.
	w := p.Weights.Intraday
	switch {
	case intradayChangePct <= -5:
		score.Add("intraday discount >=5%", w)
	case intradayChangePct <= -3:
		score.Add("intraday discount >=3%", weightPoints(w, 0.7))
	case intradayChangePct <= -2:
		score.Add("intraday discount >=2%", weightPoints(w, 0.5))
	case intradayChangePct <= -1:
		score.Add("intraday discount >=1%", weightPoints(w, 0.25))
	}

	// Oscillator oversold: agreement across timeframes beats any single one.
	w = p.Weights.Oversold
	oversoldPts := 0
	shortOversold := short.RSI < p.OversoldRSI
	mediumOversold := medium != nil && medium.RSI < p.OversoldRSI
	switch {
	case shortOversold && mediumOversold:
		oversoldPts = weightPoints(w, 0.75)
		score.Add("rsi oversold on both timeframes", oversoldPts)
	case shortOversold:
		oversoldPts = weightPoints(w, 0.45)
		score.Add("rsi oversold on short timeframe", oversoldPts)
	case mediumOversold:
		oversoldPts = weightPoints(w, 0.3)
		score.Add("rsi oversold on medium timeframe", oversoldPts)
	}
	if short.StochK < p.OversoldStoch {
		pts := weightPoints(w, 0.25)
		if oversoldPts+pts > w {
			pts = w - oversoldPts
		}
		score.Add("stochastic oversold", pts)
	}

	// Volatility-band position: closer to the lower rail, on more than one
	// timeframe simultaneously, scores highest.
	w = p.Weights.Band
	lowShort := short.BBPosition <= 0.15
	midShort := short.BBPosition <= 0.30
	lowMedium := medium != nil && medium.BBPosition <= 0.15
	midMedium := medium != nil && medium.BBPosition <= 0.30
	switch {
	case lowShort && lowMedium:
		score.Add("lower band on both timeframes", w)
	case midShort && midMedium:
		score.Add("band range on both timeframes", weightPoints(w, 0.7))
	case lowShort:
		score.Add("lower band on short timeframe", weightPoints(w, 0.5))
	case midShort:
		score.Add("band range on short timeframe", weightPoints(w, 0.3))
	}

	// Volume confirmation, normalized by the absolute turnover floor.
	w = p.Weights.Volume
	if short.QuoteTurnover >= p.MinQuoteTurnover {
		switch {
		case short.VolumeRatio >= 2*p.VolumeSurgeRatio:
			score.Add("strong volume surge", w)
		case short.VolumeRatio >= p.VolumeSurgeRatio:
			score.Add("volume surge", weightPoints(w, 0.6))
		}
	}

	// Momentum/crossover.
	w = p.Weights.Momentum
	momentumPts := 0
	add := func(label string, pts int) {
		if momentumPts+pts > w {
			pts = w - momentumPts
		}
		momentumPts += pts
		score.Add(label, pts)
	}
	if short.MACDGolden {
		add("macd golden cross", weightPoints(w, 0.6))
	}
	if short.Decelerating {
		add("decline decelerating", weightPoints(w, 0.4))
	}
	if short.BullishDivergence {
		add("bullish divergence", weightPoints(w, 0.4))
	}

	return score
}

// volumeConfirmed reports a relative surge above the absolute turnover floor.
func (s *Scorer) volumeConfirmed(snap *domain.IndicatorSnapshot) bool {
	return snap.VolumeRatio >= s.profile.VolumeSurgeRatio && snap.QuoteTurnover >= s.profile.MinQuoteTurnover
}

// essentialGate is an independent check a high score cannot substitute for:
// the score alone is necessary but not sufficient.
func (s *Scorer) essentialGate(short *domain.IndicatorSnapshot) (bool, string) {
	p := s.profile
	if short.RSI >= p.OversoldRSI && short.StochK >= p.OversoldStoch {
		return false, "no oscillator oversold"
	}
	if short.BBPosition > p.ShortBBCeiling {
		return false, fmt.Sprintf("band position %.2f above ceiling %.2f", short.BBPosition, p.ShortBBCeiling)
	}
	confirmed := short.MACDGolden || short.Decelerating || short.BullishDivergence || s.volumeConfirmed(short)
	if !confirmed {
		return false, "no directional confirmation"
	}
	if p.RequireVolume && !s.volumeConfirmed(short) {
		return false, "volume confirmation required by profile"
	}
	return true, ""
}

// alignmentVeto applies the multi-timeframe check: each timeframe's band
// position must fall under its own ceiling. The coarser timeframe failing
// vetoes the candidate even when the finer one and the score are favorable.
func (s *Scorer) alignmentVeto(short, medium *domain.IndicatorSnapshot) (bool, string) {
	p := s.profile
	if short.BBPosition > p.ShortBBCeiling {
		return true, fmt.Sprintf("short band position %.2f above ceiling %.2f", short.BBPosition, p.ShortBBCeiling)
	}
	if medium != nil && medium.BBPosition > p.MediumBBCeiling {
		return true, fmt.Sprintf("medium band position %.2f above ceiling %.2f", medium.BBPosition, p.MediumBBCeiling)
	}
	return false, ""
}

// EvaluateEntry scores a candidate and applies threshold, gate and veto.
func (s *Scorer) EvaluateEntry(ctx context.Context, short, medium *domain.IndicatorSnapshot, intradayChangePct float64) (domain.SignalScore, bool, string) {
	score := s.Score(short, medium, intradayChangePct)

	if veto, why := s.alignmentVeto(short, medium); veto {
		s.logger.Debug(ctx, "Candidate vetoed by timeframe alignment", map[string]interface{}{
			"symbol": short.Symbol, "score": score.Total, "why": why,
		})
		return score, false, why
	}
	if score.Total < s.profile.BuyThreshold {
		return score, false, fmt.Sprintf("score %d below threshold %d", score.Total, s.profile.BuyThreshold)
	}
	if ok, why := s.essentialGate(short); !ok {
		s.logger.Debug(ctx, "Candidate failed essential gate", map[string]interface{}{
			"symbol": short.Symbol, "score": score.Total, "why": why,
		})
		return score, false, "essential gate: " + why
	}

	s.logger.Info(ctx, "Buy candidate accepted", map[string]interface{}{
		"symbol":        short.Symbol,
		"score":         score.Total,
		"rsi":           short.RSI,
		"bbPosition":    short.BBPosition,
		"intradayPct":   intradayChangePct,
		"contributions": len(score.Contributions),
	})
	return score, true, ""
}

// ShouldClosePosition applies the exit rules in priority order: hard stop
// (tightened on an accelerating decline), the minimum-profit gate, target or
// overbought exits, then the watch-window expiry. The expiry never forces out
// a losing position; only the hard stop does that.
func (s *Scorer) ShouldClosePosition(ctx context.Context, pos *domain.Position, snap *domain.IndicatorSnapshot, currentPrice float64, watchExpired bool) (bool, domain.CloseReason) {
	p := s.profile
	ret := pos.UnrealizedReturn(currentPrice)

	// (a) Hard stop.
	cut := s.exit.CutRate
	reason := domain.CloseReasonStopLoss
	if s.exit.SeverityCutRate != 0 && snap != nil && snap.Accelerating {
		cut = s.exit.SeverityCutRate
		reason = domain.CloseReasonSeverityStop
	}
	if ret <= cut {
		s.logger.Info(ctx, "Stop-loss condition met", map[string]interface{}{
			"symbol": pos.Symbol, "return": ret, "cut": cut, "reason": reason,
		})
		return true, reason
	}
	if pos.StopLossPrice > 0 && currentPrice <= pos.StopLossPrice {
		return true, domain.CloseReasonStopLoss
	}

	// (b) Minimum-profit gate: nothing below this exits except the stop.
	if ret < s.exit.MinProfitRate {
		return false, ""
	}

	// (c) Target profit, then overbought signals.
	target := s.exit.MaxProfitRate
	if pos.TargetProfitRate > 0 {
		target = pos.TargetProfitRate
	}
	if ret >= target {
		return true, domain.CloseReasonTargetProfit
	}
	if snap != nil {
		overbought := snap.RSI >= p.OverboughtRSI ||
			snap.StochK >= p.OverboughtStoch ||
			snap.BBPosition >= 0.85 ||
			snap.BearishDivergence
		if overbought {
			return true, domain.CloseReasonOverbought
		}
	}

	// (d) Watch window elapsed with the minimum already met.
	if watchExpired {
		return true, domain.CloseReasonTimeBox
	}
	return false, ""
}
