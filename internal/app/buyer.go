package app

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/milka-trade/OldFashionedPeople-sub001/internal/domain"
	"github.com/milka-trade/OldFashionedPeople-sub001/internal/risk"
)

// candidate is one ticker that passed the scorer's gate during screening.
type candidate struct {
	symbol   string
	price    float64
	score    domain.SignalScore
	shortRSI float64
}

// buyCycle is one iteration of the buying loop:
// Scanning -> CandidateFound -> BuyConfirming -> PositionOpen | Abstain.
// The loop only ever buys tickers with zero held balance; selling is the
// other loop's responsibility.
func (s *TradingService) buyCycle(ctx context.Context) {
	now := s.now()
	if s.cfg.RestrictedWindow.Contains(now) {
		s.logger.Debug(ctx, "Inside restricted window, no new buys", map[string]interface{}{"state": string(StateAbstain)})
		s.recordDecision(domain.Decision{Action: domain.ActionAbstain, Reason: "restricted window"})
		return
	}

	account, err := s.loadAccount(ctx)
	if err != nil {
		// Data unavailable: skip this cycle, retry on the next tick.
		s.logger.Warn(ctx, "Balance fetch failed, skipping buy cycle", map[string]interface{}{"error": err.Error()})
		return
	}

	s.logger.Debug(ctx, "Screening universe", map[string]interface{}{
		"state":   string(StateScanning),
		"tickers": len(s.cfg.Tickers),
	})
	best := s.scanUniverse(ctx, account)
	if best == nil {
		s.recordDecision(domain.Decision{Action: domain.ActionAbstain, Reason: "no candidate passed the gate"})
		return
	}
	s.logger.Info(ctx, "Candidate selected", map[string]interface{}{
		"state":  string(StateCandidateFound),
		"symbol": best.symbol,
		"score":  best.score.Total,
		"rsi":    best.shortRSI,
	})

	notional, err := s.sizer.OrderNotional(account.totalValue, account.freeCash, best.score)
	if err != nil {
		if errors.Is(err, risk.ErrBelowMinNotional) {
			s.logger.Info(ctx, "Candidate dropped by sizer", map[string]interface{}{"symbol": best.symbol, "error": err.Error()})
			s.recordDecision(domain.Decision{Action: domain.ActionAbstain, Reason: "order size below minimum", Confidence: best.score.Total})
			return
		}
		s.logger.Error(ctx, err, "Sizing failed", map[string]interface{}{"symbol": best.symbol})
		return
	}

	s.confirmAndBuy(ctx, best, notional)
}

// scanUniverse screens every ticker without a held balance and returns the
// best candidate: highest composite score, then most oversold short RSI.
func (s *TradingService) scanUniverse(ctx context.Context, account *accountSnapshot) *candidate {
	var best *candidate
	for _, symbol := range s.cfg.Tickers {
		if _, held := account.held[symbol]; held {
			continue // one position per ticker, no pyramiding
		}
		c, err := s.evaluateCandidate(ctx, symbol)
		if err != nil {
			s.logger.Debug(ctx, "Ticker skipped", map[string]interface{}{"symbol": symbol, "error": err.Error()})
			continue
		}
		if c == nil {
			continue
		}
		if best == nil ||
			c.score.Total > best.score.Total ||
			(c.score.Total == best.score.Total && c.shortRSI < best.shortRSI) {
			best = c
		}
	}
	return best
}

// evaluateCandidate computes fresh snapshots for both timeframes and runs the
// scorer. Returns (nil, nil) when the ticker simply does not qualify.
func (s *TradingService) evaluateCandidate(ctx context.Context, symbol string) (*candidate, error) {
	required := s.strategy.RequiredDataPoints()

	p := s.cfg.Profile
	shortCandles, err := s.exchange.GetKlines(ctx, symbol, p.PrimaryInterval, required)
	if err != nil {
		return nil, err
	}

	// Medium timeframe: separately fetched when possible, resampled from the
	// fine series otherwise. Both paths produce the same snapshot type.
	mediumCandles, err := s.exchange.GetKlines(ctx, symbol, p.MediumInterval, required)
	if err != nil {
		mediumCandles = domain.Resample(shortCandles, p.ResampleFactor)
	}

	short := s.strategy.Snapshot(symbol, p.PrimaryInterval, shortCandles)
	medium := s.strategy.Snapshot(symbol, p.MediumInterval, mediumCandles)

	intradayPct := s.intradayChangePct(ctx, symbol, short.Price)

	score, ok, reason := s.strategy.EvaluateEntry(ctx, short, medium, intradayPct)
	if !ok {
		s.logger.Debug(ctx, "Candidate rejected", map[string]interface{}{
			"symbol": symbol, "score": score.Total, "reason": reason,
		})
		return nil, nil
	}
	return &candidate{symbol: symbol, price: short.Price, score: score, shortRSI: short.RSI}, nil
}

// intradayChangePct is the percent change from the daily reference open.
// Unavailable daily data contributes a neutral 0.
func (s *TradingService) intradayChangePct(ctx context.Context, symbol string, price float64) float64 {
	daily, err := s.exchange.GetKlines(ctx, symbol, "1d", 1)
	if err != nil || len(daily) == 0 || daily[len(daily)-1].Open <= 0 {
		return 0
	}
	open := daily[len(daily)-1].Open
	return (price - open) / open * 100
}

// confirmAndBuy is the BuyConfirming state: a bounded re-verification loop
// under a monotonic deadline. At most one order is submitted per accepted
// candidate, no matter how many attempts run.
func (s *TradingService) confirmAndBuy(ctx context.Context, best *candidate, notional float64) {
	deadline := s.now().Add(time.Duration(s.cfg.BuyConfirmAttempts) * s.cfg.BuyConfirmInterval)

	for attempt := 1; attempt <= s.cfg.BuyConfirmAttempts && s.now().Before(deadline); attempt++ {
		price, err := s.exchange.GetTickerPrice(ctx, best.symbol)
		if err != nil {
			s.logger.Warn(ctx, "Price re-check failed", map[string]interface{}{
				"state": string(StateBuyConfirming), "symbol": best.symbol, "attempt": attempt,
			})
			if !s.sleep(ctx, s.cfg.BuyConfirmInterval) {
				return
			}
			continue
		}

		// Volatility guard: abort the candidate when the price ran away
		// between verification and submission.
		movePct := math.Abs(price-best.price) / best.price * 100
		if movePct > s.cfg.PriceMoveGuardPct {
			s.logger.Info(ctx, "Candidate aborted by price-move guard", map[string]interface{}{
				"symbol": best.symbol, "movePct": movePct, "guardPct": s.cfg.PriceMoveGuardPct,
			})
			s.recordDecision(domain.Decision{Action: domain.ActionAbstain, Reason: "price moved beyond guard", Confidence: best.score.Total})
			return
		}

		// The gate must still hold on live data before any order goes out.
		refreshed, err := s.evaluateCandidate(ctx, best.symbol)
		if err != nil || refreshed == nil {
			s.logger.Debug(ctx, "Confirmation attempt failed the gate", map[string]interface{}{
				"symbol": best.symbol, "attempt": attempt,
			})
			if !s.sleep(ctx, s.cfg.BuyConfirmInterval) {
				return
			}
			continue
		}

		s.submitBuy(ctx, best, notional)
		return // one order per candidate, success or not
	}

	s.logger.Info(ctx, "Buy confirmation window elapsed", map[string]interface{}{"symbol": best.symbol})
	s.recordDecision(domain.Decision{Action: domain.ActionAbstain, Reason: "confirmation window elapsed", Confidence: best.score.Total})
}

// submitBuy places the market order with bounded linear-backoff retries.
// Exhausting the retries abandons the candidate for this cycle.
func (s *TradingService) submitBuy(ctx context.Context, best *candidate, notional float64) {
	var lastErr error
	for attempt := 1; attempt <= s.cfg.OrderRetryAttempts; attempt++ {
		res, err := s.exchange.PlaceMarketBuyByQuote(ctx, best.symbol, notional)
		if err == nil {
			s.metrics.Orders.WithLabelValues(string(domain.Buy), "ok").Inc()
			s.recordDecision(domain.Decision{Action: domain.ActionBuy, Reason: "gate held through confirmation", Confidence: best.score.Total})
			s.logger.Info(ctx, "Position opened", map[string]interface{}{
				"state":    string(StatePositionOpen),
				"symbol":   best.symbol,
				"notional": notional,
				"avgPrice": res.AvgPrice,
				"orderID":  res.OrderID,
			})
			s.notifier.Notify(ctx, fmt.Sprintf("BUY %s: %.2f %s @ ~%.4f (score %d)",
				best.symbol, notional, s.cfg.QuoteAsset, res.AvgPrice, best.score.Total))
			return
		}
		lastErr = err
		s.logger.Warn(ctx, "Buy order attempt failed", map[string]interface{}{
			"symbol": best.symbol, "attempt": attempt, "error": err.Error(),
		})
		if attempt < s.cfg.OrderRetryAttempts {
			// Linear backoff: delay grows with the attempt number.
			if !s.sleep(ctx, time.Duration(attempt)*s.cfg.OrderRetryDelay) {
				return
			}
		}
	}

	s.metrics.Orders.WithLabelValues(string(domain.Buy), "failed").Inc()
	s.logger.Error(ctx, lastErr, "Buy order abandoned after retries", map[string]interface{}{"symbol": best.symbol})
	s.notifier.Notify(ctx, fmt.Sprintf("buy order for %s abandoned after %d attempts: %v", best.symbol, s.cfg.OrderRetryAttempts, lastErr))
}
