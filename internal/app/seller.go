package app

import (
	"context"
	"fmt"
	"time"

	"github.com/milka-trade/OldFashionedPeople-sub001/internal/domain"
	"github.com/milka-trade/OldFashionedPeople-sub001/internal/ports"
)

// sellCycle is one iteration of the selling loop. Every held balance is a
// position under watch; the first observation of a symbol arms its bounded
// watch deadline, and losing the balance disarms it.
func (s *TradingService) sellCycle(ctx context.Context) {
	account, err := s.loadAccount(ctx)
	if err != nil {
		s.logger.Warn(ctx, "Balance fetch failed, skipping sell cycle", map[string]interface{}{"error": err.Error()})
		return
	}

	now := s.now()

	// Disarm deadlines for symbols no longer held (sold here, sold
	// externally, or swept as dust).
	for symbol := range s.watchDeadlines {
		if _, held := account.held[symbol]; !held {
			delete(s.watchDeadlines, symbol)
		}
	}

	preWindow := s.cfg.RestrictedWindow.Approaching(now, preWindowLead)

	for symbol, balance := range account.held {
		deadline, tracked := s.watchDeadlines[symbol]
		if !tracked {
			deadline = now.Add(time.Duration(s.cfg.SellWatchAttempts) * s.cfg.SellInterval)
			s.watchDeadlines[symbol] = deadline
			s.logger.Info(ctx, "Position under watch", map[string]interface{}{
				"state":    string(StatePositionOpen),
				"symbol":   symbol,
				"deadline": deadline.Format(time.RFC3339),
			})
		}
		watchExpired := !now.Before(deadline) || preWindow

		s.evaluateHolding(ctx, symbol, balance, watchExpired, preWindow)
	}
}

// evaluateHolding runs the exit rules against one held position and sells
// when they fire.
func (s *TradingService) evaluateHolding(ctx context.Context, symbol string, balance ports.AssetBalance, watchExpired, preWindow bool) {
	required := s.strategy.RequiredDataPoints()
	candles, err := s.exchange.GetKlines(ctx, symbol, s.cfg.Profile.PrimaryInterval, required)
	if err != nil {
		// Never sell on stale or missing data; hold until the next tick.
		s.logger.Warn(ctx, "Kline fetch failed, holding", map[string]interface{}{"symbol": symbol, "error": err.Error()})
		return
	}
	snap := s.strategy.Snapshot(symbol, s.cfg.Profile.PrimaryInterval, candles)

	price, err := s.exchange.GetTickerPrice(ctx, symbol)
	if err != nil {
		price = snap.Price
	}

	pos := &domain.Position{
		Symbol:           symbol,
		EntryPrice:       balance.AvgBuyPrice,
		Quantity:         balance.Total(),
		TargetProfitRate: s.cfg.MaxProfit,
	}

	shouldClose, reason := s.strategy.ShouldClosePosition(ctx, pos, snap, price, watchExpired)
	if !shouldClose {
		s.recordDecision(domain.Decision{Action: domain.ActionHold, Reason: "exit rules quiet"})
		return
	}
	if preWindow && reason == domain.CloseReasonTimeBox {
		reason = domain.CloseReasonPreWindow
	}

	s.logger.Info(ctx, "Closing position", map[string]interface{}{
		"state":  string(StateSellWatching),
		"symbol": symbol,
		"reason": string(reason),
		"price":  price,
	})
	s.submitSell(ctx, pos, price, reason)
}

// submitSell places the market sell with bounded linear-backoff retries. A
// position that cannot be sold stays under watch for the next cycle.
func (s *TradingService) submitSell(ctx context.Context, pos *domain.Position, price float64, reason domain.CloseReason) {
	var lastErr error
	for attempt := 1; attempt <= s.cfg.OrderRetryAttempts; attempt++ {
		res, err := s.exchange.PlaceMarketSell(ctx, pos.Symbol, pos.Quantity)
		if err == nil {
			exitPrice := res.AvgPrice
			if exitPrice <= 0 {
				exitPrice = price
			}
			pnl := (exitPrice - pos.EntryPrice) * res.ExecutedQty
			s.metrics.Orders.WithLabelValues(string(domain.Sell), "ok").Inc()
			s.recordDecision(domain.Decision{Action: domain.ActionSell, Reason: string(reason)})
			s.recordTrade(domain.Trade{
				Symbol:      pos.Symbol,
				EntryPrice:  pos.EntryPrice,
				ExitPrice:   exitPrice,
				Quantity:    res.ExecutedQty,
				PNL:         pnl,
				ExitTime:    s.now(),
				CloseReason: reason,
			})
			delete(s.watchDeadlines, pos.Symbol)
			s.logger.Info(ctx, "Position closed", map[string]interface{}{
				"state":    string(StatePositionClosed),
				"symbol":   pos.Symbol,
				"reason":   string(reason),
				"avgPrice": exitPrice,
				"pnl":      pnl,
			})
			s.notifier.Notify(ctx, fmt.Sprintf("SELL %s (%s): %.8f @ ~%.4f, pnl %.2f %s",
				pos.Symbol, reason, res.ExecutedQty, exitPrice, pnl, s.cfg.QuoteAsset))
			return
		}
		lastErr = err
		s.logger.Warn(ctx, "Sell order attempt failed", map[string]interface{}{
			"symbol": pos.Symbol, "attempt": attempt, "error": err.Error(),
		})
		if attempt < s.cfg.OrderRetryAttempts {
			if !s.sleep(ctx, time.Duration(attempt)*s.cfg.OrderRetryDelay) {
				return
			}
		}
	}

	s.metrics.Orders.WithLabelValues(string(domain.Sell), "failed").Inc()
	s.logger.Error(ctx, lastErr, "Sell order abandoned after retries", map[string]interface{}{"symbol": pos.Symbol})
	s.notifier.Notify(ctx, fmt.Sprintf("sell order for %s abandoned after %d attempts: %v", pos.Symbol, s.cfg.OrderRetryAttempts, lastErr))
}
