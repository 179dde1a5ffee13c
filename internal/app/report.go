package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/milka-trade/OldFashionedPeople-sub001/internal/domain"
)

// reportCycle publishes a periodic account summary: valuation, open
// positions, trades closed since the last report, and decision counts. The
// journal is drained so each report covers exactly one interval.
func (s *TradingService) reportCycle(ctx context.Context) {
	account, err := s.loadAccount(ctx)
	if err != nil {
		s.logger.Warn(ctx, "Balance fetch failed, skipping report", map[string]interface{}{"error": err.Error()})
		return
	}

	trades, decisions := s.drainJournal()

	var b strings.Builder
	fmt.Fprintf(&b, "Report %s\n", s.now().Format("2006-01-02 15:04"))
	fmt.Fprintf(&b, "Total value: %.2f %s (free %.2f)\n", account.totalValue, s.cfg.QuoteAsset, account.freeCash)

	if len(account.held) == 0 {
		b.WriteString("Open positions: none\n")
	} else {
		b.WriteString("Open positions:\n")
		for symbol, balance := range account.held {
			price, perr := s.exchange.GetTickerPrice(ctx, symbol)
			if perr != nil {
				price = balance.AvgBuyPrice
			}
			ret := 0.0
			if balance.AvgBuyPrice > 0 {
				ret = (price - balance.AvgBuyPrice) / balance.AvgBuyPrice * 100
			}
			fmt.Fprintf(&b, "  %s: %.8f @ %.4f (%+.2f%%)\n", symbol, balance.Total(), balance.AvgBuyPrice, ret)
		}
	}

	if len(trades) == 0 {
		b.WriteString("Closed trades: none\n")
	} else {
		var pnl float64
		fmt.Fprintf(&b, "Closed trades: %d\n", len(trades))
		for _, t := range trades {
			pnl += t.PNL
			fmt.Fprintf(&b, "  %s %s pnl %.2f\n", t.Symbol, t.CloseReason, t.PNL)
		}
		fmt.Fprintf(&b, "Realized pnl: %.2f %s\n", pnl, s.cfg.QuoteAsset)
	}

	fmt.Fprintf(&b, "Decisions: buy %d, sell %d, hold %d, abstain %d",
		decisions[domain.ActionBuy], decisions[domain.ActionSell],
		decisions[domain.ActionHold], decisions[domain.ActionAbstain])

	text := b.String()
	s.logger.Info(ctx, "Periodic report", map[string]interface{}{
		"totalValue": account.totalValue,
		"positions":  len(account.held),
		"trades":     len(trades),
	})
	s.notifier.Notify(ctx, text)
}

// drainJournal swaps out the accumulated trades and decision counts.
func (s *TradingService) drainJournal() ([]domain.Trade, map[domain.Action]int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	trades := s.closedTrades
	decisions := s.decisionCounts
	s.closedTrades = nil
	s.decisionCounts = make(map[domain.Action]int)
	return trades, decisions
}
