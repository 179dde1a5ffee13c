// Package app orchestrates the trade decision engine: a buying loop, a
// selling loop and an hourly reporting loop, all polling the exchange
// independently. The exchange account is the sole source of truth; position
// state is a projection rebuilt from balances every cycle and nothing is
// persisted across restarts.
package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/milka-trade/OldFashionedPeople-sub001/config"
	"github.com/milka-trade/OldFashionedPeople-sub001/internal/domain"
	"github.com/milka-trade/OldFashionedPeople-sub001/internal/metrics"
	"github.com/milka-trade/OldFashionedPeople-sub001/internal/ports"
	"github.com/milka-trade/OldFashionedPeople-sub001/internal/risk"
)

// State names one step of the decision cycle, used for logging and metrics.
type State string

const (
	StateScanning       State = "scanning"
	StateCandidateFound State = "candidate_found"
	StateBuyConfirming  State = "buy_confirming"
	StatePositionOpen   State = "position_open"
	StateSellWatching   State = "sell_watching"
	StatePositionClosed State = "position_closed"
	StateAbstain        State = "abstain"
)

// preWindowLead is how long before the restricted window opens that the
// selling loop forces an exit evaluation.
const preWindowLead = 10 * time.Minute

// TradingService owns the three polling loops.
type TradingService struct {
	cfg      *config.Config
	logger   ports.Logger
	exchange ports.ExchangeClient
	strategy ports.Strategy
	sizer    *risk.Sizer
	notifier ports.Notifier
	metrics  *metrics.Metrics

	now func() time.Time // injected in tests

	// watchDeadlines is owned exclusively by the selling loop: first
	// observation of a held symbol starts its bounded watch window.
	watchDeadlines map[string]time.Time

	// In-memory journal for the hourly report. The selling loop writes,
	// the report loop reads.
	mu             sync.Mutex
	closedTrades   []domain.Trade
	decisionCounts map[domain.Action]int
}

// New creates the application service.
func New(
	cfg *config.Config,
	logger ports.Logger,
	exchange ports.ExchangeClient,
	strat ports.Strategy,
	sizer *risk.Sizer,
	notifier ports.Notifier,
	m *metrics.Metrics,
) (*TradingService, error) {
	if cfg == nil || logger == nil || exchange == nil || strat == nil || sizer == nil || notifier == nil || m == nil {
		return nil, fmt.Errorf("missing required dependencies for TradingService")
	}
	return &TradingService{
		cfg:            cfg,
		logger:         logger,
		exchange:       exchange,
		strategy:       strat,
		sizer:          sizer,
		notifier:       notifier,
		metrics:        m,
		now:            time.Now,
		watchDeadlines: make(map[string]time.Time),
		decisionCounts: make(map[domain.Action]int),
	}, nil
}

// Start runs the loops until the context is canceled or a termination signal
// arrives. A single cycle's failure never terminates the process.
func (s *TradingService) Start(ctx context.Context) error {
	s.logger.Info(ctx, "Starting trading service", map[string]interface{}{
		"profile": s.cfg.ProfileName,
		"tickers": s.cfg.Tickers,
	})

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigCh:
			s.logger.Info(ctx, "Received shutdown signal", map[string]interface{}{"signal": sig.String()})
			cancel()
		case <-ctx.Done():
		}
	}()

	// Connectivity check before the loops start.
	if err := s.exchange.Ping(ctx); err != nil {
		s.logger.Error(ctx, err, "Exchange unreachable at startup")
		return fmt.Errorf("exchange ping failed: %w", err)
	}
	if serverTime, err := s.exchange.GetServerTime(ctx); err == nil {
		drift := s.now().Sub(serverTime)
		s.logger.Info(ctx, "Exchange reachable", map[string]interface{}{"clockDrift": drift.String()})
	}

	s.notifier.Notify(ctx, fmt.Sprintf("trading service started (profile=%s, tickers=%v)", s.cfg.ProfileName, s.cfg.Tickers))

	var wg sync.WaitGroup
	wg.Add(3)
	go s.runLoop(ctx, &wg, "sell", s.cfg.SellInterval, s.sellCycle)
	go s.runLoop(ctx, &wg, "buy", s.cfg.BuyInterval, s.buyCycle)
	go s.runLoop(ctx, &wg, "report", s.cfg.ReportInterval, s.reportCycle)

	if s.cfg.MetricsAddr != "" {
		go s.metrics.Serve(ctx, s.cfg.MetricsAddr, s.logger)
	}

	wg.Wait()
	s.notifier.Notify(context.Background(), "trading service stopped")
	s.logger.Info(ctx, "Trading service stopped")
	return nil
}

// runLoop executes body strictly sequentially with a timed sleep between
// iterations. Panics and errors are contained at the loop boundary: notified,
// counted, and followed by the regular sleep.
func (s *TradingService) runLoop(ctx context.Context, wg *sync.WaitGroup, name string, interval time.Duration, body func(ctx context.Context)) {
	defer wg.Done()
	s.logger.Info(ctx, "Loop started", map[string]interface{}{"loop": name, "interval": interval.String()})

	for {
		func() {
			defer func() {
				if r := recover(); r != nil {
					s.metrics.Errors.WithLabelValues(name).Inc()
					err := fmt.Errorf("panic in %s loop: %v", name, r)
					s.logger.Error(ctx, err, "Recovered loop panic", map[string]interface{}{"loop": name})
					s.notifier.Notify(ctx, err.Error())
				}
			}()
			body(ctx)
		}()
		s.metrics.Cycles.WithLabelValues(name).Inc()

		if !s.sleep(ctx, interval) {
			s.logger.Info(ctx, "Loop stopped", map[string]interface{}{"loop": name})
			return
		}
	}
}

// sleep blocks for d or until the context is canceled. Returns false on
// cancellation.
func (s *TradingService) sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// recordDecision feeds the report journal and metrics.
func (s *TradingService) recordDecision(d domain.Decision) {
	s.metrics.Decisions.WithLabelValues(string(d.Action)).Inc()
	s.mu.Lock()
	s.decisionCounts[d.Action]++
	s.mu.Unlock()
}

func (s *TradingService) recordTrade(trade domain.Trade) {
	s.mu.Lock()
	s.closedTrades = append(s.closedTrades, trade)
	s.mu.Unlock()
}

// symbolFor maps a held asset to its traded symbol.
func (s *TradingService) symbolFor(asset string) string {
	return asset + s.cfg.QuoteAsset
}

// accountSnapshot values the account against the quote asset: free cash plus
// marked-to-market holdings.
type accountSnapshot struct {
	freeCash   float64
	totalValue float64
	held       map[string]ports.AssetBalance // keyed by symbol
}

// loadAccount fetches balances and marks holdings to market. A failed price
// lookup falls back to the average buy price; a holding with neither is
// valued at zero rather than failing the cycle.
func (s *TradingService) loadAccount(ctx context.Context) (*accountSnapshot, error) {
	balances, err := s.exchange.GetAccountBalances(ctx)
	if err != nil {
		return nil, err
	}

	snap := &accountSnapshot{held: make(map[string]ports.AssetBalance)}
	for _, b := range balances {
		if b.Asset == s.cfg.QuoteAsset {
			snap.freeCash = b.Free
			snap.totalValue += b.Total()
			continue
		}
		symbol := s.symbolFor(b.Asset)
		price, perr := s.exchange.GetTickerPrice(ctx, symbol)
		if perr != nil {
			price = b.AvgBuyPrice
		}
		value := b.Total() * price
		// Dust below the minimum order size is not a position.
		if value < s.cfg.MinOrderNotional {
			continue
		}
		snap.totalValue += value
		snap.held[symbol] = b
	}
	return snap, nil
}
