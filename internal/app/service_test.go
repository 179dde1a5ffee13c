package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/milka-trade/OldFashionedPeople-sub001/config"
	"github.com/milka-trade/OldFashionedPeople-sub001/internal/domain"
	"github.com/milka-trade/OldFashionedPeople-sub001/internal/metrics"
	"github.com/milka-trade/OldFashionedPeople-sub001/internal/ports"
	"github.com/milka-trade/OldFashionedPeople-sub001/internal/risk"
	"github.com/milka-trade/OldFashionedPeople-sub001/internal/strategy"
)

// Mock implementations

type mockLogger struct {
	debugMsgs []string
	infoMsgs  []string
	warnMsgs  []string
	errorMsgs []string
}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {
	m.debugMsgs = append(m.debugMsgs, msg)
}

func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{}) {
	m.infoMsgs = append(m.infoMsgs, msg)
}

func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{}) {
	m.warnMsgs = append(m.warnMsgs, msg)
}

func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
	m.errorMsgs = append(m.errorMsgs, msg)
}

type mockStrategy struct {
	enterOK     bool
	enterScore  int
	enterCalls  int
	closeOK     bool
	closeReason domain.CloseReason

	// last watchExpired value passed to ShouldClosePosition
	lastWatchExpired bool
}

func (m *mockStrategy) RequiredDataPoints() int { return 10 }

func (m *mockStrategy) Snapshot(symbol, interval string, candles []*domain.Candle) *domain.IndicatorSnapshot {
	snap := &domain.IndicatorSnapshot{Symbol: symbol, Interval: interval, RSI: 30}
	if len(candles) > 0 {
		snap.Price = candles[len(candles)-1].Close
	}
	return snap
}

func (m *mockStrategy) EvaluateEntry(ctx context.Context, short, medium *domain.IndicatorSnapshot, intradayChangePct float64) (domain.SignalScore, bool, string) {
	m.enterCalls++
	return domain.SignalScore{Total: m.enterScore}, m.enterOK, "test"
}

func (m *mockStrategy) ShouldClosePosition(ctx context.Context, pos *domain.Position, snap *domain.IndicatorSnapshot, currentPrice float64, watchExpired bool) (bool, domain.CloseReason) {
	m.lastWatchExpired = watchExpired
	return m.closeOK, m.closeReason
}

type mockExchange struct {
	klines      []*domain.Candle
	klinesErr   error
	tickerPrice float64
	tickerErr   error
	balances    []ports.AssetBalance
	balancesErr error

	buyCalls  int
	buyErrs   []error // error for call N, nil past the end
	sellCalls int
	sellErrs  []error
}

func schedErr(errs []error, call int) error {
	if call < len(errs) {
		return errs[call]
	}
	return nil
}

func (m *mockExchange) GetKlines(ctx context.Context, symbol, interval string, limit int) ([]*domain.Candle, error) {
	return m.klines, m.klinesErr
}

func (m *mockExchange) GetTickerPrice(ctx context.Context, symbol string) (float64, error) {
	return m.tickerPrice, m.tickerErr
}

func (m *mockExchange) GetAccountBalances(ctx context.Context) ([]ports.AssetBalance, error) {
	return m.balances, m.balancesErr
}

func (m *mockExchange) PlaceMarketBuyByQuote(ctx context.Context, symbol string, quoteNotional float64) (*ports.OrderResponse, error) {
	call := m.buyCalls
	m.buyCalls++
	if err := schedErr(m.buyErrs, call); err != nil {
		return nil, err
	}
	return &ports.OrderResponse{
		Symbol:      symbol,
		Side:        domain.Buy,
		AvgPrice:    m.tickerPrice,
		ExecutedQty: quoteNotional / m.tickerPrice,
		QuoteQty:    quoteNotional,
		Status:      "FILLED",
	}, nil
}

func (m *mockExchange) PlaceMarketSell(ctx context.Context, symbol string, quantity float64) (*ports.OrderResponse, error) {
	call := m.sellCalls
	m.sellCalls++
	if err := schedErr(m.sellErrs, call); err != nil {
		return nil, err
	}
	return &ports.OrderResponse{
		Symbol:      symbol,
		Side:        domain.Sell,
		AvgPrice:    m.tickerPrice,
		ExecutedQty: quantity,
		QuoteQty:    quantity * m.tickerPrice,
		Status:      "FILLED",
	}, nil
}

func (m *mockExchange) Ping(ctx context.Context) error { return nil }

func (m *mockExchange) GetServerTime(ctx context.Context) (time.Time, error) {
	return time.Now(), nil
}

type mockNotifier struct {
	msgs []string
}

func (m *mockNotifier) Notify(ctx context.Context, text string) {
	m.msgs = append(m.msgs, text)
}

// Test scaffolding

func testCandles(n int, closePrice float64) []*domain.Candle {
	candles := make([]*domain.Candle, n)
	for i := range candles {
		candles[i] = &domain.Candle{
			Open:   closePrice,
			High:   closePrice,
			Low:    closePrice,
			Close:  closePrice,
			Volume: 100,
		}
	}
	return candles
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	window, err := config.ParseWindow("08:50", "09:10", "UTC")
	require.NoError(t, err)
	return &config.Config{
		QuoteAsset:         "USDT",
		Tickers:            []string{"ETHUSDT"},
		ProfileName:        "standard",
		Profile:            strategy.DefaultProfiles()["standard"],
		MinProfit:          0.01,
		MaxProfit:          0.03,
		CutRate:            -0.03,
		SeverityCutRate:    -0.015,
		MinOrderNotional:   10,
		BuyInterval:        time.Second,
		SellInterval:       time.Second,
		ReportInterval:     time.Hour,
		BuyConfirmAttempts: 3,
		BuyConfirmInterval: time.Millisecond,
		SellWatchAttempts:  4,
		PriceMoveGuardPct:  3.0,
		OrderRetryAttempts: 3,
		OrderRetryDelay:    time.Millisecond,
		RestrictedWindow:   window,
	}
}

func newTestService(t *testing.T, cfg *config.Config, exchange *mockExchange, strat *mockStrategy) (*TradingService, *mockNotifier) {
	t.Helper()
	sizer, err := risk.NewSizer(risk.SizerConfig{
		BaseFraction:     0.10,
		MaxExposureRatio: 0.80,
		MinOrderNotional: cfg.MinOrderNotional,
		SmallCashRatio:   0.10,
	})
	require.NoError(t, err)
	notifier := &mockNotifier{}
	svc, err := New(cfg, &mockLogger{}, exchange, strat, sizer, notifier, metrics.New())
	require.NoError(t, err)
	return svc, notifier
}

func fixTime(svc *TradingService, t time.Time) {
	svc.now = func() time.Time { return t }
}

// noon is safely outside the restricted window.
var noon = time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)

func TestNew_RequiresDependencies(t *testing.T) {
	_, err := New(nil, nil, nil, nil, nil, nil, nil)
	require.Error(t, err)
}

func TestBuyCycle_RestrictedWindowAbstains(t *testing.T) {
	exchange := &mockExchange{
		klines:      testCandles(20, 100),
		tickerPrice: 100,
		balances:    []ports.AssetBalance{{Asset: "USDT", Free: 10000}},
	}
	strat := &mockStrategy{enterOK: true, enterScore: 80}
	svc, _ := newTestService(t, testConfig(t), exchange, strat)
	fixTime(svc, time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC))

	svc.buyCycle(context.Background())

	assert.Zero(t, exchange.buyCalls)
	assert.Zero(t, strat.enterCalls)
	assert.Equal(t, 1, svc.decisionCounts[domain.ActionAbstain])
}

func TestBuyCycle_SingleOrderPerCandidate(t *testing.T) {
	exchange := &mockExchange{
		klines:      testCandles(20, 100),
		tickerPrice: 100,
		balances:    []ports.AssetBalance{{Asset: "USDT", Free: 10000}},
	}
	strat := &mockStrategy{enterOK: true, enterScore: 80}
	svc, notifier := newTestService(t, testConfig(t), exchange, strat)
	fixTime(svc, noon)

	svc.buyCycle(context.Background())

	// Multiple confirmation attempts were allowed but exactly one order
	// reached the exchange.
	assert.Equal(t, 1, exchange.buyCalls)
	assert.Equal(t, 1, svc.decisionCounts[domain.ActionBuy])
	require.Len(t, notifier.msgs, 1)
	assert.Contains(t, notifier.msgs[0], "BUY ETHUSDT")
}

func TestBuyCycle_RetriesTransientPlacementFailure(t *testing.T) {
	exchange := &mockExchange{
		klines:      testCandles(20, 100),
		tickerPrice: 100,
		balances:    []ports.AssetBalance{{Asset: "USDT", Free: 10000}},
		buyErrs:     []error{errors.New("temporary"), errors.New("temporary")},
	}
	strat := &mockStrategy{enterOK: true, enterScore: 70}
	svc, notifier := newTestService(t, testConfig(t), exchange, strat)
	fixTime(svc, noon)

	svc.buyCycle(context.Background())

	// Two failed attempts, third succeeds. Still one position.
	assert.Equal(t, 3, exchange.buyCalls)
	assert.Equal(t, 1, svc.decisionCounts[domain.ActionBuy])
	require.Len(t, notifier.msgs, 1)
	assert.Contains(t, notifier.msgs[0], "BUY ETHUSDT")
}

func TestBuyCycle_AbandonsAfterRetryBudget(t *testing.T) {
	placeErr := errors.New("insufficient balance")
	exchange := &mockExchange{
		klines:      testCandles(20, 100),
		tickerPrice: 100,
		balances:    []ports.AssetBalance{{Asset: "USDT", Free: 10000}},
		buyErrs:     []error{placeErr, placeErr, placeErr},
	}
	strat := &mockStrategy{enterOK: true, enterScore: 70}
	svc, notifier := newTestService(t, testConfig(t), exchange, strat)
	fixTime(svc, noon)

	svc.buyCycle(context.Background())

	assert.Equal(t, 3, exchange.buyCalls)
	assert.Zero(t, svc.decisionCounts[domain.ActionBuy])
	require.Len(t, notifier.msgs, 1)
	assert.Contains(t, notifier.msgs[0], "abandoned")
}

func TestBuyCycle_PriceMoveGuardAborts(t *testing.T) {
	// Snapshot price 100, live ticker 110: a 10% move against a 3% guard.
	exchange := &mockExchange{
		klines:      testCandles(20, 100),
		tickerPrice: 110,
		balances:    []ports.AssetBalance{{Asset: "USDT", Free: 10000}},
	}
	strat := &mockStrategy{enterOK: true, enterScore: 80}
	svc, _ := newTestService(t, testConfig(t), exchange, strat)
	fixTime(svc, noon)

	svc.buyCycle(context.Background())

	assert.Zero(t, exchange.buyCalls)
	assert.Equal(t, 1, svc.decisionCounts[domain.ActionAbstain])
}

func TestBuyCycle_SkipsHeldSymbols(t *testing.T) {
	exchange := &mockExchange{
		klines:      testCandles(20, 100),
		tickerPrice: 100,
		balances: []ports.AssetBalance{
			{Asset: "USDT", Free: 10000},
			{Asset: "ETH", Free: 1, AvgBuyPrice: 95},
		},
	}
	strat := &mockStrategy{enterOK: true, enterScore: 80}
	svc, _ := newTestService(t, testConfig(t), exchange, strat)
	fixTime(svc, noon)

	svc.buyCycle(context.Background())

	// The only ticker is already held, so nothing was even evaluated.
	assert.Zero(t, strat.enterCalls)
	assert.Zero(t, exchange.buyCalls)
}

func TestBuyCycle_BalanceFetchFailureSkipsCycle(t *testing.T) {
	exchange := &mockExchange{
		klines:      testCandles(20, 100),
		tickerPrice: 100,
		balancesErr: errors.New("exchange unavailable"),
	}
	strat := &mockStrategy{enterOK: true, enterScore: 80}
	svc, _ := newTestService(t, testConfig(t), exchange, strat)
	fixTime(svc, noon)

	svc.buyCycle(context.Background())

	assert.Zero(t, exchange.buyCalls)
	assert.Zero(t, strat.enterCalls)
}

func TestSellCycle_ArmsWatchDeadlineOnFirstSight(t *testing.T) {
	exchange := &mockExchange{
		klines:      testCandles(20, 100),
		tickerPrice: 100,
		balances: []ports.AssetBalance{
			{Asset: "USDT", Free: 1000},
			{Asset: "ETH", Free: 1, AvgBuyPrice: 100},
		},
	}
	strat := &mockStrategy{closeOK: false}
	svc, _ := newTestService(t, testConfig(t), exchange, strat)
	fixTime(svc, noon)

	svc.sellCycle(context.Background())

	assert.Zero(t, exchange.sellCalls)
	deadline, ok := svc.watchDeadlines["ETHUSDT"]
	require.True(t, ok)
	assert.Equal(t, noon.Add(4*time.Second), deadline)
	assert.False(t, strat.lastWatchExpired)
	assert.Equal(t, 1, svc.decisionCounts[domain.ActionHold])
}

func TestSellCycle_WatchExpiryReachesStrategy(t *testing.T) {
	exchange := &mockExchange{
		klines:      testCandles(20, 100),
		tickerPrice: 100,
		balances: []ports.AssetBalance{
			{Asset: "ETH", Free: 1, AvgBuyPrice: 100},
		},
	}
	strat := &mockStrategy{closeOK: false}
	svc, _ := newTestService(t, testConfig(t), exchange, strat)
	fixTime(svc, noon)
	svc.watchDeadlines["ETHUSDT"] = noon.Add(-time.Second)

	svc.sellCycle(context.Background())

	assert.True(t, strat.lastWatchExpired)
}

func TestSellCycle_ClosesPositionAndRecordsTrade(t *testing.T) {
	exchange := &mockExchange{
		klines:      testCandles(20, 103),
		tickerPrice: 103,
		balances: []ports.AssetBalance{
			{Asset: "USDT", Free: 1000},
			{Asset: "ETH", Free: 2, AvgBuyPrice: 100},
		},
	}
	strat := &mockStrategy{closeOK: true, closeReason: domain.CloseReasonTargetProfit}
	svc, notifier := newTestService(t, testConfig(t), exchange, strat)
	fixTime(svc, noon)

	svc.sellCycle(context.Background())

	assert.Equal(t, 1, exchange.sellCalls)
	assert.NotContains(t, svc.watchDeadlines, "ETHUSDT")
	require.Len(t, notifier.msgs, 1)
	assert.Contains(t, notifier.msgs[0], "SELL ETHUSDT")

	trades, decisions := svc.drainJournal()
	require.Len(t, trades, 1)
	assert.Equal(t, "ETHUSDT", trades[0].Symbol)
	assert.Equal(t, domain.CloseReasonTargetProfit, trades[0].CloseReason)
	assert.InDelta(t, 6.0, trades[0].PNL, 1e-9) // 2 units, 100 -> 103
	assert.Equal(t, 1, decisions[domain.ActionSell])
}

func TestSellCycle_NeverSellsOnMissingData(t *testing.T) {
	exchange := &mockExchange{
		klinesErr:   errors.New("klines unavailable"),
		tickerPrice: 100,
		balances: []ports.AssetBalance{
			{Asset: "ETH", Free: 1, AvgBuyPrice: 100},
		},
	}
	strat := &mockStrategy{closeOK: true, closeReason: domain.CloseReasonStopLoss}
	svc, _ := newTestService(t, testConfig(t), exchange, strat)
	fixTime(svc, noon)

	svc.sellCycle(context.Background())

	assert.Zero(t, exchange.sellCalls)
}

func TestSellCycle_PreWindowForcesEvaluation(t *testing.T) {
	// 08:45 with a 10 minute lead ahead of an 08:50 window start.
	preWindow := time.Date(2025, 6, 2, 8, 45, 0, 0, time.UTC)
	exchange := &mockExchange{
		klines:      testCandles(20, 102),
		tickerPrice: 102,
		balances: []ports.AssetBalance{
			{Asset: "ETH", Free: 1, AvgBuyPrice: 100},
		},
	}
	strat := &mockStrategy{closeOK: true, closeReason: domain.CloseReasonTimeBox}
	svc, _ := newTestService(t, testConfig(t), exchange, strat)
	fixTime(svc, preWindow)

	svc.sellCycle(context.Background())

	assert.True(t, strat.lastWatchExpired)
	assert.Equal(t, 1, exchange.sellCalls)
	trades, _ := svc.drainJournal()
	require.Len(t, trades, 1)
	assert.Equal(t, domain.CloseReasonPreWindow, trades[0].CloseReason)
}

func TestSellCycle_RetriesSellPlacement(t *testing.T) {
	exchange := &mockExchange{
		klines:      testCandles(20, 97),
		tickerPrice: 97,
		balances: []ports.AssetBalance{
			{Asset: "ETH", Free: 1, AvgBuyPrice: 100},
		},
		sellErrs: []error{errors.New("temporary")},
	}
	strat := &mockStrategy{closeOK: true, closeReason: domain.CloseReasonStopLoss}
	svc, _ := newTestService(t, testConfig(t), exchange, strat)
	fixTime(svc, noon)

	svc.sellCycle(context.Background())

	assert.Equal(t, 2, exchange.sellCalls)
	trades, _ := svc.drainJournal()
	require.Len(t, trades, 1)
	assert.Equal(t, domain.CloseReasonStopLoss, trades[0].CloseReason)
}

func TestSellCycle_DisarmsDeadlineWhenBalanceGone(t *testing.T) {
	exchange := &mockExchange{
		klines:      testCandles(20, 100),
		tickerPrice: 100,
		balances:    []ports.AssetBalance{{Asset: "USDT", Free: 1000}},
	}
	strat := &mockStrategy{}
	svc, _ := newTestService(t, testConfig(t), exchange, strat)
	fixTime(svc, noon)
	svc.watchDeadlines["ETHUSDT"] = noon.Add(time.Minute)

	svc.sellCycle(context.Background())

	assert.Empty(t, svc.watchDeadlines)
}

func TestReportCycle_DrainsJournal(t *testing.T) {
	exchange := &mockExchange{
		tickerPrice: 100,
		balances:    []ports.AssetBalance{{Asset: "USDT", Free: 5000}},
	}
	strat := &mockStrategy{}
	svc, notifier := newTestService(t, testConfig(t), exchange, strat)
	fixTime(svc, noon)
	svc.recordTrade(domain.Trade{Symbol: "ETHUSDT", PNL: 4.2, CloseReason: domain.CloseReasonTargetProfit})
	svc.recordDecision(domain.Decision{Action: domain.ActionBuy})

	svc.reportCycle(context.Background())

	require.Len(t, notifier.msgs, 1)
	assert.Contains(t, notifier.msgs[0], "ETHUSDT")
	assert.Contains(t, notifier.msgs[0], "Total value: 5000.00 USDT")

	trades, decisions := svc.drainJournal()
	assert.Empty(t, trades)
	assert.Zero(t, decisions[domain.ActionBuy])
}
