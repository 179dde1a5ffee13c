// Package binanceclient implements ports.ExchangeClient against the Binance
// spot API using the go-binance library.
package binanceclient

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/adshao/go-binance/v2/common"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/milka-trade/OldFashionedPeople-sub001/internal/domain"
	"github.com/milka-trade/OldFashionedPeople-sub001/internal/ports"
)

const (
	baseURLProduction = "https://api.binance.com"
	baseURLTestnet    = "https://testnet.binance.vision"

	// How many recent fills to walk when deriving an average buy price.
	avgCostTradeLimit = 50
)

// Client implements the ports.ExchangeClient interface using the go-binance library.
type Client struct {
	spot       *binance.Client
	logger     ports.Logger
	quoteAsset string
}

// Config holds configuration specific to the Binance client adapter.
type Config struct {
	APIKey     string
	SecretKey  string
	UseTestnet bool
	QuoteAsset string // e.g. "USDT"; balances are valued against it
	Logger     ports.Logger
}

// New creates a new Binance spot client adapter.
func New(cfg Config) (*Client, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for Binance client")
	}
	if cfg.QuoteAsset == "" {
		cfg.QuoteAsset = "USDT"
	}
	if cfg.APIKey == "" || cfg.SecretKey == "" {
		cfg.Logger.Warn(context.Background(), "APIKey or SecretKey is empty. Client will only work for public endpoints.")
	}

	client := binance.NewClient(cfg.APIKey, cfg.SecretKey)
	if cfg.UseTestnet {
		client.BaseURL = baseURLTestnet
		cfg.Logger.Info(context.Background(), "Binance client configured for Testnet", map[string]interface{}{"baseURL": client.BaseURL})
	} else {
		client.BaseURL = baseURLProduction
	}

	return &Client{
		spot:       client,
		logger:     cfg.Logger,
		quoteAsset: cfg.QuoteAsset,
	}, nil
}

// handleError translates common Binance API errors into standardized ports errors.
func (c *Client) handleError(ctx context.Context, err error, operation string) error {
	if err == nil {
		return nil
	}

	fields := map[string]interface{}{"operation": operation, "originalError": err.Error()}

	var apiErr *common.APIError
	if errors.As(err, &apiErr) {
		fields["apiErrorCode"] = apiErr.Code
		fields["apiErrorMessage"] = apiErr.Message

		var mappedErr error
		switch apiErr.Code {
		case -1003:
			mappedErr = ports.ErrRateLimited
		case -1021:
			mappedErr = ports.ErrTimeout
		case -1022:
			mappedErr = ports.ErrAuthenticationFailed
		case -1100, -1101, -1102, -1103, -1104, -1106, -1111, -1121, -1130:
			mappedErr = ports.ErrInvalidRequest
		case -2010, -1013:
			mappedErr = ports.ErrOrderPlacementFailed
		case -2013:
			mappedErr = ports.ErrOrderNotFound
		case -2014, -2015:
			mappedErr = ports.ErrInvalidAPIKeys
		case -2018, -2019, -3041:
			mappedErr = ports.ErrInsufficientFunds
		default:
			mappedErr = ports.ErrUnknown
		}
		finalErr := fmt.Errorf("%s failed: %w: %w", operation, mappedErr, err)
		c.logger.Error(ctx, err, fmt.Sprintf("%s failed with API error", operation), fields)
		return finalErr
	}

	var finalErr error
	if errors.Is(err, context.DeadlineExceeded) {
		finalErr = fmt.Errorf("%s failed: %w: %w", operation, ports.ErrTimeout, err)
	} else if errors.Is(err, context.Canceled) {
		finalErr = fmt.Errorf("%s operation canceled: %w: %w", operation, ports.ErrContextCanceled, err)
	} else if strings.Contains(err.Error(), "connection refused") ||
		strings.Contains(err.Error(), "connection reset by peer") ||
		strings.Contains(err.Error(), "use of closed network connection") {
		finalErr = fmt.Errorf("%s failed: %w: %w", operation, ports.ErrConnectionFailed, err)
	} else {
		finalErr = fmt.Errorf("%s failed: %w: %w", operation, ports.ErrUnknown, err)
	}

	c.logger.Error(ctx, err, fmt.Sprintf("%s failed", operation), fields)
	return finalErr
}

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// GetKlines retrieves historical candles for the given symbol, oldest first.
func (c *Client) GetKlines(ctx context.Context, symbol, interval string, limit int) ([]*domain.Candle, error) {
	op := "GetKlines"
	raw, err := c.spot.NewKlinesService().
		Symbol(symbol).
		Interval(interval).
		Limit(limit).
		Do(ctx)
	if err != nil {
		return nil, c.handleError(ctx, err, op)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%s: %w: empty kline response for %s", op, ports.ErrNoData, symbol)
	}

	candles := make([]*domain.Candle, 0, len(raw))
	for _, k := range raw {
		candles = append(candles, &domain.Candle{
			OpenTime:  time.UnixMilli(k.OpenTime),
			CloseTime: time.UnixMilli(k.CloseTime),
			Symbol:    symbol,
			Interval:  interval,
			Open:      parseFloat(k.Open),
			High:      parseFloat(k.High),
			Low:       parseFloat(k.Low),
			Close:     parseFloat(k.Close),
			Volume:    parseFloat(k.Volume),
		})
	}
	return candles, nil
}

// GetTickerPrice retrieves the last traded price for a given symbol.
func (c *Client) GetTickerPrice(ctx context.Context, symbol string) (float64, error) {
	op := "GetTickerPrice"
	prices, err := c.spot.NewListPricesService().Symbol(symbol).Do(ctx)
	if err != nil {
		return 0, c.handleError(ctx, err, op)
	}
	if len(prices) == 0 {
		return 0, fmt.Errorf("%s: %w: no price for %s", op, ports.ErrNoData, symbol)
	}
	price := parseFloat(prices[0].Price)
	if price <= 0 {
		return 0, fmt.Errorf("%s: %w: unparseable price %q", op, ports.ErrMalformedData, prices[0].Price)
	}
	return price, nil
}

// GetAccountBalances retrieves the full account composition. Average buy
// prices are derived best-effort from recent fills; a failed lookup leaves
// the price at 0 rather than failing the whole call.
func (c *Client) GetAccountBalances(ctx context.Context) ([]ports.AssetBalance, error) {
	op := "GetAccountBalances"
	account, err := c.spot.NewGetAccountService().Do(ctx)
	if err != nil {
		return nil, c.handleError(ctx, err, op)
	}

	balances := make([]ports.AssetBalance, 0, len(account.Balances))
	for _, b := range account.Balances {
		free := parseFloat(b.Free)
		locked := parseFloat(b.Locked)
		if free <= 0 && locked <= 0 {
			continue
		}
		bal := ports.AssetBalance{
			Asset:  b.Asset,
			Free:   free,
			Locked: locked,
		}
		if b.Asset != c.quoteAsset {
			bal.AvgBuyPrice = c.averageBuyPrice(ctx, b.Asset+c.quoteAsset, free+locked)
		}
		balances = append(balances, bal)
	}
	return balances, nil
}

// averageBuyPrice walks recent fills newest-first, accumulating buys until
// the held quantity is covered.
func (c *Client) averageBuyPrice(ctx context.Context, symbol string, heldQty float64) float64 {
	trades, err := c.spot.NewListTradesService().Symbol(symbol).Limit(avgCostTradeLimit).Do(ctx)
	if err != nil {
		c.logger.Debug(ctx, "Average buy price lookup failed", map[string]interface{}{
			"symbol": symbol, "error": err.Error(),
		})
		return 0
	}

	var qtySum, costSum float64
	for i := len(trades) - 1; i >= 0 && qtySum < heldQty; i-- {
		t := trades[i]
		if !t.IsBuyer {
			continue
		}
		qty := parseFloat(t.Quantity)
		qtySum += qty
		costSum += qty * parseFloat(t.Price)
	}
	if qtySum <= 0 {
		return 0
	}
	return costSum / qtySum
}

func orderResponse(symbol string, side domain.OrderSide, res *binance.CreateOrderResponse) *ports.OrderResponse {
	executed := parseFloat(res.ExecutedQuantity)
	quote := parseFloat(res.CummulativeQuoteQuantity)
	avg := 0.0
	if executed > 0 {
		avg = quote / executed
	}
	return &ports.OrderResponse{
		OrderID:       res.OrderID,
		ClientOrderID: res.ClientOrderID,
		Symbol:        symbol,
		Side:          side,
		AvgPrice:      avg,
		ExecutedQty:   executed,
		QuoteQty:      quote,
		Status:        string(res.Status),
		Timestamp:     time.UnixMilli(res.TransactTime),
	}
}

// PlaceMarketBuyByQuote places a market buy spending the given quote notional.
func (c *Client) PlaceMarketBuyByQuote(ctx context.Context, symbol string, quoteNotional float64) (*ports.OrderResponse, error) {
	op := "PlaceMarketBuyByQuote"
	notional := decimal.NewFromFloat(quoteNotional).Truncate(2).String()

	res, err := c.spot.NewCreateOrderService().
		Symbol(symbol).
		Side(binance.SideTypeBuy).
		Type(binance.OrderTypeMarket).
		QuoteOrderQty(notional).
		NewClientOrderID(uuid.NewString()).
		Do(ctx)
	if err != nil {
		return nil, c.handleError(ctx, err, op)
	}
	c.logger.Info(ctx, "Market buy placed", map[string]interface{}{
		"symbol": symbol, "orderID": res.OrderID, "notional": notional, "status": res.Status,
	})
	return orderResponse(symbol, domain.Buy, res), nil
}

// PlaceMarketSell places a market sell of the given base quantity.
func (c *Client) PlaceMarketSell(ctx context.Context, symbol string, quantity float64) (*ports.OrderResponse, error) {
	op := "PlaceMarketSell"
	// Truncate, never round up: rounding up can exceed the held quantity.
	qty := decimal.NewFromFloat(quantity).Truncate(8).String()

	res, err := c.spot.NewCreateOrderService().
		Symbol(symbol).
		Side(binance.SideTypeSell).
		Type(binance.OrderTypeMarket).
		Quantity(qty).
		NewClientOrderID(uuid.NewString()).
		Do(ctx)
	if err != nil {
		return nil, c.handleError(ctx, err, op)
	}
	c.logger.Info(ctx, "Market sell placed", map[string]interface{}{
		"symbol": symbol, "orderID": res.OrderID, "quantity": qty, "status": res.Status,
	})
	return orderResponse(symbol, domain.Sell, res), nil
}

// Ping checks the connectivity to the exchange API.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.spot.NewPingService().Do(ctx); err != nil {
		return c.handleError(ctx, err, "Ping")
	}
	return nil
}

// GetServerTime retrieves the current server time from the exchange.
func (c *Client) GetServerTime(ctx context.Context) (time.Time, error) {
	ms, err := c.spot.NewServerTimeService().Do(ctx)
	if err != nil {
		return time.Time{}, c.handleError(ctx, err, "GetServerTime")
	}
	return time.UnixMilli(ms), nil
}
