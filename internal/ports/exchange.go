package ports

import (
	"context"
	"time"

	"github.com/milka-trade/OldFashionedPeople-sub001/internal/domain"
)

// OrderResponse represents the essential details returned after placing an order.
type OrderResponse struct {
	OrderID       int64     // Exchange's order ID
	ClientOrderID string    // Client-generated order ID
	Symbol        string    // Symbol for the order
	Side          domain.OrderSide
	AvgPrice      float64   // Average filled price (0 if not yet known)
	ExecutedQty   float64   // Base quantity filled
	QuoteQty      float64   // Quote notional filled
	Status        string    // Order status (e.g., NEW, FILLED)
	Timestamp     time.Time // Time the order response was generated
}

// AssetBalance is one entry of the account composition. AvgBuyPrice is the
// exchange-reported (or fill-derived) average cost and may be 0 when unknown.
type AssetBalance struct {
	Asset       string
	Free        float64
	Locked      float64
	AvgBuyPrice float64
}

// Total returns free plus locked amount.
func (b AssetBalance) Total() float64 {
	return b.Free + b.Locked
}

// ExchangeClient defines the interface for interacting with a cryptocurrency exchange.
// This abstraction decouples the decision engine from a specific exchange implementation.
type ExchangeClient interface {
	// GetKlines retrieves historical candles for the given symbol, oldest first.
	GetKlines(ctx context.Context, symbol, interval string, limit int) ([]*domain.Candle, error)

	// GetTickerPrice retrieves the last traded price for a given symbol.
	GetTickerPrice(ctx context.Context, symbol string) (float64, error)

	// GetAccountBalances retrieves the full account composition.
	GetAccountBalances(ctx context.Context) ([]AssetBalance, error)

	// PlaceMarketBuyByQuote places a market buy spending the given quote notional.
	PlaceMarketBuyByQuote(ctx context.Context, symbol string, quoteNotional float64) (*OrderResponse, error)

	// PlaceMarketSell places a market sell of the given base quantity.
	PlaceMarketSell(ctx context.Context, symbol string, quantity float64) (*OrderResponse, error)

	// Ping checks the connectivity to the exchange API.
	Ping(ctx context.Context) error

	// GetServerTime retrieves the current server time from the exchange.
	GetServerTime(ctx context.Context) (time.Time, error)
}
