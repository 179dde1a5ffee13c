// Package metrics exposes prometheus counters for the trading loops. Metrics
// are ambient observability: the engine works identically with the listener
// disabled.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/milka-trade/OldFashionedPeople-sub001/internal/ports"
)

// Metrics holds the counter set on a dedicated registry.
type Metrics struct {
	registry *prometheus.Registry

	Cycles    *prometheus.CounterVec // loop iterations by loop name
	Decisions *prometheus.CounterVec // decisions by action
	Orders    *prometheus.CounterVec // orders by side and outcome
	Errors    *prometheus.CounterVec // recovered loop errors by loop name
}

// New creates the counter set.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		Cycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tradebot_cycles_total",
			Help: "Completed loop iterations.",
		}, []string{"loop"}),
		Decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tradebot_decisions_total",
			Help: "Decisions produced per evaluation cycle.",
		}, []string{"action"}),
		Orders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tradebot_orders_total",
			Help: "Market orders by side and outcome.",
		}, []string{"side", "outcome"}),
		Errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tradebot_loop_errors_total",
			Help: "Recovered errors per loop.",
		}, []string{"loop"}),
	}
	registry.MustRegister(m.Cycles, m.Decisions, m.Orders, m.Errors)
	return m
}

// Serve starts a promhttp listener on addr. Blocks until the context is
// canceled; an empty addr disables the listener and returns immediately.
func (m *Metrics) Serve(ctx context.Context, addr string, logger ports.Logger) {
	if addr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info(ctx, "Metrics listener started", map[string]interface{}{"addr": addr})
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error(ctx, err, "Metrics listener failed")
	}
}
