package observability

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

var registry = prometheus.NewRegistry()

var (
	QuotesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pricer_quotes_total",
			Help: "Quotes computed, by model and outcome",
		},
		[]string{"model", "outcome"},
	)

	QuoteCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pricer_quote_cache_total",
			Help: "Quote cache lookups, by result",
		},
		[]string{"result"},
	)

	CatalogReloadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pricer_catalog_reloads_total",
			Help: "Catalog reload attempts, by status",
		},
		[]string{"status"},
	)

	SafetyExclusionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pricer_safety_exclusions_total",
			Help: "Models excluded by the safety filter",
		},
	)

	PriceDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pricer_price_duration_seconds",
			Help:    "Time spent pricing one configuration",
			Buckets: prometheus.ExponentialBuckets(0.00001, 4, 8),
		},
	)
)

func init() {
	registry.MustRegister(
		QuotesTotal,
		QuoteCacheTotal,
		CatalogReloadsTotal,
		SafetyExclusionsTotal,
		PriceDuration,
		collectors.NewGoCollector(),
	)
}

func Handler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}

// Start serves /metrics on addr until ctx is cancelled.
func Start(ctx context.Context, addr string, logger *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	go func() {
		logger.Info("Metrics server started", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Metrics server failed", zap.Error(err))
		}
	}()
}
