package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

var (
	TicksTotal            = prometheus.NewCounter(prometheus.CounterOpts{Name: "ticks_total", Help: "Total pipeline ticks executed"})
	TradesMatchedTotal    = prometheus.NewCounter(prometheus.CounterOpts{Name: "trades_matched_total", Help: "Total trades produced by matching passes"})
	OrdersSubmittedTotal  = prometheus.NewCounter(prometheus.CounterOpts{Name: "orders_submitted_total", Help: "Total orders accepted into the book"})
	OrdersRejectedTotal   = prometheus.NewCounter(prometheus.CounterOpts{Name: "orders_rejected_total", Help: "Total order submissions rejected by validation"})
	SubscribersActive     = prometheus.NewGauge(prometheus.GaugeOpts{Name: "subscribers_active", Help: "Currently registered market-data subscribers"})
	SubscribersEvicted    = prometheus.NewCounter(prometheus.CounterOpts{Name: "subscribers_evicted_total", Help: "Subscribers evicted after failed delivery"})
	TickDurationMs        = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "tick_duration_ms", Help: "Tick execution time", Buckets: prometheus.LinearBuckets(1, 5, 20)})
	MatchingPassTrades    = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "matching_pass_trades", Help: "Trades per matching pass", Buckets: prometheus.LinearBuckets(0, 1, 16)})
	OpenOrders            = prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: "open_orders", Help: "Resting orders by side"}, []string{"side"})
	MarketPrice           = prometheus.NewGauge(prometheus.GaugeOpts{Name: "market_price", Help: "Last generated market price"})
	FramesDeliveredTotal  = prometheus.NewCounter(prometheus.CounterOpts{Name: "frames_delivered_total", Help: "Frames delivered across all subscribers"})
	FramesDroppedTotal    = prometheus.NewCounter(prometheus.CounterOpts{Name: "frames_dropped_total", Help: "Frames dropped on full or dead subscriber queues"})
)

func Init(logger zerolog.Logger) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	toRegister := []prometheus.Collector{
		TicksTotal, TradesMatchedTotal, OrdersSubmittedTotal, OrdersRejectedTotal,
		SubscribersActive, SubscribersEvicted, TickDurationMs, MatchingPassTrades,
		OpenOrders, MarketPrice, FramesDeliveredTotal, FramesDroppedTotal,
		collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	}
	for _, c := range toRegister {
		_ = reg.Register(c)
	}
	logger.Info().Msg("Prometheus metrics initialized")
	return reg
}

func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
