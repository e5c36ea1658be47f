// Package metrics exposes Prometheus metrics and a health endpoint for
// the trading engine.
package metrics

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the engine.
type Metrics struct {
	TicksTotal   prometheus.Counter
	DroppedTicks prometheus.Counter
	Reconnects   prometheus.Counter
	BarsTotal    *prometheus.CounterVec // labels: pair
	GapBarsTotal prometheus.Counter

	SignalsTotal   *prometheus.CounterVec // labels: strategy, direction
	OrdersTotal    *prometheus.CounterVec // labels: side
	RejectedOrders prometheus.Counter
	SlippagePips   prometheus.Histogram

	IndicatorValues *prometheus.GaugeVec // labels: name, pair

	Equity        prometheus.Gauge
	Drawdown      prometheus.Gauge
	OpenPosCount  prometheus.Gauge
	TradingHalted prometheus.Gauge // 0 or 1
}

// New registers and returns the engine metrics.
func New() *Metrics {
	m := &Metrics{
		TicksTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fxtrader_ticks_total",
			Help: "Total ticks admitted by the market data gateway",
		}),
		DroppedTicks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fxtrader_dropped_ticks_total",
			Help: "Ticks dropped (malformed, replayed, or out of order)",
		}),
		Reconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fxtrader_stream_reconnects_total",
			Help: "Market data stream reconnection attempts",
		}),
		BarsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fxtrader_bars_total",
			Help: "Finalized bars emitted per pair",
		}, []string{"pair"}),
		GapBarsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fxtrader_gap_bars_total",
			Help: "Synthetic fill-forward bars emitted across quiet intervals",
		}),

		SignalsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fxtrader_signals_total",
			Help: "Fused signals emitted by the strategy engine",
		}, []string{"strategy", "direction"}),
		OrdersTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fxtrader_orders_total",
			Help: "Orders submitted to the execution gateway",
		}, []string{"side"}),
		RejectedOrders: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fxtrader_rejected_orders_total",
			Help: "Orders abandoned after retry exhaustion or risk rejection",
		}),
		SlippagePips: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "fxtrader_slippage_pips",
			Help:    "Realized slippage per fill, in pips",
			Buckets: []float64{0, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		}),

		IndicatorValues: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "fxtrader_indicator_value",
			Help: "Latest indicator value per pair, once warmed up",
		}, []string{"name", "pair"}),

		Equity: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "fxtrader_equity",
			Help: "Current account equity in quote currency",
		}),
		Drawdown: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "fxtrader_drawdown_fraction",
			Help: "Current decline from peak equity as a fraction",
		}),
		OpenPosCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "fxtrader_open_positions",
			Help: "Number of currently open positions",
		}),
		TradingHalted: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "fxtrader_trading_halted",
			Help: "1 while the drawdown halt is active, else 0",
		}),
	}

	prometheus.MustRegister(
		m.TicksTotal, m.DroppedTicks, m.Reconnects, m.BarsTotal, m.GapBarsTotal,
		m.SignalsTotal, m.OrdersTotal, m.RejectedOrders, m.SlippagePips,
		m.IndicatorValues,
		m.Equity, m.Drawdown, m.OpenPosCount, m.TradingHalted,
	)
	return m
}

// Server exposes /metrics and /healthz.
type Server struct {
	srv *http.Server
	log *slog.Logger
}

// NewServer builds the metrics HTTP server.
func NewServer(addr string, log *slog.Logger) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	return &Server{
		srv: &http.Server{Addr: addr, Handler: mux},
		log: log,
	}
}

// Start launches the server in a goroutine.
func (s *Server) Start() {
	go func() {
		s.log.Info("metrics server listening", "addr", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != http.ErrServerClosed {
			s.log.Error("metrics server failed", "err", err)
		}
	}()
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) {
	s.srv.Shutdown(ctx)
}
