// cmd/trader runs the trading engine: stream ingest, bar aggregation,
// strategy evaluation, risk management and order execution, in paper
// or live mode depending on configuration.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"fxtrader/config"
	"fxtrader/internal/broker"
	"fxtrader/internal/events"
	"fxtrader/internal/execution"
	"fxtrader/internal/indicator"
	"fxtrader/internal/logger"
	"fxtrader/internal/marketdata"
	"fxtrader/internal/marketdata/agg"
	"fxtrader/internal/marketdata/paper"
	"fxtrader/internal/marketdata/stream"
	"fxtrader/internal/markethours"
	"fxtrader/internal/metrics"
	"fxtrader/internal/model"
	"fxtrader/internal/risk"
	sqlitestore "fxtrader/internal/store/sqlite"
	"fxtrader/internal/strategy"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config (defaults apply when empty)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log := logger.Init("trader", logger.ParseLevel(cfg.App.LogLevel))
	log.Info("starting", "mode", cfg.Execution.Mode, "pairs", cfg.Stream.Pairs, "interval", cfg.Bars.Interval)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	prom := metrics.New()
	metricsSrv := metrics.NewServer(cfg.App.MetricsAddr, log)
	metricsSrv.Start()
	defer func() {
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		metricsSrv.Stop(shutCtx)
	}()

	// Event sinks run behind a non-blocking ring so a slow Redis or
	// webhook never stalls bar processing.
	recorder := events.NewAsync(buildRecorder(cfg, log), 1024, log)
	quotes := marketdata.NewQuoteCache()

	exec, err := buildExecutor(cfg, quotes, log)
	if err != nil {
		log.Error("executor init failed", "err", err)
		os.Exit(1)
	}

	mgr := risk.NewManager(riskParams(cfg), decimal.NewFromFloat(cfg.Risk.InitialEquity), exec, log)
	mgr.OnTrade = func(fill model.Fill, pnl decimal.Decimal, reason string) {
		prom.OrdersTotal.WithLabelValues(string(fill.Side)).Inc()
		prom.SlippagePips.Observe(fill.Slippage)
		// Trade records must survive shutdown cancellation.
		recorder.Record(context.Background(), events.Event{
			Type: events.TypeTrade, TS: fill.TS, Pair: fill.Pair,
			Message: "position closed: " + reason,
			Fill:    &fill, PnL: pnl.StringFixed(2),
		})
	}

	combiner := strategy.NewCombiner(cfg.Strategy.Weights, cfg.Strategy.MinConfidence)
	strat := strategy.NewEngine(combiner, log, strategyFactories(cfg)...)
	indicators := indicator.NewEngine(indicator.DefaultSet())

	aggregator := agg.New(cfg.Bars.Interval, log)
	aggregator.OnDroppedTick = prom.DroppedTicks.Inc
	aggregator.OnGapFill = prom.GapBarsTotal.Inc

	tickCh := make(chan model.Tick, cfg.Stream.QueueSize)
	aggCh := make(chan model.Tick, cfg.Stream.QueueSize)
	barCh := make(chan model.Bar, 1024)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		recorder.Run(ctx)
		return nil
	})

	// Market data feed: live websocket or synthetic paper walk.
	if cfg.Stream.URL != "" {
		gw := stream.NewGateway(
			stream.NewWSTransport(cfg.Stream.URL, cfg.Stream.HandshakeLimit),
			stream.Config{
				Pairs:       cfg.Stream.Pairs,
				BackoffBase: cfg.Stream.BackoffBase,
				BackoffMax:  cfg.Stream.BackoffMax,
				MaxAttempts: cfg.Stream.MaxAttempts,
			}, log)
		gw.OnReconnect = prom.Reconnects.Inc
		gw.OnDroppedTick = prom.DroppedTicks.Inc
		g.Go(func() error { return gw.Run(ctx, tickCh) })
	} else {
		src := paper.New(paper.Config{
			SeedPrices: seedPrices(cfg),
			Cadence:    cfg.Stream.PaperCadence,
			Seed:       cfg.Stream.PaperSeed,
		}, log)
		g.Go(func() error { return src.Run(ctx, tickCh) })
	}

	// Tick pump: quote cache and aggregation share the admitted feed.
	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case tick := <-tickCh:
				prom.TicksTotal.Inc()
				quotes.Set(tick)
				select {
				case aggCh <- tick:
				case <-ctx.Done():
					return nil
				}
			}
		}
	})

	g.Go(func() error {
		aggregator.Run(ctx, aggCh, barCh)
		return nil
	})

	// Bar persistence, off the hot path.
	var storeCh chan model.Bar
	if cfg.Bars.DBPath != "" {
		os.MkdirAll("data", 0o755)
		writer, err := sqlitestore.NewWriter(cfg.Bars.DBPath, log)
		if err != nil {
			log.Error("bar store init failed", "err", err)
			os.Exit(1)
		}
		defer writer.Close()
		storeCh = make(chan model.Bar, 1024)
		g.Go(func() error {
			writer.Run(ctx, storeCh)
			return nil
		})
	}

	// Bar consumer: exits, signals and entries in bar order.
	g.Go(func() error {
		handle := func(bar model.Bar) {
			if storeCh != nil && !bar.Partial {
				select {
				case storeCh <- bar:
				default:
				}
			}
			prom.BarsTotal.WithLabelValues(string(bar.Pair)).Inc()

			if !bar.Partial {
				for _, res := range indicators.Process(bar) {
					if res.Ready {
						prom.IndicatorValues.WithLabelValues(res.Name, string(res.Pair)).Set(res.Value)
					}
				}
			}

			if err := mgr.OnBar(ctx, bar); err != nil {
				log.Warn("bar risk pass failed", "pair", bar.Pair, "err", err)
			}

			// Strategy state only advances on closed intervals; the
			// shutdown flush emits partial bars.
			if bar.Partial {
				return
			}

			if sig := strat.OnBar(bar); sig != nil && sig.Actionable() {
				prom.SignalsTotal.WithLabelValues(sig.StrategyID, string(sig.Direction)).Inc()
				recorder.Record(ctx, events.Event{
					Type: events.TypeSignal, TS: sig.TS, Pair: sig.Pair,
					Message: "signal", Signal: sig,
				})
				if !markethours.IsMarketOpen(bar.CloseTime()) {
					log.Debug("market closed, signal skipped", "pair", sig.Pair)
				} else if err := mgr.OnSignal(ctx, *sig); err != nil {
					prom.RejectedOrders.Inc()
					log.Warn("signal not executed", "pair", sig.Pair, "err", err)
				}
			}

			acct := mgr.Account()
			eq, _ := acct.Equity.Float64()
			prom.Equity.Set(eq)
			prom.Drawdown.Set(acct.Drawdown())
			prom.OpenPosCount.Set(float64(len(acct.OpenPositions)))
			if mgr.Halted() {
				prom.TradingHalted.Set(1)
			} else {
				prom.TradingHalted.Set(0)
			}
		}

		for {
			select {
			case <-ctx.Done():
				// Drain what the aggregator flushed on shutdown.
				for {
					select {
					case bar := <-barCh:
						handle(bar)
					default:
						return nil
					}
				}
			case bar := <-barCh:
				handle(bar)
			}
		}
	})

	if err := g.Wait(); err != nil {
		log.Error("pipeline stopped", "err", err)
	}

	// Flatten before exit so no position survives the process.
	closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := mgr.CloseAll(closeCtx, "shutdown"); err != nil {
		log.Error("close all on shutdown failed", "err", err)
	}
	recorder.Record(closeCtx, events.Event{
		Type: events.TypeLifecycle, TS: time.Now().UTC(), Message: "trader stopped",
	})
	recorder.Flush(closeCtx)

	stats := mgr.Stats()
	log.Info("session summary",
		"trades", stats.Total, "win_rate", stats.WinRate,
		"pnl", stats.TotalPnL.StringFixed(2), "profit_factor", stats.ProfitFactor)
}

// buildRecorder assembles the event sinks. The structured log is
// always on; Redis and webhook sinks join when configured.
func buildRecorder(cfg *config.Config, log *slog.Logger) events.Recorder {
	sinks := events.Multi{events.NewLogRecorder(log)}
	if cfg.Events.RedisAddr != "" {
		r, err := events.NewRedisRecorder(cfg.Events.RedisAddr, cfg.Events.RedisPassword, cfg.Events.RedisStream, log)
		if err != nil {
			log.Warn("redis event sink unavailable, continuing without it", "err", err)
		} else {
			sinks = append(sinks, r)
		}
	}
	if cfg.Events.WebhookURL != "" {
		sinks = append(sinks, events.NewWebhookRecorder(cfg.Events.WebhookURL, log))
	}
	return sinks
}

// buildExecutor selects the order gateway for the configured mode.
func buildExecutor(cfg *config.Config, quotes *marketdata.QuoteCache, log *slog.Logger) (risk.Executor, error) {
	if cfg.Execution.Mode == "paper" {
		return execution.NewPaperExecutor(quotes, cfg.Execution.SlippageBps, log), nil
	}

	if cfg.Execution.APIKey == "" || cfg.Execution.APISecret == "" || cfg.Execution.TOTPSecret == "" {
		return nil, fmt.Errorf("live mode requires FX_API_KEY, FX_API_SECRET and FX_TOTP_SECRET")
	}
	session := broker.NewTOTPSession(
		cfg.Execution.BrokerURL,
		cfg.Execution.APIKey, cfg.Execution.APISecret, cfg.Execution.TOTPSecret,
		cfg.Execution.Timeout)
	api := broker.NewClient(cfg.Execution.BrokerURL, cfg.Execution.APIKey, session, cfg.Execution.Timeout)

	// Reconcile before trading: the engine assumes it is the only
	// writer of positions, so anything broker-side is surfaced loudly.
	recCtx, cancel := context.WithTimeout(context.Background(), cfg.Execution.Timeout)
	defer cancel()
	if positions, err := api.GetPositions(recCtx); err != nil {
		log.Warn("position reconciliation failed", "err", err)
	} else {
		for _, p := range positions {
			log.Warn("unmanaged broker position at startup",
				"pair", p.Pair, "side", p.Side, "qty", p.Quantity, "entry", p.EntryPrice)
		}
	}

	return execution.NewLiveExecutor(api, cfg.Execution.RateLimit, cfg.Execution.MaxRetries, log), nil
}

func riskParams(cfg *config.Config) risk.Params {
	return risk.Params{
		RiskPerTrade:     cfg.Risk.RiskPerTrade,
		MaxOpenPositions: cfg.Risk.MaxOpenPositions,
		MaxDrawdown:      cfg.Risk.MaxDrawdown,
		MaxUnits:         cfg.Risk.MaxUnits,
		LotStep:          cfg.Risk.LotStep,
		StopMode:         risk.StopMode(cfg.Risk.StopMode),
		ATRPeriod:        cfg.Risk.ATRPeriod,
		ATRMultiple:      cfg.Risk.ATRMultiple,
		FixedStopPips:    cfg.Risk.FixedStopPips,
		TrailingPips:     cfg.Risk.TrailingPips,
		RiskReward:       cfg.Risk.RiskReward,
		MaxTradesPerDay:  cfg.Risk.MaxTradesPerDay,
		CloseLevels:      risk.CloseLevelsFor(cfg.Risk.PartialCloseFrac),
	}
}

func strategyFactories(cfg *config.Config) []strategy.Factory {
	return strategy.Factories(cfg.Strategy.Enabled, strategy.Settings{
		FastPeriod:    cfg.Strategy.FastPeriod,
		SlowPeriod:    cfg.Strategy.SlowPeriod,
		RSIPeriod:     cfg.Strategy.RSIPeriod,
		RSIOversold:   cfg.Strategy.RSIOversold,
		RSIOverbought: cfg.Strategy.RSIOverbought,
		BollPeriod:    cfg.Strategy.BollPeriod,
		BollStdDev:    cfg.Strategy.BollStdDev,
		ADXPeriod:     cfg.Strategy.ADXPeriod,
		ADXThreshold:  cfg.Strategy.ADXThreshold,
		TrendMA:       cfg.Strategy.TrendMA,
	})
}

// seedPrices maps configured pairs to their synthetic starting price,
// defaulting sensibly when a pair has no seed.
func seedPrices(cfg *config.Config) map[model.Pair]float64 {
	out := make(map[model.Pair]float64, len(cfg.Stream.Pairs))
	for _, pair := range cfg.Stream.Pairs {
		if price, ok := cfg.Stream.SeedPrices[pair]; ok {
			out[pair] = price
			continue
		}
		if pair.Quote() == "JPY" {
			out[pair] = 150.0
		} else {
			out[pair] = 1.0
		}
	}
	return out
}
