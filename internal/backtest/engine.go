// Package backtest replays historical bars through the same strategy
// and risk code the live engine runs, then scores the resulting equity
// curve. Given the same bars and parameters the run is bit-for-bit
// reproducible.
package backtest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"fxtrader/internal/model"
	"fxtrader/internal/risk"
	"fxtrader/internal/strategy"
)

// Config assembles one backtest run.
type Config struct {
	InitialEquity decimal.Decimal
	Risk          risk.Params

	// SpreadPips widens fills around the bar close to simulate the
	// bid/ask spread. Zero fills exactly at the close.
	SpreadPips float64
}

// EquityPoint is one sample of the equity curve, taken at a bar close
// and including unrealized PnL.
type EquityPoint struct {
	TS     time.Time
	Equity float64
}

// Result is the outcome of one run.
type Result struct {
	Report Report
	Stats  risk.TradeStats
	Final  model.Account
	Curve  []EquityPoint
}

// barExecutor fills orders at the bar price the backtester is currently
// processing, shifted by half the configured spread against the order.
type barExecutor struct {
	price      map[model.Pair]float64
	spreadPips float64
}

func (e *barExecutor) Submit(_ context.Context, order model.Order) (model.Fill, error) {
	price, ok := e.price[order.Pair]
	if !ok {
		return model.Fill{}, fmt.Errorf("backtest: no price for %s", order.Pair)
	}
	half := e.spreadPips * order.Pair.PipSize() / 2
	if order.Side == model.Long {
		price += half
	} else {
		price -= half
	}
	return model.Fill{
		OrderID:  order.ID,
		Pair:     order.Pair,
		Side:     order.Side,
		Quantity: order.Quantity,
		Price:    price,
		TS:       order.TS,
	}, nil
}

// Engine runs one backtest over a bar series.
type Engine struct {
	cfg  Config
	log  *slog.Logger
	exec *barExecutor
}

// New creates a backtest engine.
func New(cfg Config, log *slog.Logger) *Engine {
	return &Engine{
		cfg:  cfg,
		log:  log,
		exec: &barExecutor{price: make(map[model.Pair]float64), spreadPips: cfg.SpreadPips},
	}
}

// Run replays bars in order through a fresh strategy engine and risk
// manager. Bars must be sorted by open time; strategies warm up on the
// leading bars and begin signalling once their indicators are ready.
func (e *Engine) Run(ctx context.Context, bars []model.Bar, combiner *strategy.Combiner, factories ...strategy.Factory) (*Result, error) {
	if len(bars) == 0 {
		return nil, fmt.Errorf("backtest: no bars")
	}

	strat := strategy.NewEngine(combiner, e.log, factories...)
	mgr := risk.NewManager(e.cfg.Risk, e.cfg.InitialEquity, e.exec, e.log)

	curve := make([]EquityPoint, 0, len(bars))
	lastClose := make(map[model.Pair]float64)

	for i := range bars {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		bar := bars[i]
		e.exec.price[bar.Pair] = bar.Close
		lastClose[bar.Pair] = bar.Close

		// Exits first: stops, targets and trailing act on the bar
		// before any new signal from the same bar can fire.
		if err := mgr.OnBar(ctx, bar); err != nil {
			e.log.Warn("exit handling failed", "pair", bar.Pair, "err", err)
		}

		if sig := strat.OnBar(bar); sig != nil && sig.Actionable() {
			if err := mgr.OnSignal(ctx, *sig); err != nil {
				e.log.Debug("signal not taken", "pair", sig.Pair, "err", err)
			}
		}

		curve = append(curve, EquityPoint{
			TS:     bar.CloseTime(),
			Equity: markedEquity(mgr.Account(), lastClose),
		})
	}

	// Flatten at the end of the series so the stats cover every trade.
	if err := mgr.CloseAll(ctx, "end of backtest"); err != nil {
		return nil, fmt.Errorf("backtest: close all: %w", err)
	}

	final := mgr.Account()
	eq, _ := final.Equity.Float64()
	if n := len(curve); n > 0 {
		curve[n-1].Equity = eq
	}

	barsPerYear := float64(365.25*24*time.Hour) / float64(bars[0].Interval)
	res := &Result{
		Report: ComputeReport(curve, barsPerYear),
		Stats:  mgr.Stats(),
		Final:  final,
		Curve:  curve,
	}
	res.Report.Trades = res.Stats.Total
	res.Report.WinRate = res.Stats.WinRate
	res.Report.ProfitFactor = res.Stats.ProfitFactor
	return res, nil
}

// markedEquity values the account at the latest close of each pair.
func markedEquity(acct model.Account, lastClose map[model.Pair]float64) float64 {
	eq, _ := acct.Equity.Float64()
	for pair, pos := range acct.OpenPositions {
		price, ok := lastClose[pair]
		if !ok {
			continue
		}
		diff := price - pos.EntryPrice
		if pos.Side == model.Short {
			diff = -diff
		}
		eq += diff * float64(pos.Quantity)
	}
	return eq
}
