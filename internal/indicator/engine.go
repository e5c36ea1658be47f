package indicator

import (
	"context"

	"fxtrader/internal/model"
)

// Config specifies a single indicator to compute.
type Config struct {
	Type   string // "SMA", "EMA", "WMA", "RSI", "MACD", "ADX", "BB", "ATR", "STOCH", "CCI", "WILLR", "KC", "OBV", "VWAP"
	Period int
}

// Result is one computed indicator value for one pair and bar.
type Result struct {
	Name  string
	Pair  model.Pair
	Value float64
	Ready bool
	TS    int64 // bar close time, unix seconds
}

// Engine computes a configured set of indicators per pair. Designed for
// single-goroutine usage, no locks needed. Strategies own their own
// indicator instances; the engine feeds dashboards, metrics and the
// event stream.
type Engine struct {
	configs []Config
	state   map[model.Pair][]Indicator
}

// NewEngine creates an indicator engine computing the given set for
// every pair it sees.
func NewEngine(configs []Config) *Engine {
	return &Engine{
		configs: configs,
		state:   make(map[model.Pair][]Indicator),
	}
}

// Process feeds a finalized bar to all indicators for its pair and
// returns their values. Partial bars must not be fed; indicator state
// only ever advances on closed intervals.
func (e *Engine) Process(bar model.Bar) []Result {
	inds, ok := e.state[bar.Pair]
	if !ok {
		inds = make([]Indicator, len(e.configs))
		for i, cfg := range e.configs {
			inds[i] = build(cfg)
		}
		e.state[bar.Pair] = inds
	}

	results := make([]Result, 0, len(inds))
	for _, ind := range inds {
		ind.Update(bar)
		results = append(results, Result{
			Name:  ind.Name(),
			Pair:  bar.Pair,
			Value: ind.Value(),
			Ready: ind.Ready(),
			TS:    bar.CloseTime().Unix(),
		})
	}
	return results
}

// Run consumes bars and emits indicator results. Blocks until ctx is
// done or barCh closes. Forwarded bars pass through outCh so the engine
// can sit inline in the pipeline.
func (e *Engine) Run(ctx context.Context, barCh <-chan model.Bar, resultCh chan<- Result) {
	for {
		select {
		case <-ctx.Done():
			return
		case bar, ok := <-barCh:
			if !ok {
				return
			}
			if bar.Partial {
				continue
			}
			for _, r := range e.Process(bar) {
				select {
				case resultCh <- r:
				default:
					// Metrics consumers lag, never the pipeline.
				}
			}
		}
	}
}

// build constructs an indicator from its config, falling back to SMA
// for unknown types.
func build(cfg Config) Indicator {
	switch cfg.Type {
	case "SMA":
		return NewSMA(cfg.Period)
	case "EMA":
		return NewEMA(cfg.Period)
	case "WMA":
		return NewWMA(cfg.Period)
	case "RSI":
		return NewRSI(cfg.Period)
	case "MACD":
		return NewMACD(12, 26, 9)
	case "ADX":
		return NewADX(cfg.Period)
	case "BB":
		return NewBollinger(cfg.Period, 2.0)
	case "ATR":
		return NewATR(cfg.Period)
	case "STOCH":
		return NewStochastic(cfg.Period, 3)
	case "CCI":
		return NewCCI(cfg.Period)
	case "WILLR":
		return NewWilliamsR(cfg.Period)
	case "KC":
		return NewKeltner(cfg.Period, 10, 2.0)
	case "OBV":
		return NewOBV()
	case "VWAP":
		return NewVWAP()
	default:
		return NewSMA(cfg.Period)
	}
}

// DefaultSet is the engine configuration exported to dashboards.
func DefaultSet() []Config {
	return []Config{
		{Type: "SMA", Period: 20},
		{Type: "EMA", Period: 20},
		{Type: "RSI", Period: 14},
		{Type: "MACD"},
		{Type: "ADX", Period: 14},
		{Type: "ATR", Period: 14},
		{Type: "BB", Period: 20},
		{Type: "VWAP"},
	}
}
