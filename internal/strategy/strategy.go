// Package strategy provides the signal engine for running trading
// strategies.
//
// A Strategy receives finalized bars for one pair and emits directional
// signals with a confidence in [0, 1]. The Engine manages per-pair
// strategy instances, fuses member signals through a weighted vote and
// publishes the result. Strategies never size or place orders; that is
// the risk layer's job.
package strategy

import (
	"context"
	"log/slog"

	"fxtrader/internal/model"
)

// Strategy is the interface all trading strategies implement. An
// instance tracks exactly one pair; the engine creates one per pair.
type Strategy interface {
	// Name returns the unique strategy identifier (e.g. "ma_cross").
	Name() string

	// OnBar is called for each finalized bar. Returns a signal when the
	// strategy wants to act, or nil to skip. Strategies that have not
	// seen their warmup window return nil, never an error.
	OnBar(bar model.Bar) *model.Signal
}

// Factory creates a fresh strategy instance for one pair.
type Factory func() Strategy

// Engine routes bars to per-pair strategy sets and fuses their signals.
// Single goroutine, no locks.
type Engine struct {
	factories []Factory
	combiner  *Combiner
	state     map[model.Pair][]Strategy
	signalCh  chan model.Signal
	log       *slog.Logger
}

// NewEngine creates a strategy engine. Each registered factory is
// instantiated once per pair on first sight of that pair's bars.
func NewEngine(combiner *Combiner, log *slog.Logger, factories ...Factory) *Engine {
	return &Engine{
		factories: factories,
		combiner:  combiner,
		state:     make(map[model.Pair][]Strategy),
		signalCh:  make(chan model.Signal, 64),
		log:       log,
	}
}

// Signals returns the channel of fused signals.
func (e *Engine) Signals() <-chan model.Signal {
	return e.signalCh
}

// OnBar feeds one finalized bar through all member strategies for its
// pair and returns the fused signal, or nil when members disagree or
// confidence is below threshold. Exposed for the backtester.
func (e *Engine) OnBar(bar model.Bar) *model.Signal {
	members, ok := e.state[bar.Pair]
	if !ok {
		members = make([]Strategy, len(e.factories))
		for i, f := range e.factories {
			members[i] = f()
		}
		e.state[bar.Pair] = members
	}

	var votes []model.Signal
	for _, s := range members {
		if sig := s.OnBar(bar); sig != nil {
			votes = append(votes, *sig)
		}
	}
	return e.combiner.Fuse(bar, votes)
}

// Run consumes finalized bars and emits fused signals. Partial bars are
// skipped; strategy state only advances on closed intervals. Blocks
// until ctx is cancelled or barCh closes.
func (e *Engine) Run(ctx context.Context, barCh <-chan model.Bar) {
	defer close(e.signalCh)
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
			sig := e.OnBar(bar)
			if sig == nil {
				continue
			}
			e.log.Info("signal",
				"pair", sig.Pair,
				"direction", sig.Direction,
				"strength", sig.Strength,
				"rationale", sig.Rationale)
			select {
			case e.signalCh <- *sig:
			case <-ctx.Done():
				return
			}
		}
	}
}
