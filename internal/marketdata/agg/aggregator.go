// Package agg builds fixed-interval OHLCV bars from a stream of ticks.
package agg

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"fxtrader/internal/model"
)

// barState holds the in-progress bar for one pair in the current bucket.
type barState struct {
	bucket time.Time // truncated open time of this bucket
	bar    model.Bar
}

// Aggregator builds interval bars from mid-price ticks. One aggregator
// handles any number of pairs; bar state is keyed per pair. It runs in a
// single goroutine and emits finalized bars when the interval rolls over.
//
// Quiet intervals with no ticks are filled forward: a synthetic bar is
// emitted with OHLC pinned to the previous close and zero volume, so
// indicator windows always advance one step per interval.
type Aggregator struct {
	mu       sync.Mutex
	interval time.Duration
	states   map[model.Pair]*barState
	lastTS   map[model.Pair]time.Time

	log *slog.Logger

	// Metrics hooks (optional, set externally).
	OnDroppedTick func()
	OnGapFill     func()
}

// New creates an Aggregator producing bars of the given interval.
func New(interval time.Duration, log *slog.Logger) *Aggregator {
	return &Aggregator{
		interval: interval,
		states:   make(map[model.Pair]*barState),
		lastTS:   make(map[model.Pair]time.Time),
		log:      log,
	}
}

// Interval returns the bar interval.
func (a *Aggregator) Interval() time.Duration { return a.interval }

// Run consumes ticks from tickCh, aggregates into bars and sends
// finalized bars to barCh. Blocks until ctx is cancelled or tickCh is
// closed; any in-progress bars are flushed as partial on the way out.
func (a *Aggregator) Run(ctx context.Context, tickCh <-chan model.Tick, barCh chan<- model.Bar) {
	for {
		select {
		case <-ctx.Done():
			a.Flush(barCh)
			return

		case tick, ok := <-tickCh:
			if !ok {
				a.Flush(barCh)
				return
			}
			a.OnTick(tick, barCh)
		}
	}
}

// OnTick incorporates a single tick, emitting any bars it finalizes.
// Exposed so the backtester can drive the aggregator synchronously.
func (a *Aggregator) OnTick(tick model.Tick, barCh chan<- model.Bar) {
	a.mu.Lock()
	defer a.mu.Unlock()

	// Ticks at or before the last accepted timestamp are dropped; bar
	// history must stay ordered and duplicates must not double count.
	if last, ok := a.lastTS[tick.Pair]; ok && !tick.TS.After(last) {
		a.log.Warn("dropping out-of-order tick",
			"pair", tick.Pair, "ts", tick.TS, "last", last)
		if a.OnDroppedTick != nil {
			a.OnDroppedTick()
		}
		return
	}
	a.lastTS[tick.Pair] = tick.TS

	bucket := tick.TS.Truncate(a.interval)
	price := tick.Mid()
	state, exists := a.states[tick.Pair]

	if exists && bucket.After(state.bucket) {
		// New bucket. Finalize the old bar, then fill any empty
		// intervals between it and the tick's bucket.
		prevClose := state.bar.Close
		a.emit(state.bar, barCh)
		for open := state.bucket.Add(a.interval); open.Before(bucket); open = open.Add(a.interval) {
			a.emit(model.Bar{
				Pair:     tick.Pair,
				Interval: a.interval,
				OpenTime: open,
				Open:     prevClose,
				High:     prevClose,
				Low:      prevClose,
				Close:    prevClose,
			}, barCh)
			if a.OnGapFill != nil {
				a.OnGapFill()
			}
		}
		delete(a.states, tick.Pair)
		exists = false
	}

	if !exists {
		a.states[tick.Pair] = &barState{
			bucket: bucket,
			bar: model.Bar{
				Pair:     tick.Pair,
				Interval: a.interval,
				OpenTime: bucket,
				Open:     price,
				High:     price,
				Low:      price,
				Close:    price,
				Volume:   tick.Volume,
			},
		}
		return
	}

	b := &state.bar
	if price > b.High {
		b.High = price
	}
	if price < b.Low {
		b.Low = price
	}
	b.Close = price
	b.Volume += tick.Volume
}

// Flush emits all in-progress bars marked partial. Used on shutdown so
// the last incomplete interval is not silently lost.
func (a *Aggregator) Flush(barCh chan<- model.Bar) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for pair, state := range a.states {
		state.bar.Partial = true
		a.emit(state.bar, barCh)
		delete(a.states, pair)
	}
}

// emit blocks until the bar is accepted. Backpressure propagates to the
// bounded tick queue upstream; finalized bars are never dropped, the
// per-pair sequence must stay gap free.
func (a *Aggregator) emit(bar model.Bar, barCh chan<- model.Bar) {
	barCh <- bar
}
