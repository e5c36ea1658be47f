package agg

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fxtrader/internal/logger"
	"fxtrader/internal/model"
)

func tick(pair model.Pair, mid float64, vol int64, ts time.Time) model.Tick {
	// Symmetric 1-pip spread around mid.
	half := pair.PipSize() / 2
	return model.Tick{Pair: pair, Bid: mid - half, Ask: mid + half, Volume: vol, TS: ts}
}

func drain(ch chan model.Bar) []model.Bar {
	var bars []model.Bar
	for {
		select {
		case b := <-ch:
			bars = append(bars, b)
		default:
			return bars
		}
	}
}

func TestAggregatorBasicBar(t *testing.T) {
	agg := New(time.Minute, logger.Init("test", 0))
	barCh := make(chan model.Bar, 16)

	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	agg.OnTick(tick(model.USDJPY, 150.00, 10, base), barCh)
	agg.OnTick(tick(model.USDJPY, 150.25, 20, base.Add(15*time.Second)), barCh)
	agg.OnTick(tick(model.USDJPY, 149.80, 5, base.Add(40*time.Second)), barCh)

	// Next interval finalizes the previous bucket.
	agg.OnTick(tick(model.USDJPY, 150.10, 15, base.Add(time.Minute)), barCh)

	bars := drain(barCh)
	require.Len(t, bars, 1)

	b := bars[0]
	assert.Equal(t, model.USDJPY, b.Pair)
	assert.Equal(t, base, b.OpenTime)
	assert.InDelta(t, 150.00, b.Open, 1e-9)
	assert.InDelta(t, 150.25, b.High, 1e-9)
	assert.InDelta(t, 149.80, b.Low, 1e-9)
	assert.InDelta(t, 149.80, b.Close, 1e-9)
	assert.Equal(t, int64(35), b.Volume)
	assert.False(t, b.Partial)
}

func TestAggregatorGapFillForward(t *testing.T) {
	agg := New(time.Minute, logger.Init("test", 0))
	barCh := make(chan model.Bar, 16)

	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	agg.OnTick(tick(model.EURUSD, 1.0850, 1, base), barCh)
	// Next tick lands three intervals later; the two empty intervals
	// must be filled with the previous close and zero volume.
	agg.OnTick(tick(model.EURUSD, 1.0860, 1, base.Add(3*time.Minute)), barCh)

	bars := drain(barCh)
	require.Len(t, bars, 3)

	assert.InDelta(t, 1.0850, bars[0].Close, 1e-9)
	for i, gap := range bars[1:] {
		assert.Equal(t, base.Add(time.Duration(i+1)*time.Minute), gap.OpenTime)
		assert.InDelta(t, 1.0850, gap.Open, 1e-9)
		assert.InDelta(t, 1.0850, gap.High, 1e-9)
		assert.InDelta(t, 1.0850, gap.Low, 1e-9)
		assert.InDelta(t, 1.0850, gap.Close, 1e-9)
		assert.Zero(t, gap.Volume)
	}
}

func TestAggregatorDropsOutOfOrderTick(t *testing.T) {
	agg := New(time.Minute, logger.Init("test", 0))
	dropped := 0
	agg.OnDroppedTick = func() { dropped++ }
	barCh := make(chan model.Bar, 16)

	base := time.Date(2026, 3, 2, 9, 0, 30, 0, time.UTC)

	agg.OnTick(tick(model.USDJPY, 150.00, 1, base), barCh)
	agg.OnTick(tick(model.USDJPY, 149.00, 1, base.Add(-5*time.Second)), barCh)
	agg.OnTick(tick(model.USDJPY, 150.50, 1, base.Add(time.Minute)), barCh)

	require.Equal(t, 1, dropped)
	bars := drain(barCh)
	require.Len(t, bars, 1)
	// The late tick must not have touched the bar.
	assert.InDelta(t, 150.00, bars[0].Low, 1e-9)
}

func TestAggregatorDropsDuplicateTimestampTick(t *testing.T) {
	agg := New(time.Minute, logger.Init("test", 0))
	dropped := 0
	agg.OnDroppedTick = func() { dropped++ }
	barCh := make(chan model.Bar, 16)

	base := time.Date(2026, 3, 2, 9, 0, 30, 0, time.UTC)

	agg.OnTick(tick(model.USDJPY, 150.00, 10, base), barCh)
	agg.OnTick(tick(model.USDJPY, 150.00, 10, base), barCh) // replayed
	agg.OnTick(tick(model.USDJPY, 150.10, 5, base.Add(time.Minute)), barCh)

	require.Equal(t, 1, dropped)
	bars := drain(barCh)
	require.Len(t, bars, 1)
	assert.Equal(t, int64(10), bars[0].Volume, "replayed volume must not double count")
}

func TestAggregatorBackpressuresFinalizedBars(t *testing.T) {
	agg := New(time.Minute, logger.Init("test", 0))
	// Capacity one: a slow consumer must stall the producer, never
	// punch holes in the bar sequence.
	barCh := make(chan model.Bar, 1)

	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 4; i++ {
			agg.OnTick(tick(model.USDJPY, 150.00+float64(i)*0.01, 1, base.Add(time.Duration(i)*time.Minute)), barCh)
		}
	}()

	var bars []model.Bar
	for len(bars) < 3 {
		bars = append(bars, <-barCh)
	}
	<-done

	for i, b := range bars {
		assert.Equal(t, base.Add(time.Duration(i)*time.Minute), b.OpenTime)
		assert.False(t, b.Partial)
	}
}

func TestAggregatorMultiplePairs(t *testing.T) {
	agg := New(time.Minute, logger.Init("test", 0))
	barCh := make(chan model.Bar, 16)

	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	agg.OnTick(tick(model.USDJPY, 150.00, 1, base), barCh)
	agg.OnTick(tick(model.EURUSD, 1.0850, 1, base.Add(time.Second)), barCh)
	agg.OnTick(tick(model.USDJPY, 150.10, 1, base.Add(time.Minute)), barCh)
	agg.OnTick(tick(model.EURUSD, 1.0855, 1, base.Add(time.Minute)), barCh)

	bars := drain(barCh)
	require.Len(t, bars, 2)
	pairs := map[model.Pair]bool{}
	for _, b := range bars {
		pairs[b.Pair] = true
	}
	assert.True(t, pairs[model.USDJPY])
	assert.True(t, pairs[model.EURUSD])
}

func TestAggregatorRunFlushesPartialOnCancel(t *testing.T) {
	agg := New(time.Minute, logger.Init("test", 0))
	tickCh := make(chan model.Tick, 16)
	barCh := make(chan model.Bar, 16)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		agg.Run(ctx, tickCh, barCh)
		close(done)
	}()

	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	tickCh <- tick(model.USDJPY, 150.00, 7, base)

	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done

	bars := drain(barCh)
	require.Len(t, bars, 1)
	assert.True(t, bars[0].Partial)
	assert.Equal(t, int64(7), bars[0].Volume)
}
