package paper

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fxtrader/internal/model"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func collect(t *testing.T, cfg Config, n int) []model.Tick {
	t.Helper()
	src := New(cfg, testLogger())
	tickCh := make(chan model.Tick, n)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- src.Run(ctx, tickCh) }()

	ticks := make([]model.Tick, 0, n)
	for len(ticks) < n {
		select {
		case tk := <-tickCh:
			ticks = append(ticks, tk)
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for synthetic ticks")
		}
	}
	cancel()
	require.NoError(t, <-done)
	return ticks
}

func TestSourceSameSeedSamePrices(t *testing.T) {
	cfg := Config{
		SeedPrices: map[model.Pair]float64{model.USDJPY: 150.0},
		Cadence:    time.Millisecond,
		Seed:       42,
	}
	a := collect(t, cfg, 50)
	b := collect(t, cfg, 50)

	for i := range a {
		assert.Equal(t, a[i].Bid, b[i].Bid, "tick %d diverged", i)
		assert.Equal(t, a[i].Ask, b[i].Ask, "tick %d diverged", i)
	}
}

func TestSourceQuotesAreWellFormed(t *testing.T) {
	cfg := Config{
		SeedPrices: map[model.Pair]float64{
			model.USDJPY: 150.0,
			model.EURUSD: 1.085,
		},
		Cadence: time.Millisecond,
		Seed:    7,
	}
	ticks := collect(t, cfg, 200)

	last := map[model.Pair]time.Time{}
	for _, tk := range ticks {
		require.Greater(t, tk.Ask, tk.Bid, "spread must be positive")
		assert.InDelta(t, 1.0, tk.Spread(), 1e-6, "one pip wide")
		assert.Positive(t, tk.Volume)
		if prev, ok := last[tk.Pair]; ok {
			assert.False(t, tk.TS.Before(prev), "timestamps must not go backwards")
		}
		last[tk.Pair] = tk.TS

		// The walk stays in a sane band around its seed price.
		switch tk.Pair {
		case model.USDJPY:
			assert.InDelta(t, 150.0, tk.Mid(), 1.0)
		case model.EURUSD:
			assert.InDelta(t, 1.085, tk.Mid(), 0.01)
		}
	}
}
