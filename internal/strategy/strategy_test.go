package strategy

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fxtrader/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func bar(pair model.Pair, close float64, i int) model.Bar {
	return model.Bar{
		Pair:     pair,
		Interval: time.Minute,
		OpenTime: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC).Add(time.Duration(i) * time.Minute),
		Open:     close,
		High:     close + 0.05,
		Low:      close - 0.05,
		Close:    close,
		Volume:   100,
	}
}

func TestRSIReversionLongAfterCrash(t *testing.T) {
	s := NewRSIReversion(14, 30, 70)

	// A calm drift followed by a sharp drop pins RSI deep oversold.
	var sig *model.Signal
	for i := 0; i < 50; i++ {
		price := 100 + float64(i%2)*0.01
		sig = s.OnBar(bar(model.USDJPY, price, i))
	}
	sig = s.OnBar(bar(model.USDJPY, 95, 50))

	require.NotNil(t, sig)
	assert.Equal(t, model.Long, sig.Direction)
	assert.Equal(t, "rsi_reversion", sig.StrategyID)
	assert.Greater(t, sig.Strength, 0.0)
	assert.LessOrEqual(t, sig.Strength, 1.0)
	assert.Less(t, sig.StopLoss, sig.EntryPrice, "long stop sits below entry")
	assert.Greater(t, sig.TakeProfit, sig.EntryPrice)
}

func TestMACrossGoldenCross(t *testing.T) {
	s := NewMACross(5, 10)

	var got *model.Signal
	i := 0
	feed := func(price float64) {
		if sig := s.OnBar(bar(model.EURUSD, price, i)); sig != nil {
			got = sig
		}
		i++
	}

	// Downtrend to set fast below slow, then a reversal to cross back up.
	for p := 1.20; p > 1.10; p -= 0.002 {
		feed(p)
	}
	for p := 1.10; p < 1.20; p += 0.004 {
		feed(p)
	}

	require.NotNil(t, got, "reversal must produce a crossover signal")
	assert.Equal(t, model.Long, got.Direction)
	assert.Less(t, got.StopLoss, got.EntryPrice)
}

func TestBollingerBounceFadesBreak(t *testing.T) {
	s := NewBollingerBounce(20, 2.0)

	for i := 0; i < 40; i++ {
		price := 150 + float64(i%5)*0.02
		s.OnBar(bar(model.USDJPY, price, i))
	}
	sig := s.OnBar(bar(model.USDJPY, 148.5, 40))

	require.NotNil(t, sig)
	assert.Equal(t, model.Long, sig.Direction)
	assert.GreaterOrEqual(t, sig.Strength, 0.5)
	assert.Greater(t, sig.TakeProfit, sig.EntryPrice, "target is the middle band")
}

func TestTrendFollowingQuietMarketIsSilent(t *testing.T) {
	s := NewTrendFollowing(14, 25, 20)

	for i := 0; i < 120; i++ {
		// Tight oscillation, no sustained direction.
		price := 150 + float64(i%2)*0.01
		sig := s.OnBar(bar(model.USDJPY, price, i))
		assert.Nil(t, sig)
	}
}

func TestTrendFollowingRidesTrend(t *testing.T) {
	s := NewTrendFollowing(14, 25, 20)

	var got *model.Signal
	for i := 0; i < 120; i++ {
		price := 150 + float64(i)*0.1
		if sig := s.OnBar(bar(model.USDJPY, price, i)); sig != nil {
			got = sig
		}
	}
	require.NotNil(t, got)
	assert.Equal(t, model.Long, got.Direction)
	assert.GreaterOrEqual(t, got.Strength, 0.5)
}

// stub emits a fixed signal every bar.
type stub struct {
	id        string
	direction model.Direction
	strength  float64
}

func (s stub) Name() string { return s.id }
func (s stub) OnBar(b model.Bar) *model.Signal {
	if s.direction == model.Flat {
		return nil
	}
	return &model.Signal{
		StrategyID: s.id,
		Pair:       b.Pair,
		Direction:  s.direction,
		Strength:   s.strength,
		EntryPrice: b.Close,
		StopLoss:   b.Close - 1,
		TakeProfit: b.Close + 2,
	}
}

func TestCombinerWeightedVote(t *testing.T) {
	c := NewCombiner(nil, 0.3)
	b := bar(model.USDJPY, 150, 0)

	votes := []model.Signal{
		*stub{"a", model.Long, 0.8}.OnBar(b),
		*stub{"b", model.Long, 0.6}.OnBar(b),
		*stub{"c", model.Short, 0.2}.OnBar(b),
	}
	sig := c.Fuse(b, votes)

	require.NotNil(t, sig)
	assert.Equal(t, model.Long, sig.Direction)
	assert.Equal(t, "combined", sig.StrategyID)
	// Long carries 1.4 of 1.6 total weight.
	assert.InDelta(t, 1.4/1.6, sig.Strength, 1e-9)
	assert.Contains(t, sig.Rationale, "a:")
	assert.Contains(t, sig.Rationale, "b:")
	assert.NotContains(t, sig.Rationale, "c:")
}

func TestCombinerTiedVoteIsSuppressed(t *testing.T) {
	c := NewCombiner(nil, 0.0)
	b := bar(model.USDJPY, 150, 0)

	votes := []model.Signal{
		*stub{"a", model.Long, 0.5}.OnBar(b),
		*stub{"b", model.Short, 0.5}.OnBar(b),
	}
	assert.Nil(t, c.Fuse(b, votes))
}

func TestCombinerThreshold(t *testing.T) {
	c := NewCombiner(nil, 0.9)
	b := bar(model.USDJPY, 150, 0)

	votes := []model.Signal{
		*stub{"a", model.Long, 0.6}.OnBar(b),
		*stub{"b", model.Short, 0.4}.OnBar(b),
	}
	// Long share is 0.6, below the 0.9 threshold.
	assert.Nil(t, c.Fuse(b, votes))
}

func TestCombinerRespectsConfiguredWeights(t *testing.T) {
	c := NewCombiner(map[string]float64{"heavy": 3.0}, 0.3)
	b := bar(model.USDJPY, 150, 0)

	votes := []model.Signal{
		*stub{"heavy", model.Short, 0.5}.OnBar(b),
		*stub{"light", model.Long, 0.9}.OnBar(b),
	}
	sig := c.Fuse(b, votes)
	require.NotNil(t, sig)
	assert.Equal(t, model.Short, sig.Direction, "weight 3.0 outvotes a stronger but lighter member")
}

func TestEnginePerPairIsolation(t *testing.T) {
	logr := discardLogger()
	eng := NewEngine(NewCombiner(nil, 0.0), logr, func() Strategy {
		return NewMACross(3, 5)
	})

	// Drive one pair to a crossover; the other pair stays warm-up only.
	var jpySignal *model.Signal
	for i := 0; i < 30; i++ {
		p := 150 - float64(i)*0.2
		if i > 15 {
			p = 147 + float64(i-15)*0.4
		}
		if sig := eng.OnBar(bar(model.USDJPY, p, i)); sig != nil {
			jpySignal = sig
		}
	}
	require.NotNil(t, jpySignal)

	assert.Nil(t, eng.OnBar(bar(model.EURUSD, 1.10, 0)), "fresh pair starts with fresh state")
}
