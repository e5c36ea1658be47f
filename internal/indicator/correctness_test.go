package indicator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fxtrader/internal/model"
)

func closeBar(close float64) model.Bar {
	return model.Bar{Pair: model.EURUSD, Open: close, High: close, Low: close, Close: close, Volume: 1}
}

func ohlcBar(high, low, close float64, vol int64) model.Bar {
	return model.Bar{Pair: model.EURUSD, Open: close, High: high, Low: low, Close: close, Volume: vol}
}

func feedCloses(ind Indicator, closes ...float64) {
	for _, c := range closes {
		ind.Update(closeBar(c))
	}
}

func TestSMARollingWindow(t *testing.T) {
	sma := NewSMA(3)

	feedCloses(sma, 1, 2)
	assert.False(t, sma.Ready(), "needs a full window")

	sma.Update(closeBar(3))
	require.True(t, sma.Ready())
	assert.InDelta(t, 2.0, sma.Value(), 1e-9)

	// Window slides: (2+3+7)/3
	sma.Update(closeBar(7))
	assert.InDelta(t, 4.0, sma.Value(), 1e-9)
}

func TestSMAConstantSeries(t *testing.T) {
	sma := NewSMA(10)
	for i := 0; i < 50; i++ {
		sma.Update(closeBar(1.25))
	}
	assert.InDelta(t, 1.25, sma.Value(), 1e-9)
}

func TestEMASeedAndConvergence(t *testing.T) {
	ema := NewEMA(5)
	feedCloses(ema, 10, 10, 10, 10, 10)
	require.True(t, ema.Ready())
	assert.InDelta(t, 10.0, ema.Value(), 1e-9, "SMA seed of constant series")

	// Step input: EMA moves toward 20 but stays between old and new.
	ema.Update(closeBar(20))
	assert.Greater(t, ema.Value(), 10.0)
	assert.Less(t, ema.Value(), 20.0)

	for i := 0; i < 200; i++ {
		ema.Update(closeBar(20))
	}
	assert.InDelta(t, 20.0, ema.Value(), 1e-6, "converges to the new level")
}

func TestWMAWeightsRecent(t *testing.T) {
	wma := NewWMA(3)
	feedCloses(wma, 1, 2, 3)
	require.True(t, wma.Ready())
	// (1*1 + 2*2 + 3*3) / 6
	assert.InDelta(t, 14.0/6.0, wma.Value(), 1e-9)
}

func TestRSIBounds(t *testing.T) {
	rsi := NewRSI(14)
	for i := 0; i < 100; i++ {
		rsi.Update(closeBar(100 + float64(i)))
	}
	require.True(t, rsi.Ready())
	assert.InDelta(t, 100.0, rsi.Value(), 1e-9, "monotonic gains pin RSI at 100")

	rsi = NewRSI(14)
	for i := 0; i < 100; i++ {
		rsi.Update(closeBar(200 - float64(i)))
	}
	assert.InDelta(t, 0.0, rsi.Value(), 1e-9, "monotonic losses pin RSI at 0")
}

func TestRSIMidOnAlternation(t *testing.T) {
	rsi := NewRSI(14)
	price := 100.0
	for i := 0; i < 100; i++ {
		if i%2 == 0 {
			price += 1
		} else {
			price -= 1
		}
		rsi.Update(closeBar(price))
	}
	assert.InDelta(t, 50.0, rsi.Value(), 5.0, "equal gains and losses sit near 50")
}

func TestMACDTracksTrend(t *testing.T) {
	macd := NewMACD(12, 26, 9)
	for i := 0; i < 60; i++ {
		macd.Update(closeBar(100 + float64(i)*0.5))
	}
	require.True(t, macd.Ready())
	assert.Greater(t, macd.Value(), 0.0, "uptrend keeps fast EMA above slow")
	assert.InDelta(t, macd.Value()-macd.Signal(), macd.Histogram(), 1e-12)
}

func TestATRConstantRange(t *testing.T) {
	atr := NewATR(14)
	for i := 0; i < 30; i++ {
		atr.Update(ohlcBar(101, 100, 100.5, 1))
	}
	require.True(t, atr.Ready())
	assert.InDelta(t, 1.0, atr.Value(), 1e-6)
}

func TestBollingerConstantSeries(t *testing.T) {
	bb := NewBollinger(20, 2.0)
	for i := 0; i < 25; i++ {
		bb.Update(closeBar(1.10))
	}
	require.True(t, bb.Ready())
	assert.InDelta(t, 1.10, bb.Value(), 1e-9)
	assert.InDelta(t, 1.10, bb.Upper(), 1e-9)
	assert.InDelta(t, 1.10, bb.Lower(), 1e-9)
	assert.InDelta(t, 0.0, bb.Width(), 1e-9)
}

func TestBollingerBandsOrder(t *testing.T) {
	bb := NewBollinger(20, 2.0)
	for i := 0; i < 40; i++ {
		bb.Update(closeBar(100 + float64(i%7)))
	}
	require.True(t, bb.Ready())
	assert.Greater(t, bb.Upper(), bb.Value())
	assert.Less(t, bb.Lower(), bb.Value())
}

func TestADXRisingTrend(t *testing.T) {
	adx := NewADX(14)
	for i := 0; i < 80; i++ {
		p := 100 + float64(i)
		adx.Update(ohlcBar(p+0.5, p-0.5, p, 1))
	}
	require.True(t, adx.Ready())
	assert.Greater(t, adx.PlusDI(), adx.MinusDI())
	assert.Greater(t, adx.Value(), 25.0, "sustained trend reads as strong")
}

func TestStochasticAtExtremes(t *testing.T) {
	st := NewStochastic(14, 3)
	for i := 0; i < 30; i++ {
		p := 100 + float64(i)
		st.Update(ohlcBar(p, p-1, p, 1))
	}
	require.True(t, st.Ready())
	assert.Greater(t, st.Value(), 90.0, "closes at window highs")
	assert.GreaterOrEqual(t, st.D(), 0.0)
	assert.LessOrEqual(t, st.D(), 100.0)
}

func TestWilliamsRAtHigh(t *testing.T) {
	wr := NewWilliamsR(14)
	for i := 0; i < 20; i++ {
		p := 100 + float64(i)
		wr.Update(ohlcBar(p, p-1, p, 1))
	}
	require.True(t, wr.Ready())
	assert.Greater(t, wr.Value(), -10.0)
	assert.LessOrEqual(t, wr.Value(), 0.0)
}

func TestCCIFlatSeries(t *testing.T) {
	cci := NewCCI(20)
	for i := 0; i < 25; i++ {
		cci.Update(ohlcBar(100, 100, 100, 1))
	}
	require.True(t, cci.Ready())
	assert.InDelta(t, 0.0, cci.Value(), 1e-9)
}

func TestOBVSignsVolume(t *testing.T) {
	obv := NewOBV()
	obv.Update(ohlcBar(100, 99, 100, 10))
	obv.Update(ohlcBar(101, 100, 101, 5)) // up: +5
	obv.Update(ohlcBar(101, 99, 100, 3))  // down: -3
	obv.Update(ohlcBar(100, 99, 100, 7))  // flat: 0
	require.True(t, obv.Ready())
	assert.InDelta(t, 2.0, obv.Value(), 1e-9)
}

func TestVWAPResetsDaily(t *testing.T) {
	vwap := NewVWAP()
	day1 := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	day2 := day1.Add(24 * time.Hour)

	b := ohlcBar(100, 100, 100, 10)
	b.OpenTime = day1
	vwap.Update(b)
	require.True(t, vwap.Ready())
	assert.InDelta(t, 100.0, vwap.Value(), 1e-9)

	b = ohlcBar(200, 200, 200, 10)
	b.OpenTime = day2
	vwap.Update(b)
	assert.InDelta(t, 200.0, vwap.Value(), 1e-9, "previous day's volume discarded")
}

func TestEngineProcessPerPair(t *testing.T) {
	eng := NewEngine([]Config{{Type: "SMA", Period: 3}, {Type: "RSI", Period: 14}})

	var last []Result
	for i := 0; i < 5; i++ {
		bar := closeBar(1.10 + float64(i)*0.001)
		bar.Pair = model.USDJPY
		last = eng.Process(bar)
	}
	require.Len(t, last, 2)
	assert.Equal(t, "SMA_3", last[0].Name)
	assert.True(t, last[0].Ready)
	assert.Equal(t, "RSI_14", last[1].Name)
	assert.False(t, last[1].Ready, "RSI needs more bars")

	// A second pair gets independent state.
	bar := closeBar(150)
	bar.Pair = model.EURJPY
	fresh := eng.Process(bar)
	assert.False(t, fresh[0].Ready)
}
