package indicator

import (
	"fmt"
	"math"

	"fxtrader/internal/model"
	"fxtrader/internal/ringbuf"
)

// Bollinger calculates Bollinger Bands: an SMA middle band with upper
// and lower bands at k standard deviations. The deviation is computed
// over the held window each update; a sum-of-squares shortcut cancels
// catastrophically on near-constant series.
type Bollinger struct {
	period int
	k      float64
	window *ringbuf.Window[float64]

	mid, upper, lower float64
}

// NewBollinger creates Bollinger Bands with the given period and
// standard deviation multiple (typically 20 and 2.0).
func NewBollinger(period int, k float64) *Bollinger {
	return &Bollinger{
		period: period,
		k:      k,
		window: ringbuf.NewWindow[float64](period),
	}
}

func (b *Bollinger) Name() string { return fmt.Sprintf("BB_%d", b.period) }

func (b *Bollinger) Update(bar model.Bar) {
	b.window.Append(bar.Close)
	if !b.window.Full() {
		return
	}

	n := float64(b.period)
	sum := 0.0
	b.window.Do(func(v float64) { sum += v })
	b.mid = sum / n

	var ss float64
	b.window.Do(func(v float64) {
		d := v - b.mid
		ss += d * d
	})
	sd := math.Sqrt(ss / n)
	b.upper = b.mid + b.k*sd
	b.lower = b.mid - b.k*sd
}

// Value returns the middle band.
func (b *Bollinger) Value() float64 { return b.mid }

// Upper returns the upper band.
func (b *Bollinger) Upper() float64 { return b.upper }

// Lower returns the lower band.
func (b *Bollinger) Lower() float64 { return b.lower }

// Width returns the band width relative to the middle band.
func (b *Bollinger) Width() float64 {
	if b.mid == 0 {
		return 0
	}
	return (b.upper - b.lower) / b.mid
}

func (b *Bollinger) Ready() bool { return b.window.Full() }
