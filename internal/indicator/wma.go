package indicator

import (
	"fmt"

	"fxtrader/internal/model"
	"fxtrader/internal/ringbuf"
)

// WMA calculates the linearly Weighted Moving Average, where the most
// recent close carries weight N and the oldest weight 1.
type WMA struct {
	period  int
	window  *ringbuf.Window[float64]
	denom   float64
	current float64
}

// NewWMA creates a new WMA indicator with the given period.
func NewWMA(period int) *WMA {
	return &WMA{
		period: period,
		window: ringbuf.NewWindow[float64](period),
		denom:  float64(period*(period+1)) / 2,
	}
}

func (w *WMA) Name() string { return fmt.Sprintf("WMA_%d", w.period) }

func (w *WMA) Update(bar model.Bar) {
	w.window.Append(bar.Close)
	if !w.window.Full() {
		return
	}
	var weighted float64
	for i := 0; i < w.period; i++ {
		weighted += w.window.At(i) * float64(i+1)
	}
	w.current = weighted / w.denom
}

func (w *WMA) Value() float64 { return w.current }
func (w *WMA) Ready() bool    { return w.window.Full() }
