package indicator

import (
	"fmt"

	"fxtrader/internal/model"
	"fxtrader/internal/ringbuf"
)

// WilliamsR calculates Williams %R, ranging from -100 (close at the
// window low) to 0 (close at the window high).
type WilliamsR struct {
	period  int
	bars    *ringbuf.Window[model.Bar]
	current float64
}

// NewWilliamsR creates a Williams %R indicator with the given period
// (typically 14).
func NewWilliamsR(period int) *WilliamsR {
	return &WilliamsR{
		period: period,
		bars:   ringbuf.NewWindow[model.Bar](period),
	}
}

func (w *WilliamsR) Name() string { return fmt.Sprintf("WILLR_%d", w.period) }

func (w *WilliamsR) Update(bar model.Bar) {
	w.bars.Append(bar)
	if !w.bars.Full() {
		return
	}

	hh, ll := w.bars.At(0).High, w.bars.At(0).Low
	w.bars.Do(func(b model.Bar) {
		if b.High > hh {
			hh = b.High
		}
		if b.Low < ll {
			ll = b.Low
		}
	})

	if hh == ll {
		w.current = -50
		return
	}
	w.current = -100 * (hh - bar.Close) / (hh - ll)
}

func (w *WilliamsR) Value() float64 { return w.current }
func (w *WilliamsR) Ready() bool    { return w.bars.Full() }
