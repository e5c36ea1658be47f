package indicator

import (
	"fmt"

	"fxtrader/internal/model"
	"fxtrader/internal/ringbuf"
)

// SMA calculates Simple Moving Average over closes.
// O(1) per update using a running sum and a ring of the last N closes.
type SMA struct {
	period  int
	window  *ringbuf.Window[float64]
	sum     float64
	current float64
}

// NewSMA creates a new SMA indicator with the given period.
func NewSMA(period int) *SMA {
	return &SMA{
		period: period,
		window: ringbuf.NewWindow[float64](period),
	}
}

func (s *SMA) Name() string { return fmt.Sprintf("SMA_%d", s.period) }

func (s *SMA) Update(bar model.Bar) {
	evicted, full := s.window.Append(bar.Close)
	s.sum += bar.Close
	if full {
		s.sum -= evicted
	}
	if s.window.Full() {
		s.current = s.sum / float64(s.period)
	}
}

func (s *SMA) Value() float64 { return s.current }
func (s *SMA) Ready() bool    { return s.window.Full() }
