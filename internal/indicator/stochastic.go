package indicator

import (
	"fmt"

	"fxtrader/internal/model"
	"fxtrader/internal/ringbuf"
)

// Stochastic calculates the stochastic oscillator %K with an SMA-smoothed
// %D. Value() is %K.
type Stochastic struct {
	kPeriod int
	dPeriod int
	bars    *ringbuf.Window[model.Bar]
	dWindow *ringbuf.Window[float64]
	dSum    float64

	k, d float64
}

// NewStochastic creates a stochastic oscillator with the given %K and %D
// periods (typically 14 and 3).
func NewStochastic(kPeriod, dPeriod int) *Stochastic {
	return &Stochastic{
		kPeriod: kPeriod,
		dPeriod: dPeriod,
		bars:    ringbuf.NewWindow[model.Bar](kPeriod),
		dWindow: ringbuf.NewWindow[float64](dPeriod),
	}
}

func (s *Stochastic) Name() string { return fmt.Sprintf("STOCH_%d_%d", s.kPeriod, s.dPeriod) }

func (s *Stochastic) Update(bar model.Bar) {
	s.bars.Append(bar)
	if !s.bars.Full() {
		return
	}

	hh, ll := s.bars.At(0).High, s.bars.At(0).Low
	s.bars.Do(func(b model.Bar) {
		if b.High > hh {
			hh = b.High
		}
		if b.Low < ll {
			ll = b.Low
		}
	})

	if hh == ll {
		s.k = 50 // flat window, no direction
	} else {
		s.k = 100 * (bar.Close - ll) / (hh - ll)
	}

	evicted, full := s.dWindow.Append(s.k)
	s.dSum += s.k
	if full {
		s.dSum -= evicted
	}
	if s.dWindow.Full() {
		s.d = s.dSum / float64(s.dPeriod)
	}
}

// Value returns %K.
func (s *Stochastic) Value() float64 { return s.k }

// D returns the smoothed %D line.
func (s *Stochastic) D() float64 { return s.d }

func (s *Stochastic) Ready() bool { return s.bars.Full() && s.dWindow.Full() }
