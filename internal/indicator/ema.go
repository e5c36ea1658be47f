package indicator

import (
	"fmt"

	"fxtrader/internal/model"
)

// EMA calculates Exponential Moving Average.
// O(1) per update, seeded with an SMA of the first period closes.
type EMA struct {
	period     int
	multiplier float64
	current    float64
	count      int
	sum        float64
}

// NewEMA creates a new EMA indicator with the given period.
func NewEMA(period int) *EMA {
	return &EMA{
		period:     period,
		multiplier: 2.0 / float64(period+1),
	}
}

func (e *EMA) Name() string { return fmt.Sprintf("EMA_%d", e.period) }

func (e *EMA) Update(bar model.Bar) {
	e.updatePrice(bar.Close)
}

// updatePrice lets composite indicators (MACD, Keltner) feed derived
// series through the same smoothing.
func (e *EMA) updatePrice(price float64) {
	e.count++

	if e.count <= e.period {
		// Accumulate for initial SMA seed.
		e.sum += price
		if e.count == e.period {
			e.current = e.sum / float64(e.period)
		}
		return
	}

	e.current = (price * e.multiplier) + (e.current * (1 - e.multiplier))
}

func (e *EMA) Value() float64 { return e.current }
func (e *EMA) Ready() bool    { return e.count >= e.period }
