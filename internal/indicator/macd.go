package indicator

import (
	"fmt"

	"fxtrader/internal/model"
)

// MACD calculates Moving Average Convergence Divergence: the spread of
// a fast EMA over a slow EMA, with a signal EMA over that spread.
// Value() is the MACD line; Signal() and Histogram() expose the rest.
type MACD struct {
	fast   *EMA
	slow   *EMA
	signal *EMA
}

// NewMACD creates a MACD with the given fast, slow and signal periods
// (typically 12, 26, 9).
func NewMACD(fast, slow, signal int) *MACD {
	return &MACD{
		fast:   NewEMA(fast),
		slow:   NewEMA(slow),
		signal: NewEMA(signal),
	}
}

func (m *MACD) Name() string {
	return fmt.Sprintf("MACD_%d_%d_%d", m.fast.period, m.slow.period, m.signal.period)
}

func (m *MACD) Update(bar model.Bar) {
	m.fast.Update(bar)
	m.slow.Update(bar)
	if m.slow.Ready() {
		m.signal.updatePrice(m.fast.Value() - m.slow.Value())
	}
}

// Value returns the MACD line (fast EMA - slow EMA).
func (m *MACD) Value() float64 {
	return m.fast.Value() - m.slow.Value()
}

// Signal returns the signal line, an EMA of the MACD line.
func (m *MACD) Signal() float64 { return m.signal.Value() }

// Histogram returns MACD line minus signal line.
func (m *MACD) Histogram() float64 { return m.Value() - m.Signal() }

func (m *MACD) Ready() bool { return m.slow.Ready() && m.signal.Ready() }
