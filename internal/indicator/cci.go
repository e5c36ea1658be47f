package indicator

import (
	"fmt"
	"math"

	"fxtrader/internal/model"
	"fxtrader/internal/ringbuf"
)

// CCI calculates the Commodity Channel Index over typical prices, using
// mean absolute deviation with Lambert's 0.015 scaling constant.
type CCI struct {
	period  int
	window  *ringbuf.Window[float64]
	sum     float64
	current float64
}

// NewCCI creates a new CCI indicator with the given period (typically 20).
func NewCCI(period int) *CCI {
	return &CCI{
		period: period,
		window: ringbuf.NewWindow[float64](period),
	}
}

func (c *CCI) Name() string { return fmt.Sprintf("CCI_%d", c.period) }

func (c *CCI) Update(bar model.Bar) {
	tp := (bar.High + bar.Low + bar.Close) / 3
	evicted, full := c.window.Append(tp)
	c.sum += tp
	if full {
		c.sum -= evicted
	}
	if !c.window.Full() {
		return
	}

	mean := c.sum / float64(c.period)
	var mad float64
	c.window.Do(func(v float64) {
		mad += math.Abs(v - mean)
	})
	mad /= float64(c.period)
	if mad == 0 {
		c.current = 0
		return
	}
	c.current = (tp - mean) / (0.015 * mad)
}

func (c *CCI) Value() float64 { return c.current }
func (c *CCI) Ready() bool    { return c.window.Full() }
