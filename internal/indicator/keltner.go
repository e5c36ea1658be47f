package indicator

import (
	"fmt"

	"fxtrader/internal/model"
)

// Keltner calculates Keltner Channels: an EMA of typical price with
// bands offset by a multiple of ATR. Value() is the middle line.
type Keltner struct {
	mid  *EMA
	atr  *ATR
	mult float64
}

// NewKeltner creates Keltner Channels with the given EMA period, ATR
// period and ATR multiple (typically 20, 10, 2.0).
func NewKeltner(emaPeriod, atrPeriod int, mult float64) *Keltner {
	return &Keltner{
		mid:  NewEMA(emaPeriod),
		atr:  NewATR(atrPeriod),
		mult: mult,
	}
}

func (k *Keltner) Name() string { return fmt.Sprintf("KC_%d_%d", k.mid.period, k.atr.period) }

func (k *Keltner) Update(bar model.Bar) {
	k.mid.updatePrice((bar.High + bar.Low + bar.Close) / 3)
	k.atr.Update(bar)
}

// Value returns the middle line.
func (k *Keltner) Value() float64 { return k.mid.Value() }

// Upper returns the upper channel.
func (k *Keltner) Upper() float64 { return k.mid.Value() + k.mult*k.atr.Value() }

// Lower returns the lower channel.
func (k *Keltner) Lower() float64 { return k.mid.Value() - k.mult*k.atr.Value() }

func (k *Keltner) Ready() bool { return k.mid.Ready() && k.atr.Ready() }
