package indicator

import (
	"fmt"
	"math"

	"fxtrader/internal/model"
)

// ADX calculates the Average Directional Index with its +DI and -DI
// components, all Wilder-smoothed. Value() is the ADX line.
type ADX struct {
	period int
	count  int

	prevHigh, prevLow, prevClose float64

	smTR, smPlusDM, smMinusDM float64
	plusDI, minusDI           float64

	dxSum   float64
	dxCount int
	current float64
}

// NewADX creates a new ADX indicator with the given period (typically 14).
func NewADX(period int) *ADX {
	return &ADX{period: period}
}

func (a *ADX) Name() string { return fmt.Sprintf("ADX_%d", a.period) }

func (a *ADX) Update(bar model.Bar) {
	a.count++
	if a.count == 1 {
		a.prevHigh, a.prevLow, a.prevClose = bar.High, bar.Low, bar.Close
		return
	}

	upMove := bar.High - a.prevHigh
	downMove := a.prevLow - bar.Low
	plusDM, minusDM := 0.0, 0.0
	if upMove > downMove && upMove > 0 {
		plusDM = upMove
	}
	if downMove > upMove && downMove > 0 {
		minusDM = downMove
	}

	tr := math.Max(bar.High-bar.Low, math.Max(
		math.Abs(bar.High-a.prevClose),
		math.Abs(bar.Low-a.prevClose),
	))
	a.prevHigh, a.prevLow, a.prevClose = bar.High, bar.Low, bar.Close

	p := float64(a.period)
	if a.count <= a.period+1 {
		// Accumulation phase for the first smoothed values.
		a.smTR += tr
		a.smPlusDM += plusDM
		a.smMinusDM += minusDM
		if a.count < a.period+1 {
			return
		}
	} else {
		// Wilder smoothing of the running sums.
		a.smTR = a.smTR - a.smTR/p + tr
		a.smPlusDM = a.smPlusDM - a.smPlusDM/p + plusDM
		a.smMinusDM = a.smMinusDM - a.smMinusDM/p + minusDM
	}

	if a.smTR == 0 {
		return
	}
	a.plusDI = 100 * a.smPlusDM / a.smTR
	a.minusDI = 100 * a.smMinusDM / a.smTR

	diSum := a.plusDI + a.minusDI
	if diSum == 0 {
		return
	}
	dx := 100 * math.Abs(a.plusDI-a.minusDI) / diSum

	a.dxCount++
	if a.dxCount <= a.period {
		a.dxSum += dx
		if a.dxCount == a.period {
			a.current = a.dxSum / p
		}
		return
	}
	a.current = (a.current*(p-1) + dx) / p
}

// Value returns the ADX line (trend strength, 0-100).
func (a *ADX) Value() float64 { return a.current }

// PlusDI returns the positive directional indicator.
func (a *ADX) PlusDI() float64 { return a.plusDI }

// MinusDI returns the negative directional indicator.
func (a *ADX) MinusDI() float64 { return a.minusDI }

func (a *ADX) Ready() bool { return a.dxCount >= a.period }
