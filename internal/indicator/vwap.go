package indicator

import (
	"time"

	"fxtrader/internal/model"
)

// VWAP calculates the Volume-Weighted Average Price over typical prices,
// resetting at each UTC day boundary. Zero-volume bars (gap fills) do
// not move it.
type VWAP struct {
	day     time.Time
	sumPV   float64
	sumVol  float64
	current float64
}

// NewVWAP creates a new session VWAP indicator.
func NewVWAP() *VWAP {
	return &VWAP{}
}

func (v *VWAP) Name() string { return "VWAP" }

func (v *VWAP) Update(bar model.Bar) {
	day := bar.OpenTime.UTC().Truncate(24 * time.Hour)
	if !day.Equal(v.day) {
		v.day = day
		v.sumPV = 0
		v.sumVol = 0
	}

	tp := (bar.High + bar.Low + bar.Close) / 3
	v.sumPV += tp * float64(bar.Volume)
	v.sumVol += float64(bar.Volume)
	if v.sumVol > 0 {
		v.current = v.sumPV / v.sumVol
	}
}

func (v *VWAP) Value() float64 { return v.current }
func (v *VWAP) Ready() bool    { return v.sumVol > 0 }
