package indicator

import "fxtrader/internal/model"

// OBV calculates On-Balance Volume: cumulative volume signed by the
// direction of each close-to-close move.
type OBV struct {
	count     int
	prevClose float64
	current   float64
}

// NewOBV creates a new OBV indicator.
func NewOBV() *OBV {
	return &OBV{}
}

func (o *OBV) Name() string { return "OBV" }

func (o *OBV) Update(bar model.Bar) {
	o.count++
	if o.count == 1 {
		o.prevClose = bar.Close
		return
	}

	switch {
	case bar.Close > o.prevClose:
		o.current += float64(bar.Volume)
	case bar.Close < o.prevClose:
		o.current -= float64(bar.Volume)
	}
	o.prevClose = bar.Close
}

func (o *OBV) Value() float64 { return o.current }
func (o *OBV) Ready() bool    { return o.count > 1 }
