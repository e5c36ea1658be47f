package strategy

import (
	"fmt"
	"math"

	"fxtrader/internal/indicator"
	"fxtrader/internal/model"
)

// TrendFollowing gates entries on ADX trend strength and takes the
// direction the DI lines and a long moving average agree on. Quiet,
// directionless markets produce no signal at all.
type TrendFollowing struct {
	adx *indicator.ADX
	ma  *indicator.SMA
	atr *indicator.ATR

	threshold float64
}

// NewTrendFollowing creates a trend following strategy (typically ADX
// period 14, threshold 25, MA period 50).
func NewTrendFollowing(adxPeriod int, adxThreshold float64, maPeriod int) *TrendFollowing {
	return &TrendFollowing{
		adx:       indicator.NewADX(adxPeriod),
		ma:        indicator.NewSMA(maPeriod),
		atr:       indicator.NewATR(14),
		threshold: adxThreshold,
	}
}

func (s *TrendFollowing) Name() string { return "trend_following" }

func (s *TrendFollowing) OnBar(bar model.Bar) *model.Signal {
	s.adx.Update(bar)
	s.ma.Update(bar)
	s.atr.Update(bar)
	if !s.adx.Ready() || !s.ma.Ready() || !s.atr.Ready() {
		return nil
	}

	adx := s.adx.Value()
	if adx < s.threshold {
		return nil
	}

	conf := math.Min((adx-s.threshold)/25+0.5, 1.0)
	entry := bar.Close
	atr := s.atr.Value()
	ma := s.ma.Value()

	if s.adx.PlusDI() > s.adx.MinusDI() && entry > ma {
		return &model.Signal{
			StrategyID: s.Name(),
			Pair:       bar.Pair,
			Direction:  model.Long,
			Strength:   conf,
			TS:         bar.CloseTime(),
			Rationale:  fmt.Sprintf("uptrend, ADX %.1f with +DI dominant", adx),
			EntryPrice: entry,
			StopLoss:   entry - atr*2,
			TakeProfit: entry + atr*4,
		}
	}

	if s.adx.MinusDI() > s.adx.PlusDI() && entry < ma {
		return &model.Signal{
			StrategyID: s.Name(),
			Pair:       bar.Pair,
			Direction:  model.Short,
			Strength:   conf,
			TS:         bar.CloseTime(),
			Rationale:  fmt.Sprintf("downtrend, ADX %.1f with -DI dominant", adx),
			EntryPrice: entry,
			StopLoss:   entry + atr*2,
			TakeProfit: entry - atr*4,
		}
	}

	return nil
}
