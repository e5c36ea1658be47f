package backtest

import "math"

// Report summarizes a backtest equity curve. Ratios that need a
// dispersion estimate report zero when the curve is too short or flat
// to compute one.
type Report struct {
	TotalReturn      float64 // fraction, 0.05 = +5%
	AnnualizedReturn float64
	MaxDrawdown      float64 // fraction of peak
	Sharpe           float64
	Sortino          float64
	Calmar           float64

	Trades       int
	WinRate      float64
	ProfitFactor float64
}

// ComputeReport scores an equity curve sampled once per bar.
// barsPerYear scales per-bar return moments to annual figures.
func ComputeReport(curve []EquityPoint, barsPerYear float64) Report {
	var r Report
	if len(curve) < 2 || curve[0].Equity <= 0 {
		return r
	}

	first, last := curve[0].Equity, curve[len(curve)-1].Equity
	r.TotalReturn = last/first - 1

	years := float64(len(curve)) / barsPerYear
	if years > 0 && last > 0 {
		r.AnnualizedReturn = math.Pow(last/first, 1/years) - 1
	}

	// Per-bar simple returns.
	returns := make([]float64, 0, len(curve)-1)
	peak := curve[0].Equity
	for i := 1; i < len(curve); i++ {
		prev, cur := curve[i-1].Equity, curve[i].Equity
		if prev > 0 {
			returns = append(returns, cur/prev-1)
		}
		if cur > peak {
			peak = cur
		}
		if peak > 0 {
			if dd := (peak - cur) / peak; dd > r.MaxDrawdown {
				r.MaxDrawdown = dd
			}
		}
	}

	mean := meanOf(returns)
	if sd := stddevOf(returns, mean); sd > 0 {
		r.Sharpe = mean / sd * math.Sqrt(barsPerYear)
	}
	if dd := downsideDevOf(returns); dd > 0 {
		r.Sortino = mean / dd * math.Sqrt(barsPerYear)
	}
	if r.MaxDrawdown > 0 {
		r.Calmar = r.AnnualizedReturn / r.MaxDrawdown
	}
	return r
}

func meanOf(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func stddevOf(xs []float64, mean float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	var ss float64
	for _, x := range xs {
		d := x - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(xs)-1))
}

// downsideDevOf measures dispersion of negative returns only, against
// a zero target.
func downsideDevOf(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var ss float64
	for _, x := range xs {
		if x < 0 {
			ss += x * x
		}
	}
	return math.Sqrt(ss / float64(len(xs)))
}
