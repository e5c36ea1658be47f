package strategy

// Settings carries the tunables needed to build the standard strategy
// roster. The cmd layer maps its config onto this.
type Settings struct {
	FastPeriod    int
	SlowPeriod    int
	RSIPeriod     int
	RSIOversold   float64
	RSIOverbought float64
	BollPeriod    int
	BollStdDev    float64
	ADXPeriod     int
	ADXThreshold  float64
	TrendMA       int
}

// Factories returns factories for the named strategies. Unknown names
// are skipped so a config typo disables a strategy instead of crashing
// the pipeline at startup.
func Factories(names []string, s Settings) []Factory {
	var out []Factory
	for _, name := range names {
		switch name {
		case "ma_cross":
			out = append(out, func() Strategy { return NewMACross(s.FastPeriod, s.SlowPeriod) })
		case "rsi_reversion":
			out = append(out, func() Strategy { return NewRSIReversion(s.RSIPeriod, s.RSIOversold, s.RSIOverbought) })
		case "bollinger":
			out = append(out, func() Strategy { return NewBollingerBounce(s.BollPeriod, s.BollStdDev) })
		case "macd":
			out = append(out, func() Strategy { return NewMACDCross(12, 26, 9) })
		case "trend_following":
			out = append(out, func() Strategy { return NewTrendFollowing(s.ADXPeriod, s.ADXThreshold, s.TrendMA) })
		}
	}
	return out
}
