package events

import (
	"context"
	"log/slog"
)

// LogRecorder writes events to the structured log. Always configured;
// it is the sink of last resort when Redis and webhooks are off.
type LogRecorder struct {
	log *slog.Logger
}

// NewLogRecorder creates a log sink.
func NewLogRecorder(log *slog.Logger) *LogRecorder {
	return &LogRecorder{log: log}
}

func (r *LogRecorder) Record(_ context.Context, ev Event) {
	attrs := []any{"type", ev.Type, "ts", ev.TS}
	if ev.Pair != "" {
		attrs = append(attrs, "pair", ev.Pair)
	}
	if ev.Signal != nil {
		attrs = append(attrs,
			"strategy", ev.Signal.StrategyID,
			"direction", ev.Signal.Direction,
			"strength", ev.Signal.Strength)
	}
	if ev.Fill != nil {
		attrs = append(attrs,
			"order_id", ev.Fill.OrderID,
			"side", ev.Fill.Side,
			"qty", ev.Fill.Quantity,
			"price", ev.Fill.Price,
			"pnl", ev.PnL)
	}
	r.log.Info(ev.Message, attrs...)
}
