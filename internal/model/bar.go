package model

import (
	"encoding/json"
	"time"
)

// Bar represents an OHLCV summary of ticks within a fixed interval.
// A bar is append-only while forming and immutable once emitted. Partial
// marks a bar flushed before its interval elapsed (e.g. on shutdown) so
// strategies can choose to ignore it.
type Bar struct {
	Pair     Pair          `json:"pair"`
	Interval time.Duration `json:"interval"`
	OpenTime time.Time     `json:"open_time"` // UTC, interval-aligned
	Open     float64       `json:"open"`
	High     float64       `json:"high"`
	Low      float64       `json:"low"`
	Close    float64       `json:"close"`
	Volume   int64         `json:"volume"`
	Partial  bool          `json:"partial,omitempty"`
}

// CloseTime returns the first instant no longer covered by this bar.
func (b Bar) CloseTime() time.Time {
	return b.OpenTime.Add(b.Interval)
}

// JSON returns the JSON-encoded bar (ignoring errors for hot-path usage).
func (b Bar) JSON() []byte {
	out, _ := json.Marshal(b)
	return out
}
