// Package stream maintains the live quote connection: a Transport
// abstracts the wire, and the Gateway drives it through connect,
// subscribe and read with reconnect and integrity checks.
package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gorilla/websocket"

	"fxtrader/internal/model"
)

// Transport is one connection attempt's worth of wire operations. The
// gateway discards a transport after any error and dials a fresh one.
type Transport interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context, pairs []model.Pair) error
	ReadTick() (model.Tick, error)
	Close() error
}

// Dialer creates transports, one per connection attempt.
type Dialer func() Transport

// WSTransport is the production Transport over a JSON websocket feed.
type WSTransport struct {
	url       string
	handshake time.Duration
	conn      *websocket.Conn
}

// NewWSTransport returns a Dialer producing websocket transports for
// the given feed URL.
func NewWSTransport(url string, handshakeTimeout time.Duration) Dialer {
	return func() Transport {
		return &WSTransport{url: url, handshake: handshakeTimeout}
	}
}

func (t *WSTransport) Connect(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: t.handshake}
	conn, _, err := dialer.DialContext(ctx, t.url, nil)
	if err != nil {
		return fmt.Errorf("stream: dial %s: %w", t.url, err)
	}
	t.conn = conn
	return nil
}

type subscribeMsg struct {
	Action string       `json:"action"`
	Pairs  []model.Pair `json:"pairs"`
}

func (t *WSTransport) Subscribe(_ context.Context, pairs []model.Pair) error {
	if err := t.conn.WriteJSON(subscribeMsg{Action: "subscribe", Pairs: pairs}); err != nil {
		return fmt.Errorf("stream: subscribe: %w", err)
	}
	return nil
}

func (t *WSTransport) ReadTick() (model.Tick, error) {
	_, raw, err := t.conn.ReadMessage()
	if err != nil {
		return model.Tick{}, err
	}
	var tick model.Tick
	if err := json.Unmarshal(raw, &tick); err != nil {
		return model.Tick{}, fmt.Errorf("stream: parse tick: %w", err)
	}
	return tick, nil
}

func (t *WSTransport) Close() error {
	if t.conn == nil {
		return nil
	}
	t.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "shutdown"))
	return t.conn.Close()
}
