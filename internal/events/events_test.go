package events

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fxtrader/internal/model"
)

func tradeEvent() Event {
	return Event{
		Type:    TypeTrade,
		TS:      time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
		Pair:    model.USDJPY,
		Message: "position closed",
		Fill: &model.Fill{
			OrderID: "o1", Pair: model.USDJPY, Side: model.Short,
			Quantity: 10_000, Price: 150.25,
		},
		PnL: "2500",
	}
}

func TestLogRecorderWritesStructuredFields(t *testing.T) {
	var buf bytes.Buffer
	r := NewLogRecorder(slog.New(slog.NewJSONHandler(&buf, nil)))

	r.Record(context.Background(), tradeEvent())

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "position closed", line["msg"])
	assert.Equal(t, "USD/JPY", line["pair"])
	assert.Equal(t, "o1", line["order_id"])
	assert.Equal(t, "2500", line["pnl"])
}

func TestWebhookForwardsTradesOnly(t *testing.T) {
	var got []Event
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var ev Event
		require.NoError(t, json.NewDecoder(r.Body).Decode(&ev))
		got = append(got, ev)
	}))
	defer srv.Close()

	r := NewWebhookRecorder(srv.URL, slog.New(slog.NewTextHandler(bytes.NewBuffer(nil), nil)))
	r.Record(context.Background(), tradeEvent())
	r.Record(context.Background(), Event{Type: TypeSignal, Message: "ma_cross long"})

	require.Len(t, got, 1, "signals stay off the webhook")
	assert.Equal(t, TypeTrade, got[0].Type)
	require.NotNil(t, got[0].Fill)
	assert.Equal(t, "o1", got[0].Fill.OrderID)
}

type captureRecorder struct {
	mu     sync.Mutex
	events []Event
}

func (c *captureRecorder) Record(_ context.Context, ev Event) {
	c.mu.Lock()
	c.events = append(c.events, ev)
	c.mu.Unlock()
}

func (c *captureRecorder) snapshot() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Event(nil), c.events...)
}

func TestAsyncDeliversInOrder(t *testing.T) {
	sink := &captureRecorder{}
	a := NewAsync(sink, 64, slog.New(slog.NewTextHandler(io.Discard, nil)))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() { a.Run(ctx); close(done) }()

	for i := 0; i < 10; i++ {
		ev := tradeEvent()
		ev.Message = string(rune('a' + i))
		a.Record(ctx, ev)
	}

	require.Eventually(t, func() bool { return len(sink.snapshot()) == 10 },
		2*time.Second, 5*time.Millisecond)
	got := sink.snapshot()
	for i := 0; i < 10; i++ {
		assert.Equal(t, string(rune('a'+i)), got[i].Message)
	}

	cancel()
	<-done
}

func TestAsyncFlushDeliversAfterStop(t *testing.T) {
	sink := &captureRecorder{}
	a := NewAsync(sink, 64, slog.New(slog.NewTextHandler(io.Discard, nil)))

	// No Run goroutine; events buffer until Flush.
	a.Record(context.Background(), tradeEvent())
	a.Record(context.Background(), tradeEvent())
	assert.Empty(t, sink.events)

	a.Flush(context.Background())
	assert.Len(t, sink.events, 2)
}

func TestMultiFansOut(t *testing.T) {
	a, b := &captureRecorder{}, &captureRecorder{}
	m := Multi{a, b}

	m.Record(context.Background(), tradeEvent())

	require.Len(t, a.events, 1)
	require.Len(t, b.events, 1)
	assert.Equal(t, a.events[0].Message, b.events[0].Message)
}
