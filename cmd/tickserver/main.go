// Command tickserver is a demo WebSocket quote server. It broadcasts
// simulated FX ticks so the trader can run against a live-looking feed
// without broker credentials.
//
// Tick JSON shape is identical to model.Tick:
//
//	{"pair":"USD/JPY","bid":150.001,"ask":150.011,"volume":12,"ts":"..."}
//
// Config (env vars):
//
//	TICK_SERVER_ADDR   listen address (default ":9001")
//	TICK_PAIRS         comma-separated pairs (default "USD/JPY,EUR/USD")
//	TICK_INTERVAL_MS   broadcast interval milliseconds (default "100")
package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"fxtrader/internal/logger"
	"fxtrader/internal/model"
)

// instrument holds per-pair simulation state.
type instrument struct {
	Pair model.Pair
	Mid  float64
}

type hub struct {
	mu      sync.RWMutex
	clients map[*websocket.Conn]chan []byte
}

func newHub() *hub {
	return &hub{clients: make(map[*websocket.Conn]chan []byte)}
}

func (h *hub) register(conn *websocket.Conn) chan []byte {
	ch := make(chan []byte, 256)
	h.mu.Lock()
	h.clients[conn] = ch
	h.mu.Unlock()
	return ch
}

func (h *hub) unregister(conn *websocket.Conn) {
	h.mu.Lock()
	if ch, ok := h.clients[conn]; ok {
		close(ch)
		delete(h.clients, conn)
	}
	h.mu.Unlock()
}

func (h *hub) broadcast(msg []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, ch := range h.clients {
		select {
		case ch <- msg:
		default: // slow client, drop tick
		}
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(_ *http.Request) bool { return true },
}

func wsHandler(h *hub, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Warn("upgrade failed", "err", err)
			return
		}
		log.Info("client connected", "remote", r.RemoteAddr)

		ch := h.register(conn)
		defer func() {
			h.unregister(conn)
			conn.Close()
			log.Info("client disconnected", "remote", r.RemoteAddr)
		}()

		// Read pump: drains subscribe messages and detects disconnect.
		go func() {
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					h.unregister(conn)
					return
				}
			}
		}()

		// Write pump: sends tick JSON to this client.
		for msg := range ch {
			conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		}
	}
}

// walkMid applies a bounded random step of up to two pips.
func walkMid(pair model.Pair, mid float64, rng *rand.Rand) float64 {
	step := (rng.Float64()*4 - 2) * pair.PipSize()
	next := mid + step
	if next <= 0 {
		next = mid
	}
	return next
}

func runGenerator(h *hub, instruments []instrument, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	for range ticker.C {
		for i := range instruments {
			instruments[i].Mid = walkMid(instruments[i].Pair, instruments[i].Mid, rng)
			half := instruments[i].Pair.PipSize() / 2
			tick := model.Tick{
				Pair:   instruments[i].Pair,
				Bid:    instruments[i].Mid - half,
				Ask:    instruments[i].Mid + half,
				Volume: rng.Int63n(100) + 1,
				TS:     time.Now().UTC(),
			}
			b, err := json.Marshal(tick)
			if err != nil {
				continue
			}
			h.broadcast(b)
		}
	}
}

func main() {
	log := logger.Init("tickserver", slog.LevelInfo)

	addr := envOrDefault("TICK_SERVER_ADDR", ":9001")
	pairsEnv := envOrDefault("TICK_PAIRS", "USD/JPY,EUR/USD")
	intervalMs := envIntOrDefault("TICK_INTERVAL_MS", 100)

	instruments := parseInstruments(pairsEnv)
	if len(instruments) == 0 {
		log.Error("no pairs configured via TICK_PAIRS")
		os.Exit(1)
	}
	log.Info("simulating", "pairs", pairsEnv, "interval_ms", intervalMs)

	h := newHub()
	go runGenerator(h, instruments, time.Duration(intervalMs)*time.Millisecond)

	http.HandleFunc("/ws", wsHandler(h, log))
	http.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintln(w, `{"status":"ok","service":"tickserver"}`)
	})

	log.Info("listening", "addr", addr)
	if err := http.ListenAndServe(addr, nil); err != nil {
		log.Error("server failed", "err", err)
		os.Exit(1)
	}
}

// Seed mids for common pairs; unknown pairs start near parity.
var seedMids = map[model.Pair]float64{
	model.USDJPY: 150.00,
	model.EURUSD: 1.0850,
	model.GBPUSD: 1.2700,
	model.AUDUSD: 0.6550,
	model.EURJPY: 162.80,
	model.GBPJPY: 190.50,
}

func parseInstruments(s string) []instrument {
	var result []instrument
	for _, part := range strings.Split(s, ",") {
		pair := model.Pair(strings.TrimSpace(part))
		if pair == "" {
			continue
		}
		mid, ok := seedMids[pair]
		if !ok {
			mid = 1.0
			if pair.Quote() == "JPY" {
				mid = 150.0
			}
		}
		result = append(result, instrument{Pair: pair, Mid: mid})
	}
	return result
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntOrDefault(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
