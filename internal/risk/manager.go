// Package risk owns the trading account: position sizing, protective
// stops, trailing, partial takes, and the guard rails that halt or
// reject trading. It is the single writer of account state; every other
// layer sees read-only snapshots.
package risk

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"fxtrader/internal/indicator"
	"fxtrader/internal/model"
)

// Executor places orders. Implementations are the paper book and the
// live broker gateway.
type Executor interface {
	Submit(ctx context.Context, order model.Order) (model.Fill, error)
}

// Params are the risk policy tunables.
type Params struct {
	RiskPerTrade     float64
	MaxOpenPositions int
	MaxDrawdown      float64 // fraction of peak equity
	MaxUnits         int64
	LotStep          int64
	StopMode         StopMode
	ATRPeriod        int
	ATRMultiple      float64
	FixedStopPips    float64
	TrailingPips     float64
	RiskReward       float64
	MaxTradesPerDay  int
	CloseLevels      []CloseLevel
}

// TradeStats summarizes closed trades. Partial closes count as trades;
// AvgHoldBars averages over fully closed positions.
type TradeStats struct {
	Total        int
	Wins         int
	Losses       int
	WinRate      float64
	TotalPnL     decimal.Decimal
	GrossProfit  decimal.Decimal
	GrossLoss    decimal.Decimal
	ProfitFactor float64
	LargestWin   decimal.Decimal
	LargestLoss  decimal.Decimal
	AvgHoldBars  float64
}

// Manager enforces the risk policy between strategy signals and the
// executor. All entry points lock; the account has exactly one writer.
type Manager struct {
	mu      sync.Mutex
	params  Params
	account model.Account
	exec    Executor
	log     *slog.Logger

	atr      map[model.Pair]*indicator.ATR
	partials *partialTracker

	halted      bool
	day         time.Time
	asOf        time.Time // close time of the latest bar or signal seen
	dailyTrades int
	dailyLoss   decimal.Decimal

	stats         TradeStats
	holdBars      map[model.Pair]int
	totalHoldBars int
	fullCloses    int

	// OnTrade, when set, observes every closing fill with its realized
	// PnL. Used to feed the event stream.
	OnTrade func(fill model.Fill, pnl decimal.Decimal, reason string)
}

// NewManager creates a risk manager over a fresh account.
func NewManager(params Params, initialEquity decimal.Decimal, exec Executor, log *slog.Logger) *Manager {
	if len(params.CloseLevels) == 0 {
		params.CloseLevels = DefaultCloseLevels
	}
	return &Manager{
		params:   params,
		account:  model.NewAccount(initialEquity),
		exec:     exec,
		log:      log,
		atr:      make(map[model.Pair]*indicator.ATR),
		partials: newPartialTracker(params.CloseLevels, params.LotStep),
		holdBars: make(map[model.Pair]int),
	}
}

// Account returns a snapshot of the account.
func (m *Manager) Account() model.Account {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.account.Snapshot()
}

// Stats returns closed-trade statistics.
func (m *Manager) Stats() TradeStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.stats
	if s.Total > 0 {
		s.WinRate = float64(s.Wins) / float64(s.Total)
	}
	if gl, _ := s.GrossLoss.Float64(); gl > 0 {
		gp, _ := s.GrossProfit.Float64()
		s.ProfitFactor = gp / gl
	}
	if m.fullCloses > 0 {
		s.AvgHoldBars = float64(m.totalHoldBars) / float64(m.fullCloses)
	}
	return s
}

// Halted reports whether the drawdown guard has tripped.
func (m *Manager) Halted() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.halted
}

// ManualResume clears a drawdown halt. Deliberately manual: the guard
// exists to force a human decision, not to auto-resume into the same
// conditions that tripped it.
func (m *Manager) ManualResume() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.halted = false
	m.log.Warn("trading halt cleared manually")
}

// OnSignal applies a fused strategy signal: opens a position when flat,
// closes on a reverse signal, ignores signals agreeing with the open
// side. Returns RiskRejection (policy) or ExecutionFailure (broker)
// errors; both leave the account consistent.
func (m *Manager) OnSignal(ctx context.Context, sig model.Signal) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.rolloverDay(sig.TS)
	m.asOf = sig.TS

	pos, open := m.account.OpenPositions[sig.Pair]
	if open {
		if pos.State != model.StateOpen {
			return &model.RiskRejection{Pair: sig.Pair, Reason: fmt.Sprintf("order in flight, state %s", pos.State)}
		}
		if sig.Direction == pos.Side {
			return nil // already positioned this way
		}
		return m.closeLocked(ctx, pos, pos.Quantity, sig.TS, "reverse signal")
	}

	if m.halted {
		return model.ErrTradingHalted
	}
	if m.params.MaxTradesPerDay > 0 && m.dailyTrades >= m.params.MaxTradesPerDay {
		return &model.RiskRejection{Pair: sig.Pair, Reason: "daily trade cap reached"}
	}
	if m.params.MaxOpenPositions > 0 && len(m.account.OpenPositions) >= m.params.MaxOpenPositions {
		return &model.RiskRejection{Pair: sig.Pair, Reason: "max open positions reached"}
	}

	entry := sig.EntryPrice
	stop := sig.StopLoss
	if stop == 0 {
		stop = StopLoss(m.params.StopMode, sig.Pair, sig.Direction, entry,
			m.atrValue(sig.Pair), m.params.ATRMultiple, m.params.FixedStopPips)
	}
	takeProfit := sig.TakeProfit
	if takeProfit == 0 {
		takeProfit = TakeProfit(sig.Direction, entry, stop, m.params.RiskReward)
	}

	size := PositionSize(m.account.Equity, m.params.RiskPerTrade, sig.Pair,
		entry, stop, takeProfit, m.params.LotStep, m.params.MaxUnits)
	if size.Units <= 0 {
		return &model.RiskRejection{Pair: sig.Pair, Reason: "computed size is zero"}
	}

	order := model.Order{
		ID:       uuid.NewString(),
		Pair:     sig.Pair,
		Side:     sig.Direction,
		Quantity: size.Units,
		Kind:     model.Market,
		Reason:   sig.Rationale,
		TS:       sig.TS,
	}

	m.account.OpenPositions[sig.Pair] = model.Position{
		Pair:  sig.Pair,
		Side:  sig.Direction,
		State: model.StatePending,
	}

	fill, err := m.exec.Submit(ctx, order)
	if err != nil {
		delete(m.account.OpenPositions, sig.Pair)
		return &model.ExecutionFailure{OrderID: order.ID, Pair: sig.Pair, Err: err}
	}

	// Re-anchor the protective levels to the actual fill price,
	// preserving the signal's distances.
	stopDistance := entry - stop
	tpDistance := takeProfit - entry
	p := model.Position{
		Pair:       sig.Pair,
		Side:       sig.Direction,
		Quantity:   fill.Quantity,
		EntryPrice: fill.Price,
		StopPrice:  fill.Price - stopDistance,
		TakeProfit: fill.Price + tpDistance,
		TrailingD:  m.params.TrailingPips * sig.Pair.PipSize(),
		OpenedAt:   fill.TS,
		State:      model.StateOpen,
	}
	m.account.OpenPositions[sig.Pair] = p
	m.partials.opened(p)
	m.dailyTrades++

	m.log.Info("position opened",
		"pair", p.Pair, "side", p.Side, "qty", p.Quantity,
		"entry", p.EntryPrice, "stop", p.StopPrice, "take_profit", p.TakeProfit,
		"risk_pips", size.StopPips)
	return nil
}

// OnBar marks the account to the bar close, ratchets trailing stops,
// takes partial profits and exits positions whose stop or target was
// hit. While the drawdown halt is active every remaining open position
// is moved toward flat. Returns the first execution error encountered;
// position state stays open so the exit retries on the next bar.
func (m *Manager) OnBar(ctx context.Context, bar model.Bar) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	barTS := bar.CloseTime()
	m.rolloverDay(barTS)
	m.asOf = barTS

	a, ok := m.atr[bar.Pair]
	if !ok {
		a = indicator.NewATR(m.params.ATRPeriod)
		m.atr[bar.Pair] = a
	}
	if !bar.Partial {
		a.Update(bar)
	}

	price := bar.Close
	pos, open := m.account.OpenPositions[bar.Pair]

	if open && pos.State == model.StateOpen {
		m.holdBars[bar.Pair]++

		if newStop := TrailStop(pos, price); newStop != 0 {
			pos.StopPrice = newStop
			m.account.OpenPositions[bar.Pair] = pos
			m.log.Debug("trailing stop ratcheted", "pair", pos.Pair, "stop", newStop)
		}

		if qty, reason := m.partials.check(pos, price); qty > 0 {
			if err := m.closeLocked(ctx, pos, qty, barTS, reason); err != nil {
				return err
			}
			pos, open = m.account.OpenPositions[bar.Pair]
		}

		if open {
			switch {
			case pos.StopHit(price):
				if err := m.closeLocked(ctx, pos, pos.Quantity, barTS, "stop loss"); err != nil {
					return err
				}
			case pos.TakeProfitHit(price):
				if err := m.closeLocked(ctx, pos, pos.Quantity, barTS, "take profit"); err != nil {
					return err
				}
			}
		}
	}

	m.markToMarket(price, bar.Pair)

	// A tripped drawdown guard flattens the whole book, not just the
	// pair that moved. Failed exits retry here on every later bar.
	if m.halted {
		return m.closeAllLocked(ctx, barTS, "drawdown halt")
	}
	return nil
}

// CloseAll force-closes every open position, used on shutdown and at
// the end of a backtest.
func (m *Manager) CloseAll(ctx context.Context, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ts := m.asOf
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	return m.closeAllLocked(ctx, ts, reason)
}

// closeAllLocked submits exits for every open position. Caller holds
// m.mu.
func (m *Manager) closeAllLocked(ctx context.Context, ts time.Time, reason string) error {
	var firstErr error
	for _, pos := range m.account.OpenPositions {
		if pos.State != model.StateOpen {
			continue
		}
		if err := m.closeLocked(ctx, pos, pos.Quantity, ts, reason); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// closeLocked submits an exit for qty units of pos, stamped with the
// driving bar or signal time. Caller holds m.mu.
func (m *Manager) closeLocked(ctx context.Context, pos model.Position, qty int64, ts time.Time, reason string) error {
	full := qty >= pos.Quantity

	if full {
		pos.State = model.StateClosing
		m.account.OpenPositions[pos.Pair] = pos
	}

	order := model.Order{
		ID:       uuid.NewString(),
		Pair:     pos.Pair,
		Side:     pos.Side.Opposite(),
		Quantity: qty,
		Kind:     model.Market,
		Reason:   reason,
		TS:       ts,
	}

	fill, err := m.exec.Submit(ctx, order)
	if err != nil {
		// Leave the position open; the next bar retries the exit.
		pos.State = model.StateOpen
		m.account.OpenPositions[pos.Pair] = pos
		return &model.ExecutionFailure{OrderID: order.ID, Pair: pos.Pair, Err: err}
	}

	pnl := realizedPnL(pos, fill)
	m.account.RealizedPnL = m.account.RealizedPnL.Add(pnl)
	m.account.Equity = m.account.Equity.Add(pnl)
	m.recordClose(pnl)

	if full {
		delete(m.account.OpenPositions, pos.Pair)
		m.partials.closed(pos.Pair)
		m.totalHoldBars += m.holdBars[pos.Pair]
		delete(m.holdBars, pos.Pair)
		m.fullCloses++
	} else {
		pos.Quantity -= qty
		pos.State = model.StateOpen
		m.account.OpenPositions[pos.Pair] = pos
	}

	m.log.Info("position closed",
		"pair", pos.Pair, "qty", qty, "price", fill.Price,
		"pnl", pnl.StringFixed(2), "reason", reason, "full", full)

	if m.OnTrade != nil {
		m.OnTrade(fill, pnl, reason)
	}
	return nil
}

// realizedPnL converts an exit fill into account-currency PnL. The
// subtraction happens in decimal so float noise never reaches the
// ledger.
func realizedPnL(pos model.Position, fill model.Fill) decimal.Decimal {
	diff := decimal.NewFromFloat(fill.Price).Sub(decimal.NewFromFloat(pos.EntryPrice))
	if pos.Side == model.Short {
		diff = diff.Neg()
	}
	return diff.Mul(decimal.NewFromInt(fill.Quantity))
}

func (m *Manager) recordClose(pnl decimal.Decimal) {
	m.stats.Total++
	m.stats.TotalPnL = m.stats.TotalPnL.Add(pnl)
	if pnl.IsPositive() {
		m.stats.Wins++
		m.stats.GrossProfit = m.stats.GrossProfit.Add(pnl)
		if pnl.GreaterThan(m.stats.LargestWin) {
			m.stats.LargestWin = pnl
		}
	} else if pnl.IsNegative() {
		m.stats.Losses++
		m.stats.GrossLoss = m.stats.GrossLoss.Add(pnl.Neg())
		m.dailyLoss = m.dailyLoss.Add(pnl.Neg())
		if pnl.LessThan(m.stats.LargestLoss) {
			m.stats.LargestLoss = pnl
		}
	}
}

// markToMarket refreshes peak equity and the drawdown guard using the
// latest price for the given pair.
func (m *Manager) markToMarket(price float64, pair model.Pair) {
	marked := m.account.Equity
	if pos, ok := m.account.OpenPositions[pair]; ok && pos.State == model.StateOpen {
		diff := price - pos.EntryPrice
		if pos.Side == model.Short {
			diff = -diff
		}
		marked = marked.Add(decimal.NewFromFloat(diff).Mul(decimal.NewFromInt(pos.Quantity)))
	}

	if marked.GreaterThan(m.account.PeakEquity) {
		m.account.PeakEquity = marked
	}
	if m.account.PeakEquity.IsZero() {
		return
	}
	dd, _ := m.account.PeakEquity.Sub(marked).Div(m.account.PeakEquity).Float64()
	if dd > m.account.MaxDrawdownSeen {
		m.account.MaxDrawdownSeen = dd
	}
	if !m.halted && dd >= m.params.MaxDrawdown {
		m.halted = true
		m.log.Error("drawdown ceiling reached, halting and flattening",
			"drawdown", dd, "ceiling", m.params.MaxDrawdown)
	}
}

func (m *Manager) atrValue(pair model.Pair) float64 {
	if a, ok := m.atr[pair]; ok && a.Ready() {
		return a.Value()
	}
	return 0
}

// rolloverDay resets daily counters when ts crosses a UTC day boundary.
func (m *Manager) rolloverDay(ts time.Time) {
	day := ts.UTC().Truncate(24 * time.Hour)
	if day.After(m.day) {
		if !m.day.IsZero() {
			m.log.Info("daily counters reset", "trades", m.dailyTrades, "loss", m.dailyLoss.StringFixed(2))
		}
		m.day = day
		m.dailyTrades = 0
		m.dailyLoss = decimal.Zero
	}
}
