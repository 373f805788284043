package backtest

import (
	"fmt"
	"math"
	"time"

	"github.com/ducminhle1904/regime-backtest/internal/strategy"
	"github.com/ducminhle1904/regime-backtest/pkg/types"
)

// Executor simulates fills, commissions and cash/position accounting
// over a price series. One Executor is safe to reuse across runs; every
// Run owns a fresh Portfolio, so independent runs may execute in
// parallel.
type Executor struct {
	config Config
}

// NewExecutor creates an executor, validating the run configuration.
func NewExecutor(config Config) (*Executor, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid backtest configuration: %w", err)
	}
	return &Executor{config: config}, nil
}

// Run executes one single-symbol backtest. Signals must be aligned 1:1
// with the price series. Bars are processed strictly in time order and
// the portfolio is updated exactly once per bar.
func (e *Executor) Run(symbol string, data []types.OHLCV, signals []strategy.Signal) (*Result, error) {
	if len(signals) != len(data) {
		return nil, fmt.Errorf("signal series length %d does not match price series length %d",
			len(signals), len(data))
	}
	for i := range data {
		if !signals[i].Timestamp.Equal(data[i].Timestamp) {
			return nil, fmt.Errorf("signal timestamp diverges from price series at index %d", i)
		}
	}

	sim := newSimulation(e.config)
	for i := range data {
		switch e.config.Timing {
		case SameBarClose:
			sim.applyTarget(symbol, signals[i].Target, data[i].Close, data[i].Timestamp)
		case NextBarOpen:
			if i > 0 {
				sim.applyTarget(symbol, signals[i-1].Target, data[i].Open, data[i].Timestamp)
			}
		}
		sim.mark(symbol, data[i].Close)
		sim.recordEquity(data[i].Timestamp)
	}

	if e.config.ForceCloseAtEnd && len(data) > 0 {
		last := data[len(data)-1]
		sim.forceClose(symbol, last.Close, last.Timestamp)
		sim.rewriteLastEquity(last.Timestamp)
	}

	return sim.result(), nil
}

// RunPair executes a two-leg market-neutral backtest over aligned
// series. Both legs share one cash account; each leg runs its own
// Flat/Long/Short state machine.
func (e *Executor) RunPair(symbolA, symbolB string, dataA, dataB []types.OHLCV, signals []strategy.PairSignal) (*Result, error) {
	if len(dataA) != len(dataB) {
		return nil, fmt.Errorf("leg series length mismatch: %d vs %d", len(dataA), len(dataB))
	}
	if len(signals) != len(dataA) {
		return nil, fmt.Errorf("signal series length %d does not match price series length %d",
			len(signals), len(dataA))
	}
	for i := range dataA {
		if !dataB[i].Timestamp.Equal(dataA[i].Timestamp) {
			return nil, fmt.Errorf("leg timestamps diverge at index %d", i)
		}
		if !signals[i].Timestamp.Equal(dataA[i].Timestamp) {
			return nil, fmt.Errorf("signal timestamp diverges from price series at index %d", i)
		}
	}

	sim := newSimulation(e.config)
	for i := range dataA {
		switch e.config.Timing {
		case SameBarClose:
			sim.applyTarget(symbolA, signals[i].LegA, dataA[i].Close, dataA[i].Timestamp)
			sim.applyTarget(symbolB, signals[i].LegB, dataB[i].Close, dataB[i].Timestamp)
		case NextBarOpen:
			if i > 0 {
				sim.applyTarget(symbolA, signals[i-1].LegA, dataA[i].Open, dataA[i].Timestamp)
				sim.applyTarget(symbolB, signals[i-1].LegB, dataB[i].Open, dataB[i].Timestamp)
			}
		}
		sim.mark(symbolA, dataA[i].Close)
		sim.mark(symbolB, dataB[i].Close)
		sim.recordEquity(dataA[i].Timestamp)
	}

	if e.config.ForceCloseAtEnd && len(dataA) > 0 {
		last := len(dataA) - 1
		sim.forceClose(symbolA, dataA[last].Close, dataA[last].Timestamp)
		sim.forceClose(symbolB, dataB[last].Close, dataB[last].Timestamp)
		sim.rewriteLastEquity(dataA[last].Timestamp)
	}

	return sim.result(), nil
}

// simulation carries the mutable state of one run.
type simulation struct {
	config     Config
	cash       float64
	positions  map[string]Position
	marks      map[string]float64 // last seen close per symbol
	openTrades map[string]int     // symbol -> index into trades
	trades     []Trade
	curve      []EquityPoint
}

func newSimulation(config Config) *simulation {
	return &simulation{
		config:     config,
		cash:       config.InitialBalance,
		positions:  make(map[string]Position),
		marks:      make(map[string]float64),
		openTrades: make(map[string]int),
	}
}

// applyTarget runs the Flat/Long/Short transition for one symbol. A
// target whose sign matches the held position is a hold; a differing
// sign closes the open trade and, for a non-flat target, opens a new
// one sized by the configured policy.
func (s *simulation) applyTarget(symbol string, target, price float64, ts time.Time) {
	pos := s.positions[symbol]
	currentSign := signOf(pos.Quantity)
	targetSign := signOf(target)
	if currentSign == targetSign {
		return
	}

	if currentSign != 0 {
		s.closePosition(symbol, price, ts, false)
	}
	if targetSign != 0 {
		s.openPosition(symbol, targetSign, math.Abs(target), price, ts)
	}
}

func (s *simulation) openPosition(symbol string, direction int, weight, price float64, ts time.Time) {
	quantity := s.baseQuantity(price) * weight
	commission := s.commission(quantity * price)
	clipped := false

	// Without leverage, an order that would overdraw cash is clipped to
	// the affordable size; a fully unaffordable one is recorded with
	// zero quantity and the run continues.
	if direction > 0 && !s.config.AllowLeverage {
		cost := quantity*price + commission
		if cost > s.cash {
			clipped = true
			quantity = s.affordableQuantity(price)
			if quantity < 0 {
				quantity = 0
			}
			commission = s.commission(quantity * price)
		}
	}

	trade := Trade{
		Symbol:     symbol,
		Quantity:   quantity,
		EntryTime:  ts,
		EntryPrice: price,
		Commission: commission,
		Clipped:    clipped,
	}
	if direction > 0 {
		trade.Side = SideLong
	} else {
		trade.Side = SideShort
	}

	if quantity == 0 {
		// rejected order: inert ledger entry, closed where it opened
		trade.ExitTime = ts
		trade.ExitPrice = price
		trade.Commission = 0
		s.trades = append(s.trades, trade)
		return
	}

	if direction > 0 {
		s.cash -= quantity*price + commission
	} else {
		s.cash += quantity*price - commission
	}

	s.positions[symbol] = Position{
		Quantity:   float64(direction) * quantity,
		EntryPrice: price,
	}
	s.openTrades[symbol] = len(s.trades)
	s.trades = append(s.trades, trade)
}

// closePosition exits the held position at the given price. Closes
// always execute, even when covering a losing short would take cash
// negative for the remainder of the run; refusing to exit would be
// worse than the overdraft, and the equity identity still holds.
func (s *simulation) closePosition(symbol string, price float64, ts time.Time, forced bool) {
	pos, ok := s.positions[symbol]
	if !ok || pos.Quantity == 0 {
		return
	}

	quantity := math.Abs(pos.Quantity)
	commission := s.commission(quantity * price)

	if pos.Quantity > 0 {
		s.cash += quantity*price - commission
	} else {
		s.cash -= quantity*price + commission
	}

	idx := s.openTrades[symbol]
	trade := &s.trades[idx]
	trade.ExitTime = ts
	trade.ExitPrice = price
	trade.Commission += commission
	trade.ForcedExit = forced
	if pos.Quantity > 0 {
		trade.PnL = (price-trade.EntryPrice)*quantity - trade.Commission
	} else {
		trade.PnL = (trade.EntryPrice-price)*quantity - trade.Commission
	}

	delete(s.positions, symbol)
	delete(s.openTrades, symbol)
}

func (s *simulation) forceClose(symbol string, price float64, ts time.Time) {
	s.closePosition(symbol, price, ts, true)
	s.marks[symbol] = price
}

func (s *simulation) mark(symbol string, close float64) {
	s.marks[symbol] = close
}

// equity is cash plus the mark-to-market value of all open positions.
func (s *simulation) equity() float64 {
	total := s.cash
	for symbol, pos := range s.positions {
		total += pos.Quantity * s.marks[symbol]
	}
	return total
}

func (s *simulation) recordEquity(ts time.Time) {
	equity := s.equity()
	exposure := 0.0
	if equity > 0 {
		notional := 0.0
		for symbol, pos := range s.positions {
			notional += math.Abs(pos.Quantity) * s.marks[symbol]
		}
		exposure = notional / equity
	}
	s.curve = append(s.curve, EquityPoint{
		Timestamp: ts,
		Equity:    equity,
		Cash:      s.cash,
		Exposure:  exposure,
	})
}

// rewriteLastEquity refreshes the final curve point after a force-close
// so the curve and the ledger agree on the terminal state.
func (s *simulation) rewriteLastEquity(ts time.Time) {
	if len(s.curve) == 0 {
		return
	}
	s.curve = s.curve[:len(s.curve)-1]
	s.recordEquity(ts)
}

func (s *simulation) baseQuantity(price float64) float64 {
	switch s.config.Sizing {
	case SizeFixedQuantity:
		return s.config.Quantity
	case SizeFixedNotional:
		return s.config.Notional / price
	case SizePercentOfEquity:
		equity := s.equity()
		if equity <= 0 {
			return 0
		}
		return s.config.EquityFraction * equity / price
	default:
		return 0
	}
}

// affordableQuantity is the largest long quantity the current cash can
// cover including its own commission.
func (s *simulation) affordableQuantity(price float64) float64 {
	switch s.config.CommissionModel {
	case CommissionFixed:
		return (s.cash - s.config.CommissionRate) / price
	default:
		return s.cash / (price * (1 + s.config.CommissionRate))
	}
}

func (s *simulation) commission(notional float64) float64 {
	switch s.config.CommissionModel {
	case CommissionFixed:
		return s.config.CommissionRate
	default:
		return math.Abs(notional) * s.config.CommissionRate
	}
}

func (s *simulation) result() *Result {
	portfolio := Portfolio{
		Cash:      s.cash,
		Positions: make(map[string]Position, len(s.positions)),
	}
	for symbol, pos := range s.positions {
		portfolio.Positions[symbol] = pos
	}

	final := s.config.InitialBalance
	if len(s.curve) > 0 {
		final = s.curve[len(s.curve)-1].Equity
	}

	return &Result{
		InitialBalance: s.config.InitialBalance,
		FinalEquity:    final,
		EquityCurve:    s.curve,
		Trades:         s.trades,
		Portfolio:      portfolio,
	}
}

func signOf(v float64) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
