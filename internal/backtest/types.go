package backtest

import (
	"fmt"
	"time"
)

// ExecutionTiming fixes which bar a signal transition fills on. The
// convention materially affects results, so it is configuration, not a
// constant.
type ExecutionTiming string

const (
	// NextBarOpen fills a transition decided on bar t at bar t+1's open.
	NextBarOpen ExecutionTiming = "next-bar-open"
	// SameBarClose fills a transition at the close of the signal bar.
	SameBarClose ExecutionTiming = "same-bar-close"
)

// CommissionModel selects how commission is charged per fill.
type CommissionModel string

const (
	CommissionPercentage CommissionModel = "percentage" // rate * notional
	CommissionFixed      CommissionModel = "fixed"      // flat amount per fill
)

// SizingPolicy selects how the entry quantity is derived.
type SizingPolicy string

const (
	SizeFixedQuantity   SizingPolicy = "fixed-quantity"
	SizeFixedNotional   SizingPolicy = "fixed-notional"
	SizePercentOfEquity SizingPolicy = "percent-of-equity"
)

// Config drives one backtest run.
type Config struct {
	InitialBalance  float64         `json:"initial_balance"`
	Timing          ExecutionTiming `json:"execution_timing"`
	CommissionModel CommissionModel `json:"commission_model"`
	CommissionRate  float64         `json:"commission_rate"` // fraction of notional, or flat amount
	Sizing          SizingPolicy    `json:"sizing_policy"`
	Quantity        float64         `json:"quantity"`        // fixed-quantity
	Notional        float64         `json:"notional"`        // fixed-notional
	EquityFraction  float64         `json:"equity_fraction"` // percent-of-equity
	AllowLeverage   bool            `json:"allow_leverage"`
	ForceCloseAtEnd bool            `json:"force_close_at_end"`
}

// DefaultConfig returns a conservative run configuration.
func DefaultConfig() Config {
	return Config{
		InitialBalance:  100000,
		Timing:          NextBarOpen,
		CommissionModel: CommissionPercentage,
		CommissionRate:  0.001,
		Sizing:          SizePercentOfEquity,
		EquityFraction:  0.95,
	}
}

// Validate rejects contradictory or out-of-range parameters before any
// simulation begins.
func (c Config) Validate() error {
	if c.InitialBalance <= 0 {
		return fmt.Errorf("initial balance must be positive, got: %.2f", c.InitialBalance)
	}
	switch c.Timing {
	case NextBarOpen, SameBarClose:
	default:
		return fmt.Errorf("unknown execution timing: %q", c.Timing)
	}
	switch c.CommissionModel {
	case CommissionPercentage:
		if c.CommissionRate < 0 || c.CommissionRate >= 1 {
			return fmt.Errorf("percentage commission rate must be within [0, 1), got: %.4f", c.CommissionRate)
		}
	case CommissionFixed:
		if c.CommissionRate < 0 {
			return fmt.Errorf("fixed commission must be non-negative, got: %.4f", c.CommissionRate)
		}
	default:
		return fmt.Errorf("unknown commission model: %q", c.CommissionModel)
	}
	switch c.Sizing {
	case SizeFixedQuantity:
		if c.Quantity <= 0 {
			return fmt.Errorf("fixed quantity must be positive, got: %.4f", c.Quantity)
		}
	case SizeFixedNotional:
		if c.Notional <= 0 {
			return fmt.Errorf("fixed notional must be positive, got: %.2f", c.Notional)
		}
	case SizePercentOfEquity:
		if c.EquityFraction <= 0 || c.EquityFraction > 1 {
			return fmt.Errorf("equity fraction must be within (0, 1], got: %.4f", c.EquityFraction)
		}
	default:
		return fmt.Errorf("unknown sizing policy: %q", c.Sizing)
	}
	return nil
}

// Side of a trade.
type Side int

const (
	SideLong Side = iota + 1
	SideShort
)

func (s Side) String() string {
	switch s {
	case SideLong:
		return "LONG"
	case SideShort:
		return "SHORT"
	default:
		return "UNKNOWN"
	}
}

// Trade is one round trip (or an open position at end of data). A trade
// is open iff ExitTime is the zero time; PnL and ExitPrice are only
// meaningful once closed. Clipped marks an entry that was cut down to
// the affordable size because leverage is not permitted; a fully
// rejected order is recorded with zero quantity. ForcedExit marks a
// close performed by the force-close-at-end policy rather than a signal.
type Trade struct {
	Symbol     string
	Side       Side
	Quantity   float64
	EntryTime  time.Time
	ExitTime   time.Time
	EntryPrice float64
	ExitPrice  float64
	Commission float64
	PnL        float64
	Clipped    bool
	ForcedExit bool
}

// IsOpen reports whether the trade is still open.
func (t Trade) IsOpen() bool {
	return t.ExitTime.IsZero()
}

// EquityPoint is one mark-to-market observation of the portfolio.
type EquityPoint struct {
	Timestamp time.Time
	Equity    float64
	Cash      float64
	Exposure  float64 // absolute open notional / equity
}

/// Position is an open holding in one symbol. Quantity is signed:
// positive long, negative short.
type Position struct {
	Quantity   float64
	EntryPrice float64
}

// Portfolio is the authoritative cash/position state of one run. It is
// owned and mutated only by the executor; runs never share one.
type Portfolio struct {
	Cash      float64
	Positions map[string]Position
}

// Result is the output of one backtest run.
type Result struct {
	InitialBalance float64
	FinalEquity    float64
	EquityCurve    []EquityPoint
	Trades         []Trade
	Portfolio      Portfolio
}

// ClosedTrades returns the executed round trips, excluding open trades
// and zero-quantity rejected orders.
func (r *Result) ClosedTrades() []Trade {
	out := make([]Trade, 0, len(r.Trades))
	for _, t := range r.Trades {
		if !t.IsOpen() && t.Quantity > 0 {
			out = append(out, t)
		}
	}
	return out
}
