package strategy

import (
	"time"

	"github.com/ducminhle1904/regime-backtest/pkg/types"
)

// Signal is a target position for one symbol at one bar: +1 long,
// -1 short, 0 flat. Continuous weights in between are allowed.
type Signal struct {
	Timestamp time.Time
	Target    float64
}

// Strategy defines the interface for single-symbol signal generators.
// Implementations return exactly one Signal per input bar, and a signal
// at bar t may only depend on bars at or before t.
type Strategy interface {
	// GenerateSignals analyzes the price series and returns the target
	// position series aligned to it.
	GenerateSignals(data []types.OHLCV) ([]Signal, error)

	// GetName returns the name of the strategy
	GetName() string

	// MinLookback returns the number of bars consumed as warm-up before
	// the first non-zero signal can appear.
	MinLookback() int
}

// PairSignal carries the two simultaneous leg targets of a pairs trade.
// LegA is ±1 when a spread position is open; LegB is the opposite sign
// scaled by the hedge ratio, so |LegB| is a quantity ratio per unit of
// leg A rather than a bounded weight.
type PairSignal struct {
	Timestamp time.Time
	LegA      float64
	LegB      float64
}

// PairStrategy is the two-symbol counterpart of Strategy.
type PairStrategy interface {
	// GenerateSignals consumes two aligned price series and returns one
	// PairSignal per bar.
	GenerateSignals(dataA, dataB []types.OHLCV) ([]PairSignal, error)

	GetName() string
	MinLookback() int
}
