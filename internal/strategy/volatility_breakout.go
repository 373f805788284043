package strategy

import (
	"fmt"
	"math"

	"github.com/ducminhle1904/regime-backtest/internal/indicators"
	"github.com/ducminhle1904/regime-backtest/pkg/types"
)

// VolatilityBreakoutConfig holds the breakout parameters. The baseline
// is a longer rolling mean of the volatility itself; BaselineWindow
// defaults to twice the volatility window when left zero.
type VolatilityBreakoutConfig struct {
	Window         int     `json:"window"`          // rolling volatility window
	BaselineWindow int     `json:"baseline_window"` // rolling baseline window, 0 = 2*Window
	Multiplier     float64 `json:"multiplier"`      // entry when vol > baseline*multiplier
	AllowShort     bool    `json:"allow_short"`     // down moves open shorts instead of staying flat
}

// DefaultVolatilityBreakoutConfig returns the breakout defaults.
func DefaultVolatilityBreakoutConfig() VolatilityBreakoutConfig {
	return VolatilityBreakoutConfig{
		Window:     20,
		Multiplier: 2.0,
		AllowShort: true,
	}
}

// VolatilityBreakout enters when rolling volatility spikes past a
// multiple of its own longer-run baseline, in the direction of the
// concurrent price move, and exits once volatility reverts below the
// baseline.
type VolatilityBreakout struct {
	config VolatilityBreakoutConfig
}

// NewVolatilityBreakout creates the strategy, validating its parameters.
func NewVolatilityBreakout(config VolatilityBreakoutConfig) (*VolatilityBreakout, error) {
	if config.Window <= 1 {
		return nil, fmt.Errorf("volatility window must be greater than 1, got: %d", config.Window)
	}
	if config.Multiplier <= 1 {
		return nil, fmt.Errorf("volatility multiplier must be greater than 1, got: %.2f", config.Multiplier)
	}
	if config.BaselineWindow == 0 {
		config.BaselineWindow = config.Window * 2
	}
	if config.BaselineWindow < config.Window {
		return nil, fmt.Errorf("baseline window (%d) must be at least the volatility window (%d)",
			config.BaselineWindow, config.Window)
	}
	return &VolatilityBreakout{config: config}, nil
}

// GetName returns the name of the strategy
func (s *VolatilityBreakout) GetName() string {
	return "Volatility Breakout"
}

// MinLookback returns the warm-up length.
func (s *VolatilityBreakout) MinLookback() int {
	return s.config.Window + s.config.BaselineWindow
}

// GenerateSignals emits the target position per bar.
func (s *VolatilityBreakout) GenerateSignals(data []types.OHLCV) ([]Signal, error) {
	signals := make([]Signal, len(data))
	for i, c := range data {
		signals[i].Timestamp = c.Timestamp
	}
	if len(data) < s.MinLookback() {
		return signals, nil
	}

	returns := types.Returns(data)
	volatility := indicators.RollingStd(returns, s.config.Window)
	baseline := indicators.RollingMean(volatility, s.config.BaselineWindow)

	position := 0.0
	for i := range data {
		vol := volatility[i]
		base := baseline[i]
		if math.IsNaN(vol) || math.IsNaN(base) {
			continue
		}

		if position == 0 {
			if base > 0 && vol > base*s.config.Multiplier {
				if returns[i] > 0 {
					position = 1
				} else if returns[i] < 0 && s.config.AllowShort {
					position = -1
				}
			}
		} else if vol < base {
			position = 0
		}
		signals[i].Target = position
	}

	return signals, nil
}
