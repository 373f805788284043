package strategy

import (
	"fmt"
	"math"

	"github.com/ducminhle1904/regime-backtest/internal/indicators"
	"github.com/ducminhle1904/regime-backtest/pkg/types"
)

// MovingAverageConfig holds the crossover parameters.
type MovingAverageConfig struct {
	ShortWindow int  `json:"short_window"`
	LongWindow  int  `json:"long_window"`
	AllowShort  bool `json:"allow_short"` // cross-down opens a short instead of going flat
}

// DefaultMovingAverageConfig returns the crossover defaults.
func DefaultMovingAverageConfig() MovingAverageConfig {
	return MovingAverageConfig{
		ShortWindow: 20,
		LongWindow:  50,
	}
}

// MovingAverageCross is the classic dual moving average trend follower.
// A crossing is a sign change of (short - long) between consecutive
// bars; bars where the averages merely touch do not flip the position.
type MovingAverageCross struct {
	config   MovingAverageConfig
	shortSMA *indicators.SMA
	longSMA  *indicators.SMA
}

// NewMovingAverageCross creates the strategy, validating its windows.
func NewMovingAverageCross(config MovingAverageConfig) (*MovingAverageCross, error) {
	if config.ShortWindow <= 0 {
		return nil, fmt.Errorf("short window must be positive, got: %d", config.ShortWindow)
	}
	if config.ShortWindow >= config.LongWindow {
		return nil, fmt.Errorf("short window (%d) must be less than long window (%d)",
			config.ShortWindow, config.LongWindow)
	}
	return &MovingAverageCross{
		config:   config,
		shortSMA: indicators.NewSMA(config.ShortWindow),
		longSMA:  indicators.NewSMA(config.LongWindow),
	}, nil
}

// GetName returns the name of the strategy
func (s *MovingAverageCross) GetName() string {
	return "MA Crossover"
}

// MinLookback returns the warm-up length.
func (s *MovingAverageCross) MinLookback() int {
	return s.config.LongWindow
}

// GenerateSignals emits the target position per bar. The position is
// seeded from the sign of (short - long) at the first bar where both
// averages exist, then flips only on sign changes.
func (s *MovingAverageCross) GenerateSignals(data []types.OHLCV) ([]Signal, error) {
	signals := make([]Signal, len(data))
	for i, c := range data {
		signals[i].Timestamp = c.Timestamp
	}
	if len(data) < s.config.LongWindow {
		return signals, nil
	}

	short := s.shortSMA.Series(data)
	long := s.longSMA.Series(data)

	downTarget := 0.0
	if s.config.AllowShort {
		downTarget = -1
	}

	position := 0.0
	prevSign := 0
	seeded := false
	for i := range data {
		if math.IsNaN(short[i]) || math.IsNaN(long[i]) {
			continue
		}
		sign := signOf(short[i] - long[i])

		if !seeded {
			seeded = true
			prevSign = sign
			if sign > 0 {
				position = 1
			} else if sign < 0 {
				position = downTarget
			}
			signals[i].Target = position
			continue
		}

		if sign > 0 && prevSign < 0 {
			position = 1
		} else if sign < 0 && prevSign > 0 {
			position = downTarget
		}
		if sign != 0 {
			prevSign = sign
		}
		signals[i].Target = position
	}

	return signals, nil
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
