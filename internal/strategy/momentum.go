package strategy

import (
	"fmt"
	"math"

	"github.com/ducminhle1904/regime-backtest/internal/indicators"
	"github.com/ducminhle1904/regime-backtest/pkg/types"
)

// MomentumConfig holds the trailing-return strategy parameters.
type MomentumConfig struct {
	Window     int     `json:"window"`       // trailing return lookback in bars
	Threshold  float64 `json:"threshold"`    // ±entry bound on the trailing return
	AllowShort bool    `json:"allow_short"`  // below -threshold opens a short instead of flat
	ExitInDead bool    `json:"exit_in_dead"` // dead zone goes flat instead of holding
}

// DefaultMomentumConfig returns the momentum defaults.
func DefaultMomentumConfig() MomentumConfig {
	return MomentumConfig{
		Window:    14,
		Threshold: 0.02,
	}
}

// Momentum buys strength and sells weakness: long when the trailing
// n-bar return exceeds +threshold, short or flat below -threshold. The
// dead zone between the bounds holds the previous signal unless
// ExitInDead is set.
type Momentum struct {
	config MomentumConfig
}

// NewMomentum creates the strategy, validating its parameters.
func NewMomentum(config MomentumConfig) (*Momentum, error) {
	if config.Window <= 0 {
		return nil, fmt.Errorf("momentum window must be positive, got: %d", config.Window)
	}
	if config.Threshold <= 0 {
		return nil, fmt.Errorf("momentum threshold must be positive, got: %.4f", config.Threshold)
	}
	return &Momentum{config: config}, nil
}

// GetName returns the name of the strategy
func (s *Momentum) GetName() string {
	return "Momentum"
}

// MinLookback returns the warm-up length.
func (s *Momentum) MinLookback() int {
	return s.config.Window
}

// GenerateSignals emits the target position per bar.
func (s *Momentum) GenerateSignals(data []types.OHLCV) ([]Signal, error) {
	signals := make([]Signal, len(data))
	for i, c := range data {
		signals[i].Timestamp = c.Timestamp
	}
	if len(data) < s.config.Window+1 {
		return signals, nil
	}

	momentum := indicators.TrailingReturn(types.Closes(data), s.config.Window)

	downTarget := 0.0
	if s.config.AllowShort {
		downTarget = -1
	}

	position := 0.0
	for i := range data {
		if math.IsNaN(momentum[i]) {
			continue
		}
		switch {
		case momentum[i] > s.config.Threshold:
			position = 1
		case momentum[i] < -s.config.Threshold:
			position = downTarget
		case s.config.ExitInDead:
			position = 0
		}
		signals[i].Target = position
	}

	return signals, nil
}
