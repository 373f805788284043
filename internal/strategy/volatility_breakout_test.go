package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// calmBurstSeries ripples gently, bursts upward for a few bars, then
// calms down again.
func calmBurstSeries(length, burstStart, burstLen int) []float64 {
	closes := make([]float64, length)
	price := 100.0
	for i := range closes {
		switch {
		case i >= burstStart && i < burstStart+burstLen:
			price *= 1.05
		case i%2 == 0:
			price *= 1.001
		default:
			price /= 1.001
		}
		closes[i] = price
	}
	return closes
}

// TestNewVolatilityBreakout_Validation tests parameter validation
func TestNewVolatilityBreakout_Validation(t *testing.T) {
	_, err := NewVolatilityBreakout(VolatilityBreakoutConfig{Window: 1, Multiplier: 2})
	assert.Error(t, err)

	_, err = NewVolatilityBreakout(VolatilityBreakoutConfig{Window: 10, Multiplier: 1})
	assert.Error(t, err)

	_, err = NewVolatilityBreakout(VolatilityBreakoutConfig{Window: 10, BaselineWindow: 5, Multiplier: 2})
	assert.Error(t, err)

	_, err = NewVolatilityBreakout(DefaultVolatilityBreakoutConfig())
	assert.NoError(t, err)
}

// TestNewVolatilityBreakout_DefaultBaseline tests the 2x window default
func TestNewVolatilityBreakout_DefaultBaseline(t *testing.T) {
	strat, err := NewVolatilityBreakout(VolatilityBreakoutConfig{Window: 10, Multiplier: 2})
	require.NoError(t, err)
	assert.Equal(t, 30, strat.MinLookback())
}

// TestVolatilityBreakout_EntersOnSpike tests entry during a volatility
// burst and exit once volatility reverts
func TestVolatilityBreakout_EntersOnSpike(t *testing.T) {
	closes := calmBurstSeries(60, 30, 5)
	strat, err := NewVolatilityBreakout(VolatilityBreakoutConfig{Window: 3, BaselineWindow: 6, Multiplier: 1.5})
	require.NoError(t, err)

	signals, err := strat.GenerateSignals(makeBars(closes...))

	require.NoError(t, err)
	assert.Equal(t, 0.0, signals[25].Target, "calm market should be flat")
	assert.Equal(t, 1.0, signals[31].Target, "upward burst should be long")
	assert.Equal(t, 0.0, signals[55].Target, "reverted volatility should be flat")
}

// TestVolatilityBreakout_ShortDisabled tests that a downward burst
// stays flat when shorting is off
func TestVolatilityBreakout_ShortDisabled(t *testing.T) {
	closes := make([]float64, 60)
	price := 100.0
	for i := range closes {
		switch {
		case i >= 30 && i < 35:
			price *= 0.95
		case i%2 == 0:
			price *= 1.001
		default:
			price /= 1.001
		}
		closes[i] = price
	}
	data := makeBars(closes...)

	flat, err := NewVolatilityBreakout(VolatilityBreakoutConfig{Window: 3, BaselineWindow: 6, Multiplier: 1.5})
	require.NoError(t, err)
	signals, err := flat.GenerateSignals(data)
	require.NoError(t, err)
	assert.Equal(t, 0.0, signals[31].Target)

	short, err := NewVolatilityBreakout(VolatilityBreakoutConfig{Window: 3, BaselineWindow: 6, Multiplier: 1.5, AllowShort: true})
	require.NoError(t, err)
	signals, err = short.GenerateSignals(data)
	require.NoError(t, err)
	assert.Equal(t, -1.0, signals[31].Target)
}

// TestVolatilityBreakout_ShortInput tests that too-short input yields
// all-flat signals
func TestVolatilityBreakout_ShortInput(t *testing.T) {
	strat, err := NewVolatilityBreakout(DefaultVolatilityBreakoutConfig())
	require.NoError(t, err)

	signals, err := strat.GenerateSignals(makeBars(100, 101, 102))

	require.NoError(t, err)
	for _, s := range signals {
		assert.Equal(t, 0.0, s.Target)
	}
}
