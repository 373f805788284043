package strategy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ducminhle1904/regime-backtest/pkg/types"
)

func makeBars(closes ...float64) []types.OHLCV {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]types.OHLCV, len(closes))
	for i, c := range closes {
		bars[i] = types.OHLCV{
			Open: c, High: c, Low: c, Close: c, Volume: 1000,
			Timestamp: start.Add(time.Duration(i) * time.Hour),
		}
	}
	return bars
}

func risingSeries(length int) []types.OHLCV {
	closes := make([]float64, length)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	return makeBars(closes...)
}

// TestNewMovingAverageCross_Validation tests window validation
func TestNewMovingAverageCross_Validation(t *testing.T) {
	_, err := NewMovingAverageCross(MovingAverageConfig{ShortWindow: 0, LongWindow: 10})
	assert.Error(t, err)

	_, err = NewMovingAverageCross(MovingAverageConfig{ShortWindow: 10, LongWindow: 10})
	assert.Error(t, err)

	_, err = NewMovingAverageCross(MovingAverageConfig{ShortWindow: 5, LongWindow: 10})
	assert.NoError(t, err)
}

// TestMovingAverageCross_MonotoneSeries tests that a strictly rising
// series holds a long position and never exits
func TestMovingAverageCross_MonotoneSeries(t *testing.T) {
	strat, err := NewMovingAverageCross(MovingAverageConfig{ShortWindow: 2, LongWindow: 5})
	require.NoError(t, err)
	data := risingSeries(50)

	signals, err := strat.GenerateSignals(data)

	require.NoError(t, err)
	require.Len(t, signals, 50)
	for i := strat.MinLookback(); i < len(signals); i++ {
		assert.Equal(t, 1.0, signals[i].Target, "expected long at bar %d", i)
	}
}

// TestMovingAverageCross_RoundTrip tests a rally followed by a decline:
// one long entry, then a flip to flat on the cross-down
func TestMovingAverageCross_RoundTrip(t *testing.T) {
	closes := make([]float64, 80)
	price := 100.0
	for i := range closes {
		if i < 40 {
			price += 2
		} else {
			price -= 2
		}
		closes[i] = price
	}
	strat, err := NewMovingAverageCross(MovingAverageConfig{ShortWindow: 3, LongWindow: 8})
	require.NoError(t, err)

	signals, err := strat.GenerateSignals(makeBars(closes...))

	require.NoError(t, err)
	assert.Equal(t, 1.0, signals[30].Target)
	assert.Equal(t, 0.0, signals[70].Target)
}

// TestMovingAverageCross_AllowShort tests that cross-downs open shorts
func TestMovingAverageCross_AllowShort(t *testing.T) {
	closes := make([]float64, 80)
	price := 100.0
	for i := range closes {
		if i < 40 {
			price += 2
		} else {
			price -= 2
		}
		closes[i] = price
	}
	strat, err := NewMovingAverageCross(MovingAverageConfig{ShortWindow: 3, LongWindow: 8, AllowShort: true})
	require.NoError(t, err)

	signals, err := strat.GenerateSignals(makeBars(closes...))

	require.NoError(t, err)
	assert.Equal(t, 1.0, signals[30].Target)
	assert.Equal(t, -1.0, signals[70].Target)
}

// TestMovingAverageCross_ShortInput tests that too-short input yields
// all-flat signals
func TestMovingAverageCross_ShortInput(t *testing.T) {
	strat, err := NewMovingAverageCross(MovingAverageConfig{ShortWindow: 5, LongWindow: 20})
	require.NoError(t, err)

	signals, err := strat.GenerateSignals(risingSeries(10))

	require.NoError(t, err)
	for _, s := range signals {
		assert.Equal(t, 0.0, s.Target)
	}
}

// TestMovingAverageCross_NoLookAhead tests that truncating the series
// never changes signals already emitted
func TestMovingAverageCross_NoLookAhead(t *testing.T) {
	closes := make([]float64, 120)
	price := 100.0
	for i := range closes {
		if i%30 < 15 {
			price += 1.5
		} else {
			price -= 1.5
		}
		closes[i] = price
	}
	data := makeBars(closes...)
	strat, err := NewMovingAverageCross(MovingAverageConfig{ShortWindow: 4, LongWindow: 10})
	require.NoError(t, err)

	full, err := strat.GenerateSignals(data)
	require.NoError(t, err)

	for _, cut := range []int{30, 60, 119} {
		truncated, err := strat.GenerateSignals(data[:cut])
		require.NoError(t, err)
		assert.Equal(t, full[:cut], truncated, "signals diverge when truncated at %d", cut)
	}
}
