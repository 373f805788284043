package indicators

import (
	"math"
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

// TestRollingMean tests warm-up NaN prefix and window values
func TestRollingMean(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5}

	out := RollingMean(values, 3)

	require.Len(t, out, 5)
	assert.True(t, math.IsNaN(out[0]))
	assert.True(t, math.IsNaN(out[1]))
	assert.InDelta(t, 2.0, out[2], 1e-12)
	assert.InDelta(t, 3.0, out[3], 1e-12)
	assert.InDelta(t, 4.0, out[4], 1e-12)
}

// TestRollingMean_NaNPropagates tests that a NaN in the window taints the output
func TestRollingMean_NaNPropagates(t *testing.T) {
	values := []float64{1, math.NaN(), 3, 4, 5, 6}

	out := RollingMean(values, 3)

	assert.True(t, math.IsNaN(out[2]))
	assert.True(t, math.IsNaN(out[3]))
	// window has moved past the NaN
	assert.InDelta(t, 5.0, out[5], 1e-12)
}

// TestRollingMean_ShortInput tests that inputs shorter than the window are all NaN
func TestRollingMean_ShortInput(t *testing.T) {
	out := RollingMean([]float64{1, 2}, 5)
	for _, v := range out {
		assert.True(t, math.IsNaN(v))
	}
}

// TestRollingStd tests sample standard deviation over the window
func TestRollingStd(t *testing.T) {
	values := []float64{2, 4, 4, 4, 5, 5, 7, 9}

	out := RollingStd(values, 8)

	require.Len(t, out, 8)
	assert.True(t, math.IsNaN(out[6]))
	// sample std of the full window
	assert.InDelta(t, 2.138, out[7], 0.001)
}

// TestRollingZScore_FlatWindow tests that a zero-deviation window scores 0
func TestRollingZScore_FlatWindow(t *testing.T) {
	values := []float64{5, 5, 5, 5, 5}

	out := RollingZScore(values, 3)

	assert.True(t, math.IsNaN(out[1]))
	assert.Equal(t, 0.0, out[2])
	assert.Equal(t, 0.0, out[4])
}

// TestRollingZScore tests standardization against the trailing window
func TestRollingZScore(t *testing.T) {
	values := []float64{1, 2, 3, 10}

	out := RollingZScore(values, 3)

	// window {2,3,10}: mean 5, sample std ~4.359
	assert.InDelta(t, (10.0-5.0)/4.3589, out[3], 0.001)
}

// TestTrailingReturn tests the n-bar trailing return
func TestTrailingReturn(t *testing.T) {
	prices := []float64{100, 110, 121, 133.1}

	out := TrailingReturn(prices, 2)

	assert.True(t, math.IsNaN(out[0]))
	assert.True(t, math.IsNaN(out[1]))
	assert.InDelta(t, 0.21, out[2], 1e-9)
	assert.InDelta(t, 0.21, out[3], 1e-9)
}

// TestSMA_Series tests the SMA series against hand-computed values
func TestSMA_Series(t *testing.T) {
	sma := NewSMA(2)
	bars := makeBars(10, 20, 30)

	out := sma.Series(bars)

	assert.True(t, math.IsNaN(out[0]))
	assert.InDelta(t, 15.0, out[1], 1e-12)
	assert.InDelta(t, 25.0, out[2], 1e-12)
}

// TestSMA_Calculate_InsufficientData tests the error path
func TestSMA_Calculate_InsufficientData(t *testing.T) {
	sma := NewSMA(5)
	_, err := sma.Calculate(makeBars(10, 20))
	assert.Error(t, err)
}

// TestRSI_AllGains tests that a pure up-move saturates at 100
func TestRSI_AllGains(t *testing.T) {
	rsi := NewRSI(3)
	bars := makeBars(100, 101, 102, 103, 104)

	out := rsi.Series(bars)

	assert.Equal(t, 100.0, out[len(out)-1])
}

// TestRSI_FlatSeries tests that a flat window reads 50
func TestRSI_FlatSeries(t *testing.T) {
	rsi := NewRSI(3)
	bars := makeBars(100, 100, 100, 100, 100)

	out := rsi.Series(bars)

	assert.Equal(t, 50.0, out[len(out)-1])
}

// TestRSI_MixedMoves tests a hand-computed mixed window
func TestRSI_MixedMoves(t *testing.T) {
	rsi := NewRSI(2)
	bars := makeBars(100, 102, 101)

	out := rsi.Series(bars)

	// window {gain 2, loss 1}: avg gain 1, avg loss 0.5, RS=2, RSI=66.67
	assert.InDelta(t, 66.667, out[2], 0.001)
}
