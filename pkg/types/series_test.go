package types

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeBars(closes ...float64) []OHLCV {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]OHLCV, len(closes))
	for i, c := range closes {
		bars[i] = OHLCV{
			Open:      c,
			High:      c,
			Low:       c,
			Close:     c,
			Volume:    1000,
			Timestamp: start.Add(time.Duration(i) * time.Hour),
		}
	}
	return bars
}

// TestValidateSeries_Valid tests that a clean series passes unchanged
func TestValidateSeries_Valid(t *testing.T) {
	bars := makeBars(100, 101, 102, 103)

	out, skipped, err := ValidateSeries(bars, NonFiniteHalt)

	require.NoError(t, err)
	assert.Empty(t, skipped)
	assert.Equal(t, bars, out)
}

// TestValidateSeries_Empty tests that an empty series is rejected
func TestValidateSeries_Empty(t *testing.T) {
	_, _, err := ValidateSeries(nil, NonFiniteHalt)
	assert.Error(t, err)
}

// TestValidateSeries_UnorderedTimestamps tests that out-of-order bars are always fatal
func TestValidateSeries_UnorderedTimestamps(t *testing.T) {
	bars := makeBars(100, 101, 102)
	bars[2].Timestamp = bars[0].Timestamp.Add(-time.Hour)

	for _, policy := range []NonFinitePolicy{NonFiniteHalt, NonFiniteSkip} {
		_, _, err := ValidateSeries(bars, policy)
		assert.ErrorContains(t, err, "unordered timestamp")
	}
}

// TestValidateSeries_DuplicateTimestamps tests that duplicate bars are always fatal
func TestValidateSeries_DuplicateTimestamps(t *testing.T) {
	bars := makeBars(100, 101, 102)
	bars[2].Timestamp = bars[1].Timestamp

	_, _, err := ValidateSeries(bars, NonFiniteSkip)
	assert.ErrorContains(t, err, "duplicate timestamp")
}

// TestValidateSeries_NonFiniteHalt tests that NaN values fail under the halt policy
func TestValidateSeries_NonFiniteHalt(t *testing.T) {
	bars := makeBars(100, 101, 102)
	bars[1].Close = math.NaN()

	_, _, err := ValidateSeries(bars, NonFiniteHalt)
	assert.ErrorContains(t, err, "non-finite")
}

// TestValidateSeries_NonFiniteSkip tests that flagged bars are dropped under skip
func TestValidateSeries_NonFiniteSkip(t *testing.T) {
	bars := makeBars(100, 101, 102, 103)
	bars[1].Close = math.NaN()
	bars[2].Volume = math.Inf(1)

	out, skipped, err := ValidateSeries(bars, NonFiniteSkip)

	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, skipped)
	require.Len(t, out, 2)
	assert.Equal(t, 100.0, out[0].Close)
	assert.Equal(t, 103.0, out[1].Close)
}

// TestValidateSeries_AllNonFinite tests that skipping everything is an error
func TestValidateSeries_AllNonFinite(t *testing.T) {
	bars := makeBars(100, 101)
	bars[0].Close = math.NaN()
	bars[1].Close = math.NaN()

	_, _, err := ValidateSeries(bars, NonFiniteSkip)
	assert.Error(t, err)
}

// TestValidateSeries_InconsistentOHLC tests the high/low consistency checks
func TestValidateSeries_InconsistentOHLC(t *testing.T) {
	bars := makeBars(100, 101)
	bars[1].High = 90 // below close

	_, _, err := ValidateSeries(bars, NonFiniteHalt)
	assert.Error(t, err)
}

// TestValidateSeries_NonPositivePrice tests that zero prices are rejected
func TestValidateSeries_NonPositivePrice(t *testing.T) {
	bars := makeBars(100, 101)
	bars[0].Low = 0
	bars[0].Open = 0

	_, _, err := ValidateSeries(bars, NonFiniteHalt)
	assert.ErrorContains(t, err, "non-positive price")
}

// TestReturns tests close-to-close return computation
func TestReturns(t *testing.T) {
	bars := makeBars(100, 110, 99)

	returns := Returns(bars)

	require.Len(t, returns, 3)
	assert.Equal(t, 0.0, returns[0])
	assert.InDelta(t, 0.10, returns[1], 1e-12)
	assert.InDelta(t, -0.10, returns[2], 1e-12)
}
