package indicators

import (
	"errors"
	"math"

	"github.com/ducminhle1904/regime-backtest/pkg/types"
)

// RSI represents the Relative Strength Index technical indicator.
// Gains and losses are averaged with a plain rolling mean over the period.
type RSI struct {
	period    int
	lastValue float64
}

// NewRSI creates a new RSI indicator
func NewRSI(period int) *RSI {
	return &RSI{
		period: period,
	}
}

// Calculate calculates the RSI value at the end of the given history
func (r *RSI) Calculate(data []types.OHLCV) (float64, error) {
	series := r.Series(data)
	if len(series) == 0 || math.IsNaN(series[len(series)-1]) {
		return 0, errors.New("insufficient data for RSI calculation")
	}
	r.lastValue = series[len(series)-1]
	return r.lastValue, nil
}

// Series computes RSI for every bar; warm-up positions are NaN.
func (r *RSI) Series(data []types.OHLCV) []float64 {
	closes := types.Closes(data)
	gains := make([]float64, len(closes))
	losses := make([]float64, len(closes))
	for i := 1; i < len(closes); i++ {
		delta := closes[i] - closes[i-1]
		if delta > 0 {
			gains[i] = delta
		} else {
			losses[i] = -delta
		}
	}

	avgGain := RollingMean(gains, r.period)
	avgLoss := RollingMean(losses, r.period)

	out := nanSlice(len(closes))
	for i := range closes {
		if math.IsNaN(avgGain[i]) || math.IsNaN(avgLoss[i]) {
			continue
		}
		if avgLoss[i] == 0 {
			// no losses in window: fully overbought, or 50 on a flat window
			if avgGain[i] == 0 {
				out[i] = 50
			} else {
				out[i] = 100
			}
			continue
		}
		rs := avgGain[i] / avgLoss[i]
		out[i] = 100 - 100/(1+rs)
	}
	return out
}

// GetName returns the indicator name
func (r *RSI) GetName() string {
	return "RSI"
}

// GetRequiredPeriods returns the minimum number of periods needed
func (r *RSI) GetRequiredPeriods() int {
	return r.period + 1
}
