package types

import (
	"fmt"
	"math"
)

// NonFinitePolicy controls what happens when a bar carries a NaN or
// infinite price/volume value.
type NonFinitePolicy string

const (
	// NonFiniteHalt fails validation with the offending bar index.
	NonFiniteHalt NonFinitePolicy = "halt"
	// NonFiniteSkip drops the offending bar from the series.
	NonFiniteSkip NonFinitePolicy = "skip"
)

// ValidateSeries checks the structural invariants of a price series:
// strictly increasing timestamps, no duplicates, positive and consistent
// OHLC values. Ordering and duplicate violations are always fatal.
// Non-finite values are handled per policy; under NonFiniteSkip the
// returned series has the flagged bars removed and the second return
// value lists their indices in the original series.
func ValidateSeries(data []OHLCV, policy NonFinitePolicy) ([]OHLCV, []int, error) {
	if len(data) == 0 {
		return nil, nil, fmt.Errorf("empty price series")
	}

	var skipped []int
	out := make([]OHLCV, 0, len(data))

	for i, candle := range data {
		if i > 0 {
			prev := data[i-1].Timestamp
			if candle.Timestamp.Equal(prev) {
				return nil, nil, fmt.Errorf("duplicate timestamp %s at index %d", candle.Timestamp, i)
			}
			if candle.Timestamp.Before(prev) {
				return nil, nil, fmt.Errorf("unordered timestamp %s at index %d", candle.Timestamp, i)
			}
		}

		if !isFiniteBar(candle) {
			if policy == NonFiniteSkip {
				skipped = append(skipped, i)
				continue
			}
			return nil, nil, fmt.Errorf("non-finite value in bar at index %d (%s)", i, candle.Timestamp)
		}

		if candle.Open <= 0 || candle.High <= 0 || candle.Low <= 0 || candle.Close <= 0 {
			return nil, nil, fmt.Errorf("non-positive price at index %d", i)
		}
		if candle.High < candle.Low {
			return nil, nil, fmt.Errorf("high %.4f below low %.4f at index %d", candle.High, candle.Low, i)
		}
		if candle.High < candle.Open || candle.High < candle.Close {
			return nil, nil, fmt.Errorf("high %.4f below open/close at index %d", candle.High, i)
		}
		if candle.Low > candle.Open || candle.Low > candle.Close {
			return nil, nil, fmt.Errorf("low %.4f above open/close at index %d", candle.Low, i)
		}

		out = append(out, candle)
	}

	if len(out) == 0 {
		return nil, skipped, fmt.Errorf("all %d bars flagged non-finite", len(data))
	}
	return out, skipped, nil
}

func isFiniteBar(c OHLCV) bool {
	for _, v := range []float64{c.Open, c.High, c.Low, c.Close, c.Volume} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Closes extracts the close prices of a series.
func Closes(data []OHLCV) []float64 {
	out := make([]float64, len(data))
	for i, c := range data {
		out[i] = c.Close
	}
	return out
}

// Returns computes per-bar close-to-close returns. The first element is 0.
func Returns(data []OHLCV) []float64 {
	out := make([]float64, len(data))
	for i := 1; i < len(data); i++ {
		out[i] = data[i].Return(data[i-1])
	}
	return out
}
