package indicators

import "math"

// Rolling window statistics over plain float series. Positions with fewer
// than window prior values are NaN so callers can align warm-up handling
// with the bar index exactly.

// RollingMean computes the mean of the trailing window ending at each
// index. A NaN anywhere in the window propagates to the output, so
// chaining rolling statistics keeps warm-up prefixes aligned.
func RollingMean(values []float64, window int) []float64 {
	out := nanSlice(len(values))
	if window <= 0 || len(values) < window {
		return out
	}
	for i := window - 1; i < len(values); i++ {
		sum := 0.0
		for _, v := range values[i-window+1 : i+1] {
			sum += v
		}
		out[i] = sum / float64(window)
	}
	return out
}

// RollingStd computes the sample standard deviation of the trailing window.
func RollingStd(values []float64, window int) []float64 {
	out := nanSlice(len(values))
	if window <= 1 || len(values) < window {
		return out
	}
	for i := window - 1; i < len(values); i++ {
		out[i] = stdDev(values[i-window+1 : i+1])
	}
	return out
}

// RollingZScore standardizes each value against its trailing window.
// A zero-deviation window yields 0, not NaN, so lockstep series score flat.
func RollingZScore(values []float64, window int) []float64 {
	out := nanSlice(len(values))
	means := RollingMean(values, window)
	stds := RollingStd(values, window)
	for i := range values {
		if math.IsNaN(means[i]) || math.IsNaN(stds[i]) {
			continue
		}
		if stds[i] == 0 {
			out[i] = 0
			continue
		}
		out[i] = (values[i] - means[i]) / stds[i]
	}
	return out
}

// TrailingReturn computes the n-bar trailing return of a price series.
func TrailingReturn(prices []float64, n int) []float64 {
	out := nanSlice(len(prices))
	for i := n; i < len(prices); i++ {
		if prices[i-n] != 0 {
			out[i] = (prices[i] - prices[i-n]) / prices[i-n]
		}
	}
	return out
}

func stdDev(window []float64) float64 {
	mean := 0.0
	for _, v := range window {
		mean += v
	}
	mean /= float64(len(window))

	variance := 0.0
	for _, v := range window {
		d := v - mean
		variance += d * d
	}
	return math.Sqrt(variance / float64(len(window)-1))
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
