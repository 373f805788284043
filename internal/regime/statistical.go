package regime

import (
	"math"

	"github.com/ducminhle1904/regime-backtest/internal/indicators"
	"github.com/ducminhle1904/regime-backtest/pkg/types"
)

// StatisticalConfig holds the threshold-rule detector parameters.
type StatisticalConfig struct {
	Window          int     `json:"window"`           // rolling window length in bars
	ReturnThreshold float64 `json:"return_threshold"` // ±bound on rolling mean return
	VolThreshold    float64 `json:"vol_threshold"`    // rolling volatility bound for highvol
}

// DefaultStatisticalConfig returns the detector defaults.
func DefaultStatisticalConfig() StatisticalConfig {
	return StatisticalConfig{
		Window:          20,
		ReturnThreshold: 0.001,
		VolThreshold:    0.025,
	}
}

// StatisticalDetector classifies bars by threshold rules over rolling
// return and rolling volatility. Deterministic and stateless per bar
// given the trailing window.
type StatisticalDetector struct {
	config StatisticalConfig
}

// NewStatisticalDetector creates a threshold-rule regime detector.
func NewStatisticalDetector(config StatisticalConfig) *StatisticalDetector {
	return &StatisticalDetector{config: config}
}

// MinLookback returns the bars needed before the first labelled bar.
func (d *StatisticalDetector) MinLookback() int {
	return d.config.Window
}

// Classify assigns one label per bar. A bar is bull when the rolling
// mean return exceeds +threshold, bear below -threshold, otherwise
// highvol when rolling volatility exceeds its bound, else sideways.
// Series shorter than the window come back all-unknown, not as an error.
func (d *StatisticalDetector) Classify(data []types.OHLCV) (*Detection, error) {
	labels := make([]Label, len(data))
	for i := range labels {
		labels[i] = LabelUnknown
	}

	if len(data) < d.config.Window+1 {
		return &Detection{Labels: labels}, nil
	}

	returns := types.Returns(data)
	rollingMean := indicators.RollingMean(returns, d.config.Window)
	rollingStd := indicators.RollingStd(returns, d.config.Window)

	for i := d.config.Window; i < len(data); i++ {
		mean := rollingMean[i]
		vol := rollingStd[i]
		if math.IsNaN(mean) || math.IsNaN(vol) {
			continue
		}

		switch {
		case mean > d.config.ReturnThreshold:
			labels[i] = LabelBull
		case mean < -d.config.ReturnThreshold:
			labels[i] = LabelBear
		case vol > d.config.VolThreshold:
			labels[i] = LabelHighVol
		default:
			labels[i] = LabelSideways
		}
	}

	return &Detection{Labels: labels}, nil
}
