package strategy

import (
	"fmt"
	"math"

	"github.com/ducminhle1904/regime-backtest/internal/indicators"
	"github.com/ducminhle1904/regime-backtest/pkg/types"
)

// PairsConfig holds the market-neutral spread parameters. ExitZ must be
// closer to zero than EntryZ so a closed position does not immediately
// re-enter. MinCorrelation optionally gates entries on the rolling
// correlation of the two legs.
type PairsConfig struct {
	CalibrationWindow int     `json:"calibration_window"` // OLS hedge-ratio lookback
	ZScoreWindow      int     `json:"zscore_window"`      // spread z-score lookback
	EntryZ            float64 `json:"entry_z"`
	ExitZ             float64 `json:"exit_z"`
	MinCorrelation    float64 `json:"min_correlation"` // 0 disables the gate
}

// DefaultPairsConfig returns the pairs defaults.
func DefaultPairsConfig() PairsConfig {
	return PairsConfig{
		CalibrationWindow: 30,
		ZScoreWindow:      30,
		EntryZ:            2.0,
		ExitZ:             0.5,
	}
}

// PairsTrading trades the spread between two correlated symbols. The
// hedge ratio comes from a rolling ordinary-least-squares regression of
// leg A on leg B over the calibration window, a documented stand-in for
// a full cointegration test. The spread A - beta*B is z-scored over a
// rolling window; positions open when |z| exceeds EntryZ and close when
// it reverts inside ExitZ. The hedge ratio is frozen at entry so the
// open position's leg ratio does not drift.
type PairsTrading struct {
	config PairsConfig
}

// NewPairsTrading creates the strategy, validating its parameters.
func NewPairsTrading(config PairsConfig) (*PairsTrading, error) {
	if config.CalibrationWindow <= 1 {
		return nil, fmt.Errorf("calibration window must be greater than 1, got: %d", config.CalibrationWindow)
	}
	if config.ZScoreWindow <= 1 {
		return nil, fmt.Errorf("zscore window must be greater than 1, got: %d", config.ZScoreWindow)
	}
	if config.ExitZ < 0 {
		return nil, fmt.Errorf("exit z-score must be non-negative, got: %.2f", config.ExitZ)
	}
	if config.EntryZ <= config.ExitZ {
		return nil, fmt.Errorf("entry z-score (%.2f) must be greater than exit z-score (%.2f)",
			config.EntryZ, config.ExitZ)
	}
	if config.MinCorrelation < 0 || config.MinCorrelation > 1 {
		return nil, fmt.Errorf("min correlation must be within [0, 1], got: %.2f", config.MinCorrelation)
	}
	return &PairsTrading{config: config}, nil
}

// GetName returns the name of the strategy
func (s *PairsTrading) GetName() string {
	return "Pairs Trading"
}

// MinLookback returns the warm-up length.
func (s *PairsTrading) MinLookback() int {
	return s.config.CalibrationWindow + s.config.ZScoreWindow
}

// GenerateSignals emits one PairSignal per bar. The two series must be
// aligned bar for bar.
func (s *PairsTrading) GenerateSignals(dataA, dataB []types.OHLCV) ([]PairSignal, error) {
	if len(dataA) != len(dataB) {
		return nil, fmt.Errorf("leg series length mismatch: %d vs %d", len(dataA), len(dataB))
	}
	for i := range dataA {
		if !dataA[i].Timestamp.Equal(dataB[i].Timestamp) {
			return nil, fmt.Errorf("leg timestamps diverge at index %d", i)
		}
	}

	signals := make([]PairSignal, len(dataA))
	for i, c := range dataA {
		signals[i].Timestamp = c.Timestamp
	}
	if len(dataA) < s.MinLookback() {
		return signals, nil
	}

	closesA := types.Closes(dataA)
	closesB := types.Closes(dataB)

	betas := s.HedgeRatios(dataA, dataB)
	spread := make([]float64, len(dataA))
	for i := range spread {
		if math.IsNaN(betas[i]) {
			spread[i] = math.NaN()
			continue
		}
		spread[i] = closesA[i] - betas[i]*closesB[i]
	}

	zscore := indicators.RollingZScore(spread, s.config.ZScoreWindow)

	var correlation []float64
	if s.config.MinCorrelation > 0 {
		correlation = rollingCorrelation(closesA, closesB, s.config.CalibrationWindow)
	}

	position := 0.0 // +1 long spread, -1 short spread
	entryBeta := 0.0
	for i := range dataA {
		z := zscore[i]
		if math.IsNaN(z) {
			continue
		}

		if position == 0 {
			if correlation != nil && (math.IsNaN(correlation[i]) || math.Abs(correlation[i]) < s.config.MinCorrelation) {
				continue
			}
			if z > s.config.EntryZ {
				position = -1 // spread rich: short A, long B
				entryBeta = betas[i]
			} else if z < -s.config.EntryZ {
				position = 1 // spread cheap: long A, short B
				entryBeta = betas[i]
			}
		} else if math.Abs(z) < s.config.ExitZ {
			position = 0
		}

		signals[i].LegA = position
		signals[i].LegB = -position * entryBeta
	}

	return signals, nil
}

// HedgeRatios returns the rolling OLS slope of leg A regressed on leg B
// at every bar, NaN during warm-up. Each ratio uses only bars at or
// before its own index.
func (s *PairsTrading) HedgeRatios(dataA, dataB []types.OHLCV) []float64 {
	closesA := types.Closes(dataA)
	closesB := types.Closes(dataB)
	window := s.config.CalibrationWindow

	betas := make([]float64, len(dataA))
	for i := range betas {
		betas[i] = math.NaN()
	}
	for i := window - 1; i < len(closesA); i++ {
		beta, _, ok := olsFit(closesA[i-window+1:i+1], closesB[i-window+1:i+1])
		if ok {
			betas[i] = beta
		}
	}
	return betas
}

// olsFit regresses y on x and returns the slope and intercept. ok is
// false when x has zero variance.
func olsFit(y, x []float64) (beta, alpha float64, ok bool) {
	n := float64(len(x))
	var sumX, sumY float64
	for i := range x {
		sumX += x[i]
		sumY += y[i]
	}
	meanX := sumX / n
	meanY := sumY / n

	var covXY, varX float64
	for i := range x {
		dx := x[i] - meanX
		covXY += dx * (y[i] - meanY)
		varX += dx * dx
	}
	if varX == 0 {
		return 0, 0, false
	}
	beta = covXY / varX
	alpha = meanY - beta*meanX
	return beta, alpha, true
}

func rollingCorrelation(a, b []float64, window int) []float64 {
	out := make([]float64, len(a))
	for i := range out {
		out[i] = math.NaN()
	}
	for i := window - 1; i < len(a); i++ {
		out[i] = correlation(a[i-window+1:i+1], b[i-window+1:i+1])
	}
	return out
}

func correlation(a, b []float64) float64 {
	n := float64(len(a))
	var sumA, sumB float64
	for i := range a {
		sumA += a[i]
		sumB += b[i]
	}
	meanA := sumA / n
	meanB := sumB / n

	var cov, varA, varB float64
	for i := range a {
		da := a[i] - meanA
		db := b[i] - meanB
		cov += da * db
		varA += da * da
		varB += db * db
	}
	if varA == 0 || varB == 0 {
		return math.NaN()
	}
	return cov / math.Sqrt(varA*varB)
}
