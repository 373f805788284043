package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/ducminhle1904/regime-backtest/internal/backtest"
	"github.com/ducminhle1904/regime-backtest/internal/regime"
	"github.com/ducminhle1904/regime-backtest/internal/strategy"
	"github.com/ducminhle1904/regime-backtest/pkg/types"
)

// Regime detection methods accepted in RegimeConfig.Method.
const (
	MethodStatistical = "statistical"
	MethodClustering  = "clustering"
	MethodNone        = "none"
)

// Strategy names accepted in StrategyConfig.Name.
const (
	StrategyMovingAverage      = "moving_average"
	StrategyMomentum           = "momentum"
	StrategyVolatilityBreakout = "volatility_breakout"
	StrategyPairs              = "pairs"
)

// RunConfig is the nested configuration for one backtest run.
type RunConfig struct {
	Data     DataConfig      `json:"data"`
	Regime   RegimeConfig    `json:"regime"`
	Strategy StrategyConfig  `json:"strategy"`
	Backtest backtest.Config `json:"backtest"`
	Metrics  MetricsConfig   `json:"metrics"`
	Report   ReportConfig    `json:"report"`
}

// DataConfig names the input series. PairSymbol and PairDataFile are
// only required by the pairs strategy.
type DataConfig struct {
	Symbol          string                `json:"symbol"`
	DataFile        string                `json:"data_file"`
	PairSymbol      string                `json:"pair_symbol,omitempty"`
	PairDataFile    string                `json:"pair_data_file,omitempty"`
	NonFinitePolicy types.NonFinitePolicy `json:"non_finite_policy"`
	CacheTTLSeconds int                   `json:"cache_ttl_seconds"`
}

// RegimeConfig selects a detection method. The section matching Method
// is required; the other may be omitted.
type RegimeConfig struct {
	Method      string                    `json:"method"`
	Statistical *regime.StatisticalConfig `json:"statistical,omitempty"`
	Clustering  *regime.KMeansConfig      `json:"clustering,omitempty"`
}

// StrategyConfig selects a strategy. The section matching Name is
// required; the others may be omitted.
type StrategyConfig struct {
	Name               string                               `json:"name"`
	MovingAverage      *strategy.MovingAverageConfig        `json:"moving_average,omitempty"`
	Momentum           *strategy.MomentumConfig             `json:"momentum,omitempty"`
	VolatilityBreakout *strategy.VolatilityBreakoutConfig   `json:"volatility_breakout,omitempty"`
	Pairs              *strategy.PairsConfig                `json:"pairs,omitempty"`
}

// MetricsConfig holds the annualization parameters.
type MetricsConfig struct {
	BarsPerYear  float64 `json:"bars_per_year"`
	RiskFreeRate float64 `json:"risk_free_rate"`
}

// ReportConfig selects output targets. Console output is always on;
// CSV and Excel exports run only when a path is configured.
type ReportConfig struct {
	CSVDir    string `json:"csv_dir,omitempty"`
	ExcelFile string `json:"excel_file,omitempty"`
}

// DefaultRunConfig returns a runnable configuration for a single-asset
// moving-average run; only the data file needs filling in.
func DefaultRunConfig() RunConfig {
	statistical := regime.DefaultStatisticalConfig()
	movingAverage := strategy.DefaultMovingAverageConfig()
	return RunConfig{
		Data: DataConfig{
			NonFinitePolicy: types.NonFiniteHalt,
			CacheTTLSeconds: 300,
		},
		Regime: RegimeConfig{
			Method:      MethodStatistical,
			Statistical: &statistical,
		},
		Strategy: StrategyConfig{
			Name:          StrategyMovingAverage,
			MovingAverage: &movingAverage,
		},
		Backtest: backtest.DefaultConfig(),
		Metrics: MetricsConfig{
			BarsPerYear:  252,
			RiskFreeRate: 0,
		},
	}
}

// Load reads a run configuration from a JSON file, fills defaults for
// omitted sections, and validates eagerly so a bad parameter fails
// before any data is touched.
func Load(path string) (*RunConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	cfg := DefaultRunConfig()
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	if err := cfg.Finalize(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &cfg, nil
}

// Finalize fills defaults for the selected sections and validates the
// result. Callers that assemble a RunConfig in code use this instead
// of Load.
func (c *RunConfig) Finalize() error {
	c.applyDefaults()
	return c.Validate()
}

// applyDefaults fills sections the file selected but left empty.
func (c *RunConfig) applyDefaults() {
	if c.Data.NonFinitePolicy == "" {
		c.Data.NonFinitePolicy = types.NonFiniteHalt
	}
	if c.Regime.Method == MethodStatistical && c.Regime.Statistical == nil {
		statistical := regime.DefaultStatisticalConfig()
		c.Regime.Statistical = &statistical
	}
	if c.Regime.Method == MethodClustering && c.Regime.Clustering == nil {
		clustering := regime.DefaultKMeansConfig()
		c.Regime.Clustering = &clustering
	}
	switch c.Strategy.Name {
	case StrategyMovingAverage:
		if c.Strategy.MovingAverage == nil {
			movingAverage := strategy.DefaultMovingAverageConfig()
			c.Strategy.MovingAverage = &movingAverage
		}
	case StrategyMomentum:
		if c.Strategy.Momentum == nil {
			momentum := strategy.DefaultMomentumConfig()
			c.Strategy.Momentum = &momentum
		}
	case StrategyVolatilityBreakout:
		if c.Strategy.VolatilityBreakout == nil {
			breakout := strategy.DefaultVolatilityBreakoutConfig()
			c.Strategy.VolatilityBreakout = &breakout
		}
	case StrategyPairs:
		if c.Strategy.Pairs == nil {
			pairs := strategy.DefaultPairsConfig()
			c.Strategy.Pairs = &pairs
		}
	}
	if c.Metrics.BarsPerYear == 0 {
		c.Metrics.BarsPerYear = 252
	}
}

// BuildDetector constructs the configured regime detector, or nil when
// detection is disabled.
func (c *RunConfig) BuildDetector() (regime.Detector, error) {
	switch c.Regime.Method {
	case MethodStatistical:
		return regime.NewStatisticalDetector(*c.Regime.Statistical), nil
	case MethodClustering:
		return regime.NewKMeansDetector(*c.Regime.Clustering), nil
	case MethodNone:
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown regime method: %s", c.Regime.Method)
	}
}

// BuildStrategy constructs the configured single-asset strategy. Pairs
// runs use BuildPairStrategy instead.
func (c *RunConfig) BuildStrategy() (strategy.Strategy, error) {
	switch c.Strategy.Name {
	case StrategyMovingAverage:
		return strategy.NewMovingAverageCross(*c.Strategy.MovingAverage)
	case StrategyMomentum:
		return strategy.NewMomentum(*c.Strategy.Momentum)
	case StrategyVolatilityBreakout:
		return strategy.NewVolatilityBreakout(*c.Strategy.VolatilityBreakout)
	case StrategyPairs:
		return nil, fmt.Errorf("strategy %s requires a pair of series", StrategyPairs)
	default:
		return nil, fmt.Errorf("unknown strategy: %s", c.Strategy.Name)
	}
}

// BuildPairStrategy constructs the configured pair strategy.
func (c *RunConfig) BuildPairStrategy() (strategy.PairStrategy, error) {
	if c.Strategy.Name != StrategyPairs {
		return nil, fmt.Errorf("strategy %s is not a pair strategy", c.Strategy.Name)
	}
	return strategy.NewPairsTrading(*c.Strategy.Pairs)
}

// IsPair reports whether the run needs two input series.
func (c *RunConfig) IsPair() bool {
	return c.Strategy.Name == StrategyPairs
}
