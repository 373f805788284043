package config

import (
	"fmt"

	"github.com/ducminhle1904/regime-backtest/pkg/types"
)

// Validate checks every configured section and reports the first
// offending parameter by name. Sections for unselected methods or
// strategies are ignored.
func (c *RunConfig) Validate() error {
	if err := c.validateData(); err != nil {
		return err
	}
	if err := c.validateRegime(); err != nil {
		return err
	}
	if err := c.validateStrategy(); err != nil {
		return err
	}
	if err := c.Backtest.Validate(); err != nil {
		return err
	}
	if c.Metrics.BarsPerYear <= 0 {
		return fmt.Errorf("bars_per_year must be positive, got: %v", c.Metrics.BarsPerYear)
	}
	return nil
}

func (c *RunConfig) validateData() error {
	if c.Data.DataFile == "" {
		return fmt.Errorf("data_file is required")
	}
	switch c.Data.NonFinitePolicy {
	case types.NonFiniteHalt, types.NonFiniteSkip:
	default:
		return fmt.Errorf("non_finite_policy must be %q or %q, got: %q",
			types.NonFiniteHalt, types.NonFiniteSkip, c.Data.NonFinitePolicy)
	}
	if c.Data.CacheTTLSeconds < 0 {
		return fmt.Errorf("cache_ttl_seconds must be non-negative, got: %d", c.Data.CacheTTLSeconds)
	}
	if c.IsPair() && c.Data.PairDataFile == "" {
		return fmt.Errorf("pair_data_file is required for the %s strategy", StrategyPairs)
	}
	return nil
}

func (c *RunConfig) validateRegime() error {
	switch c.Regime.Method {
	case MethodStatistical:
		cfg := c.Regime.Statistical
		if cfg.Window <= 1 {
			return fmt.Errorf("regime window must be greater than 1, got: %d", cfg.Window)
		}
		if cfg.ReturnThreshold < 0 {
			return fmt.Errorf("return_threshold must be non-negative, got: %v", cfg.ReturnThreshold)
		}
		if cfg.VolThreshold <= 0 {
			return fmt.Errorf("vol_threshold must be positive, got: %v", cfg.VolThreshold)
		}
	case MethodClustering:
		if err := c.Regime.Clustering.Validate(); err != nil {
			return err
		}
	case MethodNone:
	default:
		return fmt.Errorf("regime method must be %q, %q or %q, got: %q",
			MethodStatistical, MethodClustering, MethodNone, c.Regime.Method)
	}
	return nil
}

// validateStrategy delegates to the strategy constructors, which own
// the parameter checks.
func (c *RunConfig) validateStrategy() error {
	if c.IsPair() {
		_, err := c.BuildPairStrategy()
		return err
	}
	_, err := c.BuildStrategy()
	return err
}
