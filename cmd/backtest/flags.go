package main

import (
	"flag"
	"fmt"
)

// Flags holds all command line flags for the backtest command
type Flags struct {
	// Configuration
	ConfigFile *string
	EnvFile    *string

	// Data selection
	DataFile     *string
	Symbol       *string
	PairDataFile *string
	PairSymbol   *string

	// Strategy and regime selection
	Strategy     *string
	RegimeMethod *string

	// Account settings
	InitialBalance *float64
	Commission     *float64

	// Output
	ConsoleOnly *bool
	CSVDir      *string
	ExcelFile   *string
	MetricsAddr *string

	// Version and help
	ShowVersion *bool
}

// NewFlags registers all command line flags
func NewFlags() *Flags {
	return &Flags{
		ConfigFile: flag.String("config", "", "Path to JSON run configuration"),
		EnvFile:    flag.String("env", ".env", "Path to environment file"),

		DataFile:     flag.String("data", "", "Path to OHLCV CSV data file"),
		Symbol:       flag.String("symbol", "", "Symbol name for reporting"),
		PairDataFile: flag.String("pair-data", "", "Path to second CSV data file (pairs strategy)"),
		PairSymbol:   flag.String("pair-symbol", "", "Second symbol name (pairs strategy)"),

		Strategy:     flag.String("strategy", "", "Strategy: moving_average, momentum, volatility_breakout, pairs"),
		RegimeMethod: flag.String("regime", "", "Regime detection: statistical, clustering, none"),

		InitialBalance: flag.Float64("balance", 0, "Initial balance (0 = use config)"),
		Commission:     flag.Float64("commission", -1, "Commission rate (-1 = use config)"),

		ConsoleOnly: flag.Bool("console-only", false, "Skip file outputs"),
		CSVDir:      flag.String("csv-dir", "", "Directory for CSV exports"),
		ExcelFile:   flag.String("excel", "", "Path for Excel workbook export"),
		MetricsAddr: flag.String("metrics-addr", "", "Address to serve Prometheus metrics on (e.g. :9090)"),

		ShowVersion: flag.Bool("version", false, "Show version and exit"),
	}
}

// Validate checks flag combinations before any work starts.
func (f *Flags) Validate() error {
	if *f.ConfigFile == "" && *f.DataFile == "" {
		return fmt.Errorf("either -config or -data is required")
	}
	if *f.Strategy == "pairs" && *f.PairDataFile == "" && *f.ConfigFile == "" {
		return fmt.Errorf("-pair-data is required for the pairs strategy")
	}
	return nil
}
