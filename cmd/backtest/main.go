package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/ducminhle1904/regime-backtest/internal/backtest"
	"github.com/ducminhle1904/regime-backtest/internal/metrics"
	"github.com/ducminhle1904/regime-backtest/internal/monitoring"
	"github.com/ducminhle1904/regime-backtest/internal/regime"
	"github.com/ducminhle1904/regime-backtest/pkg/config"
	datamanager "github.com/ducminhle1904/regime-backtest/pkg/data"
	"github.com/ducminhle1904/regime-backtest/pkg/reporting"
	"github.com/ducminhle1904/regime-backtest/pkg/types"
)

const (
	AppName    = "Regime Backtest"
	AppVersion = "1.0.0"
)

func main() {
	flags := NewFlags()
	flag.Parse()

	if *flags.ShowVersion {
		fmt.Printf("%s v%s\n", AppName, AppVersion)
		return
	}

	if err := flags.Validate(); err != nil {
		log.Fatalf("❌ Flag validation error: %v", err)
	}

	printHeader()
	loadEnvironment(*flags.EnvFile)

	cfg, err := loadConfiguration(flags)
	if err != nil {
		log.Fatalf("❌ Configuration error: %v", err)
	}

	if *flags.MetricsAddr != "" {
		serveMetrics(*flags.MetricsAddr)
	}

	if err := run(cfg, flags); err != nil {
		log.Fatalf("❌ Backtest error: %v", err)
	}
}

func printHeader() {
	fmt.Printf("🎯 %s v%s\n", strings.ToUpper(AppName), AppVersion)
	fmt.Printf("%s\n\n", strings.Repeat("=", 50))
}

func loadEnvironment(envFile string) {
	if err := godotenv.Load(envFile); err != nil {
		log.Printf("could not load %s (%v), using process environment", envFile, err)
	}
}

// loadConfiguration builds the run configuration from the config file,
// then lets explicit flags override it.
func loadConfiguration(flags *Flags) (*config.RunConfig, error) {
	var cfg *config.RunConfig
	if *flags.ConfigFile != "" {
		loaded, err := config.Load(*flags.ConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		defaults := config.DefaultRunConfig()
		cfg = &defaults
	}

	if *flags.DataFile != "" {
		cfg.Data.DataFile = *flags.DataFile
	}
	if *flags.Symbol != "" {
		cfg.Data.Symbol = *flags.Symbol
	}
	if *flags.PairDataFile != "" {
		cfg.Data.PairDataFile = *flags.PairDataFile
	}
	if *flags.PairSymbol != "" {
		cfg.Data.PairSymbol = *flags.PairSymbol
	}
	if *flags.Strategy != "" {
		cfg.Strategy.Name = *flags.Strategy
	}
	if *flags.RegimeMethod != "" {
		cfg.Regime.Method = *flags.RegimeMethod
	}
	if *flags.InitialBalance > 0 {
		cfg.Backtest.InitialBalance = *flags.InitialBalance
	}
	if *flags.Commission >= 0 {
		cfg.Backtest.CommissionRate = *flags.Commission
	}
	if cfg.Data.Symbol == "" {
		cfg.Data.Symbol = "ASSET"
	}

	if err := cfg.Finalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func serveMetrics(addr string) {
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", monitoring.NewMetricsHandler())
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.Printf("metrics server stopped: %v", err)
		}
	}()
	log.Printf("serving Prometheus metrics on %s/metrics", addr)
}

func run(cfg *config.RunConfig, flags *Flags) error {
	provider := datamanager.NewCachedProvider(
		datamanager.NewCSVProvider(),
		time.Duration(cfg.Data.CacheTTLSeconds)*time.Second,
	)

	data, err := loadSeries(provider, cfg.Data.DataFile, cfg.Data.NonFinitePolicy)
	if err != nil {
		return err
	}
	log.Printf("loaded %d bars from %s", len(data), filepath.Base(cfg.Data.DataFile))

	detection, err := detectRegimes(cfg, data)
	if err != nil {
		return err
	}

	var result *backtest.Result
	if cfg.IsPair() {
		result, err = runPair(cfg, data)
	} else {
		result, err = runSingle(cfg, data)
	}
	if err != nil {
		return err
	}

	engine, err := metrics.NewEngine(cfg.Metrics.BarsPerYear, cfg.Metrics.RiskFreeRate)
	if err != nil {
		return err
	}
	report, err := engine.Compute(result, data, detection)
	if err != nil {
		return err
	}

	reporting.OutputConsole(report, result, cfg.Data.Symbol)
	if detection != nil {
		printTransitions(detection)
	}

	if *flags.ConsoleOnly {
		return nil
	}
	return writeOutputs(cfg, flags, report, result)
}

// loadSeries loads a CSV file and applies the series validation pass.
func loadSeries(provider datamanager.Provider, path string, policy types.NonFinitePolicy) ([]types.OHLCV, error) {
	raw, err := provider.LoadData(path)
	if err != nil {
		return nil, err
	}
	data, skipped, err := types.ValidateSeries(raw, policy)
	if err != nil {
		return nil, fmt.Errorf("invalid series %s: %w", path, err)
	}
	if len(skipped) > 0 {
		log.Printf("skipped %d non-finite bars from %s", len(skipped), filepath.Base(path))
	}
	return data, nil
}

func detectRegimes(cfg *config.RunConfig, data []types.OHLCV) (*regime.Detection, error) {
	detector, err := cfg.BuildDetector()
	if err != nil {
		return nil, err
	}
	if detector == nil {
		return nil, nil
	}
	detection, err := detector.Classify(data)
	if err != nil {
		return nil, fmt.Errorf("regime detection failed: %w", err)
	}
	if cfg.Regime.Method == config.MethodClustering && cfg.Regime.Clustering.Clusters == 3 {
		detection = detection.NameByMeanReturn()
	}
	return detection, nil
}

// runSingle executes one single-asset backtest through the worker
// pool so batch metrics cover the single-run path too.
func runSingle(cfg *config.RunConfig, data []types.OHLCV) (*backtest.Result, error) {
	strat, err := cfg.BuildStrategy()
	if err != nil {
		return nil, err
	}
	signals, err := strat.GenerateSignals(data)
	if err != nil {
		return nil, fmt.Errorf("%s signal generation failed: %w", strat.GetName(), err)
	}

	runner := backtest.NewRunner(1, 1, monitoring.NewCollector())
	results := runner.RunBatch([]backtest.Job{{
		ID:      cfg.Data.Symbol,
		Symbol:  cfg.Data.Symbol,
		Data:    data,
		Signals: signals,
		Config:  cfg.Backtest,
	}})
	if len(results) == 0 {
		return nil, fmt.Errorf("no result produced")
	}
	if results[0].Err != nil {
		return nil, results[0].Err
	}
	return results[0].Result, nil
}

func runPair(cfg *config.RunConfig, dataA []types.OHLCV) (*backtest.Result, error) {
	provider := datamanager.NewCSVProvider()
	dataB, err := loadSeries(provider, cfg.Data.PairDataFile, cfg.Data.NonFinitePolicy)
	if err != nil {
		return nil, err
	}

	strat, err := cfg.BuildPairStrategy()
	if err != nil {
		return nil, err
	}
	signals, err := strat.GenerateSignals(dataA, dataB)
	if err != nil {
		return nil, fmt.Errorf("%s signal generation failed: %w", strat.GetName(), err)
	}

	executor, err := backtest.NewExecutor(cfg.Backtest)
	if err != nil {
		return nil, err
	}
	pairSymbol := cfg.Data.PairSymbol
	if pairSymbol == "" {
		pairSymbol = cfg.Data.Symbol + "-B"
	}
	return executor.RunPair(cfg.Data.Symbol, pairSymbol, dataA, dataB, signals)
}

func printTransitions(detection *regime.Detection) {
	stats := regime.AnalyzeTransitions(detection.Labels)
	log.Printf("regime transitions: %d", stats.TotalTransitions)
	for label, duration := range stats.AverageDurations {
		log.Printf("  %-10s avg duration %.1f bars", label, duration)
	}
}

func writeOutputs(cfg *config.RunConfig, flags *Flags, report *metrics.Report, result *backtest.Result) error {
	csvDir := cfg.Report.CSVDir
	if *flags.CSVDir != "" {
		csvDir = *flags.CSVDir
	}
	if csvDir != "" {
		tradesPath := filepath.Join(csvDir, "trades.csv")
		if err := reporting.WriteTradesCSV(result, tradesPath); err != nil {
			return fmt.Errorf("failed to write %s: %w", tradesPath, err)
		}
		equityPath := filepath.Join(csvDir, "equity.csv")
		if err := reporting.WriteEquityCSV(result, equityPath); err != nil {
			return fmt.Errorf("failed to write %s: %w", equityPath, err)
		}
		log.Printf("wrote CSV exports to %s", csvDir)
	}

	excelPath := cfg.Report.ExcelFile
	if *flags.ExcelFile != "" {
		excelPath = *flags.ExcelFile
	}
	if excelPath != "" {
		if err := reporting.WriteWorkbook(report, result, excelPath); err != nil {
			return fmt.Errorf("failed to write %s: %w", excelPath, err)
		}
		log.Printf("wrote Excel workbook to %s", excelPath)
	}
	return nil
}
