package reporting

import (
	"github.com/ducminhle1904/regime-backtest/internal/backtest"
	"github.com/ducminhle1904/regime-backtest/internal/metrics"
)

// Package reporting renders backtest results to the console and to files.

// ConsoleReporter defines interface for console output
type ConsoleReporter interface {
	OutputReport(report *metrics.Report, result *backtest.Result, symbol string)
}

// FileReporter defines interface for file output
type FileReporter interface {
	WriteTradesCSV(result *backtest.Result, path string) error
	WriteEquityCSV(result *backtest.Result, path string) error
	WriteWorkbook(report *metrics.Report, result *backtest.Result, path string) error
}

// Reporter combines all reporting interfaces
type Reporter interface {
	ConsoleReporter
	FileReporter
}
