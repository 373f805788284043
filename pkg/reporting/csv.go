package reporting

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ducminhle1904/regime-backtest/internal/backtest"
)

// DefaultCSVReporter implements CSV output functionality
type DefaultCSVReporter struct{}

// NewDefaultCSVReporter creates a new CSV reporter
func NewDefaultCSVReporter() *DefaultCSVReporter {
	return &DefaultCSVReporter{}
}

// WriteTradesCSV writes the closed-trade ledger to a CSV file.
func (r *DefaultCSVReporter) WriteTradesCSV(result *backtest.Result, path string) error {
	w, file, err := openCSV(path)
	if err != nil {
		return err
	}
	defer file.Close()
	defer w.Flush()

	if err := w.Write([]string{
		"Symbol",
		"Side",
		"Quantity",
		"Entry_Time",
		"Exit_Time",
		"Entry_Price",
		"Exit_Price",
		"Commission",
		"PnL",
		"Clipped",
		"Forced_Exit",
	}); err != nil {
		return err
	}

	for _, t := range result.ClosedTrades() {
		row := []string{
			t.Symbol,
			t.Side.String(),
			fmt.Sprintf("%.8f", t.Quantity),
			t.EntryTime.Format("2006-01-02 15:04:05"),
			t.ExitTime.Format("2006-01-02 15:04:05"),
			fmt.Sprintf("%.8f", t.EntryPrice),
			fmt.Sprintf("%.8f", t.ExitPrice),
			fmt.Sprintf("%.8f", t.Commission),
			fmt.Sprintf("%.8f", t.PnL),
			fmt.Sprintf("%t", t.Clipped),
			fmt.Sprintf("%t", t.ForcedExit),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

// WriteEquityCSV writes the per-bar equity curve to a CSV file.
func (r *DefaultCSVReporter) WriteEquityCSV(result *backtest.Result, path string) error {
	w, file, err := openCSV(path)
	if err != nil {
		return err
	}
	defer file.Close()
	defer w.Flush()

	if err := w.Write([]string{"Timestamp", "Equity", "Cash", "Exposure"}); err != nil {
		return err
	}

	for _, point := range result.EquityCurve {
		row := []string{
			point.Timestamp.Format("2006-01-02 15:04:05"),
			fmt.Sprintf("%.8f", point.Equity),
			fmt.Sprintf("%.8f", point.Cash),
			fmt.Sprintf("%.8f", point.Exposure),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

func openCSV(path string) (*csv.Writer, *os.File, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, nil, err
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return csv.NewWriter(file), file, nil
}

// Package-level convenience functions.

func WriteTradesCSV(result *backtest.Result, path string) error {
	return NewDefaultCSVReporter().WriteTradesCSV(result, path)
}

func WriteEquityCSV(result *backtest.Result, path string) error {
	return NewDefaultCSVReporter().WriteEquityCSV(result, path)
}
