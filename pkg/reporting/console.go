package reporting

import (
	"fmt"
	"math"
	"os"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/ducminhle1904/regime-backtest/internal/backtest"
	"github.com/ducminhle1904/regime-backtest/internal/metrics"
	"github.com/ducminhle1904/regime-backtest/internal/regime"
)

// DefaultConsoleReporter implements console output functionality
type DefaultConsoleReporter struct{}

// NewDefaultConsoleReporter creates a new console reporter
func NewDefaultConsoleReporter() *DefaultConsoleReporter {
	return &DefaultConsoleReporter{}
}

// OutputReport prints the overall and per-regime performance tables.
func (r *DefaultConsoleReporter) OutputReport(report *metrics.Report, result *backtest.Result, symbol string) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle("BACKTEST RESULTS - %s", symbol)
	t.SetStyle(table.StyleRounded)

	t.AppendRows([]table.Row{
		{"💰 Initial Balance", fmt.Sprintf("$%.2f", result.InitialBalance)},
		{"💰 Final Equity", fmt.Sprintf("$%.2f", result.FinalEquity)},
		{"📈 Total Return", fmtPercent(report.Overall.TotalReturn)},
		{"📈 Annualized Return", fmtPercent(report.Overall.AnnualizedReturn)},
		{"📊 Annualized Volatility", fmtPercent(report.Overall.AnnualizedVolatility)},
		{"📊 Sharpe Ratio", fmtRatio(report.Overall.SharpeRatio)},
		{"📊 Sortino Ratio", fmtRatio(report.Overall.SortinoRatio)},
		{"📊 Calmar Ratio", fmtRatio(report.Overall.CalmarRatio)},
		{"📉 Max Drawdown", fmtPercent(report.Overall.MaxDrawdown)},
		{"✅ Win Rate", fmtPercent(report.Overall.WinRate)},
		{"✅ Profit Factor", fmtRatio(report.Overall.ProfitFactor)},
		{"🔄 Closed Trades", fmt.Sprintf("%d", report.Overall.ClosedTrades)},
		{"📈 Buy & Hold Return", fmtPercent(report.BuyHoldReturn)},
	})

	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, WidthMin: 22, WidthMax: 22, Align: text.AlignLeft},
		{Number: 2, WidthMin: 18, WidthMax: 30, Align: text.AlignLeft},
	})

	t.Render()
	fmt.Println()

	if len(report.PerRegime) > 0 {
		r.outputPerRegime(report)
	}
}

// outputPerRegime prints one row per regime, sorted by label for
// stable output.
func (r *DefaultConsoleReporter) outputPerRegime(report *metrics.Report) {
	labels := make([]string, 0, len(report.PerRegime))
	for label := range report.PerRegime {
		labels = append(labels, string(label))
	}
	sort.Strings(labels)

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle("PER-REGIME BREAKDOWN")
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Regime", "Bars", "Return", "Ann. Vol", "Sharpe", "Sortino", "Max DD", "Win Rate", "PF", "Trades"})

	for _, label := range labels {
		stats := report.PerRegime[regime.Label(label)]
		t.AppendRow(table.Row{
			label,
			stats.Bars,
			fmtPercent(stats.TotalReturn),
			fmtPercent(stats.AnnualizedVolatility),
			fmtRatio(stats.SharpeRatio),
			fmtRatio(stats.SortinoRatio),
			fmtPercent(stats.MaxDrawdown),
			fmtPercent(stats.WinRate),
			fmtRatio(stats.ProfitFactor),
			stats.ClosedTrades,
		})
	}

	t.Render()
	fmt.Println()
}

// fmtPercent renders a fraction as a percentage, or n/a for NaN.
func fmtPercent(v float64) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	return fmt.Sprintf("%.2f%%", v*100)
}

// fmtRatio renders a plain ratio, or n/a for NaN.
func fmtRatio(v float64) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", v)
}

// OutputConsole is the package-level convenience function.
func OutputConsole(report *metrics.Report, result *backtest.Result, symbol string) {
	reporter := NewDefaultConsoleReporter()
	reporter.OutputReport(report, result, symbol)
}
