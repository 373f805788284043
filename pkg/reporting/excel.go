package reporting

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"

	"github.com/xuri/excelize/v2"

	"github.com/ducminhle1904/regime-backtest/internal/backtest"
	"github.com/ducminhle1904/regime-backtest/internal/metrics"
	"github.com/ducminhle1904/regime-backtest/internal/regime"
)

// ExcelStyles holds Excel formatting styles
type ExcelStyles struct {
	HeaderStyle   int
	CurrencyStyle int
	PercentStyle  int
	BaseStyle     int
}

// DefaultExcelReporter implements Excel output functionality
type DefaultExcelReporter struct{}

// NewDefaultExcelReporter creates a new Excel reporter
func NewDefaultExcelReporter() *DefaultExcelReporter {
	return &DefaultExcelReporter{}
}

// WriteWorkbook writes the full report to an Excel workbook with
// Summary, Per-Regime, Trades and Equity sheets.
func (r *DefaultExcelReporter) WriteWorkbook(report *metrics.Report, result *backtest.Result, path string) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	fx := excelize.NewFile()
	defer fx.Close()

	const summarySheet = "Summary"
	const regimeSheet = "Per-Regime"
	const tradesSheet = "Trades"
	const equitySheet = "Equity"

	fx.SetSheetName(fx.GetSheetName(0), summarySheet)
	fx.NewSheet(regimeSheet)
	fx.NewSheet(tradesSheet)
	fx.NewSheet(equitySheet)

	styles, err := r.createExcelStyles(fx)
	if err != nil {
		return err
	}

	if err := r.writeSummarySheet(fx, summarySheet, report, result, styles); err != nil {
		return err
	}
	if err := r.writeRegimeSheet(fx, regimeSheet, report, styles); err != nil {
		return err
	}
	if err := r.writeTradesSheet(fx, tradesSheet, result, styles); err != nil {
		return err
	}
	if err := r.writeEquitySheet(fx, equitySheet, result, styles); err != nil {
		return err
	}

	return fx.SaveAs(path)
}

func (r *DefaultExcelReporter) createExcelStyles(fx *excelize.File) (ExcelStyles, error) {
	var styles ExcelStyles
	var err error

	styles.HeaderStyle, err = fx.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold:   true,
			Size:   11,
			Color:  "FFFFFF",
			Family: "Calibri",
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"2F4F4F"},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return styles, err
	}

	styles.CurrencyStyle, err = fx.NewStyle(&excelize.Style{
		NumFmt: 7,
		Alignment: &excelize.Alignment{
			Horizontal: "right",
		},
	})
	if err != nil {
		return styles, err
	}

	styles.PercentStyle, err = fx.NewStyle(&excelize.Style{
		NumFmt: 10,
		Alignment: &excelize.Alignment{
			Horizontal: "right",
		},
	})
	if err != nil {
		return styles, err
	}

	styles.BaseStyle, err = fx.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{
			Horizontal: "left",
		},
	})
	return styles, err
}

func (r *DefaultExcelReporter) writeSummarySheet(fx *excelize.File, sheet string, report *metrics.Report, result *backtest.Result, styles ExcelStyles) error {
	rows := [][]interface{}{
		{"Metric", "Value"},
		{"Initial Balance", result.InitialBalance},
		{"Final Equity", result.FinalEquity},
		{"Total Return", cellValue(report.Overall.TotalReturn)},
		{"Annualized Return", cellValue(report.Overall.AnnualizedReturn)},
		{"Annualized Volatility", cellValue(report.Overall.AnnualizedVolatility)},
		{"Sharpe Ratio", cellValue(report.Overall.SharpeRatio)},
		{"Sortino Ratio", cellValue(report.Overall.SortinoRatio)},
		{"Calmar Ratio", cellValue(report.Overall.CalmarRatio)},
		{"Max Drawdown", cellValue(report.Overall.MaxDrawdown)},
		{"Win Rate", cellValue(report.Overall.WinRate)},
		{"Profit Factor", cellValue(report.Overall.ProfitFactor)},
		{"Closed Trades", report.Overall.ClosedTrades},
		{"Buy & Hold Return", cellValue(report.BuyHoldReturn)},
		{"Bars Per Year", report.BarsPerYear},
		{"Risk-Free Rate", report.RiskFreeRate},
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := fx.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	if err := fx.SetRowStyle(sheet, 1, 1, styles.HeaderStyle); err != nil {
		return err
	}
	if err := fx.SetCellStyle(sheet, "B2", "B3", styles.CurrencyStyle); err != nil {
		return err
	}
	// percentage rows: returns, volatility, drawdown, win rate, buy & hold
	for _, span := range [][2]string{{"B4", "B6"}, {"B10", "B11"}, {"B14", "B14"}, {"B16", "B16"}} {
		if err := fx.SetCellStyle(sheet, span[0], span[1], styles.PercentStyle); err != nil {
			return err
		}
	}
	for _, span := range [][2]string{{"B7", "B9"}, {"B12", "B13"}, {"B15", "B15"}} {
		if err := fx.SetCellStyle(sheet, span[0], span[1], styles.BaseStyle); err != nil {
			return err
		}
	}
	return fx.SetColWidth(sheet, "A", "A", 24)
}

func (r *DefaultExcelReporter) writeRegimeSheet(fx *excelize.File, sheet string, report *metrics.Report, styles ExcelStyles) error {
	header := []interface{}{"Regime", "Bars", "Total Return", "Annualized Volatility", "Sharpe Ratio", "Sortino Ratio", "Max Drawdown", "Win Rate", "Profit Factor", "Closed Trades"}
	if err := fx.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	if err := fx.SetRowStyle(sheet, 1, 1, styles.HeaderStyle); err != nil {
		return err
	}

	labels := make([]string, 0, len(report.PerRegime))
	for label := range report.PerRegime {
		labels = append(labels, string(label))
	}
	sort.Strings(labels)

	for i, label := range labels {
		stats := report.PerRegime[regime.Label(label)]
		row := []interface{}{
			label,
			stats.Bars,
			cellValue(stats.TotalReturn),
			cellValue(stats.AnnualizedVolatility),
			cellValue(stats.SharpeRatio),
			cellValue(stats.SortinoRatio),
			cellValue(stats.MaxDrawdown),
			cellValue(stats.WinRate),
			cellValue(stats.ProfitFactor),
			stats.ClosedTrades,
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := fx.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	if n := len(labels); n > 0 {
		lastRow := n + 1
		for _, col := range []string{"C", "D", "G", "H"} {
			if err := fx.SetCellStyle(sheet, col+"2", fmt.Sprintf("%s%d", col, lastRow), styles.PercentStyle); err != nil {
				return err
			}
		}
		for _, col := range []string{"E", "F", "I"} {
			if err := fx.SetCellStyle(sheet, col+"2", fmt.Sprintf("%s%d", col, lastRow), styles.BaseStyle); err != nil {
				return err
			}
		}
	}
	return fx.SetColWidth(sheet, "A", "J", 20)
}

func (r *DefaultExcelReporter) writeTradesSheet(fx *excelize.File, sheet string, result *backtest.Result, styles ExcelStyles) error {
	header := []interface{}{"Symbol", "Side", "Quantity", "Entry Time", "Exit Time", "Entry Price", "Exit Price", "Commission", "PnL", "Clipped", "Forced Exit"}
	if err := fx.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	if err := fx.SetRowStyle(sheet, 1, 1, styles.HeaderStyle); err != nil {
		return err
	}

	for i, t := range result.ClosedTrades() {
		row := []interface{}{
			t.Symbol,
			t.Side.String(),
			t.Quantity,
			t.EntryTime.Format("2006-01-02 15:04:05"),
			t.ExitTime.Format("2006-01-02 15:04:05"),
			t.EntryPrice,
			t.ExitPrice,
			t.Commission,
			t.PnL,
			t.Clipped,
			t.ForcedExit,
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := fx.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	if n := len(result.ClosedTrades()); n > 0 {
		if err := fx.SetCellStyle(sheet, "F2", fmt.Sprintf("I%d", n+1), styles.CurrencyStyle); err != nil {
			return err
		}
	}
	return fx.SetColWidth(sheet, "A", "K", 18)
}

func (r *DefaultExcelReporter) writeEquitySheet(fx *excelize.File, sheet string, result *backtest.Result, styles ExcelStyles) error {
	header := []interface{}{"Timestamp", "Equity", "Cash", "Exposure"}
	if err := fx.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	if err := fx.SetRowStyle(sheet, 1, 1, styles.HeaderStyle); err != nil {
		return err
	}

	for i, point := range result.EquityCurve {
		row := []interface{}{
			point.Timestamp.Format("2006-01-02 15:04:05"),
			point.Equity,
			point.Cash,
			point.Exposure,
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := fx.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	if n := len(result.EquityCurve); n > 0 {
		if err := fx.SetCellStyle(sheet, "B2", fmt.Sprintf("C%d", n+1), styles.CurrencyStyle); err != nil {
			return err
		}
		if err := fx.SetCellStyle(sheet, "D2", fmt.Sprintf("D%d", n+1), styles.PercentStyle); err != nil {
			return err
		}
	}
	return fx.SetColWidth(sheet, "A", "D", 20)
}

// cellValue maps NaN to the string n/a so the workbook never carries a
// value Excel cannot represent.
func cellValue(v float64) interface{} {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "n/a"
	}
	return v
}

// Package-level convenience function.
func WriteWorkbook(report *metrics.Report, result *backtest.Result, path string) error {
	return NewDefaultExcelReporter().WriteWorkbook(report, result, path)
}
