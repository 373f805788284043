package reporting

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ducminhle1904/regime-backtest/internal/metrics"
	"github.com/ducminhle1904/regime-backtest/internal/regime"
)

// TestWriteWorkbook tests the workbook layout, the degenerate-value
// mapping and that value cells carry number formats
func TestWriteWorkbook(t *testing.T) {
	report := &metrics.Report{
		Overall: metrics.Stats{
			TotalReturn:  0.25,
			SharpeRatio:  1.2,
			SortinoRatio: 1.8,
			CalmarRatio:  0.9,
			ProfitFactor: math.NaN(),
			WinRate:      1.0,
			Bars:         2,
			ClosedTrades: 1,
		},
		PerRegime: map[regime.Label]metrics.Stats{
			regime.LabelBull: {TotalReturn: 0.25, Bars: 2, ClosedTrades: 1},
		},
		BuyHoldReturn: 0.01,
		BarsPerYear:   252,
	}
	path := filepath.Join(t.TempDir(), "report.xlsx")

	require.NoError(t, WriteWorkbook(report, sampleResult(), path))

	fx, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer fx.Close()

	assert.ElementsMatch(t, []string{"Summary", "Per-Regime", "Trades", "Equity"}, fx.GetSheetList())

	name, err := fx.GetCellValue("Summary", "A8")
	require.NoError(t, err)
	assert.Equal(t, "Sortino Ratio", name)

	pf, err := fx.GetCellValue("Summary", "B12")
	require.NoError(t, err)
	assert.Equal(t, "n/a", pf)

	// balance cells carry the currency format, return cells the percent one
	balanceStyle, err := fx.GetCellStyle("Summary", "B2")
	require.NoError(t, err)
	returnStyle, err := fx.GetCellStyle("Summary", "B4")
	require.NoError(t, err)
	assert.NotZero(t, balanceStyle)
	assert.NotZero(t, returnStyle)
	assert.NotEqual(t, balanceStyle, returnStyle)

	pnlStyle, err := fx.GetCellStyle("Trades", "I2")
	require.NoError(t, err)
	assert.NotZero(t, pnlStyle)

	regimeRow, err := fx.GetCellValue("Per-Regime", "A2")
	require.NoError(t, err)
	assert.Equal(t, string(regime.LabelBull), regimeRow)
}
