package reporting

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ducminhle1904/regime-backtest/internal/backtest"
)

func sampleResult() *backtest.Result {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return &backtest.Result{
		InitialBalance: 10000,
		FinalEquity:    10100,
		EquityCurve: []backtest.EquityPoint{
			{Timestamp: start, Equity: 10000, Cash: 10000},
			{Timestamp: start.Add(time.Hour), Equity: 10100, Cash: 10100},
		},
		Trades: []backtest.Trade{
			{
				Symbol: "BTCUSDT", Side: backtest.SideLong, Quantity: 0.5,
				EntryTime: start, ExitTime: start.Add(time.Hour),
				EntryPrice: 100, ExitPrice: 302, Commission: 1, PnL: 100,
			},
			{
				// still open, must not appear in the ledger
				Symbol: "BTCUSDT", Side: backtest.SideShort, Quantity: 1,
				EntryTime: start.Add(time.Hour), EntryPrice: 302,
			},
		},
	}
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()
	rows, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)
	return rows
}

// TestWriteTradesCSV tests the closed-trade ledger export
func TestWriteTradesCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "trades.csv")

	require.NoError(t, WriteTradesCSV(sampleResult(), path))

	rows := readCSV(t, path)
	require.Len(t, rows, 2, "header plus one closed trade")
	assert.Equal(t, "Symbol", rows[0][0])
	assert.Equal(t, "Forced_Exit", rows[0][10])
	assert.Equal(t, "BTCUSDT", rows[1][0])
	assert.Equal(t, "LONG", rows[1][1])
	assert.Equal(t, "2024-01-01 00:00:00", rows[1][3])
	assert.Equal(t, "100.00000000", rows[1][8])
	assert.Equal(t, "false", rows[1][9])
}

// TestWriteEquityCSV tests the equity curve export
func TestWriteEquityCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "equity.csv")

	require.NoError(t, WriteEquityCSV(sampleResult(), path))

	rows := readCSV(t, path)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Timestamp", "Equity", "Cash", "Exposure"}, rows[0])
	assert.Equal(t, "2024-01-01 01:00:00", rows[2][0])
	assert.Equal(t, "10100.00000000", rows[2][1])
}
