package data

import (
	"github.com/ducminhle1904/regime-backtest/pkg/types"
)

// Provider interface for loading historical data from various sources
type Provider interface {
	// LoadData loads historical data from the specified source
	LoadData(source string) ([]types.OHLCV, error)

	// GetName returns the name of the data provider
	GetName() string
}

// Cache interface for caching loaded data
type Cache interface {
	// Get retrieves data from cache if available and not expired
	Get(key string) ([]types.OHLCV, bool)

	// Set stores data in cache
	Set(key string, data []types.OHLCV)

	// Clear removes all cached data
	Clear()

	// Size returns the number of cached entries
	Size() int
}

// CSVColumnMapping defines the column positions for different CSV formats
type CSVColumnMapping struct {
	TimestampCol int
	OpenCol      int
	HighCol      int
	LowCol       int
	CloseCol     int
	VolumeCol    int
	MinColumns   int
	DateFormat   string
}

// DefaultCSVFormat is timestamp,open,high,low,close,volume with a
// "2006-01-02 15:04:05" date column. Timestamps that fail the date
// format are retried as unix seconds.
var DefaultCSVFormat = CSVColumnMapping{
	TimestampCol: 0,
	OpenCol:      1,
	HighCol:      2,
	LowCol:       3,
	CloseCol:     4,
	VolumeCol:    5,
	MinColumns:   6,
	DateFormat:   "2006-01-02 15:04:05",
}
