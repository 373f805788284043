package types

import "time"

type OHLCV struct {
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
	Timestamp time.Time
}

// Return is the close-to-close return of c relative to prev.
func (c OHLCV) Return(prev OHLCV) float64 {
	if prev.Close == 0 {
		return 0
	}
	return (c.Close - prev.Close) / prev.Close
}
