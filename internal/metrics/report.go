package metrics

import (
	"fmt"
	"math"
	"time"

	"github.com/ducminhle1904/regime-backtest/internal/backtest"
	"github.com/ducminhle1904/regime-backtest/internal/regime"
	"github.com/ducminhle1904/regime-backtest/pkg/types"
)

// Stats is one performance summary, computed either over the whole run
// or over the bars belonging to a single regime. Ratios over empty or
// degenerate partitions are NaN rather than zero so a missing regime
// cannot be mistaken for a flat one.
type Stats struct {
	TotalReturn          float64 `json:"total_return"`
	AnnualizedReturn     float64 `json:"annualized_return"`
	AnnualizedVolatility float64 `json:"annualized_volatility"`
	SharpeRatio          float64 `json:"sharpe_ratio"`
	SortinoRatio         float64 `json:"sortino_ratio"`
	CalmarRatio          float64 `json:"calmar_ratio"`
	MaxDrawdown          float64 `json:"max_drawdown"`
	WinRate              float64 `json:"win_rate"`
	ProfitFactor         float64 `json:"profit_factor"`
	Bars                 int     `json:"bars"`
	ClosedTrades         int     `json:"closed_trades"`
}

// Report is the full evaluation of one backtest result.
type Report struct {
	Overall       Stats                  `json:"overall"`
	PerRegime     map[regime.Label]Stats `json:"per_regime"`
	BuyHoldReturn float64                `json:"buy_hold_return"`
	BarsPerYear   float64                `json:"bars_per_year"`
	RiskFreeRate  float64                `json:"risk_free_rate"`
}

// Engine computes reports. It holds only annualization parameters and
// never mutates its inputs, so the same inputs always produce the same
// report.
type Engine struct {
	barsPerYear  float64
	riskFreeRate float64
}

// NewEngine creates a metrics engine. barsPerYear must be positive;
// riskFreeRate is annualized and may be zero.
func NewEngine(barsPerYear float64, riskFreeRate float64) (*Engine, error) {
	if barsPerYear <= 0 || math.IsNaN(barsPerYear) || math.IsInf(barsPerYear, 0) {
		return nil, fmt.Errorf("bars per year must be positive, got %v", barsPerYear)
	}
	if math.IsNaN(riskFreeRate) || math.IsInf(riskFreeRate, 0) {
		return nil, fmt.Errorf("risk-free rate must be finite, got %v", riskFreeRate)
	}
	return &Engine{barsPerYear: barsPerYear, riskFreeRate: riskFreeRate}, nil
}

// Compute evaluates a backtest result against its price series and an
// optional regime detection. detection may be nil, in which case the
// per-regime breakdown is empty. data must be the series the result was
// produced from; the equity curve and the series must be the same length.
func (e *Engine) Compute(result *backtest.Result, data []types.OHLCV, detection *regime.Detection) (*Report, error) {
	if result == nil {
		return nil, fmt.Errorf("result is nil")
	}
	if len(result.EquityCurve) != len(data) {
		return nil, fmt.Errorf("equity curve has %d points but series has %d bars", len(result.EquityCurve), len(data))
	}
	if detection != nil && len(detection.Labels) != len(data) {
		return nil, fmt.Errorf("detection has %d labels but series has %d bars", len(detection.Labels), len(data))
	}

	equity := make([]float64, 0, len(result.EquityCurve)+1)
	equity = append(equity, result.InitialBalance)
	for _, point := range result.EquityCurve {
		equity = append(equity, point.Equity)
	}
	returns := barReturns(equity)

	closed := result.ClosedTrades()

	report := &Report{
		Overall:      e.compute(returns, closed),
		PerRegime:    map[regime.Label]Stats{},
		BarsPerYear:  e.barsPerYear,
		RiskFreeRate: e.riskFreeRate,
	}
	if len(data) > 1 && data[0].Close != 0 {
		report.BuyHoldReturn = data[len(data)-1].Close/data[0].Close - 1
	} else {
		report.BuyHoldReturn = math.NaN()
	}

	if detection != nil {
		byLabel := map[regime.Label][]float64{}
		for i, label := range detection.Labels {
			byLabel[label] = append(byLabel[label], returns[i])
		}
		tradesByLabel := partitionTrades(closed, data, detection.Labels)
		for label, labelReturns := range byLabel {
			report.PerRegime[label] = e.compute(labelReturns, tradesByLabel[label])
		}
	}
	return report, nil
}

// compute summarizes one partition of bar returns and the closed trades
// attributed to it.
func (e *Engine) compute(returns []float64, trades []backtest.Trade) Stats {
	stats := Stats{Bars: len(returns), ClosedTrades: len(trades)}
	if len(returns) == 0 {
		stats.TotalReturn = math.NaN()
		stats.AnnualizedReturn = math.NaN()
		stats.AnnualizedVolatility = math.NaN()
		stats.SharpeRatio = math.NaN()
		stats.SortinoRatio = math.NaN()
		stats.CalmarRatio = math.NaN()
		stats.MaxDrawdown = math.NaN()
		stats.WinRate = math.NaN()
		stats.ProfitFactor = math.NaN()
		return stats
	}

	compounded := 1.0
	for _, r := range returns {
		compounded *= 1 + r
	}
	stats.TotalReturn = compounded - 1
	stats.AnnualizedReturn = math.Pow(compounded, e.barsPerYear/float64(len(returns))) - 1

	mean := meanOf(returns)
	stats.AnnualizedVolatility = sampleStd(returns, mean) * math.Sqrt(e.barsPerYear)
	if stats.AnnualizedVolatility > 0 {
		stats.SharpeRatio = (mean*e.barsPerYear - e.riskFreeRate) / stats.AnnualizedVolatility
	} else {
		stats.SharpeRatio = math.NaN()
	}

	downside := downsideStd(returns)
	if downside > 0 {
		stats.SortinoRatio = (mean*e.barsPerYear - e.riskFreeRate) / (downside * math.Sqrt(e.barsPerYear))
	} else {
		stats.SortinoRatio = math.NaN()
	}

	stats.MaxDrawdown = maxDrawdown(returns)
	if stats.MaxDrawdown < 0 {
		stats.CalmarRatio = stats.AnnualizedReturn / math.Abs(stats.MaxDrawdown)
	} else {
		stats.CalmarRatio = math.NaN()
	}

	if len(trades) == 0 {
		stats.WinRate = math.NaN()
		stats.ProfitFactor = math.NaN()
	} else {
		wins := 0
		grossProfit := 0.0
		grossLoss := 0.0
		for _, trade := range trades {
			if trade.PnL > 0 {
				wins++
				grossProfit += trade.PnL
			} else {
				grossLoss += math.Abs(trade.PnL)
			}
		}
		stats.WinRate = float64(wins) / float64(len(trades))
		if grossLoss > 0 {
			stats.ProfitFactor = grossProfit / grossLoss
		} else {
			stats.ProfitFactor = math.NaN()
		}
	}
	return stats
}

// partitionTrades attributes each closed trade to the regime label in
// force at its entry timestamp.
func partitionTrades(trades []backtest.Trade, data []types.OHLCV, labels []regime.Label) map[regime.Label][]backtest.Trade {
	indexByTime := make(map[time.Time]int, len(data))
	for i, bar := range data {
		indexByTime[bar.Timestamp] = i
	}
	out := map[regime.Label][]backtest.Trade{}
	for _, trade := range trades {
		i, ok := indexByTime[trade.EntryTime]
		if !ok {
			continue
		}
		out[labels[i]] = append(out[labels[i]], trade)
	}
	return out
}

// barReturns converts an equity series (with the initial balance
// prepended) into per-bar simple returns. A zero or negative equity
// level makes the following return NaN.
func barReturns(equity []float64) []float64 {
	returns := make([]float64, len(equity)-1)
	for i := 1; i < len(equity); i++ {
		if equity[i-1] <= 0 {
			returns[i-1] = math.NaN()
			continue
		}
		returns[i-1] = equity[i]/equity[i-1] - 1
	}
	return returns
}

// maxDrawdown is the largest peak-to-trough loss of the compounded
// return path, reported as a non-positive fraction.
func maxDrawdown(returns []float64) float64 {
	level := 1.0
	peak := 1.0
	worst := 0.0
	for _, r := range returns {
		level *= 1 + r
		if level > peak {
			peak = level
		}
		drawdown := level/peak - 1
		if drawdown < worst {
			worst = drawdown
		}
	}
	return worst
}

func meanOf(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// downsideStd is the sample standard deviation of the negative returns
// only, the denominator of the Sortino ratio.
func downsideStd(returns []float64) float64 {
	negative := make([]float64, 0, len(returns))
	for _, r := range returns {
		if r < 0 {
			negative = append(negative, r)
		}
	}
	if len(negative) < 2 {
		return 0
	}
	return sampleStd(negative, meanOf(negative))
}

func sampleStd(values []float64, mean float64) float64 {
	if len(values) < 2 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		d := v - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)-1))
}
