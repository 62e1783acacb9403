package formulas

import (
	"math"

	"github.com/markcheno/go-talib"
)

// AnnualizedVolatility calculates annualized volatility from daily returns
// Formula: Std Dev of Daily Returns × sqrt(252 trading days)
func AnnualizedVolatility(dailyReturns []float64) float64 {
	if len(dailyReturns) < 2 {
		return 0
	}

	return StdDev(dailyReturns) * math.Sqrt(252)
}

// RealizedVolatility calculates the trailing annualized realized volatility
// of a close-price series over the given window, as a percent (e.g. 65.0).
// Returns nil when the series is too short.
//
// This is the proxy used when true implied volatility history is not
// available: realized vol tracks IV well enough to backfill a rough
// expansion signal, but is always treated as lower-confidence downstream.
func RealizedVolatility(closes []float64, window int) *float64 {
	if window < 2 || len(closes) < window+1 {
		return nil
	}

	returns := CalculateReturns(closes[len(closes)-window-1:])
	vol := AnnualizedVolatility(returns) * 100
	if isNaN(vol) {
		return nil
	}
	return &vol
}

// CalculateATR calculates the Average True Range over the given period.
// Returns nil if there is insufficient data.
func CalculateATR(highs, lows, closes []float64, period int) *float64 {
	if len(closes) < period+1 || len(highs) != len(closes) || len(lows) != len(closes) {
		return nil
	}

	atr := talib.Atr(highs, lows, closes, period)
	if len(atr) == 0 {
		return nil
	}

	last := atr[len(atr)-1]
	if isNaN(last) {
		return nil
	}
	return &last
}

// ATRPercent expresses the latest ATR as a percent of the latest close.
// Useful as a per-day expected-move yardstick.
func ATRPercent(highs, lows, closes []float64, period int) *float64 {
	atr := CalculateATR(highs, lows, closes, period)
	if atr == nil || len(closes) == 0 || closes[len(closes)-1] <= 0 {
		return nil
	}

	pct := *atr / closes[len(closes)-1] * 100
	return &pct
}

// isNaN checks if a float64 is NaN
func isNaN(f float64) bool {
	return f != f
}
