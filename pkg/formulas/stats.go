// Package formulas provides the statistical building blocks used by the
// VRP calculator and the scoring engine.
package formulas

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Mean calculates the arithmetic mean of a slice of float64 values
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.Mean(data, nil)
}

// Median calculates the median of a slice of float64 values, averaging the
// two middle elements for even-length input. The input slice is not modified.
func Median(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}

	sorted := make([]float64, len(data))
	copy(sorted, data)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

// StdDev calculates the sample standard deviation (n-1) of a slice of
// float64 values. Sample convention is used everywhere in this codebase;
// fixtures are generated with the same convention.
func StdDev(data []float64) float64 {
	if len(data) < 2 {
		return 0
	}
	return stat.StdDev(data, nil)
}

// MeanAbsDev calculates the mean absolute deviation around the mean.
// Used as the dispersion term in the edge-score formula.
func MeanAbsDev(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}

	mean := stat.Mean(data, nil)
	total := 0.0
	for _, v := range data {
		total += math.Abs(v - mean)
	}
	return total / float64(len(data))
}

// AbsValues returns a new slice with the absolute value of each element.
// Move direction is irrelevant to volatility comparisons.
func AbsValues(data []float64) []float64 {
	out := make([]float64, len(data))
	for i, v := range data {
		out[i] = math.Abs(v)
	}
	return out
}

// CalculateReturns converts prices to percentage returns
// Returns[i] = (Price[i] - Price[i-1]) / Price[i-1]
func CalculateReturns(prices []float64) []float64 {
	if len(prices) < 2 {
		return []float64{}
	}

	returns := make([]float64, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		if prices[i-1] != 0 {
			returns[i-1] = (prices[i] - prices[i-1]) / prices[i-1]
		}
	}

	return returns
}
