package formulas

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMedian(t *testing.T) {
	tests := []struct {
		name string
		data []float64
		want float64
	}{
		{name: "empty", data: nil, want: 0},
		{name: "single value", data: []float64{3.5}, want: 3.5},
		{name: "odd count", data: []float64{5.0, 1.0, 3.0}, want: 3.0},
		{name: "even count", data: []float64{4.0, 1.0, 3.0, 2.0}, want: 2.5},
		{name: "input order irrelevant", data: []float64{9.0, 2.0, 7.0, 4.0, 1.0}, want: 4.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Median(tt.data), 1e-9)
		})
	}
}

func TestMedianDoesNotMutateInput(t *testing.T) {
	data := []float64{3.0, 1.0, 2.0}
	Median(data)
	assert.Equal(t, []float64{3.0, 1.0, 2.0}, data)
}

func TestMeanAbsDev(t *testing.T) {
	// mean = 4, deviations = [2, 0, 2], MAD = 4/3
	data := []float64{2.0, 4.0, 6.0}
	assert.InDelta(t, 4.0/3.0, MeanAbsDev(data), 1e-9)
}

func TestMeanAbsDevUniformSeries(t *testing.T) {
	data := []float64{4.0, 4.0, 4.0, 4.0}
	assert.Equal(t, 0.0, MeanAbsDev(data))
}

func TestStdDevSampleConvention(t *testing.T) {
	// Sample stddev (n-1) of [2,4,4,4,5,5,7,9] is ~2.138
	data := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	assert.InDelta(t, 2.1381, StdDev(data), 0.001)
}

func TestStdDevInsufficientData(t *testing.T) {
	assert.Equal(t, 0.0, StdDev([]float64{5.0}))
	assert.Equal(t, 0.0, StdDev(nil))
}

func TestAbsValues(t *testing.T) {
	data := []float64{4.1, -4.0, 0.0, -3.8}
	assert.Equal(t, []float64{4.1, 4.0, 0.0, 3.8}, AbsValues(data))
}

func TestCalculateReturns(t *testing.T) {
	prices := []float64{100.0, 110.0, 99.0}
	returns := CalculateReturns(prices)

	assert.Len(t, returns, 2)
	assert.InDelta(t, 0.10, returns[0], 1e-9)
	assert.InDelta(t, -0.10, returns[1], 1e-9)
}

func TestRealizedVolatilityInsufficientData(t *testing.T) {
	assert.Nil(t, RealizedVolatility([]float64{100, 101}, 20))
}

func TestRealizedVolatilityFlatSeries(t *testing.T) {
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 100.0
	}

	vol := RealizedVolatility(closes, 20)
	if assert.NotNil(t, vol) {
		assert.InDelta(t, 0.0, *vol, 1e-9)
	}
}

func TestCalculateATR(t *testing.T) {
	n := 20
	highs := make([]float64, n)
	lows := make([]float64, n)
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = 100.0
		highs[i] = 101.0
		lows[i] = 99.0
	}

	// Constant 2-point true range gives ATR = 2.
	atr := CalculateATR(highs, lows, closes, 14)
	if assert.NotNil(t, atr) {
		assert.InDelta(t, 2.0, *atr, 1e-6)
	}
}

func TestCalculateATRInsufficientData(t *testing.T) {
	assert.Nil(t, CalculateATR([]float64{101}, []float64{99}, []float64{100}, 14))
}

func TestCalculateATRMismatchedLengths(t *testing.T) {
	closes := make([]float64, 20)
	assert.Nil(t, CalculateATR(make([]float64, 19), make([]float64, 20), closes, 14))
}

func TestATRPercent(t *testing.T) {
	n := 20
	highs := make([]float64, n)
	lows := make([]float64, n)
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = 200.0
		highs[i] = 202.0
		lows[i] = 198.0
	}

	pct := ATRPercent(highs, lows, closes, 14)
	if assert.NotNil(t, pct) {
		assert.InDelta(t, 2.0, *pct, 1e-6)
	}
}
