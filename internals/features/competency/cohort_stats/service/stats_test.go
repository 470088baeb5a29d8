package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescribe_TwoValues(t *testing.T) {
	got := Describe([]float64{40, 60})
	assert.Equal(t, 2, got.Count)
	assert.Equal(t, 50.0, got.Mean)
	assert.Equal(t, 50.0, got.Median)
	assert.Equal(t, 10.0, got.StdDev)
	assert.Equal(t, 60.0, got.Max)
}

func TestDescribe_Empty(t *testing.T) {
	assert.Equal(t, Summary{}, Describe(nil))
}

func TestMedian(t *testing.T) {
	assert.Equal(t, 3.0, Median([]float64{5, 1, 3}))
	assert.Equal(t, 2.5, Median([]float64{4, 1, 3, 2}))

	in := []float64{3, 1, 2}
	Median(in)
	assert.Equal(t, []float64{3, 1, 2}, in, "input is not reordered")
}

func TestPopulationStdDev(t *testing.T) {
	// 2,4,4,4,5,5,7,9 → mean 5, population sd 2
	assert.InDelta(t, 2.0, PopulationStdDev([]float64{2, 4, 4, 4, 5, 5, 7, 9}), 1e-9)
	assert.Equal(t, 0.0, PopulationStdDev([]float64{7}))
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 3.33, Round2(10.0/3))
	assert.Equal(t, 6.67, Round2(20.0/3))
	assert.Equal(t, -1.24, Round2(-1.236))
	assert.Equal(t, 2.5, Round2(2.5))

	// half cases whose binary form sits just below the midpoint
	assert.Equal(t, 1.01, Round2(1.005))
	assert.Equal(t, -1.01, Round2(-1.005))
	assert.Equal(t, 2.68, Round2(2.675))
	assert.Equal(t, 0.0, Round2(0.004))
}

func TestPercentileRank(t *testing.T) {
	xs := []float64{10, 20, 30, 40}
	assert.Equal(t, 62.5, PercentileRank(xs, 30))
	assert.Equal(t, 0.0, PercentileRank(xs, 5))
	assert.Equal(t, 100.0, PercentileRank(xs, 50))
	assert.Equal(t, 0.0, PercentileRank(nil, 1))
}

func TestDistribution(t *testing.T) {
	assert.Equal(t, "0-10", BandLabel(0))
	assert.Equal(t, "0-10", BandLabel(9.99))
	assert.Equal(t, "10-20", BandLabel(10))
	assert.Equal(t, "120-130", BandLabel(125.5))

	b, err := DistributionJSON([]float64{5, 15, 17, 99})
	require.NoError(t, err)
	assert.JSONEq(t, `{"0-10":1,"10-20":2,"90-100":1}`, string(b))

	again, err := DistributionJSON([]float64{99, 17, 15, 5})
	require.NoError(t, err)
	assert.Equal(t, string(b), string(again))
}
