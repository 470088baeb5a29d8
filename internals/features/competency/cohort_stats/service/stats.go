// file: internals/features/competency/cohort_stats/service/stats.go
package service

import (
	"math"
	"sort"
	"strconv"

	"github.com/bytedance/sonic"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// BandWidth is the width of a distribution band over totalScore.
const BandWidth = 10

// Round2 rounds half away from zero to two decimals on the shortest
// decimal form of v, so 1.005 becomes 1.01.
func Round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// Median averages the two middle values for even counts.
func Median(xs []float64) float64 {
	n := len(xs)
	if n == 0 {
		return 0
	}
	s := append([]float64(nil), xs...)
	sort.Float64s(s)
	if n%2 == 1 {
		return s[n/2]
	}
	return (s[n/2-1] + s[n/2]) / 2
}

// PopulationStdDev divides by N, not N-1.
func PopulationStdDev(xs []float64) float64 {
	n := len(xs)
	if n == 0 {
		return 0
	}
	m := Mean(xs)
	ss := 0.0
	for _, x := range xs {
		d := x - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(n))
}

func Max(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	out := xs[0]
	for _, x := range xs[1:] {
		if x > out {
			out = x
		}
	}
	return out
}

// PercentileRank of v within xs: share strictly below plus half the ties,
// on a 0..100 scale.
func PercentileRank(xs []float64, v float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	below, equal := 0, 0
	for _, x := range xs {
		switch {
		case x < v:
			below++
		case x == v:
			equal++
		}
	}
	return (float64(below) + float64(equal)/2) / float64(len(xs)) * 100
}

// BandLabel returns "lo-hi" for the band containing v. Negative values fall
// into the first band.
func BandLabel(v float64) string {
	lo := int(math.Floor(v/BandWidth)) * BandWidth
	if lo < 0 {
		lo = 0
	}
	return strconv.Itoa(lo) + "-" + strconv.Itoa(lo+BandWidth)
}

func Distribution(xs []float64) map[string]int {
	out := make(map[string]int)
	for _, x := range xs {
		out[BandLabel(x)]++
	}
	return out
}

// DistributionJSON encodes the band counts with sorted keys so rebuilds are
// byte-stable.
func DistributionJSON(xs []float64) (datatypes.JSON, error) {
	b, err := sonic.ConfigStd.Marshal(Distribution(xs))
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(b), nil
}

// Summary is the rounded descriptive statistics of one value set.
type Summary struct {
	Count  int
	Mean   float64
	Max    float64
	Median float64
	StdDev float64
}

func Describe(xs []float64) Summary {
	return Summary{
		Count:  len(xs),
		Mean:   Round2(Mean(xs)),
		Max:    Round2(Max(xs)),
		Median: Round2(Median(xs)),
		StdDev: Round2(PopulationStdDev(xs)),
	}
}
