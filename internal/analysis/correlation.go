package analysis

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// pairwiseCorrelation computes a Pearson correlation matrix over n columns,
// using for each pair only the rows where both values are observed
// (pairwise-complete, the convention statistics tooling defaults to).
func pairwiseCorrelation(n int, rows [][]float64) *mat.SymDense {
	m := mat.NewSymDense(n, nil)

	for i := 0; i < n; i++ {
		m.SetSym(i, i, 1)
		for j := i + 1; j < n; j++ {
			m.SetSym(i, j, pairCorrelation(rows, i, j))
		}
	}
	return m
}

func pairCorrelation(rows [][]float64, i, j int) float64 {
	xs := make([]float64, 0, len(rows))
	ys := make([]float64, 0, len(rows))
	for _, row := range rows {
		x, y := row[i], row[j]
		if math.IsNaN(x) || math.IsNaN(y) {
			continue
		}
		xs = append(xs, x)
		ys = append(ys, y)
	}
	if len(xs) < 2 {
		return math.NaN()
	}
	return stat.Correlation(xs, ys, nil)
}
