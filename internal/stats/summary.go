// Package stats summarizes and exports the artifacts of finished runs.
package stats

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"genom/internal/gene"
)

// SeriesSummary describes a best-fitness-by-generation series.
type SeriesSummary struct {
	Generations int     `json:"generations"`
	InitialBest float64 `json:"initial_best"`
	FinalBest   float64 `json:"final_best"`
	BestMean    float64 `json:"best_mean"`
	BestStd     float64 `json:"best_std"`
	BestMax     float64 `json:"best_max"`
	BestMin     float64 `json:"best_min"`
	// Improvement is positive when the final best beats the initial best in
	// the optimization direction.
	Improvement float64 `json:"improvement"`
}

func SummarizeSeries(series []float64, opt gene.Optimize) SeriesSummary {
	summary := SeriesSummary{Generations: len(series)}
	if len(series) == 0 {
		return summary
	}
	summary.InitialBest = series[0]
	summary.FinalBest = series[len(series)-1]
	summary.BestMax = floats.Max(series)
	summary.BestMin = floats.Min(series)
	summary.BestMean, summary.BestStd = stat.MeanStdDev(series, nil)
	if math.IsNaN(summary.BestStd) {
		summary.BestStd = 0
	}
	summary.Improvement = summary.FinalBest - summary.InitialBest
	if opt == gene.Minimum {
		summary.Improvement = -summary.Improvement
	}
	return summary
}
