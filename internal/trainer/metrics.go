// Package trainer fits and evaluates the consumption forecasting model.
package trainer

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Metrics holds the held-out evaluation plus the cross-validation summary.
type Metrics struct {
	RMSE     float64
	MAE      float64
	R2       float64
	FoldRMSE []float64
	CVMean   float64
	CVStd    float64
}

// rmse is the root mean squared prediction error.
func rmse(predicted, actual []float64) float64 {
	sum := 0.0
	for i := range actual {
		d := predicted[i] - actual[i]
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(actual)))
}

// mae is the mean absolute prediction error.
func mae(predicted, actual []float64) float64 {
	sum := 0.0
	for i := range actual {
		sum += math.Abs(predicted[i] - actual[i])
	}
	return sum / float64(len(actual))
}

// r2 is the coefficient of determination.
func r2(predicted, actual []float64) float64 {
	return stat.RSquaredFrom(predicted, actual, nil)
}

// summarize folds the per-fold RMSE values into mean and stddev.
func summarize(foldRMSE []float64) (mean, std float64) {
	mean = stat.Mean(foldRMSE, nil)
	std = stat.StdDev(foldRMSE, nil)
	if math.IsNaN(std) { // single fold
		std = 0
	}
	return mean, std
}
