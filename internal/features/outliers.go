package features

import (
	"sort"

	"github.com/rotisserie/eris"
	"gonum.org/v1/gonum/stat"

	"github.com/gridsight/energycast/internal/model"
)

// outlierBounds computes [Q1 - k*IQR, Q3 + k*IQR] over the overall
// consumption distribution (not per building). Quantiles use linear
// interpolation between order statistics.
func outlierBounds(rows []model.FeatureRecord, k float64) (lo, hi float64, err error) {
	if len(rows) == 0 {
		return 0, 0, eris.New("features: no rows to compute outlier bounds")
	}
	values := make([]float64, len(rows))
	for i, r := range rows {
		values[i] = r.Usage
	}
	sort.Float64s(values)

	q1 := stat.Quantile(0.25, stat.LinInterp, values, nil)
	q3 := stat.Quantile(0.75, stat.LinInterp, values, nil)
	iqr := q3 - q1
	return q1 - k*iqr, q3 + k*iqr, nil
}

// dropOutliers removes rows whose consumption falls outside [lo, hi].
// This runs after lag computation, so a dropped day still feeds its
// neighbors' lag_1/lag_7 values.
func dropOutliers(rows []model.FeatureRecord, lo, hi float64) ([]model.FeatureRecord, int) {
	out := rows[:0]
	dropped := 0
	for _, r := range rows {
		if r.Usage < lo || r.Usage > hi {
			dropped++
			continue
		}
		out = append(out, r)
	}
	return out, dropped
}
