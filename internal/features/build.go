package features

import (
	"math"

	"go.uber.org/zap"

	"github.com/gridsight/energycast/internal/config"
	"github.com/gridsight/energycast/internal/model"
)

// Report counts what the build did to the daily table.
type Report struct {
	DailyRows       int `json:"daily_rows"`
	LagDropped      int `json:"lag_dropped"`
	OutliersDropped int `json:"outliers_dropped"`
	ValuesImputed   int `json:"values_imputed"`
}

// Drops flattens the report into the run-ledger drop map.
func (r Report) Drops() map[string]int {
	return map[string]int{
		"missing_lag_history": r.LagDropped,
		"target_outlier":      r.OutliersDropped,
	}
}

// Predictors returns the ordered predictor column list persisted alongside
// the feature table.
func Predictors() []string {
	out := make([]string, len(model.DefaultPredictors))
	copy(out, model.DefaultPredictors)
	return out
}

// Build derives the daily modeling table from the merged hourly table.
//
// Order of operations is fixed and load-bearing:
//  1. aggregate to one row per building-day (sum usage, mean weather)
//  2. calendar features (month, day_of_week Monday=0, is_weekend)
//  3. lag_1/lag_7 from each building's own sorted history
//  4. drop rows with insufficient lag history (drop, not zero-impute)
//  5. drop target outliers outside [Q1-k*IQR, Q3+k*IQR] — after lags, so a
//     dropped day still supplies lag values to its neighbors
//  6. zero-impute any weather value still NaN. This is lossy: zero stands
//     in for "nothing observed", which is only defensible for fields where
//     absence and zero coincide.
//
// The build is deterministic: the same input and config always produce the
// same rows in the same order.
func Build(hourly []model.HourlyRecord, cfg config.FeaturesConfig) ([]model.FeatureRecord, Report, error) {
	var report Report
	if err := cfg.Validate(); err != nil {
		return nil, report, err
	}

	log := zap.L().With(zap.String("stage", "features"))

	rows := aggregateDaily(hourly)
	report.DailyRows = len(rows)

	for i := range rows {
		applyCalendar(&rows[i])
	}

	applyLags(rows)
	rows, report.LagDropped = dropMissingLags(rows)

	lo, hi, err := outlierBounds(rows, cfg.IQRMultiplier)
	if err != nil {
		return nil, report, err
	}
	rows, report.OutliersDropped = dropOutliers(rows, lo, hi)

	report.ValuesImputed = imputeZero(rows)
	if report.ValuesImputed > 0 {
		log.Warn("zero-imputed missing predictor values",
			zap.Int("values", report.ValuesImputed),
		)
	}

	log.Info("built feature table",
		zap.Int("daily_rows", report.DailyRows),
		zap.Int("lag_dropped", report.LagDropped),
		zap.Int("outliers_dropped", report.OutliersDropped),
		zap.Int("feature_rows", len(rows)),
	)
	return rows, report, nil
}

// imputeZero replaces NaN in the continuous predictor columns with zero and
// returns how many values were touched.
func imputeZero(rows []model.FeatureRecord) int {
	imputed := 0
	fix := func(v *float64) {
		if math.IsNaN(*v) {
			*v = 0
			imputed++
		}
	}
	for i := range rows {
		fix(&rows[i].AirTemperature)
		fix(&rows[i].DewTemperature)
		fix(&rows[i].SeaLvlPressure)
		fix(&rows[i].WindSpeed)
		fix(&rows[i].Sqm)
	}
	return imputed
}
