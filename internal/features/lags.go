package features

import (
	"math"

	"github.com/gridsight/energycast/internal/model"
)

// applyLags fills lag_1 and lag_7 by shifting each building's consumption
// series 1 and 7 positions. Rows must already be sorted by building then
// date. A lag never crosses a building boundary: the first rows of each
// building's series keep NaN lags and are dropped by dropMissingLags.
func applyLags(rows []model.FeatureRecord) {
	start := 0 // index of the current building's first row
	for i := range rows {
		if rows[i].BuildingID != rows[start].BuildingID {
			start = i
		}
		if i-start >= 1 {
			rows[i].Lag1 = rows[i-1].Usage
		}
		if i-start >= 7 {
			rows[i].Lag7 = rows[i-7].Usage
		}
	}
}

// dropMissingLags removes rows whose lag window precedes the building's own
// history (the chosen gap policy is drop, not zero-impute). Returns the
// surviving rows and the drop count.
func dropMissingLags(rows []model.FeatureRecord) ([]model.FeatureRecord, int) {
	out := rows[:0]
	dropped := 0
	for _, r := range rows {
		if math.IsNaN(r.Lag1) || math.IsNaN(r.Lag7) {
			dropped++
			continue
		}
		out = append(out, r)
	}
	return out, dropped
}
