package features

import (
	"math"
	"sort"

	"github.com/gridsight/energycast/internal/model"
)

// meanAcc averages the non-NaN hours of one weather field across a day.
// A day whose field is NaN for every hour stays NaN and is resolved by
// zero imputation at the end of the build.
type meanAcc struct {
	sum float64
	n   int
}

func (a *meanAcc) add(v float64) {
	if math.IsNaN(v) {
		return
	}
	a.sum += v
	a.n++
}

func (a *meanAcc) mean() float64 {
	if a.n == 0 {
		return math.NaN()
	}
	return a.sum / float64(a.n)
}

type dailyAcc struct {
	record   model.FeatureRecord
	usage    float64
	air      meanAcc
	dew      meanAcc
	pressure meanAcc
	wind     meanAcc
}

// aggregateDaily groups hourly records by (building, date): consumption is
// summed, weather fields are averaged, metadata carries through unchanged.
// The result is sorted by building then date, which the lag pass relies on.
func aggregateDaily(hourly []model.HourlyRecord) []model.FeatureRecord {
	type key struct {
		buildingID string
		date       model.Date
	}

	accs := make(map[key]*dailyAcc)
	for _, h := range hourly {
		k := key{buildingID: h.BuildingID, date: model.DateOf(h.Timestamp)}
		acc, ok := accs[k]
		if !ok {
			acc = &dailyAcc{record: model.FeatureRecord{
				BuildingID:   h.BuildingID,
				SiteID:       h.SiteID,
				Date:         k.date,
				Sqm:          h.Sqm,
				BuildingType: h.BuildingType,
				Lag1:         math.NaN(),
				Lag7:         math.NaN(),
			}}
			accs[k] = acc
		}
		acc.usage += h.Usage
		acc.air.add(h.AirTemperature)
		acc.dew.add(h.DewTemperature)
		acc.pressure.add(h.SeaLvlPressure)
		acc.wind.add(h.WindSpeed)
	}

	out := make([]model.FeatureRecord, 0, len(accs))
	for _, acc := range accs {
		r := acc.record
		r.Usage = acc.usage
		r.AirTemperature = acc.air.mean()
		r.DewTemperature = acc.dew.mean()
		r.SeaLvlPressure = acc.pressure.mean()
		r.WindSpeed = acc.wind.mean()
		out = append(out, r)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].BuildingID != out[j].BuildingID {
			return out[i].BuildingID < out[j].BuildingID
		}
		return out[i].Date.Before(out[j].Date)
	})
	return out
}
