package merge

import (
	"sort"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/gridsight/energycast/internal/model"
)

// Report counts rows the merge dropped, by reason. Drops are reported, never
// silently absorbed.
type Report struct {
	EmptyBuildingColumns int `json:"empty_building_columns"`
	MissingMetadata      int `json:"missing_metadata"`
	MissingWeather       int `json:"missing_weather"`
}

// Drops flattens the report into the run-ledger drop map.
func (r Report) Drops() map[string]int {
	return map[string]int{
		"empty_building_columns": r.EmptyBuildingColumns,
		"missing_metadata":       r.MissingMetadata,
		"missing_weather":        r.MissingWeather,
	}
}

type weatherKey struct {
	siteID string
	ts     time.Time
}

// Merge joins long-format readings with metadata (on building_id) and
// weather (on site_id + timestamp). Both joins are inner: a reading without
// a metadata or weather match is dropped and counted. The output is sorted
// by building then timestamp and holds exactly one row per building-hour;
// a duplicate key in any input is an error, not a silent overwrite.
func Merge(readings []Reading, metadata []Metadata, weather []WeatherRecord) ([]model.HourlyRecord, Report, error) {
	var report Report

	metaByBuilding := make(map[string]Metadata, len(metadata))
	for _, m := range metadata {
		if _, dup := metaByBuilding[m.BuildingID]; dup {
			return nil, report, eris.Errorf("merge: duplicate metadata for building %s", m.BuildingID)
		}
		metaByBuilding[m.BuildingID] = m
	}

	weatherByKey := make(map[weatherKey]WeatherRecord, len(weather))
	for _, w := range weather {
		key := weatherKey{siteID: w.SiteID, ts: w.Timestamp}
		if _, dup := weatherByKey[key]; dup {
			return nil, report, eris.Errorf("merge: duplicate weather for site %s at %s", w.SiteID, w.Timestamp.Format(model.TimestampLayout))
		}
		weatherByKey[key] = w
	}

	type mergedKey struct {
		buildingID string
		ts         time.Time
	}
	seen := make(map[mergedKey]bool, len(readings))

	out := make([]model.HourlyRecord, 0, len(readings))
	for _, r := range readings {
		key := mergedKey{buildingID: r.BuildingID, ts: r.Timestamp}
		if seen[key] {
			return nil, report, eris.Errorf("merge: duplicate reading for building %s at %s", r.BuildingID, r.Timestamp.Format(model.TimestampLayout))
		}
		seen[key] = true

		meta, ok := metaByBuilding[r.BuildingID]
		if !ok {
			report.MissingMetadata++
			continue
		}
		w, ok := weatherByKey[weatherKey{siteID: meta.SiteID, ts: r.Timestamp}]
		if !ok {
			report.MissingWeather++
			continue
		}

		out = append(out, model.HourlyRecord{
			BuildingID:     r.BuildingID,
			SiteID:         meta.SiteID,
			Timestamp:      r.Timestamp,
			Usage:          r.Usage,
			Sqm:            meta.Sqm,
			BuildingType:   meta.Type,
			AirTemperature: w.AirTemperature,
			DewTemperature: w.DewTemperature,
			SeaLvlPressure: w.SeaLvlPressure,
			WindSpeed:      w.WindSpeed,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].BuildingID != out[j].BuildingID {
			return out[i].BuildingID < out[j].BuildingID
		}
		return out[i].Timestamp.Before(out[j].Timestamp)
	})

	if report.MissingMetadata > 0 || report.MissingWeather > 0 {
		zap.L().Info("merge dropped unmatched rows",
			zap.Int("missing_metadata", report.MissingMetadata),
			zap.Int("missing_weather", report.MissingWeather),
		)
	}
	return out, report, nil
}

// Run loads the three raw inputs and merges them.
func Run(metadataPath, weatherPath, electricityPath string) ([]model.HourlyRecord, Report, error) {
	metadata, err := LoadMetadata(metadataPath)
	if err != nil {
		return nil, Report{}, err
	}
	weather, err := LoadWeather(weatherPath)
	if err != nil {
		return nil, Report{}, err
	}
	readings, emptyColumns, err := LoadElectricity(electricityPath)
	if err != nil {
		return nil, Report{}, err
	}

	records, report, err := Merge(readings, metadata, weather)
	if err != nil {
		return nil, Report{}, err
	}
	report.EmptyBuildingColumns = emptyColumns
	return records, report, nil
}
