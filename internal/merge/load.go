package merge

import (
	"math"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Metadata is one building's carried-through metadata. Columns the modeling
// table never uses (solar, industry, heating type, EUI variants, ratings...)
// are discarded at load time.
type Metadata struct {
	BuildingID string
	SiteID     string
	Sqm        float64
	Type       string
}

// WeatherRecord is one site-hour of weather observations. A blank numeric
// cell loads as NaN and is resolved later by the feature builder.
type WeatherRecord struct {
	SiteID         string
	Timestamp      time.Time
	AirTemperature float64
	DewTemperature float64
	SeaLvlPressure float64
	WindSpeed      float64
}

// Reading is one long-format electricity reading after the wide-to-long
// reshape: one building, one hour.
type Reading struct {
	BuildingID string
	Timestamp  time.Time
	Usage      float64
}

// LoadMetadata reads the building metadata file (CSV or XLSX), keeping only
// the columns used downstream.
func LoadMetadata(path string) ([]Metadata, error) {
	t, err := loadTable(path)
	if err != nil {
		return nil, err
	}
	if err := t.require("building_id", "site_id", "sqm"); err != nil {
		return nil, err
	}

	out := make([]Metadata, 0, len(t.rows))
	for _, row := range t.rows {
		id := t.get(row, "building_id")
		if id == "" {
			continue
		}
		sqm, err := parseFloat(t.get(row, "sqm"))
		if err != nil {
			return nil, eris.Wrapf(err, "merge: metadata sqm for building %s", id)
		}
		out = append(out, Metadata{
			BuildingID: id,
			SiteID:     t.get(row, "site_id"),
			Sqm:        sqm,
			Type:       t.get(row, "type"),
		})
	}
	return out, nil
}

// LoadWeather reads the weather file (CSV or XLSX).
func LoadWeather(path string) ([]WeatherRecord, error) {
	t, err := loadTable(path)
	if err != nil {
		return nil, err
	}
	if err := t.require("site_id", "timestamp", "airTemperature", "dewTemperature", "seaLvlPressure", "windSpeed"); err != nil {
		return nil, err
	}

	out := make([]WeatherRecord, 0, len(t.rows))
	for _, row := range t.rows {
		ts, err := parseTimestamp(t.get(row, "timestamp"))
		if err != nil {
			return nil, err
		}
		out = append(out, WeatherRecord{
			SiteID:         t.get(row, "site_id"),
			Timestamp:      ts,
			AirTemperature: parseFloatOrNaN(t.get(row, "airTemperature")),
			DewTemperature: parseFloatOrNaN(t.get(row, "dewTemperature")),
			SeaLvlPressure: parseFloatOrNaN(t.get(row, "seaLvlPressure")),
			WindSpeed:      parseFloatOrNaN(t.get(row, "windSpeed")),
		})
	}
	return out, nil
}

// LoadElectricity reads the wide electricity file (one timestamp column,
// one column per building, hourly rows) and unpivots it to long format.
// A building column with no data anywhere in the series is dropped; the
// returned count reports how many were.
func LoadElectricity(path string) ([]Reading, int, error) {
	t, err := loadTable(path)
	if err != nil {
		return nil, 0, err
	}
	if err := t.require("timestamp"); err != nil {
		return nil, 0, err
	}
	if len(t.header) < 2 {
		return nil, 0, eris.New("merge: electricity file has no building columns")
	}

	tsCol := t.idx["timestamp"]
	var readings []Reading
	nonEmpty := make(map[int]bool, len(t.header))

	for _, row := range t.rows {
		if tsCol >= len(row) {
			continue
		}
		ts, err := parseTimestamp(row[tsCol])
		if err != nil {
			return nil, 0, err
		}
		for col, name := range t.header {
			if col == tsCol || name == "" {
				continue
			}
			if col >= len(row) {
				continue
			}
			cell := row[col]
			if cell == "" {
				continue // missing reading for this building-hour
			}
			usage, err := parseFloat(cell)
			if err != nil {
				return nil, 0, eris.Wrapf(err, "merge: usage for building %s at %s", name, row[tsCol])
			}
			nonEmpty[col] = true
			readings = append(readings, Reading{BuildingID: name, Timestamp: ts, Usage: usage})
		}
	}

	emptyColumns := 0
	for col, name := range t.header {
		if col == tsCol || name == "" {
			continue
		}
		if !nonEmpty[col] {
			emptyColumns++
			zap.L().Warn("dropping building column with no data", zap.String("building", name))
		}
	}
	return readings, emptyColumns, nil
}

func parseFloat(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, eris.Errorf("merge: invalid number %q", s)
	}
	return v, nil
}

func parseFloatOrNaN(s string) float64 {
	if s == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}
