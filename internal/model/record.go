// Package model holds the record types shared across pipeline stages.
package model

import (
	"math"
	"time"

	"github.com/rotisserie/eris"
)

// TimestampLayout is the wire format of hourly timestamps in the raw
// weather and electricity files (day-month-year, 24h clock).
const TimestampLayout = "02-01-2006 15:04"

// DateLayout is the wire format of the daily feature table's date column.
const DateLayout = "2006-01-02"

// TargetColumn is the name of the modeling target in the feature table.
const TargetColumn = "electricity_usage"

// HourlyRecord is one row of the merged hourly table: one building, one
// hour, with weather and metadata already joined in.
type HourlyRecord struct {
	BuildingID     string    `csv:"building_id"`
	SiteID         string    `csv:"site_id"`
	Timestamp      time.Time `csv:"timestamp"`
	Usage          float64   `csv:"electricity_usage"`
	Sqm            float64   `csv:"sqm"`
	BuildingType   string    `csv:"type"`
	AirTemperature float64   `csv:"airTemperature"`
	DewTemperature float64   `csv:"dewTemperature"`
	SeaLvlPressure float64   `csv:"seaLvlPressure"`
	WindSpeed      float64   `csv:"windSpeed"`
}

// Date is a calendar day. It marshals as 2006-01-02 in CSV.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf truncates a timestamp to its calendar day.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// Time returns the midnight instant of the day in UTC.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// Before reports whether d is earlier than other.
func (d Date) Before(other Date) bool {
	return d.Time().Before(other.Time())
}

func (d Date) String() string {
	return d.Time().Format(DateLayout)
}

// MarshalText implements encoding.TextMarshaler for CSV output.
func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler for CSV input.
func (d *Date) UnmarshalText(text []byte) error {
	t, err := time.Parse(DateLayout, string(text))
	if err != nil {
		return eris.Wrapf(err, "model: parse date %q", string(text))
	}
	*d = DateOf(t)
	return nil
}

// FeatureRecord is one row of the daily modeling table.
//
// DayOfWeek uses the Monday=0 convention (Saturday=5, Sunday=6), and
// IsWeekend is 1 exactly when DayOfWeek is 5 or 6.
type FeatureRecord struct {
	BuildingID     string  `csv:"building_id"`
	SiteID         string  `csv:"site_id"`
	Date           Date    `csv:"date"`
	Usage          float64 `csv:"electricity_usage"`
	Month          int     `csv:"month"`
	DayOfWeek      int     `csv:"day_of_week"`
	IsWeekend      int     `csv:"is_weekend"`
	AirTemperature float64 `csv:"airTemperature"`
	DewTemperature float64 `csv:"dewTemperature"`
	SeaLvlPressure float64 `csv:"seaLvlPressure"`
	WindSpeed      float64 `csv:"windSpeed"`
	Sqm            float64 `csv:"sqm"`
	BuildingType   string  `csv:"type"`
	Lag1           float64 `csv:"lag_1"`
	Lag7           float64 `csv:"lag_7"`
}

// DefaultPredictors is the canonical ordered predictor set emitted by the
// feature builder. Order is significant: it is persisted to predictors.txt
// and recorded inside the trained model bundle.
var DefaultPredictors = []string{
	"month",
	"day_of_week",
	"is_weekend",
	"airTemperature",
	"dewTemperature",
	"seaLvlPressure",
	"windSpeed",
	"sqm",
	"lag_1",
	"lag_7",
}

// Predictor returns the value of the named predictor column.
// Unknown names are schema errors, not zeros.
func (r *FeatureRecord) Predictor(name string) (float64, error) {
	switch name {
	case "month":
		return float64(r.Month), nil
	case "day_of_week":
		return float64(r.DayOfWeek), nil
	case "is_weekend":
		return float64(r.IsWeekend), nil
	case "airTemperature":
		return r.AirTemperature, nil
	case "dewTemperature":
		return r.DewTemperature, nil
	case "seaLvlPressure":
		return r.SeaLvlPressure, nil
	case "windSpeed":
		return r.WindSpeed, nil
	case "sqm":
		return r.Sqm, nil
	case "lag_1":
		return r.Lag1, nil
	case "lag_7":
		return r.Lag7, nil
	}
	return math.NaN(), eris.Errorf("model: unknown predictor column %q", name)
}

// Vector materializes the record's predictor values in the given column
// order. It fails on the first unknown column name.
func (r *FeatureRecord) Vector(predictors []string) ([]float64, error) {
	out := make([]float64, len(predictors))
	for i, name := range predictors {
		v, err := r.Predictor(name)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
