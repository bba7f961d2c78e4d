package features

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridsight/energycast/internal/config"
	"github.com/gridsight/energycast/internal/model"
)

func defaultCfg() config.FeaturesConfig {
	return config.FeaturesConfig{IQRMultiplier: 1.5}
}

// hours builds one day of hourly records for a building with a flat per-hour
// usage, so the daily sum is 24*usagePerHour.
func hours(buildingID string, day time.Time, usagePerHour float64) []model.HourlyRecord {
	out := make([]model.HourlyRecord, 0, 24)
	for h := 0; h < 24; h++ {
		out = append(out, model.HourlyRecord{
			BuildingID:     buildingID,
			SiteID:         "site_1",
			Timestamp:      day.Add(time.Duration(h) * time.Hour),
			Usage:          usagePerHour,
			Sqm:            1200,
			BuildingType:   "Office",
			AirTemperature: 20,
			DewTemperature: 10,
			SeaLvlPressure: 1013,
			WindSpeed:      3,
		})
	}
	return out
}

// days builds consecutive full days for a building. usagePerHour[i] applies
// to day i.
func days(buildingID string, start time.Time, usagePerHour ...float64) []model.HourlyRecord {
	var out []model.HourlyRecord
	for i, u := range usagePerHour {
		out = append(out, hours(buildingID, start.AddDate(0, 0, i), u)...)
	}
	return out
}

func TestDayOfWeek_MondayIsZero(t *testing.T) {
	// 2016-01-04 is a Monday.
	monday := model.DateOf(time.Date(2016, 1, 4, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, 0, dayOfWeek(monday))

	sunday := model.DateOf(time.Date(2016, 1, 10, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, 6, dayOfWeek(sunday))
}

func TestIsWeekend_AllSevenValues(t *testing.T) {
	tests := []struct {
		dow     int
		weekend int
	}{
		{0, 0}, {1, 0}, {2, 0}, {3, 0}, {4, 0}, {5, 1}, {6, 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.weekend, isWeekend(tt.dow), "day_of_week %d", tt.dow)
	}
}

func TestAggregateDaily(t *testing.T) {
	start := time.Date(2016, 3, 1, 0, 0, 0, 0, time.UTC)
	hourly := hours("b1", start, 2.5)

	// One hour with NaN air temperature must not poison the daily mean.
	hourly[3].AirTemperature = math.NaN()
	hourly[5].AirTemperature = 26

	rows := aggregateDaily(hourly)
	require.Len(t, rows, 1)

	r := rows[0]
	assert.Equal(t, "b1", r.BuildingID)
	assert.Equal(t, model.DateOf(start), r.Date)
	assert.InDelta(t, 60.0, r.Usage, 1e-9) // 24 * 2.5
	assert.InDelta(t, (22*20.0+26)/23, r.AirTemperature, 1e-9)
	assert.InDelta(t, 1200.0, r.Sqm, 1e-9)
	assert.Equal(t, "Office", r.BuildingType)
	assert.True(t, math.IsNaN(r.Lag1))
	assert.True(t, math.IsNaN(r.Lag7))
}

func TestAggregateDaily_AllNaNWeatherStaysNaN(t *testing.T) {
	start := time.Date(2016, 3, 1, 0, 0, 0, 0, time.UTC)
	hourly := hours("b1", start, 1)
	for i := range hourly {
		hourly[i].WindSpeed = math.NaN()
	}

	rows := aggregateDaily(hourly)
	require.Len(t, rows, 1)
	assert.True(t, math.IsNaN(rows[0].WindSpeed))
}

func TestApplyLags_NeverCrossesBuildingBoundary(t *testing.T) {
	start := time.Date(2016, 3, 7, 0, 0, 0, 0, time.UTC)
	hourly := append(
		days("a", start, 1, 2, 3, 4, 5, 6, 7, 8, 9),
		days("b", start, 101, 102, 103, 104, 105, 106, 107, 108, 109)...,
	)

	rows := aggregateDaily(hourly)
	applyLags(rows)

	byKey := func(id string, day int) model.FeatureRecord {
		d := model.DateOf(start.AddDate(0, 0, day))
		for _, r := range rows {
			if r.BuildingID == id && r.Date == d {
				return r
			}
		}
		t.Fatalf("no row for %s day %d", id, day)
		return model.FeatureRecord{}
	}

	// lag_1 at day d equals the same building's consumption at day d-1.
	for day := 1; day < 9; day++ {
		for _, id := range []string{"a", "b"} {
			r := byKey(id, day)
			prev := byKey(id, day-1)
			assert.InDelta(t, prev.Usage, r.Lag1, 1e-9, "building %s day %d", id, day)
		}
	}

	// Building b's first rows must not pick up building a's tail values.
	for day := 0; day < 7; day++ {
		assert.True(t, math.IsNaN(byKey("b", day).Lag7), "b day %d lag_7", day)
	}
	assert.InDelta(t, byKey("b", 0).Usage, byKey("b", 7).Lag7, 1e-9)
}

func TestBuild_TwoBuildingsTenDays(t *testing.T) {
	start := time.Date(2016, 3, 7, 0, 0, 0, 0, time.UTC)
	usage := []float64{10, 11, 12, 13, 14, 15, 16, 17, 18, 19}
	hourly := append(
		days("a", start, usage...),
		days("b", start, usage...)...,
	)

	rows, report, err := Build(hourly, defaultCfg())
	require.NoError(t, err)

	// First 7 days per building dropped for missing lag_7; nothing is an
	// outlier in this narrow distribution.
	assert.Len(t, rows, 6)
	assert.Equal(t, 20, report.DailyRows)
	assert.Equal(t, 14, report.LagDropped)
	assert.Equal(t, 0, report.OutliersDropped)

	// Row count invariant.
	assert.Equal(t, report.DailyRows-report.LagDropped-report.OutliersDropped, len(rows))
}

func TestBuild_OutlierDroppedButFeedsNeighborLags(t *testing.T) {
	start := time.Date(2016, 3, 7, 0, 0, 0, 0, time.UTC)
	// Day index 8 is a massive spike: outside the IQR bounds of the
	// surviving distribution, but still the lag_1 source for day 9.
	usage := []float64{10, 10, 10, 10, 10, 10, 10, 10, 1000, 10, 10}
	hourly := days("a", start, usage...)

	rows, report, err := Build(hourly, defaultCfg())
	require.NoError(t, err)
	assert.Equal(t, 1, report.OutliersDropped)

	spikeDate := model.DateOf(start.AddDate(0, 0, 8))
	var after *model.FeatureRecord
	for i := range rows {
		require.NotEqual(t, spikeDate, rows[i].Date, "outlier day must be absent")
		if rows[i].Date == model.DateOf(start.AddDate(0, 0, 9)) {
			after = &rows[i]
		}
	}
	require.NotNil(t, after)
	assert.InDelta(t, 1000*24.0, after.Lag1, 1e-9, "dropped day still supplies lag_1")
}

func TestBuild_Idempotent(t *testing.T) {
	start := time.Date(2016, 5, 2, 0, 0, 0, 0, time.UTC)
	hourly := append(
		days("a", start, 5, 6, 7, 8, 9, 10, 11, 12, 13),
		days("b", start, 20, 21, 22, 23, 24, 25, 26, 27, 28)...,
	)

	first, firstReport, err := Build(hourly, defaultCfg())
	require.NoError(t, err)
	second, secondReport, err := Build(hourly, defaultCfg())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, firstReport, secondReport)
}

func TestBuild_ImputesMissingWeatherToZero(t *testing.T) {
	start := time.Date(2016, 3, 7, 0, 0, 0, 0, time.UTC)
	hourly := days("a", start, 10, 10, 10, 10, 10, 10, 10, 10, 10)

	// Knock out every wind reading on the last day.
	lastDay := model.DateOf(start.AddDate(0, 0, 8))
	for i := range hourly {
		if model.DateOf(hourly[i].Timestamp) == lastDay {
			hourly[i].WindSpeed = math.NaN()
		}
	}

	rows, report, err := Build(hourly, defaultCfg())
	require.NoError(t, err)
	require.NotEmpty(t, rows)

	assert.Equal(t, 1, report.ValuesImputed)
	for _, r := range rows {
		if r.Date == lastDay {
			assert.Zero(t, r.WindSpeed)
		}
	}
}

func TestBuild_CalendarColumns(t *testing.T) {
	// 2016-03-07 is a Monday; with 9 days the two surviving rows are
	// 2016-03-14 (Monday) and 2016-03-15 (Tuesday).
	start := time.Date(2016, 3, 7, 0, 0, 0, 0, time.UTC)
	hourly := days("a", start, 1, 2, 3, 4, 5, 6, 7, 8, 9)

	rows, _, err := Build(hourly, defaultCfg())
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, 3, rows[0].Month)
	assert.Equal(t, 0, rows[0].DayOfWeek) // 2016-03-14, Monday
	assert.Equal(t, 0, rows[0].IsWeekend)
	assert.Equal(t, 1, rows[1].DayOfWeek) // Tuesday
}

func TestBuild_RejectsBadConfig(t *testing.T) {
	start := time.Date(2016, 3, 7, 0, 0, 0, 0, time.UTC)
	hourly := days("a", start, 1, 2, 3, 4, 5, 6, 7, 8)

	_, _, err := Build(hourly, config.FeaturesConfig{IQRMultiplier: 0})
	assert.Error(t, err)
}

func TestPredictors_OrderIsStable(t *testing.T) {
	want := []string{
		"month", "day_of_week", "is_weekend", "airTemperature",
		"dewTemperature", "seaLvlPressure", "windSpeed", "sqm", "lag_1", "lag_7",
	}
	assert.Equal(t, want, Predictors())

	// Mutating the returned slice must not affect subsequent calls.
	p := Predictors()
	p[0] = "mutated"
	assert.Equal(t, want, Predictors())
}
