package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDate_TextRoundTrip(t *testing.T) {
	d := DateOf(time.Date(2016, 7, 9, 23, 15, 0, 0, time.UTC))
	assert.Equal(t, "2016-07-09", d.String())

	text, err := d.MarshalText()
	require.NoError(t, err)

	var parsed Date
	require.NoError(t, parsed.UnmarshalText(text))
	assert.Equal(t, d, parsed)
}

func TestDate_UnmarshalRejectsGarbage(t *testing.T) {
	var d Date
	assert.Error(t, d.UnmarshalText([]byte("09/07/2016")))
}

func TestFeatureRecord_Predictor(t *testing.T) {
	r := FeatureRecord{
		Month: 7, DayOfWeek: 5, IsWeekend: 1,
		AirTemperature: 21.5, DewTemperature: 10.25, SeaLvlPressure: 1013,
		WindSpeed: 3.5, Sqm: 1200, Lag1: 410.5, Lag7: 395,
	}

	tests := []struct {
		name string
		want float64
	}{
		{"month", 7},
		{"day_of_week", 5},
		{"is_weekend", 1},
		{"airTemperature", 21.5},
		{"dewTemperature", 10.25},
		{"seaLvlPressure", 1013},
		{"windSpeed", 3.5},
		{"sqm", 1200},
		{"lag_1", 410.5},
		{"lag_7", 395},
	}
	for _, tt := range tests {
		got, err := r.Predictor(tt.name)
		require.NoError(t, err, tt.name)
		assert.InDelta(t, tt.want, got, 1e-12, tt.name)
	}

	_, err := r.Predictor("electricity_usage")
	assert.Error(t, err, "the target is not a predictor")
}

func TestFeatureRecord_VectorFollowsOrder(t *testing.T) {
	r := FeatureRecord{Lag1: 1, Lag7: 2, Sqm: 3}

	vec, err := r.Vector([]string{"lag_7", "sqm", "lag_1"})
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 3, 1}, vec)

	_, err = r.Vector([]string{"lag_1", "bogus"})
	assert.Error(t, err)
}
