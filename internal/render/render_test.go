package render

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swelljoe/wthr-daily/internal/dashboard"
	"github.com/swelljoe/wthr-daily/internal/weather"
)

func twoDayResult() *weather.ForecastResult {
	return &weather.ForecastResult{
		Daily: &weather.DailyAggregates{
			Time:             []string{"2024-06-01", "2024-06-02"},
			TemperatureMax:   []float64{21.5, 19.0},
			TemperatureMin:   []float64{12.0, 10.5},
			PrecipitationSum: []float64{0, 3.2},
			WindSpeedMax:     []float64{18.7, 25.1},
			Sunrise:          []string{"2024-06-01T04:46", "2024-06-02T04:45"},
			Sunset:           []string{"2024-06-01T21:08", "2024-06-02T21:09"},
			WeatherCode:      []int{82, 0},
		},
	}
}

func TestNumber(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{21.5, "21.5"},
		{12.0, "12.0"},
		{0, "0.0"},
		{-3, "-3.0"},
		{-0.25, "-0.25"},
		{18.75, "18.75"},
		{100, "100.0"},
		{math.Inf(1), "+Inf"},
		{math.NaN(), "NaN"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Number(tt.in), "Number(%v)", tt.in)
	}
}

func TestResult_FirstDayOnly(t *testing.T) {
	panel := Result(twoDayResult())
	require.NotNil(t, panel)
	require.Len(t, panel.Blocks, 5)

	assert.Equal(t, "2024-06-01", panel.Date)

	byTitle := make(map[string][]string)
	for _, b := range panel.Blocks {
		byTitle[b.Title] = b.Lines
	}

	assert.Equal(t, []string{"Max: 21.5 °C", "Min: 12.0 °C"}, byTitle["Temperature"])
	assert.Equal(t, []string{"0.0 mm"}, byTitle["Precipitation"])
	assert.Equal(t, []string{"Max: 18.7 km/h"}, byTitle["Wind Speed"])
	assert.Equal(t, []string{"Sunrise: 2024-06-01T04:46", "Sunset: 2024-06-01T21:08"}, byTitle["Sunrise & Sunset"])
	assert.Equal(t, []string{"Thunderstorm with hail"}, byTitle["Weather"])
}

func TestResult_UnknownCode(t *testing.T) {
	r := twoDayResult()
	r.Daily.WeatherCode[0] = 99

	panel := Result(r)
	assert.Equal(t, []string{"Unknown"}, panel.Blocks[4].Lines)
}

func TestResult_Nil(t *testing.T) {
	assert.Nil(t, Result(nil))
	assert.Nil(t, Result(&weather.ForecastResult{}))
}

func TestPage(t *testing.T) {
	form := dashboard.FormState{Latitude: "51.5", Longitude: "-0.12", Date: "2024-06-01"}

	t.Run("idle", func(t *testing.T) {
		v := Page(dashboard.Snapshot{Phase: dashboard.PhaseIdle}, nil)
		assert.Nil(t, v.Panel)
		assert.Empty(t, v.Error)
		assert.False(t, v.Pending)
	})

	t.Run("success", func(t *testing.T) {
		v := Page(dashboard.Snapshot{Form: form, Result: twoDayResult(), Phase: dashboard.PhaseSuccess}, nil)
		require.NotNil(t, v.Panel)
		assert.Empty(t, v.Error)
		assert.Equal(t, form, v.Form)
	})

	t.Run("failed", func(t *testing.T) {
		v := Page(dashboard.Snapshot{Form: form, Error: weather.FetchFailureMessage, Phase: dashboard.PhaseFailed}, nil)
		assert.Nil(t, v.Panel)
		assert.Equal(t, "Failed to fetch weather data", v.Error)
	})

	t.Run("pending keeps previous result", func(t *testing.T) {
		v := Page(dashboard.Snapshot{Form: form, Result: twoDayResult(), Phase: dashboard.PhasePending}, nil)
		assert.True(t, v.Pending)
		assert.NotNil(t, v.Panel)
	})

	t.Run("field errors", func(t *testing.T) {
		errs := map[string]string{"date": "This field is required"}
		v := Page(dashboard.Snapshot{Phase: dashboard.PhaseIdle}, errs)
		assert.Equal(t, errs, v.FieldErrors)
	})
}
