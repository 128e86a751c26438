package weather

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// schema is safe for concurrent use once built.
var schema = newSchemaValidator()

func newSchemaValidator() *validator.Validate {
	v := validator.New()
	v.RegisterStructValidation(alignedSeries, DailyAggregates{})
	return v
}

// alignedSeries reports every requested series whose length differs from
// temperature_2m_max.
func alignedSeries(sl validator.StructLevel) {
	d := sl.Current().Interface().(DailyAggregates)
	want := len(d.TemperatureMax)

	lengths := []struct {
		field, tag string
		n          int
	}{
		{"TemperatureMin", "temperature_2m_min", len(d.TemperatureMin)},
		{"PrecipitationSum", "precipitation_sum", len(d.PrecipitationSum)},
		{"WindSpeedMax", "wind_speed_10m_max", len(d.WindSpeedMax)},
		{"Sunrise", "sunrise", len(d.Sunrise)},
		{"Sunset", "sunset", len(d.Sunset)},
		{"WeatherCode", "weathercode", len(d.WeatherCode)},
	}
	for _, l := range lengths {
		if l.n != want {
			sl.ReportError(l.n, l.tag, l.field, "aligned", fmt.Sprint(want))
		}
	}
}

// validateResult checks the decoded body before it may be shown. body is
// the raw response r was decoded from.
func validateResult(r *ForecastResult, body []byte) error {
	if err := schema.Struct(r); err != nil {
		return fmt.Errorf("response does not match forecast schema: %w", err)
	}
	if err := firstDayPresent(body); err != nil {
		return fmt.Errorf("response does not match forecast schema: %w", err)
	}
	return nil
}

// rawDaily keeps each series element undecoded, since a JSON null decodes
// to the same float64 or int as a real zero reading.
type rawDaily struct {
	Daily map[string][]json.RawMessage `json:"daily"`
}

var jsonNull = []byte("null")

// firstDayPresent rejects a body whose first day is null in any requested
// series. Later days are never displayed and may be null.
func firstDayPresent(body []byte) error {
	var raw rawDaily
	if err := json.Unmarshal(body, &raw); err != nil {
		return err
	}
	for _, metric := range DailyMetrics {
		series := raw.Daily[metric]
		if len(series) > 0 && bytes.Equal(bytes.TrimSpace(series[0]), jsonNull) {
			return fmt.Errorf("%s is null for the first day", metric)
		}
	}
	return nil
}
