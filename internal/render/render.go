// Package render turns session snapshots into the view models the HTML
// templates and JSON endpoints display.
package render

import (
	"strconv"
	"strings"

	"github.com/swelljoe/wthr-daily/internal/dashboard"
	"github.com/swelljoe/wthr-daily/internal/weather"
)

// Block is one labelled card in the results panel.
type Block struct {
	Title string   `json:"title"`
	Icon  string   `json:"icon"`
	Tone  string   `json:"tone"`
	Lines []string `json:"lines"`
}

// Panel is the results area for a successful fetch.
type Panel struct {
	Date   string  `json:"date,omitempty"`
	Blocks []Block `json:"blocks"`
}

// PageView is everything the page template needs.
type PageView struct {
	Form        dashboard.FormState `json:"form"`
	FieldErrors map[string]string   `json:"field_errors,omitempty"`
	Error       string              `json:"error,omitempty"`
	Panel       *Panel              `json:"panel,omitempty"`
	Phase       dashboard.Phase     `json:"phase"`
	Pending     bool                `json:"pending"`
}

// Page renders a snapshot. fieldErrors come from a rejected submission and
// may be nil.
func Page(s dashboard.Snapshot, fieldErrors map[string]string) PageView {
	v := PageView{
		Form:        s.Form,
		FieldErrors: fieldErrors,
		Phase:       s.Phase,
		Pending:     s.Phase == dashboard.PhasePending,
	}
	if s.Error != "" {
		v.Error = s.Error
		return v
	}
	v.Panel = Result(s.Result)
	return v
}

// Result formats index 0 of every daily series. It returns nil when there
// is no result.
func Result(r *weather.ForecastResult) *Panel {
	if r == nil || r.Daily == nil {
		return nil
	}
	day := r.First()

	return &Panel{
		Date: day.Date,
		Blocks: []Block{
			{
				Title: "Temperature",
				Icon:  "sunny",
				Tone:  "blue",
				Lines: []string{
					"Max: " + Number(day.TemperatureMax) + " °C",
					"Min: " + Number(day.TemperatureMin) + " °C",
				},
			},
			{
				Title: "Precipitation",
				Icon:  "rainy",
				Tone:  "green",
				Lines: []string{Number(day.PrecipitationSum) + " mm"},
			},
			{
				Title: "Wind Speed",
				Icon:  "air",
				Tone:  "yellow",
				Lines: []string{"Max: " + Number(day.WindSpeedMax) + " km/h"},
			},
			{
				Title: "Sunrise & Sunset",
				Icon:  "wb_twilight",
				Tone:  "orange",
				Lines: []string{
					"Sunrise: " + day.Sunrise,
					"Sunset: " + day.Sunset,
				},
			},
			{
				Title: "Weather",
				Icon:  "cloud",
				Tone:  "teal",
				Lines: []string{day.Description()},
			},
		},
	}
}

// Number prints v in its shortest exact form with at least one decimal
// place, so 12 prints as "12.0" and 21.5 as "21.5".
func Number(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".NI") {
		s += ".0"
	}
	return s
}
