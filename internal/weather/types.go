package weather

// Query carries the submitted form values. Latitude and Longitude are
// forwarded to the provider verbatim.
type Query struct {
	Latitude  string
	Longitude string
	Date      string
}

// ForecastResult is the decoded forecast response. Daily holds one entry per
// forecast day in every slice, aligned by index.
type ForecastResult struct {
	Latitude   float64           `json:"latitude"`
	Longitude  float64           `json:"longitude"`
	Timezone   string            `json:"timezone"`
	DailyUnits map[string]string `json:"daily_units,omitempty"`
	Daily      *DailyAggregates  `json:"daily" validate:"required"`
}

// DailyAggregates are the requested daily metrics. The seven requested
// series must be non-empty and of equal length.
type DailyAggregates struct {
	Time             []string  `json:"time,omitempty"`
	TemperatureMax   []float64 `json:"temperature_2m_max" validate:"required,min=1"`
	TemperatureMin   []float64 `json:"temperature_2m_min" validate:"required,min=1"`
	PrecipitationSum []float64 `json:"precipitation_sum" validate:"required,min=1"`
	WindSpeedMax     []float64 `json:"wind_speed_10m_max" validate:"required,min=1"`
	Sunrise          []string  `json:"sunrise" validate:"required,min=1"`
	Sunset           []string  `json:"sunset" validate:"required,min=1"`
	WeatherCode      []int     `json:"weathercode" validate:"required,min=1"`
}

// Days returns the number of forecast days in the result.
func (d *DailyAggregates) Days() int {
	if d == nil {
		return 0
	}
	return len(d.TemperatureMax)
}

// Day is one index of DailyAggregates.
type Day struct {
	Date             string
	TemperatureMax   float64
	TemperatureMin   float64
	PrecipitationSum float64
	WindSpeedMax     float64
	Sunrise          string
	Sunset           string
	WeatherCode      int
}

// Description maps the day's weather code.
func (d Day) Description() string {
	return Describe(d.WeatherCode)
}

// First returns index 0 of every series. It relies on the result having
// passed validation.
func (r *ForecastResult) First() Day {
	d := r.Daily
	day := Day{
		TemperatureMax:   d.TemperatureMax[0],
		TemperatureMin:   d.TemperatureMin[0],
		PrecipitationSum: d.PrecipitationSum[0],
		WindSpeedMax:     d.WindSpeedMax[0],
		Sunrise:          d.Sunrise[0],
		Sunset:           d.Sunset[0],
		WeatherCode:      d.WeatherCode[0],
	}
	if len(d.Time) > 0 {
		day.Date = d.Time[0]
	}
	return day
}
