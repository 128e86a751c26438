package weather

// UnknownDescription is returned by Describe for codes outside the table.
const UnknownDescription = "Unknown"

// descriptions maps the provider's daily weather codes to short phrases.
var descriptions = map[int]string{
	0:  "Clear sky",
	1:  "Mainly clear",
	2:  "Partly cloudy",
	3:  "Overcast",
	45: "Fog",
	51: "Light rain",
	53: "Moderate rain",
	55: "Heavy rain",
	61: "Showers",
	71: "Snow showers",
	73: "Moderate snow",
	75: "Heavy snow",
	80: "Showers",
	81: "Thunderstorm",
	82: "Thunderstorm with hail",
}

// Describe maps a weather code to a human-readable phrase.
func Describe(code int) string {
	if d, ok := descriptions[code]; ok {
		return d
	}
	return UnknownDescription
}
