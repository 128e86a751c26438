package weather

import (
	"math"
	"testing"
)

func TestDescribe_KnownCodes(t *testing.T) {
	tests := []struct {
		code     int
		expected string
	}{
		{0, "Clear sky"},
		{1, "Mainly clear"},
		{2, "Partly cloudy"},
		{3, "Overcast"},
		{45, "Fog"},
		{51, "Light rain"},
		{53, "Moderate rain"},
		{55, "Heavy rain"},
		{61, "Showers"},
		{71, "Snow showers"},
		{73, "Moderate snow"},
		{75, "Heavy snow"},
		{80, "Showers"},
		{81, "Thunderstorm"},
		{82, "Thunderstorm with hail"},
	}

	if len(tests) != len(descriptions) {
		t.Fatalf("table has %d codes, test covers %d", len(descriptions), len(tests))
	}

	for _, tt := range tests {
		if got := Describe(tt.code); got != tt.expected {
			t.Errorf("Describe(%d) = %q, want %q", tt.code, got, tt.expected)
		}
	}
}

func TestDescribe_UnknownCodes(t *testing.T) {
	for _, code := range []int{-1, 4, 44, 63, 95, 99, 1000, math.MaxInt, math.MinInt} {
		if got := Describe(code); got != UnknownDescription {
			t.Errorf("Describe(%d) = %q, want %q", code, got, UnknownDescription)
		}
	}
}
