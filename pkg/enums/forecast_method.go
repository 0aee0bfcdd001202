package enums

import "fmt"

// ForecastMethod maps to the forecast_method_enum enum in Postgres.
type ForecastMethod string

const (
	ForecastMethodMovingAverage ForecastMethod = "moving_average"
	ForecastMethodTrend         ForecastMethod = "trend"
	ForecastMethodSeasonal      ForecastMethod = "seasonal"
)

var validForecastMethods = []ForecastMethod{
	ForecastMethodMovingAverage,
	ForecastMethodTrend,
	ForecastMethodSeasonal,
}

// IsValid reports whether the value matches the canonical forecast method enum.
func (m ForecastMethod) IsValid() bool {
	for _, candidate := range validForecastMethods {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseForecastMethod converts raw input into ForecastMethod.
func ParseForecastMethod(value string) (ForecastMethod, error) {
	for _, candidate := range validForecastMethods {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid forecast method %q", value)
}
