// Package config holds the process configuration for wthr-daily.
//
// Values are read once at startup from the environment, with an optional
// .env file in the working directory filling in anything not already set.
// A missing or malformed value fails startup instead of surfacing later.
package config

import "time"

// Config is the top-level configuration. It is populated once by Load and
// treated as read-only afterwards.
type Config struct {
	Environment string `envconfig:"APP_ENV" default:"local" validate:"required,oneof=local dev prod"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`

	Server   ServerConfig
	Database DatabaseConfig
	Forecast ForecastConfig
	Session  SessionConfig
	Geo      GeoConfig
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Port            string        `envconfig:"PORT" default:"8080" validate:"required,numeric"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s" validate:"gt=0"`
}

// DatabaseConfig points at the SQLite gazetteer used for place search.
type DatabaseConfig struct {
	Path string `envconfig:"DB_PATH" default:"wthr.db" validate:"required"`
}

// ForecastConfig configures the outbound forecast client.
type ForecastConfig struct {
	BaseURL   string        `envconfig:"FORECAST_URL" default:"https://api.open-meteo.com/v1/forecast" validate:"required,url"`
	UserAgent string        `envconfig:"FORECAST_USER_AGENT" default:"wthr-daily/1.0"`
	Timeout   time.Duration `envconfig:"FORECAST_TIMEOUT" default:"10s" validate:"gt=0"`
	// HonorDate sends the submitted date as start_date/end_date. Off by
	// default: the form has always collected the date without sending it.
	HonorDate bool `envconfig:"FORECAST_HONOR_DATE" default:"false"`
}

// SessionConfig controls how long an idle browser session keeps its state.
type SessionConfig struct {
	IdleTTL time.Duration `envconfig:"SESSION_IDLE_TTL" default:"30m" validate:"gt=0"`
}

// GeoConfig is only read by cmd/import-geo.
type GeoConfig struct {
	DataDir string `envconfig:"GEO_DATA_DIR" default:"data" validate:"required"`
}

// ConfigErrorType categorizes configuration loading failures.
type ConfigErrorType string

const (
	// ErrParsing indicates an environment value could not be converted to
	// its field type.
	ErrParsing ConfigErrorType = "PARSING_FAILED"
	// ErrValidation indicates the populated struct broke a validation rule.
	ErrValidation ConfigErrorType = "VALIDATION_FAILED"
)
