// Package config defines pipeline configuration and loading hooks.
//
// Conventions:
// - Provide New(...) returning defaults; Load layers file and env on top.
// - External errors are wrapped via this package's sentinel kinds.
package config

import (
	"runtime"
)

// Config contains the full pipeline configuration.
//
// The venue coordinate has no default: a run without one is a
// configuration error and aborts before any output is written.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr is the results API listen address, e.g. ":9080".
	// Empty means batch mode only: run, emit, exit.
	Addr string `koanf:"addr"`

	// InputDir holds the raw export files people.json, events.json,
	// reservations.json.
	InputDir string `koanf:"input_dir" validate:"required"`

	// OutputDir receives the emitted dataset. Writes are staged and
	// renamed so a failed run leaves no partial output.
	OutputDir string `koanf:"output_dir" validate:"required"`

	// ChurnWindowDays is the no-activity window after which a person
	// counts as churned.
	ChurnWindowDays int `koanf:"churn_window_days" validate:"min=1"`

	// ParticipationThreshold is the cumulative attendance count that
	// marks habitual engagement.
	ParticipationThreshold int `koanf:"participation_threshold" validate:"min=1"`

	// GenderConfidenceMin is the minimum inference confidence below
	// which the label degrades to unknown.
	GenderConfidenceMin float64 `koanf:"gender_confidence_min" validate:"min=0,max=1"`

	// VenueLat and VenueLng locate the venue distances are measured to.
	VenueLat *float64 `koanf:"venue_lat" validate:"required,min=-90,max=90"`
	VenueLng *float64 `koanf:"venue_lng" validate:"required,min=-180,max=180"`

	// GeocodeEndpoint is a Nominatim-compatible search endpoint.
	GeocodeEndpoint string `koanf:"geocode_endpoint" validate:"required,url"`

	// GeocodeTimeoutMS bounds each external resolution call.
	GeocodeTimeoutMS int `koanf:"geocode_timeout_ms" validate:"min=1"`

	// GeocodeCachePath is the persistent GeoFix cache file. Empty
	// disables persistence (cache lives for the run only).
	GeocodeCachePath string `koanf:"geocode_cache_path"`

	// CountryCode biases geocoding queries, ISO 3166-1 alpha-2.
	CountryCode string `koanf:"country_code" validate:"omitempty,len=2"`

	// EvaluationDate pins the churn evaluation instant (RFC3339).
	// Empty means the run start time.
	EvaluationDate string `koanf:"evaluation_date"`

	// WorkerCount sets the number of enrichment workers.
	WorkerCount int `koanf:"worker_count" validate:"min=1"`

	// QueueSize bounds the enrichment task queue.
	QueueSize int `koanf:"queue_size" validate:"min=1"`

	// ShardCount configures the state store sharding.
	ShardCount int `koanf:"shard_count" validate:"min=1"`
}

// New returns the configuration defaults.
func New() *Config {
	return &Config{
		LogLevel:               "info",
		Addr:                   "",
		InputDir:               "data/raw",
		OutputDir:              "data/out",
		ChurnWindowDays:        14,
		ParticipationThreshold: 3,
		GenderConfidenceMin:    0.6,
		GeocodeEndpoint:        "https://nominatim.openstreetmap.org/search",
		GeocodeTimeoutMS:       5000,
		GeocodeCachePath:       "data/cache/geofix.json",
		CountryCode:            "hr",
		WorkerCount:            runtime.NumCPU() * 2,
		QueueSize:              10_000,
		ShardCount:             8,
	}
}
