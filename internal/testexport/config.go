// Package testexport generates synthetic booking-platform exports for
// local pipeline runs and load testing.
package testexport

import "time"

// Config controls the shape of a generated export.
type Config struct {
	// OutputDir is where the three export files are written.
	OutputDir string

	// NumPeople is the number of distinct people to generate.
	NumPeople int

	// DuplicateRate is the fraction of people that get a near-duplicate
	// record (same national identifier, misspelled family name).
	DuplicateRate float64

	// NumEvents is the number of scheduled events.
	NumEvents int

	// ReservationsPerPerson is the mean reservation count per person.
	ReservationsPerPerson int

	// OrphanRate is the fraction of reservations pointing at unknown
	// people, exercising the quarantine path.
	OrphanRate float64

	// Start anchors the generated season; events spread over the
	// following SeasonWeeks.
	Start       time.Time
	SeasonWeeks int

	// Seed makes generation reproducible.
	Seed int64
}

// DefaultConfig returns a config producing a small but representative
// export.
func DefaultConfig(dir string) *Config {
	return &Config{
		OutputDir:             dir,
		NumPeople:             200,
		DuplicateRate:         0.05,
		NumEvents:             60,
		ReservationsPerPerson: 6,
		OrphanRate:            0.01,
		Start:                 time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		SeasonWeeks:           16,
		Seed:                  1,
	}
}
