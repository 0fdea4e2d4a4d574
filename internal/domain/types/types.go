// Package types contains output shapes shared by the aggregation layer,
// the sink, and the results API.
package types

import (
	"time"

	"github.com/ivasko/courtline/internal/domain/model"
)

// StateRow is a behavioral-state table row keyed by (person, evaluation date).
type StateRow struct {
	PersonID         string           `json:"person_id"`
	EvaluatedAt      time.Time        `json:"evaluated_at"`
	FirstActivation  *time.Time       `json:"first_activation,omitempty"`
	LastActivity     *time.Time       `json:"last_activity,omitempty"`
	AttendanceCount  int              `json:"attendance_count"`
	ThresholdCrossed bool             `json:"threshold_crossed"`
	Churn            model.ChurnState `json:"churn"`
}

// MetricKey addresses one cell of the aggregation report.
type MetricKey struct {
	Metric string `json:"metric"`
	Slice  string `json:"slice"`
}

// MetricValue is one aggregation report cell.
type MetricValue struct {
	Metric string  `json:"metric"`
	Slice  string  `json:"slice"`
	Value  float64 `json:"value"`
}

// RunSummary is the per-run accounting emitted alongside the dataset.
// Every skipped or quarantined record is counted here; nothing is
// dropped silently.
type RunSummary struct {
	RunID       string    `json:"run_id"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
	EvaluatedAt time.Time `json:"evaluated_at"`

	PeopleIngested       int `json:"people_ingested"`
	EventsIngested       int `json:"events_ingested"`
	ReservationsIngested int `json:"reservations_ingested"`

	PeopleMerged      int            `json:"people_merged"`
	Quarantined       map[string]int `json:"quarantined"` // reason -> count
	GeocodeCacheHits  int            `json:"geocode_cache_hits"`
	GeocodeResolved   int            `json:"geocode_resolved"`
	GeocodeUnresolved int            `json:"geocode_unresolved"`
	GenderUnknownRate float64        `json:"gender_unknown_rate"`
}

// QuarantineTotal sums quarantined counts across reasons.
func (s RunSummary) QuarantineTotal() int {
	total := 0
	for _, n := range s.Quarantined {
		total += n
	}
	return total
}
