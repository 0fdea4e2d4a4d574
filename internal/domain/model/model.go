// Package model contains domain entities passed between pipeline stages.
package model

import "time"

// Gender is the inferred gender label for a person.
type Gender string

// Gender labels. Unknown is the fallback whenever inference confidence
// falls below the configured minimum or the name is absent.
const (
	GenderMale    Gender = "male"
	GenderFemale  Gender = "female"
	GenderUnknown Gender = "unknown"
)

// ReservationStatus is the lifecycle state of a reservation.
// Confirmed is the only non-terminal state; the rest are terminal once set.
type ReservationStatus string

const (
	StatusConfirmed ReservationStatus = "confirmed"
	StatusAttended  ReservationStatus = "attended"
	StatusCancelled ReservationStatus = "cancelled"
	StatusNoShow    ReservationStatus = "no_show"
)

// Terminal reports whether the status can no longer change.
func (s ReservationStatus) Terminal() bool {
	return s == StatusAttended || s == StatusCancelled || s == StatusNoShow
}

// Qualifying reports whether the status counts as activity for
// behavioral-state purposes. Cancellations and no-shows are not activity.
func (s ReservationStatus) Qualifying() bool {
	return s == StatusConfirmed || s == StatusAttended
}

// Coordinate is a WGS84 lat/lng pair in degrees.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Person is a normalized, enriched platform member.
//
// ID is stable across pipeline runs for the same underlying individual:
// when duplicate records are merged, the surviving ID is the
// lexicographically smallest of the group, so re-running on the same
// export reproduces the same identities.
type Person struct {
	ID          string     `json:"id"`
	GivenName   string     `json:"given_name"`
	FamilyName  string     `json:"family_name"`
	NationalID  string     `json:"national_id,omitempty"` // canonical dedupe key, may be empty
	BirthDate   string     `json:"birth_date,omitempty"`  // YYYY-MM-DD
	Locality    string     `json:"locality,omitempty"`    // raw residence string from the export
	Faculty     string     `json:"faculty,omitempty"`     // canonicalized affiliation
	FacultyCity string     `json:"faculty_city,omitempty"`
	EnrolledAt  time.Time  `json:"enrolled_at"`
	MergedIDs   []string   `json:"merged_ids,omitempty"` // source IDs absorbed into this person

	// Enrichment results. Coordinates stays nil when the locality could
	// not be resolved; such people are excluded from distance-based
	// slices but from nothing else.
	Coordinates      *Coordinate `json:"coordinates,omitempty"`
	DistanceKm       *float64    `json:"distance_km,omitempty"`
	Gender           Gender      `json:"gender"`
	GenderConfidence float64     `json:"gender_confidence"`
}

// Event is a normalized scheduled activity.
type Event struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"` // canonical title, group suffix stripped
	Group    string    `json:"group,omitempty"`
	Sport    string    `json:"sport,omitempty"`
	Venue    string    `json:"venue,omitempty"`
	StartsAt time.Time `json:"starts_at"`
	Capacity int       `json:"capacity"`
}

// Reservation links a person to an event.
//
// Invariant: CreatedAt <= the event's StartsAt, and both PersonID and
// EventID resolve after normalization; records violating either are
// quarantined, never silently dropped.
type Reservation struct {
	ID        string            `json:"id"`
	PersonID  string            `json:"person_id"`
	EventID   string            `json:"event_id"`
	Status    ReservationStatus `json:"status"`
	CreatedAt time.Time         `json:"created_at"`
}

// BehavioralState is derived per person by replaying the full ordered
// reservation history. It is never mutated incrementally; the engine
// recomputes it from scratch on every run.
type BehavioralState struct {
	PersonID         string     `json:"person_id"`
	FirstActivation  *time.Time `json:"first_activation,omitempty"`
	LastActivity     *time.Time `json:"last_activity,omitempty"`
	AttendanceCount  int        `json:"attendance_count"`
	ThresholdCrossed bool       `json:"threshold_crossed"`
	ThresholdAt      *time.Time `json:"threshold_at,omitempty"`
}

// ChurnState is the churn label at a given evaluation date.
type ChurnState string

const (
	ChurnActive  ChurnState = "active"
	ChurnChurned ChurnState = "churned"
)

// GeoFix is an immutable cache entry mapping a normalized locality to
// its resolution. Confidence 0 marks a negative entry: the locality was
// tried and could not be resolved, and will not be retried.
type GeoFix struct {
	Query      string      `json:"query"`
	Coords     *Coordinate `json:"coords,omitempty"`
	Confidence float64     `json:"confidence"`
	ResolvedAt time.Time   `json:"resolved_at"`
}

// Resolved reports whether the fix carries usable coordinates.
func (f GeoFix) Resolved() bool {
	return f.Coords != nil && f.Confidence > 0
}

// Quarantine reason codes.
const (
	ReasonMalformedRecord = "malformed_record"
	ReasonOrphanReference = "orphan_reference"
	ReasonCancelledEvent  = "cancelled_event"
)

// QuarantinedRecord is an input record excluded from processing,
// retained for audit.
type QuarantinedRecord struct {
	Kind     string `json:"kind"` // person | event | reservation
	RecordID string `json:"record_id"`
	Reason   string `json:"reason"`
	Detail   string `json:"detail,omitempty"`
}

// MergeDecision is an auditable record of one person-dedupe merge.
type MergeDecision struct {
	ID         string   `json:"id"`
	KeptID     string   `json:"kept_id"`
	MergedIDs  []string `json:"merged_ids"`
	Reason     string   `json:"reason"` // national_id | birthdate_family_name
	Confidence float64  `json:"confidence"`
}
