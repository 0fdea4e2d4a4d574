// Package source decodes the raw booking-platform export into typed
// raw records, accounting for every record it cannot parse.
package source

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/ivasko/courtline/internal/domain/model"
)

// Timestamp accepts the encodings seen in real exports: RFC3339,
// epoch milliseconds, and plain dates. All values normalize to UTC.
type Timestamp struct {
	time.Time
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" || s == `""` {
		t.Time = time.Time{}
		return nil
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		t.Time = time.UnixMilli(ms).UTC()
		return nil
	}
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return fmt.Errorf("%w: timestamp %s", ErrDecodeRecord, s)
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if parsed, err := time.Parse(layout, str); err == nil {
			t.Time = parsed.UTC()
			return nil
		}
	}
	return fmt.Errorf("%w: timestamp %q", ErrDecodeRecord, str)
}

// RawPerson mirrors one element of people.json.
type RawPerson struct {
	ID         string    `json:"id"`
	GivenName  string    `json:"first_name"`
	FamilyName string    `json:"last_name"`
	NationalID string    `json:"national_id"`
	BirthDate  string    `json:"birth_date"`
	Residence  string    `json:"residence"`
	Faculty    string    `json:"faculty"`
	CreatedAt  Timestamp `json:"created_at"`
}

// RawEvent mirrors one element of events.json. CancelledAt and
// DeletedAt are soft-delete markers from the booking system.
type RawEvent struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Location    string     `json:"location"`
	StartsAt    Timestamp  `json:"starts_at"`
	TotalUnits  int        `json:"total_units"`
	CancelledAt *Timestamp `json:"cancelled_at"`
	DeletedAt   *Timestamp `json:"deleted_at"`
}

// RawReservation mirrors one element of reservations.json. Status may
// be a label or a legacy numeric code.
type RawReservation struct {
	ID         string          `json:"id"`
	PersonID   string          `json:"person_id"`
	EventID    string          `json:"event_id"`
	Status     json.RawMessage `json:"status"`
	AttendedAt *Timestamp      `json:"attended_at"`
	CreatedAt  Timestamp       `json:"created_at"`
}

// Legacy numeric status codes carried over from the booking system
// database: 1 confirmed, 2 cancelled, 3 rejected; zero and below are
// various pending states.
const (
	legacyConfirmed = 1
	legacyCancelled = 2
	legacyRejected  = 3
)

// DecodeStatus maps the raw status field to the canonical status set.
// A confirmed reservation with an attendance mark is attended; a
// rejected one never produced a visit and is treated as a no-show.
func (r RawReservation) DecodeStatus() (model.ReservationStatus, error) {
	attended := r.AttendedAt != nil && !r.AttendedAt.IsZero()

	if code, err := strconv.Atoi(strings.TrimSpace(string(r.Status))); err == nil {
		switch {
		case code == legacyConfirmed && attended:
			return model.StatusAttended, nil
		case code == legacyConfirmed:
			return model.StatusConfirmed, nil
		case code == legacyCancelled:
			return model.StatusCancelled, nil
		case code == legacyRejected:
			return model.StatusNoShow, nil
		case code <= 0:
			return model.StatusConfirmed, nil // pending states count as open bookings
		default:
			return "", fmt.Errorf("%w: status code %d", ErrDecodeRecord, code)
		}
	}

	var label string
	if err := json.Unmarshal(r.Status, &label); err != nil {
		return "", fmt.Errorf("%w: status %s", ErrDecodeRecord, string(r.Status))
	}
	switch model.ReservationStatus(strings.ToLower(strings.TrimSpace(label))) {
	case model.StatusConfirmed:
		if attended {
			return model.StatusAttended, nil
		}
		return model.StatusConfirmed, nil
	case model.StatusAttended:
		return model.StatusAttended, nil
	case model.StatusCancelled:
		return model.StatusCancelled, nil
	case model.StatusNoShow:
		return model.StatusNoShow, nil
	default:
		return "", fmt.Errorf("%w: status %q", ErrDecodeRecord, label)
	}
}
