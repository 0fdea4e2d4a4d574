package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"

	"github.com/ivasko/courtline/internal/domain/model"
	"github.com/ivasko/courtline/pkg/logger"
	"github.com/ivasko/courtline/pkg/metrics"
)

// Export file names inside the input directory.
const (
	PeopleFile       = "people.json"
	EventsFile       = "events.json"
	ReservationsFile = "reservations.json"
)

// Snapshot is the decoded raw export: everything that parsed, plus the
// malformed remainder quarantined with a reason.
type Snapshot struct {
	People       []RawPerson
	Events       []RawEvent
	Reservations []RawReservation
	Malformed    []model.QuarantinedRecord
}

// Reader loads the three record streams from an export directory.
type Reader struct {
	dir string
	log logger.Logger
}

// Option applies a configuration option to the Reader.
type Option func(*Reader)

// WithLogger sets a custom logger for the reader.
func WithLogger(l logger.Logger) Option {
	return func(r *Reader) {
		if l != nil {
			r.log = l
		}
	}
}

// NewReader creates a reader for the given export directory.
func NewReader(dir string, opts ...Option) *Reader {
	r := &Reader{dir: dir}
	for _, opt := range opts {
		opt(r)
	}
	if r.log == nil {
		r.log = logger.Named("source")
	}
	return r
}

// Load decodes all three streams. Record ordering in the files carries
// no meaning; a record that fails to decode is quarantined, never fatal.
// Only an unreadable file aborts the load.
func (r *Reader) Load(ctx context.Context) (*Snapshot, error) {
	snap := &Snapshot{}

	if err := decodeStream(ctx, filepath.Join(r.dir, PeopleFile), "person", snap, func(raw json.RawMessage) error {
		var p RawPerson
		if err := json.Unmarshal(raw, &p); err != nil {
			return err
		}
		if p.ID == "" {
			return fmt.Errorf("%w: missing id", ErrDecodeRecord)
		}
		snap.People = append(snap.People, p)
		return nil
	}); err != nil {
		return nil, err
	}

	if err := decodeStream(ctx, filepath.Join(r.dir, EventsFile), "event", snap, func(raw json.RawMessage) error {
		var e RawEvent
		if err := json.Unmarshal(raw, &e); err != nil {
			return err
		}
		if e.ID == "" || e.StartsAt.IsZero() {
			return fmt.Errorf("%w: missing id or start", ErrDecodeRecord)
		}
		snap.Events = append(snap.Events, e)
		return nil
	}); err != nil {
		return nil, err
	}

	if err := decodeStream(ctx, filepath.Join(r.dir, ReservationsFile), "reservation", snap, func(raw json.RawMessage) error {
		var res RawReservation
		if err := json.Unmarshal(raw, &res); err != nil {
			return err
		}
		if res.ID == "" || res.PersonID == "" || res.EventID == "" || res.CreatedAt.IsZero() {
			return fmt.Errorf("%w: missing id, references or creation time", ErrDecodeRecord)
		}
		if _, err := res.DecodeStatus(); err != nil {
			return err
		}
		snap.Reservations = append(snap.Reservations, res)
		return nil
	}); err != nil {
		return nil, err
	}

	r.log.Info(ctx, "export decoded",
		logger.Int("people", len(snap.People)),
		logger.Int("events", len(snap.Events)),
		logger.Int("reservations", len(snap.Reservations)),
		logger.Int("malformed", len(snap.Malformed)),
	)
	return snap, nil
}

// decodeStream reads one export file as a JSON array of raw messages
// and feeds each element to accept. Elements accept rejects go to the
// malformed quarantine with the decode error as detail.
func decodeStream(ctx context.Context, path, kind string, snap *Snapshot, accept func(json.RawMessage) error) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrOpenInput, path, err)
	}

	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrDecodeInput, path, err)
	}

	for i, raw := range raws {
		if err := ctx.Err(); err != nil {
			return err
		}
		metrics.RecordIngested(kind)
		if err := accept(raw); err != nil {
			metrics.RecordQuarantined(model.ReasonMalformedRecord)
			snap.Malformed = append(snap.Malformed, model.QuarantinedRecord{
				Kind:     kind,
				RecordID: fmt.Sprintf("%s[%d]", kind, i),
				Reason:   model.ReasonMalformedRecord,
				Detail:   err.Error(),
			})
		}
	}
	return nil
}
