// Package normalize turns raw export records into the typed entity
// collections the rest of the pipeline consumes: deduplicated people,
// canonicalized events, and reference-checked reservations. Records it
// cannot place are quarantined with a reason code, never dropped.
package normalize

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"

	"github.com/ivasko/courtline/internal/domain/model"
	"github.com/ivasko/courtline/pkg/logger"
	"github.com/ivasko/courtline/pkg/metrics"
)

// PersonRecord is a decoded but unvalidated person row.
type PersonRecord struct {
	ID         string
	GivenName  string
	FamilyName string
	NationalID string
	BirthDate  string
	Residence  string
	Faculty    string
	CreatedAt  time.Time
}

// EventRecord is a decoded but unvalidated event row.
type EventRecord struct {
	ID        string
	Title     string
	Location  string
	StartsAt  time.Time
	Capacity  int
	Cancelled bool
}

// ReservationRecord is a decoded but unvalidated reservation row.
type ReservationRecord struct {
	ID        string
	PersonID  string
	EventID   string
	Status    model.ReservationStatus
	CreatedAt time.Time
}

// Input bundles the three decoded record streams, in any order.
type Input struct {
	People       []PersonRecord
	Events       []EventRecord
	Reservations []ReservationRecord
}

// Result is the normalized entity set. All slices are sorted by ID
// (reservations by creation time, then ID) so identical input yields
// byte-identical output.
type Result struct {
	People       []model.Person
	Events       []model.Event
	Reservations []model.Reservation
	Quarantine   []model.QuarantinedRecord
	MergeLog     []model.MergeDecision

	// aliases maps every absorbed source person ID to its surviving ID.
	aliases map[string]string
}

// ResolvePersonID maps a raw person ID to the surviving normalized ID,
// following the chain when a first-pass survivor was itself absorbed in
// the second pass.
func (r *Result) ResolvePersonID(id string) (string, bool) {
	resolved := false
	for {
		alias, ok := r.aliases[id]
		if !ok {
			return id, resolved
		}
		id, resolved = alias, true
	}
}

// Normalizer performs entity normalization and identity resolution.
type Normalizer struct {
	ignoredTitles map[string]struct{}
	titleFixes    map[string]string
	log           logger.Logger
}

// New creates a Normalizer with configuration options.
func New(opts ...Option) *Normalizer {
	n := &Normalizer{
		ignoredTitles: map[string]struct{}{},
		titleFixes:    map[string]string{},
	}
	for _, opt := range opts {
		opt(n)
	}
	if n.log == nil {
		n.log = logger.Named("normalize")
	}
	return n
}

// Normalize produces the typed entity collections from raw input.
func (n *Normalizer) Normalize(ctx context.Context, in Input) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("normalize: %w", err)
	}

	res := &Result{aliases: map[string]string{}}

	events, cancelled := n.normalizeEvents(in.Events)
	res.Events = events

	res.People = n.normalizePeople(in.People, res)

	personIDs := make(map[string]struct{}, len(res.People))
	for _, p := range res.People {
		personIDs[p.ID] = struct{}{}
	}
	eventIDs := make(map[string]struct{}, len(res.Events))
	for _, e := range res.Events {
		eventIDs[e.ID] = struct{}{}
	}
	eventStarts := make(map[string]time.Time, len(res.Events))
	for _, e := range res.Events {
		eventStarts[e.ID] = e.StartsAt
	}

	for _, raw := range in.Reservations {
		personID, _ := res.ResolvePersonID(raw.PersonID)

		switch {
		case cancelled[raw.EventID]:
			res.quarantine("reservation", raw.ID, model.ReasonCancelledEvent, "event "+raw.EventID+" cancelled or deleted")
		case !has(personIDs, personID):
			res.quarantine("reservation", raw.ID, model.ReasonOrphanReference, "unknown person "+raw.PersonID)
		case !has(eventIDs, raw.EventID):
			res.quarantine("reservation", raw.ID, model.ReasonOrphanReference, "unknown event "+raw.EventID)
		case raw.CreatedAt.After(eventStarts[raw.EventID]):
			res.quarantine("reservation", raw.ID, model.ReasonMalformedRecord, "created after event start")
		default:
			res.Reservations = append(res.Reservations, model.Reservation{
				ID:        raw.ID,
				PersonID:  personID,
				EventID:   raw.EventID,
				Status:    raw.Status,
				CreatedAt: raw.CreatedAt,
			})
		}
	}

	sort.Slice(res.Reservations, func(i, j int) bool {
		a, b := res.Reservations[i], res.Reservations[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})

	metrics.UpdatePeopleTotal(len(res.People))
	n.log.Info(ctx, "normalized entity set",
		logger.Int("people", len(res.People)),
		logger.Int("events", len(res.Events)),
		logger.Int("reservations", len(res.Reservations)),
		logger.Int("quarantined", len(res.Quarantine)),
		logger.Int("merges", len(res.MergeLog)),
	)
	return res, nil
}

// normalizePeople resolves identities and emits the deduplicated,
// ID-sorted person set.
//
// Two merge passes, both exact: national identifier first, then
// (birth date, folded family name) for groups whose identifiers do not
// conflict. Anything weaker fails open: unmatched records stay distinct
// rather than risking an incorrect merge.
func (n *Normalizer) normalizePeople(raws []PersonRecord, res *Result) []model.Person {
	people := make([]model.Person, 0, len(raws))
	for _, raw := range raws {
		faculty, city := CleanFaculty(raw.Faculty)
		people = append(people, model.Person{
			ID:          raw.ID,
			GivenName:   strings.TrimSpace(raw.GivenName),
			FamilyName:  strings.TrimSpace(raw.FamilyName),
			NationalID:  strings.TrimSpace(raw.NationalID),
			BirthDate:   strings.TrimSpace(raw.BirthDate),
			Locality:    strings.TrimSpace(raw.Residence),
			Faculty:     faculty,
			FacultyCity: city,
			EnrolledAt:  raw.CreatedAt,
			Gender:      model.GenderUnknown,
		})
	}

	people = n.mergePass(people, res, "national_id", 1.0, func(p model.Person) string {
		return p.NationalID
	})
	people = n.mergePass(people, res, "birthdate_family_name", 0.9, func(p model.Person) string {
		if p.BirthDate == "" || p.FamilyName == "" {
			return ""
		}
		return p.BirthDate + "|" + foldName(p.FamilyName)
	})

	sort.Slice(people, func(i, j int) bool { return people[i].ID < people[j].ID })
	return people
}

// mergePass groups people by a non-empty identity key and merges each
// group into its lexicographically smallest ID. Groups with more than
// one distinct national identifier are left alone: conflicting strong
// identity always wins over a weaker key.
func (n *Normalizer) mergePass(people []model.Person, res *Result, reason string, confidence float64, key func(model.Person) string) []model.Person {
	groups := map[string][]int{}
	for i, p := range people {
		if k := key(p); k != "" {
			groups[k] = append(groups[k], i)
		}
	}

	drop := map[int]struct{}{}
	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		idxs := groups[k]
		if len(idxs) < 2 || conflictingNationalIDs(people, idxs) {
			continue
		}

		keep := idxs[0]
		for _, i := range idxs[1:] {
			if people[i].ID < people[keep].ID {
				keep = i
			}
		}

		merged := make([]string, 0, len(idxs)-1)
		for _, i := range idxs {
			if i == keep {
				continue
			}
			people[keep] = absorb(people[keep], people[i])
			merged = append(merged, people[i].ID)
			res.aliases[people[i].ID] = people[keep].ID
			drop[i] = struct{}{}
			metrics.RecordMerge()
		}
		sort.Strings(merged)

		res.MergeLog = append(res.MergeLog, model.MergeDecision{
			ID:         uuid.NewString(),
			KeptID:     people[keep].ID,
			MergedIDs:  merged,
			Reason:     reason,
			Confidence: confidence,
		})
	}

	out := people[:0]
	for i, p := range people {
		if _, gone := drop[i]; !gone {
			out = append(out, p)
		}
	}
	return out
}

// absorb folds a duplicate into the surviving person: earliest
// enrollment wins, empty fields fill from the duplicate, and the
// duplicate's ID (plus anything it had already absorbed) is kept for
// reservation remapping.
func absorb(keep, dup model.Person) model.Person {
	if dup.EnrolledAt.Before(keep.EnrolledAt) {
		keep.EnrolledAt = dup.EnrolledAt
	}
	if keep.NationalID == "" {
		keep.NationalID = dup.NationalID
	}
	if keep.BirthDate == "" {
		keep.BirthDate = dup.BirthDate
	}
	if keep.Locality == "" {
		keep.Locality = dup.Locality
	}
	if keep.Faculty == "" {
		keep.Faculty = dup.Faculty
		keep.FacultyCity = dup.FacultyCity
	}
	keep.MergedIDs = append(keep.MergedIDs, dup.ID)
	keep.MergedIDs = append(keep.MergedIDs, dup.MergedIDs...)
	sort.Strings(keep.MergedIDs)
	return keep
}

func conflictingNationalIDs(people []model.Person, idxs []int) bool {
	seen := ""
	for _, i := range idxs {
		id := people[i].NationalID
		if id == "" {
			continue
		}
		if seen != "" && seen != id {
			return true
		}
		seen = id
	}
	return false
}

func (r *Result) quarantine(kind, id, reason, detail string) {
	metrics.RecordQuarantined(reason)
	r.Quarantine = append(r.Quarantine, model.QuarantinedRecord{
		Kind:     kind,
		RecordID: id,
		Reason:   reason,
		Detail:   detail,
	})
}

func has(set map[string]struct{}, key string) bool {
	_, ok := set[key]
	return ok
}

// foldName lowercases and strips diacritics so that "Šarić" and
// "Saric" compare equal.
func foldName(s string) string {
	decomposed := norm.NFD.String(strings.ToLower(strings.TrimSpace(s)))
	var b strings.Builder
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
