// Package repository defines the person-state store interface and errors.
package repository

import (
	"context"
	"time"

	"github.com/ivasko/courtline/internal/domain/model"
)

// StateEntry couples a derived behavioral state with its churn label
// and the evaluation date both were computed for.
type StateEntry struct {
	State       model.BehavioralState
	Churn       model.ChurnState
	EvaluatedAt time.Time
}

// Store provides read/write access to the enriched person set and the
// derived behavioral states.
type Store interface {
	// UpsertPerson inserts or replaces a person record.
	UpsertPerson(ctx context.Context, p model.Person) error

	// SetState records the derived state for a person. The person need
	// not exist yet; enrichment and derivation may land in any order.
	SetState(ctx context.Context, entry StateEntry) error

	// Person returns one person by normalized ID.
	// Returns ErrNotFound for unknown IDs.
	Person(ctx context.Context, id string) (model.Person, error)

	// State returns the derived state for a person.
	// Returns ErrNotFound when no state has been recorded.
	State(ctx context.Context, id string) (StateEntry, error)

	// People returns all people sorted by ID.
	People(ctx context.Context) ([]model.Person, error)

	// States returns all state entries sorted by person ID.
	States(ctx context.Context) ([]StateEntry, error)

	// Count returns the number of people tracked.
	Count(ctx context.Context) int
}
