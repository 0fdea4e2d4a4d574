package service

import (
	"context"
	"fmt"
	"time"

	"github.com/ivasko/courtline/internal/adapters/geocode"
	"github.com/ivasko/courtline/internal/adapters/repository"
	"github.com/ivasko/courtline/internal/domain/behavior"
	"github.com/ivasko/courtline/internal/domain/gender"
	"github.com/ivasko/courtline/internal/domain/model"
)

// enricher composes geocoding and gender inference into the single
// enrichment step the workers run per person.
type enricher struct {
	cache    *geocode.Cache
	inferrer gender.Inferrer
	venue    model.Coordinate
}

func newEnricher(cache *geocode.Cache, inferrer gender.Inferrer, venue model.Coordinate) *enricher {
	return &enricher{cache: cache, inferrer: inferrer, venue: venue}
}

// Enrich fills coordinates, venue distance, and gender. Geocoding
// failure leaves location fields unset and reports the error; gender
// inference never fails.
func (e *enricher) Enrich(ctx context.Context, p model.Person) (model.Person, error) {
	var geoErr error

	if query, _ := geocode.NormalizeLocality(p.Locality); query != "" {
		fix, err := e.cache.Lookup(ctx, query)
		switch {
		case err != nil:
			geoErr = fmt.Errorf("locality %q: %w", query, err)
		case fix.Resolved():
			coords := *fix.Coords
			distance := geocode.DistanceKm(coords, e.venue)
			p.Coordinates = &coords
			p.DistanceKm = &distance
		}
	}

	res, err := e.inferrer.Infer(ctx, gender.Input{PersonID: p.ID, GivenName: p.GivenName})
	if err != nil {
		return p, err
	}
	p.Gender = res.Gender
	p.GenderConfidence = res.Confidence

	return p, geoErr
}

// stateDeriver adapts the behavior engine to the worker contract,
// pinning the evaluation date for churn labeling.
type stateDeriver struct {
	engine      *behavior.Engine
	evaluatedAt time.Time
}

func (d *stateDeriver) Derive(personID string, history []model.Reservation) repository.StateEntry {
	return repository.StateEntry{
		State:       d.engine.Replay(personID, history),
		Churn:       d.engine.ChurnAt(personID, history, d.evaluatedAt),
		EvaluatedAt: d.evaluatedAt,
	}
}
