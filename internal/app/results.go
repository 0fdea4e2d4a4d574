package service

import (
	"context"

	"github.com/ivasko/courtline/internal/adapters/repository"
	"github.com/ivasko/courtline/internal/domain/aggregate"
	"github.com/ivasko/courtline/internal/domain/model"
	"github.com/ivasko/courtline/internal/domain/types"
)

// Ready reports whether a run has completed and results are available.
func (s *Service) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dataset != nil
}

// Summary returns the last run's accounting.
func (s *Service) Summary() (types.RunSummary, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.dataset == nil {
		return types.RunSummary{}, false
	}
	return s.dataset.Summary, true
}

// People returns the enriched person set, sorted by ID.
func (s *Service) People(ctx context.Context) ([]model.Person, error) {
	s.mu.RLock()
	store := s.store
	s.mu.RUnlock()
	if store == nil {
		return nil, ErrNoRun
	}
	return store.People(ctx)
}

// PersonState returns one person with their derived state.
func (s *Service) PersonState(ctx context.Context, id string) (model.Person, repository.StateEntry, error) {
	s.mu.RLock()
	store := s.store
	s.mu.RUnlock()
	if store == nil {
		return model.Person{}, repository.StateEntry{}, ErrNoRun
	}

	p, err := store.Person(ctx, id)
	if err != nil {
		return model.Person{}, repository.StateEntry{}, err
	}
	entry, err := store.State(ctx, id)
	if err != nil {
		return model.Person{}, repository.StateEntry{}, err
	}
	return p, entry, nil
}

// Report returns the last run's aggregation report.
func (s *Service) Report() (*aggregate.Report, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.dataset == nil {
		return nil, false
	}
	return s.dataset.Report, true
}

// Quarantine returns the last run's quarantined records.
func (s *Service) Quarantine() ([]model.QuarantinedRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.dataset == nil {
		return nil, false
	}
	return s.dataset.Quarantine, true
}
