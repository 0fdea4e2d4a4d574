package repository

import (
	"context"
	"fmt"
	"hash/fnv"
	"sort"
	"sync"
	"time"

	"github.com/ivasko/courtline/internal/domain/model"
	"github.com/ivasko/courtline/pkg/metrics"
)

// Default store configuration constants.
const (
	defaultShardCount            = 8
	defaultMetricsUpdateInterval = 5 * time.Second
)

// shard holds one partition of the key space under its own lock, so
// the enrichment workers never contend on a single mutex.
type shard struct {
	mu     sync.RWMutex
	people map[string]model.Person
	states map[string]StateEntry
}

// ShardedStore is an in-memory Store partitioned by person ID hash.
type ShardedStore struct {
	shardCount            int
	shards                []*shard
	metricsUpdateInterval time.Duration

	closeOnce sync.Once
	done      chan struct{}
}

// NewSharded creates a sharded store and starts its background metrics
// updater. Close stops the updater.
func NewSharded(ctx context.Context, opts ...Option) *ShardedStore {
	s := &ShardedStore{
		shardCount:            defaultShardCount,
		metricsUpdateInterval: defaultMetricsUpdateInterval,
		done:                  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.shards = make([]*shard, s.shardCount)
	for i := range s.shards {
		s.shards[i] = &shard{
			people: map[string]model.Person{},
			states: map[string]StateEntry{},
		}
	}

	go s.startMetricsUpdater(ctx)
	return s
}

// Close stops the background metrics updater.
func (s *ShardedStore) Close() error {
	s.closeOnce.Do(func() { close(s.done) })
	return nil
}

func (s *ShardedStore) shardFor(id string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	return s.shards[h.Sum32()%uint32(s.shardCount)]
}

// UpsertPerson inserts or replaces a person record.
func (s *ShardedStore) UpsertPerson(ctx context.Context, p model.Person) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if p.ID == "" {
		return fmt.Errorf("%w: empty", ErrInvalidID)
	}
	sh := s.shardFor(p.ID)
	sh.mu.Lock()
	sh.people[p.ID] = p
	sh.mu.Unlock()
	return nil
}

// SetState records the derived state for a person.
func (s *ShardedStore) SetState(ctx context.Context, entry StateEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	id := entry.State.PersonID
	if id == "" {
		return fmt.Errorf("%w: empty", ErrInvalidID)
	}
	sh := s.shardFor(id)
	sh.mu.Lock()
	sh.states[id] = entry
	sh.mu.Unlock()
	return nil
}

// Person returns one person by normalized ID.
func (s *ShardedStore) Person(ctx context.Context, id string) (model.Person, error) {
	if err := ctx.Err(); err != nil {
		return model.Person{}, err
	}
	sh := s.shardFor(id)
	sh.mu.RLock()
	p, ok := sh.people[id]
	sh.mu.RUnlock()
	if !ok {
		return model.Person{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return p, nil
}

// State returns the derived state entry for a person.
func (s *ShardedStore) State(ctx context.Context, id string) (StateEntry, error) {
	if err := ctx.Err(); err != nil {
		return StateEntry{}, err
	}
	sh := s.shardFor(id)
	sh.mu.RLock()
	entry, ok := sh.states[id]
	sh.mu.RUnlock()
	if !ok {
		return StateEntry{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return entry, nil
}

// People returns all people sorted by ID.
func (s *ShardedStore) People(ctx context.Context) ([]model.Person, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []model.Person
	for _, sh := range s.shards {
		sh.mu.RLock()
		for _, p := range sh.people {
			out = append(out, p)
		}
		sh.mu.RUnlock()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// States returns all state entries sorted by person ID.
func (s *ShardedStore) States(ctx context.Context) ([]StateEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []StateEntry
	for _, sh := range s.shards {
		sh.mu.RLock()
		for _, entry := range sh.states {
			out = append(out, entry)
		}
		sh.mu.RUnlock()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].State.PersonID < out[j].State.PersonID })
	return out, nil
}

// Count returns the number of people tracked.
func (s *ShardedStore) Count(ctx context.Context) int {
	total := 0
	for _, sh := range s.shards {
		sh.mu.RLock()
		total += len(sh.people)
		sh.mu.RUnlock()
	}
	return total
}

func (s *ShardedStore) startMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(s.metricsUpdateInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.done:
			return
		case <-ticker.C:
			metrics.UpdatePeopleTotal(s.Count(ctx))
		}
	}
}
