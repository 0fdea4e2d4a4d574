// Package service orchestrates the analytics pipeline and implements
// the dependencies required by the results API.
package service

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ivasko/courtline/internal/adapters/geocode"
	taskqueue "github.com/ivasko/courtline/internal/adapters/mq/queue"
	workerpool "github.com/ivasko/courtline/internal/adapters/mq/worker"
	"github.com/ivasko/courtline/internal/adapters/repository"
	"github.com/ivasko/courtline/internal/adapters/sink"
	"github.com/ivasko/courtline/internal/adapters/source"
	"github.com/ivasko/courtline/internal/domain/aggregate"
	"github.com/ivasko/courtline/internal/domain/behavior"
	"github.com/ivasko/courtline/internal/domain/gender"
	"github.com/ivasko/courtline/internal/domain/model"
	"github.com/ivasko/courtline/internal/domain/normalize"
	"github.com/ivasko/courtline/internal/domain/types"
	"github.com/ivasko/courtline/pkg/logger"
	"github.com/ivasko/courtline/pkg/metrics"
)

// Service runs the pipeline and serves its results.
type Service struct {
	mu sync.RWMutex

	// Configuration
	inputDir         string
	outputDir        string
	workerCount      int
	queueSize        int
	shardCount       int
	churnWindow      time.Duration
	threshold        int
	confidenceMin    float64
	venue            model.Coordinate
	evaluatedAt      time.Time
	geocodeCachePath string
	resolver         geocode.Resolver
	ignoredTitles    []string
	titleFixes       map[string]string

	// Results of the last completed run
	dataset *sink.Dataset
	store   repository.Store

	logger logger.Logger
}

// New constructs a Service with default configuration.
func New(inputDir, outputDir string, opts ...Option) *Service {
	s := &Service{
		inputDir:      inputDir,
		outputDir:     outputDir,
		workerCount:   runtime.NumCPU() * 2,
		queueSize:     10000,
		shardCount:    8,
		churnWindow:   14 * 24 * time.Hour,
		threshold:     3,
		confidenceMin: 0.6,
		evaluatedAt:   time.Now().UTC(),
		ignoredTitles: []string{"proba", "test"},
		titleFixes: map[string]string{
			"futsal studneti": "futsal studenti",
			"stolni tensi":    "stolni tenis",
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Named("service")
	}
	if s.resolver == nil {
		s.resolver = geocode.NewNominatim()
	}
	return s
}

// Run executes one full pipeline pass: ingest, normalize, enrich and
// derive concurrently, aggregate, and write the dataset. The results
// stay resident for the API until the next run replaces them.
func (s *Service) Run(ctx context.Context) (*types.RunSummary, error) {
	started := time.Now().UTC()
	runID := uuid.NewString()
	s.logger.Info(ctx, "pipeline run starting",
		logger.String("runID", runID),
		logger.Time("evaluatedAt", s.evaluatedAt),
	)

	snap, err := source.NewReader(s.inputDir).Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("ingest: %w", err)
	}

	normalizer := normalize.New(
		normalize.WithIgnoredTitles(s.ignoredTitles...),
		normalize.WithTitleFixes(s.titleFixes),
	)
	normalized, err := normalizer.Normalize(ctx, snap.Records())
	if err != nil {
		return nil, fmt.Errorf("normalize: %w", err)
	}

	cache, err := geocode.NewCache(s.resolver, s.geocodeCachePath)
	if err != nil {
		return nil, fmt.Errorf("geocode cache: %w", err)
	}

	engine := behavior.New(
		behavior.WithChurnWindow(s.churnWindow),
		behavior.WithThreshold(s.threshold),
	)
	store := repository.NewSharded(ctx, repository.WithShardCount(s.shardCount))

	enricher := newEnricher(cache, gender.New(gender.WithConfidenceMin(s.confidenceMin)), s.venue)
	deriver := &stateDeriver{engine: engine, evaluatedAt: s.evaluatedAt}

	q := taskqueue.NewInMemoryQueue(taskqueue.WithCapacity(s.queueSize))
	pool := workerpool.NewPool(s.workerCount, q, enricher, deriver, store)
	pool.Start(ctx)

	history := map[string][]model.Reservation{}
	for _, r := range normalized.Reservations {
		history[r.PersonID] = append(history[r.PersonID], r)
	}
	for _, p := range normalized.People {
		if !q.Enqueue(ctx, taskqueue.Task{Person: p, History: history[p.ID]}) {
			// bounded queue full: drain synchronously rather than drop
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			for !q.Enqueue(ctx, taskqueue.Task{Person: p, History: history[p.ID]}) {
				time.Sleep(time.Millisecond)
				if err := ctx.Err(); err != nil {
					return nil, err
				}
			}
		}
	}
	if err := q.Close(); err != nil {
		return nil, fmt.Errorf("queue close: %w", err)
	}
	if err := pool.Wait(ctx); err != nil {
		return nil, fmt.Errorf("drain: %w", err)
	}

	if err := cache.Persist(); err != nil {
		s.logger.Warn(ctx, "geocode cache not persisted", logger.Error(err))
	}

	people, err := store.People(ctx)
	if err != nil {
		return nil, fmt.Errorf("collect people: %w", err)
	}
	entries, err := store.States(ctx)
	if err != nil {
		return nil, fmt.Errorf("collect states: %w", err)
	}

	states := make(map[string]model.BehavioralState, len(entries))
	stateRows := make([]types.StateRow, 0, len(entries))
	for _, e := range entries {
		states[e.State.PersonID] = e.State
		stateRows = append(stateRows, types.StateRow{
			PersonID:         e.State.PersonID,
			EvaluatedAt:      e.EvaluatedAt,
			FirstActivation:  e.State.FirstActivation,
			LastActivity:     e.State.LastActivity,
			AttendanceCount:  e.State.AttendanceCount,
			ThresholdCrossed: e.State.ThresholdCrossed,
			Churn:            e.Churn,
		})
	}

	report := aggregate.New(aggregate.WithChurnFunc(engine.ChurnAt)).Aggregate(aggregate.Input{
		People:       people,
		Reservations: normalized.Reservations,
		States:       states,
		EvaluatedAt:  s.evaluatedAt,
	})

	summary := s.buildSummary(runID, started, snap, normalized, cache, people)

	dataset := &sink.Dataset{
		People:     people,
		States:     stateRows,
		Report:     report,
		Summary:    summary,
		MergeLog:   normalized.MergeLog,
		Quarantine: append(snap.Malformed, normalized.Quarantine...),
	}
	if err := sink.NewWriter(s.outputDir).Write(ctx, dataset); err != nil {
		return nil, fmt.Errorf("emit: %w", err)
	}

	s.mu.Lock()
	if s.store != nil {
		if closer, ok := s.store.(interface{ Close() error }); ok {
			_ = closer.Close()
		}
	}
	s.dataset = dataset
	s.store = store
	s.mu.Unlock()

	metrics.RecordRunCompleted(time.Since(started).Seconds())
	s.logger.Info(ctx, "pipeline run finished",
		logger.String("runID", runID),
		logger.Duration("took", time.Since(started)),
		logger.Int("people", len(people)),
	)
	return &summary, nil
}

func (s *Service) buildSummary(
	runID string,
	started time.Time,
	snap *source.Snapshot,
	normalized *normalize.Result,
	cache *geocode.Cache,
	people []model.Person,
) types.RunSummary {
	quarantined := map[string]int{}
	for _, qr := range snap.Malformed {
		quarantined[qr.Reason]++
	}
	for _, qr := range normalized.Quarantine {
		quarantined[qr.Reason]++
	}

	merged := 0
	for _, m := range normalized.MergeLog {
		merged += len(m.MergedIDs)
	}

	unknownGender := 0
	for _, p := range people {
		if p.Gender == model.GenderUnknown {
			unknownGender++
		}
	}
	unknownRate := 0.0
	if len(people) > 0 {
		unknownRate = float64(unknownGender) / float64(len(people))
	}

	stats := cache.Stats()
	return types.RunSummary{
		RunID:                runID,
		StartedAt:            started,
		FinishedAt:           time.Now().UTC(),
		EvaluatedAt:          s.evaluatedAt,
		PeopleIngested:       len(snap.People),
		EventsIngested:       len(snap.Events),
		ReservationsIngested: len(snap.Reservations),
		PeopleMerged:         merged,
		Quarantined:          quarantined,
		GeocodeCacheHits:     stats.Hits,
		GeocodeResolved:      stats.Resolved,
		GeocodeUnresolved:    stats.Unresolved,
		GenderUnknownRate:    unknownRate,
	}
}

// Close releases the resident store.
func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.store != nil {
		if closer, ok := s.store.(interface{ Close() error }); ok {
			_ = closer.Close()
		}
	}
	return nil
}
