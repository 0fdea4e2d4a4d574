package service

import (
	"time"

	"github.com/ivasko/courtline/internal/adapters/geocode"
	"github.com/ivasko/courtline/internal/domain/model"
	"github.com/ivasko/courtline/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of enrichment workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the task queue capacity.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithShardCount sets the state store shard count.
func WithShardCount(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.shardCount = n
		}
	}
}

// WithChurnWindow sets the churn inactivity window.
func WithChurnWindow(w time.Duration) Option {
	return func(s *Service) {
		if w > 0 {
			s.churnWindow = w
		}
	}
}

// WithThreshold sets the regular-participation attendance threshold.
func WithThreshold(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.threshold = n
		}
	}
}

// WithGenderConfidenceMin sets the minimum confidence for a gender label.
func WithGenderConfidenceMin(min float64) Option {
	return func(s *Service) {
		if min >= 0 && min <= 1 {
			s.confidenceMin = min
		}
	}
}

// WithVenue sets the venue coordinate distances are measured from.
func WithVenue(lat, lng float64) Option {
	return func(s *Service) {
		s.venue = model.Coordinate{Lat: lat, Lng: lng}
	}
}

// WithEvaluationDate sets the churn evaluation date.
func WithEvaluationDate(at time.Time) Option {
	return func(s *Service) {
		if !at.IsZero() {
			s.evaluatedAt = at.UTC()
		}
	}
}

// WithGeocodeCachePath sets where the geocode cache persists.
func WithGeocodeCachePath(path string) Option {
	return func(s *Service) {
		s.geocodeCachePath = path
	}
}

// WithResolver replaces the geocoding resolver; tests use this.
func WithResolver(r geocode.Resolver) Option {
	return func(s *Service) {
		if r != nil {
			s.resolver = r
		}
	}
}

// WithIgnoredTitles replaces the event titles excluded from analytics.
func WithIgnoredTitles(titles ...string) Option {
	return func(s *Service) {
		s.ignoredTitles = titles
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(log logger.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.logger = log
		}
	}
}
