// Package behavior derives per-person engagement state by replaying
// the ordered reservation history. State is recomputed from scratch on
// every run; nothing is mutated incrementally.
package behavior

import (
	"sort"
	"time"

	"github.com/ivasko/courtline/internal/domain/model"
)

// Default engine configuration constants.
const (
	defaultChurnWindow = 14 * 24 * time.Hour
	defaultThreshold   = 3
)

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithChurnWindow sets the inactivity window after which a person
// counts as churned.
func WithChurnWindow(w time.Duration) Option {
	return func(e *Engine) {
		if w > 0 {
			e.churnWindow = w
		}
	}
}

// WithThreshold sets the attendance count at which a person crosses
// the regular-participant threshold.
func WithThreshold(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.threshold = n
		}
	}
}

// Engine replays reservation histories into behavioral state.
type Engine struct {
	churnWindow time.Duration
	threshold   int
}

// New creates an engine with configuration options.
func New(opts ...Option) *Engine {
	e := &Engine{
		churnWindow: defaultChurnWindow,
		threshold:   defaultThreshold,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ChurnWindow returns the configured inactivity window.
func (e *Engine) ChurnWindow() time.Duration { return e.churnWindow }

// Threshold returns the configured participation threshold.
func (e *Engine) Threshold() int { return e.threshold }

// Replay derives the behavioral state for one person from their full
// reservation history. The history may arrive in any order; replay
// sorts a copy by creation time then ID so the result is independent
// of input ordering.
//
// Activity means a confirmed or attended reservation; cancellations
// and no-shows never advance state. The threshold flag is monotonic:
// once the attendance count reaches the threshold it stays crossed,
// and ThresholdAt records the attendance that crossed it.
func (e *Engine) Replay(personID string, history []model.Reservation) model.BehavioralState {
	ordered := sortedCopy(history)
	state := model.BehavioralState{PersonID: personID}

	for _, r := range ordered {
		if r.PersonID != personID {
			continue
		}
		if r.Status.Qualifying() {
			at := r.CreatedAt
			if state.FirstActivation == nil {
				state.FirstActivation = &at
			}
			state.LastActivity = &at
		}
		if r.Status == model.StatusAttended {
			state.AttendanceCount++
			if !state.ThresholdCrossed && state.AttendanceCount >= e.threshold {
				at := r.CreatedAt
				state.ThresholdCrossed = true
				state.ThresholdAt = &at
			}
		}
	}
	return state
}

// ChurnAt evaluates the churn label as of a given date, using only
// reservations that existed by then. A person with no qualifying
// activity by the evaluation date is churned; otherwise they are
// churned exactly when the evaluation date is more than the churn
// window past their last activity. Activity after the evaluation date
// never rescues an earlier evaluation.
func (e *Engine) ChurnAt(personID string, history []model.Reservation, at time.Time) model.ChurnState {
	var last *time.Time
	for _, r := range history {
		if r.PersonID != personID || r.CreatedAt.After(at) || !r.Status.Qualifying() {
			continue
		}
		t := r.CreatedAt
		if last == nil || t.After(*last) {
			last = &t
		}
	}
	if last == nil || at.Sub(*last) > e.churnWindow {
		return model.ChurnChurned
	}
	return model.ChurnActive
}

func sortedCopy(history []model.Reservation) []model.Reservation {
	ordered := make([]model.Reservation, len(history))
	copy(ordered, history)
	sort.Slice(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
	return ordered
}
