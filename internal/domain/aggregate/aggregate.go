// Package aggregate computes the cohort report from the enriched
// person set and the derived behavioral states.
package aggregate

import (
	"fmt"
	"sort"
	"time"

	"github.com/ivasko/courtline/internal/domain/behavior"
	"github.com/ivasko/courtline/internal/domain/model"
	"github.com/ivasko/courtline/internal/domain/types"
)

// Metric names appearing in the report.
const (
	MetricRetention        = "retention_by_week"
	MetricRepeatRate       = "repeat_participation_rate"
	MetricAttendedRate     = "attended_rate"
	MetricCancelledRate    = "cancelled_rate"
	MetricNoShowRate       = "no_show_rate"
	MetricDaysToFirst      = "median_days_to_first_activity"
	MetricDaysSinceLast    = "median_days_since_last_activity"
	MetricDistanceShare    = "distance_band_share"
	MetricGenderShare      = "gender_share"
	MetricThresholdReached = "threshold_reached_share"
)

// SliceAll is the slice label for whole-population metrics.
const SliceAll = "all"

// SliceUnknown labels the explicit bucket for people whose enrichment
// is missing. They are reported, never folded into a real bucket.
const SliceUnknown = "unknown"

// Report is the full aggregation output. Values are sorted by
// (metric, slice) so identical input yields byte-identical output.
type Report struct {
	GeneratedAt time.Time           `json:"generated_at"`
	EvaluatedAt time.Time           `json:"evaluated_at"`
	Values      []types.MetricValue `json:"values"`
}

// Value returns the cell for a key, if present.
func (r *Report) Value(key types.MetricKey) (float64, bool) {
	for _, v := range r.Values {
		if v.Metric == key.Metric && v.Slice == key.Slice {
			return v.Value, true
		}
	}
	return 0, false
}

// ChurnFunc evaluates a person's churn state at an instant, given
// their full reservation history.
type ChurnFunc func(personID string, history []model.Reservation, at time.Time) model.ChurnState

// Option applies a configuration option to the Aggregator.
type Option func(*Aggregator)

// WithRetentionWeeks sets how many weekly points each cohort's
// retention curve carries.
func WithRetentionWeeks(n int) Option {
	return func(a *Aggregator) {
		if n > 0 {
			a.retentionWeeks = n
		}
	}
}

// WithChurnFunc sets the churn evaluation the retention curve uses.
// Pass the same engine the pipeline derives states with so the curve
// and the emitted churn labels agree.
func WithChurnFunc(fn ChurnFunc) Option {
	return func(a *Aggregator) {
		if fn != nil {
			a.churn = fn
		}
	}
}

// Aggregator computes cohort metrics.
type Aggregator struct {
	retentionWeeks int
	churn          ChurnFunc
}

// New creates an aggregator with configuration options.
func New(opts ...Option) *Aggregator {
	a := &Aggregator{
		retentionWeeks: 12,
		churn:          behavior.New().ChurnAt,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Input is everything the aggregator consumes. States must hold one
// entry per person; people without reservations carry an empty state.
// Reservations must already be normalized: quarantined records never
// reach the aggregator.
type Input struct {
	People       []model.Person
	Reservations []model.Reservation
	States       map[string]model.BehavioralState
	EvaluatedAt  time.Time
}

// Aggregate computes the full report.
func (a *Aggregator) Aggregate(in Input) *Report {
	rep := &Report{
		GeneratedAt: time.Now().UTC(),
		EvaluatedAt: in.EvaluatedAt,
	}

	a.retention(rep, in)
	a.repeatRate(rep, in)
	a.outcomeRates(rep, in)
	a.activityTiming(rep, in)
	a.distanceBands(rep, in)
	a.genderShares(rep, in)
	a.thresholdShare(rep, in)

	sort.Slice(rep.Values, func(i, j int) bool {
		x, y := rep.Values[i], rep.Values[j]
		if x.Metric != y.Metric {
			return x.Metric < y.Metric
		}
		return x.Slice < y.Slice
	})
	return rep
}

func (rep *Report) add(metric, slice string, value float64) {
	rep.Values = append(rep.Values, types.MetricValue{Metric: metric, Slice: slice, Value: value})
}

// retention emits a drop-off curve per enrollment-week cohort: the
// fraction of the cohort still active at weekly offsets from the
// cohort's Monday, evaluated with the configured churn function.
// Offsets past the evaluation date are not emitted.
func (a *Aggregator) retention(rep *Report, in Input) {
	history := map[string][]model.Reservation{}
	for _, r := range in.Reservations {
		history[r.PersonID] = append(history[r.PersonID], r)
	}

	cohorts := map[time.Time][]model.Person{}
	for _, p := range in.People {
		start := weekStart(p.EnrolledAt)
		cohorts[start] = append(cohorts[start], p)
	}
	starts := make([]time.Time, 0, len(cohorts))
	for start := range cohorts {
		starts = append(starts, start)
	}
	sort.Slice(starts, func(i, j int) bool { return starts[i].Before(starts[j]) })

	for _, start := range starts {
		members := cohorts[start]
		for week := 0; week <= a.retentionWeeks; week++ {
			at := start.Add(time.Duration(week) * 7 * 24 * time.Hour)
			if at.After(in.EvaluatedAt) {
				break
			}
			active := 0
			for _, p := range members {
				if a.churn(p.ID, history[p.ID], at) == model.ChurnActive {
					active++
				}
			}
			slice := fmt.Sprintf("%s_week_%02d", start.Format("2006-01-02"), week)
			rep.add(MetricRetention, slice, ratio(active, len(members)))
		}
	}
}

// weekStart is the Monday of t's week, UTC midnight.
func weekStart(t time.Time) time.Time {
	t = t.UTC()
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	back := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -back)
}

func (a *Aggregator) repeatRate(rep *Report, in Input) {
	attendedOnce, attendedMore := 0, 0
	for _, state := range in.States {
		if state.AttendanceCount >= 1 {
			attendedOnce++
		}
		if state.AttendanceCount >= 2 {
			attendedMore++
		}
	}
	rep.add(MetricRepeatRate, SliceAll, ratio(attendedMore, attendedOnce))
}

// outcomeRates computes attended, cancelled, and no-show rates per
// time-of-day bucket of the reservation's creation instant, over
// terminal reservations only, so the three rates sum to one in every
// non-empty bucket.
func (a *Aggregator) outcomeRates(rep *Report, in Input) {
	type counts struct{ attended, cancelled, noShow int }
	buckets := map[string]*counts{}
	for _, b := range TimeBuckets {
		buckets[b] = &counts{}
	}

	for _, r := range in.Reservations {
		if !r.Status.Terminal() {
			continue
		}
		c := buckets[TimeBucket(r.CreatedAt)]
		switch r.Status {
		case model.StatusAttended:
			c.attended++
		case model.StatusCancelled:
			c.cancelled++
		case model.StatusNoShow:
			c.noShow++
		}
	}

	for _, b := range TimeBuckets {
		c := buckets[b]
		total := c.attended + c.cancelled + c.noShow
		rep.add(MetricAttendedRate, b, ratio(c.attended, total))
		rep.add(MetricCancelledRate, b, ratio(c.cancelled, total))
		rep.add(MetricNoShowRate, b, ratio(c.noShow, total))
	}
}

// activityTiming emits per-gender medians for days from enrollment to
// first activity and days from last activity to the evaluation date.
func (a *Aggregator) activityTiming(rep *Report, in Input) {
	toFirst := map[string][]float64{}
	sinceLast := map[string][]float64{}

	for _, p := range in.People {
		state := in.States[p.ID]
		slice := string(p.Gender)
		if state.FirstActivation != nil {
			toFirst[slice] = append(toFirst[slice], state.FirstActivation.Sub(p.EnrolledAt).Hours()/24)
		}
		if state.LastActivity != nil {
			sinceLast[slice] = append(sinceLast[slice], in.EvaluatedAt.Sub(*state.LastActivity).Hours()/24)
		}
	}

	for _, g := range []model.Gender{model.GenderFemale, model.GenderMale, model.GenderUnknown} {
		slice := string(g)
		rep.add(MetricDaysToFirst, slice, median(toFirst[slice]))
		rep.add(MetricDaysSinceLast, slice, median(sinceLast[slice]))
	}
}

func (a *Aggregator) distanceBands(rep *Report, in Input) {
	counts := map[string]int{}
	for _, band := range DistanceBands {
		counts[band] = 0
	}
	for _, p := range in.People {
		counts[DistanceBand(p.DistanceKm)]++
	}
	for _, band := range DistanceBands {
		rep.add(MetricDistanceShare, band, ratio(counts[band], len(in.People)))
	}
}

func (a *Aggregator) genderShares(rep *Report, in Input) {
	counts := map[model.Gender]int{}
	for _, p := range in.People {
		counts[p.Gender]++
	}
	for _, g := range []model.Gender{model.GenderFemale, model.GenderMale, model.GenderUnknown} {
		rep.add(MetricGenderShare, string(g), ratio(counts[g], len(in.People)))
	}
}

func (a *Aggregator) thresholdShare(rep *Report, in Input) {
	crossed := 0
	for _, state := range in.States {
		if state.ThresholdCrossed {
			crossed++
		}
	}
	rep.add(MetricThresholdReached, SliceAll, ratio(crossed, len(in.People)))
}

func ratio(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) / float64(whole)
}

func median(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	sorted := make([]float64, len(vals))
	copy(sorted, vals)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}
