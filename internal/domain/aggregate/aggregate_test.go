package aggregate_test

import (
	"testing"
	"time"

	"github.com/ivasko/courtline/internal/domain/aggregate"
	"github.com/ivasko/courtline/internal/domain/model"
	"github.com/ivasko/courtline/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func ts(day, hour int) time.Time {
	return time.Date(2024, 3, day, hour, 0, 0, 0, time.UTC)
}

func ptr[T any](v T) *T { return &v }

func TestAggregate(t *testing.T) {
	Convey("Given an enriched dataset", t, func() {
		agg := aggregate.New(aggregate.WithRetentionWeeks(2))
		evalAt := ts(28, 12)

		// p1-p3 enroll Friday March 1 (cohort Monday 2024-02-26),
		// p4 enrolls Monday March 11 (its own cohort).
		people := []model.Person{
			{ID: "p1", Gender: model.GenderFemale, EnrolledAt: ts(1, 9), DistanceKm: ptr(1.5)},
			{ID: "p2", Gender: model.GenderMale, EnrolledAt: ts(1, 9), DistanceKm: ptr(7.0)},
			{ID: "p3", Gender: model.GenderUnknown, EnrolledAt: ts(1, 9)},
			{ID: "p4", Gender: model.GenderMale, EnrolledAt: ts(11, 9)},
		}
		reservations := []model.Reservation{
			{ID: "r1", PersonID: "p1", EventID: "e1", Status: model.StatusAttended, CreatedAt: ts(1, 10)},
			{ID: "r2", PersonID: "p1", EventID: "e2", Status: model.StatusAttended, CreatedAt: ts(2, 10)},
			// booked at 02:00 for a mid-morning event: belongs to night
			{ID: "r3", PersonID: "p2", EventID: "e1", Status: model.StatusCancelled, CreatedAt: ts(1, 2)},
			{ID: "r4", PersonID: "p2", EventID: "e2", Status: model.StatusNoShow, CreatedAt: ts(2, 19)},
			{ID: "r5", PersonID: "p2", EventID: "e2", Status: model.StatusConfirmed, CreatedAt: ts(3, 10)},
			{ID: "r6", PersonID: "p4", EventID: "e1", Status: model.StatusAttended, CreatedAt: ts(11, 10)},
		}
		states := map[string]model.BehavioralState{
			"p1": {PersonID: "p1", FirstActivation: ptr(ts(1, 10)), LastActivity: ptr(ts(2, 10)), AttendanceCount: 2},
			"p2": {PersonID: "p2", FirstActivation: ptr(ts(3, 10)), LastActivity: ptr(ts(3, 10)), AttendanceCount: 0},
			"p3": {PersonID: "p3"},
			"p4": {PersonID: "p4", FirstActivation: ptr(ts(11, 10)), LastActivity: ptr(ts(11, 10)), AttendanceCount: 1},
		}

		rep := agg.Aggregate(aggregate.Input{
			People:       people,
			Reservations: reservations,
			States:       states,
			EvaluatedAt:  evalAt,
		})

		value := func(metric, slice string) float64 {
			v, ok := rep.Value(types.MetricKey{Metric: metric, Slice: slice})
			So(ok, ShouldBeTrue)
			return v
		}

		Convey("Outcome rates bucket by reservation creation time", func() {
			// r3 was created at 02:00; the cancellation lands in the
			// night bucket regardless of when its event started.
			So(value(aggregate.MetricCancelledRate, "night"), ShouldAlmostEqual, 1.0, 1e-9)
			So(value(aggregate.MetricAttendedRate, "morning"), ShouldAlmostEqual, 1.0, 1e-9)
			So(value(aggregate.MetricNoShowRate, "evening"), ShouldAlmostEqual, 1.0, 1e-9)
		})

		Convey("Outcome rates close over terminal statuses per bucket", func() {
			for _, bucket := range aggregate.TimeBuckets {
				sum := value(aggregate.MetricAttendedRate, bucket) +
					value(aggregate.MetricCancelledRate, bucket) +
					value(aggregate.MetricNoShowRate, bucket)
				if bucket == "afternoon" {
					So(sum, ShouldAlmostEqual, 0, 1e-9) // empty bucket
				} else {
					So(sum, ShouldAlmostEqual, 1.0, 1e-9)
				}
			}
		})

		Convey("Retention is a per-cohort drop-off curve", func() {
			// 2024-02-26 cohort at week 1 (March 4): p1's last attended
			// and p2's open confirmed both fall inside the churn
			// window, p3 never activated.
			So(value(aggregate.MetricRetention, "2024-02-26_week_01"), ShouldAlmostEqual, 2.0/3, 1e-9)
			So(value(aggregate.MetricRetention, "2024-02-26_week_02"), ShouldAlmostEqual, 2.0/3, 1e-9)
			// p4's cohort is sliced separately and stays fully active.
			So(value(aggregate.MetricRetention, "2024-03-11_week_01"), ShouldAlmostEqual, 1.0, 1e-9)
			So(value(aggregate.MetricRetention, "2024-03-11_week_02"), ShouldAlmostEqual, 1.0, 1e-9)
			// at the cohort's Monday nobody has activity yet
			So(value(aggregate.MetricRetention, "2024-02-26_week_00"), ShouldAlmostEqual, 0, 1e-9)
		})

		Convey("Retention uses the injected churn evaluation", func() {
			allChurned := aggregate.New(
				aggregate.WithRetentionWeeks(2),
				aggregate.WithChurnFunc(func(_ string, _ []model.Reservation, _ time.Time) model.ChurnState {
					return model.ChurnChurned
				}),
			)
			rep := allChurned.Aggregate(aggregate.Input{
				People:       people,
				Reservations: reservations,
				States:       states,
				EvaluatedAt:  evalAt,
			})
			v, ok := rep.Value(types.MetricKey{Metric: aggregate.MetricRetention, Slice: "2024-03-11_week_01"})
			So(ok, ShouldBeTrue)
			So(v, ShouldAlmostEqual, 0, 1e-9)
		})

		Convey("Repeat participation counts second attendances", func() {
			// p1 and p4 attended at least once, only p1 twice
			So(value(aggregate.MetricRepeatRate, aggregate.SliceAll), ShouldAlmostEqual, 0.5, 1e-9)
		})

		Convey("Distance shares carry an explicit unknown bucket", func() {
			So(value(aggregate.MetricDistanceShare, "0-2km"), ShouldAlmostEqual, 0.25, 1e-9)
			So(value(aggregate.MetricDistanceShare, "5-10km"), ShouldAlmostEqual, 0.25, 1e-9)
			So(value(aggregate.MetricDistanceShare, aggregate.SliceUnknown), ShouldAlmostEqual, 0.5, 1e-9)
		})

		Convey("Gender shares cover the whole population", func() {
			total := value(aggregate.MetricGenderShare, "female") +
				value(aggregate.MetricGenderShare, "male") +
				value(aggregate.MetricGenderShare, "unknown")
			So(total, ShouldAlmostEqual, 1.0, 1e-9)
		})

		Convey("Activity timing is sliced by gender", func() {
			// p1 activated within an hour of enrollment
			So(value(aggregate.MetricDaysToFirst, "female"), ShouldBeLessThan, 1)
			// p3 never activated: the unknown slice has no samples
			So(value(aggregate.MetricDaysToFirst, "unknown"), ShouldAlmostEqual, 0, 1e-9)
		})

		Convey("Report values come out sorted and deterministic", func() {
			again := agg.Aggregate(aggregate.Input{
				People:       people,
				Reservations: reservations,
				States:       states,
				EvaluatedAt:  evalAt,
			})
			So(again.Values, ShouldResemble, rep.Values)
			for i := 1; i < len(rep.Values); i++ {
				prev, cur := rep.Values[i-1], rep.Values[i]
				ordered := prev.Metric < cur.Metric ||
					(prev.Metric == cur.Metric && prev.Slice < cur.Slice)
				So(ordered, ShouldBeTrue)
			}
		})
	})

	Convey("An empty dataset produces a zeroed report, not a panic", t, func() {
		rep := aggregate.New().Aggregate(aggregate.Input{EvaluatedAt: ts(1, 0)})
		So(rep.Values, ShouldNotBeEmpty)
		for _, v := range rep.Values {
			So(v.Value, ShouldAlmostEqual, 0, 1e-9)
		}
	})
}
