package behavior_test

import (
	"testing"
	"time"

	"github.com/ivasko/courtline/internal/domain/behavior"
	"github.com/ivasko/courtline/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func at(day int) time.Time {
	return time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC).AddDate(0, 0, day)
}

func res(id string, day int, status model.ReservationStatus) model.Reservation {
	return model.Reservation{ID: id, PersonID: "p1", EventID: "e1", Status: status, CreatedAt: at(day)}
}

func TestReplay(t *testing.T) {
	Convey("Given a reservation history", t, func() {
		eng := behavior.New()

		Convey("Qualifying reservations set activation and activity", func() {
			state := eng.Replay("p1", []model.Reservation{
				res("r1", 0, model.StatusAttended),
				res("r2", 5, model.StatusConfirmed),
			})
			So(state.FirstActivation, ShouldNotBeNil)
			So(*state.FirstActivation, ShouldEqual, at(0))
			So(*state.LastActivity, ShouldEqual, at(5))
			So(state.AttendanceCount, ShouldEqual, 1)
		})

		Convey("Cancellations and no-shows never advance state", func() {
			state := eng.Replay("p1", []model.Reservation{
				res("r1", 0, model.StatusCancelled),
				res("r2", 2, model.StatusNoShow),
			})
			So(state.FirstActivation, ShouldBeNil)
			So(state.LastActivity, ShouldBeNil)
			So(state.AttendanceCount, ShouldEqual, 0)
		})

		Convey("The threshold flag is monotonic and records the crossing", func() {
			history := []model.Reservation{
				res("r1", 0, model.StatusAttended),
				res("r2", 5, model.StatusAttended),
				res("r3", 10, model.StatusAttended),
				res("r4", 40, model.StatusCancelled),
			}
			state := eng.Replay("p1", history)
			So(state.ThresholdCrossed, ShouldBeTrue)
			So(*state.ThresholdAt, ShouldEqual, at(10))
			So(state.AttendanceCount, ShouldEqual, 3)
		})

		Convey("Replay is independent of input ordering", func() {
			history := []model.Reservation{
				res("r3", 10, model.StatusAttended),
				res("r1", 0, model.StatusAttended),
				res("r2", 5, model.StatusAttended),
			}
			shuffled := eng.Replay("p1", history)
			ordered := eng.Replay("p1", []model.Reservation{history[1], history[2], history[0]})
			So(shuffled, ShouldResemble, ordered)
			So(*shuffled.ThresholdAt, ShouldEqual, at(10))
		})

		Convey("A person with no reservations has empty state", func() {
			state := eng.Replay("p1", nil)
			So(state.FirstActivation, ShouldBeNil)
			So(state.ThresholdCrossed, ShouldBeFalse)
		})

		Convey("Other people's reservations are ignored", func() {
			other := model.Reservation{ID: "x", PersonID: "p2", Status: model.StatusAttended, CreatedAt: at(1)}
			state := eng.Replay("p1", []model.Reservation{other})
			So(state.AttendanceCount, ShouldEqual, 0)
		})
	})
}

func TestChurnAt(t *testing.T) {
	Convey("Given activity on day 0 and day 20 with a 14-day window", t, func() {
		eng := behavior.New(behavior.WithChurnWindow(14 * 24 * time.Hour))
		history := []model.Reservation{
			res("r1", 0, model.StatusAttended),
			res("r2", 20, model.StatusAttended),
		}

		Convey("Day 5 evaluates active", func() {
			So(eng.ChurnAt("p1", history, at(5)), ShouldEqual, model.ChurnActive)
		})

		Convey("Day 15 evaluates churned despite later activity", func() {
			So(eng.ChurnAt("p1", history, at(15)), ShouldEqual, model.ChurnChurned)
		})

		Convey("Day 21 evaluates active again", func() {
			So(eng.ChurnAt("p1", history, at(21)), ShouldEqual, model.ChurnActive)
		})

		Convey("Exactly at the window boundary is still active", func() {
			So(eng.ChurnAt("p1", history, at(14)), ShouldEqual, model.ChurnActive)
		})
	})

	Convey("A person with no qualifying activity is churned", t, func() {
		eng := behavior.New()
		So(eng.ChurnAt("p1", nil, at(10)), ShouldEqual, model.ChurnChurned)
		So(eng.ChurnAt("p1", []model.Reservation{
			res("r1", 0, model.StatusCancelled),
		}, at(10)), ShouldEqual, model.ChurnChurned)
	})
}
