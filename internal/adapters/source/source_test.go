package source_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ivasko/courtline/internal/adapters/source"
	"github.com/ivasko/courtline/internal/domain/model"
	"github.com/ivasko/courtline/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMain(m *testing.M) {
	_ = logger.Init()
	os.Exit(m.Run())
}

func writeExport(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}

func TestReaderLoad(t *testing.T) {
	Convey("Given an export directory", t, func() {
		ctx := context.Background()
		dir := t.TempDir()

		Convey("When all three streams decode cleanly", func() {
			writeExport(t, dir, source.PeopleFile, `[
				{"id":"u1","first_name":"Ana","last_name":"Kovač","residence":"Spinut 12, Split (HR)","created_at":"2024-02-01T10:00:00Z"},
				{"id":"u2","first_name":"Marko","last_name":"Perić","created_at":1706781600000}
			]`)
			writeExport(t, dir, source.EventsFile, `[
				{"id":"e1","title":"Futsal studenti group 2","location":"SPINUT teren","starts_at":"2024-03-01T18:00:00Z","total_units":20}
			]`)
			writeExport(t, dir, source.ReservationsFile, `[
				{"id":"r1","person_id":"u1","event_id":"e1","status":1,"attended_at":"2024-03-01T18:05:00Z","created_at":"2024-02-20T09:00:00Z"},
				{"id":"r2","person_id":"u2","event_id":"e1","status":"cancelled","created_at":"2024-02-21T09:00:00Z"}
			]`)

			snap, err := source.NewReader(dir).Load(ctx)

			Convey("Then every record should be parsed and typed", func() {
				So(err, ShouldBeNil)
				So(snap.People, ShouldHaveLength, 2)
				So(snap.Events, ShouldHaveLength, 1)
				So(snap.Reservations, ShouldHaveLength, 2)
				So(snap.Malformed, ShouldBeEmpty)
			})

			Convey("Then epoch-millis timestamps should normalize to UTC", func() {
				So(err, ShouldBeNil)
				So(snap.People[1].CreatedAt.Time, ShouldEqual, time.UnixMilli(1706781600000).UTC())
			})

			Convey("Then statuses should map to the canonical set", func() {
				So(err, ShouldBeNil)
				st, serr := snap.Reservations[0].DecodeStatus()
				So(serr, ShouldBeNil)
				So(st, ShouldEqual, model.StatusAttended)
				st, serr = snap.Reservations[1].DecodeStatus()
				So(serr, ShouldBeNil)
				So(st, ShouldEqual, model.StatusCancelled)
			})
		})

		Convey("When a record is malformed", func() {
			writeExport(t, dir, source.PeopleFile, `[
				{"id":"u1","first_name":"Ana","created_at":"2024-02-01T10:00:00Z"},
				{"first_name":"NoID","created_at":"2024-02-01T10:00:00Z"}
			]`)
			writeExport(t, dir, source.EventsFile, `[]`)
			writeExport(t, dir, source.ReservationsFile, `[
				{"id":"r1","person_id":"u1","event_id":"e1","status":"teleported","created_at":"2024-02-21T09:00:00Z"}
			]`)

			snap, err := source.NewReader(dir).Load(ctx)

			Convey("Then the malformed records should be quarantined, not fatal", func() {
				So(err, ShouldBeNil)
				So(snap.People, ShouldHaveLength, 1)
				So(snap.Reservations, ShouldBeEmpty)
				So(snap.Malformed, ShouldHaveLength, 2)
				So(snap.Malformed[0].Reason, ShouldEqual, model.ReasonMalformedRecord)
				So(snap.Malformed[1].Reason, ShouldEqual, model.ReasonMalformedRecord)
			})
		})

		Convey("When an export file is missing", func() {
			writeExport(t, dir, source.EventsFile, `[]`)
			writeExport(t, dir, source.ReservationsFile, `[]`)

			_, err := source.NewReader(dir).Load(ctx)

			Convey("Then the load should fail with an open error", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "open input failed")
			})
		})
	})
}

func TestDecodeStatusLegacyCodes(t *testing.T) {
	Convey("Given legacy numeric status codes", t, func() {
		cases := []struct {
			raw      string
			attended bool
			want     model.ReservationStatus
		}{
			{"1", true, model.StatusAttended},
			{"1", false, model.StatusConfirmed},
			{"2", false, model.StatusCancelled},
			{"3", false, model.StatusNoShow},
			{"-1", false, model.StatusConfirmed},
			{"0", false, model.StatusConfirmed},
		}

		for _, tc := range cases {
			r := source.RawReservation{Status: []byte(tc.raw)}
			if tc.attended {
				ts := source.Timestamp{}
				So(ts.UnmarshalJSON([]byte(`"2024-03-01T18:05:00Z"`)), ShouldBeNil)
				r.AttendedAt = &ts
			}
			st, err := r.DecodeStatus()
			So(err, ShouldBeNil)
			So(st, ShouldEqual, tc.want)
		}

		Convey("And an unknown code should be rejected", func() {
			r := source.RawReservation{Status: []byte("9")}
			_, err := r.DecodeStatus()
			So(err, ShouldNotBeNil)
		})
	})
}
