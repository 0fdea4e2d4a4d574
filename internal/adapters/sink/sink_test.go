package sink_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/ivasko/courtline/internal/adapters/sink"
	"github.com/ivasko/courtline/internal/domain/aggregate"
	"github.com/ivasko/courtline/internal/domain/model"
	"github.com/ivasko/courtline/internal/domain/types"
	"github.com/ivasko/courtline/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMain(m *testing.M) {
	_ = logger.Init()
	os.Exit(m.Run())
}

func TestWriter(t *testing.T) {
	Convey("Given a dataset writer", t, func() {
		ctx := context.Background()
		dir := filepath.Join(t.TempDir(), "out")
		w := sink.NewWriter(dir)

		ds := &sink.Dataset{
			People: []model.Person{{ID: "p1", Gender: model.GenderFemale}},
			States: []types.StateRow{{PersonID: "p1", EvaluatedAt: time.Date(2024, 3, 28, 0, 0, 0, 0, time.UTC)}},
			Report: aggregate.New().Aggregate(aggregate.Input{}),
			Summary: types.RunSummary{
				RunID:       "run-1",
				Quarantined: map[string]int{model.ReasonOrphanReference: 2},
			},
		}

		Convey("All six files land, including empty collections", func() {
			So(w.Write(ctx, ds), ShouldBeNil)

			for _, name := range []string{
				sink.PeopleFile, sink.StatesFile, sink.ReportFile,
				sink.SummaryFile, sink.MergeLogFile, sink.QuarantineFile,
			} {
				_, err := os.Stat(filepath.Join(dir, name))
				So(err, ShouldBeNil)
			}

			raw, err := os.ReadFile(filepath.Join(dir, sink.MergeLogFile))
			So(err, ShouldBeNil)
			var merges []model.MergeDecision
			So(json.Unmarshal(raw, &merges), ShouldBeNil)
			So(merges, ShouldBeEmpty) // [] not null
		})

		Convey("Written people round-trip", func() {
			So(w.Write(ctx, ds), ShouldBeNil)

			raw, err := os.ReadFile(filepath.Join(dir, sink.PeopleFile))
			So(err, ShouldBeNil)
			var people []model.Person
			So(json.Unmarshal(raw, &people), ShouldBeNil)
			So(people, ShouldHaveLength, 1)
			So(people[0].ID, ShouldEqual, "p1")
		})

		Convey("No staging files remain after a write", func() {
			So(w.Write(ctx, ds), ShouldBeNil)

			entries, err := os.ReadDir(dir)
			So(err, ShouldBeNil)
			for _, e := range entries {
				So(filepath.Ext(e.Name()), ShouldNotEqual, ".tmp")
			}
		})
	})
}
