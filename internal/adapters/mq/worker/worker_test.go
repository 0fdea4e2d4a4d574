package worker_test

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/ivasko/courtline/internal/adapters/mq/queue"
	"github.com/ivasko/courtline/internal/adapters/mq/worker"
	"github.com/ivasko/courtline/internal/adapters/repository"
	"github.com/ivasko/courtline/internal/domain/model"
	"github.com/ivasko/courtline/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMain(m *testing.M) {
	_ = logger.Init()
	os.Exit(m.Run())
}

type stubEnricher struct {
	fail bool
}

func (e *stubEnricher) Enrich(_ context.Context, p model.Person) (model.Person, error) {
	if e.fail {
		return p, errors.New("geocoder down")
	}
	p.Gender = model.GenderFemale
	return p, nil
}

type stubDeriver struct{}

func (stubDeriver) Derive(personID string, history []model.Reservation) repository.StateEntry {
	return repository.StateEntry{
		State: model.BehavioralState{PersonID: personID, AttendanceCount: len(history)},
		Churn: model.ChurnActive,
	}
}

type memSink struct {
	mu     sync.Mutex
	people map[string]model.Person
	states map[string]repository.StateEntry
}

func newMemSink() *memSink {
	return &memSink{people: map[string]model.Person{}, states: map[string]repository.StateEntry{}}
}

func (s *memSink) UpsertPerson(_ context.Context, p model.Person) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.people[p.ID] = p
	return nil
}

func (s *memSink) SetState(_ context.Context, entry repository.StateEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[entry.State.PersonID] = entry
	return nil
}

func TestPool(t *testing.T) {
	Convey("Given a pool over a task queue", t, func() {
		ctx := context.Background()

		Convey("All queued tasks are enriched, derived, and stored", func() {
			q := queue.NewInMemoryQueue(queue.WithCapacity(16))
			sink := newMemSink()
			pool := worker.NewPool(4, q, &stubEnricher{}, stubDeriver{}, sink)

			for _, id := range []string{"p1", "p2", "p3"} {
				So(q.Enqueue(ctx, queue.Task{
					Person:  model.Person{ID: id},
					History: []model.Reservation{{ID: "r-" + id, PersonID: id}},
				}), ShouldBeTrue)
			}

			pool.Start(ctx)
			So(q.Close(), ShouldBeNil)

			waitCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			So(pool.Wait(waitCtx), ShouldBeNil)

			So(sink.people, ShouldHaveLength, 3)
			So(sink.people["p2"].Gender, ShouldEqual, model.GenderFemale)
			So(sink.states["p3"].State.AttendanceCount, ShouldEqual, 1)
		})

		Convey("Enrichment failure degrades but the person still lands", func() {
			q := queue.NewInMemoryQueue(queue.WithCapacity(4))
			sink := newMemSink()
			pool := worker.NewPool(1, q, &stubEnricher{fail: true}, stubDeriver{}, sink)

			So(q.Enqueue(ctx, queue.Task{Person: model.Person{ID: "p1", Gender: model.GenderUnknown}}), ShouldBeTrue)
			pool.Start(ctx)
			So(q.Close(), ShouldBeNil)

			waitCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			So(pool.Wait(waitCtx), ShouldBeNil)

			So(sink.people, ShouldContainKey, "p1")
			So(sink.people["p1"].Gender, ShouldEqual, model.GenderUnknown)
			So(sink.states, ShouldContainKey, "p1")
		})
	})
}
