package geocode_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ivasko/courtline/internal/adapters/geocode"
	"github.com/ivasko/courtline/internal/domain/model"
	"github.com/ivasko/courtline/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMain(m *testing.M) {
	_ = logger.Init()
	os.Exit(m.Run())
}

func TestNominatimResolver(t *testing.T) {
	Convey("Given a Nominatim-compatible server", t, func() {
		ctx := context.Background()
		var calls atomic.Int64
		var lastFormat, lastCountry atomic.Value

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			lastFormat.Store(r.URL.Query().Get("format"))
			lastCountry.Store(r.URL.Query().Get("countrycodes"))
			switch r.URL.Query().Get("q") {
			case "split":
				_, _ = w.Write([]byte(`[{"lat":"43.5081","lon":"16.4402","importance":0.8}]`))
			default:
				_, _ = w.Write([]byte(`[]`))
			}
		}))
		defer srv.Close()

		resolver := geocode.NewNominatim(geocode.WithEndpoint(srv.URL))

		Convey("A known locality resolves with coordinates", func() {
			fix, err := resolver.Resolve(ctx, "split")
			So(err, ShouldBeNil)
			So(fix.Resolved(), ShouldBeTrue)
			So(fix.Coords.Lat, ShouldAlmostEqual, 43.5081, 0.0001)
			So(fix.Coords.Lng, ShouldAlmostEqual, 16.4402, 0.0001)
			So(lastFormat.Load(), ShouldEqual, "json")
			So(lastCountry.Load(), ShouldEqual, "hr")
		})

		Convey("An unknown locality yields a negative fix, not an error", func() {
			fix, err := resolver.Resolve(ctx, "nowhere at all")
			So(err, ShouldBeNil)
			So(fix.Resolved(), ShouldBeFalse)
		})

		Convey("An unreachable server is a resolver error", func() {
			srv.Close()
			_, err := resolver.Resolve(ctx, "split")
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "resolver unavailable")
		})
	})
}

func TestCache(t *testing.T) {
	Convey("Given a cache over a counting resolver", t, func() {
		ctx := context.Background()
		var calls atomic.Int64

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			if r.URL.Query().Get("q") == "split" {
				_, _ = w.Write([]byte(`[{"lat":"43.5081","lon":"16.4402","importance":0.8}]`))
				return
			}
			_, _ = w.Write([]byte(`[]`))
		}))
		defer srv.Close()

		resolver := geocode.NewNominatim(geocode.WithEndpoint(srv.URL))

		Convey("Repeated lookups hit the resolver once", func() {
			cache, err := geocode.NewCache(resolver, "")
			So(err, ShouldBeNil)

			first, err := cache.Lookup(ctx, "split")
			So(err, ShouldBeNil)
			second, err := cache.Lookup(ctx, "split")
			So(err, ShouldBeNil)
			So(second, ShouldResemble, first)
			So(calls.Load(), ShouldEqual, 1)
		})

		Convey("Negative results are cached and never retried", func() {
			cache, err := geocode.NewCache(resolver, "")
			So(err, ShouldBeNil)

			fix, err := cache.Lookup(ctx, "nowhere")
			So(err, ShouldBeNil)
			So(fix.Resolved(), ShouldBeFalse)

			_, err = cache.Lookup(ctx, "nowhere")
			So(err, ShouldBeNil)
			So(calls.Load(), ShouldEqual, 1)
		})

		Convey("Concurrent lookups of one query resolve once", func() {
			cache, err := geocode.NewCache(resolver, "")
			So(err, ShouldBeNil)

			var wg sync.WaitGroup
			for j := 0; j < 8; j++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					_, _ = cache.Lookup(ctx, "split")
				}()
			}
			wg.Wait()
			So(calls.Load(), ShouldEqual, 1)
		})

		Convey("A failed resolve surfaces to every concurrent caller", func() {
			blocked := &gatedFailingResolver{
				started: make(chan struct{}),
				gate:    make(chan struct{}),
			}
			cache, err := geocode.NewCache(blocked, "")
			So(err, ShouldBeNil)

			const callers = 8
			errs := make(chan error, callers)
			var wg sync.WaitGroup
			for c := 0; c < callers; c++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					_, err := cache.Lookup(ctx, "split")
					errs <- err
				}()
			}
			// hold the resolve open until the other callers have joined
			// it, then let it fail
			<-blocked.started
			time.Sleep(50 * time.Millisecond)
			close(blocked.gate)
			wg.Wait()
			close(errs)

			for err := range errs {
				So(err, ShouldNotBeNil)
			}
			So(cache.Len(), ShouldEqual, 0)

			// the failed flight is cleared, so the next lookup retries
			before := blocked.calls.Load()
			_, err = cache.Lookup(ctx, "split")
			So(err, ShouldNotBeNil)
			So(blocked.calls.Load(), ShouldEqual, before+1)
		})

		Convey("The cache persists and reloads across instances", func() {
			path := filepath.Join(t.TempDir(), "geo", "cache.json")

			cache, err := geocode.NewCache(resolver, path)
			So(err, ShouldBeNil)
			_, err = cache.Lookup(ctx, "split")
			So(err, ShouldBeNil)
			So(cache.Persist(), ShouldBeNil)

			reloaded, err := geocode.NewCache(resolver, path)
			So(err, ShouldBeNil)
			So(reloaded.Len(), ShouldEqual, 1)

			_, err = reloaded.Lookup(ctx, "split")
			So(err, ShouldBeNil)
			So(calls.Load(), ShouldEqual, 1)
		})
	})
}

// gatedFailingResolver fails every resolve. The first call signals
// started and blocks until gate closes, so a test can keep the flight
// open while other lookups join it.
type gatedFailingResolver struct {
	calls   atomic.Int64
	started chan struct{}
	gate    chan struct{}
}

func (r *gatedFailingResolver) Resolve(_ context.Context, _ string) (model.GeoFix, error) {
	if r.calls.Add(1) == 1 {
		close(r.started)
		<-r.gate
	}
	return model.GeoFix{}, geocode.ErrResolverUnavailable
}

func TestDistanceKm(t *testing.T) {
	Convey("Haversine distance", t, func() {
		split := model.Coordinate{Lat: 43.5081, Lng: 16.4402}
		zagreb := model.Coordinate{Lat: 45.8150, Lng: 15.9819}

		Convey("Zero between identical points", func() {
			So(geocode.DistanceKm(split, split), ShouldAlmostEqual, 0, 1e-9)
		})

		Convey("Split to Zagreb is roughly 259 km", func() {
			d := geocode.DistanceKm(split, zagreb)
			So(d, ShouldBeGreaterThan, 250)
			So(d, ShouldBeLessThan, 270)
		})

		Convey("Symmetric in its arguments", func() {
			So(geocode.DistanceKm(split, zagreb), ShouldAlmostEqual, geocode.DistanceKm(zagreb, split), 1e-9)
		})
	})
}

func TestNormalizeLocality(t *testing.T) {
	Convey("Residence strings normalize to query plus country", t, func() {
		cases := []struct {
			raw     string
			query   string
			country string
		}{
			{"Spinut 12, Split (HR)", "spinut 12, split", "hr"},
			{"  Zagreb ", "zagreb", ""},
			{"Trogir (hr)", "trogir", "hr"},
			{"", "", ""},
		}
		for _, c := range cases {
			query, country := geocode.NormalizeLocality(c.raw)
			So(query, ShouldEqual, c.query)
			So(country, ShouldEqual, c.country)
		}
	})
}
