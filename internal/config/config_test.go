package config_test

import (
	"runtime"
	"testing"

	"github.com/ivasko/courtline/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.ChurnWindowDays, convey.ShouldEqual, 14)
			convey.So(cfg.ParticipationThreshold, convey.ShouldEqual, 3)
			convey.So(cfg.GenderConfidenceMin, convey.ShouldEqual, 0.6)
			convey.So(cfg.GeocodeTimeoutMS, convey.ShouldEqual, 5000)
			convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU()*2)
			convey.So(cfg.QueueSize, convey.ShouldEqual, 10_000)
			convey.So(cfg.ShardCount, convey.ShouldEqual, 8)
			convey.So(cfg.Addr, convey.ShouldEqual, "")
		})

		convey.Convey("Then the venue coordinate should have no default", func() {
			convey.So(cfg.VenueLat, convey.ShouldBeNil)
			convey.So(cfg.VenueLng, convey.ShouldBeNil)
		})
	})
}
