package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	service "github.com/okian/pitchtag/internal/app"
	"github.com/okian/pitchtag/internal/domain/session"
	"github.com/okian/pitchtag/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
	_ = logger.SetLevelString("warn")
}

func TestService_New(t *testing.T) {
	Convey("Given a new service with default options", t, func() {
		svc := service.New()

		Convey("Then it should have sensible defaults", func() {
			So(svc, ShouldNotBeNil)
			stats := svc.GetStats()
			So(stats["started"], ShouldEqual, false)
			So(stats["possessionStart"], ShouldEqual, 0)
			So(stats["possessionReset"], ShouldEqual, 1)
		})
	})

	Convey("Given a new service with custom options", t, func() {
		svc := service.New(
			service.WithCounter(session.Counter{Start: 1, Reset: 1}),
			service.WithMaxSessions(10),
			service.WithSessionTTL(time.Hour, time.Minute),
			service.WithCommitKeyCacheSize(500),
			service.WithPitchSize(420, 272),
		)

		Convey("Then the options should be reflected in stats", func() {
			stats := svc.GetStats()
			So(stats["possessionStart"], ShouldEqual, 1)
			So(stats["maxSessions"], ShouldEqual, 10)
			So(stats["dedupeSize"], ShouldEqual, 500)
			So(stats["sessionTTL"], ShouldEqual, "1h0m0s")
		})

		Convey("Then the pitch should use the configured canvas", func() {
			d := svc.Pitch(0, 0, true)
			So(d.Width, ShouldEqual, 420)
			So(d.Height, ShouldEqual, 272)
			So(svc.Pitch(100, 50, false).Arcs, ShouldBeEmpty)
		})
	})
}

func TestService_Lifecycle(t *testing.T) {
	Convey("Given a new service", t, func() {
		svc := service.New()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		Convey("When used before Start", func() {
			_, err := svc.CreateSession(ctx)

			Convey("Then it should refuse", func() {
				So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
			})
		})

		Convey("When starting the service", func() {
			So(svc.Start(ctx), ShouldBeNil)
			So(svc.Start(ctx), ShouldBeNil)

			Convey("Then it should be marked as started", func() {
				stats := svc.GetStats()
				So(stats["started"], ShouldEqual, true)
				So(stats["activeSessions"], ShouldEqual, 0)
			})

			Convey("And when stopping it", func() {
				svc.Stop()
				svc.Stop()

				Convey("Then it should be marked as stopped", func() {
					So(svc.GetStats()["started"], ShouldEqual, false)
				})
			})
		})
	})
}

func TestService_Capacity(t *testing.T) {
	Convey("Given a service capped at one session", t, func() {
		svc := service.New(service.WithMaxSessions(1))
		ctx := context.Background()
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		_, err := svc.CreateSession(ctx)
		So(err, ShouldBeNil)

		Convey("Then a second session should be rejected", func() {
			_, err := svc.CreateSession(ctx)
			So(err, ShouldNotBeNil)
		})
	})
}
