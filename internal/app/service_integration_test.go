package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	repository "github.com/okian/pitchtag/internal/adapters/repository"
	service "github.com/okian/pitchtag/internal/app"
	"github.com/okian/pitchtag/internal/domain/model"
	"github.com/okian/pitchtag/internal/domain/session"
	. "github.com/smartystreets/goconvey/convey"
)

func strPtr(s string) *string { return &s }

func TestServiceIntegration(t *testing.T) {
	Convey("Given a started service with one session", t, func() {
		svc := service.New()
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		sess, err := svc.CreateSession(ctx)
		So(err, ShouldBeNil)
		id := sess.ID

		Convey("When drawing and committing a possession", func() {
			_, err := svc.AddPoint(ctx, id, model.DrawnPoint{X: 80.123, Y: 50.456})
			So(err, ShouldBeNil)
			_, err = svc.AddLine(ctx, id, model.DrawnLine{Xs: []float64{10, 20}, Ys: []float64{30, 40}, Action: model.ActionCross})
			So(err, ShouldBeNil)
			_, err = svc.AddLine(ctx, id, model.DrawnLine{Xs: []float64{10}, Ys: []float64{30}})
			So(err, ShouldBeNil)
			_, err = svc.UpdateForm(ctx, id, model.FormPatch{HighlightStart: strPtr("12:30"), HomeTeam: strPtr("Ajax"), AwayTeam: strPtr("PSV")})
			So(err, ShouldBeNil)

			res, err := svc.Commit(ctx, id, "")
			So(err, ShouldBeNil)

			Convey("Then lines should come first and the malformed line be dropped", func() {
				So(res.Duplicate, ShouldBeFalse)
				So(res.Batch.Dropped, ShouldEqual, 1)
				So(res.Batch.Rows, ShouldHaveLength, 2)
				So(res.Batch.Rows[0].Action, ShouldEqual, model.ActionCross)
				So(res.Batch.Rows[1].Action, ShouldEqual, model.ActionShot)
				So(res.Batch.Rows[1].XStart, ShouldEqual, 80.12)
				So(res.Batch.Rows[1].YEnd, ShouldEqual, 50.46)
				So(res.Batch.Rows[1].IndexInPossession, ShouldEqual, 1)
				So(res.Batch.Rows[0].PossessionNo, ShouldEqual, 0)
				So(res.Batch.Rows[0].HighlightStart, ShouldEqual, "12:30")
			})

			Convey("Then the session should be ready for the next possession", func() {
				So(res.Session.Possession, ShouldEqual, 1)
				So(res.Session.Points, ShouldBeEmpty)
				So(res.Session.Lines, ShouldBeEmpty)
				So(res.Session.Form.HighlightStart, ShouldEqual, "")
				So(res.Session.Form.HomeTeam, ShouldEqual, "Ajax")

				rows, err := svc.Rows(ctx, id)
				So(err, ShouldBeNil)
				So(rows, ShouldHaveLength, 2)
			})

			Convey("Then the export should carry every row", func() {
				exp, err := svc.Export(ctx, id)
				So(err, ShouldBeNil)
				So(exp.FileName, ShouldEqual, "tagger_data_Ajax_PSV.csv")
				So(exp.Rows, ShouldEqual, 2)
				lines := strings.Split(strings.TrimSpace(string(exp.Data)), "\n")
				So(lines, ShouldHaveLength, 3)
				So(lines[0], ShouldStartWith, ",action,xStart")
				So(lines[2], ShouldStartWith, "1,shot,80.12,80.12,50.46,50.46,Home,0,1,12:30")
			})

			Convey("And when clearing", func() {
				cleared, err := svc.Clear(ctx, id)
				So(err, ShouldBeNil)

				Convey("Then the table should be empty and the counter restarted", func() {
					So(cleared.Rows, ShouldBeEmpty)
					So(cleared.Possession, ShouldEqual, 0)
					exp, err := svc.Export(ctx, id)
					So(err, ShouldBeNil)
					So(exp.Data, ShouldBeEmpty)
				})
			})
		})

		Convey("When attacking right to left", func() {
			_, err := svc.UpdateForm(ctx, id, model.FormPatch{Direction: strPtr("right to left")})
			So(err, ShouldBeNil)
			_, err = svc.AddPoint(ctx, id, model.DrawnPoint{X: 80.123, Y: 50.456})
			So(err, ShouldBeNil)
			res, err := svc.Commit(ctx, id, "")
			So(err, ShouldBeNil)

			Convey("Then coordinates should be mirrored", func() {
				So(res.Batch.Mirrored, ShouldBeTrue)
				So(res.Batch.Rows[0].XStart, ShouldEqual, 19.88)
				So(res.Batch.Rows[0].YStart, ShouldEqual, 49.54)
			})
		})

		Convey("When a commit is retried with the same idempotency key", func() {
			_, _ = svc.AddPoint(ctx, id, model.DrawnPoint{X: 1, Y: 2})
			first, err := svc.Commit(ctx, id, "k1")
			So(err, ShouldBeNil)
			second, err := svc.Commit(ctx, id, "k1")
			So(err, ShouldBeNil)

			Convey("Then only the first should be applied", func() {
				So(first.Duplicate, ShouldBeFalse)
				So(second.Duplicate, ShouldBeTrue)
				So(second.Session.Possession, ShouldEqual, 1)
				So(second.Session.Rows, ShouldHaveLength, 1)
			})

			Convey("Then the same key on another session should still apply", func() {
				other, _ := svc.CreateSession(ctx)
				res, err := svc.Commit(ctx, other.ID, "k1")
				So(err, ShouldBeNil)
				So(res.Duplicate, ShouldBeFalse)
			})
		})

		Convey("When a keyed commit fails", func() {
			_, err := svc.Commit(ctx, "missing", "k2")
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)

			Convey("Then the key should be released for a retry", func() {
				So(svc.GetStats()["commitKeys"], ShouldEqual, int64(0))
			})
		})

		Convey("When driving the possession counter", func() {
			s, _ := svc.IncrementPossession(ctx, id)
			So(s.Possession, ShouldEqual, 1)
			s, _ = svc.IncrementPossession(ctx, id)
			So(s.Possession, ShouldEqual, 2)
			s, _ = svc.ResetPossession(ctx, id)
			So(s.Possession, ShouldEqual, 1)
			s, _ = svc.SetPossession(ctx, id, 7)
			So(s.Possession, ShouldEqual, 7)

			Convey("Then a negative value should be refused", func() {
				_, err := svc.SetPossession(ctx, id, -1)
				So(errors.Is(err, session.ErrNegativePossession), ShouldBeTrue)
				got, _ := svc.Session(ctx, id)
				So(got.Possession, ShouldEqual, 7)
			})
		})

		Convey("When an invalid form value is patched", func() {
			_, err := svc.UpdateForm(ctx, id, model.FormPatch{ShotOutcome: strPtr("Maybe")})

			Convey("Then it should be rejected", func() {
				So(errors.Is(err, model.ErrInvalidOption), ShouldBeTrue)
				got, _ := svc.Session(ctx, id)
				So(got.Form.ShotOutcome, ShouldEqual, "No Goal")
			})
		})

		Convey("When the drawings are discarded", func() {
			_, _ = svc.AddPoint(ctx, id, model.DrawnPoint{X: 1, Y: 2})
			s, err := svc.ClearDrawings(ctx, id)
			So(err, ShouldBeNil)

			Convey("Then a commit should produce no rows but still advance", func() {
				So(s.Points, ShouldBeEmpty)
				res, err := svc.Commit(ctx, id, "")
				So(err, ShouldBeNil)
				So(res.Batch.Rows, ShouldBeEmpty)
				So(res.Session.Possession, ShouldEqual, 1)
			})
		})

		Convey("When the session is deleted", func() {
			So(svc.DeleteSession(ctx, id), ShouldBeNil)

			Convey("Then it should be gone", func() {
				_, err := svc.Session(ctx, id)
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})
		})
	})
}
