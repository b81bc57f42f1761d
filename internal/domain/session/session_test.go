package session_test

import (
	"errors"
	"testing"
	"time"

	"github.com/okian/pitchtag/internal/domain/model"
	"github.com/okian/pitchtag/internal/domain/session"
	. "github.com/smartystreets/goconvey/convey"
)

func ptr(s string) *string { return &s }

func TestSessionLifecycle(t *testing.T) {
	now := time.Date(2026, 5, 1, 15, 0, 0, 0, time.UTC)

	Convey("Given a fresh session", t, func() {
		s := session.New("s1", session.DefaultCounter(), now)

		Convey("Then it should start empty with the counter at zero", func() {
			So(s.Points, ShouldBeEmpty)
			So(s.Lines, ShouldBeEmpty)
			So(s.Rows, ShouldBeEmpty)
			So(s.Possession, ShouldEqual, 0)
			So(s.Form, ShouldResemble, model.DefaultForm())
		})

		Convey("When drawing shapes without an action", func() {
			s2 := s.AddPoint(model.DrawnPoint{X: 10, Y: 20}).
				AddLine(model.DrawnLine{Xs: []float64{1, 2}, Ys: []float64{3, 4}})

			Convey("Then the tool defaults should be applied", func() {
				So(s2.Points[0].Action, ShouldEqual, model.ActionShot)
				So(s2.Lines[0].Action, ShouldEqual, model.ActionPass)
			})

			Convey("And the original session should be untouched", func() {
				So(s.Points, ShouldBeEmpty)
				So(s.Lines, ShouldBeEmpty)
			})
		})

		Convey("When committing a possession", func() {
			s, _ = s.UpdateForm(model.FormPatch{HighlightStart: ptr("01:02"), HomeTeam: ptr("Ajax")})
			s = s.AddPoint(model.DrawnPoint{X: 80.123, Y: 50.456, Action: model.ActionShot}).
				AddLine(model.DrawnLine{Xs: []float64{10, 30}, Ys: []float64{40, 50}, Action: model.ActionPass}).
				AddLine(model.DrawnLine{Xs: []float64{30}, Ys: []float64{50}, Action: model.ActionCross})

			committed, batch := s.Commit()

			Convey("Then rows should be appended with the pre-commit possession number", func() {
				So(batch.Rows, ShouldHaveLength, 2)
				So(batch.Dropped, ShouldEqual, 1)
				So(committed.Rows, ShouldHaveLength, 2)
				for _, r := range committed.Rows {
					So(r.PossessionNo, ShouldEqual, 0)
					So(r.HighlightStart, ShouldEqual, "01:02")
					So(r.HomeTeam, ShouldEqual, "Ajax")
				}
			})

			Convey("And surfaces, counter and highlight should advance", func() {
				So(committed.Points, ShouldBeEmpty)
				So(committed.Lines, ShouldBeEmpty)
				So(committed.Possession, ShouldEqual, 1)
				So(committed.Form.HighlightStart, ShouldEqual, "")
				So(committed.Form.HomeTeam, ShouldEqual, "Ajax")
			})

			Convey("And a second commit should append after the first", func() {
				again, b2 := committed.AddPoint(model.DrawnPoint{X: 1, Y: 1, Action: model.ActionDuel}).Commit()
				So(b2.Rows, ShouldHaveLength, 1)
				So(again.Rows, ShouldHaveLength, 3)
				So(again.Rows[2].PossessionNo, ShouldEqual, 1)
				So(again.Rows[2].IndexInPossession, ShouldEqual, 0)
				So(again.Possession, ShouldEqual, 2)
				So(committed.Rows, ShouldHaveLength, 2)
			})
		})

		Convey("When committing with nothing drawn", func() {
			committed, batch := s.Commit()

			Convey("Then no rows should be added but the counter should still advance", func() {
				So(batch.Rows, ShouldBeEmpty)
				So(committed.Rows, ShouldBeEmpty)
				So(committed.Possession, ShouldEqual, 1)
			})
		})
	})
}

func TestPossessionControls(t *testing.T) {
	now := time.Now()

	Convey("Given a session with a custom counter", t, func() {
		s := session.New("s1", session.Counter{Start: 5, Reset: 10}, now)

		Convey("Then it should open at the start value", func() {
			So(s.Possession, ShouldEqual, 5)
		})

		Convey("When incrementing twice", func() {
			s = s.IncrementPossession().IncrementPossession()
			So(s.Possession, ShouldEqual, 7)

			Convey("And resetting", func() {
				s = s.ResetPossession()

				Convey("Then the counter should hold the restart value", func() {
					So(s.Possession, ShouldEqual, 10)
				})
			})
		})

		Convey("When setting the counter explicitly", func() {
			s2, err := s.SetPossession(42)
			So(err, ShouldBeNil)
			So(s2.Possession, ShouldEqual, 42)

			_, err = s.SetPossession(-1)
			So(errors.Is(err, session.ErrNegativePossession), ShouldBeTrue)
		})
	})
}

func TestClear(t *testing.T) {
	Convey("Given a session with committed rows and a pending drawing", t, func() {
		s := session.New("s1", session.DefaultCounter(), time.Now())
		s, _ = s.AddPoint(model.DrawnPoint{X: 1, Y: 2}).Commit()
		s, _ = s.AddPoint(model.DrawnPoint{X: 3, Y: 4}).Commit()
		s = s.ResetPossession().IncrementPossession()
		s = s.AddPoint(model.DrawnPoint{X: 5, Y: 6})

		Convey("When clearing the data", func() {
			cleared := s.Clear()

			Convey("Then the table should be empty and the counter back at its start", func() {
				So(cleared.Rows, ShouldBeEmpty)
				So(cleared.Possession, ShouldEqual, session.DefaultPossessionStart)
			})

			Convey("And the drawing surface should be untouched", func() {
				So(cleared.Points, ShouldHaveLength, 1)
			})
		})

		Convey("When clearing only the drawings", func() {
			cleared := s.ClearDrawings()

			Convey("Then the rows should survive", func() {
				So(cleared.Points, ShouldBeEmpty)
				So(cleared.Rows, ShouldHaveLength, 2)
			})
		})
	})
}

func TestUpdateForm(t *testing.T) {
	Convey("Given a session", t, func() {
		s := session.New("s1", session.DefaultCounter(), time.Now())

		Convey("When the patch is invalid", func() {
			s2, err := s.UpdateForm(model.FormPatch{GameSituation: ptr("Kick-off")})

			Convey("Then the session should be returned unchanged", func() {
				So(errors.Is(err, model.ErrInvalidOption), ShouldBeTrue)
				So(s2.Form, ShouldResemble, s.Form)
			})
		})

		Convey("When flipping the attacking direction before a commit", func() {
			s2, err := s.UpdateForm(model.FormPatch{Direction: ptr("Right to Left")})
			So(err, ShouldBeNil)
			committed, b := s2.AddPoint(model.DrawnPoint{X: 80.123, Y: 50.456}).Commit()

			Convey("Then the committed coordinates should be mirrored", func() {
				So(b.Mirrored, ShouldBeTrue)
				So(committed.Rows[0].XStart, ShouldEqual, 19.88)
				So(committed.Rows[0].YEnd, ShouldEqual, 49.54)
			})
		})
	})
}
