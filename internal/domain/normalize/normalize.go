// Package normalize turns drawn shapes plus form state into output rows.
package normalize

import (
	"strconv"

	"github.com/okian/pitchtag/internal/domain/model"
)

// PitchSpan is the length of each pitch axis in normalized units.
const PitchSpan = 100.0

// Batch is the result of normalizing one commit.
type Batch struct {
	Rows     []model.OutputRow
	Dropped  int  // lines rejected for not having exactly two points
	Mirrored bool // coordinates were flipped for right-to-left attack
}

// Normalize builds the rows for one commit. Line actions come first, then dot
// actions, each in drawing order; indexInPossession follows that order.
// Malformed lines are skipped and counted, never reported as errors.
func Normalize(points []model.DrawnPoint, lines []model.DrawnLine, form model.Form, possessionNo int) Batch {
	b := Batch{
		Rows:     make([]model.OutputRow, 0, len(points)+len(lines)),
		Mirrored: form.Mirrored(),
	}

	for _, l := range lines {
		if !l.Valid() {
			b.Dropped++
			continue
		}
		b.Rows = append(b.Rows, model.OutputRow{
			Action: l.Action,
			XStart: Round2(l.Xs[0]),
			XEnd:   Round2(l.Xs[1]),
			YStart: Round2(l.Ys[0]),
			YEnd:   Round2(l.Ys[1]),
		})
	}
	for _, p := range points {
		x, y := Round2(p.X), Round2(p.Y)
		b.Rows = append(b.Rows, model.OutputRow{
			Action: p.Action,
			XStart: x,
			XEnd:   x,
			YStart: y,
			YEnd:   y,
		})
	}

	for i := range b.Rows {
		r := &b.Rows[i]
		r.Team = form.Team
		r.PossessionNo = possessionNo
		r.IndexInPossession = i
		r.HighlightStart = form.HighlightStart
		r.ShotOutcome = form.ShotOutcome
		r.ShotBodyPart = form.ShotBodyPart
		r.ShotPlacement = form.ShotPlacement
		r.HomeTeam = form.HomeTeam
		r.AwayTeam = form.AwayTeam
		r.GameSituation = form.GameSituation
		r.URL = form.URL
		if b.Mirrored {
			r.XStart = Mirror(r.XStart)
			r.XEnd = Mirror(r.XEnd)
			r.YStart = Mirror(r.YStart)
			r.YEnd = Mirror(r.YEnd)
		}
	}
	return b
}

// Round2 rounds v to two decimal places using the shortest correctly rounded
// decimal representation, so 50.456 becomes 50.46 and 2.675 (stored as
// 2.67499...) becomes 2.67.
func Round2(v float64) float64 {
	r, err := strconv.ParseFloat(strconv.FormatFloat(v, 'f', 2, 64), 64)
	if err != nil {
		// NaN and Inf format to strings ParseFloat accepts; unreachable.
		return v
	}
	return r
}

// Mirror flips a coordinate across the pitch centre and rounds the result.
func Mirror(v float64) float64 {
	return Round2(PitchSpan - v)
}
