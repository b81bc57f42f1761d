// Package session holds the state of one tagging session and the handlers that
// advance it. Handlers take a Session and an event payload and return the
// updated Session; the input value is never modified.
package session

import (
	"slices"
	"time"

	"github.com/okian/pitchtag/internal/domain/model"
	"github.com/okian/pitchtag/internal/domain/normalize"
)

// Possession counter values used by the stock tool.
const (
	DefaultPossessionStart = 0
	DefaultPossessionReset = 1
)

// Counter describes how the possession counter starts and restarts.
type Counter struct {
	Start int // value of a fresh session and after Clear
	Reset int // value after a manual reset
}

// DefaultCounter returns the stock counter values.
func DefaultCounter() Counter {
	return Counter{Start: DefaultPossessionStart, Reset: DefaultPossessionReset}
}

// Session is one user's drawing surfaces, form, possession counter and output
// table.
type Session struct {
	ID         string
	Points     []model.DrawnPoint
	Lines      []model.DrawnLine
	Form       model.Form
	Possession int
	Rows       []model.OutputRow
	Counter    Counter
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// New opens a session with empty surfaces, the default form and the counter at
// its start value.
func New(id string, counter Counter, now time.Time) Session {
	return Session{
		ID:         id,
		Points:     []model.DrawnPoint{},
		Lines:      []model.DrawnLine{},
		Form:       model.DefaultForm(),
		Possession: counter.Start,
		Rows:       []model.OutputRow{},
		Counter:    counter,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// clone returns a copy that shares no slices with s.
func (s Session) clone() Session {
	out := s
	out.Points = slices.Clone(s.Points)
	out.Lines = make([]model.DrawnLine, len(s.Lines))
	for i, l := range s.Lines {
		out.Lines[i] = model.DrawnLine{Xs: slices.Clone(l.Xs), Ys: slices.Clone(l.Ys), Action: l.Action}
	}
	out.Rows = slices.Clone(s.Rows)
	return out
}

// Clone returns a deep copy safe to hand to another goroutine.
func (s Session) Clone() Session { return s.clone() }

// Touch stamps the session as updated at now.
func (s Session) Touch(now time.Time) Session {
	s.UpdatedAt = now
	return s
}

// AddPoint places a dot action on the pitch. An empty action is a shot.
func (s Session) AddPoint(p model.DrawnPoint) Session {
	out := s.clone()
	if p.Action == "" {
		p.Action = model.ActionShot
	}
	out.Points = append(out.Points, p)
	return out
}

// AddLine draws a line action. An empty action is a pass. Lines of any length
// are kept on the surface; only two-point lines survive a commit.
func (s Session) AddLine(l model.DrawnLine) Session {
	out := s.clone()
	if l.Action == "" {
		l.Action = model.ActionPass
	}
	out.Lines = append(out.Lines, model.DrawnLine{Xs: slices.Clone(l.Xs), Ys: slices.Clone(l.Ys), Action: l.Action})
	return out
}

// ClearDrawings empties both drawing surfaces without committing.
func (s Session) ClearDrawings() Session {
	out := s.clone()
	out.Points = []model.DrawnPoint{}
	out.Lines = []model.DrawnLine{}
	return out
}

// UpdateForm merges a form patch. On error s is returned unchanged.
func (s Session) UpdateForm(p model.FormPatch) (Session, error) {
	f, err := p.Apply(s.Form)
	if err != nil {
		return s, err
	}
	out := s.clone()
	out.Form = f
	return out, nil
}

// IncrementPossession advances the counter without committing.
func (s Session) IncrementPossession() Session {
	out := s.clone()
	out.Possession++
	return out
}

// ResetPossession sets the counter to its restart value.
func (s Session) ResetPossession() Session {
	out := s.clone()
	out.Possession = s.Counter.Reset
	return out
}

// SetPossession sets the counter to n, as when the counter field is edited.
func (s Session) SetPossession(n int) (Session, error) {
	if n < 0 {
		return s, ErrNegativePossession
	}
	out := s.clone()
	out.Possession = n
	return out, nil
}

// Commit normalizes the drawn shapes into rows stamped with the current
// possession number, appends them to the table, empties both surfaces,
// advances the possession counter and clears the highlight timestamp.
func (s Session) Commit() (Session, normalize.Batch) {
	b := normalize.Normalize(s.Points, s.Lines, s.Form, s.Possession)

	out := s.clone()
	out.Rows = append(out.Rows, b.Rows...)
	out.Points = []model.DrawnPoint{}
	out.Lines = []model.DrawnLine{}
	out.Possession++
	out.Form.HighlightStart = ""
	return out, b
}

// Clear empties the output table and returns the counter to its start value.
// Drawing surfaces and form are left alone.
func (s Session) Clear() Session {
	out := s.clone()
	out.Rows = []model.OutputRow{}
	out.Possession = s.Counter.Start
	return out
}
