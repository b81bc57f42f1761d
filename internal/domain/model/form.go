package model

import (
	"fmt"
	"strings"
)

// Option lists offered by the tagging form. The first entry of each list is
// not necessarily the default; see DefaultForm.
var (
	Teams          = []string{"Home", "Away"}
	BodyParts      = []string{"Foot", "Head"}
	Placements     = []string{"Off Target", "On Target", "Blocked"}
	Outcomes       = []string{"Goal", "No Goal", "Own Goal"}
	GameSituations = []string{"Open play", "Free kick", "Corner", "Throw-in", "Penalty"}
	Directions     = []string{DirectionLeftToRight, DirectionRightToLeft}
)

// Attacking directions of the home team.
const (
	DirectionLeftToRight = "Left to Right"
	DirectionRightToLeft = "Right to Left"
)

// Form holds the metadata stamped onto every row of a commit.
type Form struct {
	Team           string `json:"team"`
	ShotBodyPart   string `json:"shotBodyPart"`
	ShotPlacement  string `json:"shotPlacement"`
	ShotOutcome    string `json:"shotOutcome"`
	GameSituation  string `json:"gameSituation"`
	Direction      string `json:"attackingDirection"`
	HighlightStart string `json:"highlightStart"`
	URL            string `json:"url"`
	HomeTeam       string `json:"homeTeam"`
	AwayTeam       string `json:"awayTeam"`
}

// DefaultForm returns the form as it looks when a session opens.
func DefaultForm() Form {
	return Form{
		Team:          "Home",
		ShotBodyPart:  "Foot",
		ShotPlacement: "Off Target",
		ShotOutcome:   "No Goal",
		GameSituation: "Open play",
		Direction:     DirectionLeftToRight,
	}
}

// Mirrored reports whether coordinates must be flipped for this form.
func (f Form) Mirrored() bool {
	return strings.EqualFold(strings.TrimSpace(f.Direction), DirectionRightToLeft)
}

// FormPatch carries a partial form update; nil fields are left untouched.
type FormPatch struct {
	Team           *string `json:"team,omitempty"`
	ShotBodyPart   *string `json:"shotBodyPart,omitempty"`
	ShotPlacement  *string `json:"shotPlacement,omitempty"`
	ShotOutcome    *string `json:"shotOutcome,omitempty"`
	GameSituation  *string `json:"gameSituation,omitempty"`
	Direction      *string `json:"attackingDirection,omitempty"`
	HighlightStart *string `json:"highlightStart,omitempty"`
	URL            *string `json:"url,omitempty"`
	HomeTeam       *string `json:"homeTeam,omitempty"`
	AwayTeam       *string `json:"awayTeam,omitempty"`
}

// Apply validates the patch and returns f with the patch merged in. Selector
// values are matched case-insensitively and stored in their canonical
// spelling. f is returned unchanged on error.
func (p FormPatch) Apply(f Form) (Form, error) {
	out := f
	selectors := []struct {
		name    string
		val     *string
		options []string
		dst     *string
	}{
		{"team", p.Team, Teams, &out.Team},
		{"shotBodyPart", p.ShotBodyPart, BodyParts, &out.ShotBodyPart},
		{"shotPlacement", p.ShotPlacement, Placements, &out.ShotPlacement},
		{"shotOutcome", p.ShotOutcome, Outcomes, &out.ShotOutcome},
		{"gameSituation", p.GameSituation, GameSituations, &out.GameSituation},
		{"attackingDirection", p.Direction, Directions, &out.Direction},
	}
	for _, s := range selectors {
		if s.val == nil {
			continue
		}
		v, err := Canonical(s.name, *s.val, s.options)
		if err != nil {
			return f, err
		}
		*s.dst = v
	}

	texts := []struct {
		val *string
		dst *string
	}{
		{p.HighlightStart, &out.HighlightStart},
		{p.URL, &out.URL},
		{p.HomeTeam, &out.HomeTeam},
		{p.AwayTeam, &out.AwayTeam},
	}
	for _, t := range texts {
		if t.val != nil {
			*t.dst = strings.TrimSpace(*t.val)
		}
	}
	return out, nil
}

// Canonical returns the option matching v case-insensitively.
func Canonical(field, v string, options []string) (string, error) {
	v = strings.TrimSpace(v)
	for _, o := range options {
		if strings.EqualFold(o, v) {
			return o, nil
		}
	}
	return "", fmt.Errorf("%w: %s must be one of %s, got %q",
		ErrInvalidOption, field, strings.Join(options, ", "), v)
}
