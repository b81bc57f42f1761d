// Package model contains domain models passed between layers.
package model

// Actions emitted by the drawing tools. Action strings are free-form; these are
// the values the stock tools produce.
const (
	ActionShot  = "shot"
	ActionDuel  = "duel"
	ActionPass  = "pass"
	ActionCarry = "dribble"
	ActionCross = "cross"
)

// DrawnPoint is a dot action (shot, duel) in pitch coordinates [0,100].
type DrawnPoint struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Action string  `json:"action"`
}

// DrawnLine is a line action (pass, carry, cross). Only lines with exactly two
// xs and two ys are committed.
type DrawnLine struct {
	Xs     []float64 `json:"xs"`
	Ys     []float64 `json:"ys"`
	Action string    `json:"action"`
}

// Valid reports whether the line has exactly one start and one end point.
func (l DrawnLine) Valid() bool {
	return len(l.Xs) == 2 && len(l.Ys) == 2
}

// OutputRow is one committed shape. Dot actions have XStart == XEnd and
// YStart == YEnd.
type OutputRow struct {
	Action            string  `json:"action"`
	XStart            float64 `json:"xStart"`
	XEnd              float64 `json:"xEnd"`
	YStart            float64 `json:"yStart"`
	YEnd              float64 `json:"yEnd"`
	Team              string  `json:"team"`
	PossessionNo      int     `json:"possessionNo"`
	IndexInPossession int     `json:"indexInPossession"`
	HighlightStart    string  `json:"highlightStart"`
	ShotOutcome       string  `json:"shotOutcome"`
	ShotBodyPart      string  `json:"shotBodyPart"`
	ShotPlacement     string  `json:"shotPlacement"`
	HomeTeam          string  `json:"homeTeam"`
	AwayTeam          string  `json:"awayTeam"`
	GameSituation     string  `json:"gameSituation"`
	URL               string  `json:"url"`
}

// Columns lists the OutputRow fields in export order.
var Columns = []string{
	"action", "xStart", "xEnd", "yStart", "yEnd", "team", "possessionNo",
	"indexInPossession", "highlightStart", "shotOutcome", "shotBodyPart",
	"shotPlacement", "homeTeam", "awayTeam", "gameSituation", "url",
}
