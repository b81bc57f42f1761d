// Package pitch computes the static diagram of a regulation pitch in
// normalized [0,100]x[0,100] coordinates.
package pitch

import "math"

// Real-world measurements scaled to the normalized pitch.
const (
	GoalPostOffset      = 4.8  // goal centre to post
	SixYardBoxLength    = 5.8  // goal line to edge of the six-yard box
	SixYardBoxHalfWidth = 13.2 // goal centre to the side of the six-yard box
	PenaltyBoxLength    = 17.0
	PenaltyBoxWidth     = 57.8
	PenaltySpotDistance = 11.5
	CircleRadius        = 8.71

	DefaultWidth  = 105 * 8
	DefaultHeight = 68 * 8

	spotSize      = 5
	lineWidth     = 2
	goalLineWidth = 6
)

// Quad is an axis-aligned rectangle.
type Quad struct {
	Left      float64 `json:"left"`
	Right     float64 `json:"right"`
	Bottom    float64 `json:"bottom"`
	Top       float64 `json:"top"`
	FillAlpha float64 `json:"fillAlpha"`
}

// Circle is an outlined circle with a radius in x units.
type Circle struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Radius float64 `json:"radius"`
}

// Arc is drawn anticlockwise from Start to End (radians).
type Arc struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Radius float64 `json:"radius"`
	Start  float64 `json:"startAngle"`
	End    float64 `json:"endAngle"`
}

// Spot is a filled marker sized in screen pixels.
type Spot struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Size float64 `json:"size"`
}

// Segment is a straight line between two points.
type Segment struct {
	X0    float64 `json:"x0"`
	Y0    float64 `json:"y0"`
	X1    float64 `json:"x1"`
	Y1    float64 `json:"y1"`
	Width float64 `json:"width"`
	Color string  `json:"color"`
}

// Range is an inclusive axis extent.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Style is the cosmetic part of the diagram.
type Style struct {
	FillColor     string  `json:"fillColor"`
	FillAlpha     float64 `json:"fillAlpha"`
	LineColor     string  `json:"lineColor"`
	GoalLineColor string  `json:"goalLineColor"`
	LineAlpha     float64 `json:"lineAlpha"`
	LineWidth     float64 `json:"lineWidth"`
}

// Diagram is everything needed to draw the pitch.
type Diagram struct {
	Width    int       `json:"width"`
	Height   int       `json:"height"`
	XRange   Range     `json:"xRange"`
	YRange   Range     `json:"yRange"`
	Style    Style     `json:"style"`
	Boxes    []Quad    `json:"boxes"`
	Circles  []Circle  `json:"circles"`
	Arcs     []Arc     `json:"arcs"`
	Spots    []Spot    `json:"spots"`
	Segments []Segment `json:"segments"`
}

type options struct {
	width, height int
	hpad, vpad    float64
	arcs          bool
	style         Style
}

// Option customizes the diagram.
type Option func(*options)

// WithSize sets the canvas size in pixels. Non-positive values keep the default.
func WithSize(width, height int) Option {
	return func(o *options) {
		if width > 0 {
			o.width = width
		}
		if height > 0 {
			o.height = height
		}
	}
}

// WithPadding sets the margin added around the pitch on each axis.
func WithPadding(hpad, vpad float64) Option {
	return func(o *options) {
		if hpad >= 0 {
			o.hpad = hpad
		}
		if vpad >= 0 {
			o.vpad = vpad
		}
	}
}

// WithArcs toggles the penalty arcs.
func WithArcs(enabled bool) Option {
	return func(o *options) { o.arcs = enabled }
}

// WithStyle replaces the cosmetic styling.
func WithStyle(s Style) Option {
	return func(o *options) { o.style = s }
}

// DefaultStyle is a translucent white pitch with grey lines.
func DefaultStyle() Style {
	return Style{
		FillColor:     "#FFFFFF",
		FillAlpha:     0.5,
		LineColor:     "grey",
		GoalLineColor: "#969696",
		LineAlpha:     1,
		LineWidth:     lineWidth,
	}
}

// Build returns the pitch diagram. Geometry never depends on the canvas size.
func Build(opts ...Option) Diagram {
	o := options{
		width:  DefaultWidth,
		height: DefaultHeight,
		hpad:   0.25,
		vpad:   0.25,
		arcs:   true,
		style:  DefaultStyle(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	const (
		lo, hi = 0.0, 100.0
		mid    = (lo + hi) / 2
	)

	d := Diagram{
		Width:  o.width,
		Height: o.height,
		XRange: Range{Min: lo - o.hpad, Max: hi + o.hpad},
		YRange: Range{Min: lo - o.vpad, Max: hi + o.vpad},
		Style:  o.style,
		Boxes: []Quad{
			{Left: lo, Right: hi, Bottom: lo, Top: hi, FillAlpha: o.style.FillAlpha},
			{Left: hi - SixYardBoxLength, Right: hi, Bottom: mid - SixYardBoxHalfWidth, Top: mid + SixYardBoxHalfWidth},
			{Left: hi - PenaltyBoxLength, Right: hi, Bottom: mid - PenaltyBoxWidth/2, Top: mid + PenaltyBoxWidth/2},
			{Left: lo, Right: lo + PenaltyBoxLength, Bottom: mid - PenaltyBoxWidth/2, Top: mid + PenaltyBoxWidth/2},
			{Left: lo, Right: lo + SixYardBoxLength, Bottom: mid - SixYardBoxHalfWidth, Top: mid + SixYardBoxHalfWidth},
		},
		Circles: []Circle{{X: mid, Y: mid, Radius: CircleRadius}},
		Spots: []Spot{
			{X: mid, Y: mid, Size: spotSize},
			{X: hi - PenaltySpotDistance, Y: mid, Size: spotSize},
			{X: lo + PenaltySpotDistance, Y: mid, Size: spotSize},
		},
		Segments: []Segment{
			{X0: mid, Y0: lo, X1: mid, Y1: hi, Width: lineWidth, Color: o.style.LineColor},
			{X0: hi, Y0: mid + GoalPostOffset, X1: hi, Y1: mid - GoalPostOffset, Width: goalLineWidth, Color: o.style.GoalLineColor},
			{X0: lo, Y0: mid + GoalPostOffset, X1: lo, Y1: mid - GoalPostOffset, Width: goalLineWidth, Color: o.style.GoalLineColor},
		},
	}

	if o.arcs {
		// angle at which the arc meets the edge of the penalty box
		a := ArcAngle()
		d.Arcs = []Arc{
			{X: lo + PenaltySpotDistance, Y: mid, Radius: CircleRadius, Start: 2*math.Pi - a, End: a},
			{X: hi - PenaltySpotDistance, Y: mid, Radius: CircleRadius, Start: math.Pi - a, End: math.Pi + a},
		}
	}
	return d
}

// ArcAngle is the half-angle of the penalty arc visible outside the box.
func ArcAngle() float64 {
	return math.Acos((PenaltyBoxLength - PenaltySpotDistance) / CircleRadius)
}
