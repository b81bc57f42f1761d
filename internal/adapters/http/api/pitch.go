package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/okian/pitchtag/internal/domain/pitch"
)

// PitchDependencies builds the pitch diagram.
type PitchDependencies interface {
	Pitch(width, height int, arcs bool) pitch.Diagram
}

// PitchHandler serves the pitch geometry.
type PitchHandler struct {
	deps PitchDependencies
}

// NewPitchHandler creates a new pitch handler.
func NewPitchHandler(deps PitchDependencies) *PitchHandler {
	return &PitchHandler{deps: deps}
}

// HandleGetPitch handles GET /pitch?width=&height=&arcs= requests. Missing
// sizes use the configured canvas; arcs default to on.
func (h *PitchHandler) HandleGetPitch(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_pitch"
	q := r.URL.Query()

	width, err := queryInt(q.Get("width"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, errors.New("width must be a positive integer")))
		return
	}
	height, err := queryInt(q.Get("height"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, errors.New("height must be a positive integer")))
		return
	}
	arcs := true
	if v := q.Get("arcs"); v != "" {
		arcs, err = strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, errors.New("arcs must be a boolean")))
			return
		}
	}

	writeJSON(w, http.StatusOK, h.deps.Pitch(width, height, arcs))
}

// queryInt parses an optional positive integer; empty means 0.
func queryInt(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, err
	}
	if n < 1 {
		return 0, strconv.ErrRange
	}
	return n, nil
}
