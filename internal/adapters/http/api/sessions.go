package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/okian/pitchtag/internal/domain/model"
	"github.com/okian/pitchtag/internal/domain/session"
)

// idempotencyHeader carries the client's commit key.
const idempotencyHeader = "Idempotency-Key"

// SessionDependencies defines the session operations behind the API.
type SessionDependencies interface {
	CreateSession(ctx context.Context) (session.Session, error)
	Session(ctx context.Context, id string) (session.Session, error)
	DeleteSession(ctx context.Context, id string) error

	AddPoint(ctx context.Context, id string, p model.DrawnPoint) (session.Session, error)
	AddLine(ctx context.Context, id string, l model.DrawnLine) (session.Session, error)
	ClearDrawings(ctx context.Context, id string) (session.Session, error)
	UpdateForm(ctx context.Context, id string, p model.FormPatch) (session.Session, error)

	IncrementPossession(ctx context.Context, id string) (session.Session, error)
	ResetPossession(ctx context.Context, id string) (session.Session, error)
	SetPossession(ctx context.Context, id string, n int) (session.Session, error)

	Commit(ctx context.Context, id, idempotencyKey string) (CommitResult, error)
	Clear(ctx context.Context, id string) (session.Session, error)
	Rows(ctx context.Context, id string) ([]model.OutputRow, error)
}

// sessionResponse is the JSON view of a session.
type sessionResponse struct {
	ID         string             `json:"id"`
	Possession int                `json:"possession"`
	Form       model.Form         `json:"form"`
	Points     []model.DrawnPoint `json:"points"`
	Lines      []model.DrawnLine  `json:"lines"`
	RowCount   int                `json:"rowCount"`
	CreatedAt  time.Time          `json:"createdAt"`
	UpdatedAt  time.Time          `json:"updatedAt"`
}

func newSessionResponse(s session.Session) sessionResponse {
	return sessionResponse{
		ID:         s.ID,
		Possession: s.Possession,
		Form:       s.Form,
		Points:     s.Points,
		Lines:      s.Lines,
		RowCount:   len(s.Rows),
		CreatedAt:  s.CreatedAt,
		UpdatedAt:  s.UpdatedAt,
	}
}

type pointRequest struct {
	X      *float64 `json:"x"`
	Y      *float64 `json:"y"`
	Action string   `json:"action"`
}

func (p pointRequest) validate() error {
	switch {
	case p.X == nil:
		return errors.New("missing x")
	case p.Y == nil:
		return errors.New("missing y")
	}
	return nil
}

type lineRequest struct {
	Xs     []float64 `json:"xs"`
	Ys     []float64 `json:"ys"`
	Action string    `json:"action"`
}

type possessionRequest struct {
	Possession *int `json:"possession"`
}

type commitResponse struct {
	Duplicate bool              `json:"duplicate"`
	Rows      []model.OutputRow `json:"rows"`
	Dropped   int               `json:"dropped"`
	Mirrored  bool              `json:"mirrored"`
	Session   sessionResponse   `json:"session"`
}

type rowsResponse struct {
	Columns []string          `json:"columns"`
	Rows    []model.OutputRow `json:"rows"`
}

// SessionsHandler handles session requests.
type SessionsHandler struct {
	deps SessionDependencies
}

// NewSessionsHandler creates a new sessions handler.
func NewSessionsHandler(deps SessionDependencies) *SessionsHandler {
	return &SessionsHandler{deps: deps}
}

// respond writes the session or maps err.
func (h *SessionsHandler) respond(w http.ResponseWriter, op string, s session.Session, err error) {
	if err != nil {
		writeKindError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, newSessionResponse(s))
}

// HandleCreate handles POST /sessions.
func (h *SessionsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_session"
	s, err := h.deps.CreateSession(r.Context())
	if err != nil {
		writeKindError(w, Wrap(op, err))
		return
	}
	w.Header().Set("Location", "/sessions/"+s.ID)
	writeJSON(w, http.StatusCreated, newSessionResponse(s))
}

// HandleGet handles GET /sessions/{id}.
func (h *SessionsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	s, err := h.deps.Session(r.Context(), chi.URLParam(r, "id"))
	h.respond(w, "api.get_session", s, err)
}

// HandleDelete handles DELETE /sessions/{id}.
func (h *SessionsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	const op = "api.delete_session"
	if err := h.deps.DeleteSession(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeKindError(w, Wrap(op, err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleAddPoint handles POST /sessions/{id}/points.
func (h *SessionsHandler) HandleAddPoint(w http.ResponseWriter, r *http.Request) {
	const op = "api.add_point"
	var req pointRequest
	if err := readJSON(w, r, &req); err != nil {
		writeKindError(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeKindError(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	s, err := h.deps.AddPoint(r.Context(), chi.URLParam(r, "id"), model.DrawnPoint{
		X:      *req.X,
		Y:      *req.Y,
		Action: strings.TrimSpace(req.Action),
	})
	h.respond(w, op, s, err)
}

// HandleAddLine handles POST /sessions/{id}/lines. Lines without exactly two
// points are accepted here and dropped at commit.
func (h *SessionsHandler) HandleAddLine(w http.ResponseWriter, r *http.Request) {
	const op = "api.add_line"
	var req lineRequest
	if err := readJSON(w, r, &req); err != nil {
		writeKindError(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	s, err := h.deps.AddLine(r.Context(), chi.URLParam(r, "id"), model.DrawnLine{
		Xs:     req.Xs,
		Ys:     req.Ys,
		Action: strings.TrimSpace(req.Action),
	})
	h.respond(w, op, s, err)
}

// HandleClearDrawings handles DELETE /sessions/{id}/drawings.
func (h *SessionsHandler) HandleClearDrawings(w http.ResponseWriter, r *http.Request) {
	s, err := h.deps.ClearDrawings(r.Context(), chi.URLParam(r, "id"))
	h.respond(w, "api.clear_drawings", s, err)
}

// HandleUpdateForm handles PATCH /sessions/{id}/form.
func (h *SessionsHandler) HandleUpdateForm(w http.ResponseWriter, r *http.Request) {
	const op = "api.update_form"
	var patch model.FormPatch
	if err := readJSON(w, r, &patch); err != nil {
		writeKindError(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	s, err := h.deps.UpdateForm(r.Context(), chi.URLParam(r, "id"), patch)
	h.respond(w, op, s, err)
}

// HandleIncrementPossession handles POST /sessions/{id}/possession/increment.
func (h *SessionsHandler) HandleIncrementPossession(w http.ResponseWriter, r *http.Request) {
	s, err := h.deps.IncrementPossession(r.Context(), chi.URLParam(r, "id"))
	h.respond(w, "api.increment_possession", s, err)
}

// HandleResetPossession handles POST /sessions/{id}/possession/reset.
func (h *SessionsHandler) HandleResetPossession(w http.ResponseWriter, r *http.Request) {
	s, err := h.deps.ResetPossession(r.Context(), chi.URLParam(r, "id"))
	h.respond(w, "api.reset_possession", s, err)
}

// HandleSetPossession handles PUT /sessions/{id}/possession.
func (h *SessionsHandler) HandleSetPossession(w http.ResponseWriter, r *http.Request) {
	const op = "api.set_possession"
	var req possessionRequest
	if err := readJSON(w, r, &req); err != nil {
		writeKindError(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	if req.Possession == nil {
		writeKindError(w, WrapKind(op, ErrBadRequest, errors.New("missing possession")))
		return
	}
	s, err := h.deps.SetPossession(r.Context(), chi.URLParam(r, "id"), *req.Possession)
	h.respond(w, op, s, err)
}

// HandleCommit handles POST /sessions/{id}/commit. A repeated Idempotency-Key
// is acknowledged without applying the commit again.
func (h *SessionsHandler) HandleCommit(w http.ResponseWriter, r *http.Request) {
	const op = "api.commit"
	key := strings.TrimSpace(r.Header.Get(idempotencyHeader))
	res, err := h.deps.Commit(r.Context(), chi.URLParam(r, "id"), key)
	if err != nil {
		writeKindError(w, Wrap(op, err))
		return
	}
	rows := res.Batch.Rows
	if rows == nil {
		rows = []model.OutputRow{}
	}
	writeJSON(w, http.StatusOK, commitResponse{
		Duplicate: res.Duplicate,
		Rows:      rows,
		Dropped:   res.Batch.Dropped,
		Mirrored:  res.Batch.Mirrored,
		Session:   newSessionResponse(res.Session),
	})
}

// HandleClear handles POST /sessions/{id}/clear.
func (h *SessionsHandler) HandleClear(w http.ResponseWriter, r *http.Request) {
	s, err := h.deps.Clear(r.Context(), chi.URLParam(r, "id"))
	h.respond(w, "api.clear", s, err)
}

// HandleRows handles GET /sessions/{id}/rows.
func (h *SessionsHandler) HandleRows(w http.ResponseWriter, r *http.Request) {
	const op = "api.rows"
	rows, err := h.deps.Rows(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeKindError(w, Wrap(op, err))
		return
	}
	if rows == nil {
		rows = []model.OutputRow{}
	}
	writeJSON(w, http.StatusOK, rowsResponse{Columns: model.Columns, Rows: rows})
}
