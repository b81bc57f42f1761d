// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	service "github.com/okian/pitchtag/internal/app"
)

// maxBodyBytes bounds every JSON request body.
const maxBodyBytes = 1 << 20

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	SessionDependencies
	ExportDependencies
	PitchDependencies
}

// CommitResult mirrors the outcome of a commit.
type CommitResult = service.CommitResult

// Export mirrors a rendered CSV download.
type Export = service.Export

// Server wires HTTP routes for the tagging API.
type Server struct {
	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	pitchHandler    *PitchHandler
	sessionsHandler *SessionsHandler
	exportHandler   *ExportHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:   NewHealthHandler(),
		statsHandler:    NewStatsHandler(statsProvider),
		pitchHandler:    NewPitchHandler(deps),
		sessionsHandler: NewSessionsHandler(deps),
		exportHandler:   NewExportHandler(deps),
	}
}

// Register attaches all HTTP routes to r.
func (s *Server) Register(_ context.Context, r chi.Router) {
	if r == nil {
		panic("router is nil")
	}

	r.NotFound(notFoundResponse)
	r.MethodNotAllowed(methodNotAllowedResponse)

	r.Get("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	r.Get("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	r.Get("/pitch", MetricsMiddleware(s.pitchHandler.HandleGetPitch, "pitch"))

	sh := s.sessionsHandler
	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", MetricsMiddleware(sh.HandleCreate, "sessions"))
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", MetricsMiddleware(sh.HandleGet, "session"))
			r.Delete("/", MetricsMiddleware(sh.HandleDelete, "session"))
			r.Post("/points", MetricsMiddleware(sh.HandleAddPoint, "points"))
			r.Post("/lines", MetricsMiddleware(sh.HandleAddLine, "lines"))
			r.Delete("/drawings", MetricsMiddleware(sh.HandleClearDrawings, "drawings"))
			r.Patch("/form", MetricsMiddleware(sh.HandleUpdateForm, "form"))
			r.Put("/possession", MetricsMiddleware(sh.HandleSetPossession, "possession"))
			r.Post("/possession/increment", MetricsMiddleware(sh.HandleIncrementPossession, "possession_increment"))
			r.Post("/possession/reset", MetricsMiddleware(sh.HandleResetPossession, "possession_reset"))
			r.Post("/commit", MetricsMiddleware(sh.HandleCommit, "commit"))
			r.Post("/clear", MetricsMiddleware(sh.HandleClear, "clear"))
			r.Get("/rows", MetricsMiddleware(sh.HandleRows, "rows"))
			r.Get("/export", MetricsMiddleware(s.exportHandler.HandleExport, "export"))
		})
	})
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeKindError maps err onto its HTTP status and writes it.
func writeKindError(w http.ResponseWriter, err error) {
	status, code := classify(err)
	writeError(w, status, code, err)
}

// readJSON decodes a single JSON object from the body into dst. Unknown
// fields and trailing data are rejected.
func readJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return errors.New("body must not be empty")
		case errors.As(err, &maxErr):
			return fmt.Errorf("body must not be larger than %d bytes", maxErr.Limit)
		default:
			return err
		}
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("body must only contain a single JSON value")
	}
	return nil
}

func notFoundResponse(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusNotFound, "not_found", errors.New("the requested resource could not be found"))
}

func methodNotAllowedResponse(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, "method_not_allowed",
		fmt.Errorf("the %s method is not supported for this resource", r.Method))
}
