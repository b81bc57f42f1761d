package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/okian/pitchtag/internal/adapters/export"
)

// ExportDependencies renders a session's table as CSV.
type ExportDependencies interface {
	Export(ctx context.Context, id string) (Export, error)
}

// ExportHandler serves CSV downloads.
type ExportHandler struct {
	deps ExportDependencies
}

// NewExportHandler creates a new export handler.
func NewExportHandler(deps ExportDependencies) *ExportHandler {
	return &ExportHandler{deps: deps}
}

// HandleExport handles GET /sessions/{id}/export. An empty table answers 204
// with no body.
func (h *ExportHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	const op = "api.export"
	exp, err := h.deps.Export(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeKindError(w, Wrap(op, err))
		return
	}
	if len(exp.Data) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", exp.FileName))
	w.Header().Set("Content-Length", strconv.Itoa(len(exp.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(exp.Data)
}
