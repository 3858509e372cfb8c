package ui

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"adlens/internal/domain"
	"adlens/internal/service"

	gomponents "maragu.dev/gomponents"
)

// Handler serves the HTML report pages.
type Handler struct {
	Audit  *service.AuditService
	Logger *slog.Logger
}

// NewHandler creates the UI handler.
func NewHandler(audit *service.AuditService, logger *slog.Logger) *Handler {
	return &Handler{Audit: audit, Logger: logger.With("component", "ui")}
}

// Home renders the recent audit runs.
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	runs, err := h.Audit.ListRuns(r.Context(), limit)
	if err != nil {
		h.renderError(w, r, "Audit runs unavailable", err)
		return
	}
	h.render(w, http.StatusOK, runsPage(runs))
}

// RunDetail renders one recorded run with its findings.
func (h *Handler) RunDetail(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")

	run, err := h.Audit.GetRun(r.Context(), runID)
	if err != nil {
		var notFound *domain.NotFoundError
		if errors.As(err, &notFound) {
			h.render(w, http.StatusNotFound, errorPage("Run not found", err.Error()))
			return
		}
		h.renderError(w, r, "Run unavailable", err)
		return
	}

	findings, err := h.Audit.ListFindings(r.Context(), runID)
	if err != nil {
		h.renderError(w, r, "Findings unavailable", err)
		return
	}
	h.render(w, http.StatusOK, runReportPage(run, findings))
}

func (h *Handler) render(w http.ResponseWriter, status int, node gomponents.Node) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := node.Render(w); err != nil {
		h.Logger.Error("page render failed", "error", err)
	}
}

func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, title string, err error) {
	h.Logger.Error("ui request failed", "path", r.URL.Path, "error", err)
	h.render(w, http.StatusInternalServerError, errorPage(title, err.Error()))
}
