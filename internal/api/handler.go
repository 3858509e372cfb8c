// Package api provides the HTTP handlers for the audit REST API.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"adlens/internal/closure"
	"adlens/internal/domain"
	"adlens/internal/report"
	"adlens/internal/service"
)

// TraversalDefaults are the server-side defaults applied when a request does
// not override a traversal knob via query parameters.
type TraversalDefaults struct {
	InactiveDays int
	MaxDepth     int
	MaxNodes     int
}

// Handler serves the audit API over an AuditService.
type Handler struct {
	audit    *service.AuditService
	defaults TraversalDefaults
	logger   *slog.Logger
}

// NewHandler creates the API handler.
func NewHandler(audit *service.AuditService, defaults TraversalDefaults, logger *slog.Logger) *Handler {
	return &Handler{audit: audit, defaults: defaults, logger: logger.With("component", "api")}
}

// RegisterRoutes mounts the API routes on the router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/healthz", h.health)
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/memberships/{identity}", h.getMemberships)
		r.Get("/members/{identity}", h.getMembers)
		r.Get("/runs", h.listRuns)
		r.Get("/runs/{runID}", h.getRun)
	})
}

// --- response shapes ---

type objectJSON struct {
	DN             string `json:"dn"`
	Kind           string `json:"kind"`
	Name           string `json:"name"`
	SAMAccountName string `json:"sam_account_name,omitempty"`
	Enabled        bool   `json:"enabled"`
	LastActivity   string `json:"last_activity,omitempty"`
	Description    string `json:"description,omitempty"`
	Department     string `json:"department,omitempty"`
	Mail           string `json:"mail,omitempty"`
}

type groupJSON struct {
	objectJSON
	ReachedVia []string `json:"reached_via"`
}

type membershipsResponse struct {
	Root      objectJSON    `json:"root"`
	Groups    []groupJSON   `json:"groups"`
	Warnings  []warningJSON `json:"warnings,omitempty"`
	Truncated bool          `json:"truncated"`
	RunID     string        `json:"run_id,omitempty"`
}

type memberJSON struct {
	objectJSON
	Depth             int    `json:"depth"`
	SourceGroup       string `json:"source_group"`
	Nested            bool   `json:"nested"`
	Inactive          bool   `json:"inactive"`
	DaysSinceActivity int    `json:"days_since_activity"`
}

type membersResponse struct {
	Root      objectJSON    `json:"root"`
	Members   []memberJSON  `json:"members"`
	Warnings  []warningJSON `json:"warnings,omitempty"`
	Truncated bool          `json:"truncated"`
	RunID     string        `json:"run_id,omitempty"`
}

type warningJSON struct {
	DN    string `json:"dn"`
	Op    string `json:"op"`
	Error string `json:"error"`
}

type runJSON struct {
	ID           string  `json:"id"`
	Direction    string  `json:"direction"`
	RootIdentity string  `json:"root_identity"`
	RootDN       string  `json:"root_dn,omitempty"`
	Status       string  `json:"status"`
	ObjectCount  int     `json:"object_count"`
	WarningCount int     `json:"warning_count"`
	Truncated    bool    `json:"truncated"`
	ErrorMessage *string `json:"error_message,omitempty"`
	StartedAt    string  `json:"started_at"`
	FinishedAt   *string `json:"finished_at,omitempty"`
}

type findingJSON struct {
	DN          string `json:"dn"`
	Kind        string `json:"kind"`
	Name        string `json:"name"`
	Depth       int    `json:"depth"`
	SourceGroup string `json:"source_group,omitempty"`
	Inactive    bool   `json:"inactive"`
}

type runDetailResponse struct {
	runJSON
	Findings []findingJSON `json:"findings"`
}

type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// --- handlers ---

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) getMemberships(w http.ResponseWriter, r *http.Request) {
	identity := chi.URLParam(r, "identity")
	opts := h.optionsFromQuery(r)

	cl, run, err := h.audit.MemberOf(r.Context(), identity, opts)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	groups := make([]groupJSON, 0, len(cl.Objects))
	for _, g := range report.AncestorGroups(cl) {
		row := groupJSON{objectJSON: objectToJSON(g)}
		for _, edge := range cl.Parents[g.DN] {
			via := edge.Child
			if obj, ok := cl.Objects[edge.Child]; ok {
				via = obj.DisplayName()
			}
			row.ReachedVia = append(row.ReachedVia, via)
		}
		groups = append(groups, row)
	}

	resp := membershipsResponse{
		Root:      objectToJSON(cl.Root),
		Groups:    groups,
		Warnings:  warningsToJSON(cl.Warnings),
		Truncated: cl.Truncated,
	}
	if run != nil {
		resp.RunID = run.ID
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) getMembers(w http.ResponseWriter, r *http.Request) {
	identity := chi.URLParam(r, "identity")
	opts := h.optionsFromQuery(r)

	cl, run, err := h.audit.MembersOf(r.Context(), identity, opts)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	members := make([]memberJSON, 0, len(cl.Members))
	for _, m := range cl.Members {
		members = append(members, memberJSON{
			objectJSON:        objectToJSON(m.Object),
			Depth:             m.Depth,
			SourceGroup:       m.SourceGroup,
			Nested:            m.Nested,
			Inactive:          m.Inactive,
			DaysSinceActivity: m.DaysSinceActivity,
		})
	}

	resp := membersResponse{
		Root:      objectToJSON(cl.Root),
		Members:   members,
		Warnings:  warningsToJSON(cl.Warnings),
		Truncated: cl.Truncated,
	}
	if run != nil {
		resp.RunID = run.ID
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) listRuns(w http.ResponseWriter, r *http.Request) {
	limit := intQueryParam(r, "limit", 50)
	runs, err := h.audit.ListRuns(r.Context(), limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	out := make([]runJSON, len(runs))
	for i, run := range runs {
		out[i] = runToJSON(run)
	}
	writeJSON(w, http.StatusOK, map[string][]runJSON{"runs": out})
}

func (h *Handler) getRun(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")
	run, err := h.audit.GetRun(r.Context(), runID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	findings, err := h.audit.ListFindings(r.Context(), runID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	resp := runDetailResponse{runJSON: runToJSON(*run), Findings: make([]findingJSON, len(findings))}
	for i, f := range findings {
		resp.Findings[i] = findingJSON{
			DN:          f.DN,
			Kind:        string(f.Kind),
			Name:        f.Name,
			Depth:       f.Depth,
			SourceGroup: f.SourceGroup,
			Inactive:    f.Inactive,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- helpers ---

// optionsFromQuery builds resolver options from query parameters, falling
// back to the server defaults.
func (h *Handler) optionsFromQuery(r *http.Request) closure.Options {
	q := r.URL.Query()
	inactiveDays := intQueryParam(r, "inactive_days", h.defaults.InactiveDays)
	return closure.Options{
		InactivityThreshold: time.Duration(inactiveDays) * 24 * time.Hour,
		IncludeInactive:     q.Get("include_inactive") == "true",
		ExpandNested:        q.Get("nested") != "false", // nested expansion is on unless disabled
		MaxDepth:            intQueryParam(r, "max_depth", h.defaults.MaxDepth),
		MaxNodes:            intQueryParam(r, "max_nodes", h.defaults.MaxNodes),
	}
}

func intQueryParam(r *http.Request, key string, defaultVal int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return defaultVal
	}
	return n
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := httpStatusFromDomainError(err)
	if code == http.StatusInternalServerError {
		h.logger.Error("request failed", "path", r.URL.Path, "error", err)
	}
	writeJSON(w, code, errorResponse{Code: code, Message: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func objectToJSON(o *domain.DirectoryObject) objectJSON {
	out := objectJSON{
		DN:             o.DN,
		Kind:           string(o.Kind),
		Name:           o.Name,
		SAMAccountName: o.SAMAccountName,
		Enabled:        o.Enabled,
		Description:    o.Description,
		Department:     o.Department,
		Mail:           o.Mail,
	}
	if o.LastActivity != nil {
		out.LastActivity = o.LastActivity.UTC().Format(time.RFC3339)
	}
	return out
}

func warningsToJSON(ws []domain.TraversalWarning) []warningJSON {
	if len(ws) == 0 {
		return nil
	}
	out := make([]warningJSON, len(ws))
	for i, w := range ws {
		out[i] = warningJSON{DN: w.NodeDN, Op: w.Op, Error: w.Err}
	}
	return out
}

func runToJSON(run domain.AuditRun) runJSON {
	out := runJSON{
		ID:           run.ID,
		Direction:    run.Direction,
		RootIdentity: run.RootIdentity,
		RootDN:       run.RootDN,
		Status:       run.Status,
		ObjectCount:  run.ObjectCount,
		WarningCount: run.WarningCount,
		Truncated:    run.Truncated,
		ErrorMessage: run.ErrorMessage,
		StartedAt:    run.StartedAt.UTC().Format(time.RFC3339),
	}
	if run.FinishedAt != nil {
		s := run.FinishedAt.UTC().Format(time.RFC3339)
		out.FinishedAt = &s
	}
	return out
}
