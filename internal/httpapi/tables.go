package httpapi

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"society/admin-service/internal/forms"
	"society/admin-service/internal/models"
	"society/admin-service/internal/store"
	"society/admin-service/internal/table"

	"github.com/go-chi/chi/v5"
)

type tableSummary struct {
	Entity        string `json:"entity"`
	Title         string `json:"title"`
	Label         string `json:"label"`
	ReadOnly      bool   `json:"read_only"`
	SearchEnabled bool   `json:"search_enabled"`
}

type tableAccess int

const (
	accessRead tableAccess = iota
	accessWrite
)

func (h *Handler) handleTables(w http.ResponseWriter, r *http.Request) {
	role := roleFromRequest(r)
	summaries := make([]tableSummary, 0)
	for _, entity := range h.entities.Entities() {
		cfg, _ := h.entities.Table(entity)
		if !hasPermission(role, readPermission(cfg)) {
			continue
		}
		summaries = append(summaries, tableSummary{
			Entity:        cfg.Entity,
			Title:         cfg.Title,
			Label:         cfg.DisplayLabel(),
			ReadOnly:      cfg.ReadOnly || h.entities.Form(entity) == nil,
			SearchEnabled: cfg.SearchEnabled(),
		})
	}
	writeJSON(w, http.StatusOK, summaries)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	m, ok := h.manager(w, r, accessRead)
	if !ok {
		return
	}
	_ = m.Fetch(r.Context())
	writeJSON(w, http.StatusOK, m.View())
}

func (h *Handler) handleDialog(w http.ResponseWriter, r *http.Request) {
	m, ok := h.manager(w, r, accessWrite)
	if !ok {
		return
	}
	id := strings.TrimSpace(r.URL.Query().Get("id"))
	var err error
	if id == "" {
		err = m.Create()
	} else {
		err = m.Edit(r.Context(), id)
	}
	if h.writeManagerError(w, err) {
		return
	}
	writeJSON(w, http.StatusOK, m.View())
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	m, ok := h.manager(w, r, accessWrite)
	if !ok {
		return
	}
	if h.writeManagerError(w, m.Create()) {
		return
	}
	h.submit(w, r, m, "create")
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	m, ok := h.manager(w, r, accessWrite)
	if !ok {
		return
	}
	if h.writeManagerError(w, m.Edit(r.Context(), chi.URLParam(r, "id"))) {
		return
	}
	h.submit(w, r, m, "update")
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request, m *table.Manager, action string) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "request body too large")
		return
	}
	saved, err := m.Submit(r.Context(), payload)
	var validation forms.ValidationError
	var ref *store.ReferenceError
	switch {
	case errors.As(err, &validation):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: responseError{
			Code:    "validation_failed",
			Message: validation.Error(),
			Fields:  validation.Fields,
		}})
		return
	case errors.Is(err, forms.ErrInvalidPayload):
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	case errors.As(err, &ref):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: responseError{
			Code:    "invalid_reference",
			Message: ref.Error(),
			Fields:  map[string]string{ref.Column: ref.Error()},
		}})
		return
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", "record not found")
		return
	case err == nil:
		h.recordAudit(r, m.Config().Entity+"."+action, m.Config().Entity, saved.ID())
	}
	writeJSON(w, http.StatusOK, m.View())
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	m, ok := h.manager(w, r, accessWrite)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	if h.writeManagerError(w, m.RequestDelete(id)) {
		return
	}
	err := m.ConfirmDelete(r.Context())
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not_found", "record not found")
		return
	}
	if err == nil {
		h.recordAudit(r, m.Config().Entity+".delete", m.Config().Entity, id)
	}
	writeJSON(w, http.StatusOK, m.View())
}

// manager resolves the entity, checks the caller may access it and builds
// a table manager scoped to the caller's tenant with page and search taken
// from the query string.
func (h *Handler) manager(w http.ResponseWriter, r *http.Request, access tableAccess) (*table.Manager, bool) {
	entity := chi.URLParam(r, "entity")
	cfg, ok := h.entities.Table(entity)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown_table", "unknown table "+strconv.Quote(entity))
		return nil, false
	}
	perm := readPermission(cfg)
	if access == accessWrite {
		perm = writePermission(cfg)
	}
	if !requirePermission(w, r, perm) {
		return nil, false
	}
	info, _ := tenantFromContext(r.Context())

	query := r.URL.Query()
	page, _ := strconv.Atoi(query.Get("page"))
	state := table.State{Page: page, Search: query.Get("search")}

	opts := []table.Option{
		table.WithLogger(h.logger.With("tenant_id", info.TenantID)),
		table.WithState(state),
		table.WithScope(h.scope(cfg, info.TenantID)...),
	}
	if form := h.entities.Form(entity); form != nil {
		opts = append(opts, table.WithForm(form))
	}
	return table.NewManager(h.store, cfg, opts...), true
}

// scope restricts tenant owned collections to the caller's tenant.
func (h *Handler) scope(cfg table.Config, tenantID string) []store.Eq {
	coll, err := h.catalog.Lookup(cfg.Collection)
	if err != nil || coll.TenantColumn == "" {
		return nil
	}
	return []store.Eq{{Column: coll.TenantColumn, Value: tenantID}}
}

func (h *Handler) writeManagerError(w http.ResponseWriter, err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, table.ErrReadOnly):
		writeError(w, http.StatusMethodNotAllowed, "read_only", "table is read only")
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", "record not found")
	default:
		h.logger.Errorw("table operation failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
	return true
}

func readPermission(cfg table.Config) permission {
	switch {
	case cfg.AdminOnly:
		return permissionTenantsManage
	case cfg.Collection == "audit_logs":
		return permissionAuditRead
	default:
		return permissionConfigRead
	}
}

func writePermission(cfg table.Config) permission {
	if cfg.AdminOnly {
		return permissionTenantsManage
	}
	return permissionConfigWrite
}

func (h *Handler) recordAudit(r *http.Request, actionType, targetType, targetID string) {
	info, ok := tenantFromContext(r.Context())
	if !ok || !isValidUUID(info.TenantID) {
		return
	}
	values := models.AuditLog{
		ActorUserID: info.UserID,
		ActionType:  actionType,
		TargetType:  targetType,
		TargetID:    targetID,
		IP:          clientIP(r),
		UserAgent:   r.UserAgent(),
	}.Values()
	values["organization_id"] = info.TenantID

	ctx := context.WithoutCancel(r.Context())
	if _, err := h.store.Insert(ctx, "audit_logs", values); err != nil {
		h.logger.Warnw("audit insert failed", "action", actionType, "target_id", targetID, "error", err)
	}
}
