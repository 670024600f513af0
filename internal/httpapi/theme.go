package httpapi

import (
	"errors"
	"net/http"

	"society/admin-service/internal/theme"
)

type themeResponse struct {
	Theme     theme.Theme       `json:"theme"`
	Variables map[string]string `json:"variables"`
}

func (h *Handler) handleTheme(w http.ResponseWriter, r *http.Request) {
	info, _ := tenantFromContext(r.Context())
	current := h.themes.Current(r.Context(), info.TenantID)
	writeJSON(w, http.StatusOK, themeResponse{Theme: current, Variables: current.Variables()})
}

func (h *Handler) handleApplyTheme(w http.ResponseWriter, r *http.Request) {
	if !requirePermission(w, r, permissionConfigWrite) {
		return
	}
	info, _ := tenantFromContext(r.Context())
	var next theme.Theme
	if !decodeRequest(w, r, &next) {
		return
	}
	if err := h.themes.Apply(r.Context(), info.TenantID, next); err != nil {
		if errors.Is(err, theme.ErrInvalidTheme) {
			writeError(w, http.StatusBadRequest, "invalid_theme", err.Error())
			return
		}
		h.logger.Errorw("theme apply failed", "tenant_id", info.TenantID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}
	h.recordAudit(r, "theme.update", "theme", info.TenantID)
	writeJSON(w, http.StatusOK, themeResponse{Theme: next, Variables: next.Variables()})
}

func (h *Handler) handleThemeCSS(w http.ResponseWriter, r *http.Request) {
	info, _ := tenantFromContext(r.Context())
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(h.themes.Current(r.Context(), info.TenantID).CSS()))
}
