package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// tenants.manage is platform wide: organizations is the tenant registry and
// carries no tenant column, so its holders see every tenant.
type permission string

const (
	permissionConfigRead    permission = "config.read"
	permissionConfigWrite   permission = "config.write"
	permissionAuditRead     permission = "audit.read"
	permissionTenantsManage permission = "tenants.manage"
)

type tenantContextKey struct{}

// requestTenant carries the caller identity taken from the gateway headers.
type requestTenant struct {
	TenantID string
	UserID   string
	Role     string
}

// TenantMiddleware rejects API requests without a UUID X-Tenant-ID and
// stores the caller identity in the request context.
func TenantMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tenantID := strings.TrimSpace(r.Header.Get("X-Tenant-ID"))
		if tenantID == "" {
			writeError(w, http.StatusBadRequest, "invalid_request", "X-Tenant-ID is required")
			return
		}
		if !isValidUUID(tenantID) {
			writeError(w, http.StatusBadRequest, "invalid_request", "X-Tenant-ID must be a UUID")
			return
		}
		info := requestTenant{
			TenantID: tenantID,
			UserID:   strings.TrimSpace(r.Header.Get("X-User-ID")),
			Role:     roleFromRequest(r),
		}
		ctx := context.WithValue(r.Context(), tenantContextKey{}, info)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func tenantFromContext(ctx context.Context) (requestTenant, bool) {
	info, ok := ctx.Value(tenantContextKey{}).(requestTenant)
	return info, ok
}

func roleFromRequest(r *http.Request) string {
	role := strings.ToLower(strings.TrimSpace(r.Header.Get("X-Role")))
	if role == "" {
		role = "agent"
	}
	return role
}

func requirePermission(w http.ResponseWriter, r *http.Request, perm permission) bool {
	if hasPermission(roleFromRequest(r), perm) {
		return true
	}
	writeError(w, http.StatusForbidden, "access_denied", "insufficient role")
	return false
}

func hasPermission(role string, perm permission) bool {
	switch role {
	case "admin":
		return true
	case "supervisor":
		switch perm {
		case permissionConfigRead, permissionConfigWrite, permissionAuditRead:
			return true
		default:
			return false
		}
	default:
		return false
	}
}

func isValidUUID(value string) bool {
	_, err := uuid.Parse(value)
	return err == nil
}
