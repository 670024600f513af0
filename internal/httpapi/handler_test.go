package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"society/admin-service/internal/entities"
	"society/admin-service/internal/forms"
	"society/admin-service/internal/store"
	"society/admin-service/internal/store/memory"
	"society/admin-service/internal/table"
	"society/admin-service/internal/theme"
)

const (
	tenantA    = "3f6c2a1e-8b4d-4e7a-9c1f-2d5e6a7b8c9d"
	tenantB    = "9a8b7c6d-5e4f-4a3b-8c2d-1e0f9a8b7c6d"
	buildingID = "5b0e7f8c-2d3a-4c1b-9e8f-7a6b5c4d3e2f"
)

type fakeStore struct {
	selectFn func(ctx context.Context, req store.SelectRequest) (store.SelectResult, error)
	insertFn func(ctx context.Context, collection string, values store.Row) (store.Row, error)
}

func (f fakeStore) Select(ctx context.Context, req store.SelectRequest) (store.SelectResult, error) {
	if f.selectFn == nil {
		return store.SelectResult{}, nil
	}
	return f.selectFn(ctx, req)
}

func (f fakeStore) Insert(ctx context.Context, collection string, values store.Row) (store.Row, error) {
	if f.insertFn == nil {
		return values, nil
	}
	return f.insertFn(ctx, collection, values)
}

func (f fakeStore) Update(ctx context.Context, collection, id string, values store.Row, filters ...store.Eq) (store.Row, error) {
	return nil, store.ErrNotFound
}

func (f fakeStore) Delete(ctx context.Context, collection, id string, filters ...store.Eq) error {
	return store.ErrNotFound
}

func seededStore(t *testing.T) *memory.Store {
	t.Helper()
	st := memory.NewStore(store.DefaultCatalog())
	seeds := map[string][]store.Row{
		"buildings": {
			{"id": buildingID, "organization_id": tenantA, "name": "Tower A"},
		},
		"gates": {
			{"id": "g-1", "organization_id": tenantA, "building_id": buildingID, "name": "North Gate", "gate_type": "entry", "status": "open"},
			{"id": "g-2", "organization_id": tenantA, "building_id": buildingID, "name": "South Gate", "gate_type": "exit", "status": "closed"},
			{"id": "g-9", "organization_id": tenantB, "name": "Foreign Gate", "gate_type": "both", "status": "open"},
		},
	}
	for collection, rows := range seeds {
		if err := st.Seed(collection, rows...); err != nil {
			t.Fatalf("seed %s: %v", collection, err)
		}
	}
	return st
}

func newTestHandler(t *testing.T, st store.Store, middlewares ...func(http.Handler) http.Handler) http.Handler {
	t.Helper()
	reg, err := entities.Default(forms.NewBinder(), 10)
	if err != nil {
		t.Fatalf("entities: %v", err)
	}
	return NewHandler(Options{
		Store:       st,
		Catalog:     store.DefaultCatalog(),
		Entities:    reg,
		Themes:      theme.NewStore(theme.NewMemoryBackend(), nil),
		Middlewares: middlewares,
	}).Routes()
}

func doRequest(h http.Handler, method, path, role string, body any) *httptest.ResponseRecorder {
	var payload bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&payload).Encode(body)
	}
	req := httptest.NewRequest(method, path, &payload)
	req.Header.Set("X-Tenant-ID", tenantA)
	req.Header.Set("X-User-ID", "user-1")
	if role != "" {
		req.Header.Set("X-Role", role)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeView(t *testing.T, rec *httptest.ResponseRecorder) table.View {
	t.Helper()
	var view table.View
	if err := json.NewDecoder(rec.Body).Decode(&view); err != nil {
		t.Fatalf("decode view: %v", err)
	}
	return view
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) responseError {
	t.Helper()
	var resp errorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	return resp.Error
}

func auditActions(t *testing.T, st store.Store) []string {
	t.Helper()
	res, err := st.Select(context.Background(), store.SelectRequest{Collection: "audit_logs"})
	if err != nil {
		t.Fatalf("select audit: %v", err)
	}
	var actions []string
	for _, row := range res.Rows {
		if row["organization_id"] != tenantA {
			t.Fatalf("audit row written for wrong tenant: %v", row)
		}
		actions = append(actions, row["action_type"].(string))
	}
	return actions
}

func TestHealth(t *testing.T) {
	h := newTestHandler(t, seededStore(t))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestTenantHeaderRequired(t *testing.T) {
	h := newTestHandler(t, seededStore(t))
	for _, tenant := range []string{"", "not-a-uuid"} {
		req := httptest.NewRequest(http.MethodGet, "/api/tables/gates", nil)
		if tenant != "" {
			req.Header.Set("X-Tenant-ID", tenant)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("tenant %q: expected 400, got %d", tenant, rec.Code)
		}
	}
}

func TestListScopesToTenant(t *testing.T) {
	h := newTestHandler(t, seededStore(t))
	rec := doRequest(h, http.MethodGet, "/api/tables/gates", "supervisor", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	view := decodeView(t, rec)
	if len(view.Rows) != 2 || view.Pagination.Total != 2 {
		t.Fatalf("expected only the tenant's 2 gates, got %d rows total %d", len(view.Rows), view.Pagination.Total)
	}
	if view.Pagination.Label != "Showing 1 to 2 of 2 entries" {
		t.Fatalf("unexpected label %q", view.Pagination.Label)
	}
	row := view.Rows[0]
	if row.ID != "g-1" || row.Cells[1].Text != "Tower A" || row.Cells[2].Text != "Entry" {
		t.Fatalf("unexpected first row %+v", row)
	}
}

func TestListSearchWithoutMatches(t *testing.T) {
	h := newTestHandler(t, seededStore(t))
	rec := doRequest(h, http.MethodGet, "/api/tables/gates?search=west&page=1", "supervisor", nil)
	view := decodeView(t, rec)
	if len(view.Rows) != 0 || view.EmptyMessage != `No gates found matching "west"` {
		t.Fatalf("unexpected empty state %q with %d rows", view.EmptyMessage, len(view.Rows))
	}
	if view.Pagination.Label != "Showing 0 to 0 of 0 entries" {
		t.Fatalf("unexpected label %q", view.Pagination.Label)
	}
}

func TestPermissions(t *testing.T) {
	h := newTestHandler(t, seededStore(t))

	if rec := doRequest(h, http.MethodGet, "/api/tables/gates", "", nil); rec.Code != http.StatusForbidden {
		t.Fatalf("agent should be denied, got %d", rec.Code)
	}
	if rec := doRequest(h, http.MethodGet, "/api/tables/organizations", "supervisor", nil); rec.Code != http.StatusForbidden {
		t.Fatalf("organizations should be admin only, got %d", rec.Code)
	}
	if rec := doRequest(h, http.MethodGet, "/api/tables/organizations", "admin", nil); rec.Code != http.StatusOK {
		t.Fatalf("admin should list organizations, got %d", rec.Code)
	}

	rec := doRequest(h, http.MethodGet, "/api/tables", "supervisor", nil)
	var summaries []tableSummary
	if err := json.NewDecoder(rec.Body).Decode(&summaries); err != nil {
		t.Fatalf("decode tables: %v", err)
	}
	seen := map[string]tableSummary{}
	for _, s := range summaries {
		seen[s.Entity] = s
	}
	if _, ok := seen["organizations"]; ok {
		t.Fatalf("supervisor should not see organizations")
	}
	if audit, ok := seen["audit_logs"]; !ok || !audit.ReadOnly {
		t.Fatalf("expected read only audit_logs, got %+v", audit)
	}
	if seen["badge_templates"].SearchEnabled {
		t.Fatalf("badge templates have no search fields")
	}
}

func TestUnknownTable(t *testing.T) {
	h := newTestHandler(t, seededStore(t))
	rec := doRequest(h, http.MethodGet, "/api/tables/parking_lots", "admin", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if got := decodeError(t, rec).Code; got != "unknown_table" {
		t.Fatalf("unexpected code %q", got)
	}
}

func TestCreateGate(t *testing.T) {
	st := seededStore(t)
	h := newTestHandler(t, st)
	rec := doRequest(h, http.MethodPost, "/api/tables/gates/rows", "supervisor", map[string]any{
		"building_id": buildingID,
		"name":        "East Gate",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	view := decodeView(t, rec)
	if view.Dialog != nil {
		t.Fatalf("dialog should close after a successful create")
	}
	if len(view.Toasts) != 1 || view.Toasts[0].Message != "Gate created successfully" {
		t.Fatalf("unexpected toasts %+v", view.Toasts)
	}
	if view.Pagination.Total != 3 {
		t.Fatalf("expected refetched total 3, got %d", view.Pagination.Total)
	}
	if actions := auditActions(t, st); len(actions) != 1 || actions[0] != "gates.create" {
		t.Fatalf("unexpected audit actions %v", actions)
	}
}

func TestCreateValidationFailure(t *testing.T) {
	st := seededStore(t)
	h := newTestHandler(t, st)
	rec := doRequest(h, http.MethodPost, "/api/tables/gates/rows", "supervisor", map[string]any{
		"building_id": buildingID,
		"gate_type":   "side",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	resp := decodeError(t, rec)
	if resp.Code != "validation_failed" || resp.Fields["name"] != "name is required" {
		t.Fatalf("unexpected error %+v", resp)
	}
	if _, ok := resp.Fields["gate_type"]; !ok {
		t.Fatalf("gate_type should be reported, got %v", resp.Fields)
	}
	if actions := auditActions(t, st); len(actions) != 0 {
		t.Fatalf("failed create should not be audited, got %v", actions)
	}

	rec = doRequest(h, http.MethodPost, "/api/tables/gates/rows", "supervisor", map[string]any{"colour": "red"})
	if got := decodeError(t, rec).Code; rec.Code != http.StatusBadRequest || got != "invalid_json" {
		t.Fatalf("expected invalid_json, got %d %q", rec.Code, got)
	}
}

func TestUpdateGate(t *testing.T) {
	st := seededStore(t)
	h := newTestHandler(t, st)
	rec := doRequest(h, http.MethodPut, "/api/tables/gates/rows/g-2", "supervisor", map[string]any{
		"building_id": buildingID,
		"name":        "South Gate",
		"gate_type":   "exit",
		"status":      "maintenance",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	view := decodeView(t, rec)
	if len(view.Toasts) != 1 || view.Toasts[0].Message != "Gate updated successfully" {
		t.Fatalf("unexpected toasts %+v", view.Toasts)
	}
	if got := view.Rows[1].Cells[3].Text; got != "Maintenance" {
		t.Fatalf("status not updated, got %q", got)
	}

	rec = doRequest(h, http.MethodPut, "/api/tables/gates/rows/g-9", "supervisor", map[string]any{
		"building_id": buildingID,
		"name":        "Stolen Gate",
	})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("another tenant's gate should not be found, got %d", rec.Code)
	}
	if actions := auditActions(t, st); len(actions) != 1 || actions[0] != "gates.update" {
		t.Fatalf("unexpected audit actions %v", actions)
	}
}

func TestPartialUpdateKeepsOmittedColumns(t *testing.T) {
	h := newTestHandler(t, seededStore(t))
	rec := doRequest(h, http.MethodPut, "/api/tables/gates/rows/g-2", "supervisor", map[string]any{"name": "South Gate B"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	row := decodeView(t, rec).Rows[1]
	if row.ID != "g-2" || row.Cells[0].Text != "South Gate B" || row.Cells[2].Text != "Exit" || row.Cells[3].Text != "Closed" {
		t.Fatalf("omitted columns should keep their values, got %+v", row)
	}
}

const foreignBuildingID = "e4d3c2b1-a0f9-4e8d-b7c6-5a4b3c2d1e0f"

func seedForeignBuilding(t *testing.T, st *memory.Store) {
	t.Helper()
	if err := st.Seed("buildings", store.Row{"id": foreignBuildingID, "organization_id": tenantB, "name": "SECRET-B-TOWER"}); err != nil {
		t.Fatalf("seed buildings: %v", err)
	}
}

func TestWriteRejectsBuildingOfAnotherTenant(t *testing.T) {
	st := seededStore(t)
	seedForeignBuilding(t, st)
	h := newTestHandler(t, st)

	rec := doRequest(h, http.MethodPost, "/api/tables/gates/rows", "supervisor", map[string]any{
		"building_id": foreignBuildingID,
		"name":        "Trojan Gate",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
	resp := decodeError(t, rec)
	if resp.Code != "invalid_reference" || resp.Fields["building_id"] == "" {
		t.Fatalf("unexpected error %+v", resp)
	}

	rec = doRequest(h, http.MethodPut, "/api/tables/gates/rows/g-1", "supervisor", map[string]any{"building_id": foreignBuildingID})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 on update, got %d: %s", rec.Code, rec.Body.String())
	}
	if actions := auditActions(t, st); len(actions) != 0 {
		t.Fatalf("rejected writes should not be audited, got %v", actions)
	}

	rec = doRequest(h, http.MethodGet, "/api/tables/gates", "supervisor", nil)
	if strings.Contains(rec.Body.String(), "SECRET-B-TOWER") || strings.Contains(rec.Body.String(), "Trojan Gate") {
		t.Fatalf("list leaked another tenant's building: %s", rec.Body.String())
	}
}

func TestListHidesRelatedRowsOfAnotherTenant(t *testing.T) {
	st := seededStore(t)
	seedForeignBuilding(t, st)
	legacy := store.Row{"id": "g-3", "organization_id": tenantA, "building_id": foreignBuildingID, "name": "West Gate", "gate_type": "both", "status": "open"}
	if err := st.Seed("gates", legacy); err != nil {
		t.Fatalf("seed gates: %v", err)
	}
	units := []store.Row{
		{"id": "u-1", "organization_id": tenantA, "building_id": buildingID, "unit_number": "A-101"},
		{"id": "u-2", "organization_id": tenantA, "building_id": buildingID, "unit_number": "A-102"},
		{"id": "u-9", "organization_id": tenantB, "building_id": buildingID, "unit_number": "B-999"},
	}
	if err := st.Seed("society_units", units...); err != nil {
		t.Fatalf("seed units: %v", err)
	}
	h := newTestHandler(t, st)

	rec := doRequest(h, http.MethodGet, "/api/tables/gates", "supervisor", nil)
	if strings.Contains(rec.Body.String(), "SECRET-B-TOWER") {
		t.Fatalf("list leaked another tenant's building: %s", rec.Body.String())
	}
	view := decodeView(t, rec)
	if len(view.Rows) != 3 || view.Rows[2].ID != "g-3" || view.Rows[2].Cells[1].Text != "-" {
		t.Fatalf("expected the building cell to fall back, got %+v", view.Rows)
	}

	view = decodeView(t, doRequest(h, http.MethodGet, "/api/tables/buildings", "supervisor", nil))
	if len(view.Rows) != 1 || view.Rows[0].Cells[4].Text != "2" {
		t.Fatalf("unit count should only include the tenant's units, got %+v", view.Rows)
	}
}

func TestOrganizationsArePlatformWide(t *testing.T) {
	st := seededStore(t)
	orgs := []store.Row{
		{"id": tenantA, "name": "Green Meadows", "code": "GM", "status": "active"},
		{"id": tenantB, "name": "Blue Ridge", "code": "BR", "status": "active"},
	}
	if err := st.Seed("organizations", orgs...); err != nil {
		t.Fatalf("seed organizations: %v", err)
	}
	h := newTestHandler(t, st)

	if rec := doRequest(h, http.MethodGet, "/api/tables/organizations", "supervisor", nil); rec.Code != http.StatusForbidden {
		t.Fatalf("supervisor should be denied, got %d", rec.Code)
	}
	view := decodeView(t, doRequest(h, http.MethodGet, "/api/tables/organizations", "admin", nil))
	if len(view.Rows) != 2 || view.Pagination.Total != 2 {
		t.Fatalf("admins manage every tenant, got %+v", view.Rows)
	}
}

func TestDialog(t *testing.T) {
	h := newTestHandler(t, seededStore(t))

	view := decodeView(t, doRequest(h, http.MethodGet, "/api/tables/gates/dialog", "supervisor", nil))
	if view.Dialog == nil || view.Dialog.Title != "Add Gate" || view.Dialog.Editing {
		t.Fatalf("unexpected create dialog %+v", view.Dialog)
	}
	if view.Dialog.Fields["gate_type"] != "both" {
		t.Fatalf("defaults not applied: %v", view.Dialog.Fields)
	}

	view = decodeView(t, doRequest(h, http.MethodGet, "/api/tables/gates/dialog?id=g-1", "supervisor", nil))
	if view.Dialog == nil || view.Dialog.Title != "Edit Gate" || view.Dialog.EditingID != "g-1" {
		t.Fatalf("unexpected edit dialog %+v", view.Dialog)
	}
	if view.Dialog.Fields["name"] != "North Gate" {
		t.Fatalf("edit fields not pre-populated: %v", view.Dialog.Fields)
	}
}

func TestDeleteGate(t *testing.T) {
	st := seededStore(t)
	h := newTestHandler(t, st)
	rec := doRequest(h, http.MethodDelete, "/api/tables/gates/rows/g-1", "supervisor", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	view := decodeView(t, rec)
	if len(view.Rows) != 1 || view.Toasts[0].Message != "Gate deleted successfully" {
		t.Fatalf("unexpected view after delete: %d rows, toasts %+v", len(view.Rows), view.Toasts)
	}

	if rec := doRequest(h, http.MethodDelete, "/api/tables/gates/rows/g-9", "supervisor", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("another tenant's gate should not be deleted, got %d", rec.Code)
	}
	if actions := auditActions(t, st); len(actions) != 1 || actions[0] != "gates.delete" {
		t.Fatalf("unexpected audit actions %v", actions)
	}
}

func TestReadOnlyTable(t *testing.T) {
	h := newTestHandler(t, seededStore(t))
	rec := doRequest(h, http.MethodPost, "/api/tables/audit_logs/rows", "admin", map[string]any{"action_type": "x"})
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
	if rec := doRequest(h, http.MethodDelete, "/api/tables/audit_logs/rows/a-1", "admin", nil); rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405 on delete, got %d", rec.Code)
	}
}

func TestStoreFailureBecomesToast(t *testing.T) {
	st := fakeStore{
		selectFn: func(ctx context.Context, req store.SelectRequest) (store.SelectResult, error) {
			return store.SelectResult{}, errors.New("connection refused")
		},
		insertFn: func(ctx context.Context, collection string, values store.Row) (store.Row, error) {
			return nil, errors.New("duplicate key")
		},
	}
	h := newTestHandler(t, st)

	view := decodeView(t, doRequest(h, http.MethodGet, "/api/tables/gates", "supervisor", nil))
	if !view.Error || len(view.Rows) != 0 {
		t.Fatalf("expected error state, got %+v", view)
	}
	if len(view.Toasts) != 1 || view.Toasts[0].Message != "Failed to load gates: connection refused" {
		t.Fatalf("unexpected toasts %+v", view.Toasts)
	}

	rec := doRequest(h, http.MethodPost, "/api/tables/gates/rows", "supervisor", map[string]any{
		"building_id": buildingID,
		"name":        "East Gate",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	view = decodeView(t, rec)
	if view.Dialog == nil {
		t.Fatalf("dialog should stay open after a failed create")
	}
	if len(view.Toasts) != 1 || view.Toasts[0].Message != "Failed to create gate: duplicate key" {
		t.Fatalf("unexpected toasts %+v", view.Toasts)
	}
}

func TestTheme(t *testing.T) {
	st := seededStore(t)
	h := newTestHandler(t, st)

	var current themeResponse
	rec := doRequest(h, http.MethodGet, "/api/theme", "", nil)
	if err := json.NewDecoder(rec.Body).Decode(&current); err != nil {
		t.Fatalf("decode theme: %v", err)
	}
	if current.Theme != theme.Default() || current.Variables["--primary"] != theme.Default().Primary {
		t.Fatalf("expected default theme, got %+v", current)
	}

	next := theme.Default()
	next.Mode = theme.ModeDark
	next.Primary = "#123456"
	if rec := doRequest(h, http.MethodPut, "/api/theme", "", next); rec.Code != http.StatusForbidden {
		t.Fatalf("agent should not change the theme, got %d", rec.Code)
	}

	bad := next
	bad.Accent = "orange"
	rec = doRequest(h, http.MethodPut, "/api/theme", "supervisor", bad)
	if got := decodeError(t, rec).Code; rec.Code != http.StatusBadRequest || got != "invalid_theme" {
		t.Fatalf("expected invalid_theme, got %d %q", rec.Code, got)
	}

	if rec := doRequest(h, http.MethodPut, "/api/theme", "supervisor", next); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	rec = doRequest(h, http.MethodGet, "/api/theme.css", "", nil)
	css := rec.Body.String()
	if !strings.HasPrefix(rec.Header().Get("Content-Type"), "text/css") {
		t.Fatalf("unexpected content type %q", rec.Header().Get("Content-Type"))
	}
	if !strings.Contains(css, "color-scheme: dark;") || !strings.Contains(css, "--primary: #123456;") {
		t.Fatalf("unexpected css %q", css)
	}
	if actions := auditActions(t, st); len(actions) != 1 || actions[0] != "theme.update" {
		t.Fatalf("unexpected audit actions %v", actions)
	}
}

func TestRateLimiter(t *testing.T) {
	limiter := NewRateLimiter(RateLimitConfig{IPPerMinute: 1, IPBurst: 1, TenantPerMinute: 100, TenantBurst: 100})
	h := newTestHandler(t, seededStore(t), limiter.Middleware)

	if rec := doRequest(h, http.MethodGet, "/api/tables/gates", "supervisor", nil); rec.Code != http.StatusOK {
		t.Fatalf("first request should pass, got %d", rec.Code)
	}
	rec := doRequest(h, http.MethodGet, "/api/tables/gates", "supervisor", nil)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatalf("expected Retry-After header")
	}
}
