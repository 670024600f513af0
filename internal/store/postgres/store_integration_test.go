package postgres

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"society/admin-service/internal/store"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

func TestSelectSearchRangeAndEmbeds(t *testing.T) {
	ctx := context.Background()
	st, _, cleanup := setupTestStore(t, ctx)
	t.Cleanup(cleanup)

	orgID := insertRow(t, ctx, st, "organizations", store.Row{"name": "Green Meadows", "code": "GM"})
	otherOrg := insertRow(t, ctx, st, "organizations", store.Row{"name": "Blue Ridge", "code": "BR"})
	buildingID := insertRow(t, ctx, st, "buildings", store.Row{"organization_id": orgID, "name": "Tower A", "floors": 12})
	for _, name := range []string{"North Gate", "South Gate", "Service_Gate"} {
		insertRow(t, ctx, st, "gates", store.Row{"organization_id": orgID, "building_id": buildingID, "name": name})
	}
	insertRow(t, ctx, st, "gates", store.Row{"organization_id": otherOrg, "name": "Foreign Gate"})

	scope := store.Eq{Column: "organization_id", Value: orgID}
	res, err := st.Select(ctx, store.SelectRequest{
		Collection: "gates",
		Select:     "*, building:buildings(name)",
		Filters:    []store.Eq{scope},
		Order:      &store.Order{Column: "name", Ascending: true},
		Range:      &store.Range{From: 0, To: 1},
		Count:      store.CountExact,
	})
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if res.Count != 3 {
		t.Fatalf("expected exact count 3, got %d", res.Count)
	}
	if len(res.Rows) != 2 || res.Rows[0]["name"] != "North Gate" || res.Rows[1]["name"] != "Service_Gate" {
		t.Fatalf("unexpected page %v", res.Rows)
	}
	building, ok := res.Rows[0]["building"].(store.Row)
	if !ok || building["name"] != "Tower A" {
		t.Fatalf("building not embedded: %v", res.Rows[0]["building"])
	}

	res, err = st.Select(ctx, store.SelectRequest{
		Collection: "gates",
		Filters:    []store.Eq{scope},
		Search:     &store.Search{Fields: []string{"name"}, Term: "_"},
		Count:      store.CountExact,
	})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if res.Count != 1 || res.Rows[0]["name"] != "Service_Gate" {
		t.Fatalf("underscore should match literally, got %d %v", res.Count, res.Rows)
	}

	res, err = st.Select(ctx, store.SelectRequest{
		Collection: "buildings",
		Select:     "name, gates(name)",
		Filters:    []store.Eq{scope},
	})
	if err != nil {
		t.Fatalf("select buildings: %v", err)
	}
	if gates, _ := res.Rows[0]["gates"].([]store.Row); len(gates) != 3 {
		t.Fatalf("expected 3 embedded gates, got %v", res.Rows[0]["gates"])
	}
}

func TestUpdateAndDeleteHonourScope(t *testing.T) {
	ctx := context.Background()
	st, _, cleanup := setupTestStore(t, ctx)
	t.Cleanup(cleanup)

	orgID := insertRow(t, ctx, st, "organizations", store.Row{"name": "Green Meadows", "code": "GM"})
	otherOrg := insertRow(t, ctx, st, "organizations", store.Row{"name": "Blue Ridge", "code": "BR"})
	id := insertRow(t, ctx, st, "vehicle_blacklists", store.Row{"organization_id": orgID, "license_plate": "TN09XX1111", "reason": "Tailgating"})

	foreign := store.Eq{Column: "organization_id", Value: otherOrg}
	if _, err := st.Update(ctx, "vehicle_blacklists", id, store.Row{"reason": "x"}, foreign); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected not found outside tenant, got %v", err)
	}
	if err := st.Delete(ctx, "vehicle_blacklists", id, foreign); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected not found outside tenant, got %v", err)
	}

	scope := store.Eq{Column: "organization_id", Value: orgID}
	row, err := st.Update(ctx, "vehicle_blacklists", id, store.Row{"reason": "Repeated tailgating"}, scope)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if row["reason"] != "Repeated tailgating" || row.ID() != id {
		t.Fatalf("unexpected updated row %v", row)
	}
	if err := st.Delete(ctx, "vehicle_blacklists", id, scope); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := st.Delete(ctx, "vehicle_blacklists", id, scope); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("second delete should report not found, got %v", err)
	}
}

func TestInsertRejectsUnknownColumns(t *testing.T) {
	ctx := context.Background()
	st, _, cleanup := setupTestStore(t, ctx)
	t.Cleanup(cleanup)

	if _, err := st.Insert(ctx, "gates", store.Row{"name": "North", "password": "x"}); !errors.Is(err, store.ErrUnknownColumn) {
		t.Fatalf("expected ErrUnknownColumn, got %v", err)
	}
}

func TestMalformedIDIsNotFound(t *testing.T) {
	ctx := context.Background()
	st, _, cleanup := setupTestStore(t, ctx)
	t.Cleanup(cleanup)

	orgID := insertRow(t, ctx, st, "organizations", store.Row{"name": "Green Meadows", "code": "GM"})
	scope := store.Eq{Column: "organization_id", Value: orgID}

	res, err := st.Select(ctx, store.SelectRequest{
		Collection: "gates",
		Filters:    []store.Eq{scope, {Column: "id", Value: "abc"}},
		Count:      store.CountExact,
	})
	if err != nil {
		t.Fatalf("select by malformed id should match nothing, got %v", err)
	}
	if res.Count != 0 || len(res.Rows) != 0 {
		t.Fatalf("expected no rows, got %v", res.Rows)
	}
	if _, err := st.Update(ctx, "gates", "abc", store.Row{"name": "x"}, scope); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("update: expected ErrNotFound, got %v", err)
	}
	if err := st.Delete(ctx, "gates", "abc", scope); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("delete: expected ErrNotFound, got %v", err)
	}
}

func TestReferencesStayInsideTenant(t *testing.T) {
	ctx := context.Background()
	st, pool, cleanup := setupTestStore(t, ctx)
	t.Cleanup(cleanup)

	orgA := insertRow(t, ctx, st, "organizations", store.Row{"name": "Green Meadows", "code": "GM"})
	orgB := insertRow(t, ctx, st, "organizations", store.Row{"name": "Blue Ridge", "code": "BR"})
	towerA := insertRow(t, ctx, st, "buildings", store.Row{"organization_id": orgA, "name": "Tower A"})
	towerB := insertRow(t, ctx, st, "buildings", store.Row{"organization_id": orgB, "name": "Tower B"})

	_, err := st.Insert(ctx, "gates", store.Row{"organization_id": orgA, "building_id": towerB, "name": "Sneaky Gate"})
	if !errors.Is(err, store.ErrInvalidReference) {
		t.Fatalf("expected ErrInvalidReference, got %v", err)
	}
	gateID := insertRow(t, ctx, st, "gates", store.Row{"organization_id": orgA, "building_id": towerA, "name": "North Gate"})
	scope := store.Eq{Column: "organization_id", Value: orgA}
	if _, err := st.Update(ctx, "gates", gateID, store.Row{"building_id": towerB}, scope); !errors.Is(err, store.ErrInvalidReference) {
		t.Fatalf("expected ErrInvalidReference on update, got %v", err)
	}
	if _, err := st.Update(ctx, "gates", gateID, store.Row{"building_id": "not-a-uuid"}, scope); !errors.Is(err, store.ErrInvalidReference) {
		t.Fatalf("malformed reference should be rejected, got %v", err)
	}

	// Rows written outside the service may still point across tenants.
	if _, err := pool.Exec(ctx, "UPDATE gates SET building_id = $1 WHERE id = $2", towerB, gateID); err != nil {
		t.Fatalf("raw update: %v", err)
	}
	if _, err := pool.Exec(ctx, "INSERT INTO society_units (organization_id, building_id, unit_number) VALUES ($1, $2, 'B-1')", orgB, towerA); err != nil {
		t.Fatalf("raw insert: %v", err)
	}

	res, err := st.Select(ctx, store.SelectRequest{
		Collection: "gates",
		Select:     "*, building:buildings(name)",
		Filters:    []store.Eq{scope},
	})
	if err != nil {
		t.Fatalf("select gates: %v", err)
	}
	if res.Rows[0]["building"] != nil {
		t.Fatalf("another tenant's building leaked: %v", res.Rows[0]["building"])
	}

	res, err = st.Select(ctx, store.SelectRequest{
		Collection: "buildings",
		Select:     "name, society_units(id)",
		Filters:    []store.Eq{scope},
	})
	if err != nil {
		t.Fatalf("select buildings: %v", err)
	}
	if units, ok := res.Rows[0]["society_units"].([]store.Row); !ok || len(units) != 0 {
		t.Fatalf("another tenant's units leaked: %v", res.Rows[0]["society_units"])
	}
}

func insertRow(t *testing.T, ctx context.Context, st *Store, collection string, values store.Row) string {
	t.Helper()
	row, err := st.Insert(ctx, collection, values)
	if err != nil {
		t.Fatalf("insert %s: %v", collection, err)
	}
	return row.ID()
}

func setupTestStore(t *testing.T, ctx context.Context) (*Store, *pgxpool.Pool, func()) {
	t.Helper()
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		dsn = os.Getenv("DB_DSN")
	}
	if dsn == "" {
		t.Skip("TEST_DB_DSN or DB_DSN is required for integration tests")
	}

	schema := "test_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	if err := execOnce(ctx, dsn, "CREATE SCHEMA "+schema); err != nil {
		t.Fatalf("create schema: %v", err)
	}

	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		t.Fatalf("parse dsn: %v", err)
	}
	cfg.ConnConfig.RuntimeParams["search_path"] = schema
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		t.Fatalf("open pool: %v", err)
	}

	content, err := os.ReadFile(filepath.Join("testdata", "schema.sql"))
	if err != nil {
		pool.Close()
		t.Fatalf("read schema: %v", err)
	}
	if _, err := pool.Exec(ctx, string(content)); err != nil {
		pool.Close()
		t.Fatalf("apply schema: %v", err)
	}

	cleanup := func() {
		pool.Close()
		_ = execOnce(context.Background(), dsn, "DROP SCHEMA "+schema+" CASCADE")
	}
	return NewStore(pool, store.DefaultCatalog()), pool, cleanup
}

func execOnce(ctx context.Context, dsn, sql string) error {
	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		return err
	}
	defer conn.Close(ctx)
	_, err = conn.Exec(ctx, sql)
	return err
}
