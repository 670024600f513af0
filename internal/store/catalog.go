package store

import (
	"fmt"
	"sort"
)

// Collection describes one externally owned table: the columns the service
// may read or write, the tenant column if the table is tenant scoped, and
// its foreign keys (column -> referenced collection).
type Collection struct {
	Name         string
	Columns      []string
	TenantColumn string
	References   map[string]string
}

func (c Collection) HasColumn(name string) bool {
	for _, col := range c.Columns {
		if col == name {
			return true
		}
	}
	return false
}

type Catalog struct {
	collections map[string]Collection
}

func NewCatalog(collections ...Collection) Catalog {
	cat := Catalog{collections: make(map[string]Collection, len(collections))}
	for _, c := range collections {
		cat.collections[c.Name] = c
	}
	return cat
}

func (c Catalog) Lookup(name string) (Collection, error) {
	coll, ok := c.collections[name]
	if !ok {
		return Collection{}, fmt.Errorf("%w: %q", ErrUnknownCollection, name)
	}
	return coll, nil
}

func (c Catalog) Names() []string {
	names := make([]string, 0, len(c.collections))
	for name := range c.collections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CheckColumns reports the first column not present in the collection.
func (c Catalog) CheckColumns(collection string, columns ...string) error {
	coll, err := c.Lookup(collection)
	if err != nil {
		return err
	}
	for _, col := range columns {
		if !coll.HasColumn(col) {
			return fmt.Errorf("%w: %s.%s", ErrUnknownColumn, collection, col)
		}
	}
	return nil
}

// foreignKey returns the column of from that references to.
func (c Catalog) foreignKey(from, to string) (string, bool) {
	coll, ok := c.collections[from]
	if !ok {
		return "", false
	}
	keys := make([]string, 0, len(coll.References))
	for col := range coll.References {
		keys = append(keys, col)
	}
	sort.Strings(keys)
	for _, col := range keys {
		if coll.References[col] == to {
			return col, true
		}
	}
	return "", false
}

var (
	timestamps = []string{"created_at", "updated_at"}
)

func columns(cols ...[]string) []string {
	var out []string
	for _, c := range cols {
		out = append(out, c...)
	}
	return out
}

// DefaultCatalog mirrors the society management schema.
func DefaultCatalog() Catalog {
	return NewCatalog(
		Collection{
			Name:    "organizations",
			Columns: columns([]string{"id", "name", "code", "contact_email", "phone", "status"}, timestamps),
		},
		Collection{
			Name:         "locations",
			Columns:      columns([]string{"id", "organization_id", "name", "address", "city", "status"}, timestamps),
			TenantColumn: "organization_id",
			References:   map[string]string{"organization_id": "organizations"},
		},
		Collection{
			Name:         "buildings",
			Columns:      columns([]string{"id", "organization_id", "location_id", "name", "code", "floors", "status"}, timestamps),
			TenantColumn: "organization_id",
			References:   map[string]string{"organization_id": "organizations", "location_id": "locations"},
		},
		Collection{
			Name:         "gates",
			Columns:      columns([]string{"id", "organization_id", "building_id", "name", "gate_type", "status"}, timestamps),
			TenantColumn: "organization_id",
			References:   map[string]string{"organization_id": "organizations", "building_id": "buildings"},
		},
		Collection{
			Name:         "cameras",
			Columns:      columns([]string{"id", "organization_id", "gate_id", "name", "stream_url", "status", "last_seen_at"}, timestamps),
			TenantColumn: "organization_id",
			References:   map[string]string{"organization_id": "organizations", "gate_id": "gates"},
		},
		Collection{
			Name:         "vehicle_whitelists",
			Columns:      columns([]string{"id", "organization_id", "unit_id", "license_plate", "owner_name", "vehicle_type", "valid_until"}, timestamps),
			TenantColumn: "organization_id",
			References:   map[string]string{"organization_id": "organizations", "unit_id": "society_units"},
		},
		Collection{
			Name:         "vehicle_blacklists",
			Columns:      columns([]string{"id", "organization_id", "license_plate", "reason", "reported_by"}, timestamps),
			TenantColumn: "organization_id",
			References:   map[string]string{"organization_id": "organizations"},
		},
		Collection{
			Name:         "alerts",
			Columns:      columns([]string{"id", "organization_id", "camera_id", "alert_type", "severity", "status", "message", "resolved_at"}, timestamps),
			TenantColumn: "organization_id",
			References:   map[string]string{"organization_id": "organizations", "camera_id": "cameras"},
		},
		Collection{
			Name:         "badge_templates",
			Columns:      columns([]string{"id", "organization_id", "name", "layout", "width_mm", "height_mm", "is_default"}, timestamps),
			TenantColumn: "organization_id",
			References:   map[string]string{"organization_id": "organizations"},
		},
		Collection{
			Name:         "departments",
			Columns:      columns([]string{"id", "organization_id", "name", "description"}, timestamps),
			TenantColumn: "organization_id",
			References:   map[string]string{"organization_id": "organizations"},
		},
		Collection{
			Name:         "staff",
			Columns:      columns([]string{"id", "organization_id", "department_id", "full_name", "email", "phone", "role", "status"}, timestamps),
			TenantColumn: "organization_id",
			References:   map[string]string{"organization_id": "organizations", "department_id": "departments"},
		},
		Collection{
			Name:         "society_units",
			Columns:      columns([]string{"id", "organization_id", "building_id", "unit_number", "owner_name", "area_sqft", "occupancy", "status"}, timestamps),
			TenantColumn: "organization_id",
			References:   map[string]string{"organization_id": "organizations", "building_id": "buildings"},
		},
		Collection{
			Name:         "tickets",
			Columns:      columns([]string{"id", "organization_id", "unit_id", "assigned_to", "subject", "description", "priority", "status"}, timestamps),
			TenantColumn: "organization_id",
			References:   map[string]string{"organization_id": "organizations", "unit_id": "society_units", "assigned_to": "staff"},
		},
		Collection{
			Name:         "billing_records",
			Columns:      columns([]string{"id", "organization_id", "unit_id", "period", "amount_cents", "currency", "status", "due_date", "paid_at"}, timestamps),
			TenantColumn: "organization_id",
			References:   map[string]string{"organization_id": "organizations", "unit_id": "society_units"},
		},
		Collection{
			Name:         "audit_logs",
			Columns:      []string{"id", "organization_id", "actor_user_id", "action_type", "target_type", "target_id", "ip", "user_agent", "created_at"},
			TenantColumn: "organization_id",
			References:   map[string]string{"organization_id": "organizations"},
		},
	)
}
