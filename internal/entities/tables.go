package entities

import (
	"society/admin-service/internal/table"
)

var (
	dateOnly = table.Date("2006-01-02")
	dateTime = table.Date("2006-01-02 15:04")
	newest   = table.OrderBy{Column: "created_at"}
)

// Tables returns the console's table declarations.
func Tables() []table.Config {
	return []table.Config{
		{
			Entity:       "organizations",
			Collection:   "organizations",
			Title:        "Organizations",
			Columns:      []table.Column{{Key: "name", Header: "Name"}, {Key: "code", Header: "Code"}, {Key: "contact_email", Header: "Email"}, {Key: "status", Header: "Status", Render: table.Status}},
			OrderBy:      table.OrderBy{Column: "name", Ascending: true},
			SearchFields: []string{"name", "code"},
			AdminOnly:    true,
		},
		{
			Entity:       "locations",
			Collection:   "locations",
			Title:        "Locations",
			Columns:      []table.Column{{Key: "name", Header: "Name"}, {Key: "address", Header: "Address", Render: table.Truncate(40)}, {Key: "city", Header: "City"}, {Key: "status", Header: "Status", Render: table.Status}},
			OrderBy:      table.OrderBy{Column: "name", Ascending: true},
			SearchFields: []string{"name", "city"},
		},
		{
			Entity:     "buildings",
			Collection: "buildings",
			Title:      "Buildings",
			Select:     "*, location:locations(name), society_units(id)",
			Columns: []table.Column{
				{Key: "name", Header: "Name"},
				{Key: "code", Header: "Code"},
				{Key: "location", Header: "Location", Render: table.Related("location", "name", "-")},
				{Key: "floors", Header: "Floors"},
				{Key: "society_units", Header: "Units", Render: table.Count("society_units")},
				{Key: "status", Header: "Status", Render: table.Status},
			},
			OrderBy:      table.OrderBy{Column: "name", Ascending: true},
			SearchFields: []string{"name", "code"},
		},
		{
			Entity:     "gates",
			Collection: "gates",
			Title:      "Gates",
			Select:     "*, building:buildings(name)",
			Columns: []table.Column{
				{Key: "name", Header: "Name"},
				{Key: "building", Header: "Building", Render: table.Related("building", "name", "-")},
				{Key: "gate_type", Header: "Type", Render: table.Status},
				{Key: "status", Header: "Status", Render: table.Status},
			},
			OrderBy:      table.OrderBy{Column: "name", Ascending: true},
			SearchFields: []string{"name"},
		},
		{
			Entity:     "cameras",
			Collection: "cameras",
			Title:      "Cameras",
			Select:     "*, gate:gates(name, building:buildings(name))",
			Columns: []table.Column{
				{Key: "name", Header: "Name"},
				{Key: "gate", Header: "Gate", Render: table.Related("gate", "name", "Unassigned")},
				{Key: "stream_url", Header: "Stream", Render: table.Truncate(32)},
				{Key: "status", Header: "Status", Render: table.Status},
				{Key: "last_seen_at", Header: "Last Seen", Render: dateTime},
			},
			OrderBy:      table.OrderBy{Column: "name", Ascending: true},
			SearchFields: []string{"name", "stream_url"},
		},
		{
			Entity:     "vehicle_whitelists",
			Collection: "vehicle_whitelists",
			Title:      "Vehicle Whitelist",
			Label:      "vehicle whitelists",
			Select:     "*, unit:society_units(unit_number)",
			Columns: []table.Column{
				{Key: "license_plate", Header: "Plate"},
				{Key: "owner_name", Header: "Owner"},
				{Key: "unit", Header: "Unit", Render: table.Related("unit", "unit_number", "-")},
				{Key: "vehicle_type", Header: "Type", Render: table.Status},
				{Key: "valid_until", Header: "Valid Until", Render: dateOnly},
			},
			OrderBy:      newest,
			SearchFields: []string{"license_plate"},
		},
		{
			Entity:     "vehicle_blacklists",
			Collection: "vehicle_blacklists",
			Title:      "Vehicle Blacklist",
			Label:      "blacklisted vehicles",
			Columns: []table.Column{
				{Key: "license_plate", Header: "Plate"},
				{Key: "reason", Header: "Reason", Render: table.Truncate(60)},
				{Key: "reported_by", Header: "Reported By"},
				{Key: "created_at", Header: "Added", Render: dateTime},
			},
			OrderBy:      newest,
			SearchFields: []string{"license_plate", "reason"},
		},
		{
			Entity:     "alerts",
			Collection: "alerts",
			Title:      "Alerts",
			Select:     "*, camera:cameras(name)",
			Columns: []table.Column{
				{Key: "alert_type", Header: "Type", Render: table.Status},
				{Key: "severity", Header: "Severity", Render: table.Status},
				{Key: "camera", Header: "Camera", Render: table.Related("camera", "name", "-")},
				{Key: "status", Header: "Status", Render: table.Status},
				{Key: "created_at", Header: "Raised", Render: dateTime},
			},
			OrderBy:      newest,
			SearchFields: []string{"alert_type", "message"},
		},
		{
			Entity:     "badge_templates",
			Collection: "badge_templates",
			Title:      "Badge Templates",
			Columns: []table.Column{
				{Key: "name", Header: "Name"},
				{Key: "layout", Header: "Layout", Render: table.Status},
				{Key: "width_mm", Header: "Width (mm)"},
				{Key: "height_mm", Header: "Height (mm)"},
				{Key: "is_default", Header: "Default"},
			},
			OrderBy: table.OrderBy{Column: "name", Ascending: true},
		},
		{
			Entity:     "departments",
			Collection: "departments",
			Title:      "Departments",
			Select:     "*, staff(id)",
			Columns: []table.Column{
				{Key: "name", Header: "Name"},
				{Key: "description", Header: "Description", Render: table.Truncate(60)},
				{Key: "staff", Header: "Staff", Render: table.Count("staff")},
			},
			OrderBy:      table.OrderBy{Column: "name", Ascending: true},
			SearchFields: []string{"name"},
		},
		{
			Entity:     "staff",
			Collection: "staff",
			Title:      "Staff",
			Label:      "staff members",
			Select:     "*, department:departments(name)",
			Columns: []table.Column{
				{Key: "full_name", Header: "Name"},
				{Key: "email", Header: "Email"},
				{Key: "department", Header: "Department", Render: table.Related("department", "name", "-")},
				{Key: "role", Header: "Role", Render: table.Status},
				{Key: "status", Header: "Status", Render: table.Status},
			},
			OrderBy:      table.OrderBy{Column: "full_name", Ascending: true},
			SearchFields: []string{"full_name", "email", "phone"},
		},
		{
			Entity:     "society_units",
			Collection: "society_units",
			Title:      "Units",
			Label:      "units",
			Select:     "*, building:buildings(name)",
			Columns: []table.Column{
				{Key: "unit_number", Header: "Unit"},
				{Key: "building", Header: "Building", Render: table.Related("building", "name", "-")},
				{Key: "owner_name", Header: "Owner"},
				{Key: "occupancy", Header: "Occupancy", Render: table.Status},
				{Key: "status", Header: "Status", Render: table.Status},
			},
			OrderBy:      table.OrderBy{Column: "unit_number", Ascending: true},
			SearchFields: []string{"unit_number", "owner_name"},
		},
		{
			Entity:     "tickets",
			Collection: "tickets",
			Title:      "Tickets",
			Select:     "*, unit:society_units(unit_number), assignee:staff!assigned_to(full_name)",
			Columns: []table.Column{
				{Key: "subject", Header: "Subject", Render: table.Truncate(50)},
				{Key: "unit", Header: "Unit", Render: table.Related("unit", "unit_number", "-")},
				{Key: "assignee", Header: "Assignee", Render: table.Related("assignee", "full_name", "Unassigned")},
				{Key: "priority", Header: "Priority", Render: table.Status},
				{Key: "status", Header: "Status", Render: table.Status},
				{Key: "created_at", Header: "Opened", Render: dateTime},
			},
			OrderBy:      newest,
			SearchFields: []string{"subject", "description"},
		},
		{
			Entity:     "billing_records",
			Collection: "billing_records",
			Title:      "Billing",
			Label:      "billing records",
			Select:     "*, unit:society_units(unit_number)",
			Columns: []table.Column{
				{Key: "period", Header: "Period"},
				{Key: "unit", Header: "Unit", Render: table.Related("unit", "unit_number", "-")},
				{Key: "amount_cents", Header: "Amount", Render: table.Money("currency")},
				{Key: "status", Header: "Status", Render: table.Status},
				{Key: "due_date", Header: "Due", Render: dateOnly},
				{Key: "paid_at", Header: "Paid", Render: dateOnly},
			},
			OrderBy:      table.OrderBy{Column: "due_date"},
			SearchFields: []string{"period", "status"},
		},
		{
			Entity:     "audit_logs",
			Collection: "audit_logs",
			Title:      "Audit Log",
			Label:      "audit entries",
			Columns: []table.Column{
				{Key: "created_at", Header: "When", Render: dateTime},
				{Key: "actor_user_id", Header: "Actor"},
				{Key: "action_type", Header: "Action", Render: table.Status},
				{Key: "target_type", Header: "Target"},
				{Key: "target_id", Header: "Target ID"},
				{Key: "ip", Header: "IP"},
			},
			OrderBy:      newest,
			SearchFields: []string{"action_type", "target_type", "target_id"},
			ReadOnly:     true,
		},
	}
}
