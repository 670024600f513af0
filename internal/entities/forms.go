package entities

import (
	"strings"

	"society/admin-service/internal/forms"
	"society/admin-service/internal/models"
	"society/admin-service/internal/table"
)

// Forms returns one form per editable table. audit_logs has none.
func Forms(binder *forms.Binder) []table.Form {
	return []table.Form{
		forms.New(binder, forms.Spec[models.Organization]{
			Entity:   "organizations",
			Noun:     "Organization",
			Defaults: models.Organization{Status: "active"},
			Values:   models.Organization.Values,
			Normalize: func(o *models.Organization) {
				o.Name = strings.TrimSpace(o.Name)
				o.Code = strings.ToUpper(strings.TrimSpace(o.Code))
			},
		}),
		forms.New(binder, forms.Spec[models.Location]{
			Entity:   "locations",
			Noun:     "Location",
			Defaults: models.Location{Status: "active"},
			Values:   models.Location.Values,
		}),
		forms.New(binder, forms.Spec[models.Building]{
			Entity:   "buildings",
			Noun:     "Building",
			Defaults: models.Building{Floors: 1, Status: "active"},
			Values:   models.Building.Values,
		}),
		forms.New(binder, forms.Spec[models.Gate]{
			Entity:   "gates",
			Noun:     "Gate",
			Defaults: models.Gate{GateType: "both", Status: "open"},
			Values:   models.Gate.Values,
		}),
		forms.New(binder, forms.Spec[models.Camera]{
			Entity:   "cameras",
			Noun:     "Camera",
			Defaults: models.Camera{Status: "offline"},
			Values:   models.Camera.Values,
		}),
		forms.New(binder, forms.Spec[models.VehicleWhitelist]{
			Entity:    "vehicle_whitelists",
			Noun:      "Vehicle",
			Defaults:  models.VehicleWhitelist{VehicleType: "car"},
			Values:    models.VehicleWhitelist.Values,
			Normalize: func(v *models.VehicleWhitelist) { v.LicensePlate = normalizePlate(v.LicensePlate) },
		}),
		forms.New(binder, forms.Spec[models.VehicleBlacklist]{
			Entity:    "vehicle_blacklists",
			Noun:      "Blacklisted vehicle",
			Values:    models.VehicleBlacklist.Values,
			Normalize: func(v *models.VehicleBlacklist) { v.LicensePlate = normalizePlate(v.LicensePlate) },
		}),
		forms.New(binder, forms.Spec[models.Alert]{
			Entity:   "alerts",
			Noun:     "Alert",
			Defaults: models.Alert{Severity: "medium", Status: "open"},
			Values:   models.Alert.Values,
		}),
		forms.New(binder, forms.Spec[models.BadgeTemplate]{
			Entity:   "badge_templates",
			Noun:     "Badge template",
			Defaults: models.BadgeTemplate{Layout: "portrait", WidthMM: 54, HeightMM: 86},
			Values:   models.BadgeTemplate.Values,
		}),
		forms.New(binder, forms.Spec[models.Department]{
			Entity: "departments",
			Noun:   "Department",
			Values: models.Department.Values,
		}),
		forms.New(binder, forms.Spec[models.Staff]{
			Entity:   "staff",
			Noun:     "Staff member",
			Defaults: models.Staff{Role: "guard", Status: "active"},
			Values:   models.Staff.Values,
			Normalize: func(s *models.Staff) {
				s.Email = strings.ToLower(strings.TrimSpace(s.Email))
			},
		}),
		forms.New(binder, forms.Spec[models.SocietyUnit]{
			Entity:   "society_units",
			Noun:     "Unit",
			Defaults: models.SocietyUnit{Occupancy: "vacant", Status: "active"},
			Values:   models.SocietyUnit.Values,
		}),
		forms.New(binder, forms.Spec[models.Ticket]{
			Entity:   "tickets",
			Noun:     "Ticket",
			Defaults: models.Ticket{Priority: "normal", Status: "open"},
			Values:   models.Ticket.Values,
		}),
		forms.New(binder, forms.Spec[models.BillingRecord]{
			Entity:   "billing_records",
			Noun:     "Billing record",
			Defaults: models.BillingRecord{Currency: "INR", Status: "pending"},
			Values:   models.BillingRecord.Values,
			Normalize: func(b *models.BillingRecord) {
				b.Currency = strings.ToUpper(b.Currency)
			},
		}),
	}
}

func normalizePlate(plate string) string {
	return strings.ToUpper(strings.Join(strings.Fields(plate), " "))
}
