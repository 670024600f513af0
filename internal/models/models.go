package models

import "society/admin-service/internal/store"

// Form payloads. The tenant column is never part of a payload; the table
// manager forces it from the request scope.

type Organization struct {
	Name         string `json:"name" validate:"required,max=120"`
	Code         string `json:"code" validate:"required,alphanum,max=32"`
	ContactEmail string `json:"contact_email" validate:"omitempty,email"`
	Phone        string `json:"phone" validate:"omitempty,e164"`
	Status       string `json:"status" validate:"required,oneof=active suspended"`
}

func (o Organization) Values() store.Row {
	return store.Row{
		"name":          o.Name,
		"code":          o.Code,
		"contact_email": o.ContactEmail,
		"phone":         o.Phone,
		"status":        o.Status,
	}
}

type Location struct {
	Name    string `json:"name" validate:"required,max=120"`
	Address string `json:"address" validate:"max=255"`
	City    string `json:"city" validate:"max=80"`
	Status  string `json:"status" validate:"required,oneof=active inactive"`
}

func (l Location) Values() store.Row {
	return store.Row{"name": l.Name, "address": l.Address, "city": l.City, "status": l.Status}
}

type Building struct {
	LocationID string `json:"location_id" validate:"required,uuid"`
	Name       string `json:"name" validate:"required,max=120"`
	Code       string `json:"code" validate:"required,max=32"`
	Floors     int    `json:"floors" validate:"gte=0,lte=200"`
	Status     string `json:"status" validate:"required,oneof=active inactive"`
}

func (b Building) Values() store.Row {
	return store.Row{
		"location_id": b.LocationID,
		"name":        b.Name,
		"code":        b.Code,
		"floors":      b.Floors,
		"status":      b.Status,
	}
}

type Gate struct {
	BuildingID string `json:"building_id" validate:"required,uuid"`
	Name       string `json:"name" validate:"required,max=120"`
	GateType   string `json:"gate_type" validate:"required,oneof=entry exit both"`
	Status     string `json:"status" validate:"required,oneof=open closed maintenance"`
}

func (g Gate) Values() store.Row {
	return store.Row{"building_id": g.BuildingID, "name": g.Name, "gate_type": g.GateType, "status": g.Status}
}

type Camera struct {
	GateID    string `json:"gate_id" validate:"required,uuid"`
	Name      string `json:"name" validate:"required,max=120"`
	StreamURL string `json:"stream_url" validate:"required,url"`
	Status    string `json:"status" validate:"required,oneof=online offline"`
}

func (c Camera) Values() store.Row {
	return store.Row{"gate_id": c.GateID, "name": c.Name, "stream_url": c.StreamURL, "status": c.Status}
}

type VehicleWhitelist struct {
	UnitID       string  `json:"unit_id" validate:"required,uuid"`
	LicensePlate string  `json:"license_plate" validate:"required,plate"`
	OwnerName    string  `json:"owner_name" validate:"required,max=120"`
	VehicleType  string  `json:"vehicle_type" validate:"required,oneof=car motorcycle truck other"`
	ValidUntil   *string `json:"valid_until" validate:"omitempty,datetime=2006-01-02"`
}

func (v VehicleWhitelist) Values() store.Row {
	return store.Row{
		"unit_id":       v.UnitID,
		"license_plate": v.LicensePlate,
		"owner_name":    v.OwnerName,
		"vehicle_type":  v.VehicleType,
		"valid_until":   optional(v.ValidUntil),
	}
}

type VehicleBlacklist struct {
	LicensePlate string `json:"license_plate" validate:"required,plate"`
	Reason       string `json:"reason" validate:"required,max=255"`
	ReportedBy   string `json:"reported_by" validate:"max=120"`
}

func (v VehicleBlacklist) Values() store.Row {
	return store.Row{"license_plate": v.LicensePlate, "reason": v.Reason, "reported_by": v.ReportedBy}
}

type Alert struct {
	CameraID  string `json:"camera_id" validate:"required,uuid"`
	AlertType string `json:"alert_type" validate:"required,oneof=blacklisted_vehicle unknown_vehicle tailgating camera_offline"`
	Severity  string `json:"severity" validate:"required,oneof=low medium high critical"`
	Status    string `json:"status" validate:"required,oneof=open acknowledged resolved"`
	Message   string `json:"message" validate:"max=500"`
}

func (a Alert) Values() store.Row {
	return store.Row{
		"camera_id":  a.CameraID,
		"alert_type": a.AlertType,
		"severity":   a.Severity,
		"status":     a.Status,
		"message":    a.Message,
	}
}

type BadgeTemplate struct {
	Name      string `json:"name" validate:"required,max=120"`
	Layout    string `json:"layout" validate:"required,oneof=portrait landscape"`
	WidthMM   int    `json:"width_mm" validate:"required,gt=0,lte=300"`
	HeightMM  int    `json:"height_mm" validate:"required,gt=0,lte=300"`
	IsDefault bool   `json:"is_default"`
}

func (b BadgeTemplate) Values() store.Row {
	return store.Row{
		"name":       b.Name,
		"layout":     b.Layout,
		"width_mm":   b.WidthMM,
		"height_mm":  b.HeightMM,
		"is_default": b.IsDefault,
	}
}

type Department struct {
	Name        string `json:"name" validate:"required,max=120"`
	Description string `json:"description" validate:"max=500"`
}

func (d Department) Values() store.Row {
	return store.Row{"name": d.Name, "description": d.Description}
}

type Staff struct {
	DepartmentID string `json:"department_id" validate:"required,uuid"`
	FullName     string `json:"full_name" validate:"required,max=120"`
	Email        string `json:"email" validate:"required,email"`
	Phone        string `json:"phone" validate:"omitempty,e164"`
	Role         string `json:"role" validate:"required,oneof=guard manager technician cleaner admin"`
	Status       string `json:"status" validate:"required,oneof=active on_leave terminated"`
}

func (s Staff) Values() store.Row {
	return store.Row{
		"department_id": s.DepartmentID,
		"full_name":     s.FullName,
		"email":         s.Email,
		"phone":         s.Phone,
		"role":          s.Role,
		"status":        s.Status,
	}
}

type SocietyUnit struct {
	BuildingID string `json:"building_id" validate:"required,uuid"`
	UnitNumber string `json:"unit_number" validate:"required,max=16"`
	OwnerName  string `json:"owner_name" validate:"max=120"`
	AreaSqft   int    `json:"area_sqft" validate:"gte=0"`
	Occupancy  string `json:"occupancy" validate:"required,oneof=owner tenant vacant"`
	Status     string `json:"status" validate:"required,oneof=active inactive"`
}

func (u SocietyUnit) Values() store.Row {
	return store.Row{
		"building_id": u.BuildingID,
		"unit_number": u.UnitNumber,
		"owner_name":  u.OwnerName,
		"area_sqft":   u.AreaSqft,
		"occupancy":   u.Occupancy,
		"status":      u.Status,
	}
}

type Ticket struct {
	UnitID      string  `json:"unit_id" validate:"required,uuid"`
	AssignedTo  *string `json:"assigned_to" validate:"omitempty,uuid"`
	Subject     string  `json:"subject" validate:"required,max=200"`
	Description string  `json:"description" validate:"max=2000"`
	Priority    string  `json:"priority" validate:"required,oneof=low normal high urgent"`
	Status      string  `json:"status" validate:"required,oneof=open in_progress resolved closed"`
}

func (t Ticket) Values() store.Row {
	return store.Row{
		"unit_id":     t.UnitID,
		"assigned_to": optional(t.AssignedTo),
		"subject":     t.Subject,
		"description": t.Description,
		"priority":    t.Priority,
		"status":      t.Status,
	}
}

type BillingRecord struct {
	UnitID      string  `json:"unit_id" validate:"required,uuid"`
	Period      string  `json:"period" validate:"required,datetime=2006-01"`
	AmountCents int64   `json:"amount_cents" validate:"gte=0"`
	Currency    string  `json:"currency" validate:"required,iso4217"`
	Status      string  `json:"status" validate:"required,oneof=pending paid overdue cancelled"`
	DueDate     string  `json:"due_date" validate:"required,datetime=2006-01-02"`
	PaidAt      *string `json:"paid_at" validate:"omitempty,datetime=2006-01-02"`
}

func (b BillingRecord) Values() store.Row {
	return store.Row{
		"unit_id":      b.UnitID,
		"period":       b.Period,
		"amount_cents": b.AmountCents,
		"currency":     b.Currency,
		"status":       b.Status,
		"due_date":     b.DueDate,
		"paid_at":      optional(b.PaidAt),
	}
}

// AuditLog is written by the service itself, never through a form.
type AuditLog struct {
	ActorUserID string
	ActionType  string
	TargetType  string
	TargetID    string
	IP          string
	UserAgent   string
}

func (a AuditLog) Values() store.Row {
	return store.Row{
		"actor_user_id": a.ActorUserID,
		"action_type":   a.ActionType,
		"target_type":   a.TargetType,
		"target_id":     a.TargetID,
		"ip":            a.IP,
		"user_agent":    a.UserAgent,
	}
}

func optional(s *string) any {
	if s == nil || *s == "" {
		return nil
	}
	return *s
}
