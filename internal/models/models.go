// Package models defines the data structures used across the application.
// These map to the PostgreSQL schema.
package models

import "time"

// Role tags stored in users.user_type
const (
	RoleCitizen = "citizen"
	RoleAdmin   = "admin"
	RoleWorker  = "worker"
)

// Complaint statuses
const (
	StatusPending    = "pending"
	StatusAssigned   = "assigned"
	StatusInProgress = "in-progress"
	StatusResolved   = "resolved"
)

// Complaint priorities
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// ValidStatus reports whether s is one of the known complaint statuses.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusAssigned, StatusInProgress, StatusResolved:
		return true
	}
	return false
}

// ValidPriority reports whether p is one of the known priorities.
func ValidPriority(p string) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Complaint is the aggregate root of the lifecycle. The images and metadata
// columns are stored compressed and decoded on read.
type Complaint struct {
	ID                int            `json:"id" db:"id"`
	Reference         string         `json:"reference" db:"reference"`
	CitizenID         int            `json:"citizen_id" db:"citizen_id"`
	Title             string         `json:"title" db:"title"`
	Description       string         `json:"description,omitempty" db:"description"`
	LocationAddress   string         `json:"location_address" db:"location_address"`
	Latitude          *float64       `json:"latitude,omitempty" db:"latitude"`
	Longitude         *float64       `json:"longitude,omitempty" db:"longitude"`
	Priority          string         `json:"priority" db:"priority"`
	Images            []string       `json:"images_data,omitempty" db:"images_data"`
	Metadata          map[string]any `json:"metadata,omitempty" db:"metadata"`
	Status            string         `json:"status" db:"status"`
	AssignedWorkerID  *int           `json:"assigned_worker_id,omitempty" db:"assigned_worker_id"`
	AssignedByAdminID *int           `json:"assigned_by_admin_id,omitempty" db:"assigned_by_admin_id"`
	CreatedAt         time.Time      `json:"created_at" db:"created_at"`
	ResolvedAt        *time.Time     `json:"resolved_at,omitempty" db:"resolved_at"`

	// Display names joined from the role-profile tables
	CitizenName string `json:"citizen_name,omitempty" db:"citizen_name"`
	WorkerName  string `json:"worker_name,omitempty" db:"worker_name"`
	AdminName   string `json:"admin_name,omitempty" db:"admin_name"`
}

// ComplaintSubmission is the request body for filing a new complaint
type ComplaintSubmission struct {
	CitizenID       int            `json:"citizen_id"`
	Title           string         `json:"title"`
	Description     string         `json:"description,omitempty"`
	LocationAddress string         `json:"location_address"`
	Latitude        *float64       `json:"latitude,omitempty"`
	Longitude       *float64       `json:"longitude,omitempty"`
	Priority        string         `json:"priority,omitempty"`
	Images          []string       `json:"images_data,omitempty"`
	Metadata        map[string]any `json:"metadata,omitempty"`
}

// ComplaintFilter narrows List queries. Filters are conjunctive.
type ComplaintFilter struct {
	Status   string
	Priority string
	Limit    int
	Offset   int
}

// StatusHistoryEntry is an append-only audit record of a status change.
type StatusHistoryEntry struct {
	ID              int       `json:"id" db:"id"`
	ComplaintID     int       `json:"complaint_id" db:"complaint_id"`
	Status          string    `json:"status" db:"status"`
	ChangedByUserID int       `json:"changed_by_user_id" db:"changed_by_user_id"`
	Notes           string    `json:"notes,omitempty" db:"notes"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}

// Worker is a sanitation worker profile referenced by complaints.
type Worker struct {
	ID            int            `json:"id" db:"id"`
	UserID        int            `json:"user_id" db:"user_id"`
	FullName      string         `json:"full_name" db:"full_name"`
	Phone         string         `json:"phone,omitempty" db:"phone"`
	VehicleNumber string         `json:"vehicle_number,omitempty" db:"vehicle_number"`
	AreaAssigned  string         `json:"area_assigned,omitempty" db:"area_assigned"`
	Status        string         `json:"status" db:"status"`
	Profile       map[string]any `json:"profile_data,omitempty" db:"profile_data"`
	Email         string         `json:"email,omitempty" db:"email"`
}

// Identity is the composed result of a successful authentication.
type Identity struct {
	UserID    int    `json:"user_id"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	ProfileID int    `json:"profile_id"`
	FullName  string `json:"full_name"`
}

// RegisterRequest is the request body for citizen self-registration.
type RegisterRequest struct {
	Email    string         `json:"email"`
	Password string         `json:"password"`
	FullName string         `json:"full_name"`
	Phone    string         `json:"phone,omitempty"`
	Address  string         `json:"address,omitempty"`
	Profile  map[string]any `json:"profile_data,omitempty"`
}

// RegisterWorkerRequest is the admin-only request body for onboarding a worker.
type RegisterWorkerRequest struct {
	Email         string         `json:"email"`
	Password      string         `json:"password"`
	FullName      string         `json:"full_name"`
	Phone         string         `json:"phone,omitempty"`
	VehicleNumber string         `json:"vehicle_number,omitempty"`
	AreaAssigned  string         `json:"area_assigned,omitempty"`
	Profile       map[string]any `json:"profile_data,omitempty"`
}

// RegisterAdminRequest is the admin-only request body for onboarding
// another admin. Permissions are stored compressed like every other opaque
// payload.
type RegisterAdminRequest struct {
	Email       string   `json:"email"`
	Password    string   `json:"password"`
	FullName    string   `json:"full_name"`
	Phone       string   `json:"phone,omitempty"`
	Role        string   `json:"role,omitempty"`
	Permissions []string `json:"permissions,omitempty"`
}

// LoginRequest is the request body for all three portals.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ComplaintUpdate is the PATCH body: workerId triggers assignment, status
// triggers a status change. The acting user comes from the session token.
type ComplaintUpdate struct {
	WorkerID *int   `json:"worker_id,omitempty"`
	Status   string `json:"status,omitempty"`
	Notes    string `json:"notes,omitempty"`
}

// StatusCount aggregates complaints per lifecycle status.
type StatusCount struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

// PriorityCount aggregates complaints per priority.
type PriorityCount struct {
	Priority string `json:"priority"`
	Count    int    `json:"count"`
}

// DailyCount is one day of complaint submissions.
type DailyCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// ComplaintStats is the admin dashboard aggregate view.
type ComplaintStats struct {
	ByStatus   []StatusCount   `json:"by_status"`
	ByPriority []PriorityCount `json:"by_priority"`
	Daily      []DailyCount    `json:"daily"`
}

// HealthStatus represents the server health check response
type HealthStatus struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	Uptime   string `json:"uptime"`
	Database string `json:"database,omitempty"`
}
