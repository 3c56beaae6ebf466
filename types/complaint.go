package types

import "time"

// ComplaintStatus is the lifecycle state of a complaint.
type ComplaintStatus string

const (
	ComplaintOpen       ComplaintStatus = "OPEN"
	ComplaintInProgress ComplaintStatus = "IN_PROGRESS"
	ComplaintResolved   ComplaintStatus = "RESOLVED"
	ComplaintClosed     ComplaintStatus = "CLOSED"
)

// Complaint priorities, lowest first.
const (
	PriorityLow    = "LOW"
	PriorityMedium = "MEDIUM"
	PriorityHigh   = "HIGH"
	PriorityUrgent = "URGENT"
)

// ValidPriority reports whether p is one of the known priorities.
func ValidPriority(p string) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	default:
		return false
	}
}

// Unresolved reports whether s still needs staff attention.
func (s ComplaintStatus) Unresolved() bool {
	return s == ComplaintOpen || s == ComplaintInProgress
}

// Complaint is a maintenance or service issue raised by a tenant.
type Complaint struct {
	ID          int             `json:"id" db:"id"`
	TenantID    int             `json:"tenant_id" db:"tenant_id"`
	FlatID      int             `json:"flat_id" db:"flat_id"`
	Title       string          `json:"title" db:"title"`
	Description string          `json:"description" db:"description"`
	Status      ComplaintStatus `json:"status" db:"status"`
	Priority    string          `json:"priority" db:"priority"`
	Resolution  string          `json:"resolution,omitempty" db:"resolution"`

	// AssignedTo is the staff account handling the complaint, if any.
	AssignedTo *int `json:"assigned_to,omitempty" db:"assigned_to"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
