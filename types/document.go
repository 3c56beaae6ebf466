package types

import "time"

// Document is an uploaded file attached to a tenancy.
type Document struct {
	ID          int       `json:"id" db:"id"`
	TenantID    int       `json:"tenant_id" db:"tenant_id"`
	Name        string    `json:"name" db:"name"`
	Type        string    `json:"type" db:"type"`
	ContentType string    `json:"content_type" db:"content_type"`
	Size        int64     `json:"size" db:"size"`
	ObjectKey   string    `json:"-" db:"object_key"`
	Verified    bool      `json:"verified" db:"verified"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}
