package types

import "time"

// PaymentStatus is the lifecycle state of a payment.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "PENDING"
	PaymentCompleted PaymentStatus = "COMPLETED"
	PaymentOverdue   PaymentStatus = "OVERDUE"
	PaymentFailed    PaymentStatus = "FAILED"
	PaymentRefunded  PaymentStatus = "REFUNDED"
	PaymentCancelled PaymentStatus = "CANCELLED"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentCompleted, PaymentOverdue, PaymentFailed, PaymentRefunded, PaymentCancelled:
		return true
	default:
		return false
	}
}

// Payment is a charge owed or settled by a tenant.
type Payment struct {
	ID          int           `json:"id" db:"id"`
	TenantID    int           `json:"tenant_id" db:"tenant_id"`
	FlatID      int           `json:"flat_id" db:"flat_id"`
	Amount      float64       `json:"amount" db:"amount"`
	Type        string        `json:"type" db:"type"`
	Status      PaymentStatus `json:"status" db:"status"`
	DueDate     time.Time     `json:"due_date" db:"due_date"`
	PaidAt      *time.Time    `json:"paid_at,omitempty" db:"paid_at"`
	Description string        `json:"description" db:"description"`
	CreatedAt   time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at" db:"updated_at"`
}
