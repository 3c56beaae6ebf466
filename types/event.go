package types

import "time"

// Account event types.
const (
	AccountRegistered      = "account.registered"
	AccountAdminReconciled = "account.admin_reconciled"
)

// AccountEvent is published when an account is created or repaired.
type AccountEvent struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	AccountID  int       `json:"account_id"`
	Email      string    `json:"email"`
	Role       Role      `json:"role"`
	OccurredAt time.Time `json:"occurred_at"`
}
