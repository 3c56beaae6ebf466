package types

import "time"

// Flat is a rentable unit in a building.
type Flat struct {
	ID          int       `json:"id" db:"id"`
	Number      string    `json:"number" db:"number"`
	Floor       int       `json:"floor" db:"floor"`
	Bedrooms    int       `json:"bedrooms" db:"bedrooms"`
	MonthlyRent float64   `json:"monthly_rent" db:"monthly_rent"`
	Occupied    bool      `json:"occupied" db:"occupied"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// Tenant links an account to the flat it rents.
type Tenant struct {
	// ID is the tenant record identifier used by payments, complaints and documents.
	ID int `json:"id" db:"id"`

	// AccountID is the account that owns this tenancy.
	AccountID int `json:"account_id" db:"account_id"`

	// FlatID is the rented flat.
	FlatID int `json:"flat_id" db:"flat_id"`

	LeaseStart *time.Time `json:"lease_start,omitempty" db:"lease_start"`
	LeaseEnd   *time.Time `json:"lease_end,omitempty" db:"lease_end"`
	Phone      string     `json:"phone" db:"phone"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at" db:"updated_at"`
}
