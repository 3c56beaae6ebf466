package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/propmgr/apiserver/internal/store"
	"github.com/propmgr/apiserver/types"
)

// PaymentRepository defines persistence operations for payments.
type PaymentRepository interface {
	List(ctx context.Context) ([]types.Payment, error)
	ListByTenant(ctx context.Context, tenantID int) ([]types.Payment, error)
	ListByStatus(ctx context.Context, status types.PaymentStatus) ([]types.Payment, error)
	Find(ctx context.Context, filter store.PaymentFilter) ([]types.Payment, error)
	Get(ctx context.Context, id int) (types.Payment, error)
	Create(ctx context.Context, payment types.Payment) (types.Payment, error)
	Update(ctx context.Context, payment types.Payment) (types.Payment, error)
	UpdateStatus(ctx context.Context, id int, status types.PaymentStatus, paidAt *time.Time) error
	Delete(ctx context.Context, id int) error
}

// PaymentService encapsulates payment use-cases.
type PaymentService struct {
	repo    PaymentRepository
	tenants TenantRepository
	now     func() time.Time
}

func NewPaymentService(repo PaymentRepository, tenants TenantRepository) *PaymentService {
	return &PaymentService{repo: repo, tenants: tenants, now: time.Now}
}

func (s *PaymentService) List(ctx context.Context) ([]types.Payment, error) {
	return s.repo.List(ctx)
}

func (s *PaymentService) ListByTenant(ctx context.Context, tenantID int) ([]types.Payment, error) {
	return s.repo.ListByTenant(ctx, tenantID)
}

func (s *PaymentService) ListByStatus(ctx context.Context, status types.PaymentStatus) ([]types.Payment, error) {
	return s.repo.ListByStatus(ctx, status)
}

func (s *PaymentService) ListByFlat(ctx context.Context, flatID int) ([]types.Payment, error) {
	return s.repo.Find(ctx, store.PaymentFilter{FlatID: flatID})
}

func (s *PaymentService) ListByType(ctx context.Context, paymentType string) ([]types.Payment, error) {
	paymentType = strings.ToUpper(strings.TrimSpace(paymentType))
	if paymentType == "" {
		return nil, errors.Join(ErrInvalid, errors.New("payment type is required"))
	}
	return s.repo.Find(ctx, store.PaymentFilter{Type: paymentType})
}

// ListDueBetween lists payments due in [from, to).
func (s *PaymentService) ListDueBetween(ctx context.Context, from, to time.Time) ([]types.Payment, error) {
	return s.ListTenantDueBetween(ctx, 0, from, to)
}

// ListTenantDueBetween lists one tenant's payments due in [from, to). A zero
// tenantID lists every tenant's.
func (s *PaymentService) ListTenantDueBetween(ctx context.Context, tenantID int, from, to time.Time) ([]types.Payment, error) {
	if from.IsZero() || to.IsZero() || !from.Before(to) {
		return nil, errors.Join(ErrInvalid, errors.New("start must precede end"))
	}
	return s.repo.Find(ctx, store.PaymentFilter{TenantID: tenantID, DueFrom: from, DueBefore: to})
}

// ListOverdue lists unsettled payments whose due date has passed.
func (s *PaymentService) ListOverdue(ctx context.Context) ([]types.Payment, error) {
	return s.repo.Find(ctx, store.PaymentFilter{
		Statuses:  []types.PaymentStatus{types.PaymentPending, types.PaymentOverdue},
		DueBefore: s.now(),
	})
}

func (s *PaymentService) Get(ctx context.Context, id int) (types.Payment, error) {
	return s.repo.Get(ctx, id)
}

// Create records a payment. The flat defaults to the tenant's flat.
func (s *PaymentService) Create(ctx context.Context, payment types.Payment) (types.Payment, error) {
	if payment.Amount <= 0 {
		return types.Payment{}, errors.Join(ErrInvalid, errors.New("amount must be positive"))
	}
	tenant, err := s.tenants.Get(ctx, payment.TenantID)
	if err != nil {
		return types.Payment{}, err
	}
	if payment.FlatID == 0 {
		payment.FlatID = tenant.FlatID
	}
	if payment.Status == "" {
		payment.Status = types.PaymentPending
	}
	if !payment.Status.Valid() {
		return types.Payment{}, errors.Join(ErrInvalid, errors.New("unknown payment status"))
	}
	payment.Type = strings.ToUpper(strings.TrimSpace(payment.Type))
	if payment.Type == "" {
		payment.Type = "RENT"
	}
	return s.repo.Create(ctx, payment)
}

// Update edits amount, type, due date, description and flat. Zero values
// keep the stored ones; the tenant and status never change here.
func (s *PaymentService) Update(ctx context.Context, id int, changes types.Payment) (types.Payment, error) {
	if changes.Amount < 0 {
		return types.Payment{}, errors.Join(ErrInvalid, errors.New("amount must be positive"))
	}
	payment, err := s.repo.Get(ctx, id)
	if err != nil {
		return types.Payment{}, err
	}
	if changes.Amount > 0 {
		payment.Amount = changes.Amount
	}
	if t := strings.ToUpper(strings.TrimSpace(changes.Type)); t != "" {
		payment.Type = t
	}
	if !changes.DueDate.IsZero() {
		payment.DueDate = changes.DueDate
	}
	if changes.FlatID != 0 {
		payment.FlatID = changes.FlatID
	}
	if changes.Description != "" {
		payment.Description = changes.Description
	}
	return s.repo.Update(ctx, payment)
}

// MarkPaid completes a payment and stamps the paid time.
func (s *PaymentService) MarkPaid(ctx context.Context, id int) error {
	paidAt := s.now()
	return s.repo.UpdateStatus(ctx, id, types.PaymentCompleted, &paidAt)
}

func (s *PaymentService) UpdateStatus(ctx context.Context, id int, status types.PaymentStatus) error {
	if !status.Valid() {
		return errors.Join(ErrInvalid, errors.New("unknown payment status"))
	}
	if status == types.PaymentCompleted {
		return s.MarkPaid(ctx, id)
	}
	return s.repo.UpdateStatus(ctx, id, status, nil)
}

func (s *PaymentService) Delete(ctx context.Context, id int) error {
	return s.repo.Delete(ctx, id)
}
