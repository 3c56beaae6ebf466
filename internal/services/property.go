package services

import (
	"context"
	"errors"
	"time"

	"github.com/propmgr/apiserver/internal/store"
	"github.com/propmgr/apiserver/types"
)

// ErrInvalid is returned for requests that fail business validation.
var ErrInvalid = errors.New("invalid request")

// FlatRepository defines persistence operations for flats.
type FlatRepository interface {
	List(ctx context.Context) ([]types.Flat, error)
	Get(ctx context.Context, id int) (types.Flat, error)
	Create(ctx context.Context, flat types.Flat) (types.Flat, error)
	Update(ctx context.Context, flat types.Flat) (types.Flat, error)
	Delete(ctx context.Context, id int) error
}

// TenantRepository defines persistence operations for tenancy records.
type TenantRepository interface {
	List(ctx context.Context) ([]types.Tenant, error)
	ListByFlat(ctx context.Context, flatID int) ([]types.Tenant, error)
	Find(ctx context.Context, filter store.TenantFilter) ([]types.Tenant, error)
	Get(ctx context.Context, id int) (types.Tenant, error)
	GetByAccountID(ctx context.Context, accountID int) (types.Tenant, error)
	Create(ctx context.Context, tenant types.Tenant) (types.Tenant, error)
	Update(ctx context.Context, tenant types.Tenant) (types.Tenant, error)
	Delete(ctx context.Context, id int) error
}

// FlatService encapsulates flat use-cases.
type FlatService struct {
	repo FlatRepository
}

func NewFlatService(repo FlatRepository) *FlatService {
	return &FlatService{repo: repo}
}

func (s *FlatService) List(ctx context.Context) ([]types.Flat, error) {
	return s.repo.List(ctx)
}

func (s *FlatService) Get(ctx context.Context, id int) (types.Flat, error) {
	return s.repo.Get(ctx, id)
}

func (s *FlatService) Create(ctx context.Context, flat types.Flat) (types.Flat, error) {
	if flat.Number == "" {
		return types.Flat{}, errors.Join(ErrInvalid, errors.New("flat number is required"))
	}
	return s.repo.Create(ctx, flat)
}

func (s *FlatService) Update(ctx context.Context, flat types.Flat) (types.Flat, error) {
	return s.repo.Update(ctx, flat)
}

func (s *FlatService) Delete(ctx context.Context, id int) error {
	return s.repo.Delete(ctx, id)
}

// DefaultExpiringDays is the look-ahead ListExpiring uses when none is given.
const DefaultExpiringDays = 30

// TenantService encapsulates tenancy use-cases.
type TenantService struct {
	repo  TenantRepository
	flats FlatRepository
	now   func() time.Time
}

func NewTenantService(repo TenantRepository, flats FlatRepository) *TenantService {
	return &TenantService{repo: repo, flats: flats, now: time.Now}
}

func (s *TenantService) List(ctx context.Context) ([]types.Tenant, error) {
	return s.repo.List(ctx)
}

func (s *TenantService) ListByFlat(ctx context.Context, flatID int) ([]types.Tenant, error) {
	return s.repo.ListByFlat(ctx, flatID)
}

// ListActive lists tenancies whose lease covers the current time.
func (s *TenantService) ListActive(ctx context.Context) ([]types.Tenant, error) {
	return s.repo.Find(ctx, store.TenantFilter{ActiveAt: s.now()})
}

// ListExpiring lists tenancies whose lease ends within the next days.
func (s *TenantService) ListExpiring(ctx context.Context, days int) ([]types.Tenant, error) {
	if days < 1 {
		return nil, errors.Join(ErrInvalid, errors.New("days must be positive"))
	}
	now := s.now()
	return s.repo.Find(ctx, store.TenantFilter{LeaseEndFrom: now, LeaseEndBefore: now.AddDate(0, 0, days)})
}

func (s *TenantService) Get(ctx context.Context, id int) (types.Tenant, error) {
	return s.repo.Get(ctx, id)
}

// ForAccount returns the tenancy record owned by accountID.
func (s *TenantService) ForAccount(ctx context.Context, accountID int) (types.Tenant, error) {
	return s.repo.GetByAccountID(ctx, accountID)
}

func (s *TenantService) Create(ctx context.Context, tenant types.Tenant) (types.Tenant, error) {
	if err := s.validate(ctx, tenant); err != nil {
		return types.Tenant{}, err
	}
	return s.repo.Create(ctx, tenant)
}

func (s *TenantService) Update(ctx context.Context, tenant types.Tenant) (types.Tenant, error) {
	if err := s.validate(ctx, tenant); err != nil {
		return types.Tenant{}, err
	}
	return s.repo.Update(ctx, tenant)
}

func (s *TenantService) Delete(ctx context.Context, id int) error {
	return s.repo.Delete(ctx, id)
}

func (s *TenantService) validate(ctx context.Context, tenant types.Tenant) error {
	if tenant.AccountID < 1 || tenant.FlatID < 1 {
		return errors.Join(ErrInvalid, errors.New("account_id and flat_id are required"))
	}
	if tenant.LeaseStart != nil && tenant.LeaseEnd != nil && tenant.LeaseEnd.Before(*tenant.LeaseStart) {
		return errors.Join(ErrInvalid, errors.New("lease_end must not precede lease_start"))
	}
	if _, err := s.flats.Get(ctx, tenant.FlatID); err != nil {
		return err
	}
	return nil
}
