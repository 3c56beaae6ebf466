package services

import (
	"context"
	"errors"
	"strings"

	"github.com/propmgr/apiserver/internal/store"
	"github.com/propmgr/apiserver/types"
)

var unresolved = []types.ComplaintStatus{types.ComplaintOpen, types.ComplaintInProgress}

// ComplaintRepository defines persistence operations for complaints.
type ComplaintRepository interface {
	List(ctx context.Context) ([]types.Complaint, error)
	ListByTenant(ctx context.Context, tenantID int) ([]types.Complaint, error)
	Find(ctx context.Context, filter store.ComplaintFilter) ([]types.Complaint, error)
	Get(ctx context.Context, id int) (types.Complaint, error)
	Create(ctx context.Context, complaint types.Complaint) (types.Complaint, error)
	Update(ctx context.Context, complaint types.Complaint) (types.Complaint, error)
	UpdateStatus(ctx context.Context, id int, status types.ComplaintStatus, resolution string) error
	Delete(ctx context.Context, id int) error
}

// ComplaintService encapsulates complaint use-cases.
type ComplaintService struct {
	repo    ComplaintRepository
	tenants TenantRepository
}

func NewComplaintService(repo ComplaintRepository, tenants TenantRepository) *ComplaintService {
	return &ComplaintService{repo: repo, tenants: tenants}
}

func (s *ComplaintService) List(ctx context.Context) ([]types.Complaint, error) {
	return s.repo.List(ctx)
}

func (s *ComplaintService) ListByTenant(ctx context.Context, tenantID int) ([]types.Complaint, error) {
	return s.repo.ListByTenant(ctx, tenantID)
}

func (s *ComplaintService) ListByFlat(ctx context.Context, flatID int) ([]types.Complaint, error) {
	return s.repo.Find(ctx, store.ComplaintFilter{FlatID: flatID})
}

func (s *ComplaintService) ListByPriority(ctx context.Context, priority string) ([]types.Complaint, error) {
	priority, err := normalizePriority(priority)
	if err != nil {
		return nil, err
	}
	return s.repo.Find(ctx, store.ComplaintFilter{Priority: priority})
}

// ListOpen lists complaints nobody has started on yet.
func (s *ComplaintService) ListOpen(ctx context.Context) ([]types.Complaint, error) {
	return s.repo.Find(ctx, store.ComplaintFilter{Statuses: []types.ComplaintStatus{types.ComplaintOpen}})
}

// ListUrgent lists unresolved complaints of URGENT priority.
func (s *ComplaintService) ListUrgent(ctx context.Context) ([]types.Complaint, error) {
	return s.repo.Find(ctx, store.ComplaintFilter{Priority: types.PriorityUrgent, Statuses: unresolved})
}

// ListAssigned lists complaints assigned to a staff account.
func (s *ComplaintService) ListAssigned(ctx context.Context, accountID int) ([]types.Complaint, error) {
	return s.repo.Find(ctx, store.ComplaintFilter{AssignedTo: accountID})
}

func (s *ComplaintService) Get(ctx context.Context, id int) (types.Complaint, error) {
	return s.repo.Get(ctx, id)
}

// Create opens a complaint against the tenant's flat.
func (s *ComplaintService) Create(ctx context.Context, complaint types.Complaint) (types.Complaint, error) {
	complaint.Title = strings.TrimSpace(complaint.Title)
	complaint.Description = strings.TrimSpace(complaint.Description)
	if complaint.Title == "" || complaint.Description == "" {
		return types.Complaint{}, errors.Join(ErrInvalid, errors.New("title and description are required"))
	}
	tenant, err := s.tenants.Get(ctx, complaint.TenantID)
	if err != nil {
		return types.Complaint{}, err
	}
	if complaint.FlatID == 0 {
		complaint.FlatID = tenant.FlatID
	}
	complaint.Status = types.ComplaintOpen
	if complaint.Priority == "" {
		complaint.Priority = types.PriorityMedium
	}
	if complaint.Priority, err = normalizePriority(complaint.Priority); err != nil {
		return types.Complaint{}, err
	}
	return s.repo.Create(ctx, complaint)
}

// Update edits title, description, priority and assignee. Omitted fields
// keep the stored values; an assignee of 0 clears the assignment.
func (s *ComplaintService) Update(ctx context.Context, id int, changes types.Complaint) (types.Complaint, error) {
	complaint, err := s.repo.Get(ctx, id)
	if err != nil {
		return types.Complaint{}, err
	}
	if title := strings.TrimSpace(changes.Title); title != "" {
		complaint.Title = title
	}
	if description := strings.TrimSpace(changes.Description); description != "" {
		complaint.Description = description
	}
	if changes.Priority != "" {
		if complaint.Priority, err = normalizePriority(changes.Priority); err != nil {
			return types.Complaint{}, err
		}
	}
	if changes.AssignedTo != nil {
		complaint.AssignedTo = nil
		if assignee := *changes.AssignedTo; assignee > 0 {
			complaint.AssignedTo = &assignee
		}
	}
	return s.repo.Update(ctx, complaint)
}

func (s *ComplaintService) UpdateStatus(ctx context.Context, id int, status types.ComplaintStatus, resolution string) error {
	switch status {
	case types.ComplaintOpen, types.ComplaintInProgress, types.ComplaintResolved, types.ComplaintClosed:
	default:
		return errors.Join(ErrInvalid, errors.New("unknown complaint status"))
	}
	return s.repo.UpdateStatus(ctx, id, status, strings.TrimSpace(resolution))
}

func (s *ComplaintService) Delete(ctx context.Context, id int) error {
	return s.repo.Delete(ctx, id)
}

func normalizePriority(priority string) (string, error) {
	priority = strings.ToUpper(strings.TrimSpace(priority))
	if !types.ValidPriority(priority) {
		return "", errors.Join(ErrInvalid, errors.New("unknown complaint priority"))
	}
	return priority, nil
}
