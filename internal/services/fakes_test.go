package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/propmgr/apiserver/internal/storage"
	"github.com/propmgr/apiserver/internal/store"
	"github.com/propmgr/apiserver/types"
)

type memFlats struct {
	rows map[int]types.Flat
}

func (m *memFlats) List(context.Context) ([]types.Flat, error) {
	out := make([]types.Flat, 0, len(m.rows))
	for _, row := range m.rows {
		out = append(out, row)
	}
	return out, nil
}

func (m *memFlats) Get(_ context.Context, id int) (types.Flat, error) {
	row, ok := m.rows[id]
	if !ok {
		return types.Flat{}, store.ErrNotFound
	}
	return row, nil
}

func (m *memFlats) Create(_ context.Context, flat types.Flat) (types.Flat, error) {
	flat.ID = len(m.rows) + 1
	m.rows[flat.ID] = flat
	return flat, nil
}

func (m *memFlats) Update(_ context.Context, flat types.Flat) (types.Flat, error) {
	if _, ok := m.rows[flat.ID]; !ok {
		return types.Flat{}, store.ErrNotFound
	}
	m.rows[flat.ID] = flat
	return flat, nil
}

func (m *memFlats) Delete(_ context.Context, id int) error {
	delete(m.rows, id)
	return nil
}

type memTenants struct {
	rows map[int]types.Tenant
}

func (m *memTenants) List(context.Context) ([]types.Tenant, error) { return nil, nil }

func (m *memTenants) ListByFlat(context.Context, int) ([]types.Tenant, error) { return nil, nil }

func (m *memTenants) Find(_ context.Context, f store.TenantFilter) ([]types.Tenant, error) {
	out := []types.Tenant{}
	for _, row := range m.rows {
		if f.FlatID != 0 && row.FlatID != f.FlatID {
			continue
		}
		if !f.ActiveAt.IsZero() {
			if row.LeaseStart != nil && row.LeaseStart.After(f.ActiveAt) {
				continue
			}
			if row.LeaseEnd != nil && row.LeaseEnd.Before(f.ActiveAt) {
				continue
			}
		}
		if !f.LeaseEndFrom.IsZero() && (row.LeaseEnd == nil || row.LeaseEnd.Before(f.LeaseEndFrom)) {
			continue
		}
		if !f.LeaseEndBefore.IsZero() && (row.LeaseEnd == nil || !row.LeaseEnd.Before(f.LeaseEndBefore)) {
			continue
		}
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memTenants) Get(_ context.Context, id int) (types.Tenant, error) {
	row, ok := m.rows[id]
	if !ok {
		return types.Tenant{}, store.ErrNotFound
	}
	return row, nil
}

func (m *memTenants) GetByAccountID(_ context.Context, accountID int) (types.Tenant, error) {
	for _, row := range m.rows {
		if row.AccountID == accountID {
			return row, nil
		}
	}
	return types.Tenant{}, store.ErrNotFound
}

func (m *memTenants) Create(_ context.Context, tenant types.Tenant) (types.Tenant, error) {
	tenant.ID = len(m.rows) + 1
	m.rows[tenant.ID] = tenant
	return tenant, nil
}

func (m *memTenants) Update(_ context.Context, tenant types.Tenant) (types.Tenant, error) {
	m.rows[tenant.ID] = tenant
	return tenant, nil
}

func (m *memTenants) Delete(_ context.Context, id int) error {
	delete(m.rows, id)
	return nil
}

type memPayments struct {
	rows     map[int]types.Payment
	statuses map[int]types.PaymentStatus
	paidAt   map[int]*time.Time
}

func newMemPayments() *memPayments {
	return &memPayments{
		rows:     map[int]types.Payment{},
		statuses: map[int]types.PaymentStatus{},
		paidAt:   map[int]*time.Time{},
	}
}

func (m *memPayments) List(context.Context) ([]types.Payment, error) { return nil, nil }

func (m *memPayments) ListByTenant(context.Context, int) ([]types.Payment, error) { return nil, nil }

func (m *memPayments) ListByStatus(context.Context, types.PaymentStatus) ([]types.Payment, error) {
	return nil, nil
}

func (m *memPayments) Find(_ context.Context, f store.PaymentFilter) ([]types.Payment, error) {
	out := []types.Payment{}
	for _, row := range m.rows {
		switch {
		case f.TenantID != 0 && row.TenantID != f.TenantID,
			f.FlatID != 0 && row.FlatID != f.FlatID,
			f.Type != "" && row.Type != f.Type,
			len(f.Statuses) > 0 && !slices.Contains(f.Statuses, row.Status),
			!f.DueFrom.IsZero() && row.DueDate.Before(f.DueFrom),
			!f.DueBefore.IsZero() && !row.DueDate.Before(f.DueBefore):
			continue
		}
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memPayments) Update(_ context.Context, payment types.Payment) (types.Payment, error) {
	if _, ok := m.rows[payment.ID]; !ok {
		return types.Payment{}, store.ErrNotFound
	}
	m.rows[payment.ID] = payment
	return payment, nil
}

func (m *memPayments) Get(_ context.Context, id int) (types.Payment, error) {
	row, ok := m.rows[id]
	if !ok {
		return types.Payment{}, store.ErrNotFound
	}
	return row, nil
}

func (m *memPayments) Create(_ context.Context, payment types.Payment) (types.Payment, error) {
	payment.ID = len(m.rows) + 1
	m.rows[payment.ID] = payment
	return payment, nil
}

func (m *memPayments) UpdateStatus(_ context.Context, id int, status types.PaymentStatus, paidAt *time.Time) error {
	if _, ok := m.rows[id]; !ok {
		return store.ErrNotFound
	}
	m.statuses[id] = status
	m.paidAt[id] = paidAt
	return nil
}

func (m *memPayments) Delete(_ context.Context, id int) error {
	delete(m.rows, id)
	return nil
}

type memComplaints struct {
	rows map[int]types.Complaint
}

func (m *memComplaints) List(context.Context) ([]types.Complaint, error) { return nil, nil }

func (m *memComplaints) ListByTenant(context.Context, int) ([]types.Complaint, error) {
	return nil, nil
}

func (m *memComplaints) Find(_ context.Context, f store.ComplaintFilter) ([]types.Complaint, error) {
	out := []types.Complaint{}
	for _, row := range m.rows {
		switch {
		case f.TenantID != 0 && row.TenantID != f.TenantID,
			f.FlatID != 0 && row.FlatID != f.FlatID,
			f.Priority != "" && row.Priority != f.Priority,
			len(f.Statuses) > 0 && !slices.Contains(f.Statuses, row.Status),
			f.AssignedTo != 0 && (row.AssignedTo == nil || *row.AssignedTo != f.AssignedTo):
			continue
		}
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memComplaints) Update(_ context.Context, complaint types.Complaint) (types.Complaint, error) {
	if _, ok := m.rows[complaint.ID]; !ok {
		return types.Complaint{}, store.ErrNotFound
	}
	m.rows[complaint.ID] = complaint
	return complaint, nil
}

func (m *memComplaints) Get(_ context.Context, id int) (types.Complaint, error) {
	row, ok := m.rows[id]
	if !ok {
		return types.Complaint{}, store.ErrNotFound
	}
	return row, nil
}

func (m *memComplaints) Create(_ context.Context, complaint types.Complaint) (types.Complaint, error) {
	complaint.ID = len(m.rows) + 1
	m.rows[complaint.ID] = complaint
	return complaint, nil
}

func (m *memComplaints) UpdateStatus(_ context.Context, id int, status types.ComplaintStatus, resolution string) error {
	row, ok := m.rows[id]
	if !ok {
		return store.ErrNotFound
	}
	row.Status = status
	row.Resolution = resolution
	m.rows[id] = row
	return nil
}

func (m *memComplaints) Delete(_ context.Context, id int) error {
	delete(m.rows, id)
	return nil
}

type memDocuments struct {
	rows      map[int]types.Document
	tenants   *memTenants
	createErr error
}

func (m *memDocuments) List(context.Context) ([]types.Document, error) { return nil, nil }

func (m *memDocuments) ListByTenant(context.Context, int) ([]types.Document, error) {
	return nil, nil
}

func (m *memDocuments) Find(_ context.Context, f store.DocumentFilter) ([]types.Document, error) {
	out := []types.Document{}
	for _, row := range m.rows {
		if f.TenantID != 0 && row.TenantID != f.TenantID {
			continue
		}
		if f.FlatID != 0 && (m.tenants == nil || m.tenants.rows[row.TenantID].FlatID != f.FlatID) {
			continue
		}
		if f.Type != "" && row.Type != f.Type {
			continue
		}
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memDocuments) Rename(_ context.Context, id int, name, docType string) error {
	row, ok := m.rows[id]
	if !ok {
		return store.ErrNotFound
	}
	row.Name = name
	row.Type = docType
	m.rows[id] = row
	return nil
}

func (m *memDocuments) Get(_ context.Context, id int) (types.Document, error) {
	row, ok := m.rows[id]
	if !ok {
		return types.Document{}, store.ErrNotFound
	}
	return row, nil
}

func (m *memDocuments) Create(_ context.Context, document types.Document) (types.Document, error) {
	if m.createErr != nil {
		return types.Document{}, m.createErr
	}
	document.ID = len(m.rows) + 1
	m.rows[document.ID] = document
	return document, nil
}

func (m *memDocuments) SetVerified(_ context.Context, id int, verified bool) error {
	row, ok := m.rows[id]
	if !ok {
		return store.ErrNotFound
	}
	row.Verified = verified
	m.rows[id] = row
	return nil
}

func (m *memDocuments) Delete(_ context.Context, id int) error {
	if _, ok := m.rows[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

type memObjects struct {
	mu      sync.Mutex
	objects map[string][]byte
	kinds   map[string]string
}

func newMemObjects() *memObjects {
	return &memObjects{objects: map[string][]byte{}, kinds: map[string]string{}}
}

func (m *memObjects) Put(_ context.Context, key string, r io.Reader, _ int64, contentType string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	m.kinds[key] = contentType
	return nil
}

func (m *memObjects) Get(_ context.Context, key string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, storage.ErrObjectNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *memObjects) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

var errDiskFull = errors.New("disk full")
