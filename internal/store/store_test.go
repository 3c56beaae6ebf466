package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/propmgr/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapWriteError(t *testing.T) {
	unique := &pq.Error{Code: "23505", Constraint: "accounts_email_key"}
	assert.ErrorIs(t, mapWriteError(unique), ErrConflict)
	assert.ErrorIs(t, mapWriteError(fmt.Errorf("insert: %w", unique)), ErrConflict)

	fk := &pq.Error{Code: "23503", Constraint: "payments_flat_id_fkey"}
	assert.ErrorIs(t, mapWriteError(fk), ErrInvalidReference)
	assert.Contains(t, mapWriteError(fk).Error(), "payments_flat_id_fkey")

	check := &pq.Error{Code: "23514"}
	assert.Equal(t, check, mapWriteError(check))

	other := errors.New("connection reset")
	assert.Equal(t, other, mapWriteError(other))
}

func TestOwnerQueriesCoverTenantScopedResources(t *testing.T) {
	for _, kind := range []string{"tenant", "payment", "complaint", "document"} {
		assert.Contains(t, ownerQueries, kind)
	}
}

func TestOwnerAccountIDUnknownKind(t *testing.T) {
	repo := NewOwnershipRepository(nil)

	_, err := repo.OwnerAccountID(context.Background(), "flat", 1)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

type fakeRow struct {
	values []any
}

func (f fakeRow) Scan(dest ...any) error {
	if len(dest) != len(f.values) {
		return fmt.Errorf("scan: want %d columns, got %d", len(dest), len(f.values))
	}
	for i, value := range f.values {
		switch d := dest[i].(type) {
		case *int:
			*d = value.(int)
		case *string:
			*d = value.(string)
		case *time.Time:
			*d = value.(time.Time)
		case *types.ComplaintStatus:
			*d = types.ComplaintStatus(value.(string))
		case *sql.NullString:
			if value == nil {
				*d = sql.NullString{}
			} else {
				*d = sql.NullString{String: value.(string), Valid: true}
			}
		case *sql.NullInt64:
			if value == nil {
				*d = sql.NullInt64{}
			} else {
				*d = sql.NullInt64{Int64: value.(int64), Valid: true}
			}
		case *sql.NullTime:
			if value == nil {
				*d = sql.NullTime{}
			} else {
				*d = sql.NullTime{Time: value.(time.Time), Valid: true}
			}
		default:
			return fmt.Errorf("scan: unsupported destination %T", dest[i])
		}
	}
	return nil
}

func TestScanTenantLeaseDates(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	open, err := scanTenant(fakeRow{values: []any{1, 10, 3, now, nil, "555-0100", now, now}})
	require.NoError(t, err)
	require.NotNil(t, open.LeaseStart)
	assert.Equal(t, now, *open.LeaseStart)
	assert.Nil(t, open.LeaseEnd)
	assert.Equal(t, 10, open.AccountID)

	unset, err := scanTenant(fakeRow{values: []any{2, 11, 3, nil, nil, "", now, now}})
	require.NoError(t, err)
	assert.Nil(t, unset.LeaseStart)
	assert.Nil(t, unset.LeaseEnd)
}

type fakeResult struct {
	affected int64
	err      error
}

func (f fakeResult) LastInsertId() (int64, error) { return 0, nil }
func (f fakeResult) RowsAffected() (int64, error) { return f.affected, f.err }

func TestExpectAffected(t *testing.T) {
	assert.NoError(t, expectAffected(fakeResult{affected: 1}))
	assert.ErrorIs(t, expectAffected(fakeResult{}), ErrNotFound)

	boom := errors.New("driver does not support RowsAffected")
	assert.ErrorIs(t, expectAffected(fakeResult{err: boom}), boom)
}

func TestPaymentFilterWhere(t *testing.T) {
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	where := PaymentFilter{}.where()
	assert.Empty(t, where.String())
	assert.Empty(t, where.args)

	where = PaymentFilter{
		TenantID:  7,
		Statuses:  []types.PaymentStatus{types.PaymentPending, types.PaymentOverdue},
		DueFrom:   from,
		DueBefore: to,
	}.where()
	assert.Equal(t, " WHERE tenant_id = $1 AND status = ANY($2) AND due_date >= $3 AND due_date < $4", where.String())
	assert.Equal(t, []any{7, pq.Array([]string{"PENDING", "OVERDUE"}), from, to}, where.args)

	where = PaymentFilter{FlatID: 2, Type: "RENT"}.where()
	assert.Equal(t, " WHERE flat_id = $1 AND type = $2", where.String())
	assert.Equal(t, []any{2, "RENT"}, where.args)
}

func TestComplaintFilterWhere(t *testing.T) {
	where := ComplaintFilter{
		Priority: types.PriorityUrgent,
		Statuses: []types.ComplaintStatus{types.ComplaintOpen, types.ComplaintInProgress},
	}.where()
	assert.Equal(t, " WHERE priority = $1 AND status = ANY($2)", where.String())

	where = ComplaintFilter{FlatID: 3, AssignedTo: 5}.where()
	assert.Equal(t, " WHERE flat_id = $1 AND assigned_to = $2", where.String())
	assert.Equal(t, []any{3, 5}, where.args)
}

func TestDocumentFilterWhereJoinsFlat(t *testing.T) {
	where := DocumentFilter{FlatID: 3, Type: "LEASE"}.where()
	assert.Equal(t, " WHERE tenant_id IN (SELECT id FROM tenants WHERE flat_id = $1) AND type = $2", where.String())
	assert.Equal(t, []any{3, "LEASE"}, where.args)
}

func TestTenantFilterWhere(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	where := TenantFilter{ActiveAt: now}.where()
	assert.Equal(t, " WHERE (lease_start IS NULL OR lease_start <= $1) AND (lease_end IS NULL OR lease_end >= $2)", where.String())
	assert.Equal(t, []any{now, now}, where.args)

	where = TenantFilter{LeaseEndFrom: now, LeaseEndBefore: now.AddDate(0, 0, 30)}.where()
	assert.Equal(t, " WHERE lease_end >= $1 AND lease_end < $2", where.String())
}

func TestScanComplaintAssignee(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	base := []any{1, 7, 2, "Leak", "Kitchen tap", "OPEN", "HIGH"}

	unassigned, err := scanComplaint(fakeRow{values: append(append([]any{}, base...), nil, nil, now, now)})
	require.NoError(t, err)
	assert.Nil(t, unassigned.AssignedTo)
	assert.Empty(t, unassigned.Resolution)

	assigned, err := scanComplaint(fakeRow{values: append(append([]any{}, base...), "fixed", int64(4), now, now)})
	require.NoError(t, err)
	require.NotNil(t, assigned.AssignedTo)
	assert.Equal(t, 4, *assigned.AssignedTo)
	assert.Equal(t, "fixed", assigned.Resolution)
}
