package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/propmgr/apiserver/types"
)

const flatColumns = `id, number, floor, bedrooms, monthly_rent, occupied, created_at, updated_at`

// FlatRepository handles persistence for flats.
type FlatRepository struct {
	db *sql.DB
}

func NewFlatRepository(db *sql.DB) *FlatRepository {
	return &FlatRepository{db: db}
}

func (r *FlatRepository) List(ctx context.Context) ([]types.Flat, error) {
	const query = `SELECT ` + flatColumns + ` FROM flats ORDER BY number`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	flats := []types.Flat{}
	for rows.Next() {
		flat, err := scanFlat(rows)
		if err != nil {
			return nil, err
		}
		flats = append(flats, flat)
	}
	return flats, rows.Err()
}

func (r *FlatRepository) Get(ctx context.Context, id int) (types.Flat, error) {
	const query = `SELECT ` + flatColumns + ` FROM flats WHERE id = $1`
	flat, err := scanFlat(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Flat{}, ErrNotFound
		}
		return types.Flat{}, err
	}
	return flat, nil
}

func (r *FlatRepository) Create(ctx context.Context, flat types.Flat) (types.Flat, error) {
	now := time.Now()
	flat.CreatedAt = now
	flat.UpdatedAt = now

	const query = `
		INSERT INTO flats (number, floor, bedrooms, monthly_rent, occupied, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		flat.Number,
		flat.Floor,
		flat.Bedrooms,
		flat.MonthlyRent,
		flat.Occupied,
		flat.CreatedAt,
		flat.UpdatedAt,
	).Scan(&flat.ID); err != nil {
		return types.Flat{}, mapWriteError(err)
	}
	return flat, nil
}

func (r *FlatRepository) Update(ctx context.Context, flat types.Flat) (types.Flat, error) {
	flat.UpdatedAt = time.Now()

	const query = `
		UPDATE flats
		SET number = $1,
			floor = $2,
			bedrooms = $3,
			monthly_rent = $4,
			occupied = $5,
			updated_at = $6
		WHERE id = $7`
	result, err := r.db.ExecContext(
		ctx,
		query,
		flat.Number,
		flat.Floor,
		flat.Bedrooms,
		flat.MonthlyRent,
		flat.Occupied,
		flat.UpdatedAt,
		flat.ID,
	)
	if err != nil {
		return types.Flat{}, mapWriteError(err)
	}
	if err := expectAffected(result); err != nil {
		return types.Flat{}, err
	}
	return flat, nil
}

func (r *FlatRepository) Delete(ctx context.Context, id int) error {
	const query = `DELETE FROM flats WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	return expectAffected(result)
}

func scanFlat(row rowScanner) (types.Flat, error) {
	var flat types.Flat
	err := row.Scan(
		&flat.ID,
		&flat.Number,
		&flat.Floor,
		&flat.Bedrooms,
		&flat.MonthlyRent,
		&flat.Occupied,
		&flat.CreatedAt,
		&flat.UpdatedAt,
	)
	return flat, err
}
