package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/propmgr/apiserver/types"
)

const accountColumns = `id, username, email, role, password_hash, created_at, updated_at`

// AccountRepository handles persistence for accounts.
type AccountRepository struct {
	db *sql.DB
}

func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) GetByID(ctx context.Context, id int) (types.Account, error) {
	const query = `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	return r.getOne(ctx, query, id)
}

func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (types.Account, error) {
	const query = `SELECT ` + accountColumns + ` FROM accounts WHERE email = $1`
	return r.getOne(ctx, query, email)
}

func (r *AccountRepository) GetByUsername(ctx context.Context, username string) (types.Account, error) {
	const query = `SELECT ` + accountColumns + ` FROM accounts WHERE username = $1`
	return r.getOne(ctx, query, username)
}

func (r *AccountRepository) List(ctx context.Context, offset, limit int) ([]types.Account, error) {
	const query = `SELECT ` + accountColumns + ` FROM accounts ORDER BY id LIMIT $1 OFFSET $2`
	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []types.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	return accounts, rows.Err()
}

// ExistsByEmail reports whether an account is registered under email.
func (r *AccountRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM accounts WHERE email = $1)`
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, email).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *AccountRepository) Create(ctx context.Context, account types.Account) (types.Account, error) {
	now := time.Now()
	account.CreatedAt = now
	account.UpdatedAt = now

	const query = `
		INSERT INTO accounts (username, email, role, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		account.Username,
		account.Email,
		account.Role,
		account.PasswordHash,
		account.CreatedAt,
		account.UpdatedAt,
	).Scan(&account.ID); err != nil {
		return types.Account{}, mapWriteError(err)
	}
	return account, nil
}

func (r *AccountRepository) Update(ctx context.Context, account types.Account) (types.Account, error) {
	account.UpdatedAt = time.Now()

	const query = `
		UPDATE accounts
		SET username = $1,
			email = $2,
			role = $3,
			password_hash = $4,
			updated_at = $5
		WHERE id = $6`
	result, err := r.db.ExecContext(
		ctx,
		query,
		account.Username,
		account.Email,
		account.Role,
		account.PasswordHash,
		account.UpdatedAt,
		account.ID,
	)
	if err != nil {
		return types.Account{}, mapWriteError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.Account{}, err
	}
	if affected == 0 {
		return types.Account{}, ErrNotFound
	}
	return account, nil
}

func (r *AccountRepository) getOne(ctx context.Context, query string, arg any) (types.Account, error) {
	account, err := scanAccount(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Account{}, ErrNotFound
		}
		return types.Account{}, err
	}
	return account, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (types.Account, error) {
	var account types.Account
	err := row.Scan(
		&account.ID,
		&account.Username,
		&account.Email,
		&account.Role,
		&account.PasswordHash,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	return account, err
}
