package services

import (
	"context"

	"github.com/propmgr/apiserver/types"
)

// AccountRepository defines read operations for accounts outside the auth flows.
type AccountRepository interface {
	GetByID(ctx context.Context, id int) (types.Account, error)
	List(ctx context.Context, offset, limit int) ([]types.Account, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

// AccountService encapsulates account use-cases.
type AccountService struct {
	repo AccountRepository
}

func NewAccountService(repo AccountRepository) *AccountService {
	return &AccountService{repo: repo}
}

func (s *AccountService) Get(ctx context.Context, id int) (types.UserSummary, error) {
	account, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return types.UserSummary{}, err
	}
	return account.Summary(), nil
}

func (s *AccountService) List(ctx context.Context, offset, limit int) ([]types.UserSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	accounts, err := s.repo.List(ctx, offset, limit)
	if err != nil {
		return nil, err
	}
	summaries := make([]types.UserSummary, 0, len(accounts))
	for _, account := range accounts {
		summaries = append(summaries, account.Summary())
	}
	return summaries, nil
}

// Exists reports whether an account is registered under email.
func (s *AccountService) Exists(ctx context.Context, email string) (bool, error) {
	return s.repo.ExistsByEmail(ctx, email)
}
