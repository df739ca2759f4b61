package ports

import (
	"context"

	"github.com/bnema/bilibackup/internal/domain"
)

type AccountRepository interface {
	GetByID(ctx context.Context, id domain.AccountID) (domain.Account, error)
	List(ctx context.Context) ([]domain.Account, error)
	Save(ctx context.Context, account domain.Account) error
	Delete(ctx context.Context, id domain.AccountID) error
	// Active returns domain.ErrAccountNotFound when no profile is selected.
	Active(ctx context.Context) (domain.Account, error)
	SetActive(ctx context.Context, id domain.AccountID) error
}
