package service_interfaces

import (
	"context"

	"github.com/api-sage/ledger-engine/src/internal/domain"
)

type AccountService interface {
	CreateAccount(ctx context.Context, currencyCode string) (domain.Account, error)
	FindAccount(ctx context.Context, id int64) (domain.Account, error)
	CloseAccount(ctx context.Context, id int64) (domain.Account, error)
}
