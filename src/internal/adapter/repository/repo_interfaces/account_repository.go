package repo_interfaces

import (
	"context"
	"time"

	"github.com/api-sage/ledger-engine/src/internal/domain"
	"github.com/shopspring/decimal"
)

type AccountRepository interface {
	FindByID(ctx context.Context, db DBTX, id int64) (domain.Account, error)
	// FindByIDs returns the accounts that exist, ordered by id. Missing ids are simply absent.
	FindByIDs(ctx context.Context, db DBTX, ids []int64) ([]domain.Account, error)
	Create(ctx context.Context, db DBTX, account domain.Account) (int64, error)
	Close(ctx context.Context, db DBTX, id int64, closedAt time.Time) (bool, error)
	AdjustBalance(ctx context.Context, db DBTX, id int64, delta decimal.Decimal) (bool, error)
	// AdjustBalances reports false when fewer rows changed than accounts given.
	// An error means the store itself failed and nothing was applied.
	AdjustBalances(ctx context.Context, db DBTX, deltas map[int64]decimal.Decimal) (bool, error)
}
