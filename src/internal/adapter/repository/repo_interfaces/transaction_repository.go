package repo_interfaces

import (
	"context"

	"github.com/api-sage/ledger-engine/src/internal/domain"
)

type TransactionRepository interface {
	CreateTransaction(ctx context.Context, db DBTX, transaction domain.Transaction) (int64, error)
	CreateLegs(ctx context.Context, db DBTX, legs []domain.Leg) ([]int64, error)
	FindByID(ctx context.Context, db DBTX, id int64) (domain.Transaction, error)
	// FindLegs returns legs of COMPLETED transactions updated within the range, oldest first,
	// at most domain.LegHistoryPageSize of them.
	FindLegs(ctx context.Context, db DBTX, accountID int64, timeRange domain.TimeRange) ([]domain.Leg, error)
}
