package service_interfaces

import (
	"context"

	"github.com/api-sage/ledger-engine/src/internal/domain"
)

type TransactionService interface {
	CreateTransaction(ctx context.Context, legs []domain.Leg) (domain.Transaction, error)
	FindTransaction(ctx context.Context, id int64) (domain.Transaction, error)
	FindLegs(ctx context.Context, accountID int64, timeRange domain.TimeRange) ([]domain.Leg, error)
}
