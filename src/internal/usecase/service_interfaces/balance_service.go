package service_interfaces

import (
	"context"

	"github.com/api-sage/ledger-engine/src/internal/domain"
	"github.com/shopspring/decimal"
)

type BalanceService interface {
	Deposit(ctx context.Context, accountID int64, amount decimal.Decimal) (domain.Transaction, error)
	Withdraw(ctx context.Context, accountID int64, amount decimal.Decimal) (domain.Transaction, error)
	FindLegs(ctx context.Context, accountID int64, timeRange domain.TimeRange) ([]domain.Leg, error)
}
