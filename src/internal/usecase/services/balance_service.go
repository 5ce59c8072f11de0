package services

import (
	"context"

	"github.com/api-sage/ledger-engine/src/internal/domain"
	"github.com/api-sage/ledger-engine/src/internal/logger"
	"github.com/shopspring/decimal"
)

type TransactionEngine interface {
	CreateTransaction(ctx context.Context, legs []domain.Leg) (domain.Transaction, error)
	FindLegs(ctx context.Context, accountID int64, timeRange domain.TimeRange) ([]domain.Leg, error)
}

type AccountFinder interface {
	FindAccount(ctx context.Context, id int64) (domain.Account, error)
}

// BalanceService turns single-account deposits and withdrawals into one-leg transactions.
type BalanceService struct {
	accounts AccountFinder
	engine   TransactionEngine
}

func NewBalanceService(accounts AccountFinder, engine TransactionEngine) *BalanceService {
	return &BalanceService{
		accounts: accounts,
		engine:   engine,
	}
}

func (s *BalanceService) Deposit(ctx context.Context, accountID int64, amount decimal.Decimal) (domain.Transaction, error) {
	logger.Info("balance service deposit request", logger.Fields{
		"accountId": accountID,
		"amount":    amount,
	})

	if err := validateOperationAmount(amount); err != nil {
		return domain.Transaction{}, err
	}

	return s.engine.CreateTransaction(ctx, []domain.Leg{{AccountID: accountID, Amount: amount}})
}

func (s *BalanceService) Withdraw(ctx context.Context, accountID int64, amount decimal.Decimal) (domain.Transaction, error) {
	logger.Info("balance service withdraw request", logger.Fields{
		"accountId": accountID,
		"amount":    amount,
	})

	if err := validateOperationAmount(amount); err != nil {
		return domain.Transaction{}, err
	}

	return s.engine.CreateTransaction(ctx, []domain.Leg{{AccountID: accountID, Amount: amount.Neg()}})
}

// FindLegs reports not-found for an unknown account instead of an empty history.
func (s *BalanceService) FindLegs(ctx context.Context, accountID int64, timeRange domain.TimeRange) ([]domain.Leg, error) {
	if _, err := s.accounts.FindAccount(ctx, accountID); err != nil {
		return nil, err
	}

	return s.engine.FindLegs(ctx, accountID, timeRange)
}

func validateOperationAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return domain.NewValidationError("amount", "operation amount must be positive")
	}
	return nil
}
