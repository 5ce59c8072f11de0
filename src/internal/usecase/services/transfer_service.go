package services

import (
	"context"

	"github.com/api-sage/ledger-engine/src/internal/domain"
	"github.com/api-sage/ledger-engine/src/internal/logger"
)

type TransferService struct {
	engine TransactionEngine
}

func NewTransferService(engine TransactionEngine) *TransferService {
	return &TransferService{engine: engine}
}

// Transfer debits the source and credits the target in one transaction.
func (s *TransferService) Transfer(ctx context.Context, req domain.TransferRequest) (domain.Transaction, error) {
	logger.Info("transfer service transfer request", logger.Fields{
		"sourceAccountId": req.SourceAccountID,
		"targetAccountId": req.TargetAccountID,
		"amount":          req.Amount,
	})

	if req.SourceAccountID == req.TargetAccountID {
		return domain.Transaction{}, domain.NewValidationError("targetAccountId", "account's id mustn't be the same")
	}

	if !req.Amount.IsPositive() {
		return domain.Transaction{}, domain.NewValidationError("amount", "amount value to transfer must be positive")
	}

	return s.engine.CreateTransaction(ctx, []domain.Leg{
		{AccountID: req.SourceAccountID, Amount: req.Amount.Neg()},
		{AccountID: req.TargetAccountID, Amount: req.Amount},
	})
}
