package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/api-sage/ledger-engine/src/internal/adapter/repository/repo_interfaces"
	"github.com/api-sage/ledger-engine/src/internal/domain"
	"github.com/api-sage/ledger-engine/src/internal/logger"
	"github.com/shopspring/decimal"
)

// TransactionService validates proposed legs and applies them atomically. Every attempt that
// passes structural validation leaves a COMPLETED or FAILED record, unless a fatal error
// rolls the whole attempt back.
type TransactionService struct {
	clock           domain.Clock
	txManager       repo_interfaces.TransactionManager
	accountRepo     repo_interfaces.AccountRepository
	transactionRepo repo_interfaces.TransactionRepository
}

func NewTransactionService(
	clock domain.Clock,
	txManager repo_interfaces.TransactionManager,
	accountRepo repo_interfaces.AccountRepository,
	transactionRepo repo_interfaces.TransactionRepository,
) *TransactionService {
	return &TransactionService{
		clock:           clock,
		txManager:       txManager,
		accountRepo:     accountRepo,
		transactionRepo: transactionRepo,
	}
}

func (s *TransactionService) CreateTransaction(ctx context.Context, legs []domain.Leg) (domain.Transaction, error) {
	logger.Info("transaction service create transaction request", logger.Fields{
		"legs": legs,
	})

	if err := s.validateStructure(ctx, legs); err != nil {
		logger.Info("transaction service create transaction rejected", logger.Fields{
			"reason": err.Error(),
		})
		return domain.Transaction{}, err
	}

	proposed := domain.ProposedTransaction{
		Legs:      legs,
		CreatedAt: s.clock.Now(),
	}

	var transactionID int64
	err := s.txManager.RunInReadWriteTransaction(ctx, sql.LevelRepeatableRead, func(ctx context.Context, tx repo_interfaces.DBTX) error {
		id, err := s.applyOrRecordFailure(ctx, tx, proposed)
		if err != nil {
			return err
		}
		transactionID = id
		return nil
	})
	if err != nil {
		logger.Error("transaction service create transaction failed", err, nil)
		return domain.Transaction{}, err
	}

	created, err := s.FindTransaction(ctx, transactionID)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("%w: transaction %d: %v", errCreatedEntityMissing, transactionID, err)
	}

	logger.Info("transaction service create transaction success", logger.Fields{
		"transactionId": created.ID,
		"status":        created.Status,
		"errorReason":   created.ErrorReason,
	})
	return created, nil
}

func (s *TransactionService) FindTransaction(ctx context.Context, id int64) (domain.Transaction, error) {
	var transaction domain.Transaction
	err := s.txManager.RunInReadOnlyTransaction(ctx, func(ctx context.Context, tx repo_interfaces.DBTX) error {
		found, err := s.transactionRepo.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		transaction = found
		return nil
	})
	if err != nil {
		return domain.Transaction{}, err
	}

	return transaction, nil
}

func (s *TransactionService) FindLegs(ctx context.Context, accountID int64, timeRange domain.TimeRange) ([]domain.Leg, error) {
	if err := timeRange.Validate(); err != nil {
		return nil, err
	}

	var legs []domain.Leg
	err := s.txManager.RunInReadOnlyTransaction(ctx, func(ctx context.Context, tx repo_interfaces.DBTX) error {
		found, err := s.transactionRepo.FindLegs(ctx, tx, accountID, timeRange)
		if err != nil {
			return err
		}
		legs = found
		return nil
	})
	if err != nil {
		return nil, err
	}

	return legs, nil
}

// errCreatedEntityMissing wraps read-back failures with %v so a store not-found can't leak
// out as the caller's not-found.
var errCreatedEntityMissing = errors.New("can't find created entity")

func (s *TransactionService) validateStructure(ctx context.Context, legs []domain.Leg) error {
	if len(legs) == 0 {
		return domain.NewValidationError("legs", "transaction must have at least one change")
	}

	for _, leg := range legs {
		if err := domain.ValidateAmountScale(leg.Amount); err != nil {
			return err
		}
	}

	accountIDs := distinctAccountIDs(legs)

	var accounts []domain.Account
	err := s.txManager.RunInReadOnlyTransaction(ctx, func(ctx context.Context, tx repo_interfaces.DBTX) error {
		found, err := s.accountRepo.FindByIDs(ctx, tx, accountIDs)
		if err != nil {
			return err
		}
		accounts = found
		return nil
	})
	if err != nil {
		return err
	}

	found := make(map[int64]struct{}, len(accounts))
	currencies := make(map[domain.Currency]struct{})
	for _, account := range accounts {
		found[account.ID] = struct{}{}
		currencies[account.Currency] = struct{}{}
	}

	var missing []string
	for _, id := range accountIDs {
		if _, ok := found[id]; !ok {
			missing = append(missing, fmt.Sprintf("%d", id))
		}
	}
	if len(missing) > 0 {
		return domain.NewValidationError("legs", fmt.Sprintf("couldn't execute transaction for undefined accounts: [%s]", strings.Join(missing, ", ")))
	}

	if len(currencies) > 1 {
		codes := make([]string, 0, len(currencies))
		for currency := range currencies {
			codes = append(codes, string(currency))
		}
		sort.Strings(codes)
		return domain.NewValidationError("legs", fmt.Sprintf("couldn't execute transaction for accounts with different currencies: [%s]", strings.Join(codes, ", ")))
	}

	if len(accountIDs) < len(legs) {
		return domain.NewValidationError("legs", "transaction mustn't have changes with the same accountId")
	}

	return nil
}

func (s *TransactionService) applyOrRecordFailure(ctx context.Context, tx repo_interfaces.DBTX, proposed domain.ProposedTransaction) (int64, error) {
	deltas := make(map[int64]decimal.Decimal, len(proposed.Legs))
	for _, leg := range proposed.Legs {
		deltas[leg.AccountID] = leg.Amount
	}

	accounts, err := s.accountRepo.FindByIDs(ctx, tx, distinctAccountIDs(proposed.Legs))
	if err != nil {
		return 0, err
	}

	if reason, failed := firstBusinessFailure(accounts, deltas); failed {
		logger.Info("transaction service business validation failed", logger.Fields{
			"reason": reason,
		})
		return s.record(ctx, tx, proposed, domain.Failed(reason))
	}

	updated, err := s.accountRepo.AdjustBalances(ctx, tx, deltas)
	if err != nil {
		logger.Error("transaction service balance adjustment failed, recording failure", err, nil)
		return s.record(ctx, tx, proposed, domain.Failed(domain.ReasonServerError))
	}
	if !updated {
		return 0, domain.ErrBalanceAdjustmentMismatch
	}

	return s.record(ctx, tx, proposed, domain.Completed())
}

// firstBusinessFailure checks accounts in the order given and reports the first failing one.
// A projected balance of zero or less is insufficient.
func firstBusinessFailure(accounts []domain.Account, deltas map[int64]decimal.Decimal) (string, bool) {
	for _, account := range accounts {
		delta, ok := deltas[account.ID]
		if !ok {
			continue
		}

		if account.IsClosed() {
			return fmt.Sprintf("account %d: %s", account.ID, domain.ReasonAccountClosed), true
		}

		if !account.Balance.Add(delta).IsPositive() {
			return fmt.Sprintf("account %d: %s", account.ID, domain.ReasonInsufficientFunds), true
		}
	}

	return "", false
}

func (s *TransactionService) record(ctx context.Context, tx repo_interfaces.DBTX, proposed domain.ProposedTransaction, outcome domain.Outcome) (int64, error) {
	header := domain.NewTransactionRecord(proposed, outcome)

	id, err := s.transactionRepo.CreateTransaction(ctx, tx, header)
	if err != nil {
		return 0, err
	}

	if _, err := s.transactionRepo.CreateLegs(ctx, tx, header.LegsFor(id)); err != nil {
		return 0, err
	}

	return id, nil
}

func distinctAccountIDs(legs []domain.Leg) []int64 {
	seen := make(map[int64]struct{}, len(legs))
	ids := make([]int64, 0, len(legs))
	for _, leg := range legs {
		if _, ok := seen[leg.AccountID]; ok {
			continue
		}
		seen[leg.AccountID] = struct{}{}
		ids = append(ids, leg.AccountID)
	}

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
