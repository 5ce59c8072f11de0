package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/api-sage/ledger-engine/src/internal/adapter/repository/repo_interfaces"
	"github.com/api-sage/ledger-engine/src/internal/domain"
	"github.com/api-sage/ledger-engine/src/internal/logger"
	"github.com/shopspring/decimal"
)

type AccountService struct {
	clock       domain.Clock
	txManager   repo_interfaces.TransactionManager
	accountRepo repo_interfaces.AccountRepository
}

func NewAccountService(
	clock domain.Clock,
	txManager repo_interfaces.TransactionManager,
	accountRepo repo_interfaces.AccountRepository,
) *AccountService {
	return &AccountService{
		clock:       clock,
		txManager:   txManager,
		accountRepo: accountRepo,
	}
}

// CreateAccount opens a zero-balance account. The insert runs read-write: PostgreSQL refuses
// writes inside a READ ONLY transaction.
func (s *AccountService) CreateAccount(ctx context.Context, currencyCode string) (domain.Account, error) {
	logger.Info("account service create account request", logger.Fields{
		"currency": currencyCode,
	})

	currency, err := domain.ParseCurrency(currencyCode)
	if err != nil {
		logger.Info("account service create account validation failed", logger.Fields{
			"reason": err.Error(),
		})
		return domain.Account{}, err
	}

	account := domain.Account{
		Balance:   decimal.Zero,
		Currency:  currency,
		CreatedAt: s.clock.Now(),
	}

	var accountID int64
	err = s.txManager.RunInReadWriteTransaction(ctx, sql.LevelDefault, func(ctx context.Context, tx repo_interfaces.DBTX) error {
		id, err := s.accountRepo.Create(ctx, tx, account)
		if err != nil {
			return err
		}
		accountID = id
		return nil
	})
	if err != nil {
		logger.Error("account service create account repository failed", err, logger.Fields{
			"currency": currency,
		})
		return domain.Account{}, err
	}

	created, err := s.FindAccount(ctx, accountID)
	if err != nil {
		return domain.Account{}, fmt.Errorf("%w: account %d: %v", errCreatedEntityMissing, accountID, err)
	}

	logger.Info("account service create account success", logger.Fields{
		"accountId": created.ID,
		"currency":  created.Currency,
	})
	return created, nil
}

func (s *AccountService) FindAccount(ctx context.Context, id int64) (domain.Account, error) {
	var account domain.Account
	err := s.txManager.RunInReadOnlyTransaction(ctx, func(ctx context.Context, tx repo_interfaces.DBTX) error {
		found, err := s.accountRepo.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		account = found
		return nil
	})
	if err != nil {
		return domain.Account{}, err
	}

	return account, nil
}

// CloseAccount stamps the close time. Closing a closed account keeps its first close time.
func (s *AccountService) CloseAccount(ctx context.Context, id int64) (domain.Account, error) {
	logger.Info("account service close account request", logger.Fields{
		"accountId": id,
	})

	closedAt := s.clock.Now()

	var account domain.Account
	err := s.txManager.RunInReadWriteTransaction(ctx, sql.LevelDefault, func(ctx context.Context, tx repo_interfaces.DBTX) error {
		if _, err := s.accountRepo.Close(ctx, tx, id, closedAt); err != nil {
			return err
		}

		found, err := s.accountRepo.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		account = found
		return nil
	})
	if err != nil {
		if domain.Classify(err) == domain.ErrorKindNotFound {
			logger.Info("account service close account not found", logger.Fields{
				"accountId": id,
			})
		} else {
			logger.Error("account service close account failed", err, logger.Fields{
				"accountId": id,
			})
		}
		return domain.Account{}, err
	}

	logger.Info("account service close account success", logger.Fields{
		"accountId": account.ID,
		"closedAt":  account.ClosedAt,
	})
	return account, nil
}
