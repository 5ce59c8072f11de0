package implementations

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/api-sage/ledger-engine/src/internal/adapter/repository/repo_interfaces"
	"github.com/api-sage/ledger-engine/src/internal/domain"
	"github.com/api-sage/ledger-engine/src/internal/logger"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// TransactionRepository persists transaction headers and their legs. Records are insert-only.
type TransactionRepository struct{}

func NewTransactionRepository() *TransactionRepository {
	return &TransactionRepository{}
}

func (r *TransactionRepository) CreateTransaction(ctx context.Context, db repo_interfaces.DBTX, transaction domain.Transaction) (int64, error) {
	logger.Info("transaction repository create", logger.Fields{
		"status":      transaction.Status,
		"errorReason": transaction.ErrorReason,
	})

	if transaction.Status == domain.TransactionStatusCreated {
		return 0, fmt.Errorf("create transaction: status %s can't be persisted", transaction.Status)
	}

	const query = `
INSERT INTO ledger_transaction (status, created_at, updated_at, error_reason)
VALUES ($1, $2, $3, $4)
RETURNING id`

	var errorReason sql.NullString
	if transaction.ErrorReason != nil {
		errorReason = sql.NullString{String: *transaction.ErrorReason, Valid: true}
	}

	var id int64
	if err := db.QueryRowContext(
		ctx,
		query,
		transaction.Status.Code(),
		transaction.CreatedAt,
		transaction.UpdatedAt,
		errorReason,
	).Scan(&id); err != nil {
		logger.Error("transaction repository create failed", err, logger.Fields{
			"status": transaction.Status,
		})
		return 0, fmt.Errorf("create transaction: %w", err)
	}

	logger.Info("transaction repository create success", logger.Fields{
		"transactionId": id,
		"status":        transaction.Status,
	})
	return id, nil
}

func (r *TransactionRepository) CreateLegs(ctx context.Context, db repo_interfaces.DBTX, legs []domain.Leg) ([]int64, error) {
	logger.Info("transaction repository create legs", logger.Fields{
		"count": len(legs),
	})

	if len(legs) == 0 {
		return []int64{}, nil
	}

	accountIDs := make([]int64, 0, len(legs))
	transactionIDs := make([]int64, 0, len(legs))
	amounts := make([]string, 0, len(legs))
	for _, leg := range legs {
		accountIDs = append(accountIDs, leg.AccountID)
		transactionIDs = append(transactionIDs, leg.TransactionID)
		amounts = append(amounts, leg.Amount.String())
	}

	const query = `
INSERT INTO change (account_id, transaction_id, amount)
SELECT unnest($1::bigint[]), unnest($2::bigint[]), unnest($3::numeric[])
RETURNING id`

	rows, err := db.QueryContext(ctx, query, pq.Array(accountIDs), pq.Array(transactionIDs), pq.Array(amounts))
	if err != nil {
		logger.Error("transaction repository create legs failed", err, logger.Fields{
			"transactionIds": transactionIDs,
		})
		return nil, fmt.Errorf("create legs: %w", err)
	}
	defer rows.Close()

	ids := make([]int64, 0, len(legs))
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan leg id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate leg ids: %w", err)
	}

	logger.Info("transaction repository create legs success", logger.Fields{
		"legIds": ids,
	})
	return ids, nil
}

func (r *TransactionRepository) FindByID(ctx context.Context, db repo_interfaces.DBTX, id int64) (domain.Transaction, error) {
	logger.Info("transaction repository find by id", logger.Fields{
		"transactionId": id,
	})

	const query = `
SELECT t.id, t.status, t.created_at, t.updated_at, t.error_reason,
       c.id, c.account_id, c.transaction_id, c.amount
FROM ledger_transaction t
LEFT JOIN change c ON c.transaction_id = t.id
WHERE t.id = $1
ORDER BY c.id`

	rows, err := db.QueryContext(ctx, query, id)
	if err != nil {
		logger.Error("transaction repository find by id failed", err, logger.Fields{
			"transactionId": id,
		})
		return domain.Transaction{}, fmt.Errorf("find transaction by id: %w", err)
	}
	defer rows.Close()

	var (
		transaction domain.Transaction
		found       bool
	)

	for rows.Next() {
		var (
			statusCode    int16
			errorReason   sql.NullString
			legID         sql.NullInt64
			accountID     sql.NullInt64
			transactionID sql.NullInt64
			amount        decimal.NullDecimal
		)

		if err := rows.Scan(
			&transaction.ID,
			&statusCode,
			&transaction.CreatedAt,
			&transaction.UpdatedAt,
			&errorReason,
			&legID,
			&accountID,
			&transactionID,
			&amount,
		); err != nil {
			return domain.Transaction{}, fmt.Errorf("scan transaction: %w", err)
		}

		if !found {
			status, err := domain.TransactionStatusFromCode(statusCode)
			if err != nil {
				return domain.Transaction{}, err
			}
			transaction.Status = status
			if errorReason.Valid {
				value := errorReason.String
				transaction.ErrorReason = &value
			}
			transaction.Legs = []domain.Leg{}
			found = true
		}

		if legID.Valid {
			transaction.Legs = append(transaction.Legs, domain.Leg{
				ID:            legID.Int64,
				AccountID:     accountID.Int64,
				TransactionID: transactionID.Int64,
				Amount:        amount.Decimal,
			})
		}
	}
	if err := rows.Err(); err != nil {
		return domain.Transaction{}, fmt.Errorf("iterate transaction rows: %w", err)
	}

	if !found {
		logger.Info("transaction repository record not found", logger.Fields{
			"transactionId": id,
		})
		return domain.Transaction{}, domain.ErrRecordNotFound
	}

	return transaction, nil
}

func (r *TransactionRepository) FindLegs(ctx context.Context, db repo_interfaces.DBTX, accountID int64, timeRange domain.TimeRange) ([]domain.Leg, error) {
	logger.Info("transaction repository find legs", logger.Fields{
		"accountId": accountID,
		"from":      timeRange.From,
		"to":        timeRange.To,
	})

	const query = `
SELECT c.id, c.account_id, c.transaction_id, c.amount
FROM change c
JOIN ledger_transaction t ON c.transaction_id = t.id
WHERE t.status = $1
  AND t.updated_at >= $2
  AND t.updated_at < $3
  AND c.account_id = $4
ORDER BY t.updated_at, c.id
LIMIT $5`

	rows, err := db.QueryContext(
		ctx,
		query,
		domain.TransactionStatusCompleted.Code(),
		timeRange.From,
		timeRange.To,
		accountID,
		domain.LegHistoryPageSize,
	)
	if err != nil {
		logger.Error("transaction repository find legs failed", err, logger.Fields{
			"accountId": accountID,
		})
		return nil, fmt.Errorf("find legs: %w", err)
	}
	defer rows.Close()

	legs := make([]domain.Leg, 0)
	for rows.Next() {
		var leg domain.Leg
		if err := rows.Scan(&leg.ID, &leg.AccountID, &leg.TransactionID, &leg.Amount); err != nil {
			return nil, fmt.Errorf("scan leg: %w", err)
		}
		legs = append(legs, leg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate legs: %w", err)
	}

	logger.Info("transaction repository find legs success", logger.Fields{
		"accountId": accountID,
		"count":     len(legs),
	})
	return legs, nil
}

var _ repo_interfaces.TransactionRepository = (*TransactionRepository)(nil)
