package implementations

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/api-sage/ledger-engine/src/internal/adapter/repository/repo_interfaces"
	"github.com/api-sage/ledger-engine/src/internal/domain"
	"github.com/api-sage/ledger-engine/src/internal/logger"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

type AccountRepository struct{}

func NewAccountRepository() *AccountRepository {
	return &AccountRepository{}
}

const accountColumns = `id, balance, currency, created_at, closed_at`

func (r *AccountRepository) FindByID(ctx context.Context, db repo_interfaces.DBTX, id int64) (domain.Account, error) {
	logger.Info("account repository find by id", logger.Fields{
		"accountId": id,
	})

	query := `SELECT ` + accountColumns + ` FROM account WHERE id = $1`

	account, err := scanAccount(db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			logger.Info("account repository record not found", logger.Fields{
				"accountId": id,
			})
			return domain.Account{}, domain.ErrRecordNotFound
		}
		logger.Error("account repository find by id failed", err, logger.Fields{
			"accountId": id,
		})
		return domain.Account{}, fmt.Errorf("find account by id: %w", err)
	}

	return account, nil
}

func (r *AccountRepository) FindByIDs(ctx context.Context, db repo_interfaces.DBTX, ids []int64) ([]domain.Account, error) {
	logger.Info("account repository find by ids", logger.Fields{
		"accountIds": ids,
	})

	if len(ids) == 0 {
		return []domain.Account{}, nil
	}

	query := `SELECT ` + accountColumns + ` FROM account WHERE id = ANY($1) ORDER BY id`

	rows, err := db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		logger.Error("account repository find by ids failed", err, logger.Fields{
			"accountIds": ids,
		})
		return nil, fmt.Errorf("find accounts by ids: %w", err)
	}
	defer rows.Close()

	accounts := make([]domain.Account, 0, len(ids))
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		accounts = append(accounts, account)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate accounts: %w", err)
	}

	return accounts, nil
}

func (r *AccountRepository) Create(ctx context.Context, db repo_interfaces.DBTX, account domain.Account) (int64, error) {
	logger.Info("account repository create", logger.Fields{
		"currency": account.Currency,
	})

	const query = `
INSERT INTO account (balance, currency, created_at)
VALUES ($1, $2, $3)
RETURNING id`

	var id int64
	if err := db.QueryRowContext(ctx, query, account.Balance, string(account.Currency), account.CreatedAt).Scan(&id); err != nil {
		logger.Error("account repository create failed", err, logger.Fields{
			"currency": account.Currency,
		})
		return 0, fmt.Errorf("create account: %w", err)
	}

	logger.Info("account repository create success", logger.Fields{
		"accountId": id,
	})
	return id, nil
}

// Close always writes, but an existing close timestamp is kept.
func (r *AccountRepository) Close(ctx context.Context, db repo_interfaces.DBTX, id int64, closedAt time.Time) (bool, error) {
	logger.Info("account repository close", logger.Fields{
		"accountId": id,
	})

	const query = `
UPDATE account
SET closed_at = COALESCE(closed_at, $2)
WHERE id = $1`

	rows, err := execRowsAffected(ctx, db, query, id, closedAt)
	if err != nil {
		logger.Error("account repository close failed", err, logger.Fields{
			"accountId": id,
		})
		return false, fmt.Errorf("close account: %w", err)
	}

	return rows > 0, nil
}

func (r *AccountRepository) AdjustBalance(ctx context.Context, db repo_interfaces.DBTX, id int64, delta decimal.Decimal) (bool, error) {
	logger.Info("account repository adjust balance", logger.Fields{
		"accountId": id,
		"delta":     delta,
	})

	const query = `
UPDATE account
SET balance = balance + $2
WHERE id = $1`

	rows, err := execRowsAffected(ctx, db, query, id, delta)
	if err != nil {
		logger.Error("account repository adjust balance failed", err, logger.Fields{
			"accountId": id,
		})
		return false, fmt.Errorf("adjust balance: %w", err)
	}

	return rows > 0, nil
}

// AdjustBalances applies all deltas in one statement behind a savepoint, so a store failure
// leaves the surrounding transaction usable. It must run inside a transaction.
func (r *AccountRepository) AdjustBalances(ctx context.Context, db repo_interfaces.DBTX, deltas map[int64]decimal.Decimal) (bool, error) {
	ids := make([]int64, 0, len(deltas))
	for id := range deltas {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	amounts := make([]string, 0, len(ids))
	for _, id := range ids {
		amounts = append(amounts, deltas[id].String())
	}

	logger.Info("account repository adjust balances", logger.Fields{
		"accountIds": ids,
		"deltas":     amounts,
	})

	if len(ids) == 0 {
		return true, nil
	}

	if _, err := db.ExecContext(ctx, `SAVEPOINT adjust_balances`); err != nil {
		logger.Error("account repository adjust balances savepoint failed", err, nil)
		return false, fmt.Errorf("create savepoint: %w", err)
	}

	const query = `
UPDATE account AS a
SET balance = a.balance + d.delta
FROM (
	SELECT unnest($1::bigint[]) AS id, unnest($2::numeric[]) AS delta
) AS d
WHERE a.id = d.id`

	rows, err := execRowsAffected(ctx, db, query, pq.Array(ids), pq.Array(amounts))
	if err != nil {
		logger.Error("account repository adjust balances failed", err, withSQLState(err, logger.Fields{
			"accountIds": ids,
		}))
		if _, rbErr := db.ExecContext(ctx, `ROLLBACK TO SAVEPOINT adjust_balances`); rbErr != nil {
			return false, errors.Join(fmt.Errorf("adjust balances: %w", err), fmt.Errorf("rollback to savepoint: %w", rbErr))
		}
		return false, fmt.Errorf("adjust balances: %w", err)
	}

	if _, err := db.ExecContext(ctx, `RELEASE SAVEPOINT adjust_balances`); err != nil {
		logger.Error("account repository adjust balances release savepoint failed", err, nil)
		return false, fmt.Errorf("release savepoint: %w", err)
	}

	updated := rows == int64(len(ids))
	logger.Info("account repository adjust balances success", logger.Fields{
		"accountIds":   ids,
		"rowsAffected": rows,
		"updated":      updated,
	})
	return updated, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (domain.Account, error) {
	var (
		account  domain.Account
		currency string
		closedAt sql.NullTime
	)

	if err := row.Scan(&account.ID, &account.Balance, &currency, &account.CreatedAt, &closedAt); err != nil {
		return domain.Account{}, err
	}

	account.Currency = domain.Currency(currency)
	if closedAt.Valid {
		value := closedAt.Time
		account.ClosedAt = &value
	}

	return account, nil
}

func execRowsAffected(ctx context.Context, db repo_interfaces.DBTX, query string, args ...any) (int64, error) {
	result, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("read rows affected: %w", err)
	}
	return rows, nil
}

func withSQLState(err error, fields logger.Fields) logger.Fields {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		if fields == nil {
			fields = logger.Fields{}
		}
		fields["sqlState"] = string(pqErr.Code)
		fields["sqlStateClass"] = pqErr.Code.Class().Name()
	}
	return fields
}

var _ repo_interfaces.AccountRepository = (*AccountRepository)(nil)
