//go:build integration

package implementations_test

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/api-sage/ledger-engine/src/internal/adapter/repository/implementations"
	"github.com/api-sage/ledger-engine/src/internal/adapter/repository/repo_interfaces"
	"github.com/api-sage/ledger-engine/src/internal/domain"
	"github.com/api-sage/ledger-engine/src/internal/usecase/services"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

// Run with: LEDGER_TEST_DATABASE_DSN=postgres://... go test -tags integration ./...
// The database is truncated before every test.
const testDSNEnv = "LEDGER_TEST_DATABASE_DSN"

type tickingClock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

func (c *tickingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now
	c.now = c.now.Add(c.step)
	return now
}

type ledgerHarness struct {
	db           *sql.DB
	clock        *tickingClock
	accounts     *services.AccountService
	transactions *services.TransactionService
	balances     *services.BalanceService
	transfers    *services.TransferService
}

func setupLedger(t *testing.T) *ledgerHarness {
	t.Helper()

	dsn := os.Getenv(testDSNEnv)
	if dsn == "" {
		t.Skipf("%s is not set", testDSNEnv)
	}

	ctx := context.Background()
	db, err := implementations.Open(ctx, dsn, implementations.PoolConfig{MaxOpenConns: 30, MaxIdleConns: 10})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, implementations.RunMigrations(ctx, db, filepath.Join("..", "..", "..", "..", "migrations")))
	_, err = db.ExecContext(ctx, `TRUNCATE change, ledger_transaction, account RESTART IDENTITY CASCADE`)
	require.NoError(t, err)

	return newLedgerHarness(db, implementations.NewAccountRepository())
}

func newLedgerHarness(db *sql.DB, accountRepo repo_interfaces.AccountRepository) *ledgerHarness {
	clock := &tickingClock{
		now:  time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC),
		step: time.Second,
	}
	txManager := implementations.NewTxManager(db)
	transactionRepo := implementations.NewTransactionRepository()

	accounts := services.NewAccountService(clock, txManager, accountRepo)
	transactions := services.NewTransactionService(clock, txManager, accountRepo, transactionRepo)

	return &ledgerHarness{
		db:           db,
		clock:        clock,
		accounts:     accounts,
		transactions: transactions,
		balances:     services.NewBalanceService(accounts, transactions),
		transfers:    services.NewTransferService(transactions),
	}
}

func (h *ledgerHarness) openAccount(t *testing.T, currency string, balance string) domain.Account {
	t.Helper()

	account, err := h.accounts.CreateAccount(context.Background(), currency)
	require.NoError(t, err)

	if balance != "0" {
		tx, err := h.balances.Deposit(context.Background(), account.ID, decimal.RequireFromString(balance))
		require.NoError(t, err)
		require.Equal(t, domain.TransactionStatusCompleted, tx.Status)
	}
	return account
}

func (h *ledgerHarness) balance(t *testing.T, id int64) decimal.Decimal {
	t.Helper()

	account, err := h.accounts.FindAccount(context.Background(), id)
	require.NoError(t, err)
	return account.Balance
}

func (h *ledgerHarness) count(t *testing.T, table string) int {
	t.Helper()

	var n int
	require.NoError(t, h.db.QueryRowContext(context.Background(), `SELECT COUNT(1) FROM `+table).Scan(&n))
	return n
}

func TestIntegration_ConcurrentOperationsLoseNoUpdate(t *testing.T) {
	h := setupLedger(t)
	account := h.openAccount(t, "USD", "1000")

	var (
		mu      sync.Mutex
		results []domain.Transaction
	)
	apply := func(amount string) func() error {
		return func() error {
			tx, err := h.transactions.CreateTransaction(context.Background(), []domain.Leg{
				{AccountID: account.ID, Amount: decimal.RequireFromString(amount)},
			})
			if err != nil {
				return err
			}
			mu.Lock()
			results = append(results, tx)
			mu.Unlock()
			return nil
		}
	}

	var g errgroup.Group
	for i := 0; i < 10; i++ {
		g.Go(apply("100"))
		g.Go(apply("-30"))
	}
	require.NoError(t, g.Wait())
	require.Len(t, results, 20)

	expected := decimal.RequireFromString("1000")
	for _, tx := range results {
		require.Len(t, tx.Legs, 1)
		switch tx.Status {
		case domain.TransactionStatusCompleted:
			expected = expected.Add(tx.Legs[0].Amount)
		case domain.TransactionStatusFailed:
			require.NotNil(t, tx.ErrorReason)
			assert.Equal(t, domain.ReasonServerError, *tx.ErrorReason)
		default:
			t.Fatalf("unexpected status %s", tx.Status)
		}
	}

	assert.True(t, h.balance(t, account.ID).Equal(expected), "balance %s, completed legs sum to %s", h.balance(t, account.ID), expected)
	assert.Equal(t, 21, h.count(t, "ledger_transaction"))
}

func TestIntegration_FailedTransferKeepsAuditRecord(t *testing.T) {
	h := setupLedger(t)
	source := h.openAccount(t, "RUR", "100")
	target := h.openAccount(t, "RUR", "50")

	tx, err := h.transfers.Transfer(context.Background(), domain.TransferRequest{
		SourceAccountID: source.ID,
		TargetAccountID: target.ID,
		Amount:          decimal.RequireFromString("500"),
	})
	require.NoError(t, err)

	assert.Equal(t, domain.TransactionStatusFailed, tx.Status)
	require.NotNil(t, tx.ErrorReason)
	assert.Contains(t, *tx.ErrorReason, domain.ReasonInsufficientFunds)
	require.Len(t, tx.Legs, 2)
	assert.True(t, tx.Legs[0].Amount.Equal(decimal.RequireFromString("-500")))
	assert.True(t, tx.Legs[1].Amount.Equal(decimal.RequireFromString("500")))
	assert.True(t, tx.CreatedAt.Equal(tx.UpdatedAt))

	assert.True(t, h.balance(t, source.ID).Equal(decimal.RequireFromString("100")))
	assert.True(t, h.balance(t, target.ID).Equal(decimal.RequireFromString("50")))
}

func TestIntegration_CompletedTransferStoresLegsUnchanged(t *testing.T) {
	h := setupLedger(t)
	source := h.openAccount(t, "USD", "10")
	target := h.openAccount(t, "USD", "0")

	tx, err := h.transfers.Transfer(context.Background(), domain.TransferRequest{
		SourceAccountID: source.ID,
		TargetAccountID: target.ID,
		Amount:          decimal.RequireFromString("9.9999"),
	})
	require.NoError(t, err)
	require.Equal(t, domain.TransactionStatusCompleted, tx.Status)

	stored, err := h.transactions.FindTransaction(context.Background(), tx.ID)
	require.NoError(t, err)
	require.Len(t, stored.Legs, 2)
	assert.True(t, stored.Legs[0].Amount.Equal(decimal.RequireFromString("-9.9999")))
	assert.True(t, h.balance(t, source.ID).Equal(decimal.RequireFromString("0.0001")))
	assert.True(t, h.balance(t, target.ID).Equal(decimal.RequireFromString("9.9999")))
}

// phantomAccountRepository adds an account id that does not exist to every batch, so the
// store reports fewer updated rows than requested.
type phantomAccountRepository struct {
	*implementations.AccountRepository
}

func (r phantomAccountRepository) AdjustBalances(ctx context.Context, db repo_interfaces.DBTX, deltas map[int64]decimal.Decimal) (bool, error) {
	padded := make(map[int64]decimal.Decimal, len(deltas)+1)
	for id, delta := range deltas {
		padded[id] = delta
	}
	padded[1<<40] = decimal.NewFromInt(1)
	return r.AccountRepository.AdjustBalances(ctx, db, padded)
}

func TestIntegration_AdjustmentMismatchRollsBackEverything(t *testing.T) {
	h := setupLedger(t)
	account := h.openAccount(t, "USD", "10")
	before := h.count(t, "ledger_transaction")

	phantom := newLedgerHarness(h.db, phantomAccountRepository{implementations.NewAccountRepository()})
	_, err := phantom.balances.Deposit(context.Background(), account.ID, decimal.RequireFromString("5"))
	require.ErrorIs(t, err, domain.ErrBalanceAdjustmentMismatch)

	assert.Equal(t, before, h.count(t, "ledger_transaction"))
	assert.Equal(t, before, h.count(t, "change"))
	assert.True(t, h.balance(t, account.ID).Equal(decimal.RequireFromString("10")))
}

func TestIntegration_FindLegsHalfOpenRangeAndPageSize(t *testing.T) {
	h := setupLedger(t)
	account := h.openAccount(t, "GBT", "0")
	ctx := context.Background()

	start := h.clock.now
	first, err := h.balances.Deposit(ctx, account.ID, decimal.RequireFromString("10"))
	require.NoError(t, err)
	failed, err := h.balances.Withdraw(ctx, account.ID, decimal.RequireFromString("1000"))
	require.NoError(t, err)
	require.Equal(t, domain.TransactionStatusFailed, failed.Status)
	last, err := h.balances.Deposit(ctx, account.ID, decimal.RequireFromString("5"))
	require.NoError(t, err)

	legs, err := h.balances.FindLegs(ctx, account.ID, domain.TimeRange{From: start, To: last.UpdatedAt})
	require.NoError(t, err)
	require.Len(t, legs, 1)
	assert.Equal(t, first.ID, legs[0].TransactionID)

	legs, err = h.balances.FindLegs(ctx, account.ID, domain.TimeRange{From: start, To: last.UpdatedAt.Add(time.Microsecond)})
	require.NoError(t, err)
	require.Len(t, legs, 2)
	assert.Equal(t, last.ID, legs[1].TransactionID)

	for i := 0; i < domain.LegHistoryPageSize; i++ {
		_, err := h.balances.Deposit(ctx, account.ID, decimal.RequireFromString("1"))
		require.NoError(t, err)
	}

	legs, err = h.balances.FindLegs(ctx, account.ID, domain.TimeRange{From: start, To: h.clock.Now()})
	require.NoError(t, err)
	assert.Len(t, legs, domain.LegHistoryPageSize)
	assert.Equal(t, first.ID, legs[0].TransactionID)
}

func TestIntegration_CloseAccountKeepsFirstTimestamp(t *testing.T) {
	h := setupLedger(t)
	account := h.openAccount(t, "USD", "0")
	ctx := context.Background()

	closed, err := h.accounts.CloseAccount(ctx, account.ID)
	require.NoError(t, err)
	require.NotNil(t, closed.ClosedAt)

	again, err := h.accounts.CloseAccount(ctx, account.ID)
	require.NoError(t, err)
	require.NotNil(t, again.ClosedAt)
	assert.True(t, closed.ClosedAt.Equal(*again.ClosedAt))

	_, err = h.accounts.CloseAccount(ctx, account.ID+1000)
	require.ErrorIs(t, err, domain.ErrRecordNotFound)

	tx, err := h.balances.Deposit(ctx, account.ID, decimal.RequireFromString("1"))
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionStatusFailed, tx.Status)
}

func TestIntegration_FindTransactionNotFound(t *testing.T) {
	h := setupLedger(t)

	_, err := h.transactions.FindTransaction(context.Background(), 404)
	require.ErrorIs(t, err, domain.ErrRecordNotFound)
}
