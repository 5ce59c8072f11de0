package services_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/api-sage/ledger-engine/src/internal/domain"
	"github.com/api-sage/ledger-engine/src/internal/usecase/service_interfaces"
	"github.com/api-sage/ledger-engine/src/internal/usecase/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ service_interfaces.AccountService = (*services.AccountService)(nil)

func TestAccountServiceCreateAccount(t *testing.T) {
	f := newFixture()
	svc := services.NewAccountService(f.clock, f.ledger, f.accounts)
	createdAt := f.clock.now

	account, err := svc.CreateAccount(context.Background(), "usd")
	require.NoError(t, err)

	assert.NotZero(t, account.ID)
	assert.Equal(t, domain.CurrencyUSD, account.Currency)
	assert.True(t, account.Balance.IsZero())
	assert.Equal(t, createdAt, account.CreatedAt)
	assert.False(t, account.IsClosed())
	assert.Equal(t, []sql.IsolationLevel{sql.LevelDefault}, f.ledger.isolations)
}

func TestAccountServiceCreateAccountRejectsUnknownCurrency(t *testing.T) {
	f := newFixture()
	svc := services.NewAccountService(f.clock, f.ledger, f.accounts)

	_, err := svc.CreateAccount(context.Background(), "EUR")
	require.Error(t, err)
	assert.Equal(t, domain.ErrorKindValidation, domain.Classify(err))
	assert.Zero(t, f.ledger.readWriteScopes)
}

func TestAccountServiceFindAccountNotFound(t *testing.T) {
	f := newFixture()
	svc := services.NewAccountService(f.clock, f.ledger, f.accounts)

	_, err := svc.FindAccount(context.Background(), 7)
	require.ErrorIs(t, err, domain.ErrRecordNotFound)
}

func TestAccountServiceCloseAccountIsIdempotent(t *testing.T) {
	f := newFixture()
	svc := services.NewAccountService(f.clock, f.ledger, f.accounts)
	ctx := context.Background()

	created, err := svc.CreateAccount(ctx, "RUR")
	require.NoError(t, err)

	closed, err := svc.CloseAccount(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, closed.ClosedAt)
	firstClose := *closed.ClosedAt

	again, err := svc.CloseAccount(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, again.ClosedAt)
	assert.Equal(t, firstClose, *again.ClosedAt)
}

func TestAccountServiceCloseAccountNotFound(t *testing.T) {
	f := newFixture()
	svc := services.NewAccountService(f.clock, f.ledger, f.accounts)

	_, err := svc.CloseAccount(context.Background(), 99)
	require.ErrorIs(t, err, domain.ErrRecordNotFound)
	assert.Equal(t, domain.ErrorKindNotFound, domain.Classify(err))
}

func TestAccountServiceClosedAccountRejectsDeposits(t *testing.T) {
	f := newFixture()
	accounts := services.NewAccountService(f.clock, f.ledger, f.accounts)
	balances := services.NewBalanceService(accounts, newTransactionService(f))
	ctx := context.Background()

	account, err := accounts.CreateAccount(ctx, "GBT")
	require.NoError(t, err)
	_, err = accounts.CloseAccount(ctx, account.ID)
	require.NoError(t, err)

	tx, err := balances.Deposit(ctx, account.ID, amount("10"))
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionStatusFailed, tx.Status)
	require.NotNil(t, tx.ErrorReason)
	assert.Contains(t, *tx.ErrorReason, domain.ReasonAccountClosed)
}
