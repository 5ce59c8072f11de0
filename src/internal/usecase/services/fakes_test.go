package services_test

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/api-sage/ledger-engine/src/internal/adapter/repository/repo_interfaces"
	"github.com/api-sage/ledger-engine/src/internal/domain"
	"github.com/shopspring/decimal"
)

type ledgerState struct {
	accounts     map[int64]domain.Account
	transactions map[int64]domain.Transaction
	legs         []domain.Leg
	nextAccount  int64
	nextTx       int64
	nextLeg      int64
}

func (s ledgerState) clone() ledgerState {
	out := ledgerState{
		accounts:     make(map[int64]domain.Account, len(s.accounts)),
		transactions: make(map[int64]domain.Transaction, len(s.transactions)),
		legs:         append([]domain.Leg(nil), s.legs...),
		nextAccount:  s.nextAccount,
		nextTx:       s.nextTx,
		nextLeg:      s.nextLeg,
	}
	for id, account := range s.accounts {
		out.accounts[id] = account
	}
	for id, transaction := range s.transactions {
		out.transactions[id] = transaction
	}
	return out
}

// memoryLedger serializes units of work and restores its snapshot when one fails.
type memoryLedger struct {
	mu    sync.Mutex
	state ledgerState

	readOnlyScopes  int
	readWriteScopes int
	isolations      []sql.IsolationLevel
}

func newMemoryLedger() *memoryLedger {
	return &memoryLedger{
		state: ledgerState{
			accounts:     map[int64]domain.Account{},
			transactions: map[int64]domain.Transaction{},
		},
	}
}

func (m *memoryLedger) RunInTransaction(ctx context.Context, opts repo_interfaces.TxOptions, fn repo_interfaces.TxFunc) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if opts.ReadOnly {
		m.readOnlyScopes++
	} else {
		m.readWriteScopes++
		m.isolations = append(m.isolations, opts.Isolation)
	}

	snapshot := m.state.clone()
	if err := fn(ctx, nil); err != nil {
		m.state = snapshot
		return err
	}
	return nil
}

func (m *memoryLedger) RunInReadOnlyTransaction(ctx context.Context, fn repo_interfaces.TxFunc) error {
	return m.RunInTransaction(ctx, repo_interfaces.TxOptions{Isolation: sql.LevelDefault, ReadOnly: true}, fn)
}

func (m *memoryLedger) RunInReadWriteTransaction(ctx context.Context, isolation sql.IsolationLevel, fn repo_interfaces.TxFunc) error {
	return m.RunInTransaction(ctx, repo_interfaces.TxOptions{Isolation: isolation}, fn)
}

// seedAccount inserts an account directly, bypassing services.
func (m *memoryLedger) seedAccount(balance string, currency domain.Currency, closed bool) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state.nextAccount++
	account := domain.Account{
		ID:        m.state.nextAccount,
		Balance:   decimal.RequireFromString(balance),
		Currency:  currency,
		CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	if closed {
		closedAt := account.CreatedAt
		account.ClosedAt = &closedAt
	}
	m.state.accounts[account.ID] = account
	return account.ID
}

func (m *memoryLedger) balance(id int64) decimal.Decimal {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.accounts[id].Balance
}

func (m *memoryLedger) transactionCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.state.transactions)
}

func (m *memoryLedger) legCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.state.legs)
}

// accountStore reads and writes ledger state. Callers already hold the ledger lock through
// RunInTransaction.
type accountStore struct {
	ledger *memoryLedger

	adjustErr      error
	adjustMismatch bool
}

func (r *accountStore) FindByID(_ context.Context, _ repo_interfaces.DBTX, id int64) (domain.Account, error) {
	account, ok := r.ledger.state.accounts[id]
	if !ok {
		return domain.Account{}, domain.ErrRecordNotFound
	}
	return account, nil
}

func (r *accountStore) FindByIDs(_ context.Context, _ repo_interfaces.DBTX, ids []int64) ([]domain.Account, error) {
	var accounts []domain.Account
	for _, id := range ids {
		if account, ok := r.ledger.state.accounts[id]; ok {
			accounts = append(accounts, account)
		}
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].ID < accounts[j].ID })
	return accounts, nil
}

func (r *accountStore) Create(_ context.Context, _ repo_interfaces.DBTX, account domain.Account) (int64, error) {
	r.ledger.state.nextAccount++
	account.ID = r.ledger.state.nextAccount
	r.ledger.state.accounts[account.ID] = account
	return account.ID, nil
}

func (r *accountStore) Close(_ context.Context, _ repo_interfaces.DBTX, id int64, closedAt time.Time) (bool, error) {
	account, ok := r.ledger.state.accounts[id]
	if !ok {
		return false, nil
	}
	if account.ClosedAt == nil {
		account.ClosedAt = &closedAt
		r.ledger.state.accounts[id] = account
	}
	return true, nil
}

func (r *accountStore) AdjustBalance(ctx context.Context, db repo_interfaces.DBTX, id int64, delta decimal.Decimal) (bool, error) {
	return r.AdjustBalances(ctx, db, map[int64]decimal.Decimal{id: delta})
}

func (r *accountStore) AdjustBalances(_ context.Context, _ repo_interfaces.DBTX, deltas map[int64]decimal.Decimal) (bool, error) {
	if r.adjustErr != nil {
		return false, r.adjustErr
	}

	updated := 0
	for id, delta := range deltas {
		account, ok := r.ledger.state.accounts[id]
		if !ok {
			continue
		}
		account.Balance = account.Balance.Add(delta)
		r.ledger.state.accounts[id] = account
		updated++
	}
	if r.adjustMismatch {
		return false, nil
	}
	return updated == len(deltas), nil
}

type transactionStore struct {
	ledger *memoryLedger

	createLegsErr error
}

func (r *transactionStore) CreateTransaction(_ context.Context, _ repo_interfaces.DBTX, transaction domain.Transaction) (int64, error) {
	if transaction.Status == domain.TransactionStatusCreated {
		return 0, errors.New("created transactions are never persisted")
	}
	r.ledger.state.nextTx++
	transaction.ID = r.ledger.state.nextTx
	transaction.Legs = nil
	r.ledger.state.transactions[transaction.ID] = transaction
	return transaction.ID, nil
}

func (r *transactionStore) CreateLegs(_ context.Context, _ repo_interfaces.DBTX, legs []domain.Leg) ([]int64, error) {
	if r.createLegsErr != nil {
		return nil, r.createLegsErr
	}
	ids := make([]int64, 0, len(legs))
	for _, leg := range legs {
		r.ledger.state.nextLeg++
		leg.ID = r.ledger.state.nextLeg
		r.ledger.state.legs = append(r.ledger.state.legs, leg)
		ids = append(ids, leg.ID)
	}
	return ids, nil
}

func (r *transactionStore) FindByID(_ context.Context, _ repo_interfaces.DBTX, id int64) (domain.Transaction, error) {
	transaction, ok := r.ledger.state.transactions[id]
	if !ok {
		return domain.Transaction{}, domain.ErrRecordNotFound
	}
	for _, leg := range r.ledger.state.legs {
		if leg.TransactionID == id {
			transaction.Legs = append(transaction.Legs, leg)
		}
	}
	return transaction, nil
}

func (r *transactionStore) FindLegs(_ context.Context, _ repo_interfaces.DBTX, accountID int64, timeRange domain.TimeRange) ([]domain.Leg, error) {
	type stamped struct {
		leg       domain.Leg
		updatedAt time.Time
	}

	var matches []stamped
	for _, leg := range r.ledger.state.legs {
		if leg.AccountID != accountID {
			continue
		}
		transaction := r.ledger.state.transactions[leg.TransactionID]
		if transaction.Status != domain.TransactionStatusCompleted {
			continue
		}
		if transaction.UpdatedAt.Before(timeRange.From) || !transaction.UpdatedAt.Before(timeRange.To) {
			continue
		}
		matches = append(matches, stamped{leg: leg, updatedAt: transaction.UpdatedAt})
	}

	sort.Slice(matches, func(i, j int) bool {
		if !matches[i].updatedAt.Equal(matches[j].updatedAt) {
			return matches[i].updatedAt.Before(matches[j].updatedAt)
		}
		return matches[i].leg.ID < matches[j].leg.ID
	})
	if len(matches) > domain.LegHistoryPageSize {
		matches = matches[:domain.LegHistoryPageSize]
	}

	legs := make([]domain.Leg, 0, len(matches))
	for _, match := range matches {
		legs = append(legs, match.leg)
	}
	return legs, nil
}

// stepClock advances by step on every reading.
type stepClock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now
	c.now = c.now.Add(c.step)
	return now
}

type fixture struct {
	ledger       *memoryLedger
	accounts     *accountStore
	transactions *transactionStore
	clock        *stepClock
}

func newFixture() *fixture {
	ledger := newMemoryLedger()
	return &fixture{
		ledger:       ledger,
		accounts:     &accountStore{ledger: ledger},
		transactions: &transactionStore{ledger: ledger},
		clock: &stepClock{
			now:  time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
			step: time.Second,
		},
	}
}
