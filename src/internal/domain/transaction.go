package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type TransactionStatus string

// TransactionStatusCreated only exists on proposed transactions and is never persisted.
const (
	TransactionStatusCreated   TransactionStatus = "CREATED"
	TransactionStatusCompleted TransactionStatus = "COMPLETED"
	TransactionStatusFailed    TransactionStatus = "FAILED"
)

var transactionStatusByCode = map[int16]TransactionStatus{
	0: TransactionStatusCreated,
	1: TransactionStatusCompleted,
	2: TransactionStatusFailed,
}

var transactionStatusCodes = map[TransactionStatus]int16{
	TransactionStatusCreated:   0,
	TransactionStatusCompleted: 1,
	TransactionStatusFailed:    2,
}

func TransactionStatusFromCode(code int16) (TransactionStatus, error) {
	status, ok := transactionStatusByCode[code]
	if !ok {
		return "", fmt.Errorf("unknown transaction status code %d", code)
	}
	return status, nil
}

func (s TransactionStatus) Code() int16 {
	return transactionStatusCodes[s]
}

// Reasons recorded on FAILED transactions.
const (
	ReasonAccountClosed     = "account closed"
	ReasonInsufficientFunds = "insufficient funds"
	ReasonServerError       = "server error"
)

// Outcome is the result of a mutating attempt. It is produced once, by Completed or Failed.
type Outcome struct {
	status TransactionStatus
	reason string
}

func Completed() Outcome {
	return Outcome{status: TransactionStatusCompleted}
}

func Failed(reason string) Outcome {
	return Outcome{status: TransactionStatusFailed, reason: reason}
}

func (o Outcome) Status() TransactionStatus {
	return o.status
}

// Reason is nil unless the outcome is a failure.
func (o Outcome) Reason() *string {
	if o.status != TransactionStatusFailed {
		return nil
	}
	reason := o.reason
	return &reason
}

type Leg struct {
	ID            int64
	AccountID     int64
	TransactionID int64
	Amount        decimal.Decimal
}

// ProposedTransaction is what callers hand to the engine: the legs, not yet stamped or persisted.
type ProposedTransaction struct {
	Legs      []Leg
	CreatedAt time.Time
}

type Transaction struct {
	ID          int64
	Status      TransactionStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Legs        []Leg
	ErrorReason *string
}

// NewTransactionRecord builds the header that is persisted for a proposed transaction and its outcome.
func NewTransactionRecord(proposed ProposedTransaction, outcome Outcome) Transaction {
	legs := make([]Leg, len(proposed.Legs))
	copy(legs, proposed.Legs)

	return Transaction{
		Status:      outcome.Status(),
		CreatedAt:   proposed.CreatedAt,
		UpdatedAt:   proposed.CreatedAt,
		Legs:        legs,
		ErrorReason: outcome.Reason(),
	}
}

// LegsFor returns copies of the legs carrying the given transaction id.
func (t Transaction) LegsFor(transactionID int64) []Leg {
	legs := make([]Leg, 0, len(t.Legs))
	for _, leg := range t.Legs {
		legs = append(legs, Leg{
			AccountID:     leg.AccountID,
			TransactionID: transactionID,
			Amount:        leg.Amount,
		})
	}
	return legs
}

// TimeRange is half-open: From is included, To is not.
type TimeRange struct {
	From time.Time
	To   time.Time
}

func (r TimeRange) Validate() error {
	if r.From.IsZero() || r.To.IsZero() {
		return NewValidationError("range", "from and to are required")
	}
	if r.From.After(r.To) {
		return NewValidationError("range", "from must not be after to")
	}
	return nil
}

const LegHistoryPageSize = 100

// AmountScale is the number of fractional digits balances and leg amounts are stored with.
const AmountScale = 4

// ValidateAmountScale rejects amounts the store would have to round.
func ValidateAmountScale(amount decimal.Decimal) error {
	if !amount.Equal(amount.Truncate(AmountScale)) {
		return NewValidationError("amount", fmt.Sprintf("amount %s has more than %d decimal places", amount.String(), AmountScale))
	}
	return nil
}
