package domain

import "github.com/shopspring/decimal"

// TransferRequest moves Amount from the source account to the target account.
type TransferRequest struct {
	SourceAccountID int64
	TargetAccountID int64
	Amount          decimal.Decimal
}
