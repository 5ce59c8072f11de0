package models

import (
	"errors"
	"strings"

	"github.com/api-sage/ledger-engine/src/internal/domain"
	"github.com/shopspring/decimal"
)

type TransferRequest struct {
	SourceAccountID int64           `json:"sourceAccountId"`
	TargetAccountID int64           `json:"targetAccountId"`
	Amount          decimal.Decimal `json:"amount"`
}

func (r TransferRequest) Validate() error {
	var errs []string

	if r.SourceAccountID <= 0 {
		errs = append(errs, "sourceAccountId is required")
	}
	if r.TargetAccountID <= 0 {
		errs = append(errs, "targetAccountId is required")
	}
	if r.Amount.IsZero() {
		errs = append(errs, "amount is required")
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}

	return nil
}

func (r TransferRequest) ToDomain() domain.TransferRequest {
	return domain.TransferRequest{
		SourceAccountID: r.SourceAccountID,
		TargetAccountID: r.TargetAccountID,
		Amount:          r.Amount,
	}
}
