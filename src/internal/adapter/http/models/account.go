package models

import (
	"errors"
	"strings"
	"time"

	"github.com/api-sage/ledger-engine/src/internal/domain"
)

type CreateAccountRequest struct {
	Currency string `json:"currency"`
}

func (r CreateAccountRequest) Validate() error {
	if strings.TrimSpace(r.Currency) == "" {
		return errors.New("currency is required")
	}
	return nil
}

type AccountResponse struct {
	ID        int64   `json:"id"`
	Balance   string  `json:"balance"`
	Currency  string  `json:"currency"`
	CreatedAt string  `json:"createdAt"`
	ClosedAt  *string `json:"closedAt,omitempty"`
}

func NewAccountResponse(account domain.Account) AccountResponse {
	response := AccountResponse{
		ID:        account.ID,
		Balance:   account.Balance.StringFixed(4),
		Currency:  string(account.Currency),
		CreatedAt: formatTime(account.CreatedAt),
	}
	if account.ClosedAt != nil {
		closedAt := formatTime(*account.ClosedAt)
		response.ClosedAt = &closedAt
	}
	return response
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
