package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Account struct {
	ID        int64
	Balance   decimal.Decimal
	Currency  Currency
	CreatedAt time.Time
	ClosedAt  *time.Time
}

func (a Account) IsClosed() bool {
	return a.ClosedAt != nil
}
