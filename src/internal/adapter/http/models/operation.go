package models

import (
	"errors"
	"strings"
	"time"

	"github.com/api-sage/ledger-engine/src/internal/domain"
	"github.com/shopspring/decimal"
)

type OperationRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

func (r OperationRequest) Validate() error {
	if r.Amount.IsZero() {
		return errors.New("amount is required")
	}
	return nil
}

// ParseTimeRange reads the from/to query parameters of the leg history route.
func ParseTimeRange(from, to string) (domain.TimeRange, error) {
	var errs []string

	fromTime, err := parseQueryTime("from", from)
	if err != nil {
		errs = append(errs, err.Error())
	}
	toTime, err := parseQueryTime("to", to)
	if err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return domain.TimeRange{}, errors.New(strings.Join(errs, "; "))
	}

	return domain.TimeRange{From: fromTime, To: toTime}, nil
}

func parseQueryTime(name, value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, errors.New(name + " is required")
	}

	parsed, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, errors.New(name + " must be an RFC3339 timestamp")
	}
	return parsed.UTC(), nil
}
