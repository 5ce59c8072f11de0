package service_interfaces

import (
	"context"

	"github.com/api-sage/ledger-engine/src/internal/domain"
)

type TransferService interface {
	Transfer(ctx context.Context, req domain.TransferRequest) (domain.Transaction, error)
}
