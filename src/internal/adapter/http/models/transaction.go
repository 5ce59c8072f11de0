package models

import "github.com/api-sage/ledger-engine/src/internal/domain"

type LegResponse struct {
	ID            int64  `json:"id"`
	AccountID     int64  `json:"accountId"`
	TransactionID int64  `json:"transactionId"`
	Amount        string `json:"amount"`
}

type TransactionResponse struct {
	ID          int64         `json:"id"`
	Status      string        `json:"status"`
	CreatedAt   string        `json:"createdAt"`
	UpdatedAt   string        `json:"updatedAt"`
	ErrorReason *string       `json:"errorReason,omitempty"`
	Legs        []LegResponse `json:"legs"`
}

func NewLegResponse(leg domain.Leg) LegResponse {
	return LegResponse{
		ID:            leg.ID,
		AccountID:     leg.AccountID,
		TransactionID: leg.TransactionID,
		Amount:        leg.Amount.StringFixed(4),
	}
}

func NewLegResponses(legs []domain.Leg) []LegResponse {
	responses := make([]LegResponse, 0, len(legs))
	for _, leg := range legs {
		responses = append(responses, NewLegResponse(leg))
	}
	return responses
}

func NewTransactionResponse(transaction domain.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:          transaction.ID,
		Status:      string(transaction.Status),
		CreatedAt:   formatTime(transaction.CreatedAt),
		UpdatedAt:   formatTime(transaction.UpdatedAt),
		ErrorReason: transaction.ErrorReason,
		Legs:        NewLegResponses(transaction.Legs),
	}
}
