package controller

import (
	"net/http"
	"time"

	"github.com/api-sage/ledger-engine/src/internal/adapter/http/models"
	"github.com/api-sage/ledger-engine/src/internal/commons"
	"github.com/api-sage/ledger-engine/src/internal/usecase/service_interfaces"
)

type TransactionController struct {
	service service_interfaces.TransactionService
}

func NewTransactionController(service service_interfaces.TransactionService) *TransactionController {
	return &TransactionController{service: service}
}

func (c *TransactionController) RegisterRoutes(mux *http.ServeMux, authMiddleware func(http.Handler) http.Handler) {
	mux.Handle("GET /api/v1/transactions/{id}", protect(c.getTransaction, authMiddleware))
}

func (c *TransactionController) getTransaction(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logRequest(r, nil)

	id, ok := pathID[models.TransactionResponse](w, r, "id", start)
	if !ok {
		return
	}

	transaction, err := c.service.FindTransaction(r.Context(), id)
	if err != nil {
		respondError[models.TransactionResponse](w, r, err, start)
		return
	}

	respond(w, r, http.StatusOK, commons.SuccessResponse("transaction retrieved", models.NewTransactionResponse(transaction)), start)
}
