package controller

import (
	"net/http"
	"time"

	"github.com/api-sage/ledger-engine/src/internal/adapter/http/models"
	"github.com/api-sage/ledger-engine/src/internal/commons"
	"github.com/api-sage/ledger-engine/src/internal/usecase/service_interfaces"
)

type TransferController struct {
	service service_interfaces.TransferService
}

func NewTransferController(service service_interfaces.TransferService) *TransferController {
	return &TransferController{service: service}
}

func (c *TransferController) RegisterRoutes(mux *http.ServeMux, authMiddleware func(http.Handler) http.Handler) {
	mux.Handle("POST /api/v1/transfers", protect(c.transfer, authMiddleware))
}

func (c *TransferController) transfer(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req models.TransferRequest
	if !decodeBody[models.TransactionResponse](w, r, &req, start) {
		return
	}
	logRequest(r, req)

	if err := req.Validate(); err != nil {
		respond(w, r, http.StatusBadRequest, commons.ErrorResponse[models.TransactionResponse]("validation failed", err.Error()), start)
		return
	}

	transaction, err := c.service.Transfer(r.Context(), req.ToDomain())
	if err != nil {
		respondError[models.TransactionResponse](w, r, err, start)
		return
	}

	respond(w, r, http.StatusCreated, commons.SuccessResponse("transfer recorded", models.NewTransactionResponse(transaction)), start)
}
