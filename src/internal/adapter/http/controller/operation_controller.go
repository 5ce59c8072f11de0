package controller

import (
	"context"
	"net/http"
	"time"

	"github.com/api-sage/ledger-engine/src/internal/adapter/http/models"
	"github.com/api-sage/ledger-engine/src/internal/commons"
	"github.com/api-sage/ledger-engine/src/internal/domain"
	"github.com/api-sage/ledger-engine/src/internal/usecase/service_interfaces"
	"github.com/shopspring/decimal"
)

// OperationController serves single-account deposits, withdrawals and leg history.
type OperationController struct {
	service service_interfaces.BalanceService
}

func NewOperationController(service service_interfaces.BalanceService) *OperationController {
	return &OperationController{service: service}
}

func (c *OperationController) RegisterRoutes(mux *http.ServeMux, authMiddleware func(http.Handler) http.Handler) {
	mux.Handle("POST /api/v1/accounts/{id}/operations/deposits", protect(c.deposit, authMiddleware))
	mux.Handle("POST /api/v1/accounts/{id}/operations/withdrawals", protect(c.withdraw, authMiddleware))
	mux.Handle("GET /api/v1/accounts/{id}/operations", protect(c.history, authMiddleware))
}

func (c *OperationController) deposit(w http.ResponseWriter, r *http.Request) {
	c.operate(w, r, c.service.Deposit)
}

func (c *OperationController) withdraw(w http.ResponseWriter, r *http.Request) {
	c.operate(w, r, c.service.Withdraw)
}

type operationFunc func(ctx context.Context, accountID int64, amount decimal.Decimal) (domain.Transaction, error)

func (c *OperationController) operate(w http.ResponseWriter, r *http.Request, apply operationFunc) {
	start := time.Now()

	id, ok := pathID[models.TransactionResponse](w, r, "id", start)
	if !ok {
		return
	}

	var req models.OperationRequest
	if !decodeBody[models.TransactionResponse](w, r, &req, start) {
		return
	}
	logRequest(r, req)

	if err := req.Validate(); err != nil {
		respond(w, r, http.StatusBadRequest, commons.ErrorResponse[models.TransactionResponse]("validation failed", err.Error()), start)
		return
	}

	transaction, err := apply(r.Context(), id, req.Amount)
	if err != nil {
		respondError[models.TransactionResponse](w, r, err, start)
		return
	}

	respond(w, r, http.StatusCreated, commons.SuccessResponse("operation recorded", models.NewTransactionResponse(transaction)), start)
}

func (c *OperationController) history(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logRequest(r, nil)

	id, ok := pathID[[]models.LegResponse](w, r, "id", start)
	if !ok {
		return
	}

	query := r.URL.Query()
	timeRange, err := models.ParseTimeRange(query.Get("from"), query.Get("to"))
	if err != nil {
		respond(w, r, http.StatusBadRequest, commons.ErrorResponse[[]models.LegResponse]("validation failed", err.Error()), start)
		return
	}

	legs, err := c.service.FindLegs(r.Context(), id, timeRange)
	if err != nil {
		respondError[[]models.LegResponse](w, r, err, start)
		return
	}

	respond(w, r, http.StatusOK, commons.SuccessResponse("operations retrieved", models.NewLegResponses(legs)), start)
}
