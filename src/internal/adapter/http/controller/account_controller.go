package controller

import (
	"net/http"
	"time"

	"github.com/api-sage/ledger-engine/src/internal/adapter/http/models"
	"github.com/api-sage/ledger-engine/src/internal/commons"
	"github.com/api-sage/ledger-engine/src/internal/usecase/service_interfaces"
)

type AccountController struct {
	service service_interfaces.AccountService
}

func NewAccountController(service service_interfaces.AccountService) *AccountController {
	return &AccountController{service: service}
}

func (c *AccountController) RegisterRoutes(mux *http.ServeMux, authMiddleware func(http.Handler) http.Handler) {
	mux.Handle("POST /api/v1/accounts", protect(c.createAccount, authMiddleware))
	mux.Handle("GET /api/v1/accounts/{id}", protect(c.getAccount, authMiddleware))
	mux.Handle("PATCH /api/v1/accounts/{id}", protect(c.closeAccount, authMiddleware))
}

func (c *AccountController) createAccount(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req models.CreateAccountRequest
	if !decodeBody[models.AccountResponse](w, r, &req, start) {
		return
	}
	logRequest(r, req)

	if err := req.Validate(); err != nil {
		respond(w, r, http.StatusBadRequest, commons.ErrorResponse[models.AccountResponse]("validation failed", err.Error()), start)
		return
	}

	account, err := c.service.CreateAccount(r.Context(), req.Currency)
	if err != nil {
		respondError[models.AccountResponse](w, r, err, start)
		return
	}

	respond(w, r, http.StatusCreated, commons.SuccessResponse("account created", models.NewAccountResponse(account)), start)
}

func (c *AccountController) getAccount(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logRequest(r, nil)

	id, ok := pathID[models.AccountResponse](w, r, "id", start)
	if !ok {
		return
	}

	account, err := c.service.FindAccount(r.Context(), id)
	if err != nil {
		respondError[models.AccountResponse](w, r, err, start)
		return
	}

	respond(w, r, http.StatusOK, commons.SuccessResponse("account retrieved", models.NewAccountResponse(account)), start)
}

func (c *AccountController) closeAccount(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logRequest(r, nil)

	id, ok := pathID[models.AccountResponse](w, r, "id", start)
	if !ok {
		return
	}

	account, err := c.service.CloseAccount(r.Context(), id)
	if err != nil {
		respondError[models.AccountResponse](w, r, err, start)
		return
	}

	respond(w, r, http.StatusOK, commons.SuccessResponse("account closed", models.NewAccountResponse(account)), start)
}
