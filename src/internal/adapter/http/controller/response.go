package controller

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/api-sage/ledger-engine/src/internal/adapter/http/middleware"
	"github.com/api-sage/ledger-engine/src/internal/commons"
	"github.com/api-sage/ledger-engine/src/internal/domain"
)

func protect(handler http.HandlerFunc, authMiddleware func(http.Handler) http.Handler) http.Handler {
	if authMiddleware == nil {
		return handler
	}
	return authMiddleware(handler)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respond(w http.ResponseWriter, r *http.Request, status int, payload any, start time.Time) {
	if scoped, ok := payload.(commons.RequestScoped); ok {
		if id := middleware.RequestIDFromContext(r.Context()); id != "" {
			payload = scoped.WithRequestID(id)
		}
	}
	writeJSON(w, status, payload)
	logResponse(r, status, payload, start)
}

// respondError maps the error kind to a status. Fatal details stay in the logs.
func respondError[T any](w http.ResponseWriter, r *http.Request, err error, start time.Time) {
	var (
		status   int
		response commons.Response[T]
	)

	switch domain.Classify(err) {
	case domain.ErrorKindValidation:
		status = http.StatusBadRequest
		response = commons.ErrorResponse[T]("validation failed", err.Error())
	case domain.ErrorKindNotFound:
		status = http.StatusNotFound
		response = commons.ErrorResponse[T]("record not found", err.Error())
	default:
		logError(r, err, nil)
		status = http.StatusInternalServerError
		response = commons.ErrorResponse[T]("internal server error")
	}

	respond(w, r, status, response, start)
}

func decodeBody[T any](w http.ResponseWriter, r *http.Request, dst any, start time.Time) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		logError(r, err, nil)
		respond(w, r, http.StatusBadRequest, commons.ErrorResponse[T]("invalid request body", err.Error()), start)
		return false
	}
	return true
}

func pathID[T any](w http.ResponseWriter, r *http.Request, name string, start time.Time) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		respond(w, r, http.StatusBadRequest, commons.ErrorResponse[T]("validation failed", name+" must be a positive integer"), start)
		return 0, false
	}
	return id, true
}
