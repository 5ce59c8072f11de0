package controller

import (
	"context"
	"net/http"
	"time"

	"github.com/api-sage/ledger-engine/src/internal/commons"
)

type Pinger interface {
	PingContext(ctx context.Context) error
}

type HealthStatus struct {
	Database string `json:"database"`
}

type HealthController struct {
	db      Pinger
	timeout time.Duration
}

func NewHealthController(db Pinger) *HealthController {
	return &HealthController{db: db, timeout: 2 * time.Second}
}

// RegisterRoutes leaves /healthz open so health checks need no credentials.
func (c *HealthController) RegisterRoutes(mux *http.ServeMux, _ func(http.Handler) http.Handler) {
	mux.HandleFunc("GET /healthz", c.health)
}

func (c *HealthController) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), c.timeout)
	defer cancel()

	if err := c.db.PingContext(ctx); err != nil {
		logError(r, err, nil)
		writeJSON(w, http.StatusServiceUnavailable, commons.ErrorResponse[HealthStatus]("database unavailable"))
		return
	}

	writeJSON(w, http.StatusOK, commons.SuccessResponse("ok", HealthStatus{Database: "up"}))
}
