package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/propmgr/apiserver/internal/services"
	"github.com/sirupsen/logrus"
)

// Pinger reports database reachability.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthHandler reports whether the server can reach its database and
// whether the configured administrator account exists.
type HealthHandler struct {
	db         Pinger
	accounts   *services.AccountService
	adminEmail string
	log        logrus.FieldLogger
}

func NewHealthHandler(db Pinger, accounts *services.AccountService, adminEmail string, log logrus.FieldLogger) *HealthHandler {
	return &HealthHandler{db: db, accounts: accounts, adminEmail: adminEmail, log: log}
}

type HealthResponse struct {
	Status      string `json:"status"`
	Database    string `json:"database"`
	AdminExists bool   `json:"admin_exists"`
}

func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	resp := HealthResponse{Status: "ok", Database: "up"}
	if err := h.db.PingContext(ctx); err != nil {
		h.log.WithError(err).Error("health check: database unreachable")
		resp.Status = "unavailable"
		resp.Database = "down"
		writeJSON(w, http.StatusServiceUnavailable, resp)
		return
	}

	exists, err := h.accounts.Exists(ctx, h.adminEmail)
	if err != nil {
		h.log.WithError(err).Error("health check: admin lookup failed")
		resp.Status = "unavailable"
		writeJSON(w, http.StatusServiceUnavailable, resp)
		return
	}
	resp.AdminExists = exists
	if !exists {
		resp.Status = "degraded"
		writeJSON(w, http.StatusServiceUnavailable, resp)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
