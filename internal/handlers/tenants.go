package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/propmgr/apiserver/internal/auth"
	"github.com/propmgr/apiserver/internal/services"
	"github.com/propmgr/apiserver/types"
)

// TenantHandler provides HTTP handlers for tenancy records.
type TenantHandler struct {
	tenants *services.TenantService
}

func NewTenantHandler(tenants *services.TenantService) *TenantHandler {
	return &TenantHandler{tenants: tenants}
}

// TenantRouter registers tenant routes on the given router.
func TenantRouter(r chi.Router, tenants *services.TenantService, engine *auth.Engine) {
	handler := NewTenantHandler(tenants)

	r.With(engine.Require(RuleTenantsList, "")).Get("/", handler.ListTenants)
	r.With(engine.Require(RuleTenantsWrite, "")).Post("/", handler.CreateTenant)
	r.With(engine.Require(RuleTenantsSelf, "")).Get("/me", handler.MyTenancy)
	r.With(engine.Require(RuleTenantsList, "")).Get("/flat/{flatID}", handler.ListByFlat)
	r.With(engine.Require(RuleTenantsList, "")).Get("/active", handler.ListActive)
	r.With(engine.Require(RuleTenantsList, "")).Get("/expiring", handler.ListExpiring)
	r.Route("/{tenantID}", func(r chi.Router) {
		r.With(engine.Require(RuleTenantsRead, "tenantID")).Get("/", handler.GetTenant)
		r.With(engine.Require(RuleTenantsWrite, "")).Put("/", handler.UpdateTenant)
		r.With(engine.Require(RuleTenantsDelete, "")).Delete("/", handler.DeleteTenant)
	})
}

func (h *TenantHandler) ListTenants(w http.ResponseWriter, r *http.Request) {
	items, err := h.tenants.List(r.Context())
	if err != nil {
		writeServiceError(w, err, "tenants", "list")
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *TenantHandler) ListByFlat(w http.ResponseWriter, r *http.Request) {
	flatID, err := parseID(r, "flatID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	items, err := h.tenants.ListByFlat(r.Context(), flatID)
	if err != nil {
		writeServiceError(w, err, "tenants", "list")
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// ListActive lists tenancies whose lease covers today.
func (h *TenantHandler) ListActive(w http.ResponseWriter, r *http.Request) {
	items, err := h.tenants.ListActive(r.Context())
	if err != nil {
		writeServiceError(w, err, "tenants", "list")
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// ListExpiring lists tenancies whose lease ends within ?days= (default 30).
func (h *TenantHandler) ListExpiring(w http.ResponseWriter, r *http.Request) {
	days := services.DefaultExpiringDays
	if raw := strings.TrimSpace(r.URL.Query().Get("days")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid days")
			return
		}
		days = parsed
	}
	items, err := h.tenants.ListExpiring(r.Context(), days)
	if err != nil {
		writeServiceError(w, err, "tenants", "list")
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// MyTenancy returns the tenancy record of the calling account.
func (h *TenantHandler) MyTenancy(w http.ResponseWriter, r *http.Request) {
	principal := principalFrom(r)
	if principal == nil {
		auth.WriteError(w, auth.ErrUnauthenticated)
		return
	}
	record, err := h.tenants.ForAccount(r.Context(), principal.ID)
	if err != nil {
		writeServiceError(w, err, "tenant", "fetch")
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (h *TenantHandler) GetTenant(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "tenantID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	record, err := h.tenants.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, "tenant", "fetch")
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (h *TenantHandler) CreateTenant(w http.ResponseWriter, r *http.Request) {
	var record types.Tenant
	if err := decodeJSON(r, &record); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	record.ID = 0
	created, err := h.tenants.Create(r.Context(), record)
	if err != nil {
		writeServiceError(w, err, "tenant", "create")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *TenantHandler) UpdateTenant(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "tenantID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var record types.Tenant
	if err := decodeJSON(r, &record); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	record.ID = id
	updated, err := h.tenants.Update(r.Context(), record)
	if err != nil {
		writeServiceError(w, err, "tenant", "update")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *TenantHandler) DeleteTenant(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "tenantID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.tenants.Delete(r.Context(), id); err != nil {
		writeServiceError(w, err, "tenant", "delete")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
