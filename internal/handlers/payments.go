package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/propmgr/apiserver/internal/auth"
	"github.com/propmgr/apiserver/internal/services"
	"github.com/propmgr/apiserver/types"
)

// PaymentHandler provides HTTP handlers for payments.
type PaymentHandler struct {
	payments *services.PaymentService
}

func NewPaymentHandler(payments *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

// PaymentRouter registers payment routes on the given router.
func PaymentRouter(r chi.Router, payments *services.PaymentService, engine *auth.Engine) {
	handler := NewPaymentHandler(payments)

	r.With(engine.Require(RulePaymentsList, "")).Get("/", handler.ListPayments)
	r.With(engine.Require(RulePaymentsWrite, "")).Post("/", handler.CreatePayment)
	r.With(engine.Require(RulePaymentsByTenant, "tenantID")).Get("/tenant/{tenantID}", handler.ListByTenant)
	r.With(engine.Require(RulePaymentsByTenant, "tenantID")).Get("/tenant/{tenantID}/date-range", handler.ListByTenantDateRange)
	r.With(engine.Require(RulePaymentsList, "")).Get("/status/{status}", handler.ListByStatus)
	r.With(engine.Require(RulePaymentsList, "")).Get("/flat/{flatID}", handler.ListByFlat)
	r.With(engine.Require(RulePaymentsList, "")).Get("/type/{type}", handler.ListByType)
	r.With(engine.Require(RulePaymentsList, "")).Get("/date-range", handler.ListByDateRange)
	r.With(engine.Require(RulePaymentsList, "")).Get("/overdue", handler.ListOverdue)
	r.With(engine.Require(RulePaymentsList, "")).Get("/pending", handler.listStatus(types.PaymentPending))
	r.With(engine.Require(RulePaymentsList, "")).Get("/completed", handler.listStatus(types.PaymentCompleted))
	r.Route("/{paymentID}", func(r chi.Router) {
		r.With(engine.Require(RulePaymentsRead, "paymentID")).Get("/", handler.GetPayment)
		r.With(engine.Require(RulePaymentsWrite, "")).Put("/", handler.UpdatePayment)
		r.With(engine.Require(RulePaymentsWrite, "")).Put("/status", handler.UpdateStatus)
		r.With(engine.Require(RulePaymentsPay, "")).Post("/pay", handler.Pay)
		r.With(engine.Require(RulePaymentsDelete, "")).Delete("/", handler.DeletePayment)
	})
}

type StatusRequest struct {
	Status     string `json:"status"`
	Resolution string `json:"resolution,omitempty"`
}

func (h *PaymentHandler) ListPayments(w http.ResponseWriter, r *http.Request) {
	items, err := h.payments.List(r.Context())
	if err != nil {
		writeServiceError(w, err, "payments", "list")
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *PaymentHandler) ListByTenant(w http.ResponseWriter, r *http.Request) {
	tenantID, err := parseID(r, "tenantID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	items, err := h.payments.ListByTenant(r.Context(), tenantID)
	if err != nil {
		writeServiceError(w, err, "payments", "list")
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *PaymentHandler) ListByTenantDateRange(w http.ResponseWriter, r *http.Request) {
	tenantID, err := parseID(r, "tenantID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	from, to, err := parseDateRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	items, err := h.payments.ListTenantDueBetween(r.Context(), tenantID, from, to)
	if err != nil {
		writeServiceError(w, err, "payments", "list")
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *PaymentHandler) ListByDateRange(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseDateRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	items, err := h.payments.ListDueBetween(r.Context(), from, to)
	if err != nil {
		writeServiceError(w, err, "payments", "list")
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *PaymentHandler) ListByFlat(w http.ResponseWriter, r *http.Request) {
	flatID, err := parseID(r, "flatID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	items, err := h.payments.ListByFlat(r.Context(), flatID)
	if err != nil {
		writeServiceError(w, err, "payments", "list")
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *PaymentHandler) ListByType(w http.ResponseWriter, r *http.Request) {
	items, err := h.payments.ListByType(r.Context(), chi.URLParam(r, "type"))
	if err != nil {
		writeServiceError(w, err, "payments", "list")
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// ListOverdue lists pending or overdue payments past their due date.
func (h *PaymentHandler) ListOverdue(w http.ResponseWriter, r *http.Request) {
	items, err := h.payments.ListOverdue(r.Context())
	if err != nil {
		writeServiceError(w, err, "payments", "list")
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *PaymentHandler) listStatus(status types.PaymentStatus) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := h.payments.ListByStatus(r.Context(), status)
		if err != nil {
			writeServiceError(w, err, "payments", "list")
			return
		}
		writeJSON(w, http.StatusOK, items)
	}
}

func (h *PaymentHandler) ListByStatus(w http.ResponseWriter, r *http.Request) {
	status := types.PaymentStatus(strings.ToUpper(chi.URLParam(r, "status")))
	if !status.Valid() {
		writeError(w, http.StatusBadRequest, "invalid status")
		return
	}
	items, err := h.payments.ListByStatus(r.Context(), status)
	if err != nil {
		writeServiceError(w, err, "payments", "list")
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *PaymentHandler) GetPayment(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "paymentID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	payment, err := h.payments.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, "payment", "fetch")
		return
	}
	writeJSON(w, http.StatusOK, payment)
}

func (h *PaymentHandler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	var payment types.Payment
	if err := decodeJSON(r, &payment); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	payment.ID = 0
	payment.PaidAt = nil
	created, err := h.payments.Create(r.Context(), payment)
	if err != nil {
		writeServiceError(w, err, "payment", "create")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// UpdatePayment edits a payment's amount, type, due date, flat or
// description. Status changes go through UpdateStatus and Pay.
func (h *PaymentHandler) UpdatePayment(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "paymentID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var changes types.Payment
	if err := decodeJSON(r, &changes); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	updated, err := h.payments.Update(r.Context(), id, changes)
	if err != nil {
		writeServiceError(w, err, "payment", "update")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *PaymentHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "paymentID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req StatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	status := types.PaymentStatus(strings.ToUpper(strings.TrimSpace(req.Status)))
	if err := h.payments.UpdateStatus(r.Context(), id, status); err != nil {
		writeServiceError(w, err, "payment", "update")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Pay marks a payment completed. Only staff record settlement; tenants see
// the result through their own payment listing.
func (h *PaymentHandler) Pay(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "paymentID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.payments.MarkPaid(r.Context(), id); err != nil {
		writeServiceError(w, err, "payment", "update")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *PaymentHandler) DeletePayment(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "paymentID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.payments.Delete(r.Context(), id); err != nil {
		writeServiceError(w, err, "payment", "delete")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
