package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/propmgr/apiserver/internal/auth"
	"github.com/propmgr/apiserver/internal/services"
	"github.com/propmgr/apiserver/types"
)

// ComplaintHandler provides HTTP handlers for complaints.
type ComplaintHandler struct {
	complaints *services.ComplaintService
	engine     *auth.Engine
}

func NewComplaintHandler(complaints *services.ComplaintService, engine *auth.Engine) *ComplaintHandler {
	return &ComplaintHandler{complaints: complaints, engine: engine}
}

// ComplaintRouter registers complaint routes on the given router.
func ComplaintRouter(r chi.Router, complaints *services.ComplaintService, engine *auth.Engine) {
	handler := NewComplaintHandler(complaints, engine)

	r.With(engine.Require(RuleComplaintsList, "")).Get("/", handler.ListComplaints)
	r.With(engine.Require(RuleComplaintsCreate, "")).Post("/", handler.CreateComplaint)
	r.With(engine.Require(RuleComplaintsByTenant, "tenantID")).Get("/tenant/{tenantID}", handler.ListByTenant)
	r.With(engine.Require(RuleComplaintsList, "")).Get("/flat/{flatID}", handler.ListByFlat)
	r.With(engine.Require(RuleComplaintsList, "")).Get("/priority/{priority}", handler.ListByPriority)
	r.With(engine.Require(RuleComplaintsList, "")).Get("/assigned/{accountID}", handler.ListAssigned)
	r.With(engine.Require(RuleComplaintsList, "")).Get("/open", handler.ListOpen)
	r.With(engine.Require(RuleComplaintsList, "")).Get("/urgent", handler.ListUrgent)
	r.Route("/{complaintID}", func(r chi.Router) {
		r.With(engine.Require(RuleComplaintsRead, "complaintID")).Get("/", handler.GetComplaint)
		r.With(engine.Require(RuleComplaintsWrite, "")).Put("/", handler.UpdateComplaint)
		r.With(engine.Require(RuleComplaintsWrite, "")).Put("/status", handler.UpdateStatus)
		r.With(engine.Require(RuleComplaintsDelete, "")).Delete("/", handler.DeleteComplaint)
	})
}

func (h *ComplaintHandler) ListComplaints(w http.ResponseWriter, r *http.Request) {
	items, err := h.complaints.List(r.Context())
	if err != nil {
		writeServiceError(w, err, "complaints", "list")
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *ComplaintHandler) ListByTenant(w http.ResponseWriter, r *http.Request) {
	tenantID, err := parseID(r, "tenantID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	items, err := h.complaints.ListByTenant(r.Context(), tenantID)
	if err != nil {
		writeServiceError(w, err, "complaints", "list")
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *ComplaintHandler) ListByFlat(w http.ResponseWriter, r *http.Request) {
	flatID, err := parseID(r, "flatID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	items, err := h.complaints.ListByFlat(r.Context(), flatID)
	h.writeList(w, items, err)
}

func (h *ComplaintHandler) ListByPriority(w http.ResponseWriter, r *http.Request) {
	items, err := h.complaints.ListByPriority(r.Context(), chi.URLParam(r, "priority"))
	h.writeList(w, items, err)
}

func (h *ComplaintHandler) ListAssigned(w http.ResponseWriter, r *http.Request) {
	accountID, err := parseID(r, "accountID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	items, err := h.complaints.ListAssigned(r.Context(), accountID)
	h.writeList(w, items, err)
}

func (h *ComplaintHandler) ListOpen(w http.ResponseWriter, r *http.Request) {
	items, err := h.complaints.ListOpen(r.Context())
	h.writeList(w, items, err)
}

// ListUrgent lists URGENT complaints that are still open or in progress.
func (h *ComplaintHandler) ListUrgent(w http.ResponseWriter, r *http.Request) {
	items, err := h.complaints.ListUrgent(r.Context())
	h.writeList(w, items, err)
}

func (h *ComplaintHandler) writeList(w http.ResponseWriter, items []types.Complaint, err error) {
	if err != nil {
		writeServiceError(w, err, "complaints", "list")
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *ComplaintHandler) GetComplaint(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "complaintID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	complaint, err := h.complaints.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, "complaint", "fetch")
		return
	}
	writeJSON(w, http.StatusOK, complaint)
}

// CreateComplaint opens a complaint. Tenants may only file against their
// own tenancy.
func (h *ComplaintHandler) CreateComplaint(w http.ResponseWriter, r *http.Request) {
	var complaint types.Complaint
	if err := decodeJSON(r, &complaint); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if complaint.TenantID < 1 {
		writeError(w, http.StatusBadRequest, "tenant_id is required")
		return
	}
	if err := h.engine.Authorize(r.Context(), principalFrom(r), RuleComplaintsFor, complaint.TenantID); err != nil {
		auth.WriteError(w, err)
		return
	}

	complaint.ID = 0
	complaint.Resolution = ""
	created, err := h.complaints.Create(r.Context(), complaint)
	if err != nil {
		writeServiceError(w, err, "complaint", "create")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// UpdateComplaint edits title, description, priority or assignee.
func (h *ComplaintHandler) UpdateComplaint(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "complaintID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var changes types.Complaint
	if err := decodeJSON(r, &changes); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	updated, err := h.complaints.Update(r.Context(), id, changes)
	if err != nil {
		writeServiceError(w, err, "complaint", "update")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *ComplaintHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "complaintID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req StatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	status := types.ComplaintStatus(strings.ToUpper(strings.TrimSpace(req.Status)))
	if err := h.complaints.UpdateStatus(r.Context(), id, status, req.Resolution); err != nil {
		writeServiceError(w, err, "complaint", "update")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ComplaintHandler) DeleteComplaint(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "complaintID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.complaints.Delete(r.Context(), id); err != nil {
		writeServiceError(w, err, "complaint", "delete")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
