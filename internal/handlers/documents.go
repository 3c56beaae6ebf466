package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/propmgr/apiserver/internal/auth"
	"github.com/propmgr/apiserver/internal/services"
)

const (
	maxMultipartMemory = 32 << 20
	maxDocumentBytes   = 64 << 20
	formFieldFile      = "file"
	formFieldTenantID  = "tenant_id"
	formFieldType      = "type"
)

// DocumentHandler provides HTTP handlers for tenant documents.
type DocumentHandler struct {
	documents *services.DocumentService
	engine    *auth.Engine
}

func NewDocumentHandler(documents *services.DocumentService, engine *auth.Engine) *DocumentHandler {
	return &DocumentHandler{documents: documents, engine: engine}
}

// DocumentRouter registers document routes on the given router.
func DocumentRouter(r chi.Router, documents *services.DocumentService, engine *auth.Engine) {
	handler := NewDocumentHandler(documents, engine)

	r.With(engine.Require(RuleDocumentsList, "")).Get("/", handler.ListDocuments)
	r.With(engine.Require(RuleDocumentsUpload, "")).Post("/", handler.UploadDocument)
	r.With(engine.Require(RuleDocumentsByTenant, "tenantID")).Get("/tenant/{tenantID}", handler.ListByTenant)
	r.With(engine.Require(RuleDocumentsList, "")).Get("/flat/{flatID}", handler.ListByFlat)
	r.With(engine.Require(RuleDocumentsList, "")).Get("/type/{type}", handler.ListByType)
	r.Route("/{documentID}", func(r chi.Router) {
		r.With(engine.Require(RuleDocumentsRead, "documentID")).Get("/", handler.GetDocument)
		r.With(engine.Require(RuleDocumentsWrite, "")).Put("/", handler.UpdateDocument)
		r.With(engine.Require(RuleDocumentsRead, "documentID")).Get("/content", handler.DownloadDocument)
		r.With(engine.Require(RuleDocumentsVerify, "")).Put("/verify", handler.VerifyDocument)
		r.With(engine.Require(RuleDocumentsDelete, "")).Delete("/", handler.DeleteDocument)
	})
}

func (h *DocumentHandler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	items, err := h.documents.List(r.Context())
	if err != nil {
		writeServiceError(w, err, "documents", "list")
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *DocumentHandler) ListByTenant(w http.ResponseWriter, r *http.Request) {
	tenantID, err := parseID(r, "tenantID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	items, err := h.documents.ListByTenant(r.Context(), tenantID)
	if err != nil {
		writeServiceError(w, err, "documents", "list")
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *DocumentHandler) ListByFlat(w http.ResponseWriter, r *http.Request) {
	flatID, err := parseID(r, "flatID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	items, err := h.documents.ListByFlat(r.Context(), flatID)
	if err != nil {
		writeServiceError(w, err, "documents", "list")
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *DocumentHandler) ListByType(w http.ResponseWriter, r *http.Request) {
	items, err := h.documents.ListByType(r.Context(), chi.URLParam(r, "type"))
	if err != nil {
		writeServiceError(w, err, "documents", "list")
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// DocumentUpdateRequest renames a document or changes its type.
type DocumentUpdateRequest struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// UpdateDocument edits document metadata. The stored file is not replaced.
func (h *DocumentHandler) UpdateDocument(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "documentID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req DocumentUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	updated, err := h.documents.Update(r.Context(), id, req.Name, req.Type)
	if err != nil {
		writeServiceError(w, err, "document", "update")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *DocumentHandler) GetDocument(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "documentID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	document, err := h.documents.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, "document", "fetch")
		return
	}
	writeJSON(w, http.StatusOK, document)
}

// UploadDocument stores a multipart file against a tenancy. Tenants may only
// upload to their own tenancy.
func (h *DocumentHandler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxDocumentBytes+maxMultipartMemory)
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	tenantID, err := strconv.Atoi(strings.TrimSpace(r.FormValue(formFieldTenantID)))
	if err != nil || tenantID < 1 {
		writeError(w, http.StatusBadRequest, "tenant_id is required")
		return
	}
	if err := h.engine.Authorize(r.Context(), principalFrom(r), RuleDocumentsFor, tenantID); err != nil {
		auth.WriteError(w, err)
		return
	}

	file, header, err := openUpload(r.MultipartForm)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	defer file.Close()

	created, err := h.documents.Upload(r.Context(), services.DocumentUpload{
		TenantID:    tenantID,
		Name:        header.Filename,
		Type:        r.FormValue(formFieldType),
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	})
	if err != nil {
		writeServiceError(w, err, "document", "upload")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// DownloadDocument streams the stored file.
func (h *DocumentHandler) DownloadDocument(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "documentID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	document, body, err := h.documents.Open(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, "document", "download")
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", document.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", document.Name))
	if document.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(document.Size, 10))
	}
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, body)
}

func (h *DocumentHandler) VerifyDocument(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "documentID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.documents.Verify(r.Context(), id); err != nil {
		writeServiceError(w, err, "document", "verify")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *DocumentHandler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "documentID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.documents.Delete(r.Context(), id); err != nil {
		writeServiceError(w, err, "document", "delete")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func openUpload(form *multipart.Form) (multipart.File, *multipart.FileHeader, error) {
	if form == nil {
		return nil, nil, errors.New("missing form data")
	}

	files := form.File[formFieldFile]
	if len(files) == 0 {
		return nil, nil, errors.New("file is required")
	}
	if len(files) > 1 {
		return nil, nil, errors.New("only one file is allowed")
	}

	header := files[0]
	if header.Size > maxDocumentBytes {
		return nil, nil, errors.New("uploaded file too large")
	}
	file, err := header.Open()
	if err != nil {
		return nil, nil, errors.New("failed to read upload")
	}
	return file, header, nil
}
