package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/propmgr/apiserver/internal/auth"
	"github.com/propmgr/apiserver/internal/services"
	"github.com/propmgr/apiserver/types"
)

// FlatHandler provides HTTP handlers for flats.
type FlatHandler struct {
	flats *services.FlatService
}

func NewFlatHandler(flats *services.FlatService) *FlatHandler {
	return &FlatHandler{flats: flats}
}

// FlatRouter registers flat routes on the given router.
func FlatRouter(r chi.Router, flats *services.FlatService, engine *auth.Engine) {
	handler := NewFlatHandler(flats)

	r.With(engine.Require(RuleFlatsRead, "")).Get("/", handler.ListFlats)
	r.With(engine.Require(RuleFlatsWrite, "")).Post("/", handler.CreateFlat)
	r.Route("/{flatID}", func(r chi.Router) {
		r.With(engine.Require(RuleFlatsRead, "")).Get("/", handler.GetFlat)
		r.With(engine.Require(RuleFlatsWrite, "")).Put("/", handler.UpdateFlat)
		r.With(engine.Require(RuleFlatsDelete, "")).Delete("/", handler.DeleteFlat)
	})
}

func (h *FlatHandler) ListFlats(w http.ResponseWriter, r *http.Request) {
	items, err := h.flats.List(r.Context())
	if err != nil {
		writeServiceError(w, err, "flats", "list")
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *FlatHandler) GetFlat(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "flatID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	flat, err := h.flats.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, "flat", "fetch")
		return
	}
	writeJSON(w, http.StatusOK, flat)
}

func (h *FlatHandler) CreateFlat(w http.ResponseWriter, r *http.Request) {
	var flat types.Flat
	if err := decodeJSON(r, &flat); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	flat.ID = 0
	created, err := h.flats.Create(r.Context(), flat)
	if err != nil {
		writeServiceError(w, err, "flat", "create")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *FlatHandler) UpdateFlat(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "flatID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var flat types.Flat
	if err := decodeJSON(r, &flat); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	flat.ID = id
	updated, err := h.flats.Update(r.Context(), flat)
	if err != nil {
		writeServiceError(w, err, "flat", "update")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *FlatHandler) DeleteFlat(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "flatID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.flats.Delete(r.Context(), id); err != nil {
		writeServiceError(w, err, "flat", "delete")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
