package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/propmgr/apiserver/internal/auth"
	"github.com/propmgr/apiserver/internal/services"
	"github.com/propmgr/apiserver/types"
)

// UserHandler exposes account listings to administrators.
type UserHandler struct {
	accounts *services.AccountService
}

func NewUserHandler(accounts *services.AccountService) *UserHandler {
	return &UserHandler{accounts: accounts}
}

// UserRouter registers account routes on the given router.
func UserRouter(r chi.Router, accounts *services.AccountService, engine *auth.Engine) {
	handler := NewUserHandler(accounts)

	r.With(engine.Require(RuleUsersRead, "")).Get("/", handler.ListUsers)
	r.With(engine.Require(RuleUsersRead, "")).Get("/{userID}", handler.GetUser)
}

type UserListResponse struct {
	Items []types.UserSummary `json:"items"`
	Page  int                 `json:"page"`
	Limit int                 `json:"limit"`
}

func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	page, limit, offset, err := parsePagination(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	items, err := h.accounts.List(r.Context(), offset, limit)
	if err != nil {
		writeServiceError(w, err, "users", "list")
		return
	}
	writeJSON(w, http.StatusOK, UserListResponse{Items: items, Page: page, Limit: limit})
}

func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "userID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	summary, err := h.accounts.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, "user", "fetch")
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
