package handlers

import (
	"errors"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/propmgr/apiserver/internal/auth"
	"github.com/propmgr/apiserver/internal/services"
	"github.com/propmgr/apiserver/internal/store"
)

// AuthHandler provides sign-in, sign-up and identity endpoints.
type AuthHandler struct {
	gate     *auth.Gate
	accounts *services.AccountService
}

// NewAuthHandler constructs an AuthHandler with the provided dependencies.
func NewAuthHandler(gate *auth.Gate, accounts *services.AccountService) *AuthHandler {
	return &AuthHandler{gate: gate, accounts: accounts}
}

// AuthRouter registers auth routes on the given router.
func AuthRouter(r chi.Router, gate *auth.Gate, accounts *services.AccountService) {
	handler := NewAuthHandler(gate, accounts)

	r.Post("/signin", handler.Login)
	r.Post("/login", handler.Login)
	r.With(gate.OptionalMiddleware).Post("/signup", handler.Register)
	r.With(gate.OptionalMiddleware).Post("/register", handler.Register)
	r.With(gate.Middleware).Get("/me", handler.Me)
}

// Login verifies credentials and returns a bearer token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx := auth.WithClientAddr(r.Context(), clientHost(r.RemoteAddr))
	result, err := h.gate.Login(ctx, req.Email, req.Password)
	if err != nil {
		auth.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Register creates a new account and returns a bearer token for it.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.gate.Register(r.Context(), auth.RegisterInput{
		Username:  req.Username,
		Email:     req.Email,
		Password:  req.Password,
		Role:      req.Role,
		Requester: principalFrom(r),
	})
	if err != nil {
		auth.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

// Me returns the current authenticated account.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	principal := principalFrom(r)
	if principal == nil {
		auth.WriteError(w, auth.ErrUnauthenticated)
		return
	}

	summary, err := h.accounts.Get(r.Context(), principal.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			auth.WriteError(w, auth.ErrUnauthenticated)
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load account")
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// clientHost strips the port from a RemoteAddr. RealIP leaves a bare host.
func clientHost(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}
