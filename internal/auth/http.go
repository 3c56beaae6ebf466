package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

// Middleware rejects requests without a valid bearer token and installs the
// principal into the request context.
func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, err := g.Authenticate(r.Context(), r.Header.Get("Authorization"))
		if err != nil {
			g.logRejection(r, err)
			WriteError(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
	})
}

// OptionalMiddleware installs a principal when a valid token is presented and
// otherwise lets the request through anonymously.
func (g *Gate) OptionalMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, err := g.Authenticate(r.Context(), r.Header.Get("Authorization"))
		if err != nil {
			if errors.Is(err, ErrStoreUnavailable) {
				g.logRejection(r, err)
				WriteError(w, err)
				return
			}
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
	})
}

func (g *Gate) logRejection(r *http.Request, err error) {
	entry := g.log.WithFields(logrus.Fields{
		"request_id": middleware.GetReqID(r.Context()),
		"method":     r.Method,
		"path":       r.URL.Path,
	}).WithError(err)
	if errors.Is(err, ErrStoreUnavailable) {
		entry.Error("token validation failed")
		return
	}
	entry.Debug("request not authenticated")
}

type errorResponse struct {
	Error string `json:"error"`
}

// WriteError writes err as a JSON error body using its boundary status and message.
func WriteError(w http.ResponseWriter, err error) {
	status := HTTPStatus(err)
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", tokenType)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorResponse{Error: PublicMessage(err)})
}
