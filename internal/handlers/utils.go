package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/propmgr/apiserver/internal/auth"
	"github.com/propmgr/apiserver/internal/services"
	"github.com/propmgr/apiserver/internal/store"
)

const (
	defaultPage  = 1
	defaultLimit = 20
	maxLimit     = 100
)

// ErrorResponse is a simple error payload.
type ErrorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

// writeServiceError maps repository and service errors for resource onto a response.
func writeServiceError(w http.ResponseWriter, err error, resource, action string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, resource+" not found")
	case errors.Is(err, store.ErrConflict):
		writeError(w, http.StatusConflict, resource+" already exists")
	case errors.Is(err, store.ErrInvalidReference):
		writeError(w, http.StatusBadRequest, resource+" refers to a missing record")
	case errors.Is(err, services.ErrInvalid):
		writeError(w, http.StatusBadRequest, validationMessage(err))
	case errors.Is(err, services.ErrStorageDisabled):
		writeError(w, http.StatusServiceUnavailable, "document storage is not configured")
	case errors.Is(err, auth.ErrForbidden), errors.Is(err, auth.ErrUnauthenticated),
		errors.Is(err, auth.ErrStoreUnavailable), errors.Is(err, auth.ErrInvalidInput):
		auth.WriteError(w, err)
	default:
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to %s %s", action, resource))
	}
}

// validationMessage drops the ErrInvalid prefix from a joined validation error.
func validationMessage(err error) string {
	lines := strings.Split(err.Error(), "\n")
	if len(lines) > 1 && lines[0] == services.ErrInvalid.Error() {
		return strings.Join(lines[1:], "; ")
	}
	return err.Error()
}

func decodeJSON(r *http.Request, value any) error {
	if err := json.NewDecoder(r.Body).Decode(value); err != nil {
		return errors.New("invalid request")
	}
	return nil
}

func parseID(r *http.Request, param string) (int, error) {
	raw := strings.TrimSpace(chi.URLParam(r, param))
	id, err := strconv.Atoi(raw)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid %s", param)
	}
	return id, nil
}

// parseDateRange reads the start and end query parameters as RFC 3339
// instants or YYYY-MM-DD dates. A date-only end covers that whole day.
func parseDateRange(r *http.Request) (from, to time.Time, err error) {
	query := r.URL.Query()
	from, _, err = parseInstant(query.Get("start"))
	if err != nil {
		return time.Time{}, time.Time{}, errors.New("invalid start")
	}
	to, dateOnly, err := parseInstant(query.Get("end"))
	if err != nil {
		return time.Time{}, time.Time{}, errors.New("invalid end")
	}
	if dateOnly {
		to = to.AddDate(0, 0, 1)
	}
	return from, to, nil
}

func parseInstant(raw string) (time.Time, bool, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(time.DateOnly, raw); err == nil {
		return t, true, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	return t, false, err
}

func parsePagination(r *http.Request) (page, limit, offset int, err error) {
	page = defaultPage
	limit = defaultLimit

	if raw := strings.TrimSpace(r.URL.Query().Get("page")); raw != "" {
		page, err = strconv.Atoi(raw)
		if err != nil || page < 1 {
			return 0, 0, 0, errors.New("invalid page")
		}
	}

	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 1 {
			return 0, 0, 0, errors.New("invalid limit")
		}
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	offset = (page - 1) * limit
	return page, limit, offset, nil
}

func principalFrom(r *http.Request) *auth.Principal {
	if p, ok := auth.PrincipalFromContext(r.Context()); ok {
		return &p
	}
	return nil
}
