package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/propmgr/apiserver/internal/store"
	"github.com/propmgr/apiserver/types"
	"github.com/sirupsen/logrus"
)

// OwnershipKind names the resource an ownership check resolves.
type OwnershipKind string

const (
	OwnNone      OwnershipKind = ""
	OwnTenant    OwnershipKind = "tenant"
	OwnPayment   OwnershipKind = "payment"
	OwnComplaint OwnershipKind = "complaint"
	OwnDocument  OwnershipKind = "document"
)

// OwnershipChecker resolves the account that owns a resource through its
// tenant record. It returns store.ErrNotFound when the resource does not exist.
type OwnershipChecker interface {
	OwnerAccountID(ctx context.Context, kind string, resourceID int) (int, error)
}

// Rule gates a single operation. An empty Roles set admits any
// authenticated principal at the role step.
type Rule struct {
	Name      string
	Roles     []types.Role
	Ownership OwnershipKind
}

// Allow builds a role-only rule.
func Allow(name string, roles ...types.Role) Rule {
	return Rule{Name: name, Roles: roles}
}

// OwnedBy returns a copy of r that also admits the owner of a resource of kind.
func (r Rule) OwnedBy(kind OwnershipKind) Rule {
	r.Ownership = kind
	return r
}

// Engine evaluates rules against the request principal. It never mutates state.
type Engine struct {
	owners OwnershipChecker
	log    logrus.FieldLogger
}

// NewEngine constructs an engine. owners may be nil when no rule declares
// an ownership requirement.
func NewEngine(owners OwnershipChecker, log logrus.FieldLogger) *Engine {
	if log == nil {
		log = discardLogger()
	}
	return &Engine{owners: owners, log: log}
}

// Authorize decides whether principal may perform the operation gated by
// rule on resourceID. resourceID is ignored for rules without ownership.
func (e *Engine) Authorize(ctx context.Context, principal *Principal, rule Rule, resourceID int) error {
	if principal == nil {
		return ErrUnauthenticated
	}
	if len(rule.Roles) > 0 && principal.HasRole(rule.Roles...) {
		return nil
	}
	if rule.Ownership == OwnNone {
		if len(rule.Roles) == 0 {
			return nil
		}
		return ErrForbidden
	}
	if principal.Privileged() {
		return nil
	}
	return e.checkOwner(ctx, principal, rule.Ownership, resourceID)
}

func (e *Engine) checkOwner(ctx context.Context, principal *Principal, kind OwnershipKind, resourceID int) error {
	if resourceID < 1 || e.owners == nil {
		return ErrForbidden
	}
	ownerID, err := e.owners.OwnerAccountID(ctx, string(kind), resourceID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrForbidden
		}
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if ownerID != principal.ID {
		return ErrForbidden
	}
	return nil
}

// Require returns middleware enforcing rule. For ownership rules the
// resource id is read from the URL parameter param, falling back to the
// query string.
func (e *Engine) Require(rule Rule, param string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var principal *Principal
			if p, ok := PrincipalFromContext(r.Context()); ok {
				principal = &p
			}

			resourceID := 0
			if principal != nil && rule.Ownership != OwnNone && param != "" {
				id, err := resourceIDFromRequest(r, param)
				if err != nil {
					WriteError(w, err)
					return
				}
				resourceID = id
			}

			if err := e.Authorize(r.Context(), principal, rule, resourceID); err != nil {
				e.logDenied(r, principal, rule, err)
				WriteError(w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (e *Engine) logDenied(r *http.Request, principal *Principal, rule Rule, err error) {
	fields := logrus.Fields{
		"request_id": middleware.GetReqID(r.Context()),
		"rule":       rule.Name,
	}
	if principal != nil {
		fields["account_id"] = principal.ID
		fields["role"] = principal.Role
	}
	entry := e.log.WithFields(fields).WithError(err)
	if errors.Is(err, ErrStoreUnavailable) {
		entry.Error("authorization lookup failed")
		return
	}
	entry.Info("access denied")
}

func resourceIDFromRequest(r *http.Request, param string) (int, error) {
	raw := chi.URLParam(r, param)
	if raw == "" {
		raw = r.URL.Query().Get(param)
	}
	id, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || id < 1 {
		return 0, fmt.Errorf("%w: invalid %s", ErrInvalidInput, param)
	}
	return id, nil
}
