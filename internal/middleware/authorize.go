package middleware

import (
	"fmt"
	"log/slog"

	"mafiamadness/internal/apperr"
	"mafiamadness/internal/models"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	"github.com/gofiber/fiber/v2"
)

// rbacModel matches a role against a path pattern and a method regex.
const rbacModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = r.sub == p.sub && keyMatch(r.obj, p.obj) && regexMatch(r.act, p.act)
`

// DefaultPolicy lets admins manage any user record and run reconciliation.
var DefaultPolicy = [][]string{
	{models.AdminRole, "/api/users*", "^(PATCH|DELETE)$"},
	{models.AdminRole, "/api/games/reconcile", "^POST$"},
}

// Authorizer answers role permission questions with a casbin enforcer.
type Authorizer struct {
	enforcer *casbin.Enforcer
}

// NewAuthorizer builds an in-memory enforcer loaded with policies.
func NewAuthorizer(policies [][]string) (*Authorizer, error) {
	m, err := model.NewModelFromString(rbacModel)
	if err != nil {
		return nil, fmt.Errorf("failed to load casbin model: %w", err)
	}
	enforcer, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("failed to create casbin enforcer: %w", err)
	}
	if len(policies) > 0 {
		if _, err := enforcer.AddPolicies(policies); err != nil {
			return nil, fmt.Errorf("failed to add casbin policies: %w", err)
		}
	}
	return &Authorizer{enforcer: enforcer}, nil
}

// Allowed reports whether role may perform act on obj.
func (a *Authorizer) Allowed(role, obj, act string) bool {
	ok, err := a.enforcer.Enforce(role, obj, act)
	if err != nil {
		slog.Error("casbin enforce failed", slog.String("error", err.Error()))
		return false
	}
	return ok
}

// CanActOn allows a request that targets the caller's own record, and otherwise defers to
// the policy for the caller's role on the request path and method.
func (a *Authorizer) CanActOn(c *fiber.Ctx, targetUserID string) bool {
	if targetUserID != "" && targetUserID == CurrentUserID(c) {
		return true
	}
	return a.Allowed(CurrentRole(c), c.Path(), c.Method())
}

// Authorize rejects requests the caller's role may not perform. It must run after AuthRequired.
func Authorize(a *Authorizer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !a.Allowed(CurrentRole(c), c.Path(), c.Method()) {
			slog.Warn("request denied by policy",
				slog.String("user_id", CurrentUserID(c)),
				slog.String("method", c.Method()),
				slog.String("path", c.Path()))
			return apperr.Forbidden("You are not allowed to perform this action")
		}
		return c.Next()
	}
}
