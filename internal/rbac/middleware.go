package rbac

import (
	"net/http"
)

// Default checks against RolePermissions.
var Default = NewChecker(nil)

func Require(perm string) func(http.Handler) http.Handler { return Default.Require(perm) }

func RequireAny(perms ...string) func(http.Handler) http.Handler {
	return Default.RequireAny(perms...)
}

func RequireOwnerOr(perm string, isOwner func(r *http.Request) bool) func(http.Handler) http.Handler {
	return Default.RequireOwnerOr(perm, isOwner)
}

// Require enforces a single permission on the role in the request context.
func (c *Checker) Require(perm string) func(http.Handler) http.Handler {
	return c.guard(func(r *http.Request, role string) bool { return c.Has(role, perm) })
}

// RequireAny enforces that the role has at least one of the permissions.
func (c *Checker) RequireAny(perms ...string) func(http.Handler) http.Handler {
	return c.guard(func(r *http.Request, role string) bool { return c.Any(role, perms...) })
}

// RequireOwnerOr lets the request through when isOwner holds or the role has
// perm.
func (c *Checker) RequireOwnerOr(perm string, isOwner func(r *http.Request) bool) func(http.Handler) http.Handler {
	return c.guard(func(r *http.Request, role string) bool { return isOwner(r) || c.Has(role, perm) })
}

func (c *Checker) guard(allow func(r *http.Request, role string) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role := RoleFromContext(r.Context())
			if role == "" || !allow(r, role) {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
