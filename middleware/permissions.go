package middleware

import (
	"net/http"

	"p9e.in/nuzum/utils"
)

// rolePermissions maps each role to its granted "resource:action" patterns.
// Admin carries the full wildcard; other roles are additive lists.
var rolePermissions = map[string][]string{
	"admin": {"*"},
	"supervisor": {
		"vehicle:read", "vehicle:update",
		"handover:*", "workshop:*", "accident:*",
		"operation:*", "authorization:*", "inspection:*",
		"tracking:read", "employee:read", "export:read",
	},
	"driver": {
		"vehicle:read",
		"handover:create", "accident:create",
		"tracking:create",
	},
}

// HasPermission reports whether a role covers a required permission.
func HasPermission(role, required string) bool {
	for _, granted := range rolePermissions[role] {
		if utils.MatchesPermission(granted, required) {
			return true
		}
	}
	return false
}

// RequirePermission gates a route on a "resource:action" permission.
func RequirePermission(required string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !HasPermission(GetRole(r), required) {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
