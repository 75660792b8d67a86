package utils

import "strings"

// MatchesPermission reports whether a granted permission covers a required
// one. Permissions are "resource:action" pairs; either part may be the
// wildcard "*", and "*" alone grants everything.
//
//	"*"              covers vehicle:delete
//	"vehicle:*"      covers vehicle:create, vehicle:delete
//	"*:read"         covers vehicle:read, tracking:read
//	"vehicle:create" covers only itself
func MatchesPermission(granted, required string) bool {
	if granted == required {
		return true
	}
	if granted == "*" || granted == "*:*" {
		return true
	}

	grantedParts := strings.Split(granted, ":")
	requiredParts := strings.Split(required, ":")
	if len(grantedParts) < 2 || len(requiredParts) < 2 {
		return false
	}

	resourceMatch := grantedParts[0] == "*" || grantedParts[0] == requiredParts[0]
	actionMatch := grantedParts[1] == "*" || grantedParts[1] == requiredParts[1]
	return resourceMatch && actionMatch
}
