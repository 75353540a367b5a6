package v1

import "strings"

// Paths reachable without an access token.
var allowedPathOnlyForUnauthorized = []string{
	"/api/v1/auth/signin",
}

func isUnauthorizedAllowed(path string) bool {
	for _, allowed := range allowedPathOnlyForUnauthorized {
		if strings.HasPrefix(path, allowed) {
			return true
		}
	}
	return false
}
