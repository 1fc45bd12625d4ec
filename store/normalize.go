package store

import "strings"

// NormalizeUsername returns the canonical form of a platform username:
// surrounding whitespace and a leading "@" removed, lowercased.
func NormalizeUsername(username string) string {
	u := strings.TrimSpace(username)
	u = strings.TrimPrefix(u, "@")
	return strings.ToLower(strings.TrimSpace(u))
}
