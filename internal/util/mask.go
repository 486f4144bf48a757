package util

import "strings"

// MaskToken redacts a bearer token for display, keeping just enough of the
// ends to let an operator recognize which credential is loaded.
func MaskToken(token string) string {
	if token == "" {
		return "(none)"
	}
	if len(token) <= 12 {
		return strings.Repeat("*", len(token))
	}
	return token[:4] + "..." + token[len(token)-4:]
}

// MaskTokenFully redacts a token completely, reporting only its length.
func MaskTokenFully(token string) string {
	if token == "" {
		return "(none)"
	}
	return strings.Repeat("*", 8)
}
