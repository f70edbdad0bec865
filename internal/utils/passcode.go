package utils

import (
	"regexp"
	"strings"
)

var passCodePattern = regexp.MustCompile(`^[A-HJ-NP-Z2-9]{6}$`)

// NormalizePassCode upcases and strips whitespace so "ab3 9kx" and "AB39KX"
// present the same code.
func NormalizePassCode(s string) string {
	return strings.ToUpper(strings.Join(strings.Fields(s), ""))
}

// IsPassCodeShaped reports whether the (normalized) input looks like a pass
// code. Used by the chat router to dispatch bare-code messages to redemption.
func IsPassCodeShaped(s string) bool {
	return passCodePattern.MatchString(s)
}
