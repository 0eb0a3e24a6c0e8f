package utils

import (
	"fmt"
	"strings"
	"unicode"
)

// SanitizeName returns a sanitized version of the given organization or
// component name.
func SanitizeName(name string) string {
	return strings.TrimSpace(name)
}

// ValidateName returns an error if the given organization or component name
// is invalid. Names are used as path segments so they cannot hold slashes.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("name cannot be empty")
	}

	for _, r := range name {
		if r == '/' || r == '\\' {
			return fmt.Errorf("name cannot contain slashes")
		}
		if unicode.IsControl(r) {
			return fmt.Errorf("name cannot contain control characters")
		}
	}

	return nil
}

// SanitizeEmail returns the canonical form of an email address. Emails are
// compared case insensitively.
func SanitizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
