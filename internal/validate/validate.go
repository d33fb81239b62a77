// Package validate holds the pre-network input checks. Anything rejected
// here is a validation error surfaced inline; it never becomes a request or
// an incident log line.
package validate

import (
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"

	"lenscap/internal/api"
)

const (
	minPasswordLength = 8
	maxPasswordLength = 128
)

// Email checks the address shape and returns the trimmed form.
func Email(address string) (string, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return "", fmt.Errorf("%w: email is required", api.ErrValidation)
	}
	parsed, err := mail.ParseAddress(address)
	if err != nil {
		return "", fmt.Errorf("%w: %q is not a valid email address", api.ErrValidation, address)
	}
	return parsed.Address, nil
}

// Password enforces the backend's length bounds before credentials go on
// the wire.
func Password(password string) error {
	length := utf8.RuneCountInString(password)
	if length < minPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", api.ErrValidation, minPasswordLength)
	}
	if length > maxPasswordLength {
		return fmt.Errorf("%w: password must be at most %d characters", api.ErrValidation, maxPasswordLength)
	}
	return nil
}

// fileNameReplacer replaces filesystem-unsafe characters with safe
// alternatives.
var fileNameReplacer = strings.NewReplacer(
	"/", "-",
	"\\", "-",
	":", "-",
	"*", "-",
	"?", "",
	"\"", "",
	"<", "",
	">", "",
	"|", "",
)

// SanitizeFileName replaces filesystem-unsafe characters in a filename.
// Slashes, backslashes, colons, and asterisks become dashes; other unsafe
// characters are removed. The result is trimmed of leading/trailing
// whitespace.
func SanitizeFileName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	return strings.TrimSpace(fileNameReplacer.Replace(name))
}
