package auth

import (
	"fmt"
	"html"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/tendant/tenantgate/pkg/domain"
)

// SanitizeInput trims input, strips control characters and escapes HTML.
func SanitizeInput(input string) string {
	return html.EscapeString(removeControlChars(strings.TrimSpace(input)))
}

// SanitizeName sanitizes a single-line display name.
func SanitizeName(name string) string {
	name = strings.Join(strings.Fields(removeControlChars(name)), " ")
	return html.EscapeString(name)
}

// SanitizeOptional applies SanitizeInput to a non-nil value. A value that is
// empty after sanitizing becomes nil.
func SanitizeOptional(input *string) *string {
	if input == nil {
		return nil
	}
	cleaned := SanitizeInput(*input)
	if cleaned == "" {
		return nil
	}
	return &cleaned
}

// ValidateStringLength checks the character count of value. A zero bound is
// not enforced.
func ValidateStringLength(field, value string, min, max int) error {
	length := utf8.RuneCountInString(value)

	if min > 0 && length < min {
		return domain.NewError(domain.KindValidation, fmt.Sprintf("%s must be at least %d characters long", field, min))
	}
	if max > 0 && length > max {
		return domain.NewError(domain.KindValidation, fmt.Sprintf("%s must be at most %d characters long", field, max))
	}
	return nil
}

// removeControlChars removes control characters except newline and tab.
func removeControlChars(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\r' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
}
