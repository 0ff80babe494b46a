package auth

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"

	"github.com/tendant/tenantgate/pkg/domain"
)

var disposableDomains = map[string]bool{
	"tempmail.com":      true,
	"10minutemail.com":  true,
	"guerrillamail.com": true,
	"mailinator.com":    true,
	"throwaway.email":   true,
}

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9.!#$%&'*+/=?^_` + "`" + `{|}~-]+@[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(?:\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*$`)

const maxEmailLength = 254 // RFC 5321

// ValidateEmail checks that email is a bare address of acceptable length.
// Display-name forms such as "Bob <bob@example.com>" are rejected because
// the email is the token subject.
func ValidateEmail(email string, strict bool, blockDisposable bool) error {
	normalized := NormalizeEmail(email)
	if normalized == "" {
		return domain.NewError(domain.KindValidation, "email address is required")
	}
	if len(normalized) > maxEmailLength {
		return domain.NewError(domain.KindValidation, fmt.Sprintf("email address is too long (max %d characters)", maxEmailLength))
	}

	addr, err := mail.ParseAddress(normalized)
	if err != nil || addr.Address != normalized {
		return domain.NewError(domain.KindValidation, "invalid email address format")
	}

	if strict && !emailRegex.MatchString(addr.Address) {
		return domain.NewError(domain.KindValidation, "invalid email address format")
	}

	if blockDisposable && disposableDomains[emailDomain(addr.Address)] {
		return domain.NewError(domain.KindValidation, "disposable email addresses are not allowed")
	}

	return nil
}

// NormalizeEmail lowercases and trims an email address. Principals are
// stored and looked up by the normalized form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func emailDomain(email string) string {
	_, domain, ok := strings.Cut(email, "@")
	if !ok {
		return ""
	}
	return domain
}
