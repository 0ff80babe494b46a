package tenancy

import (
	"regexp"

	"github.com/tendant/tenantgate/pkg/domain"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

const (
	minSlugLength = 2
	maxSlugLength = 63
)

// ValidateSlug checks that slug is lowercase alphanumerics separated by
// single hyphens.
func ValidateSlug(slug string) error {
	if len(slug) < minSlugLength || len(slug) > maxSlugLength {
		return domain.NewError(domain.KindValidation, "slug must be between 2 and 63 characters")
	}
	if !slugPattern.MatchString(slug) {
		return domain.NewError(domain.KindValidation, "slug may contain only lowercase letters, digits and single hyphens")
	}
	return nil
}
