package common

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/tendant/tenantgate/pkg/domain"
)

// UUIDParam parses the chi URL parameter name as a UUID. A malformed value
// is reported as not found so that ids are never echoed back.
func UUIDParam(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, domain.ErrNotFound
	}
	return id, nil
}

// ParseOptionalUUID parses a request body id. Nil and blank values yield nil.
func ParseOptionalUUID(field string, value *string) (*uuid.UUID, error) {
	if value == nil || strings.TrimSpace(*value) == "" {
		return nil, nil
	}
	id, err := uuid.Parse(strings.TrimSpace(*value))
	if err != nil {
		return nil, domain.NewError(domain.KindValidation, field+" must be a UUID")
	}
	return &id, nil
}
