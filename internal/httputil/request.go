package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/tendant/tenantgate/pkg/domain"
)

// BearerToken extracts the token from an "Authorization: Bearer <token>"
// header. It returns "" when the header is absent or uses another scheme.
func BearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// Decode reads a single JSON object from the request body into v. Unknown
// fields, trailing data and oversized bodies are validation errors.
func Decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return domain.NewError(domain.KindValidation, "request body too large")
		case errors.Is(err, io.EOF):
			return domain.NewError(domain.KindValidation, "request body is required")
		default:
			return domain.WrapError(err, domain.KindValidation, "invalid request body")
		}
	}
	if dec.More() {
		return domain.NewError(domain.KindValidation, "request body must contain a single JSON object")
	}
	return nil
}

// Required returns a validation error naming the first empty field.
func Required(fields map[string]string) error {
	for name, value := range fields {
		if strings.TrimSpace(value) == "" {
			return domain.NewError(domain.KindValidation, fmt.Sprintf("%s is required", name))
		}
	}
	return nil
}
