package httputil

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/tendant/tenantgate/pkg/domain"
)

// ErrorResponse is the body of every error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// JSON writes v as a JSON response with status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// Error writes an error response with an explicit status. The error kind is
// derived from the status.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, ErrorResponse{Error: kindForStatus(status), Message: message})
}

// WriteError translates err to a status and error body. Internal errors are
// logged and answered with a generic message.
func WriteError(w http.ResponseWriter, logger *slog.Logger, err error) {
	kind := domain.KindOf(err)
	status := StatusForKind(kind)

	message := err.Error()
	if kind == domain.KindInternal {
		if logger != nil {
			logger.Error("request failed", "error", err)
		}
		message = "internal server error"
	}

	JSON(w, status, ErrorResponse{Error: string(kind), Message: message})
}

// StatusForKind maps an error kind to an HTTP status.
func StatusForKind(kind domain.Kind) int {
	switch kind {
	case domain.KindUnauthenticated:
		return http.StatusUnauthorized
	case domain.KindForbidden:
		return http.StatusForbidden
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func kindForStatus(status int) string {
	switch status {
	case http.StatusUnauthorized:
		return string(domain.KindUnauthenticated)
	case http.StatusForbidden:
		return string(domain.KindForbidden)
	case http.StatusNotFound:
		return string(domain.KindNotFound)
	case http.StatusBadRequest, http.StatusRequestEntityTooLarge:
		return string(domain.KindValidation)
	case http.StatusConflict:
		return string(domain.KindConflict)
	case http.StatusTooManyRequests:
		return "rate_limited"
	default:
		return string(domain.KindInternal)
	}
}
