package httputil

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/tenantgate/pkg/domain"
)

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{header: "Bearer abc.def.ghi", want: "abc.def.ghi"},
		{header: "bearer abc", want: "abc"},
		{header: "Basic dXNlcjpwYXNz", want: ""},
		{header: "Bearer", want: ""},
		{header: "", want: ""},
	}

	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		if tt.header != "" {
			r.Header.Set("Authorization", tt.header)
		}
		assert.Equal(t, tt.want, BearerToken(r), "header %q", tt.header)
	}
}

func TestWriteError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantKind    string
		wantMessage string
	}{
		{name: "unauthenticated", err: domain.ErrUnauthenticated, wantStatus: 401, wantKind: "unauthenticated", wantMessage: "authentication required"},
		{name: "login failure", err: domain.ErrAuthenticationFailed, wantStatus: 401, wantKind: "unauthenticated", wantMessage: "invalid email or password"},
		{name: "forbidden", err: domain.ErrForbidden, wantStatus: 403, wantKind: "forbidden", wantMessage: "access denied"},
		{name: "not found", err: domain.ErrNotFound, wantStatus: 404, wantKind: "not_found", wantMessage: "not found"},
		{name: "validation", err: domain.NewError(domain.KindValidation, "name is required"), wantStatus: 400, wantKind: "validation_failed", wantMessage: "name is required"},
		{name: "conflict", err: domain.NewError(domain.KindConflict, "slug already in use"), wantStatus: 409, wantKind: "conflict", wantMessage: "slug already in use"},
		{name: "internal hides detail", err: errors.New("pq: password authentication failed for user"), wantStatus: 500, wantKind: "internal_error", wantMessage: "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			WriteError(rec, nil, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var body ErrorResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.Equal(t, tt.wantKind, body.Error)
			assert.Equal(t, tt.wantMessage, body.Message)
		})
	}
}

func TestDecode(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}

	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{name: "valid", body: `{"name":"x"}`},
		{name: "empty", body: ``, wantErr: true},
		{name: "malformed", body: `{"name":`, wantErr: true},
		{name: "unknown field", body: `{"name":"x","tenant_id":"y"}`, wantErr: true},
		{name: "trailing object", body: `{"name":"x"}{"name":"y"}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var p payload
			err := Decode(r, &p)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Decode() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				assert.Equal(t, domain.KindValidation, domain.KindOf(err))
			}
		})
	}
}

func TestDecode_BodyTooLarge(t *testing.T) {
	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"`+strings.Repeat("x", 100)+`"}`))
	r.Body = http.MaxBytesReader(rec, r.Body, 10)

	var p struct {
		Name string `json:"name"`
	}
	err := Decode(r, &p)
	require.Error(t, err)
	assert.Equal(t, "request body too large", err.Error())
}

func TestError_KindFromStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(rec, http.StatusTooManyRequests, "slow down")

	var body ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "rate_limited", body.Error)
}
