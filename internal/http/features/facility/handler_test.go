package facility

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/tenantgate/internal/http/middleware"
	"github.com/tendant/tenantgate/pkg/access"
	"github.com/tendant/tenantgate/pkg/auth"
	"github.com/tendant/tenantgate/pkg/domain"
	"github.com/tendant/tenantgate/pkg/repository"
	"github.com/tendant/tenantgate/pkg/repository/memstore"
	"github.com/tendant/tenantgate/pkg/tenancy"
)

// site is one tenant with an education module bound to a host.
type site struct {
	tenant     *domain.Tenant
	instance   *domain.ModuleInstance
	host       string
	facilities []*domain.Facility
}

type env struct {
	t      *testing.T
	stores repository.Stores
	tokens *auth.TokenService
	router http.Handler
	a, b   *site
}

func newEnv(t *testing.T) *env {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	e := &env{
		t:      t,
		stores: memstore.New(),
		tokens: auth.NewTokenService(auth.TokenConfig{Secret: []byte("0123456789abcdef0123456789abcdef"), TTL: time.Hour}),
	}
	e.a = e.site("tenant-a", "a.example.com")
	e.b = e.site("tenant-b", "b.example.com")

	resolver := auth.NewPrincipalResolver(e.tokens, e.stores.Principals, e.stores.Memberships, logger)
	directory := tenancy.NewDirectory(e.stores.Tenants, e.stores.Modules, logger)
	guard := access.NewGuard(resolver, directory, access.Options{}, nil, logger)
	h := NewHandler(e.stores.Facilities, logger)

	r := chi.NewRouter()
	r.Route("/v1/admin/modules/{moduleKey}/facilities", func(r chi.Router) {
		r.Use(middleware.AdminModule(guard, domain.RoleCompanyAdmin, domain.RoleCompanyAuthor))
		r.Get("/", h.AdminList)
		r.Post("/", h.Create)
		r.Get("/{facilityKey}", h.AdminGet)
		r.Patch("/{facilityKey}", h.Update)
		r.Delete("/{facilityKey}", h.Delete)
	})
	r.Route("/v1/public/facilities", func(r chi.Router) {
		r.Use(middleware.PublicHost(guard, domain.ModuleEducation))
		r.Get("/", h.PublicList)
		r.Get("/{facilityKey}", h.PublicGet)
	})
	r.Route("/v1/public/modules/{moduleKey}/facilities", func(r chi.Router) {
		r.Use(middleware.PublicModule(guard))
		r.Get("/", h.PublicList)
		r.Get("/{facilityKey}", h.PublicGet)
	})
	e.router = r
	return e
}

func (e *env) site(slug, host string) *site {
	ctx := context.Background()
	s := &site{host: host}
	s.tenant = &domain.Tenant{ID: uuid.New(), Key: domain.NewKey(), Slug: slug, Name: slug, Active: true}
	require.NoError(e.t, e.stores.Tenants.Create(ctx, s.tenant))

	s.instance = &domain.ModuleInstance{ID: uuid.New(), Key: domain.NewKey(), TenantID: s.tenant.ID, Kind: domain.ModuleEducation, Host: &host, Live: true, Master: true}
	require.NoError(e.t, e.stores.Modules.Create(ctx, s.instance))

	for i := 0; i < 5; i++ {
		f := &domain.Facility{
			ID:               uuid.New(),
			Key:              domain.NewKey(),
			TenantID:         s.tenant.ID,
			ModuleInstanceID: s.instance.ID,
			Name:             fmt.Sprintf("%s facility %d", slug, i),
			Published:        i != 0,
			CreatedAt:        time.Now().Add(time.Duration(i) * time.Second),
		}
		require.NoError(e.t, e.stores.Facilities.Create(ctx, f))
		s.facilities = append(s.facilities, f)
	}
	return s
}

func (e *env) member(s *site, role domain.Role) string {
	ctx := context.Background()
	p := &domain.Principal{ID: uuid.New(), Email: uuid.NewString() + "@example.com", Enabled: true}
	require.NoError(e.t, e.stores.Principals.Create(ctx, p))
	require.NoError(e.t, e.stores.Memberships.Create(ctx, &domain.Membership{
		ID: uuid.New(), TenantID: s.tenant.ID, PrincipalID: p.ID, Role: role, Status: domain.MembershipStatusActive,
	}))
	tok, err := e.tokens.Issue(p, domain.NewRoleSet(role))
	require.NoError(e.t, err)
	return tok.AccessToken
}

func (e *env) do(method, target, host, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, bytes.NewBufferString(body))
	if host != "" {
		req.Host = host
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func adminPath(s *site, rest string) string {
	return "/v1/admin/modules/" + s.instance.Key + "/facilities" + rest
}

func decodeList(t *testing.T, rec *httptest.ResponseRecorder) []Response {
	t.Helper()
	var body struct {
		Facilities []Response `json:"facilities"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body.Facilities
}

func TestAdminList_OtherTenantIsForbidden(t *testing.T) {
	e := newEnv(t)
	adminOfB := e.member(e.b, domain.RoleCompanyAdmin)

	rec := e.do(http.MethodGet, adminPath(e.a, "/"), "", adminOfB, "")

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.NotContains(t, rec.Body.String(), "facility")
	for _, f := range e.a.facilities {
		assert.NotContains(t, rec.Body.String(), f.Key)
	}
}

func TestAdminList(t *testing.T) {
	e := newEnv(t)
	author := e.member(e.a, domain.RoleCompanyAuthor)

	rec := e.do(http.MethodGet, adminPath(e.a, "/"), "", author, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeList(t, rec), 5)

	rec = e.do(http.MethodGet, adminPath(e.a, "/?published=true"), "", author, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeList(t, rec), 4)

	rec = e.do(http.MethodGet, adminPath(e.a, "/?published=maybe"), "", author, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminList_RoleRequired(t *testing.T) {
	e := newEnv(t)
	reviewer := e.member(e.a, domain.RoleCompanyReviewer)

	assert.Equal(t, http.StatusForbidden, e.do(http.MethodGet, adminPath(e.a, "/"), "", reviewer, "").Code)
	assert.Equal(t, http.StatusUnauthorized, e.do(http.MethodGet, adminPath(e.a, "/"), "", "", "").Code)
}

func TestAdminSingleEntity_CrossTenantKeyIsForbidden(t *testing.T) {
	e := newEnv(t)
	adminOfB := e.member(e.b, domain.RoleCompanyAdmin)
	foreign := e.a.facilities[1]

	// B's own module key with A's facility key.
	tests := []struct {
		method string
		body   string
	}{
		{method: http.MethodGet},
		{method: http.MethodPatch, body: `{"name":"hijacked"}`},
		{method: http.MethodPatch, body: `{"bogus":1}`},
		{method: http.MethodDelete},
	}
	for _, tt := range tests {
		t.Run(tt.method+tt.body, func(t *testing.T) {
			rec := e.do(tt.method, adminPath(e.b, "/"+foreign.Key), "", adminOfB, tt.body)
			assert.Equal(t, http.StatusForbidden, rec.Code)
			assert.NotContains(t, rec.Body.String(), foreign.Name)
		})
	}

	stored, err := e.stores.Facilities.GetByKey(context.Background(), foreign.Key)
	require.NoError(t, err)
	assert.Equal(t, foreign.Name, stored.Name)
	assert.False(t, stored.Archived)
}

func TestAdminCRUD(t *testing.T) {
	e := newEnv(t)
	admin := e.member(e.a, domain.RoleCompanyAdmin)

	rec := e.do(http.MethodPost, adminPath(e.a, "/"), "", admin, `{"name":"  Main   hall ","description":"<b>big</b>","published":true}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&created))
	assert.Equal(t, "Main hall", created.Name)
	require.NotNil(t, created.Description)
	assert.Equal(t, "&lt;b&gt;big&lt;/b&gt;", *created.Description)

	stored, err := e.stores.Facilities.GetByKey(context.Background(), created.Key)
	require.NoError(t, err)
	assert.Equal(t, e.a.tenant.ID, stored.TenantID)
	assert.Equal(t, e.a.instance.ID, stored.ModuleInstanceID)

	rec = e.do(http.MethodPatch, adminPath(e.a, "/"+created.Key), "", admin, `{"published":false}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var updated Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&updated))
	assert.False(t, updated.Published)
	assert.Equal(t, "Main hall", updated.Name)

	assert.Equal(t, http.StatusBadRequest, e.do(http.MethodPatch, adminPath(e.a, "/"+created.Key), "", admin, `{"name":"   "}`).Code)
	assert.Equal(t, http.StatusBadRequest, e.do(http.MethodPost, adminPath(e.a, "/"), "", admin, `{"name":""}`).Code)
	assert.Equal(t, http.StatusBadRequest, e.do(http.MethodPost, adminPath(e.a, "/"), "", admin, `{"name":"x","tenant_id":"`+e.b.tenant.ID.String()+`"}`).Code)

	assert.Equal(t, http.StatusNoContent, e.do(http.MethodDelete, adminPath(e.a, "/"+created.Key), "", admin, "").Code)
	assert.Equal(t, http.StatusNotFound, e.do(http.MethodGet, adminPath(e.a, "/"+created.Key), "", admin, "").Code)
	assert.Equal(t, http.StatusNotFound, e.do(http.MethodDelete, adminPath(e.a, "/"+created.Key), "", admin, "").Code)
}

func TestPublicGet_UnpublishedIsNotFound(t *testing.T) {
	e := newEnv(t)
	unpublished := e.a.facilities[0]
	require.False(t, unpublished.Published)

	rec := e.do(http.MethodGet, "/v1/public/facilities/"+unpublished.Key, "a.example.com", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NotContains(t, rec.Body.String(), unpublished.Name)

	published := e.a.facilities[1]
	rec = e.do(http.MethodGet, "/v1/public/facilities/"+published.Key, "a.example.com", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), published.Name)
}

func TestPublicGet_CrossTenantIsNotFound(t *testing.T) {
	e := newEnv(t)
	foreign := e.a.facilities[1]

	byHost := e.do(http.MethodGet, "/v1/public/facilities/"+foreign.Key, "b.example.com", "", "")
	byKey := e.do(http.MethodGet, "/v1/public/modules/"+e.b.instance.Key+"/facilities/"+foreign.Key, "", "", "")
	missing := e.do(http.MethodGet, "/v1/public/facilities/does-not-exist", "b.example.com", "", "")

	assert.Equal(t, http.StatusNotFound, byHost.Code)
	assert.Equal(t, http.StatusNotFound, byKey.Code)
	assert.Equal(t, missing.Body.String(), byHost.Body.String())
	assert.Equal(t, missing.Body.String(), byKey.Body.String())
}

func TestPublicList(t *testing.T) {
	e := newEnv(t)

	rec := e.do(http.MethodGet, "/v1/public/facilities/", "a.example.com", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	list := decodeList(t, rec)
	assert.Len(t, list, 4)
	for _, f := range list {
		assert.True(t, f.Published)
		assert.True(t, strings.HasPrefix(f.Name, "tenant-a"))
	}

	rec = e.do(http.MethodGet, "/v1/public/modules/"+e.b.instance.Key+"/facilities/", "", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeList(t, rec), 4)

	assert.Equal(t, http.StatusNotFound, e.do(http.MethodGet, "/v1/public/facilities/", "unknown.example.com", "", "").Code)
}

func TestPublic_ArchivedInstanceIsNotFound(t *testing.T) {
	e := newEnv(t)
	e.a.instance.Archived = true
	require.NoError(t, e.stores.Modules.Update(context.Background(), e.a.instance))

	assert.Equal(t, http.StatusNotFound, e.do(http.MethodGet, "/v1/public/facilities/", "a.example.com", "", "").Code)
	assert.Equal(t, http.StatusNotFound, e.do(http.MethodGet, "/v1/public/modules/"+e.a.instance.Key+"/facilities/", "", "", "").Code)
}

func TestSiblingModuleInstance_DoesNotServeFacilities(t *testing.T) {
	e := newEnv(t)
	website := &domain.ModuleInstance{ID: uuid.New(), Key: domain.NewKey(), TenantID: e.a.tenant.ID, Kind: domain.ModuleWebsite, Live: true}
	require.NoError(t, e.stores.Modules.Create(context.Background(), website))
	facility := e.a.facilities[1]

	publicBase := "/v1/public/modules/" + website.Key + "/facilities/"
	list := e.do(http.MethodGet, publicBase, "", "", "")
	require.Equal(t, http.StatusOK, list.Code)
	assert.Empty(t, decodeList(t, list))

	rec := e.do(http.MethodGet, publicBase+facility.Key, "", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NotContains(t, rec.Body.String(), facility.Name)

	admin := e.member(e.a, domain.RoleCompanyAdmin)
	adminBase := "/v1/admin/modules/" + website.Key + "/facilities/"
	for _, method := range []string{http.MethodGet, http.MethodPatch, http.MethodDelete} {
		body := ""
		if method == http.MethodPatch {
			body = `{"name":"moved"}`
		}
		rec := e.do(method, adminBase+facility.Key, "", admin, body)
		assert.Equal(t, http.StatusForbidden, rec.Code, method)
	}

	stored, err := e.stores.Facilities.GetByKey(context.Background(), facility.Key)
	require.NoError(t, err)
	assert.Equal(t, facility.Name, stored.Name)
	assert.False(t, stored.Archived)

	// The owning instance still serves it.
	assert.Equal(t, http.StatusOK, e.do(http.MethodGet, adminPath(e.a, "/"+facility.Key), "", admin, "").Code)
}
