package tenants

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/tenantgate/internal/config"
	"github.com/tendant/tenantgate/internal/http/middleware"
	"github.com/tendant/tenantgate/pkg/auth"
	"github.com/tendant/tenantgate/pkg/repository"
	"github.com/tendant/tenantgate/pkg/repository/memstore"
	"github.com/tendant/tenantgate/pkg/tenancy"
	"golang.org/x/crypto/bcrypt"
)

type env struct {
	t      *testing.T
	stores repository.Stores
	router http.Handler
	admin  string
	plain  string
}

func newEnv(t *testing.T, policy tenancy.Policy) *env {
	t.Helper()
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	e := &env{t: t, stores: memstore.New()}
	verifier := auth.NewCredentialVerifier(bcrypt.MinCost)
	tokens := auth.NewTokenService(auth.TokenConfig{Secret: []byte("0123456789abcdef0123456789abcdef"), TTL: time.Hour})
	principals := auth.NewPrincipalService(e.stores.Principals, verifier, auth.NewPasswordPolicy(config.PasswordPolicyConfig{MinLength: 8}), false, false, logger)

	issue := func(email string, superAdmin bool) string {
		p, err := principals.Register(ctx, auth.RegisterInput{Email: email, Password: "password-1", SuperAdmin: superAdmin})
		require.NoError(t, err)
		tok, err := tokens.Issue(p, nil)
		require.NoError(t, err)
		return tok.AccessToken
	}
	e.admin = issue("root@example.com", true)
	e.plain = issue("plain@example.com", false)

	h := NewHandler(tenancy.NewProvisioner(e.stores, policy, logger), principals, logger)
	r := chi.NewRouter()
	r.Use(middleware.Authenticated(auth.NewPrincipalResolver(tokens, e.stores.Principals, e.stores.Memberships, logger)))
	r.Use(middleware.RequireSuperAdmin())
	r.Post("/v1/admin/tenants", h.CreateTenant)
	r.Get("/v1/admin/tenants/{tenantID}", h.GetTenant)
	r.Patch("/v1/admin/tenants/{tenantID}", h.UpdateTenant)
	r.Get("/v1/admin/tenants/{tenantID}/tree", h.Tree)
	r.Post("/v1/admin/tenants/{tenantID}/archive", h.ArchiveTenant)
	r.Post("/v1/admin/tenants/{tenantID}/restore", h.RestoreTenant)
	r.Get("/v1/admin/tenants/{tenantID}/modules", h.ListModules)
	r.Post("/v1/admin/tenants/{tenantID}/modules", h.AddModule)
	r.Patch("/v1/admin/module-instances/{moduleKey}", h.UpdateModule)
	r.Post("/v1/admin/module-instances/{moduleKey}/archive", h.ArchiveModule)
	r.Post("/v1/admin/module-instances/{moduleKey}/restore", h.RestoreModule)
	r.Get("/v1/admin/module-instances/{moduleKey}/menus", h.Menus)
	r.Patch("/v1/admin/module-instances/{moduleKey}/menus/{menuKey}", h.SetMenuParent)
	r.Post("/v1/admin/principals", h.CreatePrincipal)
	r.Patch("/v1/admin/principals/{principalID}", h.UpdatePrincipal)
	r.Get("/v1/admin/tenants/{tenantID}/members", h.ListMembers)
	r.Post("/v1/admin/tenants/{tenantID}/members", h.GrantRole)
	r.Delete("/v1/admin/tenants/{tenantID}/members/{principalID}/{role}", h.RevokeRole)
	e.router = r
	return e
}

func (e *env) do(method, path, body string, out any) int {
	e.t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Authorization", "Bearer "+e.admin)
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	if out != nil && rec.Code < 300 {
		require.NoError(e.t, json.NewDecoder(rec.Body).Decode(out))
	}
	return rec.Code
}

func (e *env) createTenant(name, slug, parent string) TenantResponse {
	e.t.Helper()
	body := `{"name":"` + name + `","slug":"` + slug + `"`
	if parent != "" {
		body += `,"parent_id":"` + parent + `"`
	}
	body += `}`
	var resp TenantResponse
	require.Equal(e.t, http.StatusCreated, e.do(http.MethodPost, "/v1/admin/tenants", body, &resp))
	return resp
}

func TestRequiresSuperAdmin(t *testing.T) {
	e := newEnv(t, tenancy.Policy{})

	req := httptest.NewRequest(http.MethodPost, "/v1/admin/tenants", bytes.NewBufferString(`{"name":"A","slug":"aa"}`))
	req.Header.Set("Authorization", "Bearer "+e.plain)
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestTenantLifecycle(t *testing.T) {
	e := newEnv(t, tenancy.Policy{})

	parent := e.createTenant("Holding", "holding", "")
	child := e.createTenant("Subsidiary", "subsidiary", parent.ID)
	require.NotNil(t, child.ParentID)
	assert.Equal(t, parent.ID, *child.ParentID)

	assert.Equal(t, http.StatusConflict, e.do(http.MethodPost, "/v1/admin/tenants", `{"name":"Dup","slug":"holding"}`, nil))
	assert.Equal(t, http.StatusBadRequest, e.do(http.MethodPost, "/v1/admin/tenants", `{"name":"Bad","slug":"Not A Slug"}`, nil))
	assert.Equal(t, http.StatusBadRequest, e.do(http.MethodPost, "/v1/admin/tenants", `{"name":"Bad","slug":"bad","parent_id":"nope"}`, nil))

	var tree TreeResponse
	require.Equal(t, http.StatusOK, e.do(http.MethodGet, "/v1/admin/tenants/"+parent.ID+"/tree", "", &tree))
	require.Len(t, tree.Children, 1)
	assert.Equal(t, "subsidiary", tree.Children[0].Slug)

	// Making the parent a child of its own subsidiary is a cycle.
	assert.Equal(t, http.StatusBadRequest, e.do(http.MethodPatch, "/v1/admin/tenants/"+parent.ID, `{"parent_id":"`+child.ID+`"}`, nil))

	var detached TenantResponse
	require.Equal(t, http.StatusOK, e.do(http.MethodPatch, "/v1/admin/tenants/"+child.ID, `{"parent_id":"","active":false}`, &detached))
	assert.Nil(t, detached.ParentID)
	assert.False(t, detached.Active)

	var archived TenantResponse
	require.Equal(t, http.StatusOK, e.do(http.MethodPost, "/v1/admin/tenants/"+child.ID+"/archive", "", &archived))
	assert.True(t, archived.Archived)
	assert.Equal(t, http.StatusConflict, e.do(http.MethodPost, "/v1/admin/tenants/"+child.ID+"/restore", "", nil))

	assert.Equal(t, http.StatusNotFound, e.do(http.MethodGet, "/v1/admin/tenants/not-a-uuid", "", nil))
}

func TestModuleInstances(t *testing.T) {
	e := newEnv(t, tenancy.Policy{ArchiveReversible: true})
	a := e.createTenant("A", "tenant-a", "")
	b := e.createTenant("B", "tenant-b", "")

	var site ModuleResponse
	require.Equal(t, http.StatusCreated, e.do(http.MethodPost, "/v1/admin/tenants/"+a.ID+"/modules",
		`{"kind":"education","host":"A.Example.com","master":true,"live":true}`, &site))
	require.NotNil(t, site.Host)
	assert.Equal(t, "a.example.com", *site.Host)

	assert.Equal(t, http.StatusConflict, e.do(http.MethodPost, "/v1/admin/tenants/"+b.ID+"/modules",
		`{"kind":"website","host":"a.example.com","live":true}`, nil))
	assert.Equal(t, http.StatusBadRequest, e.do(http.MethodPost, "/v1/admin/tenants/"+b.ID+"/modules",
		`{"kind":"forum"}`, nil))

	var updated ModuleResponse
	require.Equal(t, http.StatusOK, e.do(http.MethodPatch, "/v1/admin/module-instances/"+site.Key, `{"live":false}`, &updated))
	assert.False(t, updated.Live)
	assert.Equal(t, http.StatusBadRequest, e.do(http.MethodPatch, "/v1/admin/module-instances/"+site.Key, `{}`, nil))

	require.Equal(t, http.StatusOK, e.do(http.MethodPost, "/v1/admin/module-instances/"+site.Key+"/archive", "", nil))
	assert.Equal(t, http.StatusConflict, e.do(http.MethodPatch, "/v1/admin/module-instances/"+site.Key, `{"live":true}`, nil))

	var restored ModuleResponse
	require.Equal(t, http.StatusOK, e.do(http.MethodPost, "/v1/admin/module-instances/"+site.Key+"/restore", "", &restored))
	assert.False(t, restored.Archived)

	var list struct {
		Modules []ModuleResponse `json:"modules"`
	}
	require.Equal(t, http.StatusOK, e.do(http.MethodGet, "/v1/admin/tenants/"+a.ID+"/modules", "", &list))
	assert.Len(t, list.Modules, 1)

	assert.Equal(t, http.StatusNotFound, e.do(http.MethodPost, "/v1/admin/module-instances/unknown/archive", "", nil))
}

func TestPrincipalsAndMembers(t *testing.T) {
	e := newEnv(t, tenancy.Policy{})
	tenant := e.createTenant("Acme", "acme", "")

	var p PrincipalResponse
	require.Equal(t, http.StatusCreated, e.do(http.MethodPost, "/v1/admin/principals",
		`{"email":"Author@Acme.test","password":"password-1","name":"Author"}`, &p))
	assert.Equal(t, "author@acme.test", p.Email)
	assert.True(t, p.Enabled)

	assert.Equal(t, http.StatusConflict, e.do(http.MethodPost, "/v1/admin/principals",
		`{"email":"author@acme.test","password":"password-1"}`, nil))
	assert.Equal(t, http.StatusBadRequest, e.do(http.MethodPost, "/v1/admin/principals",
		`{"email":"not-an-email","password":"password-1"}`, nil))

	members := "/v1/admin/tenants/" + tenant.ID + "/members"
	require.Equal(t, http.StatusCreated, e.do(http.MethodPost, members, `{"principal_id":"`+p.ID+`","role":"COMPANY_AUTHOR"}`, nil))
	assert.Equal(t, http.StatusConflict, e.do(http.MethodPost, members, `{"principal_id":"`+p.ID+`","role":"COMPANY_AUTHOR"}`, nil))
	assert.Equal(t, http.StatusBadRequest, e.do(http.MethodPost, members, `{"principal_id":"`+p.ID+`","role":"SUPER_ADMIN"}`, nil))
	assert.Equal(t, http.StatusBadRequest, e.do(http.MethodPost, members, `{"principal_id":"`+p.ID+`","role":"OWNER"}`, nil))
	assert.Equal(t, http.StatusBadRequest, e.do(http.MethodPost, members, `{"role":"COMPANY_USER"}`, nil))

	var list struct {
		Members []MemberResponse `json:"members"`
	}
	require.Equal(t, http.StatusOK, e.do(http.MethodGet, members, "", &list))
	require.Len(t, list.Members, 1)
	assert.Equal(t, "COMPANY_AUTHOR", list.Members[0].Role)

	assert.Equal(t, http.StatusNoContent, e.do(http.MethodDelete, members+"/"+p.ID+"/COMPANY_AUTHOR", "", nil))
	assert.Equal(t, http.StatusNotFound, e.do(http.MethodDelete, members+"/"+p.ID+"/COMPANY_AUTHOR", "", nil))

	var disabled PrincipalResponse
	require.Equal(t, http.StatusOK, e.do(http.MethodPatch, "/v1/admin/principals/"+p.ID, `{"enabled":false}`, &disabled))
	assert.False(t, disabled.Enabled)

	var deactivated PrincipalResponse
	require.Equal(t, http.StatusOK, e.do(http.MethodPatch, "/v1/admin/principals/"+p.ID, `{"deactivated":true}`, &deactivated))
	assert.True(t, deactivated.Deactivated)
}

func TestMenus(t *testing.T) {
	e := newEnv(t, tenancy.Policy{})
	a := e.createTenant("A", "tenant-a", "")

	var site ModuleResponse
	require.Equal(t, http.StatusCreated, e.do(http.MethodPost, "/v1/admin/tenants/"+a.ID+"/modules", `{"kind":"website","live":true}`, &site))
	require.Equal(t, http.StatusCreated, e.do(http.MethodPost, "/v1/admin/tenants/"+a.ID+"/modules", `{"kind":"education"}`, nil))

	type menus struct {
		Menus []MenuResponse `json:"menus"`
	}
	var tree menus
	require.Equal(t, http.StatusOK, e.do(http.MethodGet, "/v1/admin/module-instances/"+site.Key+"/menus", "", &tree))
	require.Len(t, tree.Menus, 8)
	news, facilities := tree.Menus[0], tree.Menus[7]
	assert.Equal(t, "NEWS", news.MenuType)
	assert.Equal(t, "/facilities", facilities.Route)

	menuPath := "/v1/admin/module-instances/" + site.Key + "/menus/"
	var moved MenuResponse
	require.Equal(t, http.StatusOK, e.do(http.MethodPatch, menuPath+facilities.Key, `{"parent_key":"`+news.Key+`"}`, &moved))
	assert.Equal(t, news.Key, moved.ParentKey)

	var nested menus
	require.Equal(t, http.StatusOK, e.do(http.MethodGet, "/v1/admin/module-instances/"+site.Key+"/menus", "", &nested))
	require.Len(t, nested.Menus, 7)
	require.Len(t, nested.Menus[0].Children, 1)
	assert.Equal(t, facilities.Key, nested.Menus[0].Children[0].Key)
	assert.Equal(t, news.Key, nested.Menus[0].Children[0].ParentKey)

	assert.Equal(t, http.StatusBadRequest, e.do(http.MethodPatch, menuPath+news.Key, `{"parent_key":"`+facilities.Key+`"}`, nil))
	assert.Equal(t, http.StatusBadRequest, e.do(http.MethodPatch, menuPath+news.Key, `{}`, nil))
	assert.Equal(t, http.StatusNotFound, e.do(http.MethodPatch, menuPath+"unknown", `{"parent_key":""}`, nil))
	assert.Equal(t, http.StatusNotFound, e.do(http.MethodGet, "/v1/admin/module-instances/unknown/menus", "", nil))

	var detached MenuResponse
	require.Equal(t, http.StatusOK, e.do(http.MethodPatch, menuPath+facilities.Key, `{"parent_key":""}`, &detached))
	assert.Empty(t, detached.ParentKey)
}
