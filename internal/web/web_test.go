package web_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/storage/memory/v2"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/catalog-admin/catalog-admin/internal/attachment"
	"github.com/catalog-admin/catalog-admin/internal/auth"
	"github.com/catalog-admin/catalog-admin/internal/config"
	"github.com/catalog-admin/catalog-admin/internal/db/controller/user"
	"github.com/catalog-admin/catalog-admin/internal/db/dbtest"
	"github.com/catalog-admin/catalog-admin/internal/db/models"
	"github.com/catalog-admin/catalog-admin/internal/db/tenant"
	"github.com/catalog-admin/catalog-admin/internal/storage"
	"github.com/catalog-admin/catalog-admin/internal/web"
	"github.com/catalog-admin/catalog-admin/internal/web/handler"
	"github.com/catalog-admin/catalog-admin/internal/web/handler/dashboard"
)

type testServer struct {
	t     *testing.T
	app   *fiber.App
	db    *gorm.DB
	blobs *storage.FileStore
	svc   *auth.Service
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	db := dbtest.Open(t)
	svc := auth.NewService(db)
	blobs := storage.NewFileStoreFs(afero.NewBasePathFs(afero.NewMemMapFs(), "/blobs"), "/media")

	cfg := &config.Config{
		Title:     "catalog-admin",
		Webserver: config.Webserver{AllowTenantHeader: true},
		Storage:   config.Storage{Driver: config.StorageFile, File: config.FileStorage{URLPrefix: "/media"}},
		Seed:      config.Seed{DefaultRole: "viewer"},
	}
	accounts := auth.NewLocalProvider(db, cfg.Seed.DefaultRole)

	env := &handler.Env{
		Cfg:           cfg,
		DB:            db,
		Auth:          svc,
		Accounts:      accounts,
		Tokens:        auth.NewTokenManager("test-secret", "test", time.Minute, time.Hour, memory.New(), accounts),
		ProductImages: attachment.New("product_image", attachment.PrefixProductImages, blobs),
		TeacherPhotos: attachment.New("teacher_photo", attachment.PrefixTeacherPhotos, blobs),
		Validator:     web.NewValidator(),
	}

	s, err := web.New(cfg, env, blobs.Fs())
	require.NoError(t, err)

	ts := &testServer{t: t, app: s.App, db: db, blobs: blobs, svc: svc}
	ts.seedRoles()

	return ts
}

func (ts *testServer) seedRoles() {
	admin := models.Role{Name: "admin", IsSystem: true}
	viewer := models.Role{Name: "viewer", IsSystem: true}
	require.NoError(ts.t, ts.db.Create(&admin).Error)
	require.NoError(ts.t, ts.db.Create(&viewer).Error)

	for _, d := range auth.Definitions {
		p := models.Permission{Name: d.Name, Resource: d.Resource(), Action: d.Action()}
		require.NoError(ts.t, ts.db.Create(&p).Error)
		require.NoError(ts.t, ts.db.Create(&models.RolePermission{RoleID: admin.ID, PermissionID: &p.ID}).Error)

		if d.Action() == "read" {
			require.NoError(ts.t, ts.db.Create(&models.RolePermission{RoleID: viewer.ID, PermissionID: &p.ID}).Error)
		}
	}
}

// createUser adds an active user with password "password1" and role.
func (ts *testServer) createUser(username, role string) *models.User {
	ctx := ts.t.Context()
	u := &models.User{Username: username, Email: username + "@example.com", Active: true}
	require.NoError(ts.t, user.Create(ctx, ts.db, u, "password1"))

	var r models.Role
	require.NoError(ts.t, ts.db.Where("name = ?", role).First(&r).Error)
	require.NoError(ts.t, ts.svc.AssignRole(ctx, u.ID, &r.ID))

	return u
}

// authenticate logs username in, optionally within another tenant schema.
func (ts *testServer) authenticate(username, schema string) auth.TokenPair {
	var pair auth.TokenPair

	resp := ts.request(http.MethodPost, "/api/auth/login/", "",
		jsonBody(fiber.Map{"username": username, "password": "password1"}), schema)
	require.Equal(ts.t, fiber.StatusOK, resp.status, resp.text())
	resp.decode(&pair)

	return pair
}

// login creates a user with role and returns its access token.
func (ts *testServer) login(username, role string) string {
	ts.createUser(username, role)

	return ts.authenticate(username, "").Access
}

type body struct {
	reader      io.Reader
	contentType string
}

func jsonBody(v any) body {
	b, _ := json.Marshal(v)

	return body{reader: bytes.NewReader(b), contentType: fiber.MIMEApplicationJSON}
}

// formBody builds a multipart body. files maps field to file name and content.
func formBody(fields map[string]string, files map[string][2]string) body {
	var buf bytes.Buffer

	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		_ = w.WriteField(k, v)
	}

	for field, f := range files {
		part, _ := w.CreateFormFile(field, f[0])
		_, _ = io.WriteString(part, f[1])
	}

	_ = w.Close()

	return body{reader: &buf, contentType: w.FormDataContentType()}
}

type response struct {
	t      *testing.T
	status int
	raw    []byte
}

func (r response) text() string { return string(r.raw) }

func (r response) decode(v any) {
	require.NoError(r.t, json.Unmarshal(r.raw, v), r.text())
}

func (ts *testServer) do(method, path, token string, b body) response {
	ts.t.Helper()

	return ts.request(method, path, token, b, "")
}

// request is do with an optional tenant schema header.
func (ts *testServer) request(method, path, token string, b body, schema string) response {
	ts.t.Helper()

	req := httptest.NewRequest(method, path, b.reader)
	if b.contentType != "" {
		req.Header.Set(fiber.HeaderContentType, b.contentType)
	}

	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}

	if schema != "" {
		req.Header.Set(tenant.HeaderSchema, schema)
	}

	resp, err := ts.app.Test(req, -1)
	require.NoError(ts.t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(ts.t, err)

	return response{t: ts.t, status: resp.StatusCode, raw: raw}
}

func (ts *testServer) blobExists(ref string) bool {
	ok, err := ts.blobs.Exists(ts.t.Context(), ref)
	require.NoError(ts.t, err)

	return ok
}

func TestHealthAndMetrics(t *testing.T) {
	ts := newTestServer(t)

	assert.Equal(t, fiber.StatusOK, ts.do(http.MethodGet, web.CheckAlivePath, "", body{}).status)

	resp := ts.do(http.MethodGet, web.MetricsPath, "", body{})
	assert.Equal(t, fiber.StatusOK, resp.status)
	assert.Contains(t, resp.text(), "go_goroutines")
}

func TestAuthentication(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.do(http.MethodGet, "/api/categories/", "", body{})
	assert.Equal(t, fiber.StatusUnauthorized, resp.status)

	resp = ts.do(http.MethodPost, "/api/auth/login/", "", jsonBody(fiber.Map{"username": "ghost", "password": "x"}))
	assert.Equal(t, fiber.StatusUnauthorized, resp.status)

	var problem web.Problem
	resp.decode(&problem)
	assert.Contains(t, problem.Detail, "no active account")

	token := ts.login("viewer", "viewer")

	assert.Equal(t, fiber.StatusOK, ts.do(http.MethodGet, "/api/categories/", token, body{}).status)

	resp = ts.do(http.MethodPost, "/api/categories/", token, jsonBody(fiber.Map{"name": "Books"}))
	assert.Equal(t, fiber.StatusForbidden, resp.status)

	var me struct {
		Message     string       `json:"message"`
		Role        *models.Role `json:"role"`
		Permissions []string     `json:"permissions"`
	}
	resp = ts.do(http.MethodGet, "/api/auth/me/", token, body{})
	require.Equal(t, fiber.StatusOK, resp.status)
	resp.decode(&me)
	assert.Equal(t, "Hello, viewer!", me.Message)
	require.NotNil(t, me.Role)
	assert.Equal(t, "viewer", me.Role.Name)
	assert.Contains(t, me.Permissions, auth.PermProductRead)
	assert.NotContains(t, me.Permissions, auth.PermProductCreate)
}

func TestRegisterRefreshLogout(t *testing.T) {
	ts := newTestServer(t)

	reg := fiber.Map{"username": "newbie", "email": "newbie@example.com", "password": "password1"}
	resp := ts.do(http.MethodPost, "/api/auth/register/", "", jsonBody(reg))
	require.Equal(t, fiber.StatusCreated, resp.status, resp.text())

	resp = ts.do(http.MethodPost, "/api/auth/register/", "", jsonBody(reg))
	assert.Equal(t, fiber.StatusBadRequest, resp.status)

	reg["email"] = "not-an-email"
	reg["username"] = "other"
	resp = ts.do(http.MethodPost, "/api/auth/register/", "", jsonBody(reg))
	require.Equal(t, fiber.StatusBadRequest, resp.status)

	var problem web.Problem
	resp.decode(&problem)
	assert.Contains(t, problem.Errors, "email")

	var pair auth.TokenPair
	resp = ts.do(http.MethodPost, "/api/auth/login/", "", jsonBody(fiber.Map{"username": "newbie", "password": "password1"}))
	require.Equal(t, fiber.StatusOK, resp.status)
	resp.decode(&pair)

	// registered users get the default role
	assert.Equal(t, fiber.StatusOK, ts.do(http.MethodGet, "/api/products/", pair.Access, body{}).status)

	resp = ts.do(http.MethodPost, "/api/auth/verify/", "", jsonBody(fiber.Map{"token": pair.Access}))
	assert.Equal(t, fiber.StatusOK, resp.status)

	resp = ts.do(http.MethodPost, "/api/auth/refresh/", "", jsonBody(fiber.Map{"refresh": pair.Access}))
	assert.Equal(t, fiber.StatusUnauthorized, resp.status, "access token is no refresh token")

	resp = ts.do(http.MethodPost, "/api/auth/refresh/", "", jsonBody(fiber.Map{"refresh": pair.Refresh}))
	require.Equal(t, fiber.StatusOK, resp.status)

	resp = ts.do(http.MethodPost, "/api/auth/logout/", pair.Access, jsonBody(fiber.Map{"refresh": pair.Refresh}))
	require.Equal(t, fiber.StatusOK, resp.status)

	resp = ts.do(http.MethodPost, "/api/auth/refresh/", "", jsonBody(fiber.Map{"refresh": pair.Refresh}))
	assert.Equal(t, fiber.StatusUnauthorized, resp.status, "revoked")
}

func TestCategoryCRUD(t *testing.T) {
	ts := newTestServer(t)
	token := ts.login("admin", "admin")

	var created struct {
		ID       uint                  `json:"id"`
		Name     string                `json:"name"`
		Products []handler.ProductView `json:"products"`
	}
	resp := ts.do(http.MethodPost, "/api/categories/", token, jsonBody(fiber.Map{"name": "Books"}))
	require.Equal(t, fiber.StatusCreated, resp.status, resp.text())
	resp.decode(&created)
	assert.Equal(t, "Books", created.Name)
	assert.NotNil(t, created.Products)

	resp = ts.do(http.MethodPost, "/api/categories/", token, jsonBody(fiber.Map{"name": ""}))
	assert.Equal(t, fiber.StatusBadRequest, resp.status)

	path := fmt.Sprintf("/api/categories/%d/", created.ID)
	resp = ts.do(http.MethodPatch, path, token, jsonBody(fiber.Map{"name": "Novels"}))
	require.Equal(t, fiber.StatusOK, resp.status)
	resp.decode(&created)
	assert.Equal(t, "Novels", created.Name)

	resp = ts.do(http.MethodGet, "/api/categories/?page=1&pageSize=10", token, body{})
	require.Equal(t, fiber.StatusOK, resp.status)

	var page struct {
		Items      []json.RawMessage `json:"items"`
		TotalItems int64             `json:"totalItems"`
		PageSize   int               `json:"pageSize"`
	}
	resp.decode(&page)
	assert.Equal(t, int64(1), page.TotalItems)
	assert.Equal(t, 10, page.PageSize)

	resp = ts.do(http.MethodGet, "/api/categories/?page=2", token, body{})
	assert.Equal(t, fiber.StatusNotFound, resp.status, "page past the end")

	assert.Equal(t, fiber.StatusNoContent, ts.do(http.MethodDelete, path, token, body{}).status)
	assert.Equal(t, fiber.StatusNotFound, ts.do(http.MethodGet, path, token, body{}).status)
	assert.Equal(t, fiber.StatusNotFound, ts.do(http.MethodGet, "/api/categories/abc/", token, body{}).status)
}

func TestProductImageLifecycle(t *testing.T) {
	ts := newTestServer(t)
	token := ts.login("admin", "admin")

	cat := models.Category{Name: "Books"}
	require.NoError(t, ts.db.Create(&cat).Error)

	fields := map[string]string{"name": "Dune", "category": fmt.Sprint(cat.ID), "price": "12.50", "stock": "3"}
	resp := ts.do(http.MethodPost, "/api/products/", token,
		formBody(fields, map[string][2]string{"image": {"dune.png", "first"}}))
	require.Equal(t, fiber.StatusCreated, resp.status, resp.text())

	var p handler.ProductView
	resp.decode(&p)
	require.NotNil(t, p.Image)
	assert.True(t, strings.HasPrefix(*p.Image, "/media/product_images/dune"), *p.Image)
	assert.InDelta(t, 12.5, p.Price, 0.001)

	var row models.Product
	require.NoError(t, ts.db.First(&row, p.ID).Error)
	first := row.Image
	assert.True(t, ts.blobExists(first))

	// served by the media route
	media := ts.do(http.MethodGet, *p.Image, "", body{})
	require.Equal(t, fiber.StatusOK, media.status)
	assert.Equal(t, "first", media.text())

	path := fmt.Sprintf("/api/products/%d/", p.ID)

	// no image part keeps the image
	resp = ts.do(http.MethodPut, path, token, formBody(map[string]string{"stock": "5"}, nil))
	require.Equal(t, fiber.StatusOK, resp.status, resp.text())
	resp.decode(&p)
	assert.Equal(t, 5, p.Stock)
	assert.Equal(t, "Dune", p.Name)
	require.NoError(t, ts.db.First(&row, p.ID).Error)
	assert.Equal(t, first, row.Image)

	// replace
	resp = ts.do(http.MethodPut, path, token, formBody(nil, map[string][2]string{"image": {"dune2.png", "second"}}))
	require.Equal(t, fiber.StatusOK, resp.status, resp.text())
	require.NoError(t, ts.db.First(&row, p.ID).Error)
	second := row.Image
	assert.NotEqual(t, first, second)
	assert.False(t, ts.blobExists(first))
	assert.True(t, ts.blobExists(second))

	// invalid update keeps everything
	resp = ts.do(http.MethodPut, path, token,
		formBody(map[string]string{"category": "999"}, map[string][2]string{"image": {"dune3.png", "third"}}))
	require.Equal(t, fiber.StatusBadRequest, resp.status, resp.text())
	require.NoError(t, ts.db.First(&row, p.ID).Error)
	assert.Equal(t, second, row.Image)
	assert.True(t, ts.blobExists(second))

	// empty value clears
	resp = ts.do(http.MethodPatch, path, token, formBody(map[string]string{"image": ""}, nil))
	require.Equal(t, fiber.StatusOK, resp.status, resp.text())
	resp.decode(&p)
	assert.Nil(t, p.Image)
	assert.False(t, ts.blobExists(second))

	// delete
	resp = ts.do(http.MethodPut, path, token, formBody(nil, map[string][2]string{"image": {"dune4.png", "fourth"}}))
	require.Equal(t, fiber.StatusOK, resp.status)
	require.NoError(t, ts.db.First(&row, p.ID).Error)
	fourth := row.Image

	assert.Equal(t, fiber.StatusNoContent, ts.do(http.MethodDelete, path, token, body{}).status)
	assert.False(t, ts.blobExists(fourth))
}

func TestSubjectTeacherCascade(t *testing.T) {
	ts := newTestServer(t)
	token := ts.login("admin", "admin")

	var sub struct {
		ID        uint    `json:"id"`
		CreatedBy *uint64 `json:"createdBy"`
	}
	resp := ts.do(http.MethodPost, "/api/subjects/", token, jsonBody(fiber.Map{"subjectName": "Maths"}))
	require.Equal(t, fiber.StatusCreated, resp.status, resp.text())
	resp.decode(&sub)
	assert.NotNil(t, sub.CreatedBy)

	fields := map[string]string{
		"firstName": "Ada", "lastName": "Lovelace", "gender": "F",
		"dateOfBirth": "1815-12-10", "salary": "1000", "subject": fmt.Sprint(sub.ID),
	}
	resp = ts.do(http.MethodPost, "/api/teachers/", token,
		formBody(fields, map[string][2]string{"photo": {"ada.jpg", "jpg"}}))
	require.Equal(t, fiber.StatusCreated, resp.status, resp.text())

	var teacher handler.TeacherView
	resp.decode(&teacher)
	assert.Equal(t, "1815-12-10", teacher.DateOfBirth)
	require.NotNil(t, teacher.Photo)

	var row models.Teacher
	require.NoError(t, ts.db.First(&row, teacher.ID).Error)
	assert.True(t, ts.blobExists(row.Photo))

	fields["gender"] = "X"
	resp = ts.do(http.MethodPost, "/api/teachers/", token, formBody(fields, nil))
	require.Equal(t, fiber.StatusBadRequest, resp.status)

	var problem web.Problem
	resp.decode(&problem)
	assert.Contains(t, problem.Errors, "gender")

	resp = ts.do(http.MethodDelete, fmt.Sprintf("/api/subjects/%d/", sub.ID), token, body{})
	require.Equal(t, fiber.StatusNoContent, resp.status)

	assert.Equal(t, fiber.StatusNotFound, ts.do(http.MethodGet, fmt.Sprintf("/api/teachers/%d/", teacher.ID), token, body{}).status)
	assert.False(t, ts.blobExists(row.Photo))
}

func TestRolesAndGrants(t *testing.T) {
	ts := newTestServer(t)
	token := ts.login("admin", "admin")

	var role struct {
		ID          uint                `json:"id"`
		Permissions []models.Permission `json:"permissions"`
	}
	resp := ts.do(http.MethodPost, "/api/roles/", token, jsonBody(fiber.Map{"name": "editor"}))
	require.Equal(t, fiber.StatusCreated, resp.status, resp.text())
	resp.decode(&role)
	assert.Empty(t, role.Permissions)

	var perm models.Permission
	require.NoError(t, ts.db.Where("name = ?", auth.PermProductUpdate).First(&perm).Error)

	grants := fmt.Sprintf("/api/roles/%d/permissions/", role.ID)
	resp = ts.do(http.MethodPost, grants, token, jsonBody(fiber.Map{"permission": perm.ID}))
	require.Equal(t, fiber.StatusCreated, resp.status, resp.text())
	resp.decode(&role)
	require.Len(t, role.Permissions, 1)

	resp = ts.do(http.MethodPost, grants, token, jsonBody(fiber.Map{"permission": perm.ID}))
	assert.Equal(t, fiber.StatusConflict, resp.status)

	resp = ts.do(http.MethodDelete, fmt.Sprintf("%s%d/", grants, perm.ID), token, body{})
	assert.Equal(t, fiber.StatusNoContent, resp.status)

	var admin models.Role
	require.NoError(t, ts.db.Where("name = ?", "admin").First(&admin).Error)
	resp = ts.do(http.MethodDelete, fmt.Sprintf("/api/roles/%d/", admin.ID), token, body{})
	assert.Equal(t, fiber.StatusForbidden, resp.status, "system role")

	resp = ts.do(http.MethodDelete, fmt.Sprintf("/api/roles/%d/", role.ID), token, body{})
	assert.Equal(t, fiber.StatusNoContent, resp.status)
}

func TestUserAdmin(t *testing.T) {
	ts := newTestServer(t)
	token := ts.login("admin", "admin")

	var viewer models.Role
	require.NoError(t, ts.db.Where("name = ?", "viewer").First(&viewer).Error)

	var created struct {
		ID   uint64       `json:"id"`
		Role *models.Role `json:"role"`
	}
	resp := ts.do(http.MethodPost, "/api/users/", token, jsonBody(fiber.Map{
		"username": "bob", "email": "bob@example.com", "password": "password1", "role": viewer.ID,
	}))
	require.Equal(t, fiber.StatusCreated, resp.status, resp.text())
	resp.decode(&created)
	require.NotNil(t, created.Role)
	assert.Equal(t, "viewer", created.Role.Name)
	assert.NotContains(t, resp.text(), "password1")

	resp = ts.do(http.MethodPut, fmt.Sprintf("/api/users/%d/role/", created.ID), token, jsonBody(fiber.Map{"role": nil}))
	require.Equal(t, fiber.StatusOK, resp.status, resp.text())

	role, err := ts.svc.GetUserRole(t.Context(), created.ID)
	require.NoError(t, err)
	assert.Nil(t, role)

	resp = ts.do(http.MethodGet, "/api/users/?search=bo", token, body{})
	require.Equal(t, fiber.StatusOK, resp.status)
	assert.Contains(t, resp.text(), `"totalItems":1`)

	assert.Equal(t, fiber.StatusNoContent, ts.do(http.MethodDelete, fmt.Sprintf("/api/users/%d/", created.ID), token, body{}).status)
	assert.Equal(t, fiber.StatusNotFound, ts.do(http.MethodGet, fmt.Sprintf("/api/users/%d/", created.ID), token, body{}).status)
}

func TestDashboard(t *testing.T) {
	ts := newTestServer(t)
	token := ts.login("viewer", "viewer")

	cat := models.Category{Name: "Books"}
	require.NoError(t, ts.db.Create(&cat).Error)
	require.NoError(t, ts.db.Create(&[]models.Product{
		{Name: "a", CategoryID: cat.ID, Stock: 0},
		{Name: "b", CategoryID: cat.ID, Stock: 3},
		{Name: "c", CategoryID: cat.ID, Stock: 50},
	}).Error)

	resp := ts.do(http.MethodGet, "/api/dashboard", token, body{})
	require.Equal(t, fiber.StatusOK, resp.status, resp.text())

	var data dashboard.Data
	resp.decode(&data)
	assert.Equal(t, dashboard.Data{Categories: 1, Products: 3, OutOfStock: 1, LowStock: 2}, data)

	resp = ts.do(http.MethodGet, "/api/dashboard?lowStock=100", token, body{})
	resp.decode(&data)
	assert.Equal(t, int64(3), data.LowStock)

	assert.Equal(t, fiber.StatusUnauthorized, ts.do(http.MethodGet, "/api/dashboard", "", body{}).status)
}

func TestDisabledUserLosesAccess(t *testing.T) {
	ts := newTestServer(t)
	bob := ts.createUser("bob", "admin")
	pair := ts.authenticate("bob", "")

	require.Equal(t, fiber.StatusOK, ts.do(http.MethodGet, "/api/categories/", pair.Access, body{}).status)

	require.NoError(t, ts.db.Model(bob).Update("active", false).Error)

	assert.Equal(t, fiber.StatusUnauthorized, ts.do(http.MethodGet, "/api/categories/", pair.Access, body{}).status)
	assert.Equal(t, fiber.StatusUnauthorized,
		ts.do(http.MethodPost, "/api/categories/", pair.Access, jsonBody(fiber.Map{"name": "Books"})).status)
	assert.Equal(t, fiber.StatusUnauthorized, ts.do(http.MethodGet, "/api/auth/me/", pair.Access, body{}).status)

	resp := ts.do(http.MethodPost, "/api/auth/refresh/", "", jsonBody(fiber.Map{"refresh": pair.Refresh}))
	assert.Equal(t, fiber.StatusUnauthorized, resp.status, resp.text())

	// deleted users fare no better
	require.NoError(t, ts.db.Model(bob).Update("active", true).Error)
	require.Equal(t, fiber.StatusOK, ts.do(http.MethodGet, "/api/categories/", pair.Access, body{}).status)

	admin := ts.login("admin", "admin")
	require.Equal(t, fiber.StatusNoContent,
		ts.do(http.MethodDelete, fmt.Sprintf("/api/users/%d/", bob.ID), admin, body{}).status)

	assert.Equal(t, fiber.StatusUnauthorized, ts.do(http.MethodGet, "/api/categories/", pair.Access, body{}).status)
	resp = ts.do(http.MethodPost, "/api/auth/refresh/", "", jsonBody(fiber.Map{"refresh": pair.Refresh}))
	assert.Equal(t, fiber.StatusUnauthorized, resp.status, resp.text())
}

func TestTokensStayInTheirTenant(t *testing.T) {
	ts := newTestServer(t)
	ts.createUser("bob", "admin")

	home := ts.authenticate("bob", "")
	assert.Equal(t, fiber.StatusOK, ts.request(http.MethodGet, "/api/categories/", home.Access, body{}, "").status)
	assert.Equal(t, fiber.StatusUnauthorized,
		ts.request(http.MethodGet, "/api/categories/", home.Access, body{}, "tenant_b").status)

	resp := ts.request(http.MethodPost, "/api/auth/refresh/", "", jsonBody(fiber.Map{"refresh": home.Refresh}), "tenant_b")
	assert.Equal(t, fiber.StatusUnauthorized, resp.status, resp.text())

	// sqlite shares one schema, so the same account can log in under tenant_b
	other := ts.authenticate("bob", "tenant_b")
	assert.Equal(t, fiber.StatusOK, ts.request(http.MethodGet, "/api/categories/", other.Access, body{}, "tenant_b").status)
	assert.Equal(t, fiber.StatusUnauthorized, ts.request(http.MethodGet, "/api/categories/", other.Access, body{}, "").status)
}

func TestProductImageClearedByJSON(t *testing.T) {
	ts := newTestServer(t)
	token := ts.login("admin", "admin")

	cat := models.Category{Name: "Books"}
	require.NoError(t, ts.db.Create(&cat).Error)

	create := func() (uint, string) {
		fields := map[string]string{"name": "Dune", "category": fmt.Sprint(cat.ID)}
		resp := ts.do(http.MethodPost, "/api/products/", token,
			formBody(fields, map[string][2]string{"image": {"dune.png", "cover"}}))
		require.Equal(t, fiber.StatusCreated, resp.status, resp.text())

		var p handler.ProductView
		resp.decode(&p)

		var row models.Product
		require.NoError(t, ts.db.First(&row, p.ID).Error)
		require.True(t, ts.blobExists(row.Image))

		return p.ID, row.Image
	}

	tests := []struct {
		name      string
		body      string
		wantClear bool
	}{
		{name: "null", body: `{"image": null}`, wantClear: true},
		{name: "empty string", body: `{"image": ""}`, wantClear: true},
		{name: "absent", body: `{"stock": 4}`},
		{name: "echoed url", body: `{"image": "/media/product_images/whatever.png"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ref := create()

			resp := ts.do(http.MethodPatch, fmt.Sprintf("/api/products/%d/", id), token,
				body{reader: strings.NewReader(tt.body), contentType: fiber.MIMEApplicationJSON})
			require.Equal(t, fiber.StatusOK, resp.status, resp.text())

			var p handler.ProductView
			resp.decode(&p)

			var row models.Product
			require.NoError(t, ts.db.First(&row, id).Error)

			if tt.wantClear {
				assert.Nil(t, p.Image)
				assert.Empty(t, row.Image)
				assert.False(t, ts.blobExists(ref))

				return
			}

			assert.NotNil(t, p.Image)
			assert.Equal(t, ref, row.Image)
			assert.True(t, ts.blobExists(ref))
		})
	}
}

func TestRoleAssignmentNeedsRoleAdmin(t *testing.T) {
	ts := newTestServer(t)

	manager := models.Role{Name: "user_manager"}
	require.NoError(t, ts.db.Create(&manager).Error)

	var perm models.Permission
	require.NoError(t, ts.db.Where("name = ?", auth.PermAdminUsers).First(&perm).Error)
	require.NoError(t, ts.svc.GrantPermission(t.Context(), manager.ID, perm.ID))

	var admin models.Role
	require.NoError(t, ts.db.Where("name = ?", "admin").First(&admin).Error)

	token := ts.login("manager", "user_manager")
	target := ts.createUser("target", "viewer")

	assert.Equal(t, fiber.StatusOK, ts.do(http.MethodGet, "/api/users/", token, body{}).status)

	resp := ts.do(http.MethodPut, fmt.Sprintf("/api/users/%d/role/", target.ID), token, jsonBody(fiber.Map{"role": admin.ID}))
	assert.Equal(t, fiber.StatusForbidden, resp.status)

	resp = ts.do(http.MethodPatch, fmt.Sprintf("/api/users/%d/", target.ID), token, jsonBody(fiber.Map{"role": admin.ID}))
	assert.Equal(t, fiber.StatusForbidden, resp.status)

	resp = ts.do(http.MethodPost, "/api/users/", token, jsonBody(fiber.Map{
		"username": "eve", "email": "eve@example.com", "password": "password1", "role": admin.ID,
	}))
	assert.Equal(t, fiber.StatusForbidden, resp.status)

	resp = ts.do(http.MethodPost, "/api/users/", token, jsonBody(fiber.Map{
		"username": "eve", "email": "eve@example.com", "password": "password1",
	}))
	assert.Equal(t, fiber.StatusCreated, resp.status, resp.text())

	role, err := ts.svc.GetUserRole(t.Context(), target.ID)
	require.NoError(t, err)
	require.NotNil(t, role)
	assert.Equal(t, "viewer", role.Name)
}
