package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"estatehub/internal/core/domain"
	"estatehub/internal/core/services"
	"estatehub/internal/pkg/jwt"
	"estatehub/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRoles struct {
	RoleOfFunc func(ctx context.Context, userID string) (domain.Role, error)
}

func (m *mockRoles) RoleOf(ctx context.Context, userID string) (domain.Role, error) {
	return m.RoleOfFunc(ctx, userID)
}

func rolesOf(roles map[string]domain.Role) *mockRoles {
	return &mockRoles{RoleOfFunc: func(_ context.Context, userID string) (domain.Role, error) {
		if r, ok := roles[userID]; ok {
			return r, nil
		}
		return "", services.ErrProfileNotFound
	}}
}

func newTestApp(issuer *jwt.Issuer, roles RoleResolver) *fiber.App {
	app := fiber.New()
	api := app.Group("/api", APIKey("anon"))
	api.Get("/open", func(c *fiber.Ctx) error { return c.SendString("ok") })

	admin := api.Group("/admin", AuthMiddleware(issuer), ResolveRole(roles), RequireAdmin())
	admin.Get("/panel", func(c *fiber.Ctx) error { return c.SendString("panel") })
	return app
}

func decode(t *testing.T, resp io.Reader) response.Response {
	t.Helper()
	var out response.Response
	require.NoError(t, json.NewDecoder(resp).Decode(&out))
	return out
}

func TestAPIKey(t *testing.T) {
	app := newTestApp(jwt.NewIssuer("s", "r", time.Minute, time.Hour), rolesOf(nil))

	req := httptest.NewRequest(fiber.MethodGet, "/api/open", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	req = httptest.NewRequest(fiber.MethodGet, "/api/open", nil)
	req.Header.Set(HeaderAPIKey, "anon")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestRequireAdmin(t *testing.T) {
	issuer := jwt.NewIssuer("s", "r", time.Minute, time.Hour)
	app := newTestApp(issuer, rolesOf(map[string]domain.Role{
		"admin-1": domain.RoleAdmin,
		"user-1":  domain.RoleUser,
	}))

	call := func(userID string) (int, response.Response) {
		req := httptest.NewRequest(fiber.MethodGet, "/api/admin/panel", nil)
		req.Header.Set(HeaderAPIKey, "anon")
		if userID != "" {
			token, _, err := issuer.GenerateAccessToken(userID, userID+"@estatehub.test")
			require.NoError(t, err)
			req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
		}
		resp, err := app.Test(req)
		require.NoError(t, err)
		if resp.StatusCode == fiber.StatusOK {
			return resp.StatusCode, response.Response{}
		}
		return resp.StatusCode, decode(t, resp.Body)
	}

	status, body := call("")
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, "/api/admin/panel", body.Data.(map[string]interface{})["return_to"])

	status, body = call("user-1")
	assert.Equal(t, fiber.StatusForbidden, status)
	assert.Equal(t, "standard", body.Data.(map[string]interface{})["role"])

	status, body = call("nobody")
	assert.Equal(t, fiber.StatusForbidden, status)
	assert.Equal(t, "unknown", body.Data.(map[string]interface{})["role"])

	status, _ = call("admin-1")
	assert.Equal(t, fiber.StatusOK, status)
}

func TestResolveRole_BackendFailure(t *testing.T) {
	issuer := jwt.NewIssuer("s", "r", time.Minute, time.Hour)
	app := newTestApp(issuer, &mockRoles{RoleOfFunc: func(context.Context, string) (domain.Role, error) {
		return "", errors.New("db down")
	}})

	token, _, err := issuer.GenerateAccessToken("u", "u@estatehub.test")
	require.NoError(t, err)
	req := httptest.NewRequest(fiber.MethodGet, "/api/admin/panel", nil)
	req.Header.Set(HeaderAPIKey, "anon")
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
}

func TestCacheControl(t *testing.T) {
	app := fiber.New()
	app.Get("/x", CacheControl(time.Minute), func(c *fiber.Ctx) error { return c.SendString("x") })

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/x", nil))
	require.NoError(t, err)
	assert.Equal(t, "public, max-age=60", resp.Header.Get(fiber.HeaderCacheControl))
}
