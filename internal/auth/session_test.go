package auth

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupAuthApp собирает приложение с cookie-сессиями и демо-режимом.
// БД нет (nil) — вход возможен только через демо-учётки.
func setupAuthApp(t *testing.T) *fiber.App {
	t.Helper()
	Init(session.New(), nil, true)

	app := fiber.New()
	app.Post("/login", func(c *fiber.Ctx) error {
		ident, err := Login(c, c.FormValue("login"), c.FormValue("password"))
		if err != nil {
			return c.SendStatus(fiber.StatusUnauthorized)
		}
		return c.JSON(ident)
	})
	app.Post("/logout", func(c *fiber.Ctx) error {
		if err := Logout(c); err != nil {
			return c.SendStatus(fiber.StatusInternalServerError)
		}
		return c.SendStatus(fiber.StatusOK)
	})
	app.Get("/protected", RequireAuth, func(c *fiber.Ctx) error {
		ident, _ := Current(c)
		return c.SendString("hello " + ident.Username)
	})
	app.Get("/admin-only", RequireRole("owner"), func(c *fiber.Ctx) error {
		return c.SendString("secret")
	})
	return app
}

func doLogin(t *testing.T, app *fiber.App, login, password string) *http.Response {
	t.Helper()
	form := "login=" + login + "&password=" + password
	req := httptest.NewRequest(fiber.MethodPost, "/login", strings.NewReader(form))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func TestDemoLogin(t *testing.T) {
	app := setupAuthApp(t)

	resp := doLogin(t, app, "owner", "password")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = doLogin(t, app, "owner", "wrong")
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp = doLogin(t, app, "nobody", "password")
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestDemoLoginDisabled(t *testing.T) {
	Init(session.New(), nil, false)
	app := fiber.New()
	app.Post("/login", func(c *fiber.Ctx) error {
		if _, err := Login(c, c.FormValue("login"), c.FormValue("password")); err != nil {
			return c.SendStatus(fiber.StatusUnauthorized)
		}
		return c.SendStatus(fiber.StatusOK)
	})

	resp := doLogin(t, app, "owner", "password")
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

// Сессия живёт в cookie: после входа cookie открывает защищённые маршруты.
func TestSessionRoundTrip(t *testing.T) {
	app := setupAuthApp(t)

	resp := doLogin(t, app, "admin", "password")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	cookies := resp.Cookies()
	require.NotEmpty(t, cookies)

	req := httptest.NewRequest(fiber.MethodGet, "/protected", nil)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "hello admin", string(body))
}

func TestRequireAuthWithoutSession(t *testing.T) {
	app := setupAuthApp(t)

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/protected", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "application/problem+json")
}

// Разрешение "all" пропускает через любую ролевую проверку.
func TestRequireRoleAllSentinel(t *testing.T) {
	app := setupAuthApp(t)

	// admin не owner, но у демо-учётки permissions=["all"]
	resp := doLogin(t, app, "admin", "password")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	req := httptest.NewRequest(fiber.MethodGet, "/admin-only", nil)
	for _, ck := range resp.Cookies() {
		req.AddCookie(ck)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestLogoutClearsSession(t *testing.T) {
	app := setupAuthApp(t)

	resp := doLogin(t, app, "owner", "password")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	cookies := resp.Cookies()

	req := httptest.NewRequest(fiber.MethodPost, "/logout", nil)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	req = httptest.NewRequest(fiber.MethodGet, "/protected", nil)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestUsernameFromEmail(t *testing.T) {
	assert.Equal(t, "ivan", UsernameFromEmail("ivan@gym.local"))
	assert.Equal(t, "plain", UsernameFromEmail("plain"))
	assert.Equal(t, "@weird", UsernameFromEmail("@weird"))
}

func TestRoleOrDefault(t *testing.T) {
	assert.Equal(t, "user", RoleOrDefault(""))
	assert.Equal(t, "user", RoleOrDefault("   "))
	assert.Equal(t, "owner", RoleOrDefault("owner"))
}

func TestIdentityPermissions(t *testing.T) {
	super := Identity{Role: "admin", Permissions: []string{"all"}}
	assert.True(t, super.HasPermission("members"))
	assert.True(t, super.HasPermission("anything-at-all"))

	limited := Identity{Role: "manager", Permissions: []string{"members", "classes"}}
	assert.True(t, limited.HasPermission("members"))
	assert.False(t, limited.HasPermission("payments"))
	assert.True(t, limited.HasRole("manager"))
	assert.False(t, limited.HasRole("owner"))
}
