package handlers

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"gym-center-manager/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resetUsers возвращает встроенный набор учёток после теста.
func resetUsers(t *testing.T) {
	t.Helper()
	usersMu.Lock()
	snapshot := make([]models.User, len(adminUsers))
	copy(snapshot, adminUsers)
	savedNext := nextUserID
	usersMu.Unlock()

	t.Cleanup(func() {
		usersMu.Lock()
		adminUsers = snapshot
		nextUserID = savedNext
		usersMu.Unlock()
	})
}

func setupUsersApp() *fiber.App {
	app := fiber.New()
	app.Get("/api/v1/users", ListUsers)
	app.Post("/api/v1/users", CreateUser)
	app.Put("/api/v1/users/:id", UpdateUser)
	app.Delete("/api/v1/users/:id", DeleteUser)
	return app
}

func postForm(t *testing.T, app *fiber.App, method, url, form string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, url, strings.NewReader(form))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := app.Test(req)
	require.NoError(t, err)
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp.StatusCode, body
}

func TestListUsers(t *testing.T) {
	resetUsers(t)
	app := setupUsersApp()

	code, body := getJSON(t, app, "/api/v1/users")
	require.Equal(t, fiber.StatusOK, code)
	assert.Len(t, body["users"], 3)

	code, body = getJSON(t, app, "/api/v1/users?q=manager")
	require.Equal(t, fiber.StatusOK, code)
	list := body["users"].([]any)
	require.Len(t, list, 1)
	assert.Equal(t, "manager", list[0].(map[string]any)["username"])

	code, _ = getJSON(t, app, "/api/v1/users?status=bogus")
	assert.Equal(t, fiber.StatusBadRequest, code)
}

func TestCreateUser(t *testing.T) {
	resetUsers(t)
	app := setupUsersApp()

	code, body := postForm(t, app, fiber.MethodPost, "/api/v1/users",
		"username=reception&email=reception@gym.local&role=staff&permissions=members,attendance")
	require.Equal(t, fiber.StatusCreated, code)
	assert.Equal(t, true, body["success"])

	code, body = getJSON(t, app, "/api/v1/users?q=reception")
	require.Equal(t, fiber.StatusOK, code)
	list := body["users"].([]any)
	require.Len(t, list, 1)
	u := list[0].(map[string]any)
	assert.Equal(t, "staff", u["role"])
	assert.Equal(t, "active", u["status"])
	assert.Len(t, u["permissions"], 2)
}

func TestCreateUser_Validation(t *testing.T) {
	resetUsers(t)
	app := setupUsersApp()

	code, _ := postForm(t, app, fiber.MethodPost, "/api/v1/users", "username=x")
	assert.Equal(t, fiber.StatusBadRequest, code)

	code, _ = postForm(t, app, fiber.MethodPost, "/api/v1/users", "username=x&email=not-an-email")
	assert.Equal(t, fiber.StatusBadRequest, code)

	// дубликат логина
	code, _ = postForm(t, app, fiber.MethodPost, "/api/v1/users", "username=admin&email=dup@gym.local")
	assert.Equal(t, fiber.StatusConflict, code)
}

// Роль по умолчанию — "user".
func TestCreateUser_DefaultRole(t *testing.T) {
	resetUsers(t)
	app := setupUsersApp()

	code, _ := postForm(t, app, fiber.MethodPost, "/api/v1/users",
		"username=plain&email=plain@gym.local")
	require.Equal(t, fiber.StatusCreated, code)

	_, body := getJSON(t, app, "/api/v1/users?q=plain")
	list := body["users"].([]any)
	require.Len(t, list, 1)
	assert.Equal(t, "user", list[0].(map[string]any)["role"])
}

func TestUpdateUser(t *testing.T) {
	resetUsers(t)
	app := setupUsersApp()

	code, _ := postForm(t, app, fiber.MethodPut, "/api/v1/users/3",
		"role=admin&status=suspended&permissions=all")
	require.Equal(t, fiber.StatusOK, code)

	_, body := getJSON(t, app, "/api/v1/users?q=manager&status=all")
	list := body["users"].([]any)
	require.Len(t, list, 1)
	u := list[0].(map[string]any)
	assert.Equal(t, "admin", u["role"])
	assert.Equal(t, "suspended", u["status"])

	code, _ = postForm(t, app, fiber.MethodPut, "/api/v1/users/999", "role=admin")
	assert.Equal(t, fiber.StatusNotFound, code)

	code, _ = postForm(t, app, fiber.MethodPut, "/api/v1/users/3", "status=bogus")
	assert.Equal(t, fiber.StatusBadRequest, code)
}

func TestDeleteUser(t *testing.T) {
	resetUsers(t)
	app := setupUsersApp()

	req := httptest.NewRequest(fiber.MethodDelete, "/api/v1/users/3", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	_, body := getJSON(t, app, "/api/v1/users")
	assert.Len(t, body["users"], 2)
}

// Учётка владельца защищена от удаления.
func TestDeleteUser_OwnerProtected(t *testing.T) {
	resetUsers(t)
	app := setupUsersApp()

	req := httptest.NewRequest(fiber.MethodDelete, "/api/v1/users/1", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
}
