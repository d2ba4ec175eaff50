package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"gym-center-manager/internal/aiplan"
	"gym-center-manager/internal/planstore"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const dietPlanJSON = `{
  "calories": 1900,
  "macros": {"protein": 35, "carbs": 40, "fats": 25},
  "meals": {
    "breakfast": [{"name": "Сырники", "portion": "200 г", "calories": 400}],
    "lunch": [{"name": "Борщ", "portion": "350 г", "calories": 500}],
    "dinner": [{"name": "Котлеты с гречкой", "portion": "300 г", "calories": 600}],
    "snacks": [{"name": "Яблоко", "portion": "1 шт", "calories": 80}]
  }
}`

// setupDietPlansApp поднимает фальшивый генеративный API и чистое
// хранилище планов, затем собирает маршруты как в приложении.
func setupDietPlansApp(t *testing.T) *fiber.App {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]any{
			"candidates": []map[string]any{
				{"content": map[string]any{"parts": []map[string]any{{"text": dietPlanJSON}}}},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)

	store, err := planstore.Open(filepath.Join(t.TempDir(), "plans.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	InitDietPlans(&aiplan.Client{APIKey: "test-key", BaseURL: srv.URL, HTTPClient: srv.Client()}, store)
	t.Cleanup(func() { InitDietPlans(nil, nil) })

	app := fiber.New()
	app.Post("/api/v1/diet-plans/generate", GenerateDietPlan)
	app.Get("/api/v1/diet-plans", ListSavedPlans)
	app.Post("/api/v1/diet-plans", SaveDietPlan)
	app.Get("/api/v1/diet-plans/:id", GetSavedPlan)
	app.Delete("/api/v1/diet-plans/:id", DeleteSavedPlan)
	return app
}

func postJSON(t *testing.T, app *fiber.App, url, payload string) (*http.Response, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodPost, url, strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp, body
}

func TestGenerateDietPlan(t *testing.T) {
	app := setupDietPlansApp(t)

	resp, body := postJSON(t, app, "/api/v1/diet-plans/generate",
		`{"age": 28, "gender": "female", "height_cm": 165, "weight_kg": 60, "activity": 1.4, "goal": "maintain", "preference": "vegetarian"}`)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	plan := body["plan"].(map[string]any)
	assert.Equal(t, float64(1900), plan["calories"])
	meals := plan["meals"].(map[string]any)
	for _, slot := range []string{"breakfast", "lunch", "dinner", "snacks"} {
		assert.NotEmpty(t, meals[slot], "приём пищи %s", slot)
	}
}

func TestGenerateDietPlan_InvalidProfile(t *testing.T) {
	app := setupDietPlansApp(t)

	resp, body := postJSON(t, app, "/api/v1/diet-plans/generate", `{"age": 0}`)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, false, body["success"])
}

func TestGenerateDietPlan_Unconfigured(t *testing.T) {
	InitDietPlans(nil, nil)
	app := fiber.New()
	app.Post("/generate", GenerateDietPlan)

	resp, _ := postJSON(t, app, "/generate", `{}`)
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
}

// Сбой провайдера не должен выглядеть как успех: клиент получает 502
// и оставляет прежний план на экране.
func TestGenerateDietPlan_UpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	store, err := planstore.Open(filepath.Join(t.TempDir(), "plans.db"))
	require.NoError(t, err)
	defer store.Close()
	InitDietPlans(&aiplan.Client{APIKey: "test-key", BaseURL: srv.URL, HTTPClient: srv.Client()}, store)
	defer InitDietPlans(nil, nil)

	app := fiber.New()
	app.Post("/generate", GenerateDietPlan)
	resp, body := postJSON(t, app, "/generate",
		`{"age": 28, "gender": "female", "height_cm": 165, "weight_kg": 60, "activity": 1.4}`)
	assert.Equal(t, fiber.StatusBadGateway, resp.StatusCode)
	assert.Equal(t, "urn:gym-center-manager:problem:ai-upstream-error", body["type"])
}

func TestSaveAndReloadPlan(t *testing.T) {
	app := setupDietPlansApp(t)

	resp, body := postJSON(t, app, "/api/v1/diet-plans", dietPlanJSON)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	saved := body["plan"].(map[string]any)
	id := saved["id"].(string)
	require.NotEmpty(t, id)
	assert.Equal(t, "/api/v1/diet-plans/"+id, resp.Header.Get("Location"))

	// повторная загрузка возвращает тот же контент
	code, body := getJSON(t, app, "/api/v1/diet-plans/"+id)
	require.Equal(t, fiber.StatusOK, code)
	got := body["plan"].(map[string]any)
	assert.Equal(t, saved["calories"], got["calories"])
	assert.Equal(t, saved["saved_at"], got["saved_at"])
	assert.Equal(t, saved["meals"], got["meals"])

	code, body = getJSON(t, app, "/api/v1/diet-plans")
	require.Equal(t, fiber.StatusOK, code)
	assert.Len(t, body["plans"], 1)
}

func TestSavePlan_BrokenMacros(t *testing.T) {
	app := setupDietPlansApp(t)

	broken := strings.Replace(dietPlanJSON, `"protein": 35`, `"protein": 70`, 1)
	resp, body := postJSON(t, app, "/api/v1/diet-plans", broken)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body["title"], "макронутриент")
}

func TestSavePlan_RequiresCalories(t *testing.T) {
	app := setupDietPlansApp(t)

	resp, _ := postJSON(t, app, "/api/v1/diet-plans", `{"calories": 0}`)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestDeleteSavedPlan(t *testing.T) {
	app := setupDietPlansApp(t)

	resp, body := postJSON(t, app, "/api/v1/diet-plans", dietPlanJSON)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	id := body["plan"].(map[string]any)["id"].(string)

	req := httptest.NewRequest(fiber.MethodDelete, "/api/v1/diet-plans/"+id, nil)
	delResp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, delResp.StatusCode)

	code, _ := getJSON(t, app, "/api/v1/diet-plans/"+id)
	assert.Equal(t, fiber.StatusNotFound, code)

	req = httptest.NewRequest(fiber.MethodDelete, "/api/v1/diet-plans/"+id, nil)
	delResp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, delResp.StatusCode)
}
