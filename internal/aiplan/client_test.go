package aiplan

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePlanJSON = `{
  "calories": 2100,
  "macros": {"protein": 30, "carbs": 45, "fats": 25},
  "meals": {
    "breakfast": [{"name": "Овсянка с ягодами", "portion": "250 г", "calories": 350}],
    "lunch": [{"name": "Гречка с курицей", "portion": "300 г", "calories": 550},
              {"name": "Салат", "portion": "150 г", "calories": 120}],
    "dinner": [{"name": "Рыба с овощами", "portion": "300 г", "calories": 480}],
    "snacks": [{"name": "Творог", "portion": "150 г", "calories": 200}]
  }
}`

func testProfile() Profile {
	return Profile{
		Age:        30,
		Gender:     "male",
		HeightCm:   180,
		WeightKg:   80,
		Activity:   1.5,
		Goal:       "maintain",
		Preference: "non-vegetarian",
	}
}

// fakeGenerativeAPI поднимает сервер, отвечающий как генеративный API:
// текст кандидата задаётся вызывающим.
func fakeGenerativeAPI(t *testing.T, candidateText string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Contains(t, r.URL.Path, ":generateContent")
		assert.NotEmpty(t, r.URL.Query().Get("key"))

		resp := map[string]any{
			"candidates": []map[string]any{
				{"content": map[string]any{"parts": []map[string]any{{"text": candidateText}}}},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
}

func TestGenerate_PlainJSON(t *testing.T) {
	srv := fakeGenerativeAPI(t, samplePlanJSON)
	defer srv.Close()

	client := &Client{APIKey: "test-key", BaseURL: srv.URL, HTTPClient: srv.Client()}
	plan, err := client.Generate(context.Background(), testProfile())
	require.NoError(t, err)

	assert.Equal(t, 2100, plan.Calories)
	assert.Equal(t, 30, plan.Macros.Protein)
	assert.Equal(t, "non-vegetarian", plan.Preference)
	assert.Len(t, plan.Meals.Lunch, 2)
}

func TestGenerate_FencedJSON(t *testing.T) {
	srv := fakeGenerativeAPI(t, "```json\n"+samplePlanJSON+"\n```")
	defer srv.Close()

	client := &Client{APIKey: "test-key", BaseURL: srv.URL, HTTPClient: srv.Client()}
	plan, err := client.Generate(context.Background(), testProfile())
	require.NoError(t, err)
	assert.Equal(t, 2100, plan.Calories)
}

// Каждое блюдо получает последовательный id по приёму пищи и картинку.
func TestGenerate_DecoratesMeals(t *testing.T) {
	srv := fakeGenerativeAPI(t, samplePlanJSON)
	defer srv.Close()

	client := &Client{APIKey: "test-key", BaseURL: srv.URL, HTTPClient: srv.Client()}
	plan, err := client.Generate(context.Background(), testProfile())
	require.NoError(t, err)

	assert.Equal(t, "breakfast-1", plan.Meals.Breakfast[0].ID)
	assert.Equal(t, "lunch-1", plan.Meals.Lunch[0].ID)
	assert.Equal(t, "lunch-2", plan.Meals.Lunch[1].ID)
	for _, item := range plan.Meals.Lunch {
		assert.NotEmpty(t, item.Image)
	}
}

func TestGenerate_MalformedResponse(t *testing.T) {
	srv := fakeGenerativeAPI(t, "Вот ваш план питания: ешьте побольше овощей!")
	defer srv.Close()

	client := &Client{APIKey: "test-key", BaseURL: srv.URL, HTTPClient: srv.Client()}
	_, err := client.Generate(context.Background(), testProfile())
	assert.Error(t, err)
}

func TestGenerate_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := &Client{APIKey: "test-key", BaseURL: srv.URL, HTTPClient: srv.Client()}
	_, err := client.Generate(context.Background(), testProfile())
	assert.Error(t, err)
}

func TestGenerate_MissingKey(t *testing.T) {
	client := &Client{}
	_, err := client.Generate(context.Background(), testProfile())
	assert.Error(t, err)
}

func TestParsePlanText_RequiresAllFourMeals(t *testing.T) {
	incomplete := `{
	  "calories": 1800,
	  "macros": {"protein": 30, "carbs": 45, "fats": 25},
	  "meals": {
	    "breakfast": [{"name": "Омлет", "portion": "200 г", "calories": 300}],
	    "lunch": [{"name": "Суп", "portion": "300 г", "calories": 400}],
	    "dinner": [],
	    "snacks": []
	  }
	}`
	_, err := ParsePlanText(incomplete, "vegetarian")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "четыре приёма пищи")
}

func TestParsePlanText_RejectsZeroCalories(t *testing.T) {
	_, err := ParsePlanText(`{"calories": 0, "meals": {}}`, "vegan")
	assert.Error(t, err)
}

func TestStripCodeFence(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"без ограждения", `{"a":1}`, `{"a":1}`},
		{"с меткой json", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"без метки", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"с пробелами", "  ```json\n{\"a\":1}\n```  ", `{"a":1}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, StripCodeFence(tc.in))
		})
	}
}

func TestTargetCalories(t *testing.T) {
	p := testProfile() // BMR = 10*80 + 6.25*180 - 5*30 + 5 = 1780; *1.5 = 2670
	assert.Equal(t, 2670, TargetCalories(p))

	p.Goal = "lose"
	assert.Equal(t, 2270, TargetCalories(p))

	p.Goal = "gain"
	assert.Equal(t, 3070, TargetCalories(p))
}

func TestTargetCalories_Floor(t *testing.T) {
	p := Profile{Age: 80, Gender: "female", HeightCm: 150, WeightKg: 40, Activity: 1.0, Goal: "lose"}
	assert.Equal(t, 1200, TargetCalories(p))
}

func TestProfileValidate(t *testing.T) {
	assert.NoError(t, testProfile().Validate())

	bad := testProfile()
	bad.Age = 0
	assert.Error(t, bad.Validate())

	bad = testProfile()
	bad.Activity = 0.5
	assert.Error(t, bad.Validate())

	bad = testProfile()
	bad.WeightKg = -1
	assert.Error(t, bad.Validate())
}

func TestImageFor_Deterministic(t *testing.T) {
	a := ImageFor("breakfast", "vegetarian", 0)
	b := ImageFor("breakfast", "vegetarian", 0)
	assert.Equal(t, a, b)
	assert.NotEmpty(t, ImageFor("unknown-slot", "unknown", 3))
}
