package aiplan

import (
    "bytes"
    "context"
    "encoding/json"
    "fmt"
    "io"
    "net/http"
    "strconv"
    "strings"
    "time"

    "gym-center-manager/internal/models"
)

const (
    defaultBaseURL = "https://generativelanguage.googleapis.com"
    defaultModel   = "gemini-1.5-flash"
)

// Profile — биометрия и пожелания, из которых собирается запрос к модели.
type Profile struct {
    Age        int     `json:"age"`
    Gender     string  `json:"gender"`
    HeightCm   float64 `json:"height_cm"`
    WeightKg   float64 `json:"weight_kg"`
    Activity   float64 `json:"activity"` // множитель 1.2..1.9
    Goal       string  `json:"goal"`       // lose | maintain | gain
    Preference string  `json:"preference"` // vegetarian | non-vegetarian | vegan
}

func (p Profile) Validate() error {
    if p.Age <= 0 || p.Age > 120 {
        return fmt.Errorf("возраст вне диапазона: %d", p.Age)
    }
    if p.HeightCm <= 0 || p.WeightKg <= 0 {
        return fmt.Errorf("рост и вес должны быть положительными")
    }
    if p.Activity < 1.0 || p.Activity > 2.5 {
        return fmt.Errorf("множитель активности вне диапазона: %v", p.Activity)
    }
    return nil
}

// TargetCalories — оценка суточной нормы (Mifflin-St Jeor × активность),
// скорректированная под цель.
func TargetCalories(p Profile) int {
    bmr := 10*p.WeightKg + 6.25*p.HeightCm - 5*float64(p.Age)
    if strings.EqualFold(p.Gender, "male") {
        bmr += 5
    } else {
        bmr -= 161
    }
    total := bmr * p.Activity
    switch strings.ToLower(p.Goal) {
    case "lose":
        total -= 400
    case "gain":
        total += 400
    }
    if total < 1200 {
        total = 1200
    }
    return int(total)
}

type Client struct {
    APIKey     string
    BaseURL    string
    Model      string
    HTTPClient *http.Client
}

// Generate запрашивает у модели план питания и приводит его к models.DietPlan.
// При любой ошибке (транспорт, парсинг, неполный ответ) прежний план
// на стороне вызывающего должен остаться нетронутым.
func (c *Client) Generate(ctx context.Context, p Profile) (models.DietPlan, error) {
    if strings.TrimSpace(c.APIKey) == "" {
        return models.DietPlan{}, fmt.Errorf("не задан ключ генеративного API")
    }
    if err := p.Validate(); err != nil {
        return models.DietPlan{}, err
    }
    baseURL := strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
    if baseURL == "" {
        baseURL = defaultBaseURL
    }
    model := c.Model
    if model == "" {
        model = defaultModel
    }
    httpClient := c.HTTPClient
    if httpClient == nil {
        httpClient = &http.Client{Timeout: 30 * time.Second}
    }

    reqBody := generateRequest{
        Contents: []content{{Parts: []part{{Text: BuildPrompt(p)}}}},
    }
    payload, err := json.Marshal(reqBody)
    if err != nil {
        return models.DietPlan{}, fmt.Errorf("marshal запроса: %w", err)
    }

    url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", baseURL, model, c.APIKey)
    req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
    if err != nil {
        return models.DietPlan{}, fmt.Errorf("создание запроса: %w", err)
    }
    req.Header.Set("Content-Type", "application/json")

    resp, err := httpClient.Do(req)
    if err != nil {
        return models.DietPlan{}, fmt.Errorf("запрос к генеративному API: %w", err)
    }
    defer resp.Body.Close()

    body, err := io.ReadAll(resp.Body)
    if err != nil {
        return models.DietPlan{}, fmt.Errorf("чтение ответа: %w", err)
    }
    if resp.StatusCode < 200 || resp.StatusCode >= 300 {
        return models.DietPlan{}, fmt.Errorf("генеративный API вернул статус %d", resp.StatusCode)
    }

    var parsed generateResponse
    if err := json.Unmarshal(body, &parsed); err != nil {
        return models.DietPlan{}, fmt.Errorf("декодирование ответа: %w", err)
    }
    if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
        return models.DietPlan{}, fmt.Errorf("пустой ответ модели")
    }

    return ParsePlanText(parsed.Candidates[0].Content.Parts[0].Text, p.Preference)
}

// BuildPrompt собирает инструкцию для модели.
func BuildPrompt(p Profile) string {
    var b strings.Builder
    b.WriteString("You are a nutrition planner. Create a one-day diet plan as strict JSON, no prose.\n")
    b.WriteString("Profile: age " + strconv.Itoa(p.Age))
    b.WriteString(", gender " + p.Gender)
    b.WriteString(", height " + strconv.FormatFloat(p.HeightCm, 'f', 0, 64) + " cm")
    b.WriteString(", weight " + strconv.FormatFloat(p.WeightKg, 'f', 0, 64) + " kg")
    b.WriteString(", activity multiplier " + strconv.FormatFloat(p.Activity, 'f', 2, 64))
    b.WriteString(", goal " + p.Goal)
    b.WriteString(", dietary preference " + p.Preference + ".\n")
    b.WriteString("Target about " + strconv.Itoa(TargetCalories(p)) + " kcal per day.\n")
    b.WriteString(`Respond with JSON: {"calories": int, "macros": {"protein": int, "carbs": int, "fats": int}, ` +
        `"meals": {"breakfast": [{"name": str, "portion": str, "calories": int}], "lunch": [...], "dinner": [...], "snacks": [...]}}. ` +
        "Macros are percentages summing to 100.")
    return b.String()
}

// StripCodeFence убирает markdown-ограждение вокруг JSON, если модель его добавила.
func StripCodeFence(s string) string {
    s = strings.TrimSpace(s)
    if !strings.HasPrefix(s, "```") {
        return s
    }
    s = strings.TrimPrefix(s, "```")
    // после ограждения может идти метка языка: ```json
    if idx := strings.Index(s, "\n"); idx >= 0 {
        first := strings.TrimSpace(s[:idx])
        if first == "json" || first == "" {
            s = s[idx+1:]
        }
    }
    s = strings.TrimSuffix(strings.TrimSpace(s), "```")
    return strings.TrimSpace(s)
}

// ParsePlanText разбирает текст ответа модели в план и декорирует блюда
// картинками и последовательными идентификаторами.
func ParsePlanText(text, preference string) (models.DietPlan, error) {
    var wire struct {
        Calories int           `json:"calories"`
        Macros   models.Macros `json:"macros"`
        Meals    struct {
            Breakfast []wireMeal `json:"breakfast"`
            Lunch     []wireMeal `json:"lunch"`
            Dinner    []wireMeal `json:"dinner"`
            Snacks    []wireMeal `json:"snacks"`
        } `json:"meals"`
    }
    if err := json.Unmarshal([]byte(StripCodeFence(text)), &wire); err != nil {
        return models.DietPlan{}, fmt.Errorf("ответ модели не является корректным JSON: %w", err)
    }
    if wire.Calories <= 0 {
        return models.DietPlan{}, fmt.Errorf("план без калорийности")
    }
    if len(wire.Meals.Breakfast) == 0 || len(wire.Meals.Lunch) == 0 ||
        len(wire.Meals.Dinner) == 0 || len(wire.Meals.Snacks) == 0 {
        return models.DietPlan{}, fmt.Errorf("план неполный: нужны все четыре приёма пищи")
    }

    plan := models.DietPlan{
        Calories:   wire.Calories,
        Macros:     wire.Macros,
        Preference: preference,
    }
    plan.Meals.Breakfast = decorateMeals("breakfast", preference, wire.Meals.Breakfast)
    plan.Meals.Lunch = decorateMeals("lunch", preference, wire.Meals.Lunch)
    plan.Meals.Dinner = decorateMeals("dinner", preference, wire.Meals.Dinner)
    plan.Meals.Snacks = decorateMeals("snacks", preference, wire.Meals.Snacks)
    return plan, nil
}

type wireMeal struct {
    Name     string `json:"name"`
    Portion  string `json:"portion"`
    Calories int    `json:"calories"`
}

func decorateMeals(slot, preference string, in []wireMeal) []models.MealItem {
    out := make([]models.MealItem, 0, len(in))
    for i, m := range in {
        out = append(out, models.MealItem{
            ID:       slot + "-" + strconv.Itoa(i+1),
            Name:     m.Name,
            Portion:  m.Portion,
            Calories: m.Calories,
            Image:    ImageFor(slot, preference, i),
        })
    }
    return out
}

// ---- формат провайдера ----

type generateRequest struct {
    Contents []content `json:"contents"`
}

type content struct {
    Parts []part `json:"parts"`
}

type part struct {
    Text string `json:"text"`
}

type generateResponse struct {
    Candidates []struct {
        Content content `json:"content"`
    } `json:"candidates"`
}
