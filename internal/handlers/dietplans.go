package handlers

import (
    "errors"
    "log"
    "strings"

    "gym-center-manager/internal/aiplan"
    "gym-center-manager/internal/models"
    "gym-center-manager/internal/planstore"

    "github.com/gofiber/fiber/v2"
)

var (
    aiClient  *aiplan.Client
    planStore *planstore.Store
)

// InitDietPlans подключает генератор и локальное хранилище планов.
func InitDietPlans(client *aiplan.Client, store *planstore.Store) {
    aiClient = client
    planStore = store
}

// GenerateDietPlan — прокси к генеративному API.
// Ключ остаётся на сервере, клиент получает готовый план.
func GenerateDietPlan(c *fiber.Ctx) error {
    if aiClient == nil {
        return jsonError(c, 503, "Сервис генерации не настроен", nil)
    }

    var p aiplan.Profile
    if err := c.BodyParser(&p); err != nil {
        return jsonError(c, 400, "Неверные данные формы", err)
    }
    if err := p.Validate(); err != nil {
        return jsonError(c, 400, "Неверный профиль: "+err.Error(), nil)
    }

    ctx, cancel := withDBTimeout()
    defer cancel()
    plan, err := aiClient.Generate(ctx, p)
    if err != nil {
        log.Printf("❌ генерация плана: %v", err)
        return jsonError(c, 502, "Сервис генерации недоступен или вернул некорректный ответ", err)
    }

    log.Printf("✅ План сгенерирован: %d ккал", plan.Calories)
    return jsonOK(c, fiber.Map{"plan": plan})
}

// ListSavedPlans — сохранённые планы, новые первыми
func ListSavedPlans(c *fiber.Ctx) error {
    ctx, cancel := withDBTimeout()
    defer cancel()
    plans, err := planStore.List(ctx)
    if err != nil {
        return jsonError(c, 500, "DB: ошибка чтения сохранённых планов", err)
    }
    return jsonOK(c, fiber.Map{"plans": plans})
}

// SaveDietPlan — сохранить сгенерированный план в локальное хранилище
func SaveDietPlan(c *fiber.Ctx) error {
    var plan models.DietPlan
    if err := c.BodyParser(&plan); err != nil {
        return jsonError(c, 400, "Неверные данные формы", err)
    }
    if plan.Calories <= 0 {
        return jsonError(c, 400, "Заполните обязательные поля: калорийность плана", nil)
    }

    ctx, cancel := withDBTimeout()
    defer cancel()
    saved, err := planStore.Save(ctx, plan)
    if err != nil {
        if errors.Is(err, planstore.ErrBadMacros) {
            return jsonError(c, 400, "Проценты макронутриентов должны давать 100", err)
        }
        return jsonError(c, 500, "DB: ошибка сохранения плана", err)
    }

    c.Set("Location", "/api/v1/diet-plans/"+saved.ID)
    return c.Status(fiber.StatusCreated).JSON(fiber.Map{
        "success": true,
        "message": "План сохранён",
        "plan":    saved,
    })
}

// GetSavedPlan — один план (повторная загрузка даёт тот же контент)
func GetSavedPlan(c *fiber.Ctx) error {
    id := strings.TrimSpace(c.Params("id"))
    if id == "" {
        return jsonError(c, 400, "Некорректный id", nil)
    }
    ctx, cancel := withDBTimeout()
    defer cancel()
    plan, err := planStore.Get(ctx, id)
    if errors.Is(err, planstore.ErrNotFound) {
        return jsonError(c, 404, "План не найден", nil)
    }
    if err != nil {
        return jsonError(c, 500, "DB: ошибка чтения плана", err)
    }
    return jsonOK(c, fiber.Map{"plan": plan})
}

// DeleteSavedPlan — удалить план из локального хранилища
func DeleteSavedPlan(c *fiber.Ctx) error {
    id := strings.TrimSpace(c.Params("id"))
    if id == "" {
        return jsonError(c, 400, "Некорректный id", nil)
    }
    ctx, cancel := withDBTimeout()
    defer cancel()
    err := planStore.Delete(ctx, id)
    if errors.Is(err, planstore.ErrNotFound) {
        return jsonError(c, 404, "План не найден", nil)
    }
    if err != nil {
        return jsonError(c, 500, "DB: ошибка удаления плана", err)
    }
    return jsonOK(c, fiber.Map{"message": "План удалён"})
}
