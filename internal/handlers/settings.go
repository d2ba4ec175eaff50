package handlers

import (
    "log"
    "strings"

    "github.com/gofiber/fiber/v2"
)

// Настройки зала: форма без серверного хранения — подтверждаем и забываем.
func SaveSettings(c *fiber.Ctx) error {
    type formT struct {
        GymName      string `form:"gym_name" json:"gym_name"`
        Address      string `form:"address" json:"address"`
        Phone        string `form:"phone" json:"phone"`
        OpeningHours string `form:"opening_hours" json:"opening_hours"`
        Currency     string `form:"currency" json:"currency"`
    }
    var f formT
    if err := c.BodyParser(&f); err != nil {
        return jsonError(c, 400, "Неверные данные формы", err)
    }
    if strings.TrimSpace(f.GymName) == "" {
        return jsonError(c, 400, "Заполните обязательные поля: название зала", nil)
    }

    log.Printf("🎯 Настройки приняты: %s", f.GymName)
    return jsonOK(c, fiber.Map{"message": "Настройки сохранены"})
}
