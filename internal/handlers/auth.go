package handlers

import (
    "errors"

    "gym-center-manager/internal/auth"

    "github.com/gofiber/fiber/v2"
)

// LoginHandler — вход по логину/паролю, сессия в cookie
func LoginHandler(c *fiber.Ctx) error {
    type formT struct {
        Login    string `form:"login" json:"login"`
        Password string `form:"password" json:"password"`
    }
    var f formT
    if err := c.BodyParser(&f); err != nil {
        return jsonError(c, 400, "Неверные данные формы", err)
    }
    if f.Login == "" || f.Password == "" {
        return jsonError(c, 400, "Заполните обязательные поля: логин и пароль", nil)
    }

    ident, err := auth.Login(c, f.Login, f.Password)
    if err != nil {
        if errors.Is(err, auth.ErrInvalidCredentials) {
            return jsonError(c, 401, "Неверный логин или пароль", nil)
        }
        return jsonError(c, 500, "Ошибка сохранения сессии", err)
    }

    return jsonOK(c, fiber.Map{
        "message": "Вход выполнен",
        "user": fiber.Map{
            "username":    ident.Username,
            "email":       ident.Email,
            "role":        ident.Role,
            "permissions": ident.Permissions,
        },
    })
}

// LogoutHandler — завершение сессии
func LogoutHandler(c *fiber.Ctx) error {
    if err := auth.Logout(c); err != nil {
        return jsonError(c, 500, "Ошибка завершения сессии", err)
    }
    return jsonOK(c, fiber.Map{"message": "Выход выполнен"})
}

// MeHandler — текущая сессия для SPA
func MeHandler(c *fiber.Ctx) error {
    ident, ok := auth.Current(c)
    if !ok {
        return jsonError(c, 401, "Требуется вход", nil)
    }
    return jsonOK(c, fiber.Map{
        "user": fiber.Map{
            "id":          ident.ID,
            "username":    ident.Username,
            "email":       ident.Email,
            "role":        ident.Role,
            "permissions": ident.Permissions,
        },
    })
}
