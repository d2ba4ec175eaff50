package handlers

import (
    "sort"
    "strings"
    "sync"

    "gym-center-manager/internal/models"

    "github.com/gofiber/fiber/v2"
)

// Административные учётки страницы «Пользователи».
// Набор живёт в памяти процесса: это витрина управления доступом,
// реальный вход идёт через internal/auth.

var (
    usersMu    sync.RWMutex
    nextUserID = 4
    adminUsers = []models.User{
        {ID: 1, Username: "owner", Email: "owner@gym.local", Role: "owner", Permissions: []string{"all"}, Status: "active"},
        {ID: 2, Username: "admin", Email: "admin@gym.local", Role: "admin", Permissions: []string{"all"}, Status: "active"},
        {ID: 3, Username: "manager", Email: "manager@gym.local", Role: "manager", Permissions: []string{"members", "classes", "attendance"}, Status: "active"},
    }
)

func validUserStatus(s string) bool {
    switch s {
    case "active", "inactive", "suspended":
        return true
    }
    return false
}

// ListUsers — список учёток с поиском и фильтром по статусу
func ListUsers(c *fiber.Ctx) error {
    q := strings.TrimSpace(c.Query("q"))
    status := strings.TrimSpace(c.Query("status"))
    if status != "" && status != "all" && !validUserStatus(status) {
        return jsonError(c, 400, "Недопустимый статус", nil)
    }

    usersMu.RLock()
    defer usersMu.RUnlock()
    list := make([]models.User, 0, len(adminUsers))
    for _, u := range adminUsers {
        if !matchesSearch(q, u.Username, u.Email, u.Role) {
            continue
        }
        if !matchesStatus(status, u.Status) {
            continue
        }
        list = append(list, u)
    }
    sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })

    return jsonOK(c, fiber.Map{"users": list, "filter": fiber.Map{"q": q, "status": status}})
}

// CreateUser — добавить учётку
func CreateUser(c *fiber.Ctx) error {
    type formT struct {
        Username    string `form:"username" json:"username"`
        Email       string `form:"email" json:"email"`
        Role        string `form:"role" json:"role"`
        Permissions string `form:"permissions" json:"permissions"` // через запятую
    }
    var f formT
    if err := c.BodyParser(&f); err != nil {
        return jsonError(c, 400, "Неверные данные формы", err)
    }
    if f.Username == "" || f.Email == "" {
        return jsonError(c, 400, "Заполните обязательные поля: логин и email", nil)
    }
    if !strings.Contains(f.Email, "@") {
        return jsonError(c, 400, "Неверный email", nil)
    }
    role := f.Role
    if role == "" {
        role = "user"
    }
    var perms []string
    for _, p := range strings.Split(f.Permissions, ",") {
        if p = strings.TrimSpace(p); p != "" {
            perms = append(perms, p)
        }
    }

    usersMu.Lock()
    defer usersMu.Unlock()
    for _, u := range adminUsers {
        if u.Username == f.Username || u.Email == f.Email {
            return jsonError(c, 409, "Логин или email уже заняты", nil)
        }
    }
    u := models.User{
        ID:          nextUserID,
        Username:    f.Username,
        Email:       f.Email,
        Role:        role,
        Permissions: perms,
        Status:      "active",
    }
    nextUserID++
    adminUsers = append(adminUsers, u)

    return c.Status(fiber.StatusCreated).JSON(fiber.Map{
        "success": true,
        "message": "Пользователь добавлен",
        "user_id": u.ID,
    })
}

// UpdateUser — изменить роль/права/статус учётки
func UpdateUser(c *fiber.Ctx) error {
    id, err := c.ParamsInt("id")
    if err != nil || id <= 0 {
        return jsonError(c, 400, "Некорректный id", err)
    }
    type formT struct {
        Role        string `form:"role" json:"role"`
        Permissions string `form:"permissions" json:"permissions"`
        Status      string `form:"status" json:"status"`
    }
    var f formT
    if err := c.BodyParser(&f); err != nil {
        return jsonError(c, 400, "Неверные данные формы", err)
    }
    if f.Status != "" && !validUserStatus(f.Status) {
        return jsonError(c, 400, "Недопустимый статус", nil)
    }

    usersMu.Lock()
    defer usersMu.Unlock()
    for i := range adminUsers {
        if adminUsers[i].ID != id {
            continue
        }
        if f.Role != "" {
            adminUsers[i].Role = f.Role
        }
        if f.Permissions != "" {
            var perms []string
            for _, p := range strings.Split(f.Permissions, ",") {
                if p = strings.TrimSpace(p); p != "" {
                    perms = append(perms, p)
                }
            }
            adminUsers[i].Permissions = perms
        }
        if f.Status != "" {
            adminUsers[i].Status = f.Status
        }
        return jsonOK(c, fiber.Map{"message": "Пользователь обновлён"})
    }
    return jsonError(c, 404, "Пользователь не найден", nil)
}

// DeleteUser — удалить учётку (владелец неудаляем)
func DeleteUser(c *fiber.Ctx) error {
    id, err := c.ParamsInt("id")
    if err != nil || id <= 0 {
        return jsonError(c, 400, "Некорректный id", err)
    }

    usersMu.Lock()
    defer usersMu.Unlock()
    for i := range adminUsers {
        if adminUsers[i].ID != id {
            continue
        }
        if adminUsers[i].Role == "owner" {
            return jsonError(c, 409, "Невозможно удалить учётку владельца", nil)
        }
        adminUsers = append(adminUsers[:i], adminUsers[i+1:]...)
        return jsonOK(c, fiber.Map{"message": "Пользователь удалён"})
    }
    return jsonError(c, 404, "Пользователь не найден", nil)
}
