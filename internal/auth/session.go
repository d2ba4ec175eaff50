package auth

import (
    "database/sql"
    "encoding/json"
    "errors"
    "log"
    "strconv"
    "strings"

    "github.com/gofiber/fiber/v2"
    "github.com/gofiber/fiber/v2/middleware/session"
    "github.com/lib/pq"
    "golang.org/x/crypto/bcrypt"
)

// Identity — локальное представление аутентифицированного пользователя.
// Живёт в cookie-сессии, пересобирается на каждый запрос.
type Identity struct {
    ID          string   `json:"id"`
    Username    string   `json:"username"`
    Email       string   `json:"email"`
    Role        string   `json:"role"`
    Permissions []string `json:"permissions"`
}

func (i Identity) HasRole(role string) bool {
    return i.Role == role
}

// HasPermission — сентинел "all" проходит любую проверку.
func (i Identity) HasPermission(perm string) bool {
    for _, p := range i.Permissions {
        if p == "all" || p == perm {
            return true
        }
    }
    return false
}

// UsernameFromEmail — локальная часть адреса до «@».
func UsernameFromEmail(email string) string {
    if at := strings.Index(email, "@"); at > 0 {
        return email[:at]
    }
    return email
}

// RoleOrDefault — роль из метаданных провайдера, по умолчанию "user".
func RoleOrDefault(role string) string {
    role = strings.TrimSpace(role)
    if role == "" {
        return "user"
    }
    return role
}

var ErrInvalidCredentials = errors.New("неверный логин или пароль")

var (
    store    *session.Store
    userDB   *sql.DB
    demoMode bool
)

const identityKey = "identity"

// Демо-учётки. Работают ТОЛЬКО при auth.demo_mode=true в конфиге
// и только когда основная проверка по таблице users не прошла.
var demoAccounts = map[string]Identity{
    "owner": {ID: "demo-owner", Username: "owner", Email: "owner@gym.local", Role: "owner", Permissions: []string{"all"}},
    "admin": {ID: "demo-admin", Username: "admin", Email: "admin@gym.local", Role: "admin", Permissions: []string{"all"}},
}

const demoPassword = "password"

// Init подключает хранилище сессий и источник пользователей.
// db может быть nil — тогда вход возможен только через демо-учётки.
func Init(s *session.Store, db *sql.DB, demo bool) {
    store = s
    userDB = db
    demoMode = demo
    if demo {
        log.Println("⚠️  Включён демо-режим авторизации (owner/admin)")
    }
}

// Login сначала проверяет учётку по таблице users (bcrypt),
// при неудаче — демо-фолбэк, если он разрешён конфигом.
func Login(c *fiber.Ctx, login, password string) (Identity, error) {
    login = strings.TrimSpace(login)
    if login == "" || password == "" {
        return Identity{}, ErrInvalidCredentials
    }

    ident, err := loginFromDB(login, password)
    if err != nil {
        if !demoMode {
            return Identity{}, ErrInvalidCredentials
        }
        acc, ok := demoAccounts[strings.ToLower(login)]
        if !ok || password != demoPassword {
            return Identity{}, ErrInvalidCredentials
        }
        log.Printf("⚠️  Вход через демо-учётку %q", acc.Username)
        ident = acc
    }

    if err := saveIdentity(c, ident); err != nil {
        return Identity{}, err
    }
    log.Printf("✅ Вход: %s (роль %s)", ident.Username, ident.Role)
    return ident, nil
}

func loginFromDB(login, password string) (Identity, error) {
    if userDB == nil {
        return Identity{}, ErrInvalidCredentials
    }
    var (
        id           int
        username     sql.NullString
        email        string
        passwordHash string
        role         sql.NullString
        perms        []string
    )
    err := userDB.QueryRow(`
        SELECT id, username, email, password_hash, role, COALESCE(permissions, '{}')
        FROM users
        WHERE (username = $1 OR email = $1) AND status = 'active'
    `, login).Scan(&id, &username, &email, &passwordHash, &role, pq.Array(&perms))
    if err != nil {
        return Identity{}, ErrInvalidCredentials
    }
    if bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(password)) != nil {
        return Identity{}, ErrInvalidCredentials
    }

    name := username.String
    if name == "" {
        name = UsernameFromEmail(email)
    }
    return Identity{
        ID:          "u-" + strconv.Itoa(id),
        Username:    name,
        Email:       email,
        Role:        RoleOrDefault(role.String),
        Permissions: perms,
    }, nil
}

func saveIdentity(c *fiber.Ctx, ident Identity) error {
    sess, err := store.Get(c)
    if err != nil {
        return err
    }
    raw, err := json.Marshal(ident)
    if err != nil {
        return err
    }
    sess.Set(identityKey, string(raw))
    return sess.Save()
}

// Logout очищает сессию. Повторный выход — не ошибка.
func Logout(c *fiber.Ctx) error {
    sess, err := store.Get(c)
    if err != nil {
        return err
    }
    return sess.Destroy()
}

// Current возвращает личность текущей сессии.
func Current(c *fiber.Ctx) (Identity, bool) {
    sess, err := store.Get(c)
    if err != nil {
        return Identity{}, false
    }
    raw, ok := sess.Get(identityKey).(string)
    if !ok || raw == "" {
        return Identity{}, false
    }
    var ident Identity
    if err := json.Unmarshal([]byte(raw), &ident); err != nil {
        return Identity{}, false
    }
    return ident, true
}

// RequireAuth — middleware: без сессии дальше не пускаем.
// SPA по 401 сама уводит на страницу входа.
func RequireAuth(c *fiber.Ctx) error {
    if _, ok := Current(c); !ok {
        return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
            "type":    "urn:gym-center-manager:problem:unauthorized",
            "title":   "Требуется вход",
            "status":  fiber.StatusUnauthorized,
            "success": false,
            "error":   "Требуется вход",
        }, "application/problem+json")
    }
    return c.Next()
}

// RequireRole — middleware: пускает перечисленные роли
// и любого, у кого есть разрешение "all".
func RequireRole(roles ...string) fiber.Handler {
    return func(c *fiber.Ctx) error {
        ident, ok := Current(c)
        if !ok {
            return RequireAuth(c)
        }
        if ident.HasPermission("all") {
            return c.Next()
        }
        for _, r := range roles {
            if ident.HasRole(r) {
                return c.Next()
            }
        }
        return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
            "type":    "urn:gym-center-manager:problem:forbidden",
            "title":   "Недостаточно прав",
            "status":  fiber.StatusForbidden,
            "success": false,
            "error":   "Недостаточно прав",
        }, "application/problem+json")
    }
}
