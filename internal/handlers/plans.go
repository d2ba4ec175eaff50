package handlers

import (
    "database/sql"
    "errors"
    "log"
    "strconv"
    "strings"

    "gym-center-manager/internal/database"
    "gym-center-manager/internal/models"

    "github.com/gofiber/fiber/v2"
    "github.com/lib/pq"
)

// splitFeatures — список возможностей тарифа приходит одной строкой,
// по одному пункту на строку/через точку с запятой.
func splitFeatures(raw string) []string {
    var out []string
    for _, part := range strings.FieldsFunc(raw, func(r rune) bool { return r == '\n' || r == ';' }) {
        if p := strings.TrimSpace(part); p != "" {
            out = append(out, p)
        }
    }
    return out
}

// ListMembershipPlans — список тарифов
func ListMembershipPlans(c *fiber.Ctx) error {
    db := database.GetDB()
    ctx, cancel := withDBTimeout()
    defer cancel()

    rows, err := db.QueryContext(ctx, `
        SELECT id, name, COALESCE(price, 0), duration_months, COALESCE(features, '{}'), popular, status
        FROM membership_plans
        ORDER BY price
    `)
    if err != nil {
        log.Printf("❌ plans list error: %v", err)
        return jsonError(c, 500, "DB: ошибка получения тарифов", err)
    }
    defer rows.Close()

    var list []models.MembershipPlan
    for rows.Next() {
        var p models.MembershipPlan
        if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.DurationMonths, pq.Array(&p.Features), &p.Popular, &p.Status); err != nil {
            log.Printf("❌ scan plan: %v", err)
            continue
        }
        list = append(list, p)
    }
    if err = rows.Err(); err != nil {
        return jsonError(c, 500, "DB: ошибка при обработке результатов", err)
    }

    return jsonOK(c, fiber.Map{"plans": list})
}

// GetMembershipPlanByID — JSON один тариф (для редактирования)
func GetMembershipPlanByID(c *fiber.Ctx) error {
    id, err := strconv.Atoi(c.Params("id"))
    if err != nil || id <= 0 {
        return jsonError(c, 400, "Некорректный id", err)
    }
    db := database.GetDB()
    ctx, cancel := withDBTimeout()
    defer cancel()

    var p models.MembershipPlan
    err = db.QueryRowContext(ctx, `
        SELECT id, name, COALESCE(price, 0), duration_months, COALESCE(features, '{}'), popular, status
        FROM membership_plans
        WHERE id = $1
    `, id).Scan(&p.ID, &p.Name, &p.Price, &p.DurationMonths, pq.Array(&p.Features), &p.Popular, &p.Status)

    switch {
    case errors.Is(err, sql.ErrNoRows):
        return jsonError(c, 404, "Тариф не найден", nil)
    case err != nil:
        return jsonError(c, 500, "DB: ошибка чтения", err)
    }
    return jsonOK(c, fiber.Map{"plan": p})
}

// CreateMembershipPlan — создать тариф
func CreateMembershipPlan(c *fiber.Ctx) error {
    type formT struct {
        Name           string  `form:"name" json:"name"`
        Price          float64 `form:"price" json:"price"`
        DurationMonths int     `form:"duration_months" json:"duration_months"`
        Features       string  `form:"features" json:"features"`
        Popular        bool    `form:"popular" json:"popular"`
    }
    var f formT
    if err := c.BodyParser(&f); err != nil {
        return jsonError(c, 400, "Неверные данные формы", err)
    }
    name := strings.TrimSpace(f.Name)
    if name == "" {
        return jsonError(c, 400, "Заполните обязательные поля: название", nil)
    }
    if f.Price < 0 {
        return jsonError(c, 400, "Цена не может быть отрицательной", nil)
    }
    if f.DurationMonths <= 0 {
        f.DurationMonths = 1
    }

    db := database.GetDB()
    var id int
    ctx, cancel := withDBTimeout()
    defer cancel()
    err := db.QueryRowContext(ctx, `
        INSERT INTO membership_plans (name, price, duration_months, features, popular, status)
        VALUES ($1, $2, $3, $4, $5, 'active')
        RETURNING id
    `, name, f.Price, f.DurationMonths, pq.Array(splitFeatures(f.Features)), f.Popular).Scan(&id)
    if err != nil {
        log.Printf("❌ create plan: %v", err)
        return jsonError(c, 500, "DB: ошибка сохранения тарифа", err)
    }
    c.Set("Location", "/api/v1/plans/"+strconv.Itoa(id))
    return c.Status(fiber.StatusCreated).JSON(fiber.Map{
        "success": true,
        "message": "Тариф добавлен",
        "plan_id": id,
    })
}

// UpdateMembershipPlan — обновить тариф
func UpdateMembershipPlan(c *fiber.Ctx) error {
    id, err := strconv.Atoi(c.Params("id"))
    if err != nil || id <= 0 {
        return jsonError(c, 400, "Некорректный id", err)
    }

    type formT struct {
        Name           string  `form:"name" json:"name"`
        Price          float64 `form:"price" json:"price"`
        DurationMonths int     `form:"duration_months" json:"duration_months"`
        Features       string  `form:"features" json:"features"`
        Popular        bool    `form:"popular" json:"popular"`
        Status         string  `form:"status" json:"status"`
    }
    var f formT
    if err := c.BodyParser(&f); err != nil {
        return jsonError(c, 400, "Неверные данные формы", err)
    }
    if strings.TrimSpace(f.Name) == "" {
        return jsonError(c, 400, "Заполните обязательные поля: название", nil)
    }
    if f.Price < 0 {
        return jsonError(c, 400, "Цена не может быть отрицательной", nil)
    }
    if f.Status != "" && f.Status != "active" && f.Status != "inactive" {
        return jsonError(c, 400, "Недопустимый статус", nil)
    }
    if f.DurationMonths <= 0 {
        f.DurationMonths = 1
    }

    db := database.GetDB()
    ctx, cancel := withDBTimeout()
    defer cancel()
    res, err := db.ExecContext(ctx, `
        UPDATE membership_plans
        SET name = $2, price = $3, duration_months = $4, features = $5, popular = $6,
            status = COALESCE(NULLIF($7, ''), status)
        WHERE id = $1
    `, id, strings.TrimSpace(f.Name), f.Price, f.DurationMonths, pq.Array(splitFeatures(f.Features)), f.Popular, f.Status)
    if err != nil {
        log.Printf("❌ update plan: %v", err)
        return jsonError(c, 500, "DB: ошибка обновления", err)
    }
    if n, _ := res.RowsAffected(); n == 0 {
        return jsonError(c, 404, "Тариф не найден", nil)
    }
    return jsonOK(c, fiber.Map{"message": "Тариф обновлён"})
}

// DeleteMembershipPlan — удалить тариф
func DeleteMembershipPlan(c *fiber.Ctx) error {
    id, err := strconv.Atoi(c.Params("id"))
    if err != nil || id <= 0 {
        return jsonError(c, 400, "Некорректный id", err)
    }
    db := database.GetDB()

    // Тариф, на котором сидят участники, не удаляем
    ctx, cancel := withDBTimeout()
    defer cancel()
    var inUse int
    err = db.QueryRowContext(ctx, `
        SELECT COUNT(*) FROM members WHERE membership_type = (SELECT name FROM membership_plans WHERE id = $1)
    `, id).Scan(&inUse)
    if err != nil {
        return jsonError(c, 500, "DB: ошибка проверки тарифа", err)
    }
    if inUse > 0 {
        return jsonError(c, 409, "Невозможно удалить: тариф используется участниками", nil)
    }

    ctx, cancel = withDBTimeout()
    defer cancel()
    res, err := db.ExecContext(ctx, `DELETE FROM membership_plans WHERE id = $1`, id)
    if err != nil {
        return jsonError(c, 500, "DB: ошибка удаления", err)
    }
    if n, _ := res.RowsAffected(); n == 0 {
        return jsonError(c, 404, "Тариф не найден", nil)
    }
    return jsonOK(c, fiber.Map{"message": "Тариф удалён"})
}

// GetPlansForSelect — пары id/название для выпадающих списков
func GetPlansForSelect(c *fiber.Ctx) error {
    db := database.GetDB()
    ctx, cancel := withDBTimeout()
    defer cancel()
    rows, err := db.QueryContext(ctx, `SELECT id, name FROM membership_plans WHERE status = 'active' ORDER BY price`)
    if err != nil {
        return jsonError(c, 500, "DB: ошибка чтения тарифов", err)
    }
    defer rows.Close()

    type item struct {
        ID   int    `json:"id"`
        Name string `json:"name"`
    }
    var list []item
    for rows.Next() {
        var v item
        if err := rows.Scan(&v.ID, &v.Name); err == nil {
            list = append(list, v)
        }
    }
    return jsonOK(c, fiber.Map{"plans": list})
}
