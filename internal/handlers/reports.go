package handlers

import (
    "sort"
    "strings"
    "time"

    "gym-center-manager/internal/database"

    "github.com/gofiber/fiber/v2"
)

// ======= Запросы выборки для страницы «Отчётность» =======

// POST /api/v1/reports/new-members
// Параметр: date (YYYY-MM-DD) — участники, пришедшие после даты
func ReportNewMembersSince(c *fiber.Ctx) error {
    type form struct {
        Date string `form:"date" json:"date"`
    }
    var f form
    if err := c.BodyParser(&f); err != nil {
        return jsonError(c, 400, "Неверные данные формы", err)
    }
    if strings.TrimSpace(f.Date) == "" {
        return jsonError(c, 400, "Укажите дату в формате YYYY-MM-DD", nil)
    }
    dt, err := time.Parse("2006-01-02", f.Date)
    if err != nil {
        return jsonError(c, 400, "Неверный формат даты", err)
    }

    db := database.GetDB()
    ctx, cancel := withDBTimeout()
    defer cancel()
    rows, err := db.QueryContext(ctx, `
        SELECT id, name, membership_type, join_date
        FROM members
        WHERE join_date > $1
        ORDER BY join_date DESC
        LIMIT 100
    `, dt)
    if err != nil {
        return jsonError(c, 500, "DB: ошибка выборки участников", err)
    }
    defer rows.Close()

    type rowT struct {
        ID       int       `json:"id"`
        Name     string    `json:"name"`
        Plan     string    `json:"membership_type"`
        JoinDate time.Time `json:"join_date"`
    }
    var out []rowT
    for rows.Next() {
        var r rowT
        if err := rows.Scan(&r.ID, &r.Name, &r.Plan, &r.JoinDate); err != nil {
            return jsonError(c, 500, "DB: ошибка чтения строки", err)
        }
        out = append(out, r)
    }
    if err := rows.Err(); err != nil {
        return jsonError(c, 500, "DB: ошибка курсора", err)
    }
    return jsonOK(c, fiber.Map{"rows": out})
}

// POST /api/v1/reports/members-by-status
func ReportMembersByStatus(c *fiber.Ctx) error {
    status := strings.TrimSpace(c.FormValue("status"))
    if status == "" {
        status = "active"
    }
    if !validMemberStatus(status) {
        return jsonError(c, 400, "Недопустимый статус", nil)
    }

    db := database.GetDB()
    ctx, cancel := withDBTimeout()
    defer cancel()
    rows, err := db.QueryContext(ctx, `
        SELECT id, name, email, membership_type, join_date
        FROM members
        WHERE status = $1
        ORDER BY id DESC
        LIMIT 200
    `, status)
    if err != nil {
        return jsonError(c, 500, "DB: ошибка выборки участников", err)
    }
    defer rows.Close()

    type rowT struct {
        ID       int       `json:"id"`
        Name     string    `json:"name"`
        Email    string    `json:"email"`
        Plan     string    `json:"membership_type"`
        JoinDate time.Time `json:"join_date"`
    }
    var out []rowT
    for rows.Next() {
        var r rowT
        if err := rows.Scan(&r.ID, &r.Name, &r.Email, &r.Plan, &r.JoinDate); err != nil {
            return jsonError(c, 500, "DB: ошибка чтения строки", err)
        }
        out = append(out, r)
    }
    if err := rows.Err(); err != nil {
        return jsonError(c, 500, "DB: ошибка курсора", err)
    }
    return jsonOK(c, fiber.Map{"rows": out, "status": status})
}

// GET /api/v1/reports/maintenance-due
// Оборудование, которому ТО нужно в ближайшие 30 дней (или уже просрочено)
func ReportMaintenanceDue(c *fiber.Ctx) error {
    db := database.GetDB()
    ctx, cancel := withDBTimeout()
    defer cancel()
    rows, err := db.QueryContext(ctx, `
        SELECT id, name, location, next_maintenance, condition, status
        FROM equipment
        WHERE next_maintenance IS NOT NULL
          AND next_maintenance <= NOW() + INTERVAL '30 days'
        ORDER BY next_maintenance
    `)
    if err != nil {
        return jsonError(c, 500, "DB: ошибка выборки оборудования", err)
    }
    defer rows.Close()

    type rowT struct {
        ID              int       `json:"id"`
        Name            string    `json:"name"`
        Location        string    `json:"location"`
        NextMaintenance time.Time `json:"next_maintenance"`
        Condition       string    `json:"condition"`
        Status          string    `json:"status"`
    }
    var out []rowT
    for rows.Next() {
        var r rowT
        if err := rows.Scan(&r.ID, &r.Name, &r.Location, &r.NextMaintenance, &r.Condition, &r.Status); err != nil {
            return jsonError(c, 500, "DB: ошибка чтения строки", err)
        }
        out = append(out, r)
    }
    if err := rows.Err(); err != nil {
        return jsonError(c, 500, "DB: ошибка курсора", err)
    }
    return jsonOK(c, fiber.Map{"rows": out})
}

// GET /api/v1/reports/revenue-by-month — оплаченная выручка по месяцам
func ReportRevenueByMonth(c *fiber.Ctx) error {
    paymentsMu.RLock()
    defer paymentsMu.RUnlock()

    byMonth := map[string]float64{}
    for _, p := range payments {
        if p.Status != "paid" {
            continue
        }
        byMonth[p.Date.Format("2006-01")] += p.Amount
    }

    months := make([]string, 0, len(byMonth))
    for m := range byMonth {
        months = append(months, m)
    }
    sort.Strings(months)

    type rowT struct {
        Month   string  `json:"month"`
        Revenue float64 `json:"revenue"`
    }
    var out []rowT
    for _, m := range months {
        out = append(out, rowT{Month: m, Revenue: byMonth[m]})
    }
    return jsonOK(c, fiber.Map{"rows": out})
}

// GET /api/v1/reports/equipment-by-condition
func ReportEquipmentByCondition(c *fiber.Ctx) error {
    db := database.GetDB()
    ctx, cancel := withDBTimeout()
    defer cancel()
    rows, err := db.QueryContext(ctx, `
        SELECT condition, COUNT(*)
        FROM equipment
        GROUP BY condition
        ORDER BY condition
    `)
    if err != nil {
        return jsonError(c, 500, "DB: ошибка выборки оборудования", err)
    }
    defer rows.Close()

    type rowT struct {
        Condition string `json:"condition"`
        Count     int    `json:"count"`
    }
    var out []rowT
    for rows.Next() {
        var r rowT
        if err := rows.Scan(&r.Condition, &r.Count); err != nil {
            return jsonError(c, 500, "DB: ошибка чтения строки", err)
        }
        out = append(out, r)
    }
    if err := rows.Err(); err != nil {
        return jsonError(c, 500, "DB: ошибка курсора", err)
    }
    return jsonOK(c, fiber.Map{"rows": out})
}

// GET /api/v1/reports/attendance-week — посещения по дням за 7 дней
func ReportAttendanceWeek(c *fiber.Ctx) error {
    db := database.GetDB()
    ctx, cancel := withDBTimeout()
    defer cancel()
    rows, err := db.QueryContext(ctx, `
        SELECT DATE(check_in_time) AS day, COUNT(*)
        FROM check_ins
        WHERE check_in_time >= NOW() - INTERVAL '7 days'
        GROUP BY day
        ORDER BY day
    `)
    if err != nil {
        return jsonError(c, 500, "DB: ошибка выборки посещений", err)
    }
    defer rows.Close()

    type rowT struct {
        Day   time.Time `json:"day"`
        Count int       `json:"count"`
    }
    var out []rowT
    for rows.Next() {
        var r rowT
        if err := rows.Scan(&r.Day, &r.Count); err != nil {
            return jsonError(c, 500, "DB: ошибка чтения строки", err)
        }
        out = append(out, r)
    }
    if err := rows.Err(); err != nil {
        return jsonError(c, 500, "DB: ошибка курсора", err)
    }
    return jsonOK(c, fiber.Map{"rows": out})
}
