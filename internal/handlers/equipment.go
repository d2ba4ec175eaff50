package handlers

import (
    "database/sql"
    "errors"
    "log"
    "strconv"
    "strings"
    "time"

    "gym-center-manager/internal/database"
    "gym-center-manager/internal/models"

    "github.com/gofiber/fiber/v2"
)

func dateYMD(t sql.NullTime) string {
    if t.Valid {
        return t.Time.Format("2006-01-02")
    }
    return ""
}

func nullableTimeArg(t sql.NullTime) any {
    if t.Valid {
        return t.Time
    }
    return nil
}

func parseNullableDate(s string) (sql.NullTime, error) {
    s = strings.TrimSpace(s)
    if s == "" {
        return sql.NullTime{}, nil
    }
    t, err := time.Parse("2006-01-02", s)
    if err != nil {
        return sql.NullTime{}, err
    }
    return sql.NullTime{Time: t, Valid: true}, nil
}

// ---------------- Нормализация статусов ----------------

func normEqStatus(s string) string {
    switch strings.ToLower(strings.TrimSpace(s)) {
    case "operational", "ok", "working":
        return "operational"
    case "maintenance", "service":
        return "maintenance"
    case "broken", "out-of-order":
        return "broken"
    default:
        return "operational"
    }
}

func validEqStatus(s string) bool {
    switch s {
    case "operational", "maintenance", "broken":
        return true
    }
    return false
}

func normEqCondition(s string) string {
    switch strings.ToLower(strings.TrimSpace(s)) {
    case "excellent":
        return "excellent"
    case "good":
        return "good"
    case "fair":
        return "fair"
    case "poor":
        return "poor"
    default:
        return "good"
    }
}

// ListEquipment — JSON-список оборудования
func ListEquipment(c *fiber.Ctx) error {
    db := database.GetDB()

    q := strings.TrimSpace(c.Query("q"))
    status := strings.TrimSpace(c.Query("status"))

    where := []string{}
    args := []any{}
    paramCount := 0
    nextPH := func() string {
        paramCount++
        return "$" + strconv.Itoa(paramCount)
    }
    if q != "" {
        like := "%" + q + "%"
        where = append(where, `(
            name ILIKE `+nextPH()+` OR
            type ILIKE `+nextPH()+` OR
            brand ILIKE `+nextPH()+` OR
            location ILIKE `+nextPH()+`
        )`)
        args = append(args, like, like, like, like)
    }
    if status != "" && status != "all" {
        if !validEqStatus(status) {
            return jsonError(c, 400, "Недопустимый статус", nil)
        }
        where = append(where, `status = `+nextPH())
        args = append(args, status)
    }
    whereSQL := ""
    if len(where) > 0 {
        whereSQL = " WHERE " + strings.Join(where, " AND ")
    }

    ctx, cancel := withDBTimeout()
    defer cancel()
    rows, err := db.QueryContext(ctx, `
        SELECT id, name, type, brand, location, last_maintenance, next_maintenance, condition, status
        FROM equipment
    `+whereSQL+` ORDER BY id DESC`, args...)
    if err != nil {
        return jsonError(c, 500, "DB: ошибка получения оборудования", err)
    }
    defer rows.Close()

    type equipmentDTO struct {
        ID              int    `json:"id"`
        Name            string `json:"name"`
        Type            string `json:"type"`
        Brand           string `json:"brand"`
        Location        string `json:"location"`
        LastMaintenance string `json:"last_maintenance"`
        NextMaintenance string `json:"next_maintenance"`
        Condition       string `json:"condition"`
        Status          string `json:"status"`
    }
    var list []equipmentDTO
    for rows.Next() {
        var e models.Equipment
        if err := rows.Scan(&e.ID, &e.Name, &e.Type, &e.Brand, &e.Location,
            &e.LastMaintenance, &e.NextMaintenance, &e.Condition, &e.Status); err != nil {
            log.Printf("❌ scan equipment: %v", err)
            continue
        }
        list = append(list, equipmentDTO{
            ID:              e.ID,
            Name:            e.Name,
            Type:            e.Type,
            Brand:           e.Brand,
            Location:        e.Location,
            LastMaintenance: dateYMD(e.LastMaintenance),
            NextMaintenance: dateYMD(e.NextMaintenance),
            Condition:       e.Condition,
            Status:          e.Status,
        })
    }
    if err = rows.Err(); err != nil {
        return jsonError(c, 500, "DB: ошибка при обработке результатов", err)
    }

    return jsonOK(c, fiber.Map{"equipment": list, "filter": fiber.Map{"q": q, "status": status}})
}

// CreateEquipment — добавить оборудование
func CreateEquipment(c *fiber.Ctx) error {
    type formT struct {
        Name            string `form:"name" json:"name"`
        Type            string `form:"type" json:"type"`
        Brand           string `form:"brand" json:"brand"`
        Location        string `form:"location" json:"location"`
        LastMaintenance string `form:"last_maintenance" json:"last_maintenance"` // YYYY-MM-DD
        NextMaintenance string `form:"next_maintenance" json:"next_maintenance"`
        Condition       string `form:"condition" json:"condition"`
        Status          string `form:"status" json:"status"`
    }
    var f formT
    if err := c.BodyParser(&f); err != nil {
        return jsonError(c, 400, "Неверные данные формы", err)
    }
    if f.Name == "" || f.Type == "" || f.Location == "" {
        return jsonError(c, 400, "Заполните обязательные поля: название, тип, расположение", nil)
    }
    last, err := parseNullableDate(f.LastMaintenance)
    if err != nil {
        return jsonError(c, 400, "Неверная дата последнего ТО", err)
    }
    next, err := parseNullableDate(f.NextMaintenance)
    if err != nil {
        return jsonError(c, 400, "Неверная дата следующего ТО", err)
    }
    if last.Valid && next.Valid && next.Time.Before(last.Time) {
        return jsonError(c, 400, "Дата следующего ТО раньше последнего", nil)
    }

    db := database.GetDB()
    var id int
    ctx, cancel := withDBTimeout()
    defer cancel()
    err = db.QueryRowContext(ctx, `
        INSERT INTO equipment (name, type, brand, location, last_maintenance, next_maintenance, condition, status)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING id
    `, f.Name, f.Type, f.Brand, f.Location, nullableTimeArg(last), nullableTimeArg(next),
        normEqCondition(f.Condition), normEqStatus(f.Status)).Scan(&id)
    if err != nil {
        log.Printf("❌ create equipment: %v", err)
        return jsonError(c, 500, "DB: ошибка сохранения оборудования", err)
    }
    c.Set("Location", "/api/v1/equipment/"+strconv.Itoa(id))
    return c.Status(fiber.StatusCreated).JSON(fiber.Map{
        "success":      true,
        "message":      "Оборудование добавлено",
        "equipment_id": id,
    })
}

// GetEquipmentByID — JSON одна единица оборудования
func GetEquipmentByID(c *fiber.Ctx) error {
    id, err := strconv.Atoi(c.Params("id"))
    if err != nil || id <= 0 {
        return jsonError(c, 400, "Некорректный id", err)
    }
    db := database.GetDB()
    var e models.Equipment
    ctx, cancel := withDBTimeout()
    defer cancel()
    err = db.QueryRowContext(ctx, `
        SELECT id, name, type, brand, location, last_maintenance, next_maintenance, condition, status
        FROM equipment
        WHERE id = $1
    `, id).Scan(&e.ID, &e.Name, &e.Type, &e.Brand, &e.Location,
        &e.LastMaintenance, &e.NextMaintenance, &e.Condition, &e.Status)
    if errors.Is(err, sql.ErrNoRows) {
        return jsonError(c, 404, "Оборудование не найдено", nil)
    }
    if err != nil {
        return jsonError(c, 500, "DB: ошибка чтения", err)
    }
    return jsonOK(c, fiber.Map{
        "equipment": fiber.Map{
            "id":               e.ID,
            "name":             e.Name,
            "type":             e.Type,
            "brand":            e.Brand,
            "location":         e.Location,
            "last_maintenance": dateYMD(e.LastMaintenance),
            "next_maintenance": dateYMD(e.NextMaintenance),
            "condition":        e.Condition,
            "status":           e.Status,
        },
    })
}

// UpdateEquipment — обновить оборудование
func UpdateEquipment(c *fiber.Ctx) error {
    id, err := strconv.Atoi(c.Params("id"))
    if err != nil || id <= 0 {
        return jsonError(c, 400, "Некорректный id", err)
    }

    type formT struct {
        Name            string `form:"name" json:"name"`
        Type            string `form:"type" json:"type"`
        Brand           string `form:"brand" json:"brand"`
        Location        string `form:"location" json:"location"`
        LastMaintenance string `form:"last_maintenance" json:"last_maintenance"`
        NextMaintenance string `form:"next_maintenance" json:"next_maintenance"`
        Condition       string `form:"condition" json:"condition"`
        Status          string `form:"status" json:"status"`
    }
    var f formT
    if err := c.BodyParser(&f); err != nil {
        return jsonError(c, 400, "Неверные данные формы", err)
    }
    if f.Name == "" || f.Type == "" || f.Location == "" {
        return jsonError(c, 400, "Заполните обязательные поля: название, тип, расположение", nil)
    }
    if f.Status != "" && !validEqStatus(strings.ToLower(f.Status)) {
        return jsonError(c, 400, "Недопустимый статус", nil)
    }
    last, err := parseNullableDate(f.LastMaintenance)
    if err != nil {
        return jsonError(c, 400, "Неверная дата последнего ТО", err)
    }
    next, err := parseNullableDate(f.NextMaintenance)
    if err != nil {
        return jsonError(c, 400, "Неверная дата следующего ТО", err)
    }
    if last.Valid && next.Valid && next.Time.Before(last.Time) {
        return jsonError(c, 400, "Дата следующего ТО раньше последнего", nil)
    }

    db := database.GetDB()
    ctx, cancel := withDBTimeout()
    defer cancel()
    res, err := db.ExecContext(ctx, `
        UPDATE equipment
        SET name = $2, type = $3, brand = $4, location = $5,
            last_maintenance = $6, next_maintenance = $7, condition = $8, status = $9
        WHERE id = $1
    `, id, f.Name, f.Type, f.Brand, f.Location,
        nullableTimeArg(last), nullableTimeArg(next), normEqCondition(f.Condition), normEqStatus(f.Status))
    if err != nil {
        log.Printf("❌ update equipment: %v", err)
        return jsonError(c, 500, "DB: ошибка обновления", err)
    }
    if n, _ := res.RowsAffected(); n == 0 {
        return jsonError(c, 404, "Оборудование не найдено", nil)
    }
    return jsonOK(c, fiber.Map{"message": "Оборудование обновлено"})
}

// DeleteEquipment — удалить оборудование
func DeleteEquipment(c *fiber.Ctx) error {
    id, err := strconv.Atoi(c.Params("id"))
    if err != nil || id <= 0 {
        return jsonError(c, 400, "Некорректный id", err)
    }
    db := database.GetDB()
    ctx, cancel := withDBTimeout()
    defer cancel()
    res, err := db.ExecContext(ctx, `DELETE FROM equipment WHERE id = $1`, id)
    if err != nil {
        return jsonError(c, 500, "DB: ошибка удаления", err)
    }
    if n, _ := res.RowsAffected(); n == 0 {
        return jsonError(c, 404, "Оборудование не найдено", nil)
    }
    return jsonOK(c, fiber.Map{"message": "Оборудование удалено"})
}
