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

const scheduleLayout = "2006-01-02 15:04"

func validClassStatus(s string) bool {
    switch s {
    case "active", "inactive", "full":
        return true
    }
    return false
}

// deriveClassStatus — "full" не хранится руками, а выводится из заполненности.
func deriveClassStatus(status string, enrolled, capacity int) string {
    if status == "inactive" {
        return "inactive"
    }
    if capacity > 0 && enrolled >= capacity {
        return "full"
    }
    return "active"
}

func parseScheduleTime(s string) (time.Time, error) {
    s = strings.TrimSpace(s)
    if t, err := time.Parse(scheduleLayout, s); err == nil {
        return t, nil
    }
    return time.Parse(time.RFC3339, s)
}

// ListClasses — JSON-список занятий с вычисляемыми полями
func ListClasses(c *fiber.Ctx) error {
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
            instructor ILIKE `+nextPH()+` OR
            room ILIKE `+nextPH()+` OR
            type ILIKE `+nextPH()+`
        )`)
        args = append(args, like, like, like, like)
    }
    if status != "" && status != "all" {
        if !validClassStatus(status) {
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
        SELECT id, name, instructor, schedule_time, duration_minutes, capacity, enrolled, room, type, status
        FROM classes
    `+whereSQL+` ORDER BY schedule_time`, args...)
    if err != nil {
        return jsonError(c, 500, "DB: ошибка получения занятий", err)
    }
    defer rows.Close()

    now := time.Now()
    var list []models.ClassView
    for rows.Next() {
        var cl models.Class
        var dur int
        if err := rows.Scan(&cl.ID, &cl.Name, &cl.Instructor, &cl.ScheduleTime, &dur,
            &cl.Capacity, &cl.Enrolled, &cl.Room, &cl.Type, &cl.Status); err != nil {
            log.Printf("❌ scan class: %v", err)
            continue
        }
        list = append(list, models.EnrichClass(cl, dur, now))
    }
    if err = rows.Err(); err != nil {
        return jsonError(c, 500, "DB: ошибка при обработке результатов", err)
    }

    return jsonOK(c, fiber.Map{"classes": list, "filter": fiber.Map{"q": q, "status": status}})
}

// CreateClass — создать занятие
func CreateClass(c *fiber.Ctx) error {
    type formT struct {
        Name            string `form:"name" json:"name"`
        Instructor      string `form:"instructor" json:"instructor"`
        ScheduleTime    string `form:"schedule_time" json:"schedule_time"` // YYYY-MM-DD HH:MM
        DurationMinutes int    `form:"duration_minutes" json:"duration_minutes"`
        Capacity        int    `form:"capacity" json:"capacity"`
        Enrolled        int    `form:"enrolled" json:"enrolled"`
        Room            string `form:"room" json:"room"`
        Type            string `form:"type" json:"type"`
    }
    var f formT
    if err := c.BodyParser(&f); err != nil {
        return jsonError(c, 400, "Неверные данные формы", err)
    }
    if f.Name == "" || f.Instructor == "" || f.ScheduleTime == "" {
        return jsonError(c, 400, "Заполните обязательные поля: название, инструктор, время", nil)
    }
    if f.Capacity <= 0 {
        return jsonError(c, 400, "Вместимость должна быть положительной", nil)
    }
    if f.Enrolled < 0 || f.Enrolled > f.Capacity {
        return jsonError(c, 400, "Число записанных превышает вместимость", nil)
    }
    schedule, err := parseScheduleTime(f.ScheduleTime)
    if err != nil {
        return jsonError(c, 400, "Неверный формат даты/времени занятия", err)
    }
    if f.DurationMinutes <= 0 {
        f.DurationMinutes = 60
    }

    db := database.GetDB()
    var id int
    ctx, cancel := withDBTimeout()
    defer cancel()
    err = db.QueryRowContext(ctx, `
        INSERT INTO classes (name, instructor, schedule_time, duration_minutes, capacity, enrolled, room, type, status)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        RETURNING id
    `, f.Name, f.Instructor, schedule, f.DurationMinutes, f.Capacity, f.Enrolled, f.Room, f.Type,
        deriveClassStatus("active", f.Enrolled, f.Capacity)).Scan(&id)
    if err != nil {
        log.Printf("❌ create class: %v", err)
        return jsonError(c, 500, "DB: ошибка сохранения занятия", err)
    }
    c.Set("Location", "/api/v1/classes/"+strconv.Itoa(id))
    return c.Status(fiber.StatusCreated).JSON(fiber.Map{
        "success":  true,
        "message":  "Занятие добавлено",
        "class_id": id,
    })
}

// GetClassByID — JSON одно занятие (для редактирования)
func GetClassByID(c *fiber.Ctx) error {
    id, err := strconv.Atoi(c.Params("id"))
    if err != nil || id <= 0 {
        return jsonError(c, 400, "Некорректный id", err)
    }
    db := database.GetDB()
    var cl models.Class
    var dur int
    ctx, cancel := withDBTimeout()
    defer cancel()
    err = db.QueryRowContext(ctx, `
        SELECT id, name, instructor, schedule_time, duration_minutes, capacity, enrolled, room, type, status
        FROM classes
        WHERE id = $1
    `, id).Scan(&cl.ID, &cl.Name, &cl.Instructor, &cl.ScheduleTime, &dur,
        &cl.Capacity, &cl.Enrolled, &cl.Room, &cl.Type, &cl.Status)
    if errors.Is(err, sql.ErrNoRows) {
        return jsonError(c, 404, "Занятие не найдено", nil)
    }
    if err != nil {
        return jsonError(c, 500, "DB: ошибка чтения", err)
    }
    return jsonOK(c, fiber.Map{"class": models.EnrichClass(cl, dur, time.Now())})
}

// UpdateClass — обновить занятие
func UpdateClass(c *fiber.Ctx) error {
    id, err := strconv.Atoi(c.Params("id"))
    if err != nil || id <= 0 {
        return jsonError(c, 400, "Некорректный id", err)
    }

    type formT struct {
        Name            string `form:"name" json:"name"`
        Instructor      string `form:"instructor" json:"instructor"`
        ScheduleTime    string `form:"schedule_time" json:"schedule_time"`
        DurationMinutes int    `form:"duration_minutes" json:"duration_minutes"`
        Capacity        int    `form:"capacity" json:"capacity"`
        Enrolled        int    `form:"enrolled" json:"enrolled"`
        Room            string `form:"room" json:"room"`
        Type            string `form:"type" json:"type"`
        Status          string `form:"status" json:"status"`
    }
    var f formT
    if err := c.BodyParser(&f); err != nil {
        return jsonError(c, 400, "Неверные данные формы", err)
    }
    if f.Name == "" || f.Instructor == "" || f.ScheduleTime == "" {
        return jsonError(c, 400, "Заполните обязательные поля: название, инструктор, время", nil)
    }
    if f.Capacity <= 0 {
        return jsonError(c, 400, "Вместимость должна быть положительной", nil)
    }
    if f.Enrolled < 0 || f.Enrolled > f.Capacity {
        return jsonError(c, 400, "Число записанных превышает вместимость", nil)
    }
    if f.Status != "" && !validClassStatus(f.Status) {
        return jsonError(c, 400, "Недопустимый статус", nil)
    }
    schedule, err := parseScheduleTime(f.ScheduleTime)
    if err != nil {
        return jsonError(c, 400, "Неверный формат даты/времени занятия", err)
    }
    if f.DurationMinutes <= 0 {
        f.DurationMinutes = 60
    }

    db := database.GetDB()
    ctx, cancel := withDBTimeout()
    defer cancel()
    res, err := db.ExecContext(ctx, `
        UPDATE classes
        SET name = $2, instructor = $3, schedule_time = $4, duration_minutes = $5,
            capacity = $6, enrolled = $7, room = $8, type = $9, status = $10
        WHERE id = $1
    `, id, f.Name, f.Instructor, schedule, f.DurationMinutes, f.Capacity, f.Enrolled, f.Room, f.Type,
        deriveClassStatus(f.Status, f.Enrolled, f.Capacity))
    if err != nil {
        log.Printf("❌ update class: %v", err)
        return jsonError(c, 500, "DB: ошибка обновления", err)
    }
    if n, _ := res.RowsAffected(); n == 0 {
        return jsonError(c, 404, "Занятие не найдено", nil)
    }
    return jsonOK(c, fiber.Map{"message": "Занятие обновлено"})
}

// DeleteClass — удалить занятие
func DeleteClass(c *fiber.Ctx) error {
    id, err := strconv.Atoi(c.Params("id"))
    if err != nil || id <= 0 {
        return jsonError(c, 400, "Некорректный id", err)
    }
    db := database.GetDB()
    ctx, cancel := withDBTimeout()
    defer cancel()
    res, err := db.ExecContext(ctx, `DELETE FROM classes WHERE id = $1`, id)
    if err != nil {
        return jsonError(c, 500, "DB: ошибка удаления", err)
    }
    if n, _ := res.RowsAffected(); n == 0 {
        return jsonError(c, 404, "Занятие не найдено", nil)
    }
    return jsonOK(c, fiber.Map{"message": "Занятие удалено"})
}

// EnrollInClass — атомарная запись участника на занятие.
// Условие enrolled < capacity проверяется в самом UPDATE.
func EnrollInClass(c *fiber.Ctx) error {
    id, err := strconv.Atoi(c.Params("id"))
    if err != nil || id <= 0 {
        return jsonError(c, 400, "Некорректный id", err)
    }
    db := database.GetDB()
    ctx, cancel := withDBTimeout()
    defer cancel()
    var enrolled, capacity int
    err = db.QueryRowContext(ctx, `
        UPDATE classes
        SET enrolled = enrolled + 1,
            status = CASE WHEN enrolled + 1 >= capacity THEN 'full' ELSE status END
        WHERE id = $1 AND status = 'active' AND enrolled < capacity
        RETURNING enrolled, capacity
    `, id).Scan(&enrolled, &capacity)
    if errors.Is(err, sql.ErrNoRows) {
        return jsonError(c, 409, "Запись невозможна: занятие неактивно или мест нет", nil)
    }
    if err != nil {
        return jsonError(c, 500, "DB: ошибка записи на занятие", err)
    }
    return jsonOK(c, fiber.Map{
        "message":  "Участник записан",
        "enrolled": enrolled,
        "capacity": capacity,
    })
}
