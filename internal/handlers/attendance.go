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
    "github.com/google/uuid"
)

// visitDuration — длительность посещения с округлением до минуты.
func visitDuration(in, out time.Time) int {
    if out.Before(in) {
        return 0
    }
    return int(out.Sub(in).Round(time.Minute) / time.Minute)
}

// ListAttendance — посещения за сегодня (или за ?date=YYYY-MM-DD)
func ListAttendance(c *fiber.Ctx) error {
    db := database.GetDB()

    day, err := parseDateOrToday(c.Query("date"))
    if err != nil {
        return jsonError(c, 400, "Неверный формат даты", err)
    }
    q := strings.TrimSpace(c.Query("q"))
    status := strings.TrimSpace(c.Query("status"))
    if status != "" && status != "all" && status != "checked-in" && status != "checked-out" {
        return jsonError(c, 400, "Недопустимый статус", nil)
    }

    dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
    args := []any{dayStart, dayStart.AddDate(0, 0, 1)}
    whereSQL := `WHERE a.check_in_time >= $1 AND a.check_in_time < $2`
    if q != "" {
        whereSQL += ` AND m.name ILIKE $3`
        args = append(args, "%"+q+"%")
    }
    if status != "" && status != "all" {
        whereSQL += ` AND a.status = $` + strconv.Itoa(len(args)+1)
        args = append(args, status)
    }

    ctx, cancel := withDBTimeout()
    defer cancel()
    rows, err := db.QueryContext(ctx, `
        SELECT a.id, a.member_id, m.name, a.check_in_time, a.check_out_time, a.duration_minutes, a.status
        FROM check_ins a
        JOIN members m ON m.id = a.member_id
    `+whereSQL+` ORDER BY a.check_in_time DESC`, args...)
    if err != nil {
        return jsonError(c, 500, "DB: ошибка получения посещений", err)
    }
    defer rows.Close()

    type recordDTO struct {
        ID              string `json:"id"`
        MemberID        int    `json:"member_id"`
        MemberName      string `json:"member_name"`
        CheckInTime     string `json:"check_in_time"`
        CheckOutTime    string `json:"check_out_time"`
        DurationMinutes int    `json:"duration_minutes"`
        Status          string `json:"status"`
    }
    var list []recordDTO
    for rows.Next() {
        var r models.CheckInRecord
        if err := rows.Scan(&r.ID, &r.MemberID, &r.MemberName, &r.CheckInTime,
            &r.CheckOutTime, &r.DurationMinutes, &r.Status); err != nil {
            log.Printf("❌ scan check-in: %v", err)
            continue
        }
        out := ""
        if r.CheckOutTime.Valid {
            out = r.CheckOutTime.Time.Format("15:04")
        }
        list = append(list, recordDTO{
            ID:              r.ID,
            MemberID:        r.MemberID,
            MemberName:      r.MemberName,
            CheckInTime:     r.CheckInTime.Format("15:04"),
            CheckOutTime:    out,
            DurationMinutes: r.DurationMinutes,
            Status:          r.Status,
        })
    }
    if err = rows.Err(); err != nil {
        return jsonError(c, 500, "DB: ошибка при обработке результатов", err)
    }

    return jsonOK(c, fiber.Map{"records": list, "date": dayStart.Format("2006-01-02")})
}

// CheckIn — отметить вход участника
func CheckIn(c *fiber.Ctx) error {
    type formT struct {
        MemberID int `form:"member_id" json:"member_id"`
    }
    var f formT
    if err := c.BodyParser(&f); err != nil {
        return jsonError(c, 400, "Неверные данные формы", err)
    }
    if f.MemberID <= 0 {
        return jsonError(c, 400, "Заполните обязательные поля: участник", nil)
    }

    db := database.GetDB()

    // Повторный вход без выхода не допускаем
    ctx, cancel := withDBTimeout()
    defer cancel()
    var open int
    if err := db.QueryRowContext(ctx, `
        SELECT COUNT(*) FROM check_ins WHERE member_id = $1 AND status = 'checked-in'
    `, f.MemberID).Scan(&open); err != nil {
        return jsonError(c, 500, "DB: ошибка проверки посещений", err)
    }
    if open > 0 {
        return jsonError(c, 409, "Участник уже в зале", nil)
    }

    id := uuid.NewString()
    ctx, cancel = withDBTimeout()
    defer cancel()
    _, err := db.ExecContext(ctx, `
        INSERT INTO check_ins (id, member_id, check_in_time, duration_minutes, status)
        VALUES ($1, $2, $3, 0, 'checked-in')
    `, id, f.MemberID, time.Now())
    if err != nil {
        log.Printf("❌ check-in: %v", err)
        return jsonError(c, 500, "DB: ошибка регистрации входа", err)
    }
    log.Printf("✅ Вход участника %d, запись %s", f.MemberID, id)
    return c.Status(fiber.StatusCreated).JSON(fiber.Map{
        "success":   true,
        "message":   "Вход зарегистрирован",
        "record_id": id,
    })
}

// CheckOut — отметить выход, посчитать длительность
func CheckOut(c *fiber.Ctx) error {
    id := strings.TrimSpace(c.Params("id"))
    if id == "" {
        return jsonError(c, 400, "Некорректный id", nil)
    }

    db := database.GetDB()
    ctx, cancel := withDBTimeout()
    defer cancel()
    var checkIn time.Time
    err := db.QueryRowContext(ctx, `
        SELECT check_in_time FROM check_ins WHERE id = $1 AND status = 'checked-in'
    `, id).Scan(&checkIn)
    if errors.Is(err, sql.ErrNoRows) {
        return jsonError(c, 404, "Открытое посещение не найдено", nil)
    }
    if err != nil {
        return jsonError(c, 500, "DB: ошибка чтения", err)
    }

    now := time.Now()
    minutes := visitDuration(checkIn, now)
    ctx, cancel = withDBTimeout()
    defer cancel()
    res, err := db.ExecContext(ctx, `
        UPDATE check_ins
        SET check_out_time = $2, duration_minutes = $3, status = 'checked-out'
        WHERE id = $1 AND status = 'checked-in'
    `, id, now, minutes)
    if err != nil {
        return jsonError(c, 500, "DB: ошибка регистрации выхода", err)
    }
    if n, _ := res.RowsAffected(); n == 0 {
        return jsonError(c, 404, "Открытое посещение не найдено", nil)
    }
    return jsonOK(c, fiber.Map{
        "message":          "Выход зарегистрирован",
        "duration_minutes": minutes,
    })
}

// GetAttendanceStats — счётчики для шапки страницы посещений
func GetAttendanceStats(c *fiber.Ctx) error {
    db := database.GetDB()
    day := time.Now()
    dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())

    ctx, cancel := withDBTimeout()
    defer cancel()
    var today, inside int
    var avgMinutes sql.NullFloat64
    err := db.QueryRowContext(ctx, `
        SELECT COUNT(*),
               COUNT(*) FILTER (WHERE status = 'checked-in'),
               AVG(duration_minutes) FILTER (WHERE status = 'checked-out')
        FROM check_ins
        WHERE check_in_time >= $1
    `, dayStart).Scan(&today, &inside, &avgMinutes)
    if err != nil {
        return jsonError(c, 500, "DB: ошибка подсчёта посещений", err)
    }

    return jsonOK(c, fiber.Map{
        "stats": fiber.Map{
            "today":            today,
            "currently_inside": inside,
            "avg_minutes":      int(avgMinutes.Float64),
        },
    })
}
