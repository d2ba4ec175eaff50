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
)

func validTrainerStatus(s string) bool {
    return s == "active" || s == "inactive"
}

// ListTrainers — JSON-список тренеров с поиском и фильтром по статусу
func ListTrainers(c *fiber.Ctx) error {
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
        where = append(where, `(name ILIKE `+nextPH()+` OR specialization ILIKE `+nextPH()+`)`)
        args = append(args, like, like)
    }
    if status != "" && status != "all" {
        if !validTrainerStatus(status) {
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
        SELECT id, name, specialization, rating, hourly_rate, bio, status, hire_date
        FROM trainers
    `+whereSQL+` ORDER BY id DESC`, args...)
    if err != nil {
        return jsonError(c, 500, "DB: ошибка получения тренеров", err)
    }
    defer rows.Close()

    type trainerDTO struct {
        ID             int     `json:"id"`
        Name           string  `json:"name"`
        Specialization string  `json:"specialization"`
        Rating         float64 `json:"rating"`
        HourlyRate     float64 `json:"hourly_rate"`
        Bio            string  `json:"bio"`
        Status         string  `json:"status"`
        HireDate       string  `json:"hire_date"`
    }
    var list []trainerDTO
    for rows.Next() {
        var t models.Trainer
        if err := rows.Scan(&t.ID, &t.Name, &t.Specialization, &t.Rating, &t.HourlyRate, &t.Bio, &t.Status, &t.HireDate); err != nil {
            log.Printf("❌ scan trainer: %v", err)
            continue
        }
        list = append(list, trainerDTO{
            ID:             t.ID,
            Name:           t.Name,
            Specialization: t.Specialization,
            Rating:         t.Rating,
            HourlyRate:     t.HourlyRate,
            Bio:            t.Bio.String,
            Status:         t.Status,
            HireDate:       t.HireDate.Format("2006-01-02"),
        })
    }
    if err = rows.Err(); err != nil {
        return jsonError(c, 500, "DB: ошибка при обработке результатов", err)
    }

    return jsonOK(c, fiber.Map{"trainers": list, "filter": fiber.Map{"q": q, "status": status}})
}

// CreateTrainer — создать тренера
func CreateTrainer(c *fiber.Ctx) error {
    type formT struct {
        Name           string  `form:"name" json:"name"`
        Specialization string  `form:"specialization" json:"specialization"`
        Rating         float64 `form:"rating" json:"rating"`
        HourlyRate     float64 `form:"hourly_rate" json:"hourly_rate"`
        Bio            string  `form:"bio" json:"bio"`
        HireDate       string  `form:"hire_date" json:"hire_date"` // YYYY-MM-DD
    }
    var f formT
    if err := c.BodyParser(&f); err != nil {
        return jsonError(c, 400, "Неверные данные формы", err)
    }
    if f.Name == "" || f.Specialization == "" {
        return jsonError(c, 400, "Заполните обязательные поля: имя и специализация", nil)
    }
    if f.Rating < 0 || f.Rating > 5 {
        return jsonError(c, 400, "Рейтинг должен быть от 0 до 5", nil)
    }
    hire, err := parseDateOrToday(f.HireDate)
    if err != nil {
        return jsonError(c, 400, "Неверная дата найма", err)
    }

    db := database.GetDB()
    var id int
    ctx, cancel := withDBTimeout()
    defer cancel()
    err = db.QueryRowContext(ctx, `
        INSERT INTO trainers (name, specialization, rating, hourly_rate, bio, status, hire_date)
        VALUES ($1, $2, $3, $4, NULLIF($5, ''), 'active', $6)
        RETURNING id
    `, f.Name, f.Specialization, f.Rating, f.HourlyRate, f.Bio, hire).Scan(&id)
    if err != nil {
        log.Printf("❌ create trainer: %v", err)
        return jsonError(c, 500, "DB: ошибка сохранения тренера", err)
    }
    c.Set("Location", "/api/v1/trainers/"+strconv.Itoa(id))
    return c.Status(fiber.StatusCreated).JSON(fiber.Map{
        "success":    true,
        "message":    "Тренер добавлен",
        "trainer_id": id,
    })
}

// GetTrainerByID — JSON для формы редактирования
func GetTrainerByID(c *fiber.Ctx) error {
    id, err := strconv.Atoi(c.Params("id"))
    if err != nil || id <= 0 {
        return jsonError(c, 400, "Некорректный id", err)
    }
    db := database.GetDB()
    var t models.Trainer
    ctx, cancel := withDBTimeout()
    defer cancel()
    err = db.QueryRowContext(ctx, `
        SELECT id, name, specialization, rating, hourly_rate, bio, status, hire_date
        FROM trainers
        WHERE id = $1
    `, id).Scan(&t.ID, &t.Name, &t.Specialization, &t.Rating, &t.HourlyRate, &t.Bio, &t.Status, &t.HireDate)
    if errors.Is(err, sql.ErrNoRows) {
        return jsonError(c, 404, "Тренер не найден", nil)
    }
    if err != nil {
        return jsonError(c, 500, "DB: ошибка чтения", err)
    }
    return jsonOK(c, fiber.Map{
        "trainer": fiber.Map{
            "id":             t.ID,
            "name":           t.Name,
            "specialization": t.Specialization,
            "rating":         t.Rating,
            "hourly_rate":    t.HourlyRate,
            "bio":            t.Bio.String,
            "status":         t.Status,
            "hire_date":      t.HireDate.Format("2006-01-02"),
        },
    })
}

// UpdateTrainer — обновить тренера
func UpdateTrainer(c *fiber.Ctx) error {
    id, err := strconv.Atoi(c.Params("id"))
    if err != nil || id <= 0 {
        return jsonError(c, 400, "Некорректный id", err)
    }

    type formT struct {
        Name           string  `form:"name" json:"name"`
        Specialization string  `form:"specialization" json:"specialization"`
        Rating         float64 `form:"rating" json:"rating"`
        HourlyRate     float64 `form:"hourly_rate" json:"hourly_rate"`
        Bio            string  `form:"bio" json:"bio"`
        Status         string  `form:"status" json:"status"`
    }
    var f formT
    if err := c.BodyParser(&f); err != nil {
        return jsonError(c, 400, "Неверные данные формы", err)
    }
    if f.Name == "" || f.Specialization == "" {
        return jsonError(c, 400, "Заполните обязательные поля: имя и специализация", nil)
    }
    if f.Status != "" && !validTrainerStatus(f.Status) {
        return jsonError(c, 400, "Недопустимый статус", nil)
    }
    if f.Rating < 0 || f.Rating > 5 {
        return jsonError(c, 400, "Рейтинг должен быть от 0 до 5", nil)
    }

    db := database.GetDB()
    ctx, cancel := withDBTimeout()
    defer cancel()
    res, err := db.ExecContext(ctx, `
        UPDATE trainers
        SET name = $2, specialization = $3, rating = $4, hourly_rate = $5,
            bio = NULLIF($6, ''), status = COALESCE(NULLIF($7, ''), status)
        WHERE id = $1
    `, id, f.Name, f.Specialization, f.Rating, f.HourlyRate, f.Bio, f.Status)
    if err != nil {
        log.Printf("❌ update trainer: %v", err)
        return jsonError(c, 500, "DB: ошибка обновления", err)
    }
    if n, _ := res.RowsAffected(); n == 0 {
        return jsonError(c, 404, "Тренер не найден", nil)
    }
    return jsonOK(c, fiber.Map{"message": "Данные тренера обновлены"})
}

// DeleteTrainer — удалить тренера
func DeleteTrainer(c *fiber.Ctx) error {
    id, err := strconv.Atoi(c.Params("id"))
    if err != nil || id <= 0 {
        return jsonError(c, 400, "Некорректный id", err)
    }
    db := database.GetDB()

    // Если тренер ведёт занятия, удаление запрещено.
    ctx, cancel := withDBTimeout()
    defer cancel()
    var classCount int
    err = db.QueryRowContext(ctx, `
        SELECT COUNT(*) FROM classes WHERE instructor = (SELECT name FROM trainers WHERE id = $1)
    `, id).Scan(&classCount)
    if err != nil {
        return jsonError(c, 500, "DB: ошибка проверки занятий", err)
    }
    if classCount > 0 {
        return jsonError(c, 409, "Невозможно удалить: за тренером закреплены занятия", nil)
    }

    ctx, cancel = withDBTimeout()
    defer cancel()
    res, err := db.ExecContext(ctx, `DELETE FROM trainers WHERE id = $1`, id)
    if err != nil {
        return jsonError(c, 500, "DB: ошибка удаления", err)
    }
    if n, _ := res.RowsAffected(); n == 0 {
        return jsonError(c, 404, "Тренер не найден", nil)
    }
    return jsonOK(c, fiber.Map{"message": "Тренер удалён"})
}

// GetTrainersForSelect — пары id/имя для выпадающих списков
func GetTrainersForSelect(c *fiber.Ctx) error {
    db := database.GetDB()

    ctx, cancel := withDBTimeout()
    defer cancel()
    rows, err := db.QueryContext(ctx, `
        SELECT id, name FROM trainers WHERE status = 'active' ORDER BY name
    `)
    if err != nil {
        log.Printf("❌ trainers-for-select: %v", err)
        return jsonError(c, 500, "DB: ошибка чтения тренеров", err)
    }
    defer rows.Close()

    type item struct {
        ID   int    `json:"id"`
        Name string `json:"name"`
    }
    var out []item
    for rows.Next() {
        var it item
        if err := rows.Scan(&it.ID, &it.Name); err == nil {
            out = append(out, it)
        }
    }
    return jsonOK(c, fiber.Map{"trainers": out})
}
