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

func validMemberStatus(s string) bool {
    switch s {
    case "active", "inactive", "pending":
        return true
    }
    return false
}

func normMemberStatus(s string) string {
    s = strings.ToLower(strings.TrimSpace(s))
    if validMemberStatus(s) {
        return s
    }
    return "pending"
}

// ListMembers — JSON-список участников с поиском/фильтром/пагинацией
func ListMembers(c *fiber.Ctx) error {
    db := database.GetDB()

    q := strings.TrimSpace(c.Query("q"))
    status := strings.TrimSpace(c.Query("status"))
    page, _ := strconv.Atoi(c.Query("page"))
    size, _ := strconv.Atoi(c.Query("size"))
    if page <= 0 {
        page = 1
    }
    if size <= 0 || size > 100 {
        size = 20
    }

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
            email ILIKE `+nextPH()+` OR
            phone ILIKE `+nextPH()+`
        )`)
        args = append(args, like, like, like)
    }
    if status != "" && status != "all" {
        if !validMemberStatus(status) {
            return jsonError(c, 400, "Недопустимый статус", nil)
        }
        where = append(where, `status = `+nextPH())
        args = append(args, status)
    }

    baseSelect := `
        SELECT id, name, email, phone, membership_type, trainer, status, join_date
        FROM members
    `
    whereSQL := ""
    if len(where) > 0 {
        whereSQL = " WHERE " + strings.Join(where, " AND ")
    }

    // count
    countSQL := "SELECT COUNT(*) FROM (" + baseSelect + whereSQL + ") t"
    ctxCount, cancelCount := withDBTimeout()
    var total int
    if err := db.QueryRowContext(ctxCount, countSQL, args...).Scan(&total); err != nil {
        cancelCount()
        return jsonError(c, 500, "DB: ошибка подсчёта записей", err)
    }
    cancelCount()

    // data
    query := baseSelect + whereSQL + ` ORDER BY id DESC LIMIT $` + strconv.Itoa(paramCount+1) + ` OFFSET $` + strconv.Itoa(paramCount+2)
    args = append(args, size, (page-1)*size)

    ctx, cancel := withDBTimeout()
    defer cancel()
    rows, err := db.QueryContext(ctx, query, args...)
    if err != nil {
        return jsonError(c, 500, "DB: ошибка получения участников", err)
    }
    defer rows.Close()

    type memberDTO struct {
        ID             int    `json:"id"`
        Name           string `json:"name"`
        Email          string `json:"email"`
        Phone          string `json:"phone"`
        MembershipType string `json:"membership_type"`
        Trainer        string `json:"trainer"`
        Status         string `json:"status"`
        JoinDate       string `json:"join_date"`
    }
    var list []memberDTO
    for rows.Next() {
        var m models.Member
        if err := rows.Scan(
            &m.ID,
            &m.Name,
            &m.Email,
            &m.Phone,
            &m.MembershipType,
            &m.Trainer,
            &m.Status,
            &m.JoinDate,
        ); err != nil {
            return jsonError(c, 500, "DB: ошибка сканирования участника", err)
        }
        list = append(list, memberDTO{
            ID:             m.ID,
            Name:           m.Name,
            Email:          m.Email,
            Phone:          m.Phone,
            MembershipType: m.MembershipType,
            Trainer:        m.Trainer.String,
            Status:         m.Status,
            JoinDate:       m.JoinDate.Format("2006-01-02"),
        })
    }
    if err := rows.Err(); err != nil {
        return jsonError(c, 500, "DB: ошибка при обработке результатов", err)
    }

    return jsonOK(c, fiber.Map{
        "members": list,
        "pagination": fiber.Map{
            "page":     page,
            "size":     size,
            "total":    total,
            "has_prev": page > 1,
            "has_next": page*size < total,
            "prev":     page - 1,
            "next":     page + 1,
        },
        "filter": fiber.Map{"q": q, "status": status},
    })
}

// CreateMember — создание участника с 201/Location
func CreateMember(c *fiber.Ctx) error {
    type memberForm struct {
        Name           string `form:"name" json:"name"`
        Email          string `form:"email" json:"email"`
        Phone          string `form:"phone" json:"phone"`
        MembershipType string `form:"membership_type" json:"membership_type"`
        Trainer        string `form:"trainer" json:"trainer"`
        Status         string `form:"status" json:"status"`
    }
    var form memberForm
    if err := c.BodyParser(&form); err != nil {
        return jsonError(c, 400, "Неверные данные формы", err)
    }
    if form.Name == "" || form.Email == "" || form.Phone == "" {
        return jsonError(c, 400, "Заполните обязательные поля: имя, email, телефон", nil)
    }
    if !strings.Contains(form.Email, "@") {
        return jsonError(c, 400, "Неверный email", nil)
    }
    if form.MembershipType == "" {
        form.MembershipType = "Basic"
    }

    db := database.GetDB()
    ctx, cancel := withDBTimeout()
    defer cancel()
    var memberID int
    err := db.QueryRowContext(ctx, `
        INSERT INTO members (name, email, phone, membership_type, trainer, status, join_date)
        VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7)
        RETURNING id
    `, form.Name, form.Email, form.Phone, form.MembershipType, form.Trainer,
        normMemberStatus(form.Status), time.Now()).Scan(&memberID)
    if err != nil {
        log.Printf("❌ Ошибка сохранения участника: %v", err)
        return jsonError(c, 500, "DB: ошибка сохранения участника", err)
    }

    log.Printf("✅ Участник создан! ID: %d", memberID)
    c.Set("Location", "/api/v1/members/"+strconv.Itoa(memberID))
    return c.Status(fiber.StatusCreated).JSON(fiber.Map{
        "success":   true,
        "message":   "Участник успешно создан",
        "member_id": memberID,
    })
}

// GetMemberByID возвращает участника по ID для редактирования
func GetMemberByID(c *fiber.Ctx) error {
    id, err := strconv.Atoi(c.Params("id"))
    if err != nil || id <= 0 {
        return jsonError(c, 400, "Некорректный id", err)
    }

    db := database.GetDB()
    var m models.Member
    ctx, cancel := withDBTimeout()
    defer cancel()
    err = db.QueryRowContext(ctx, `
        SELECT id, name, email, phone, membership_type, trainer, status, join_date
        FROM members
        WHERE id = $1
    `, id).Scan(&m.ID, &m.Name, &m.Email, &m.Phone, &m.MembershipType, &m.Trainer, &m.Status, &m.JoinDate)
    if errors.Is(err, sql.ErrNoRows) {
        return jsonError(c, 404, "Участник не найден", nil)
    }
    if err != nil {
        return jsonError(c, 500, "DB: ошибка чтения", err)
    }

    return jsonOK(c, fiber.Map{
        "member": fiber.Map{
            "id":              m.ID,
            "name":            m.Name,
            "email":           m.Email,
            "phone":           m.Phone,
            "membership_type": m.MembershipType,
            "trainer":         m.Trainer.String,
            "status":          m.Status,
            "join_date":       m.JoinDate.Format("2006-01-02"),
        },
    })
}

// UpdateMember обновляет редактируемое подмножество полей
func UpdateMember(c *fiber.Ctx) error {
    id, err := strconv.Atoi(c.Params("id"))
    if err != nil || id <= 0 {
        return jsonError(c, 400, "Некорректный id", err)
    }

    type memberForm struct {
        Name           string `form:"name" json:"name"`
        Email          string `form:"email" json:"email"`
        Phone          string `form:"phone" json:"phone"`
        MembershipType string `form:"membership_type" json:"membership_type"`
        Trainer        string `form:"trainer" json:"trainer"`
        Status         string `form:"status" json:"status"`
    }
    var form memberForm
    if err := c.BodyParser(&form); err != nil {
        return jsonError(c, 400, "Неверные данные формы", err)
    }
    if form.Name == "" || form.Email == "" || form.Phone == "" {
        return jsonError(c, 400, "Заполните обязательные поля: имя, email, телефон", nil)
    }
    if form.Status != "" && !validMemberStatus(form.Status) {
        return jsonError(c, 400, "Недопустимый статус", nil)
    }

    db := database.GetDB()
    ctx, cancel := withDBTimeout()
    defer cancel()
    result, err := db.ExecContext(ctx, `
        UPDATE members
        SET name = $1, email = $2, phone = $3, membership_type = $4,
            trainer = NULLIF($5, ''), status = COALESCE(NULLIF($6, ''), status)
        WHERE id = $7
    `, form.Name, form.Email, form.Phone, form.MembershipType, form.Trainer, form.Status, id)
    if err != nil {
        return jsonError(c, 500, "DB: ошибка обновления", err)
    }
    if n, _ := result.RowsAffected(); n == 0 {
        return jsonError(c, 404, "Участник не найден", nil)
    }

    return jsonOK(c, fiber.Map{"message": "Данные участника обновлены"})
}

// DeleteMember удаляет участника по id
func DeleteMember(c *fiber.Ctx) error {
    id, err := strconv.Atoi(c.Params("id"))
    if err != nil || id <= 0 {
        return jsonError(c, 400, "Некорректный id", err)
    }

    db := database.GetDB()

    // Незакрытые посещения блокируют удаление
    ctx, cancel := withDBTimeout()
    defer cancel()
    var openVisits int
    err = db.QueryRowContext(ctx, `
        SELECT COUNT(*) FROM check_ins WHERE member_id = $1 AND status = 'checked-in'
    `, id).Scan(&openVisits)
    if err != nil {
        return jsonError(c, 500, "DB: ошибка проверки посещений", err)
    }
    if openVisits > 0 {
        return jsonError(c, 409, "Невозможно удалить: участник сейчас в зале", nil)
    }

    ctx, cancel = withDBTimeout()
    defer cancel()
    result, err := db.ExecContext(ctx, `DELETE FROM members WHERE id = $1`, id)
    if err != nil {
        return jsonError(c, 500, "DB: ошибка удаления участника", err)
    }
    if n, _ := result.RowsAffected(); n == 0 {
        return jsonError(c, 404, "Участник не найден", nil)
    }

    return jsonOK(c, fiber.Map{"message": "Участник удалён"})
}

// GetMembersForSelect — пары id/имя для выпадающих списков
func GetMembersForSelect(c *fiber.Ctx) error {
    db := database.GetDB()
    ctx, cancel := withDBTimeout()
    defer cancel()
    rows, err := db.QueryContext(ctx, `SELECT id, name FROM members WHERE status = 'active' ORDER BY name`)
    if err != nil {
        return jsonError(c, 500, "DB: ошибка чтения участников", err)
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
    return jsonOK(c, fiber.Map{"members": list})
}
