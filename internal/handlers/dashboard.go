package handlers

import (
    "log"

    "gym-center-manager/internal/database"

    "github.com/gofiber/fiber/v2"
)

// Dashboard — серверная сводка: счётчики по основным коллекциям.
func Dashboard(c *fiber.Ctx) error {
    db := database.GetDB()

    var memberCount, trainerCount, classCount, insideCount int

    db.QueryRow(`SELECT COUNT(*) FROM members WHERE status = 'active'`).Scan(&memberCount)
    db.QueryRow(`SELECT COUNT(*) FROM trainers WHERE status = 'active'`).Scan(&trainerCount)
    db.QueryRow(`SELECT COUNT(*) FROM classes WHERE status IN ('active', 'full')`).Scan(&classCount)
    db.QueryRow(`SELECT COUNT(*) FROM check_ins WHERE status = 'checked-in'`).Scan(&insideCount)

    log.Printf("📊 Статистика: Участники=%d, Тренеры=%d, Занятия=%d, В зале=%d",
        memberCount, trainerCount, classCount, insideCount)

    return c.Render("dashboard", fiber.Map{
        "Title": "Главная панель",
        "Stats": fiber.Map{
            "Members":  memberCount,
            "Trainers": trainerCount,
            "Classes":  classCount,
            "Inside":   insideCount,
        },
    })
}

// DashboardStats — те же счётчики для SPA в JSON
func DashboardStats(c *fiber.Ctx) error {
    db := database.GetDB()

    var memberCount, trainerCount, classCount, insideCount int
    db.QueryRow(`SELECT COUNT(*) FROM members WHERE status = 'active'`).Scan(&memberCount)
    db.QueryRow(`SELECT COUNT(*) FROM trainers WHERE status = 'active'`).Scan(&trainerCount)
    db.QueryRow(`SELECT COUNT(*) FROM classes WHERE status IN ('active', 'full')`).Scan(&classCount)
    db.QueryRow(`SELECT COUNT(*) FROM check_ins WHERE status = 'checked-in'`).Scan(&insideCount)

    return jsonOK(c, fiber.Map{
        "stats": fiber.Map{
            "members":  memberCount,
            "trainers": trainerCount,
            "classes":  classCount,
            "inside":   insideCount,
        },
    })
}
