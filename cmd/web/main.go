package main

import (
    "log"
    "time"

    "gym-center-manager/internal/aiplan"
    "gym-center-manager/internal/auth"
    "gym-center-manager/internal/config"
    "gym-center-manager/internal/database"
    "gym-center-manager/internal/handlers"
    "gym-center-manager/internal/planstore"

    "github.com/gofiber/fiber/v2"
    "github.com/gofiber/fiber/v2/middleware/compress"
    "github.com/gofiber/fiber/v2/middleware/encryptcookie"
    "github.com/gofiber/fiber/v2/middleware/etag"
    "github.com/gofiber/fiber/v2/middleware/helmet"
    "github.com/gofiber/fiber/v2/middleware/limiter"
    "github.com/gofiber/fiber/v2/middleware/logger"
    "github.com/gofiber/fiber/v2/middleware/recover"
    "github.com/gofiber/fiber/v2/middleware/session"
    "github.com/gofiber/template/html/v2"
)

func main() {
    // Загрузка конфигурации
    cfg := config.LoadConfig()

    // Инициализация базы данных
    db := database.GetDB()

    // Локальное хранилище сохранённых планов питания
    plans, err := planstore.Open(cfg.Plans.DBPath)
    if err != nil {
        log.Fatalf("Ошибка открытия базы планов: %v", err)
    }
    defer plans.Close()

    // Клиент генеративного API (ключ только из окружения)
    var aiClient *aiplan.Client
    if cfg.AI.APIKey != "" {
        aiClient = &aiplan.Client{
            APIKey:  cfg.AI.APIKey,
            BaseURL: cfg.AI.BaseURL,
            Model:   cfg.AI.Model,
        }
    } else {
        log.Println("⚠️  GEMINI_API_KEY не задан — генерация планов отключена")
    }
    handlers.InitDietPlans(aiClient, plans)

    // Сессии в cookie
    sessions := session.New(session.Config{
        KeyLookup:      "cookie:gym_session",
        Expiration:     12 * time.Hour,
        CookieHTTPOnly: true,
        CookieSameSite: "Lax",
    })
    auth.Init(sessions, db, cfg.Auth.DemoMode)

    // Инициализация шаблонов
    engine := html.New(cfg.Server.TemplatePath, ".html")

    // Создание приложения Fiber
    app := fiber.New(fiber.Config{
        Views:       engine,
        AppName:     "GymCenterManager",
        ViewsLayout: "layouts/base",
        BodyLimit:   1 * 1024 * 1024,
    })

    // -------------------------------
    // Middleware: безопасность и логика
    // -------------------------------

    app.Use(recover.New())  // Перехватывает паники, возвращает 500 вместо краша
    app.Use(helmet.New())   // Добавляет HTTP security-заголовки
    app.Use(compress.New()) // Сжимает ответы gzip/br
    app.Use(logger.New())   // Логи запросов
    app.Use(limiter.New(limiter.Config{
        Max:        120,         // 120 запросов
        Expiration: time.Minute, // за минуту
        LimitReached: func(c *fiber.Ctx) error {
            return c.Status(fiber.StatusTooManyRequests).SendString("Слишком много запросов. Попробуйте позже.")
        },
    }))
    app.Use(etag.New()) // Ускоряет GET-запросы через кэширование по ETag
    if cfg.Auth.SessionSecret != "" {
        app.Use(encryptcookie.New(encryptcookie.Config{Key: cfg.Auth.SessionSecret}))
    }

    // -------------------------------
    // Статика и маршруты
    // -------------------------------
    app.Static("/static", cfg.Server.StaticPath)

    setupRoutes(app)

    log.Printf("🚀 Сервер запущен на http://localhost%s", cfg.Server.Port)
    log.Printf("📊 Главная: http://localhost%s/", cfg.Server.Port)
    log.Printf("👥 Участники: http://localhost%s/api/v1/members", cfg.Server.Port)

    log.Fatal(app.Listen(cfg.Server.Port))
}

// setupRoutes — маршруты приложения
func setupRoutes(app *fiber.App) {
    // без авторизации
    app.Get("/health", func(c *fiber.Ctx) error {
        if err := database.TestConnection(); err != nil {
            return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "down"})
        }
        return c.JSON(fiber.Map{"status": "ok"})
    })
    app.Post("/api/v1/auth/login", handlers.LoginHandler)

    // страница сводки
    app.Get("/", auth.RequireAuth, handlers.Dashboard)

    api := app.Group("/api/v1", auth.RequireAuth)

    api.Post("/auth/logout", handlers.LogoutHandler)
    api.Get("/auth/me", handlers.MeHandler)

    api.Get("/dashboard/stats", handlers.DashboardStats)

    // участники
    api.Get("/members", handlers.ListMembers)
    api.Post("/members", handlers.CreateMember)
    api.Get("/members/:id", handlers.GetMemberByID)
    api.Put("/members/:id", handlers.UpdateMember)
    api.Delete("/members/:id", handlers.DeleteMember)

    // занятия
    api.Get("/classes", handlers.ListClasses)
    api.Post("/classes", handlers.CreateClass)
    api.Get("/classes/:id", handlers.GetClassByID)
    api.Put("/classes/:id", handlers.UpdateClass)
    api.Delete("/classes/:id", handlers.DeleteClass)
    api.Post("/classes/:id/enroll", handlers.EnrollInClass)

    // тренеры
    api.Get("/trainers", handlers.ListTrainers)
    api.Post("/trainers", handlers.CreateTrainer)
    api.Get("/trainers/:id", handlers.GetTrainerByID)
    api.Put("/trainers/:id", handlers.UpdateTrainer)
    api.Delete("/trainers/:id", handlers.DeleteTrainer)

    // оборудование
    api.Get("/equipment", handlers.ListEquipment)
    api.Post("/equipment", handlers.CreateEquipment)
    api.Get("/equipment/:id", handlers.GetEquipmentByID)
    api.Put("/equipment/:id", handlers.UpdateEquipment)
    api.Delete("/equipment/:id", handlers.DeleteEquipment)

    // платежи (только чтение)
    api.Get("/payments", handlers.ListPayments)
    api.Get("/payments/summary", handlers.GetPaymentsSummary)
    api.Get("/payments/:id", handlers.GetPaymentByID)

    // посещения
    api.Get("/attendance", handlers.ListAttendance)
    api.Get("/attendance/stats", handlers.GetAttendanceStats)
    api.Post("/attendance/check-in", handlers.CheckIn)
    api.Post("/attendance/:id/check-out", handlers.CheckOut)

    // тарифы
    api.Get("/plans", handlers.ListMembershipPlans)
    api.Post("/plans", handlers.CreateMembershipPlan)
    api.Get("/plans/:id", handlers.GetMembershipPlanByID)
    api.Put("/plans/:id", handlers.UpdateMembershipPlan)
    api.Delete("/plans/:id", handlers.DeleteMembershipPlan)

    // планы питания
    api.Post("/diet-plans/generate", handlers.GenerateDietPlan)
    api.Get("/diet-plans", handlers.ListSavedPlans)
    api.Post("/diet-plans", handlers.SaveDietPlan)
    api.Get("/diet-plans/:id", handlers.GetSavedPlan)
    api.Delete("/diet-plans/:id", handlers.DeleteSavedPlan)

    // отчётность
    api.Post("/reports/new-members", handlers.ReportNewMembersSince)
    api.Post("/reports/members-by-status", handlers.ReportMembersByStatus)
    api.Get("/reports/maintenance-due", handlers.ReportMaintenanceDue)
    api.Get("/reports/revenue-by-month", handlers.ReportRevenueByMonth)
    api.Get("/reports/equipment-by-condition", handlers.ReportEquipmentByCondition)
    api.Get("/reports/attendance-week", handlers.ReportAttendanceWeek)

    // настройки
    api.Post("/settings", handlers.SaveSettings)

    // администрирование — только владелец и админ
    admin := api.Group("/users", auth.RequireRole("owner", "admin"))
    admin.Get("/", handlers.ListUsers)
    admin.Post("/", handlers.CreateUser)
    admin.Put("/:id", handlers.UpdateUser)
    admin.Delete("/:id", handlers.DeleteUser)

    // API для селектов
    app.Get("/api/members-for-select", auth.RequireAuth, handlers.GetMembersForSelect)
    app.Get("/api/trainers-for-select", auth.RequireAuth, handlers.GetTrainersForSelect)
    app.Get("/api/plans-for-select", auth.RequireAuth, handlers.GetPlansForSelect)

    // неизвестные пути — на главную
    app.Use(func(c *fiber.Ctx) error {
        return c.Redirect("/", fiber.StatusFound)
    })
}
