package handlers

import (
    "sort"
    "strings"
    "sync"
    "time"

    "gym-center-manager/internal/models"

    "github.com/gofiber/fiber/v2"
)

// Платежи в текущем объёме — демонстрационные данные, только чтение.
// Биллинг живёт во внешней системе; сюда попадает уже готовая выписка.

var paymentsMu sync.RWMutex

var payments = []models.Payment{
    {ID: 1, MemberName: "Sarah Johnson", Plan: "Premium", Amount: 89.99, Method: "card", InvoiceNumber: "INV-2024-001", Status: "paid", Date: mustDate("2024-11-01")},
    {ID: 2, MemberName: "John Smith", Plan: "Basic", Amount: 49.99, Method: "card", InvoiceNumber: "INV-2024-002", Status: "paid", Date: mustDate("2024-11-02")},
    {ID: 3, MemberName: "Mike Wilson", Plan: "Premium", Amount: 89.99, Method: "cash", InvoiceNumber: "INV-2024-003", Status: "pending", Date: mustDate("2024-11-05")},
    {ID: 4, MemberName: "Emily Davis", Plan: "VIP", Amount: 149.99, Method: "transfer", InvoiceNumber: "INV-2024-004", Status: "paid", Date: mustDate("2024-11-07")},
    {ID: 5, MemberName: "Chris Brown", Plan: "Basic", Amount: 49.99, Method: "card", InvoiceNumber: "INV-2024-005", Status: "failed", Date: mustDate("2024-11-08")},
    {ID: 6, MemberName: "Lisa Anderson", Plan: "Premium", Amount: 89.99, Method: "card", InvoiceNumber: "INV-2024-006", Status: "refunded", Date: mustDate("2024-11-10")},
    {ID: 7, MemberName: "David Martinez", Plan: "VIP", Amount: 149.99, Method: "card", InvoiceNumber: "INV-2024-007", Status: "paid", Date: mustDate("2024-11-12")},
    {ID: 8, MemberName: "Anna Taylor", Plan: "Basic", Amount: 49.99, Method: "cash", InvoiceNumber: "INV-2024-008", Status: "pending", Date: mustDate("2024-11-14")},
}

func mustDate(s string) time.Time {
    t, err := time.Parse("2006-01-02", s)
    if err != nil {
        panic(err)
    }
    return t
}

func validPaymentStatus(s string) bool {
    switch s {
    case "paid", "pending", "failed", "refunded":
        return true
    }
    return false
}

// ListPayments — список платежей с поиском и фильтром по статусу.
// Коллекция маленькая и живёт в памяти, поэтому фильтр считается на месте.
func ListPayments(c *fiber.Ctx) error {
    q := strings.TrimSpace(c.Query("q"))
    status := strings.TrimSpace(c.Query("status"))
    if status != "" && status != "all" && !validPaymentStatus(status) {
        return jsonError(c, 400, "Недопустимый статус", nil)
    }

    paymentsMu.RLock()
    defer paymentsMu.RUnlock()

    list := make([]models.Payment, 0, len(payments))
    for _, p := range payments {
        if !matchesSearch(q, p.MemberName, p.Plan, p.InvoiceNumber, p.Method) {
            continue
        }
        if !matchesStatus(status, p.Status) {
            continue
        }
        list = append(list, p)
    }
    sort.Slice(list, func(i, j int) bool { return list[i].Date.After(list[j].Date) })

    return jsonOK(c, fiber.Map{"payments": list, "filter": fiber.Map{"q": q, "status": status}})
}

// GetPaymentByID — один платёж (для модалки просмотра)
func GetPaymentByID(c *fiber.Ctx) error {
    id, err := c.ParamsInt("id")
    if err != nil || id <= 0 {
        return jsonError(c, 400, "Некорректный id", err)
    }
    paymentsMu.RLock()
    defer paymentsMu.RUnlock()
    for _, p := range payments {
        if p.ID == id {
            return jsonOK(c, fiber.Map{"payment": p})
        }
    }
    return jsonError(c, 404, "Платёж не найден", nil)
}

// GetPaymentsSummary — сводка по выручке
func GetPaymentsSummary(c *fiber.Ctx) error {
    paymentsMu.RLock()
    defer paymentsMu.RUnlock()

    var paidTotal, pendingTotal float64
    counts := map[string]int{}
    for _, p := range payments {
        counts[p.Status]++
        switch p.Status {
        case "paid":
            paidTotal += p.Amount
        case "pending":
            pendingTotal += p.Amount
        }
    }

    return jsonOK(c, fiber.Map{
        "summary": fiber.Map{
            "revenue":        paidTotal,
            "pending_amount": pendingTotal,
            "by_status":      counts,
            "total":          len(payments),
        },
    })
}
