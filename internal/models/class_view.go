package models

import "time"

// Представление занятия для списка: базовые поля плюс вычисляемые.
type ClassView struct {
    Class

    DurationMinutes  int  `json:"duration_minutes"`  // вычисляемая
    SlotsLeft        int  `json:"slots_left"`        // вычисляемая
    IsFull           bool `json:"is_full"`           // вычисляемая
    IsUpcoming       bool `json:"is_upcoming"`       // вычисляемая
    CapacityUsagePct int  `json:"capacity_usage_pct"` // вычисляемая
}

// EnrichClass дополняет занятие вычисляемыми полями.
func EnrichClass(c Class, durationMin int, now time.Time) ClassView {
    v := ClassView{Class: c, DurationMinutes: durationMin}
    v.SlotsLeft = c.Capacity - c.Enrolled
    if v.SlotsLeft < 0 {
        v.SlotsLeft = 0
    }
    v.IsFull = c.Enrolled >= c.Capacity
    v.IsUpcoming = c.ScheduleTime.After(now)
    if c.Capacity > 0 {
        v.CapacityUsagePct = c.Enrolled * 100 / c.Capacity
    }
    return v
}
