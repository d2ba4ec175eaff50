package handlers

import (
    "context"
    "strings"
    "time"
)

const dbTimeout = 5 * time.Second

func withDBTimeout() (context.Context, context.CancelFunc) {
    return context.WithTimeout(context.Background(), dbTimeout)
}

// parseDateOrToday — дата формы YYYY-MM-DD; пустая строка = сегодня.
func parseDateOrToday(s string) (time.Time, error) {
    s = strings.TrimSpace(s)
    if s == "" {
        return time.Now(), nil
    }
    return time.Parse("2006-01-02", s)
}
