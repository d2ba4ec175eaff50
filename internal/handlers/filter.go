package handlers

import "strings"

// Фильтрация ресурсов, которые живут в памяти (платежи, пользователи).
// Для табличных ресурсов поиск выполняется на стороне БД (ILIKE).

// matchesSearch — регистронезависимое вхождение подстроки
// хотя бы в одно из текстовых полей.
func matchesSearch(term string, fields ...string) bool {
    term = strings.ToLower(strings.TrimSpace(term))
    if term == "" {
        return true
    }
    for _, f := range fields {
        if strings.Contains(strings.ToLower(f), term) {
            return true
        }
    }
    return false
}

// matchesStatus — точное совпадение статуса либо сентинел "all".
func matchesStatus(want, have string) bool {
    want = strings.TrimSpace(want)
    return want == "" || want == "all" || want == have
}
