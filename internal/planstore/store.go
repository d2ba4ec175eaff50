package planstore

import (
    "context"
    "database/sql"
    "encoding/json"
    "errors"
    "fmt"
    "time"

    "gym-center-manager/internal/models"

    "github.com/google/uuid"
    _ "modernc.org/sqlite"
)

// Локальное хранилище сохранённых планов питания.
// Один файл SQLite на инсталляцию, аналог localStorage из веб-клиента.

var (
    ErrNotFound  = errors.New("план не найден")
    ErrBadMacros = errors.New("проценты макронутриентов не сходятся к 100")
)

// Проценты макронутриентов обязаны давать ~100.
// Допуск ±2 на округления модели.
const macrosTolerance = 2

// created_at сравнивается как строка (ORDER BY), поэтому формат
// фиксированной ширины: RFC3339Nano обрезает хвостовые нули.
const createdAtLayout = "2006-01-02T15:04:05.000000000Z07:00"

type Store struct {
    db *sql.DB
}

func Open(path string) (*Store, error) {
    db, err := sql.Open("sqlite", path)
    if err != nil {
        return nil, fmt.Errorf("открытие базы планов: %w", err)
    }
    if _, err := db.Exec(`
        CREATE TABLE IF NOT EXISTS saved_plans (
            id         TEXT PRIMARY KEY,
            saved_at   TEXT NOT NULL,
            created_at TEXT NOT NULL,
            payload    TEXT NOT NULL
        )
    `); err != nil {
        db.Close()
        return nil, fmt.Errorf("создание таблицы планов: %w", err)
    }
    return &Store{db: db}, nil
}

func (s *Store) Close() error {
    return s.db.Close()
}

// ValidateMacros проверяет, что проценты макронутриентов сходятся к 100.
func ValidateMacros(m models.Macros) error {
    sum := m.Protein + m.Carbs + m.Fats
    if sum < 100-macrosTolerance || sum > 100+macrosTolerance {
        return fmt.Errorf("%w: сумма %d", ErrBadMacros, sum)
    }
    return nil
}

// Save назначает плану id и дату сохранения и пишет его в базу.
// Содержимое (калории, макро, блюда) не переписывается.
func (s *Store) Save(ctx context.Context, plan models.DietPlan) (models.DietPlan, error) {
    if err := ValidateMacros(plan.Macros); err != nil {
        return models.DietPlan{}, err
    }
    now := time.Now()
    plan.ID = uuid.NewString()
    plan.SavedAt = now.Format("2 January 2006")

    payload, err := json.Marshal(plan)
    if err != nil {
        return models.DietPlan{}, fmt.Errorf("сериализация плана: %w", err)
    }
    _, err = s.db.ExecContext(ctx, `
        INSERT INTO saved_plans (id, saved_at, created_at, payload)
        VALUES (?, ?, ?, ?)
    `, plan.ID, plan.SavedAt, now.Format(createdAtLayout), string(payload))
    if err != nil {
        return models.DietPlan{}, fmt.Errorf("запись плана: %w", err)
    }
    return plan, nil
}

// List возвращает сохранённые планы, новые первыми.
// rowid разрешает ничью при записях в один и тот же момент.
func (s *Store) List(ctx context.Context) ([]models.DietPlan, error) {
    rows, err := s.db.QueryContext(ctx, `
        SELECT payload FROM saved_plans ORDER BY created_at DESC, rowid DESC
    `)
    if err != nil {
        return nil, fmt.Errorf("чтение планов: %w", err)
    }
    defer rows.Close()

    var out []models.DietPlan
    for rows.Next() {
        var payload string
        if err := rows.Scan(&payload); err != nil {
            return nil, err
        }
        var plan models.DietPlan
        if err := json.Unmarshal([]byte(payload), &plan); err != nil {
            return nil, fmt.Errorf("повреждённый план в базе: %w", err)
        }
        out = append(out, plan)
    }
    return out, rows.Err()
}

// Get — один план по id (повторная загрузка идемпотентна).
func (s *Store) Get(ctx context.Context, id string) (models.DietPlan, error) {
    var payload string
    err := s.db.QueryRowContext(ctx, `
        SELECT payload FROM saved_plans WHERE id = ?
    `, id).Scan(&payload)
    if errors.Is(err, sql.ErrNoRows) {
        return models.DietPlan{}, ErrNotFound
    }
    if err != nil {
        return models.DietPlan{}, err
    }
    var plan models.DietPlan
    if err := json.Unmarshal([]byte(payload), &plan); err != nil {
        return models.DietPlan{}, fmt.Errorf("повреждённый план в базе: %w", err)
    }
    return plan, nil
}

// Delete удаляет план по id.
func (s *Store) Delete(ctx context.Context, id string) error {
    res, err := s.db.ExecContext(ctx, `DELETE FROM saved_plans WHERE id = ?`, id)
    if err != nil {
        return err
    }
    if n, _ := res.RowsAffected(); n == 0 {
        return ErrNotFound
    }
    return nil
}
