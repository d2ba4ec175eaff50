package planstore

import (
	"context"
	"path/filepath"
	"testing"

	"gym-center-manager/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "plans.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func samplePlan() models.DietPlan {
	plan := models.DietPlan{
		Calories:   2000,
		Macros:     models.Macros{Protein: 30, Carbs: 45, Fats: 25},
		Goal:       "maintain",
		Preference: "vegetarian",
	}
	plan.Meals.Breakfast = []models.MealItem{{ID: "breakfast-1", Name: "Овсянка", Portion: "250 г", Calories: 350, Image: "img"}}
	plan.Meals.Lunch = []models.MealItem{{ID: "lunch-1", Name: "Суп", Portion: "300 г", Calories: 450, Image: "img"}}
	plan.Meals.Dinner = []models.MealItem{{ID: "dinner-1", Name: "Рагу", Portion: "300 г", Calories: 500, Image: "img"}}
	plan.Meals.Snacks = []models.MealItem{{ID: "snacks-1", Name: "Йогурт", Portion: "150 г", Calories: 150, Image: "img"}}
	return plan
}

// Сохранение назначает id и дату, но не трогает содержимое плана.
func TestSaveKeepsContentIntact(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	saved, err := s.Save(ctx, samplePlan())
	require.NoError(t, err)
	assert.NotEmpty(t, saved.ID)
	assert.NotEmpty(t, saved.SavedAt)
	assert.Equal(t, 2000, saved.Calories)
	assert.Equal(t, samplePlan().Macros, saved.Macros)
	assert.Equal(t, samplePlan().Meals, saved.Meals)
}

func TestSaveAssignsFreshID(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	first, err := s.Save(ctx, samplePlan())
	require.NoError(t, err)
	second, err := s.Save(ctx, samplePlan())
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestListNewestFirst(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	a, err := s.Save(ctx, samplePlan())
	require.NoError(t, err)
	b, err := s.Save(ctx, samplePlan())
	require.NoError(t, err)

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, b.ID, list[0].ID)
	assert.Equal(t, a.ID, list[1].ID)
}

// Порядок детерминирован даже при сохранениях в один и тот же момент.
func TestListOrderStableOnBurst(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 5; i++ {
		saved, err := s.Save(ctx, samplePlan())
		require.NoError(t, err)
		ids = append(ids, saved.ID)
	}

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 5)
	for i, plan := range list {
		assert.Equal(t, ids[len(ids)-1-i], plan.ID)
	}
}

// Повторная загрузка по id возвращает тот же план.
func TestGetIdempotent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	saved, err := s.Save(ctx, samplePlan())
	require.NoError(t, err)

	got1, err := s.Get(ctx, saved.ID)
	require.NoError(t, err)
	got2, err := s.Get(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, saved, got1)
	assert.Equal(t, got1, got2)
}

func TestGetUnknownID(t *testing.T) {
	s := openTestStore(t)
	_, err := s.Get(context.Background(), "no-such-id")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDelete(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	saved, err := s.Save(ctx, samplePlan())
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, saved.ID))
	_, err = s.Get(ctx, saved.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.Delete(ctx, saved.ID), ErrNotFound)
}

func TestValidateMacros(t *testing.T) {
	assert.NoError(t, ValidateMacros(models.Macros{Protein: 30, Carbs: 45, Fats: 25}))
	// допуск ±2 на округления
	assert.NoError(t, ValidateMacros(models.Macros{Protein: 30, Carbs: 45, Fats: 27}))
	assert.NoError(t, ValidateMacros(models.Macros{Protein: 30, Carbs: 45, Fats: 23}))
	assert.ErrorIs(t, ValidateMacros(models.Macros{Protein: 10, Carbs: 10, Fats: 10}), ErrBadMacros)
	assert.ErrorIs(t, ValidateMacros(models.Macros{Protein: 50, Carbs: 50, Fats: 10}), ErrBadMacros)
}

func TestSaveRejectsBrokenMacros(t *testing.T) {
	s := openTestStore(t)
	plan := samplePlan()
	plan.Macros = models.Macros{Protein: 70, Carbs: 70, Fats: 70}
	_, err := s.Save(context.Background(), plan)
	assert.ErrorIs(t, err, ErrBadMacros)
}
