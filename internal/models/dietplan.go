package models

// Планы питания, которые возвращает генератор и хранит локальный стор.

type Macros struct {
    Protein int `json:"protein"` // проценты, в сумме ~100
    Carbs   int `json:"carbs"`
    Fats    int `json:"fats"`
}

type MealItem struct {
    ID       string `json:"id"`
    Name     string `json:"name"`
    Portion  string `json:"portion,omitempty"`
    Calories int    `json:"calories"`
    Image    string `json:"image"`
}

type Meals struct {
    Breakfast []MealItem `json:"breakfast"`
    Lunch     []MealItem `json:"lunch"`
    Dinner    []MealItem `json:"dinner"`
    Snacks    []MealItem `json:"snacks"`
}

type DietPlan struct {
    ID         string `json:"id"`
    Calories   int    `json:"calories"`
    Macros     Macros `json:"macros"`
    Meals      Meals  `json:"meals"`
    Goal       string `json:"goal,omitempty"`
    Preference string `json:"preference,omitempty"`
    SavedAt    string `json:"saved_at,omitempty"` // человекочитаемая дата сохранения
}
