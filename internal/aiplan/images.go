package aiplan

import "strings"

// Иллюстрации подбираются локально по слоту приёма пищи и предпочтению,
// модель картинок не возвращает.

var mealImages = map[string][]string{
    "breakfast/vegetarian": {
        "https://images.gym-center.dev/meals/veg-oatmeal.jpg",
        "https://images.gym-center.dev/meals/veg-smoothie-bowl.jpg",
    },
    "breakfast/vegan": {
        "https://images.gym-center.dev/meals/vegan-porridge.jpg",
        "https://images.gym-center.dev/meals/vegan-toast.jpg",
    },
    "breakfast/non-vegetarian": {
        "https://images.gym-center.dev/meals/eggs-omelette.jpg",
        "https://images.gym-center.dev/meals/eggs-toast.jpg",
    },
    "lunch/vegetarian": {
        "https://images.gym-center.dev/meals/veg-buddha-bowl.jpg",
        "https://images.gym-center.dev/meals/paneer-rice.jpg",
    },
    "lunch/vegan": {
        "https://images.gym-center.dev/meals/vegan-curry.jpg",
        "https://images.gym-center.dev/meals/lentil-bowl.jpg",
    },
    "lunch/non-vegetarian": {
        "https://images.gym-center.dev/meals/chicken-rice.jpg",
        "https://images.gym-center.dev/meals/salmon-salad.jpg",
    },
    "dinner/vegetarian": {
        "https://images.gym-center.dev/meals/veg-stirfry.jpg",
        "https://images.gym-center.dev/meals/veg-soup.jpg",
    },
    "dinner/vegan": {
        "https://images.gym-center.dev/meals/tofu-bowl.jpg",
        "https://images.gym-center.dev/meals/vegan-pasta.jpg",
    },
    "dinner/non-vegetarian": {
        "https://images.gym-center.dev/meals/grilled-fish.jpg",
        "https://images.gym-center.dev/meals/steak-veggies.jpg",
    },
    "snacks/vegetarian": {
        "https://images.gym-center.dev/meals/yogurt-berries.jpg",
        "https://images.gym-center.dev/meals/nuts-mix.jpg",
    },
    "snacks/vegan": {
        "https://images.gym-center.dev/meals/hummus-sticks.jpg",
        "https://images.gym-center.dev/meals/fruit-bowl.jpg",
    },
    "snacks/non-vegetarian": {
        "https://images.gym-center.dev/meals/protein-shake.jpg",
        "https://images.gym-center.dev/meals/boiled-eggs.jpg",
    },
}

const fallbackImage = "https://images.gym-center.dev/meals/default.jpg"

// ImageFor — детерминированный выбор картинки: слот + предпочтение + номер блюда.
func ImageFor(slot, preference string, index int) string {
    pref := strings.ToLower(strings.TrimSpace(preference))
    switch pref {
    case "vegetarian", "vegan":
    default:
        pref = "non-vegetarian"
    }
    imgs := mealImages[slot+"/"+pref]
    if len(imgs) == 0 {
        return fallbackImage
    }
    if index < 0 {
        index = 0
    }
    return imgs[index%len(imgs)]
}
