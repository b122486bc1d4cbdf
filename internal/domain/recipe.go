package domain

// Recipe сгенерированный рецепт
type Recipe struct {
	Title        string   `json:"title"`
	Ingredients  []string `json:"ingredients"`
	Instructions []string `json:"instructions"`
	CookTime     string   `json:"cookTime"`
}

// PantryItem распознанный продукт на фотографии кладовой
type PantryItem struct {
	Name     string `json:"name"`
	Quantity string `json:"quantity"`
	Unit     string `json:"unit"`
	Category string `json:"category"`
}

var pantryCategories = map[string]bool{
	"Protein":    true,
	"Vegetables": true,
	"Fruits":     true,
	"Grains":     true,
	"Dairy":      true,
	"Spices":     true,
	"Other":      true,
}

// NormalizePantryItems отбрасывает элементы без имени и проставляет значения
// по умолчанию: quantity "1", unit "pieces", категория вне справочника — Other.
func NormalizePantryItems(items []PantryItem) []PantryItem {
	out := make([]PantryItem, 0, len(items))
	for _, item := range items {
		if item.Name == "" {
			continue
		}
		if item.Quantity == "" {
			item.Quantity = "1"
		}
		if item.Unit == "" {
			item.Unit = "pieces"
		}
		if !pantryCategories[item.Category] {
			item.Category = "Other"
		}
		out = append(out, item)
	}
	return out
}
