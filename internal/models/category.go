package models

import "strings"

// Category определяет тип заказа (тег): от него зависят маршрут заказа и разбиение на сегменты.
type Category string

const (
	CategoryDineIn   Category = "Dine-in"
	CategoryTakeaway Category = "Takeaway"
	CategoryDelivery Category = "Delivery"
	CategoryPickup   Category = "Pickup"
	CategoryPending  Category = "Pending"
)

// DefaultCategory присваивается новому заказу, если категория не указана.
const DefaultCategory = CategoryDineIn

// Categories перечисляет все допустимые категории в порядке отображения.
var Categories = []Category{
	CategoryDineIn,
	CategoryTakeaway,
	CategoryDelivery,
	CategoryPickup,
	CategoryPending,
}

// ParseCategory сопоставляет строку с категорией без учёта регистра.
func ParseCategory(s string) (Category, bool) {
	s = strings.TrimSpace(s)
	for _, c := range Categories {
		if strings.EqualFold(string(c), s) {
			return c, true
		}
	}
	return "", false
}

// Class возвращает класс категории. Пустая категория (старые записи) считается Dine-in.
func (c Category) Class() CategoryClass {
	if c == CategoryDineIn || c == "" {
		return ClassDineIn
	}
	return ClassOther
}

// CategoryClass делит категории на два класса: Dine-in и все остальные.
type CategoryClass string

const (
	ClassDineIn CategoryClass = "dine-in"
	ClassOther  CategoryClass = "other"
)

// ParseCategoryClass разбирает селектор класса из запроса.
func ParseCategoryClass(s string) (CategoryClass, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "dine-in", "dinein", "dine_in":
		return ClassDineIn, true
	case "other", "std", "standard":
		return ClassOther, true
	}
	return "", false
}
