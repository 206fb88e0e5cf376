package models

import (
	"github.com/jinzhu/gorm"
)

// Product is a menu entry the order core references by id. Pricing and
// descriptions live with the menu CRUD service; this core only needs the
// availability flags consulted at placement time.
type Product struct {
	gorm.Model
	Name      string `json:"name"`
	IsActive  bool   `json:"isActive"`
	IsDeleted bool   `json:"isDeleted"`
}

// Ingredient is a modifier or component (milk, syrup, shot) whose stock
// state can block an order.
type Ingredient struct {
	gorm.Model
	Name        string `json:"name"`
	IsAvailable bool   `json:"isAvailable"`
}

// ProductIngredient links a product to the ingredients it requires.
type ProductIngredient struct {
	gorm.Model
	ProductID    uint `gorm:"index" json:"productId"`
	IngredientID uint `gorm:"index" json:"ingredientId"`
}
