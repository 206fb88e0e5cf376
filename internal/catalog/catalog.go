// Package catalog is the order core's boundary to the menu service. Menu
// CRUD and pricing live elsewhere; placement only needs the availability
// flags for the products an order references and the ingredients those
// products require.
package catalog

import (
	"fmt"

	"github.com/jinzhu/gorm"

	"github.com/brydenu/blfs-cafe-sub001/internal/models"
)

// ProductAvailability is the placement-time view of one product.
type ProductAvailability struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	IsActive  bool   `json:"isActive"`
	IsDeleted bool   `json:"isDeleted"`
}

// IngredientAvailability is the placement-time view of one ingredient.
type IngredientAvailability struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	IsAvailable bool   `json:"isAvailable"`
}

// Orderable reports whether the product can currently be ordered.
func (p ProductAvailability) Orderable() bool {
	return p.IsActive && !p.IsDeleted
}

// Checker answers availability queries for order placement.
type Checker interface {
	// Products returns availability for the given ids. An id with no
	// catalog row is not included; callers treat absence as unavailable.
	Products(ids []uint) ([]ProductAvailability, error)
	// IngredientsForProducts returns availability for every ingredient
	// required by any of the given products.
	IngredientsForProducts(ids []uint) ([]IngredientAvailability, error)
}

// Store answers availability queries from the shared database.
type Store struct {
	db *gorm.DB
}

// NewStore returns a database-backed Checker.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Products(ids []uint) ([]ProductAvailability, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var products []models.Product
	// Unscoped so soft-deleted rows still report IsDeleted instead of
	// vanishing from the result.
	if err := s.db.Unscoped().Where("id IN (?)", ids).Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}

	out := make([]ProductAvailability, 0, len(products))
	for _, p := range products {
		out = append(out, ProductAvailability{
			ID:        p.ID,
			Name:      p.Name,
			IsActive:  p.IsActive,
			IsDeleted: p.IsDeleted || p.DeletedAt != nil,
		})
	}
	return out, nil
}

func (s *Store) IngredientsForProducts(ids []uint) ([]IngredientAvailability, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var ingredients []models.Ingredient
	err := s.db.
		Joins("JOIN product_ingredients ON product_ingredients.ingredient_id = ingredients.id").
		Where("product_ingredients.product_id IN (?)", ids).
		Group("ingredients.id").
		Find(&ingredients).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load ingredients: %w", err)
	}

	out := make([]IngredientAvailability, 0, len(ingredients))
	for _, ing := range ingredients {
		out = append(out, IngredientAvailability{
			ID:          ing.ID,
			Name:        ing.Name,
			IsAvailable: ing.IsAvailable,
		})
	}
	return out, nil
}
