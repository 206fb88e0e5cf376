package orders

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel failures surfaced to the HTTP layer.
var (
	// ErrAlreadyResolved means the item was already completed or
	// cancelled; both transitions are one-way and a second attempt is a
	// clean failure, never a double-apply.
	ErrAlreadyResolved = errors.New("item is already completed or cancelled")

	// ErrUnauthorized means the ownership or capability check failed.
	ErrUnauthorized = errors.New("not allowed to modify this order")

	ErrOrderNotFound = errors.New("order not found")
	ErrItemNotFound  = errors.New("order item not found")
	ErrNoItems       = errors.New("order must contain at least one item")
)

// ItemUnavailableError names the products and ingredients that blocked
// placement so the caller can render a useful message.
type ItemUnavailableError struct {
	Products    []string
	Ingredients []string
}

func (e *ItemUnavailableError) Error() string {
	var parts []string
	if len(e.Products) > 0 {
		parts = append(parts, "unavailable products: "+strings.Join(e.Products, ", "))
	}
	if len(e.Ingredients) > 0 {
		parts = append(parts, "unavailable ingredients: "+strings.Join(e.Ingredients, ", "))
	}
	if len(parts) == 0 {
		return "order references unavailable items"
	}
	return fmt.Sprintf("cannot place order: %s", strings.Join(parts, "; "))
}
