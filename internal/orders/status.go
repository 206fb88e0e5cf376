package orders

import (
	"github.com/brydenu/blfs-cafe-sub001/internal/models"
)

// AggregateStatus derives the order-level status from its items' states.
// This is the single place the rule lives; every item mutation recomputes
// through it rather than patching status at the call site.
//
//   - any item pending, none resolved yet -> queued
//   - any item pending, at least one resolved -> preparing
//   - all resolved, at least one completed -> completed
//   - all cancelled -> cancelled
func AggregateStatus(items []models.OrderItem) string {
	pending, completed := 0, 0
	for i := range items {
		switch {
		case items[i].Active():
			pending++
		case items[i].CompletedAt != nil:
			completed++
		}
	}

	if pending > 0 {
		if pending == len(items) {
			return models.OrderStatusQueued
		}
		return models.OrderStatusPreparing
	}

	if completed > 0 {
		return models.OrderStatusCompleted
	}
	return models.OrderStatusCancelled
}
