// Package queue computes live positions and ETAs. Ranking is FIFO by
// order creation time at order granularity: every still-active item of an
// earlier order counts as ahead, while individually resolved items drop
// out of the count.
package queue

import (
	"time"
)

// Rank is a customer's place in line.
type Rank struct {
	Position   int `json:"position"`
	ETAMinutes int `json:"etaMinutes"`
}

// Ticket is one active item on the observer board.
type Ticket struct {
	Position       int       `json:"position"`
	OrderID        uint      `json:"orderId"`
	ItemID         uint      `json:"itemId"`
	PublicID       string    `json:"publicId"`
	ProductID      uint      `json:"productId"`
	ProductName    string    `json:"productName,omitempty"`
	Quantity       int       `json:"quantity"`
	RecipientName  string    `json:"recipientName,omitempty"`
	OrderStatus    string    `json:"orderStatus"`
	OrderCreatedAt time.Time `json:"orderCreatedAt"`
}

// Store answers the two queue queries against durable storage.
type Store interface {
	// ActiveItemsBefore counts active items belonging to queued or
	// preparing orders created strictly before the given instant.
	ActiveItemsBefore(createdAt time.Time) (int, error)
	// ActiveTickets lists every active item across queued, preparing and
	// cancelled orders, ordered by (order.createdAt, item.id). Cancelled
	// orders can still hold unresolved items when cancellation was
	// partial, so they stay on the board.
	ActiveTickets() ([]Ticket, error)
}

// Ranker derives positions and ETAs from the store. The per-item and base
// minutes are deployment tunables, not constants of the algorithm.
type Ranker struct {
	store          Store
	perItemMinutes int
	baseMinutes    int
}

// NewRanker builds a ranker with the given ETA tunables.
func NewRanker(store Store, perItemMinutes, baseMinutes int) *Ranker {
	return &Ranker{store: store, perItemMinutes: perItemMinutes, baseMinutes: baseMinutes}
}

// RankOf returns the queue position and ETA for an order created at the
// given instant. The earliest active order is always position 1.
func (r *Ranker) RankOf(orderCreatedAt time.Time) (Rank, error) {
	ahead, err := r.store.ActiveItemsBefore(orderCreatedAt)
	if err != nil {
		return Rank{}, err
	}
	return Rank{
		Position:   ahead + 1,
		ETAMinutes: ahead*r.perItemMinutes + r.baseMinutes,
	}, nil
}

// Board returns the flattened, globally-ordered ticket list with 1-based
// display positions assigned.
func (r *Ranker) Board() ([]Ticket, error) {
	tickets, err := r.store.ActiveTickets()
	if err != nil {
		return nil, err
	}
	for i := range tickets {
		tickets[i].Position = i + 1
	}
	return tickets, nil
}
