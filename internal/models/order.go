package models

import (
	"strings"
	"time"

	"github.com/jinzhu/gorm"
)

// Order represents a customer drink order placed at the counter.
// An order is never deleted: cancellation is a status transition, and the
// row (with its public code) remains queryable for guest tracking.
type Order struct {
	gorm.Model
	PublicID             string      `gorm:"unique_index;not null" json:"publicId"`
	Status               string      `json:"status"`
	UserID               *uint       `json:"userId,omitempty"`
	GuestName            string      `json:"guestName,omitempty"`
	GuestEmail           string      `json:"guestEmail,omitempty"`
	GuestPhone           string      `json:"guestPhone,omitempty"`
	NotificationsEnabled bool        `json:"notificationsEnabled"`
	NotificationMethods  string      `json:"notificationMethods,omitempty"`
	Items                []OrderItem `gorm:"foreignkey:OrderID" json:"items"`
}

// OrderItem is a single drink within an order. Completion and cancellation
// are independent one-way flags: an item is active (still in the queue) iff
// CompletedAt is null and Cancelled is false.
type OrderItem struct {
	gorm.Model
	OrderID       uint       `gorm:"index" json:"orderId"`
	ProductID     uint       `json:"productId"`
	Quantity      int        `json:"quantity"`
	Temperature   string     `json:"temperature,omitempty"`
	Shots         int        `json:"shots,omitempty"`
	Milk          string     `json:"milk,omitempty"`
	Modifiers     string     `json:"modifiers,omitempty"`
	RecipientName string     `json:"recipientName,omitempty"`
	CompletedAt   *time.Time `json:"completedAt,omitempty"`
	Cancelled     bool       `json:"cancelled"`
}

// Order status values.
const (
	OrderStatusQueued    = "queued"
	OrderStatusPreparing = "preparing"
	OrderStatusCompleted = "completed"
	OrderStatusCancelled = "cancelled"
)

// Active reports whether the item is still waiting to be made.
func (i *OrderItem) Active() bool {
	return i.CompletedAt == nil && !i.Cancelled
}

// Resolved reports whether the item has reached a terminal state.
func (i *OrderItem) Resolved() bool {
	return !i.Active()
}

// InFlight reports whether the order still occupies the queue.
func (o *Order) InFlight() bool {
	return o.Status == OrderStatusQueued || o.Status == OrderStatusPreparing
}

// IsGuest reports whether the order was placed without a registered account.
func (o *Order) IsGuest() bool {
	return o.UserID == nil
}

// NotificationMethodList splits the stored comma-joined method set.
func (o *Order) NotificationMethodList() []string {
	if o.NotificationMethods == "" {
		return nil
	}
	return strings.Split(o.NotificationMethods, ",")
}
